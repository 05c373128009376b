// Login app server
//
// Serves the sign-in form, the dashboard and the /auth JSON endpoints that
// the end-to-end suite exercises. Use it to run the suite by hand:
//
//	go run ./cmd/loginapp serve --addr :8080
//	BASE_URL=http://localhost:8080 go test -tags=e2e ./e2e/...
//
// Accepted credentials come from TEST_USERNAME/TEST_PASSWORD
// (default testuser/password).
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/thesyncim/logine2e/cmd/loginapp/server"
	"github.com/thesyncim/logine2e/internal/config"
)

var (
	flagAddr       string
	flagSessionTTL time.Duration
	flagLogLevel   string
	flagEnvFile    string
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:          "loginapp",
		Short:        "Login application for browser end-to-end tests",
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVar(&flagEnvFile, "env-file", ".env", "optional dotenv file loaded before reading the environment")

	serve := &cobra.Command{
		Use:   "serve",
		Short: "Serve the login app until interrupted",
		Long: `Serve the sign-in form, dashboard and JSON auth endpoints.

Routes:
  GET  /login          sign-in form
  POST /login          form submission
  GET  /dashboard      signed-in landing page
  POST /logout         end the browser session
  POST /auth/login     JSON login, returns a bearer token
  POST /auth/logout    JSON logout
  GET  /health         liveness probe`,
		PreRunE: func(cmd *cobra.Command, args []string) error {
			return config.LoadDotEnv(flagEnvFile)
		},
		RunE: runServe,
	}
	serve.Flags().StringVar(&flagAddr, "addr", "", "listen address (default $LOGIN_APP_ADDR or :8080)")
	serve.Flags().DurationVar(&flagSessionTTL, "session-ttl", 0, "session lifetime (default $SESSION_TTL or 30m)")
	serve.Flags().StringVar(&flagLogLevel, "log-level", "info", "log level: debug, info, warn, error")

	root.AddCommand(serve)
	return root
}

func runServe(cmd *cobra.Command, args []string) error {
	level, err := log.ParseLevel(flagLogLevel)
	if err != nil {
		return fmt.Errorf("invalid --log-level: %w", err)
	}
	logger := log.NewWithOptions(os.Stderr, log.Options{
		Level:           level,
		ReportTimestamp: true,
		Prefix:          "loginapp",
	})

	cfg, err := config.Load()
	if err != nil {
		return err
	}

	srvCfg := server.ConfigFrom(cfg)
	srvCfg.Logger = logger
	if flagAddr != "" {
		srvCfg.Addr = flagAddr
	}
	if flagSessionTTL > 0 {
		srvCfg.SessionTTL = flagSessionTTL
	}

	srv, err := server.NewServer(srvCfg)
	if err != nil {
		return fmt.Errorf("failed to create server: %w", err)
	}
	if _, err := srv.Start(); err != nil {
		return fmt.Errorf("failed to start server: %w", err)
	}

	creds := config.ValidCredentials()
	logger.Info("ready", "url", srv.URL(), "user", creds.Username)

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	<-ctx.Done()

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
