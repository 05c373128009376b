// Package server provides an importable HTTP server for the login
// application the end-to-end suite drives. Tests start and stop it
// programmatically without running main().
package server

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/charmbracelet/log"

	"github.com/thesyncim/logine2e/internal/clock"
	"github.com/thesyncim/logine2e/internal/config"
)

// Config holds server configuration options.
type Config struct {
	Addr         string            // Listen address (e.g., ":8080" or ":0" for random port)
	ReadTimeout  time.Duration     // HTTP read timeout
	WriteTimeout time.Duration     // HTTP write timeout
	Users        map[string]string // Accepted username -> password
	SessionTTL   time.Duration     // Lifetime of a login session
	HashKey      []byte            // Session signing key; nil generates one
	Clock        clock.Clock       // Session expiry clock; nil uses the system clock
	Logger       *log.Logger       // nil discards logs
}

// DefaultConfig returns a configuration suitable for testing.
// Uses ":0" to bind to a random available port and accepts the
// credentials resolved by config.ValidCredentials.
func DefaultConfig() Config {
	creds := config.ValidCredentials()
	return Config{
		Addr:         ":0",
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		Users:        map[string]string{creds.Username: creds.Password},
		SessionTTL:   config.DefaultSessionTTL,
	}
}

// ConfigFrom returns DefaultConfig with the listen address and session
// lifetime taken from cfg.
func ConfigFrom(cfg config.Config) Config {
	c := DefaultConfig()
	if cfg.AppAddr != "" {
		c.Addr = cfg.AppAddr
	}
	if cfg.SessionTTL > 0 {
		c.SessionTTL = cfg.SessionTTL
	}
	return c
}

// Server is the login application under test.
type Server struct {
	httpServer *http.Server
	listener   net.Listener
	sessions   *SessionStore
	logger     *log.Logger
	addr       string
	mu         sync.Mutex
	running    bool
}

// NewServer creates a new server with the given configuration.
// The server is not started until Start() is called.
func NewServer(cfg Config) (*Server, error) {
	if len(cfg.Users) == 0 {
		return nil, errors.New("at least one user is required")
	}
	if cfg.SessionTTL <= 0 {
		return nil, fmt.Errorf("invalid session TTL %v", cfg.SessionTTL)
	}

	logger := cfg.Logger
	if logger == nil {
		logger = log.New(io.Discard)
	}

	s := &Server{
		sessions: NewSessionStore(cfg.HashKey, cfg.SessionTTL, cfg.Clock),
		logger:   logger,
	}

	h := &handler{
		users:    cfg.Users,
		sessions: s.sessions,
		logger:   logger,
	}

	s.httpServer = &http.Server{
		Addr:         cfg.Addr,
		Handler:      h.routes(),
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}
	return s, nil
}

// Handler exposes the routing table, for use with httptest.
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

// Sessions returns the server's session store.
func (s *Server) Sessions() *SessionStore {
	return s.sessions
}

// Start begins listening and serving HTTP requests.
// Returns the actual address the server is listening on (useful when port is 0).
// This method is non-blocking - the server runs in a goroutine.
func (s *Server) Start() (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		return s.addr, nil
	}

	ln, err := net.Listen("tcp", s.httpServer.Addr)
	if err != nil {
		return "", fmt.Errorf("failed to listen: %w", err)
	}

	s.listener = ln
	s.addr = ln.Addr().String()
	s.running = true

	go func() {
		if err := s.httpServer.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("serve failed", "addr", ln.Addr(), "err", err)
		}
	}()

	s.logger.Info("login app listening", "addr", s.addr)
	return s.addr, nil
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.running {
		return nil
	}

	s.running = false
	return s.httpServer.Shutdown(ctx)
}

// Addr returns the address the server is listening on.
// Returns empty string if server is not running.
func (s *Server) Addr() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.addr
}

// URL returns a browsable base URL for the listening address. Wildcard
// hosts are replaced with localhost.
func (s *Server) URL() string {
	addr := s.Addr()
	if addr == "" {
		return ""
	}
	_, port, err := net.SplitHostPort(addr)
	if err != nil {
		return "http://" + addr
	}
	return "http://localhost:" + port
}
