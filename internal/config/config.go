// Package config resolves the settings shared by the login fixture and the
// end-to-end suite from the environment.
//
// An optional .env file is loaded first. Values already present in the
// process environment always win over the file.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Environment variable names.
const (
	EnvUsername       = "TEST_USERNAME"
	EnvPassword       = "TEST_PASSWORD"
	EnvBaseURL        = "BASE_URL"
	EnvHeadless       = "HEADLESS"
	EnvBrowserTimeout = "BROWSER_TIMEOUT"
	EnvAppAddr        = "LOGIN_APP_ADDR"
	EnvSessionTTL     = "SESSION_TTL"
)

// Defaults used when the corresponding variable is unset.
const (
	DefaultUsername       = "testuser"
	DefaultPassword       = "password"
	DefaultBrowserTimeout = 30 * time.Second
	DefaultAppAddr        = ":8080"
	DefaultSessionTTL     = 30 * time.Minute
)

// Credentials is a username/password pair submitted to the login form.
type Credentials struct {
	Username string
	Password string
}

// Config holds the resolved settings.
type Config struct {
	BaseURL        string        // External application; empty means start the fixture in-process
	Headless       bool          // Run Chrome headless (default: true)
	BrowserTimeout time.Duration // Per-tab Rod timeout
	AppAddr        string        // Fixture listen address
	SessionTTL     time.Duration // Fixture session lifetime
}

// LoadDotEnv loads path into the environment if it exists. A missing file
// is not an error.
func LoadDotEnv(path string) error {
	if err := godotenv.Load(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("failed to load %s: %w", path, err)
	}
	return nil
}

// Load reads the configuration from the environment.
func Load() (Config, error) {
	cfg := Config{
		BaseURL:        os.Getenv(EnvBaseURL),
		Headless:       true,
		BrowserTimeout: DefaultBrowserTimeout,
		AppAddr:        getenv(EnvAppAddr, DefaultAppAddr),
		SessionTTL:     DefaultSessionTTL,
	}

	if v := os.Getenv(EnvHeadless); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return Config{}, fmt.Errorf("invalid %s %q: %w", EnvHeadless, v, err)
		}
		cfg.Headless = b
	}

	var err error
	if cfg.BrowserTimeout, err = durationEnv(EnvBrowserTimeout, DefaultBrowserTimeout); err != nil {
		return Config{}, err
	}
	if cfg.SessionTTL, err = durationEnv(EnvSessionTTL, DefaultSessionTTL); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

// ValidCredentials returns the credentials for the successful-login path.
// It reads the environment on every call. The username is trimmed the same
// way the login app trims submitted usernames; the password is kept as is.
func ValidCredentials() Credentials {
	username := strings.TrimSpace(os.Getenv(EnvUsername))
	if username == "" {
		username = DefaultUsername
	}
	return Credentials{
		Username: username,
		Password: getenv(EnvPassword, DefaultPassword),
	}
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func durationEnv(key string, fallback time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, v, err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("invalid %s %q: must be positive", key, v)
	}
	return d, nil
}
