// browser.go provides browser automation utilities for E2E testing.
// It wraps Rod to hand out isolated Chrome tabs.
package testutil

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"

	"github.com/thesyncim/logine2e/internal/config"
)

// BrowserConfig configures Chrome launch options.
type BrowserConfig struct {
	Headless bool          // Run in headless mode (default: true)
	Timeout  time.Duration // Default operation timeout (default: 30s)
}

// DefaultBrowserConfig returns sensible defaults for E2E testing.
func DefaultBrowserConfig() BrowserConfig {
	return BrowserConfig{
		Headless: true,
		Timeout:  config.DefaultBrowserTimeout,
	}
}

// BrowserConfigFrom derives a BrowserConfig from the resolved settings.
func BrowserConfigFrom(cfg config.Config) BrowserConfig {
	return BrowserConfig{
		Headless: cfg.Headless,
		Timeout:  cfg.BrowserTimeout,
	}
}

// BrowserClient owns one Chrome process shared by many tabs.
type BrowserClient struct {
	browser  *rod.Browser
	launcher *launcher.Launcher
	timeout  time.Duration
}

// NewBrowserClient launches Chrome and connects to it.
// The browser is configured with:
//   - No sandbox (for container compatibility)
//   - No GPU
func NewBrowserClient(cfg BrowserConfig) (*BrowserClient, error) {
	if cfg.Timeout <= 0 {
		return nil, errors.New("browser timeout must be positive")
	}

	l := launcher.New().
		Headless(cfg.Headless).
		Set("no-sandbox").
		Set("disable-gpu")

	url, err := l.Launch()
	if err != nil {
		return nil, fmt.Errorf("failed to launch Chrome: %w", err)
	}

	browser := rod.New().ControlURL(url)
	if err := browser.Connect(); err != nil {
		l.Kill()
		return nil, fmt.Errorf("failed to connect to Chrome: %w", err)
	}

	return &BrowserClient{
		browser:  browser,
		launcher: l,
		timeout:  cfg.Timeout,
	}, nil
}

// Timeout returns the configured operation timeout.
func (c *BrowserClient) Timeout() time.Duration {
	return c.timeout
}

// Tab is one isolated browser tab. Cookies and storage are not shared with
// any other Tab.
type Tab struct {
	Page      *rod.Page
	incognito *rod.Browser
}

// NewTab opens a blank tab in a fresh incognito context.
func (c *BrowserClient) NewTab() (*Tab, error) {
	incognito, err := c.browser.Incognito()
	if err != nil {
		return nil, fmt.Errorf("failed to create incognito context: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), c.timeout)
	defer cancel()

	page, err := incognito.Context(ctx).Page(proto.TargetCreateTarget{URL: "about:blank"})
	if err != nil {
		_ = incognito.Close()
		return nil, fmt.Errorf("failed to open tab: %w", err)
	}

	// Detach from the creation deadline so later calls set their own.
	return &Tab{Page: page.Context(context.Background()), incognito: incognito}, nil
}

// Close closes the tab and disposes its incognito context.
func (t *Tab) Close() error {
	return t.incognito.Close()
}

// Close cleans up browser resources.
// Always call this (via defer) to prevent orphaned Chrome processes.
func (c *BrowserClient) Close() error {
	if c.browser == nil {
		return nil
	}
	err := c.browser.Close()
	if c.launcher != nil {
		c.launcher.Cleanup()
	}
	return err
}
