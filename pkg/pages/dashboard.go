package pages

import (
	"fmt"
	"net/url"
	"regexp"
	"strings"

	"github.com/go-rod/rod"
)

// RodDashboardPage drives the post-login dashboard through Rod.
type RodDashboardPage struct {
	binding
}

var _ DashboardPage = (*RodDashboardPage)(nil)

// NewDashboardPage binds the dashboard of the application at baseURL to page.
func NewDashboardPage(page *rod.Page, baseURL string, opts ...Option) *RodDashboardPage {
	return &RodDashboardPage{binding: newBinding(page, baseURL, opts)}
}

// ExpectDashboardLoaded asserts the tab is on the dashboard route and the
// dashboard container is visible.
func (d *RodDashboardPage) ExpectDashboardLoaded() error {
	return d.do(func(p *rod.Page) error {
		el, err := p.Element(d.sel.Dashboard)
		if err != nil {
			return fmt.Errorf("expected dashboard %s: %w", d.sel.Dashboard, err)
		}
		if err := el.WaitVisible(); err != nil {
			return fmt.Errorf("expected dashboard %s to be visible: %w", d.sel.Dashboard, err)
		}

		info, err := p.Info()
		if err != nil {
			return fmt.Errorf("failed to read page URL: %w", err)
		}
		u, err := url.Parse(info.URL)
		if err != nil {
			return fmt.Errorf("failed to parse page URL %q: %w", info.URL, err)
		}
		if !strings.HasSuffix(strings.TrimRight(u.Path, "/"), d.paths.Dashboard) {
			return fmt.Errorf("expected dashboard route %s, on %s", d.paths.Dashboard, u.Path)
		}
		return nil
	})
}

// ExpectUserLoggedIn asserts the displayed identity is exactly username.
func (d *RodDashboardPage) ExpectUserLoggedIn(username string) error {
	pattern := "^\\s*" + regexp.QuoteMeta(username) + "\\s*$"
	err := d.do(func(p *rod.Page) error {
		el, err := p.ElementR(d.sel.CurrentUser, pattern)
		if err != nil {
			return err
		}
		return el.WaitVisible()
	})
	if err == nil {
		return nil
	}
	if got, ok := d.peekText(d.sel.CurrentUser); ok {
		return fmt.Errorf("expected logged-in user %q, got %q: %w", username, strings.TrimSpace(got), err)
	}
	return fmt.Errorf("expected logged-in user %q, no identity shown: %w", username, err)
}

// Logout signs out and waits for the resulting page to load, or for the
// login form to appear in-page.
func (d *RodDashboardPage) Logout() error {
	return d.do(func(p *rod.Page) error {
		el, err := p.Element(d.sel.Logout)
		if err != nil {
			return fmt.Errorf("failed to find logout control %s: %w", d.sel.Logout, err)
		}
		return submit(p, el, "log out", d.sel.LoginForm)
	})
}
