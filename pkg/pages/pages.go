package pages

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/proto"
)

// DefaultTimeout bounds each page-object call.
const DefaultTimeout = 30 * time.Second

// LoginPage is the sign-in screen.
type LoginPage interface {
	// Goto navigates to the login screen.
	Goto() error
	// ExpectLoginFormVisible asserts the username, password and submit
	// controls are rendered.
	ExpectLoginFormVisible() error
	// Login submits the form. Empty values leave the field empty.
	Login(username, password string) error
	// ExpectErrorMessage asserts an error message containing text is shown.
	ExpectErrorMessage(text string) error
}

// DashboardPage is the screen shown after a successful sign-in.
type DashboardPage interface {
	ExpectDashboardLoaded() error
	// ExpectUserLoggedIn asserts the displayed identity equals username.
	ExpectUserLoggedIn(username string) error
	Logout() error
}

// Selectors locates the login flow's elements.
type Selectors struct {
	LoginForm    string
	Username     string
	Password     string
	Submit       string
	ErrorMessage string
	Dashboard    string
	CurrentUser  string
	Logout       string
}

// DefaultSelectors matches the markup served by cmd/loginapp.
func DefaultSelectors() Selectors {
	return Selectors{
		LoginForm:    "#login-form",
		Username:     "#username",
		Password:     "#password",
		Submit:       "button[type=submit]",
		ErrorMessage: "#error-message",
		Dashboard:    "#dashboard",
		CurrentUser:  "#current-user",
		Logout:       "#logout",
	}
}

// Paths are the application routes, relative to the base URL.
type Paths struct {
	Login     string
	Dashboard string
}

// DefaultPaths matches the routes served by cmd/loginapp.
func DefaultPaths() Paths {
	return Paths{Login: "/login", Dashboard: "/dashboard"}
}

// Option configures a page object.
type Option func(*binding)

// WithTimeout bounds each call. Default: 30 seconds
func WithTimeout(d time.Duration) Option {
	return func(b *binding) {
		if d > 0 {
			b.timeout = d
		}
	}
}

// WithSelectors overrides the element selectors.
func WithSelectors(s Selectors) Option {
	return func(b *binding) {
		b.sel = s
	}
}

// WithPaths overrides the application routes.
func WithPaths(p Paths) Option {
	return func(b *binding) {
		b.paths = p
	}
}

// binding ties a page object to one tab and application.
type binding struct {
	page    *rod.Page
	baseURL string
	timeout time.Duration
	sel     Selectors
	paths   Paths
}

func newBinding(page *rod.Page, baseURL string, opts []Option) binding {
	b := binding{
		page:    page,
		baseURL: baseURL,
		timeout: DefaultTimeout,
		sel:     DefaultSelectors(),
		paths:   DefaultPaths(),
	}
	for _, opt := range opts {
		opt(&b)
	}
	return b
}

// do runs fn against a copy of the tab bounded by the call timeout.
func (b binding) do(fn func(p *rod.Page) error) error {
	p := b.page.Timeout(b.timeout)
	defer p.CancelTimeout()
	return fn(p)
}

// submit clicks el and returns once the click was processed: either a
// document navigation finished loading, or one of the outcome selectors
// matched without a navigation. p must carry the call deadline; if neither
// happens before it, submit fails instead of reporting success.
func submit(p *rod.Page, el *rod.Element, what string, outcomes ...string) error {
	ctx, cancel := context.WithCancel(p.GetContext())
	defer cancel()
	watched := p.Context(ctx)

	wait := watched.WaitNavigation(proto.PageLifecycleEventNameLoad)
	if err := el.Click(proto.InputMouseButtonLeft, 1); err != nil {
		return fmt.Errorf("failed to %s: %w", what, err)
	}

	navigated := make(chan struct{})
	go func() {
		wait()
		close(navigated)
	}()

	settled := make(chan struct{})
	go func() {
		race := watched.Race()
		for _, sel := range outcomes {
			race = race.Element(sel)
		}
		if _, err := race.Do(); err == nil {
			close(settled)
		}
	}()

	select {
	case <-navigated:
	case <-settled:
	case <-ctx.Done():
	}
	if err := p.GetContext().Err(); err != nil {
		return fmt.Errorf("failed to %s: no navigation and none of %v appeared: %w", what, outcomes, err)
	}
	return nil
}

// peekText returns the text of the first element matching selector without
// waiting for it to appear. Used to enrich failure messages.
func (b binding) peekText(selector string) (string, bool) {
	el, err := b.page.Sleeper(rod.NotFoundSleeper).Element(selector)
	if err != nil {
		return "", false
	}
	text, err := el.Text()
	if err != nil {
		return "", false
	}
	return text, true
}

// resolve joins path onto base.
func resolve(base, path string) (string, error) {
	u, err := url.Parse(base)
	if err != nil {
		return "", fmt.Errorf("invalid base URL %q: %w", base, err)
	}
	if u.Scheme == "" || u.Host == "" {
		return "", fmt.Errorf("invalid base URL %q: scheme and host are required", base)
	}
	return u.JoinPath(path).String(), nil
}
