package pages

import (
	"fmt"
	"regexp"

	"github.com/go-rod/rod"
)

// RodLoginPage drives the login screen through Rod.
type RodLoginPage struct {
	binding
}

var _ LoginPage = (*RodLoginPage)(nil)

// NewLoginPage binds the login screen of the application at baseURL to page.
// Construction does not touch the browser.
func NewLoginPage(page *rod.Page, baseURL string, opts ...Option) *RodLoginPage {
	return &RodLoginPage{binding: newBinding(page, baseURL, opts)}
}

// Goto navigates to the login screen and waits for it to load.
func (l *RodLoginPage) Goto() error {
	target, err := resolve(l.baseURL, l.paths.Login)
	if err != nil {
		return err
	}
	return l.do(func(p *rod.Page) error {
		if err := p.Navigate(target); err != nil {
			return fmt.Errorf("failed to navigate to %s: %w", target, err)
		}
		if err := p.WaitLoad(); err != nil {
			return fmt.Errorf("login page did not load: %w", err)
		}
		return nil
	})
}

// ExpectLoginFormVisible asserts the form and its controls are visible.
func (l *RodLoginPage) ExpectLoginFormVisible() error {
	return l.do(func(p *rod.Page) error {
		for _, sel := range []string{l.sel.LoginForm, l.sel.Username, l.sel.Password, l.sel.Submit} {
			el, err := p.Element(sel)
			if err != nil {
				return fmt.Errorf("expected login form element %s: %w", sel, err)
			}
			if err := el.WaitVisible(); err != nil {
				return fmt.Errorf("expected login form element %s to be visible: %w", sel, err)
			}
		}
		return nil
	})
}

// Login fills in both fields and submits the form. It returns once the
// resulting page has loaded, or, for forms handled in-page, once an error
// message or the dashboard appears.
func (l *RodLoginPage) Login(username, password string) error {
	return l.do(func(p *rod.Page) error {
		if err := fill(p, l.sel.Username, username); err != nil {
			return err
		}
		if err := fill(p, l.sel.Password, password); err != nil {
			return err
		}

		button, err := p.Element(l.sel.Submit)
		if err != nil {
			return fmt.Errorf("failed to find submit button %s: %w", l.sel.Submit, err)
		}
		return submit(p, button, "submit login form", l.sel.ErrorMessage, l.sel.Dashboard)
	})
}

// ExpectErrorMessage asserts an error message containing text is visible.
func (l *RodLoginPage) ExpectErrorMessage(text string) error {
	err := l.do(func(p *rod.Page) error {
		el, err := p.ElementR(l.sel.ErrorMessage, regexp.QuoteMeta(text))
		if err != nil {
			return err
		}
		return el.WaitVisible()
	})
	if err == nil {
		return nil
	}
	if got, ok := l.peekText(l.sel.ErrorMessage); ok {
		return fmt.Errorf("expected error message %q, got %q: %w", text, got, err)
	}
	return fmt.Errorf("expected error message %q, none shown: %w", text, err)
}

// fill replaces the value of the input at selector with value.
func fill(p *rod.Page, selector, value string) error {
	el, err := p.Element(selector)
	if err != nil {
		return fmt.Errorf("failed to find input %s: %w", selector, err)
	}
	if _, err := el.Eval(`function() { this.value = "" }`); err != nil {
		return fmt.Errorf("failed to clear input %s: %w", selector, err)
	}
	if value == "" {
		return nil
	}
	if err := el.Input(value); err != nil {
		return fmt.Errorf("failed to type into %s: %w", selector, err)
	}
	return nil
}
