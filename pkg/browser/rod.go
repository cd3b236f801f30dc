// Package browser wraps a Rod-driven Chrome session behind the small
// surface the crawl loop needs: navigate, log in, scroll, snapshot.
package browser

import (
	"context"
	"fmt"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
	"github.com/go-rod/stealth"

	"feedreach/pkg/logger"
	"feedreach/pkg/retry"
)

// Config configures the browser session
type Config struct {
	// Headless launches Chrome without a window. Headful is the default:
	// automated headless sessions are more likely to trip upstream defenses.
	Headless bool

	// UserAgent overrides the browser user agent when non-empty
	UserAgent string

	// LoginURL is the page holding the credential form
	LoginURL string

	// SuccessSelector is the element whose presence indicates a logged-in
	// session. Default: #global-nav-search.
	SuccessSelector string

	// ScrollPause is how long to let content settle after each scroll
	ScrollPause time.Duration

	// NavTimeout bounds navigation and load waits. Default: 30s.
	NavTimeout time.Duration

	Logger logger.Logger
}

func (c *Config) defaults() {
	if c.SuccessSelector == "" {
		c.SuccessSelector = "#global-nav-search"
	}
	if c.ScrollPause <= 0 {
		c.ScrollPause = 2 * time.Second
	}
	if c.NavTimeout <= 0 {
		c.NavTimeout = 30 * time.Second
	}
	if c.Logger == nil {
		c.Logger = logger.GetLogger()
	}
}

// Session owns one Chrome instance and one stealth page for the duration
// of a crawl run. Not safe for concurrent use; the crawl loop is the only
// owner by contract.
type Session struct {
	cfg        Config
	lnch       *launcher.Launcher
	browser    *rod.Browser
	page       *rod.Page
	lastHeight int
}

// NewSession launches Chrome and opens a stealth page
func NewSession(cfg Config) (*Session, error) {
	cfg.defaults()

	lnch := launcher.New().
		Headless(cfg.Headless).
		Set("disable-gpu").
		Set("no-sandbox").
		Set("disable-dev-shm-usage").
		Set("window-size", "1200,900")

	controlURL, err := lnch.Launch()
	if err != nil {
		return nil, fmt.Errorf("browser: launch chrome: %w", err)
	}

	b := rod.New().ControlURL(controlURL)
	if err := b.Connect(); err != nil {
		lnch.Cleanup()
		return nil, fmt.Errorf("browser: connect: %w", err)
	}

	page, err := stealth.Page(b)
	if err != nil {
		_ = b.Close()
		lnch.Cleanup()
		return nil, fmt.Errorf("browser: create stealth page: %w", err)
	}

	if cfg.UserAgent != "" {
		override := &proto.NetworkSetUserAgentOverride{UserAgent: cfg.UserAgent}
		if err := page.SetUserAgent(override); err != nil {
			cfg.Logger.WithError(err).Warn("browser: user agent override failed")
		}
	}

	return &Session{cfg: cfg, lnch: lnch, browser: b, page: page}, nil
}

// Navigate loads the URL and waits for the page to settle
func (s *Session) Navigate(ctx context.Context, url string) error {
	navCtx, cancel := context.WithTimeout(ctx, s.cfg.NavTimeout)
	defer cancel()

	if err := s.page.Context(navCtx).Navigate(url); err != nil {
		return fmt.Errorf("browser: navigate %s: %w", url, err)
	}
	if err := s.page.Context(navCtx).WaitLoad(); err != nil {
		s.cfg.Logger.WithError(err).WithField("url", url).Warn("browser: wait load timeout")
	}

	s.lastHeight = 0
	return nil
}

// SubmitLogin opens the login page and submits the credential form
func (s *Session) SubmitLogin(ctx context.Context, email, password string) error {
	if err := s.Navigate(ctx, s.cfg.LoginURL); err != nil {
		return err
	}

	formCtx, cancel := context.WithTimeout(ctx, s.cfg.NavTimeout)
	defer cancel()
	page := s.page.Context(formCtx)

	emailInput, err := page.Element("#username")
	if err != nil {
		return fmt.Errorf("browser: username field not found: %w", err)
	}
	if err := emailInput.Input(email); err != nil {
		return fmt.Errorf("browser: fill username: %w", err)
	}

	passInput, err := page.Element("#password")
	if err != nil {
		return fmt.Errorf("browser: password field not found: %w", err)
	}
	if err := passInput.Input(password); err != nil {
		return fmt.Errorf("browser: fill password: %w", err)
	}

	submit, err := page.Element(`button[type="submit"]`)
	if err != nil {
		return fmt.Errorf("browser: submit button not found: %w", err)
	}
	if err := submit.Click(proto.InputMouseButtonLeft, 1); err != nil {
		return fmt.Errorf("browser: submit login: %w", err)
	}

	return nil
}

// WaitLoggedIn blocks until the success indicator appears or the timeout
// elapses
func (s *Session) WaitLoggedIn(ctx context.Context, timeout time.Duration) error {
	waitCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	if _, err := s.page.Context(waitCtx).Element(s.cfg.SuccessSelector); err != nil {
		return fmt.Errorf("browser: login indicator %q not found: %w", s.cfg.SuccessSelector, err)
	}
	return nil
}

// LoadMore scrolls to the bottom, lets content settle, and reports whether
// the page grew. A false return means the feed is saturated.
func (s *Session) LoadMore(ctx context.Context) (bool, error) {
	if s.lastHeight == 0 {
		h, err := s.pageHeight(ctx)
		if err != nil {
			return false, err
		}
		s.lastHeight = h
	}

	if _, err := s.page.Context(ctx).Eval(`() => window.scrollTo(0, document.body.scrollHeight)`); err != nil {
		return false, fmt.Errorf("browser: scroll: %w", err)
	}

	if err := retry.Wait(ctx, s.cfg.ScrollPause); err != nil {
		return false, err
	}

	newHeight, err := s.pageHeight(ctx)
	if err != nil {
		return false, err
	}

	grew := newHeight > s.lastHeight
	s.lastHeight = newHeight
	return grew, nil
}

func (s *Session) pageHeight(ctx context.Context) (int, error) {
	res, err := s.page.Context(ctx).Eval(`() => document.body.scrollHeight`)
	if err != nil {
		return 0, fmt.Errorf("browser: page height: %w", err)
	}
	return res.Value.Int(), nil
}

// ExpandPosts clicks every visible "see more" control. Failures here only
// degrade extraction completeness, so the caller swallows the error.
func (s *Session) ExpandPosts(ctx context.Context) error {
	_, err := s.page.Context(ctx).Eval(`() => {
		const buttons = document.querySelectorAll(
			'button.feed-shared-inline-show-more-text__see-more-less-toggle, button[aria-label*="more" i]');
		buttons.forEach(b => { try { b.click() } catch (e) {} });
		return buttons.length;
	}`)
	if err != nil {
		return fmt.Errorf("browser: expand posts: %w", err)
	}
	return nil
}

// Snapshot returns the full page HTML
func (s *Session) Snapshot(ctx context.Context) (string, error) {
	res, err := s.page.Context(ctx).Eval(`() => document.documentElement.outerHTML`)
	if err != nil {
		return "", fmt.Errorf("browser: snapshot: %w", err)
	}
	return res.Value.Str(), nil
}

// Close shuts down the page, the browser, and the launched Chrome process
func (s *Session) Close() error {
	var firstErr error
	if s.page != nil {
		if err := s.page.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	if s.browser != nil {
		if err := s.browser.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	if s.lnch != nil {
		s.lnch.Cleanup()
	}
	return firstErr
}
