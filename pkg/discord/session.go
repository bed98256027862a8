package discord

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/playwright-community/playwright-go"
	"go.uber.org/zap"
)

const (
	baseURL  = "https://discord.com"
	homeURL  = baseURL + "/channels/@me"
	loginURL = baseURL + "/login"

	// guildNavItems is the "you are logged in" DOM marker: the guild
	// navigation rail with at least one rendered entry.
	guildNavItems = `[data-list-id="guildsnav"] [role="treeitem"]`
)

// ErrLoginFailed wraps any failure to reach an authenticated state:
// credential rejection, redirect timeout, or an unresolved email
// verification interstitial.
var ErrLoginFailed = errors.New("discord login failed")

// Session owns one browser process, one isolated browsing context and one
// page, plus the login state. Sessions use value semantics: operations
// that change state return an updated Session rather than mutating the
// receiver, and a Session is owned by exactly one in-flight call.
type Session struct {
	opts Options
	log  *zap.Logger

	pw       *playwright.Playwright
	browser  playwright.Browser
	context  playwright.BrowserContext
	page     playwright.Page
	loggedIn bool
}

// NewSession creates an unstarted session. The browser is launched lazily
// on first use.
func NewSession(opts Options, log *zap.Logger) Session {
	if opts.StateFile == "" {
		home, err := os.UserHomeDir()
		if err == nil {
			opts.StateFile = filepath.Join(home, ".discord-mcp-state.json")
		}
	}
	if log == nil {
		log = zap.NewNop()
	}
	return Session{opts: opts, log: log}
}

// InstallDriver downloads the Playwright driver and browsers if they are
// not already present. Output is discarded so it cannot pollute the MCP
// stdio transport.
func InstallDriver() error {
	opts := &playwright.RunOptions{
		Verbose: false,
		Stdout:  io.Discard,
		Stderr:  io.Discard,
	}
	if err := playwright.Install(opts); err != nil {
		return fmt.Errorf("failed to install playwright: %w", err)
	}
	return nil
}

// EnsureBrowser returns the session unchanged if it already owns a live
// driver/browser/context/page set. Otherwise it launches Chromium, opens
// one isolated context (restoring the persisted storage state when the
// state file exists) and one page.
func (s Session) EnsureBrowser() (Session, error) {
	if s.pw != nil && s.browser != nil && s.context != nil && s.page != nil {
		return s, nil
	}

	runOpts := &playwright.RunOptions{
		Verbose: false,
		Stdout:  io.Discard,
		Stderr:  io.Discard,
	}
	pw, err := playwright.Run(runOpts)
	if err != nil {
		return s, fmt.Errorf("failed to start playwright: %w", err)
	}

	browser, err := pw.Chromium.Launch(playwright.BrowserTypeLaunchOptions{
		Headless: playwright.Bool(s.opts.Headless),
	})
	if err != nil {
		_ = pw.Stop()
		return s, fmt.Errorf("failed to launch browser: %w", err)
	}

	contextOpts := playwright.BrowserNewContextOptions{}
	if _, statErr := os.Stat(s.opts.StateFile); statErr == nil {
		contextOpts.StorageStatePath = playwright.String(s.opts.StateFile)
	}
	context, err := browser.NewContext(contextOpts)
	if err != nil {
		_ = browser.Close()
		_ = pw.Stop()
		return s, fmt.Errorf("failed to create context: %w", err)
	}

	page, err := context.NewPage()
	if err != nil {
		_ = context.Close()
		_ = browser.Close()
		_ = pw.Stop()
		return s, fmt.Errorf("failed to create page: %w", err)
	}

	s.pw = pw
	s.browser = browser
	s.context = context
	s.page = page
	return s, nil
}

// CheckLoggedIn probes the current login status by navigating to the home
// view and waiting for the guild navigation rail. Every failure mode is
// fail-safe: any error during probing means "not logged in".
func (s Session) CheckLoggedIn() bool {
	if s.page == nil {
		return false
	}
	if err := s.goto_(homeURL); err != nil {
		return false
	}
	if !s.waitVisible(guildNavItems, selectorTimeout) {
		return false
	}

	url := s.page.URL()
	if strings.Contains(url, "/login") || strings.Contains(url, "/register") {
		return false
	}
	if !strings.Contains(url, "/channels/@me") {
		return false
	}

	el, err := s.page.QuerySelector(guildNavItems)
	return err == nil && el != nil
}

// Login authenticates the session. Resumed sessions (persisted storage
// state still valid) short-circuit without touching the login form, and
// only a fresh login persists the storage state for future reuse.
func (s Session) Login() (Session, error) {
	if s.loggedIn {
		return s, nil
	}

	s, err := s.EnsureBrowser()
	if err != nil {
		return s, fmt.Errorf("%w: %v", ErrLoginFailed, err)
	}

	if s.CheckLoggedIn() {
		s.log.Debug("resumed persisted discord session")
		s.loggedIn = true
		return s, nil
	}

	if err := s.goto_(loginURL); err != nil {
		return s, fmt.Errorf("%w: %v", ErrLoginFailed, err)
	}
	s.settle(loginFormSettle)

	if err := s.page.Fill(`input[name="email"]`, s.opts.Email); err != nil {
		return s, fmt.Errorf("%w: %v", ErrLoginFailed, err)
	}
	if err := s.page.Fill(`input[name="password"]`, s.opts.Password); err != nil {
		return s, fmt.Errorf("%w: %v", ErrLoginFailed, err)
	}
	if err := s.page.Click(`button[type="submit"]`); err != nil {
		return s, fmt.Errorf("%w: %v", ErrLoginFailed, err)
	}

	// Wait for the URL to leave the login view.
	_, err = s.page.WaitForFunction(
		`() => !window.location.href.includes('/login')`, nil,
		playwright.PageWaitForFunctionOptions{Timeout: playwright.Float(loginRedirectTimeout)},
	)
	if err != nil {
		return s, fmt.Errorf("%w: timed out waiting for login redirect: %v", ErrLoginFailed, err)
	}
	s.settle(postLoginSettle)

	if s.verificationPending() {
		s.log.Debug("email verification interstitial detected, waiting")
		_, err = s.page.WaitForFunction(
			`() => window.location.href.includes('/channels/')`, nil,
			playwright.PageWaitForFunctionOptions{Timeout: playwright.Float(verificationTimeout)},
		)
		if err != nil {
			return s, fmt.Errorf("%w: email verification did not resolve: %v", ErrLoginFailed, err)
		}
	}

	if !s.CheckLoggedIn() {
		return s, fmt.Errorf("%w: login appeared to succeed but verification failed", ErrLoginFailed)
	}

	s.loggedIn = true
	s.settle(postAuthStabilize)
	if err := s.goto_(homeURL); err != nil {
		return s, fmt.Errorf("%w: %v", ErrLoginFailed, err)
	}
	s.settle(homeViewSettle)

	// Fresh login only: persist the storage state for future resumes.
	if s.opts.StateFile != "" {
		if _, err := s.context.StorageState(s.opts.StateFile); err != nil {
			s.log.Debug("failed to persist storage state", zap.Error(err))
		}
	}
	return s, nil
}

// verificationPending reports whether the post-submit page is the email
// verification interstitial. Fail-safe: errors read as "not pending".
func (s Session) verificationPending() bool {
	if strings.Contains(s.page.URL(), "/verify") {
		return true
	}
	count, err := s.page.Locator(`text="Check your email"`).Count()
	return err == nil && count > 0
}

// Close releases all owned resources in strict reverse-acquisition order:
// page, context, browser, driver. Every step is best-effort so one faulty
// resource never blocks cleanup of the others.
func (s Session) Close() {
	if s.page != nil {
		_ = s.page.Close()
	}
	if s.context != nil {
		_ = s.context.Close()
	}
	if s.browser != nil {
		_ = s.browser.Close()
	}
	if s.pw != nil {
		_ = s.pw.Stop()
	}
}
