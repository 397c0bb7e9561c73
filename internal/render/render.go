// Package render owns the scriptable-browser session. Sessions are
// expensive (a real Chromium process) and strictly single-operation:
// whoever opens one closes it, and it is never shared between concurrent
// extractions. The Session interface exists so the extraction state
// machines can be driven by scripted fakes in tests.
package render

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/playwright-community/playwright-go"
)

// ErrWaitTimeout is returned by WaitFor and Click when the selector never
// appeared. Several pagination algorithms treat this as the normal
// end-of-chapter signal, so it must be distinguishable from session death.
var ErrWaitTimeout = errors.New("wait timed out")

type Session interface {
	Navigate(url string) error
	CurrentURL() string
	WaitFor(selector string, timeout time.Duration) error
	Click(selector string, timeout time.Duration) error
	ScrollBy(pixels int) error
	ScrollToBottom() error
	HTML() (string, error)
	Close() error
}

type Options struct {
	Headless       bool
	UserAgent      string
	ViewportWidth  int
	ViewportHeight int
	ExtraArgs      []string
	NavTimeout     time.Duration
}

// The target blocks automated browsers that advertise themselves; the init
// script hides the webdriver flag before any page script runs.
const stealthScript = `Object.defineProperty(navigator, 'webdriver', {get: () => undefined});`

var defaultArgs = []string{
	"--no-sandbox",
	"--disable-dev-shm-usage",
	"--disable-blink-features=AutomationControlled",
}

type browserSession struct {
	pw        *playwright.Playwright
	browser   playwright.Browser
	page      playwright.Page
	navTimout time.Duration
	closeOnce sync.Once
	closeErr  error
}

// Open launches a browser and a single page configured per opts. The
// returned session owns the whole browser process; Close tears it all down.
func Open(opts Options) (Session, error) {
	if opts.NavTimeout <= 0 {
		opts.NavTimeout = 30 * time.Second
	}
	if opts.ViewportWidth <= 0 {
		opts.ViewportWidth = 1280
	}
	if opts.ViewportHeight <= 0 {
		opts.ViewportHeight = 800
	}

	pw, err := playwright.Run()
	if err != nil {
		return nil, fmt.Errorf("start playwright: %w", err)
	}

	args := append(append([]string{}, defaultArgs...), opts.ExtraArgs...)
	browser, err := pw.Chromium.Launch(playwright.BrowserTypeLaunchOptions{
		Headless: playwright.Bool(opts.Headless),
		Args:     args,
	})
	if err != nil {
		_ = pw.Stop()
		return nil, fmt.Errorf("launch browser: %w", err)
	}

	pageOpts := playwright.BrowserNewPageOptions{
		Viewport: &playwright.Size{Width: opts.ViewportWidth, Height: opts.ViewportHeight},
	}
	if opts.UserAgent != "" {
		pageOpts.UserAgent = playwright.String(opts.UserAgent)
	}
	page, err := browser.NewPage(pageOpts)
	if err != nil {
		_ = browser.Close()
		_ = pw.Stop()
		return nil, fmt.Errorf("open page: %w", err)
	}
	if err := page.AddInitScript(playwright.Script{Content: playwright.String(stealthScript)}); err != nil {
		_ = browser.Close()
		_ = pw.Stop()
		return nil, fmt.Errorf("add init script: %w", err)
	}

	return &browserSession{pw: pw, browser: browser, page: page, navTimout: opts.NavTimeout}, nil
}

func (s *browserSession) Navigate(url string) error {
	_, err := s.page.Goto(url, playwright.PageGotoOptions{
		Timeout:   playwright.Float(float64(s.navTimout.Milliseconds())),
		WaitUntil: playwright.WaitUntilStateDomcontentloaded,
	})
	if err != nil {
		if isTimeout(err) {
			return ErrWaitTimeout
		}
		return err
	}
	return nil
}

func (s *browserSession) CurrentURL() string {
	return s.page.URL()
}

func (s *browserSession) WaitFor(selector string, timeout time.Duration) error {
	err := s.page.Locator(selector).First().WaitFor(playwright.LocatorWaitForOptions{
		Timeout: playwright.Float(float64(timeout.Milliseconds())),
	})
	if err != nil {
		if isTimeout(err) {
			return ErrWaitTimeout
		}
		return err
	}
	return nil
}

func (s *browserSession) Click(selector string, timeout time.Duration) error {
	err := s.page.Locator(selector).First().Click(playwright.LocatorClickOptions{
		Timeout: playwright.Float(float64(timeout.Milliseconds())),
	})
	if err != nil {
		if isTimeout(err) {
			return ErrWaitTimeout
		}
		return err
	}
	return nil
}

func (s *browserSession) ScrollBy(pixels int) error {
	_, err := s.page.Evaluate(fmt.Sprintf("window.scrollBy(0, %d)", pixels))
	return err
}

func (s *browserSession) ScrollToBottom() error {
	_, err := s.page.Evaluate("window.scrollTo(0, document.body.scrollHeight)")
	return err
}

func (s *browserSession) HTML() (string, error) {
	return s.page.Content()
}

func (s *browserSession) Close() error {
	s.closeOnce.Do(func() {
		if err := s.browser.Close(); err != nil {
			s.closeErr = err
		}
		if err := s.pw.Stop(); err != nil && s.closeErr == nil {
			s.closeErr = err
		}
	})
	return s.closeErr
}

func isTimeout(err error) bool {
	return errors.Is(err, playwright.ErrTimeout)
}
