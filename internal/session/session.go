// Package session manages the headless Chrome instance used for a run.
// One session owns one browser process and one page; the orchestrator
// acquires it at run start and releases it on every exit path.
package session

import (
	"fmt"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
)

// DefaultUserAgent is reported both via launch flag and at the network
// layer, so page scripts and request headers agree.
const DefaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/121.0.0.0 Safari/537.36"

// stealthScript hides the automation marker from page scripts before any
// of the page's own code runs.
const stealthScript = `Object.defineProperty(navigator, 'webdriver', {get: () => undefined});`

// Config holds browser launch and wait settings.
type Config struct {
	Headless        bool
	UserAgent       string
	AcceptLanguage  string
	WindowSize      string
	PageLoadTimeout time.Duration
	ElementWait     time.Duration
}

// DefaultConfig returns the launch configuration used in production.
func DefaultConfig() Config {
	return Config{
		Headless:        true,
		UserAgent:       DefaultUserAgent,
		AcceptLanguage:  "en-US,en;q=0.9",
		WindowSize:      "1366,768",
		PageLoadTimeout: 30 * time.Second,
		ElementWait:     3 * time.Second,
	}
}

// Manager launches and tears down browser sessions.
type Manager struct {
	cfg    Config
	logger *log.Logger
}

// NewManager creates a session manager with the given configuration.
func NewManager(cfg Config, logger *log.Logger) *Manager {
	if cfg.PageLoadTimeout == 0 {
		cfg.PageLoadTimeout = 30 * time.Second
	}
	if cfg.ElementWait == 0 {
		cfg.ElementWait = 3 * time.Second
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = DefaultUserAgent
	}
	return &Manager{cfg: cfg, logger: logger}
}

// Session is one live browser with a single page.
type Session struct {
	cfg      Config
	launcher *launcher.Launcher
	browser  *rod.Browser
	page     *rod.Page
	released bool
}

// Acquire launches a configured Chrome process and connects to it.
// On any failure the partially started process is torn down and a
// wrapped error is returned; the caller must not use the session.
func (m *Manager) Acquire() (*Session, error) {
	l := launcher.New().
		Headless(m.cfg.Headless).
		Set("no-sandbox").
		Set("disable-gpu").
		Set("disable-dev-shm-usage").
		Set("single-process").
		Set("disable-software-rasterizer").
		Set("disable-extensions").
		Set("disable-plugins").
		Set("disable-blink-features", "AutomationControlled").
		Set("disable-infobars").
		Set("window-size", m.cfg.WindowSize).
		Set("lang", "en-US,en").
		Set("accept-lang", m.cfg.AcceptLanguage).
		Set("user-agent", m.cfg.UserAgent).
		Delete("enable-automation")

	u, err := l.Launch()
	if err != nil {
		return nil, fmt.Errorf("launch browser: %w", err)
	}

	browser := rod.New().ControlURL(u)
	if err := browser.Connect(); err != nil {
		l.Kill()
		return nil, fmt.Errorf("connect browser: %w", err)
	}

	page, err := browser.Page(proto.TargetCreateTarget{URL: "about:blank"})
	if err != nil {
		_ = browser.Close()
		l.Kill()
		return nil, fmt.Errorf("open page: %w", err)
	}

	// Mask automation at the network layer and from page scripts.
	if err := page.SetUserAgent(&proto.NetworkSetUserAgentOverride{
		UserAgent:      m.cfg.UserAgent,
		AcceptLanguage: m.cfg.AcceptLanguage,
	}); err != nil {
		_ = browser.Close()
		l.Kill()
		return nil, fmt.Errorf("override user agent: %w", err)
	}
	if _, err := page.EvalOnNewDocument(stealthScript); err != nil {
		_ = browser.Close()
		l.Kill()
		return nil, fmt.Errorf("inject stealth script: %w", err)
	}

	if m.logger != nil {
		m.logger.Debug("browser session ready", "headless", m.cfg.Headless)
	}

	return &Session{cfg: m.cfg, launcher: l, browser: browser, page: page}, nil
}

// Release tears down the session. It is idempotent and never panics;
// it runs on the guaranteed-cleanup path regardless of run outcome.
func (m *Manager) Release(s *Session) {
	if s == nil || s.released {
		return
	}
	s.released = true
	defer func() {
		if r := recover(); r != nil && m.logger != nil {
			m.logger.Warn("browser teardown panicked", "cause", r)
		}
	}()
	if s.page != nil {
		_ = s.page.Close()
	}
	if s.browser != nil {
		_ = s.browser.Close()
	}
	if s.launcher != nil {
		s.launcher.Kill()
	}
	if m.logger != nil {
		m.logger.Debug("browser session released")
	}
}

// Page returns the session's single page.
func (s *Session) Page() *rod.Page { return s.page }

// Navigate loads a URL on the session page, bounded by the page-load timeout.
func (s *Session) Navigate(url string) error {
	pg := s.page.Timeout(s.cfg.PageLoadTimeout)
	if err := pg.Navigate(url); err != nil {
		return err
	}
	return pg.WaitLoad()
}

// ElementWait returns the session-wide short wait for individual elements.
func (s *Session) ElementWait() time.Duration { return s.cfg.ElementWait }
