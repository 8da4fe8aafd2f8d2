// Package browser drives the portfolio site in a Chromium window through the
// DevTools protocol: the chat widget, the gallery lightbox and the projects
// page are bound to Go implementations.
package browser

import (
	"context"
	"fmt"
	"net"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"

	"gc-portfolio/internal/config"
)

// Session owns a browser and the single page showing the site.
type Session struct {
	cfg     config.BrowserConfig
	timeout time.Duration

	mu       sync.Mutex
	launcher *launcher.Launcher
	browser  *rod.Browser
	page     *rod.Page
}

// OpenOption configures Open.
type OpenOption func(*openOptions)

type openOptions struct {
	allowPrivate bool
}

// AllowPrivateHosts permits loopback and LAN targets, for a site served from
// the same machine.
func AllowPrivateHosts() OpenOption {
	return func(o *openOptions) { o.allowPrivate = true }
}

// Open starts (or attaches to) a browser and loads pageURL. The browser lives
// until ctx is done or Close is called.
func Open(ctx context.Context, cfg config.BrowserConfig, pageURL string, opts ...OpenOption) (*Session, error) {
	var o openOptions
	for _, opt := range opts {
		opt(&o)
	}
	if err := validateURL(cfg, pageURL, o.allowPrivate); err != nil {
		return nil, err
	}
	if cfg.TimeoutSecs <= 0 {
		cfg.TimeoutSecs = 30
	}

	s := &Session{cfg: cfg, timeout: time.Duration(cfg.TimeoutSecs) * time.Second}
	if err := s.connect(ctx); err != nil {
		return nil, err
	}

	page, err := s.browser.Page(proto.TargetCreateTarget{})
	if err != nil {
		s.Close()
		return nil, fmt.Errorf("failed to open page: %w", err)
	}
	s.page = page

	if err := s.Navigate(ctx, pageURL); err != nil {
		s.Close()
		return nil, err
	}
	return s, nil
}

func (s *Session) connect(ctx context.Context) error {
	controlURL := s.cfg.ControlURL
	if controlURL == "" {
		l := launcher.New().Headless(s.cfg.Headless).Context(ctx)
		u, err := l.Launch()
		if err != nil {
			return fmt.Errorf("failed to launch browser: %w", err)
		}
		s.launcher = l
		controlURL = u
	}

	browser := rod.New().ControlURL(controlURL).Context(ctx)
	if err := browser.Connect(); err != nil {
		return fmt.Errorf("failed to connect to browser: %w", err)
	}
	s.browser = browser
	return nil
}

// Page returns the page bound to ctx, bounded by the configured timeout when
// ctx has no deadline.
func (s *Session) Page(ctx context.Context) *rod.Page {
	s.mu.Lock()
	page := s.page
	s.mu.Unlock()

	if _, ok := ctx.Deadline(); ok {
		return page.Context(ctx)
	}
	return page.Context(ctx).Timeout(s.timeout)
}

// Raw returns the page without a context, for long-lived subscriptions.
func (s *Session) Raw() *rod.Page {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.page
}

// Navigate loads pageURL and waits for the load event.
func (s *Session) Navigate(ctx context.Context, pageURL string) error {
	page := s.Page(ctx)
	if err := page.Navigate(pageURL); err != nil {
		return fmt.Errorf("navigate %s: %w", pageURL, err)
	}
	if err := page.WaitLoad(); err != nil {
		return fmt.Errorf("page load timeout: %w", err)
	}
	return nil
}

// Close shuts the page and the browser.
func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.page != nil {
		s.page.Close()
		s.page = nil
	}
	if s.browser != nil {
		s.browser.Close()
		s.browser = nil
	}
	if s.launcher != nil {
		s.launcher.Cleanup()
		s.launcher = nil
	}
}

// validateURL checks the URL scheme, private hosts, and domain allow/deny
// lists.
func validateURL(cfg config.BrowserConfig, rawURL string, allowPrivate bool) error {
	u, err := url.Parse(rawURL)
	if err != nil {
		return fmt.Errorf("invalid URL: %w", err)
	}

	switch u.Scheme {
	case "http", "https":
	default:
		return fmt.Errorf("only http/https schemes are allowed, got: %s", u.Scheme)
	}

	host := u.Hostname()
	if !allowPrivate && isPrivateHost(host) {
		return fmt.Errorf("access to private/loopback addresses is denied: %s", host)
	}

	domain := strings.ToLower(host)
	for _, d := range cfg.DeniedDomains {
		if matchDomain(domain, d) {
			return fmt.Errorf("domain %s is denied", domain)
		}
	}

	if len(cfg.AllowedDomains) > 0 {
		for _, d := range cfg.AllowedDomains {
			if matchDomain(domain, d) {
				return nil
			}
		}
		return fmt.Errorf("domain %s is not in allowed list", domain)
	}

	return nil
}

func matchDomain(domain, pattern string) bool {
	p := strings.ToLower(pattern)
	return p == domain || strings.HasSuffix(domain, "."+p)
}

// isPrivateHost returns true for loopback, private, and link-local addresses.
func isPrivateHost(host string) bool {
	lower := strings.ToLower(host)
	if lower == "localhost" || lower == "ip6-localhost" || lower == "ip6-loopback" {
		return true
	}

	ip := net.ParseIP(host)
	if ip == nil {
		return false
	}
	return ip.IsLoopback() || ip.IsPrivate() || ip.IsLinkLocalUnicast() || ip.IsLinkLocalMulticast() || ip.IsUnspecified()
}
