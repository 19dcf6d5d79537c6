package direct

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
	"github.com/lukman83/compintel/internal/crawl"
	"github.com/lukman83/compintel/internal/platform"
)

const defaultHeadlessTimeout = 30 * time.Second

// Headless renders pages in a local Chromium via rod, for sites whose
// content only appears after JavaScript runs. The browser bypasses the
// crawl transport, so robots.txt is checked here before navigating.
type Headless struct {
	browserBin string
	userAgent  string
	timeout    time.Duration
	robots     *crawl.RobotsChecker
}

// NewHeadless uses browserBin when set, otherwise rod's managed browser.
// userAgent applies when the fetch options carry none. A nil robots
// checker allows every page.
func NewHeadless(browserBin, userAgent string, timeout time.Duration, robots *crawl.RobotsChecker) *Headless {
	if timeout <= 0 {
		timeout = defaultHeadlessTimeout
	}
	return &Headless{browserBin: browserBin, userAgent: userAgent, timeout: timeout, robots: robots}
}

func (h *Headless) Name() string { return "headless" }

func (h *Headless) Fetch(ctx context.Context, pageURL string) platform.PageResult {
	page, err := h.fetch(ctx, pageURL)
	if err != nil {
		return failed(h.Name(), pageURL, err)
	}
	return page
}

func (h *Headless) fetch(ctx context.Context, pageURL string) (platform.PageResult, error) {
	base, err := url.Parse(pageURL)
	if err != nil {
		return platform.PageResult{}, err
	}

	ctx, cancel := context.WithTimeout(ctx, h.timeout)
	defer cancel()

	opts := platform.FetchOptionsFrom(ctx)
	if opts.UserAgent == "" {
		opts.UserAgent = h.userAgent
	}
	if h.robots != nil {
		allowed, err := h.robots.IsAllowed(ctx, opts.UserAgent, pageURL)
		if err == nil && !allowed {
			return platform.PageResult{}, fmt.Errorf("%w: %s", crawl.ErrDisallowed, base.Path)
		}
	}

	page, cleanup, err := h.openPage(ctx, pageURL, opts)
	if err != nil {
		return platform.PageResult{}, err
	}
	defer cleanup()

	if err := page.WaitStable(time.Second); err == nil {
		_ = page.WaitDOMStable(2*time.Second, 0.1)
	}

	htmlContent, err := page.HTML()
	if err != nil {
		return platform.PageResult{}, fmt.Errorf("get page HTML: %w", err)
	}

	result, err := renderPage(base, htmlContent)
	if err != nil {
		return platform.PageResult{}, err
	}
	result.URL = pageURL
	result.Backend = h.Name()
	return result, nil
}

func (h *Headless) openPage(ctx context.Context, pageURL string, opts platform.FetchOptions) (*rod.Page, func(), error) {
	l := launcher.New().Headless(true).Logger(io.Discard)
	if h.browserBin != "" {
		l = l.Bin(h.browserBin)
	}
	controlURL, err := l.Launch()
	if err != nil {
		return nil, nil, fmt.Errorf("launch browser: %w", err)
	}

	browser := rod.New().ControlURL(controlURL).Context(ctx)
	if err := browser.Connect(); err != nil {
		l.Kill()
		return nil, nil, fmt.Errorf("connect browser: %w", err)
	}

	cleanup := func() {
		browser.Close()
		l.Cleanup()
	}

	page, err := browser.Page(proto.TargetCreateTarget{})
	if err != nil {
		cleanup()
		return nil, nil, fmt.Errorf("open page: %w", err)
	}

	err = page.SetViewport(&proto.EmulationSetDeviceMetricsOverride{
		Width:  1920,
		Height: 1080,
	})
	if err != nil {
		cleanup()
		return nil, nil, fmt.Errorf("set viewport: %w", err)
	}

	if opts.UserAgent != "" {
		if err := page.SetUserAgent(&proto.NetworkSetUserAgentOverride{UserAgent: opts.UserAgent}); err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("set user agent: %w", err)
		}
	}
	if len(opts.Headers) > 0 {
		dict := make([]string, 0, 2*len(opts.Headers))
		for k, v := range opts.Headers {
			dict = append(dict, k, v)
		}
		if _, err := page.SetExtraHeaders(dict); err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("set headers: %w", err)
		}
	}

	if err := page.Navigate(pageURL); err != nil {
		cleanup()
		return nil, nil, fmt.Errorf("navigate: %w", err)
	}
	return page, cleanup, nil
}
