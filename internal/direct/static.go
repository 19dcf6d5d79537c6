package direct

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/lukman83/compintel/internal/crawl"
	"github.com/lukman83/compintel/internal/httputil"
	"github.com/lukman83/compintel/internal/platform"
	"golang.org/x/net/html"
)

// MaxBodyBytes caps how much of a page is read.
const MaxBodyBytes = 5 << 20

// Static fetches pages with plain HTTP and renders them to markdown
// locally. Politeness (robots.txt, rate limits) lives in the client's
// transport.
type Static struct {
	client *http.Client
}

func NewStatic(client *http.Client) *Static {
	return &Static{client: client}
}

func (s *Static) Name() string { return "direct" }

func (s *Static) Fetch(ctx context.Context, pageURL string) platform.PageResult {
	page, err := s.fetch(ctx, pageURL)
	if err != nil {
		return failed(s.Name(), pageURL, err)
	}
	return page
}

// failed marks robots.txt refusals as blocked so a chain does not fall
// through to another backend.
func failed(backend, pageURL string, err error) platform.PageResult {
	if errors.Is(err, crawl.ErrDisallowed) {
		return platform.Disallowed(backend, pageURL, err)
	}
	return platform.Failed(backend, pageURL, err)
}

func (s *Static) fetch(ctx context.Context, pageURL string) (platform.PageResult, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return platform.PageResult{}, err
	}
	opts := platform.FetchOptionsFrom(ctx)
	for k, v := range httputil.BrowserHeaders(opts.Headers) {
		httpReq.Header[k] = v
	}
	if opts.UserAgent != "" {
		httpReq.Header.Set("User-Agent", opts.UserAgent)
	}

	resp, err := s.client.Do(httpReq)
	if err != nil {
		return platform.PageResult{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return platform.PageResult{}, fmt.Errorf("HTTP %d", resp.StatusCode)
	}

	body, err := httputil.ReadBody(resp, MaxBodyBytes)
	if err != nil {
		return platform.PageResult{}, fmt.Errorf("read body: %w", err)
	}

	page, err := renderPage(resp.Request.URL, string(body))
	if err != nil {
		return platform.PageResult{}, err
	}
	page.URL = pageURL
	page.Backend = s.Name()
	return page, nil
}

// renderPage parses htmlContent and fills a successful PageResult.
func renderPage(base *url.URL, htmlContent string) (platform.PageResult, error) {
	doc, err := html.Parse(strings.NewReader(htmlContent))
	if err != nil {
		return platform.PageResult{}, fmt.Errorf("parse HTML: %w", err)
	}
	md := Markdown(doc, base)
	if md == "" {
		return platform.PageResult{}, fmt.Errorf("page has no visible content")
	}
	return platform.PageResult{
		Markdown: md,
		HTML:     htmlContent,
		Title:    Title(doc),
		Status:   platform.StatusSuccess,
	}, nil
}
