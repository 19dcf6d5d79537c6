package platform

import (
	"context"

	"github.com/lukman83/compintel/internal/models"
	"github.com/lukman83/compintel/internal/validate"
)

type FetchStatus string

const (
	StatusSuccess FetchStatus = "success"
	StatusFailed  FetchStatus = "failed"
)

// PageResult is what a Scraper returns for one URL. Failures are carried
// in Status and Error, never as a Go error.
type PageResult struct {
	URL      string      `json:"url"`
	Markdown string      `json:"markdown,omitempty"`
	HTML     string      `json:"html,omitempty"`
	Title    string      `json:"title,omitempty"`
	Status   FetchStatus `json:"status"`
	Error    string      `json:"error,omitempty"`
	Backend  string      `json:"backend,omitempty"`
	// Blocked marks a failure no other backend may retry, such as a page
	// robots.txt disallows.
	Blocked  bool        `json:"blocked,omitempty"`
}

func (r PageResult) OK() bool { return r.Status == StatusSuccess }

// Content is the text handed to extraction: markdown when present, else
// the visible text of the HTML.
func (r PageResult) Content() string {
	if r.Markdown != "" {
		return r.Markdown
	}
	if r.HTML == "" {
		return ""
	}
	return validate.HTMLToText(r.HTML)
}

// Failed builds a failed PageResult for url.
func Failed(backend, url string, err error) PageResult {
	return PageResult{URL: url, Status: StatusFailed, Error: err.Error(), Backend: backend}
}

// Disallowed builds a blocked PageResult for url.
func Disallowed(backend, url string, err error) PageResult {
	r := Failed(backend, url, err)
	r.Blocked = true
	return r
}

// FetchOptions carries per-competitor request settings.
type FetchOptions struct {
	UserAgent string
	Headers   map[string]string
}

type fetchOptionsKey struct{}

// WithFetchOptions returns a context carrying opts for Scraper.Fetch.
func WithFetchOptions(ctx context.Context, opts FetchOptions) context.Context {
	return context.WithValue(ctx, fetchOptionsKey{}, opts)
}

// FetchOptionsFrom returns the options set by WithFetchOptions, if any.
func FetchOptionsFrom(ctx context.Context) FetchOptions {
	opts, _ := ctx.Value(fetchOptionsKey{}).(FetchOptions)
	return opts
}

// Scraper fetches one page.
type Scraper interface {
	Name() string
	Fetch(ctx context.Context, url string) PageResult
}

type Raw = models.Raw

// Extractor turns page content into raw records, discarding any malformed
// model output instead of failing.
type Extractor interface {
	ExtractProducts(ctx context.Context, content, competitor string) []Raw
	ExtractPromotions(ctx context.Context, content, competitor string) []Raw
}
