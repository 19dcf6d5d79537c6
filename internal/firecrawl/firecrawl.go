// Package firecrawl fetches pages through the hosted Firecrawl scrape API,
// which renders the page and returns markdown and HTML.
package firecrawl

import (
	"context"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/lukman83/compintel/internal/platform"
)

const DefaultBaseURL = "https://api.firecrawl.dev/v0"

type Client struct {
	http *resty.Client
}

// New returns a client for the API at baseURL authenticated with apiKey.
func New(baseURL, apiKey string, timeout time.Duration) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	rc := resty.New().
		SetBaseURL(baseURL).
		SetAuthToken(apiKey).
		SetTimeout(timeout).
		SetHeader("Content-Type", "application/json")
	return &Client{http: rc}
}

func (c *Client) Name() string { return "firecrawl" }

type scrapeRequest struct {
	URL             string            `json:"url"`
	Formats         []string          `json:"formats"`
	OnlyMainContent bool              `json:"onlyMainContent"`
	Headers         map[string]string `json:"headers,omitempty"`
}

type scrapeResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
	Data    struct {
		Markdown string `json:"markdown"`
		HTML     string `json:"html"`
		Metadata struct {
			Title string `json:"title"`
		} `json:"metadata"`
	} `json:"data"`
}

func (c *Client) Fetch(ctx context.Context, url string) platform.PageResult {
	body := scrapeRequest{
		URL:             url,
		Formats:         []string{"markdown", "html"},
		OnlyMainContent: true,
	}
	opts := platform.FetchOptionsFrom(ctx)
	if len(opts.Headers) > 0 || opts.UserAgent != "" {
		body.Headers = make(map[string]string, len(opts.Headers)+1)
		for k, v := range opts.Headers {
			body.Headers[k] = v
		}
		if opts.UserAgent != "" {
			body.Headers["User-Agent"] = opts.UserAgent
		}
	}

	var out scrapeResponse
	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(body).
		SetResult(&out).
		SetError(&out).
		Post("/scrape")
	if err != nil {
		return platform.Failed(c.Name(), url, err)
	}
	if resp.StatusCode() != 200 || !out.Success {
		msg := fmt.Sprintf("HTTP %d", resp.StatusCode())
		if out.Error != "" {
			msg += ": " + out.Error
		}
		return platform.PageResult{URL: url, Status: platform.StatusFailed, Error: msg, Backend: c.Name()}
	}

	return platform.PageResult{
		URL:      url,
		Markdown: out.Data.Markdown,
		HTML:     out.Data.HTML,
		Title:    out.Data.Metadata.Title,
		Status:   platform.StatusSuccess,
		Backend:  c.Name(),
	}
}
