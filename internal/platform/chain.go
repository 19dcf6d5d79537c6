package platform

import (
	"context"
	"fmt"
	"strings"
)

// Chain tries each scraper in order and returns the first success. When
// all fail, the last failure is returned with every error joined. A
// blocked result ends the chain.
type Chain struct {
	scrapers []Scraper
}

func NewChain(scrapers ...Scraper) *Chain {
	return &Chain{scrapers: scrapers}
}

func (c *Chain) Name() string { return "chain" }

func (c *Chain) Fetch(ctx context.Context, url string) PageResult {
	if len(c.scrapers) == 0 {
		return PageResult{URL: url, Status: StatusFailed, Error: "no scrapers configured", Backend: c.Name()}
	}

	var errs []string
	var last PageResult
	for _, s := range c.scrapers {
		if ctx.Err() != nil {
			errs = append(errs, ctx.Err().Error())
			break
		}
		ReportProgressf(ctx, "Fetching %s via %s...", url, s.Name())
		last = s.Fetch(ctx, url)
		if last.OK() && last.Content() != "" {
			return last
		}
		msg := last.Error
		if msg == "" {
			msg = "empty content"
		}
		errs = append(errs, fmt.Sprintf("%s: %s", s.Name(), msg))
		if last.Blocked {
			break
		}
		ReportProgressf(ctx, "Backend %s failed, trying next...", s.Name())
	}

	last.URL = url
	last.Status = StatusFailed
	last.Error = strings.Join(errs, "; ")
	last.Backend = c.Name()
	return last
}
