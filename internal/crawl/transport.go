package crawl

import (
	"errors"
	"fmt"
	"net/http"

	"golang.org/x/time/rate"
)

// ErrDisallowed is returned for requests robots.txt does not permit.
var ErrDisallowed = errors.New("blocked by robots.txt")

// Transport is an http.RoundTripper that applies the polite crawl pipeline:
// Headers → RobotsCheck → RateLimiter → Send
// A User-Agent already on the request wins over UserAgent.
type Transport struct {
	Base        http.RoundTripper
	UserAgent   string
	Headers     http.Header
	Robots      *RobotsChecker
	RateLimiter *rate.Limiter
}

// PerMinute converts a requests-per-minute budget into a limiter that
// allows a burst of one.
func PerMinute(n int) *rate.Limiter {
	if n <= 0 {
		return nil
	}
	return rate.NewLimiter(rate.Limit(float64(n)/60), 1)
}

func (t *Transport) RoundTrip(req *http.Request) (*http.Response, error) {
	req = req.Clone(req.Context())

	if t.UserAgent != "" && req.Header.Get("User-Agent") == "" {
		req.Header.Set("User-Agent", t.UserAgent)
	}
	for key, vals := range t.Headers {
		if req.Header.Get(key) == "" {
			for _, v := range vals {
				req.Header.Add(key, v)
			}
		}
	}

	if t.Robots != nil {
		allowed, err := t.Robots.IsAllowed(req.Context(), req.Header.Get("User-Agent"), req.URL.String())
		if err == nil && !allowed {
			return nil, fmt.Errorf("%w: %s", ErrDisallowed, req.URL.Path)
		}
	}

	if t.RateLimiter != nil {
		if err := t.RateLimiter.Wait(req.Context()); err != nil {
			return nil, fmt.Errorf("rate limiter: %w", err)
		}
	}

	base := t.Base
	if base == nil {
		base = http.DefaultTransport
	}
	return base.RoundTrip(req)
}
