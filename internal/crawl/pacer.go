package crawl

import (
	"context"
	"time"

	"golang.org/x/time/rate"
)

// Pacer enforces a fixed pause between consecutive fetches. The first Wait
// returns immediately; each later one blocks until delay has passed since
// the previous.
type Pacer struct {
	limiter *rate.Limiter
}

// NewPacer returns a Pacer for delay. A non-positive delay never blocks.
func NewPacer(delay time.Duration) *Pacer {
	if delay <= 0 {
		return &Pacer{limiter: rate.NewLimiter(rate.Inf, 1)}
	}
	return &Pacer{limiter: rate.NewLimiter(rate.Every(delay), 1)}
}

func (p *Pacer) Wait(ctx context.Context) error {
	return p.limiter.Wait(ctx)
}
