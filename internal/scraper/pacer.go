package scraper

import (
	"context"
	"math/rand"
	"time"
)

// Pacer inserts a randomized delay between consecutive requests to the same
// external service. Randomizing within [Min, Max] avoids the fixed-interval
// signature that trips bot detection.
type Pacer struct {
	Min time.Duration
	Max time.Duration
}

// NewPacer returns a pacer with the standard 1s to 3s inter-query window.
func NewPacer() *Pacer {
	return &Pacer{Min: time.Second, Max: 3 * time.Second}
}

// Wait blocks for a random duration in [Min, Max], or returns early with
// ctx.Err() when the context is done.
func (p *Pacer) Wait(ctx context.Context) error {
	delay := p.Min
	if p.Max > p.Min {
		delay += time.Duration(rand.Int63n(int64(p.Max - p.Min)))
	}
	timer := time.NewTimer(delay)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
