package httputil

import (
	"context"
	"math/rand"
	"sync"
	"time"
)

// Pacer inserts a randomized delay between consecutive requests to the same
// host. Enumerating several items from one upstream in quick, perfectly
// regular succession is an easy scraping signature; the jitter window trades
// throughput for staying under that radar. A zero window disables pacing,
// which tests rely on.
type Pacer struct {
	min, max time.Duration

	mu   sync.Mutex
	last map[string]time.Time
}

// NewPacer creates a pacer with the given jitter window. If max <= 0 the
// pacer is inert.
func NewPacer(min, max time.Duration) *Pacer {
	if min < 0 {
		min = 0
	}
	if max < min {
		max = min
	}
	return &Pacer{min: min, max: max, last: make(map[string]time.Time)}
}

// Wait blocks until the host's next request slot, or until ctx is done.
// The first request to a host never waits.
func (p *Pacer) Wait(ctx context.Context, host string) error {
	if p == nil || p.max <= 0 {
		return nil
	}

	p.mu.Lock()
	prev, seen := p.last[host]
	now := time.Now()
	p.last[host] = now
	p.mu.Unlock()

	if !seen {
		return nil
	}

	delay := p.min
	if span := p.max - p.min; span > 0 {
		delay += time.Duration(rand.Int63n(int64(span)))
	}
	if elapsed := now.Sub(prev); elapsed >= delay {
		return nil
	} else {
		delay -= elapsed
	}

	t := time.NewTimer(delay)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		// Re-stamp after the sleep so the next caller measures from when
		// this request actually goes out, not from when it started waiting.
		p.mu.Lock()
		p.last[host] = time.Now()
		p.mu.Unlock()
		return nil
	}
}
