package engine

import (
	"context"
	"time"
)

// Sweeper periodically evicts expired trades from the rolling window so
// that a symbol nobody queries does not accumulate an hour's worth of
// stale FIFO entries indefinitely. Queries and inserts already evict on
// their own; the sweeper only bounds memory for idle symbols.
type Sweeper struct {
	interval time.Duration
	window   *Window
}

// NewSweeper creates a Sweeper ticking at the given interval.
func NewSweeper(interval time.Duration, window *Window) *Sweeper {
	return &Sweeper{
		interval: interval,
		window:   window,
	}
}

// Start launches a background goroutine that ticks at the configured
// interval and evicts expired window entries. It stops when ctx is
// cancelled.
func (s *Sweeper) Start(ctx context.Context) {
	go func() {
		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case t := <-ticker.C:
				s.window.EvictAll(t)
			}
		}
	}()
}
