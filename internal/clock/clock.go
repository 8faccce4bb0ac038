// Package clock provides elapsed-time computation and the 1-second refresh
// driver used while a session is running.
package clock

import (
	"context"
	"sync"
	"time"
)

// Elapsed returns whole seconds between start and now, never negative.
func Elapsed(start, now time.Time) int64 {
	d := now.Sub(start)
	if d < 0 {
		return 0
	}
	return int64(d / time.Second)
}

// Ticker invokes a callback with the elapsed seconds since a start time on
// a fixed cadence. It is started per session and must be stopped when the
// session ends; Stop is idempotent and no callback runs after Stop returns.
type Ticker struct {
	interval time.Duration
	now      func() time.Time

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

// NewTicker creates a ticker with the given cadence. A nil now defaults to
// time.Now.
func NewTicker(interval time.Duration, now func() time.Time) *Ticker {
	if interval <= 0 {
		interval = time.Second
	}
	if now == nil {
		now = time.Now
	}
	return &Ticker{interval: interval, now: now}
}

// Start begins invoking fn with elapsed seconds since start. An already
// running ticker is restarted against the new start time. fn must not call
// Stop or Start on the same ticker.
func (t *Ticker) Start(start time.Time, fn func(elapsed int64)) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.stopLocked()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	t.cancel = cancel
	t.done = done

	go func() {
		defer close(done)
		ticker := time.NewTicker(t.interval)
		defer ticker.Stop()

		// Immediate first sample so the display never shows stale time.
		fn(Elapsed(start, t.now()))
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				fn(Elapsed(start, t.now()))
			}
		}
	}()
}

// Stop cancels the driver and waits for the goroutine to exit, guaranteeing
// no callback fires after Stop returns.
func (t *Ticker) Stop() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.stopLocked()
}

func (t *Ticker) stopLocked() {
	if t.cancel == nil {
		return
	}
	t.cancel()
	<-t.done
	t.cancel = nil
	t.done = nil
}
