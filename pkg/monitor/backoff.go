package monitor

import (
	"context"
	"sync"
	"time"
)

// DefaultReconnectDelay is the wait between two connection attempts.
const DefaultReconnectDelay = 5 * time.Second

// Backoff hands out a fixed reconnection delay and counts attempts.
type Backoff struct {
	mu sync.Mutex

	delay    time.Duration
	attempts int
}

// NewBackoff creates a backoff with the given delay. A non-positive delay
// selects DefaultReconnectDelay.
func NewBackoff(delay time.Duration) *Backoff {
	if delay <= 0 {
		delay = DefaultReconnectDelay
	}
	return &Backoff{delay: delay}
}

// Next returns the delay to wait before the next attempt and counts it.
func (b *Backoff) Next() time.Duration {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.attempts++
	return b.delay
}

// Reset clears the attempt counter.
// Call this after a successful connection.
func (b *Backoff) Reset() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.attempts = 0
}

// Attempts returns the number of delays handed out since the last reset.
func (b *Backoff) Attempts() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.attempts
}

// Delay returns the configured delay.
func (b *Backoff) Delay() time.Duration {
	return b.delay
}

// wait blocks for d or until ctx is done, whichever comes first. It reports
// whether the full delay elapsed.
func wait(ctx context.Context, d time.Duration) bool {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}
