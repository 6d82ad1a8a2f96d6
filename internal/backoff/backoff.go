// Package backoff computes retry delays for long-running listeners.
package backoff

import (
	"context"
	"math/rand"
	"sync"
	"time"
)

// Defaults used when a Config field is left zero.
const (
	DefaultInitial    = 500 * time.Millisecond
	DefaultMax        = 30 * time.Second
	DefaultMultiplier = 2.0
)

// Config customizes a Backoff. Zero fields take the defaults.
type Config struct {
	Initial    time.Duration
	Max        time.Duration
	Multiplier float64

	// Jitter is the maximum extra delay as a fraction of the base delay.
	Jitter float64

	// MaxAttempts stops retrying after this many delays. Zero means unlimited.
	MaxAttempts int
}

// Backoff hands out exponentially growing delays.
type Backoff struct {
	mu       sync.Mutex
	cfg      Config
	current  time.Duration
	attempts int
	rng      *rand.Rand
}

// New creates a Backoff.
func New(cfg Config) *Backoff {
	if cfg.Initial <= 0 {
		cfg.Initial = DefaultInitial
	}
	if cfg.Max < cfg.Initial {
		cfg.Max = max(DefaultMax, cfg.Initial)
	}
	if cfg.Multiplier <= 1 {
		cfg.Multiplier = DefaultMultiplier
	}
	if cfg.Jitter < 0 {
		cfg.Jitter = 0
	}
	return &Backoff{
		cfg:     cfg,
		current: cfg.Initial,
		rng:     rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// Next returns the next delay and advances. ok is false once MaxAttempts
// delays have been handed out.
func (b *Backoff) Next() (delay time.Duration, ok bool) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.cfg.MaxAttempts > 0 && b.attempts >= b.cfg.MaxAttempts {
		return 0, false
	}

	delay = b.current
	if b.cfg.Jitter > 0 {
		delay += time.Duration(float64(delay) * b.cfg.Jitter * b.rng.Float64())
	}

	b.attempts++
	b.current = min(time.Duration(float64(b.current)*b.cfg.Multiplier), b.cfg.Max)
	return delay, true
}

// Wait sleeps for the next delay. It returns false when attempts are
// exhausted and ctx.Err() when ctx ends first.
func (b *Backoff) Wait(ctx context.Context) (bool, error) {
	delay, ok := b.Next()
	if !ok {
		return false, nil
	}
	t := time.NewTimer(delay)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false, ctx.Err()
	case <-t.C:
		return true, nil
	}
}

// Reset restores the initial delay. Call after a success.
func (b *Backoff) Reset() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.current = b.cfg.Initial
	b.attempts = 0
}

// Attempts returns the number of delays handed out since the last reset.
func (b *Backoff) Attempts() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.attempts
}
