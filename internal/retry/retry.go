// Package retry implements exponential backoff retry for the Splitter
// Driver's transient-error handling (§4.6, §7), generalized from the
// attempt-counting and backoff-window idiom used elsewhere in this
// codebase's orchestration layer.
package retry

import (
	"context"
	"errors"
	"math"
	"time"
)

// Transient marks an error as retryable. Wrap a Splitter transient error
// (timeout, rate limit) with this so Do knows to retry it; any other
// error is treated as permanent and returned immediately.
type Transient struct {
	Err error
}

func (t *Transient) Error() string { return t.Err.Error() }
func (t *Transient) Unwrap() error  { return t.Err }

// IsTransient reports whether err (or anything it wraps) is a Transient.
func IsTransient(err error) bool {
	var t *Transient
	return errors.As(err, &t)
}

// Config controls the backoff schedule.
type Config struct {
	MaxAttempts int           // total attempts including the first, default 3
	BaseDelay   time.Duration // delay before the first retry, default 500ms
	MaxDelay    time.Duration // cap on any single delay, default 30s
}

// DefaultConfig matches the Splitter Driver defaults in spec §6
// (splitter_retries: 3).
func DefaultConfig() Config {
	return Config{
		MaxAttempts: 3,
		BaseDelay:   500 * time.Millisecond,
		MaxDelay:    30 * time.Second,
	}
}

// Do calls fn until it succeeds, returns a non-Transient error, or
// exhausts cfg.MaxAttempts. Delay doubles each attempt (capped at
// MaxDelay). Context cancellation aborts immediately.
func Do(ctx context.Context, cfg Config, fn func(attempt int) error) error {
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = 3
	}
	if cfg.BaseDelay <= 0 {
		cfg.BaseDelay = 500 * time.Millisecond
	}
	if cfg.MaxDelay <= 0 {
		cfg.MaxDelay = 30 * time.Second
	}

	var lastErr error
	for attempt := 1; attempt <= cfg.MaxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		err := fn(attempt)
		if err == nil {
			return nil
		}
		if !IsTransient(err) {
			return err
		}
		lastErr = err

		if attempt == cfg.MaxAttempts {
			break
		}

		delay := time.Duration(float64(cfg.BaseDelay) * math.Pow(2, float64(attempt-1)))
		if delay > cfg.MaxDelay {
			delay = cfg.MaxDelay
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay):
		}
	}
	return lastErr
}
