// Package resilience provides the retry and circuit-breaker primitives that
// guard calls to the extraction oracle and the correction index.
//
// Both services sit on the other side of a network hop with non-trivial
// latency. The dialogue engine treats each call as blocking and cancellable,
// with a single retry on transient failure; persistent failure degrades to a
// safe default at the call site rather than crashing the session.
//
// All types are safe for concurrent use.
package resilience

import (
	"context"
	"time"
)

// RetryConfig tunes a [Do] or [DoWithResult] call.
type RetryConfig struct {
	// Attempts is the total number of tries including the first. Values
	// below 1 are treated as the default of 2 (one retry).
	Attempts int

	// Delay is the pause between tries. Default: 200ms.
	Delay time.Duration
}

func (c RetryConfig) withDefaults() RetryConfig {
	if c.Attempts < 1 {
		c.Attempts = 2
	}
	if c.Delay <= 0 {
		c.Delay = 200 * time.Millisecond
	}
	return c
}

// Do runs fn up to cfg.Attempts times, stopping on the first success or on
// context cancellation. The last error is returned when all tries fail;
// ctx.Err() is returned when the context ends between tries.
func Do(ctx context.Context, cfg RetryConfig, fn func(ctx context.Context) error) error {
	cfg = cfg.withDefaults()

	var lastErr error
	for attempt := 0; attempt < cfg.Attempts; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(cfg.Delay):
			}
		}
		if lastErr = fn(ctx); lastErr == nil {
			return nil
		}
		if ctx.Err() != nil {
			return lastErr
		}
	}
	return lastErr
}

// DoWithResult is [Do] for functions that return a value. This is a
// package-level function because Go does not support method-level type
// parameters.
func DoWithResult[T any](ctx context.Context, cfg RetryConfig, fn func(ctx context.Context) (T, error)) (T, error) {
	var result T
	err := Do(ctx, cfg, func(ctx context.Context) error {
		var innerErr error
		result, innerErr = fn(ctx)
		return innerErr
	})
	return result, err
}
