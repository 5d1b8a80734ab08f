// Package retrier retries transient failures with capped exponential
// backoff and jitter. It is used for operations against remote endpoints
// that are expected to recover, like the initial RPC dial.
package retrier

import (
	"context"
	"math/rand"
	"time"
)

const (
	defaultInitialInterval = time.Second
	defaultMaxInterval     = 30 * time.Second
	defaultMaxRetries      = 5

	multiplier = 2.0
	jitter     = 0.1
)

// Retrier implements exponential backoff with jitter.
type Retrier struct {
	initialInterval time.Duration
	maxInterval     time.Duration
	maxRetries      int
}

// Option configures a Retrier.
type Option func(*Retrier)

// WithInitialInterval sets the first retry delay.
func WithInitialInterval(d time.Duration) Option {
	return func(r *Retrier) {
		r.initialInterval = d
	}
}

// WithMaxInterval caps the retry delay.
func WithMaxInterval(d time.Duration) Option {
	return func(r *Retrier) {
		r.maxInterval = d
	}
}

// WithMaxRetries sets how many retries follow the initial attempt.
func WithMaxRetries(n int) Option {
	return func(r *Retrier) {
		r.maxRetries = n
	}
}

// New creates a Retrier with defaults and optional overrides.
func New(opts ...Option) *Retrier {
	r := &Retrier{
		initialInterval: defaultInitialInterval,
		maxInterval:     defaultMaxInterval,
		maxRetries:      defaultMaxRetries,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Do runs fn until it succeeds, the retry budget is spent, or the context
// is cancelled. The last error is returned when all attempts fail.
func (r *Retrier) Do(ctx context.Context, fn func(ctx context.Context) error) error {
	var err error
	interval := r.initialInterval

	for attempt := 0; attempt <= r.maxRetries; attempt++ {
		if attempt > 0 {
			sleep := time.Duration(float64(interval) * (1 + (rand.Float64()*2-1)*jitter))
			if sleep < 0 {
				sleep = 0
			}

			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(sleep):
			}

			interval = time.Duration(float64(interval) * multiplier)
			if interval > r.maxInterval {
				interval = r.maxInterval
			}
		}

		if err = fn(ctx); err == nil {
			return nil
		}
	}

	return err
}

// DoWithData is Do for functions that return a value alongside the error.
func DoWithData[T any](r *Retrier, ctx context.Context, fn func(ctx context.Context) (T, error)) (T, error) {
	var result T
	err := r.Do(ctx, func(ctx context.Context) error {
		var e error
		result, e = fn(ctx)
		return e
	})
	return result, err
}
