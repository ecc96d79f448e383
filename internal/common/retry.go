package common

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"
)

var (
	// ErrRateLimit marks throttling by a remote service.
	ErrRateLimit = errors.New("rate limit exceeded")
	// ErrMaxRetries is returned once every attempt has failed.
	ErrMaxRetries = errors.New("max retries exceeded")
)

// RetryOptions configure WithRetry. Zero fields take the defaults below.
type RetryOptions struct {
	MaxAttempts  int
	InitialDelay time.Duration
	MaxDelay     time.Duration
	Multiplier   float64
}

func (o RetryOptions) withDefaults() RetryOptions {
	if o.MaxAttempts <= 0 {
		o.MaxAttempts = 3
	}
	if o.InitialDelay <= 0 {
		o.InitialDelay = 100 * time.Millisecond
	}
	if o.MaxDelay <= 0 {
		o.MaxDelay = 30 * time.Second
	}
	if o.Multiplier <= 1 {
		o.Multiplier = 2
	}
	return o
}

// backoff is the wait before attempt+1 after a plain failure.
func (o RetryOptions) backoff(attempt int) time.Duration {
	d := float64(o.InitialDelay)
	for i := 1; i < attempt; i++ {
		d *= o.Multiplier
		if d >= float64(o.MaxDelay) {
			return o.MaxDelay
		}
	}
	return time.Duration(d)
}

type permanentError struct{ err error }

func (e *permanentError) Error() string { return e.err.Error() }
func (e *permanentError) Unwrap() error { return e.err }

// Permanent marks err so WithRetry returns it without another attempt.
func Permanent(err error) error {
	if err == nil {
		return nil
	}
	return &permanentError{err: err}
}

// IsPermanent reports whether err was marked with Permanent.
func IsPermanent(err error) bool {
	var p *permanentError
	return errors.As(err, &p)
}

// RateLimitError is a throttling response. RetryAfter is the server's
// requested wait, zero when it gave none.
type RateLimitError struct {
	Err        error
	RetryAfter time.Duration
}

func (e *RateLimitError) Error() string {
	return fmt.Sprintf("%v: %v", ErrRateLimit, e.Err)
}

func (e *RateLimitError) Unwrap() error { return e.Err }

// Is makes errors.Is(err, ErrRateLimit) hold.
func (e *RateLimitError) Is(target error) bool { return target == ErrRateLimit }

// WithRetry runs operation until it succeeds, returns a Permanent error,
// ctx ends or MaxAttempts is reached. Plain failures back off
// exponentially; rate limits wait RetryAfter, or MaxDelay when unknown,
// capped at MaxDelay either way.
func WithRetry(ctx context.Context, operation func() error, opts RetryOptions) error {
	opts = opts.withDefaults()

	var err error
	for attempt := 1; ; attempt++ {
		if err = operation(); err == nil {
			return nil
		}

		var perm *permanentError
		if errors.As(err, &perm) {
			return perm.err
		}
		if attempt >= opts.MaxAttempts {
			return fmt.Errorf("%w after %d attempts: %w", ErrMaxRetries, attempt, err)
		}

		wait := opts.backoff(attempt)
		var limited *RateLimitError
		if errors.As(err, &limited) {
			wait = opts.MaxDelay
			if limited.RetryAfter > 0 && limited.RetryAfter < wait {
				wait = limited.RetryAfter
			}
		} else if errors.Is(err, ErrRateLimit) {
			wait = opts.MaxDelay
		}

		slog.Warn("Retrying after failure",
			"attempt", attempt,
			"max_attempts", opts.MaxAttempts,
			"wait", wait,
			"error", err)

		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}
}
