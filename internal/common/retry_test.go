package common

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fastRetry() RetryOptions {
	return RetryOptions{MaxAttempts: 3, InitialDelay: time.Millisecond, MaxDelay: 5 * time.Millisecond}
}

func TestWithRetry(t *testing.T) {
	transient := errors.New("connection reset")

	tests := []struct {
		failWith  error
		wantErr   error
		name      string
		failures  int
		wantCalls int
	}{
		{name: "first try", failures: 0, wantCalls: 1},
		{name: "recovers", failures: 2, failWith: transient, wantCalls: 3},
		{name: "exhausted", failures: 5, failWith: transient, wantCalls: 3, wantErr: ErrMaxRetries},
		{name: "permanent", failures: 5, failWith: Permanent(ErrNotFound), wantCalls: 1, wantErr: ErrNotFound},
		{name: "rate limited sentinel", failures: 1, failWith: ErrRateLimit, wantCalls: 2},
		{name: "rate limited with wait", failures: 2, failWith: &RateLimitError{Err: transient, RetryAfter: time.Millisecond}, wantCalls: 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			calls := 0
			err := WithRetry(context.Background(), func() error {
				calls++
				if calls <= tt.failures {
					return tt.failWith
				}
				return nil
			}, fastRetry())

			assert.Equal(t, tt.wantCalls, calls)
			if tt.wantErr == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestWithRetry_ExhaustedKeepsCause(t *testing.T) {
	cause := errors.New("boom")
	err := WithRetry(context.Background(), func() error { return cause }, fastRetry())
	assert.ErrorIs(t, err, ErrMaxRetries)
	assert.ErrorIs(t, err, cause)
}

func TestWithRetry_ContextCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	calls := 0
	err := WithRetry(ctx, func() error {
		calls++
		return errors.New("transient")
	}, RetryOptions{MaxAttempts: 5, InitialDelay: time.Second})

	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, calls)
}

func TestWithRetry_RetryAfterCappedAtMaxDelay(t *testing.T) {
	opts := RetryOptions{MaxAttempts: 2, InitialDelay: time.Millisecond, MaxDelay: 20 * time.Millisecond}

	start := time.Now()
	calls := 0
	err := WithRetry(context.Background(), func() error {
		calls++
		if calls == 1 {
			return &RateLimitError{Err: errors.New("429"), RetryAfter: time.Hour}
		}
		return nil
	}, opts)
	require.NoError(t, err)
	assert.Less(t, time.Since(start), time.Second)
}

func TestRetryOptions_Backoff(t *testing.T) {
	o := RetryOptions{InitialDelay: 10 * time.Millisecond, MaxDelay: 50 * time.Millisecond}.withDefaults()
	assert.Equal(t, 10*time.Millisecond, o.backoff(1))
	assert.Equal(t, 20*time.Millisecond, o.backoff(2))
	assert.Equal(t, 40*time.Millisecond, o.backoff(3))
	assert.Equal(t, 50*time.Millisecond, o.backoff(4))
}

func TestPermanentAndRateLimitErrors(t *testing.T) {
	assert.NoError(t, Permanent(nil))

	wrapped := fmt.Errorf("upload: %w", Permanent(ErrNotFound))
	assert.True(t, IsPermanent(wrapped))
	assert.ErrorIs(t, wrapped, ErrNotFound)
	assert.False(t, IsPermanent(ErrNotFound))

	limited := fmt.Errorf("fetch: %w", &RateLimitError{Err: ErrNotFound, RetryAfter: time.Second})
	assert.ErrorIs(t, limited, ErrRateLimit)
	assert.ErrorIs(t, limited, ErrNotFound)
}
