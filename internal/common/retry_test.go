package common

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/quillback/autoscout/internal/service"
)

func fastRetryOptions(attempts int) service.RetryOptions {
	return service.RetryOptions{
		MaxAttempts:  attempts,
		InitialDelay: time.Millisecond,
		MaxDelay:     5 * time.Millisecond,
		Multiplier:   2.0,
	}
}

func TestWithRetrySucceedsAfterFailures(t *testing.T) {
	calls := 0
	err := WithRetry(context.Background(), func() error {
		calls++
		if calls < 3 {
			return ErrStorageBusy
		}
		return nil
	}, fastRetryOptions(5))

	if err != nil {
		t.Errorf("WithRetry() error = %v", err)
	}
	if calls != 3 {
		t.Errorf("calls = %d, want 3", calls)
	}
}

func TestWithRetryExhaustsAttempts(t *testing.T) {
	calls := 0
	err := WithRetry(context.Background(), func() error {
		calls++
		return ErrStorageBusy
	}, fastRetryOptions(3))

	if !errors.Is(err, ErrMaxRetries) {
		t.Errorf("WithRetry() error = %v, want ErrMaxRetries", err)
	}
	if calls != 3 {
		t.Errorf("calls = %d, want 3", calls)
	}
}

func TestWithRetryStopsOnNonRetryable(t *testing.T) {
	fatal := &RetryableError{Err: errors.New("schema corrupt"), Retryable: false}
	calls := 0
	err := WithRetry(context.Background(), func() error {
		calls++
		return fatal
	}, fastRetryOptions(5))

	if !errors.Is(err, fatal) {
		t.Errorf("WithRetry() error = %v, want the original error", err)
	}
	if calls != 1 {
		t.Errorf("calls = %d, want 1", calls)
	}
}

func TestWithRetryContextCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := WithRetry(ctx, func() error {
		return ErrStorageBusy
	}, fastRetryOptions(5))

	if !errors.Is(err, context.Canceled) {
		t.Errorf("WithRetry() error = %v, want context.Canceled", err)
	}
}

func TestIsRetryable(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"storage busy", ErrStorageBusy, true},
		{"deadline exceeded", context.DeadlineExceeded, true},
		{"explicit retryable", &RetryableError{Err: errors.New("x"), Retryable: true}, true},
		{"explicit non-retryable", &RetryableError{Err: errors.New("x"), Retryable: false}, false},
		{"plain error", errors.New("boom"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsRetryable(tt.err); got != tt.want {
				t.Errorf("IsRetryable() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestUserError(t *testing.T) {
	inner := errors.New("disk full")
	err := NewUserError("could not save the session", inner)

	if !errors.Is(err, inner) {
		t.Error("UserError does not unwrap to the inner error")
	}
	if err.Error() != "could not save the session: disk full" {
		t.Errorf("Error() = %q", err.Error())
	}

	bare := NewUserError("nothing to do", nil)
	if bare.Error() != "nothing to do" {
		t.Errorf("Error() = %q", bare.Error())
	}
}
