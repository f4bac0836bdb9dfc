package pipeline

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestNextDelay(t *testing.T) {
	cfg := RetryConfig{InitialDelay: 100 * time.Millisecond, MaxDelay: time.Second, BackoffMultiplier: 2}
	tests := []struct {
		attempt int
		want    time.Duration
	}{
		{1, 100 * time.Millisecond},
		{2, 200 * time.Millisecond},
		{4, 800 * time.Millisecond},
		{5, time.Second},
	}
	for _, tt := range tests {
		if got := nextDelay(cfg, tt.attempt); got != tt.want {
			t.Errorf("nextDelay(%d) = %v, want %v", tt.attempt, got, tt.want)
		}
	}

	cfg.Jitter = true
	for i := 0; i < 20; i++ {
		got := nextDelay(cfg, 1)
		if got < 95*time.Millisecond || got > 105*time.Millisecond {
			t.Fatalf("jittered delay %v outside ±5%%", got)
		}
	}
}

func TestWithRetry(t *testing.T) {
	transient := errors.New("connection reset")

	calls := 0
	err := withRetry(context.Background(), fastRetry, "op", func() error {
		calls++
		return transient
	})
	if !errors.Is(err, transient) || calls != fastRetry.MaxAttempts {
		t.Errorf("err = %v after %d calls, want %v after %d", err, calls, transient, fastRetry.MaxAttempts)
	}

	calls = 0
	err = withRetry(context.Background(), fastRetry, "op", func() error {
		calls++
		return permanent(transient)
	})
	if !errors.Is(err, transient) || calls != 1 {
		t.Errorf("permanent error: err = %v after %d calls", err, calls)
	}

	ctx, cancel := context.WithCancel(context.Background())
	slow := RetryConfig{MaxAttempts: 5, InitialDelay: time.Hour, BackoffMultiplier: 1}
	calls = 0
	err = withRetry(ctx, slow, "op", func() error {
		calls++
		cancel()
		return transient
	})
	if !errors.Is(err, context.Canceled) || calls != 1 {
		t.Errorf("cancelled: err = %v after %d calls", err, calls)
	}
}
