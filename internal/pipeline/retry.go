package pipeline

import (
	"context"
	"errors"
	"fmt"
	"math"
	"math/rand/v2"
	"time"

	"go-pivot-table/internal/model"
	"go-pivot-table/internal/store"
)

// ErrReportRunning is returned when retrying a report that has not finished
var ErrReportRunning = errors.New("report is still running")

// RetryConfig defines retry behavior for source loads
type RetryConfig struct {
	MaxAttempts       int           `json:"max_attempts"`
	InitialDelay      time.Duration `json:"initial_delay"`
	MaxDelay          time.Duration `json:"max_delay"`
	BackoffMultiplier float64       `json:"backoff_multiplier"`
	Jitter            bool          `json:"jitter"`
}

// DefaultRetryConfig is used for every source unless the loader overrides it
var DefaultRetryConfig = RetryConfig{
	MaxAttempts:       3,
	InitialDelay:      500 * time.Millisecond,
	MaxDelay:          10 * time.Second,
	BackoffMultiplier: 2.0,
	Jitter:            true,
}

// permanentError marks a failure that another attempt cannot fix (missing
// file, 4xx response, malformed payload).
type permanentError struct {
	err error
}

func (e *permanentError) Error() string { return e.err.Error() }
func (e *permanentError) Unwrap() error { return e.err }

func permanent(err error) error {
	if err == nil {
		return nil
	}
	return &permanentError{err: err}
}

// isRetryableError reports whether another attempt may succeed. Unknown
// errors count as retryable.
func isRetryableError(err error) bool {
	var p *permanentError
	if errors.As(err, &p) {
		return false
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	return true
}

// nextDelay is the wait before attempt+1, with exponential backoff
func nextDelay(cfg RetryConfig, attempt int) time.Duration {
	delay := time.Duration(float64(cfg.InitialDelay) * math.Pow(cfg.BackoffMultiplier, float64(attempt-1)))

	// Cap at max delay
	if cfg.MaxDelay > 0 && delay > cfg.MaxDelay {
		delay = cfg.MaxDelay
	}

	// ±5% jitter
	if cfg.Jitter {
		delay += time.Duration(float64(delay) * 0.1 * (rand.Float64() - 0.5))
	}
	return delay
}

// withRetry runs op until it succeeds, fails permanently, runs out of
// attempts or ctx is done.
func withRetry(ctx context.Context, cfg RetryConfig, name string, op func() error) error {
	attempts := cfg.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}

	var err error
	for attempt := 1; attempt <= attempts; attempt++ {
		if err = op(); err == nil {
			if attempt > 1 {
				progress.Printf("✅ Retry successful for %s after %d attempts\n", name, attempt)
			}
			return nil
		}
		if !isRetryableError(err) || attempt == attempts {
			break
		}

		delay := nextDelay(cfg, attempt)
		progress.Printf("🔄 %s failed (attempt %d/%d): %v. Retrying in %v\n", name, attempt, attempts, err, delay)
		select {
		case <-ctx.Done():
			return fmt.Errorf("%s: %w", name, ctx.Err())
		case <-time.After(delay):
		}
	}
	return err
}

// RetryReport re-runs a stored report from its saved spec. Errors of the
// previous run are dropped first.
func (p *Pipeline) RetryReport(ctx context.Context, reportID string) (*Outcome, error) {
	progress.Printf("🔄 Retrying report %s\n", reportID)

	report, err := store.GetReport(reportID)
	if err != nil {
		return nil, err
	}
	if report.Status == model.StatusRunning {
		return nil, ErrReportRunning
	}
	if err := store.ClearReportErrors(reportID); err != nil {
		return nil, fmt.Errorf("clear errors of %s: %w", reportID, err)
	}
	return p.RunAndStore(ctx, *report)
}
