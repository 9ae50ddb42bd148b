package errors

import (
	"context"
	"errors"
	"fmt"
	"math"
	"math/rand/v2"
	"slices"
	"time"

	"apptime/internal/infrastructure/logging"
)

// RetryPolicy bounds how a store operation is retried on transient SQLite
// failures. The zero value runs an operation once.
type RetryPolicy struct {
	Attempts   int           // total tries, including the first
	BaseDelay  time.Duration // wait after the first failure
	MaxDelay   time.Duration // cap on a single wait, 0 for none
	Multiplier float64       // growth of the wait per failure, at least 1
	Jitter     float64       // extra random wait as a fraction of the delay
	Codes      []ErrorCode   // codes worth another try
	Logger     logging.Logger
}

// DefaultRetryPolicy is used for interval writes and reads. A busy database
// during a tick is the common case; three tries inside one second keep the
// tick well under the poll interval.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		Attempts:   3,
		BaseDelay:  100 * time.Millisecond,
		MaxDelay:   time.Second,
		Multiplier: 2,
		Jitter:     0.25,
		Codes: []ErrorCode{
			ErrCodeConnection,
			ErrCodeTimeout,
			ErrCodeTransaction,
			ErrCodeBusy,
		},
	}
}

// NoRetry runs operations exactly once. Statements inside a transaction use
// it; the transaction as a whole is what gets retried.
func NoRetry() RetryPolicy {
	return RetryPolicy{Attempts: 1}
}

// WithLogger returns a copy of p that reports retries to logger
func (p RetryPolicy) WithLogger(logger logging.Logger) RetryPolicy {
	p.Logger = logger
	return p
}

// Do runs op until it succeeds, returns an error that is not worth retrying,
// runs out of attempts or ctx ends. Exhaustion wraps the last error.
func (p RetryPolicy) Do(ctx context.Context, name string, op func() error) error {
	attempts := max(p.Attempts, 1)

	for attempt := 1; ; attempt++ {
		err := op()
		switch {
		case err == nil:
			if attempt > 1 && p.Logger != nil {
				p.Logger.Info("Store operation recovered", "operation", name, "attempts", attempt)
			}
			return nil
		case !p.retries(err):
			return err
		case attempt == attempts:
			if attempts == 1 {
				return err
			}
			return fmt.Errorf("%s failed after %d attempts: %w", name, attempts, err)
		}

		wait := p.Delay(attempt)
		if p.Logger != nil {
			p.Logger.Warn("Retrying store operation",
				"operation", name,
				"attempt", attempt,
				"max_attempts", attempts,
				"wait", wait.String(),
				"error", err.Error())
		}

		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return fmt.Errorf("%s cancelled during retry: %w", name, ctx.Err())
		case <-timer.C:
		}
	}
}

// retries reports whether err is a retryable RepositoryError with a listed code
func (p RetryPolicy) retries(err error) bool {
	var repoErr *RepositoryError
	if !errors.As(err, &repoErr) || !repoErr.IsRetryable() {
		return false
	}
	return slices.Contains(p.Codes, repoErr.Code)
}

// Delay returns the wait after failed attempt n (1-based). Jitter is added
// before the cap.
func (p RetryPolicy) Delay(n int) time.Duration {
	growth := max(p.Multiplier, 1)
	wait := float64(p.BaseDelay) * math.Pow(growth, float64(max(n-1, 0)))
	if p.Jitter > 0 {
		wait += wait * p.Jitter * rand.Float64()
	}

	delay := time.Duration(wait)
	if p.MaxDelay > 0 {
		delay = min(delay, p.MaxDelay)
	}
	return delay
}
