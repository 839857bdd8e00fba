// Package retry wraps directory calls in a bounded, fixed-delay retry loop.
package retry

import (
	"context"
	"errors"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/platformops/idsweep/internal/config"
	"github.com/platformops/idsweep/internal/logger"
	"github.com/platformops/idsweep/pkg/apiclient"
)

// Executor retries an operation up to MaxAttempts times, pausing a fixed
// Delay between attempts and applying CallTimeout to each attempt
// individually. Exhaustion returns the last error; the process never exits
// from here.
type Executor struct {
	MaxAttempts int
	Delay       time.Duration
	CallTimeout time.Duration
}

// New builds an Executor from validated retry configuration.
func New(cfg config.RetryConfig) *Executor {
	return &Executor{
		MaxAttempts: cfg.MaxAttempts,
		Delay:       cfg.Delay(),
		CallTimeout: cfg.CallTimeout,
	}
}

// Do runs fn until it succeeds, returns a final verdict, or attempts are
// exhausted. Each attempt is logged with its number. API errors that cannot
// succeed on retry (4xx verdicts like not-found and conflict) short-circuit
// the loop and are returned as-is for the caller to classify.
func (e *Executor) Do(ctx context.Context, op string, fn func(context.Context) error) error {
	maxAttempts := e.MaxAttempts
	if maxAttempts < 1 {
		maxAttempts = 1
	}

	attempt := 0
	operation := func() error {
		attempt++

		callCtx := ctx
		if e.CallTimeout > 0 {
			var cancel context.CancelFunc
			callCtx, cancel = context.WithTimeout(ctx, e.CallTimeout)
			defer cancel()
		}

		start := time.Now()
		err := fn(callCtx)
		if err == nil {
			logger.Debug("directory call succeeded",
				logger.KeyOperation, op,
				logger.KeyAttempt, attempt,
				logger.KeyDurationMS, logger.Duration(start))
			return nil
		}

		var apiErr *apiclient.APIError
		if errors.As(err, &apiErr) && !apiErr.Retryable() {
			logger.Warn("directory call returned final verdict",
				logger.KeyOperation, op,
				logger.KeyAttempt, attempt,
				logger.KeyStatus, apiErr.StatusCode,
				logger.KeyError, err)
			return backoff.Permanent(err)
		}

		logger.Warn("directory call failed",
			logger.KeyOperation, op,
			logger.KeyAttempt, attempt,
			logger.KeyMaxAttempts, maxAttempts,
			logger.KeyError, err)
		return err
	}

	policy := backoff.WithContext(
		backoff.WithMaxRetries(backoff.NewConstantBackOff(e.Delay), uint64(maxAttempts-1)),
		ctx,
	)

	notify := func(err error, delay time.Duration) {
		logger.Debug("retrying directory call",
			logger.KeyOperation, op,
			logger.KeyDelay, delay)
	}

	return backoff.RetryNotify(operation, policy, notify)
}
