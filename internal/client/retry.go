// Package client submits pool operations on behalf of a caller. The pool
// handlers never retry; a caller that sees ledger.ErrConflict may resubmit,
// and Submit does that with exponential backoff.
package client

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"cpamm/internal/ledger"
)

// RetryConfig bounds resubmission of conflicting operations.
type RetryConfig struct {
	MaxRetries   int
	RetryBackoff time.Duration
}

// Submit runs op and resubmits it while the ledger reports a conflict. Any
// other error, domain rejections included, is returned immediately.
func Submit[T any](ctx context.Context, cfg RetryConfig, logger *zap.Logger, op func(context.Context) (T, error)) (T, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	var out T
	attempt := 0
	err := withRetry(ctx, cfg.MaxRetries, cfg.RetryBackoff, isConflict, func(ctx context.Context) error {
		attempt++
		var err error
		out, err = op(ctx)
		if err != nil && isConflict(err) {
			logger.Warn("ledger conflict, resubmitting", zap.Int("attempt", attempt), zap.Error(err))
		}
		return err
	})
	return out, err
}

func isConflict(err error) bool {
	return errors.Is(err, ledger.ErrConflict)
}

func withRetry(ctx context.Context, maxRetries int, baseDelay time.Duration, retryable func(error) bool, fn func(context.Context) error) error {
	if maxRetries < 0 {
		maxRetries = 0
	}
	if baseDelay <= 0 {
		baseDelay = 100 * time.Millisecond
	}

	delay := baseDelay
	for attempt := 0; ; attempt++ {
		err := fn(ctx)
		if err == nil {
			return nil
		}
		if attempt >= maxRetries || !retryable(err) {
			return err
		}

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}

		delay *= 2
	}
}
