package git

import (
	"context"
	"log/slog"
	"time"

	"git.home.luguber.info/inful/reportpub/internal/foundation/errors"
	"git.home.luguber.info/inful/reportpub/internal/logfields"
	"git.home.luguber.info/inful/reportpub/internal/retry"
)

// withRetry runs fn until it succeeds, fails permanently or the policy is
// exhausted. Each attempt gets its own timeout. It returns the number of
// retries performed.
func withRetry(ctx context.Context, op string, pol retry.Policy, timeout time.Duration, onRetry func(attempt int), fn func(context.Context) error) (int, error) {
	var lastErr error
	for attempt := 0; attempt <= pol.MaxRetries; attempt++ {
		if attempt > 0 {
			slog.Warn("Retrying git operation", slog.String("operation", op), logfields.Attempt(attempt), logfields.Error(lastErr))
			if onRetry != nil {
				onRetry(attempt)
			}
		}
		attemptCtx, cancel := context.WithTimeout(ctx, timeout)
		err := fn(attemptCtx)
		cancel()
		if err == nil {
			return attempt, nil
		}
		lastErr = err
		if !isTransient(err) {
			return attempt, err
		}
		if attempt == pol.MaxRetries {
			break
		}

		delay := pol.Wait(attempt+1, errors.GetRetryStrategy(err) == errors.RetryRateLimit)
		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return attempt, lastErr
		case <-timer.C:
		}
	}
	return pol.MaxRetries, lastErr
}
