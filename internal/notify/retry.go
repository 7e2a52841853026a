package notify

import (
	"context"
	"log/slog"
	"time"

	"pickup-games/internal/logging"
)

const (
	defaultRetryAttempts = 3
	defaultBackoff       = 200 * time.Millisecond
)

type backoffFunc func(attempt int) time.Duration

// retryingDispatcher wraps a Dispatcher with retry/backoff behavior.
type retryingDispatcher struct {
	inner       Dispatcher
	logger      *slog.Logger
	maxAttempts int
	backoffFn   backoffFunc
}

// NewRetryingDispatcher wraps inner with retries. If maxAttempts/backoff are <= 0, defaults are used.
// Responses the receiver rejected outright are not retried.
func NewRetryingDispatcher(inner Dispatcher, logger *slog.Logger, maxAttempts int, backoff time.Duration) Dispatcher {
	if maxAttempts <= 0 {
		maxAttempts = defaultRetryAttempts
	}
	if backoff <= 0 {
		backoff = defaultBackoff
	}
	return &retryingDispatcher{
		inner:       inner,
		logger:      logger,
		maxAttempts: maxAttempts,
		backoffFn: func(attempt int) time.Duration {
			return time.Duration(attempt) * backoff
		},
	}
}

func (r *retryingDispatcher) Dispatch(ctx context.Context, event Event) error {
	var lastErr error

	for attempt := 1; attempt <= r.maxAttempts; attempt++ {
		err := r.inner.Dispatch(ctx, event)
		if err == nil {
			return nil
		}
		lastErr = err

		if attempt == r.maxAttempts || !retryable(err) {
			break
		}

		r.logWarn(ctx, "notification retry", logging.FieldEvent, string(event.Type), logging.FieldAttempt, attempt, "max_attempts", r.maxAttempts, "err", err)

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(r.backoffFn(attempt)):
		}
	}

	return lastErr
}

func (r *retryingDispatcher) logWarn(ctx context.Context, msg string, args ...any) {
	logging.Warn(logging.FromContext(ctx, r.logger), msg, args...)
}
