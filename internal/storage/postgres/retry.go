package postgres

import (
	"context"
	"errors"
	"time"
)

// withRetry calls fn until it succeeds, the attempts are spent, ctx is done,
// or fn returns an error that a retry cannot fix.
func withRetry(ctx context.Context, maxRetries int, baseDelay time.Duration, fn func(context.Context) error) error {
	if maxRetries < 0 {
		maxRetries = 0
	}
	if baseDelay <= 0 {
		baseDelay = 100 * time.Millisecond
	}

	delay := baseDelay
	for attempt := 0; ; attempt++ {
		err := fn(ctx)
		switch {
		case err == nil:
			return nil
		case isPermanent(err), attempt >= maxRetries, ctx.Err() != nil:
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

func isPermanent(err error) bool {
	return errors.Is(err, ErrSnapshotNotFound) ||
		errors.Is(err, context.Canceled) ||
		errors.Is(err, context.DeadlineExceeded)
}
