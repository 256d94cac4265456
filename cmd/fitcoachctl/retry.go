package main

import (
	"context"
	"time"

	"github.com/antoniostano/fitcoach/internal/logging"
	"github.com/antoniostano/fitcoach/internal/reliability"
)

var (
	retryBase = 500 * time.Millisecond
	retryCap  = 8 * time.Second
)

// withRetries runs fn until it succeeds, fails with a non-retryable error, or
// the retry budget is spent.
func withRetries(ctx context.Context, retries int, fn func() error) error {
	for attempt := 0; ; attempt++ {
		err := fn()
		if err == nil {
			return nil
		}
		if attempt >= retries || !reliability.IsRetryable(err) {
			return err
		}
		wait := reliability.ExponentialBackoff(attempt, retryBase, retryCap)
		logging.Warnf("attempt %d failed, retrying in %s: %v", attempt+1, wait, err)
		t := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			t.Stop()
			return ctx.Err()
		case <-t.C:
		}
	}
}
