package fetch

import (
	"context"
	"time"
)

// RetryPolicy controls retry behavior for outbound fetches.
type RetryPolicy struct {
	MaxRetries  int           // max retry attempts after the first try
	BaseBackoff time.Duration // initial backoff duration
	MaxBackoff  time.Duration // upper bound on backoff
	JitterFn    func(time.Duration) time.Duration
}

// DefaultRetryPolicy returns the policy used for dataset refreshes.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxRetries:  3,
		BaseBackoff: 200 * time.Millisecond,
		MaxBackoff:  3 * time.Second,
		JitterFn:    func(d time.Duration) time.Duration { return d / 2 }, // 50% jitter
	}
}

// Retry executes fn with retries, backoff, and cancellation support.
//
// fn must return nil on success. Errors for which retryable returns
// false abort immediately; pass nil to treat every error as retryable.
func Retry(
	ctx context.Context,
	policy RetryPolicy,
	retryable func(error) bool,
	fn func() error,
) error {

	var attempt int
	var backoff = policy.BaseBackoff

	for {
		err := fn()
		if err == nil {
			return nil
		}

		if retryable != nil && !retryable(err) {
			return err
		}

		attempt++
		if attempt > policy.MaxRetries {
			return err
		}

		delay := backoff
		if policy.JitterFn != nil {
			delay += policy.JitterFn(backoff)
		}
		if delay > policy.MaxBackoff {
			delay = policy.MaxBackoff
		}

		select {
		case <-time.After(delay):
			backoff *= 2
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}
