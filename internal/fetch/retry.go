package fetch

import (
	"context"
	"time"
)

// retryPolicy controls transport-failure retries with exponential backoff.
// Content-policy failures (wrong type, oversized body, bad status) are never
// retried; a static server response will not change on the next attempt.
type retryPolicy struct {
	maxAttempts int
	baseDelay   time.Duration
	maxDelay    time.Duration
}

func newRetryPolicy(maxAttempts int, baseDelay, maxDelay time.Duration) retryPolicy {
	if maxAttempts <= 0 {
		maxAttempts = 2
	}
	if baseDelay <= 0 {
		baseDelay = time.Second
	}
	if maxDelay <= 0 {
		maxDelay = 5 * time.Second
	}
	return retryPolicy{maxAttempts: maxAttempts, baseDelay: baseDelay, maxDelay: maxDelay}
}

// shouldRetry reports whether err warrants another attempt. The caller's
// context is consulted directly: a per-request timeout is retryable, a
// canceled batch is not, and both surface as deadline errors. The attempt
// bound is owned by the fetch loop.
func (p retryPolicy) shouldRetry(ctx context.Context, err error) bool {
	if err == nil || ctx.Err() != nil {
		return false
	}
	return isTransport(err)
}

// backoff returns the wait before attempt+1: base·2^attempt, capped.
func (p retryPolicy) backoff(attempt int) time.Duration {
	delay := p.baseDelay << attempt
	if delay > p.maxDelay || delay <= 0 {
		delay = p.maxDelay
	}
	return delay
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
