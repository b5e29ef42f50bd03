// Package retry holds the bounded retry policy used for broker connects.
package retry

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v5"
)

// Policy retries an operation up to MaxAttempts times with a fixed Delay
// between attempts.
type Policy struct {
	MaxAttempts int
	Delay       time.Duration
}

// Permanent marks err as not worth retrying.
func Permanent(err error) error {
	return backoff.Permanent(err)
}

// Do runs op until it succeeds, returns a Permanent error, ctx is done, or the
// attempts are used up. onFailure, when set, sees every failed attempt.
func (p Policy) Do(ctx context.Context, op func(attempt int) error, onFailure func(attempt int, err error)) error {
	maxAttempts := p.MaxAttempts
	if maxAttempts < 1 {
		maxAttempts = 1
	}

	attempt := 0
	operation := func() (struct{}, error) {
		attempt++
		err := op(attempt)
		if err != nil && onFailure != nil {
			onFailure(attempt, err)
		}
		return struct{}{}, err
	}

	_, err := backoff.Retry(ctx, operation,
		backoff.WithBackOff(backoff.NewConstantBackOff(p.Delay)),
		backoff.WithMaxTries(uint(maxAttempts)),
		backoff.WithMaxElapsedTime(0),
	)
	return err
}
