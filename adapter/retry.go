package adapter

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// retryBase is the delay before the first retry; each retry doubles it.
const retryBase = 500 * time.Millisecond

// Permanent marks an error as non-retriable. Retry stops immediately
// when the attempt function returns one.
type Permanent struct {
	Err error
}

func (p *Permanent) Error() string {
	return p.Err.Error()
}

func (p *Permanent) Unwrap() error {
	return p.Err
}

// Retry runs attempt up to 1+retries times with exponential backoff
// (500ms, 1s, 2s, ...). It stops early when ctx is canceled or when
// attempt returns a *Permanent error, and returns the last error when
// all attempts fail.
func Retry(ctx context.Context, retries int, attempt func(context.Context) error) error {
	var lastErr error
	attempts := 1 + retries

	for i := range attempts {
		if err := ctx.Err(); err != nil {
			return fmt.Errorf("context canceled: %w", err)
		}

		// Backoff before retries, not before the first attempt
		if i > 0 {
			backoff := time.Duration(1<<uint(i-1)) * retryBase
			select {
			case <-ctx.Done():
				return fmt.Errorf("context canceled during backoff: %w", ctx.Err())
			case <-time.After(backoff):
			}
		}

		lastErr = attempt(ctx)
		if lastErr == nil {
			return nil
		}

		var perm *Permanent
		if errors.As(lastErr, &perm) {
			return fmt.Errorf("non-retriable error: %w", perm.Err)
		}
	}

	return fmt.Errorf("failed after %d attempts: %w", attempts, lastErr)
}
