package cache

import (
	"context"
	"errors"
	"time"
)

// ErrUnavailable is returned when a remote backend cannot be reached.
var ErrUnavailable = errors.New("cache unavailable")

// RetryableError marks a transient failure.
type RetryableError struct{ Err error }

// Retryable wraps err so [RetryWithBackoff] retries it. Retryable(nil) is nil.
func Retryable(err error) error {
	if err == nil {
		return nil
	}
	return &RetryableError{Err: err}
}

func (e *RetryableError) Error() string { return e.Err.Error() }
func (e *RetryableError) Unwrap() error { return e.Err }

// IsRetryable reports whether err was wrapped with [Retryable].
func IsRetryable(err error) bool {
	var re *RetryableError
	return errors.As(err, &re)
}

// retryAttempts and retryDelay bound [RetryWithBackoff].
var (
	retryAttempts = 3
	retryDelay    = 200 * time.Millisecond
)

// RetryWithBackoff calls fn until it succeeds, returns an error that is not
// [Retryable], or runs out of attempts. The delay doubles after each try.
func RetryWithBackoff(ctx context.Context, fn func() error) error {
	delay := retryDelay
	var last error
	for i := range retryAttempts {
		last = fn()
		if last == nil || !IsRetryable(last) {
			return last
		}
		if i == retryAttempts-1 {
			break
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay):
			delay *= 2
		}
	}
	return last
}
