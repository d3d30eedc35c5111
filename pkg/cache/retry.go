package cache

import (
	"context"
	"errors"
	"time"
)

var (
	// ErrUnavailable means a remote backend could not be reached.
	ErrUnavailable = errors.New("cache backend unavailable")

	// ErrCorrupt means a stored entry could not be decoded.
	ErrCorrupt = errors.New("corrupt cache entry")
)

// RetryableError marks a failure worth retrying.
type RetryableError struct{ Err error }

// Retryable wraps err so that [Backoff.Do] retries it. A nil err stays nil.
func Retryable(err error) error {
	if err == nil {
		return nil
	}
	return &RetryableError{Err: err}
}

func (e *RetryableError) Error() string { return e.Err.Error() }
func (e *RetryableError) Unwrap() error { return e.Err }

// IsRetryable reports whether err was wrapped by [Retryable].
func IsRetryable(err error) bool {
	var re *RetryableError
	return errors.As(err, &re)
}

// Backoff retries an operation, doubling the delay after every attempt.
type Backoff struct {
	Attempts int
	Delay    time.Duration
}

// DefaultBackoff is used when connecting to Redis.
var DefaultBackoff = Backoff{Attempts: 3, Delay: 250 * time.Millisecond}

// Do calls fn until it succeeds, returns an error not marked retryable,
// runs out of attempts or ctx ends. The last error is returned.
func (b Backoff) Do(ctx context.Context, fn func() error) error {
	attempts := max(b.Attempts, 1)
	delay := b.Delay
	var err error
	for i := range attempts {
		if err = fn(); err == nil || !IsRetryable(err) {
			return err
		}
		if i == attempts-1 {
			break
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay):
			delay *= 2
		}
	}
	return err
}
