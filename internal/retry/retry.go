// Package retry implements bounded-attempt retry policies for collision-prone
// operations such as slug allocation.
package retry

import (
	"context"
	"errors"
	"fmt"
	"time"

	goretry "github.com/sethvargo/go-retry"
)

// ErrExhausted is returned (wrapped together with the last failure) when every
// attempt allowed by a Policy failed with a retryable error.
var ErrExhausted = errors.New("retry attempts exhausted")

const minDelay = time.Millisecond

// Policy bounds how many times an operation runs and how long to wait between runs.
type Policy struct {
	MaxAttempts int
	Delay       time.Duration
}

// Func is one attempt. attempt starts at 1.
// Wrap an error with Retryable to ask for another attempt.
type Func func(ctx context.Context, attempt int) error

// Retryable marks err as worth another attempt.
func Retryable(err error) error {
	if err == nil {
		return nil
	}
	return &retryableError{err: err}
}

type retryableError struct {
	err error
}

func (e *retryableError) Error() string { return e.err.Error() }
func (e *retryableError) Unwrap() error { return e.err }

// Attempts returns the effective number of attempts, never less than one.
func (p Policy) Attempts() int {
	if p.MaxAttempts < 1 {
		return 1
	}
	return p.MaxAttempts
}

func (p Policy) backoff() goretry.Backoff {
	delay := p.Delay
	if delay < minDelay {
		delay = minDelay
	}
	return goretry.WithMaxRetries(uint64(p.Attempts()-1), goretry.NewConstant(delay))
}

// Do runs fn until it succeeds, fails with a non-retryable error, or the
// policy runs out of attempts. Exhaustion is reported as ErrExhausted wrapping
// the last retryable failure.
func (p Policy) Do(ctx context.Context, fn Func) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	attempt := 0
	lastRetryable := false

	err := goretry.Do(ctx, p.backoff(), func(ctx context.Context) error {
		attempt++
		err := fn(ctx, attempt)
		var r *retryableError
		lastRetryable = errors.As(err, &r)
		if lastRetryable {
			return goretry.RetryableError(r.err)
		}
		return err
	})
	if err == nil {
		return nil
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		return ctxErr
	}
	if lastRetryable {
		return fmt.Errorf("%w after %d attempts: %w", ErrExhausted, attempt, err)
	}
	return err
}
