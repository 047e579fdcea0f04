// Package retry bounds external calls with per-attempt timeouts and capped exponential backoff.
package retry

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v5"
)

// Policy describes how an external call is retried.
// MaxAttempts <= 1 means a single attempt. A zero Timeout leaves attempts unbounded
// except by the parent context.
type Policy struct {
	MaxAttempts    int
	InitialBackoff time.Duration
	MaxBackoff     time.Duration
	Timeout        time.Duration
}

// Once is a single attempt without a timeout.
var Once = Policy{MaxAttempts: 1}

// RetryAfterer is implemented by errors that carry a server-provided wait hint.
type RetryAfterer interface {
	RetryAfter() time.Duration
}

// Permanent marks err as not worth retrying. A nil err stays nil.
func Permanent(err error) error {
	return backoff.Permanent(err) //nolint:wrapcheck // marker only
}

// IsPermanent reports whether err was marked with Permanent.
func IsPermanent(err error) bool {
	var p *backoff.PermanentError
	return errors.As(err, &p)
}

// WithRetryAfter attaches a wait hint to err. The next attempt waits d instead of the
// computed backoff. A nil err or a non-positive d returns err unchanged.
func WithRetryAfter(err error, d time.Duration) error {
	if err == nil || d <= 0 {
		return err
	}
	return &hintedError{err: err, hint: &backoff.RetryAfterError{Duration: d}}
}

type hintedError struct {
	err  error
	hint *backoff.RetryAfterError
}

func (e *hintedError) Error() string { return e.err.Error() }
func (e *hintedError) Unwrap() []error { return []error{e.err, e.hint} }
func (e *hintedError) RetryAfter() time.Duration { return e.hint.Duration }

// Attempts returns the effective number of attempts.
func (p Policy) Attempts() int {
	if p.MaxAttempts < 1 {
		return 1
	}
	return p.MaxAttempts
}

// newBackOff doubles InitialBackoff per attempt, capped at MaxBackoff, without jitter.
func (p Policy) newBackOff() *backoff.ExponentialBackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = max(p.InitialBackoff, 0)
	b.RandomizationFactor = 0
	b.Multiplier = 2
	b.MaxInterval = p.MaxBackoff
	if b.MaxInterval <= 0 {
		b.MaxInterval = backoff.DefaultMaxInterval
	}
	if b.InitialInterval > b.MaxInterval {
		b.InitialInterval = b.MaxInterval
	}
	return b
}

// Do runs fn until it succeeds, returns a permanent error, attempts run out, or ctx ends.
// Each attempt gets its own context bounded by Timeout. The last error is returned wrapped.
func (p Policy) Do(ctx context.Context, fn func(ctx context.Context) error) error {
	if err := ctx.Err(); err != nil {
		return err //nolint:wrapcheck // caller's own cancellation
	}

	var lastErr error
	tries := 0
	_, err := backoff.Retry(ctx, func() (struct{}, error) {
		tries++
		lastErr = p.attempt(ctx, fn)
		return struct{}{}, lastErr
	},
		backoff.WithBackOff(p.newBackOff()),
		backoff.WithMaxTries(uint(p.Attempts())), //nolint:gosec // Attempts is at least 1
		backoff.WithMaxElapsedTime(0),
	)
	if err == nil {
		return nil
	}

	if cerr := ctx.Err(); cerr != nil && !errors.Is(lastErr, cerr) {
		return fmt.Errorf("%w (last error: %w)", err, lastErr)
	}
	if tries > 1 && !IsPermanent(lastErr) {
		return fmt.Errorf("after %d attempts: %w", tries, err)
	}
	return err //nolint:wrapcheck // fn's own error
}

func (p Policy) attempt(ctx context.Context, fn func(ctx context.Context) error) error {
	if p.Timeout <= 0 {
		return fn(ctx)
	}
	actx, cancel := context.WithTimeout(ctx, p.Timeout)
	defer cancel()
	return fn(actx)
}
