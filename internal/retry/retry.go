// Package retry runs plugin calls under a bounded exponential backoff loop.
//
// The policy is attempt-driven: an operation runs at most MaxAttempts times,
// and the wait before retry n (zero-indexed) is InitialInterval * Factor^n.
// When every attempt fails, the error from the final attempt is returned
// unchanged so callers can inspect the underlying cause.
package retry

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v4"
)

// Policy configures exponential backoff retry behavior.
type Policy struct {
	MaxAttempts     int           // Total attempts including the first (default 3)
	Factor          float64       // Multiplier between consecutive waits (default 2.0)
	InitialInterval time.Duration // Wait before the first retry (default 1s)
}

// DefaultPolicy returns the default retry policy.
func DefaultPolicy() Policy {
	return Policy{
		MaxAttempts:     3,
		Factor:          2.0,
		InitialInterval: time.Second,
	}
}

// NotifyFunc observes each failed attempt before the wait that follows it.
// attempt is 1-based. It is not called for the final failed attempt.
type NotifyFunc func(attempt int, err error)

// Permanent wraps err so Do gives up immediately and returns err unchanged.
func Permanent(err error) error {
	return backoff.Permanent(err)
}

// Do runs op under policy p, retrying failures with exponential backoff.
//
// A nil return from op ends the loop. An error wrapped with Permanent ends
// the loop and is returned unwrapped. Context cancellation ends the loop
// and returns the context's error. After MaxAttempts failed attempts the
// error from the final attempt is returned.
func Do(ctx context.Context, p Policy, op func() error, notify NotifyFunc) error {
	return doWithTimer(ctx, p, op, notify, nil)
}

// doWithTimer is Do with an injectable timer so tests can skip real waits.
func doWithTimer(ctx context.Context, p Policy, op func() error, notify NotifyFunc, timer backoff.Timer) error {
	// Guard against unusable policy values
	if p.MaxAttempts < 1 {
		p.MaxAttempts = 1
	}
	if p.Factor <= 0 {
		p.Factor = 2.0
	}
	if p.InitialInterval <= 0 {
		p.InitialInterval = time.Second
	}

	b := backoff.NewExponentialBackOff()
	b.InitialInterval = p.InitialInterval
	b.Multiplier = p.Factor
	b.RandomizationFactor = 0 // waits follow InitialInterval * Factor^n exactly
	b.MaxInterval = time.Hour
	b.MaxElapsedTime = 0 // never stop on elapsed time; the attempt count bounds the loop

	// MaxAttempts counts the first attempt, WithMaxRetries counts retries after it.
	// Wrap with context to respect cancellation between attempts.
	policy := backoff.WithContext(backoff.WithMaxRetries(b, uint64(p.MaxAttempts-1)), ctx)

	attempt := 0
	notifyFn := func(err error, _ time.Duration) {
		attempt++
		if notify != nil {
			notify(attempt, err)
		}
	}

	return backoff.RetryNotifyWithTimer(op, policy, notifyFn, timer)
}
