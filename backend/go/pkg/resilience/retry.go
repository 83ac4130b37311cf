// Package resilience runs calls to external dependencies under one retry policy:
// bounded attempts, exponential backoff with full jitter, a per-attempt timeout and an
// optional circuit breaker.
package resilience

import (
	"context"
	"errors"
	"math/rand/v2"
	"time"

	"DocChat/backend/go/pkg/circuitbreaker"
)

// permanentError marks an error the retry loop must return immediately.
type permanentError struct {
	err error
}

func (p *permanentError) Error() string { return p.err.Error() }
func (p *permanentError) Unwrap() error { return p.err }

// Permanent wraps err so that Do stops retrying and returns err unwrapped.
func Permanent(err error) error {
	if err == nil {
		return nil
	}
	return &permanentError{err: err}
}

// IsPermanent reports whether err was marked with Permanent.
func IsPermanent(err error) bool {
	var p *permanentError
	return errors.As(err, &p)
}

// Policy describes how a single logical call is attempted.
type Policy struct {
	MaxAttempts  int
	InitialDelay time.Duration
	MaxDelay     time.Duration
	Multiplier   float64
	// Timeout bounds each attempt. Zero means the caller's deadline only.
	Timeout time.Duration
	// Breaker, when set, short-circuits attempts while the dependency is known to be down.
	Breaker circuitbreaker.CircuitBreaker

	// OnRetry is called before sleeping ahead of attempt n+1.
	OnRetry func(attempt int, err error, delay time.Duration)

	sleep func(ctx context.Context, d time.Duration) error
}

// WithTimeout returns a copy of p with a different per-attempt timeout.
func (p Policy) WithTimeout(d time.Duration) Policy {
	p.Timeout = d
	return p
}

// WithBreaker returns a copy of p guarded by cb.
func (p Policy) WithBreaker(cb circuitbreaker.CircuitBreaker) Policy {
	p.Breaker = cb
	return p
}

// Do runs op until it succeeds, returns a permanent error, the attempts are exhausted or
// ctx is done. The last error from op is returned; cancellation of ctx returns ctx.Err().
func (p Policy) Do(ctx context.Context, op func(ctx context.Context) error) error {
	attempts := p.MaxAttempts
	if attempts <= 0 {
		attempts = 1
	}
	sleep := p.sleep
	if sleep == nil {
		sleep = sleepCtx
	}

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		err := p.attempt(ctx, op)
		if err == nil {
			return nil
		}
		var perm *permanentError
		if errors.As(err, &perm) {
			return perm.err
		}
		if errors.Is(err, circuitbreaker.ErrCircuitOpen) {
			if lastErr != nil {
				return errors.Join(err, lastErr)
			}
			return err
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		lastErr = err

		if attempt == attempts {
			break
		}
		delay := p.backoff(attempt)
		if p.OnRetry != nil {
			p.OnRetry(attempt, err, delay)
		}
		if err := sleep(ctx, delay); err != nil {
			return err
		}
	}
	return lastErr
}

func (p Policy) attempt(ctx context.Context, op func(ctx context.Context) error) error {
	run := func(ctx context.Context) error {
		if p.Timeout > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, p.Timeout)
			defer cancel()
		}
		return op(ctx)
	}
	if p.Breaker == nil {
		return run(ctx)
	}
	return p.Breaker.Execute(ctx, run)
}

// backoff returns the full-jitter delay before attempt n+1.
func (p Policy) backoff(n int) time.Duration {
	if p.InitialDelay <= 0 {
		return 0
	}
	mult := p.Multiplier
	if mult < 1 {
		mult = 1
	}
	ceiling := float64(p.InitialDelay)
	for i := 1; i < n; i++ {
		ceiling *= mult
		if p.MaxDelay > 0 && ceiling >= float64(p.MaxDelay) {
			ceiling = float64(p.MaxDelay)
			break
		}
	}
	if p.MaxDelay > 0 && ceiling > float64(p.MaxDelay) {
		ceiling = float64(p.MaxDelay)
	}
	return time.Duration(rand.Int64N(int64(ceiling)) + 1)
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// Call is Do for operations that return a value.
func Call[T any](ctx context.Context, p Policy, op func(ctx context.Context) (T, error)) (T, error) {
	var out T
	err := p.Do(ctx, func(ctx context.Context) error {
		v, err := op(ctx)
		if err != nil {
			return err
		}
		out = v
		return nil
	})
	return out, err
}
