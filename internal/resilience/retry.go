// Package resilience provides the retry and circuit breaker primitives that
// protect every outbound provider call in ragcore.
//
// [Retry] implements bounded exponential backoff with jitter, parameterised by
// a [Policy] and a retryability predicate so the backoff math stays isolated
// from provider-specific call code. [CircuitBreaker] is a classic three-state
// breaker used by the orchestrator to bypass providers that keep failing.
//
// All types are safe for concurrent use.
package resilience

import (
	"context"
	"log/slog"
	"math/rand/v2"
	"time"
)

// Policy holds the tuning knobs for [Retry]. The zero value is not usable;
// call [DefaultPolicy] or populate every field.
type Policy struct {
	// MaxAttempts is the total number of attempts, including the first.
	MaxAttempts int

	// InitialDelay is the backoff before the second attempt. Attempt k waits
	// InitialDelay * 2^(k-1), plus jitter, capped at MaxDelay.
	InitialDelay time.Duration

	// MaxDelay caps the computed backoff, jitter included.
	MaxDelay time.Duration

	// Jitter returns the random component added to each backoff. When nil, a
	// uniform value in [0, 1s) is used.
	Jitter func() time.Duration

	// Sleep waits for d or until ctx is done. When nil, a context-aware timer
	// is used. Tests inject a fake to avoid real sleeping.
	Sleep func(ctx context.Context, d time.Duration) error
}

// DefaultPolicy returns the retry policy applied to provider calls:
// 5 attempts, 2s initial delay, 30s cap, jitter in [0, 1s).
func DefaultPolicy() Policy {
	return Policy{
		MaxAttempts:  5,
		InitialDelay: 2 * time.Second,
		MaxDelay:     30 * time.Second,
	}
}

// Delay computes the backoff slept after failed attempt number attempt
// (1-based): min(InitialDelay * 2^(attempt-1) + jitter, MaxDelay).
func (p Policy) Delay(attempt int) time.Duration {
	if attempt < 1 {
		attempt = 1
	}
	d := p.InitialDelay << (attempt - 1)
	// Guard against shift overflow for absurd attempt counts.
	if d <= 0 || d > p.MaxDelay {
		return p.MaxDelay
	}
	d += p.jitter()
	if d > p.MaxDelay {
		return p.MaxDelay
	}
	return d
}

func (p Policy) jitter() time.Duration {
	if p.Jitter != nil {
		return p.Jitter()
	}
	return time.Duration(rand.Int64N(int64(time.Second)))
}

func (p Policy) sleep(ctx context.Context, d time.Duration) error {
	if p.Sleep != nil {
		return p.Sleep(ctx, d)
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Retry runs op up to p.MaxAttempts times. After a failure that retryable
// classifies as transient it sleeps [Policy.Delay] before the next attempt;
// non-retryable failures are returned immediately. When all attempts are
// exhausted the last error is returned as-is, so callers see the concrete
// underlying failure.
func Retry[T any](ctx context.Context, p Policy, retryable func(error) bool, op func(context.Context) (T, error)) (T, error) {
	var (
		zero    T
		lastErr error
	)
	if p.MaxAttempts < 1 {
		p.MaxAttempts = 1
	}
	for attempt := 1; attempt <= p.MaxAttempts; attempt++ {
		result, err := op(ctx)
		if err == nil {
			return result, nil
		}
		lastErr = err
		if !retryable(err) {
			return zero, err
		}
		if attempt == p.MaxAttempts {
			break
		}
		delay := p.Delay(attempt)
		slog.Debug("transient failure, backing off",
			"attempt", attempt,
			"max_attempts", p.MaxAttempts,
			"delay", delay,
			"error", err)
		if serr := p.sleep(ctx, delay); serr != nil {
			return zero, serr
		}
	}
	return zero, lastErr
}
