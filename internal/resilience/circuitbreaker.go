package resilience

import (
	"errors"
	"log/slog"
	"sync"
	"time"
)

// ErrCircuitOpen is returned by [CircuitBreaker.Execute] while the breaker is
// open and its reset timeout has not yet elapsed.
var ErrCircuitOpen = errors.New("circuit breaker is open")

// BreakerState is the current operating mode of a [CircuitBreaker].
type BreakerState int

const (
	// BreakerClosed forwards all calls (normal operation).
	BreakerClosed BreakerState = iota

	// BreakerOpen rejects calls immediately with [ErrCircuitOpen].
	BreakerOpen

	// BreakerHalfOpen lets a single probe call through after the reset timeout.
	BreakerHalfOpen
)

func (s BreakerState) String() string {
	switch s {
	case BreakerClosed:
		return "closed"
	case BreakerOpen:
		return "open"
	case BreakerHalfOpen:
		return "half-open"
	default:
		return "unknown"
	}
}

// BreakerConfig holds the tuning knobs for a [CircuitBreaker].
// Zero-value fields are replaced with defaults by [NewCircuitBreaker].
type BreakerConfig struct {
	// Name labels the breaker in log messages, typically a provider id.
	Name string

	// MaxFailures is the number of consecutive failures that opens the
	// breaker. Default: 5.
	MaxFailures int

	// ResetTimeout is how long the breaker stays open before admitting a
	// probe call. Default: 30s.
	ResetTimeout time.Duration
}

// CircuitBreaker is a three-state breaker (closed → open → half-open) guarding
// one provider entry in an orchestrator chain. A provider whose breaker is open
// is skipped without a network call, so a dead provider cannot slow down every
// request while its fallbacks are healthy.
//
// Safe for concurrent use.
type CircuitBreaker struct {
	name         string
	maxFailures  int
	resetTimeout time.Duration

	mu          sync.Mutex
	state       BreakerState
	failures    int
	lastFailure time.Time
	probing     bool
}

// NewCircuitBreaker creates a breaker with cfg, filling in defaults.
func NewCircuitBreaker(cfg BreakerConfig) *CircuitBreaker {
	if cfg.MaxFailures <= 0 {
		cfg.MaxFailures = 5
	}
	if cfg.ResetTimeout <= 0 {
		cfg.ResetTimeout = 30 * time.Second
	}
	return &CircuitBreaker{
		name:         cfg.Name,
		maxFailures:  cfg.MaxFailures,
		resetTimeout: cfg.ResetTimeout,
	}
}

// Execute runs fn if the breaker admits the call, otherwise returns
// [ErrCircuitOpen] without invoking fn.
func (cb *CircuitBreaker) Execute(fn func() error) error {
	cb.mu.Lock()
	if cb.state == BreakerOpen {
		if time.Since(cb.lastFailure) < cb.resetTimeout {
			cb.mu.Unlock()
			return ErrCircuitOpen
		}
		cb.state = BreakerHalfOpen
		cb.probing = false
		slog.Info("circuit breaker half-open", "name", cb.name)
	}
	if cb.state == BreakerHalfOpen {
		if cb.probing {
			// Another goroutine holds the probe slot.
			cb.mu.Unlock()
			return ErrCircuitOpen
		}
		cb.probing = true
	}
	probe := cb.state == BreakerHalfOpen
	cb.mu.Unlock()

	err := fn()

	cb.mu.Lock()
	defer cb.mu.Unlock()
	if probe {
		cb.probing = false
	}

	if err != nil {
		cb.lastFailure = time.Now()
		if probe {
			cb.state = BreakerOpen
			cb.failures = cb.maxFailures
			slog.Warn("circuit breaker re-opened after failed probe", "name", cb.name)
			return err
		}
		cb.failures++
		if cb.state == BreakerClosed && cb.failures >= cb.maxFailures {
			cb.state = BreakerOpen
			slog.Warn("circuit breaker opened",
				"name", cb.name,
				"consecutive_failures", cb.failures)
		}
		return err
	}

	if probe {
		slog.Info("circuit breaker closed after successful probe", "name", cb.name)
	}
	cb.state = BreakerClosed
	cb.failures = 0
	return nil
}

// State returns the breaker's current state. An open breaker whose reset
// timeout has elapsed reports half-open; the actual transition happens on the
// next [CircuitBreaker.Execute].
func (cb *CircuitBreaker) State() BreakerState {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	if cb.state == BreakerOpen && time.Since(cb.lastFailure) >= cb.resetTimeout {
		return BreakerHalfOpen
	}
	return cb.state
}

// Reset forces the breaker back to closed, clearing failure counters.
func (cb *CircuitBreaker) Reset() {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	cb.state = BreakerClosed
	cb.failures = 0
	cb.probing = false
}
