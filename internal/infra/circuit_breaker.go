package infra

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
)

// ── Circuit Breaker ───────────────────────────────────────────────────────────
// Guards the all-time last-sale aggregate, the one auxiliary query heavy
// enough to pile up when the database is struggling. While open, insights
// are computed without it and dead stock degrades to "never sold".
//
//   closed ──(FailureThreshold failures)──▶ open
//   open ──(OpenTimeout elapsed)──▶ half-open, one probe at a time
//   half-open ──(SuccessThreshold successes)──▶ closed, any failure ──▶ open

type CBState int

const (
	CBClosed CBState = iota
	CBOpen
	CBHalfOpen
)

// String returns the state name shown on /health and in logs.
func (s CBState) String() string {
	switch s {
	case CBClosed:
		return "closed"
	case CBOpen:
		return "open"
	case CBHalfOpen:
		return "half-open"
	default:
		return "unknown"
	}
}

// ErrCircuitOpen is returned by Do while the breaker is open, or while another
// call is already probing a half-open breaker.
var ErrCircuitOpen = errors.New("circuit breaker is open")

type CircuitBreakerConfig struct {
	Name             string        // used in logs
	FailureThreshold int           // consecutive failures that trip the breaker
	SuccessThreshold int           // consecutive half-open successes that close it
	OpenTimeout      time.Duration // time spent open before probing
}

// DefaultCBConfig returns the settings used for the last-sale query.
func DefaultCBConfig() CircuitBreakerConfig {
	return CircuitBreakerConfig{
		Name:             "last_sale",
		FailureThreshold: 5,
		SuccessThreshold: 2,
		OpenTimeout:      60 * time.Second,
	}
}

type CircuitBreaker struct {
	cfg       CircuitBreakerConfig
	mu        sync.Mutex
	state     CBState
	failures  int
	successes int
	openedAt  time.Time
	probing   bool
	now       func() time.Time
}

func NewCircuitBreaker(cfg CircuitBreakerConfig) *CircuitBreaker {
	def := DefaultCBConfig()
	if cfg.Name == "" {
		cfg.Name = def.Name
	}
	if cfg.FailureThreshold <= 0 {
		cfg.FailureThreshold = def.FailureThreshold
	}
	if cfg.SuccessThreshold <= 0 {
		cfg.SuccessThreshold = def.SuccessThreshold
	}
	if cfg.OpenTimeout <= 0 {
		cfg.OpenTimeout = def.OpenTimeout
	}
	return &CircuitBreaker{cfg: cfg, state: CBClosed, now: time.Now}
}

// State reports the current state, moving open to half-open once the timeout
// has elapsed.
func (cb *CircuitBreaker) State() CBState {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	return cb.current()
}

// current must be called with mu held.
func (cb *CircuitBreaker) current() CBState {
	if cb.state == CBOpen && cb.now().Sub(cb.openedAt) >= cb.cfg.OpenTimeout {
		cb.setState(CBHalfOpen)
	}
	return cb.state
}

// setState must be called with mu held.
func (cb *CircuitBreaker) setState(s CBState) {
	if cb.state == s {
		return
	}
	log.Warn().
		Str("breaker", cb.cfg.Name).
		Str("from", cb.state.String()).
		Str("to", s.String()).
		Msg("circuit breaker state change")
	cb.state = s
	cb.failures, cb.successes = 0, 0
	if s == CBOpen {
		cb.openedAt = cb.now()
	}
}

// admit decides whether a call may run. In half-open only one call probes.
func (cb *CircuitBreaker) admit() (probe bool, ok bool) {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	switch cb.current() {
	case CBOpen:
		return false, false
	case CBHalfOpen:
		if cb.probing {
			return false, false
		}
		cb.probing = true
		return true, true
	}
	return false, true
}

func (cb *CircuitBreaker) record(probe bool, failed bool) {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	if probe {
		cb.probing = false
	}

	if failed {
		if cb.state == CBHalfOpen {
			cb.setState(CBOpen)
			return
		}
		cb.failures++
		if cb.failures >= cb.cfg.FailureThreshold {
			cb.setState(CBOpen)
		}
		return
	}

	switch cb.state {
	case CBClosed:
		cb.failures = 0
	case CBHalfOpen:
		cb.successes++
		if cb.successes >= cb.cfg.SuccessThreshold {
			cb.setState(CBClosed)
		}
	}
}

// Do runs fn through cb and returns its value. An error caused by the caller
// cancelling ctx says nothing about the dependency and is not recorded.
func Do[T any](ctx context.Context, cb *CircuitBreaker, fn func(context.Context) (T, error)) (T, error) {
	var zero T
	probe, ok := cb.admit()
	if !ok {
		return zero, ErrCircuitOpen
	}

	v, err := fn(ctx)
	switch {
	case err == nil:
		cb.record(probe, false)
		return v, nil
	case ctx.Err() != nil:
		if probe {
			cb.mu.Lock()
			cb.probing = false
			cb.mu.Unlock()
		}
		return zero, err
	default:
		cb.record(probe, true)
		return zero, err
	}
}
