package export

import (
	"sync"
	"sync/atomic"
	"time"
)

// CircuitConfig tunes the export circuit breaker.
type CircuitConfig struct {
	Enabled      bool
	MaxFailures  int
	RecoveryTime time.Duration
	HalfOpenMax  int
}

// CircuitBreaker protects export backends from repeated failing sends.
// A nil breaker allows everything, so callers never branch on whether one
// was configured.
type CircuitBreaker struct {
	cfg CircuitConfig

	state       atomic.Value // "closed", "open", "half-open"
	failures    atomic.Int64
	successes   atomic.Int64
	lastFailure atomic.Value // time.Time

	mu sync.Mutex
}

// NewCircuitBreaker returns nil when disabled.
func NewCircuitBreaker(cfg CircuitConfig) *CircuitBreaker {
	if !cfg.Enabled {
		return nil
	}
	if cfg.MaxFailures == 0 {
		cfg.MaxFailures = 10
	}
	if cfg.RecoveryTime == 0 {
		cfg.RecoveryTime = 30 * time.Second
	}
	if cfg.HalfOpenMax == 0 {
		cfg.HalfOpenMax = 5
	}
	cb := &CircuitBreaker{cfg: cfg}
	cb.state.Store("closed")
	cb.lastFailure.Store(time.Time{})
	return cb
}

// Allow reports whether a send should proceed.
func (cb *CircuitBreaker) Allow() bool {
	if cb == nil {
		return true
	}
	switch cb.State() {
	case "open":
		last, _ := cb.lastFailure.Load().(time.Time)
		if !last.IsZero() && time.Since(last) > cb.cfg.RecoveryTime {
			cb.mu.Lock()
			if cb.state.Load().(string) == "open" {
				cb.state.Store("half-open")
				cb.successes.Store(0)
			}
			cb.mu.Unlock()
			return true
		}
		return false
	case "half-open":
		return cb.successes.Load() < int64(cb.cfg.HalfOpenMax)
	default:
		return true
	}
}

// RecordSuccess resets failure tracking and, after enough half-open
// successes, closes the circuit.
func (cb *CircuitBreaker) RecordSuccess() {
	if cb == nil {
		return
	}
	if cb.State() == "half-open" {
		if cb.successes.Add(1) >= int64(cb.cfg.HalfOpenMax) {
			cb.mu.Lock()
			cb.state.Store("closed")
			cb.failures.Store(0)
			cb.mu.Unlock()
		}
		return
	}
	cb.failures.Store(0)
}

// RecordFailure counts a failed send and opens the circuit at the limit.
// A failure in half-open state reopens immediately.
func (cb *CircuitBreaker) RecordFailure() {
	if cb == nil {
		return
	}
	cb.lastFailure.Store(time.Now())
	if cb.State() == "half-open" {
		cb.mu.Lock()
		cb.state.Store("open")
		cb.mu.Unlock()
		return
	}
	if cb.failures.Add(1) >= int64(cb.cfg.MaxFailures) {
		cb.mu.Lock()
		cb.state.Store("open")
		cb.mu.Unlock()
	}
}

// State returns "closed", "open", or "half-open".
func (cb *CircuitBreaker) State() string {
	if cb == nil {
		return "closed"
	}
	s, _ := cb.state.Load().(string)
	return s
}
