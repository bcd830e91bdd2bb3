// Package resilience guards the embedder's outbound HTTP calls against a
// down or slow backend: a circuit breaker fails fast once a backend has been
// unhealthy for a while, and exponential-backoff retry absorbs isolated
// transient failures. spec.md §7 treats embedding failures as non-fatal —
// the affected chunk is stored keyword-only — so neither mechanism ever
// returns an error the caller needs to unwrap; they only decide how long
// the indexer keeps paying dial-timeout latency for a backend that is down.
package resilience

import (
	"sync"
	"time"
)

// circuitState is the breaker's internal state machine: closed lets
// requests through, open rejects them outright, half-open allows exactly
// one probe through to test whether the backend has recovered.
type circuitState int

const (
	circuitClosed circuitState = iota
	circuitOpen
	circuitHalfOpen
)

// CircuitBreaker fails fast once a backend has accumulated maxFailures
// consecutive failures, and probes it again no more than once every
// resetTimeout. Safe for concurrent use; embed.ollamaEmbedder shares a
// single breaker across all Embed calls.
type CircuitBreaker struct {
	name         string
	maxFailures  int
	resetTimeout time.Duration

	mu          sync.Mutex
	state       circuitState
	failures    int
	lastFailure time.Time
}

// CircuitBreakerOption configures a CircuitBreaker.
type CircuitBreakerOption func(*CircuitBreaker)

// WithMaxFailures sets the number of consecutive failures before the
// breaker opens.
func WithMaxFailures(n int) CircuitBreakerOption {
	return func(cb *CircuitBreaker) {
		cb.maxFailures = n
	}
}

// WithResetTimeout sets how long the breaker stays open before letting a
// single probe request through.
func WithResetTimeout(d time.Duration) CircuitBreakerOption {
	return func(cb *CircuitBreaker) {
		cb.resetTimeout = d
	}
}

// NewCircuitBreaker creates a breaker in the closed state.
// Default: 5 failures, 30 second reset timeout.
func NewCircuitBreaker(name string, opts ...CircuitBreakerOption) *CircuitBreaker {
	cb := &CircuitBreaker{
		name:         name,
		maxFailures:  5,
		resetTimeout: 30 * time.Second,
		state:        circuitClosed,
	}

	for _, opt := range opts {
		opt(cb)
	}

	return cb
}

// Allow reports whether the caller may proceed with a request. While open,
// it returns false until resetTimeout has elapsed since the last failure,
// at which point it admits exactly one caller into the half-open probe and
// keeps every other concurrent caller shut out until that probe resolves
// via RecordSuccess or RecordFailure.
func (cb *CircuitBreaker) Allow() bool {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	switch cb.state {
	case circuitOpen:
		if time.Since(cb.lastFailure) < cb.resetTimeout {
			return false
		}
		cb.state = circuitHalfOpen
		return true
	case circuitHalfOpen:
		return false
	default: // circuitClosed
		return true
	}
}

// RecordSuccess closes the breaker and resets the failure count, whether
// the success came from normal operation or a half-open probe.
func (cb *CircuitBreaker) RecordSuccess() {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	cb.failures = 0
	cb.state = circuitClosed
}

// RecordFailure counts a failed request. A failed probe while half-open
// reopens the breaker immediately, without waiting for maxFailures again;
// otherwise the breaker opens once maxFailures consecutive failures land.
func (cb *CircuitBreaker) RecordFailure() {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	cb.failures++
	cb.lastFailure = time.Now()

	if cb.state == circuitHalfOpen || cb.failures >= cb.maxFailures {
		cb.state = circuitOpen
	}
}
