// Package resilience provides the circuit breaker and backoff primitives
// guarding outbound platform calls.
package resilience

import (
	"sync"
	"time"

	"github.com/rotisserie/eris"
)

// CircuitState represents the state of a circuit breaker.
type CircuitState string

const (
	// CircuitClosed is the normal operating state; calls flow through.
	CircuitClosed CircuitState = "CLOSED"
	// CircuitOpen means too many consecutive failures; calls are denied
	// immediately without invoking the wrapped capability.
	CircuitOpen CircuitState = "OPEN"
	// CircuitHalfOpen admits a bounded number of probe calls to test recovery.
	CircuitHalfOpen CircuitState = "HALF_OPEN"
)

// ErrCircuitOpen is returned when a call is denied because the circuit is open.
var ErrCircuitOpen = eris.New("circuit breaker is open")

// ErrProbesExhausted is returned when the half-open probe budget is spent
// before the breaker has resolved to open or closed.
var ErrProbesExhausted = eris.New("half-open probe budget exhausted")

// BreakerConfig controls circuit breaker behavior for every key.
type BreakerConfig struct {
	// FailureThreshold is the number of consecutive failures before opening.
	FailureThreshold int
	// OpenCooldown is how long the circuit stays open before admitting
	// half-open probes. Evaluated lazily on the next call, not by a timer.
	OpenCooldown time.Duration
	// HalfOpenProbes is the number of probe calls admitted in half-open
	// state; that many consecutive successes close the circuit.
	HalfOpenProbes int
}

// DefaultBreakerConfig returns sensible defaults.
func DefaultBreakerConfig() BreakerConfig {
	return BreakerConfig{
		FailureThreshold: 5,
		OpenCooldown:     5 * time.Minute,
		HalfOpenProbes:   3,
	}
}

// KeyState is a read-only view of one breaker's state for diagnostics.
type KeyState struct {
	Failures       int          `json:"failures"`
	State          CircuitState `json:"state"`
	OpenedAt       *time.Time   `json:"opened_at,omitempty"`
	HalfOpenProbes int          `json:"half_open_probes"`
}

type keyState struct {
	failures          int
	state             CircuitState
	openedAt          time.Time
	halfOpenProbes    int
	halfOpenSuccesses int
}

// Breakers maintains one circuit breaker per integration name. The state
// machine itself does not assume a single caller: all transitions happen
// under one mutex so additional workers can share the map safely.
type Breakers struct {
	cfg    BreakerConfig
	mu     sync.Mutex
	states map[string]*keyState

	// nowFunc allows test injection of time.
	nowFunc func() time.Time
}

// NewBreakers creates a per-key circuit breaker registry.
func NewBreakers(cfg BreakerConfig) *Breakers {
	if cfg.FailureThreshold <= 0 {
		cfg.FailureThreshold = 5
	}
	if cfg.OpenCooldown <= 0 {
		cfg.OpenCooldown = 5 * time.Minute
	}
	if cfg.HalfOpenProbes <= 0 {
		cfg.HalfOpenProbes = 1
	}
	return &Breakers{
		cfg:     cfg,
		states:  make(map[string]*keyState),
		nowFunc: time.Now,
	}
}

func (b *Breakers) get(key string) *keyState {
	st, ok := b.states[key]
	if !ok {
		st = &keyState{state: CircuitClosed}
		b.states[key] = st
	}
	return st
}

// Allow reports whether a call for key may proceed. A denial does not
// count as a failure, so an open circuit cannot reinforce itself.
// In half-open state each admission consumes one probe slot.
func (b *Breakers) Allow(key string) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	st := b.get(key)
	switch st.state {
	case CircuitClosed:
		return nil
	case CircuitOpen:
		if b.nowFunc().Sub(st.openedAt) < b.cfg.OpenCooldown {
			return ErrCircuitOpen
		}
		// Cooldown elapsed: transition to half-open and admit this call
		// as the first probe.
		st.state = CircuitHalfOpen
		st.halfOpenProbes = 1
		st.halfOpenSuccesses = 0
		return nil
	case CircuitHalfOpen:
		if st.halfOpenProbes >= b.cfg.HalfOpenProbes {
			return ErrProbesExhausted
		}
		st.halfOpenProbes++
		return nil
	}
	return nil
}

// RecordSuccess reports one successful call for key. In half-open state,
// HalfOpenProbes consecutive successes close the circuit and reset the
// failure counter.
func (b *Breakers) RecordSuccess(key string) {
	b.mu.Lock()
	defer b.mu.Unlock()

	st := b.get(key)
	switch st.state {
	case CircuitClosed:
		st.failures = 0
	case CircuitHalfOpen:
		st.halfOpenSuccesses++
		if st.halfOpenSuccesses >= b.cfg.HalfOpenProbes {
			st.state = CircuitClosed
			st.failures = 0
			st.halfOpenProbes = 0
			st.halfOpenSuccesses = 0
			st.openedAt = time.Time{}
		}
	}
}

// RecordFailure reports one failed call for key. Reaching the failure
// threshold while closed opens the circuit; any failure while half-open
// reopens it and restarts the cooldown clock.
func (b *Breakers) RecordFailure(key string) {
	b.mu.Lock()
	defer b.mu.Unlock()

	st := b.get(key)
	st.failures++
	switch st.state {
	case CircuitClosed:
		if st.failures >= b.cfg.FailureThreshold {
			st.state = CircuitOpen
			st.openedAt = b.nowFunc()
		}
	case CircuitHalfOpen:
		st.state = CircuitOpen
		st.openedAt = b.nowFunc()
		st.halfOpenProbes = 0
		st.halfOpenSuccesses = 0
	}
}

// State returns the current state for key without consuming a probe slot.
func (b *Breakers) State(key string) CircuitState {
	b.mu.Lock()
	defer b.mu.Unlock()

	st, ok := b.states[key]
	if !ok {
		return CircuitClosed
	}
	if st.state == CircuitOpen && b.nowFunc().Sub(st.openedAt) >= b.cfg.OpenCooldown {
		return CircuitHalfOpen
	}
	return st.state
}

// Snapshot returns a read-only copy of all per-key states for diagnostics.
// Safe to call concurrently with Allow/Record.
func (b *Breakers) Snapshot() map[string]KeyState {
	b.mu.Lock()
	defer b.mu.Unlock()

	out := make(map[string]KeyState, len(b.states))
	for key, st := range b.states {
		ks := KeyState{
			Failures:       st.failures,
			State:          st.state,
			HalfOpenProbes: st.halfOpenProbes,
		}
		if !st.openedAt.IsZero() {
			opened := st.openedAt
			ks.OpenedAt = &opened
		}
		out[key] = ks
	}
	return out
}

// Reset forces the breaker for key back to closed. Useful for tests and
// manual recovery.
func (b *Breakers) Reset(key string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.states, key)
}
