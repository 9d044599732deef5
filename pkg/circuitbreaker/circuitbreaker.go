package circuitbreaker

import (
	"errors"
	"sync"
	"time"
)

// ErrOpen is returned when the breaker is open and no fallback is given.
var ErrOpen = errors.New("circuit breaker is open")

type State int

const (
	StateClosed State = iota
	StateOpen
	StateHalfOpen
)

// CircuitBreaker protects calls to an external dependency, here the
// generative-language API. After maxFailures errors inside the rolling
// window it opens for cooldown, during which calls go straight to the
// fallback. The first call after cooldown probes the dependency again.
type CircuitBreaker struct {
	maxFailures int
	window      time.Duration
	cooldown    time.Duration

	mu          sync.Mutex
	state       State
	failures    []time.Time
	lastFailure time.Time
}

func New(maxFailures int, cooldown time.Duration) *CircuitBreaker {
	return NewWithWindow(maxFailures, cooldown, 60*time.Second)
}

func NewWithWindow(maxFailures int, cooldown, window time.Duration) *CircuitBreaker {
	return &CircuitBreaker{
		maxFailures: maxFailures,
		window:      window,
		cooldown:    cooldown,
		state:       StateClosed,
		failures:    make([]time.Time, 0),
	}
}

// Execute runs fn, or fallback when the breaker is open. fallback may be
// nil, in which case an open breaker yields ErrOpen.
func (cb *CircuitBreaker) Execute(fn func() error, fallback func() error) error {
	if !cb.allow() {
		if fallback != nil {
			return fallback()
		}
		return ErrOpen
	}

	err := fn()
	cb.record(err)
	if err != nil && fallback != nil {
		return fallback()
	}
	return err
}

func (cb *CircuitBreaker) allow() bool {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	if cb.state != StateOpen {
		return true
	}
	if time.Since(cb.lastFailure) >= cb.cooldown {
		cb.state = StateHalfOpen
		cb.failures = cb.failures[:0]
		return true
	}
	return false
}

func (cb *CircuitBreaker) record(err error) {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	now := time.Now()
	if err != nil {
		cb.lastFailure = now
		cb.failures = append(cb.failures, now)
		cb.dropOldFailures(now)
		if len(cb.failures) > cb.maxFailures || cb.state == StateHalfOpen {
			cb.state = StateOpen
		}
		return
	}

	cb.dropOldFailures(now)
	if cb.state == StateHalfOpen {
		cb.state = StateClosed
		cb.failures = cb.failures[:0]
	}
}

func (cb *CircuitBreaker) dropOldFailures(now time.Time) {
	cutoff := now.Add(-cb.window)
	kept := cb.failures[:0]
	for _, t := range cb.failures {
		if t.After(cutoff) {
			kept = append(kept, t)
		}
	}
	cb.failures = kept
}

func (cb *CircuitBreaker) GetState() State {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	return cb.state
}
