// Package resilience guards calls to flaky external dependencies with
// a circuit breaker and a timeout wrapper.
package resilience

import (
	"errors"
	"sync"
	"time"
)

// ErrOpen is returned when the breaker rejects a call without running
// it.
var ErrOpen = errors.New("circuit breaker is open")

type breakerState int

const (
	stateClosed breakerState = iota
	stateOpen
	stateHalfOpen
)

// Breaker trips after maxFailures consecutive failures and rejects
// calls for the cooldown window. The first call after the cooldown
// runs as a probe; its outcome closes or re-opens the breaker.
type Breaker struct {
	maxFailures int
	cooldown    time.Duration

	mu          sync.Mutex
	state       breakerState
	failures    int
	lastFailure time.Time
	now         func() time.Time
}

// NewBreaker builds a closed breaker.
func NewBreaker(maxFailures int, cooldown time.Duration) *Breaker {
	if maxFailures < 1 {
		maxFailures = 1
	}
	return &Breaker{
		maxFailures: maxFailures,
		cooldown:    cooldown,
		now:         time.Now,
	}
}

// Execute runs fn unless the breaker is open.
func (b *Breaker) Execute(fn func() error) error {
	if !b.allow() {
		return ErrOpen
	}
	err := fn()
	b.record(err)
	return err
}

func (b *Breaker) allow() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.state == stateOpen {
		if b.now().Sub(b.lastFailure) < b.cooldown {
			return false
		}
		b.state = stateHalfOpen
	}
	return true
}

func (b *Breaker) record(err error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if err == nil {
		b.state = stateClosed
		b.failures = 0
		return
	}
	b.failures++
	b.lastFailure = b.now()
	if b.state == stateHalfOpen || b.failures >= b.maxFailures {
		b.state = stateOpen
	}
}
