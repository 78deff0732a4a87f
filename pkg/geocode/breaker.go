package geocode

import (
	"context"
	"errors"
	"sync"
	"time"
)

// breakerState is the circuit state of one lookup source.
type breakerState int

const (
	breakerClosed breakerState = iota
	breakerOpen
	breakerHalfOpen
)

func (s breakerState) String() string {
	switch s {
	case breakerClosed:
		return "closed"
	case breakerOpen:
		return "open"
	case breakerHalfOpen:
		return "half-open"
	default:
		return "unknown"
	}
}

// breaker skips a source after consecutive failures so lookups fall through
// to the next source without waiting on a dead upstream. After the reset
// window one probe is let through; its outcome closes or reopens the circuit.
type breaker struct {
	mu        sync.Mutex
	threshold int
	reset     time.Duration
	state     breakerState
	failures  int
	openedAt  time.Time
	probing   bool
	now       func() time.Time
}

func newBreaker(threshold int, reset time.Duration) *breaker {
	if threshold <= 0 {
		threshold = 5
	}
	if reset <= 0 {
		reset = 30 * time.Second
	}
	return &breaker{threshold: threshold, reset: reset, now: time.Now}
}

// allow reports whether a call may proceed.
func (b *breaker) allow() bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch b.state {
	case breakerOpen:
		if b.now().Sub(b.openedAt) < b.reset {
			return false
		}
		b.state = breakerHalfOpen
		b.probing = true
		return true
	case breakerHalfOpen:
		if b.probing {
			return false
		}
		b.probing = true
		return true
	default:
		return true
	}
}

// record feeds a call outcome back. Cancellations and local rate limiting say
// nothing about the upstream and are ignored.
func (b *breaker) record(err error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if errors.Is(err, context.Canceled) || errors.Is(err, ErrRateLimited) {
		b.probing = false
		return
	}

	if err == nil {
		b.state = breakerClosed
		b.failures = 0
		b.probing = false
		return
	}

	b.failures++
	if b.state == breakerHalfOpen || b.failures >= b.threshold {
		b.state = breakerOpen
		b.openedAt = b.now()
	}
	b.probing = false
}

func (b *breaker) current() breakerState {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.state == breakerOpen && b.now().Sub(b.openedAt) >= b.reset {
		return breakerHalfOpen
	}
	return b.state
}
