package circuitbreaker

import (
	"errors"
	"sync"
	"time"
)

// ErrOpen is returned by callers that were refused by an open breaker.
var ErrOpen = errors.New("circuit breaker is open")

type State int

const (
	StateClosed   State = iota // Normal operation
	StateOpen                  // Rejecting calls
	StateHalfOpen              // One trial call in flight
)

func (s State) String() string {
	switch s {
	case StateClosed:
		return "CLOSED"
	case StateOpen:
		return "OPEN"
	case StateHalfOpen:
		return "HALF-OPEN"
	default:
		return "UNKNOWN"
	}
}

type Option func(*Breaker)

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(b *Breaker) {
		b.now = now
	}
}

// WithStateChange registers a callback invoked, outside the lock, on every
// state transition.
func WithStateChange(fn func(from, to State)) Option {
	return func(b *Breaker) {
		b.onChange = fn
	}
}

type Breaker struct {
	mutex            sync.Mutex
	state            State
	failures         int
	lastFailure      time.Time
	trialInFlight    bool
	failureThreshold int
	resetTimeout     time.Duration
	now              func() time.Time
	onChange         func(from, to State)
}

// New returns a closed breaker that opens after threshold consecutive
// failures and allows a trial call once resetTimeout has elapsed.
func New(threshold int, resetTimeout time.Duration, opts ...Option) *Breaker {
	b := &Breaker{
		state:            StateClosed,
		failureThreshold: threshold,
		resetTimeout:     resetTimeout,
		now:              time.Now,
	}

	for _, opt := range opts {
		opt(b)
	}

	return b
}

// Allow reports whether a call may proceed. In HALF-OPEN only the first
// caller is admitted until RecordSuccess, RecordFailure or Release settles
// the trial.
func (b *Breaker) Allow() bool {
	b.mutex.Lock()

	var allowed bool
	from := b.state

	switch b.state {
	case StateClosed:
		allowed = true
	case StateOpen:
		if b.now().Sub(b.lastFailure) >= b.resetTimeout {
			b.state = StateHalfOpen
			b.trialInFlight = true
			allowed = true
		}
	case StateHalfOpen:
		if !b.trialInFlight {
			b.trialInFlight = true
			allowed = true
		}
	default:
		allowed = true
	}

	to := b.state
	b.mutex.Unlock()

	b.notify(from, to)
	return allowed
}

func (b *Breaker) RecordFailure() {
	b.mutex.Lock()

	from := b.state
	b.failures++
	b.lastFailure = b.now()
	b.trialInFlight = false

	if b.state == StateHalfOpen || b.failures >= b.failureThreshold {
		b.state = StateOpen
	}

	to := b.state
	b.mutex.Unlock()

	b.notify(from, to)
}

func (b *Breaker) RecordSuccess() {
	b.mutex.Lock()

	from := b.state
	b.failures = 0
	b.trialInFlight = false
	b.state = StateClosed

	b.mutex.Unlock()

	b.notify(from, StateClosed)
}

// Release gives back an admitted call whose outcome says nothing about the
// upstream, such as one abandoned by its caller. A pending HALF-OPEN trial is
// cleared so the next Allow admits a new one. No failure is counted.
func (b *Breaker) Release() {
	b.mutex.Lock()
	defer b.mutex.Unlock()

	if b.state == StateHalfOpen {
		b.trialInFlight = false
	}
}

func (b *Breaker) State() State {
	b.mutex.Lock()
	defer b.mutex.Unlock()
	return b.state
}

// Failures returns the number of consecutive failures recorded.
func (b *Breaker) Failures() int {
	b.mutex.Lock()
	defer b.mutex.Unlock()
	return b.failures
}

func (b *Breaker) notify(from, to State) {
	if from != to && b.onChange != nil {
		b.onChange(from, to)
	}
}
