package circuitbreaker

import (
	"context"
	"errors"
	"sync"
	"time"
)

// State represents the state of the circuit breaker.
type State int

const (
	// Closed is the initial state where requests are allowed.
	Closed State = iota
	// Open state is when the circuit has tripped and requests are blocked.
	Open
	// HalfOpen lets a single trial request through to probe whether the dependency recovered.
	HalfOpen
)

// String returns the string representation of the state.
func (s State) String() string {
	switch s {
	case Closed:
		return "Closed"
	case Open:
		return "Open"
	case HalfOpen:
		return "Half-Open"
	default:
		return "Unknown"
	}
}

var (
	// ErrCircuitOpen is returned when the circuit breaker is in the Open state,
	// or when it is Half-Open and a trial request is already in flight.
	ErrCircuitOpen = errors.New("circuit breaker is open")
)

// CircuitBreaker guards calls to one external dependency.
type CircuitBreaker interface {
	// Execute runs req unless the circuit is open. The error returned by req is passed through.
	Execute(ctx context.Context, req func(ctx context.Context) error) error
	// State returns the current state of the circuit breaker.
	State() State
	// Name identifies the guarded dependency in logs.
	Name() string
}

// Option configures a breaker.
type Option func(*breaker)

// WithFailurePredicate decides which errors count against the dependency. By default every
// non-nil error except context cancellation counts.
func WithFailurePredicate(isFailure func(error) bool) Option {
	return func(b *breaker) { b.isFailure = isFailure }
}

// WithStateChange registers a hook invoked after every transition, outside the lock.
func WithStateChange(fn func(name string, from, to State)) Option {
	return func(b *breaker) { b.onStateChange = fn }
}

// WithClock replaces time.Now, for tests.
func WithClock(now func() time.Time) Option {
	return func(b *breaker) { b.now = now }
}

type breaker struct {
	name             string
	failureThreshold uint32        // Number of consecutive failures to trip the circuit.
	successThreshold uint32        // Number of successes in HalfOpen state to close the circuit.
	timeout          time.Duration // Duration to wait in Open state before transitioning to HalfOpen.

	isFailure     func(error) bool
	onStateChange func(name string, from, to State)
	now           func() time.Time

	mutex                sync.Mutex
	state                State
	consecutiveSuccesses uint32
	consecutiveFailures  uint32
	openedAt             time.Time
	trialInFlight        bool
}

// New creates a circuit breaker named after the dependency it guards.
// failureThreshold: consecutive failures that open the circuit.
// successThreshold: consecutive half-open successes that close it again.
// timeout: how long the circuit stays open before letting a trial request through.
func New(name string, failureThreshold, successThreshold uint32, timeout time.Duration, opts ...Option) CircuitBreaker {
	if failureThreshold == 0 {
		failureThreshold = 1
	}
	if successThreshold == 0 {
		successThreshold = 1
	}
	b := &breaker{
		name:             name,
		failureThreshold: failureThreshold,
		successThreshold: successThreshold,
		timeout:          timeout,
		isFailure:        defaultIsFailure,
		now:              time.Now,
		state:            Closed,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

func defaultIsFailure(err error) bool {
	return err != nil && !errors.Is(err, context.Canceled)
}

func (b *breaker) Name() string { return b.name }

// State returns the current state of the circuit breaker.
func (b *breaker) State() State {
	b.mutex.Lock()
	defer b.mutex.Unlock()
	if b.state == Open && b.now().Sub(b.openedAt) >= b.timeout {
		return HalfOpen
	}
	return b.state
}

// Execute wraps the execution of a function with the circuit breaker logic.
func (b *breaker) Execute(ctx context.Context, req func(ctx context.Context) error) error {
	trial, err := b.admit()
	if err != nil {
		return err
	}

	err = req(ctx)

	var from, to State
	b.mutex.Lock()
	if trial {
		b.trialInFlight = false
	}
	from = b.state
	if b.isFailure(err) {
		b.onFailure()
	} else if err == nil {
		b.onSuccess()
	}
	to = b.state
	b.mutex.Unlock()

	b.notify(from, to)
	return err
}

// admit decides whether a request may run, moving Open to HalfOpen once the timeout elapsed.
func (b *breaker) admit() (trial bool, err error) {
	b.mutex.Lock()
	from := b.state
	if b.state == Open && b.now().Sub(b.openedAt) >= b.timeout {
		b.state = HalfOpen
		b.consecutiveSuccesses = 0
	}
	to := b.state

	switch b.state {
	case Open:
		err = ErrCircuitOpen
	case HalfOpen:
		if b.trialInFlight {
			err = ErrCircuitOpen
		} else {
			b.trialInFlight = true
			trial = true
		}
	}
	b.mutex.Unlock()

	b.notify(from, to)
	return trial, err
}

// onSuccess handles the logic when a request succeeds. Caller holds the lock.
func (b *breaker) onSuccess() {
	switch b.state {
	case HalfOpen:
		b.consecutiveSuccesses++
		if b.consecutiveSuccesses >= b.successThreshold {
			b.reset()
		}
	case Closed:
		b.consecutiveFailures = 0
	}
}

// onFailure handles the logic when a request fails. Caller holds the lock.
func (b *breaker) onFailure() {
	switch b.state {
	case HalfOpen:
		b.trip()
	case Closed:
		b.consecutiveFailures++
		if b.consecutiveFailures >= b.failureThreshold {
			b.trip()
		}
	}
}

// trip opens the circuit.
func (b *breaker) trip() {
	b.state = Open
	b.openedAt = b.now()
	b.consecutiveFailures = 0
	b.consecutiveSuccesses = 0
}

// reset closes the circuit and resets all counters.
func (b *breaker) reset() {
	b.state = Closed
	b.consecutiveFailures = 0
	b.consecutiveSuccesses = 0
}

func (b *breaker) notify(from, to State) {
	if from != to && b.onStateChange != nil {
		b.onStateChange(b.name, from, to)
	}
}
