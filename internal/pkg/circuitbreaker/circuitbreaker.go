// Package circuitbreaker guards calls to flaky upstreams such as the crypto
// price feed and the SMTP relay.
package circuitbreaker

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/ledgerline/ledgerline/internal/pkg/metrics"
)

var (
	// ErrCircuitOpen is returned while the breaker is cooling down
	ErrCircuitOpen = errors.New("circuit breaker is open")
	// ErrTooManyRequests is returned when every half-open probe slot is taken
	ErrTooManyRequests = errors.New("too many requests, circuit breaker is half-open")
)

type State int

const (
	StateClosed State = iota
	StateOpen
	StateHalfOpen
)

func (s State) String() string {
	switch s {
	case StateClosed:
		return "closed"
	case StateOpen:
		return "open"
	case StateHalfOpen:
		return "half-open"
	}
	return "unknown"
}

// Config tunes a breaker. Zero values take the defaults noted per field.
type Config struct {
	// Name labels the breaker in logs and in ledgerline_circuit_state
	Name string
	// MaxFailures consecutive failures open the circuit (default 5)
	MaxFailures int
	// Cooldown is how long the circuit stays open before probing (default 30s)
	Cooldown time.Duration
	// Probes is the number of trial calls let through while half-open and
	// the number of successes needed to close again (default 1)
	Probes int
	// IsFailure classifies errors. The default counts everything except
	// context cancellation.
	IsFailure func(err error) bool
	// OnStateChange runs after each transition, outside the breaker lock
	OnStateChange func(name string, from, to State)
}

// CircuitBreaker trips after repeated upstream failures and rejects calls
// until a cooldown passes.
type CircuitBreaker struct {
	cfg Config
	now func() time.Time

	mu       sync.Mutex
	state    State
	failures int
	openedAt time.Time
	inFlight int // probes admitted in the current half-open window
	passed   int // probes succeeded in the current half-open window
}

func New(cfg Config) *CircuitBreaker {
	if cfg.MaxFailures <= 0 {
		cfg.MaxFailures = 5
	}
	if cfg.Cooldown <= 0 {
		cfg.Cooldown = 30 * time.Second
	}
	if cfg.Probes <= 0 {
		cfg.Probes = 1
	}
	if cfg.IsFailure == nil {
		cfg.IsFailure = func(err error) bool { return !errors.Is(err, context.Canceled) }
	}
	cb := &CircuitBreaker{cfg: cfg, now: time.Now}
	metrics.SetBreakerState(cfg.Name, int(StateClosed))
	return cb
}

func (cb *CircuitBreaker) Execute(ctx context.Context, fn func() error) error {
	_, err := ExecuteWithResult(cb, ctx, func() (struct{}, error) {
		return struct{}{}, fn()
	})
	return err
}

// ExecuteWithResult runs fn through cb. A context that is already done is
// returned without touching the breaker.
func ExecuteWithResult[T any](cb *CircuitBreaker, ctx context.Context, fn func() (T, error)) (T, error) {
	var zero T
	if err := ctx.Err(); err != nil {
		return zero, err
	}
	if err := cb.admit(); err != nil {
		return zero, err
	}
	v, err := fn()
	cb.report(err)
	return v, err
}

func (cb *CircuitBreaker) admit() error {
	cb.mu.Lock()
	var change func()
	defer func() {
		cb.mu.Unlock()
		if change != nil {
			change()
		}
	}()

	switch cb.state {
	case StateOpen:
		if cb.now().Sub(cb.openedAt) < cb.cfg.Cooldown {
			return ErrCircuitOpen
		}
		change = cb.setState(StateHalfOpen)
	case StateHalfOpen:
		if cb.inFlight >= cb.cfg.Probes {
			return ErrTooManyRequests
		}
	default:
		return nil
	}
	cb.inFlight++
	return nil
}

func (cb *CircuitBreaker) report(err error) {
	failed := err != nil && cb.cfg.IsFailure(err)

	cb.mu.Lock()
	var change func()
	switch {
	case cb.state == StateClosed && failed:
		cb.failures++
		if cb.failures >= cb.cfg.MaxFailures {
			change = cb.setState(StateOpen)
		}
	case cb.state == StateClosed:
		cb.failures = 0
	case cb.state == StateHalfOpen && failed:
		cb.failures++
		change = cb.setState(StateOpen)
	case cb.state == StateHalfOpen:
		cb.passed++
		if cb.passed >= cb.cfg.Probes {
			change = cb.setState(StateClosed)
		}
	}
	cb.mu.Unlock()

	if change != nil {
		change()
	}
}

// setState must be called with mu held. It returns the notification to run
// once the lock is released.
func (cb *CircuitBreaker) setState(to State) func() {
	from := cb.state
	cb.state = to
	cb.inFlight, cb.passed = 0, 0
	switch to {
	case StateOpen:
		cb.openedAt = cb.now()
	case StateClosed:
		cb.failures = 0
	}

	name, hook := cb.cfg.Name, cb.cfg.OnStateChange
	return func() {
		metrics.SetBreakerState(name, int(to))
		if hook != nil {
			hook(name, from, to)
		}
	}
}

func (cb *CircuitBreaker) State() State {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	return cb.state
}

// Failures returns the consecutive failure count
func (cb *CircuitBreaker) Failures() int {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	return cb.failures
}
