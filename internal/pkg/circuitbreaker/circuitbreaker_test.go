package circuitbreaker

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errUpstream = errors.New("upstream down")

func newTestBreaker(maxFailures int) (*CircuitBreaker, *time.Time) {
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	cb := New(Config{Name: "test", MaxFailures: maxFailures, Cooldown: time.Minute})
	cb.now = func() time.Time { return now }
	return cb, &now
}

func TestCircuitBreaker_OpensAfterMaxFailures(t *testing.T) {
	cb, _ := newTestBreaker(3)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		err := cb.Execute(ctx, func() error { return errUpstream })
		assert.ErrorIs(t, err, errUpstream)
	}

	assert.Equal(t, StateOpen, cb.State())
	err := cb.Execute(ctx, func() error { return nil })
	assert.ErrorIs(t, err, ErrCircuitOpen)
}

func TestCircuitBreaker_SuccessResetsFailures(t *testing.T) {
	cb, _ := newTestBreaker(3)
	ctx := context.Background()

	_ = cb.Execute(ctx, func() error { return errUpstream })
	_ = cb.Execute(ctx, func() error { return errUpstream })
	require.NoError(t, cb.Execute(ctx, func() error { return nil }))

	assert.Equal(t, 0, cb.Failures())
	assert.Equal(t, StateClosed, cb.State())
}

func TestCircuitBreaker_HalfOpenRecovery(t *testing.T) {
	cb, now := newTestBreaker(1)
	ctx := context.Background()

	_ = cb.Execute(ctx, func() error { return errUpstream })
	require.Equal(t, StateOpen, cb.State())

	*now = now.Add(2 * time.Minute)
	require.NoError(t, cb.Execute(ctx, func() error { return nil }))
	assert.Equal(t, StateClosed, cb.State())
}

func TestCircuitBreaker_HalfOpenFailureReopens(t *testing.T) {
	cb, now := newTestBreaker(1)
	ctx := context.Background()

	_ = cb.Execute(ctx, func() error { return errUpstream })
	*now = now.Add(2 * time.Minute)
	_ = cb.Execute(ctx, func() error { return errUpstream })

	assert.Equal(t, StateOpen, cb.State())
}

func TestCircuitBreaker_IsFailureClassifier(t *testing.T) {
	errBadInput := errors.New("bad input")
	cb := New(Config{
		Name:        "classified",
		MaxFailures: 1,
		IsFailure:   func(err error) bool { return !errors.Is(err, errBadInput) },
	})

	_ = cb.Execute(context.Background(), func() error { return errBadInput })
	assert.Equal(t, StateClosed, cb.State())
}

func TestCircuitBreaker_CancelledContext(t *testing.T) {
	cb, _ := newTestBreaker(1)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	called := false
	err := cb.Execute(ctx, func() error { called = true; return nil })
	assert.ErrorIs(t, err, context.Canceled)
	assert.False(t, called)
	assert.Equal(t, StateClosed, cb.State())
}

func TestExecuteWithResult(t *testing.T) {
	cb, _ := newTestBreaker(2)
	v, err := ExecuteWithResult(cb, context.Background(), func() (int, error) { return 42, nil })
	require.NoError(t, err)
	assert.Equal(t, 42, v)
}

func TestCircuitBreaker_RejectsWhileCoolingDown(t *testing.T) {
	cb, now := newTestBreaker(1)
	ctx := context.Background()

	_ = cb.Execute(ctx, func() error { return errUpstream })
	*now = now.Add(30 * time.Second)

	called := false
	err := cb.Execute(ctx, func() error { called = true; return nil })
	assert.ErrorIs(t, err, ErrCircuitOpen)
	assert.False(t, called)
}

func TestCircuitBreaker_LimitsHalfOpenProbes(t *testing.T) {
	cb, now := newTestBreaker(1)
	ctx := context.Background()

	_ = cb.Execute(ctx, func() error { return errUpstream })
	*now = now.Add(2 * time.Minute)

	err := cb.Execute(ctx, func() error {
		assert.Equal(t, StateHalfOpen, cb.State())
		return cb.Execute(ctx, func() error { return nil })
	})
	assert.ErrorIs(t, err, ErrTooManyRequests)
}

func TestCircuitBreaker_OnStateChange(t *testing.T) {
	type transition struct{ from, to State }
	var seen []transition

	cb := New(Config{
		Name:        "smtp",
		MaxFailures: 2,
		OnStateChange: func(name string, from, to State) {
			assert.Equal(t, "smtp", name)
			seen = append(seen, transition{from, to})
		},
	})
	ctx := context.Background()

	_ = cb.Execute(ctx, func() error { return errUpstream })
	assert.Empty(t, seen)
	_ = cb.Execute(ctx, func() error { return errUpstream })

	require.Len(t, seen, 1)
	assert.Equal(t, transition{StateClosed, StateOpen}, seen[0])
	assert.Equal(t, 2, cb.Failures())
}

func TestState_String(t *testing.T) {
	assert.Equal(t, "closed", StateClosed.String())
	assert.Equal(t, "open", StateOpen.String())
	assert.Equal(t, "half-open", StateHalfOpen.String())
	assert.Equal(t, "unknown", State(9).String())
}
