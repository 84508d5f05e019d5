package service

import (
	"context"
	"errors"
	"sync"
)

// ErrSubmissionInFlight is returned when the same key already has a pending mutation.
var ErrSubmissionInFlight = errors.New("a submission is already in progress")

// Phase is the lifecycle position of a mutation.
type Phase string

const (
	PhaseIdle    Phase = "idle"
	PhasePending Phase = "pending"
	PhaseSuccess Phase = "success"
	PhaseError   Phase = "error"
)

// MutationState is the last observed lifecycle of one key.
type MutationState struct {
	Phase Phase
	Err   error
}

// Mutation wraps a request in an idle → pending → success|error lifecycle,
// tracked per key (the browser session). A second Do for a key that is still
// pending is rejected instead of issuing a duplicate request.
type Mutation[In, Out any] struct {
	fn func(ctx context.Context, in In) (Out, error)

	mu     sync.Mutex
	states map[string]MutationState
}

// NewMutation wraps fn.
func NewMutation[In, Out any](fn func(ctx context.Context, in In) (Out, error)) *Mutation[In, Out] {
	return &Mutation[In, Out]{fn: fn, states: make(map[string]MutationState)}
}

// Do runs the wrapped call for key.
func (m *Mutation[In, Out]) Do(ctx context.Context, key string, in In) (Out, error) {
	return m.Run(ctx, key, in, nil)
}

// Run is Do with a hook that runs once key is reserved and before the
// wrapped call. A rejected duplicate never reaches onStart.
func (m *Mutation[In, Out]) Run(ctx context.Context, key string, in In, onStart func()) (Out, error) {
	var zero Out
	m.mu.Lock()
	if m.states[key].Phase == PhasePending {
		m.mu.Unlock()
		return zero, ErrSubmissionInFlight
	}
	m.states[key] = MutationState{Phase: PhasePending}
	m.mu.Unlock()

	if onStart != nil {
		onStart()
	}
	out, err := m.fn(ctx, in)

	m.mu.Lock()
	if err != nil {
		m.states[key] = MutationState{Phase: PhaseError, Err: err}
	} else {
		m.states[key] = MutationState{Phase: PhaseSuccess}
	}
	m.mu.Unlock()
	return out, err
}

// State reports the lifecycle of key; unseen keys are idle.
func (m *Mutation[In, Out]) State(key string) MutationState {
	m.mu.Lock()
	defer m.mu.Unlock()
	st, ok := m.states[key]
	if !ok {
		return MutationState{Phase: PhaseIdle}
	}
	return st
}

// Pending is shorthand for State(key).Phase == PhasePending.
func (m *Mutation[In, Out]) Pending(key string) bool {
	return m.State(key).Phase == PhasePending
}

// Reset forgets key, returning it to idle. Pending keys are left alone.
func (m *Mutation[In, Out]) Reset(key string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.states[key].Phase != PhasePending {
		delete(m.states, key)
	}
}
