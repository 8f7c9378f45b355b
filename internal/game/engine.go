package game

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"
)

// Policy chooses the move of one agent. The state must be treated as read-only.
type Policy interface {
	Act(s *State, agent int) Move
}

// PolicyFunc adapts a function to the Policy interface.
type PolicyFunc func(s *State, agent int) Move

// Act calls f.
func (f PolicyFunc) Act(s *State, agent int) Move { return f(s, agent) }

// ErrFinished is returned by Engine.Step once the episode is over.
var ErrFinished = errors.New("episode finished")

// Engine drives a single state with one policy per agent.
type Engine struct {
	State    *State
	Config   Config
	policies []Policy
	moves    []Move
	mu       sync.Mutex
	paused   bool
	onTick   func(State) // Callback after each tick with a COPY of state
}

// NewEngine creates an engine for state. It needs exactly one policy per agent.
func NewEngine(state *State, policies []Policy) (*Engine, error) {
	if len(policies) != len(state.Agents) {
		return nil, fmt.Errorf("%w: %d policies for %d agents", ErrInvalidConfig, len(policies), len(state.Agents))
	}
	for i, p := range policies {
		if p == nil {
			return nil, fmt.Errorf("%w: agent %d has no policy", ErrInvalidConfig, i)
		}
	}
	return &Engine{
		State:    state,
		Config:   state.Config,
		policies: policies,
		moves:    make([]Move, len(policies)),
	}, nil
}

// OnTick sets a callback that is invoked after every tick with a copy of the state.
func (e *Engine) OnTick(fn func(State)) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.onTick = fn
}

// SetPaused suspends or resumes Run. Step still works while paused.
func (e *Engine) SetPaused(paused bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.paused = paused
}

// Paused reports whether Run is suspended.
func (e *Engine) Paused() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.paused
}

// Run steps the state at tickRate ticks per second until the episode is over
// or ctx is done.
func (e *Engine) Run(ctx context.Context, tickRate int) error {
	if tickRate <= 0 {
		return fmt.Errorf("tick rate %d must be positive", tickRate)
	}
	ticker := time.NewTicker(time.Second / time.Duration(tickRate))
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if e.Paused() {
				continue
			}
			err := e.Step()
			if errors.Is(err, ErrFinished) {
				return nil
			}
			if err != nil {
				return err
			}
		}
	}
}

// Step asks every policy for a move and advances the state by one tick.
// IMPORTANT: the state is copied while holding the lock, and the lock is
// released BEFORE calling onTick so the callback may call back into the engine.
func (e *Engine) Step() error {
	e.mu.Lock()

	if e.State.Finished {
		e.mu.Unlock()
		return ErrFinished
	}
	for i, p := range e.policies {
		e.moves[i] = MoveIdle
		if !e.State.Agents[i].Dead {
			e.moves[i] = p.Act(e.State, i)
		}
	}
	if err := ValidateMoves(e.moves, len(e.State.Agents)); err != nil {
		e.mu.Unlock()
		return fmt.Errorf("tick %d: %w", e.State.Tick+1, err)
	}
	e.State.Step(e.moves)

	var stateCopy State
	fn := e.onTick
	if fn != nil {
		stateCopy = *e.State.Clone()
	}

	e.mu.Unlock()

	if fn != nil {
		fn(stateCopy)
	}
	return nil
}

// GetStateCopy returns a deep copy of the current state.
func (e *Engine) GetStateCopy() State {
	e.mu.Lock()
	defer e.mu.Unlock()
	return *e.State.Clone()
}
