package fsm

import (
	"errors"
	"fmt"
	"sort"
	"sync"
)

type State string
type Event string

// ErrInvalidTransition is returned by Fire when the current state has no
// transition for the event.
var ErrInvalidTransition = errors.New("invalid transition")

// Hook is called after a transition has been committed. It runs without the
// machine's lock held, so it may read the state or fire further events.
type Hook func(from, to State, event Event)

type StateMachine struct {
	mu          sync.RWMutex
	current     State
	transitions map[State]map[Event]State
	hooks       []Hook
}

func New(initial State) *StateMachine {
	return &StateMachine{
		current:     initial,
		transitions: make(map[State]map[Event]State),
	}
}

func (sm *StateMachine) Current() State {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	return sm.current
}

func (sm *StateMachine) AddTransition(from, to State, event Event) {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	if _, ok := sm.transitions[from]; !ok {
		sm.transitions[from] = make(map[Event]State)
	}
	sm.transitions[from][event] = to
}

// OnTransition registers a hook for every committed transition.
func (sm *StateMachine) OnTransition(h Hook) {
	sm.mu.Lock()
	defer sm.mu.Unlock()
	sm.hooks = append(sm.hooks, h)
}

// Can reports whether event is accepted in the current state.
func (sm *StateMachine) Can(event Event) bool {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	_, ok := sm.transitions[sm.current][event]
	return ok
}

// Events lists the events accepted in the current state, sorted.
func (sm *StateMachine) Events() []Event {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	out := make([]Event, 0, len(sm.transitions[sm.current]))
	for e := range sm.transitions[sm.current] {
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Reset forces the machine into state, bypassing transitions. It is used
// when restoring a persisted session.
func (sm *StateMachine) Reset(state State) {
	sm.mu.Lock()
	defer sm.mu.Unlock()
	sm.current = state
}

// Fire triggers a state transition and returns the new state. It is thread-safe.
func (sm *StateMachine) Fire(event Event) (State, error) {
	sm.mu.Lock()
	from := sm.current
	next, ok := sm.transitions[from][event]
	if !ok {
		sm.mu.Unlock()
		return from, fmt.Errorf("%w from %s via %s", ErrInvalidTransition, from, event)
	}
	sm.current = next
	hooks := append([]Hook(nil), sm.hooks...)
	sm.mu.Unlock()

	for _, h := range hooks {
		h(from, next, event)
	}
	return next, nil
}

// Personal.AI order the ending
