// Package session owns in-progress descriptors. Each Session holds one
// Protocol, walks it through the wizard steps and keeps an undo history;
// sessions never share state with each other.
package session

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/turtacn/Protoscribe/pkg/consts"
	perrors "github.com/turtacn/Protoscribe/pkg/errors"
	"github.com/turtacn/Protoscribe/pkg/fsm"
	"github.com/turtacn/Protoscribe/pkg/logger"
	"github.com/turtacn/Protoscribe/pkg/protocol"
)

// maxHistory bounds the undo stack per session.
const maxHistory = 100

// Snapshot is the persisted and reported form of a session.
type Snapshot struct {
	ID        string            `json:"id"`
	Step      consts.Step       `json:"step"`
	Protocol  protocol.Protocol `json:"protocol"`
	UpdatedAt time.Time         `json:"updated_at"`
}

type Session struct {
	id string

	mu      sync.Mutex
	flow    *fsm.StateMachine
	history []protocol.Protocol
	cursor  int
	updated time.Time
	log     logger.Logger
}

// New starts a session at the first wizard step with an empty Protocol.
func New(id string) *Session {
	return Restore(Snapshot{ID: id, Step: Steps[0], Protocol: protocol.New(), UpdatedAt: time.Now().UTC()})
}

// Restore rebuilds a session from a snapshot. Undo history starts fresh.
func Restore(snap Snapshot) *Session {
	log := logger.Log.With("session", snap.ID)
	flow := newFlow(log)
	if snap.Step != "" {
		flow.Reset(fsm.State(snap.Step))
	}
	return &Session{
		id:      snap.ID,
		flow:    flow,
		history: []protocol.Protocol{snap.Protocol.Clone()},
		updated: snap.UpdatedAt,
		log:     log,
	}
}

func (s *Session) ID() string { return s.id }

// Step returns the current wizard step.
func (s *Session) Step() consts.Step {
	return consts.Step(s.flow.Current())
}

// Events lists the flow events accepted at the current step.
func (s *Session) Events() []string {
	events := s.flow.Events()
	out := make([]string, len(events))
	for i, e := range events {
		out[i] = string(e)
	}
	return out
}

// Current returns a copy of the Protocol as of the last applied patch.
// Callers may edit it in place and submit it back.
func (s *Session) Current() protocol.Protocol {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.history[s.cursor].Clone()
}

// Snapshot captures the session for storage or display.
func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Snapshot{ID: s.id, Step: s.Step(), Protocol: s.history[s.cursor].Clone(), UpdatedAt: s.updated}
}

// Document compiles the current Protocol.
func (s *Session) Document(opts ...protocol.CompileOption) *protocol.Document {
	return protocol.Compile(s.Current(), opts...)
}

// Update merges patch regardless of the wizard step, the way a single-page
// editor applies every keystroke.
func (s *Session) Update(patch protocol.Patch) (protocol.Protocol, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.checkOpen("Update"); err != nil {
		return protocol.Protocol{}, err
	}
	next := s.apply(patch)
	s.log.Debug("Session updated", "fields", patch.Fields())
	return next.Clone(), nil
}

// Submit applies the patch for step and advances the flow. The step must be
// the current one and the patch may only touch the field that step owns.
func (s *Session) Submit(step consts.Step, patch protocol.Patch) (protocol.Protocol, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.checkOpen("Submit"); err != nil {
		return protocol.Protocol{}, err
	}
	if current := s.Step(); step != current {
		return protocol.Protocol{}, perrors.New(perrors.ErrCodeStepOrder, "Submit",
			fmt.Sprintf("session is at step %q, not %q", current, step), nil)
	}
	if !inScope(step, patch) {
		return protocol.Protocol{}, perrors.New(perrors.ErrCodePatchScope, "Submit",
			fmt.Sprintf("step %q must set exactly its own field, got %v", step, patch.Fields()), nil)
	}

	next := s.apply(patch)
	if _, err := s.fire("Submit", consts.EventNext); err != nil {
		return protocol.Protocol{}, err
	}
	return next.Clone(), nil
}

// Back returns to the previous step without touching the Protocol.
func (s *Session) Back() (consts.Step, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.checkOpen("Back"); err != nil {
		return "", err
	}
	if !s.flow.Can(consts.EventBack) {
		return s.Step(), perrors.New(perrors.ErrCodeStepOrder, "Back", "already at the first step", nil)
	}
	to, err := s.fire("Back", consts.EventBack)
	if err != nil {
		return s.Step(), err
	}
	s.touch()
	return to, nil
}

// Abandon ends the flow. The last Protocol stays readable.
func (s *Session) Abandon() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.checkOpen("Abandon"); err != nil {
		return err
	}
	if _, err := s.fire("Abandon", consts.EventAbandon); err != nil {
		return err
	}
	s.touch()
	return nil
}

// Undo steps back one applied patch.
func (s *Session) Undo() (protocol.Protocol, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.checkOpen("Undo"); err != nil {
		return protocol.Protocol{}, err
	}
	if s.cursor == 0 {
		return protocol.Protocol{}, perrors.New(perrors.ErrCodeNothingToUndo, "Undo", "no earlier state", nil)
	}
	s.cursor--
	s.touch()
	return s.history[s.cursor].Clone(), nil
}

// Redo re-applies the patch most recently undone.
func (s *Session) Redo() (protocol.Protocol, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.checkOpen("Redo"); err != nil {
		return protocol.Protocol{}, err
	}
	if s.cursor == len(s.history)-1 {
		return protocol.Protocol{}, perrors.New(perrors.ErrCodeNothingToRedo, "Redo", "no later state", nil)
	}
	s.cursor++
	s.touch()
	return s.history[s.cursor].Clone(), nil
}

// apply merges patch into the current state and records a deep copy of
// the result, dropping any redo tail. History entries share no slices with
// each other or with the caller's patch. Callers hold s.mu.
func (s *Session) apply(patch protocol.Patch) protocol.Protocol {
	next := protocol.Merge(s.history[s.cursor], patch).Clone()
	s.history = append(s.history[:s.cursor+1], next)
	if len(s.history) > maxHistory {
		s.history = append([]protocol.Protocol(nil), s.history[len(s.history)-maxHistory:]...)
	}
	s.cursor = len(s.history) - 1
	s.touch()
	return next
}

// fire moves the flow by event. A rejected event is a step order error.
func (s *Session) fire(op string, event fsm.Event) (consts.Step, error) {
	to, err := s.flow.Fire(event)
	if errors.Is(err, fsm.ErrInvalidTransition) {
		return s.Step(), perrors.New(perrors.ErrCodeStepOrder, op, fmt.Sprintf("%s not allowed at step %s", event, s.Step()), err)
	}
	if err != nil {
		return s.Step(), perrors.New(perrors.ErrCodeUnknown, op, "flow failed", err)
	}
	return consts.Step(to), nil
}

func (s *Session) touch() {
	s.updated = time.Now().UTC()
}

func (s *Session) checkOpen(op string) error {
	if step := s.Step(); closed(step) {
		return perrors.New(perrors.ErrCodeSessionClosed, op, fmt.Sprintf("session is %s", step), nil)
	}
	return nil
}

// Personal.AI order the ending
