package session

import (
	"github.com/turtacn/Protoscribe/internal/monitor"
	"github.com/turtacn/Protoscribe/pkg/consts"
	"github.com/turtacn/Protoscribe/pkg/fsm"
	"github.com/turtacn/Protoscribe/pkg/logger"
	"github.com/turtacn/Protoscribe/pkg/protocol"
)

// Steps lists the wizard steps in the order a new session walks them.
var Steps = []consts.Step{consts.StepPublished, consts.StepURI, consts.StepTypes, consts.StepStructure}

// newFlow builds the step machine at the first step. Every committed
// transition is logged to log and counted.
func newFlow(log logger.Logger) *fsm.StateMachine {
	m := fsm.New(fsm.State(Steps[0]))
	all := append(append([]consts.Step(nil), Steps...), consts.StepComplete)
	for i, step := range Steps {
		m.AddTransition(fsm.State(step), fsm.State(all[i+1]), consts.EventNext)
		if i > 0 {
			m.AddTransition(fsm.State(step), fsm.State(Steps[i-1]), consts.EventBack)
		}
		m.AddTransition(fsm.State(step), fsm.State(consts.StepAbandoned), consts.EventAbandon)
	}
	m.OnTransition(func(from, to fsm.State, event fsm.Event) {
		monitor.StepTransitionsTotal.WithLabelValues(string(from), string(to)).Inc()
		log.Info("Step transition", "from", from, "to", to, "event", event)
	})
	return m
}

// ParseStep accepts the steps a patch can be submitted for. The terminal
// steps are reached by the flow, never submitted.
func ParseStep(s string) (consts.Step, bool) {
	for _, step := range Steps {
		if string(step) == s {
			return step, true
		}
	}
	return "", false
}

// closed reports whether the flow has ended.
func closed(step consts.Step) bool {
	return step == consts.StepComplete || step == consts.StepAbandoned
}

// inScope reports whether patch only touches the field owned by step.
func inScope(step consts.Step, patch protocol.Patch) bool {
	var owned bool
	switch step {
	case consts.StepPublished:
		owned = patch.Published != nil
	case consts.StepURI:
		owned = patch.URI != nil
	case consts.StepTypes:
		owned = patch.Types != nil
	case consts.StepStructure:
		owned = patch.Structure != nil
	}
	return owned && len(patch.Fields()) == 1
}

// Personal.AI order the ending
