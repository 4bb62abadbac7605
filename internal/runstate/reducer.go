// Package runstate reconstructs a run incrementally on the observer side,
// driven only by the event stream. It never reaches into orchestrator state.
package runstate

import (
	"TradeScope/internal/domain/models"
)

// Phase is the coarse pipeline progress marker.
type Phase string

const (
	PhaseIdle     Phase = "idle"
	PhaseData     Phase = "data"
	PhaseAgents   Phase = "agents"
	PhaseDecision Phase = "decision"
	PhaseDone     Phase = "done"
	PhaseFailed   Phase = "failed"
)

// State is the reducer's reconstructed copy of a run, fully decoupled from the
// orchestrator's internal objects.
type State struct {
	Subject     string
	Phase       Phase
	HasDecision bool

	Steps  map[models.StepName]*models.Step
	Agents map[models.AgentName]*models.AgentTask

	Decision *models.Decision
	Errors   []string
	Fatal    string
}

// Reducer is a pure state machine over wire events. It is restartable: Reset
// must be called before the first event of a new run for the same subject.
type Reducer struct {
	state State
}

// New returns a reducer in its idle state.
func New(subject string) *Reducer {
	r := &Reducer{}
	r.Reset(subject)
	return r
}

// Reset discards all accumulated state before a new run's first event.
func (r *Reducer) Reset(subject string) {
	r.state = State{
		Subject: subject,
		Phase:   PhaseIdle,
		Steps:   make(map[models.StepName]*models.Step),
		Agents:  make(map[models.AgentName]*models.AgentTask),
	}
}

// State returns the current reconstructed state.
func (r *Reducer) State() *State {
	return &r.state
}

// Apply folds one decoded event into the state. Unknown event kinds are
// ignored, never fatal.
func (r *Reducer) Apply(ev *models.WireEvent) {
	switch models.EventKind(ev.Type) {
	case models.EventPlan:
		r.state.Phase = PhaseData
		r.state.HasDecision = ev.HasDecision
		for _, name := range ev.Steps {
			r.state.Steps[name] = &models.Step{Name: name, Status: models.StatusPending}
		}
		for _, name := range ev.Agents {
			r.state.Agents[name] = &models.AgentTask{Name: name, Status: models.StatusPending}
		}

	case models.EventStepStart:
		r.step(ev.Name).Status = models.StatusRunning

	case models.EventStepComplete:
		s := r.step(ev.Name)
		s.Status = models.StatusOK
		s.Payload = ev.Raw

	case models.EventStepError:
		s := r.step(ev.Name)
		s.Status = models.StatusError
		s.Error = ev.Error
		r.state.Errors = append(r.state.Errors, ev.Name+": "+ev.Error)

	case models.EventAgentStart:
		r.state.Phase = PhaseAgents
		r.agent(ev.Name).Status = models.StatusRunning

	case models.EventAgentComplete:
		r.state.Phase = PhaseAgents
		a := r.agent(ev.Name)
		a.Status = models.StatusOK
		a.Report = ev.Report

	case models.EventAgentError:
		r.state.Phase = PhaseAgents
		a := r.agent(ev.Name)
		a.Status = models.StatusError
		a.Error = ev.Error
		r.state.Errors = append(r.state.Errors, ev.Name+": "+ev.Error)

	case models.EventDecisionComplete:
		r.state.Phase = PhaseDecision
		r.state.Decision = ev.Decision

	case models.EventDecisionError:
		r.state.Phase = PhaseDecision
		r.state.Errors = append(r.state.Errors, "decision: "+ev.Error)

	case models.EventDone:
		r.state.Phase = PhaseDone

	case models.EventFatal:
		r.state.Phase = PhaseFailed
		r.state.Fatal = ev.Error

	default:
		// forward compatibility: skip kinds this observer does not know
	}
}

// Hydrate populates terminal state directly from a cache entry, bypassing the
// step and agent phases entirely. This is a pure read path.
func (r *Reducer) Hydrate(entry *models.CacheEntry) {
	r.Reset(entry.Subject)
	r.state.Phase = PhaseDone
	r.state.HasDecision = entry.Decision != nil
	r.state.Decision = entry.Decision
	for name, report := range entry.Agents {
		r.state.Agents[name] = &models.AgentTask{Name: name, Status: models.StatusOK, Report: report}
	}
}

func (r *Reducer) step(name string) *models.Step {
	s, ok := r.state.Steps[models.StepName(name)]
	if !ok {
		s = &models.Step{Name: models.StepName(name), Status: models.StatusPending}
		r.state.Steps[s.Name] = s
	}
	return s
}

func (r *Reducer) agent(name string) *models.AgentTask {
	a, ok := r.state.Agents[models.AgentName(name)]
	if !ok {
		a = &models.AgentTask{Name: models.AgentName(name), Status: models.StatusPending}
		r.state.Agents[a.Name] = a
	}
	return a
}
