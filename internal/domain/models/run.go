package models

import (
	"time"
)

// Mode selects which steps and agents a run executes.
type Mode string

const (
	ModeFull  Mode = "full"
	ModeQuick Mode = "quick"
	ModeNews  Mode = "news"
	ModeData  Mode = "data" // collection only, no agents, no decision
)

// Status is the single-transition lifecycle of a step or agent task.
type Status string

const (
	StatusPending Status = "pending"
	StatusRunning Status = "running"
	StatusOK      Status = "ok"
	StatusError   Status = "error"
)

// Terminal reports whether the status is final.
func (s Status) Terminal() bool {
	return s == StatusOK || s == StatusError
}

// StepName identifies one data-collection unit.
type StepName string

const (
	StepPriceHistory StepName = "price_history"
	StepTechnicals   StepName = "technicals"
	StepFundamentals StepName = "fundamentals"
	StepNews         StepName = "news"
	StepStatements   StepName = "statements"
	StepQuote        StepName = "quote"
)

// AgentName identifies one analysis task.
type AgentName string

const (
	AgentTechnical   AgentName = "technical"
	AgentFundamental AgentName = "fundamental"
	AgentSentiment   AgentName = "sentiment"
	AgentRisk        AgentName = "risk"
)

// StepsForMode returns the applicable step set, in declaration order.
func StepsForMode(m Mode) []StepName {
	switch m {
	case ModeQuick:
		return []StepName{StepPriceHistory, StepTechnicals}
	case ModeNews:
		return []StepName{StepNews, StepPriceHistory}
	default: // full, data
		return []StepName{StepPriceHistory, StepTechnicals, StepFundamentals, StepNews, StepStatements, StepQuote}
	}
}

// AgentsForMode returns the applicable agent set, in declaration order.
// Data mode runs collection only.
func AgentsForMode(m Mode) []AgentName {
	switch m {
	case ModeQuick:
		return []AgentName{AgentTechnical, AgentRisk}
	case ModeNews:
		return []AgentName{AgentSentiment}
	case ModeData:
		return nil
	default:
		return []AgentName{AgentTechnical, AgentFundamental, AgentSentiment, AgentRisk}
	}
}

// AgentInputs maps each agent to the steps that must have succeeded for it to run.
// An agent whose inputs are missing is skipped, never launched.
func AgentInputs(a AgentName) []StepName {
	switch a {
	case AgentTechnical, AgentRisk:
		return []StepName{StepPriceHistory}
	case AgentFundamental:
		return []StepName{StepFundamentals}
	case AgentSentiment:
		return []StepName{StepNews}
	default:
		return nil
	}
}

// Step is one named collection unit inside a run.
type Step struct {
	Name    StepName    `json:"name"`
	Status  Status      `json:"status"`
	Payload interface{} `json:"payload,omitempty"`
	Error   string      `json:"error,omitempty"`
}

// AgentTask is one named analysis unit inside a run. Report is immutable once set.
type AgentTask struct {
	Name   AgentName    `json:"name"`
	Status Status       `json:"status"`
	Report *AgentReport `json:"report,omitempty"`
	Error  string       `json:"error,omitempty"`
}

// Run is one end-to-end pipeline execution, owned by the orchestrator for its lifetime.
type Run struct {
	ID        string    `json:"id"`
	Subject   string    `json:"subject"`
	Mode      Mode      `json:"mode"`
	StartedAt time.Time `json:"started_at"`

	Steps  map[StepName]*Step       `json:"steps"`
	Agents map[AgentName]*AgentTask `json:"agents"`

	Decision *Decision `json:"decision,omitempty"`
	Errors   []string  `json:"errors,omitempty"`
	Done     bool      `json:"done"`
}

// NewRun creates a run with all applicable steps pending.
func NewRun(id, subject string, mode Mode) *Run {
	r := &Run{
		ID:        id,
		Subject:   subject,
		Mode:      mode,
		StartedAt: time.Now().UTC(),
		Steps:     make(map[StepName]*Step),
		Agents:    make(map[AgentName]*AgentTask),
	}
	for _, name := range StepsForMode(mode) {
		r.Steps[name] = &Step{Name: name, Status: StatusPending}
	}
	return r
}

// StepOK reports whether the named step completed successfully.
func (r *Run) StepOK(name StepName) bool {
	s, ok := r.Steps[name]
	return ok && s.Status == StatusOK
}

// SuccessfulReports returns the reports of all agents that completed.
func (r *Run) SuccessfulReports() map[AgentName]*AgentReport {
	out := make(map[AgentName]*AgentReport)
	for name, t := range r.Agents {
		if t.Status == StatusOK && t.Report != nil {
			out[name] = t.Report
		}
	}
	return out
}
