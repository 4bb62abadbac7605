package models

import (
	"encoding/json"
	"time"
)

// EventKind discriminates stream events.
type EventKind string

const (
	EventPlan             EventKind = "plan"
	EventStepStart        EventKind = "step_start"
	EventStepComplete     EventKind = "step_complete"
	EventStepError        EventKind = "step_error"
	EventAgentStart       EventKind = "agent_start"
	EventAgentComplete    EventKind = "agent_complete"
	EventAgentError       EventKind = "agent_error"
	EventDecisionComplete EventKind = "decision_complete"
	EventDecisionError    EventKind = "decision_error"
	EventDone             EventKind = "done"
	EventFatal            EventKind = "error"
)

// Plan declares the full applicable unit set of a run. Always the first event.
type Plan struct {
	Steps       []StepName  `json:"steps"`
	Agents      []AgentName `json:"agents"`
	HasDecision bool        `json:"has_decision"`
}

// Event is one typed, timestamped state transition on the run stream. Events
// are the only channel of truth between the orchestrator and the observer.
type Event struct {
	Kind EventKind
	Time time.Time

	Name     string       // step or agent name
	Error    string       // step_error / agent_error / decision_error / error
	Payload  interface{}  // step_complete projection
	Report   *AgentReport // agent_complete
	Decision *Decision    // decision_complete
	Plan     *Plan        // plan
}

// MarshalJSON flattens the event into the wire vocabulary: a single object with
// "type", "ts" and kind-specific fields. Step payload fields are spread into
// the object; reserved keys always win.
func (e Event) MarshalJSON() ([]byte, error) {
	obj := make(map[string]interface{}, 8)

	if e.Payload != nil {
		raw, err := json.Marshal(e.Payload)
		if err != nil {
			return nil, err
		}
		var spread map[string]interface{}
		if err := json.Unmarshal(raw, &spread); err == nil {
			for k, v := range spread {
				obj[k] = v
			}
		} else {
			obj["payload"] = e.Payload
		}
	}

	obj["type"] = e.Kind
	obj["ts"] = e.Time.UTC().Format(time.RFC3339Nano)
	if e.Name != "" {
		obj["name"] = e.Name
	}
	if e.Error != "" {
		obj["error"] = e.Error
	}
	if e.Report != nil {
		obj["report"] = e.Report
	}
	if e.Decision != nil {
		obj["decision"] = e.Decision
	}
	if e.Plan != nil {
		obj["steps"] = e.Plan.Steps
		obj["agents"] = e.Plan.Agents
		obj["has_decision"] = e.Plan.HasDecision
	}

	return json.Marshal(obj)
}

// WireEvent is the observer-side decoded form of a stream frame. Unknown kinds
// keep their raw type string so the reducer can ignore them without failing.
type WireEvent struct {
	Type        string          `json:"type"`
	TS          time.Time       `json:"ts"`
	Name        string          `json:"name"`
	Error       string          `json:"error"`
	Report      *AgentReport    `json:"report"`
	Decision    *Decision       `json:"decision"`
	Steps       []StepName      `json:"steps"`
	Agents      []AgentName     `json:"agents"`
	HasDecision bool            `json:"has_decision"`
	Raw         json.RawMessage `json:"-"`
}

// DecodeWireEvent parses one frame body. Malformed JSON is an error; an
// unrecognized "type" is not.
func DecodeWireEvent(raw []byte) (*WireEvent, error) {
	var ev WireEvent
	if err := json.Unmarshal(raw, &ev); err != nil {
		return nil, err
	}
	ev.Raw = append([]byte(nil), raw...)
	return &ev, nil
}
