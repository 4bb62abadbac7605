package models

import (
	"testing"
)

func TestStepsForMode(t *testing.T) {
	cases := map[Mode][]StepName{
		ModeQuick: {StepPriceHistory, StepTechnicals},
		ModeNews:  {StepNews, StepPriceHistory},
		ModeFull:  {StepPriceHistory, StepTechnicals, StepFundamentals, StepNews, StepStatements, StepQuote},
		ModeData:  {StepPriceHistory, StepTechnicals, StepFundamentals, StepNews, StepStatements, StepQuote},
	}
	for mode, want := range cases {
		got := StepsForMode(mode)
		if len(got) != len(want) {
			t.Fatalf("%s: expected %d steps, got %d", mode, len(want), len(got))
		}
		for i := range want {
			if got[i] != want[i] {
				t.Fatalf("%s: step %d = %s, want %s", mode, i, got[i], want[i])
			}
		}
	}
}

func TestAgentsForMode(t *testing.T) {
	if got := AgentsForMode(ModeData); got != nil {
		t.Fatalf("data mode must plan no agents, got %v", got)
	}
	if got := AgentsForMode(ModeNews); len(got) != 1 || got[0] != AgentSentiment {
		t.Fatalf("news mode agents = %v", got)
	}
	if got := AgentsForMode(ModeFull); len(got) != 4 {
		t.Fatalf("full mode agents = %v", got)
	}
}

func TestAgentInputs(t *testing.T) {
	for _, agent := range []AgentName{AgentTechnical, AgentRisk} {
		inputs := AgentInputs(agent)
		if len(inputs) != 1 || inputs[0] != StepPriceHistory {
			t.Fatalf("%s inputs = %v", agent, inputs)
		}
	}
	if inputs := AgentInputs(AgentSentiment); len(inputs) != 1 || inputs[0] != StepNews {
		t.Fatalf("sentiment inputs = %v", inputs)
	}
}

func TestNewRunInitializesPlannedSteps(t *testing.T) {
	run := NewRun("id-1", "AAPL", ModeQuick)
	if len(run.Steps) != 2 {
		t.Fatalf("expected 2 planned steps, got %d", len(run.Steps))
	}
	for name, step := range run.Steps {
		if step.Status != StatusPending {
			t.Fatalf("step %s not pending", name)
		}
	}
	if run.Done {
		t.Fatalf("new run must not be done")
	}
}

func TestDecodeWireEvent(t *testing.T) {
	ev, err := DecodeWireEvent([]byte(`{"type":"step_complete","name":"quote","price":42}`))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if ev.Type != "step_complete" || ev.Name != "quote" {
		t.Fatalf("unexpected event %+v", ev)
	}
	if len(ev.Raw) == 0 {
		t.Fatalf("raw frame must be retained")
	}

	// Unknown kinds decode fine; only malformed JSON fails.
	if _, err := DecodeWireEvent([]byte(`{"type":"heartbeat"}`)); err != nil {
		t.Fatalf("unknown kind must not error: %v", err)
	}
	if _, err := DecodeWireEvent([]byte(`{"type":`)); err == nil {
		t.Fatalf("malformed frame must error")
	}
}
