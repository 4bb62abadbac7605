package models

import "time"

// Signal is the synthesized trading action.
type Signal string

const (
	SignalBuy  Signal = "BUY"
	SignalSell Signal = "SELL"
	SignalHold Signal = "HOLD"
)

// RuleEvaluation is the judgment for one configured strategy rule.
type RuleEvaluation struct {
	Rule     string `json:"rule"`
	Met      bool   `json:"met"`
	Evidence string `json:"evidence"`
	Source   string `json:"source"` // report that supplied the judgment, or "none"
}

// Decision is the final synthesized output of a run. Created once, immutable.
type Decision struct {
	Subject    string  `json:"subject"`
	Signal     Signal  `json:"signal"`
	Confidence float64 `json:"confidence"` // 0..1

	Entry           float64 `json:"entry"`
	StopLossOffset  float64 `json:"stop_loss_offset"`
	TakeProfitOffset float64 `json:"take_profit_offset"`
	PositionSizePct float64 `json:"position_size_pct"`
	RiskReward      float64 `json:"risk_reward"`

	EntryRules []RuleEvaluation `json:"entry_rules"`
	ExitRules  []RuleEvaluation `json:"exit_rules"`

	DissentingSignals []string `json:"dissenting_signals,omitempty"`
	Rationale         string   `json:"rationale"`

	CreatedAt time.Time `json:"created_at"`
}

// CacheEntry is the persisted final output of a completed run.
type CacheEntry struct {
	Subject string                       `json:"subject"`
	Date    string                       `json:"date"` // YYYY-MM-DD
	Agents  map[AgentName]*AgentReport   `json:"agents"`
	Decision *Decision                   `json:"decision"`
}

// CachedAnalysis is the wire shape of the cached-read endpoint.
type CachedAnalysis struct {
	Cached   bool                       `json:"cached"`
	Agents   map[AgentName]*AgentReport `json:"agents,omitempty"`
	Decision *Decision                  `json:"decision,omitempty"`
	Date     string                     `json:"date,omitempty"`
}
