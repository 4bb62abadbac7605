package usecase

import (
	"fmt"
	"math"
	"strings"
	"time"

	"TradeScope/internal/domain/models"
	"TradeScope/internal/strategy"
)

const (
	entryRuleWeight = 0.6
	agreementWeight = 0.4
)

// Synthesizer is the deterministic rule engine run once per run, after the
// agent phase is terminal. Missing agent data is never an error here, only a
// degraded-confidence decision; Synthesize fails solely on a malformed
// configuration.
type Synthesizer struct {
	store *strategy.Store
}

func NewSynthesizer(store *strategy.Store) *Synthesizer {
	return &Synthesizer{store: store}
}

// Synthesize evaluates the configured entry and exit rules against whichever
// reports completed and produces the final decision.
func (s *Synthesizer) Synthesize(subject string, reports map[models.AgentName]*models.AgentReport) (*models.Decision, error) {
	cfg := s.store.Strategy()
	risk := s.store.Risk()
	if cfg == nil || risk == nil {
		return nil, fmt.Errorf("synthesize: strategy configuration not loaded")
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("synthesize: %w", err)
	}
	if err := risk.Validate(); err != nil {
		return nil, fmt.Errorf("synthesize: %w", err)
	}

	entryEvals := evaluateRuleSet(cfg.EntryRules, reports, true, cfg.MissingDataEntryMet)
	exitEvals := evaluateRuleSet(cfg.ExitRules, reports, false, cfg.MissingDataEntryMet)

	entryMet := countMet(entryEvals)
	exitMet := countMet(exitEvals)

	signal := chooseSignal(cfg, reports, entryMet, exitMet, len(exitEvals))
	confidence := scoreConfidence(reports, entryEvals, entryMet, signal)
	dissenting := collectDissent(reports, signal)

	d := &models.Decision{
		Subject:           subject,
		Signal:            signal,
		Confidence:        confidence,
		EntryRules:        entryEvals,
		ExitRules:         exitEvals,
		DissentingSignals: dissenting,
		CreatedAt:         time.Now().UTC(),
	}
	s.applySizing(d, risk, reports)
	d.Rationale = buildRationale(d, entryMet, len(entryEvals), exitMet, reports)

	return d, nil
}

// evaluateRuleSet applies the asymmetric missing-data policy: entry rules with
// no data to judge them default to MET (when the strategy says so), exit rules
// always default to NOT MET: an exit condition is never assumed true.
func evaluateRuleSet(rules []string, reports map[models.AgentName]*models.AgentReport, entry, missingEntryMet bool) []models.RuleEvaluation {
	out := make([]models.RuleEvaluation, 0, len(rules))
	for _, rule := range rules {
		o := evaluateRule(rule, reports)
		ev := models.RuleEvaluation{Rule: rule, Met: o.met, Evidence: o.evidence, Source: o.source}
		if !o.evaluated {
			ev.Source = "none"
			if entry && missingEntryMet {
				ev.Met = true
				ev.Evidence = "no data — assumed met"
			} else {
				ev.Met = false
				if entry {
					ev.Evidence = "no data — not met"
				} else {
					ev.Evidence = "no data — not triggered"
				}
			}
		}
		out = append(out, ev)
	}
	return out
}

// chooseSignal degrades from BUY toward HOLD, or to SELL when exit rules fire
// with sufficient conviction.
func chooseSignal(cfg *strategy.Config, reports map[models.AgentName]*models.AgentReport, entryMet, exitMet, exitTotal int) models.Signal {
	if exitMet > 0 {
		exitStrength := 1.0
		if exitTotal > 0 {
			exitStrength = float64(exitMet) / float64(exitTotal)
		}
		if exitStrength >= 0.5 || bearishMajority(reports) {
			return models.SignalSell
		}
		return models.SignalHold
	}
	if entryMet >= cfg.MinEntryRulesMet {
		return models.SignalBuy
	}
	return models.SignalHold
}

// scoreConfidence blends the fraction of entry rules met with the weighted
// agreement of agent leans toward the chosen signal. With zero reports the
// agreement term contributes nothing, so a rules-only decision stays degraded.
func scoreConfidence(reports map[models.AgentName]*models.AgentReport, entryEvals []models.RuleEvaluation, entryMet int, signal models.Signal) float64 {
	entryFrac := 0.0
	if len(entryEvals) > 0 {
		entryFrac = float64(entryMet) / float64(len(entryEvals))
	}

	agreement := 0.0
	if len(reports) > 0 {
		var score, total float64
		for _, rep := range reports {
			total += rep.Confidence
			switch {
			case leanMatches(rep.Lean, signal):
				score += rep.Confidence
			case leanOpposes(rep.Lean, signal):
				score -= rep.Confidence
			}
		}
		if total > 0 {
			agreement = 0.5 + 0.5*(score/total) // -1..1 → 0..1
		}
	}

	c := entryRuleWeight*entryFrac + agreementWeight*agreement
	return math.Round(c*100) / 100
}

// applySizing fills entry, offsets, position size, and risk/reward. The risk
// report supplies offsets when present; percentage defaults apply otherwise.
// An EXTREME volatility rating reduces the computed size by the configured
// fraction before the cap.
func (s *Synthesizer) applySizing(d *models.Decision, risk *strategy.RiskConfig, reports map[models.AgentName]*models.AgentReport) {
	entry := referencePrice(reports)
	d.Entry = entry

	var stopOffset, targetOffset float64
	if rr, ok := reports[models.AgentRisk]; ok && rr.Risk != nil && rr.Risk.SuggestedStop > 0 {
		stopOffset = rr.Risk.SuggestedStop
		targetOffset = rr.Risk.SuggestedTarget
	} else if entry > 0 {
		stopOffset = entry * risk.DefaultStopLossPct / 100
		targetOffset = entry * risk.DefaultTakeProfitPct / 100
	}
	d.StopLossOffset = stopOffset
	d.TakeProfitOffset = targetOffset
	if stopOffset > 0 {
		d.RiskReward = math.Round(targetOffset/stopOffset*100) / 100
	}

	riskDistancePct := risk.DefaultStopLossPct
	if entry > 0 && stopOffset > 0 {
		riskDistancePct = stopOffset / entry * 100
	}
	size := risk.MaxPositionPct
	if riskDistancePct > 0 {
		size = risk.MaxRiskPerTradePct / (riskDistancePct / 100)
	}
	if rr, ok := reports[models.AgentRisk]; ok && rr.Risk != nil && rr.Risk.Volatility == models.VolatilityExtreme {
		size *= 1 - risk.VolatilitySizeReduction
	}
	if size > risk.MaxPositionPct {
		size = risk.MaxPositionPct
	}
	d.PositionSizePct = math.Round(size*100) / 100
}

// collectDissent records every report whose own lean disagrees with the chosen
// signal, verbatim, rather than silently discarding it.
func collectDissent(reports map[models.AgentName]*models.AgentReport, signal models.Signal) []string {
	var out []string
	for _, name := range []models.AgentName{models.AgentTechnical, models.AgentFundamental, models.AgentSentiment, models.AgentRisk} {
		rep, ok := reports[name]
		if !ok {
			continue
		}
		if leanOpposes(rep.Lean, signal) || (signal != models.SignalHold && rep.Lean == models.LeanNeutral) {
			out = append(out, fmt.Sprintf("%s (%s): %s", name, rep.Lean, rep.Summary))
		}
	}
	return out
}

func buildRationale(d *models.Decision, entryMet, entryTotal, exitMet int, reports map[models.AgentName]*models.AgentReport) string {
	var missing []string
	for _, name := range []models.AgentName{models.AgentTechnical, models.AgentFundamental, models.AgentSentiment, models.AgentRisk} {
		if _, ok := reports[name]; !ok {
			missing = append(missing, string(name))
		}
	}
	b := fmt.Sprintf("%s: %d/%d entry rules met, %d exit rules triggered, %d agent reports available",
		d.Signal, entryMet, entryTotal, exitMet, len(reports))
	if len(missing) > 0 {
		b += "; no data from: " + strings.Join(missing, ", ")
	}
	return b
}

func referencePrice(reports map[models.AgentName]*models.AgentReport) float64 {
	if rep, ok := reports[models.AgentTechnical]; ok && rep.Technical != nil && rep.Technical.LastClose > 0 {
		return rep.Technical.LastClose
	}
	if rep, ok := reports[models.AgentRisk]; ok && rep.Risk != nil && rep.Risk.ReferencePrice > 0 {
		return rep.Risk.ReferencePrice
	}
	return 0
}

func bearishMajority(reports map[models.AgentName]*models.AgentReport) bool {
	var bearish, bullish float64
	for _, rep := range reports {
		switch rep.Lean {
		case models.LeanBearish:
			bearish += rep.Confidence
		case models.LeanBullish:
			bullish += rep.Confidence
		}
	}
	return bearish > bullish
}

func leanMatches(l models.Lean, s models.Signal) bool {
	return (l == models.LeanBullish && s == models.SignalBuy) ||
		(l == models.LeanBearish && s == models.SignalSell) ||
		(l == models.LeanNeutral && s == models.SignalHold)
}

func leanOpposes(l models.Lean, s models.Signal) bool {
	return (l == models.LeanBullish && s == models.SignalSell) ||
		(l == models.LeanBearish && s == models.SignalBuy)
}

func countMet(evals []models.RuleEvaluation) int {
	n := 0
	for _, e := range evals {
		if e.Met {
			n++
		}
	}
	return n
}
