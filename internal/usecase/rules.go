package usecase

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"TradeScope/internal/domain/models"
)

// ruleOutcome is the raw verdict of matching one rule's text against the
// available reports. evaluated=false means no report could judge the rule and
// the strategy's missing-data policy decides instead.
type ruleOutcome struct {
	met       bool
	evaluated bool
	evidence  string
	source    string
}

// clauseVerdict is the result of one recognized clause inside a rule.
type clauseVerdict struct {
	met      bool
	evidence string
	source   string
}

var rsiPattern = regexp.MustCompile(`rsi\s+(?:is\s+)?(below|under|above|over)\s+(\d+(?:\.\d+)?)`)

// evaluateRule matches the rule text against whichever reports are present.
// Every recognized clause must hold for the rule to be MET; a clause whose
// backing report is absent leaves the whole rule unevaluated.
func evaluateRule(rule string, reports map[models.AgentName]*models.AgentReport) ruleOutcome {
	text := strings.ToLower(rule)

	var verdicts []clauseVerdict
	missing := false

	for _, m := range clauseMatchers {
		if !m.applies(text) {
			continue
		}
		v, ok := m.eval(text, reports)
		if !ok {
			missing = true
			continue
		}
		verdicts = append(verdicts, v)
	}

	if len(verdicts) == 0 || missing {
		return ruleOutcome{evaluated: false}
	}

	out := ruleOutcome{met: true, evaluated: true}
	var parts []string
	var sources []string
	for _, v := range verdicts {
		out.met = out.met && v.met
		parts = append(parts, v.evidence)
		sources = appendUnique(sources, v.source)
	}
	out.evidence = strings.Join(parts, "; ")
	out.source = strings.Join(sources, ",")
	return out
}

type clauseMatcher struct {
	applies func(text string) bool
	eval    func(text string, reports map[models.AgentName]*models.AgentReport) (clauseVerdict, bool)
}

var clauseMatchers = []clauseMatcher{
	{ // RSI threshold: "RSI below 70", "RSI above 80"
		applies: func(t string) bool { return rsiPattern.MatchString(t) },
		eval: func(t string, reports map[models.AgentName]*models.AgentReport) (clauseVerdict, bool) {
			tech := technicalOf(reports)
			if tech == nil {
				return clauseVerdict{}, false
			}
			m := rsiPattern.FindStringSubmatch(t)
			threshold, _ := strconv.ParseFloat(m[2], 64)
			below := m[1] == "below" || m[1] == "under"
			met := tech.RSI > threshold
			if below {
				met = tech.RSI < threshold
			}
			return clauseVerdict{
				met:      met,
				evidence: fmt.Sprintf("RSI %.1f vs %s %.0f", tech.RSI, m[1], threshold),
				source:   "technical",
			}, true
		},
	},
	{ // moving average position: "price above 20-day SMA", "below 50 SMA"
		applies: func(t string) bool { return strings.Contains(t, "sma") || strings.Contains(t, "moving average") },
		eval: func(t string, reports map[models.AgentName]*models.AgentReport) (clauseVerdict, bool) {
			tech := technicalOf(reports)
			if tech == nil {
				return clauseVerdict{}, false
			}
			above := tech.AboveSMA20
			which := "SMA20"
			if strings.Contains(t, "50") {
				above = tech.AboveSMA50
				which = "SMA50"
			}
			met := above
			if strings.Contains(t, "below") {
				met = !above
			}
			return clauseVerdict{
				met:      met,
				evidence: fmt.Sprintf("close %.2f %s %s", tech.LastClose, aboveBelow(above), which),
				source:   "technical",
			}, true
		},
	},
	{ // trend direction: "trend up", "downtrend"
		applies: func(t string) bool { return strings.Contains(t, "trend") },
		eval: func(t string, reports map[models.AgentName]*models.AgentReport) (clauseVerdict, bool) {
			tech := technicalOf(reports)
			if tech == nil {
				return clauseVerdict{}, false
			}
			want := "up"
			if strings.Contains(t, "down") {
				want = "down"
			}
			return clauseVerdict{
				met:      tech.Trend == want,
				evidence: fmt.Sprintf("trend is %s", tech.Trend),
				source:   "technical",
			}, true
		},
	},
	{ // MACD cross: "MACD bearish cross"
		applies: func(t string) bool { return strings.Contains(t, "macd") },
		eval: func(t string, reports map[models.AgentName]*models.AgentReport) (clauseVerdict, bool) {
			tech := technicalOf(reports)
			if tech == nil {
				return clauseVerdict{}, false
			}
			want := "bullish"
			if strings.Contains(t, "bearish") {
				want = "bearish"
			}
			return clauseVerdict{
				met:      tech.MACDCross == want,
				evidence: fmt.Sprintf("MACD cross is %s", orNone(tech.MACDCross)),
				source:   "technical",
			}, true
		},
	},
	{ // news sentiment: "sentiment not negative", "sentiment strongly negative"
		applies: func(t string) bool { return strings.Contains(t, "sentiment") || strings.Contains(t, "news") },
		eval: func(t string, reports map[models.AgentName]*models.AgentReport) (clauseVerdict, bool) {
			rep, ok := reports[models.AgentSentiment]
			if !ok || rep.Sentiment == nil {
				return clauseVerdict{}, false
			}
			score := rep.Sentiment.Score
			var met bool
			switch {
			case strings.Contains(t, "strongly negative"):
				met = score <= -0.5
			case strings.Contains(t, "not negative"):
				met = score > -0.15
			case strings.Contains(t, "negative"):
				met = score < -0.15
			case strings.Contains(t, "positive"):
				met = score > 0.15
			default:
				met = score >= 0
			}
			return clauseVerdict{
				met:      met,
				evidence: fmt.Sprintf("sentiment score %.2f over %d articles", score, rep.Sentiment.ArticleCount),
				source:   "sentiment",
			}, true
		},
	},
	{ // fundamentals: "fundamentals healthy", "undervalued"
		applies: func(t string) bool {
			return strings.Contains(t, "fundamental") || strings.Contains(t, "healthy") ||
				strings.Contains(t, "valuation") || strings.Contains(t, "undervalued") ||
				strings.Contains(t, "overvalued") || strings.Contains(t, "p/e")
		},
		eval: func(t string, reports map[models.AgentName]*models.AgentReport) (clauseVerdict, bool) {
			rep, ok := reports[models.AgentFundamental]
			if !ok || rep.Fundamental == nil {
				return clauseVerdict{}, false
			}
			f := rep.Fundamental
			var met bool
			switch {
			case strings.Contains(t, "undervalued"):
				met = f.Valuation == "undervalued"
			case strings.Contains(t, "overvalued"):
				met = f.Valuation == "overvalued"
			default:
				met = f.Healthy
			}
			return clauseVerdict{
				met:      met,
				evidence: fmt.Sprintf("%s valuation, healthy=%t", f.Valuation, f.Healthy),
				source:   "fundamental",
			}, true
		},
	},
	{ // volatility / drawdown: "volatility extreme"
		applies: func(t string) bool { return strings.Contains(t, "volatility") || strings.Contains(t, "drawdown") },
		eval: func(t string, reports map[models.AgentName]*models.AgentReport) (clauseVerdict, bool) {
			rep, ok := reports[models.AgentRisk]
			if !ok || rep.Risk == nil {
				return clauseVerdict{}, false
			}
			r := rep.Risk
			var met bool
			switch {
			case strings.Contains(t, "extreme"):
				met = r.Volatility == models.VolatilityExtreme
			case strings.Contains(t, "high"):
				met = r.Volatility == models.VolatilityHigh || r.Volatility == models.VolatilityExtreme
			case strings.Contains(t, "low"):
				met = r.Volatility == models.VolatilityLow
			default:
				met = r.Volatility != models.VolatilityExtreme
			}
			return clauseVerdict{
				met:      met,
				evidence: fmt.Sprintf("volatility %s, max drawdown %.1f%%", r.Volatility, r.MaxDrawdownPct),
				source:   "risk",
			}, true
		},
	},
}

func technicalOf(reports map[models.AgentName]*models.AgentReport) *models.TechnicalFindings {
	rep, ok := reports[models.AgentTechnical]
	if !ok || rep.Technical == nil {
		return nil
	}
	return rep.Technical
}

func aboveBelow(above bool) string {
	if above {
		return "above"
	}
	return "below"
}

func orNone(s string) string {
	if s == "" {
		return "none"
	}
	return s
}

func appendUnique(xs []string, s string) []string {
	for _, x := range xs {
		if x == s {
			return xs
		}
	}
	return append(xs, s)
}
