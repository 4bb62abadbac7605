package analysts

import (
	"context"
	"fmt"
	"time"

	"TradeScope/internal/domain/models"
)

// FundamentalAnalyst grades valuation and balance-sheet health.
type FundamentalAnalyst struct{}

func NewFundamentalAnalyst() *FundamentalAnalyst { return &FundamentalAnalyst{} }

func (a *FundamentalAnalyst) Name() models.AgentName { return models.AgentFundamental }

func (a *FundamentalAnalyst) Analyze(ctx context.Context, data *models.CollectedData) (*models.AgentReport, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	f := data.Fundamentals
	if f == nil {
		return nil, fmt.Errorf("fundamental: no fundamentals collected")
	}

	findings := &models.FundamentalFindings{
		PERatio:       f.PERatio,
		RevenueGrowth: f.RevenueGrowth,
		DebtToEquity:  f.DebtToEquity,
	}

	switch {
	case f.PERatio > 0 && f.PERatio < 15:
		findings.Valuation = "undervalued"
	case f.PERatio > 35 || f.PERatio <= 0:
		findings.Valuation = "overvalued"
	default:
		findings.Valuation = "fair"
	}
	findings.Healthy = f.DebtToEquity < 2.0 && f.RevenueGrowth > 0

	// Statement rows refine the growth judgment when the statements step ran.
	if g, ok := latestRevenueGrowth(data.Statements); ok {
		findings.RevenueGrowth = g
		findings.Healthy = findings.Healthy && g > -0.05
	}

	lean := models.LeanNeutral
	confidence := 0.5
	switch {
	case findings.Valuation == "undervalued" && findings.Healthy:
		lean = models.LeanBullish
		confidence = 0.75
	case findings.Valuation == "overvalued" && !findings.Healthy:
		lean = models.LeanBearish
		confidence = 0.7
	case !findings.Healthy:
		lean = models.LeanBearish
		confidence = 0.55
	case findings.Healthy:
		lean = models.LeanBullish
		confidence = 0.55
	}

	return &models.AgentReport{
		Agent:      models.AgentFundamental,
		Lean:       lean,
		Confidence: clamp01(confidence),
		Summary: fmt.Sprintf("%s valuation (P/E %.1f), revenue growth %.1f%%, D/E %.2f, healthy=%t",
			findings.Valuation, f.PERatio, findings.RevenueGrowth*100, f.DebtToEquity, findings.Healthy),
		CreatedAt:   time.Now().UTC(),
		Fundamental: findings,
	}, nil
}

// latestRevenueGrowth derives period-over-period revenue growth from statement
// rows, if at least two revenue periods are present.
func latestRevenueGrowth(rows []models.StatementRow) (float64, bool) {
	var revs []float64
	for _, r := range rows {
		if r.Item == "revenue" {
			revs = append(revs, r.Value)
		}
	}
	if len(revs) < 2 {
		return 0, false
	}
	prev := revs[len(revs)-2]
	cur := revs[len(revs)-1]
	if prev <= 0 {
		return 0, false
	}
	return (cur - prev) / prev, true
}
