package analysts

import (
	"context"
	"fmt"
	"time"

	talib "github.com/markcheno/go-talib"

	"TradeScope/internal/domain/models"
)

// barsPerYearDaily annualizes daily-bar return series.
const barsPerYearDaily = 252

// RiskAnalyst grades volatility and proposes stop/target offsets.
type RiskAnalyst struct{}

func NewRiskAnalyst() *RiskAnalyst { return &RiskAnalyst{} }

func (a *RiskAnalyst) Name() models.AgentName { return models.AgentRisk }

func (a *RiskAnalyst) Analyze(ctx context.Context, data *models.CollectedData) (*models.AgentReport, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if len(data.Candles) < minBars {
		return nil, fmt.Errorf("risk: need at least %d candles, got %d", minBars, len(data.Candles))
	}

	rets := logReturns(data.Candles)
	window := 30
	if len(rets) < window {
		window = len(rets)
	}
	sigma := realizedVolatility(rets, window, barsPerYearDaily)

	n := len(data.Candles)
	highs := make([]float64, n)
	lows := make([]float64, n)
	closes := make([]float64, n)
	for i, c := range data.Candles {
		highs[i] = c.High
		lows[i] = c.Low
		closes[i] = c.Close
	}
	atr := lastOrZero(talib.Atr(highs, lows, closes, 14))

	ref := closes[n-1]
	if data.Quote != nil && data.Quote.Price > 0 {
		ref = data.Quote.Price
	}

	findings := &models.RiskFindings{
		Volatility:      rateVolatility(sigma),
		AnnualizedSigma: sigma,
		ATR:             atr,
		SuggestedStop:   1.5 * atr,
		SuggestedTarget: 3.0 * atr,
		MaxDrawdownPct:  maxDrawdown(data.Candles) * 100,
		ReferencePrice:  ref,
	}

	lean := models.LeanNeutral
	confidence := 0.6
	switch findings.Volatility {
	case models.VolatilityExtreme:
		lean = models.LeanBearish
		confidence = 0.8
	case models.VolatilityHigh:
		lean = models.LeanBearish
		confidence = 0.55
	case models.VolatilityLow:
		lean = models.LeanBullish
		confidence = 0.55
	}

	return &models.AgentReport{
		Agent:      models.AgentRisk,
		Lean:       lean,
		Confidence: clamp01(confidence),
		Summary: fmt.Sprintf("volatility %s (sigma %.2f), ATR %.2f, max drawdown %.1f%%",
			findings.Volatility, sigma, atr, findings.MaxDrawdownPct),
		CreatedAt: time.Now().UTC(),
		Risk:      findings,
	}, nil
}

// rateVolatility buckets annualized sigma into the rating consumed by sizing.
func rateVolatility(sigma float64) models.VolatilityRating {
	switch {
	case sigma >= 0.80:
		return models.VolatilityExtreme
	case sigma >= 0.45:
		return models.VolatilityHigh
	case sigma < 0.15:
		return models.VolatilityLow
	default:
		return models.VolatilityNormal
	}
}
