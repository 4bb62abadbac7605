// Package analysts implements the four analysis tasks launched by the agent
// coordinator. Each analyst is an independent unit of work that consumes
// collected data and returns an immutable report, or fails in isolation.
package analysts

import (
	"context"
	"fmt"
	"time"

	talib "github.com/markcheno/go-talib"

	"TradeScope/internal/domain/models"
)

const minBars = 60

// TechnicalAnalyst judges trend and momentum from price history.
type TechnicalAnalyst struct{}

func NewTechnicalAnalyst() *TechnicalAnalyst { return &TechnicalAnalyst{} }

func (a *TechnicalAnalyst) Name() models.AgentName { return models.AgentTechnical }

func (a *TechnicalAnalyst) Analyze(ctx context.Context, data *models.CollectedData) (*models.AgentReport, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if len(data.Candles) < minBars {
		return nil, fmt.Errorf("technical: need at least %d candles, got %d", minBars, len(data.Candles))
	}

	closes := make([]float64, len(data.Candles))
	for i, c := range data.Candles {
		closes[i] = c.Close
	}

	ind := data.Indicators
	if ind == nil {
		ind = ComputeIndicators(data.Candles)
	}
	last := closes[len(closes)-1]

	findings := &models.TechnicalFindings{
		LastClose:  last,
		RSI:        ind.RSI14,
		AboveSMA20: last > ind.SMA20,
		AboveSMA50: last > ind.SMA50,
	}

	switch {
	case findings.AboveSMA20 && findings.AboveSMA50:
		findings.Trend = "up"
	case !findings.AboveSMA20 && !findings.AboveSMA50:
		findings.Trend = "down"
	default:
		findings.Trend = "sideways"
	}

	if ind.MACD > ind.MACDSig {
		findings.MACDCross = "bullish"
	} else if ind.MACD < ind.MACDSig {
		findings.MACDCross = "bearish"
	}

	lean := models.LeanNeutral
	confidence := 0.5
	switch {
	case findings.Trend == "up" && ind.RSI14 < 70:
		lean = models.LeanBullish
		confidence = 0.6 + 0.3*(70-ind.RSI14)/70
	case findings.Trend == "down" || ind.RSI14 > 80:
		lean = models.LeanBearish
		confidence = 0.65
	}

	return &models.AgentReport{
		Agent:      models.AgentTechnical,
		Lean:       lean,
		Confidence: clamp01(confidence),
		Summary: fmt.Sprintf("trend %s, RSI %.1f, MACD %s, close %.2f",
			findings.Trend, ind.RSI14, orDash(findings.MACDCross), last),
		CreatedAt: time.Now().UTC(),
		Technical: findings,
	}, nil
}

// ComputeIndicators derives the standard indicator set from a candle series.
// Also used by the technicals collection step so the step payload and the
// agent see identical figures.
func ComputeIndicators(candles []models.Candle) *models.IndicatorSet {
	n := len(candles)
	closes := make([]float64, n)
	highs := make([]float64, n)
	lows := make([]float64, n)
	for i, c := range candles {
		closes[i] = c.Close
		highs[i] = c.High
		lows[i] = c.Low
	}

	out := &models.IndicatorSet{}
	if n >= 20 {
		out.SMA20 = lastOrZero(talib.Sma(closes, 20))
	}
	if n >= 50 {
		out.SMA50 = lastOrZero(talib.Sma(closes, 50))
	}
	if n >= 15 {
		out.RSI14 = lastOrZero(talib.Rsi(closes, 14))
		out.ATR14 = lastOrZero(talib.Atr(highs, lows, closes, 14))
	}
	if n >= 35 {
		macd, sig, _ := talib.Macd(closes, 12, 26, 9)
		out.MACD = lastOrZero(macd)
		out.MACDSig = lastOrZero(sig)
	}
	return out
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
