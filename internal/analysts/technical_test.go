package analysts

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"TradeScope/internal/domain/models"
)

func TestTechnicalAnalystNeedsHistory(t *testing.T) {
	a := NewTechnicalAnalyst()
	_, err := a.Analyze(context.Background(), &models.CollectedData{
		Subject: "AAPL",
		Candles: candlesFromCloses(100, 101),
	})
	require.Error(t, err)
}

func TestTechnicalAnalystUptrend(t *testing.T) {
	// +1 / -0.5 alternation: net uptrend with enough pullbacks to keep RSI
	// under the overbought band.
	data := &models.CollectedData{Subject: "AAPL", Candles: zigzag(80, 100, 1, 0.5)}

	rep, err := NewTechnicalAnalyst().Analyze(context.Background(), data)
	require.NoError(t, err)

	require.NotNil(t, rep.Technical)
	assert.Equal(t, "up", rep.Technical.Trend)
	assert.True(t, rep.Technical.AboveSMA20)
	assert.True(t, rep.Technical.AboveSMA50)
	assert.Less(t, rep.Technical.RSI, 70.0)
	assert.Equal(t, models.LeanBullish, rep.Lean)
	assert.Greater(t, rep.Confidence, 0.5)
}

func TestTechnicalAnalystDowntrend(t *testing.T) {
	data := &models.CollectedData{Subject: "AAPL", Candles: zigzag(80, 200, 0.5, 1)}

	rep, err := NewTechnicalAnalyst().Analyze(context.Background(), data)
	require.NoError(t, err)

	assert.Equal(t, "down", rep.Technical.Trend)
	assert.Equal(t, models.LeanBearish, rep.Lean)
}

func TestTechnicalAnalystUsesPrecomputedIndicators(t *testing.T) {
	candles := zigzag(80, 100, 1, 0.5)
	ind := ComputeIndicators(candles)
	data := &models.CollectedData{Subject: "AAPL", Candles: candles, Indicators: ind}

	rep, err := NewTechnicalAnalyst().Analyze(context.Background(), data)
	require.NoError(t, err)
	assert.Equal(t, ind.RSI14, rep.Technical.RSI)
}

func TestComputeIndicators(t *testing.T) {
	short := ComputeIndicators(candlesFromCloses(100, 101, 102))
	assert.Zero(t, short.SMA20)
	assert.Zero(t, short.RSI14)

	ind := ComputeIndicators(zigzag(80, 100, 1, 0.5))
	assert.Greater(t, ind.SMA20, ind.SMA50) // rising series
	assert.Greater(t, ind.RSI14, 0.0)
	assert.Less(t, ind.RSI14, 100.0)
	assert.Greater(t, ind.ATR14, 0.0)
	assert.Greater(t, ind.MACD, 0.0)
}

func TestTechnicalAnalystRespectsCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := NewTechnicalAnalyst().Analyze(ctx, &models.CollectedData{Candles: zigzag(80, 100, 1, 0.5)})
	require.Error(t, err)
}
