package analysts

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"TradeScope/internal/domain/models"
)

func TestFundamentalAnalystNeedsData(t *testing.T) {
	_, err := NewFundamentalAnalyst().Analyze(context.Background(), &models.CollectedData{Subject: "AAPL"})
	require.Error(t, err)
}

func TestFundamentalAnalystUndervaluedHealthy(t *testing.T) {
	data := &models.CollectedData{
		Subject: "AAPL",
		Fundamentals: &models.Fundamentals{
			PERatio: 10, RevenueGrowth: 0.12, DebtToEquity: 0.5,
		},
	}

	rep, err := NewFundamentalAnalyst().Analyze(context.Background(), data)
	require.NoError(t, err)

	require.NotNil(t, rep.Fundamental)
	assert.Equal(t, "undervalued", rep.Fundamental.Valuation)
	assert.True(t, rep.Fundamental.Healthy)
	assert.Equal(t, models.LeanBullish, rep.Lean)
	assert.Equal(t, 0.75, rep.Confidence)
}

func TestFundamentalAnalystOvervaluedUnhealthy(t *testing.T) {
	data := &models.CollectedData{
		Subject: "AAPL",
		Fundamentals: &models.Fundamentals{
			PERatio: 42, RevenueGrowth: -0.08, DebtToEquity: 3.1,
		},
	}

	rep, err := NewFundamentalAnalyst().Analyze(context.Background(), data)
	require.NoError(t, err)

	assert.Equal(t, "overvalued", rep.Fundamental.Valuation)
	assert.False(t, rep.Fundamental.Healthy)
	assert.Equal(t, models.LeanBearish, rep.Lean)
}

func TestFundamentalAnalystNegativePEIsOvervalued(t *testing.T) {
	data := &models.CollectedData{
		Subject:      "AAPL",
		Fundamentals: &models.Fundamentals{PERatio: -4, RevenueGrowth: 0.05, DebtToEquity: 0.4},
	}

	rep, err := NewFundamentalAnalyst().Analyze(context.Background(), data)
	require.NoError(t, err)
	assert.Equal(t, "overvalued", rep.Fundamental.Valuation)
}

func TestFundamentalAnalystStatementsRefineGrowth(t *testing.T) {
	data := &models.CollectedData{
		Subject:      "AAPL",
		Fundamentals: &models.Fundamentals{PERatio: 12, RevenueGrowth: 0.10, DebtToEquity: 0.5},
		Statements: []models.StatementRow{
			{Period: "2026-Q1", Item: "revenue", Value: 100},
			{Period: "2026-Q1", Item: "net_income", Value: 20},
			{Period: "2026-Q2", Item: "revenue", Value: 90},
		},
	}

	rep, err := NewFundamentalAnalyst().Analyze(context.Background(), data)
	require.NoError(t, err)

	// Reported revenue fell 10% quarter over quarter; health flips off.
	assert.InDelta(t, -0.10, rep.Fundamental.RevenueGrowth, 1e-9)
	assert.False(t, rep.Fundamental.Healthy)
}

func TestLatestRevenueGrowth(t *testing.T) {
	_, ok := latestRevenueGrowth([]models.StatementRow{{Item: "revenue", Value: 100}})
	assert.False(t, ok)

	g, ok := latestRevenueGrowth([]models.StatementRow{
		{Item: "revenue", Value: 100},
		{Item: "revenue", Value: 110},
	})
	require.True(t, ok)
	assert.InDelta(t, 0.10, g, 1e-9)
}
