package repository

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"TradeScope/internal/domain/models"
	domrepo "TradeScope/internal/domain/repository"
	"TradeScope/pkg/cache"
)

func entry(subject, date string, signal models.Signal) *models.CacheEntry {
	return &models.CacheEntry{
		Subject: subject,
		Date:    date,
		Agents: map[models.AgentName]*models.AgentReport{
			models.AgentTechnical: {Agent: models.AgentTechnical, Lean: models.LeanBullish, Confidence: 0.8},
		},
		Decision: &models.Decision{Subject: subject, Signal: signal, Confidence: 0.7},
	}
}

func TestResultStoreRoundTrip(t *testing.T) {
	store := NewRedisResultStore(cache.NewMemoryCache(), time.Hour)
	ctx := context.Background()

	require.NoError(t, store.Put(ctx, entry("AAPL", "2026-08-26", models.SignalBuy)))

	got, err := store.Get(ctx, "AAPL")
	require.NoError(t, err)
	assert.Equal(t, "AAPL", got.Subject)
	assert.Equal(t, "2026-08-26", got.Date)
	require.NotNil(t, got.Decision)
	assert.Equal(t, models.SignalBuy, got.Decision.Signal)
	require.Contains(t, got.Agents, models.AgentTechnical)
	assert.Equal(t, models.LeanBullish, got.Agents[models.AgentTechnical].Lean)
}

func TestResultStoreMiss(t *testing.T) {
	store := NewRedisResultStore(cache.NewMemoryCache(), time.Hour)

	_, err := store.Get(context.Background(), "TSLA")
	assert.ErrorIs(t, err, domrepo.ErrNotFound)
}

func TestResultStoreLatestPointerFollowsNewestDate(t *testing.T) {
	store := NewRedisResultStore(cache.NewMemoryCache(), time.Hour)
	ctx := context.Background()

	require.NoError(t, store.Put(ctx, entry("AAPL", "2026-08-25", models.SignalHold)))
	require.NoError(t, store.Put(ctx, entry("AAPL", "2026-08-26", models.SignalBuy)))

	got, err := store.Get(ctx, "AAPL")
	require.NoError(t, err)
	assert.Equal(t, "2026-08-26", got.Date)
	assert.Equal(t, models.SignalBuy, got.Decision.Signal)
}

func TestResultStoreSameDayOverwrite(t *testing.T) {
	store := NewRedisResultStore(cache.NewMemoryCache(), time.Hour)
	ctx := context.Background()

	require.NoError(t, store.Put(ctx, entry("AAPL", "2026-08-26", models.SignalHold)))
	require.NoError(t, store.Put(ctx, entry("AAPL", "2026-08-26", models.SignalSell)))

	got, err := store.Get(ctx, "AAPL")
	require.NoError(t, err)
	assert.Equal(t, models.SignalSell, got.Decision.Signal)
}

func TestResultStoreRejectsIncompleteEntry(t *testing.T) {
	store := NewRedisResultStore(cache.NewMemoryCache(), time.Hour)

	assert.Error(t, store.Put(context.Background(), nil))
	assert.Error(t, store.Put(context.Background(), &models.CacheEntry{Subject: "AAPL"}))
}
