package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	models "TradeScope/internal/domain/models"
	domrepo "TradeScope/internal/domain/repository"
	"TradeScope/internal/repository"
	"TradeScope/pkg/cache"
	xlogger "TradeScope/pkg/logger"
)

type countingMetrics struct {
	hits, misses int
}

func (m *countingMetrics) RecordStepDuration(string, float64)  {}
func (m *countingMetrics) RecordAgentDuration(string, float64) {}
func (m *countingMetrics) RecordDecision(string)               {}
func (m *countingMetrics) RecordError(string)                  {}
func (m *countingMetrics) RecordCacheHit(hit bool) {
	if hit {
		m.hits++
	} else {
		m.misses++
	}
}

func newCachedHandler(t *testing.T) (*AnalysisHandler, domrepo.ResultStore, *countingMetrics) {
	t.Helper()
	log, err := xlogger.New(&xlogger.Config{Level: "error", Format: "json", Output: "stderr"})
	require.NoError(t, err)

	store := repository.NewRedisResultStore(cache.NewMemoryCache(), time.Hour)
	metrics := &countingMetrics{}
	return NewAnalysisHandler(log, nil, store, metrics), store, metrics
}

func doCached(t *testing.T, h *AnalysisHandler, query string) (*httptest.ResponseRecorder, map[string]interface{}) {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/api/analysis/cached?"+query, nil)
	rec := httptest.NewRecorder()
	require.NoError(t, h.Cached(e.NewContext(req, rec)))

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return rec, body
}

func TestCachedMiss(t *testing.T) {
	h, _, metrics := newCachedHandler(t)

	rec, body := doCached(t, h, "symbol=AAPL")
	assert.Equal(t, http.StatusOK, rec.Code)

	// The cached read returns the object bare, no response envelope.
	assert.Equal(t, false, body["cached"])
	assert.NotContains(t, body, "data")
	assert.Equal(t, 1, metrics.misses)
	assert.Equal(t, 0, metrics.hits)
}

func TestCachedHit(t *testing.T) {
	h, store, metrics := newCachedHandler(t)

	entry := &models.CacheEntry{
		Subject: "AAPL",
		Date:    "2026-08-26",
		Agents: map[models.AgentName]*models.AgentReport{
			models.AgentTechnical: {Agent: models.AgentTechnical, Lean: models.LeanBullish, Confidence: 0.8},
		},
		Decision: &models.Decision{Subject: "AAPL", Signal: models.SignalBuy, Confidence: 0.75},
	}
	require.NoError(t, store.Put(context.Background(), entry))

	// Symbol is normalized before the lookup.
	rec, body := doCached(t, h, "symbol=aapl")
	assert.Equal(t, http.StatusOK, rec.Code)

	assert.Equal(t, true, body["cached"])
	assert.Equal(t, "2026-08-26", body["date"])
	decision := body["decision"].(map[string]interface{})
	assert.Equal(t, "BUY", decision["signal"])
	assert.Equal(t, 1, metrics.hits)
}

func TestCachedRequiresSymbol(t *testing.T) {
	h, _, _ := newCachedHandler(t)

	// Validation failures keep the standard envelope.
	rec, body := doCached(t, h, "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, float64(http.StatusBadRequest), body["status"])
}
