package collect

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"TradeScope/pkg/logger"
)

func newTestClient(t *testing.T, handler http.Handler) (*Client, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	log, err := logger.New(&logger.Config{Level: "error", Format: "json", Output: "stderr"})
	require.NoError(t, err)

	return NewClient(&Config{
		BaseURL:          srv.URL,
		APIKey:           "test-token",
		Timeout:          2 * time.Second,
		LookbackDays:     90,
		MemoTTL:          time.Minute,
		RateCapacity:     100,
		RateRefillPerSec: 100,
	}, log), srv
}

func TestCandlesParsesAndSorts(t *testing.T) {
	var calls atomic.Int32
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		assert.Equal(t, "/stock/candle", r.URL.Path)
		assert.Equal(t, "test-token", r.URL.Query().Get("token"))
		assert.Equal(t, "AAPL", r.URL.Query().Get("symbol"))
		assert.Equal(t, "D", r.URL.Query().Get("resolution"))
		// Bars deliberately out of order.
		w.Write([]byte(`{"s":"ok","t":[1700092800,1700006400],"o":[101,100],"h":[102,101],"l":[100,99],"c":[101.5,100.5],"v":[2000,1000]}`))
	}))

	candles, err := c.Candles(context.Background(), "AAPL")
	require.NoError(t, err)
	require.Len(t, candles, 2)
	assert.True(t, candles[0].Bucket.Before(candles[1].Bucket))
	assert.Equal(t, 100.5, candles[0].Close)
	assert.Equal(t, 101.5, candles[1].Close)

	// Second call is memoized; the server sees exactly one request.
	_, err = c.Candles(context.Background(), "AAPL")
	require.NoError(t, err)
	assert.Equal(t, int32(1), calls.Load())
}

func TestCandlesNoData(t *testing.T) {
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"s":"no_data"}`))
	}))

	_, err := c.Candles(context.Background(), "ZZZZ")
	require.Error(t, err)
}

func TestGetSurfacesHTTPErrors(t *testing.T) {
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "too many requests", http.StatusTooManyRequests)
	}))

	_, err := c.Quote(context.Background(), "AAPL")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "429")
}

func TestFundamentalsNormalizesAliases(t *testing.T) {
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/stock/metric", r.URL.Path)
		w.Write([]byte(`{"metric":{
			"peBasicExclExtraTTM": 18.2,
			"marketCapitalization": 2500000,
			"totalDebt/totalEquityQuarterly": 1.4,
			"revenueGrowthTTMYoy": 0.07
		}}`))
	}))

	f, err := c.Fundamentals(context.Background(), "AAPL")
	require.NoError(t, err)
	assert.Equal(t, 18.2, f.PERatio)
	assert.Equal(t, 2500000.0, f.MarketCap)
	assert.Equal(t, 1.4, f.DebtToEquity)
	assert.InDelta(t, 0.07, f.RevenueGrowth, 1e-9)
	assert.Zero(t, f.EPS)
}

func TestFundamentalsEmpty(t *testing.T) {
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"metric":{}}`))
	}))

	_, err := c.Fundamentals(context.Background(), "ZZZZ")
	require.Error(t, err)
}

func TestNewsSortsNewestFirstAndSkipsEmpty(t *testing.T) {
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/company-news", r.URL.Path)
		w.Write([]byte(`[
			{"headline":"older story","source":"wire","datetime":1700006400},
			{"headline":"","source":"wire","datetime":1700179200},
			{"headline":"newer story","source":"wire","date":"2023-11-16T12:00:00Z"}
		]`))
	}))

	news, err := c.News(context.Background(), "AAPL")
	require.NoError(t, err)
	require.Len(t, news, 2)
	assert.Equal(t, "newer story", news[0].Headline)
	assert.Equal(t, "older story", news[1].Headline)
}

func TestStatementsFlattensFilings(t *testing.T) {
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/stock/financials-reported", r.URL.Path)
		assert.Equal(t, "quarterly", r.URL.Query().Get("freq"))
		w.Write([]byte(`{"data":[{
			"endDate":"2026-06-30T00:00:00Z",
			"report":{"ic":[
				{"concept":"us-gaap_Revenues","label":"Revenue","value":1000},
				{"concept":"us-gaap_NetIncomeLoss","label":"Net income","value":200},
				{"concept":"","label":"Gross profit","value":450}
			]}
		}]}`))
	}))

	rows, err := c.Statements(context.Background(), "AAPL")
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, "2026-06-30", rows[0].Period)
	assert.Equal(t, "revenue", rows[0].Item)
	assert.Equal(t, 1000.0, rows[0].Value)
	assert.Equal(t, "net_income", rows[1].Item)
	assert.Equal(t, "gross_profit", rows[2].Item)
}

func TestQuoteRest(t *testing.T) {
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"c":187.33,"t":1700006400}`))
	}))

	q, err := c.Quote(context.Background(), "AAPL")
	require.NoError(t, err)
	assert.Equal(t, 187.33, q.Price)
	assert.Equal(t, int64(1700006400), q.Timestamp.Unix())
}

func TestQuoteZeroPrice(t *testing.T) {
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"c":0,"t":0}`))
	}))

	_, err := c.Quote(context.Background(), "ZZZZ")
	require.Error(t, err)
}
