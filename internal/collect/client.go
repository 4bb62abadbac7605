// Package collect implements the data-collection steps of a run. Each step is
// an opaque unit of work behind the repository.Collector interface; REST steps
// share one provider client so concurrent steps reuse memoized payloads.
package collect

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	"TradeScope/internal/domain/models"
	"TradeScope/pkg/logger"
	"TradeScope/pkg/util"
)

// Config holds market-data provider settings.
type Config struct {
	BaseURL          string
	APIKey           string
	Timeout          time.Duration
	LookbackDays     int
	MemoTTL          time.Duration
	RateCapacity     float64
	RateRefillPerSec float64
	WebsocketURL     string
	QuoteWait        time.Duration
}

// Client fetches market data over the provider REST API.
type Client struct {
	http    *resty.Client
	cfg     *Config
	memo    *Memo
	limiter *Limiter
	log     *logger.Logger
}

func NewClient(cfg *Config, log *logger.Logger) *Client {
	rc := resty.New().
		SetBaseURL(cfg.BaseURL).
		SetTimeout(cfg.Timeout).
		SetRetryCount(2).
		SetRetryWaitTime(300 * time.Millisecond)

	return &Client{
		http:    rc,
		cfg:     cfg,
		memo:    NewMemo(),
		limiter: NewLimiter(),
		log:     log,
	}
}

func (c *Client) get(ctx context.Context, path string, params map[string]string, out any) error {
	deadline := time.Now().Add(c.cfg.Timeout)
	if !c.limiter.Wait("provider", c.cfg.RateCapacity, c.cfg.RateRefillPerSec, deadline) {
		return fmt.Errorf("collect: rate limit wait exceeded for %s", path)
	}

	resp, err := c.http.R().
		SetContext(ctx).
		SetQueryParams(params).
		SetQueryParam("token", c.cfg.APIKey).
		Get(path)
	if err != nil {
		return fmt.Errorf("collect: fetch %s: %w", path, err)
	}
	if resp.StatusCode() != 200 {
		return fmt.Errorf("collect: %s returned %d: %s", path, resp.StatusCode(), strings.TrimSpace(resp.String()))
	}
	if err := json.Unmarshal(resp.Body(), out); err != nil {
		return fmt.Errorf("collect: parse %s response: %w", path, err)
	}
	return nil
}

type candleResponse struct {
	Status  string    `json:"s"`
	Times   []int64   `json:"t"`
	Opens   []float64 `json:"o"`
	Highs   []float64 `json:"h"`
	Lows    []float64 `json:"l"`
	Closes  []float64 `json:"c"`
	Volumes []float64 `json:"v"`
}

// Candles returns daily OHLCV bars for the lookback window, oldest first.
// Concurrent steps of the same run share one memoized fetch window.
func (c *Client) Candles(ctx context.Context, subject string) ([]models.Candle, error) {
	key := "candles:" + subject
	if v, ok := c.memo.Get(key); ok {
		return v.([]models.Candle), nil
	}

	to := time.Now().UTC()
	from := to.AddDate(0, 0, -c.cfg.LookbackDays)

	var raw candleResponse
	err := c.get(ctx, "/stock/candle", map[string]string{
		"symbol":     subject,
		"resolution": "D",
		"from":       fmt.Sprintf("%d", from.Unix()),
		"to":         fmt.Sprintf("%d", to.Unix()),
	}, &raw)
	if err != nil {
		return nil, err
	}
	if raw.Status != "ok" || len(raw.Times) == 0 {
		return nil, fmt.Errorf("collect: no candles for %s", subject)
	}

	n := len(raw.Times)
	candles := make([]models.Candle, 0, n)
	for i := 0; i < n; i++ {
		if i >= len(raw.Opens) || i >= len(raw.Highs) || i >= len(raw.Lows) || i >= len(raw.Closes) {
			break
		}
		var vol float64
		if i < len(raw.Volumes) {
			vol = raw.Volumes[i]
		}
		candles = append(candles, models.Candle{
			Bucket: time.Unix(raw.Times[i], 0).UTC(),
			Open:   raw.Opens[i],
			High:   raw.Highs[i],
			Low:    raw.Lows[i],
			Close:  raw.Closes[i],
			Volume: vol,
		})
	}
	sort.Slice(candles, func(i, j int) bool { return candles[i].Bucket.Before(candles[j].Bucket) })

	c.memo.Set(key, candles, c.cfg.MemoTTL)
	c.log.Debug("collected candles", logger.String("subject", subject), logger.Int("bars", len(candles)))
	return candles, nil
}

// metricAliases lists alternate spellings providers use for the same figure.
// Normalization happens here so everything downstream sees one name.
var metricAliases = map[string][]string{
	"market_cap":     {"marketCapitalization", "marketCap"},
	"pe_ratio":       {"peTTM", "peBasicExclExtraTTM", "peRatio"},
	"pb_ratio":       {"pbQuarterly", "pb", "pbRatio"},
	"eps":            {"epsTTM", "epsBasicExclExtraItemsTTM", "eps"},
	"dividend_yield": {"dividendYieldIndicatedAnnual", "currentDividendYieldTTM", "dividendYield"},
	"revenue_growth": {"revenueGrowthTTMYoy", "revenueGrowthQuarterlyYoy", "revenueGrowth"},
	"debt_to_equity": {"totalDebt/totalEquityQuarterly", "totalDebtToEquityQuarterly", "debtToEquity"},
}

// Fundamentals returns the valuation snapshot for a subject.
func (c *Client) Fundamentals(ctx context.Context, subject string) (*models.Fundamentals, error) {
	key := "fundamentals:" + subject
	if v, ok := c.memo.Get(key); ok {
		return v.(*models.Fundamentals), nil
	}

	var raw struct {
		Metric map[string]json.Number `json:"metric"`
	}
	err := c.get(ctx, "/stock/metric", map[string]string{
		"symbol": subject,
		"metric": "all",
	}, &raw)
	if err != nil {
		return nil, err
	}
	if len(raw.Metric) == 0 {
		return nil, fmt.Errorf("collect: no fundamentals for %s", subject)
	}

	pick := func(canonical string) float64 {
		for _, alias := range metricAliases[canonical] {
			if n, ok := raw.Metric[alias]; ok {
				if f, err := n.Float64(); err == nil {
					return f
				}
			}
		}
		return 0
	}

	f := &models.Fundamentals{
		MarketCap:     pick("market_cap"),
		PERatio:       pick("pe_ratio"),
		PBRatio:       pick("pb_ratio"),
		EPS:           pick("eps"),
		DividendYield: pick("dividend_yield"),
		RevenueGrowth: pick("revenue_growth"),
		DebtToEquity:  pick("debt_to_equity"),
	}

	c.memo.Set(key, f, c.cfg.MemoTTL)
	return f, nil
}

type newsItem struct {
	Headline string `json:"headline"`
	Source   string `json:"source"`
	Summary  string `json:"summary"`
	URL      string `json:"url"`
	DateTime int64  `json:"datetime"`
	Date     string `json:"date"`
}

// News returns company headlines for the lookback window, newest first.
func (c *Client) News(ctx context.Context, subject string) ([]models.NewsArticle, error) {
	key := "news:" + subject
	if v, ok := c.memo.Get(key); ok {
		return v.([]models.NewsArticle), nil
	}

	to := time.Now().UTC()
	from := to.AddDate(0, 0, -c.cfg.LookbackDays)

	var raw []newsItem
	err := c.get(ctx, "/company-news", map[string]string{
		"symbol": subject,
		"from":   from.Format(util.RunDateLayout),
		"to":     to.Format(util.RunDateLayout),
	}, &raw)
	if err != nil {
		return nil, err
	}

	articles := make([]models.NewsArticle, 0, len(raw))
	for _, it := range raw {
		if it.Headline == "" {
			continue
		}
		published := util.ParseTimeDefault(it.Date, time.Unix(it.DateTime, 0).UTC())
		articles = append(articles, models.NewsArticle{
			Headline:  it.Headline,
			Source:    it.Source,
			Summary:   it.Summary,
			URL:       it.URL,
			Published: published,
		})
	}
	sort.Slice(articles, func(i, j int) bool { return articles[i].Published.After(articles[j].Published) })

	c.memo.Set(key, articles, c.cfg.MemoTTL)
	c.log.Debug("collected news", logger.String("subject", subject), logger.Int("articles", len(articles)))
	return articles, nil
}

// Statements returns flattened income-statement rows from recent filings.
func (c *Client) Statements(ctx context.Context, subject string) ([]models.StatementRow, error) {
	key := "statements:" + subject
	if v, ok := c.memo.Get(key); ok {
		return v.([]models.StatementRow), nil
	}

	var raw struct {
		Data []struct {
			EndDate string `json:"endDate"`
			Report  struct {
				IncomeStatement []struct {
					Concept string      `json:"concept"`
					Label   string      `json:"label"`
					Value   json.Number `json:"value"`
				} `json:"ic"`
			} `json:"report"`
		} `json:"data"`
	}
	err := c.get(ctx, "/stock/financials-reported", map[string]string{
		"symbol": subject,
		"freq":   "quarterly",
	}, &raw)
	if err != nil {
		return nil, err
	}

	var rows []models.StatementRow
	for _, filing := range raw.Data {
		period := filing.EndDate
		if t, ok := util.ParseTime(filing.EndDate); ok {
			period = util.RunDate(t)
		}
		for _, line := range filing.Report.IncomeStatement {
			v, err := line.Value.Float64()
			if err != nil {
				continue
			}
			rows = append(rows, models.StatementRow{
				Period: period,
				Item:   normalizeLineItem(line.Concept, line.Label),
				Value:  v,
			})
		}
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("collect: no statements for %s", subject)
	}

	c.memo.Set(key, rows, c.cfg.MemoTTL)
	return rows, nil
}

// normalizeLineItem collapses provider concept spellings onto the canonical
// row names the fundamental analyst reads.
func normalizeLineItem(concept, label string) string {
	s := strings.ToLower(concept)
	if s == "" {
		s = strings.ToLower(label)
	}
	switch {
	case strings.Contains(s, "revenue"), strings.Contains(s, "sales"):
		return "revenue"
	case strings.Contains(s, "netincome"), strings.Contains(s, "net income"):
		return "net_income"
	case strings.Contains(s, "operatingincome"), strings.Contains(s, "operating income"):
		return "operating_income"
	case strings.Contains(s, "grossprofit"), strings.Contains(s, "gross profit"):
		return "gross_profit"
	default:
		return s
	}
}

// Quote returns the latest REST price snapshot, used when the live stream
// yields nothing within the wait window.
func (c *Client) Quote(ctx context.Context, subject string) (*models.Quote, error) {
	var raw struct {
		Current   float64 `json:"c"`
		Timestamp int64   `json:"t"`
	}
	if err := c.get(ctx, "/quote", map[string]string{"symbol": subject}, &raw); err != nil {
		return nil, err
	}
	if raw.Current == 0 {
		return nil, fmt.Errorf("collect: no quote for %s", subject)
	}
	return &models.Quote{
		Price:     raw.Current,
		Timestamp: time.Unix(raw.Timestamp, 0).UTC(),
	}, nil
}
