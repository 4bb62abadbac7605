package models

import "time"

// Candle is one OHLCV bar of collected price history.
type Candle struct {
	Bucket time.Time `json:"t"`
	Open   float64   `json:"o"`
	High   float64   `json:"h"`
	Low    float64   `json:"l"`
	Close  float64   `json:"c"`
	Volume float64   `json:"v"`
}

// IndicatorSet holds precomputed technical indicators for a subject.
type IndicatorSet struct {
	SMA20   float64 `json:"sma_20"`
	SMA50   float64 `json:"sma_50"`
	RSI14   float64 `json:"rsi_14"`
	MACD    float64 `json:"macd"`
	MACDSig float64 `json:"macd_signal"`
	ATR14   float64 `json:"atr_14"`
}

// Fundamentals is a snapshot of company financial ratios.
type Fundamentals struct {
	MarketCap     float64 `json:"market_cap"`
	PERatio       float64 `json:"pe_ratio"`
	PBRatio       float64 `json:"pb_ratio"`
	EPS           float64 `json:"eps"`
	DividendYield float64 `json:"dividend_yield"`
	RevenueGrowth float64 `json:"revenue_growth"`
	DebtToEquity  float64 `json:"debt_to_equity"`
}

// NewsArticle is one collected headline.
type NewsArticle struct {
	Headline  string    `json:"headline"`
	Source    string    `json:"source"`
	Summary   string    `json:"summary"`
	URL       string    `json:"url"`
	Published time.Time `json:"published"`
}

// StatementRow is one line item from a financial statement.
type StatementRow struct {
	Period string  `json:"period"`
	Item   string  `json:"item"`
	Value  float64 `json:"value"`
}

// Quote is a live price snapshot.
type Quote struct {
	Price     float64   `json:"price"`
	Volume    float64   `json:"volume"`
	Timestamp time.Time `json:"timestamp"`
}

// CollectedData aggregates step outputs for the agent phase. Fields are nil
// when the corresponding step did not run or failed.
type CollectedData struct {
	Subject      string
	Candles      []Candle
	Indicators   *IndicatorSet
	Fundamentals *Fundamentals
	News         []NewsArticle
	Statements   []StatementRow
	Quote        *Quote
}

// Lean is the directional vote an agent report contributes to synthesis.
type Lean string

const (
	LeanBullish Lean = "bullish"
	LeanBearish Lean = "bearish"
	LeanNeutral Lean = "neutral"
)

// VolatilityRating grades current volatility for position sizing.
type VolatilityRating string

const (
	VolatilityLow     VolatilityRating = "LOW"
	VolatilityNormal  VolatilityRating = "NORMAL"
	VolatilityHigh    VolatilityRating = "HIGH"
	VolatilityExtreme VolatilityRating = "EXTREME"
)

// TechnicalFindings is the technical agent's section of a report.
type TechnicalFindings struct {
	LastClose  float64  `json:"last_close"`
	Trend      string   `json:"trend"` // "up", "down", "sideways"
	RSI        float64  `json:"rsi"`
	MACDCross  string   `json:"macd_cross,omitempty"` // "bullish", "bearish", ""
	AboveSMA20 bool     `json:"above_sma_20"`
	AboveSMA50 bool     `json:"above_sma_50"`
	KeyLevels  []string `json:"key_levels,omitempty"`
}

// FundamentalFindings is the fundamental agent's section of a report.
type FundamentalFindings struct {
	Valuation     string  `json:"valuation"` // "undervalued", "fair", "overvalued"
	PERatio       float64 `json:"pe_ratio"`
	RevenueGrowth float64 `json:"revenue_growth"`
	DebtToEquity  float64 `json:"debt_to_equity"`
	Healthy       bool    `json:"healthy"`
}

// SentimentFindings is the sentiment agent's section of a report.
type SentimentFindings struct {
	Score         float64 `json:"score"` // -1..1
	ArticleCount  int     `json:"article_count"`
	PositiveCount int     `json:"positive_count"`
	NegativeCount int     `json:"negative_count"`
	TopHeadline   string  `json:"top_headline,omitempty"`
}

// RiskFindings is the risk agent's section of a report.
type RiskFindings struct {
	Volatility       VolatilityRating `json:"volatility"`
	AnnualizedSigma  float64          `json:"annualized_sigma"`
	ATR              float64          `json:"atr"`
	SuggestedStop    float64          `json:"suggested_stop_offset"`    // price offset below entry
	SuggestedTarget  float64          `json:"suggested_target_offset"`  // price offset above entry
	MaxDrawdownPct   float64          `json:"max_drawdown_pct"`
	ReferencePrice   float64          `json:"reference_price"`
}

// AgentReport is the canonical report schema shared by all agents. Exactly one
// findings section is set, matching the Agent field. Alternate spellings of
// metric names are normalized at the collector boundary, never here.
type AgentReport struct {
	Agent      AgentName `json:"agent"`
	Lean       Lean      `json:"lean"`
	Confidence float64   `json:"confidence"` // 0..1
	Summary    string    `json:"summary"`
	CreatedAt  time.Time `json:"created_at"`

	Technical   *TechnicalFindings   `json:"technical,omitempty"`
	Fundamental *FundamentalFindings `json:"fundamental,omitempty"`
	Sentiment   *SentimentFindings   `json:"sentiment,omitempty"`
	Risk        *RiskFindings        `json:"risk,omitempty"`
}
