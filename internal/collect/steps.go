package collect

import (
	"context"
	"fmt"

	"TradeScope/internal/analysts"
	"TradeScope/internal/domain/models"
	"TradeScope/internal/domain/repository"
)

const minIndicatorBars = 35

// PriceHistory collects daily OHLCV bars.
type PriceHistory struct{ c *Client }

func NewPriceHistory(c *Client) repository.Collector { return &PriceHistory{c: c} }

func (s *PriceHistory) Step() models.StepName { return models.StepPriceHistory }

func (s *PriceHistory) Collect(ctx context.Context, subject string) (interface{}, error) {
	return s.c.Candles(ctx, subject)
}

// Technicals derives the indicator set from price history. It shares the
// memoized candle fetch with the price_history step, so running both costs
// one upstream call.
type Technicals struct{ c *Client }

func NewTechnicals(c *Client) repository.Collector { return &Technicals{c: c} }

func (s *Technicals) Step() models.StepName { return models.StepTechnicals }

func (s *Technicals) Collect(ctx context.Context, subject string) (interface{}, error) {
	candles, err := s.c.Candles(ctx, subject)
	if err != nil {
		return nil, err
	}
	if len(candles) < minIndicatorBars {
		return nil, fmt.Errorf("collect: need %d bars for indicators, got %d", minIndicatorBars, len(candles))
	}
	return analysts.ComputeIndicators(candles), nil
}

// FundamentalsStep collects the valuation snapshot.
type FundamentalsStep struct{ c *Client }

func NewFundamentals(c *Client) repository.Collector { return &FundamentalsStep{c: c} }

func (s *FundamentalsStep) Step() models.StepName { return models.StepFundamentals }

func (s *FundamentalsStep) Collect(ctx context.Context, subject string) (interface{}, error) {
	return s.c.Fundamentals(ctx, subject)
}

// News collects recent company headlines.
type News struct{ c *Client }

func NewNews(c *Client) repository.Collector { return &News{c: c} }

func (s *News) Step() models.StepName { return models.StepNews }

func (s *News) Collect(ctx context.Context, subject string) (interface{}, error) {
	return s.c.News(ctx, subject)
}

// Statements collects flattened financial statement rows.
type Statements struct{ c *Client }

func NewStatements(c *Client) repository.Collector { return &Statements{c: c} }

func (s *Statements) Step() models.StepName { return models.StepStatements }

func (s *Statements) Collect(ctx context.Context, subject string) (interface{}, error) {
	return s.c.Statements(ctx, subject)
}
