package analysts

import (
	"math"
	"testing"

	"TradeScope/internal/domain/models"
)

func candlesFromCloses(closes ...float64) []models.Candle {
	out := make([]models.Candle, len(closes))
	for i, c := range closes {
		out[i] = models.Candle{Open: c, High: c * 1.01, Low: c * 0.99, Close: c, Volume: 1000}
	}
	return out
}

// zigzag builds n candles starting at base, alternating +up then -down per bar.
func zigzag(n int, base, up, down float64) []models.Candle {
	closes := make([]float64, n)
	price := base
	for i := range closes {
		if i%2 == 0 {
			price += up
		} else {
			price -= down
		}
		closes[i] = price
	}
	return candlesFromCloses(closes...)
}

func TestLogReturns(t *testing.T) {
	rets := logReturns(candlesFromCloses(100, 110, 99))
	if len(rets) != 2 {
		t.Fatalf("expected 2 returns, got %d", len(rets))
	}
	if math.Abs(rets[0]-math.Log(1.1)) > 1e-12 {
		t.Fatalf("unexpected first return %v", rets[0])
	}
	if rets := logReturns(candlesFromCloses(100)); rets != nil {
		t.Fatalf("expected nil for single bar")
	}
}

func TestLogReturnsSkipsNonPositiveCloses(t *testing.T) {
	rets := logReturns(candlesFromCloses(100, 0, 100))
	if rets[0] != 0 || rets[1] != 0 {
		t.Fatalf("expected zeroed returns around bad close, got %v", rets)
	}
}

func TestRealizedVolatility(t *testing.T) {
	flat := make([]float64, 40)
	if v := realizedVolatility(flat, 30, 252); v != 0 {
		t.Fatalf("constant returns must have zero volatility, got %v", v)
	}
	if v := realizedVolatility([]float64{0.01}, 30, 252); v != 0 {
		t.Fatalf("short series must return 0, got %v", v)
	}

	alternating := make([]float64, 40)
	for i := range alternating {
		if i%2 == 0 {
			alternating[i] = 0.01
		} else {
			alternating[i] = -0.01
		}
	}
	v := realizedVolatility(alternating, 30, 252)
	if v <= 0 {
		t.Fatalf("expected positive volatility")
	}
	// stdev ~0.01 annualized by sqrt(252) ~ 0.159
	if math.Abs(v-0.01*math.Sqrt(252)) > 0.01 {
		t.Fatalf("unexpected annualized volatility %v", v)
	}
}

func TestMaxDrawdown(t *testing.T) {
	dd := maxDrawdown(candlesFromCloses(100, 120, 90, 110))
	if math.Abs(dd-0.25) > 1e-12 {
		t.Fatalf("expected 25%% drawdown, got %v", dd)
	}
	if dd := maxDrawdown(candlesFromCloses(100, 101, 102)); dd != 0 {
		t.Fatalf("rising series has no drawdown, got %v", dd)
	}
}
