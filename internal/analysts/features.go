package analysts

import (
	"math"

	"TradeScope/internal/domain/models"
)

// logReturns computes r_t = ln(C_t / C_{t-1}) over a candle series.
// Returns a slice of length len(candles)-1, or nil if insufficient data.
func logReturns(candles []models.Candle) []float64 {
	if len(candles) < 2 {
		return nil
	}
	out := make([]float64, 0, len(candles)-1)
	for i := 1; i < len(candles); i++ {
		prev := candles[i-1].Close
		cur := candles[i].Close
		if prev <= 0 || cur <= 0 {
			out = append(out, 0)
			continue
		}
		out = append(out, math.Log(cur/prev))
	}
	return out
}

// realizedVolatility computes annualized realized volatility over the trailing
// window, given the number of bars per year for the series' timeframe.
func realizedVolatility(returns []float64, window int, barsPerYear float64) float64 {
	if window <= 1 || len(returns) < window {
		return 0
	}
	sum := 0.0
	sum2 := 0.0
	for i := len(returns) - window; i < len(returns); i++ {
		r := returns[i]
		sum += r
		sum2 += r * r
	}
	n := float64(window)
	mean := sum / n
	variance := (sum2 - n*mean*mean) / (n - 1)
	if variance < 0 {
		variance = 0
	}
	return math.Sqrt(variance * barsPerYear)
}

// maxDrawdown returns the largest peak-to-trough decline of the close series,
// as a fraction of the peak.
func maxDrawdown(candles []models.Candle) float64 {
	peak := 0.0
	worst := 0.0
	for _, c := range candles {
		if c.Close > peak {
			peak = c.Close
		}
		if peak > 0 {
			dd := (peak - c.Close) / peak
			if dd > worst {
				worst = dd
			}
		}
	}
	return worst
}

func lastOrZero(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	return xs[len(xs)-1]
}
