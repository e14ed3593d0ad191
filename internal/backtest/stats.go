package backtest

import (
	"math"
	"time"

	"github.com/rzzdr/options-backtester/pkg/models"
)

// Summary aggregates performance statistics over a completed run.
type Summary struct {
	StartDate            time.Time `json:"start_date"`
	EndDate              time.Time `json:"end_date"`
	TradingDays          int       `json:"trading_days"`
	FinalValue           float64   `json:"final_value"`
	TotalReturn          float64   `json:"total_return"`
	AnnualizedReturn     float64   `json:"annualized_return"`
	AnnualizedVolatility float64   `json:"annualized_volatility"`
	SharpeRatio          float64   `json:"sharpe_ratio"`
	MaxDrawdown          float64   `json:"max_drawdown"`
	WinRate              float64   `json:"win_rate"`
	NumTrades            int       `json:"num_trades"`
}

// Summarize computes performance statistics from daily result rows.
// Returns a zero Summary when there are no rows.
func Summarize(results []models.DailyResult, trades []models.TradeRecord, riskFreeRate float64) Summary {
	if len(results) == 0 {
		return Summary{}
	}

	first, last := results[0], results[len(results)-1]
	s := Summary{
		StartDate:   first.Date,
		EndDate:     last.Date,
		TradingDays: len(results),
		FinalValue:  last.PortfolioValue,
		TotalReturn: last.TotalReturn,
		NumTrades:   len(trades),
	}

	years := float64(len(results)) / 252.0
	if years > 0 {
		s.AnnualizedReturn = math.Pow(1+s.TotalReturn, 1/years) - 1
	}

	returns := dailyReturns(results)
	s.AnnualizedVolatility = stddev(returns) * math.Sqrt(252)
	if s.AnnualizedVolatility > 0 {
		s.SharpeRatio = (s.AnnualizedReturn - riskFreeRate) / s.AnnualizedVolatility
	}
	s.MaxDrawdown = maxDrawdown(results)
	s.WinRate = winRate(returns)

	return s
}

// dailyReturns computes day-over-day percentage changes of portfolio value.
func dailyReturns(results []models.DailyResult) []float64 {
	var out []float64
	for i := 1; i < len(results); i++ {
		prev := results[i-1].PortfolioValue
		if prev == 0 {
			continue
		}
		out = append(out, (results[i].PortfolioValue-prev)/prev)
	}
	return out
}

func stddev(xs []float64) float64 {
	if len(xs) < 2 {
		return 0
	}
	var mean float64
	for _, x := range xs {
		mean += x
	}
	mean /= float64(len(xs))

	var ss float64
	for _, x := range xs {
		d := x - mean
		ss += d * d
	}
	return math.Sqrt(ss / float64(len(xs)-1))
}

// maxDrawdown is the deepest peak-to-trough decline of portfolio value,
// reported as a non-positive fraction of the peak.
func maxDrawdown(results []models.DailyResult) float64 {
	peak := math.Inf(-1)
	maxDD := 0.0
	for _, r := range results {
		if r.PortfolioValue > peak {
			peak = r.PortfolioValue
		}
		if peak > 0 {
			dd := (r.PortfolioValue - peak) / peak
			if dd < maxDD {
				maxDD = dd
			}
		}
	}
	return maxDD
}

func winRate(returns []float64) float64 {
	if len(returns) == 0 {
		return 0
	}
	wins := 0
	for _, r := range returns {
		if r > 0 {
			wins++
		}
	}
	return float64(wins) / float64(len(returns))
}
