package backtest

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rzzdr/options-backtester/internal/market"
	"github.com/rzzdr/options-backtester/internal/pricing"
	"github.com/rzzdr/options-backtester/internal/strategy"
	"github.com/rzzdr/options-backtester/pkg/models"
)

func day(d int) time.Time {
	return time.Date(2024, time.March, d, 0, 0, 0, 0, time.UTC)
}

func flatMarket(t *testing.T, spot float64, days int) *market.Context {
	t.Helper()
	obs := make([]market.Observation, days)
	for i := range obs {
		obs[i] = market.Observation{Date: day(1).AddDate(0, 0, i), Value: spot}
	}
	ctx, err := market.NewContext("SPY", obs)
	require.NoError(t, err)
	return ctx
}

func newEngine(t *testing.T, mkt *market.Context, cfg Config) *Engine {
	t.Helper()
	if cfg.Model == nil {
		cfg.Model = pricing.NewBlackScholes(false)
	}
	e, err := New(mkt, cfg)
	require.NoError(t, err)
	return e
}

func TestConfigValidate(t *testing.T) {
	cfg := Config{StartDate: day(10), EndDate: day(1), InitialCapital: 1000}
	require.Error(t, cfg.Validate())

	cfg = Config{StartDate: day(1), EndDate: day(10), InitialCapital: 0}
	require.Error(t, cfg.Validate())

	cfg = Config{StartDate: day(1), EndDate: day(10), InitialCapital: 1000}
	require.NoError(t, cfg.Validate())
	assert.NotNil(t, cfg.Model)
}

func TestAddStrategyDebitsEntryAndCosts(t *testing.T) {
	mkt := flatMarket(t, 100, 15)
	engine := newEngine(t, mkt, Config{
		StartDate:       day(1),
		EndDate:         day(15),
		InitialCapital:  100000,
		CostPerContract: 0.65,
		CostPct:         0.0001,
	})

	straddle, err := strategy.NewStraddle("SPY", 100, day(1).AddDate(0, 0, 30), strategy.DirectionLong, 1)
	require.NoError(t, err)

	entry, err := pricing.StrategyValue(pricing.NewBlackScholes(false), straddle, day(1), mkt)
	require.NoError(t, err)
	require.Positive(t, entry)

	require.NoError(t, engine.AddStrategy(straddle, day(1)))

	// Two contracts at 0.65 each plus 1bp of notional.
	txn := 2*0.65 + entry*0.0001
	assert.InDelta(t, 100000-entry-txn, engine.Portfolio().Cash, 1e-9)

	trades := engine.Trades()
	require.Len(t, trades, 1)
	assert.InDelta(t, -(entry + txn), trades[0].CashFlow, 1e-9)
	require.NotNil(t, trades[0].StrategyIndex)
	assert.Equal(t, 0, *trades[0].StrategyIndex)
}

func TestRunAttributionSumsToDailyPnL(t *testing.T) {
	mkt := flatMarket(t, 100, 15)
	engine := newEngine(t, mkt, Config{
		StartDate:      day(1),
		EndDate:        day(15),
		InitialCapital: 100000,
	})

	straddle, err := strategy.NewStraddle("SPY", 100, day(1).AddDate(0, 0, 60), strategy.DirectionLong, 1)
	require.NoError(t, err)
	require.NoError(t, engine.AddStrategy(straddle, day(1)))

	results, err := engine.Run(context.Background())
	require.NoError(t, err)
	require.Len(t, results, 15)

	// The first row has no prior Greeks to attribute against.
	assert.Equal(t, models.Attribution{}, results[0].Attribution)

	for _, r := range results[1:] {
		a := r.Attribution
		explained := a.Delta + a.Gamma + a.Vega + a.Theta + a.Rho + a.Residual
		assert.InDelta(t, r.DailyPnL, explained, 1e-9, "date %s", r.Date.Format("2006-01-02"))

		// Flat spot: no delta or gamma P&L, decay shows up via theta.
		assert.Zero(t, a.Delta)
		assert.Zero(t, a.Gamma)
		assert.Negative(t, a.Theta)
	}

	// A long straddle bleeds on an unmoving underlying.
	last := results[len(results)-1]
	assert.Negative(t, last.DailyPnL)
	assert.Less(t, last.PortfolioValue, 100000.0)
}

func TestRunSettlesExpirations(t *testing.T) {
	mkt := flatMarket(t, 100, 12)
	engine := newEngine(t, mkt, Config{
		StartDate:      day(1),
		EndDate:        day(12),
		InitialCapital: 100000,
	})

	call, err := models.NewOptionContract("SPY", models.OptionTypeCall, 95, day(8))
	require.NoError(t, err)
	s := models.NewOptionStrategy("itm call")
	s.AddLeg(models.NewOptionLeg(call, 1))
	require.NoError(t, engine.AddStrategy(s, day(1)))

	results, err := engine.Run(context.Background())
	require.NoError(t, err)
	require.Len(t, results, 12)

	// The strategy is gone from the expiry row onward.
	for _, r := range results {
		if r.Date.Before(day(8)) {
			assert.Equal(t, 1, r.NumStrategies, "date %s", r.Date.Format("2006-01-02"))
		} else {
			assert.Zero(t, r.NumStrategies, "date %s", r.Date.Format("2006-01-02"))
		}
	}
	assert.Empty(t, engine.Portfolio().Strategies)

	// Settlement pays intrinsic through the trade ledger.
	trades := engine.Trades()
	require.Len(t, trades, 2)
	assert.True(t, strings.HasPrefix(trades[1].Description, "Expiration"))
	assert.InDelta(t, 5.0*100, trades[1].CashFlow, 1e-9)
	assert.Equal(t, day(8), trades[1].Date)

	sum := 0.0
	for _, trade := range trades {
		sum += trade.CashFlow
	}
	assert.InDelta(t, 100000+sum, engine.Portfolio().Cash, 1e-9)
}

func TestRunNoTradingDays(t *testing.T) {
	mkt := flatMarket(t, 100, 5)
	engine := newEngine(t, mkt, Config{
		StartDate:      day(20),
		EndDate:        day(25),
		InitialCapital: 100000,
	})

	_, err := engine.Run(context.Background())
	require.Error(t, err)
}

func TestRunHonorsContextCancellation(t *testing.T) {
	mkt := flatMarket(t, 100, 10)
	engine := newEngine(t, mkt, Config{
		StartDate:      day(1),
		EndDate:        day(10),
		InitialCapital: 100000,
	})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := engine.Run(ctx)
	require.ErrorIs(t, err, context.Canceled)
}

func TestOnDailyResultObservesEveryRow(t *testing.T) {
	mkt := flatMarket(t, 100, 5)
	engine := newEngine(t, mkt, Config{
		StartDate:      day(1),
		EndDate:        day(5),
		InitialCapital: 100000,
	})

	var seen []models.DailyResult
	engine.OnDailyResult = func(r models.DailyResult) {
		seen = append(seen, r)
	}

	results, err := engine.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, results, seen)
}

func TestSummarize(t *testing.T) {
	rows := []models.DailyResult{
		{Date: day(1), PortfolioValue: 100000, TotalReturn: 0},
		{Date: day(2), PortfolioValue: 101000, TotalReturn: 0.01},
		{Date: day(3), PortfolioValue: 100500, TotalReturn: 0.005},
	}
	trades := []models.TradeRecord{{Date: day(1)}, {Date: day(3)}}

	s := Summarize(rows, trades, 0.05)
	assert.Equal(t, day(1), s.StartDate)
	assert.Equal(t, day(3), s.EndDate)
	assert.Equal(t, 3, s.TradingDays)
	assert.Equal(t, 100500.0, s.FinalValue)
	assert.Equal(t, 0.005, s.TotalReturn)
	assert.Equal(t, 2, s.NumTrades)

	// One up day out of two.
	assert.Equal(t, 0.5, s.WinRate)
	assert.InDelta(t, -500.0/101000.0, s.MaxDrawdown, 1e-12)
	assert.Positive(t, s.AnnualizedVolatility)
}

func TestSummarizeEmpty(t *testing.T) {
	assert.Equal(t, Summary{}, Summarize(nil, nil, 0.05))
}
