package backtest

import (
	"context"
	"fmt"
	"time"

	"github.com/rzzdr/options-backtester/internal/market"
	"github.com/rzzdr/options-backtester/internal/pricing"
	"github.com/rzzdr/options-backtester/pkg/models"
	"github.com/rzzdr/options-backtester/pkg/utils/errors"
	"github.com/rzzdr/options-backtester/pkg/utils/logger"
)

// Config drives a backtest run.
type Config struct {
	StartDate      time.Time
	EndDate        time.Time
	InitialCapital float64

	// RebalanceFrequency is advisory for strategy policies; the engine
	// itself always steps daily.
	RebalanceFrequency string

	CostPerContract float64
	CostPct         float64
	// SlippageBps is carried in the config but not applied to fills yet.
	SlippageBps float64

	Model pricing.Model
}

// Validate checks the config and fills the default model.
func (c *Config) Validate() error {
	if c.EndDate.Before(c.StartDate) {
		return errors.InvalidArgumentf("end date %s before start date %s",
			c.EndDate.Format("2006-01-02"), c.StartDate.Format("2006-01-02"))
	}
	if c.InitialCapital <= 0 {
		return errors.InvalidArgumentf("initial capital must be positive: %f", c.InitialCapital)
	}
	if c.Model == nil {
		c.Model = pricing.NewBlackScholes(true)
	}
	return nil
}

// Engine walks a market context day by day, marking the portfolio to
// model, attributing P&L to Greeks and settling expirations.
type Engine struct {
	market *market.Context
	config Config

	portfolio *models.Portfolio
	results   []models.DailyResult

	prevValue     float64
	prevGreeks    models.Greeks
	processedDays int

	// OnDailyResult, when set, observes each completed row. Used to feed
	// metrics and streaming sinks without coupling the loop to them.
	OnDailyResult func(models.DailyResult)

	log *logger.Logger
}

// New creates an engine over a market context.
func New(mkt *market.Context, config Config) (*Engine, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return &Engine{
		market:    mkt,
		config:    config,
		portfolio: models.NewPortfolio(config.InitialCapital),
		prevValue: config.InitialCapital,
		log:       logger.GetLogger("backtest"),
	}, nil
}

// Portfolio exposes the engine's portfolio, mainly for strategy policies
// and tests.
func (e *Engine) Portfolio() *models.Portfolio {
	return e.portfolio
}

// AddStrategy opens a position on entryDate: the strategy's model value
// plus transaction costs is debited from cash and the entry is recorded
// against the new strategy index.
func (e *Engine) AddStrategy(s *models.OptionStrategy, entryDate time.Time) error {
	entryCost, err := pricing.StrategyValue(e.config.Model, s, entryDate, e.market)
	if err != nil {
		return errors.Wrapf(err, "pricing %s at entry", s.Name)
	}

	idx := e.portfolio.AddStrategy(s)

	txnCost := s.NumContracts()*e.config.CostPerContract + abs(entryCost)*e.config.CostPct
	e.portfolio.RecordTrade(entryDate, fmt.Sprintf("Enter %s", s.Name), -(entryCost + txnCost), &idx)

	e.log.Infow("strategy entered",
		"name", s.Name,
		"date", entryDate.Format("2006-01-02"),
		"entry_cost", entryCost,
		"txn_cost", txnCost,
	)
	return nil
}

// Run steps through every trading day in [StartDate, EndDate] and returns
// the daily result rows. The context cancels the run between days.
func (e *Engine) Run(ctx context.Context) ([]models.DailyResult, error) {
	dates := e.tradingDates()
	if len(dates) == 0 {
		return nil, errors.NotFoundf("no trading days between %s and %s",
			e.config.StartDate.Format("2006-01-02"), e.config.EndDate.Format("2006-01-02"))
	}

	e.log.Infow("backtest starting",
		"start", dates[0].Format("2006-01-02"),
		"end", dates[len(dates)-1].Format("2006-01-02"),
		"trading_days", len(dates),
	)

	for _, date := range dates {
		select {
		case <-ctx.Done():
			return e.results, ctx.Err()
		default:
		}
		if err := e.processDay(date); err != nil {
			return e.results, errors.Wrapf(err, "processing %s", date.Format("2006-01-02"))
		}
	}

	last := e.results[len(e.results)-1]
	e.log.Infow("backtest complete",
		"final_value", last.PortfolioValue,
		"total_return", last.TotalReturn,
		"trades", len(e.portfolio.Trades),
	)
	return e.results, nil
}

// Results returns the rows accumulated so far.
func (e *Engine) Results() []models.DailyResult {
	return e.results
}

// Trades returns the portfolio's trade ledger.
func (e *Engine) Trades() []models.TradeRecord {
	return e.portfolio.Trades
}

func (e *Engine) tradingDates() []time.Time {
	var out []time.Time
	for _, d := range e.market.Dates() {
		if d.Before(e.config.StartDate) || d.After(e.config.EndDate) {
			continue
		}
		out = append(out, d)
	}
	return out
}

// processDay runs the daily pipeline: mark to model, compute P&L and its
// attribution, settle expirations, then record the row. The row's value
// and Greeks are as of before settlement; cash and strategy count are as
// of after it.
func (e *Engine) processDay(date time.Time) error {
	spot, err := e.market.Spot(date)
	if err != nil {
		return err
	}

	value, err := pricing.PortfolioValue(e.config.Model, e.portfolio, date, e.market)
	if err != nil {
		return err
	}
	greeks, err := pricing.PortfolioGreeks(e.config.Model, e.portfolio, date, e.market)
	if err != nil {
		return err
	}

	dailyPnL := value - e.prevValue
	totalReturn := (value - e.config.InitialCapital) / e.config.InitialCapital

	var attribution models.Attribution
	if e.processedDays > 0 {
		attribution = e.attribute(date, spot, dailyPnL)
	}

	e.settleExpirations(date, spot)

	row := models.DailyResult{
		Date:           date,
		Spot:           spot,
		PortfolioValue: value,
		Cash:           e.portfolio.Cash,
		DailyPnL:       dailyPnL,
		TotalReturn:    totalReturn,
		Greeks:         greeks,
		Attribution:    attribution,
		NumStrategies:  len(e.portfolio.Strategies),
	}
	e.results = append(e.results, row)
	if e.OnDailyResult != nil {
		e.OnDailyResult(row)
	}

	e.prevValue = value
	e.prevGreeks = greeks
	e.processedDays++
	return nil
}

// attribute explains the day's P&L with a first-order Taylor expansion in
// the previous day's Greeks. Vega and rho terms stay zero without vol and
// rate change series; whatever the expansion misses lands in the residual,
// so the components always sum back to the daily P&L.
func (e *Engine) attribute(date time.Time, spot, dailyPnL float64) models.Attribution {
	prevSpot, err := e.market.Spot(date.AddDate(0, 0, -1))
	if err != nil {
		return models.Attribution{}
	}

	dS := spot - prevSpot

	a := models.Attribution{
		Delta: e.prevGreeks.Delta * dS,
		Gamma: 0.5 * e.prevGreeks.Gamma * dS * dS,
		Theta: e.prevGreeks.Theta, // already per calendar day
	}
	a.Residual = dailyPnL - (a.Delta + a.Gamma + a.Vega + a.Theta + a.Rho)
	return a
}

// settleExpirations pays out every leg expiring on or before date at its
// intrinsic payoff and removes the affected strategies. Settlement flows
// through RecordTrade, keeping the cash invariant intact.
func (e *Engine) settleExpirations(date time.Time, spot float64) {
	var toRemove []int

	for i, s := range e.portfolio.Strategies {
		expired := false
		for _, leg := range s.Legs {
			if leg.Contract.Expiry.After(date) {
				continue
			}
			expired = true
			idx := i
			payoff := leg.Payoff(spot)
			e.portfolio.RecordTrade(date, fmt.Sprintf("Expiration: %s", s.Name), payoff, &idx)
		}
		if expired {
			toRemove = append(toRemove, i)
			e.log.Debugw("strategy expired",
				"name", s.Name,
				"date", date.Format("2006-01-02"),
			)
		}
	}

	e.portfolio.RemoveStrategies(toRemove)
}

func abs(x float64) float64 {
	if x < 0 {
		return -x
	}
	return x
}
