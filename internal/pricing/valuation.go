package pricing

import (
	"time"

	"github.com/rzzdr/options-backtester/internal/market"
	"github.com/rzzdr/options-backtester/pkg/models"
)

// LegValue prices a leg: model price scaled by quantity and contract
// multiplier, signed by direction.
func LegValue(model Model, leg *models.OptionLeg, date time.Time, ctx *market.Context) (float64, error) {
	price, err := model.Price(leg.Contract, date, ctx)
	if err != nil {
		return 0, err
	}
	return price * leg.Quantity * leg.Contract.Multiplier, nil
}

// LegGreeks computes a leg's Greeks, scaled the same way as LegValue.
func LegGreeks(model Model, leg *models.OptionLeg, date time.Time, ctx *market.Context) (models.Greeks, error) {
	g, err := model.Greeks(leg.Contract, date, ctx)
	if err != nil {
		return models.Greeks{}, err
	}
	return g.Scale(leg.Quantity * leg.Contract.Multiplier), nil
}

// StrategyValue sums the values of a strategy's legs.
func StrategyValue(model Model, s *models.OptionStrategy, date time.Time, ctx *market.Context) (float64, error) {
	var total float64
	for _, leg := range s.Legs {
		v, err := LegValue(model, leg, date, ctx)
		if err != nil {
			return 0, err
		}
		total += v
	}
	return total, nil
}

// StrategyGreeks sums the Greeks of a strategy's legs.
func StrategyGreeks(model Model, s *models.OptionStrategy, date time.Time, ctx *market.Context) (models.Greeks, error) {
	var total models.Greeks
	for _, leg := range s.Legs {
		g, err := LegGreeks(model, leg, date, ctx)
		if err != nil {
			return models.Greeks{}, err
		}
		total = total.Add(g)
	}
	return total, nil
}

// PortfolioValue is cash plus the marked value of every open strategy.
func PortfolioValue(model Model, p *models.Portfolio, date time.Time, ctx *market.Context) (float64, error) {
	total := p.Cash
	for _, s := range p.Strategies {
		v, err := StrategyValue(model, s, date, ctx)
		if err != nil {
			return 0, err
		}
		total += v
	}
	return total, nil
}

// PortfolioGreeks aggregates Greeks across every open strategy.
func PortfolioGreeks(model Model, p *models.Portfolio, date time.Time, ctx *market.Context) (models.Greeks, error) {
	var total models.Greeks
	for _, s := range p.Strategies {
		g, err := StrategyGreeks(model, s, date, ctx)
		if err != nil {
			return models.Greeks{}, err
		}
		total = total.Add(g)
	}
	return total, nil
}
