package pricing

import (
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/rzzdr/options-backtester/internal/market"
	"github.com/rzzdr/options-backtester/pkg/models"
)

const (
	// bumpSize is the absolute shift applied to vol and rate, 0.01 = one
	// point. Spot is bumped relatively by the same fraction.
	bumpSize = 0.01
)

// SurfaceGreeks computes Greeks for any model by bump-and-revalue: five
// scenario revaluations run concurrently against shifted views of the
// market context. The base context is never mutated, so a failed or
// partial run leaves no residue.
type SurfaceGreeks struct {
	model Model
}

// NewSurfaceGreeks wraps a model with numeric Greeks.
func NewSurfaceGreeks(model Model) *SurfaceGreeks {
	return &SurfaceGreeks{model: model}
}

// Price passes through to the wrapped model.
func (sg *SurfaceGreeks) Price(contract *models.OptionContract, date time.Time, ctx *market.Context) (float64, error) {
	return sg.model.Price(contract, date, ctx)
}

// Greeks revalues the contract under spot up/down, vol up, rate up and
// next-day scenarios. Delta and gamma use central differences; vega, rho
// and theta are one-sided. Vega and rho come out per 1 point, theta per
// calendar day.
func (sg *SurfaceGreeks) Greeks(contract *models.OptionContract, date time.Time, ctx *market.Context) (models.Greeks, error) {
	spot, err := ctx.Spot(date)
	if err != nil {
		return models.Greeks{}, err
	}

	if market.YearFraction(date, contract.Expiry) <= 0 {
		return expiryGreeks(contract, spot), nil
	}

	base, err := sg.model.Price(contract, date, ctx)
	if err != nil {
		return models.Greeks{}, err
	}

	dS := spot * bumpSize

	var (
		priceUp, priceDown      float64
		priceVolUp, priceRateUp float64
		priceTomorrow           float64
		tomorrowOK              bool
	)

	var g errgroup.Group
	g.Go(func() error {
		var err error
		priceUp, err = sg.model.Price(contract, date, ctx.WithSpotShift(dS))
		return err
	})
	g.Go(func() error {
		var err error
		priceDown, err = sg.model.Price(contract, date, ctx.WithSpotShift(-dS))
		return err
	})
	g.Go(func() error {
		var err error
		priceVolUp, err = sg.model.Price(contract, date, ctx.WithVolShift(bumpSize))
		return err
	})
	g.Go(func() error {
		var err error
		priceRateUp, err = sg.model.Price(contract, date, ctx.WithRateShift(bumpSize))
		return err
	})
	g.Go(func() error {
		// The next calendar day may fall outside the data range; theta
		// degrades to zero rather than failing the whole set.
		p, err := sg.model.Price(contract, date.AddDate(0, 0, 1), ctx)
		if err == nil {
			priceTomorrow = p
			tomorrowOK = true
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return models.Greeks{}, err
	}

	var greeks models.Greeks
	greeks.Delta = (priceUp - priceDown) / (2 * dS)
	greeks.Gamma = (priceUp - 2*base + priceDown) / (dS * dS)
	greeks.Vega = priceVolUp - base
	greeks.Rho = priceRateUp - base
	if tomorrowOK {
		greeks.Theta = priceTomorrow - base
	}

	return greeks, nil
}
