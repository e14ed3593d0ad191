package pricing

import (
	"math"
	"time"

	"github.com/rzzdr/options-backtester/internal/market"
	"github.com/rzzdr/options-backtester/pkg/models"
)

// Bachelier is the normal (arithmetic) model, driven by the forward price
// rather than spot. The surface's percentage vol quote is converted to an
// absolute dollar vol as sigma_abs = sigma_pct * S; this simplification is
// deliberate and must not be silently "fixed". Rho is reported as zero:
// the model is treated as rate-insensitive here.
type Bachelier struct {
	useMarketIV bool
}

// NewBachelier creates a Bachelier model.
func NewBachelier(useMarketIV bool) *Bachelier {
	return &Bachelier{useMarketIV: useMarketIV}
}

func (m *Bachelier) absVol(contract *models.OptionContract, date time.Time, ctx *market.Context, spot float64) float64 {
	if m.useMarketIV {
		return ctx.ImpliedVol(date, contract.Strike, contract.Expiry) * spot
	}
	return market.DefaultImpliedVol * spot
}

// Price returns the Bachelier price per share, floored at zero.
func (m *Bachelier) Price(contract *models.OptionContract, date time.Time, ctx *market.Context) (float64, error) {
	S, err := ctx.Spot(date)
	if err != nil {
		return 0, err
	}

	T := market.YearFraction(date, contract.Expiry)
	if T <= 0 {
		return contract.IntrinsicValue(S), nil
	}

	r, err := ctx.Rate(date)
	if err != nil {
		return 0, err
	}
	q, err := ctx.DividendYield(date)
	if err != nil {
		return 0, err
	}

	K := contract.Strike
	F := S * math.Exp((r-q)*T)
	sigma := floorVol(m.absVol(contract, date, ctx, S))

	sqrtT := math.Sqrt(T)
	d := (F - K) / (sigma * sqrtT)

	var price float64
	if contract.IsCall() {
		price = math.Exp(-r*T) * ((F-K)*normalCDF(d) + sigma*sqrtT*normalPDF(d))
	} else {
		price = math.Exp(-r*T) * ((K-F)*normalCDF(-d) + sigma*sqrtT*normalPDF(d))
	}

	return math.Max(price, 0.0), nil
}

// Greeks returns the normal-model sensitivities.
func (m *Bachelier) Greeks(contract *models.OptionContract, date time.Time, ctx *market.Context) (models.Greeks, error) {
	S, err := ctx.Spot(date)
	if err != nil {
		return models.Greeks{}, err
	}

	T := market.YearFraction(date, contract.Expiry)
	if T <= 0 {
		return expiryGreeks(contract, S), nil
	}

	r, err := ctx.Rate(date)
	if err != nil {
		return models.Greeks{}, err
	}
	q, err := ctx.DividendYield(date)
	if err != nil {
		return models.Greeks{}, err
	}

	K := contract.Strike
	F := S * math.Exp((r-q)*T)
	sigma := floorVol(m.absVol(contract, date, ctx, S))

	sqrtT := math.Sqrt(T)
	d := (F - K) / (sigma * sqrtT)
	discount := math.Exp(-r * T)

	var g models.Greeks
	if contract.IsCall() {
		g.Delta = discount * math.Exp(-q*T) * normalCDF(d)
	} else {
		g.Delta = -discount * math.Exp(-q*T) * normalCDF(-d)
	}

	g.Gamma = discount * math.Exp(-q*T) * normalPDF(d) / (sigma * sqrtT)
	g.Vega = discount * normalPDF(d) * sqrtT * S / 100.0
	g.Theta = -sigma * discount * normalPDF(d) / (2 * sqrtT) / 365.0
	g.Rho = 0.0

	return g, nil
}
