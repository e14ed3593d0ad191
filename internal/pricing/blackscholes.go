package pricing

import (
	"math"
	"time"

	"github.com/rzzdr/options-backtester/internal/market"
	"github.com/rzzdr/options-backtester/pkg/models"
)

// BlackScholes is the closed-form Black-Scholes-Merton model with a
// continuous dividend yield. Volatility comes from the market's vol
// surface, or a flat default when useMarketIV is false.
type BlackScholes struct {
	useMarketIV bool
}

// NewBlackScholes creates a Black-Scholes model.
func NewBlackScholes(useMarketIV bool) *BlackScholes {
	return &BlackScholes{useMarketIV: useMarketIV}
}

func (m *BlackScholes) vol(contract *models.OptionContract, date time.Time, ctx *market.Context) float64 {
	if m.useMarketIV {
		return ctx.ImpliedVol(date, contract.Strike, contract.Expiry)
	}
	return market.DefaultImpliedVol
}

// Price returns the Black-Scholes price per share, floored at zero.
func (m *BlackScholes) Price(contract *models.OptionContract, date time.Time, ctx *market.Context) (float64, error) {
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
	sigma := floorVol(m.vol(contract, date, ctx))

	sqrtT := math.Sqrt(T)
	d1 := (math.Log(S/K) + (r-q+0.5*sigma*sigma)*T) / (sigma * sqrtT)
	d2 := d1 - sigma*sqrtT

	var price float64
	if contract.IsCall() {
		price = S*math.Exp(-q*T)*normalCDF(d1) - K*math.Exp(-r*T)*normalCDF(d2)
	} else {
		price = K*math.Exp(-r*T)*normalCDF(-d2) - S*math.Exp(-q*T)*normalCDF(-d1)
	}

	return math.Max(price, 0.0), nil
}

// Greeks returns the closed-form Black-Scholes sensitivities. Vega and rho
// are per 1 point (vol / rate), theta per calendar day.
func (m *BlackScholes) Greeks(contract *models.OptionContract, date time.Time, ctx *market.Context) (models.Greeks, error) {
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
	sigma := floorVol(m.vol(contract, date, ctx))

	sqrtT := math.Sqrt(T)
	d1 := (math.Log(S/K) + (r-q+0.5*sigma*sigma)*T) / (sigma * sqrtT)
	d2 := d1 - sigma*sqrtT

	nd1 := normalPDF(d1)

	var g models.Greeks
	if contract.IsCall() {
		g.Delta = math.Exp(-q*T) * normalCDF(d1)
	} else {
		g.Delta = -math.Exp(-q*T) * normalCDF(-d1)
	}

	g.Gamma = math.Exp(-q*T) * nd1 / (S * sigma * sqrtT)
	g.Vega = S * math.Exp(-q*T) * nd1 * sqrtT / 100.0

	decay := -S * math.Exp(-q*T) * nd1 * sigma / (2 * sqrtT)
	if contract.IsCall() {
		g.Theta = (decay - r*K*math.Exp(-r*T)*normalCDF(d2) + q*S*math.Exp(-q*T)*normalCDF(d1)) / 365.0
		g.Rho = K * T * math.Exp(-r*T) * normalCDF(d2) / 100.0
	} else {
		g.Theta = (decay + r*K*math.Exp(-r*T)*normalCDF(-d2) - q*S*math.Exp(-q*T)*normalCDF(-d1)) / 365.0
		g.Rho = -K * T * math.Exp(-r*T) * normalCDF(-d2) / 100.0
	}

	return g, nil
}
