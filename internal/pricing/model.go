package pricing

import (
	"math"
	"time"

	"github.com/rzzdr/options-backtester/internal/market"
	"github.com/rzzdr/options-backtester/pkg/models"
)

// Model prices a single contract and computes its Greeks against a market
// context. Prices are per share, unscaled by quantity or multiplier.
// Every model returns intrinsic value and the degenerate Greeks set at or
// past expiry.
type Model interface {
	Price(contract *models.OptionContract, date time.Time, ctx *market.Context) (float64, error)
	Greeks(contract *models.OptionContract, date time.Time, ctx *market.Context) (models.Greeks, error)
}

// expiryGreeks is the degenerate sensitivity set at T <= 0: only delta
// survives, signed by moneyness (+1 ITM call, -1 ITM put, 0 otherwise).
func expiryGreeks(contract *models.OptionContract, spot float64) models.Greeks {
	var delta float64
	if contract.IntrinsicValue(spot) > 0 {
		if contract.IsCall() {
			delta = 1.0
		} else {
			delta = -1.0
		}
	}
	return models.Greeks{Delta: delta}
}

// normalCDF returns the cumulative distribution function of the standard
// normal distribution.
func normalCDF(x float64) float64 {
	return 0.5 * (1 + math.Erf(x/math.Sqrt2))
}

// normalPDF returns the probability density function of the standard
// normal distribution.
func normalPDF(x float64) float64 {
	return math.Exp(-0.5*x*x) / math.Sqrt(2*math.Pi)
}

// floorVol keeps volatilities strictly positive so the d1/gamma divisions
// stay finite.
func floorVol(sigma float64) float64 {
	if sigma < 1e-8 {
		return 1e-8
	}
	return sigma
}
