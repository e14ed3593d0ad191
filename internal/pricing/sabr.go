package pricing

import (
	"math"
	"time"

	"github.com/rzzdr/options-backtester/internal/market"
	"github.com/rzzdr/options-backtester/pkg/models"
)

// SABR prices through the Black-Scholes closed form using an implied vol
// from Hagan's asymptotic expansion under static (alpha, beta, rho, nu)
// parameters. Greeks are always computed by bump-and-revalue; the model
// has no analytic Greeks here.
type SABR struct {
	Alpha float64 // initial volatility
	Beta  float64 // elasticity (0 = normal, 1 = lognormal)
	Rho   float64 // spot/vol correlation
	Nu    float64 // vol of vol

	numeric *SurfaceGreeks
}

// NewSABR creates a SABR model with the given static parameters.
func NewSABR(alpha, beta, rho, nu float64) *SABR {
	m := &SABR{Alpha: alpha, Beta: beta, Rho: rho, Nu: nu}
	m.numeric = NewSurfaceGreeks(m)
	return m
}

// ImpliedVol evaluates Hagan's expansion for a forward, strike and expiry.
// The ATM singularity (F ~ K) is handled by substituting the geometric
// mean of F and K and taking the unit limit of z/x(z). The result is
// floored at 1%.
func (m *SABR) ImpliedVol(F, K, T float64) float64 {
	if T <= 0 {
		return 0.0
	}

	var fkMid float64
	if math.Abs(F-K) < 1e-6 {
		fkMid = F
	} else {
		fkMid = math.Sqrt(F * K)
	}

	oneMinusBeta := 1 - m.Beta
	z := (m.Nu / m.Alpha) * math.Pow(fkMid, oneMinusBeta) * math.Log(F/K)

	xz := 1.0
	if math.Abs(z) >= 1e-6 {
		xz = z / math.Log((math.Sqrt(1-2*m.Rho*z+z*z)+z-m.Rho)/(1-m.Rho))
	}

	term1 := m.Alpha / math.Pow(fkMid, oneMinusBeta)
	term2 := 1 + (oneMinusBeta*oneMinusBeta/24*(m.Alpha*m.Alpha/math.Pow(fkMid, 2*oneMinusBeta))+
		m.Rho*m.Beta*m.Nu*m.Alpha/(4*math.Pow(fkMid, oneMinusBeta))+
		(2-3*m.Rho*m.Rho)/24*m.Nu*m.Nu)*T

	return math.Max(term1*xz*term2, 0.01)
}

// Price feeds the SABR implied vol into the Black-Scholes closed form.
func (m *SABR) Price(contract *models.OptionContract, date time.Time, ctx *market.Context) (float64, error) {
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
	iv := m.ImpliedVol(F, K, T)

	sqrtT := math.Sqrt(T)
	d1 := (math.Log(S/K) + (r-q+0.5*iv*iv)*T) / (iv * sqrtT)
	d2 := d1 - iv*sqrtT

	var price float64
	if contract.IsCall() {
		price = S*math.Exp(-q*T)*normalCDF(d1) - K*math.Exp(-r*T)*normalCDF(d2)
	} else {
		price = K*math.Exp(-r*T)*normalCDF(-d2) - S*math.Exp(-q*T)*normalCDF(-d1)
	}

	return math.Max(price, 0.0), nil
}

// Greeks delegates to the bump-and-revalue engine around this model.
func (m *SABR) Greeks(contract *models.OptionContract, date time.Time, ctx *market.Context) (models.Greeks, error) {
	return m.numeric.Greeks(contract, date, ctx)
}
