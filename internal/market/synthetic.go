package market

import (
	"math"
	"math/rand"
	"time"

	"github.com/rzzdr/options-backtester/internal/surface"
)

// GBMPath simulates a daily geometric Brownian motion spot series of the
// given length, starting at s0 on start. mu and sigma are annualized.
func GBMPath(start time.Time, s0, mu, sigma float64, days int, seed int64) []Observation {
	rng := rand.New(rand.NewSource(seed))
	dt := 1.0 / 365.0

	obs := make([]Observation, days)
	price := s0
	for i := 0; i < days; i++ {
		obs[i] = Observation{Date: start.AddDate(0, 0, i), Value: price}
		z := rng.NormFloat64()
		price *= math.Exp((mu-0.5*sigma*sigma)*dt + sigma*math.Sqrt(dt)*z)
	}
	return obs
}

// FlatSurface builds a flat-vol surface snapshot spanning strikes from
// 50% to 150% of spot across the standard expiry ladder. Used by the demo
// binary and tests in place of a real options feed.
func FlatSurface(date time.Time, underlying string, spot, vol float64) (*surface.Surface, error) {
	expiries := []int{7, 14, 30, 60, 90, 180, 365}

	var samples []surface.Sample
	for i := 0; i < 20; i++ {
		strike := spot * (0.5 + float64(i)/19.0)
		for _, days := range expiries {
			samples = append(samples, surface.Sample{
				Strike:       strike,
				DaysToExpiry: days,
				ImpliedVol:   vol,
			})
		}
	}
	return surface.New(date, underlying, samples, surface.MethodCubic)
}
