package surface

import (
	"math"
	"time"

	"github.com/rzzdr/options-backtester/pkg/utils/errors"
	"github.com/rzzdr/options-backtester/pkg/utils/logger"
)

// Method selects the interpolation scheme used to fit the surface.
type Method string

const (
	// MethodCubic is a cubic radial-basis fit with smoothing (default).
	MethodCubic Method = "cubic"
	// MethodLinear is a piecewise-linear fit.
	MethodLinear Method = "linear"
	// MethodMultiquadric is an unsmoothed radial-basis fit.
	MethodMultiquadric Method = "multiquadric"
)

// Vol clamp bounds for the interpolated path (1% to 500% annualized).
const (
	minVol = 0.01
	maxVol = 5.0
)

// Sample is one (strike, days-to-expiry) -> implied vol observation.
type Sample struct {
	Strike       float64
	DaysToExpiry int
	ImpliedVol   float64
}

// Surface is a per-date snapshot of implied volatilities indexed by strike
// and days to expiry, with a fitted 2-D interpolant. It is rebuilt when
// market data for a new date is ingested and read-only afterwards.
type Surface struct {
	date       time.Time
	underlying string
	samples    []Sample
	method     Method
	interp     interpolator
	log        *logger.Logger
}

// SampleFromExpiry converts an expiry date into a days-keyed sample
// relative to the surface's reference date.
func SampleFromExpiry(refDate time.Time, strike float64, expiry time.Time, impliedVol float64) Sample {
	return Sample{
		Strike:       strike,
		DaysToExpiry: DaysBetween(refDate, expiry),
		ImpliedVol:   impliedVol,
	}
}

// DaysBetween returns whole calendar days from "from" to "to".
func DaysBetween(from, to time.Time) int {
	return int(to.Sub(from).Hours() / 24)
}

// New fits a volatility surface over the given samples. At least three
// distinct (strike, days) points are required. A failed fit is not fatal:
// the surface falls back to nearest-sample lookup for every query.
func New(date time.Time, underlying string, samples []Sample, method Method) (*Surface, error) {
	distinct := make(map[[2]float64]struct{}, len(samples))
	for _, sm := range samples {
		distinct[[2]float64{sm.Strike, float64(sm.DaysToExpiry)}] = struct{}{}
	}
	if len(distinct) < 3 {
		return nil, errors.InvalidArgumentf(
			"vol surface needs at least 3 distinct sample points, got %d", len(distinct))
	}

	s := &Surface{
		date:       date,
		underlying: underlying,
		samples:    append([]Sample(nil), samples...),
		method:     method,
		log:        logger.GetLogger("surface"),
	}

	xs := make([]float64, len(samples))
	ys := make([]float64, len(samples))
	zs := make([]float64, len(samples))
	for i, sm := range samples {
		xs[i] = sm.Strike
		ys[i] = float64(sm.DaysToExpiry)
		zs[i] = sm.ImpliedVol
	}

	var err error
	switch method {
	case MethodLinear:
		s.interp = newLinearInterpolator(xs, ys, zs)
	case MethodMultiquadric:
		s.interp, err = newRBFInterpolator(xs, ys, zs, kernelMultiquadric, 0)
	default:
		s.interp, err = newRBFInterpolator(xs, ys, zs, kernelCubic, 0.1)
	}
	if err != nil {
		// Every query takes the nearest-sample path.
		s.log.Warnf("surface fit failed for %s %s, using nearest-sample lookup: %v",
			underlying, date.Format("2006-01-02"), err)
		s.interp = nil
	}

	return s, nil
}

// Date returns the surface's as-of date.
func (s *Surface) Date() time.Time {
	return s.date
}

// Underlying returns the underlying ticker the surface was built for.
func (s *Surface) Underlying() string {
	return s.underlying
}

// IV returns the implied volatility for a strike and expiry date.
func (s *Surface) IV(strike float64, expiry time.Time) float64 {
	return s.IVDays(strike, DaysBetween(s.date, expiry))
}

// IVDays returns the implied volatility for a strike and days to expiry.
// Expired lookups return 0. The interpolated value is clamped to
// [0.01, 5.0]; a failed evaluation falls back to the Euclidean-nearest
// sample's raw vol, which is intentionally not clamped.
func (s *Surface) IVDays(strike float64, daysToExpiry int) float64 {
	if daysToExpiry <= 0 {
		return 0.0
	}

	if s.interp != nil {
		v := s.interp.eval(strike, float64(daysToExpiry))
		if !math.IsNaN(v) && !math.IsInf(v, 0) {
			return math.Min(math.Max(v, minVol), maxVol)
		}
	}

	return s.nearestVol(strike, float64(daysToExpiry))
}

// Smile maps IVDays across a set of strikes at one expiry.
func (s *Surface) Smile(daysToExpiry int, strikes []float64) []float64 {
	vols := make([]float64, len(strikes))
	for i, k := range strikes {
		vols[i] = s.IVDays(k, daysToExpiry)
	}
	return vols
}

func (s *Surface) nearestVol(strike, days float64) float64 {
	best := 0
	bestDist := math.Inf(1)
	for i, sm := range s.samples {
		d := math.Hypot(sm.Strike-strike, float64(sm.DaysToExpiry)-days)
		if d < bestDist {
			bestDist = d
			best = i
		}
	}
	return s.samples[best].ImpliedVol
}
