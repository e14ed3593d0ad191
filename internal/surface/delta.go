package surface

import (
	"math"
	"time"

	"github.com/rzzdr/options-backtester/pkg/utils/errors"
)

// DeltaSample is one (delta, days-to-expiry) -> implied vol observation,
// the alternate quoting convention some vendors use.
type DeltaSample struct {
	Delta        float64
	DaysToExpiry int
	ImpliedVol   float64
}

// DeltaSurface is a delta-indexed vol snapshot. Unlike the strike-keyed
// Surface it does not interpolate: lookups take the nearest delta among
// rows at the matching days-to-expiry.
type DeltaSurface struct {
	date    time.Time
	samples []DeltaSample
}

// NewDeltaSurface creates a delta-indexed surface.
func NewDeltaSurface(date time.Time, samples []DeltaSample) (*DeltaSurface, error) {
	if len(samples) == 0 {
		return nil, errors.InvalidArgument("delta surface needs at least one sample")
	}
	return &DeltaSurface{
		date:    date,
		samples: append([]DeltaSample(nil), samples...),
	}, nil
}

// Date returns the surface's as-of date.
func (d *DeltaSurface) Date() time.Time {
	return d.date
}

// IVByDelta returns the implied vol at the nearest delta among rows with
// the matching days-to-expiry. When no row matches that expiry the search
// widens to all rows; this is the documented lookup behavior, not a bug.
func (d *DeltaSurface) IVByDelta(delta float64, daysToExpiry int) float64 {
	candidates := d.samples[:0:0]
	for _, sm := range d.samples {
		if sm.DaysToExpiry == daysToExpiry {
			candidates = append(candidates, sm)
		}
	}
	if len(candidates) == 0 {
		candidates = d.samples
	}

	best := candidates[0]
	bestDiff := math.Abs(best.Delta - delta)
	for _, sm := range candidates[1:] {
		if diff := math.Abs(sm.Delta - delta); diff < bestDiff {
			bestDiff = diff
			best = sm
		}
	}
	return best.ImpliedVol
}
