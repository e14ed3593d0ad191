package market

import (
	"math"
	"sort"
	"time"

	"github.com/rzzdr/options-backtester/internal/surface"
	"github.com/rzzdr/options-backtester/pkg/utils/errors"
)

// Defaults used when no rate or dividend series is supplied, and when no
// vol surface exists at all.
const (
	DefaultRate          = 0.05
	DefaultDividendYield = 0.0
	DefaultImpliedVol    = 0.20
)

// Observation is one (date, value) point of a time series.
type Observation struct {
	Date  time.Time
	Value float64
}

// Context is the single point of access for spot, rate, dividend yield,
// implied vol and forward price as functions of date. All series are
// backward-filled: a query for a missing date resolves to the most recent
// prior date, never a future one.
//
// The underlying series are immutable once the context is handed to a
// backtest run. Bump views created by WithSpotShift/WithVolShift/
// WithRateShift share those series and carry only their own shift, so
// concurrent bumped evaluations never interfere.
type Context struct {
	underlying string

	spots    *series
	rates    *series
	yields   *series
	surfaces []*surface.Surface // sorted by as-of date

	spotShift float64
	volShift  float64
	rateShift float64
}

// NewContext creates a market context over a spot series. Rates and
// dividend yields default to flat values until set.
func NewContext(underlying string, spots []Observation) (*Context, error) {
	if len(spots) == 0 {
		return nil, errors.InvalidArgument("market context needs a non-empty spot series")
	}
	return &Context{
		underlying: underlying,
		spots:      newSeries(spots),
	}, nil
}

// SetRates attaches a risk-free rate series.
func (c *Context) SetRates(obs []Observation) {
	c.rates = newSeries(obs)
}

// SetDividendYields attaches a dividend yield series.
func (c *Context) SetDividendYields(obs []Observation) {
	c.yields = newSeries(obs)
}

// AddSurface registers a vol surface snapshot, keeping surfaces sorted by
// as-of date.
func (c *Context) AddSurface(s *surface.Surface) {
	c.surfaces = append(c.surfaces, s)
	sort.Slice(c.surfaces, func(i, j int) bool {
		return c.surfaces[i].Date().Before(c.surfaces[j].Date())
	})
}

// Underlying returns the ticker this context serves.
func (c *Context) Underlying() string {
	return c.underlying
}

// Dates returns the chronologically ordered trading-day index.
func (c *Context) Dates() []time.Time {
	return append([]time.Time(nil), c.spots.dates...)
}

// Spot returns the spot price for a date, backward-filling to the latest
// prior date when the exact date is absent.
func (c *Context) Spot(date time.Time) (float64, error) {
	v, ok := c.spots.at(date)
	if !ok {
		return 0, errors.NotFoundf("no spot on or before %s", date.Format("2006-01-02"))
	}
	return v + c.spotShift, nil
}

// Rate returns the risk-free rate for a date. Without an attached series
// the rate is a flat DefaultRate.
func (c *Context) Rate(date time.Time) (float64, error) {
	if c.rates == nil {
		return DefaultRate + c.rateShift, nil
	}
	v, ok := c.rates.at(date)
	if !ok {
		return 0, errors.NotFoundf("no rate on or before %s", date.Format("2006-01-02"))
	}
	return v + c.rateShift, nil
}

// DividendYield returns the dividend yield for a date. Without an attached
// series the yield is flat zero.
func (c *Context) DividendYield(date time.Time) (float64, error) {
	if c.yields == nil {
		return DefaultDividendYield, nil
	}
	v, ok := c.yields.at(date)
	if !ok {
		return 0, errors.NotFoundf("no dividend yield on or before %s", date.Format("2006-01-02"))
	}
	return v, nil
}

// Forward returns F = S * exp((r - q) * T) with T in ACT/365 year
// fractions.
func (c *Context) Forward(date, expiry time.Time) (float64, error) {
	spot, err := c.Spot(date)
	if err != nil {
		return 0, err
	}
	r, err := c.Rate(date)
	if err != nil {
		return 0, err
	}
	q, err := c.DividendYield(date)
	if err != nil {
		return 0, err
	}
	T := YearFraction(date, expiry)
	return spot * math.Exp((r-q)*T), nil
}

// ImpliedVol returns the implied vol for (strike, expiry) from the surface
// snapshot at the given date, or from the surface closest by absolute day
// difference when the date has no snapshot. With no surfaces at all a flat
// DefaultImpliedVol applies.
func (c *Context) ImpliedVol(date time.Time, strike float64, expiry time.Time) float64 {
	s := c.nearestSurface(date)
	if s == nil {
		return DefaultImpliedVol + c.volShift
	}
	// Days to expiry are measured from the valuation date, not the
	// surface's as-of date, so a stale surface does not shorten the
	// option's remaining life.
	return s.IVDays(strike, surface.DaysBetween(date, expiry)) + c.volShift
}

func (c *Context) nearestSurface(date time.Time) *surface.Surface {
	var best *surface.Surface
	bestDiff := math.MaxInt64
	for _, s := range c.surfaces {
		diff := surface.DaysBetween(s.Date(), date)
		if diff < 0 {
			diff = -diff
		}
		if diff == 0 {
			return s
		}
		if diff < bestDiff {
			bestDiff = diff
			best = s
		}
	}
	return best
}

// Slice returns a new context restricted to the closed interval
// [start, end]. Active shifts are carried over.
func (c *Context) Slice(start, end time.Time) (*Context, error) {
	sliced := &Context{
		underlying: c.underlying,
		spots:      c.spots.slice(start, end),
		spotShift:  c.spotShift,
		volShift:   c.volShift,
		rateShift:  c.rateShift,
	}
	if len(sliced.spots.dates) == 0 {
		return nil, errors.NotFoundf("no market data between %s and %s",
			start.Format("2006-01-02"), end.Format("2006-01-02"))
	}
	if c.rates != nil {
		sliced.rates = c.rates.slice(start, end)
	}
	if c.yields != nil {
		sliced.yields = c.yields.slice(start, end)
	}
	for _, s := range c.surfaces {
		if !s.Date().Before(start) && !s.Date().After(end) {
			sliced.surfaces = append(sliced.surfaces, s)
		}
	}
	return sliced, nil
}

// WithSpotShift returns a view with every spot lookup shifted by delta.
// The receiver is not modified.
func (c *Context) WithSpotShift(delta float64) *Context {
	view := *c
	view.spotShift += delta
	return &view
}

// WithVolShift returns a view with every implied vol lookup shifted by
// delta (absolute vol points).
func (c *Context) WithVolShift(delta float64) *Context {
	view := *c
	view.volShift += delta
	return &view
}

// WithRateShift returns a view with every rate lookup shifted by delta.
func (c *Context) WithRateShift(delta float64) *Context {
	view := *c
	view.rateShift += delta
	return &view
}

// YearFraction returns (to - from) in years on an ACT/365 convention,
// counting whole calendar days.
func YearFraction(from, to time.Time) float64 {
	return float64(surface.DaysBetween(from, to)) / 365.0
}

// series is an immutable, date-sorted time series with backward-fill
// lookup.
type series struct {
	dates  []time.Time
	values []float64
}

func newSeries(obs []Observation) *series {
	sorted := append([]Observation(nil), obs...)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].Date.Before(sorted[j].Date)
	})

	s := &series{}
	for _, o := range sorted {
		d := normalize(o.Date)
		if n := len(s.dates); n > 0 && s.dates[n-1].Equal(d) {
			s.values[n-1] = o.Value // last observation for a date wins
			continue
		}
		s.dates = append(s.dates, d)
		s.values = append(s.values, o.Value)
	}
	return s
}

// at resolves a date to its value, backward-filling to the latest prior
// date. Returns false when the date precedes the whole series.
func (s *series) at(date time.Time) (float64, bool) {
	d := normalize(date)
	// First index with dates[i] > d; the entry before it is the match.
	idx := sort.Search(len(s.dates), func(i int) bool {
		return s.dates[i].After(d)
	})
	if idx == 0 {
		return 0, false
	}
	return s.values[idx-1], true
}

func (s *series) slice(start, end time.Time) *series {
	out := &series{}
	for i, d := range s.dates {
		if !d.Before(normalize(start)) && !d.After(normalize(end)) {
			out.dates = append(out.dates, d)
			out.values = append(out.values, s.values[i])
		}
	}
	return out
}

func normalize(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
