package market

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rzzdr/options-backtester/internal/surface"
	"github.com/rzzdr/options-backtester/pkg/utils/errors"
)

func day(d int) time.Time {
	return time.Date(2024, time.March, d, 0, 0, 0, 0, time.UTC)
}

func newTestContext(t *testing.T) *Context {
	t.Helper()
	ctx, err := NewContext("SPY", []Observation{
		{Date: day(1), Value: 100},
		{Date: day(3), Value: 102},
		{Date: day(5), Value: 99},
	})
	require.NoError(t, err)
	return ctx
}

func TestNewContextRequiresSpots(t *testing.T) {
	_, err := NewContext("SPY", nil)
	require.Error(t, err)
}

func TestSpotBackwardFill(t *testing.T) {
	ctx := newTestContext(t)

	v, err := ctx.Spot(day(3))
	require.NoError(t, err)
	assert.Equal(t, 102.0, v)

	// Missing date resolves to the most recent prior observation.
	v, err = ctx.Spot(day(4))
	require.NoError(t, err)
	assert.Equal(t, 102.0, v)

	// Dates past the series end backward-fill to the last observation.
	v, err = ctx.Spot(day(20))
	require.NoError(t, err)
	assert.Equal(t, 99.0, v)

	// Dates before the series start fail the lookup.
	_, err = ctx.Spot(day(1).AddDate(0, 0, -1))
	require.Error(t, err)
	assert.True(t, errors.IsNotFound(err))
}

func TestRateAndYieldDefaults(t *testing.T) {
	ctx := newTestContext(t)

	r, err := ctx.Rate(day(3))
	require.NoError(t, err)
	assert.Equal(t, DefaultRate, r)

	q, err := ctx.DividendYield(day(3))
	require.NoError(t, err)
	assert.Equal(t, DefaultDividendYield, q)
}

func TestRateSeriesBackwardFill(t *testing.T) {
	ctx := newTestContext(t)
	ctx.SetRates([]Observation{
		{Date: day(1), Value: 0.04},
		{Date: day(4), Value: 0.045},
	})

	r, err := ctx.Rate(day(2))
	require.NoError(t, err)
	assert.Equal(t, 0.04, r)

	r, err = ctx.Rate(day(4))
	require.NoError(t, err)
	assert.Equal(t, 0.045, r)
}

func TestForward(t *testing.T) {
	ctx := newTestContext(t)
	ctx.SetRates([]Observation{{Date: day(1), Value: 0.05}})
	ctx.SetDividendYields([]Observation{{Date: day(1), Value: 0.01}})

	expiry := day(1).AddDate(0, 0, 365)
	f, err := ctx.Forward(day(1), expiry)
	require.NoError(t, err)
	assert.InDelta(t, 100*math.Exp(0.04), f, 1e-9)
}

func TestImpliedVolDefaultsWithoutSurfaces(t *testing.T) {
	ctx := newTestContext(t)
	iv := ctx.ImpliedVol(day(1), 100, day(1).AddDate(0, 0, 30))
	assert.Equal(t, DefaultImpliedVol, iv)
}

func TestImpliedVolUsesNearestSurface(t *testing.T) {
	ctx := newTestContext(t)

	flat := func(asOf time.Time, vol float64) *surface.Surface {
		var samples []surface.Sample
		for _, strike := range []float64{80, 100, 120} {
			for _, days := range []int{7, 30, 90} {
				samples = append(samples, surface.Sample{
					Strike: strike, DaysToExpiry: days, ImpliedVol: vol,
				})
			}
		}
		s, err := surface.New(asOf, "SPY", samples, surface.MethodLinear)
		require.NoError(t, err)
		return s
	}
	ctx.AddSurface(flat(day(1), 0.20))
	ctx.AddSurface(flat(day(10), 0.30))

	// day(3) is closer to the first snapshot, day(8) to the second.
	near := ctx.ImpliedVol(day(3), 100, day(3).AddDate(0, 0, 30))
	far := ctx.ImpliedVol(day(8), 100, day(8).AddDate(0, 0, 30))
	assert.InDelta(t, 0.20, near, 1e-9)
	assert.InDelta(t, 0.30, far, 1e-9)
}

func TestShiftViewsIsolateBase(t *testing.T) {
	ctx := newTestContext(t)

	bumped := ctx.WithSpotShift(1.0)
	v, err := bumped.Spot(day(1))
	require.NoError(t, err)
	assert.Equal(t, 101.0, v)

	// The base context is untouched.
	v, err = ctx.Spot(day(1))
	require.NoError(t, err)
	assert.Equal(t, 100.0, v)

	r, err := ctx.WithRateShift(0.01).Rate(day(1))
	require.NoError(t, err)
	assert.InDelta(t, DefaultRate+0.01, r, 1e-12)

	iv := ctx.WithVolShift(0.05).ImpliedVol(day(1), 100, day(1).AddDate(0, 0, 30))
	assert.InDelta(t, DefaultImpliedVol+0.05, iv, 1e-12)
}

func TestShiftsCompose(t *testing.T) {
	ctx := newTestContext(t)
	v, err := ctx.WithSpotShift(1.0).WithSpotShift(0.5).Spot(day(1))
	require.NoError(t, err)
	assert.Equal(t, 101.5, v)
}

func TestSlice(t *testing.T) {
	ctx := newTestContext(t)

	sliced, err := ctx.Slice(day(3), day(5))
	require.NoError(t, err)
	assert.Len(t, sliced.Dates(), 2)

	_, err = ctx.Spot(day(1))
	require.NoError(t, err)
	_, err = sliced.Spot(day(2))
	require.Error(t, err)

	_, err = ctx.Slice(day(20), day(25))
	require.Error(t, err)
}

func TestYearFraction(t *testing.T) {
	assert.InDelta(t, 30.0/365.0, YearFraction(day(1), day(31)), 1e-12)
	assert.Zero(t, YearFraction(day(1), day(1)))
}

func TestGBMPathDeterministic(t *testing.T) {
	a := GBMPath(day(1), 100, 0.05, 0.2, 50, 7)
	b := GBMPath(day(1), 100, 0.05, 0.2, 50, 7)
	require.Len(t, a, 50)
	assert.Equal(t, 100.0, a[0].Value)
	for i := range a {
		assert.Equal(t, a[i].Value, b[i].Value)
		assert.Positive(t, a[i].Value)
	}
}

func TestSeriesLastObservationWins(t *testing.T) {
	ctx, err := NewContext("SPY", []Observation{
		{Date: day(1), Value: 100},
		{Date: day(1), Value: 101},
	})
	require.NoError(t, err)

	v, err := ctx.Spot(day(1))
	require.NoError(t, err)
	assert.Equal(t, 101.0, v)
}
