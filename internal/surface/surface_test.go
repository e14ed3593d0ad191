package surface

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func gridSamples(vol float64) []Sample {
	var samples []Sample
	for _, strike := range []float64{80, 90, 100, 110, 120} {
		for _, days := range []int{7, 30, 90, 180} {
			samples = append(samples, Sample{Strike: strike, DaysToExpiry: days, ImpliedVol: vol})
		}
	}
	return samples
}

func TestNewRequiresThreeDistinctPoints(t *testing.T) {
	asOf := date(2024, time.March, 1)

	_, err := New(asOf, "SPY", []Sample{
		{Strike: 100, DaysToExpiry: 30, ImpliedVol: 0.2},
		{Strike: 110, DaysToExpiry: 30, ImpliedVol: 0.2},
	}, MethodCubic)
	require.Error(t, err)

	// Duplicates do not count toward the minimum.
	_, err = New(asOf, "SPY", []Sample{
		{Strike: 100, DaysToExpiry: 30, ImpliedVol: 0.2},
		{Strike: 100, DaysToExpiry: 30, ImpliedVol: 0.25},
		{Strike: 110, DaysToExpiry: 30, ImpliedVol: 0.2},
	}, MethodCubic)
	require.Error(t, err)
}

func TestFlatSurfaceRecoversFlatVol(t *testing.T) {
	asOf := date(2024, time.March, 1)
	s, err := New(asOf, "SPY", gridSamples(0.20), MethodLinear)
	require.NoError(t, err)

	for _, strike := range []float64{85, 95, 100, 105, 115} {
		for _, days := range []int{14, 45, 120} {
			assert.InDelta(t, 0.20, s.IVDays(strike, days), 1e-9,
				"strike %.0f days %d", strike, days)
		}
	}
}

func TestExpiredLookupReturnsZero(t *testing.T) {
	asOf := date(2024, time.March, 1)
	s, err := New(asOf, "SPY", gridSamples(0.20), MethodCubic)
	require.NoError(t, err)

	assert.Zero(t, s.IVDays(100, 0))
	assert.Zero(t, s.IVDays(100, -5))
	assert.Zero(t, s.IV(100, asOf))
	assert.Zero(t, s.IV(100, asOf.AddDate(0, 0, -10)))
}

func TestInterpolatedVolIsClamped(t *testing.T) {
	asOf := date(2024, time.March, 1)

	// A non-degenerate triangle around the query point keeps the lookup on
	// the interpolated path, where the 1% floor applies.
	s, err := New(asOf, "SPY", []Sample{
		{Strike: 90, DaysToExpiry: 10, ImpliedVol: 0.001},
		{Strike: 110, DaysToExpiry: 10, ImpliedVol: 0.001},
		{Strike: 100, DaysToExpiry: 40, ImpliedVol: 0.001},
	}, MethodLinear)
	require.NoError(t, err)

	assert.InDelta(t, 0.01, s.IVDays(100, 20), 1e-9)
}

func TestDegenerateFitFallsBackUnclamped(t *testing.T) {
	asOf := date(2024, time.March, 1)

	// All samples on one expiry row: collinear in the (strike, days) plane,
	// so the linear fit degenerates and lookups take the nearest raw
	// sample, below the interpolation clamp floor.
	s, err := New(asOf, "SPY", []Sample{
		{Strike: 90, DaysToExpiry: 30, ImpliedVol: 0.001},
		{Strike: 100, DaysToExpiry: 30, ImpliedVol: 0.001},
		{Strike: 110, DaysToExpiry: 30, ImpliedVol: 0.001},
	}, MethodLinear)
	require.NoError(t, err)

	assert.InDelta(t, 0.001, s.IVDays(95, 30), 1e-9)
}

func TestIVUsesSurfaceDateForExpiry(t *testing.T) {
	asOf := date(2024, time.March, 1)
	s, err := New(asOf, "SPY", gridSamples(0.25), MethodLinear)
	require.NoError(t, err)

	assert.InDelta(t, 0.25, s.IV(100, asOf.AddDate(0, 0, 30)), 1e-9)
}

func TestSmile(t *testing.T) {
	asOf := date(2024, time.March, 1)
	s, err := New(asOf, "SPY", gridSamples(0.20), MethodLinear)
	require.NoError(t, err)

	strikes := []float64{90, 100, 110}
	vols := s.Smile(30, strikes)
	require.Len(t, vols, 3)
	for i := range vols {
		assert.InDelta(t, 0.20, vols[i], 1e-9)
	}
}

func TestDaysBetween(t *testing.T) {
	from := date(2024, time.March, 1)
	assert.Equal(t, 0, DaysBetween(from, from))
	assert.Equal(t, 30, DaysBetween(from, from.AddDate(0, 0, 30)))
	assert.Equal(t, -7, DaysBetween(from, from.AddDate(0, 0, -7)))
}

func TestDeltaSurfaceLookup(t *testing.T) {
	asOf := date(2024, time.March, 1)
	d, err := NewDeltaSurface(asOf, []DeltaSample{
		{Delta: 0.25, DaysToExpiry: 30, ImpliedVol: 0.22},
		{Delta: 0.50, DaysToExpiry: 30, ImpliedVol: 0.20},
		{Delta: 0.75, DaysToExpiry: 30, ImpliedVol: 0.21},
		{Delta: 0.50, DaysToExpiry: 60, ImpliedVol: 0.19},
	})
	require.NoError(t, err)

	// Nearest delta among the matching expiry rows.
	assert.Equal(t, 0.20, d.IVByDelta(0.48, 30))
	assert.Equal(t, 0.22, d.IVByDelta(0.10, 30))

	// No rows at 90 days: the search widens to every sample.
	assert.Equal(t, 0.19, d.IVByDelta(0.50, 90))
}

func TestDeltaSurfaceNeedsSamples(t *testing.T) {
	_, err := NewDeltaSurface(date(2024, time.March, 1), nil)
	require.Error(t, err)
}
