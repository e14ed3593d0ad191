package strategy

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rzzdr/options-backtester/pkg/models"
)

func day(d int) time.Time {
	return time.Date(2024, time.March, d, 0, 0, 0, 0, time.UTC)
}

func TestCalendarSpreadLegs(t *testing.T) {
	s, err := NewCalendarSpread("SPY", models.OptionTypeCall, 100, day(10), day(20), 2)
	require.NoError(t, err)
	require.Len(t, s.Legs, 2)

	assert.Equal(t, -2.0, s.Legs[0].Quantity)
	assert.Equal(t, day(10), s.Legs[0].Contract.Expiry)
	assert.Equal(t, 2.0, s.Legs[1].Quantity)
	assert.Equal(t, day(20), s.Legs[1].Contract.Expiry)
	assert.Equal(t, s.Legs[0].Contract.Strike, s.Legs[1].Contract.Strike)

	_, err = NewCalendarSpread("SPY", models.OptionTypeCall, 100, day(20), day(10), 1)
	require.Error(t, err)
	_, err = NewCalendarSpread("SPY", models.OptionTypeCall, 100, day(10), day(10), 1)
	require.Error(t, err)
}

func TestVerticalSpreadLayouts(t *testing.T) {
	debitCall, err := NewVerticalSpread("SPY", models.OptionTypeCall, 95, 105, day(30), SpreadDebit, 1)
	require.NoError(t, err)
	require.Len(t, debitCall.Legs, 2)
	assert.Equal(t, 95.0, debitCall.Legs[0].Contract.Strike)
	assert.Equal(t, 1.0, debitCall.Legs[0].Quantity)
	assert.Equal(t, 105.0, debitCall.Legs[1].Contract.Strike)
	assert.Equal(t, -1.0, debitCall.Legs[1].Quantity)

	// A debit put spread longs the upper strike.
	debitPut, err := NewVerticalSpread("SPY", models.OptionTypePut, 95, 105, day(30), SpreadDebit, 1)
	require.NoError(t, err)
	assert.Equal(t, 105.0, debitPut.Legs[0].Contract.Strike)
	assert.Equal(t, 1.0, debitPut.Legs[0].Quantity)

	creditCall, err := NewVerticalSpread("SPY", models.OptionTypeCall, 95, 105, day(30), SpreadCredit, 1)
	require.NoError(t, err)
	assert.Equal(t, -1.0, creditCall.Legs[0].Quantity)
	assert.Equal(t, 95.0, creditCall.Legs[0].Contract.Strike)

	_, err = NewVerticalSpread("SPY", models.OptionTypeCall, 105, 95, day(30), SpreadDebit, 1)
	require.Error(t, err)
	_, err = NewVerticalSpread("SPY", models.OptionTypeCall, 95, 105, day(30), "sideways", 1)
	require.Error(t, err)
}

func TestButterflyLegs(t *testing.T) {
	s, err := NewButterfly("SPY", models.OptionTypeCall, 90, 100, 110, day(30), 1)
	require.NoError(t, err)
	require.Len(t, s.Legs, 3)
	assert.Equal(t, 1.0, s.Legs[0].Quantity)
	assert.Equal(t, -2.0, s.Legs[1].Quantity)
	assert.Equal(t, 1.0, s.Legs[2].Quantity)

	// Peak payoff at the middle strike, zero at the wings.
	assert.Equal(t, 10.0*100, s.Payoff(100))
	assert.Zero(t, s.Payoff(90))
	assert.Zero(t, s.Payoff(110))
	assert.Zero(t, s.Payoff(120))

	_, err = NewButterfly("SPY", models.OptionTypeCall, 100, 100, 110, day(30), 1)
	require.Error(t, err)
}

func TestIronCondorLegs(t *testing.T) {
	s, err := NewIronCondor("SPY", 80, 90, 110, 120, day(30), 1)
	require.NoError(t, err)
	require.Len(t, s.Legs, 4)

	assert.True(t, s.Legs[0].Contract.IsPut())
	assert.Equal(t, 1.0, s.Legs[0].Quantity)
	assert.True(t, s.Legs[1].Contract.IsPut())
	assert.Equal(t, -1.0, s.Legs[1].Quantity)
	assert.True(t, s.Legs[2].Contract.IsCall())
	assert.Equal(t, -1.0, s.Legs[2].Quantity)
	assert.True(t, s.Legs[3].Contract.IsCall())
	assert.Equal(t, 1.0, s.Legs[3].Quantity)

	// Inside the short strikes every leg expires worthless.
	assert.Zero(t, s.Payoff(100))
	// Beyond a long strike the loss caps at the wing width.
	assert.Equal(t, -10.0*100, s.Payoff(70))
	assert.Equal(t, -10.0*100, s.Payoff(130))

	_, err = NewIronCondor("SPY", 80, 110, 90, 120, day(30), 1)
	require.Error(t, err)
}

func TestStraddleDirections(t *testing.T) {
	long, err := NewStraddle("SPY", 100, day(30), DirectionLong, 1)
	require.NoError(t, err)
	require.Len(t, long.Legs, 2)
	assert.Equal(t, 1.0, long.Legs[0].Quantity)
	assert.Equal(t, 1.0, long.Legs[1].Quantity)
	assert.Equal(t, 10.0*100, long.Payoff(110))
	assert.Equal(t, 10.0*100, long.Payoff(90))

	short, err := NewStraddle("SPY", 100, day(30), DirectionShort, 2)
	require.NoError(t, err)
	assert.Equal(t, -2.0, short.Legs[0].Quantity)

	_, err = NewStraddle("SPY", 100, day(30), "flat", 1)
	require.Error(t, err)
}

func TestStrangleStrikes(t *testing.T) {
	s, err := NewStrangle("SPY", 90, 110, day(30), DirectionLong, 1)
	require.NoError(t, err)
	require.Len(t, s.Legs, 2)
	assert.True(t, s.Legs[0].Contract.IsCall())
	assert.Equal(t, 110.0, s.Legs[0].Contract.Strike)
	assert.True(t, s.Legs[1].Contract.IsPut())
	assert.Equal(t, 90.0, s.Legs[1].Contract.Strike)

	_, err = NewStrangle("SPY", 110, 90, day(30), DirectionLong, 1)
	require.Error(t, err)
	_, err = NewStrangle("SPY", 100, 100, day(30), DirectionLong, 1)
	require.Error(t, err)
}

func TestRollingPolicyShouldEnter(t *testing.T) {
	p := NewRollingPolicy(nil, EntryWeekly)

	// The first day of a run always enters.
	assert.True(t, p.ShouldEnter(day(5), time.Time{}))

	monday := time.Date(2024, time.March, 4, 0, 0, 0, 0, time.UTC)
	assert.True(t, p.ShouldEnter(monday, day(1)))
	assert.False(t, p.ShouldEnter(monday.AddDate(0, 0, 1), monday))

	monthly := NewRollingPolicy(nil, EntryMonthly)
	assert.True(t, monthly.ShouldEnter(time.Date(2024, time.April, 1, 0, 0, 0, 0, time.UTC), day(29)))
	assert.False(t, monthly.ShouldEnter(day(15), day(14)))
	assert.True(t, monthly.ShouldEnter(time.Date(2025, time.March, 3, 0, 0, 0, 0, time.UTC), day(29)))

	daily := NewRollingPolicy(nil, EntryDaily)
	assert.True(t, daily.ShouldEnter(day(6), day(5)))
}

func TestRollingPolicyShouldExit(t *testing.T) {
	s, err := NewStraddle("SPY", 100, day(20), DirectionLong, 1)
	require.NoError(t, err)

	p := NewRollingPolicy(nil, EntryMonthly)
	assert.False(t, p.ShouldExit(day(10), s))
	assert.True(t, p.ShouldExit(day(20), s))

	p.DaysBeforeExpiry = 5
	assert.True(t, p.ShouldExit(day(15), s))
	assert.False(t, p.ShouldExit(day(14), s))

	p.ExitOnExpiry = false
	assert.False(t, p.ShouldExit(day(25), s))
}

func TestDeltaHedger(t *testing.T) {
	h := NewDeltaHedger(0, 10)

	assert.False(t, h.ShouldRebalance(5))
	assert.True(t, h.ShouldRebalance(25))
	assert.True(t, h.ShouldRebalance(-25))

	assert.Equal(t, -25.0, h.CalculateHedge(25))

	p := models.NewPortfolio(10000)
	shares := h.ExecuteHedge(p, 25, 100, day(5))
	assert.Equal(t, -25.0, shares)
	assert.Equal(t, -25.0, h.Position())

	// Selling 25 shares at 100 credits the account.
	require.Len(t, p.Trades, 1)
	assert.Equal(t, 2500.0, p.Trades[0].CashFlow)
	assert.Equal(t, 12500.0, p.Cash)

	h.ExecuteHedge(p, -10, 100, day(6))
	assert.Equal(t, -15.0, h.Position())
}
