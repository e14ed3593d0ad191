package dateutil

import (
	"math"
	"time"

	"github.com/rzzdr/options-backtester/pkg/utils/errors"
)

// ExpiryFrequency selects the listed-expiry schedule to generate.
type ExpiryFrequency string

const (
	// ExpiryWeekly lists one expiry per week on a fixed weekday.
	ExpiryWeekly ExpiryFrequency = "weekly"
	// ExpiryMonthly lists the third Friday of each month.
	ExpiryMonthly ExpiryFrequency = "monthly"
)

// GenerateExpiryDates returns option expiry dates inside [start, end].
// Weekly schedules fall on the given weekday (options conventionally
// expire on Fridays); monthly schedules use the third Friday.
func GenerateExpiryDates(start, end time.Time, frequency ExpiryFrequency, weekday time.Weekday) ([]time.Time, error) {
	switch frequency {
	case ExpiryWeekly:
		return weeklyExpiries(start, end, weekday), nil
	case ExpiryMonthly:
		return monthlyExpiries(start, end), nil
	default:
		return nil, errors.InvalidArgumentf("invalid expiry frequency: %q", frequency)
	}
}

func weeklyExpiries(start, end time.Time, weekday time.Weekday) []time.Time {
	var out []time.Time
	current := start
	for !current.After(end) {
		ahead := (int(weekday) - int(current.Weekday()) + 7) % 7
		expiry := current.AddDate(0, 0, ahead)
		if expiry.After(end) {
			break
		}
		out = append(out, expiry)
		current = expiry.AddDate(0, 0, 7)
	}
	return out
}

func monthlyExpiries(start, end time.Time) []time.Time {
	var out []time.Time
	current := start
	for !current.After(end) {
		expiry := ThirdFriday(current.Year(), current.Month())
		if !expiry.Before(current) && !expiry.After(end) {
			out = append(out, expiry)
		}
		current = time.Date(current.Year(), current.Month(), 1, 0, 0, 0, 0, current.Location()).AddDate(0, 1, 0)
	}
	return out
}

// ThirdFriday returns the third Friday of the given month.
func ThirdFriday(year int, month time.Month) time.Time {
	first := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
	offset := (int(time.Friday) - int(first.Weekday()) + 7) % 7
	return first.AddDate(0, 0, offset+14)
}

// MoneynessKind selects the moneyness convention.
type MoneynessKind string

const (
	MoneynessSimple MoneynessKind = "simple"
	MoneynessLog    MoneynessKind = "log"
)

// Moneyness returns spot/strike, or its log under the log convention.
func Moneyness(spot, strike float64, kind MoneynessKind) (float64, error) {
	switch kind {
	case MoneynessSimple:
		return spot / strike, nil
	case MoneynessLog:
		return math.Log(spot / strike), nil
	default:
		return 0, errors.InvalidArgumentf("invalid moneyness kind: %q", kind)
	}
}

// DaysToExpiry counts whole calendar days from date to expiry.
func DaysToExpiry(date, expiry time.Time) int {
	return int(expiry.Sub(date).Hours() / 24)
}

// AnnualizeReturn converts a total return over numDays into an annualized
// rate, assuming 252 trading days per year.
func AnnualizeReturn(totalReturn float64, numDays int) float64 {
	if numDays <= 0 {
		return 0
	}
	years := float64(numDays) / 252.0
	return math.Pow(1+totalReturn, 1/years) - 1
}
