package strategy

import (
	"time"

	"github.com/rzzdr/options-backtester/pkg/models"
)

// EntryFrequency controls how often a rolling policy opens new positions.
type EntryFrequency string

const (
	EntryDaily   EntryFrequency = "daily"
	EntryWeekly  EntryFrequency = "weekly"
	EntryMonthly EntryFrequency = "monthly"
)

// Factory builds a fresh strategy instance for a given entry date.
type Factory func(date time.Time) (*models.OptionStrategy, error)

// RollingPolicy decides when to open and close positions for strategies
// that roll periodically, such as monthly calendar spreads or weekly iron
// condors.
type RollingPolicy struct {
	Build            Factory
	Frequency        EntryFrequency
	ExitOnExpiry     bool
	DaysBeforeExpiry int
}

// NewRollingPolicy creates a policy that exits at expiration.
func NewRollingPolicy(build Factory, frequency EntryFrequency) *RollingPolicy {
	return &RollingPolicy{
		Build:        build,
		Frequency:    frequency,
		ExitOnExpiry: true,
	}
}

// ShouldEnter reports whether a new position opens on date. The first day
// of a backtest (prev zero) always enters. Weekly entries happen on
// Mondays, monthly entries on the first traded day of a new month.
func (p *RollingPolicy) ShouldEnter(date, prev time.Time) bool {
	if prev.IsZero() {
		return true
	}

	switch p.Frequency {
	case EntryDaily:
		return true
	case EntryWeekly:
		return date.Weekday() == time.Monday
	case EntryMonthly:
		return date.Month() != prev.Month() || date.Year() != prev.Year()
	default:
		return false
	}
}

// ShouldExit reports whether the position closes on date: any leg within
// DaysBeforeExpiry calendar days of its expiry triggers the exit.
func (p *RollingPolicy) ShouldExit(date time.Time, s *models.OptionStrategy) bool {
	if !p.ExitOnExpiry {
		return false
	}
	for _, leg := range s.Legs {
		days := int(leg.Contract.Expiry.Sub(date).Hours() / 24)
		if days <= p.DaysBeforeExpiry {
			return true
		}
	}
	return false
}
