package models

import (
	"fmt"
	"strings"
	"time"
)

// OptionStrategy is a named, ordered collection of legs. Strategy variants
// (spreads, butterflies, condors, ...) differ only in the legs they are
// built with; see the strategy package for the builders.
type OptionStrategy struct {
	Name string
	Legs []*OptionLeg
}

// NewOptionStrategy creates an empty strategy with the given display name.
func NewOptionStrategy(name string) *OptionStrategy {
	return &OptionStrategy{Name: name}
}

// AddLeg appends a leg to the strategy.
func (s *OptionStrategy) AddLeg(leg *OptionLeg) {
	s.Legs = append(s.Legs, leg)
}

// NumContracts returns the total number of contracts across all legs,
// counting shorts as positive.
func (s *OptionStrategy) NumContracts() float64 {
	total := 0.0
	for _, leg := range s.Legs {
		if leg.Quantity < 0 {
			total -= leg.Quantity
		} else {
			total += leg.Quantity
		}
	}
	return total
}

// Payoff returns the total expiration payoff across all legs.
func (s *OptionStrategy) Payoff(spot float64) float64 {
	total := 0.0
	for _, leg := range s.Legs {
		total += leg.Payoff(spot)
	}
	return total
}

// HasExpiredLeg reports whether any leg's contract has expired on or
// before the given date.
func (s *OptionStrategy) HasExpiredLeg(date time.Time) bool {
	for _, leg := range s.Legs {
		if !leg.Contract.Expiry.After(date) {
			return true
		}
	}
	return false
}

func (s *OptionStrategy) String() string {
	legs := make([]string, len(s.Legs))
	for i, leg := range s.Legs {
		legs[i] = leg.String()
	}
	return fmt.Sprintf("%s:\n  %s", s.Name, strings.Join(legs, "\n  "))
}
