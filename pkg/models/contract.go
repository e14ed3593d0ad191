package models

import (
	"fmt"
	"math"
	"time"

	"github.com/rzzdr/options-backtester/pkg/utils/errors"
)

// OptionType distinguishes calls from puts.
type OptionType string

const (
	OptionTypeCall OptionType = "call"
	OptionTypePut  OptionType = "put"
)

// ExerciseStyle is carried on every contract. Pricing treats all contracts
// as European; the american value is accepted but has no behavioral effect.
type ExerciseStyle string

const (
	StyleEuropean ExerciseStyle = "european"
	StyleAmerican ExerciseStyle = "american"
)

// DefaultMultiplier is the standard equity option contract size.
const DefaultMultiplier = 100.0

// OptionContract describes a single option. Contracts are immutable once
// created.
type OptionContract struct {
	Underlying string
	Type       OptionType
	Style      ExerciseStyle
	Strike     float64
	Expiry     time.Time
	Multiplier float64
}

// NewOptionContract creates a validated European contract with the default
// multiplier.
func NewOptionContract(underlying string, optionType OptionType, strike float64, expiry time.Time) (*OptionContract, error) {
	c := &OptionContract{
		Underlying: underlying,
		Type:       optionType,
		Style:      StyleEuropean,
		Strike:     strike,
		Expiry:     expiry,
		Multiplier: DefaultMultiplier,
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

// Validate checks the contract invariants.
func (c *OptionContract) Validate() error {
	if c.Type != OptionTypeCall && c.Type != OptionTypePut {
		return errors.InvalidArgumentf("invalid option type: %q", c.Type)
	}
	if c.Style != StyleEuropean && c.Style != StyleAmerican {
		return errors.InvalidArgumentf("invalid exercise style: %q", c.Style)
	}
	if c.Strike <= 0 {
		return errors.InvalidArgumentf("strike must be positive: %f", c.Strike)
	}
	if c.Multiplier <= 0 {
		return errors.InvalidArgumentf("multiplier must be positive: %f", c.Multiplier)
	}
	return nil
}

// IsCall reports whether the contract is a call.
func (c *OptionContract) IsCall() bool {
	return c.Type == OptionTypeCall
}

// IsPut reports whether the contract is a put.
func (c *OptionContract) IsPut() bool {
	return c.Type == OptionTypePut
}

// IntrinsicValue returns the per-share exercise value at the given spot.
func (c *OptionContract) IntrinsicValue(spot float64) float64 {
	if c.IsCall() {
		return math.Max(spot-c.Strike, 0.0)
	}
	return math.Max(c.Strike-spot, 0.0)
}

// Payoff returns the per-share payoff at expiration.
func (c *OptionContract) Payoff(spot float64) float64 {
	return c.IntrinsicValue(spot)
}

func (c *OptionContract) String() string {
	return fmt.Sprintf("%s %s %.2f %s",
		c.Underlying, c.Type, c.Strike, c.Expiry.Format("2006-01-02"))
}
