package strategy

import (
	"fmt"
	"time"

	"github.com/rzzdr/options-backtester/pkg/models"
	"github.com/rzzdr/options-backtester/pkg/utils/errors"
)

// SpreadKind selects the direction of a vertical spread.
type SpreadKind string

const (
	SpreadDebit  SpreadKind = "debit"
	SpreadCredit SpreadKind = "credit"
)

// Direction selects long or short for symmetric structures.
type Direction string

const (
	DirectionLong  Direction = "long"
	DirectionShort Direction = "short"
)

func (d Direction) sign() (float64, error) {
	switch d {
	case DirectionLong:
		return 1.0, nil
	case DirectionShort:
		return -1.0, nil
	default:
		return 0, errors.InvalidArgumentf("invalid direction: %q", d)
	}
}

// NewCalendarSpread shorts the near expiry and goes long the far expiry at
// the same strike and option type.
func NewCalendarSpread(underlying string, optionType models.OptionType, strike float64, nearExpiry, farExpiry time.Time, quantity float64) (*models.OptionStrategy, error) {
	if !farExpiry.After(nearExpiry) {
		return nil, errors.InvalidArgumentf("far expiry %s must be after near expiry %s",
			farExpiry.Format("2006-01-02"), nearExpiry.Format("2006-01-02"))
	}

	near, err := models.NewOptionContract(underlying, optionType, strike, nearExpiry)
	if err != nil {
		return nil, err
	}
	far, err := models.NewOptionContract(underlying, optionType, strike, farExpiry)
	if err != nil {
		return nil, err
	}

	s := models.NewOptionStrategy(fmt.Sprintf("Calendar Spread %.2f", strike))
	s.AddLeg(models.NewOptionLeg(near, -quantity))
	s.AddLeg(models.NewOptionLeg(far, quantity))
	return s, nil
}

// NewVerticalSpread builds a two-leg spread on one expiry. Debit call and
// credit put spreads are bullish; the mirrored layouts are bearish.
func NewVerticalSpread(underlying string, optionType models.OptionType, lowerStrike, upperStrike float64, expiry time.Time, kind SpreadKind, quantity float64) (*models.OptionStrategy, error) {
	if upperStrike <= lowerStrike {
		return nil, errors.InvalidArgumentf("upper strike %.2f must exceed lower strike %.2f", upperStrike, lowerStrike)
	}

	lower, err := models.NewOptionContract(underlying, optionType, lowerStrike, expiry)
	if err != nil {
		return nil, err
	}
	upper, err := models.NewOptionContract(underlying, optionType, upperStrike, expiry)
	if err != nil {
		return nil, err
	}

	s := models.NewOptionStrategy(fmt.Sprintf("%s Vertical Spread", kind))
	switch kind {
	case SpreadDebit:
		if optionType == models.OptionTypeCall {
			s.AddLeg(models.NewOptionLeg(lower, quantity))
			s.AddLeg(models.NewOptionLeg(upper, -quantity))
		} else {
			s.AddLeg(models.NewOptionLeg(upper, quantity))
			s.AddLeg(models.NewOptionLeg(lower, -quantity))
		}
	case SpreadCredit:
		if optionType == models.OptionTypeCall {
			s.AddLeg(models.NewOptionLeg(lower, -quantity))
			s.AddLeg(models.NewOptionLeg(upper, quantity))
		} else {
			s.AddLeg(models.NewOptionLeg(upper, -quantity))
			s.AddLeg(models.NewOptionLeg(lower, quantity))
		}
	default:
		return nil, errors.InvalidArgumentf("invalid spread kind: %q", kind)
	}
	return s, nil
}

// NewButterfly builds the 1/-2/1 three-strike structure on one expiry.
func NewButterfly(underlying string, optionType models.OptionType, lowerStrike, middleStrike, upperStrike float64, expiry time.Time, quantity float64) (*models.OptionStrategy, error) {
	if !(lowerStrike < middleStrike && middleStrike < upperStrike) {
		return nil, errors.InvalidArgumentf("strikes must be strictly increasing: %.2f, %.2f, %.2f",
			lowerStrike, middleStrike, upperStrike)
	}

	lower, err := models.NewOptionContract(underlying, optionType, lowerStrike, expiry)
	if err != nil {
		return nil, err
	}
	middle, err := models.NewOptionContract(underlying, optionType, middleStrike, expiry)
	if err != nil {
		return nil, err
	}
	upper, err := models.NewOptionContract(underlying, optionType, upperStrike, expiry)
	if err != nil {
		return nil, err
	}

	s := models.NewOptionStrategy(fmt.Sprintf("Butterfly %.2f", middleStrike))
	s.AddLeg(models.NewOptionLeg(lower, quantity))
	s.AddLeg(models.NewOptionLeg(middle, -2*quantity))
	s.AddLeg(models.NewOptionLeg(upper, quantity))
	return s, nil
}

// NewIronCondor combines an OTM put credit spread and an OTM call credit
// spread on one expiry. Strikes run long put < short put < short call <
// long call.
func NewIronCondor(underlying string, putLower, putUpper, callLower, callUpper float64, expiry time.Time, quantity float64) (*models.OptionStrategy, error) {
	if !(putLower < putUpper && putUpper < callLower && callLower < callUpper) {
		return nil, errors.InvalidArgumentf("strikes must be strictly increasing: %.2f, %.2f, %.2f, %.2f",
			putLower, putUpper, callLower, callUpper)
	}

	longPut, err := models.NewOptionContract(underlying, models.OptionTypePut, putLower, expiry)
	if err != nil {
		return nil, err
	}
	shortPut, err := models.NewOptionContract(underlying, models.OptionTypePut, putUpper, expiry)
	if err != nil {
		return nil, err
	}
	shortCall, err := models.NewOptionContract(underlying, models.OptionTypeCall, callLower, expiry)
	if err != nil {
		return nil, err
	}
	longCall, err := models.NewOptionContract(underlying, models.OptionTypeCall, callUpper, expiry)
	if err != nil {
		return nil, err
	}

	s := models.NewOptionStrategy("Iron Condor")
	s.AddLeg(models.NewOptionLeg(longPut, quantity))
	s.AddLeg(models.NewOptionLeg(shortPut, -quantity))
	s.AddLeg(models.NewOptionLeg(shortCall, -quantity))
	s.AddLeg(models.NewOptionLeg(longCall, quantity))
	return s, nil
}

// NewStraddle pairs a call and a put at the same strike and expiry.
func NewStraddle(underlying string, strike float64, expiry time.Time, direction Direction, quantity float64) (*models.OptionStrategy, error) {
	sign, err := direction.sign()
	if err != nil {
		return nil, err
	}

	call, err := models.NewOptionContract(underlying, models.OptionTypeCall, strike, expiry)
	if err != nil {
		return nil, err
	}
	put, err := models.NewOptionContract(underlying, models.OptionTypePut, strike, expiry)
	if err != nil {
		return nil, err
	}

	s := models.NewOptionStrategy(fmt.Sprintf("%s Straddle %.2f", direction, strike))
	s.AddLeg(models.NewOptionLeg(call, sign*quantity))
	s.AddLeg(models.NewOptionLeg(put, sign*quantity))
	return s, nil
}

// NewStrangle pairs an OTM put below an OTM call on one expiry.
func NewStrangle(underlying string, putStrike, callStrike float64, expiry time.Time, direction Direction, quantity float64) (*models.OptionStrategy, error) {
	if putStrike >= callStrike {
		return nil, errors.InvalidArgumentf("put strike %.2f must be below call strike %.2f", putStrike, callStrike)
	}

	sign, err := direction.sign()
	if err != nil {
		return nil, err
	}

	call, err := models.NewOptionContract(underlying, models.OptionTypeCall, callStrike, expiry)
	if err != nil {
		return nil, err
	}
	put, err := models.NewOptionContract(underlying, models.OptionTypePut, putStrike, expiry)
	if err != nil {
		return nil, err
	}

	s := models.NewOptionStrategy(fmt.Sprintf("%s Strangle", direction))
	s.AddLeg(models.NewOptionLeg(call, sign*quantity))
	s.AddLeg(models.NewOptionLeg(put, sign*quantity))
	return s, nil
}
