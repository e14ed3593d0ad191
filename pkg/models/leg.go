package models

import "fmt"

// OptionLeg is a signed position in one contract. Positive quantity is
// long, negative is short. The leg references its contract; it does not
// own it.
type OptionLeg struct {
	Contract *OptionContract
	Quantity float64
	// Per-contract price recorded at entry; zero when not recorded.
	EntryPrice float64
}

// NewOptionLeg creates a leg for the given contract and signed quantity.
func NewOptionLeg(contract *OptionContract, quantity float64) *OptionLeg {
	return &OptionLeg{Contract: contract, Quantity: quantity}
}

// IsLong reports whether the leg is a long position.
func (l *OptionLeg) IsLong() bool {
	return l.Quantity > 0
}

// IsShort reports whether the leg is a short position.
func (l *OptionLeg) IsShort() bool {
	return l.Quantity < 0
}

// Payoff returns the leg's total expiration payoff at the given spot,
// scaled by quantity and contract multiplier.
func (l *OptionLeg) Payoff(spot float64) float64 {
	return l.Contract.Payoff(spot) * l.Quantity * l.Contract.Multiplier
}

func (l *OptionLeg) String() string {
	direction := "LONG"
	if l.IsShort() {
		direction = "SHORT"
	}
	qty := l.Quantity
	if qty < 0 {
		qty = -qty
	}
	return fmt.Sprintf("%s %.2fx %s", direction, qty, l.Contract)
}
