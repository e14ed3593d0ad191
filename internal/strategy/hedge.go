package strategy

import (
	"fmt"
	"math"
	"time"

	"github.com/rzzdr/options-backtester/pkg/models"
)

// DeltaHedger keeps portfolio delta near a target by trading shares of the
// underlying. It tracks its own running share position; the cash effect of
// each hedge flows through the portfolio's trade record.
type DeltaHedger struct {
	TargetDelta float64
	Tolerance   float64

	underlyingPosition float64
}

// NewDeltaHedger creates a hedger that flattens delta to target whenever it
// drifts outside the tolerance band.
func NewDeltaHedger(targetDelta, tolerance float64) *DeltaHedger {
	return &DeltaHedger{TargetDelta: targetDelta, Tolerance: tolerance}
}

// ShouldRebalance reports whether the current delta is outside the band.
func (h *DeltaHedger) ShouldRebalance(currentDelta float64) bool {
	return math.Abs(currentDelta-h.TargetDelta) > h.Tolerance
}

// CalculateHedge returns the share trade that moves delta back to target.
// Positive means buy.
func (h *DeltaHedger) CalculateHedge(currentDelta float64) float64 {
	return -(currentDelta - h.TargetDelta)
}

// ExecuteHedge trades the hedge amount and records the cash flow.
func (h *DeltaHedger) ExecuteHedge(p *models.Portfolio, currentDelta, spot float64, date time.Time) float64 {
	shares := h.CalculateHedge(currentDelta)
	h.underlyingPosition += shares

	p.RecordTrade(date, fmt.Sprintf("Delta hedge: %.2f shares", shares), -shares*spot, nil)
	return shares
}

// Position returns the accumulated share position from all hedges.
func (h *DeltaHedger) Position() float64 {
	return h.underlyingPosition
}
