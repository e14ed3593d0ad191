package models

import (
	"fmt"
	"sort"
	"time"
)

// Portfolio owns a set of strategies, a cash balance and an append-only
// trade ledger. Invariant: Cash == InitialCash + sum of all recorded
// cash flows.
type Portfolio struct {
	InitialCash float64
	Cash        float64
	Strategies  []*OptionStrategy
	Trades      []TradeRecord
}

// NewPortfolio creates a portfolio with the given starting cash.
func NewPortfolio(initialCash float64) *Portfolio {
	return &Portfolio{
		InitialCash: initialCash,
		Cash:        initialCash,
	}
}

// AddStrategy appends a strategy and returns its index.
func (p *Portfolio) AddStrategy(strategy *OptionStrategy) int {
	p.Strategies = append(p.Strategies, strategy)
	return len(p.Strategies) - 1
}

// RemoveStrategy removes the strategy at index. Out-of-range indices are
// ignored.
func (p *Portfolio) RemoveStrategy(index int) {
	if index < 0 || index >= len(p.Strategies) {
		return
	}
	p.Strategies = append(p.Strategies[:index], p.Strategies[index+1:]...)
}

// RemoveStrategies removes a batch of strategies by index. Removal happens
// in descending index order so earlier removals cannot shift the indices
// of later ones. Duplicate indices are removed once.
func (p *Portfolio) RemoveStrategies(indices []int) {
	sorted := make([]int, len(indices))
	copy(sorted, indices)
	sort.Sort(sort.Reverse(sort.IntSlice(sorted)))

	prev := -1
	for _, idx := range sorted {
		if idx == prev {
			continue
		}
		p.RemoveStrategy(idx)
		prev = idx
	}
}

// RecordTrade applies a cash flow to the balance and appends a ledger
// entry. strategyIndex may be nil for trades not tied to one strategy.
func (p *Portfolio) RecordTrade(date time.Time, description string, cashFlow float64, strategyIndex *int) {
	p.Cash += cashFlow
	p.Trades = append(p.Trades, TradeRecord{
		Date:          date,
		Description:   description,
		CashFlow:      cashFlow,
		StrategyIndex: strategyIndex,
		CashBalance:   p.Cash,
	})
}

func (p *Portfolio) String() string {
	return fmt.Sprintf("Portfolio(cash=%.2f, strategies=%d)", p.Cash, len(p.Strategies))
}
