package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// ArbitrageRow is one computed cash-futures carry opportunity. Rows are
// rebuilt from scratch every scan cycle and never mutated afterwards.
type ArbitrageRow struct {
	Symbol           string
	SpotPrice        decimal.Decimal
	FuturesPrice     decimal.Decimal
	Premium          decimal.Decimal
	AnnualizedCoCPct decimal.Decimal
	Expiry           time.Time
	DaysToExpiry     int
	IsHighCarry      bool
}

// FailureNotice records a symbol that could not be computed this cycle.
type FailureNotice struct {
	Symbol  string
	Kind    ErrorKind
	Message string
}

// CycleResult is the complete outcome of one scan cycle: ranked rows,
// per-symbol failures, and the market-hours flag for the presentation layer.
type CycleResult struct {
	Rows       []ArbitrageRow
	Failures   []FailureNotice
	AsOf       time.Time
	MarketOpen bool
}

// Err reports the hard-failure case: not a single symbol produced a row.
func (c CycleResult) Err() error {
	if len(c.Rows) == 0 {
		return ErrNoData
	}
	return nil
}
