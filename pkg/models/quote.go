package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type InstrumentKind string

const (
	KindSpot   InstrumentKind = "spot"
	KindFuture InstrumentKind = "future"
)

// Quote is a normalized price observation for one instrument.
type Quote struct {
	Symbol string
	Price  decimal.Decimal
	Kind   InstrumentKind
	Expiry time.Time // zero for spot
}

// RawQuotePair is what a fetch collaborator hands back before normalization.
// Prices may arrive as strings with thousands separators or as plain numbers,
// and expiry encodings differ between provider endpoints; the normalizer
// absorbs all of that.
type RawQuotePair struct {
	Symbol       string
	SpotPrice    any
	FuturesPrice any
	Expiry       string
	FetchedAt    time.Time
}
