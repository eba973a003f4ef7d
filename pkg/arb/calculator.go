// Package arb computes and ranks cash-futures carry opportunities.
package arb

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/anujk/carrydash/pkg/models"
)

var (
	daysPerYear = decimal.NewFromInt(365)
	hundred     = decimal.NewFromInt(100)
)

// Compute derives the premium and annualized cost-of-carry for one symbol
// from a normalized spot/future quote pair. Pure function; rounding is left
// to the presentation boundary.
//
// Days to expiry are clamped to a minimum of 1 so that same-day or already
// expired contracts surface a large carry figure instead of dividing by zero
// or zeroing an informative row.
func Compute(spot, future models.Quote, asOf time.Time) (models.ArbitrageRow, error) {
	if spot.Kind != models.KindSpot || future.Kind != models.KindFuture {
		return models.ArbitrageRow{}, models.NewQuoteError(models.ErrKindInvalidQuotePair, spot.Symbol,
			fmt.Errorf("expected spot/future pair, got %s/%s", spot.Kind, future.Kind))
	}
	if spot.Symbol != future.Symbol {
		return models.ArbitrageRow{}, models.NewQuoteError(models.ErrKindInvalidQuotePair, spot.Symbol,
			fmt.Errorf("mismatched symbols %s and %s", spot.Symbol, future.Symbol))
	}
	if spot.Price.Sign() <= 0 || future.Price.Sign() <= 0 {
		return models.ArbitrageRow{}, models.NewQuoteError(models.ErrKindInvalidQuotePair, spot.Symbol,
			fmt.Errorf("non-positive price in pair (spot %s, future %s)", spot.Price, future.Price))
	}

	premium := future.Price.Sub(spot.Price)

	days := calendarDays(asOf, future.Expiry)
	if days < 1 {
		days = 1
	}

	coc := premium.Div(spot.Price).
		Mul(daysPerYear).
		Div(decimal.NewFromInt(int64(days))).
		Mul(hundred)

	return models.ArbitrageRow{
		Symbol:           spot.Symbol,
		SpotPrice:        spot.Price,
		FuturesPrice:     future.Price,
		Premium:          premium,
		AnnualizedCoCPct: coc,
		Expiry:           future.Expiry,
		DaysToExpiry:     days,
	}, nil
}

// calendarDays counts whole calendar days from one date to another, ignoring
// the time of day on either side.
func calendarDays(from, to time.Time) int {
	f := time.Date(from.Year(), from.Month(), from.Day(), 0, 0, 0, 0, time.UTC)
	t := time.Date(to.Year(), to.Month(), to.Day(), 0, 0, 0, 0, time.UTC)
	return int(t.Sub(f).Hours() / 24)
}
