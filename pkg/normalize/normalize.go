// Package normalize turns raw provider fields into canonical values. It is
// the single seam that absorbs provider-specific shapes: comma-grouped price
// strings, plain numbers, and the incompatible expiry date encodings the
// exchange endpoints emit.
package normalize

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/anujk/carrydash/pkg/models"
)

// DefaultExpiryLayouts lists the accepted expiry encodings in the order they
// are tried. The derivatives quote endpoint emits "27-Jun-2025"; bhavcopy
// style dumps use ISO dates.
var DefaultExpiryLayouts = []string{"02-Jan-2006", "2006-01-02"}

// Price coerces a raw price field into a strictly positive decimal. String
// inputs may carry comma thousands separators.
func Price(raw any) (decimal.Decimal, error) {
	var d decimal.Decimal
	switch v := raw.(type) {
	case decimal.Decimal:
		d = v
	case string:
		parsed, err := parsePriceString(v)
		if err != nil {
			return decimal.Decimal{}, err
		}
		d = parsed
	case json.Number:
		parsed, err := parsePriceString(v.String())
		if err != nil {
			return decimal.Decimal{}, err
		}
		d = parsed
	case float64:
		d = decimal.NewFromFloat(v)
	case float32:
		d = decimal.NewFromFloat32(v)
	case int:
		d = decimal.NewFromInt(int64(v))
	case int64:
		d = decimal.NewFromInt(v)
	default:
		return decimal.Decimal{}, models.NewQuoteError(models.ErrKindMalformedPrice, "",
			fmt.Errorf("unsupported price type %T", raw))
	}

	if d.Sign() <= 0 {
		return decimal.Decimal{}, models.NewQuoteError(models.ErrKindMalformedPrice, "",
			fmt.Errorf("non-positive price %s", d))
	}
	return d, nil
}

func parsePriceString(s string) (decimal.Decimal, error) {
	cleaned := strings.ReplaceAll(strings.TrimSpace(s), ",", "")
	d, err := decimal.NewFromString(cleaned)
	if err != nil {
		return decimal.Decimal{}, models.NewQuoteError(models.ErrKindMalformedPrice, "",
			fmt.Errorf("parse price %q: %w", s, err))
	}
	return d, nil
}

// Expiry parses an expiry date string, trying each layout in order. The first
// layout that parses wins; layouts default to DefaultExpiryLayouts when nil.
func Expiry(raw string, layouts []string) (time.Time, error) {
	if len(layouts) == 0 {
		layouts = DefaultExpiryLayouts
	}
	s := strings.TrimSpace(raw)
	for _, layout := range layouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, models.NewQuoteError(models.ErrKindMalformedExpiry, "",
		fmt.Errorf("expiry %q matches none of %d known layouts", raw, len(layouts)))
}

// Symbol canonicalizes a ticker to its uppercase exchange form.
func Symbol(raw string) string {
	return strings.ToUpper(strings.TrimSpace(raw))
}
