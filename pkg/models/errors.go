package models

import (
	"context"
	"errors"
	"fmt"
)

type ErrorKind string

const (
	ErrKindFetch            ErrorKind = "fetch_error"
	ErrKindMalformedPrice   ErrorKind = "malformed_price"
	ErrKindMalformedExpiry  ErrorKind = "malformed_expiry"
	ErrKindInvalidQuotePair ErrorKind = "invalid_quote_pair"
)

// ErrNoData is the batch-level hard failure: zero symbols succeeded.
var ErrNoData = errors.New("no symbols produced data")

// QuoteError classifies a per-symbol failure so the orchestrator can record
// and skip it without aborting the batch.
type QuoteError struct {
	Kind   ErrorKind
	Symbol string
	Err    error
}

func (e *QuoteError) Error() string {
	if e.Symbol != "" {
		return fmt.Sprintf("%s: %s: %v", e.Symbol, e.Kind, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Kind, e.Err)
}

func (e *QuoteError) Unwrap() error {
	return e.Err
}

func NewQuoteError(kind ErrorKind, symbol string, err error) *QuoteError {
	return &QuoteError{Kind: kind, Symbol: symbol, Err: err}
}

// KindOf maps any error to its taxonomy kind. Timeouts and cancellations
// count as fetch failures; anything unclassified does too, since it can only
// have come from the provider boundary.
func KindOf(err error) ErrorKind {
	var qe *QuoteError
	if errors.As(err, &qe) {
		return qe.Kind
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return ErrKindFetch
	}
	return ErrKindFetch
}
