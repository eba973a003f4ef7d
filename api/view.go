package api

import (
	"time"

	"github.com/anujk/carrydash/pkg/models"
)

// Rounding to two decimal places happens here, at the presentation boundary,
// and nowhere upstream.

type rowView struct {
	Symbol           string `json:"symbol"`
	SpotPrice        string `json:"spot_price"`
	FuturesPrice     string `json:"futures_price"`
	Premium          string `json:"premium"`
	AnnualizedCoCPct string `json:"annualized_coc_pct"`
	Expiry           string `json:"expiry"`
	DaysToExpiry     int    `json:"days_to_expiry"`
	IsHighCarry      bool   `json:"is_high_carry"`
}

type failureView struct {
	Symbol  string `json:"symbol"`
	Kind    string `json:"kind"`
	Message string `json:"message"`
}

type snapshotView struct {
	AsOf       time.Time     `json:"as_of"`
	MarketOpen bool          `json:"market_open"`
	Rows       []rowView     `json:"rows"`
	Failures   []failureView `json:"failures"`
	Message    string        `json:"message,omitempty"`
}

func newSnapshotView(result models.CycleResult) snapshotView {
	view := snapshotView{
		AsOf:       result.AsOf,
		MarketOpen: result.MarketOpen,
		Rows:       make([]rowView, 0, len(result.Rows)),
		Failures:   make([]failureView, 0, len(result.Failures)),
	}

	for _, row := range result.Rows {
		view.Rows = append(view.Rows, rowView{
			Symbol:           row.Symbol,
			SpotPrice:        row.SpotPrice.StringFixed(2),
			FuturesPrice:     row.FuturesPrice.StringFixed(2),
			Premium:          row.Premium.StringFixed(2),
			AnnualizedCoCPct: row.AnnualizedCoCPct.StringFixed(2),
			Expiry:           row.Expiry.Format("2006-01-02"),
			DaysToExpiry:     row.DaysToExpiry,
			IsHighCarry:      row.IsHighCarry,
		})
	}

	for _, f := range result.Failures {
		view.Failures = append(view.Failures, failureView{
			Symbol:  f.Symbol,
			Kind:    string(f.Kind),
			Message: f.Message,
		})
	}

	if result.Err() != nil {
		view.Message = "no data available"
	}
	return view
}
