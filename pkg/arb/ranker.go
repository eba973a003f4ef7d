package arb

import (
	"sort"

	"github.com/shopspring/decimal"

	"github.com/anujk/carrydash/pkg/models"
)

// DefaultHighCarryThreshold is the annualized carry percentage above which a
// row gets the high-carry flag.
var DefaultHighCarryThreshold = decimal.NewFromInt(8)

// Rank orders rows by annualized cost-of-carry descending and sets the
// high-carry flag on each. The sort is stable: rows with equal carry keep
// their input order. The input slice is not modified. The flag is strict:
// a row sitting exactly on the threshold is not flagged.
func Rank(rows []models.ArbitrageRow, threshold decimal.Decimal) []models.ArbitrageRow {
	ranked := make([]models.ArbitrageRow, len(rows))
	copy(ranked, rows)

	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].AnnualizedCoCPct.GreaterThan(ranked[j].AnnualizedCoCPct)
	})

	for i := range ranked {
		ranked[i].IsHighCarry = ranked[i].AnnualizedCoCPct.GreaterThan(threshold)
	}
	return ranked
}
