package history

import (
	"sort"
	"time"

	"github.com/epeers/marketdata/internal/models"
)

// AdjustForSplits returns split-adjusted closes for one asset. dates must be
// ascending and index-aligned with closes; the result has the same length.
//
// The walk runs newest to oldest with a running multiplier. Before a price is
// scaled, every not-yet-applied split whose effective date is strictly after
// that price's date is folded into the multiplier, so the price dated exactly
// on a split's effective date is never scaled by that split. Two splits on
// one date compound. An empty split list yields a copy of the input.
func AdjustForSplits(dates []time.Time, closes []float64, splits []models.Split) []float64 {
	adjusted := make([]float64, len(closes))

	// Ascending by date, so the backward walk consumes from the tail.
	sorted := make([]models.Split, len(splits))
	copy(sorted, splits)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Date.Before(sorted[j].Date) })

	multiplier := 1.0
	next := len(sorted) - 1
	for i := len(dates) - 1; i >= 0; i-- {
		for next >= 0 && sorted[next].Date.After(dates[i]) {
			multiplier *= sorted[next].Ratio()
			next--
		}
		adjusted[i] = closes[i] * multiplier
	}
	return adjusted
}

// MergeSplits combines the per-asset primary source with the bulk backstop.
// Secondary entries are used only for effective dates the primary source
// lacks; the result is ascending by date.
func MergeSplits(primary, secondary []models.Split) []models.Split {
	merged := make([]models.Split, 0, len(primary)+len(secondary))
	merged = append(merged, primary...)

	seen := make(map[string]bool, len(primary))
	for _, s := range primary {
		seen[dayKey(s.Date)] = true
	}
	for _, s := range secondary {
		if !seen[dayKey(s.Date)] {
			merged = append(merged, s)
		}
	}

	sort.Slice(merged, func(i, j int) bool { return merged[i].Date.Before(merged[j].Date) })
	return merged
}

func dayKey(t time.Time) string {
	return t.Format("2006-01-02")
}
