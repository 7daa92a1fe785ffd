package history

import (
	"math"
	"time"

	"github.com/epeers/marketdata/internal/models"
)

// UnionDates merges any number of ascending per-asset trading calendars into
// one ascending, duplicate-free axis. It is an N-way backward merge: take the
// maximum not-yet-consumed date across all lists, append it, and advance
// every cursor currently sitting on that date.
func UnionDates(calendars ...[]time.Time) []time.Time {
	cursors := make([]int, len(calendars))
	total := 0
	for i, c := range calendars {
		cursors[i] = len(c) - 1
		total += len(c)
	}

	axis := make([]time.Time, 0, total)
	for {
		var max time.Time
		found := false
		for i, c := range calendars {
			if cursors[i] < 0 {
				continue
			}
			if d := c[cursors[i]]; !found || d.After(max) {
				max = d
				found = true
			}
		}
		if !found {
			break
		}
		axis = append(axis, max)
		for i, c := range calendars {
			if cursors[i] >= 0 && c[cursors[i]].Equal(max) {
				cursors[i]--
			}
		}
	}

	// Built newest-first; flip to ascending.
	for i, j := 0, len(axis)-1; i < j; i, j = i+1, j-1 {
		axis[i], axis[j] = axis[j], axis[i]
	}
	return axis
}

// Project maps an asset's values from its native dates onto the global axis.
// Axis positions the asset did not report hold NaN. Both date lists must be
// ascending, and every native date must appear in the axis.
func Project(axis, native []time.Time, values []float64) []float64 {
	out := make([]float64, len(axis))
	j := 0
	for i, d := range axis {
		if j < len(native) && native[j].Equal(d) {
			out[i] = values[j]
			j++
		} else {
			out[i] = math.NaN()
		}
	}
	return out
}

// datesOf extracts the date column of a raw account series.
func datesOf(points []models.DatedValue) ([]time.Time, []float64) {
	dates := make([]time.Time, len(points))
	values := make([]float64, len(points))
	for i, p := range points {
		dates[i] = p.Date
		values[i] = p.Value
	}
	return dates, values
}
