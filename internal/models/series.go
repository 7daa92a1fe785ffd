package models

import (
	"math"
	"time"
)

// DailySeries is the reconciled daily history: one strictly ascending,
// duplicate-free date axis shared by every asset, and per asset a close
// array index-aligned 1:1 with that axis. Positions for dates an asset did
// not trade hold NaN, never an interpolated value.
//
// A DailySeries is immutable once published; each reconciliation cycle
// builds a fresh one wholesale.
type DailySeries struct {
	Dates  []time.Time
	Closes map[int64][]float64 // asset ID -> adjusted closes, len == len(Dates)
}

// NewDailySeries creates an empty series over the given axis.
func NewDailySeries(dates []time.Time) *DailySeries {
	return &DailySeries{
		Dates:  dates,
		Closes: make(map[int64][]float64),
	}
}

// At returns the adjusted close for an asset at axis position i, or NaN if
// the asset is not in the series.
func (s *DailySeries) At(assetID int64, i int) float64 {
	closes, ok := s.Closes[assetID]
	if !ok {
		return math.NaN()
	}
	return closes[i]
}
