package history

import (
	"math"
	"testing"
	"time"
)

// TestUnionDates verifies A=[1,3,4] and B=[2,3,5] merge to exactly
// [1,2,3,4,5], ascending, no duplicates.
func TestUnionDates(t *testing.T) {
	a := []time.Time{day(2025, 1, 1), day(2025, 1, 3), day(2025, 1, 4)}
	b := []time.Time{day(2025, 1, 2), day(2025, 1, 3), day(2025, 1, 5)}

	axis := UnionDates(a, b)

	expected := []time.Time{day(2025, 1, 1), day(2025, 1, 2), day(2025, 1, 3), day(2025, 1, 4), day(2025, 1, 5)}
	if len(axis) != len(expected) {
		t.Fatalf("axis length = %d, expected %d (%v)", len(axis), len(expected), axis)
	}
	for i := range expected {
		if !axis[i].Equal(expected[i]) {
			t.Errorf("axis[%d] = %v, expected %v", i, axis[i], expected[i])
		}
	}
}

func TestUnionDatesEmpty(t *testing.T) {
	if axis := UnionDates(); len(axis) != 0 {
		t.Errorf("union of nothing = %v, expected empty", axis)
	}
	if axis := UnionDates(nil, nil); len(axis) != 0 {
		t.Errorf("union of empty calendars = %v, expected empty", axis)
	}
}

// TestUnionDatesSingle verifies a single calendar passes through unchanged.
func TestUnionDatesSingle(t *testing.T) {
	a := []time.Time{day(2025, 1, 1), day(2025, 1, 2)}
	axis := UnionDates(a)
	if len(axis) != 2 || !axis[0].Equal(a[0]) || !axis[1].Equal(a[1]) {
		t.Errorf("axis = %v, expected %v", axis, a)
	}
}

// TestProject verifies each asset's projection holds NaN at every axis
// position it did not report.
func TestProject(t *testing.T) {
	axis := []time.Time{day(2025, 1, 1), day(2025, 1, 2), day(2025, 1, 3), day(2025, 1, 4), day(2025, 1, 5)}
	native := []time.Time{day(2025, 1, 1), day(2025, 1, 3), day(2025, 1, 4)}
	values := []float64{10, 30, 40}

	out := Project(axis, native, values)

	if len(out) != len(axis) {
		t.Fatalf("projection length = %d, expected %d", len(out), len(axis))
	}
	if out[0] != 10 || out[2] != 30 || out[3] != 40 {
		t.Errorf("projected values wrong: %v", out)
	}
	if !math.IsNaN(out[1]) || !math.IsNaN(out[4]) {
		t.Errorf("missing dates must hold NaN, got %v and %v", out[1], out[4])
	}
}
