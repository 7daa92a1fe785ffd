package history

import (
	"math"
	"testing"
	"time"

	"github.com/epeers/marketdata/internal/models"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

const epsilon = 1e-9

// TestAdjustForSplitsIdentity verifies that an empty split list returns the
// input unchanged.
func TestAdjustForSplitsIdentity(t *testing.T) {
	dates := []time.Time{day(2025, 1, 6), day(2025, 1, 7), day(2025, 1, 8)}
	closes := []float64{100, 101, 102}

	adjusted := AdjustForSplits(dates, closes, nil)

	if len(adjusted) != len(closes) {
		t.Fatalf("adjusted length = %d, expected %d", len(adjusted), len(closes))
	}
	for i := range closes {
		if adjusted[i] != closes[i] {
			t.Errorf("index %d: adjusted = %v, expected %v", i, adjusted[i], closes[i])
		}
	}
}

// TestAdjustForSplitsRoundTrip verifies the 4-for-1 split vector: dates
// strictly before the effective date scale by 0.25, the effective date and
// later are untouched.
func TestAdjustForSplitsRoundTrip(t *testing.T) {
	splitDate := day(2025, 1, 8)
	dates := []time.Time{day(2025, 1, 6), day(2025, 1, 7), splitDate, day(2025, 1, 9)}
	closes := []float64{400, 410, 100, 102}
	splits := []models.Split{{Date: splitDate, BeforeQty: 1, AfterQty: 4}}

	adjusted := AdjustForSplits(dates, closes, splits)

	expected := []float64{100, 102.5, 100, 102}
	for i := range expected {
		if math.Abs(adjusted[i]-expected[i]) > epsilon {
			t.Errorf("index %d: adjusted = %v, expected %v", i, adjusted[i], expected[i])
		}
	}
}

// TestAdjustForSplitsSameDateCompound verifies that two splits with the same
// effective date compound into one multiplier.
func TestAdjustForSplitsSameDateCompound(t *testing.T) {
	splitDate := day(2025, 1, 8)
	dates := []time.Time{day(2025, 1, 6), splitDate}
	closes := []float64{600, 100}
	splits := []models.Split{
		{Date: splitDate, BeforeQty: 1, AfterQty: 2},
		{Date: splitDate, BeforeQty: 1, AfterQty: 3},
	}

	adjusted := AdjustForSplits(dates, closes, splits)

	// 600 * (1/2) * (1/3) = 100
	if math.Abs(adjusted[0]-100) > epsilon {
		t.Errorf("compounded adjusted = %v, expected 100", adjusted[0])
	}
	if adjusted[1] != 100 {
		t.Errorf("split-date price scaled: got %v, expected 100", adjusted[1])
	}
}

// TestAdjustForSplitsReverse verifies a 4-for-1 reverse split (before=4,
// after=1) scales earlier prices up.
func TestAdjustForSplitsReverse(t *testing.T) {
	splitDate := day(2025, 1, 8)
	dates := []time.Time{day(2025, 1, 7), splitDate}
	closes := []float64{25, 100}
	splits := []models.Split{{Date: splitDate, BeforeQty: 4, AfterQty: 1}}

	adjusted := AdjustForSplits(dates, closes, splits)

	if math.Abs(adjusted[0]-100) > epsilon {
		t.Errorf("reverse split adjusted = %v, expected 100", adjusted[0])
	}
}

// TestMergeSplitsSecondaryBackstop verifies that secondary entries fill only
// dates the primary source lacks.
func TestMergeSplitsSecondaryBackstop(t *testing.T) {
	d1 := day(2025, 1, 8)
	d2 := day(2025, 2, 10)
	primary := []models.Split{{Date: d1, BeforeQty: 1, AfterQty: 2}}
	secondary := []models.Split{
		{Date: d1, BeforeQty: 1, AfterQty: 10}, // conflicting entry, primary wins
		{Date: d2, BeforeQty: 1, AfterQty: 3},  // new date, kept
	}

	merged := MergeSplits(primary, secondary)

	if len(merged) != 2 {
		t.Fatalf("merged length = %d, expected 2", len(merged))
	}
	if merged[0].AfterQty != 2 {
		t.Errorf("primary entry overridden: after = %v, expected 2", merged[0].AfterQty)
	}
	if !merged[1].Date.Equal(d2) || merged[1].AfterQty != 3 {
		t.Errorf("secondary backstop entry missing: %+v", merged[1])
	}
}
