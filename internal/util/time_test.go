package util

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestNextMarketDate(t *testing.T) {
	ny, err := time.LoadLocation("America/New_York")
	if err != nil {
		t.Fatalf("should have loaded timezone America/New_York: %v", err)
	}

	testCases := []struct {
		name     string
		input    time.Time
		expected time.Time
	}{
		{
			name:     "Weekday before 4:30 PM",
			input:    time.Date(2026, 7, 21, 10, 0, 0, 0, ny),  // Tuesday 10:00 AM
			expected: time.Date(2026, 7, 21, 16, 30, 0, 0, ny), // Tuesday 4:30 PM
		},
		{
			name:     "Weekday after 4:30 PM",
			input:    time.Date(2026, 7, 21, 17, 0, 0, 0, ny),  // Tuesday 5:00 PM
			expected: time.Date(2026, 7, 22, 16, 30, 0, 0, ny), // Wednesday 4:30 PM
		},
		{
			name:     "Friday after 4:30 PM",
			input:    time.Date(2026, 7, 24, 18, 0, 0, 0, ny),  // Friday 6:00 PM
			expected: time.Date(2026, 7, 27, 16, 30, 0, 0, ny), // Monday 4:30 PM
		},
		{
			name:     "Saturday",
			input:    time.Date(2026, 7, 25, 12, 0, 0, 0, ny),  // Saturday noon
			expected: time.Date(2026, 7, 27, 16, 30, 0, 0, ny), // Monday 4:30 PM
		},
		{
			name:     "Sunday",
			input:    time.Date(2026, 7, 26, 12, 0, 0, 0, ny),  // Sunday noon
			expected: time.Date(2026, 7, 27, 16, 30, 0, 0, ny), // Monday 4:30 PM
		},
		{
			name:     "Weekday at exactly 4:30 PM",
			input:    time.Date(2026, 7, 21, 16, 30, 0, 0, ny),
			expected: time.Date(2026, 7, 21, 16, 30, 0, 0, ny),
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got := NextMarketDate(tc.input)
			assert.True(t, got.Equal(tc.expected), "expected %s, got %s", tc.expected, got)
		})
	}
}

func TestMarketOpen(t *testing.T) {
	ny, err := time.LoadLocation("America/New_York")
	if err != nil {
		t.Fatalf("should have loaded timezone America/New_York: %v", err)
	}

	testCases := []struct {
		name     string
		input    time.Time
		expected bool
	}{
		{"Midweek mid-session", time.Date(2026, 7, 22, 12, 0, 0, 0, ny), true},
		{"Before the open", time.Date(2026, 7, 22, 9, 0, 0, 0, ny), false},
		{"At the open", time.Date(2026, 7, 22, 9, 30, 0, 0, ny), true},
		{"At the close", time.Date(2026, 7, 22, 16, 0, 0, 0, ny), false},
		{"Saturday", time.Date(2026, 7, 25, 12, 0, 0, 0, ny), false},
		{"Sunday", time.Date(2026, 7, 26, 12, 0, 0, 0, ny), false},
		{"UTC input converted", time.Date(2026, 7, 22, 18, 0, 0, 0, time.UTC), true}, // 2 PM ET
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, MarketOpen(tc.input))
		})
	}
}
