package txcache

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

// TestRecomputeDayStatus exercises the three-way completeness classifier.
// The two hard rules: today is never complete, and a day without a recorded
// total cannot be judged at all.
func TestRecomputeDayStatus(t *testing.T) {
	today := "2025-08-07"

	tests := []struct {
		name     string
		dateKey  string
		total    int
		hasTotal bool
		hourly   []int
		expected DayStatus
	}{
		{
			name:     "today is always unknown even when consistent",
			dateKey:  today,
			total:    3,
			hasTotal: true,
			hourly:   []int{3},
			expected: DayUnknown,
		},
		{
			name:     "no recorded total",
			dateKey:  "2025-08-01",
			total:    0,
			hasTotal: false,
			hourly:   nil,
			expected: DayUnknown,
		},
		{
			name:     "hourly sum matches total",
			dateKey:  "2025-08-01",
			total:    5,
			hasTotal: true,
			hourly:   []int{2, 0, 3},
			expected: DayComplete,
		},
		{
			name:     "hourly sum below total",
			dateKey:  "2025-08-01",
			total:    5,
			hasTotal: true,
			hourly:   []int{2},
			expected: DayPartial,
		},
		{
			name:     "hourly sum above total",
			dateKey:  "2025-08-01",
			total:    2,
			hasTotal: true,
			hourly:   []int{2, 3},
			expected: DayPartial,
		},
		{
			name:     "zero total with empty hourly is complete",
			dateKey:  "2025-08-01",
			total:    0,
			hasTotal: true,
			hourly:   nil,
			expected: DayComplete,
		},
		{
			name:     "short hourly array is zero-padded before summing",
			dateKey:  "2025-08-01",
			total:    4,
			hasTotal: true,
			hourly:   []int{1, 3},
			expected: DayComplete,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := RecomputeDayStatus(tt.dateKey, tt.total, tt.hasTotal, tt.hourly, today)
			assert.Equal(t, tt.expected, got)
		})
	}
}
