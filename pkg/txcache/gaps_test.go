package txcache

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func cacheWithDays(days map[string]int) *Cache {
	c := NewCache()
	for day, total := range days {
		c.DailyTotals[day] = total
	}
	return c
}

func TestDetectGapsEmptyCache(t *testing.T) {
	report := DetectGaps(nil, "2025-08-07", 10)
	assert.True(t, report.HasGaps)
	require.Len(t, report.Details, 1)
	assert.Contains(t, report.Details[0], "no daily data")

	report = DetectGaps(NewCache(), "2025-08-07", 10)
	assert.True(t, report.HasGaps)
}

func TestDetectGapsHealthy(t *testing.T) {
	c := cacheWithDays(map[string]int{
		"2025-08-04": 120,
		"2025-08-05": 95,
		"2025-08-06": 140,
	})

	report := DetectGaps(c, "2025-08-07", 10)

	assert.False(t, report.HasGaps)
	assert.Empty(t, report.Details)
}

// TestDetectGapsStaleTail verifies a last-known day more than one day behind
// is flagged as stalled ingestion. Exactly one day behind is normal: last
// night's cycle saw yesterday.
func TestDetectGapsStaleTail(t *testing.T) {
	c := cacheWithDays(map[string]int{"2025-08-04": 120})

	report := DetectGaps(c, "2025-08-07", 0)

	assert.True(t, report.HasGaps)
	require.Len(t, report.Details, 1)
	assert.Contains(t, report.Details[0], "3 days behind")
	assert.Contains(t, report.Details[0], "stalled")
}

func TestDetectGapsOneDayBehindIsFine(t *testing.T) {
	c := cacheWithDays(map[string]int{"2025-08-06": 120})

	report := DetectGaps(c, "2025-08-07", 0)
	assert.False(t, report.HasGaps)
}

func TestDetectGapsZeroDay(t *testing.T) {
	c := cacheWithDays(map[string]int{
		"2025-08-05": 0,
		"2025-08-06": 140,
	})

	report := DetectGaps(c, "2025-08-07", 0)

	assert.True(t, report.HasGaps)
	require.Len(t, report.Details, 1)
	assert.Contains(t, report.Details[0], "zero transactions")
}

// TestDetectGapsMissingInteriorDay verifies a calendar day wholly absent
// from the daily map is flagged even when the cache tail is fresh. Organic
// aggregation only ever writes positive totals, so a skipped day shows up as
// a missing key rather than a zero entry.
func TestDetectGapsMissingInteriorDay(t *testing.T) {
	c := cacheWithDays(map[string]int{
		"2025-08-27": 120,
		"2025-08-28": 95,
		"2025-08-30": 140,
	})

	report := DetectGaps(c, "2025-08-31", 10)

	assert.True(t, report.HasGaps)
	require.Len(t, report.Details, 1)
	assert.Contains(t, report.Details[0], "2025-08-29 is missing")
}

func TestDetectGapsBelowFloor(t *testing.T) {
	c := cacheWithDays(map[string]int{
		"2025-08-05": 3,
		"2025-08-06": 140,
	})

	report := DetectGaps(c, "2025-08-07", 10)

	assert.True(t, report.HasGaps)
	require.Len(t, report.Details, 1)
	assert.Contains(t, report.Details[0], "below the 10 minimum floor")
}

func TestDetectGapsFloorDisabled(t *testing.T) {
	c := cacheWithDays(map[string]int{
		"2025-08-05": 3,
		"2025-08-06": 140,
	})

	report := DetectGaps(c, "2025-08-07", 0)
	assert.False(t, report.HasGaps)
}

// TestDetectGapsSkipsToday verifies today's still-accumulating bucket never
// triggers zero-day or floor findings.
func TestDetectGapsSkipsToday(t *testing.T) {
	c := cacheWithDays(map[string]int{
		"2025-08-06": 140,
		"2025-08-07": 0,
	})

	report := DetectGaps(c, "2025-08-07", 10)
	assert.False(t, report.HasGaps)
}

func TestDetectGapsOnlyScansLastSevenDays(t *testing.T) {
	c := cacheWithDays(map[string]int{
		"2025-07-01": 0, // old zero day, outside the window
	})
	for offset := -7; offset <= -1; offset++ {
		c.DailyTotals[AddDays("2025-08-07", offset)] = 100
	}

	report := DetectGaps(c, "2025-08-07", 10)
	assert.False(t, report.HasGaps)
}
