package txcache

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// analysisFixture builds a cache with one complete week: Mon 2025-08-04
// through Sun 2025-08-10 (Sat/Sun are 08-09 and 08-10).
func analysisFixture() *Cache {
	c := NewCache()
	totals := map[string]int{
		"2025-08-04": 100,
		"2025-08-05": 100,
		"2025-08-06": 100,
		"2025-08-07": 100,
		"2025-08-08": 100,
		"2025-08-09": 50,
		"2025-08-10": 50,
	}
	for day, total := range totals {
		c.DailyTotals[day] = total
		c.DailyStatus[day] = DayComplete
		var hourly [24]int
		hourly[12] = total // all volume at noon
		c.RecentHourly[day] = hourly
	}
	return c
}

func TestBuildAnalysis(t *testing.T) {
	c := analysisFixture()
	// A partial today that must not leak into any metric.
	c.DailyTotals["2025-08-11"] = 9999
	c.DailyStatus["2025-08-11"] = DayPartial

	a := BuildAnalysis(context.Background(), c, "2025-08-11")

	assert.Equal(t, "2025-08-10", a.LatestCompleteDate)
	assert.Equal(t, "Aug 10, 2025", a.LatestCompleteDateLabel)

	assert.Equal(t, 600, a.MonthToDate.Sum)
	assert.Equal(t, 7, a.MonthToDate.CompleteDays)

	assert.True(t, a.WeeklyWindow.OK)
	require.Len(t, a.WeeklyWindow.Dates, 7)
	assert.Equal(t, "2025-08-04", a.WeeklyWindow.Dates[0])

	stats := a.Statistics
	assert.Equal(t, 7, stats.CompleteDays)
	assert.InDelta(t, 600.0/7.0, stats.DailyMean, 0.001)
	assert.InDelta(t, stats.DailyMean, stats.MovingAverage7, 0.001)
	assert.InDelta(t, stats.DailyMean, stats.MovingAverage30, 0.001)
	assert.InDelta(t, stats.DailyMean+2*stats.DailyStdDev, stats.OutlierUpper, 0.001)
	assert.InDelta(t, stats.DailyMean-2*stats.DailyStdDev, stats.OutlierLower, 0.001)

	require.Len(t, stats.PeakHours, 3)
	assert.Equal(t, 12, stats.PeakHours[0])

	// weekend avg 50 vs weekday avg 100
	assert.InDelta(t, 0.5, stats.WeekendWeekdayRatio, 0.001)
}

func TestBuildAnalysisEmptyCache(t *testing.T) {
	a := BuildAnalysis(context.Background(), NewCache(), "2025-08-11")

	assert.Empty(t, a.LatestCompleteDate)
	assert.Equal(t, 0, a.MonthToDate.Sum)
	assert.False(t, a.WeeklyWindow.OK)
	assert.Len(t, a.WeeklyWindow.Dates, 7)
	assert.Equal(t, 0, a.Statistics.CompleteDays)
	assert.Nil(t, a.Statistics.PeakHours)
	assert.Zero(t, a.Statistics.WeekendWeekdayRatio)
}

// TestPeakHoursNoVolume verifies no hours are ranked when the complete days
// carry an all-zero histogram; a busiest-hour list over nothing is noise.
func TestPeakHoursNoVolume(t *testing.T) {
	c := NewCache()
	c.DailyTotals["2025-08-05"] = 0
	c.DailyStatus["2025-08-05"] = DayComplete

	assert.Nil(t, peakHours(c))
}

func TestVolumeStatisticsStdDev(t *testing.T) {
	c := NewCache()
	for day, total := range map[string]int{"2025-08-01": 10, "2025-08-02": 20, "2025-08-03": 30} {
		c.DailyTotals[day] = total
		c.DailyStatus[day] = DayComplete
	}

	stats := volumeStatistics(c)

	assert.InDelta(t, 20.0, stats.DailyMean, 0.001)
	// population stddev of {10,20,30}
	assert.InDelta(t, 8.1649, stats.DailyStdDev, 0.001)
}

func TestTrailingMeanUsesLastWindow(t *testing.T) {
	totals := []float64{1000, 10, 10, 10, 10, 10, 10, 10}
	assert.InDelta(t, 10.0, trailingMean(totals, 7), 0.001)
	assert.InDelta(t, (1000.0+70.0)/8.0, trailingMean(totals, 30), 0.001)
	assert.Zero(t, trailingMean(nil, 7))
}

func TestWeekendRatioNeedsBothSides(t *testing.T) {
	c := NewCache()
	c.DailyTotals["2025-08-09"] = 50 // Saturday only
	c.DailyStatus["2025-08-09"] = DayComplete

	assert.Zero(t, weekendRatio(c))
}
