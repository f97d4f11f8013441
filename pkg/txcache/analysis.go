package txcache

import (
	"context"
	"math"
	"sort"
	"time"

	"github.com/alitto/pond/v2"
)

// Statistics summarizes the volume patterns of the complete days in the
// cache: central tendency, 2-sigma outlier thresholds for alerting, moving
// averages, peak activity hours, and the weekend-to-weekday volume ratio.
// Partial and unknown days are excluded so half-ingested data cannot skew
// the metrics.
type Statistics struct {
	CompleteDays        int     `json:"completeDays"`
	DailyMean           float64 `json:"dailyMean"`
	DailyStdDev         float64 `json:"dailyStdDev"`
	MovingAverage7      float64 `json:"movingAverage7"`
	MovingAverage30     float64 `json:"movingAverage30"`
	OutlierUpper        float64 `json:"outlierUpper"`
	OutlierLower        float64 `json:"outlierLower"`
	PeakHours           []int   `json:"peakHours"`
	WeekendWeekdayRatio float64 `json:"weekendWeekdayRatio"`
}

// Analysis is the derived-rollup block served with every snapshot read.
type Analysis struct {
	LatestCompleteDate      string             `json:"latestCompleteDate"`
	LatestCompleteDateLabel string             `json:"latestCompleteDateLabel,omitempty"`
	MonthToDate             MonthToDateStats   `json:"monthToDate"`
	WeeklyWindow            WeeklyWindowResult `json:"weeklyWindow"`
	Statistics              Statistics         `json:"statistics"`
}

// BuildAnalysis computes the derived rollups for a snapshot. The pieces are
// independent of each other, so they run on a small worker group and each
// task fills its own fields of the result.
func BuildAnalysis(ctx context.Context, c *Cache, todayKey string) Analysis {
	var out Analysis

	latest, ok := LatestCompleteDate(c)
	if ok {
		out.LatestCompleteDate = latest
		out.LatestCompleteDateLabel = DayLabel(latest)
	}

	var (
		mtd     MonthToDateStats
		weekly  WeeklyWindowResult
		volume  Statistics
		peaks   []int
		wkRatio float64
	)

	pool := pond.NewPool(4)
	defer pool.StopAndWait()
	group := pool.NewGroupContext(ctx)

	group.Submit(func() {
		if ok {
			mtd = MonthToDate(c, latest)
		}
	})
	group.Submit(func() {
		end := latest
		if end == "" {
			end = AddDays(todayKey, -1)
		}
		weekly = WeeklyWindow(c, end)
	})
	group.Submit(func() {
		volume = volumeStatistics(c)
	})
	group.Submit(func() {
		peaks = peakHours(c)
		wkRatio = weekendRatio(c)
	})

	_ = group.Wait()

	out.MonthToDate = mtd
	out.WeeklyWindow = weekly
	out.Statistics = volume
	out.Statistics.PeakHours = peaks
	out.Statistics.WeekendWeekdayRatio = wkRatio
	return out
}

// completeDayKeys returns the complete days in ascending order.
func completeDayKeys(c *Cache) []string {
	days := make([]string, 0, len(c.DailyStatus))
	for day, status := range c.DailyStatus {
		if status == DayComplete {
			days = append(days, day)
		}
	}
	sort.Strings(days)
	return days
}

// volumeStatistics computes mean, population stddev, 2-sigma outlier bounds
// and the trailing 7/30-day moving averages over complete days.
func volumeStatistics(c *Cache) Statistics {
	days := completeDayKeys(c)
	stats := Statistics{CompleteDays: len(days)}
	if len(days) == 0 {
		return stats
	}

	totals := make([]float64, 0, len(days))
	sum := 0.0
	for _, day := range days {
		v := float64(c.DailyTotals[day])
		totals = append(totals, v)
		sum += v
	}
	mean := sum / float64(len(totals))

	variance := 0.0
	for _, v := range totals {
		variance += (v - mean) * (v - mean)
	}
	variance /= float64(len(totals))
	std := math.Sqrt(variance)

	stats.DailyMean = mean
	stats.DailyStdDev = std
	stats.OutlierUpper = mean + 2*std
	stats.OutlierLower = mean - 2*std
	stats.MovingAverage7 = trailingMean(totals, 7)
	stats.MovingAverage30 = trailingMean(totals, 30)
	return stats
}

func trailingMean(totals []float64, window int) float64 {
	if len(totals) == 0 {
		return 0
	}
	if len(totals) < window {
		window = len(totals)
	}
	sum := 0.0
	for _, v := range totals[len(totals)-window:] {
		sum += v
	}
	return sum / float64(window)
}

// peakHours returns the three UTC hours with the highest accumulated volume
// across complete days, busiest first, or nil when no volume is recorded.
func peakHours(c *Cache) []int {
	var byHour [24]int
	volume := 0
	for day, status := range c.DailyStatus {
		if status != DayComplete {
			continue
		}
		hourly := c.RecentHourly[day]
		for h, n := range hourly {
			byHour[h] += n
			volume += n
		}
	}
	if volume == 0 {
		return nil
	}

	hours := make([]int, 24)
	for i := range hours {
		hours[i] = i
	}
	sort.SliceStable(hours, func(i, j int) bool {
		return byHour[hours[i]] > byHour[hours[j]]
	})
	return hours[:3]
}

// weekendRatio returns average weekend volume divided by average weekday
// volume over complete days, or zero when either side has no data.
func weekendRatio(c *Cache) float64 {
	var weekendSum, weekdaySum float64
	var weekendN, weekdayN int
	for day, status := range c.DailyStatus {
		if status != DayComplete {
			continue
		}
		t, err := ParseDayKey(day)
		if err != nil {
			continue
		}
		switch t.Weekday() {
		case time.Saturday, time.Sunday:
			weekendSum += float64(c.DailyTotals[day])
			weekendN++
		default:
			weekdaySum += float64(c.DailyTotals[day])
			weekdayN++
		}
	}
	if weekendN == 0 || weekdayN == 0 || weekdaySum == 0 {
		return 0
	}
	return (weekendSum / float64(weekendN)) / (weekdaySum / float64(weekdayN))
}
