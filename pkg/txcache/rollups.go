package txcache

import "math"

// MonthToDateStats sums the complete days of one UTC month.
type MonthToDateStats struct {
	Sum          int `json:"sum"`
	CompleteDays int `json:"completeDays"`
	Average      int `json:"average"`
}

// WeeklyWindowResult is the 7-day validation window ending on a given date.
// Dates always holds the 7 keys in ascending order so callers can render a
// partial week even when the window is not OK.
type WeeklyWindowResult struct {
	OK    bool     `json:"ok"`
	Dates []string `json:"dates"`
}

// LatestCompleteDate returns the greatest day key whose status is complete.
// Today can never qualify because today is never classified complete.
func LatestCompleteDate(c *Cache) (string, bool) {
	latest := ""
	for day, status := range c.DailyStatus {
		if status == DayComplete && day > latest {
			latest = day
		}
	}
	return latest, latest != ""
}

// MonthToDate sums dailyTotals over the complete days of refDate's UTC month.
// Partial days are excluded from both the sum and the day count so they do
// not skew the average; an empty month reports an average of zero.
func MonthToDate(c *Cache, refDate string) MonthToDateStats {
	month := MonthOfDay(refDate)
	stats := MonthToDateStats{}
	for day, status := range c.DailyStatus {
		if status != DayComplete || MonthOfDay(day) != month {
			continue
		}
		stats.Sum += c.DailyTotals[day]
		stats.CompleteDays++
	}
	if stats.CompleteDays > 0 {
		stats.Average = int(math.Round(float64(stats.Sum) / float64(stats.CompleteDays)))
	}
	return stats
}

// WeeklyWindow builds the 7 consecutive calendar days ending on endDate and
// reports whether every one of them is complete.
func WeeklyWindow(c *Cache, endDate string) WeeklyWindowResult {
	res := WeeklyWindowResult{OK: true, Dates: make([]string, 0, 7)}
	for offset := -6; offset <= 0; offset++ {
		day := AddDays(endDate, offset)
		res.Dates = append(res.Dates, day)
		if c.DailyStatus[day] != DayComplete {
			res.OK = false
		}
	}
	return res
}
