package txcache

// RecomputeDayStatus classifies one calendar day's aggregation completeness.
// It is pure: the stored dailyStatus map is only a cache of this function's
// output and can be re-derived at any time from the daily total and hourly
// histogram.
//
// Today is never final, no matter how clean the data looks; a day without a
// recorded total cannot be judged at all.
func RecomputeDayStatus(dateKey string, total int, hasTotal bool, hourly []int, todayKey string) DayStatus {
	if dateKey == todayKey {
		return DayUnknown
	}
	if !hasTotal {
		return DayUnknown
	}
	if Sum24(Ensure24(hourly)) == total {
		return DayComplete
	}
	return DayPartial
}

// dayStatusOf recomputes the status of one day from the cache's own maps.
func (c *Cache) dayStatusOf(dateKey, todayKey string) DayStatus {
	total, ok := c.DailyTotals[dateKey]
	hourly := c.RecentHourly[dateKey]
	return RecomputeDayStatus(dateKey, total, ok, hourly[:], todayKey)
}
