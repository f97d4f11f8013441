package txcache

import "fmt"

// GapReport is the advisory output of a gap scan. It never mutates the cache;
// the orchestrator reads it to decide whether to escalate to a full rebuild,
// and operators read Details as a structured finding list.
type GapReport struct {
	HasGaps bool     `json:"hasGaps"`
	Details []string `json:"details"`
}

// DetectGaps inspects a persisted cache for patterns that suggest incomplete
// ingestion rather than genuine inactivity: a stale tail, missing or
// zero-transaction days, or days far below the configured floor. It runs
// against the cache alone, never against live upstream data.
func DetectGaps(c *Cache, todayKey string, minDailyFloor int) GapReport {
	report := GapReport{Details: []string{}}
	if c == nil || len(c.DailyTotals) == 0 {
		report.HasGaps = true
		report.Details = append(report.Details, "cache contains no daily data")
		return report
	}

	days := c.DayKeys()
	lastKnown := days[len(days)-1]
	if behind := DaysBetween(lastKnown, todayKey); behind > 1 {
		report.HasGaps = true
		report.Details = append(report.Details,
			fmt.Sprintf("last known day %s is %d days behind %s: ingestion appears stalled", lastKnown, behind, todayKey))
	}

	// Walk the last 7 calendar days ending yesterday, so a day the upstream
	// never reported at all (absent key) is caught the same as a zero entry.
	// Days before the cache's first record are genuine pre-history, and days
	// past the last record are already covered by the stale-tail finding.
	start := AddDays(todayKey, -7)
	if first := days[0]; first > start {
		start = first
	}
	end := AddDays(todayKey, -1)
	if lastKnown < end {
		end = lastKnown
	}
	for day := start; day <= end; day = AddDays(day, 1) {
		total, known := c.DailyTotals[day]
		switch {
		case !known:
			report.HasGaps = true
			report.Details = append(report.Details,
				fmt.Sprintf("day %s is missing from the cache: likely an upstream reporting gap", day))
		case total == 0:
			report.HasGaps = true
			report.Details = append(report.Details,
				fmt.Sprintf("day %s has zero transactions: likely an upstream reporting gap", day))
		case minDailyFloor > 0 && total < minDailyFloor:
			report.HasGaps = true
			report.Details = append(report.Details,
				fmt.Sprintf("day %s has %d transactions, below the %d minimum floor", day, total, minDailyFloor))
		}
	}

	return report
}
