package txcache

import (
	"time"
)

// Ensure24 normalizes any hourly input into exactly 24 slots: nil yields all
// zeros, a short array is zero-padded on the right, a long one is truncated
// to the first 24 entries. Every hourly histogram in the cache goes through
// here, whatever the source encoding was.
func Ensure24(in []int) [24]int {
	var out [24]int
	for i := 0; i < len(in) && i < 24; i++ {
		out[i] = in[i]
	}
	return out
}

// Sum24 returns the total of a 24-slot hourly histogram.
func Sum24(h [24]int) int {
	sum := 0
	for _, n := range h {
		sum += n
	}
	return sum
}

// ApplyResult describes what an incremental batch did to the cache.
type ApplyResult struct {
	Merged      int
	TouchedDays []string
}

// maxCursorOf returns the greatest cursor position in a transaction set, or
// the zero cursor for an empty set.
func maxCursorOf(txs []Transaction) Cursor {
	var max Cursor
	for _, tx := range txs {
		if IsAfterCursor(tx, max) {
			max = CursorOf(tx)
		}
	}
	return max
}

// Fold aggregates a deduplicated transaction set into a fresh cache. The fold
// only increments per-key counters, so the result is independent of input
// order and a full rebuild converges to the same aggregate an incremental
// history would have produced for the same set.
func Fold(txs []Transaction, now time.Time) *Cache {
	c := NewCache()
	for _, tx := range txs {
		day := DayKey(tx.Timestamp)
		c.DailyTotals[day]++
		c.MonthlyTotals[MonthKey(tx.Timestamp)]++
		hourly := c.RecentHourly[day]
		hourly[HourOf(tx.Timestamp)]++
		c.RecentHourly[day] = hourly
	}

	todayKey := DayKey(now)
	for day := range c.DailyTotals {
		c.DailyStatus[day] = c.dayStatusOf(day, todayKey)
	}

	c.Cursor = maxCursorOf(txs)
	c.TotalTransactions = len(txs)
	c.TotalDaysActive = len(c.DailyTotals)
	c.LastUpdate = now.UTC()
	c.GeneratedAtUTC = now.UTC()
	c.Integrity = ComputeIntegrity(c)
	return c
}

// ApplyBatch merges an already-deduplicated batch of new transactions into
// the cache and returns the updated value; the receiver is not mutated. Day
// statuses are recomputed only for the days the batch touched, and the cursor
// advances to the maximum merged transaction but never backward.
func (c *Cache) ApplyBatch(batch []Transaction, now time.Time) (*Cache, ApplyResult) {
	out := c.Clone()
	if len(batch) == 0 {
		return out, ApplyResult{}
	}

	touched := map[string]bool{}
	for _, tx := range batch {
		day := DayKey(tx.Timestamp)
		out.DailyTotals[day]++
		out.MonthlyTotals[MonthKey(tx.Timestamp)]++
		hourly := out.RecentHourly[day]
		hourly[HourOf(tx.Timestamp)]++
		out.RecentHourly[day] = hourly
		touched[day] = true
	}

	todayKey := DayKey(now)
	days := make([]string, 0, len(touched))
	for day := range touched {
		out.DailyStatus[day] = out.dayStatusOf(day, todayKey)
		days = append(days, day)
	}

	if max := maxCursorOf(batch); IsAfterCursor(Transaction{
		Block:   max.LastBlockNumber,
		TxIndex: max.LastTxIndex,
		Hash:    max.LastTxHash,
	}, out.Cursor) {
		out.Cursor = max
	}

	out.TotalTransactions += len(batch)
	out.TotalDaysActive = len(out.DailyTotals)
	out.LastUpdate = now.UTC()
	out.GeneratedAtUTC = now.UTC()
	out.Integrity = ComputeIntegrity(out)
	return out, ApplyResult{Merged: len(batch), TouchedDays: days}
}
