package txcache

import (
	"sort"
	"time"
)

// SchemaVersion is the current cache artifact format version. Older artifacts
// are migrated on load, see store.go.
const SchemaVersion = "2.0.0"

// DayStatus classifies how trustworthy a calendar day's aggregates are.
type DayStatus string

const (
	// DayComplete: the day is over and its 24 hourly buckets sum exactly to
	// the recorded daily total.
	DayComplete DayStatus = "complete"
	// DayPartial: a daily total exists but the hourly buckets do not account
	// for all of it (incomplete ingestion or a short, zero-padded array).
	DayPartial DayStatus = "partial"
	// DayUnknown: no total recorded, or the day is still in progress.
	DayUnknown DayStatus = "unknown"
)

// Transaction is one successful call to the tracked contract, normalized from
// the explorer payload. Immutable once built; identified by Hash.
type Transaction struct {
	Hash      string    `json:"hash"`
	Block     int64     `json:"block"`
	TxIndex   int       `json:"txIndex"`
	Timestamp time.Time `json:"timestamp"`
	Method    string    `json:"method"`
	FeeValue  string    `json:"feeValue"`
	To        string    `json:"to"`
}

// Cursor marks the last transaction merged into the cache, totally ordered by
// (block, txIndex, hash). It only ever moves forward.
type Cursor struct {
	LastBlockNumber int64  `json:"lastBlockNumber"`
	LastTxIndex     int    `json:"lastTxIndex"`
	LastTxHash      string `json:"lastTxHash"`
}

// IsZero reports whether the cursor has never been advanced.
func (c Cursor) IsZero() bool {
	return c.LastBlockNumber == 0 && c.LastTxIndex == 0 && c.LastTxHash == ""
}

// Cache is the persisted aggregate state. It is treated as an immutable value:
// updates clone it, merge a batch in, and atomically swap the stored artifact.
type Cache struct {
	SchemaVersion     string               `json:"schemaVersion"`
	DailyTotals       map[string]int       `json:"dailyTotals"`
	DailyStatus       map[string]DayStatus `json:"dailyStatus"`
	MonthlyTotals     map[string]int       `json:"monthlyTotals"`
	RecentHourly      map[string][24]int   `json:"recentHourly"`
	Cursor            Cursor               `json:"cursor"`
	Integrity         string               `json:"integrity"`
	TotalTransactions int                  `json:"totalTransactions"`
	TotalDaysActive   int                  `json:"totalDaysActive"`
	LastUpdate        time.Time            `json:"lastUpdate"`
	GeneratedAtUTC    time.Time            `json:"generatedAtUTC"`
}

// NewCache returns an empty cache at the current schema version.
func NewCache() *Cache {
	return &Cache{
		SchemaVersion: SchemaVersion,
		DailyTotals:   map[string]int{},
		DailyStatus:   map[string]DayStatus{},
		MonthlyTotals: map[string]int{},
		RecentHourly:  map[string][24]int{},
	}
}

// Clone deep-copies the cache so a sync cycle can build its working copy
// without mutating the snapshot readers see.
func (c *Cache) Clone() *Cache {
	out := &Cache{
		SchemaVersion:     c.SchemaVersion,
		DailyTotals:       make(map[string]int, len(c.DailyTotals)),
		DailyStatus:       make(map[string]DayStatus, len(c.DailyStatus)),
		MonthlyTotals:     make(map[string]int, len(c.MonthlyTotals)),
		RecentHourly:      make(map[string][24]int, len(c.RecentHourly)),
		Cursor:            c.Cursor,
		Integrity:         c.Integrity,
		TotalTransactions: c.TotalTransactions,
		TotalDaysActive:   c.TotalDaysActive,
		LastUpdate:        c.LastUpdate,
		GeneratedAtUTC:    c.GeneratedAtUTC,
	}
	for k, v := range c.DailyTotals {
		out.DailyTotals[k] = v
	}
	for k, v := range c.DailyStatus {
		out.DailyStatus[k] = v
	}
	for k, v := range c.MonthlyTotals {
		out.MonthlyTotals[k] = v
	}
	for k, v := range c.RecentHourly {
		out.RecentHourly[k] = v
	}
	return out
}

// DayKeys returns all known day keys in ascending order.
func (c *Cache) DayKeys() []string {
	keys := make([]string, 0, len(c.DailyTotals))
	for k := range c.DailyTotals {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
