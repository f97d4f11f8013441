package txcache

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func newTestStore(t *testing.T) (*Store, string) {
	t.Helper()
	dir := t.TempDir()
	store := NewStore(
		filepath.Join(dir, "txcache.json"),
		filepath.Join(dir, "transaction-cache.json"),
		zaptest.NewLogger(t),
	)
	return store, dir
}

func TestStoreLoadMissing(t *testing.T) {
	store, _ := newTestStore(t)

	_, err := store.Load()
	assert.ErrorIs(t, err, ErrNoCache)
}

func TestStoreSaveLoadRoundtrip(t *testing.T) {
	store, _ := newTestStore(t)
	now := time.Date(2025, 8, 8, 3, 0, 0, 0, time.UTC)
	c := Fold([]Transaction{
		txAt("0xaa", 1, 0, "2025-08-06", 9),
		txAt("0xbb", 2, 0, "2025-08-07", 14),
	}, now)

	require.NoError(t, store.Save(c))

	loaded, err := store.Load()
	require.NoError(t, err)

	assert.Equal(t, SchemaVersion, loaded.SchemaVersion)
	assert.Equal(t, c.DailyTotals, loaded.DailyTotals)
	assert.Equal(t, c.DailyStatus, loaded.DailyStatus)
	assert.Equal(t, c.MonthlyTotals, loaded.MonthlyTotals)
	assert.Equal(t, c.RecentHourly, loaded.RecentHourly)
	assert.Equal(t, c.Cursor, loaded.Cursor)
	assert.True(t, VerifyIntegrity(loaded))
}

func TestStoreSaveIsAtomicReplace(t *testing.T) {
	store, dir := newTestStore(t)
	now := time.Date(2025, 8, 8, 3, 0, 0, 0, time.UTC)

	require.NoError(t, store.Save(Fold([]Transaction{txAt("0xaa", 1, 0, "2025-08-06", 9)}, now)))
	require.NoError(t, store.Save(Fold([]Transaction{
		txAt("0xaa", 1, 0, "2025-08-06", 9),
		txAt("0xbb", 2, 0, "2025-08-07", 14),
	}, now)))

	// No temp files left behind after the rename.
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "txcache.json", entries[0].Name())

	loaded, err := store.Load()
	require.NoError(t, err)
	assert.Equal(t, 2, loaded.TotalTransactions)
}

// TestStoreMigratesLegacyV1 feeds a v1 artifact through the legacy path and
// verifies the migration re-derives statuses, counters and the checksum, and
// rewrites the artifact at the primary path.
func TestStoreMigratesLegacyV1(t *testing.T) {
	store, _ := newTestStore(t)

	legacy := map[string]any{
		"schemaVersion": "1.0.0",
		"dailyTotals":   map[string]int{"2025-08-05": 3, "2025-08-06": 2},
		"monthlyTotals": map[string]int{"2025-08": 5},
		"recentHourly": map[string][]int{
			"2025-08-05": {1, 2}, // short array: complete after padding
			"2025-08-06": {1},    // sums to 1, total is 2: partial
		},
		"cursor":            map[string]any{"lastBlockNumber": 10, "lastTxIndex": 1, "lastTxHash": "0xbb"},
		"totalTransactions": 999, // stale, must be recomputed
		"lastUpdate":        "2025-08-06T03:00:00Z",
	}
	bz, err := json.Marshal(legacy)
	require.NoError(t, err)
	legacyPath := filepath.Dir(store.Path()) + "/transaction-cache.json"
	require.NoError(t, os.WriteFile(legacyPath, bz, 0o644))

	loaded, err := store.Load()
	require.NoError(t, err)

	assert.Equal(t, SchemaVersion, loaded.SchemaVersion)
	assert.Equal(t, 5, loaded.TotalTransactions)
	assert.Equal(t, 2, loaded.TotalDaysActive)
	assert.Equal(t, DayComplete, loaded.DailyStatus["2025-08-05"])
	assert.Equal(t, DayPartial, loaded.DailyStatus["2025-08-06"])
	assert.Equal(t, Cursor{LastBlockNumber: 10, LastTxIndex: 1, LastTxHash: "0xbb"}, loaded.Cursor)
	assert.True(t, VerifyIntegrity(loaded))

	hourly := loaded.RecentHourly["2025-08-05"]
	assert.Equal(t, 1, hourly[0])
	assert.Equal(t, 2, hourly[1])

	// Migrated artifact was persisted at the primary path; the fallback
	// should not be needed again.
	_, err = os.Stat(store.Path())
	assert.NoError(t, err)
}

func TestStoreMigratesVersionlessArtifact(t *testing.T) {
	store, _ := newTestStore(t)
	bz := []byte(`{"dailyTotals":{"2025-08-05":1},"recentHourly":{"2025-08-05":[1]}}`)
	require.NoError(t, os.WriteFile(store.Path(), bz, 0o644))

	loaded, err := store.Load()
	require.NoError(t, err)
	assert.Equal(t, SchemaVersion, loaded.SchemaVersion)
	assert.Equal(t, 1, loaded.TotalTransactions)
}

func TestStoreUnknownSchemaDegradesToNoCache(t *testing.T) {
	store, _ := newTestStore(t)
	require.NoError(t, os.WriteFile(store.Path(), []byte(`{"schemaVersion":"9.0.0"}`), 0o644))

	_, err := store.Load()
	assert.ErrorIs(t, err, ErrNoCache)
}

func TestStoreCorruptArtifactDegradesToNoCache(t *testing.T) {
	store, _ := newTestStore(t)
	require.NoError(t, os.WriteFile(store.Path(), []byte(`{"schemaVersion": truncated`), 0o644))

	_, err := store.Load()
	assert.ErrorIs(t, err, ErrNoCache)
}

// TestStoreIntegrityMismatchStillLoads verifies the checksum is advisory:
// a tampered artifact is logged but not rejected.
func TestStoreIntegrityMismatchStillLoads(t *testing.T) {
	store, _ := newTestStore(t)
	now := time.Date(2025, 8, 8, 3, 0, 0, 0, time.UTC)
	c := Fold([]Transaction{txAt("0xaa", 1, 0, "2025-08-06", 9)}, now)
	c.Integrity = "deadbeef"

	bz, err := json.Marshal(c)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(store.Path(), bz, 0o644))

	loaded, err := store.Load()
	require.NoError(t, err)
	assert.Equal(t, 1, loaded.TotalTransactions)
	assert.False(t, VerifyIntegrity(loaded))
}

func TestComputeIntegrityIgnoresVolatileFields(t *testing.T) {
	now := time.Date(2025, 8, 8, 3, 0, 0, 0, time.UTC)
	c := Fold([]Transaction{txAt("0xaa", 1, 0, "2025-08-06", 9)}, now)
	sum := ComputeIntegrity(c)

	// LastUpdate is not covered by the checksum.
	c.LastUpdate = c.LastUpdate.Add(time.Hour)
	assert.Equal(t, sum, ComputeIntegrity(c))

	// Any covered aggregate change must move it.
	c.DailyTotals["2025-08-06"]++
	assert.NotEqual(t, sum, ComputeIntegrity(c))
}
