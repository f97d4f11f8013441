package txcache

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestCompareToCursor verifies the (block, txIndex, hash) triple is a total
// order: block dominates, then index, then hash as the final tiebreaker.
func TestCompareToCursor(t *testing.T) {
	cursor := Cursor{LastBlockNumber: 100, LastTxIndex: 5, LastTxHash: "0xbb"}

	tests := []struct {
		name     string
		tx       Transaction
		expected int
	}{
		{
			name:     "higher block wins regardless of index",
			tx:       Transaction{Block: 101, TxIndex: 0, Hash: "0x00"},
			expected: 1,
		},
		{
			name:     "lower block loses regardless of index",
			tx:       Transaction{Block: 99, TxIndex: 999, Hash: "0xff"},
			expected: -1,
		},
		{
			name:     "same block, higher index",
			tx:       Transaction{Block: 100, TxIndex: 6, Hash: "0x00"},
			expected: 1,
		},
		{
			name:     "same block, lower index",
			tx:       Transaction{Block: 100, TxIndex: 4, Hash: "0xff"},
			expected: -1,
		},
		{
			name:     "same block and index, higher hash",
			tx:       Transaction{Block: 100, TxIndex: 5, Hash: "0xcc"},
			expected: 1,
		},
		{
			name:     "same block and index, lower hash",
			tx:       Transaction{Block: 100, TxIndex: 5, Hash: "0xaa"},
			expected: -1,
		},
		{
			name:     "identical triple",
			tx:       Transaction{Block: 100, TxIndex: 5, Hash: "0xbb"},
			expected: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, CompareToCursor(tt.tx, cursor))
		})
	}
}

func TestIsAfterCursorExcludesEqual(t *testing.T) {
	cursor := Cursor{LastBlockNumber: 100, LastTxIndex: 5, LastTxHash: "0xbb"}

	assert.True(t, IsAfterCursor(Transaction{Block: 100, TxIndex: 5, Hash: "0xbc"}, cursor))
	assert.False(t, IsAfterCursor(Transaction{Block: 100, TxIndex: 5, Hash: "0xbb"}, cursor))
	assert.False(t, IsAfterCursor(Transaction{Block: 100, TxIndex: 4, Hash: "0xff"}, cursor))
}

func TestCursorOf(t *testing.T) {
	tx := Transaction{Hash: "0xaa", Block: 42, TxIndex: 7}
	assert.Equal(t, Cursor{LastBlockNumber: 42, LastTxIndex: 7, LastTxHash: "0xaa"}, CursorOf(tx))
}

// TestMergeAndDedupeIdempotent verifies that replaying an already-merged
// batch yields the identical result, which is what lets the reorg backfill
// window re-fetch blocks without double counting.
func TestMergeAndDedupeIdempotent(t *testing.T) {
	ts := time.Date(2025, 8, 7, 10, 0, 0, 0, time.UTC)
	batch := []Transaction{
		{Hash: "0xaa", Block: 1, TxIndex: 1, Timestamp: ts},
		{Hash: "0xbb", Block: 1, TxIndex: 2, Timestamp: ts},
	}

	once := MergeAndDedupe(nil, batch)
	require.Len(t, once, 2)

	existing := make(map[string]Transaction, len(once))
	for _, tx := range once {
		existing[tx.Hash] = tx
	}
	twice := MergeAndDedupe(existing, batch)

	assert.Equal(t, once, twice)
}

func TestMergeAndDedupeOrdersByTriple(t *testing.T) {
	ts := time.Date(2025, 8, 7, 10, 0, 0, 0, time.UTC)
	merged := MergeAndDedupe(nil, []Transaction{
		{Hash: "0xcc", Block: 2, TxIndex: 0, Timestamp: ts},
		{Hash: "0xbb", Block: 1, TxIndex: 2, Timestamp: ts},
		{Hash: "0xdd", Block: 1, TxIndex: 2, Timestamp: ts}, // same block+index, hash breaks tie
		{Hash: "0xaa", Block: 1, TxIndex: 1, Timestamp: ts},
	})

	hashes := make([]string, 0, len(merged))
	for _, tx := range merged {
		hashes = append(hashes, tx.Hash)
	}
	assert.Equal(t, []string{"0xaa", "0xbb", "0xdd", "0xcc"}, hashes)
}

func TestMergeAndDedupeIncomingOverwrites(t *testing.T) {
	ts := time.Date(2025, 8, 7, 10, 0, 0, 0, time.UTC)
	existing := map[string]Transaction{
		"0xaa": {Hash: "0xaa", Block: 1, TxIndex: 1, Timestamp: ts, Method: "old"},
	}

	merged := MergeAndDedupe(existing, []Transaction{
		{Hash: "0xaa", Block: 1, TxIndex: 1, Timestamp: ts, Method: "new"},
	})

	require.Len(t, merged, 1)
	assert.Equal(t, "new", merged[0].Method)
}
