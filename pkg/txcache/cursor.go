package txcache

import "sort"

// CompareToCursor orders a transaction against a cursor position under the
// lexicographic (block, txIndex, hash) order. Returns -1, 0 or 1.
//
// Block number alone is not a usable order (many transactions share a block)
// and timestamps are neither unique nor strictly monotonic, so the triple is
// the only total order the engine trusts.
func CompareToCursor(tx Transaction, c Cursor) int {
	switch {
	case tx.Block != c.LastBlockNumber:
		if tx.Block > c.LastBlockNumber {
			return 1
		}
		return -1
	case tx.TxIndex != c.LastTxIndex:
		if tx.TxIndex > c.LastTxIndex {
			return 1
		}
		return -1
	case tx.Hash != c.LastTxHash:
		if tx.Hash > c.LastTxHash {
			return 1
		}
		return -1
	default:
		return 0
	}
}

// IsAfterCursor reports whether tx strictly follows the cursor. An equal
// triple is not "after".
func IsAfterCursor(tx Transaction, c Cursor) bool {
	return CompareToCursor(tx, c) > 0
}

// CursorOf returns the cursor position of a transaction.
func CursorOf(tx Transaction) Cursor {
	return Cursor{
		LastBlockNumber: tx.Block,
		LastTxIndex:     tx.TxIndex,
		LastTxHash:      tx.Hash,
	}
}

// txLess orders two transactions ascending by (block, txIndex, hash).
func txLess(a, b Transaction) bool {
	if a.Block != b.Block {
		return a.Block < b.Block
	}
	if a.TxIndex != b.TxIndex {
		return a.TxIndex < b.TxIndex
	}
	return a.Hash < b.Hash
}

// MergeAndDedupe merges an existing hash-keyed transaction set with an
// incoming batch and returns the combined set ordered ascending by
// (block, txIndex, hash). Incoming entries overwrite existing ones with the
// same hash, which makes the merge idempotent: applying the same batch twice
// yields the same result as applying it once.
func MergeAndDedupe(existing map[string]Transaction, incoming []Transaction) []Transaction {
	merged := make(map[string]Transaction, len(existing)+len(incoming))
	for h, tx := range existing {
		merged[h] = tx
	}
	for _, tx := range incoming {
		merged[tx.Hash] = tx
	}

	out := make([]Transaction, 0, len(merged))
	for _, tx := range merged {
		out = append(out, tx)
	}
	sort.Slice(out, func(i, j int) bool { return txLess(out[i], out[j]) })
	return out
}
