package txcache

import (
	"encoding/json"
	"strings"

	"github.com/liskcounter/counterx/pkg/explorer"
)

// IsSuccess normalizes the heterogeneous success encodings the explorer has
// shipped over time (booleans, numbers, strings) into a boolean. It is total:
// any unrecognized value is simply not a success.
func IsSuccess(raw any) bool {
	switch v := raw.(type) {
	case bool:
		return v
	case float64:
		return v == 1
	case int:
		return v == 1
	case int64:
		return v == 1
	case json.Number:
		return v.String() == "1"
	case string:
		switch strings.ToLower(strings.TrimSpace(v)) {
		case "ok", "success", "1":
			return true
		}
		return false
	default:
		return false
	}
}

// Normalize filters raw explorer records down to successful transactions
// addressed to the tracked contract and maps them into the canonical
// Transaction shape. Malformed records are dropped rather than failing the
// batch; missing optional fields get defaults.
func Normalize(raw []explorer.RawTransaction, contract string) []Transaction {
	out := make([]Transaction, 0, len(raw))
	for _, r := range raw {
		if r.To == nil || !strings.EqualFold(r.To.Hash, contract) {
			continue
		}
		if !IsSuccess(r.Status) {
			continue
		}
		// Hash identifies the transaction and the timestamp drives all
		// bucketing; a record missing either is unusable.
		if r.Hash == "" || r.Timestamp.IsZero() {
			continue
		}

		method := r.Method
		if method == "" {
			method = "unknown"
		}
		fee := "0"
		if r.Fee != nil && r.Fee.Value != "" {
			fee = r.Fee.Value
		}

		out = append(out, Transaction{
			Hash:      r.Hash,
			Block:     r.BlockNumber,
			TxIndex:   r.Position,
			Timestamp: r.Timestamp.UTC(),
			Method:    method,
			FeeValue:  fee,
			To:        r.To.Hash,
		})
	}
	return out
}
