package txcache

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
)

// ComputeIntegrity returns the SHA-256 checksum over the cache's aggregate
// fields. encoding/json sorts map keys, so the digest is deterministic for a
// given aggregate state. It is a corruption check, not a signature.
func ComputeIntegrity(c *Cache) string {
	payload := struct {
		DailyTotals   map[string]int `json:"dailyTotals"`
		MonthlyTotals map[string]int `json:"monthlyTotals"`
		Cursor        Cursor         `json:"cursor"`
	}{
		DailyTotals:   c.DailyTotals,
		MonthlyTotals: c.MonthlyTotals,
		Cursor:        c.Cursor,
	}
	bz, err := json.Marshal(payload)
	if err != nil {
		// Maps of ints and a plain struct cannot fail to marshal.
		return ""
	}
	sum := sha256.Sum256(bz)
	return hex.EncodeToString(sum[:])
}

// VerifyIntegrity reports whether the stored checksum matches the current
// aggregate fields.
func VerifyIntegrity(c *Cache) bool {
	return c.Integrity != "" && c.Integrity == ComputeIntegrity(c)
}
