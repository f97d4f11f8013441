package controller

import (
	"net/http"
	"time"

	"github.com/go-jose/go-jose/v4/json"
	"go.uber.org/zap"
)

// cachedResponse is a rendered JSON body tied to the snapshot that produced
// it. The analysis rollups are deterministic per snapshot, so re-rendering
// them per request would be wasted work.
type cachedResponse struct {
	LastUpdate time.Time
	Body       []byte
}

// HandleStats serves the aggregated read snapshot: totals, daily/monthly
// rollups, and the derived analysis block.
func (c *Controller) HandleStats(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	data, ok := c.App.Syncer.GetCachedData(ctx)
	if !ok {
		w.WriteHeader(http.StatusServiceUnavailable)
		_ = json.NewEncoder(w).Encode(map[string]string{"error": "no cache snapshot available yet"})
		return
	}

	if entry, hit := c.statsCache.Load("stats"); hit && entry.LastUpdate.Equal(data.LastUpdate) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(entry.Body)
		return
	}

	body, err := json.Marshal(data)
	if err != nil {
		c.App.Logger.Error("Failed to render stats snapshot", zap.Error(err))
		w.WriteHeader(http.StatusInternalServerError)
		_ = json.NewEncoder(w).Encode(map[string]string{"error": "failed to render snapshot"})
		return
	}
	c.statsCache.Store("stats", &cachedResponse{LastUpdate: data.LastUpdate, Body: body})

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(body)
}

// HandleGaps runs the offline gap scan against the last persisted snapshot.
func (c *Controller) HandleGaps(w http.ResponseWriter, _ *http.Request) {
	report := c.App.Syncer.GapReport()

	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(report)
}
