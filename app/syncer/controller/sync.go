package controller

import (
	"context"
	"errors"
	"net/http"

	"github.com/go-jose/go-jose/v4/json"
	"go.uber.org/zap"

	"github.com/liskcounter/counterx/pkg/syncer"
)

// HandleTriggerSync kicks off an out-of-schedule synchronization cycle. The
// cycle runs in the background, detached from the request context; a second
// trigger while one is in flight is reported as a conflict, not an error.
func (c *Controller) HandleTriggerSync(w http.ResponseWriter, r *http.Request) {
	if err := c.App.Syncer.TriggerAsync(context.Background()); err != nil {
		if errors.Is(err, syncer.ErrSyncInFlight) {
			w.WriteHeader(http.StatusConflict)
			_ = json.NewEncoder(w).Encode(map[string]string{"error": "synchronization already in flight"})
			return
		}
		c.App.Logger.Error("Failed to trigger sync cycle", zap.Error(err))
		w.WriteHeader(http.StatusInternalServerError)
		_ = json.NewEncoder(w).Encode(map[string]string{"error": "failed to trigger sync"})
		return
	}

	c.App.Logger.Info("Sync cycle triggered", zap.String("remote_addr", r.RemoteAddr))
	w.WriteHeader(http.StatusAccepted)
	_ = json.NewEncoder(w).Encode(map[string]string{"ok": "1"})
}

// HandleClearCache flags the next cycle as a cold-start full rebuild. The
// current snapshot keeps serving reads until that cycle succeeds.
func (c *Controller) HandleClearCache(w http.ResponseWriter, r *http.Request) {
	c.App.Syncer.ClearCache()
	c.App.Logger.Info("Cache clear requested", zap.String("remote_addr", r.RemoteAddr))

	w.WriteHeader(http.StatusAccepted)
	_ = json.NewEncoder(w).Encode(map[string]string{"ok": "1"})
}
