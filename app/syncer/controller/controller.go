package controller

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/puzpuzpuz/xsync/v4"

	"github.com/liskcounter/counterx/app/syncer/types"
)

type Controller struct {
	App *types.App

	// statsCache memoizes rendered responses keyed by route; entries are
	// invalidated when the underlying snapshot's LastUpdate moves.
	statsCache *xsync.Map[string, *cachedResponse]
}

// NewController returns a new controller.
func NewController(app *types.App) *Controller {
	return &Controller{
		App:        app,
		statsCache: xsync.NewMap[string, *cachedResponse](),
	}
}

// WithCORS is a middleware that adds CORS headers to the response.
func WithCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")

		// Development: Echo back the origin to allow credentials with any origin
		// TODO: Restrict this in production to specific domains
		if origin != "" {
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Set("Access-Control-Allow-Credentials", "true")
		} else {
			w.Header().Set("Access-Control-Allow-Origin", "*")
		}
		w.Header().Set("Vary", "Origin")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		w.Header().Set("Access-Control-Allow-Methods", http.MethodGet+", "+http.MethodPost+", "+http.MethodOptions)

		// Fast-path the preflight
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// NewRouter returns a new router with all the routes defined in this file.
func (c *Controller) NewRouter() (*mux.Router, error) {
	r := mux.NewRouter()

	r.Handle("/health", http.HandlerFunc(c.HandleHealth)).Methods(http.MethodGet)

	r.HandleFunc("/stats", c.HandleStats).Methods(http.MethodGet)
	r.HandleFunc("/stats/gaps", c.HandleGaps).Methods(http.MethodGet)

	r.HandleFunc("/sync", c.HandleTriggerSync).Methods(http.MethodPost)
	r.HandleFunc("/cache/clear", c.HandleClearCache).Methods(http.MethodPost)

	r.HandleFunc("/ws", c.HandleWebSocket).Methods(http.MethodGet)

	return r, nil
}
