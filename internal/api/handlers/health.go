package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/rs/zerolog"
)

type healthResponse struct {
	Status string `json:"status"`
}

// Pinger reports whether a backing store can serve requests.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Health is a liveness probe. It never touches the database or the identity
// provider.
func Health() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, healthResponse{Status: "ok"})
	}
}

// Readyz reports 503 until the event store answers a ping.
func Readyz(store Pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if store == nil {
			writeJSON(w, http.StatusServiceUnavailable, healthResponse{Status: "unavailable"})
			return
		}

		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		if err := store.Ping(ctx); err != nil {
			zerolog.Ctx(r.Context()).Warn().Err(err).Msg("readiness check failed")
			writeJSON(w, http.StatusServiceUnavailable, healthResponse{Status: "unavailable"})
			return
		}
		writeJSON(w, http.StatusOK, healthResponse{Status: "ready"})
	}
}
