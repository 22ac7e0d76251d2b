package app

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"atrium/cmd/internal/auth/api"
)

// registerHTTP wires every route onto mux: health probes, metrics, and the
// auth endpoints.
func registerHTTP(mux *http.ServeMux, cfg Config, pool *pgxpool.Pool, auth *api.Handler, metrics *Metrics) {
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		writeHealth(w, http.StatusOK, "ok")
	})

	mux.HandleFunc("/readyz", func(w http.ResponseWriter, r *http.Request) {
		if cfg.ReadinessRequireDB {
			if pool == nil {
				writeHealth(w, http.StatusServiceUnavailable, "db not configured")
				return
			}
			if err := PingDB(r.Context(), pool, 2*time.Second); err != nil {
				writeHealth(w, http.StatusServiceUnavailable, "db unreachable")
				return
			}
		}
		writeHealth(w, http.StatusOK, "ready")
	})

	if metrics != nil {
		mux.Handle("/metrics", metrics.Handler())
	}

	auth.Register(mux)
}

func writeHealth(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"status": msg})
}
