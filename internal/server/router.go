package server

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/diewo77/metertrack/internal/auth"
	"github.com/diewo77/metertrack/internal/handlers"
	"github.com/diewo77/metertrack/internal/httpx"
	"github.com/diewo77/metertrack/internal/store"
)

// New constructs the root http.Handler with all routes and middlewares
// applied. The verifier runs before any domain logic on every protected
// endpoint.
func New(db *gorm.DB, verifier auth.TokenVerifier, log *zap.Logger) http.Handler {
	mux := http.NewServeMux()
	st := store.New(db)
	protect := auth.RequireAuth(verifier, log)

	// --- Health & diagnostics (no auth) ---
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		if err := db.Exec("SELECT 1").Error; err != nil {
			httpx.JSON(w, http.StatusServiceUnavailable, map[string]string{"status": "degraded"})
			return
		}
		httpx.JSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	mux.Handle("/metrics", promhttp.Handler())

	dh := handlers.NewDiagHandler(db)
	mux.HandleFunc("/api/test-db", dh.TestDB)
	mux.HandleFunc("/api/schema", dh.Schema)

	// --- Profiles ---
	ph := handlers.NewProfileHandler(st, log)
	mux.Handle("/api/profiles", protect(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			ph.List(w, r)
		case http.MethodPost:
			ph.Create(w, r)
		default:
			w.Header().Set("Allow", "GET,POST")
			httpx.JSONError(w, http.StatusMethodNotAllowed, "method_not_allowed", nil)
		}
	})))
	mux.Handle("/api/profiles/", protect(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rest := strings.TrimPrefix(r.URL.Path, "/api/profiles/")
		if sub, ok := strings.CutSuffix(rest, "/initial-reading"); ok {
			id, err := parseID(sub)
			if err != nil {
				httpx.JSONError(w, http.StatusUnprocessableEntity, "invalid_id", nil)
				return
			}
			if r.Method != http.MethodPatch {
				w.Header().Set("Allow", "PATCH")
				httpx.JSONError(w, http.StatusMethodNotAllowed, "method_not_allowed", nil)
				return
			}
			ph.UpdateInitialReading(w, r, id)
			return
		}
		id, err := parseID(rest)
		if err != nil {
			httpx.JSONError(w, http.StatusUnprocessableEntity, "invalid_id", nil)
			return
		}
		switch r.Method {
		case http.MethodGet:
			ph.Get(w, r, id)
		case http.MethodDelete:
			ph.Delete(w, r, id)
		default:
			w.Header().Set("Allow", "GET,DELETE")
			httpx.JSONError(w, http.StatusMethodNotAllowed, "method_not_allowed", nil)
		}
	})))

	// --- Readings ---
	rh := handlers.NewReadingHandler(st, log)
	mux.Handle("/api/readings", protect(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			rh.List(w, r)
		case http.MethodPost:
			rh.Create(w, r)
		default:
			w.Header().Set("Allow", "GET,POST")
			httpx.JSONError(w, http.StatusMethodNotAllowed, "method_not_allowed", nil)
		}
	})))
	mux.Handle("/api/readings/", protect(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id, err := parseID(strings.TrimPrefix(r.URL.Path, "/api/readings/"))
		if err != nil {
			httpx.JSONError(w, http.StatusUnprocessableEntity, "invalid_id", nil)
			return
		}
		if r.Method != http.MethodDelete {
			w.Header().Set("Allow", "DELETE")
			httpx.JSONError(w, http.StatusMethodNotAllowed, "method_not_allowed", nil)
			return
		}
		rh.Delete(w, r, id)
	})))

	return withRequestID(withAccessLog(log, withRecover(mux)))
}

func parseID(s string) (uint, error) {
	id, err := strconv.ParseUint(s, 10, 32)
	if err != nil {
		return 0, err
	}
	return uint(id), nil
}
