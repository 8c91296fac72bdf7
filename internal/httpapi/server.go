// Package httpapi serves the dashboard's REST API. Every /api request runs
// on its own storage session.
package httpapi

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/crackedoura/backend/internal/records"
	"github.com/crackedoura/backend/internal/storage"
)

// DefaultAddr matches the port the desktop frontend expects.
const DefaultAddr = "127.0.0.1:8000"

const maxBodyBytes = 8 << 20

// Server wires handlers to the storage context.
type Server struct {
	storage *storage.Context
	metrics *Metrics
	logger  *slog.Logger
}

// NewHandler creates the HTTP handler for the API.
func NewHandler(sc *storage.Context, logger *slog.Logger) http.Handler {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Server{
		storage: sc,
		metrics: NewMetrics(sc),
		logger:  logger,
	}

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(enableCORS)
	r.Use(s.metrics.instrument)

	r.Get("/healthz", s.health)
	r.Method(http.MethodGet, "/metrics", s.metrics.Handler())

	r.Route("/api", func(r chi.Router) {
		r.Use(withSession(sc, s.metrics, logger))

		r.Get("/settings", s.getSettings)
		r.Post("/settings", s.saveSettings)
		r.Get("/dashboard", s.getLayout)
		r.Post("/dashboard", s.saveLayout)
		r.Get("/days/{date}", s.getDay)
		r.Post("/days", s.upsertDays)
		r.Get("/query", s.query)
		r.Get("/schema", s.fields)
	})

	return r
}

func enableCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	res := s.storage.Resolution()
	body := map[string]interface{}{
		"status":  "ok",
		"dir":     s.storage.Dir(),
		"outcome": res.Outcome.String(),
		"driver":  storage.DriverName,
	}
	if err := s.storage.Ping(r.Context()); err != nil {
		s.logger.Error("health check failed", "error", err)
		body["status"] = "degraded"
		writeJSON(w, http.StatusServiceUnavailable, body)
		return
	}
	writeJSON(w, http.StatusOK, body)
}

func (s *Server) getSettings(w http.ResponseWriter, r *http.Request) {
	sess, _ := SessionFrom(r.Context())
	settings, err := records.GetSettings(r.Context(), sess)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, settings)
}

func (s *Server) saveSettings(w http.ResponseWriter, r *http.Request) {
	var body records.Settings
	if !s.decode(w, r, &body) {
		return
	}
	sess, _ := SessionFrom(r.Context())
	if err := records.SaveSettings(r.Context(), sess, body); err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, body)
}

func (s *Server) getLayout(w http.ResponseWriter, r *http.Request) {
	sess, _ := SessionFrom(r.Context())
	layout, err := records.GetLayout(r.Context(), sess, layoutName(r))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, layout)
}

func (s *Server) saveLayout(w http.ResponseWriter, r *http.Request) {
	var layout json.RawMessage
	if !s.decode(w, r, &layout) {
		return
	}
	sess, _ := SessionFrom(r.Context())
	if err := records.SaveLayout(r.Context(), sess, layoutName(r), layout); err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "saved"})
}

func (s *Server) getDay(w http.ResponseWriter, r *http.Request) {
	sess, _ := SessionFrom(r.Context())
	day, err := records.GetDay(r.Context(), sess, chi.URLParam(r, "date"))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, day)
}

func (s *Server) upsertDays(w http.ResponseWriter, r *http.Request) {
	var recs []records.DayRecord
	if !s.decode(w, r, &recs) {
		return
	}
	sess, _ := SessionFrom(r.Context())
	if err := records.UpsertDays(r.Context(), sess, recs); err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"stored": len(recs)})
}

func (s *Server) query(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	sess, _ := SessionFrom(r.Context())
	points, err := records.QueryRange(r.Context(), sess, q.Get("path"), q.Get("start_date"), q.Get("end_date"))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, points)
}

func (s *Server) fields(w http.ResponseWriter, r *http.Request) {
	sess, _ := SessionFrom(r.Context())
	fields, err := records.Fields(r.Context(), sess)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, fields)
}

func layoutName(r *http.Request) string {
	if name := r.URL.Query().Get("name"); name != "" {
		return name
	}
	return records.DefaultLayout
}

func (s *Server) decode(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil {
		writeError(w, http.StatusBadRequest, "failed to read request body")
		return false
	}
	if err := json.Unmarshal(body, dst); err != nil {
		s.logger.Warn("invalid request body", "path", r.URL.Path, "error", err)
		writeError(w, http.StatusBadRequest, "invalid request body")
		return false
	}
	return true
}

func (s *Server) fail(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, records.ErrNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, records.ErrInvalid):
		writeError(w, http.StatusBadRequest, err.Error())
	default:
		s.logger.Error("request failed", "path", r.URL.Path, "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
