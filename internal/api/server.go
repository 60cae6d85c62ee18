package api

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/uptc/quejas-notifier/internal/event"
	"github.com/uptc/quejas-notifier/internal/metrics"
)

// Dispatcher hands accepted events to the notification pipeline.
type Dispatcher interface {
	Dispatch(ev *event.ReportViewed) error
	Enabled() bool
}

// Server holds all dependencies for the REST API handlers.
type Server struct {
	dispatcher  Dispatcher
	serviceName string
	metrics     *metrics.Metrics
	logger      *slog.Logger
	now         func() time.Time
}

// New creates a new API Server. m may be nil.
func New(dispatcher Dispatcher, serviceName string, m *metrics.Metrics, logger *slog.Logger) *Server {
	return &Server{
		dispatcher:  dispatcher,
		serviceName: serviceName,
		metrics:     m,
		logger:      logger,
		now:         time.Now,
	}
}

// Mount registers all API routes under the given router.
func (s *Server) Mount(r chi.Router) {
	r.Post("/events/report-viewed", s.handleReportViewed)

	r.Get("/health", s.handleHealth)
	r.Get("/status", s.handleStatus)
	r.Get("/version", s.handleVersion)
}

// ─── Shared helpers ───────────────────────────────────────────────────────────

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
