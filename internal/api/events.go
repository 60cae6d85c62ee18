package api

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"runtime/debug"

	"github.com/uptc/quejas-notifier/internal/event"
	"github.com/uptc/quejas-notifier/internal/metrics"
)

const maxEventBytes = 1 << 20

type eventAccepted struct {
	Message string `json:"message"`
	EventID string `json:"eventId"`
}

type healthResponse struct {
	Status    string `json:"status"`
	Service   string `json:"service"`
	Timestamp int64  `json:"timestamp"`
}

type statusResponse struct {
	EmailEnabled bool   `json:"emailEnabled"`
	Service      string `json:"service"`
}

// handleReportViewed accepts a REPORT_VIEWED callback from the broker and
// schedules the admin notification. It answers as soon as the event is queued.
func (s *Server) handleReportViewed(w http.ResponseWriter, r *http.Request) {
	ev, err := decodeEvent(w, r)
	if err != nil {
		s.metrics.EventReceived(metrics.OutcomeRejected)
		s.logger.Warn("rejected event payload", "error", err)
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	s.logger.Info("received REPORT_VIEWED event",
		slog.String("event_id", ev.EventID),
		slog.String("event_type", ev.EventType),
		slog.Time("timestamp", ev.Timestamp.Time),
		slog.String("ip_address", ev.IPAddress),
		slog.Int("total_complaints", ev.TotalComplaints),
		slog.String("report_type", ev.ReportType),
		slog.String("browser", ev.Browser()),
	)

	if err := s.dispatch(ev); err != nil {
		s.metrics.EventReceived(metrics.OutcomeFailed)
		s.logger.Error("failed to process event", "event_id", ev.EventID, "error", err)
		writeError(w, http.StatusInternalServerError, "Failed to process event: "+err.Error())
		return
	}

	s.metrics.EventReceived(metrics.OutcomeAccepted)
	writeJSON(w, http.StatusOK, eventAccepted{
		Message: "Event processed successfully",
		EventID: ev.EventID,
	})
}

// dispatch converts a panic in the pipeline into an error.
func (s *Server) dispatch(ev *event.ReportViewed) (err error) {
	defer func() {
		if rec := recover(); rec != nil {
			s.logger.Error("panic while dispatching event",
				"event_id", ev.EventID, "panic", rec, "stack", string(debug.Stack()))
			err = fmt.Errorf("%v", rec)
		}
	}()
	return s.dispatcher.Dispatch(ev)
}

func decodeEvent(w http.ResponseWriter, r *http.Request) (*event.ReportViewed, error) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxEventBytes))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return nil, fmt.Errorf("request body exceeds %d bytes", tooLarge.Limit)
		}
		return nil, fmt.Errorf("reading request body: %w", err)
	}
	if len(bytes.TrimSpace(body)) == 0 {
		return nil, errors.New("request body is required")
	}

	var ev *event.ReportViewed
	if err := json.Unmarshal(body, &ev); err != nil {
		return nil, fmt.Errorf("invalid JSON body: %w", err)
	}
	if ev == nil {
		return nil, errors.New("event payload must not be null")
	}
	if err := ev.Validate(); err != nil {
		return nil, err
	}
	return ev, nil
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, healthResponse{
		Status:    "UP",
		Service:   s.serviceName,
		Timestamp: s.now().UnixMilli(),
	})
}

func (s *Server) handleStatus(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, statusResponse{
		EmailEnabled: s.dispatcher.Enabled(),
		Service:      s.serviceName,
	})
}
