// Package event defines the report-viewed payload delivered by the broker.
package event

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// TypeReportViewed is the only event type this service subscribes to.
const TypeReportViewed = "REPORT_VIEWED"

// TimestampLayout is the wire format of ReportViewed.Timestamp (local time, no zone).
const TimestampLayout = "2006-01-02T15:04:05"

// ReportViewed is emitted by the broker each time a complaints report is viewed.
type ReportViewed struct {
	EventID         string    `json:"eventId"`
	EventType       string    `json:"eventType"`
	IPAddress       string    `json:"ipAddress"`
	Timestamp       LocalTime `json:"timestamp"`
	UserAgent       string    `json:"userAgent"`
	TotalComplaints int       `json:"totalComplaints"`
	ReportType      string    `json:"reportType"`
	Source          string    `json:"source"`
}

// OccurredAt returns the event timestamp, or now when the broker omitted it.
func (e *ReportViewed) OccurredAt(now time.Time) time.Time {
	if e.Timestamp.IsZero() {
		return now
	}
	return e.Timestamp.Time
}

// Validate checks the fields the notifier relies on.
func (e *ReportViewed) Validate() error {
	if strings.TrimSpace(e.EventID) == "" {
		return &ValidationError{Field: "eventId", Message: "is required"}
	}
	if e.EventType != "" && e.EventType != TypeReportViewed {
		return &ValidationError{Field: "eventType", Message: fmt.Sprintf("must be %s, got %q", TypeReportViewed, e.EventType)}
	}
	if e.TotalComplaints < 0 {
		return &ValidationError{Field: "totalComplaints", Message: "must not be negative"}
	}
	return nil
}

// Browser derives a coarse browser family from the user agent.
func (e *ReportViewed) Browser() string {
	ua := e.UserAgent
	switch {
	case ua == "":
		return "Unknown"
	case strings.Contains(ua, "Edg"):
		return "Edge"
	case strings.Contains(ua, "Firefox"):
		return "Firefox"
	case strings.Contains(ua, "Chrome"):
		return "Chrome"
	case strings.Contains(ua, "Safari"):
		return "Safari"
	default:
		return "Other"
	}
}

// LocalTime is a wall-clock time serialized as TimestampLayout.
// The zero value means the field was absent or null.
type LocalTime struct {
	time.Time
}

// fallback layouts accepted on input, tried in order after TimestampLayout.
var fallbackLayouts = []string{
	"2006-01-02T15:04:05.999999999",
	time.RFC3339Nano,
}

// UnmarshalJSON accepts TimestampLayout, fractional seconds, RFC 3339, or null.
func (t *LocalTime) UnmarshalJSON(data []byte) error {
	if bytes.Equal(data, []byte("null")) {
		t.Time = time.Time{}
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("timestamp must be a string: %w", err)
	}
	if s == "" {
		t.Time = time.Time{}
		return nil
	}
	parsed, err := time.ParseInLocation(TimestampLayout, s, time.Local)
	if err == nil {
		t.Time = parsed
		return nil
	}
	for _, layout := range fallbackLayouts {
		if p, ferr := time.ParseInLocation(layout, s, time.Local); ferr == nil {
			t.Time = p
			return nil
		}
	}
	return fmt.Errorf("timestamp %q: want %s: %w", s, "yyyy-MM-ddTHH:mm:ss", err)
}

// MarshalJSON writes TimestampLayout, or null for the zero value.
func (t LocalTime) MarshalJSON() ([]byte, error) {
	if t.IsZero() {
		return []byte("null"), nil
	}
	return json.Marshal(t.Format(TimestampLayout))
}
