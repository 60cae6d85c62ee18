package notification

import (
	"bytes"
	"fmt"
	"html/template"
	"strings"
	"time"

	"github.com/uptc/quejas-notifier/internal/event"
)

// DefaultReportType labels events whose report type is blank or absent.
const DefaultReportType = "GENERAL REPORT"

const (
	subjectTimeLayout = "02/01/2006 15:04"
	bodyTimeLayout    = "02/01/2006 15:04:05"
)

// Content is the rendered email, shared read-only by every send of one event.
type Content struct {
	Subject string
	HTML    string
	Text    string
}

// emailTmpl is the HTML body of a report-viewed alert.
// {{.ReportType}} and {{.ViewedAt}} are auto-escaped by html/template.
var emailTmpl = template.Must(template.New("report-viewed").Parse(`<!DOCTYPE html>
<html>
<head>
  <meta charset="UTF-8">
  <style>
    body { font-family: Arial, sans-serif; margin: 0; padding: 20px; background-color: #f5f5f5; }
    .container { max-width: 500px; margin: 0 auto; background: white; border-radius: 8px;
                 padding: 30px; box-shadow: 0 2px 8px rgba(0,0,0,0.1); }
    .title { color: #333; font-size: 20px; font-weight: bold; margin-bottom: 20px;
             border-bottom: 2px solid #007bff; padding-bottom: 10px; }
    .info { margin: 15px 0; line-height: 1.6; color: #555; }
    .info strong { color: #333; }
    .footer { margin-top: 30px; padding-top: 20px; border-top: 1px solid #eee;
              text-align: center; font-size: 12px; color: #999; }
  </style>
</head>
<body>
  <div class="container">
    <div class="title">🔍 Visualización de Reportes - Sistema de Quejas Boyacá</div>
    <div class="info">
      <p>Se ha registrado una visualización del sistema de quejas.</p>
      <p><strong>Tipo de reporte:</strong> {{.ReportType}}</p>
      <p><strong>Fecha y hora:</strong> {{.ViewedAt}}</p>
    </div>
    <div class="footer">
      Sistema de Alertas Automático - Boyacá
    </div>
  </div>
</body>
</html>
`))

// NormalizeReportType trims s, replaces underscores with spaces, and falls back
// to DefaultReportType when nothing is left.
func NormalizeReportType(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return DefaultReportType
	}
	return strings.ReplaceAll(s, "_", " ")
}

// Subject builds the subject line for ev viewed at the given time.
func Subject(ev *event.ReportViewed, at time.Time) string {
	return fmt.Sprintf("🔍 Reporte Visualizado - %d quejas (%s)", ev.TotalComplaints, at.Format(subjectTimeLayout))
}

// Render produces the subject, HTML body and plain-text fallback for ev.
// When the event carries no timestamp, now is used.
func Render(ev *event.ReportViewed, now time.Time) (Content, error) {
	at := ev.OccurredAt(now)
	reportType := NormalizeReportType(ev.ReportType)
	viewedAt := at.Format(bodyTimeLayout)

	var buf bytes.Buffer
	if err := emailTmpl.Execute(&buf, struct{ ReportType, ViewedAt string }{reportType, viewedAt}); err != nil {
		return Content{}, fmt.Errorf("executing email template: %w", err)
	}

	text := fmt.Sprintf("Se ha registrado una visualización del sistema de quejas.\n\nTipo de reporte: %s\nFecha y hora: %s\n",
		reportType, viewedAt)

	return Content{
		Subject: Subject(ev, at),
		HTML:    buf.String(),
		Text:    text,
	}, nil
}
