package notification

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/uptc/quejas-notifier/internal/event"
)

func TestNormalizeReportType(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"underscores", "WATER_LEAK", "WATER LEAK"},
		{"multiple underscores", "ROAD_DAMAGE_REPORT", "ROAD DAMAGE REPORT"},
		{"empty", "", DefaultReportType},
		{"whitespace only", "   \t", DefaultReportType},
		{"trimmed before substitution", "  WATER_LEAK  ", "WATER LEAK"},
		{"plain", "Monthly", "Monthly"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, NormalizeReportType(tt.input))
		})
	}
}

func TestRender(t *testing.T) {
	ev := &event.ReportViewed{
		EventID:         "evt-7",
		Timestamp:       event.LocalTime{Time: time.Date(2025, 11, 5, 18, 7, 9, 0, time.Local)},
		TotalComplaints: 3,
		ReportType:      "NOISE_COMPLAINT",
	}

	c, err := Render(ev, time.Now())
	require.NoError(t, err)

	assert.Equal(t, "🔍 Reporte Visualizado - 3 quejas (05/11/2025 18:07)", c.Subject)
	assert.Contains(t, c.HTML, "<strong>Tipo de reporte:</strong> NOISE COMPLAINT")
	assert.Contains(t, c.HTML, "<strong>Fecha y hora:</strong> 05/11/2025 18:07:09")
	assert.True(t, strings.HasPrefix(c.HTML, "<!DOCTYPE html>"))
	assert.Contains(t, c.Text, "Tipo de reporte: NOISE COMPLAINT")
}

func TestRender_DefaultsAndEscaping(t *testing.T) {
	now := time.Date(2025, 1, 2, 3, 4, 5, 0, time.Local)

	c, err := Render(&event.ReportViewed{EventID: "x"}, now)
	require.NoError(t, err)
	assert.Contains(t, c.HTML, DefaultReportType)
	assert.Contains(t, c.HTML, "02/01/2025 03:04:05")
	assert.Equal(t, "🔍 Reporte Visualizado - 0 quejas (02/01/2025 03:04)", c.Subject)

	c, err = Render(&event.ReportViewed{EventID: "x", ReportType: "<script>alert(1)</script>"}, now)
	require.NoError(t, err)
	assert.NotContains(t, c.HTML, "<script>alert(1)</script>")
	assert.Contains(t, c.HTML, "&lt;script&gt;")
}
