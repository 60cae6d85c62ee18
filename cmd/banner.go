package cmd

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"

	"github.com/uptc/quejas-notifier/internal/broker"
	"github.com/uptc/quejas-notifier/internal/build"
	"github.com/uptc/quejas-notifier/internal/config"
)

var (
	bannerTitle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("39"))
	bannerLabel = lipgloss.NewStyle().Faint(true).Width(10)
	bannerBox   = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("63")).
			Padding(0, 2)
)

// printBanner writes the startup summary to w. Structured logs carry the same
// facts; this is only for humans watching the terminal.
func printBanner(w io.Writer, cfg *config.AppConfig) {
	if termenv.EnvNoColor() {
		lipgloss.SetColorProfile(termenv.Ascii)
	}

	mail := "disabled"
	if cfg.EmailEnabled {
		mail = fmt.Sprintf("%s, %d recipient(s)", cfg.MailProvider, len(cfg.AdminEmails))
	}

	rows := [][2]string{
		{"listen", fmt.Sprintf("http://localhost:%d", cfg.Port)},
		{"callback", cfg.CallbackBaseURL + broker.CallbackPath},
		{"broker", cfg.BrokerURL},
		{"mail", mail},
	}

	var b strings.Builder
	b.WriteString(bannerTitle.Render("Quejas Notifier " + build.Version))
	for _, r := range rows {
		b.WriteString("\n")
		b.WriteString(bannerLabel.Render(r[0]))
		b.WriteString(r[1])
	}
	_, _ = fmt.Fprintln(w, bannerBox.Render(b.String()))
}
