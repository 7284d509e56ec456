// Package viewer renders schedule snapshots for people: an interactive
// terminal viewer, and a log dump used when running as a daemon.
package viewer

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"

	"schedwatch/internal/schedule"
)

var (
	titleStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12")).Padding(0, 1)
	footerStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
)

// Markdown describes s as a markdown document. The day matching today is
// marked.
func Markdown(title string, s *schedule.Schedule, today time.Weekday) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# %s\n", title)
	if s == nil || len(s.Days) == 0 {
		b.WriteString("\n_No schedule loaded._\n")
		return b.String()
	}
	for _, day := range s.Days {
		label := strings.TrimSpace(day.DayOfWeek)
		if day.Matches(today) {
			label += " (today)"
		}
		fmt.Fprintf(&b, "\n## %s\n\n", label)
		if len(day.Tasks) == 0 {
			b.WriteString("_Nothing planned._\n")
			continue
		}
		for _, t := range day.Tasks {
			fmt.Fprintf(&b, "- **%s-%s** %s", t.StartTime, t.EndTime, t.Title)
			if d := strings.TrimSpace(t.Details); d != "" {
				fmt.Fprintf(&b, ": %s", d)
			}
			if _, _, ok := t.TimeRange(); !ok {
				b.WriteString(" _(invalid time, never alerts)_")
			}
			b.WriteByte('\n')
		}
	}
	return b.String()
}

// RenderMarkdown renders md for a terminal of the given width. On renderer
// errors the raw markdown is returned.
func RenderMarkdown(md string, width int) string {
	if strings.TrimSpace(md) == "" {
		return ""
	}
	if width <= 0 {
		width = 80
	}
	r, err := glamour.NewTermRenderer(
		glamour.WithStandardStyle("dark"),
		glamour.WithWordWrap(width),
	)
	if err != nil {
		return md
	}
	out, err := r.Render(md)
	if err != nil {
		return md
	}
	return strings.TrimSpace(out)
}
