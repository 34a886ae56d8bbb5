package views

import (
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"
)

// Report is one screen of command output.
type Report struct {
	Header string
	Body   string
	Status string
	Footer string
}

var (
	headerStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	statusStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	warnStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("11"))
	errorStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	panelStyle  = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	footerStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
)

func RenderReport(data Report) string {
	lines := []string{headerStyle.Render(data.Header)}
	if strings.TrimSpace(data.Body) != "" {
		lines = append(lines, panelStyle.Render(data.Body))
	}
	if data.Status != "" {
		status := statusStyle.Render(data.Status)
		lower := strings.ToLower(data.Status)
		switch {
		case strings.Contains(lower, "error"):
			status = errorStyle.Render(data.Status)
		case strings.Contains(lower, "conflict"), strings.Contains(lower, "truncated"):
			status = warnStyle.Render(data.Status)
		}
		lines = append(lines, status)
	}
	if data.Footer != "" {
		lines = append(lines, footerStyle.Render(data.Footer))
	}
	return strings.Join(lines, "\n")
}

func RenderMarkdown(md string) string {
	if strings.TrimSpace(md) == "" {
		return ""
	}
	out, err := glamour.Render(md, "dark")
	if err != nil {
		return md
	}
	return strings.TrimSpace(out)
}
