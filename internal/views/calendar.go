package views

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/sandeepkv93/calplan/internal/model"
	"github.com/sandeepkv93/calplan/internal/planner"
	"github.com/sandeepkv93/calplan/internal/recurrence"
)

const laneWidth = 24

func RenderOccurrences(from, to model.Date, res recurrence.Result) string {
	rows := make([][]string, 0, len(res.Occurrences))
	for _, occ := range res.Occurrences {
		rows = append(rows, []string{
			occ.Date().String(),
			occ.Date().Weekday().String()[:3],
			fmt.Sprintf("%s-%s", occ.Event.Start, occ.Event.End),
			occ.Event.Title,
			occ.ID.String(),
		})
	}
	status := fmt.Sprintf("%d occurrences", len(res.Occurrences))
	if res.Truncated {
		status += " (truncated: narrow the window to see the rest)"
	}
	return RenderReport(Report{
		Header: fmt.Sprintf("occurrences %s .. %s", from, to),
		Body:   renderTable([]string{"date", "day", "time", "title", "id"}, rows, "(no occurrences)"),
		Status: status,
	})
}

func RenderDayLayout(day planner.DayLayout) string {
	rows := make([][]string, 0, len(day.Entries))
	for _, e := range day.Entries {
		rows = append(rows, []string{
			fmt.Sprintf("%s-%s", e.Event.Start, e.Event.End),
			label(e.Event),
			string(e.Kind),
			fmt.Sprintf("%d", e.Cluster+1),
			fmt.Sprintf("%d/%d", e.Placement.Column+1, e.Placement.TotalColumns),
			lane(e),
		})
	}
	return RenderReport(Report{
		Header: fmt.Sprintf("layout %s (%s)", day.Date, day.Date.Weekday()),
		Body:   renderTable([]string{"time", "title", "kind", "group", "column", "lane"}, rows, "(no events)"),
		Status: fmt.Sprintf("%d events in %d groups, at most %d at once", len(day.Entries), day.Clusters, day.MaxConcurrent),
	})
}

// lane draws the horizontal share an entry gets in a day column.
func lane(e planner.DayEntry) string {
	width := int(float64(laneWidth) * e.Placement.WidthFraction())
	if width < 1 {
		width = 1
	}
	offset := width * e.Placement.Column
	return strings.Repeat(" ", offset) + strings.Repeat("█", width)
}

func label(ev model.TimedEvent) string {
	if ev.Title != "" {
		return ev.Title
	}
	return ev.ID
}

func renderTable(headers []string, rows [][]string, empty string) string {
	if len(rows) == 0 {
		return empty
	}
	return table.New().
		Border(lipgloss.NormalBorder()).
		Headers(headers...).
		Rows(rows...).
		String()
}
