package views

import (
	"fmt"
	"strings"

	"github.com/sandeepkv93/calplan/internal/model"
	"github.com/sandeepkv93/calplan/internal/scheduler"
)

func RenderPlan(today model.Date, plan scheduler.Plan) string {
	rows := make([][]string, 0, len(plan.Placements))
	for _, p := range plan.Placements {
		flags := make([]string, 0, 2)
		if p.Shifted {
			flags = append(flags, "shifted")
		}
		if p.PastDeadline {
			flags = append(flags, "late")
		}
		rows = append(rows, []string{
			p.Date.String(),
			fmt.Sprintf("%s-%s", p.Start, p.End),
			p.Item.Title,
			string(p.Item.Priority),
			p.Band,
			fmt.Sprintf("%d", p.Quality),
			strings.Join(flags, ","),
		})
	}
	status := fmt.Sprintf("%d placed, %d conflicts", len(plan.Placements), len(plan.Conflicts))
	if len(plan.Skipped) > 0 {
		status += fmt.Sprintf(", %d left for the next run", len(plan.Skipped))
	}
	out := RenderReport(Report{
		Header: fmt.Sprintf("suggested schedule from %s", today),
		Body:   renderTable([]string{"date", "time", "item", "priority", "band", "quality", "flags"}, rows, "(nothing placed)"),
		Status: status,
	})
	if md := ConflictsMarkdown(plan.Conflicts); md != "" {
		out += "\n" + RenderMarkdown(md)
	}
	return out
}

// ConflictsMarkdown lists each unplaced item with its reason and the
// suggested ways around it.
func ConflictsMarkdown(conflicts []scheduler.Conflict) string {
	if len(conflicts) == 0 {
		return ""
	}
	var b strings.Builder
	b.WriteString("## Conflicts\n")
	for _, c := range conflicts {
		title := c.Item.Title
		if title == "" {
			title = c.Item.ID
		}
		b.WriteString(fmt.Sprintf("\n### %s (%d min, %s)\n\n", title, c.Item.DurationMinutes, c.Item.Priority))
		b.WriteString(fmt.Sprintf("%s\n\n", c.Reason))
		for _, alt := range c.Alternatives {
			b.WriteString(fmt.Sprintf("- %s\n", alt))
		}
	}
	return b.String()
}
