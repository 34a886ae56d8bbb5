package views

import (
	"strings"
	"testing"

	"github.com/sandeepkv93/calplan/internal/layout"
	"github.com/sandeepkv93/calplan/internal/model"
	"github.com/sandeepkv93/calplan/internal/planner"
	"github.com/sandeepkv93/calplan/internal/recurrence"
	"github.com/sandeepkv93/calplan/internal/scheduler"
)

func TestRenderReportIncludesSections(t *testing.T) {
	out := RenderReport(Report{Header: "header", Body: "body", Status: "status", Footer: "footer"})
	for _, want := range []string{"header", "body", "status", "footer"} {
		if !strings.Contains(out, want) {
			t.Fatalf("report missing %q:\n%s", want, out)
		}
	}
}

func TestRenderReportSkipsEmptyBody(t *testing.T) {
	out := RenderReport(Report{Header: "only"})
	if strings.Contains(out, "╭") {
		t.Fatalf("empty body should not draw a panel:\n%s", out)
	}
}

func TestRenderMarkdownEmpty(t *testing.T) {
	if got := RenderMarkdown("   "); got != "" {
		t.Fatalf("RenderMarkdown(blank) = %q, want empty", got)
	}
}

func TestRenderOccurrences(t *testing.T) {
	d := model.MustParseDate("2024-03-04")
	res := recurrence.Result{
		Occurrences: []model.Occurrence{{
			ID: model.OccurrenceID{TemplateID: "standup", Date: d},
			Event: model.Event{
				ID: "standup", Title: "Standup", Date: d,
				Start: model.MustParseClock("09:00"), End: model.MustParseClock("09:15"),
			},
		}},
		Truncated: true,
	}
	out := RenderOccurrences(d, d.AddDays(6), res)
	for _, want := range []string{"2024-03-04", "Mon", "09:00-09:15", "Standup", "standup_2024-03-04", "1 occurrences", "truncated"} {
		if !strings.Contains(out, want) {
			t.Fatalf("output missing %q:\n%s", want, out)
		}
	}
}

func TestRenderOccurrencesEmpty(t *testing.T) {
	d := model.MustParseDate("2024-03-04")
	out := RenderOccurrences(d, d, recurrence.Result{})
	if !strings.Contains(out, "(no occurrences)") || strings.Contains(out, "truncated") {
		t.Fatalf("unexpected empty output:\n%s", out)
	}
}

func TestRenderDayLayout(t *testing.T) {
	day := planner.DayLayout{
		Date: model.MustParseDate("2024-03-04"),
		Entries: []planner.DayEntry{
			{
				Event:     model.TimedEvent{ID: "a", Title: "Review", Start: model.MustParseClock("09:00"), End: model.MustParseClock("10:00")},
				Kind:      planner.EntryOccurrence,
				Placement: layout.Placement{Column: 0, TotalColumns: 2},
			},
			{
				Event:     model.TimedEvent{ID: "b", Start: model.MustParseClock("09:30"), End: model.MustParseClock("10:30")},
				Kind:      planner.EntryFixed,
				Placement: layout.Placement{Column: 1, TotalColumns: 2},
			},
		},
		Clusters:      1,
		MaxConcurrent: 2,
	}
	out := RenderDayLayout(day)
	for _, want := range []string{"Review", "1/2", "2/2", "group", "2 events in 1 groups, at most 2 at once", string(planner.EntryFixed)} {
		if !strings.Contains(out, want) {
			t.Fatalf("output missing %q:\n%s", want, out)
		}
	}
}

func TestLaneOffsetsByColumn(t *testing.T) {
	first := lane(planner.DayEntry{Placement: layout.Placement{Column: 0, TotalColumns: 2}})
	second := lane(planner.DayEntry{Placement: layout.Placement{Column: 1, TotalColumns: 2}})
	if first != strings.Repeat("█", laneWidth/2) {
		t.Fatalf("first lane = %q", first)
	}
	if second != strings.Repeat(" ", laneWidth/2)+strings.Repeat("█", laneWidth/2) {
		t.Fatalf("second lane = %q", second)
	}
}

func TestRenderPlan(t *testing.T) {
	today := model.MustParseDate("2024-03-04")
	item := model.WorkItem{ID: "r", Title: "Write report", DurationMinutes: 60, Priority: model.PriorityHigh}
	plan := scheduler.Plan{
		Placements: []scheduler.Placement{{
			Item: item, Date: today,
			Start: model.MustParseClock("10:00"), End: model.MustParseClock("11:00"),
			Band: "peak", Quality: 75, Shifted: true,
		}},
		Conflicts: []scheduler.Conflict{{
			Item:         model.WorkItem{ID: "x", Title: "Deep work", DurationMinutes: 600, Priority: model.PriorityLow},
			Date:         today,
			Reason:       "longer than the work window",
			Alternatives: []string{"split it into smaller items"},
		}},
		Skipped: []string{"y"},
	}
	out := RenderPlan(today, plan)
	for _, want := range []string{"Write report", "10:00-11:00", "High", "peak", "75", "shifted", "1 placed, 1 conflicts", "1 left for the next run", "Deep", "smaller"} {
		if !strings.Contains(out, want) {
			t.Fatalf("output missing %q:\n%s", want, out)
		}
	}
}

func TestConflictsMarkdown(t *testing.T) {
	if got := ConflictsMarkdown(nil); got != "" {
		t.Fatalf("ConflictsMarkdown(nil) = %q", got)
	}
	md := ConflictsMarkdown([]scheduler.Conflict{{
		Item:         model.WorkItem{ID: "x", DurationMinutes: 90, Priority: model.PriorityMedium},
		Reason:       "no free slot",
		Alternatives: []string{"allow weekend scheduling"},
	}})
	want := "## Conflicts\n\n### x (90 min, Medium)\n\nno free slot\n\n- allow weekend scheduling\n"
	if md != want {
		t.Fatalf("markdown = %q, want %q", md, want)
	}
}
