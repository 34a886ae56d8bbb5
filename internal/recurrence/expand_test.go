package recurrence

import (
	"errors"
	"testing"

	"github.com/samber/mo"

	"github.com/sandeepkv93/calplan/internal/model"
)

func date(s string) model.Date { return model.MustParseDate(s) }

func baseEvent(id, on string) model.Event {
	return model.Event{
		ID:    id,
		Title: "Weekly sync",
		Date:  date(on),
		Start: model.NewClock(9, 0),
		End:   model.NewClock(10, 0),
	}
}

func dates(res Result) []string {
	out := make([]string, 0, len(res.Occurrences))
	for _, occ := range res.Occurrences {
		out = append(out, occ.Date().String())
	}
	return out
}

func assertDates(t *testing.T, res Result, want ...string) {
	t.Helper()
	got := dates(res)
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("occurrence[%d] = %s, want %s (all: %v)", i, got[i], want[i], got)
		}
	}
}

func TestExpandWeeklyWithEndDateAndException(t *testing.T) {
	rule := &model.RecurrenceRule{
		Kind:       model.RecurrenceWeekly,
		Interval:   1,
		EndDate:    mo.Some(date("2024-01-22")),
		Exceptions: []model.Date{date("2024-01-08")},
	}
	res, err := Expander{}.Expand(baseEvent("sync", "2024-01-01"), rule, date("2024-01-01"), date("2024-01-31"))
	if err != nil {
		t.Fatalf("expand failed: %v", err)
	}
	assertDates(t, res, "2024-01-01", "2024-01-15", "2024-01-22")
	if res.Truncated {
		t.Fatal("did not expect truncation")
	}
}

func TestExpandWeekdaysSkipsWeekend(t *testing.T) {
	rule := &model.RecurrenceRule{Kind: model.RecurrenceWeekdays, Interval: 1}
	res, err := Expander{}.Expand(baseEvent("standup", "2024-03-01"), rule, date("2024-03-01"), date("2024-03-05"))
	if err != nil {
		t.Fatalf("expand failed: %v", err)
	}
	assertDates(t, res, "2024-03-01", "2024-03-04", "2024-03-05")
}

func TestExpandWithoutRule(t *testing.T) {
	ev := baseEvent("dentist", "2024-02-10")

	res, err := Expander{}.Expand(ev, nil, date("2024-03-01"), date("2024-03-31"))
	if err != nil {
		t.Fatalf("expand failed: %v", err)
	}
	if len(res.Occurrences) != 0 {
		t.Fatalf("expected no occurrences outside window, got %v", dates(res))
	}

	res, err = Expander{}.Expand(ev, nil, date("2024-02-10"), date("2024-02-10"))
	if err != nil {
		t.Fatalf("expand failed: %v", err)
	}
	assertDates(t, res, "2024-02-10")
	if res.Occurrences[0].ID.String() != "dentist_2024-02-10" {
		t.Fatalf("unexpected occurrence id: %s", res.Occurrences[0].ID)
	}
}

func TestExpandDailyStartsInsideWindow(t *testing.T) {
	rule := &model.RecurrenceRule{Kind: model.RecurrenceDaily, Interval: 3}
	res, err := Expander{}.Expand(baseEvent("water", "2024-02-25"), rule, date("2024-03-01"), date("2024-03-10"))
	if err != nil {
		t.Fatalf("expand failed: %v", err)
	}
	// 02-25, 02-28, 03-02 (leap year), 03-05, 03-08
	assertDates(t, res, "2024-03-02", "2024-03-05", "2024-03-08")
}

func TestExpandCustomBehavesLikeWeekly(t *testing.T) {
	custom := &model.RecurrenceRule{Kind: model.RecurrenceCustom, Interval: 2}
	weekly := &model.RecurrenceRule{Kind: model.RecurrenceWeekly, Interval: 2}
	ev := baseEvent("review", "2024-01-03")
	a, _ := Expander{}.Expand(ev, custom, date("2024-01-01"), date("2024-03-31"))
	b, _ := Expander{}.Expand(ev, weekly, date("2024-01-01"), date("2024-03-31"))
	assertDates(t, a, dates(b)...)
}

func TestExpandEndDateBeforeBaseIsEmpty(t *testing.T) {
	rule := &model.RecurrenceRule{Kind: model.RecurrenceDaily, Interval: 1, EndDate: mo.Some(date("2023-12-31"))}
	res, err := Expander{}.Expand(baseEvent("x", "2024-01-01"), rule, date("2023-01-01"), date("2024-12-31"))
	if err != nil {
		t.Fatalf("end date before base must not be an error: %v", err)
	}
	if len(res.Occurrences) != 0 || res.Truncated {
		t.Fatalf("expected empty untruncated result, got %+v", res)
	}
}

func TestExpandInvertedWindowIsEmpty(t *testing.T) {
	rule := &model.RecurrenceRule{Kind: model.RecurrenceDaily, Interval: 1}
	res, err := Expander{}.Expand(baseEvent("x", "2024-01-01"), rule, date("2024-02-01"), date("2024-01-01"))
	if err != nil {
		t.Fatalf("expand failed: %v", err)
	}
	if len(res.Occurrences) != 0 {
		t.Fatalf("expected empty result, got %v", dates(res))
	}
}

func TestExpandRejectsInvalidRuleBeforeWalking(t *testing.T) {
	rule := &model.RecurrenceRule{Kind: model.RecurrenceDaily, Interval: 0}
	res, err := Expander{}.Expand(baseEvent("x", "2024-01-01"), rule, date("2024-01-01"), date("2024-01-31"))
	if !errors.Is(err, model.ErrInvalidRule) {
		t.Fatalf("expected ErrInvalidRule, got %v", err)
	}
	if res.Occurrences != nil {
		t.Fatalf("expected no partial output, got %v", dates(res))
	}

	rule = &model.RecurrenceRule{Kind: "fortnightly", Interval: 1}
	if _, err := (Expander{}).Expand(baseEvent("x", "2024-01-01"), rule, date("2024-01-01"), date("2024-01-31")); !errors.Is(err, model.ErrInvalidRule) {
		t.Fatalf("expected ErrInvalidRule for unknown kind, got %v", err)
	}
}

func TestExpandCeilingTruncates(t *testing.T) {
	rule := &model.RecurrenceRule{Kind: model.RecurrenceDaily, Interval: 1}
	res, err := NewExpander(10).Expand(baseEvent("x", "2024-01-01"), rule, date("2024-01-01"), date("2024-12-31"))
	if err != nil {
		t.Fatalf("expand failed: %v", err)
	}
	if !res.Truncated {
		t.Fatal("expected truncated result")
	}
	if len(res.Occurrences) != 10 || res.Occurrences[9].Date().String() != "2024-01-10" {
		t.Fatalf("unexpected truncated occurrences: %v", dates(res))
	}

	// Steps spent before the window count against the ceiling too.
	res, _ = NewExpander(10).Expand(baseEvent("x", "2024-01-01"), rule, date("2024-06-01"), date("2024-06-30"))
	if !res.Truncated || len(res.Occurrences) != 0 {
		t.Fatalf("expected empty truncated result, got %+v", res)
	}

	res, _ = NewExpander(10).Expand(baseEvent("x", "2024-01-01"), rule, date("2024-01-01"), date("2024-01-10"))
	if res.Truncated {
		t.Fatal("a walk that finishes exactly at the ceiling is not truncated")
	}
}

func TestExpandDefaultCeiling(t *testing.T) {
	rule := &model.RecurrenceRule{Kind: model.RecurrenceDaily, Interval: 1}
	res, err := Expander{}.Expand(baseEvent("x", "2000-01-01"), rule, date("2000-01-01"), date("2099-12-31"))
	if err != nil {
		t.Fatalf("expand failed: %v", err)
	}
	if !res.Truncated || len(res.Occurrences) != DefaultMaxSteps {
		t.Fatalf("expected %d occurrences with truncation, got %d (truncated=%v)", DefaultMaxSteps, len(res.Occurrences), res.Truncated)
	}
}

func TestExpandOccurrencesCarryBaseFields(t *testing.T) {
	rule := &model.RecurrenceRule{Kind: model.RecurrenceWeekly, Interval: 1}
	ev := baseEvent("sync", "2024-01-01")
	ev.Location = "Room 4"
	res, _ := Expander{}.Expand(ev, rule, date("2024-01-08"), date("2024-01-08"))
	assertDates(t, res, "2024-01-08")
	occ := res.Occurrences[0]
	if occ.Event.Title != ev.Title || occ.Event.Location != "Room 4" || occ.Event.Start != ev.Start || occ.Event.End != ev.End {
		t.Fatalf("occurrence lost base fields: %+v", occ.Event)
	}
	if occ.Event.Date != date("2024-01-08") || occ.ID.TemplateID != "sync" {
		t.Fatalf("unexpected occurrence identity: %+v", occ.ID)
	}
}

func TestExpandAll(t *testing.T) {
	templates := []model.Template{
		{Event: baseEvent("once", "2024-01-03")},
		{Event: baseEvent("daily", "2024-01-01"), Rule: &model.RecurrenceRule{Kind: model.RecurrenceDaily, Interval: 1}},
	}
	res, err := Expander{}.ExpandAll(templates, date("2024-01-02"), date("2024-01-03"))
	if err != nil {
		t.Fatalf("expand all failed: %v", err)
	}
	if len(res.Occurrences) != 3 {
		t.Fatalf("expected 3 occurrences, got %d", len(res.Occurrences))
	}

	templates = append(templates, model.Template{Event: baseEvent("bad", "2024-01-01"), Rule: &model.RecurrenceRule{Kind: model.RecurrenceDaily}})
	if _, err := (Expander{}).ExpandAll(templates, date("2024-01-02"), date("2024-01-03")); !errors.Is(err, model.ErrInvalidRule) {
		t.Fatalf("expected ErrInvalidRule, got %v", err)
	}
}
