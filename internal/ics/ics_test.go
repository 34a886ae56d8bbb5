package ics

import (
	"bytes"
	"strings"
	"testing"
	"time"

	ical "github.com/arran4/golang-ical"
	"github.com/samber/mo"

	"github.com/sandeepkv93/calplan/internal/model"
	"github.com/sandeepkv93/calplan/internal/recurrence"
)

var stamp = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

func standup() model.Template {
	return model.Template{
		Event: model.Event{
			ID:       "standup",
			Title:    "Team standup",
			Date:     model.MustParseDate("2024-01-01"),
			Start:    model.MustParseClock("09:00"),
			End:      model.MustParseClock("09:15"),
			Location: "Room 4",
		},
		Rule: &model.RecurrenceRule{
			Kind:       model.RecurrenceWeekly,
			Interval:   1,
			EndDate:    mo.Some(model.MustParseDate("2024-01-22")),
			Exceptions: []model.Date{model.MustParseDate("2024-01-08")},
		},
	}
}

func TestWriteOccurrencesUsesStableUIDs(t *testing.T) {
	tpl := standup()
	res, err := recurrence.Expander{}.Expand(tpl.Event, tpl.Rule, model.MustParseDate("2024-01-01"), model.MustParseDate("2024-01-31"))
	if err != nil {
		t.Fatalf("expand: %v", err)
	}

	var first, second bytes.Buffer
	if err := WriteOccurrences(&first, res.Occurrences, stamp); err != nil {
		t.Fatalf("write: %v", err)
	}
	if err := WriteOccurrences(&second, res.Occurrences, stamp); err != nil {
		t.Fatalf("write: %v", err)
	}
	if first.String() != second.String() {
		t.Fatalf("expected identical exports for identical input")
	}

	cal, err := ical.ParseCalendar(strings.NewReader(first.String()))
	if err != nil {
		t.Fatalf("parse exported calendar: %v", err)
	}
	events := cal.Events()
	if len(events) != 3 {
		t.Fatalf("expected 3 VEVENTs, got %d", len(events))
	}
	for i, occ := range res.Occurrences {
		ve := events[i]
		if got := propValue(ve, ical.ComponentPropertyUniqueId); got != occ.ID.UUID().String() {
			t.Fatalf("event %d: UID %q, want %q", i, got, occ.ID.UUID())
		}
		want := strings.ReplaceAll(occ.Date().String(), "-", "") + "T090000"
		if got := propValue(ve, ical.ComponentPropertyDtStart); got != want {
			t.Fatalf("event %d: DTSTART %q, want %q", i, got, want)
		}
		if got := propValue(ve, ical.ComponentPropertySummary); got != "Team standup" {
			t.Fatalf("event %d: SUMMARY %q", i, got)
		}
	}
}

func TestWriteTemplatesCarriesRecurrence(t *testing.T) {
	oneOff := model.Template{Event: model.Event{
		ID:    "review",
		Title: "Design review",
		Date:  model.MustParseDate("2024-01-03"),
		Start: model.MustParseClock("14:00"),
		End:   model.MustParseClock("15:00"),
	}}
	var buf bytes.Buffer
	if err := WriteTemplates(&buf, []model.Template{standup(), oneOff}, stamp); err != nil {
		t.Fatalf("write: %v", err)
	}
	cal, err := ical.ParseCalendar(strings.NewReader(buf.String()))
	if err != nil {
		t.Fatalf("parse exported calendar: %v", err)
	}
	events := cal.Events()
	if len(events) != 2 {
		t.Fatalf("expected 2 VEVENTs, got %d", len(events))
	}
	if got := propValue(events[0], ical.ComponentPropertyRrule); !strings.HasPrefix(got, "FREQ=WEEKLY") {
		t.Fatalf("unexpected RRULE %q", got)
	}
	if got := propValue(events[0], ical.ComponentPropertyExdate); got != "20240108T090000" {
		t.Fatalf("unexpected EXDATE %q", got)
	}
	if got := propValue(events[1], ical.ComponentPropertyRrule); got != "" {
		t.Fatalf("one-off template must not carry RRULE, got %q", got)
	}

	bad := standup()
	bad.Rule.Interval = 0
	if err := WriteTemplates(&bytes.Buffer{}, []model.Template{bad}, stamp); err == nil {
		t.Fatalf("expected invalid rule error")
	}
}

func TestExportedOccurrencesReadBackAsBusy(t *testing.T) {
	tpl := standup()
	res, err := recurrence.Expander{}.Expand(tpl.Event, tpl.Rule, model.MustParseDate("2024-01-01"), model.MustParseDate("2024-01-31"))
	if err != nil {
		t.Fatalf("expand: %v", err)
	}
	var buf bytes.Buffer
	if err := WriteOccurrences(&buf, res.Occurrences, stamp); err != nil {
		t.Fatalf("write: %v", err)
	}
	busy, err := ReadBusy(&buf)
	if err != nil {
		t.Fatalf("read busy: %v", err)
	}
	if len(busy) != len(res.Occurrences) {
		t.Fatalf("expected %d busy intervals, got %d", len(res.Occurrences), len(busy))
	}
	for i, b := range busy {
		if b.Date != res.Occurrences[i].Date() || b.Start.String() != "09:00" || b.End.String() != "09:15" {
			t.Fatalf("busy %d: unexpected %s %s-%s", i, b.Date, b.Start, b.End)
		}
	}
}

const busyCalendar = "BEGIN:VCALENDAR\r\n" +
	"VERSION:2.0\r\n" +
	"PRODID:-//test//test//EN\r\n" +
	"BEGIN:VEVENT\r\n" +
	"UID:timed\r\n" +
	"SUMMARY:Dentist\r\n" +
	"DTSTART:20240102T100000Z\r\n" +
	"DTEND:20240102T110000Z\r\n" +
	"END:VEVENT\r\n" +
	"BEGIN:VEVENT\r\n" +
	"UID:overnight\r\n" +
	"SUMMARY:Flight\r\n" +
	"DTSTART:20240103T220000\r\n" +
	"DTEND:20240104T020000\r\n" +
	"END:VEVENT\r\n" +
	"BEGIN:VEVENT\r\n" +
	"UID:holiday\r\n" +
	"SUMMARY:Holiday\r\n" +
	"DTSTART;VALUE=DATE:20240105\r\n" +
	"END:VEVENT\r\n" +
	"BEGIN:VEVENT\r\n" +
	"UID:cancelled\r\n" +
	"STATUS:CANCELLED\r\n" +
	"DTSTART:20240102T120000\r\n" +
	"DTEND:20240102T130000\r\n" +
	"END:VEVENT\r\n" +
	"BEGIN:VEVENT\r\n" +
	"UID:free\r\n" +
	"TRANSP:TRANSPARENT\r\n" +
	"DTSTART:20240102T140000\r\n" +
	"DTEND:20240102T150000\r\n" +
	"END:VEVENT\r\n" +
	"BEGIN:VEVENT\r\n" +
	"UID:broken\r\n" +
	"DTSTART:yesterday\r\n" +
	"END:VEVENT\r\n" +
	"END:VCALENDAR\r\n"

func TestReadBusy(t *testing.T) {
	busy, err := ReadBusy(strings.NewReader(busyCalendar))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []struct {
		id, date, start, end string
	}{
		{"timed", "2024-01-02", "10:00", "11:00"},
		{"overnight#0", "2024-01-03", "22:00", "24:00"},
		{"overnight#1", "2024-01-04", "00:00", "02:00"},
		{"holiday", "2024-01-05", "00:00", "24:00"},
	}
	if len(busy) != len(want) {
		t.Fatalf("expected %d intervals, got %+v", len(want), busy)
	}
	for i, w := range want {
		b := busy[i]
		if b.ID != w.id || b.Date.String() != w.date || b.Start.String() != w.start || b.End.String() != w.end {
			t.Fatalf("interval %d: got %s %s %s-%s, want %+v", i, b.ID, b.Date, b.Start, b.End, w)
		}
		if err := b.Validate(); err != nil {
			t.Fatalf("interval %d is not a valid timed event: %v", i, err)
		}
	}
}
