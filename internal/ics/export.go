// Package ics moves calplan data in and out of iCalendar: occurrences and
// recurring templates are exported, busy time is imported.
package ics

import (
	"fmt"
	"io"
	"time"

	ical "github.com/arran4/golang-ical"

	"github.com/sandeepkv93/calplan/internal/model"
	"github.com/sandeepkv93/calplan/internal/recurrence"
)

const (
	productID = "-//calplan//calplan//EN"

	// Floating local date-times: calplan carries no time zones.
	floatingLayout = "20060102T150405"
	dateLayout     = "20060102"
)

func newCalendar() *ical.Calendar {
	cal := ical.NewCalendar()
	cal.SetMethod(ical.MethodPublish)
	cal.SetProductId(productID)
	return cal
}

func floating(d model.Date, c model.Clock) string {
	return d.Time().Add(time.Duration(c) * time.Minute).Format(floatingLayout)
}

func addEvent(cal *ical.Calendar, uid string, ev model.Event, stamp time.Time) *ical.VEvent {
	ve := cal.AddEvent(uid)
	ve.SetDtStampTime(stamp)
	ve.SetProperty(ical.ComponentPropertyDtStart, floating(ev.Date, ev.Start))
	ve.SetProperty(ical.ComponentPropertyDtEnd, floating(ev.Date, ev.End))
	ve.SetSummary(ev.Title)
	if ev.Location != "" {
		ve.SetLocation(ev.Location)
	}
	return ve
}

// WriteOccurrences writes one VEVENT per occurrence. UIDs are derived from
// the occurrence identity, so re-exporting the same window yields the same
// UIDs.
func WriteOccurrences(w io.Writer, occs []model.Occurrence, stamp time.Time) error {
	cal := newCalendar()
	for _, occ := range occs {
		addEvent(cal, occ.ID.UUID().String(), occ.Event, stamp)
	}
	return write(w, cal)
}

// WriteTemplates writes each template as a single VEVENT carrying RRULE and
// EXDATE lines instead of flattened occurrences.
func WriteTemplates(w io.Writer, templates []model.Template, stamp time.Time) error {
	cal := newCalendar()
	for _, tpl := range templates {
		ve := addEvent(cal, tpl.Event.ID, tpl.Event, stamp)
		if tpl.Rule == nil {
			continue
		}
		rule, err := recurrence.RRuleString(tpl.Event.Date, *tpl.Rule)
		if err != nil {
			return fmt.Errorf("ics: template %q: %w", tpl.Event.ID, err)
		}
		ve.AddRrule(rule)
		for _, ex := range tpl.Rule.Exceptions {
			ve.AddExdate(floating(ex, tpl.Event.Start))
		}
	}
	return write(w, cal)
}

func write(w io.Writer, cal *ical.Calendar) error {
	if _, err := io.WriteString(w, cal.Serialize()); err != nil {
		return fmt.Errorf("ics: write calendar: %w", err)
	}
	return nil
}
