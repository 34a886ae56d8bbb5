package ics

import (
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	ical "github.com/arran4/golang-ical"

	"github.com/sandeepkv93/calplan/internal/log"
	"github.com/sandeepkv93/calplan/internal/model"
)

var ErrInvalidCalendar = errors.New("ics: invalid calendar")

// ReadBusy turns the VEVENTs of a calendar into per-date busy intervals for
// the scheduler. Events spanning midnight are split per day; all-day events
// block the whole day. Cancelled and transparent events are ignored, as are
// events without a usable DTSTART. Recurring events contribute their first
// instance only.
func ReadBusy(r io.Reader) ([]model.DatedEvent, error) {
	cal, err := ical.ParseCalendar(r)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidCalendar, err)
	}
	out := []model.DatedEvent{}
	for _, ve := range cal.Events() {
		uid := propValue(ve, ical.ComponentPropertyUniqueId)
		if !busy(ve) {
			log.Debug("ics event not busy", "uid", uid)
			continue
		}
		spans, err := spansOf(ve)
		if err != nil {
			log.Error("ics event skipped", err, "uid", uid)
			continue
		}
		title := propValue(ve, ical.ComponentPropertySummary)
		for i, s := range spans {
			id := uid
			if len(spans) > 1 {
				id = fmt.Sprintf("%s#%d", uid, i)
			}
			out = append(out, model.DatedEvent{
				Date:       s.date,
				TimedEvent: model.TimedEvent{ID: id, Title: title, Start: s.start, End: s.end},
			})
		}
	}
	log.Info("ics busy import completed", "events", len(cal.Events()), "intervals", len(out))
	return out, nil
}

type span struct {
	date       model.Date
	start, end model.Clock
}

func busy(ve *ical.VEvent) bool {
	if strings.EqualFold(propValue(ve, ical.ComponentPropertyStatus), "CANCELLED") {
		return false
	}
	return !strings.EqualFold(propValue(ve, ical.ComponentPropertyTransp), "TRANSPARENT")
}

func spansOf(ve *ical.VEvent) ([]span, error) {
	startProp := ve.GetProperty(ical.ComponentPropertyDtStart)
	if startProp == nil {
		return nil, errors.New("missing DTSTART")
	}
	start, allDay, err := parseValue(startProp)
	if err != nil {
		return nil, err
	}
	var end time.Time
	if endProp := ve.GetProperty(ical.ComponentPropertyDtEnd); endProp != nil {
		if end, _, err = parseValue(endProp); err != nil {
			return nil, err
		}
	} else if allDay {
		end = start.AddDate(0, 0, 1)
	} else {
		end = start
	}
	if !end.After(start) {
		return nil, nil
	}
	return split(start, end), nil
}

// split cuts [start, end) at every midnight.
func split(start, end time.Time) []span {
	var out []span
	for cur := start; cur.Before(end); {
		day := model.DateOf(cur)
		next := day.AddDays(1).Time()
		s := model.NewClock(cur.Hour(), cur.Minute())
		e := model.Clock(model.MinutesPerDay)
		if end.Before(next) {
			e = model.NewClock(end.Hour(), end.Minute())
		}
		if s < e {
			out = append(out, span{date: day, start: s, end: e})
		}
		cur = next
	}
	return out
}

// parseValue reads a DATE or DATE-TIME value as wall-clock time. TZID and a
// trailing Z are ignored.
func parseValue(p *ical.IANAProperty) (time.Time, bool, error) {
	v := strings.TrimSuffix(strings.TrimSpace(p.Value), "Z")
	isDate := !strings.Contains(v, "T")
	if vs, ok := p.ICalParameters["VALUE"]; ok && len(vs) > 0 && strings.EqualFold(vs[0], "DATE") {
		isDate = true
	}
	if isDate {
		t, err := time.Parse(dateLayout, v)
		if err != nil {
			return time.Time{}, false, fmt.Errorf("bad date %q: %w", p.Value, err)
		}
		return t, true, nil
	}
	t, err := time.Parse(floatingLayout, v)
	if err != nil {
		return time.Time{}, false, fmt.Errorf("bad date-time %q: %w", p.Value, err)
	}
	return t, false, nil
}

func propValue(ve *ical.VEvent, name ical.ComponentProperty) string {
	if p := ve.GetProperty(name); p != nil {
		return p.Value
	}
	return ""
}
