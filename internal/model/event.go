package model

import (
	"errors"
	"strings"

	"github.com/google/uuid"
)

// occurrenceNamespace seeds the name-based UUIDs handed out for occurrences.
var occurrenceNamespace = uuid.MustParse("6f1d3c9e-4b0a-5d8e-9a57-2c3e8b1f0d42")

// Event is the base record of a calendar entry. Recurring templates pair an
// Event with a RecurrenceRule; the engine only reads ID and Date.
type Event struct {
	ID       string
	Title    string
	Date     Date
	Start    Clock
	End      Clock
	Location string
}

func (e Event) Validate() error {
	if strings.TrimSpace(e.ID) == "" {
		return errors.New("model: event id is required")
	}
	if e.Date.IsZero() {
		return errors.New("model: event date is required")
	}
	return nil
}

func (e Event) Timed() TimedEvent {
	return TimedEvent{ID: e.ID, Title: e.Title, Start: e.Start, End: e.End}
}

// OccurrenceID identifies one materialized instance of a template.
type OccurrenceID struct {
	TemplateID string
	Date       Date
}

func (id OccurrenceID) String() string {
	return id.TemplateID + "_" + id.Date.String()
}

// UUID is a name-based UUID derived from the template ID and date, so the
// same pair always maps to the same value.
func (id OccurrenceID) UUID() uuid.UUID {
	return uuid.NewSHA1(occurrenceNamespace, []byte(id.String()))
}

// Occurrence is a flattened instance of an event on a concrete date. It
// never carries a recurrence rule.
type Occurrence struct {
	ID    OccurrenceID
	Event Event
}

func (o Occurrence) Date() Date {
	return o.ID.Date
}

// Timed returns the occurrence as a layout input keyed by its occurrence ID.
func (o Occurrence) Timed() TimedEvent {
	return TimedEvent{ID: o.ID.String(), Title: o.Event.Title, Start: o.Event.Start, End: o.Event.End}
}

// TimedEvent is a time range on a single date.
type TimedEvent struct {
	ID    string
	Title string
	Start Clock
	End   Clock
}

// Validate requires Start < End with both inside 00:00..24:00.
func (e TimedEvent) Validate() error {
	if e.Start < 0 || e.End > MinutesPerDay || e.Start >= e.End {
		return &IntervalError{EventID: e.ID, Start: e.Start, End: e.End}
	}
	return nil
}

func (e TimedEvent) DurationMinutes() int {
	return int(e.End - e.Start)
}

// DatedEvent is a timed event pinned to a calendar date.
type DatedEvent struct {
	Date Date
	TimedEvent
}

// Template is a stored event together with its optional repetition rule.
type Template struct {
	Event Event
	Rule  *RecurrenceRule
}
