package model

import (
	"fmt"
	"time"

	"github.com/samber/mo"
)

type RecurrenceKind string

const (
	RecurrenceDaily    RecurrenceKind = "daily"
	RecurrenceWeekly   RecurrenceKind = "weekly"
	RecurrenceWeekdays RecurrenceKind = "weekdays"
	// RecurrenceCustom has no day-of-week or day-of-month pattern of its own
	// and is spaced exactly like RecurrenceWeekly.
	RecurrenceCustom RecurrenceKind = "custom"
)

const (
	MinInterval = 1
	MaxInterval = 365
)

func (k RecurrenceKind) IsValid() bool {
	switch k {
	case RecurrenceDaily, RecurrenceWeekly, RecurrenceWeekdays, RecurrenceCustom:
		return true
	default:
		return false
	}
}

type RecurrenceRule struct {
	Kind       RecurrenceKind
	Interval   int
	EndDate    mo.Option[Date]
	Exceptions []Date
}

func (r RecurrenceRule) Validate() error {
	if !r.Kind.IsValid() {
		return &RuleError{Field: "kind", Reason: fmt.Sprintf("%q is not a known kind", r.Kind)}
	}
	if r.Interval < MinInterval || r.Interval > MaxInterval {
		return &RuleError{Field: "interval", Reason: fmt.Sprintf("%d is outside %d..%d", r.Interval, MinInterval, MaxInterval)}
	}
	if end, ok := r.EndDate.Get(); ok && end.IsZero() {
		return &RuleError{Field: "end_date", Reason: "is set but empty"}
	}
	return nil
}

// Next returns the occurrence date that follows current. The rule must
// already be valid.
func (r RecurrenceRule) Next(current Date) mo.Option[Date] {
	switch r.Kind {
	case RecurrenceDaily:
		return mo.Some(current.AddDays(r.Interval))
	case RecurrenceWeekly, RecurrenceCustom:
		return mo.Some(current.AddWeeks(r.Interval))
	case RecurrenceWeekdays:
		return mo.Some(nextWeekday(current))
	default:
		return mo.None[Date]()
	}
}

// Excludes reports whether d is one of the rule's exception dates.
func (r RecurrenceRule) Excludes(d Date) bool {
	for _, ex := range r.Exceptions {
		if ex == d {
			return true
		}
	}
	return false
}

// Ended reports whether d falls after the rule's end date.
func (r RecurrenceRule) Ended(d Date) bool {
	end, ok := r.EndDate.Get()
	return ok && d.After(end)
}

func nextWeekday(from Date) Date {
	probe := from.AddDays(1)
	for {
		switch probe.Weekday() {
		case time.Saturday, time.Sunday:
			probe = probe.AddDays(1)
		default:
			return probe
		}
	}
}
