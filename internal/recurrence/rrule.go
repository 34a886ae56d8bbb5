package recurrence

import (
	"fmt"
	"time"

	"github.com/teambition/rrule-go"

	"github.com/sandeepkv93/calplan/internal/model"
)

var weekdaysOnly = []rrule.Weekday{rrule.MO, rrule.TU, rrule.WE, rrule.TH, rrule.FR}

// Options maps a rule anchored at base onto RFC 5545 recurrence options.
// Exceptions are not part of an RRULE; iCalendar carries them as EXDATEs.
func Options(base model.Date, rule model.RecurrenceRule) (rrule.ROption, error) {
	if err := rule.Validate(); err != nil {
		return rrule.ROption{}, err
	}
	opt := rrule.ROption{
		Dtstart:  base.Time(),
		Interval: rule.Interval,
	}
	switch rule.Kind {
	case model.RecurrenceDaily:
		opt.Freq = rrule.DAILY
	case model.RecurrenceWeekly, model.RecurrenceCustom:
		opt.Freq = rrule.WEEKLY
	case model.RecurrenceWeekdays:
		opt.Freq = rrule.DAILY
		opt.Interval = 1
		opt.Byweekday = weekdaysOnly
	}
	if end, ok := rule.EndDate.Get(); ok {
		// UNTIL is inclusive and occurrences may start at any time of day.
		opt.Until = end.AddDays(1).Time().Add(-time.Second)
	}
	return opt, nil
}

func ToRRule(base model.Date, rule model.RecurrenceRule) (*rrule.RRule, error) {
	opt, err := Options(base, rule)
	if err != nil {
		return nil, err
	}
	r, err := rrule.NewRRule(opt)
	if err != nil {
		return nil, fmt.Errorf("recurrence: build rrule: %w", err)
	}
	return r, nil
}

// RRuleString renders the RRULE value (without DTSTART) for iCalendar export.
// Options rrule-go rejects come back as errors.
func RRuleString(base model.Date, rule model.RecurrenceRule) (string, error) {
	r, err := ToRRule(base, rule)
	if err != nil {
		return "", err
	}
	return r.OrigOptions.RRuleString(), nil
}
