// Package recurrence flattens recurring event templates into concrete,
// per-date occurrences inside a query window.
package recurrence

import (
	"github.com/sandeepkv93/calplan/internal/model"
)

// DefaultMaxSteps bounds how many dates a single expansion may visit.
const DefaultMaxSteps = 1000

// Expander walks recurrence rules forward one occurrence at a time. The zero
// value is ready to use with DefaultMaxSteps.
type Expander struct {
	MaxSteps int
}

func NewExpander(maxSteps int) Expander {
	return Expander{MaxSteps: maxSteps}
}

// Result is the ordered occurrence list of one expansion. Truncated is set
// when the walk stopped at MaxSteps while dates inside the window were still
// pending.
type Result struct {
	Occurrences []model.Occurrence
	Truncated   bool
}

func (e Expander) maxSteps() int {
	if e.MaxSteps <= 0 {
		return DefaultMaxSteps
	}
	return e.MaxSteps
}

// Expand returns the occurrences of base inside [windowStart, windowEnd].
// A nil rule means base happens once, on base.Date. Rules are validated
// before any date is visited.
func (e Expander) Expand(base model.Event, rule *model.RecurrenceRule, windowStart, windowEnd model.Date) (Result, error) {
	if rule != nil {
		if err := rule.Validate(); err != nil {
			return Result{}, err
		}
	}

	out := Result{Occurrences: []model.Occurrence{}}
	limit := e.maxSteps()
	current := base.Date
	for steps := 0; ; steps++ {
		if current.After(windowEnd) {
			break
		}
		if rule != nil && rule.Ended(current) {
			break
		}
		if steps >= limit {
			out.Truncated = true
			break
		}
		if !current.Before(windowStart) && (rule == nil || !rule.Excludes(current)) {
			out.Occurrences = append(out.Occurrences, occurrenceOf(base, current))
		}
		if rule == nil {
			break
		}
		next, ok := rule.Next(current).Get()
		if !ok || !next.After(current) {
			break
		}
		current = next
	}
	return out, nil
}

// ExpandAll expands every template and concatenates the results in template
// order. The first invalid rule aborts the whole call.
func (e Expander) ExpandAll(templates []model.Template, windowStart, windowEnd model.Date) (Result, error) {
	out := Result{Occurrences: []model.Occurrence{}}
	for _, tpl := range templates {
		res, err := e.Expand(tpl.Event, tpl.Rule, windowStart, windowEnd)
		if err != nil {
			return Result{}, err
		}
		out.Occurrences = append(out.Occurrences, res.Occurrences...)
		out.Truncated = out.Truncated || res.Truncated
	}
	return out, nil
}

func occurrenceOf(base model.Event, date model.Date) model.Occurrence {
	ev := base
	ev.Date = date
	return model.Occurrence{
		ID:    model.OccurrenceID{TemplateID: base.ID, Date: date},
		Event: ev,
	}
}
