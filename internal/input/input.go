// Package input reads the YAML document that feeds the calplan commands:
// recurring templates, fixed events and unscheduled work items.
package input

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/samber/mo"
	"gopkg.in/yaml.v3"

	"github.com/sandeepkv93/calplan/internal/model"
)

var ErrInvalidDocument = errors.New("input: invalid document")

type Document struct {
	Templates []TemplateDoc `yaml:"templates"`
	Events    []EventDoc    `yaml:"events"`
	Items     []ItemDoc     `yaml:"items"`
}

type RuleDoc struct {
	Kind       string       `yaml:"kind"`
	Interval   *int         `yaml:"interval,omitempty"`
	EndDate    *model.Date  `yaml:"end_date,omitempty"`
	Exceptions []model.Date `yaml:"exceptions,omitempty"`
}

type TemplateDoc struct {
	ID       string      `yaml:"id"`
	Title    string      `yaml:"title"`
	Date     model.Date  `yaml:"date"`
	Start    model.Clock `yaml:"start"`
	End      model.Clock `yaml:"end"`
	Location string      `yaml:"location,omitempty"`
	Rule     *RuleDoc    `yaml:"rule,omitempty"`
}

type EventDoc struct {
	ID    string      `yaml:"id"`
	Title string      `yaml:"title"`
	Date  model.Date  `yaml:"date"`
	Start model.Clock `yaml:"start"`
	End   model.Clock `yaml:"end"`
}

type ItemDoc struct {
	ID       string      `yaml:"id"`
	Title    string      `yaml:"title"`
	Duration int         `yaml:"duration"`
	Priority string      `yaml:"priority,omitempty"`
	Deadline *model.Date `yaml:"deadline,omitempty"`
}

// Input is a decoded and validated Document.
type Input struct {
	Templates []model.Template
	Events    []model.DatedEvent
	Items     []model.WorkItem
}

func Load(path string) (Input, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Input{}, fmt.Errorf("input: read %s: %w", path, err)
	}
	return Parse(data)
}

func Parse(data []byte) (Input, error) {
	var doc Document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return Input{}, fmt.Errorf("%w: %w", ErrInvalidDocument, err)
	}
	return doc.Decode()
}

// Decode converts the raw document into model values. Rules are checked here
// so a broken template fails before any expansion starts.
func (d Document) Decode() (Input, error) {
	out := Input{
		Templates: make([]model.Template, 0, len(d.Templates)),
		Events:    make([]model.DatedEvent, 0, len(d.Events)),
		Items:     make([]model.WorkItem, 0, len(d.Items)),
	}
	for i, td := range d.Templates {
		tpl, err := td.template()
		if err != nil {
			return Input{}, fmt.Errorf("%w: templates[%d]: %w", ErrInvalidDocument, i, err)
		}
		out.Templates = append(out.Templates, tpl)
	}
	for i, ed := range d.Events {
		ev := model.DatedEvent{
			Date:       ed.Date,
			TimedEvent: model.TimedEvent{ID: ed.ID, Title: ed.Title, Start: ed.Start, End: ed.End},
		}
		if strings.TrimSpace(ev.ID) == "" {
			return Input{}, fmt.Errorf("%w: events[%d]: id is required", ErrInvalidDocument, i)
		}
		if ev.Date.IsZero() {
			return Input{}, fmt.Errorf("%w: events[%d]: date is required", ErrInvalidDocument, i)
		}
		if err := ev.Validate(); err != nil {
			return Input{}, fmt.Errorf("%w: events[%d]: %w", ErrInvalidDocument, i, err)
		}
		out.Events = append(out.Events, ev)
	}
	for i, doc := range d.Items {
		item, err := doc.item()
		if err != nil {
			return Input{}, fmt.Errorf("%w: items[%d]: %w", ErrInvalidDocument, i, err)
		}
		out.Items = append(out.Items, item)
	}
	return out, nil
}

func (td TemplateDoc) template() (model.Template, error) {
	ev := model.Event{
		ID:       td.ID,
		Title:    td.Title,
		Date:     td.Date,
		Start:    td.Start,
		End:      td.End,
		Location: td.Location,
	}
	if err := ev.Validate(); err != nil {
		return model.Template{}, err
	}
	if err := ev.Timed().Validate(); err != nil {
		return model.Template{}, err
	}
	tpl := model.Template{Event: ev}
	if td.Rule != nil {
		rule := td.Rule.rule()
		if err := rule.Validate(); err != nil {
			return model.Template{}, err
		}
		tpl.Rule = &rule
	}
	return tpl, nil
}

func (rd RuleDoc) rule() model.RecurrenceRule {
	rule := model.RecurrenceRule{
		Kind:       model.RecurrenceKind(strings.ToLower(strings.TrimSpace(rd.Kind))),
		Interval:   model.MinInterval,
		Exceptions: rd.Exceptions,
	}
	if rd.Interval != nil {
		rule.Interval = *rd.Interval
	}
	if rd.EndDate != nil {
		rule.EndDate = mo.Some(*rd.EndDate)
	}
	return rule
}

func (it ItemDoc) item() (model.WorkItem, error) {
	p, err := model.ParsePriority(it.Priority)
	if err != nil {
		return model.WorkItem{}, err
	}
	item := model.WorkItem{
		ID:              it.ID,
		Title:           it.Title,
		DurationMinutes: it.Duration,
		Priority:        p,
	}
	if it.Deadline != nil {
		item.Deadline = mo.Some(*it.Deadline)
	}
	if err := item.Validate(); err != nil {
		return model.WorkItem{}, err
	}
	return item, nil
}

// EventsOn returns the fixed events dated d, in document order.
func (in Input) EventsOn(d model.Date) []model.TimedEvent {
	out := []model.TimedEvent{}
	for _, ev := range in.Events {
		if ev.Date == d {
			out = append(out, ev.TimedEvent)
		}
	}
	return out
}
