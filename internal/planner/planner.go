// Package planner runs the calendar data flow: stored templates are expanded
// into occurrences for a window, one day's occurrences are laid out in
// columns, and work items are scheduled around everything already booked.
package planner

import (
	"errors"
	"fmt"
	"sort"

	"github.com/sandeepkv93/calplan/internal/config"
	"github.com/sandeepkv93/calplan/internal/layout"
	"github.com/sandeepkv93/calplan/internal/log"
	"github.com/sandeepkv93/calplan/internal/model"
	"github.com/sandeepkv93/calplan/internal/recurrence"
	"github.com/sandeepkv93/calplan/internal/scheduler"
)

var ErrPlanRejected = errors.New("planner: schedule failed re-validation")

// Calendar is the planner's whole input: recurring or one-off templates,
// dated fixed events and the work items waiting for a slot.
type Calendar struct {
	Templates []model.Template
	Events    []model.DatedEvent
	Items     []model.WorkItem
}

type Planner struct {
	expander recurrence.Expander
	window   scheduler.Window
	options  scheduler.Options
}

func New(cfg config.Config) (*Planner, error) {
	window, err := cfg.Window()
	if err != nil {
		return nil, err
	}
	return &Planner{
		expander: recurrence.NewExpander(cfg.MaxSteps),
		window:   window,
		options:  cfg.SchedulerOptions(),
	}, nil
}

func (p *Planner) Window() scheduler.Window { return p.window }

func (p *Planner) Options() scheduler.Options { return p.options }

// ExpandWindow expands every template into [from, to], ordered by date, then
// start time, then occurrence ID.
func (p *Planner) ExpandWindow(templates []model.Template, from, to model.Date) (recurrence.Result, error) {
	res, err := p.expander.ExpandAll(templates, from, to)
	if err != nil {
		return recurrence.Result{}, err
	}
	sort.SliceStable(res.Occurrences, func(i, j int) bool {
		a, b := res.Occurrences[i], res.Occurrences[j]
		if c := a.Date().Compare(b.Date()); c != 0 {
			return c < 0
		}
		if a.Event.Start != b.Event.Start {
			return a.Event.Start < b.Event.Start
		}
		return a.ID.String() < b.ID.String()
	})
	if res.Truncated {
		log.Info("expansion truncated", "from", from, "to", to, "max_steps", p.expander.MaxSteps)
	}
	log.Debug("expanded window", "from", from, "to", to, "templates", len(templates), "occurrences", len(res.Occurrences))
	return res, nil
}

type EntryKind string

const (
	EntryOccurrence EntryKind = "occurrence"
	EntryFixed      EntryKind = "fixed"
)

type DayEntry struct {
	Event     model.TimedEvent
	Kind      EntryKind
	Placement layout.Placement
	// Cluster numbers the groups of mutually overlapping entries from 0 in
	// start order.
	Cluster int
}

type DayLayout struct {
	Date          model.Date
	Entries       []DayEntry
	Clusters      int
	MaxConcurrent int
}

// LayoutDay positions the occurrences and fixed events of d side by side.
// Entries come back in start order with the column each one was given.
func (p *Planner) LayoutDay(cal Calendar, d model.Date) (DayLayout, error) {
	res, err := p.ExpandWindow(cal.Templates, d, d)
	if err != nil {
		return DayLayout{}, err
	}
	events := make([]model.TimedEvent, 0, len(res.Occurrences)+len(cal.Events))
	kinds := make(map[string]EntryKind)
	for _, occ := range res.Occurrences {
		ev := occ.Timed()
		events = append(events, ev)
		kinds[ev.ID] = EntryOccurrence
	}
	for _, fe := range cal.Events {
		if fe.Date != d {
			continue
		}
		events = append(events, fe.TimedEvent)
		kinds[fe.ID] = EntryFixed
	}

	placements, err := layout.Layout(events)
	if err != nil {
		return DayLayout{}, fmt.Errorf("layout %s: %w", d, err)
	}
	clusters, err := layout.Clusters(events)
	if err != nil {
		return DayLayout{}, fmt.Errorf("layout %s: %w", d, err)
	}
	clusterOf := make(map[string]int, len(events))
	for i, group := range clusters {
		for _, ev := range group {
			clusterOf[ev.ID] = i
		}
	}
	out := DayLayout{
		Date:          d,
		Entries:       make([]DayEntry, 0, len(events)),
		Clusters:      len(clusters),
		MaxConcurrent: layout.MaxConcurrent(events),
	}
	for _, ev := range events {
		out.Entries = append(out.Entries, DayEntry{
			Event:     ev,
			Kind:      kinds[ev.ID],
			Placement: placements[ev.ID],
			Cluster:   clusterOf[ev.ID],
		})
	}
	sort.SliceStable(out.Entries, func(i, j int) bool {
		a, b := out.Entries[i], out.Entries[j]
		if a.Event.Start != b.Event.Start {
			return a.Event.Start < b.Event.Start
		}
		return a.Placement.Column < b.Placement.Column
	})
	log.Debug("laid out day", "date", d, "events", len(events), "clusters", out.Clusters, "max_concurrent", out.MaxConcurrent)
	return out, nil
}

// Busy returns every fixed commitment between from and to: explicit fixed
// events plus the occurrences of all templates.
func (p *Planner) Busy(cal Calendar, from, to model.Date) ([]model.DatedEvent, error) {
	res, err := p.ExpandWindow(cal.Templates, from, to)
	if err != nil {
		return nil, err
	}
	out := make([]model.DatedEvent, 0, len(res.Occurrences)+len(cal.Events))
	for _, occ := range res.Occurrences {
		out = append(out, model.DatedEvent{Date: occ.Date(), TimedEvent: occ.Timed()})
	}
	for _, fe := range cal.Events {
		if fe.Date.Before(from) || fe.Date.After(to) {
			continue
		}
		out = append(out, fe)
	}
	return out, nil
}

// Suggest schedules cal.Items from today around every commitment in the
// scheduling horizon, then re-checks the result with the layout overlap
// predicate before handing it back.
func (p *Planner) Suggest(cal Calendar, today model.Date, opts scheduler.Options) (scheduler.Plan, error) {
	horizon := opts.HorizonDays
	if horizon <= 0 {
		horizon = scheduler.DefaultHorizonDays
	}
	busy, err := p.Busy(cal, today, today.AddDays(horizon-1))
	if err != nil {
		return scheduler.Plan{}, err
	}
	req := scheduler.Request{
		Today:   today,
		Items:   cal.Items,
		Window:  p.window,
		Fixed:   busy,
		Options: opts,
	}
	plan, err := scheduler.Schedule(req)
	if err != nil {
		return scheduler.Plan{}, err
	}
	if err := scheduler.Verify(req, plan); err != nil {
		log.Error("schedule rejected", err, "today", today)
		return scheduler.Plan{}, fmt.Errorf("%w: %w", ErrPlanRejected, err)
	}
	log.Info("schedule suggested",
		"today", today,
		"placed", len(plan.Placements),
		"conflicts", len(plan.Conflicts),
		"skipped", len(plan.Skipped),
	)
	return plan, nil
}
