// Package scheduler proposes time slots for unscheduled work items around a
// day's fixed events. It is a greedy heuristic: partial plans are the normal
// outcome and unplaceable items are reported as conflicts, not errors.
package scheduler

import (
	"errors"
	"fmt"
	"math"

	"github.com/sandeepkv93/calplan/internal/layout"
	"github.com/sandeepkv93/calplan/internal/model"
)

const (
	DefaultMaxItems          = 8
	DefaultSearchStepMinutes = 15
	DefaultHorizonDays       = 14

	shiftPenalty = 15
)

var (
	ErrInvalidWindow  = errors.New("scheduler: invalid work window")
	ErrInvalidOptions = errors.New("scheduler: invalid options")
	ErrInvalidRequest = errors.New("scheduler: invalid request")
)

// Window is the daily work window [Start, End).
type Window struct {
	Start model.Clock
	End   model.Clock
}

func (w Window) Validate() error {
	if w.Start < 0 || w.End > model.MinutesPerDay || w.Start >= w.End {
		return fmt.Errorf("%w: %s-%s", ErrInvalidWindow, w.Start, w.End)
	}
	return nil
}

func (w Window) Minutes() int {
	return int(w.End - w.Start)
}

type Options struct {
	AllowWeekends bool
	BreakMinutes  int
	// DailyCapacityMinutes caps the work placed per day; zero means the
	// whole window.
	DailyCapacityMinutes int
	MaxItems             int
	SearchStepMinutes    int
	HorizonDays          int
	Bands                BandTable
}

func (o Options) withDefaults(w Window) Options {
	if o.DailyCapacityMinutes == 0 || o.DailyCapacityMinutes > w.Minutes() {
		o.DailyCapacityMinutes = w.Minutes()
	}
	if o.MaxItems == 0 {
		o.MaxItems = DefaultMaxItems
	}
	if o.SearchStepMinutes == 0 {
		o.SearchStepMinutes = DefaultSearchStepMinutes
	}
	if o.HorizonDays == 0 {
		o.HorizonDays = DefaultHorizonDays
	}
	if len(o.Bands) == 0 {
		o.Bands = DefaultBands
	}
	return o
}

func (o Options) validate() error {
	switch {
	case o.BreakMinutes < 0:
		return fmt.Errorf("%w: break_minutes %d", ErrInvalidOptions, o.BreakMinutes)
	case o.DailyCapacityMinutes < 0:
		return fmt.Errorf("%w: daily_capacity_minutes %d", ErrInvalidOptions, o.DailyCapacityMinutes)
	case o.MaxItems < 0:
		return fmt.Errorf("%w: max_items %d", ErrInvalidOptions, o.MaxItems)
	case o.SearchStepMinutes < 0:
		return fmt.Errorf("%w: search_step_minutes %d", ErrInvalidOptions, o.SearchStepMinutes)
	case o.HorizonDays < 0:
		return fmt.Errorf("%w: horizon_days %d", ErrInvalidOptions, o.HorizonDays)
	}
	return nil
}

type Request struct {
	Today   model.Date
	Items   []model.WorkItem
	Window  Window
	Fixed   []model.DatedEvent
	Options Options
}

type Placement struct {
	Item  model.WorkItem
	Date  model.Date
	Start model.Clock
	End   model.Clock
	Band  string
	// Quality is a 0-100 explanation signal, not a correctness guarantee.
	Quality      int
	Shifted      bool
	PastDeadline bool
}

func (p Placement) Timed() model.TimedEvent {
	return model.TimedEvent{ID: p.Item.ID, Title: p.Item.Title, Start: p.Start, End: p.End}
}

type Conflict struct {
	Item         model.WorkItem
	Date         model.Date
	Reason       string
	Alternatives []string
}

type Plan struct {
	Placements []Placement
	Conflicts  []Conflict
	// Skipped lists items beyond MaxItems, in rank order.
	Skipped []string
}

type cursor struct {
	date     model.Date
	at       model.Clock
	capacity int
}

type run struct {
	req     Request
	opts    Options
	busy    map[model.Date][]model.TimedEvent
	cur     cursor
	lastDay model.Date
	plan    Plan
}

// Schedule ranks req.Items and walks a day/time cursor forward from
// req.Today, placing each item in turn. Malformed input is rejected before
// anything is placed.
func Schedule(req Request) (Plan, error) {
	if err := validateRequest(req); err != nil {
		return Plan{}, err
	}
	r := &run{
		req:  req,
		opts: req.Options.withDefaults(req.Window),
		busy: make(map[model.Date][]model.TimedEvent),
		plan: Plan{Placements: []Placement{}, Conflicts: []Conflict{}, Skipped: []string{}},
	}
	for _, fe := range req.Fixed {
		r.busy[fe.Date] = append(r.busy[fe.Date], fe.TimedEvent)
	}
	r.lastDay = req.Today.AddDays(r.opts.HorizonDays - 1)
	r.cur = cursor{date: req.Today, at: req.Window.Start, capacity: r.opts.DailyCapacityMinutes}
	exhausted := false
	if !r.eligible(r.cur.date) {
		exhausted = !r.nextDay()
	}

	ranked := Rank(req.Items, req.Today)
	if len(ranked) > r.opts.MaxItems {
		for _, it := range ranked[r.opts.MaxItems:] {
			r.plan.Skipped = append(r.plan.Skipped, it.ID)
		}
		ranked = ranked[:r.opts.MaxItems]
	}
	for _, item := range ranked {
		if exhausted {
			r.conflict(item, r.lastDay, fmt.Sprintf("no working day left within %d days", r.opts.HorizonDays), nil)
			continue
		}
		r.placeItem(item)
	}
	return r.plan, nil
}

func validateRequest(req Request) error {
	if req.Today.IsZero() {
		return fmt.Errorf("%w: today is required", ErrInvalidRequest)
	}
	if err := req.Window.Validate(); err != nil {
		return err
	}
	if err := req.Options.validate(); err != nil {
		return err
	}
	for _, it := range req.Items {
		if err := it.Validate(); err != nil {
			return err
		}
	}
	for _, fe := range req.Fixed {
		if fe.Date.IsZero() {
			return fmt.Errorf("%w: fixed event %q has no date", ErrInvalidRequest, fe.ID)
		}
		if err := fe.Validate(); err != nil {
			return err
		}
	}
	return nil
}

func (r *run) placeItem(item model.WorkItem) {
	dur := item.DurationMinutes
	if dur > r.opts.DailyCapacityMinutes {
		r.conflict(item, r.cur.date,
			fmt.Sprintf("needs %d minutes but at most %d minutes fit in one day", dur, r.opts.DailyCapacityMinutes),
			[]string{
				fmt.Sprintf("split it into parts of at most %d minutes", r.opts.DailyCapacityMinutes),
				"widen the work window or raise the daily capacity",
			})
		return
	}
	for !r.fits(dur) {
		if !r.nextDay() {
			r.conflict(item, r.lastDay,
				fmt.Sprintf("no capacity left for %d minutes within %d days", dur, r.opts.HorizonDays),
				[]string{"schedule fewer items per request", "extend the planning horizon"})
			return
		}
	}

	start := r.preferredStart(dur)
	shifted := false
	for {
		clash, hit := r.clash(r.cur.date, start, start.Add(dur))
		if !hit {
			break
		}
		shifted = true
		start = start.Add(r.opts.SearchStepMinutes)
		if start.Add(dur) <= r.req.Window.End {
			continue
		}
		// Nothing fits after the preferred start; take any earlier free slot
		// between the cursor and it before giving up on the day.
		free, ok := r.firstFree(r.cur.date, r.cur.at, dur)
		if !ok {
			r.conflict(item, r.cur.date,
				fmt.Sprintf("%d-minute slot conflicts with %q (%s-%s) and no other slot is free on %s",
					dur, label(clash), clash.Start, clash.End, r.cur.date),
				r.alternatives(item, clash))
			return
		}
		start = free
		break
	}

	end := start.Add(dur)
	r.cur.capacity -= dur
	r.cur.at = end.Add(r.opts.BreakMinutes)
	band, _ := r.opts.Bands.Lookup(start.Hour())
	p := Placement{
		Item:    item,
		Date:    r.cur.date,
		Start:   start,
		End:     end,
		Band:    band.Name,
		Shifted: shifted,
		Quality: r.quality(item, start, shifted),
	}
	if deadline, ok := item.Deadline.Get(); ok && p.Date.After(deadline) {
		p.PastDeadline = true
	}
	r.plan.Placements = append(r.plan.Placements, p)
}

func (r *run) fits(dur int) bool {
	return dur <= r.cur.capacity && r.cur.at.Add(dur) <= r.req.Window.End
}

func (r *run) eligible(d model.Date) bool {
	return r.opts.AllowWeekends || !d.IsWeekend()
}

// nextDay moves the cursor to the start of the next eligible day and resets
// capacity. It reports false when that day lies past the horizon.
func (r *run) nextDay() bool {
	d := r.cur.date.AddDays(1)
	for !r.eligible(d) {
		d = d.AddDays(1)
	}
	if d.After(r.lastDay) {
		return false
	}
	r.cur = cursor{date: d, at: r.req.Window.Start, capacity: r.opts.DailyCapacityMinutes}
	return true
}

// preferredStart is the earliest start from the cursor in an acceptable
// band, or failing that the best-rated start, earliest first.
func (r *run) preferredStart(dur int) model.Clock {
	best := r.cur.at
	bestEff := -1.0
	for s := r.cur.at; s.Add(dur) <= r.req.Window.End; s = s.Add(r.opts.SearchStepMinutes) {
		eff := r.opts.Bands.Efficiency(s.Hour())
		if eff >= AcceptableEfficiency {
			return s
		}
		if eff > bestEff {
			best, bestEff = s, eff
		}
	}
	return best
}

func (r *run) clash(d model.Date, start, end model.Clock) (model.TimedEvent, bool) {
	candidate := model.TimedEvent{Start: start, End: end}
	for _, fe := range r.busy[d] {
		if layout.Overlaps(candidate, fe) {
			return fe, true
		}
	}
	return model.TimedEvent{}, false
}

func (r *run) quality(item model.WorkItem, start model.Clock, shifted bool) int {
	q := r.opts.Bands.Efficiency(start.Hour()) * 50
	q += float64(r.cur.capacity) / float64(r.opts.DailyCapacityMinutes) * 20
	q += priorityBonus(item.Priority)
	if shifted {
		q -= shiftPenalty
	}
	return int(math.Round(math.Max(0, math.Min(100, q))))
}

func (r *run) conflict(item model.WorkItem, d model.Date, reason string, alts []string) {
	if len(alts) == 0 {
		alts = []string{"re-run the request with fewer or shorter items"}
	}
	r.plan.Conflicts = append(r.plan.Conflicts, Conflict{Item: item, Date: d, Reason: reason, Alternatives: alts})
}

// alternatives suggests ways around a same-day clash without moving the cursor.
func (r *run) alternatives(item model.WorkItem, clash model.TimedEvent) []string {
	dur := item.DurationMinutes
	var out []string
	for d := r.cur.date.AddDays(1); !d.After(r.lastDay); d = d.AddDays(1) {
		if !r.eligible(d) {
			continue
		}
		if s, ok := r.firstFree(d, r.req.Window.Start, dur); ok {
			out = append(out, fmt.Sprintf("move it to %s at %s", d, s))
			break
		}
	}
	if gapStart, gapLen := r.largestGap(r.cur.date, r.cur.at); gapLen >= r.opts.SearchStepMinutes && gapLen < dur {
		out = append(out, fmt.Sprintf("shorten it to %d minutes to fit %s-%s on %s",
			gapLen, gapStart, gapStart.Add(gapLen), r.cur.date))
	}
	if !r.opts.AllowWeekends {
		out = append(out, "allow weekend scheduling")
	}
	out = append(out, fmt.Sprintf("reschedule %q (%s-%s)", label(clash), clash.Start, clash.End))
	return out
}

func (r *run) firstFree(d model.Date, from model.Clock, dur int) (model.Clock, bool) {
	for s := from; s.Add(dur) <= r.req.Window.End; s = s.Add(r.opts.SearchStepMinutes) {
		if _, hit := r.clash(d, s, s.Add(dur)); !hit {
			return s, true
		}
	}
	return 0, false
}

// largestGap finds the longest fixed-event-free stretch between from and the
// window end, capped by the remaining capacity.
func (r *run) largestGap(d model.Date, from model.Clock) (model.Clock, int) {
	var bestStart model.Clock
	best := 0
	runStart := from
	for m := from; m <= r.req.Window.End; m++ {
		_, hit := r.clash(d, m, m.Add(1))
		if hit || m == r.req.Window.End {
			if n := int(m - runStart); n > best {
				bestStart, best = runStart, n
			}
			runStart = m + 1
		}
	}
	if best > r.cur.capacity {
		best = r.cur.capacity
	}
	return bestStart, best
}

func label(ev model.TimedEvent) string {
	if ev.Title != "" {
		return ev.Title
	}
	return ev.ID
}
