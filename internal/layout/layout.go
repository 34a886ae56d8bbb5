// Package layout places the timed events of one date into side-by-side
// columns so that overlapping events never share a column.
package layout

import (
	"errors"
	"fmt"
	"sort"

	"github.com/sandeepkv93/calplan/internal/model"
)

var ErrDuplicateEvent = errors.New("layout: duplicate event id")

// Placement is the horizontal slot assigned to one event.
type Placement struct {
	Column       int
	TotalColumns int
}

func (p Placement) WidthFraction() float64 {
	return 1 / float64(p.TotalColumns)
}

// Overlaps is the strict conflict predicate shared by layout and scheduling.
// Back-to-back events (one ends when the other starts) do not overlap.
func Overlaps(a, b model.TimedEvent) bool {
	return a.Start < b.End && b.Start < a.End
}

type slot struct {
	event  model.TimedEvent
	index  int
	column int
}

// Layout assigns a column to every event. Events are processed by start,
// then end, then input order, and each takes the lowest column that is free
// at its start. TotalColumns is shared by every event of an overlap cluster.
func Layout(events []model.TimedEvent) (map[string]Placement, error) {
	slots, err := place(events)
	if err != nil {
		return nil, err
	}
	out := make(map[string]Placement, len(slots))
	for _, cluster := range clusterSlots(slots) {
		width := 0
		for _, s := range cluster {
			if s.column+1 > width {
				width = s.column + 1
			}
		}
		for _, s := range cluster {
			out[s.event.ID] = Placement{Column: s.column, TotalColumns: width}
		}
	}
	return out, nil
}

// Clusters partitions events into maximal groups linked by Overlaps, each
// group and the groups themselves ordered by start time.
func Clusters(events []model.TimedEvent) ([][]model.TimedEvent, error) {
	slots, err := place(events)
	if err != nil {
		return nil, err
	}
	groups := clusterSlots(slots)
	out := make([][]model.TimedEvent, 0, len(groups))
	for _, g := range groups {
		evs := make([]model.TimedEvent, 0, len(g))
		for _, s := range g {
			evs = append(evs, s.event)
		}
		out = append(out, evs)
	}
	return out, nil
}

// MaxConcurrent is the largest number of events in progress at one instant.
func MaxConcurrent(events []model.TimedEvent) int {
	type edge struct {
		at    model.Clock
		delta int
	}
	edges := make([]edge, 0, 2*len(events))
	for _, ev := range events {
		edges = append(edges, edge{ev.Start, 1}, edge{ev.End, -1})
	}
	// Ends sort before starts at the same instant: touching events do not overlap.
	sort.Slice(edges, func(i, j int) bool {
		if edges[i].at != edges[j].at {
			return edges[i].at < edges[j].at
		}
		return edges[i].delta < edges[j].delta
	})
	cur, best := 0, 0
	for _, e := range edges {
		cur += e.delta
		if cur > best {
			best = cur
		}
	}
	return best
}

func validate(events []model.TimedEvent) error {
	seen := make(map[string]bool, len(events))
	for _, ev := range events {
		if err := ev.Validate(); err != nil {
			return err
		}
		if seen[ev.ID] {
			return fmt.Errorf("%w: %q", ErrDuplicateEvent, ev.ID)
		}
		seen[ev.ID] = true
	}
	return nil
}

func place(events []model.TimedEvent) ([]slot, error) {
	if err := validate(events); err != nil {
		return nil, err
	}
	slots := make([]slot, len(events))
	for i, ev := range events {
		slots[i] = slot{event: ev, index: i}
	}
	sort.Slice(slots, func(i, j int) bool {
		a, b := slots[i], slots[j]
		if a.event.Start != b.event.Start {
			return a.event.Start < b.event.Start
		}
		if a.event.End != b.event.End {
			return a.event.End < b.event.End
		}
		return a.index < b.index
	})

	// columns[i] holds the end of the last event placed in column i.
	columns := make([]model.Clock, 0, 4)
	for i := range slots {
		ev := slots[i].event
		col := -1
		for c, end := range columns {
			if end <= ev.Start {
				col = c
				break
			}
		}
		if col < 0 {
			col = len(columns)
			columns = append(columns, ev.End)
		} else {
			columns[col] = ev.End
		}
		slots[i].column = col
	}
	return slots, nil
}

// clusterSlots splits start-sorted slots wherever an event starts at or after
// every earlier event has ended.
func clusterSlots(slots []slot) [][]slot {
	var out [][]slot
	var cur []slot
	var reach model.Clock
	for _, s := range slots {
		if len(cur) > 0 && s.event.Start >= reach {
			out = append(out, cur)
			cur = nil
		}
		if len(cur) == 0 || s.event.End > reach {
			reach = s.event.End
		}
		cur = append(cur, s)
	}
	if len(cur) > 0 {
		out = append(out, cur)
	}
	return out
}
