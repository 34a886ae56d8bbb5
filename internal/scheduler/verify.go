package scheduler

import (
	"errors"
	"fmt"

	"github.com/sandeepkv93/calplan/internal/layout"
	"github.com/sandeepkv93/calplan/internal/model"
)

var ErrInvalidPlan = errors.New("scheduler: plan violates request")

// Verify re-checks a plan against the request it was built from using the
// layout overlap predicate. A nil error means every placement sits inside the
// work window on an eligible day and collides with nothing else on its date.
func Verify(req Request, plan Plan) error {
	opts := req.Options.withDefaults(req.Window)
	fixed := make(map[model.Date][]model.TimedEvent)
	for _, fe := range req.Fixed {
		fixed[fe.Date] = append(fixed[fe.Date], fe.TimedEvent)
	}
	placed := make(map[model.Date][]model.TimedEvent)

	for _, p := range plan.Placements {
		ev := p.Timed()
		switch {
		case p.Start < req.Window.Start || p.End > req.Window.End:
			return fmt.Errorf("%w: %q at %s-%s is outside %s-%s",
				ErrInvalidPlan, p.Item.ID, p.Start, p.End, req.Window.Start, req.Window.End)
		case int(p.End-p.Start) != p.Item.DurationMinutes:
			return fmt.Errorf("%w: %q lasts %d minutes, want %d",
				ErrInvalidPlan, p.Item.ID, int(p.End-p.Start), p.Item.DurationMinutes)
		case p.Date.Before(req.Today):
			return fmt.Errorf("%w: %q placed on %s before %s", ErrInvalidPlan, p.Item.ID, p.Date, req.Today)
		case !opts.AllowWeekends && p.Date.IsWeekend():
			return fmt.Errorf("%w: %q placed on weekend day %s", ErrInvalidPlan, p.Item.ID, p.Date)
		}
		for _, fe := range fixed[p.Date] {
			if layout.Overlaps(ev, fe) {
				return fmt.Errorf("%w: %q overlaps fixed event %q on %s", ErrInvalidPlan, p.Item.ID, fe.ID, p.Date)
			}
		}
		for _, other := range placed[p.Date] {
			if layout.Overlaps(ev, other) {
				return fmt.Errorf("%w: %q overlaps %q on %s", ErrInvalidPlan, p.Item.ID, other.ID, p.Date)
			}
		}
		placed[p.Date] = append(placed[p.Date], ev)
	}
	return nil
}
