package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/sandeepkv93/calplan/internal/log"
	"github.com/sandeepkv93/calplan/internal/model"
	"github.com/sandeepkv93/calplan/internal/scheduler"
	"github.com/sandeepkv93/calplan/internal/views"
	"github.com/sandeepkv93/calplan/internal/watch"
)

type suggestFlags struct {
	today         string
	allowWeekends bool
	breakMinutes  int
	watch         bool
}

func newSuggestCommand(a *app) *cobra.Command {
	var f suggestFlags

	cmd := &cobra.Command{
		Use:   "suggest",
		Short: "Fit work items into free time",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			today, err := a.today(f.today)
			if err != nil {
				return fmt.Errorf("--today: %w", err)
			}
			opts := a.cfg.SchedulerOptions()
			if cmd.Flags().Changed("allow-weekends") {
				opts.AllowWeekends = f.allowWeekends
			}
			if cmd.Flags().Changed("break") {
				opts.BreakMinutes = f.breakMinutes
			}

			if err := a.suggest(cmd.Context(), today, opts); err != nil {
				return err
			}
			if !f.watch {
				return nil
			}
			return a.watchAndSuggest(cmd.Context(), today, opts)
		},
	}
	cmd.Flags().StringVar(&f.today, "today", "", "First day to schedule on (YYYY-MM-DD, default today)")
	cmd.Flags().BoolVar(&f.allowWeekends, "allow-weekends", false, "Schedule on Saturdays and Sundays")
	cmd.Flags().IntVar(&f.breakMinutes, "break", 0, "Minutes kept free after each placed item")
	cmd.Flags().BoolVar(&f.watch, "watch", false, "Re-run whenever the input or busy files change")
	return cmd
}

func (a *app) suggest(ctx context.Context, today model.Date, opts scheduler.Options) error {
	cal, err := a.calendar(ctx)
	if err != nil {
		return err
	}
	p, err := a.planner()
	if err != nil {
		return err
	}
	plan, err := p.Suggest(cal, today, opts)
	if err != nil {
		return err
	}
	fmt.Fprintln(a.out, views.RenderPlan(today, plan))
	return nil
}

// watchAndSuggest re-plans on every change to the calendar sources until ctx
// is cancelled. Errors from a re-run are logged and the watch continues.
func (a *app) watchAndSuggest(ctx context.Context, today model.Date, opts scheduler.Options) error {
	if ctx == nil {
		ctx = context.Background()
	}
	changed := make(chan string, 1)
	fw, err := watch.NewFileWatcher(watch.DefaultDelay, func(name string) {
		select {
		case changed <- name:
		default:
		}
	})
	if err != nil {
		return fmt.Errorf("start watcher: %w", err)
	}
	defer fw.Close()

	paths := append([]string{}, a.busyFiles...)
	if a.inputPath != "" {
		paths = append(paths, a.inputPath)
	} else {
		paths = append(paths, a.cfg.DBPath)
	}
	for _, path := range paths {
		if err := fw.AddFile(path); err != nil {
			return fmt.Errorf("watch %s: %w", path, err)
		}
	}
	log.Info("watching for changes", "files", len(paths))

	for {
		select {
		case <-ctx.Done():
			return nil
		case name := <-changed:
			log.Info("calendar changed", "path", name, "at", time.Now().Format(time.TimeOnly))
			if err := a.suggest(ctx, today, opts); err != nil {
				log.Error("re-plan failed", err, "path", name)
			}
		}
	}
}
