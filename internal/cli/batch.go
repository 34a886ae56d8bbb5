package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/sandeepkv93/calplan/internal/commands"
	"github.com/sandeepkv93/calplan/internal/planner"
	"github.com/sandeepkv93/calplan/internal/views"
)

func newBatchCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "batch FILE",
		Short: "Run expand, layout and suggest lines from a file ('-' for stdin)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var r io.Reader = cmd.InOrStdin()
			if args[0] != "-" {
				f, err := os.Open(args[0])
				if err != nil {
					return fmt.Errorf("open batch file: %w", err)
				}
				defer f.Close()
				r = f
			}
			return a.runBatch(cmd.Context(), r)
		},
	}
}

// runBatch loads the calendar once and runs every line against it. It stops
// at the first failing line.
func (a *app) runBatch(ctx context.Context, r io.Reader) error {
	cal, err := a.calendar(ctx)
	if err != nil {
		return err
	}
	p, err := a.planner()
	if err != nil {
		return err
	}
	handlers := batchHandlers(p, cal)

	scanner := bufio.NewScanner(r)
	line := 0
	for scanner.Scan() {
		line++
		cmd, err := commands.Parse(scanner.Text())
		if err != nil {
			var ce *commands.CommandError
			if errors.As(err, &ce) && ce.Code == commands.ErrCodeEmptyInput {
				continue
			}
			return fmt.Errorf("line %d: %w", line, err)
		}
		res, err := commands.Execute(cmd, handlers)
		if err != nil {
			return fmt.Errorf("line %d: %w", line, err)
		}
		fmt.Fprintln(a.out, res.Message)
	}
	return scanner.Err()
}

func batchHandlers(p *planner.Planner, cal planner.Calendar) commands.Handlers {
	return commands.Handlers{
		Expand: func(args commands.ExpandArgs) (commands.Result, error) {
			res, err := p.ExpandWindow(cal.Templates, args.From, args.To)
			if err != nil {
				return commands.Result{}, err
			}
			return commands.Result{Message: views.RenderOccurrences(args.From, args.To, res)}, nil
		},
		Layout: func(args commands.LayoutArgs) (commands.Result, error) {
			day, err := p.LayoutDay(cal, args.Date)
			if err != nil {
				return commands.Result{}, err
			}
			return commands.Result{Message: views.RenderDayLayout(day)}, nil
		},
		Suggest: func(args commands.SuggestArgs) (commands.Result, error) {
			opts := p.Options()
			if args.AllowWeekends {
				opts.AllowWeekends = true
			}
			if args.BreakMinutes >= 0 {
				opts.BreakMinutes = args.BreakMinutes
			}
			plan, err := p.Suggest(cal, args.Today, opts)
			if err != nil {
				return commands.Result{}, err
			}
			return commands.Result{Message: views.RenderPlan(args.Today, plan)}, nil
		},
	}
}
