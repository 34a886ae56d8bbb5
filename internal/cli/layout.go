package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/sandeepkv93/calplan/internal/views"
)

func newLayoutCommand(a *app) *cobra.Command {
	var date string

	cmd := &cobra.Command{
		Use:   "layout",
		Short: "Show one day with overlapping events in columns",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			d, err := a.today(date)
			if err != nil {
				return fmt.Errorf("--date: %w", err)
			}
			cal, err := a.calendar(cmd.Context())
			if err != nil {
				return err
			}
			p, err := a.planner()
			if err != nil {
				return err
			}
			day, err := p.LayoutDay(cal, d)
			if err != nil {
				return err
			}
			fmt.Fprintln(a.out, views.RenderDayLayout(day))
			return nil
		},
	}
	cmd.Flags().StringVar(&date, "date", "", "Day to lay out (YYYY-MM-DD, default today)")
	return cmd
}
