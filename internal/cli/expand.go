package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/sandeepkv93/calplan/internal/ics"
	"github.com/sandeepkv93/calplan/internal/model"
	"github.com/sandeepkv93/calplan/internal/views"
)

func newExpandCommand(a *app) *cobra.Command {
	var from, to, icsPath, templatesPath string

	cmd := &cobra.Command{
		Use:   "expand",
		Short: "List template occurrences in a date window",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			fromDate, err := model.ParseDate(from)
			if err != nil {
				return fmt.Errorf("--from: %w", err)
			}
			toDate, err := model.ParseDate(to)
			if err != nil {
				return fmt.Errorf("--to: %w", err)
			}
			cal, err := a.calendar(cmd.Context())
			if err != nil {
				return err
			}
			p, err := a.planner()
			if err != nil {
				return err
			}
			res, err := p.ExpandWindow(cal.Templates, fromDate, toDate)
			if err != nil {
				return err
			}

			stamp := a.now().UTC()
			if icsPath != "" {
				if err := writeFile(icsPath, func(w io.Writer) error {
					return ics.WriteOccurrences(w, res.Occurrences, stamp)
				}); err != nil {
					return fmt.Errorf("write occurrences: %w", err)
				}
			}
			if templatesPath != "" {
				if err := writeFile(templatesPath, func(w io.Writer) error {
					return ics.WriteTemplates(w, cal.Templates, stamp)
				}); err != nil {
					return fmt.Errorf("write templates: %w", err)
				}
			}
			fmt.Fprintln(a.out, views.RenderOccurrences(fromDate, toDate, res))
			return nil
		},
	}
	cmd.Flags().StringVar(&from, "from", "", "First date of the window (YYYY-MM-DD)")
	cmd.Flags().StringVar(&to, "to", "", "Last date of the window (YYYY-MM-DD)")
	cmd.Flags().StringVar(&icsPath, "ics", "", "Also write the occurrences as an iCalendar file")
	cmd.Flags().StringVar(&templatesPath, "templates-ics", "", "Also write the templates with RRULEs as an iCalendar file")
	_ = cmd.MarkFlagRequired("from")
	_ = cmd.MarkFlagRequired("to")
	return cmd
}
