package cli

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/sandeepkv93/calplan/internal/input"
	"github.com/sandeepkv93/calplan/internal/model"
	"github.com/sandeepkv93/calplan/internal/storage"
)

var errNoRule = errors.New("template does not recur")

func newDBCommand(a *app) *cobra.Command {
	db := &cobra.Command{
		Use:   "db",
		Short: "Manage the SQLite calendar store",
	}

	var down bool
	migrate := &cobra.Command{
		Use:   "migrate",
		Short: "Create or drop the store schema",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			repo, err := storage.OpenSQLite(a.cfg.DBPath)
			if err != nil {
				return err
			}
			defer repo.Close()
			if down {
				if err := storage.MigrateDown(repo.DB()); err != nil {
					return err
				}
				fmt.Fprintf(a.out, "dropped schema in %s\n", a.cfg.DBPath)
				return nil
			}
			if err := storage.MigrateUp(repo.DB()); err != nil {
				return err
			}
			fmt.Fprintf(a.out, "migrated %s\n", a.cfg.DBPath)
			return nil
		},
	}
	migrate.Flags().BoolVar(&down, "down", false, "Drop every table instead")

	importCmd := &cobra.Command{
		Use:   "import",
		Short: "Upsert the --input file into the store",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if a.inputPath == "" {
				return fmt.Errorf("db import requires --input")
			}
			in, err := input.Load(a.inputPath)
			if err != nil {
				return err
			}
			repo, err := a.openStore()
			if err != nil {
				return err
			}
			defer repo.Close()
			snap := storage.Snapshot{Templates: in.Templates, Events: in.Events, Items: in.Items}
			if err := repo.Import(cmd.Context(), snap); err != nil {
				return err
			}
			fmt.Fprintf(a.out, "imported %d templates, %d events, %d items into %s\n",
				len(in.Templates), len(in.Events), len(in.Items), a.cfg.DBPath)
			return nil
		},
	}

	db.AddCommand(migrate, importCmd, newRemoveCommand(a), newSkipCommand(a), newPriorityCommand(a))
	return db
}

func newRemoveCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:       "rm template|event|item ID",
		Short:     "Delete one record from the store",
		Args:      cobra.ExactArgs(2),
		ValidArgs: []string{"template", "event", "item"},
		RunE: func(cmd *cobra.Command, args []string) error {
			repo, err := a.openStore()
			if err != nil {
				return err
			}
			defer repo.Close()

			ctx := cmd.Context()
			kind, id := strings.ToLower(args[0]), args[1]
			var desc string
			switch kind {
			case "template":
				tpl, err := repo.GetTemplate(ctx, id)
				if err != nil {
					return fmt.Errorf("template %q: %w", id, err)
				}
				if err := repo.DeleteTemplate(ctx, id); err != nil {
					return fmt.Errorf("template %q: %w", id, err)
				}
				desc = fmt.Sprintf("template %s (%s from %s)", id, tpl.Event.Title, tpl.Event.Date)
			case "event":
				ev, err := repo.GetFixedEvent(ctx, id)
				if err != nil {
					return fmt.Errorf("event %q: %w", id, err)
				}
				if err := repo.DeleteFixedEvent(ctx, id); err != nil {
					return fmt.Errorf("event %q: %w", id, err)
				}
				desc = fmt.Sprintf("event %s (%s %s-%s)", id, ev.Date, ev.Start, ev.End)
			case "item":
				it, err := repo.GetWorkItem(ctx, id)
				if err != nil {
					return fmt.Errorf("item %q: %w", id, err)
				}
				if err := repo.DeleteWorkItem(ctx, id); err != nil {
					return fmt.Errorf("item %q: %w", id, err)
				}
				desc = fmt.Sprintf("item %s (%s, %d min)", id, it.Title, it.DurationMinutes)
			default:
				return fmt.Errorf("unknown record kind %q: want template, event or item", args[0])
			}
			fmt.Fprintf(a.out, "removed %s\n", desc)
			return nil
		},
	}
}

// newSkipCommand adds an exception date to a stored recurring template.
func newSkipCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "skip TEMPLATE DATE",
		Short: "Cancel one occurrence of a recurring template",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			d, err := model.ParseDate(args[1])
			if err != nil {
				return err
			}
			repo, err := a.openStore()
			if err != nil {
				return err
			}
			defer repo.Close()

			ctx := cmd.Context()
			tpl, err := repo.GetTemplate(ctx, args[0])
			if err != nil {
				return fmt.Errorf("template %q: %w", args[0], err)
			}
			if tpl.Rule == nil {
				return fmt.Errorf("template %q: %w", args[0], errNoRule)
			}
			if tpl.Rule.Excludes(d) {
				fmt.Fprintf(a.out, "%s already skipped on %s\n", args[0], d)
				return nil
			}
			tpl.Rule.Exceptions = append(tpl.Rule.Exceptions, d)
			if err := repo.UpdateTemplate(ctx, tpl); err != nil {
				return fmt.Errorf("template %q: %w", args[0], err)
			}
			fmt.Fprintf(a.out, "skipped %s on %s\n", args[0], d)
			return nil
		},
	}
}

func newPriorityCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "priority ITEM PRIORITY",
		Short: "Change the priority of a stored work item",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := model.ParsePriority(args[1])
			if err != nil {
				return err
			}
			repo, err := a.openStore()
			if err != nil {
				return err
			}
			defer repo.Close()

			ctx := cmd.Context()
			it, err := repo.GetWorkItem(ctx, args[0])
			if err != nil {
				return fmt.Errorf("item %q: %w", args[0], err)
			}
			it.Priority = p
			if err := repo.UpdateWorkItem(ctx, it); err != nil {
				return fmt.Errorf("item %q: %w", args[0], err)
			}
			fmt.Fprintf(a.out, "%s priority set to %s\n", args[0], p)
			return nil
		},
	}
}
