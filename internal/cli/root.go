package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/sandeepkv93/calplan/internal/config"
	"github.com/sandeepkv93/calplan/internal/ics"
	"github.com/sandeepkv93/calplan/internal/input"
	"github.com/sandeepkv93/calplan/internal/log"
	"github.com/sandeepkv93/calplan/internal/model"
	"github.com/sandeepkv93/calplan/internal/planner"
	"github.com/sandeepkv93/calplan/internal/storage"
)

type app struct {
	out    io.Writer
	errOut io.Writer
	now    func() time.Time

	cfgFile   string
	inputPath string
	dbPath    string
	logLevel  string
	busyFiles []string

	cfg config.Config
}

// NewRootCommand builds the calplan command tree writing to out and errOut.
func NewRootCommand(out, errOut io.Writer) *cobra.Command {
	a := &app{out: out, errOut: errOut, now: time.Now}

	root := &cobra.Command{
		Use:   "calplan",
		Short: "Expand recurring events, lay out days and suggest work schedules",
		Long: `calplan reads a calendar of recurring templates, fixed events and work
items from a YAML file or a SQLite store. It expands recurrences into
dated occurrences, places overlapping events in side-by-side columns and
fits prioritised work into free time.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup(cmd)
		},
	}
	root.SetOut(out)
	root.SetErr(errOut)

	flags := root.PersistentFlags()
	flags.StringVarP(&a.cfgFile, "config", "c", "calplan.yaml", "Path to config file")
	flags.StringVarP(&a.inputPath, "input", "i", "", "YAML calendar file (defaults to the SQLite store)")
	flags.StringVar(&a.dbPath, "db", "", "SQLite store path (overrides config)")
	flags.StringVar(&a.logLevel, "log-level", "", "Log level: debug, info or error")
	flags.StringSliceVar(&a.busyFiles, "busy", nil, "iCalendar file(s) whose events count as fixed (repeatable)")

	root.AddCommand(
		newExpandCommand(a),
		newLayoutCommand(a),
		newSuggestCommand(a),
		newBatchCommand(a),
		newDBCommand(a),
	)
	return root
}

// Execute runs the command tree against os.Args and the process streams.
func Execute(ctx context.Context) error {
	root := NewRootCommand(os.Stdout, os.Stderr)
	return root.ExecuteContext(ctx)
}

func (a *app) setup(cmd *cobra.Command) error {
	log.SetOutput(a.errOut)

	cfg, err := config.Load(a.cfgFile)
	if err != nil {
		return err
	}
	cfg = config.FromEnv(cfg)
	if a.dbPath != "" {
		cfg.DBPath = a.dbPath
	}
	if a.logLevel != "" {
		cfg.LogLevel = a.logLevel
	}
	cfg.Normalize()
	a.cfg = cfg

	log.SetLevel(log.ParseLevel(cfg.LogLevel))
	log.Debug("config loaded", "path", a.cfgFile, "db", cfg.DBPath, "command", cmd.Name())
	return nil
}

func (a *app) planner() (*planner.Planner, error) {
	return planner.New(a.cfg)
}

// calendar loads the input file when one is given and the SQLite store
// otherwise, then adds busy intervals from every --busy file.
func (a *app) calendar(ctx context.Context) (planner.Calendar, error) {
	var cal planner.Calendar
	if a.inputPath != "" {
		in, err := input.Load(a.inputPath)
		if err != nil {
			return planner.Calendar{}, err
		}
		cal = planner.Calendar{Templates: in.Templates, Events: in.Events, Items: in.Items}
	} else {
		snap, err := a.snapshot(ctx)
		if err != nil {
			return planner.Calendar{}, err
		}
		cal = planner.Calendar{Templates: snap.Templates, Events: snap.Events, Items: snap.Items}
	}

	for _, path := range a.busyFiles {
		events, err := readBusyFile(path)
		if err != nil {
			return planner.Calendar{}, err
		}
		cal.Events = append(cal.Events, events...)
	}
	return cal, nil
}

func (a *app) snapshot(ctx context.Context) (storage.Snapshot, error) {
	repo, err := a.openStore()
	if err != nil {
		return storage.Snapshot{}, err
	}
	defer repo.Close()
	return repo.Snapshot(ctx)
}

func (a *app) openStore() (*storage.SQLiteRepository, error) {
	repo, err := storage.OpenSQLite(a.cfg.DBPath)
	if err != nil {
		return nil, err
	}
	if err := storage.MigrateUp(repo.DB()); err != nil {
		_ = repo.Close()
		return nil, err
	}
	return repo, nil
}

func (a *app) today(flag string) (model.Date, error) {
	if flag == "" {
		return model.DateOf(a.now()), nil
	}
	return model.ParseDate(flag)
}

func readBusyFile(path string) ([]model.DatedEvent, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open busy calendar: %w", err)
	}
	defer f.Close()
	events, err := ics.ReadBusy(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return events, nil
}

func writeFile(path string, write func(io.Writer) error) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := write(f); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}
