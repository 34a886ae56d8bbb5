// Package config loads calplan settings from an optional YAML file and
// CALPLAN_* environment variables.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/sandeepkv93/calplan/internal/model"
	"github.com/sandeepkv93/calplan/internal/recurrence"
	"github.com/sandeepkv93/calplan/internal/scheduler"
)

var ErrInvalidConfig = errors.New("config: invalid configuration")

type Config struct {
	// DBPath is the SQLite input store used by the db subcommands and --db.
	DBPath   string `yaml:"db_path"`
	LogLevel string `yaml:"log_level"`

	// MaxSteps bounds a single recurrence walk.
	MaxSteps int `yaml:"max_steps"`

	DayStart             string `yaml:"day_start"`
	DayEnd               string `yaml:"day_end"`
	AllowWeekends        bool   `yaml:"allow_weekends"`
	BreakMinutes         int    `yaml:"break_minutes"`
	DailyCapacityMinutes int    `yaml:"daily_capacity_minutes"`
	MaxItems             int    `yaml:"max_items"`
	SearchStepMinutes    int    `yaml:"search_step_minutes"`
	HorizonDays          int    `yaml:"horizon_days"`
}

func Default() Config {
	return Config{
		DBPath:            "calplan.db",
		LogLevel:          "info",
		MaxSteps:          recurrence.DefaultMaxSteps,
		DayStart:          "09:00",
		DayEnd:            "18:00",
		MaxItems:          scheduler.DefaultMaxItems,
		SearchStepMinutes: scheduler.DefaultSearchStepMinutes,
		HorizonDays:       scheduler.DefaultHorizonDays,
	}
}

// Normalize fills zero values from Default so partial files behave.
func (c *Config) Normalize() {
	def := Default()
	if strings.TrimSpace(c.DBPath) == "" {
		c.DBPath = def.DBPath
	}
	switch strings.ToLower(strings.TrimSpace(c.LogLevel)) {
	case "debug", "info", "error":
		c.LogLevel = strings.ToLower(strings.TrimSpace(c.LogLevel))
	default:
		c.LogLevel = def.LogLevel
	}
	if c.MaxSteps <= 0 {
		c.MaxSteps = def.MaxSteps
	}
	if c.DayStart == "" {
		c.DayStart = def.DayStart
	}
	if c.DayEnd == "" {
		c.DayEnd = def.DayEnd
	}
	if c.MaxItems <= 0 {
		c.MaxItems = def.MaxItems
	}
	if c.SearchStepMinutes <= 0 {
		c.SearchStepMinutes = def.SearchStepMinutes
	}
	if c.HorizonDays <= 0 {
		c.HorizonDays = def.HorizonDays
	}
	if c.BreakMinutes < 0 {
		c.BreakMinutes = 0
	}
	if c.DailyCapacityMinutes < 0 {
		c.DailyCapacityMinutes = 0
	}
}

// Load reads path as YAML on top of Default. A missing file is not an error.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return cfg, nil
		}
		return Config{}, fmt.Errorf("config: read %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("config: parse %s: %w", path, err)
	}
	cfg.Normalize()
	return cfg, nil
}

func FromEnv(base Config) Config {
	cfg := base
	if v, ok := getEnvString("CALPLAN_DB_PATH"); ok {
		cfg.DBPath = v
	}
	if v, ok := getEnvString("CALPLAN_LOG_LEVEL"); ok {
		cfg.LogLevel = v
	}
	if v, ok := getEnvInt("CALPLAN_MAX_STEPS"); ok && v > 0 {
		cfg.MaxSteps = v
	}
	if v, ok := getEnvString("CALPLAN_DAY_START"); ok {
		cfg.DayStart = v
	}
	if v, ok := getEnvString("CALPLAN_DAY_END"); ok {
		cfg.DayEnd = v
	}
	if v, ok := getEnvBool("CALPLAN_ALLOW_WEEKENDS"); ok {
		cfg.AllowWeekends = v
	}
	if v, ok := getEnvInt("CALPLAN_BREAK_MINUTES"); ok && v >= 0 {
		cfg.BreakMinutes = v
	}
	if v, ok := getEnvInt("CALPLAN_DAILY_CAPACITY_MINUTES"); ok && v >= 0 {
		cfg.DailyCapacityMinutes = v
	}
	if v, ok := getEnvInt("CALPLAN_MAX_ITEMS"); ok && v > 0 {
		cfg.MaxItems = v
	}
	if v, ok := getEnvInt("CALPLAN_SEARCH_STEP_MINUTES"); ok && v > 0 {
		cfg.SearchStepMinutes = v
	}
	if v, ok := getEnvInt("CALPLAN_HORIZON_DAYS"); ok && v > 0 {
		cfg.HorizonDays = v
	}
	cfg.Normalize()
	return cfg
}

func (c Config) Window() (scheduler.Window, error) {
	start, err := model.ParseClock(c.DayStart)
	if err != nil {
		return scheduler.Window{}, fmt.Errorf("%w: day_start: %w", ErrInvalidConfig, err)
	}
	end, err := model.ParseClock(c.DayEnd)
	if err != nil {
		return scheduler.Window{}, fmt.Errorf("%w: day_end: %w", ErrInvalidConfig, err)
	}
	w := scheduler.Window{Start: start, End: end}
	if err := w.Validate(); err != nil {
		return scheduler.Window{}, fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	return w, nil
}

func (c Config) SchedulerOptions() scheduler.Options {
	return scheduler.Options{
		AllowWeekends:        c.AllowWeekends,
		BreakMinutes:         c.BreakMinutes,
		DailyCapacityMinutes: c.DailyCapacityMinutes,
		MaxItems:             c.MaxItems,
		SearchStepMinutes:    c.SearchStepMinutes,
		HorizonDays:          c.HorizonDays,
	}
}

func getEnvString(name string) (string, bool) {
	raw := strings.TrimSpace(os.Getenv(name))
	return raw, raw != ""
}

func getEnvInt(name string) (int, bool) {
	raw := strings.TrimSpace(os.Getenv(name))
	if raw == "" {
		return 0, false
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, false
	}
	return v, true
}

func getEnvBool(name string) (bool, bool) {
	raw := strings.TrimSpace(strings.ToLower(os.Getenv(name)))
	if raw == "" {
		return false, false
	}
	switch raw {
	case "1", "true", "yes", "y", "on":
		return true, true
	case "0", "false", "no", "n", "off":
		return false, true
	default:
		return false, false
	}
}
