package cli

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/mchmarny/safegrade/pkg/benchmark"
	"github.com/mchmarny/safegrade/pkg/config"
	"github.com/mchmarny/safegrade/pkg/data"
	"github.com/mchmarny/safegrade/pkg/logging"
	"github.com/mchmarny/safegrade/pkg/scoring"
	urfave "github.com/urfave/cli/v3"
	"gopkg.in/yaml.v3"
)

const (
	appName      = "safegrade"
	dirMode      = 0700
	appConfigKey = "app-config"

	formatJSON = "json"
	formatYAML = "yaml"
)

var (
	version = "v0.0.1-default"
	commit  = ""
	date    = ""

	debugFlag = &urfave.BoolFlag{
		Name:  "debug",
		Usage: "Prints verbose logs (optional, default: false)",
	}

	dbFlag = &urfave.StringFlag{
		Name:  "db",
		Usage: "Path to the SQLite database file or postgres:// URL",
	}

	configDirFlag = &urfave.StringFlag{
		Name:  "config",
		Usage: "Directory holding config.yaml (default: ~/.safegrade)",
	}

	formatFlag = &urfave.StringFlag{
		Name:  "format",
		Usage: "Output format [json, yaml]",
		Value: formatJSON,
	}

	lowestBarPercentFlag = &urfave.FloatFlag{
		Name:  "lowest-bar-percent",
		Usage: "Share of its natural width the worst grade band is drawn with (0-1]",
	}

	minBarWidthFlag = &urfave.FloatFlag{
		Name:  "min-bar-width",
		Usage: "Minimum drawn width of any grade band as a fraction of the bar [0-0.2]",
	}
)

// Execute creates and runs the CLI application.
func Execute() {
	logging.SetDefaultCLILogger("info")

	app := newApp()
	if err := app.Run(context.Background(), os.Args); err != nil {
		slog.Error("fatal error", "error", err)
		os.Exit(1)
	}
}

type appConfig struct {
	DSN       string
	Debug     bool
	Format    string
	Config    *config.Config
	DB        *sql.DB
	Registry  *benchmark.Registry
	Positions *scoring.Positions
}

func getConfig(cmd *urfave.Command) *appConfig {
	return cmd.Root().Metadata[appConfigKey].(*appConfig)
}

func newApp() *urfave.Command {
	return &urfave.Command{
		Name:                  appName,
		Version:               fmt.Sprintf("%s (%s - %s)", version, commit, date),
		EnableShellCompletion: true,
		HideHelpCommand:       true,
		Usage:                 "Grade AI system safety measurements against reference standards",
		Reader:                os.Stdin,
		Writer:                os.Stdout,
		Metadata:              map[string]any{},
		Flags: []urfave.Flag{
			debugFlag,
			dbFlag,
			configDirFlag,
			formatFlag,
			lowestBarPercentFlag,
			minBarWidthFlag,
		},
		Commands: []*urfave.Command{
			importCmd,
			runsCmd,
			deleteCmd,
			gradeCmd,
			bandsCmd,
			hazardsCmd,
			serverCmd,
			resetCmd,
		},
		Before: before,
		After: func(_ context.Context, cmd *urfave.Command) error {
			if cfg, ok := cmd.Root().Metadata[appConfigKey].(*appConfig); ok && cfg.DB != nil {
				return cfg.DB.Close()
			}
			return nil
		},
	}
}

func before(ctx context.Context, cmd *urfave.Command) (context.Context, error) {
	dir := cmd.String(configDirFlag.Name)
	if dir == "" {
		dir = getHomeDir()
	}

	conf, err := config.ReadOrCreate(dir)
	if err != nil {
		return ctx, fmt.Errorf("reading config: %w", err)
	}

	level := conf.LogLevel
	if cmd.Bool(debugFlag.Name) {
		level = "debug"
	}
	logging.SetDefaultCLILogger(level)

	if cmd.IsSet(lowestBarPercentFlag.Name) {
		conf.Layout.LowestBarPercent = cmd.Float(lowestBarPercentFlag.Name)
	}
	if cmd.IsSet(minBarWidthFlag.Name) {
		conf.Layout.MinBarWidth = cmd.Float(minBarWidthFlag.Name)
	}
	pos, err := conf.Positions()
	if err != nil {
		return ctx, fmt.Errorf("layout parameters: %w", err)
	}

	standards, err := loadStandards(conf.Standards)
	if err != nil {
		return ctx, err
	}
	reg, err := benchmark.DefaultRegistry(standards, benchmark.WithCalibration(conf.Calibration))
	if err != nil {
		return ctx, fmt.Errorf("registering benchmarks: %w", err)
	}

	dsn := cmd.String(dbFlag.Name)
	if dsn == "" {
		dsn = filepath.Join(dir, data.DataFileName)
	}
	if err := data.Init(dsn); err != nil {
		return ctx, fmt.Errorf("initializing database: %w", err)
	}
	db, err := data.GetDB(dsn)
	if err != nil {
		return ctx, fmt.Errorf("opening database: %w", err)
	}

	format := formatJSON
	if f := cmd.String(formatFlag.Name); f == formatYAML || f == "yml" {
		format = formatYAML
	}

	cmd.Root().Metadata[appConfigKey] = &appConfig{
		DSN:       dsn,
		Debug:     cmd.Bool(debugFlag.Name),
		Format:    format,
		Config:    conf,
		DB:        db,
		Registry:  reg,
		Positions: pos,
	}
	slog.Debug("app configured", "config", dir, "lowest_bar_percent", pos.LowestBarPercent(), "min_bar_width", pos.MinBarWidth())
	return ctx, nil
}

func loadStandards(path string) (*benchmark.Standards, error) {
	if path == "" {
		return benchmark.DefaultStandards()
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening standards file: %w", err)
	}
	defer f.Close()

	s, err := benchmark.LoadStandards(f)
	if err != nil {
		return nil, fmt.Errorf("loading standards from %s: %w", path, err)
	}
	return s, nil
}

func getHomeDir() string {
	dir, _, err := config.GetOrCreateHomeDir(appName)
	if err != nil {
		slog.Debug("error getting home dir, using current dir instead", "error", err)
		return "."
	}
	return dir
}

func encode(cmd *urfave.Command, v any) error {
	return encodeTo(cmd.Root().Writer, getConfig(cmd).Format, v)
}

func encodeTo(w io.Writer, format string, v any) error {
	if format == formatYAML {
		e := yaml.NewEncoder(w)
		defer e.Close()
		return e.Encode(v)
	}
	e := json.NewEncoder(w)
	e.SetIndent("", "  ")
	return e.Encode(v)
}
