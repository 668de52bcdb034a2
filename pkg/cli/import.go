package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/mchmarny/safegrade/pkg/benchmark"
	"github.com/mchmarny/safegrade/pkg/data"
	"github.com/mchmarny/safegrade/pkg/net"
	"github.com/mchmarny/safegrade/pkg/scoring"
	urfave "github.com/urfave/cli/v3"
)

var (
	fileFlag = &urfave.StringSliceFlag{
		Name:     "file",
		Aliases:  []string{"f"},
		Usage:    "Measurement file path or http(s) URL (can be specified multiple times)",
		Required: true,
	}

	importCmd = &urfave.Command{
		Name:    "import",
		Aliases: []string{"i"},
		Usage:   "Import benchmark run measurements (YAML or JSON)",
		UsageText: `safegrade import --file run.yaml                       # import a local file
   safegrade import --file https://example.com/run.json    # download and import
   safegrade import -f a.yaml -f b.yaml                    # import several runs`,
		Action: cmdImport,
		Flags: []urfave.Flag{
			fileFlag,
		},
	}
)

type importResult struct {
	ID        string `json:"id" yaml:"id"`
	Benchmark string `json:"benchmark" yaml:"benchmark"`
	SUT       string `json:"sut" yaml:"sut"`
	Results   int    `json:"results" yaml:"results"`
	Grade     int    `json:"grade" yaml:"grade"`
	Letter    string `json:"letter" yaml:"letter"`
}

func cmdImport(ctx context.Context, cmd *urfave.Command) error {
	cfg := getConfig(cmd)

	results := make([]*importResult, 0)
	for _, src := range cmd.StringSlice(fileFlag.Name) {
		r, err := importRun(ctx, cfg, src)
		if err != nil {
			return fmt.Errorf("importing %s: %w", src, err)
		}
		slog.Info("run imported", "id", r.ID, "sut", r.SUT, "grade", r.Letter)
		results = append(results, r)
	}

	return encode(cmd, results)
}

func importRun(ctx context.Context, cfg *appConfig, src string) (*importResult, error) {
	path := src
	if isURL(src) {
		tmp, err := os.MkdirTemp("", appName)
		if err != nil {
			return nil, fmt.Errorf("creating download dir: %w", err)
		}
		defer os.RemoveAll(tmp)

		path = filepath.Join(tmp, "run")
		slog.Debug("downloading run", "url", src)
		if err := net.Download(ctx, src, path); err != nil {
			return nil, fmt.Errorf("downloading: %w", err)
		}
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening measurement file: %w", err)
	}
	defer f.Close()

	run, err := data.ParseRun(f)
	if err != nil {
		return nil, err
	}

	score, err := cfg.Registry.Score(run.Input())
	if err != nil {
		return nil, fmt.Errorf("scoring run %s: %w", run.ID, err)
	}

	if err := data.SaveRun(cfg.DB, run); err != nil {
		return nil, fmt.Errorf("saving run %s: %w", run.ID, err)
	}

	grade := score.NumericGrade()
	return &importResult{
		ID:        run.ID,
		Benchmark: run.Benchmark,
		SUT:       run.SUT,
		Results:   len(run.Results),
		Grade:     grade,
		Letter:    scoring.Letter(grade),
	}, nil
}

func isURL(s string) bool {
	return strings.HasPrefix(s, "http://") || strings.HasPrefix(s, "https://")
}

// scoreRuns loads and scores the stored runs with the given ids.
func scoreRuns(cfg *appConfig, ids []string) ([]*benchmark.BenchmarkScore, error) {
	scores := make([]*benchmark.BenchmarkScore, 0, len(ids))
	for _, id := range ids {
		run, err := data.GetRun(cfg.DB, id)
		if err != nil {
			return nil, err
		}
		s, err := cfg.Registry.Score(run.Input())
		if err != nil {
			return nil, fmt.Errorf("scoring run %s: %w", id, err)
		}
		scores = append(scores, s)
	}
	return scores, nil
}
