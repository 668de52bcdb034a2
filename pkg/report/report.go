// Package report turns benchmark scores into render ready grade reports.
package report

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"time"

	"github.com/mchmarny/safegrade/pkg/benchmark"
	"github.com/mchmarny/safegrade/pkg/scoring"
	"golang.org/x/sync/errgroup"
)

var errNoPositions = errors.New("positions required")

// Report is the graded result of one or more benchmark runs.
type Report struct {
	LowestBarPercent float64         `json:"lowest_bar_percent" yaml:"lowestBarPercent"`
	MinBarWidth      float64         `json:"min_bar_width" yaml:"minBarWidth"`
	Benchmarks       []*BenchmarkRow `json:"benchmarks" yaml:"benchmarks"`
}

// BenchmarkRow is the grade of one system on one benchmark.
type BenchmarkRow struct {
	Benchmark string       `json:"benchmark" yaml:"benchmark"`
	SUT       string       `json:"sut" yaml:"sut"`
	EndTime   time.Time    `json:"end_time" yaml:"endTime"`
	Grade     int          `json:"grade" yaml:"grade"`
	Letter    string       `json:"letter" yaml:"letter"`
	Label     string       `json:"label" yaml:"label"`
	Hazards   []*HazardRow `json:"hazards" yaml:"hazards"`
}

// HazardRow is the grade and layout of one hazard.
type HazardRow struct {
	UID        string                `json:"uid" yaml:"uid"`
	Name       string                `json:"name" yaml:"name"`
	Reference  float64               `json:"reference" yaml:"reference"`
	Score      scoring.ValueEstimate `json:"score" yaml:"score"`
	Grade      int                   `json:"grade" yaml:"grade"`
	Letter     string                `json:"letter" yaml:"letter"`
	Label      string                `json:"label" yaml:"label"`
	Exceptions int                   `json:"exceptions" yaml:"exceptions"`
	Layout     scoring.Layout        `json:"layout" yaml:"layout"`
}

// Build grades every score and lays out every hazard. Scores are
// processed concurrently and the report keeps their order.
func Build(ctx context.Context, scores []*benchmark.BenchmarkScore, pos *scoring.Positions) (*Report, error) {
	if pos == nil {
		return nil, errNoPositions
	}

	rows := make([]*BenchmarkRow, len(scores))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.NumCPU())
	for i, s := range scores {
		i, s := i, s
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			row, err := buildRow(s, pos)
			if err != nil {
				return fmt.Errorf("score %d: %w", i, err)
			}
			rows[i] = row
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	return &Report{
		LowestBarPercent: pos.LowestBarPercent(),
		MinBarWidth:      pos.MinBarWidth(),
		Benchmarks:       rows,
	}, nil
}

func buildRow(s *benchmark.BenchmarkScore, pos *scoring.Positions) (*BenchmarkRow, error) {
	if s == nil || s.Benchmark == nil {
		return nil, errors.New("benchmark score without benchmark")
	}
	if len(s.HazardScores) == 0 {
		return nil, fmt.Errorf("score of %s for %s: %w", s.Benchmark.UID(), s.SUT, benchmark.ErrMissingHazard)
	}

	grade := s.NumericGrade()
	row := &BenchmarkRow{
		Benchmark: s.Benchmark.UID(),
		SUT:       s.SUT,
		EndTime:   s.EndTime,
		Grade:     grade,
		Letter:    scoring.Letter(grade),
		Label:     scoring.Label(grade),
		Hazards:   make([]*HazardRow, 0, len(s.HazardScores)),
	}

	for _, hs := range s.HazardScores {
		if hs == nil || hs.Hazard == nil {
			return nil, fmt.Errorf("hazard score without hazard in %s", row.Benchmark)
		}
		if err := hs.Hazard.CheckReference(); err != nil {
			return nil, fmt.Errorf("grading %s: %w", row.Benchmark, err)
		}
		hg := hs.NumericGrade()
		ref := hs.Hazard.ReferenceStandard()
		row.Hazards = append(row.Hazards, &HazardRow{
			UID:        hs.Hazard.UID(),
			Name:       hs.Hazard.Name(),
			Reference:  ref,
			Score:      hs.Score,
			Grade:      hg,
			Letter:     scoring.Letter(hg),
			Label:      scoring.Label(hg),
			Exceptions: hs.Exceptions,
			Layout:     pos.Layout(hs.Score, ref),
		})
	}
	return row, nil
}
