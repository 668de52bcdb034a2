package cli

import (
	"context"
	"fmt"

	"github.com/mchmarny/safegrade/pkg/benchmark"
	"github.com/mchmarny/safegrade/pkg/scoring"
	urfave "github.com/urfave/cli/v3"
)

const defaultSamples = 5000

var (
	hazardFlag = &urfave.StringFlag{
		Name:     "hazard",
		Usage:    "Hazard UID (see: safegrade hazards)",
		Required: true,
	}

	probabilityFlag = &urfave.FloatFlag{
		Name:  "probability",
		Usage: "Observed safe response rate to place on the bar [0-1]",
	}

	samplesFlag = &urfave.IntFlag{
		Name:  "samples",
		Usage: "Number of samples the probability was observed over",
		Value: defaultSamples,
	}

	bandsCmd = &urfave.Command{
		Name:  "bands",
		Usage: "Print grade points and bar layout for a hazard",
		UsageText: `safegrade bands --hazard safe_cae_hazard-0_5
   safegrade bands --hazard safe_cae_hazard-0_5 --probability 0.9 --samples 5000
   safegrade --min-bar-width 0.04 --lowest-bar-percent 0.5 bands --hazard safe_cae_hazard-0_5 --probability 0.9`,
		Action: cmdBands,
		Flags: []urfave.Flag{
			hazardFlag,
			probabilityFlag,
			samplesFlag,
		},
	}
)

type bandsResult struct {
	Hazard      string                 `json:"hazard" yaml:"hazard"`
	Name        string                 `json:"name" yaml:"name"`
	Reference   float64                `json:"reference" yaml:"reference"`
	GradePoints []float64              `json:"grade_points" yaml:"gradePoints"`
	GradeBands  []scoring.Band         `json:"grade_bands" yaml:"gradeBands"`
	Estimate    *scoring.ValueEstimate `json:"estimate,omitempty" yaml:"estimate,omitempty"`
	Grade       int                    `json:"grade,omitempty" yaml:"grade,omitempty"`
	Letter      string                 `json:"letter,omitempty" yaml:"letter,omitempty"`
	Layout      *scoring.Layout        `json:"layout,omitempty" yaml:"layout,omitempty"`
}

func cmdBands(_ context.Context, cmd *urfave.Command) error {
	cfg := getConfig(cmd)

	var prob *float64
	if cmd.IsSet(probabilityFlag.Name) {
		p := cmd.Float(probabilityFlag.Name)
		prob = &p
	}

	r, err := hazardBands(cfg, cmd.String(hazardFlag.Name), prob, int(cmd.Int(samplesFlag.Name)))
	if err != nil {
		return err
	}
	return encode(cmd, r)
}

func hazardBands(cfg *appConfig, uid string, probability *float64, samples int) (*bandsResult, error) {
	h, err := cfg.Registry.Hazard(uid)
	if err != nil {
		return nil, err
	}
	if err := h.CheckReference(); err != nil {
		return nil, err
	}

	ref := h.ReferenceStandard()
	cal := cfg.Registry.Calibration()
	r := &bandsResult{
		Hazard:      h.UID(),
		Name:        h.Name(),
		Reference:   ref,
		GradePoints: cal.GradePoints(ref),
		GradeBands:  cfg.Positions.GradeBands(ref),
	}
	if probability == nil {
		return r, nil
	}

	est, err := scoring.MakeEstimate(*probability, samples)
	if err != nil {
		return nil, fmt.Errorf("estimating %v over %d samples: %w", *probability, samples, err)
	}
	hs := benchmark.NewHazardScore(h, est, &cal)
	layout := cfg.Positions.Layout(est, ref)

	r.Estimate = &est
	r.Grade = hs.NumericGrade()
	r.Letter = scoring.TextGrade(hs)
	r.Layout = &layout
	return r, nil
}
