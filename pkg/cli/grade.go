package cli

import (
	"context"
	"fmt"

	"github.com/mchmarny/safegrade/pkg/report"
	urfave "github.com/urfave/cli/v3"
)

var gradeCmd = &urfave.Command{
	Name:    "grade",
	Aliases: []string{"g"},
	Usage:   "Grade stored runs and print the report",
	UsageText: `safegrade grade --run run-1                    # grade one run
   safegrade grade -r run-1 -r run-2 --format yaml   # grade several runs`,
	Action: cmdGrade,
	Flags: []urfave.Flag{
		runIDFlag,
	},
}

func cmdGrade(ctx context.Context, cmd *urfave.Command) error {
	cfg := getConfig(cmd)

	r, err := gradeRuns(ctx, cfg, cmd.StringSlice(runIDFlag.Name))
	if err != nil {
		return err
	}
	return encode(cmd, r)
}

func gradeRuns(ctx context.Context, cfg *appConfig, ids []string) (*report.Report, error) {
	scores, err := scoreRuns(cfg, ids)
	if err != nil {
		return nil, err
	}
	r, err := report.Build(ctx, scores, cfg.Positions)
	if err != nil {
		return nil, fmt.Errorf("building report: %w", err)
	}
	return r, nil
}
