package cli

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/mchmarny/safegrade/pkg/data"
	urfave "github.com/urfave/cli/v3"
)

var (
	runIDFlag = &urfave.StringSliceFlag{
		Name:     "run",
		Aliases:  []string{"r"},
		Usage:    "ID of a stored run (can be specified multiple times)",
		Required: true,
	}

	runsCmd = &urfave.Command{
		Name:   "runs",
		Usage:  "List stored runs",
		Action: cmdRuns,
	}

	deleteCmd = &urfave.Command{
		Name:   "delete",
		Usage:  "Delete stored runs",
		Action: cmdDelete,
		Flags: []urfave.Flag{
			runIDFlag,
		},
	}
)

type runList struct {
	Runs  []*data.Run      `json:"runs" yaml:"runs"`
	State map[string]int64 `json:"state" yaml:"state"`
}

func cmdRuns(_ context.Context, cmd *urfave.Command) error {
	cfg := getConfig(cmd)

	list, err := listRuns(cfg)
	if err != nil {
		return err
	}
	return encode(cmd, list)
}

func listRuns(cfg *appConfig) (*runList, error) {
	runs, err := data.ListRuns(cfg.DB)
	if err != nil {
		return nil, fmt.Errorf("listing runs: %w", err)
	}
	state, err := data.GetDataState(cfg.DB)
	if err != nil {
		return nil, fmt.Errorf("getting data state: %w", err)
	}
	return &runList{Runs: runs, State: state}, nil
}

func cmdDelete(_ context.Context, cmd *urfave.Command) error {
	cfg := getConfig(cmd)

	for _, id := range cmd.StringSlice(runIDFlag.Name) {
		if err := data.DeleteRun(cfg.DB, id); err != nil {
			return fmt.Errorf("deleting run %s: %w", id, err)
		}
		slog.Info("run deleted", "id", id)
	}
	return nil
}
