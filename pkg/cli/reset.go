package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/mchmarny/safegrade/pkg/data"
	urfave "github.com/urfave/cli/v3"
)

var (
	yesFlag = &urfave.BoolFlag{
		Name:    "yes",
		Aliases: []string{"y"},
		Usage:   "Skip the confirmation prompt",
	}

	resetCmd = &urfave.Command{
		Name:   "reset",
		Usage:  "Delete all stored runs and start fresh",
		Action: cmdReset,
		Flags: []urfave.Flag{
			yesFlag,
		},
	}
)

func cmdReset(_ context.Context, cmd *urfave.Command) error {
	cfg := getConfig(cmd)
	w := cmd.Root().Writer

	if !cmd.Bool(yesFlag.Name) {
		ok, err := confirm(cmd.Root().Reader, w, fmt.Sprintf("This will permanently delete all runs in %s", cfg.DSN))
		if err != nil {
			return err
		}
		if !ok {
			fmt.Fprintln(w, "Aborted.")
			return nil
		}
	}

	n, err := data.DeleteAllRuns(cfg.DB)
	if err != nil {
		return fmt.Errorf("resetting database: %w", err)
	}

	slog.Info("database reset", "runs", n)
	fmt.Fprintln(w, "Reset complete.")
	return nil
}

func confirm(r io.Reader, w io.Writer, msg string) (bool, error) {
	fmt.Fprintln(w, msg)
	fmt.Fprint(w, "Are you sure? [y/N]: ")

	answer, err := bufio.NewReader(r).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return false, fmt.Errorf("reading input: %w", err)
	}
	return strings.ToLower(strings.TrimSpace(answer)) == "y", nil
}
