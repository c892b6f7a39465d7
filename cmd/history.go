package main

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/desertthunder/wpx/internal/shared"
	"github.com/urfave/cli/v3"
)

// HistoryList prints recent runs, newest first.
func (r *Runner) HistoryList(ctx context.Context, cmd *cli.Command) error {
	ledger, err := r.runLedger()
	if err != nil {
		return err
	}

	runs, err := ledger.List(int(cmd.Int("limit")))
	if err != nil {
		return err
	}

	if cmd.Bool("json") {
		return r.writeJSON(runs, true)
	}
	if len(runs) == 0 {
		return r.writePlain("No runs recorded.\n")
	}

	r.writePlainHeader("Runs")
	for _, run := range runs {
		r.writePlain("%s  %s  %-20s %d total, %d submitted, %d failed\n",
			run.ID,
			run.StartedAt.Local().Format(time.DateTime),
			strings.Join(run.Kinds, ","),
			run.Total, run.Submitted, run.Failed,
		)
	}
	return nil
}

// HistoryShow prints one run with its failed entities.
func (r *Runner) HistoryShow(ctx context.Context, cmd *cli.Command) error {
	id := cmd.Args().First()
	if id == "" {
		return fmt.Errorf("%w: run id is required", shared.ErrMissingArgument)
	}

	ledger, err := r.runLedger()
	if err != nil {
		return err
	}
	detail, err := ledger.Get(id)
	if err != nil {
		return err
	}

	if cmd.Bool("json") {
		return r.writeJSON(detail, true)
	}

	r.writePlainHeader("Run " + detail.ID)
	r.writePlain("Started: %s\n", detail.StartedAt.Local().Format(time.DateTime))
	r.writePlain("Duration: %s\n", detail.FinishedAt.Sub(detail.StartedAt).Round(time.Millisecond))
	r.writePlain("Kinds: %s\n", strings.Join(detail.Kinds, ", "))
	r.writePlain("Total: %d, submitted: %d, failed: %d, asset failures: %d\n",
		detail.Total, detail.Submitted, detail.Failed, detail.AssetFailures)
	if detail.FetchErrors != "" {
		r.writePlain("\nFetch errors:\n%s\n", detail.FetchErrors)
	}

	if failures := detail.Failures(); len(failures) > 0 {
		r.writePlain("\nFailed (%d):\n", len(failures))
		for _, e := range failures {
			r.writePlain("  %s %d: %s\n", e.Kind, e.SourceID, e.Error)
		}
	}
	return nil
}
