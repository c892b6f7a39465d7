package tasks

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/desertthunder/wpx/internal/shared"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"
)

// progressLogInterval spaces out the plain-text progress lines written while a kind runs.
const progressLogInterval = 2 * time.Second

// migrateKind fetches every row of a kind and runs one unit per row on the bounded pool.
func migrateKind[T any](
	ctx context.Context,
	e *MigrationEngine,
	kind Kind,
	progress chan<- ProgressUpdate,
	fetch func(context.Context) ([]T, error),
	describe func(T) (int64, string),
	unit func(context.Context, T, *Outcome),
) (*KindReport, error) {
	report := &KindReport{Kind: kind, StartedAt: time.Now().UTC()}
	logger := shared.WithLogger(e.logger, "kind", kind)

	e.sendProgress(progress, fetchingUpdate(kind))
	items, err := fetch(ctx)
	if err != nil {
		err = fmt.Errorf("%w: %s: %w", shared.ErrFetchFailed, kind, err)
		report.setFetchError(err)
		report.FinishedAt = time.Now().UTC()
		e.sendProgress(progress, fetchFailedUpdate(kind, err))
		return report, err
	}

	logger.Info("fetched", "count", len(items))
	e.sendProgress(progress, fetchedUpdate(kind, len(items)))

	report.Outcomes = runUnits(ctx, e, kind, items, progress, describe, unit)
	report.tally()
	report.FinishedAt = time.Now().UTC()

	logger.Info("done", "submitted", report.Submitted, "failed", report.Failed, "asset_failures", report.AssetFailures)
	e.sendProgress(progress, kindFinishedUpdate(report))
	return report, nil
}

// runUnits executes unit for every item with at most e.workers in flight.
//
// Each unit writes only its own slot of the returned slice. Units never fail the
// group, so one entity's error cannot cancel another. Items not yet started when
// ctx is done are recorded as failed.
func runUnits[T any](
	ctx context.Context,
	e *MigrationEngine,
	kind Kind,
	items []T,
	progress chan<- ProgressUpdate,
	describe func(T) (int64, string),
	unit func(context.Context, T, *Outcome),
) []Outcome {
	outcomes := make([]Outcome, len(items))
	total := len(items)

	var (
		done  atomic.Int64
		every = rate.Sometimes{Interval: progressLogInterval}
		g     errgroup.Group
	)
	g.SetLimit(e.workers)

	report := func(i int) {
		n := int(done.Add(1))
		e.sendProgress(progress, entityUpdate(n, total, outcomes[i]))
		every.Do(func() {
			e.logger.Info("progress", "kind", kind, "done", n, "total", total)
		})
	}

	for i, item := range items {
		id, label := describe(item)
		outcomes[i] = Outcome{Kind: kind, SourceID: id, Label: label, State: StateFetched}

		if err := ctx.Err(); err != nil {
			outcomes[i].fail(err)
			report(i)
			continue
		}

		g.Go(func() error {
			safeUnit(ctx, e, item, &outcomes[i], unit)
			report(i)
			return nil
		})
	}

	g.Wait()
	return outcomes
}

// safeUnit converts a panic inside unit into a failed outcome.
func safeUnit[T any](ctx context.Context, e *MigrationEngine, item T, o *Outcome, unit func(context.Context, T, *Outcome)) {
	defer func() {
		if r := recover(); r != nil {
			o.fail(fmt.Errorf("panic: %v", r))
			e.logger.Error("unit panicked", "kind", o.Kind, "id", o.SourceID, "label", o.Label, "panic", r)
		}
	}()
	unit(ctx, item, o)
}
