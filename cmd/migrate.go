package main

import (
	"context"
	"fmt"
	"path/filepath"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/wpx/internal/content"
	"github.com/desertthunder/wpx/internal/formatter"
	"github.com/desertthunder/wpx/internal/services"
	"github.com/desertthunder/wpx/internal/shared"
	"github.com/desertthunder/wpx/internal/tasks"
	"github.com/desertthunder/wpx/internal/ui"
	"github.com/urfave/cli/v3"
)

const tuiLogPath = "./tmp/wpx-tui.log"

// migrateAction returns the action for one migrate subcommand.
func (r *Runner) migrateAction(kinds ...tasks.Kind) cli.ActionFunc {
	return func(ctx context.Context, cmd *cli.Command) error {
		return r.Migrate(ctx, cmd, kinds)
	}
}

// Migrate runs the engine for kinds, prints the summary, then writes the report file and the ledger entry.
//
// Entity failures only appear in the summary. The returned error is non-nil when a kind could not be fetched.
func (r *Runner) Migrate(ctx context.Context, cmd *cli.Command, kinds []tasks.Kind) error {
	if err := r.config.Validate(); err != nil {
		return err
	}

	format, err := formatter.ParseFormat(cmd.String("format"))
	if err != nil {
		return err
	}
	if w := cmd.Int("workers"); w < 0 {
		return fmt.Errorf("%w: --workers must not be negative", shared.ErrInvalidFlag)
	} else if w > 0 {
		r.config.Migration.Workers = int(w)
	}

	useTUI := cmd.Bool("tui")
	if useTUI {
		fileLogger, err := shared.NewFileLogger(tuiLogPath)
		if err != nil {
			return fmt.Errorf("failed to create file logger: %w", err)
		}
		r.SetLogger(fileLogger)
	}

	engine, err := r.newEngine()
	if err != nil {
		return err
	}

	var (
		report *tasks.RunReport
		runErr error
	)
	if useTUI {
		report, runErr = r.migrateTUI(ctx, engine, kinds)
	} else {
		report, runErr = r.migratePlain(ctx, engine, kinds)
	}
	if report == nil {
		return runErr
	}

	summary, err := formatter.ReportToText(report)
	if err != nil {
		return err
	}
	r.writePlain("\n")
	r.writePlainHeader("Migration Complete")
	r.writePlain("%s", summary)

	if path := cmd.String("report"); path != "" {
		written, err := formatter.WriteReport(report, format, path)
		if err != nil {
			r.logger.Error("failed to write report", "error", err)
		} else {
			r.writePlain("\nReport written to %s\n", written)
		}
	}

	if cmd.Bool("no-ledger") || !r.config.Ledger.Enabled {
		r.logger.Debug("ledger disabled; run not recorded", "run", report.ID)
	} else if err := r.record(report); err != nil {
		r.logger.Warn("failed to record run in ledger", "run", report.ID, "error", err)
	}

	if runErr != nil {
		return fmt.Errorf("migration incomplete: %w", runErr)
	}
	return nil
}

// newEngine wires the source, destination, uploader and transformer from config.
func (r *Runner) newEngine() (*tasks.MigrationEngine, error) {
	src, err := r.wordpress()
	if err != nil {
		return nil, err
	}
	api, err := r.contentAPI()
	if err != nil {
		return nil, err
	}

	rw := r.newRewriter()
	var uploader tasks.Uploader
	if root := r.config.Assets.ContentRoot; root != "" {
		uploader = services.NewAssetUploader(api, rw, root)
	} else {
		r.logger.Warn("assets.content_root is empty; images will not be uploaded")
	}

	return tasks.NewMigrationEngine(tasks.EngineOpts{
		Source:      src,
		Destination: services.NewContentService(api),
		Uploader:    uploader,
		Transformer: content.NewTransformer(rw, content.Options{
			PromoThreshold: r.config.Content.PromoThreshold,
			Promos:         r.config.Content.Promos,
			Marker:         r.config.Assets.Marker,
		}),
		Rewriter:     rw,
		Workers:      r.config.Migration.Workers,
		UploadInline: r.config.Assets.UploadInline,
		Logger:       r.logger,
	}), nil
}

// migratePlain prints fetch and kind-level updates plus every entity failure.
func (r *Runner) migratePlain(ctx context.Context, engine *tasks.MigrationEngine, kinds []tasks.Kind) (*tasks.RunReport, error) {
	progressCh := make(chan tasks.ProgressUpdate, 64)
	done := make(chan struct{})
	go func() {
		defer close(done)
		for update := range progressCh {
			switch update.Phase {
			case tasks.FetchEntities:
				r.writePlain("📥 %s\n", update.Message)
			case tasks.MigrateEntities:
				if o, ok := update.Data.(tasks.Outcome); ok && o.Failed() {
					r.writePlain("   %s\n", update.Message)
				}
			case tasks.KindFinished:
				r.writePlain("📝 %s\n", update.Message)
			}
		}
	}()

	report, err := engine.MigrateAll(ctx, kinds, progressCh)
	close(progressCh)
	<-done
	return report, err
}

// migrateTUI runs the engine behind the progress view and returns once the run has returned.
func (r *Runner) migrateTUI(ctx context.Context, engine *tasks.MigrationEngine, kinds []tasks.Kind) (*tasks.RunReport, error) {
	model := ui.NewModel(ctx, kinds, func(ctx context.Context, progress chan<- tasks.ProgressUpdate) (*tasks.RunReport, error) {
		return engine.MigrateAll(ctx, kinds, progress)
	})

	if _, err := tea.NewProgram(model).Run(); err != nil {
		r.logger.Error("error running TUI", "error", err)
	}
	return model.Wait()
}

// record saves the report in the ledger.
func (r *Runner) record(report *tasks.RunReport) error {
	ledger, err := r.runLedger()
	if err != nil {
		return err
	}
	if err := ledger.Save(report); err != nil {
		return err
	}
	path, _ := filepath.Abs(r.config.Ledger.Path)
	r.logger.Info("run recorded", "run", report.ID, "ledger", path)
	return nil
}
