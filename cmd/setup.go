package main

import (
	"context"
	"fmt"

	"github.com/desertthunder/wpx/internal/shared"
	"github.com/urfave/cli/v3"
)

// SetupConfig writes the embedded example config to the --config path.
func (r *Runner) SetupConfig(ctx context.Context, cmd *cli.Command) error {
	path := r.configPath
	if path == "" {
		path = "config.toml"
	}

	if err := shared.CreateConfigFile(path); err != nil {
		return err
	}
	r.logger.Info("config file created", "path", path)

	r.writePlain("✓ Config written to %s\n", path)
	r.writePlain("Set source.dsn, destination.api_url and destination.api_token (or DB_URL, API_URL, API_TOKEN) before migrating.\n")
	return nil
}

// SetupDatabase initializes the run ledger and runs migrations.
func (r *Runner) SetupDatabase(ctx context.Context, cmd *cli.Command) error {
	path := r.config.Ledger.Path
	r.logger.Info("initializing database", "path", path)

	db, err := r.openLedgerDB()
	if err != nil {
		return err
	}
	defer db.Close()

	applied, err := shared.AppliedMigrations(ctx, db)
	if err != nil {
		return fmt.Errorf("failed to read migrations: %w", err)
	}

	r.logger.Infof("setup complete for database: %v", path)
	r.writePlain("✓ Ledger ready at %s (%d migrations applied)\n", path, len(applied))
	return nil
}
