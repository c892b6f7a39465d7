package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/desertthunder/wpx/internal/services"
	"github.com/urfave/cli/v3"
)

type pinger interface {
	Ping(ctx context.Context) error
}

// Health pings the WordPress database and the content API.
//
// Both checks always run; the returned error joins whichever failed.
func (r *Runner) Health(ctx context.Context, cmd *cli.Command) error {
	var errs []error

	r.writePlainHeader("Health")

	if err := r.checkSource(ctx); err != nil {
		r.writePlain("✗ WordPress database: %v\n", err)
		errs = append(errs, err)
	} else {
		r.writePlain("✓ WordPress database\n")
	}

	if err := r.checkDestination(ctx); err != nil {
		r.writePlain("✗ Content API: %v\n", err)
		errs = append(errs, err)
	} else {
		r.writePlain("✓ Content API (%s)\n", r.api.BaseURL())
	}

	return errors.Join(errs...)
}

func (r *Runner) checkSource(ctx context.Context) error {
	src, err := r.wordpress()
	if err != nil {
		return err
	}
	p, ok := src.(pinger)
	if !ok {
		r.logger.Debug("source does not support ping; skipping")
		return nil
	}
	return p.Ping(ctx)
}

func (r *Runner) checkDestination(ctx context.Context) error {
	api, err := r.contentAPI()
	if err != nil {
		return err
	}
	if err := services.NewContentService(api).Health(ctx); err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	return nil
}
