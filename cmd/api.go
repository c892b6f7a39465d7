package main

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/desertthunder/wpx/internal/services"
	"github.com/desertthunder/wpx/internal/shared"
	"github.com/urfave/cli/v3"
)

// APIGet makes a direct GET request to the content API.
func (r *Runner) APIGet(ctx context.Context, cmd *cli.Command) error {
	path := cmd.Args().First()
	if path == "" {
		return fmt.Errorf("%w: path is required", shared.ErrMissingArgument)
	}

	api, err := r.contentAPI()
	if err != nil {
		return err
	}

	r.logger.Info("GET request", "path", path)
	resp, err := api.Get(ctx, path)
	if err != nil {
		return fmt.Errorf("%w: %v", services.ErrTransport, err)
	}
	return r.writeResponse(path, resp, !cmd.Bool("json"))
}

// APIPost makes a direct POST request to the content API.
func (r *Runner) APIPost(ctx context.Context, cmd *cli.Command) error {
	path := cmd.Args().First()
	if path == "" {
		return fmt.Errorf("%w: path is required", shared.ErrMissingArgument)
	}
	data := cmd.String("data")

	var jsonTest any
	if err := json.Unmarshal([]byte(data), &jsonTest); err != nil {
		return fmt.Errorf("%w: data is not valid JSON: %v", shared.ErrInvalidInput, err)
	}

	api, err := r.contentAPI()
	if err != nil {
		return err
	}

	r.logger.Info("POST request", "path", path)
	resp, err := api.Post(ctx, path, []byte(data))
	if err != nil {
		return fmt.Errorf("%w: %v", services.ErrTransport, err)
	}
	return r.writeResponse(path, resp, true)
}

func (r *Runner) writeResponse(path string, resp *services.APIResponse, pretty bool) error {
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &services.Failure{
			Kind:     services.ClassifyStatus(resp.StatusCode),
			Endpoint: path,
			Status:   resp.StatusCode,
			Body:     string(resp.Body),
		}
	}

	if resp.IsJSON {
		return r.writeJSON(resp.JSONData, pretty)
	}
	return r.writePlain("%s\n", resp.Body)
}
