package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/desertthunder/wpx/internal/content"
	"github.com/desertthunder/wpx/internal/shared"
	"github.com/urfave/cli/v3"
)

type rewriteResult struct {
	URL       string `json:"url"`
	Rewritten string `json:"rewritten"`
	Uploads   string `json:"uploads_path,omitempty"`
	SameHost  bool   `json:"same_host"`
}

// Rewrite prints the destination path of every URL argument.
func (r *Runner) Rewrite(ctx context.Context, cmd *cli.Command) error {
	urls := cmd.Args().Slice()
	if len(urls) == 0 {
		return fmt.Errorf("%w: at least one URL is required", shared.ErrMissingArgument)
	}

	rw := r.newRewriter()
	results := make([]rewriteResult, 0, len(urls))
	for _, u := range urls {
		res := rewriteResult{URL: u, Rewritten: rw.Rewrite(u), SameHost: rw.SameHost(u)}
		if p, ok := rw.UploadsPath(u); ok {
			res.Uploads = p
		}
		results = append(results, res)
	}

	if cmd.Bool("json") {
		return r.writeJSON(results, true)
	}
	for _, res := range results {
		r.writePlain("%s\n", res.Rewritten)
	}
	return nil
}

// Transform prints the body file as it would be submitted.
func (r *Runner) Transform(ctx context.Context, cmd *cli.Command) error {
	path := cmd.Args().First()
	if path == "" {
		return fmt.Errorf("%w: file path is required", shared.ErrMissingArgument)
	}

	var (
		body []byte
		err  error
	)
	if path == "-" {
		body, err = io.ReadAll(os.Stdin)
	} else {
		body, err = os.ReadFile(path)
	}
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", path, err)
	}

	t := content.NewTransformer(r.newRewriter(), content.Options{
		PromoThreshold: r.config.Content.PromoThreshold,
		Promos:         r.config.Content.Promos,
		Marker:         r.config.Assets.Marker,
	})

	var res content.Result
	if cmd.Bool("raw") {
		res = t.Render(string(body))
	} else {
		res = t.Transform(string(body))
	}
	r.logger.Debug("transformed", "paragraphs", res.Paragraphs, "assets", len(res.Assets), "promo", res.PromoInjected)

	if cmd.Bool("json") {
		return r.writeJSON(map[string]any{
			"html":           res.HTML,
			"assets":         res.Assets,
			"paragraphs":     res.Paragraphs,
			"promo_injected": res.PromoInjected,
		}, true)
	}
	return r.writePlain("%s\n", res.HTML)
}
