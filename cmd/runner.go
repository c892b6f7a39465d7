package main

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/wpx/internal/repositories"
	"github.com/desertthunder/wpx/internal/rewriter"
	"github.com/desertthunder/wpx/internal/services"
	"github.com/desertthunder/wpx/internal/shared"
	"github.com/desertthunder/wpx/internal/tasks"
	"github.com/urfave/cli/v3"
)

// Runner holds all dependencies for CLI commands and provides methods for each command action.
//
// Collaborators left nil in [RunnerOpts] are built from the loaded config on first use.
type Runner struct {
	config     *shared.Config
	configPath string
	fixed      bool // config was injected and must not be reloaded
	api        *services.APIService
	source     tasks.Source
	ledger     *repositories.RunRepository
	httpClient *http.Client
	logger     *log.Logger
	output     io.Writer
	closers    []io.Closer
}

// RunnerOpts contains configuration options for creating a Runner.
type RunnerOpts struct {
	Config     *shared.Config
	ConfigPath string
	API        *services.APIService
	Source     tasks.Source
	Ledger     *repositories.RunRepository
	HTTPClient *http.Client
	Logger     *log.Logger
	Output     io.Writer
}

// NewRunner creates a new Runner with the provided configuration
func NewRunner(opts RunnerOpts) *Runner {
	fixed := opts.Config != nil
	if opts.Config == nil {
		opts.Config = shared.DefaultConfig()
	}
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}
	if opts.Output == nil {
		opts.Output = os.Stdout
	}

	return &Runner{
		config:     opts.Config,
		configPath: opts.ConfigPath,
		fixed:      fixed,
		api:        opts.API,
		source:     opts.Source,
		ledger:     opts.Ledger,
		httpClient: opts.HTTPClient,
		logger:     opts.Logger,
		output:     opts.Output,
	}
}

// SetLogger swaps the logger, e.g. for a file logger while the TUI owns the terminal.
func (r *Runner) SetLogger(l *log.Logger) {
	r.logger = l
}

// app builds the root command.
func (r *Runner) app() *cli.Command {
	return &cli.Command{
		Name:    "wpx",
		Usage:   "Migrate WordPress authors, tags and posts into a content API",
		Version: "0.3.0",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to configuration file",
				Value:   "config.toml",
			},
			&cli.BoolFlag{
				Name:  "verbose",
				Usage: "Enable debug logging",
			},
		},
		Before:   r.before,
		After:    r.after,
		Commands: r.register(),
	}
}

func (r *Runner) register() []*cli.Command {
	commands := []*cli.Command{}
	for _, fn := range [](func(*Runner) *cli.Command){
		setupCommand, healthCommand, migrateCommand, rewriteCommand, transformCommand, historyCommand, apiCommand,
	} {
		commands = append(commands, fn(r))
	}

	return commands
}

// before loads the config named by --config, falling back to the embedded defaults when the file is missing.
func (r *Runner) before(ctx context.Context, cmd *cli.Command) (context.Context, error) {
	if cmd.Bool("verbose") {
		shared.SetLogLevel(r.logger, log.DebugLevel)
	}
	if r.configPath == "" || cmd.IsSet("config") {
		r.configPath = cmd.String("config")
	}
	if r.fixed {
		return ctx, nil
	}

	if _, err := os.Stat(r.configPath); err == nil {
		config, err := shared.LoadConfig(r.configPath)
		if err != nil {
			return ctx, err
		}
		r.config = config
	} else {
		r.logger.Debug("config file not found, using defaults", "path", r.configPath)
	}
	r.config.ApplyEnv(os.LookupEnv)
	return ctx, nil
}

func (r *Runner) after(ctx context.Context, cmd *cli.Command) error {
	var errs []error
	for _, c := range r.closers {
		errs = append(errs, c.Close())
	}
	r.closers = nil
	return errors.Join(errs...)
}

// contentAPI returns the destination API client, building it from config on first use.
func (r *Runner) contentAPI() (*services.APIService, error) {
	if r.api != nil {
		return r.api, nil
	}
	d := r.config.Destination
	if d.APIURL == "" {
		return nil, fmt.Errorf("%w: destination.api_url is empty", shared.ErrMissingConfig)
	}
	if d.APIToken == "" {
		r.logger.Warn("no API token configured; requests will be unauthenticated")
	}

	client := r.httpClient
	if client == nil {
		client = services.NewHTTPClient(d.APIToken, d.Timeout(), d.InsecureSkipVerify)
	}
	r.api = services.NewAPIService(d.APIURL, client)
	return r.api, nil
}

// wordpress returns the WordPress source, opening the database on first use.
func (r *Runner) wordpress() (tasks.Source, error) {
	if r.source != nil {
		return r.source, nil
	}
	s := r.config.Source
	if s.DSN == "" {
		return nil, fmt.Errorf("%w: source.dsn is empty", shared.ErrMissingConfig)
	}

	db, err := shared.OpenDatabase(s.Driver, s.DSN)
	if err != nil {
		return nil, err
	}
	shared.ConfigureDatabase(db, s.MaxOpenConns, s.MaxIdleConns)

	src, err := repositories.NewWordPressSource(db, repositories.SourceOpts{
		TablePrefix:        s.TablePrefix,
		TagTaxonomy:        s.TagTaxonomy,
		AuthorImageMetaKey: s.AuthorImageMetaKey,
	})
	if err != nil {
		db.Close()
		return nil, err
	}
	r.closers = append(r.closers, db)
	r.source = src
	return src, nil
}

// runLedger returns the run history repository, migrating the ledger database on first use.
func (r *Runner) runLedger() (*repositories.RunRepository, error) {
	if r.ledger != nil {
		return r.ledger, nil
	}
	db, err := r.openLedgerDB()
	if err != nil {
		return nil, err
	}
	r.closers = append(r.closers, db)
	r.ledger = repositories.NewRunRepository(db)
	return r.ledger, nil
}

func (r *Runner) openLedgerDB() (*sql.DB, error) {
	l := r.config.Ledger
	db, err := shared.NewDatabase(l.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to open ledger: %w", err)
	}
	shared.ConfigureDatabase(db, l.MaxOpenConns, l.MaxIdleConns)

	if err := shared.RunMigrations(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}
	return db, nil
}

// newRewriter builds the URL rewriter from the assets config.
func (r *Runner) newRewriter() *rewriter.Rewriter {
	a := r.config.Assets
	subs := make([]rewriter.Substitution, 0, len(a.Substitutions))
	for _, s := range a.Substitutions {
		subs = append(subs, rewriter.Substitution{Pattern: s.Pattern, Replacement: s.Replacement})
	}
	return rewriter.New(rewriter.Config{
		BaseURL:       a.BaseURL,
		Substitutions: subs,
		Marker:        a.Marker,
		ImageRoot:     a.ImageRoot,
	})
}

func (r *Runner) writeJSON(data any, pretty bool) error {
	var output []byte
	var err error

	if pretty {
		output, err = json.MarshalIndent(data, "", "  ")
	} else {
		output, err = json.Marshal(data)
	}

	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}

	if _, err := r.output.Write(output); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}

	if _, err := r.output.Write([]byte("\n")); err != nil {
		return fmt.Errorf("failed to write newline: %w", err)
	}

	return nil
}

func (r *Runner) writePlain(format string, args ...any) error {
	text := fmt.Sprintf(format, args...)
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func (r *Runner) writePlainHeader(title string) {
	r.writePlain("═══════════════════════════════════════\n")
	r.writePlain("%v\n", title)
	r.writePlain("═══════════════════════════════════════\n")
}
