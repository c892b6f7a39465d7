// package tasks implements the migration of WordPress entities into the destination content API.
//
// The core abstraction is MigrationEngine, which fans entities of one kind out to a bounded pool of units.
// Operations emit progress updates via channels for non-blocking status reporting to CLI/UI layers.
package tasks

import (
	"context"
	"fmt"
	"io"
	"slices"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/wpx/internal/content"
	"github.com/desertthunder/wpx/internal/models"
	"github.com/desertthunder/wpx/internal/rewriter"
	"github.com/desertthunder/wpx/internal/shared"
)

// DefaultWorkers bounds the number of entities in flight when no value is configured.
const DefaultWorkers = 8

// Source reads every row of a kind in one call.
type Source interface {
	Authors(ctx context.Context) ([]models.Author, error)
	Tags(ctx context.Context) ([]models.Tag, error)
	Posts(ctx context.Context) ([]models.Post, error)
}

// Destination creates entities on the content API.
type Destination interface {
	CreateAuthor(ctx context.Context, p models.AuthorPayload) (models.Reference, error)
	CreateTag(ctx context.Context, p models.TagPayload) (models.Reference, error)
	CreatePost(ctx context.Context, p models.PostPayload) (models.Reference, error)
}

// Uploader sends a legacy asset to the destination.
type Uploader interface {
	Upload(ctx context.Context, req models.AssetRequest) (models.Reference, error)
}

// Transformer rewrites a post body into destination HTML.
type Transformer interface {
	Transform(body string) content.Result
}

// EngineOpts contains the collaborators of a [MigrationEngine].
//
// Uploader may be nil, in which case no asset is uploaded.
type EngineOpts struct {
	Source       Source
	Destination  Destination
	Uploader     Uploader
	Transformer  Transformer
	Rewriter     *rewriter.Rewriter
	Workers      int
	UploadInline bool
	Logger       *log.Logger
}

// MigrationEngine moves authors, tags and posts from a [Source] to a [Destination].
type MigrationEngine struct {
	source       Source
	dest         Destination
	uploader     Uploader
	transformer  Transformer
	rw           *rewriter.Rewriter
	workers      int
	uploadInline bool
	logger       *log.Logger
}

// NewMigrationEngine creates a new MigrationEngine, filling in defaults for optional collaborators.
func NewMigrationEngine(opts EngineOpts) *MigrationEngine {
	e := &MigrationEngine{
		source:       opts.Source,
		dest:         opts.Destination,
		uploader:     opts.Uploader,
		transformer:  opts.Transformer,
		rw:           opts.Rewriter,
		workers:      opts.Workers,
		uploadInline: opts.UploadInline,
		logger:       opts.Logger,
	}
	if e.workers <= 0 {
		e.workers = DefaultWorkers
	}
	if e.rw == nil {
		e.rw = rewriter.New(rewriter.Config{})
	}
	if e.transformer == nil {
		e.transformer = content.NewTransformer(e.rw, content.Options{})
	}
	if e.logger == nil {
		e.logger = shared.NewLogger(io.Discard)
	}
	return e
}

// sendProgress sends a progress update through the channel without blocking.
func (e *MigrationEngine) sendProgress(progress chan<- ProgressUpdate, update ProgressUpdate) {
	if progress == nil {
		return
	}
	select {
	case progress <- update:
	default:
	}
}

// MigrateAuthors creates every author, uploading avatars first.
func (e *MigrationEngine) MigrateAuthors(ctx context.Context, progress chan<- ProgressUpdate) (*KindReport, error) {
	return migrateKind(ctx, e, KindAuthors, progress, e.source.Authors,
		func(a models.Author) (int64, string) { return a.ID, a.Label() },
		e.migrateAuthor)
}

// MigrateTags creates every tag.
func (e *MigrationEngine) MigrateTags(ctx context.Context, progress chan<- ProgressUpdate) (*KindReport, error) {
	return migrateKind(ctx, e, KindTags, progress, e.source.Tags,
		func(t models.Tag) (int64, string) { return t.ID, t.Label() },
		e.migrateTag)
}

// MigratePosts transforms and creates every post, uploading its images first.
func (e *MigrationEngine) MigratePosts(ctx context.Context, progress chan<- ProgressUpdate) (*KindReport, error) {
	return migrateKind(ctx, e, KindPosts, progress, e.source.Posts,
		func(p models.Post) (int64, string) { return p.ID, p.Label() },
		e.migratePost)
}

// MigrateAll runs the requested kinds in dependency order and aggregates their reports.
//
// A kind whose rows cannot be fetched is recorded on the report and the run moves
// on; the returned error joins every fetch failure and is nil when there were none.
func (e *MigrationEngine) MigrateAll(ctx context.Context, kinds []Kind, progress chan<- ProgressUpdate) (*RunReport, error) {
	if len(kinds) == 0 {
		kinds = AllKinds
	}
	kinds = slices.Clone(kinds)
	slices.SortStableFunc(kinds, func(a, b Kind) int { return a.rank() - b.rank() })
	kinds = slices.Compact(kinds)

	report := &RunReport{ID: shared.GenerateID(), StartedAt: time.Now().UTC()}
	logger := shared.WithLogger(e.logger, "run", report.ID)
	logger.Info("migration started", "kinds", kinds, "workers", e.workers)

	for _, k := range kinds {
		var (
			kr  *KindReport
			err error
		)
		switch k {
		case KindAuthors:
			kr, err = e.MigrateAuthors(ctx, progress)
		case KindTags:
			kr, err = e.MigrateTags(ctx, progress)
		case KindPosts:
			kr, err = e.MigratePosts(ctx, progress)
		default:
			return nil, fmt.Errorf("%w: unknown kind %q", shared.ErrInvalidArgument, k)
		}
		if err != nil {
			logger.Error("kind skipped", "kind", k, "error", err)
		}
		report.Kinds = append(report.Kinds, kr)
	}

	report.FinishedAt = time.Now().UTC()
	total, submitted, failed, assetFailures := report.Totals()
	logger.Info("migration finished",
		"total", total, "submitted", submitted, "failed", failed,
		"asset_failures", assetFailures, "duration", report.Duration().Round(time.Millisecond))

	return report, report.FetchErr()
}

func (e *MigrationEngine) migrateAuthor(ctx context.Context, a models.Author, o *Outcome) {
	draft := models.NewAuthorDraft(a)
	if ref, ok := e.uploadPrimary(ctx, models.AssetRequest{Kind: models.AssetAuthor, OwnerID: a.ID, URL: a.ImageURL}, o); ok {
		draft = draft.WithImage(ref)
	}
	o.State = StateTransformed

	ref, err := e.dest.CreateAuthor(ctx, draft.Payload())
	e.finish(o, ref, err)
}

func (e *MigrationEngine) migrateTag(ctx context.Context, t models.Tag, o *Outcome) {
	payload := models.NewTagDraft(t).Payload()
	o.State = StateTransformed

	ref, err := e.dest.CreateTag(ctx, payload)
	e.finish(o, ref, err)
}

func (e *MigrationEngine) migratePost(ctx context.Context, p models.Post, o *Outcome) {
	res := e.transformer.Transform(p.Body)

	if e.uploadInline && e.uploader != nil {
		for _, asset := range res.Assets {
			req := models.AssetRequest{Kind: models.AssetInline, OwnerID: p.ID, URL: asset}
			if _, err := e.uploader.Upload(ctx, req); err != nil {
				o.InlineFailures++
				e.logger.Warn("inline asset failed", "kind", o.Kind, "id", o.SourceID, "url", asset, "error", err)
			}
		}
	}

	draft := models.NewPostDraft(p).WithHTML(res.HTML)
	if ref, ok := e.uploadPrimary(ctx, models.AssetRequest{Kind: models.AssetPost, OwnerID: p.ID, URL: p.ImageURL}, o); ok {
		draft = draft.WithImage(ref)
	}
	o.State = StateTransformed

	ref, err := e.dest.CreatePost(ctx, draft.Payload())
	e.finish(o, ref, err)
}

// uploadPrimary uploads the entity's own image. A failure is recorded on o and
// the entity carries on without the image.
func (e *MigrationEngine) uploadPrimary(ctx context.Context, req models.AssetRequest, o *Outcome) (models.Reference, bool) {
	if req.URL == "" || e.uploader == nil {
		return models.Reference{}, false
	}
	o.AssetPath = e.rw.Rewrite(req.URL)

	ref, err := e.uploader.Upload(ctx, req)
	if err != nil {
		o.AssetError = err.Error()
		e.logger.Warn("asset upload failed", "kind", o.Kind, "id", o.SourceID, "label", o.Label, "error", err)
		return models.Reference{}, false
	}
	o.State = StateAssetResolved
	return ref, true
}

func (e *MigrationEngine) finish(o *Outcome, ref models.Reference, err error) {
	if err != nil {
		o.fail(err)
		e.logger.Error("submission failed", "kind", o.Kind, "id", o.SourceID, "label", o.Label, "error", err)
		return
	}
	o.State = StateSubmitted
	o.Reference = ref
	e.logger.Debug("submitted", "kind", o.Kind, "id", o.SourceID, "ref", ref.ID)
}
