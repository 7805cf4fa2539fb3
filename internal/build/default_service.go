package build

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"time"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/osfs"
	"github.com/go-git/go-billy/v5/util"
	"github.com/google/uuid"

	"git.home.luguber.info/inful/sitebuilder/internal/config"
	"git.home.luguber.info/inful/sitebuilder/internal/export"
	foundation "git.home.luguber.info/inful/sitebuilder/internal/foundation/errors"
	"git.home.luguber.info/inful/sitebuilder/internal/frontmatter"
	"git.home.luguber.info/inful/sitebuilder/internal/logfields"
	"git.home.luguber.info/inful/sitebuilder/internal/markdown"
	"git.home.luguber.info/inful/sitebuilder/internal/metrics"
	"git.home.luguber.info/inful/sitebuilder/internal/observability"
	"git.home.luguber.info/inful/sitebuilder/internal/sitetree"
	"git.home.luguber.info/inful/sitebuilder/internal/theme"
	"git.home.luguber.info/inful/sitebuilder/internal/walk"
)

// DefaultService is the standard implementation of Service.
type DefaultService struct {
	recorder metrics.Recorder
	logger   *slog.Logger
	newID    func() string
}

// NewService creates a DefaultService that records no metrics.
func NewService() *DefaultService {
	return &DefaultService{
		recorder: metrics.NoopRecorder{},
		logger:   slog.Default(),
		newID:    uuid.NewString,
	}
}

// WithRecorder sets the metrics recorder.
func (s *DefaultService) WithRecorder(r metrics.Recorder) *DefaultService {
	if r == nil {
		r = metrics.NoopRecorder{}
	}
	s.recorder = r
	return s
}

// WithLogger sets the logger handed to the walker, builder and renderer.
func (s *DefaultService) WithLogger(l *slog.Logger) *DefaultService {
	if l != nil {
		s.logger = l
	}
	return s
}

type buildStage struct {
	name string
	fn   func(context.Context) error
}

// run carries the state of one build between stages.
type run struct {
	svc    *DefaultService
	req    Request
	cfg    *config.Config
	result *Result
}

// Run executes the build pipeline.
func (s *DefaultService) Run(ctx context.Context, req Request) (*Result, error) {
	startTime := time.Now()
	result := &Result{StartTime: startTime, BuildID: s.newID()}
	ctx = observability.WithBuildID(ctx, result.BuildID)

	if req.Config == nil {
		s.finish(result, StatusFailed)
		return result, foundation.WrapError(ErrNoConfig, foundation.CategoryConfig, "config required").Build()
	}

	r := &run{svc: s, req: req, cfg: req.Config, result: result}
	stages := []buildStage{
		{StageWalk, r.walk},
		{StageValidate, r.validate},
		{StageMenus, r.menus},
	}
	if !req.Options.CheckOnly {
		stages = append(stages, buildStage{StageRender, r.render})
		if req.Config.Export.SQLite != "" && !req.Options.SkipExport {
			stages = append(stages, buildStage{StageExport, r.export})
		}
	}

	for _, stage := range stages {
		if err := ctx.Err(); err != nil {
			s.recorder.IncStageResult(stage.name, metrics.ResultCanceled)
			s.finish(result, StatusCancelled)
			return result, err
		}
		stageCtx := observability.WithStage(ctx, stage.name)
		stageStart := time.Now()
		observability.DebugContext(stageCtx, "Stage started")

		err := stage.fn(stageCtx)
		s.recorder.ObserveStageDuration(stage.name, time.Since(stageStart))
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				s.recorder.IncStageResult(stage.name, metrics.ResultCanceled)
				s.finish(result, StatusCancelled)
				return result, err
			}
			s.recorder.IncStageResult(stage.name, metrics.ResultFatal)
			observability.ErrorContext(stageCtx, "Stage failed", logfields.Error(err))
			s.finish(result, StatusFailed)
			return result, err
		}
		if stage.name == StageWalk && len(result.Skipped) > 0 {
			s.recorder.IncStageResult(stage.name, metrics.ResultWarning)
		} else {
			s.recorder.IncStageResult(stage.name, metrics.ResultSuccess)
		}
		observability.DebugContext(stageCtx, "Stage completed",
			logfields.DurationMS(float64(time.Since(stageStart).Milliseconds())))
	}

	status := StatusSuccess
	if len(result.Skipped) > 0 {
		status = StatusWarning
	}
	s.finish(result, status)
	observability.InfoContext(ctx, "Build completed",
		slog.String("status", string(status)),
		logfields.Count(result.Pages),
		slog.Int("skipped", len(result.Skipped)),
		logfields.DurationMS(float64(result.Duration.Milliseconds())))
	return result, nil
}

func (s *DefaultService) finish(result *Result, status Status) {
	result.Status = status
	result.EndTime = time.Now()
	result.Duration = result.EndTime.Sub(result.StartTime)
	s.recorder.ObserveBuildDuration(result.Duration)

	switch status {
	case StatusSuccess:
		s.recorder.IncBuildOutcome(metrics.BuildOutcomeSuccess)
	case StatusWarning:
		s.recorder.IncBuildOutcome(metrics.BuildOutcomeWarning)
	case StatusCancelled:
		s.recorder.IncBuildOutcome(metrics.BuildOutcomeCanceled)
	default:
		s.recorder.IncBuildOutcome(metrics.BuildOutcomeFailed)
	}
}

func (r *run) walk(ctx context.Context) error {
	content := r.req.Content
	if content == nil {
		content = osfs.New(r.cfg.Content.Dir)
	}

	types := make([]sitetree.TaxonomyType, 0, len(r.cfg.Taxonomies))
	for _, t := range r.cfg.Taxonomies {
		types = append(types, sitetree.TaxonomyType{Singular: t.Singular, Plural: t.Plural})
	}
	registry := sitetree.NewRegistry(types...)

	renderer := markdown.NewRenderer(markdown.Options{
		UnsafeHTML: r.cfg.Markdown.UnsafeHTML,
		HardWraps:  r.cfg.Markdown.HardWraps,
	})
	builder := sitetree.NewBuilder(registry, frontmatter.NewDecoder(), renderer, r.svc.logger)

	walker, err := walk.New(content, "/", r.cfg.Content.Ignore, r.svc.logger)
	if err != nil {
		return err
	}
	observability.InfoContext(ctx, "Walking content", logfields.Dir(r.cfg.Content.Dir))
	if err := walker.Walk(ctx, builder); err != nil {
		return err
	}

	root, err := builder.Root()
	if err != nil {
		return foundation.WrapError(err, foundation.CategoryWalk, "content tree incomplete").
			WithContext("dir", r.cfg.Content.Dir).
			Fatal().
			Build()
	}
	if root == nil {
		return foundation.WrapError(ErrNoRoot, foundation.CategoryWalk, "no content found").
			WithContext("dir", r.cfg.Content.Dir).
			Fatal().
			Build()
	}
	root.FillDefaults(sitetree.Fields{
		Title:       r.cfg.Site.Title,
		Description: r.cfg.Site.Description,
		Author:      r.cfg.Site.Author,
	})

	r.result.Root = root
	r.result.Registry = registry
	r.result.FilesProcessed = builder.Processed()
	r.result.Skipped = builder.Skipped()
	r.svc.recorder.AddFiles(metrics.FileProcessed, r.result.FilesProcessed)
	r.svc.recorder.AddFiles(metrics.FileSkipped, len(r.result.Skipped))

	pages := 0
	_ = root.Walk(func(*sitetree.Page) error {
		pages++
		return nil
	})
	r.result.Pages = pages
	r.svc.recorder.SetPages(pages)
	for t, terms := range registry.Terms() {
		r.svc.recorder.SetTaxonomyTerms(t.Plural, len(terms))
	}
	return nil
}

func (r *run) validate(context.Context) error {
	if err := r.result.Root.Validate(); err != nil {
		return validationError(err, "invalid content tree")
	}
	if err := r.result.Registry.CheckCollisions(r.result.Root); err != nil {
		return validationError(err, "page collides with taxonomy page")
	}
	return nil
}

func validationError(err error, msg string) error {
	b := foundation.WrapError(err, foundation.CategoryValidation, msg).Fatal()
	var verr *sitetree.ValidationError
	if errors.As(err, &verr) {
		b = b.WithContext("url", verr.URL).WithContext("titles", verr.Titles)
	}
	return b.Build()
}

func (r *run) menus(context.Context) error {
	if err := r.result.Root.ResolveMenus(); err != nil {
		b := foundation.WrapError(err, foundation.CategoryValidation, "unresolved menu").Fatal()
		var merr *sitetree.MenuError
		if errors.As(err, &merr) {
			b = b.WithContext("owner", merr.Owner).WithContext("missing", merr.Missing)
		}
		return b.Build()
	}
	return nil
}

func (r *run) render(ctx context.Context) error {
	out := r.req.Output
	if out == nil {
		out = osfs.New(r.cfg.Output.Directory)
	}
	if r.cfg.Output.Clean {
		if err := cleanFS(out); err != nil {
			return foundation.WrapError(err, foundation.CategoryFileSystem, "clean output directory").
				WithContext("dir", r.cfg.Output.Directory).
				Fatal().
				Build()
		}
	}

	var layouts billy.Filesystem
	if r.cfg.Output.Layouts != "" {
		layouts = osfs.New(r.cfg.Output.Layouts)
	}
	templates, err := theme.LoadTemplates(layouts)
	if err != nil {
		return foundation.WrapError(err, foundation.CategoryRender, "load templates").
			WithContext("layouts", r.cfg.Output.Layouts).
			Fatal().
			Build()
	}

	renderer := theme.NewRenderer(out, r.cfg.Site, templates, r.svc.logger)
	written, err := renderer.Render(ctx, r.result.Root, r.result.Registry)
	r.result.Written = written
	if err != nil {
		return err
	}
	observability.InfoContext(ctx, "Rendered site",
		logfields.Count(len(written)),
		logfields.Dir(r.cfg.Output.Directory))
	return nil
}

func (r *run) export(ctx context.Context) error {
	idx, err := export.NewSQLiteIndex(r.cfg.Export.SQLite)
	if err != nil {
		return foundation.WrapError(err, foundation.CategoryExport, "open page index").
			WithContext("path", r.cfg.Export.SQLite).
			Fatal().
			Build()
	}
	defer func() {
		if cerr := idx.Close(); cerr != nil {
			observability.WarnContext(ctx, "Failed to close page index", logfields.Error(cerr))
		}
	}()

	if err := idx.Write(ctx, r.result.Root, r.result.Registry); err != nil {
		return foundation.WrapError(err, foundation.CategoryExport, "write page index").
			WithContext("path", r.cfg.Export.SQLite).
			Fatal().
			Build()
	}
	observability.InfoContext(ctx, "Exported page index", logfields.Path(r.cfg.Export.SQLite))
	return nil
}

// cleanFS removes every entry at the top of fs. A missing directory is clean.
func cleanFS(fs billy.Filesystem) error {
	entries, err := fs.ReadDir("/")
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		return err
	}
	for _, e := range entries {
		if err := util.RemoveAll(fs, e.Name()); err != nil {
			return err
		}
	}
	return nil
}
