package build

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	stdErrors "errors"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"

	"git.home.luguber.info/inful/docnav/internal/config"
	"git.home.luguber.info/inful/docnav/internal/foundation/errors"
	"git.home.luguber.info/inful/docnav/internal/gitinfo"
	"git.home.luguber.info/inful/docnav/internal/history"
	"git.home.luguber.info/inful/docnav/internal/linkcheck"
	"git.home.luguber.info/inful/docnav/internal/logfields"
	"git.home.luguber.info/inful/docnav/internal/metrics"
	"git.home.luguber.info/inful/docnav/internal/observability"
	"git.home.luguber.info/inful/docnav/internal/render"
	"git.home.luguber.info/inful/docnav/internal/sidebar"
	"git.home.luguber.info/inful/docnav/internal/site"
	"git.home.luguber.info/inful/docnav/internal/validate"
)

// Stage names used for logging and metrics.
const (
	StageLoad      = "load"
	StageValidate  = "validate"
	StageRepo      = "repo"
	StageSidebar   = "sidebar"
	StageSkip      = "skip_evaluation"
	StageRender    = "render"
	StageLinkCheck = "linkcheck"
	StageHistory   = "history"
)

// DefaultBuildService implements BuildService. The configuration file is
// re-read on every run so long-lived callers pick up edits.
type DefaultBuildService struct {
	configPath string
	recorder   metrics.Recorder
	history    history.Store
	linkCache  linkcheck.Cache
	publisher  linkcheck.Publisher
}

// NewBuildService creates a build service for the configuration at configPath.
func NewBuildService(configPath string) *DefaultBuildService {
	return &DefaultBuildService{
		configPath: configPath,
		recorder:   metrics.NoopRecorder{},
	}
}

// WithRecorder sets the metrics recorder.
func (s *DefaultBuildService) WithRecorder(r metrics.Recorder) *DefaultBuildService {
	if r != nil {
		s.recorder = r
	}
	return s
}

// WithHistory enables skip evaluation and run recording.
func (s *DefaultBuildService) WithHistory(store history.Store) *DefaultBuildService {
	s.history = store
	return s
}

// WithLinkBackends attaches the link cache and broken link publisher used
// when linkcheck.enabled is set. Either may be nil.
func (s *DefaultBuildService) WithLinkBackends(cache linkcheck.Cache, pub linkcheck.Publisher) *DefaultBuildService {
	s.linkCache = cache
	s.publisher = pub
	return s
}

// run carries the state of one build between stages.
type run struct {
	req     Request
	result  *Result
	cfg     *config.Config
	site    *site.Site
	gen     *sidebar.Generator
	tree    map[string][]sidebar.Page
	formats []string
	outDir  string
	prev    *history.Record
	warned  bool
}

// Run executes the complete build pipeline.
func (s *DefaultBuildService) Run(ctx context.Context, req Request) (*Result, error) {
	startTime := time.Now()
	r := &run{
		req:    req,
		result: &Result{BuildID: uuid.NewString(), StartTime: startTime},
	}

	ctx = observability.WithBuildID(ctx, r.result.BuildID)
	if req.Trigger != "" {
		ctx = observability.WithTrigger(ctx, req.Trigger)
	}
	observability.InfoContext(ctx, "Starting build", slog.String("config", s.configPath))

	stages := []struct {
		name string
		fn   func(context.Context, *run) (metrics.ResultLabel, error)
	}{
		{StageLoad, s.load},
		{StageValidate, s.validate},
		{StageRepo, s.detectRepo},
		{StageSidebar, s.expandSidebars},
		{StageSkip, s.evaluateSkip},
		{StageRender, s.render},
		{StageLinkCheck, s.checkLinks},
	}
	for _, st := range stages {
		if err := s.stage(ctx, st.name, r, st.fn); err != nil {
			return s.finish(ctx, r, err)
		}
		if r.result.Skipped {
			break
		}
	}
	return s.finish(ctx, r, nil)
}

func (s *DefaultBuildService) stage(ctx context.Context, name string, r *run, fn func(context.Context, *run) (metrics.ResultLabel, error)) error {
	if err := ctx.Err(); err != nil {
		s.recorder.IncStageResult(name, metrics.ResultCanceled)
		return err
	}
	ctx = observability.WithStage(ctx, name)
	stageStart := time.Now()
	label, err := fn(ctx, r)
	s.recorder.ObserveStageDuration(name, time.Since(stageStart))
	switch {
	case err != nil && isCanceled(err):
		label = metrics.ResultCanceled
	case err != nil:
		label = metrics.ResultFatal
		observability.ErrorContext(ctx, "Stage failed", logfields.Error(err))
	case label == metrics.ResultWarning:
		r.warned = true
	}
	s.recorder.IncStageResult(name, label)
	return err
}

func (s *DefaultBuildService) load(_ context.Context, r *run) (metrics.ResultLabel, error) {
	cfg, err := config.Load(s.configPath)
	if err != nil {
		return metrics.ResultFatal, err
	}
	r.cfg = cfg
	r.site = cfg.Site
	r.gen = sidebar.New(cfg.DocsDir())

	r.outDir = cfg.OutputDir()
	if r.req.OutputDir != "" {
		if r.outDir, err = filepath.Abs(r.req.OutputDir); err != nil {
			return metrics.ResultFatal, errors.WrapError(err, errors.CategoryFileSystem, "resolve output directory").Build()
		}
	}
	r.formats = requestedFormats(r.req.Formats, cfg.Output.Formats)
	return metrics.ResultSuccess, nil
}

func requestedFormats(override, configured []string) []string {
	if len(override) == 0 {
		return configured
	}
	var formats []string
	for _, raw := range override {
		f := config.NormalizeFormat(raw)
		if f == "" {
			f = strings.ToLower(strings.TrimSpace(raw))
		}
		if !slices.Contains(formats, f) {
			formats = append(formats, f)
		}
	}
	return formats
}

func (s *DefaultBuildService) validate(ctx context.Context, r *run) (metrics.ResultLabel, error) {
	res := validate.Validate(r.site)
	r.result.Validation = res
	s.recorder.SetNavEntries(res.EntriesTotal)

	for _, issue := range res.Issues {
		attrs := []slog.Attr{logfields.Path(issue.Path), slog.String("rule", issue.Rule)}
		switch issue.Severity {
		case validate.SeverityError:
			observability.ErrorContext(ctx, issue.Message, attrs...)
		case validate.SeverityWarning:
			observability.WarnContext(ctx, issue.Message, attrs...)
		default:
			observability.DebugContext(ctx, issue.Message, attrs...)
		}
	}
	if err := res.Err(); err != nil {
		return metrics.ResultFatal, err
	}
	if res.HasWarnings() {
		return metrics.ResultWarning, nil
	}
	return metrics.ResultSuccess, nil
}

func (s *DefaultBuildService) detectRepo(_ context.Context, r *run) (metrics.ResultLabel, error) {
	if !r.cfg.Docs.DetectRepo {
		return metrics.ResultSkipped, nil
	}
	var filled bool
	r.site, filled = gitinfo.Apply(r.site, r.cfg.DocsDir())
	if !filled {
		return metrics.ResultSkipped, nil
	}
	return metrics.ResultSuccess, nil
}

// expandSidebars generates the page tree behind every auto sidebar. A
// missing directory leaves auto sidebars to the site framework.
func (s *DefaultBuildService) expandSidebars(ctx context.Context, r *run) (metrics.ResultLabel, error) {
	if !r.site.ThemeConfig.Sidebar.HasAuto() {
		return metrics.ResultSkipped, nil
	}
	tree, err := r.gen.Tree(r.site)
	if errors.HasCategory(err, errors.CategoryNotFound) {
		observability.WarnContext(ctx, "Sidebar directory not found; auto sidebars are not expanded",
			logfields.Path(r.cfg.DocsDir()), logfields.Error(err))
		return metrics.ResultWarning, nil
	}
	if err != nil {
		return metrics.ResultFatal, err
	}
	r.tree = tree
	pages := 0
	for _, p := range tree {
		pages += countPages(p)
	}
	observability.InfoContext(ctx, "Expanded auto sidebars", slog.Int("prefixes", len(tree)), slog.Int("pages", pages))
	return metrics.ResultSuccess, nil
}

func countPages(pages []sidebar.Page) int {
	n := len(pages)
	for _, p := range pages {
		n += countPages(p.Children)
	}
	return n
}

func (s *DefaultBuildService) evaluateSkip(ctx context.Context, r *run) (metrics.ResultLabel, error) {
	snapshot, err := computeSnapshot(r)
	if err != nil {
		return metrics.ResultFatal, err
	}
	r.result.Snapshot = snapshot

	if s.history == nil {
		return metrics.ResultSkipped, nil
	}
	prev, err := s.history.Latest(ctx)
	if err != nil {
		observability.WarnContext(ctx, "Build history unavailable; building", logfields.Error(err))
		return metrics.ResultWarning, nil
	}
	r.prev = prev
	if r.req.Force || prev == nil || prev.Snapshot != snapshot || prev.OutputDir != r.outDir {
		return metrics.ResultSuccess, nil
	}
	if !Status(prev.Outcome).IsSuccess() || len(prev.Files) == 0 || !filesExist(prev.Files) {
		return metrics.ResultSuccess, nil
	}

	observability.InfoContext(ctx, "Build skipped - no changes detected",
		logfields.Snapshot(snapshot), slog.String("previous", prev.BuildID))
	r.result.Skipped = true
	r.result.SkipReason = "no_changes"
	r.result.Files = prev.Files
	return metrics.ResultSuccess, nil
}

// computeSnapshot hashes everything that determines the output bytes: the
// build-affecting config, the site after repo detection, the expanded
// sidebar tree and the target formats and directory.
func computeSnapshot(r *run) (string, error) {
	siteJSON, err := json.Marshal(r.site)
	if err != nil {
		return "", errors.WrapError(err, errors.CategoryInternal, "encode site for snapshot").Build()
	}
	treeJSON, err := json.Marshal(r.tree)
	if err != nil {
		return "", errors.WrapError(err, errors.CategoryInternal, "encode sidebar tree for snapshot").Build()
	}
	formats := slices.Clone(r.formats)
	slices.Sort(formats)

	h := sha256.New()
	for _, part := range [][]byte{
		[]byte(r.cfg.Snapshot()),
		siteJSON,
		treeJSON,
		[]byte(strings.Join(formats, ",")),
		[]byte(r.outDir),
	} {
		h.Write(part)
		h.Write([]byte{0})
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

func filesExist(files []string) bool {
	for _, f := range files {
		if info, err := os.Stat(f); err != nil || !info.Mode().IsRegular() {
			return false
		}
	}
	return true
}

func (s *DefaultBuildService) render(ctx context.Context, r *run) (metrics.ResultLabel, error) {
	var pages render.PageSource
	if r.tree != nil {
		pages = pageTree(r.tree)
	}
	registry := render.Default(pages)

	if err := os.MkdirAll(r.outDir, 0o750); err != nil {
		return metrics.ResultFatal, errors.WrapError(err, errors.CategoryFileSystem, "create output directory").
			WithContext("path", r.outDir).
			Build()
	}

	for _, format := range r.formats {
		if err := ctx.Err(); err != nil {
			return metrics.ResultCanceled, err
		}
		renderer, err := registry.Get(format)
		if err != nil {
			return metrics.ResultFatal, err
		}
		path := filepath.Join(r.outDir, render.Filename(renderer))
		if err := render.WriteFile(path, renderer, r.site); err != nil {
			return metrics.ResultFatal, err
		}
		r.result.Files = append(r.result.Files, path)
		observability.InfoContext(ctx, "Rendered output", logfields.Format(format), logfields.Path(path))
	}

	if r.cfg.Output.Clean {
		s.removeStale(ctx, r)
	}
	return metrics.ResultSuccess, nil
}

// removeStale deletes files the previous build wrote that this build did
// not, limited to the output directory.
func (s *DefaultBuildService) removeStale(ctx context.Context, r *run) {
	prev := r.prev
	if prev == nil && s.history != nil {
		prev, _ = s.history.Latest(ctx)
	}
	if prev == nil {
		return
	}
	for _, f := range prev.Files {
		if slices.Contains(r.result.Files, f) || filepath.Dir(f) != r.outDir {
			continue
		}
		if err := os.Remove(f); err != nil && !os.IsNotExist(err) {
			observability.WarnContext(ctx, "Failed to remove stale output", logfields.Path(f), logfields.Error(err))
			continue
		}
		observability.InfoContext(ctx, "Removed stale output", logfields.Path(f))
	}
}

type pageTree map[string][]sidebar.Page

func (t pageTree) Tree(*site.Site) (map[string][]sidebar.Page, error) { return t, nil }

func (s *DefaultBuildService) checkLinks(ctx context.Context, r *run) (metrics.ResultLabel, error) {
	if !r.cfg.LinkCheck.Enabled {
		return metrics.ResultSkipped, nil
	}
	opts := linkcheck.OptionsFromConfig(r.cfg.LinkCheck)
	opts.Cache = s.linkCache
	opts.Publisher = s.publisher
	opts.Recorder = s.recorder

	// Without a docs tree there is nothing to resolve internal routes against.
	var routes linkcheck.RouteChecker
	if info, err := os.Stat(r.cfg.DocsDir()); err == nil && info.IsDir() {
		routes = r.gen
	}
	report, err := linkcheck.New(routes, opts).Check(ctx, r.site, r.result.BuildID)
	if err != nil {
		return metrics.ResultFatal, err
	}
	r.result.Links = report
	if len(report.Broken()) > 0 {
		return metrics.ResultWarning, nil
	}
	return metrics.ResultSuccess, nil
}

func (s *DefaultBuildService) finish(ctx context.Context, r *run, err error) (*Result, error) {
	result := r.result
	result.EndTime = time.Now()
	result.Duration = result.EndTime.Sub(result.StartTime)

	switch {
	case err != nil && isCanceled(err):
		result.Status = StatusCanceled
	case err != nil:
		result.Status = StatusFailed
	case result.Skipped:
		result.Status = StatusSkipped
	case r.warned:
		result.Status = StatusWarning
	default:
		result.Status = StatusSuccess
	}

	if result.Status != StatusCanceled {
		_ = s.stage(ctx, StageHistory, r, s.record)
	}

	s.recorder.IncBuildOutcome(result.Status.outcome())
	s.recorder.ObserveBuildDuration(result.Duration)

	attrs := []slog.Attr{
		slog.String("status", string(result.Status)),
		slog.Int("files", len(result.Files)),
		logfields.DurationMS(float64(result.Duration.Milliseconds())),
	}
	if err != nil {
		observability.ErrorContext(ctx, "Build failed", append(attrs, logfields.Error(err))...)
		return result, err
	}
	observability.InfoContext(ctx, "Build completed", attrs...)
	return result, nil
}

func (s *DefaultBuildService) record(ctx context.Context, r *run) (metrics.ResultLabel, error) {
	if s.history == nil {
		return metrics.ResultSkipped, nil
	}
	rec := history.Record{
		BuildID:   r.result.BuildID,
		Snapshot:  r.result.Snapshot,
		Formats:   r.formats,
		Files:     r.result.Files,
		OutputDir: r.outDir,
		Outcome:   string(r.result.Status),
		StartedAt: r.result.StartTime,
		Duration:  r.result.Duration,
	}
	if v := r.result.Validation; v != nil {
		rec.Errors = v.ErrorCount()
		rec.Warnings = v.WarningCount()
	}
	if err := s.history.Record(ctx, rec); err != nil {
		// A failed history write does not invalidate the output.
		observability.WarnContext(ctx, "Failed to record build", logfields.Error(err))
		return metrics.ResultWarning, nil
	}
	return metrics.ResultSuccess, nil
}

func isCanceled(err error) bool {
	return stdErrors.Is(err, context.Canceled) || stdErrors.Is(err, context.DeadlineExceeded)
}
