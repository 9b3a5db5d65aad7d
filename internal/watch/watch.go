package watch

import (
	"context"
	"log/slog"
	"path/filepath"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"

	"git.home.luguber.info/inful/docnav/internal/build"
	"git.home.luguber.info/inful/docnav/internal/config"
	"git.home.luguber.info/inful/docnav/internal/foundation/errors"
	"git.home.luguber.info/inful/docnav/internal/linkcheck"
	"git.home.luguber.info/inful/docnav/internal/logfields"
	"git.home.luguber.info/inful/docnav/internal/metrics"
)

// MetricsOff disables the HTTP endpoint when used as watch.metrics_addr.
const MetricsOff = "off"

// Builder runs builds and standalone link checks.
type Builder interface {
	Run(ctx context.Context, req build.Request) (*build.Result, error)
	CheckLinks(ctx context.Context, req build.LinkCheckRequest) (*linkcheck.Report, error)
}

// Options configures a Runner.
type Options struct {
	ConfigPath string
	Builder    Builder
	Recorder   metrics.Recorder
	Registry   *prom.Registry // served on /metrics when set

	// Request carries the formats and output overrides applied to every build.
	Request build.Request
}

// Runner is the watch mode loop.
type Runner struct {
	opts     Options
	recorder metrics.Recorder
	status   *Status
	cfg      *config.Config
	server   *Server
	started  chan struct{}
}

// New creates a Runner.
func New(opts Options) *Runner {
	rec := opts.Recorder
	if rec == nil {
		rec = metrics.NoopRecorder{}
	}
	return &Runner{opts: opts, recorder: rec, status: NewStatus(), started: make(chan struct{})}
}

// Status returns the state served on /healthz.
func (r *Runner) Status() *Status { return r.status }

// Started is closed once watches, scheduler and server are running.
func (r *Runner) Started() <-chan struct{} { return r.started }

// ServerAddr returns the bound health/metrics address, or "" when disabled.
// Only valid after Started is closed.
func (r *Runner) ServerAddr() string {
	if r.server == nil {
		return ""
	}
	return r.server.Addr()
}

// Run builds once, then rebuilds on every change until ctx is canceled.
// Build failures are logged and reported on /healthz; they do not stop the
// loop.
func (r *Runner) Run(ctx context.Context) error {
	cfg, err := config.Load(r.opts.ConfigPath)
	if err != nil {
		return err
	}
	r.cfg = cfg

	fw, err := NewFileWatcher(watchedFiles(r.opts.ConfigPath, cfg), cfg.DocsDir(), config.Duration(cfg.Watch.Debounce, 500*time.Millisecond))
	if err != nil {
		return errors.WrapError(err, errors.CategoryRuntime, "create file watcher").Build()
	}
	defer func() { _ = fw.Close() }()
	if err := fw.Start(ctx); err != nil {
		return errors.WrapError(err, errors.CategoryRuntime, "start file watcher").Build()
	}

	if addr := cfg.Watch.MetricsAddr; addr != "" && addr != MetricsOff {
		r.server = NewServer(addr, r.opts.Registry, r.status)
		if err := r.server.Start(); err != nil {
			return errors.WrapError(err, errors.CategoryRuntime, "start health and metrics server").
				WithContext("addr", addr).
				Build()
		}
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := r.server.Shutdown(shutdownCtx); err != nil {
				slog.Warn("HTTP server shutdown error", logfields.Error(err))
			}
		}()
	}

	if interval := config.Duration(cfg.Watch.LinkCheckInterval, 0); interval > 0 {
		sched, err := NewScheduler()
		if err != nil {
			return errors.WrapError(err, errors.CategoryRuntime, "create scheduler").Build()
		}
		if _, err := sched.ScheduleLinkCheck(ctx, interval, r.checkLinks); err != nil {
			return errors.WrapError(err, errors.CategoryRuntime, "schedule link check").Build()
		}
		sched.Start()
		defer func() {
			if err := sched.Stop(); err != nil {
				slog.Warn("Scheduler shutdown error", logfields.Error(err))
			}
		}()
	}

	close(r.started)
	r.build(ctx, SourceStartup)

	for {
		select {
		case <-ctx.Done():
			slog.Info("Watch mode stopping")
			return nil
		case source := <-fw.Triggers():
			r.recorder.IncWatchTrigger(source)
			if source == SourceConfig {
				r.reload(fw)
			}
			r.build(ctx, source)
		}
	}
}

func (r *Runner) build(ctx context.Context, source string) {
	req := r.opts.Request
	req.Trigger = source
	res, err := r.opts.Builder.Run(ctx, req)
	r.status.RecordBuild(source, res, err)
	if err != nil && ctx.Err() == nil {
		slog.Error("Build failed; waiting for changes", slog.String("trigger", source), logfields.Error(err))
	}
}

func (r *Runner) checkLinks(ctx context.Context) {
	r.recorder.IncWatchTrigger(SourceSchedule)
	report, err := r.opts.Builder.CheckLinks(ctx, build.LinkCheckRequest{})
	r.status.RecordLinkCheck(report, err)
	if err != nil && ctx.Err() == nil {
		slog.Error("Periodic link check failed", logfields.Error(err))
	}
}

// reload re-reads the configuration to follow a moved docs directory.
// Server and schedule settings only apply on restart.
func (r *Runner) reload(fw *FileWatcher) {
	cfg, err := config.Load(r.opts.ConfigPath)
	if err != nil {
		// The build reports the error.
		return
	}
	if err := fw.SetDocsDir(cfg.DocsDir()); err != nil {
		slog.Warn("Failed to watch new docs directory", logfields.Error(err))
	}
	if cfg.Watch.MetricsAddr != r.cfg.Watch.MetricsAddr || cfg.Watch.LinkCheckInterval != r.cfg.Watch.LinkCheckInterval {
		slog.Warn("watch.metrics_addr and watch.link_check_interval changes require a restart")
	}
	r.cfg = cfg
}

func watchedFiles(configPath string, cfg *config.Config) []string {
	dir := filepath.Dir(configPath)
	files := []string{configPath, filepath.Join(dir, ".env"), filepath.Join(dir, ".env.local")}
	if cfg.SiteFile != "" {
		files = append(files, cfg.Resolve(cfg.SiteFile))
	}
	return files
}
