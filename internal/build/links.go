package build

import (
	"context"
	"os"
	"time"

	"github.com/google/uuid"

	"git.home.luguber.info/inful/docnav/internal/config"
	"git.home.luguber.info/inful/docnav/internal/gitinfo"
	"git.home.luguber.info/inful/docnav/internal/linkcheck"
	"git.home.luguber.info/inful/docnav/internal/metrics"
	"git.home.luguber.info/inful/docnav/internal/observability"
	"git.home.luguber.info/inful/docnav/internal/sidebar"
	"git.home.luguber.info/inful/docnav/internal/validate"
)

// LinkCheckRequest holds overrides for a standalone link check.
type LinkCheckRequest struct {
	// External forces external URLs to be requested regardless of
	// linkcheck.external.
	External bool
}

// CheckLinks loads the configuration and verifies every navigation link
// without rendering. It runs regardless of linkcheck.enabled.
func (s *DefaultBuildService) CheckLinks(ctx context.Context, req LinkCheckRequest) (*linkcheck.Report, error) {
	buildID := uuid.NewString()
	ctx = observability.WithStage(observability.WithBuildID(ctx, buildID), StageLinkCheck)
	start := time.Now()

	cfg, err := config.Load(s.configPath)
	if err != nil {
		return nil, err
	}
	if err := validate.Validate(cfg.Site).Err(); err != nil {
		return nil, err
	}
	siteDef := cfg.Site
	if cfg.Docs.DetectRepo {
		siteDef, _ = gitinfo.Apply(siteDef, cfg.DocsDir())
	}

	opts := linkcheck.OptionsFromConfig(cfg.LinkCheck)
	opts.External = opts.External || req.External
	opts.Cache = s.linkCache
	opts.Publisher = s.publisher
	opts.Recorder = s.recorder

	var routes linkcheck.RouteChecker
	if info, statErr := os.Stat(cfg.DocsDir()); statErr == nil && info.IsDir() {
		routes = sidebar.New(cfg.DocsDir())
	} else {
		observability.WarnContext(ctx, "Docs directory not found; internal links are not checked")
	}

	report, err := linkcheck.New(routes, opts).Check(ctx, siteDef, buildID)
	label := metrics.ResultSuccess
	switch {
	case err != nil:
		label = metrics.ResultFatal
	case len(report.Broken()) > 0:
		label = metrics.ResultWarning
	}
	s.recorder.ObserveStageDuration(StageLinkCheck, time.Since(start))
	s.recorder.IncStageResult(StageLinkCheck, label)
	return report, err
}
