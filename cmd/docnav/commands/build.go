package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"

	"git.home.luguber.info/inful/docnav/internal/build"
	"git.home.luguber.info/inful/docnav/internal/config"
	"git.home.luguber.info/inful/docnav/internal/logfields"
	"git.home.luguber.info/inful/docnav/internal/metrics"
)

// BuildCmd implements the 'build' command.
type BuildCmd struct {
	Format      []string `short:"f" help:"Output format to render (repeatable; overrides output.formats)"`
	Output      string   `short:"o" help:"Output directory (overrides output.directory)"`
	Force       bool     `help:"Build even when the inputs match the last recorded build"`
	Report      string   `default:"text" help:"Summary format (text or json)" enum:"text,json"`
	MetricsFile string   `help:"Write build metrics in Prometheus text format to this file"`
}

func (b *BuildCmd) Run(g *Global, root *CLI) error {
	cfg, err := loadConfig(g, root)
	if err != nil {
		return err
	}
	ctx := context.Background()

	var reg *prom.Registry
	var recorder metrics.Recorder = metrics.NoopRecorder{}
	if b.MetricsFile != "" {
		reg = prom.NewRegistry()
		recorder = metrics.NewPrometheusRecorder(reg)
	}

	svc, cleanup, err := newBuildService(ctx, root.Config, cfg, recorder)
	if err != nil {
		return err
	}
	defer cleanup()

	result, err := svc.Run(ctx, build.Request{
		Formats:   b.Format,
		OutputDir: b.Output,
		Force:     b.Force,
		Trigger:   "cli",
	})
	if reg != nil {
		if werr := prom.WriteToTextfile(b.MetricsFile, reg); werr != nil {
			slog.Warn("Failed to write metrics file", logfields.Path(b.MetricsFile), logfields.Error(werr))
		}
	}
	if result != nil {
		if perr := printBuildResult(g.Out, result, b.Report); perr != nil && err == nil {
			err = perr
		}
	}
	return err
}

// newBuildService wires history and link backends into a build service.
// The returned cleanup closes them.
func newBuildService(ctx context.Context, configPath string, cfg *config.Config, recorder metrics.Recorder) (*build.DefaultBuildService, func(), error) {
	store, err := openHistory(cfg)
	if err != nil {
		return nil, nil, err
	}
	svc := build.NewBuildService(configPath).WithRecorder(recorder).WithHistory(store)

	nc := linkBackends(ctx, cfg)
	if nc != nil {
		svc.WithLinkBackends(nc, nc)
	}
	cleanup := func() {
		if nc != nil {
			closeQuietly(nc, "NATS client")
		}
		closeQuietly(store, "history store")
	}
	return svc, cleanup, nil
}

func printBuildResult(w io.Writer, res *build.Result, format string) error {
	if format == "json" {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(res)
	}

	if _, err := fmt.Fprintf(w, "Build %s: %s (%s)\n", res.BuildID, res.Status, res.Duration.Round(time.Millisecond)); err != nil {
		return err
	}
	if res.Skipped {
		_, _ = fmt.Fprintf(w, "  skipped: %s\n", res.SkipReason)
	}
	for _, f := range res.Files {
		_, _ = fmt.Fprintf(w, "  %s\n", f)
	}
	if v := res.Validation; v != nil && (v.ErrorCount() > 0 || v.WarningCount() > 0) {
		_, _ = fmt.Fprintf(w, "  validation: %d error(s), %d warning(s)\n", v.ErrorCount(), v.WarningCount())
	}
	if res.Links != nil {
		for _, broken := range res.Links.Broken() {
			_, _ = fmt.Fprintf(w, "  broken link %s: %s (%s)\n", broken.Ref.Path, broken.Ref.Link, broken.Error)
		}
	}
	return nil
}
