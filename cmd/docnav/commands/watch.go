package commands

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	prom "github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"git.home.luguber.info/inful/docnav/internal/build"
	"git.home.luguber.info/inful/docnav/internal/metrics"
	"git.home.luguber.info/inful/docnav/internal/watch"
)

// WatchCmd implements the 'watch' command.
type WatchCmd struct {
	Format []string `short:"f" help:"Output format to render (repeatable; overrides output.formats)"`
	Output string   `short:"o" help:"Output directory (overrides output.directory)"`
}

func (w *WatchCmd) Run(g *Global, root *CLI) error {
	cfg, err := loadConfig(g, root)
	if err != nil {
		return err
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	reg := prom.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	recorder := metrics.NewPrometheusRecorder(reg)

	svc, cleanup, err := newBuildService(ctx, root.Config, cfg, recorder)
	if err != nil {
		return err
	}
	defer cleanup()

	g.Logger.Info("Starting watch mode", "config", root.Config)
	return watch.New(watch.Options{
		ConfigPath: root.Config,
		Builder:    svc,
		Recorder:   recorder,
		Registry:   reg,
		Request:    build.Request{Formats: w.Format, OutputDir: w.Output},
	}).Run(ctx)
}
