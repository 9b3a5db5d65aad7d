// Package commands implements the docnav command line interface.
package commands

import (
	"context"
	"io"
	"log/slog"
	"os"

	"github.com/alecthomas/kong"

	"git.home.luguber.info/inful/docnav/internal/config"
	"git.home.luguber.info/inful/docnav/internal/history"
	"git.home.luguber.info/inful/docnav/internal/linkcheck"
	"git.home.luguber.info/inful/docnav/internal/logfields"
	"git.home.luguber.info/inful/docnav/internal/version"
)

// Global carries state shared by every subcommand.
type Global struct {
	Logger *slog.Logger
	Out    io.Writer
}

// CLI definition & global flags.
type CLI struct {
	Config  string           `short:"c" help:"Configuration file path" default:"docnav.yaml"`
	Verbose bool             `short:"v" help:"Enable verbose logging"`
	Version kong.VersionFlag `name:"version" help:"Show version and exit"`

	Init       InitCmd       `cmd:"" help:"Write an example configuration file"`
	Validate   ValidateCmd   `cmd:"" help:"Check the site definition for structural problems"`
	Build      BuildCmd      `cmd:"" help:"Render the navigation config for every output format"`
	Sidebar    SidebarCmd    `cmd:"" help:"Show the pages generated for auto sidebars"`
	CheckLinks CheckLinksCmd `cmd:"" name:"check-links" help:"Verify every navigation link"`
	Watch      WatchCmd      `cmd:"" help:"Rebuild on changes and serve health and metrics"`
	History    HistoryCmd    `cmd:"" help:"List recorded builds"`
}

// AfterApply runs after flag parsing; setup logging once.
// nolint:unparam // AfterApply currently never returns an error.
func (c *CLI) AfterApply() error {
	slog.SetDefault(newLogger(c.Verbose, config.LoggingConfig{}))
	return nil
}

// Execute parses args into cli and runs the selected command. Command
// output goes to out; logs go to stderr.
func Execute(cli *CLI, args []string, out io.Writer) error {
	parser, err := kong.New(cli,
		kong.Name("docnav"),
		kong.Description("Build and check documentation site navigation."),
		kong.UsageOnError(),
		kong.Vars{"version": version.String()},
		kong.Writers(out, os.Stderr),
	)
	if err != nil {
		return err
	}
	ctx, err := parser.Parse(args)
	if err != nil {
		return err
	}
	return ctx.Run(&Global{Logger: slog.Default(), Out: out}, cli)
}

func newLogger(verbose bool, lc config.LoggingConfig) *slog.Logger {
	level := slog.LevelInfo
	switch lc.Level {
	case config.LogLevelDebug:
		level = slog.LevelDebug
	case config.LogLevelWarn:
		level = slog.LevelWarn
	case config.LogLevelError:
		level = slog.LevelError
	}
	if verbose {
		level = slog.LevelDebug
	}
	opts := &slog.HandlerOptions{Level: level}
	if lc.Format == config.LogFormatJSON {
		return slog.New(slog.NewJSONHandler(os.Stderr, opts))
	}
	return slog.New(slog.NewTextHandler(os.Stderr, opts))
}

// loadConfig reads the configuration and reconfigures logging from it.
func loadConfig(g *Global, root *CLI) (*config.Config, error) {
	cfg, err := config.Load(root.Config)
	if err != nil {
		return nil, err
	}
	g.Logger = newLogger(root.Verbose, cfg.Logging)
	slog.SetDefault(g.Logger)
	return cfg, nil
}

func openHistory(cfg *config.Config) (history.Store, error) {
	return history.NewSQLiteStore(cfg.HistoryPath())
}

// linkBackends connects to NATS when configured. A connection failure only
// disables the shared cache and broken link events.
func linkBackends(ctx context.Context, cfg *config.Config) *linkcheck.NATSClient {
	if cfg.LinkCheck.NATS.URL == "" {
		return nil
	}
	client, err := linkcheck.NewNATSClient(ctx, cfg.LinkCheck.NATS)
	if err != nil {
		slog.Warn("NATS unavailable, link results will not be shared",
			logfields.URL(cfg.LinkCheck.NATS.URL), logfields.Error(err))
		return nil
	}
	return client
}

func closeQuietly(c io.Closer, what string) {
	if err := c.Close(); err != nil {
		slog.Warn("Failed to close "+what, logfields.Error(err))
	}
}
