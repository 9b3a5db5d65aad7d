package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"git.home.luguber.info/inful/docnav/internal/build"
	"git.home.luguber.info/inful/docnav/internal/linkcheck"
	"git.home.luguber.info/inful/docnav/internal/metrics"
)

// CheckLinksCmd implements the 'check-links' command.
type CheckLinksCmd struct {
	External bool   `short:"e" help:"Also request external URLs (overrides linkcheck.external)"`
	Format   string `short:"f" default:"text" help:"Output format (text or json)" enum:"text,json"`
	All      bool   `short:"a" help:"List every link, not only broken ones"`
}

func (c *CheckLinksCmd) Run(g *Global, root *CLI) error {
	cfg, err := loadConfig(g, root)
	if err != nil {
		return err
	}
	ctx := context.Background()

	svc := build.NewBuildService(root.Config).WithRecorder(metrics.NoopRecorder{})
	if nc := linkBackends(ctx, cfg); nc != nil {
		defer closeQuietly(nc, "NATS client")
		svc.WithLinkBackends(nc, nc)
	}

	report, err := svc.CheckLinks(ctx, build.LinkCheckRequest{External: c.External})
	if err != nil {
		return err
	}
	if err := printReport(g.Out, report, c.Format, c.All); err != nil {
		return err
	}
	return report.Err()
}

func printReport(w io.Writer, report *linkcheck.Report, format string, all bool) error {
	if format == "json" {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(report)
	}

	var ok, skipped int
	for _, res := range report.Results {
		switch {
		case res.Skipped:
			skipped++
		case res.OK:
			ok++
		}
		if !all && (res.OK || res.Skipped) {
			continue
		}
		_, _ = fmt.Fprintf(w, "%-7s %-8s %s  %s\n", resultState(res), res.Kind, res.Ref.Link, res.Ref.Path)
		if res.Error != "" {
			_, _ = fmt.Fprintf(w, "        %s\n", res.Error)
		}
	}
	broken := len(report.Broken())
	_, err := fmt.Fprintf(w, "%d link(s): %d ok, %d broken, %d skipped (%s)\n",
		len(report.Results), ok, broken, skipped, report.Duration.Round(time.Millisecond))
	return err
}

func resultState(res linkcheck.Result) string {
	switch {
	case res.Skipped:
		return "SKIP"
	case res.OK && res.Cached:
		return "CACHED"
	case res.OK:
		return "OK"
	default:
		return "BROKEN"
	}
}
