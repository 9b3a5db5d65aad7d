package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"text/tabwriter"
	"time"

	"git.home.luguber.info/inful/docnav/internal/history"
)

// HistoryCmd implements the 'history' command.
type HistoryCmd struct {
	Limit  int    `short:"n" default:"10" help:"Number of builds to show (0 for all)"`
	Format string `short:"f" default:"text" help:"Output format (text or json)" enum:"text,json"`
}

func (h *HistoryCmd) Run(g *Global, root *CLI) error {
	cfg, err := loadConfig(g, root)
	if err != nil {
		return err
	}
	store, err := openHistory(cfg)
	if err != nil {
		return err
	}
	defer closeQuietly(store, "history store")

	records, err := store.List(context.Background(), h.Limit)
	if err != nil {
		return err
	}

	if h.Format == "json" {
		if records == nil {
			records = []history.Record{}
		}
		enc := json.NewEncoder(g.Out)
		enc.SetIndent("", "  ")
		return enc.Encode(records)
	}

	if len(records) == 0 {
		_, err := fmt.Fprintln(g.Out, "No builds recorded.")
		return err
	}
	tw := tabwriter.NewWriter(g.Out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(tw, "STARTED\tBUILD\tOUTCOME\tFORMATS\tISSUES\tDURATION")
	for _, rec := range records {
		_, _ = fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%d/%d\t%s\n",
			rec.StartedAt.Local().Format(time.DateTime),
			shortID(rec.BuildID),
			rec.Outcome,
			strings.Join(rec.Formats, ","),
			rec.Errors, rec.Warnings,
			rec.Duration.Round(time.Millisecond))
	}
	return tw.Flush()
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
