package commands

import (
	"fmt"
	"io"
	"strings"

	"git.home.luguber.info/inful/docnav/internal/render"
	"git.home.luguber.info/inful/docnav/internal/sidebar"
	"git.home.luguber.info/inful/docnav/internal/site"
)

// SidebarCmd implements the 'sidebar' command.
type SidebarCmd struct {
	Prefix  string `arg:"" optional:"" help:"Route prefix to generate (defaults to every auto sidebar)"`
	Resolve bool   `help:"Print the site definition with auto sidebars replaced by page lists"`
	Format  string `short:"f" default:"yaml" help:"Format for --resolve (yaml or json)" enum:"yaml,json"`
}

func (c *SidebarCmd) Run(g *Global, root *CLI) error {
	cfg, err := loadConfig(g, root)
	if err != nil {
		return err
	}
	gen := sidebar.New(cfg.DocsDir())

	if c.Resolve {
		resolved, err := gen.Resolve(cfg.Site)
		if err != nil {
			return err
		}
		var r render.Renderer = render.YAML{}
		if c.Format == "json" {
			r = render.JSON{}
		}
		return r.Render(g.Out, resolved)
	}

	prefixes := []string{c.Prefix}
	if c.Prefix == "" {
		prefixes = prefixes[:0]
		for _, p := range site.SortedPrefixes(cfg.Site.ThemeConfig.Sidebar) {
			if cfg.Site.ThemeConfig.Sidebar[p].IsAuto() {
				prefixes = append(prefixes, p)
			}
		}
	}
	for _, prefix := range prefixes {
		pages, err := gen.Generate(prefix)
		if err != nil {
			return err
		}
		_, _ = fmt.Fprintln(g.Out, prefix)
		printPages(g.Out, pages, 1)
	}
	return nil
}

func printPages(w io.Writer, pages []sidebar.Page, depth int) {
	for _, p := range pages {
		_, _ = fmt.Fprintf(w, "%s%s  %s\n", strings.Repeat("  ", depth), p.Title, p.Route)
		printPages(w, p.Children, depth+1)
	}
}
