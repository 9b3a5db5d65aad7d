package commands

import (
	"fmt"
	"path/filepath"

	"git.home.luguber.info/inful/docnav/internal/config"
)

// InitCmd implements the 'init' command.
type InitCmd struct {
	Force bool `help:"Overwrite an existing configuration file"`
	Docs  bool `help:"Also write starter pages for the example sidebars"`
}

func (i *InitCmd) Run(g *Global, root *CLI) error {
	if err := config.Init(root.Config, i.Force); err != nil {
		return err
	}
	_, _ = fmt.Fprintf(g.Out, "Wrote %s\n", root.Config)
	if !i.Docs {
		return nil
	}

	written, err := config.InitDocs(filepath.Join(filepath.Dir(root.Config), config.DefaultDocsDir))
	if err != nil {
		return err
	}
	for _, f := range written {
		_, _ = fmt.Fprintf(g.Out, "Wrote %s\n", f)
	}
	return nil
}
