package commands

import (
	"git.home.luguber.info/inful/docnav/internal/validate"
)

// ValidateCmd implements the 'validate' command.
type ValidateCmd struct {
	Format string `short:"f" default:"text" help:"Output format (text or json)" enum:"text,json"`
}

func (v *ValidateCmd) Run(g *Global, root *CLI) error {
	cfg, err := loadConfig(g, root)
	if err != nil {
		return err
	}
	source := root.Config
	if cfg.SiteFile != "" {
		source = cfg.Resolve(cfg.SiteFile)
	}

	result := validate.Validate(cfg.Site)
	if err := validate.NewFormatter(v.Format).Format(g.Out, result, source); err != nil {
		return err
	}
	return result.Err()
}
