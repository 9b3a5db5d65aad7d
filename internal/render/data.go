package render

import (
	"io"

	"git.home.luguber.info/inful/docnav/internal/site"
)

// JSON renders the site definition as indented JSON.
type JSON struct{}

func (JSON) Name() string      { return "json" }
func (JSON) Extension() string { return ".json" }

func (JSON) Render(w io.Writer, s *site.Site) error {
	return encodeTo(w, s, site.FormatJSON)
}

// YAML renders the site definition as YAML.
type YAML struct{}

func (YAML) Name() string      { return "yaml" }
func (YAML) Extension() string { return ".yaml" }

func (YAML) Render(w io.Writer, s *site.Site) error {
	return encodeTo(w, s, site.FormatYAML)
}

func encodeTo(w io.Writer, s *site.Site, format site.Format) error {
	data, err := site.Encode(s, format)
	if err != nil {
		return err
	}
	_, err = w.Write(data)
	return err
}
