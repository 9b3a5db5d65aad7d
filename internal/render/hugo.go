package render

import (
	"fmt"
	"io"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"

	"git.home.luguber.info/inful/docnav/internal/sidebar"
	"git.home.luguber.info/inful/docnav/internal/site"
)

// PageSource generates the pages of auto sidebars.
type PageSource interface {
	Tree(s *site.Site) (map[string][]sidebar.Page, error)
}

// Hugo renders a hugo.yaml fragment with the navigation expressed as Hugo
// menus. Hugo has no auto sidebar, so auto prefixes are expanded via Pages.
type Hugo struct {
	Pages PageSource
}

func (*Hugo) Name() string      { return "hugo" }
func (*Hugo) Extension() string { return ".yaml" }
func (*Hugo) Filename() string  { return "hugo.yaml" }

type hugoConfig struct {
	Title  string                     `yaml:"title"`
	Params hugoParams                 `yaml:"params"`
	Menu   map[string][]hugoMenuEntry `yaml:"menu"`
}

type hugoParams struct {
	Description string `yaml:"description"`
	Repo        string `yaml:"repo,omitempty"`
	RepoLabel   string `yaml:"repoLabel,omitempty"`
	LastUpdated string `yaml:"lastUpdated,omitempty"`
}

type hugoMenuEntry struct {
	Identifier string         `yaml:"identifier"`
	Name       string         `yaml:"name"`
	URL        string         `yaml:"url,omitempty"`
	Weight     int            `yaml:"weight"`
	Parent     string         `yaml:"parent,omitempty"`
	Params     map[string]any `yaml:"params,omitempty"`
}

func (h *Hugo) Render(w io.Writer, s *site.Site) error {
	cfg := hugoConfig{
		Title: s.Title,
		Params: hugoParams{
			Description: s.Description,
			Repo:        s.ThemeConfig.Repo,
			RepoLabel:   s.ThemeConfig.RepoLabel,
			LastUpdated: s.ThemeConfig.LastUpdated,
		},
		Menu: map[string][]hugoMenuEntry{"main": mainMenu(s.ThemeConfig.Nav)},
	}

	if len(s.ThemeConfig.Sidebar) > 0 {
		menu, err := h.sidebarMenu(s)
		if err != nil {
			return err
		}
		cfg.Menu["sidebar"] = menu
	}

	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(cfg); err != nil {
		_ = enc.Close()
		return err
	}
	return enc.Close()
}

func mainMenu(nav []site.NavEntry) []hugoMenuEntry {
	ids := identifiers{}
	menu := make([]hugoMenuEntry, 0, len(nav))
	for i, entry := range nav {
		parent := hugoMenuEntry{
			Identifier: ids.next(entry.Text),
			Name:       entry.Text,
			Weight:     (i + 1) * 10,
			Params:     ariaParams(entry.AriaLabel),
		}
		if !entry.IsGroup() {
			parent.URL = entry.Link
			menu = append(menu, parent)
			continue
		}
		menu = append(menu, parent)
		for j, item := range entry.Items {
			menu = append(menu, hugoMenuEntry{
				Identifier: ids.next(parent.Identifier + "-" + item.Text),
				Name:       item.Text,
				URL:        item.Link,
				Weight:     j + 1,
				Parent:     parent.Identifier,
				Params:     ariaParams(item.AriaLabel),
			})
		}
	}
	return menu
}

func (h *Hugo) sidebarMenu(s *site.Site) ([]hugoMenuEntry, error) {
	var tree map[string][]sidebar.Page
	if s.ThemeConfig.Sidebar.HasAuto() {
		if h.Pages == nil {
			return nil, fmt.Errorf("hugo output needs a docs directory to expand auto sidebars")
		}
		var err error
		if tree, err = h.Pages.Tree(s); err != nil {
			return nil, err
		}
	}

	ids := identifiers{}
	var menu []hugoMenuEntry
	for i, prefix := range site.SortedPrefixes(s.ThemeConfig.Sidebar) {
		root := hugoMenuEntry{
			Identifier: ids.next("sidebar-" + prefix),
			Name:       prefix,
			URL:        prefix,
			Weight:     (i + 1) * 10,
		}
		menu = append(menu, root)

		spec := s.ThemeConfig.Sidebar[prefix]
		if spec.IsAuto() {
			menu = appendPages(menu, &ids, root.Identifier, tree[prefix])
			continue
		}
		for j, route := range spec.Pages {
			menu = append(menu, hugoMenuEntry{
				Identifier: ids.next(root.Identifier + "-" + route),
				Name:       route,
				URL:        route,
				Weight:     j + 1,
				Parent:     root.Identifier,
			})
		}
	}
	return menu, nil
}

func appendPages(menu []hugoMenuEntry, ids *identifiers, parent string, pages []sidebar.Page) []hugoMenuEntry {
	for i, page := range pages {
		entry := hugoMenuEntry{
			Identifier: ids.next(parent + "-" + page.Title),
			Name:       page.Title,
			URL:        page.Route,
			Weight:     i + 1,
			Parent:     parent,
		}
		menu = append(menu, entry)
		menu = appendPages(menu, ids, entry.Identifier, page.Children)
	}
	return menu
}

func ariaParams(label string) map[string]any {
	if label == "" {
		return nil
	}
	return map[string]any{"ariaLabel": label}
}

var nonSlug = regexp.MustCompile(`[^a-z0-9]+`)

// identifiers hands out unique menu identifiers derived from display text.
type identifiers map[string]bool

func (ids identifiers) next(text string) string {
	id := strings.Trim(nonSlug.ReplaceAllString(strings.ToLower(text), "-"), "-")
	if id == "" {
		id = "entry"
	}
	candidate := id
	for n := 2; ids[candidate]; n++ {
		candidate = fmt.Sprintf("%s-%d", id, n)
	}
	ids[candidate] = true
	return candidate
}
