// Package site models the navigation configuration of a documentation site:
// site metadata, the top navigation bar and the sidebar mapping.
package site

import "encoding/json"

// Site is the root configuration object consumed by the documentation framework.
type Site struct {
	Title       string      `json:"title" yaml:"title" validate:"notblank"`
	Description string      `json:"description" yaml:"description" validate:"notblank"`
	Base        string      `json:"base,omitempty" yaml:"base,omitempty"`
	ThemeConfig ThemeConfig `json:"themeConfig" yaml:"themeConfig"`
}

// ThemeConfig holds the theme-level navigation settings.
type ThemeConfig struct {
	Nav         []NavEntry `json:"nav,omitempty" yaml:"nav,omitempty" validate:"dive"`
	Sidebar     Sidebar    `json:"sidebar,omitempty" yaml:"sidebar,omitempty"`
	Repo        string     `json:"repo,omitempty" yaml:"repo,omitempty"`
	RepoLabel   string     `json:"repoLabel,omitempty" yaml:"repoLabel,omitempty"`
	LastUpdated string     `json:"lastUpdated,omitempty" yaml:"lastUpdated,omitempty"`
}

// NavItem is a single clickable navigation entry.
type NavItem struct {
	Text      string `json:"text" yaml:"text" validate:"notblank"`
	AriaLabel string `json:"ariaLabel,omitempty" yaml:"ariaLabel,omitempty"`
	Link      string `json:"link" yaml:"link"`
}

// NavEntry is one element of the navigation bar: a plain item when Items is
// nil, otherwise a labeled dropdown group.
type NavEntry struct {
	Text      string    `json:"text" yaml:"text" validate:"notblank"`
	AriaLabel string    `json:"ariaLabel,omitempty" yaml:"ariaLabel,omitempty"`
	Link      string    `json:"link,omitempty" yaml:"link,omitempty"`
	Items     []NavItem `json:"items,omitempty" yaml:"items,omitempty" validate:"dive"`
}

// IsGroup reports whether the entry was declared with an items list.
// An empty list still counts so that empty groups can be reported.
func (e NavEntry) IsGroup() bool {
	return e.Items != nil
}

// navGroup is the wire form of a group entry. Items is always written so an
// empty group decodes as a group again.
type navGroup struct {
	Text      string    `json:"text" yaml:"text"`
	AriaLabel string    `json:"ariaLabel,omitempty" yaml:"ariaLabel,omitempty"`
	Link      string    `json:"link,omitempty" yaml:"link,omitempty"`
	Items     []NavItem `json:"items" yaml:"items"`
}

// navLink is the wire form of a plain entry.
type navLink struct {
	Text      string    `json:"text" yaml:"text"`
	AriaLabel string    `json:"ariaLabel,omitempty" yaml:"ariaLabel,omitempty"`
	Link      string    `json:"link,omitempty" yaml:"link,omitempty"`
	Items     []NavItem `json:"items,omitempty" yaml:"items,omitempty"`
}

// MarshalJSON implements json.Marshaler.
func (e NavEntry) MarshalJSON() ([]byte, error) {
	if e.IsGroup() {
		return json.Marshal(navGroup(e))
	}
	return json.Marshal(navLink(e))
}

// MarshalYAML implements yaml.Marshaler.
func (e NavEntry) MarshalYAML() (any, error) {
	if e.IsGroup() {
		return navGroup(e), nil
	}
	return navLink(e), nil
}

// Item returns the entry viewed as a plain menu item.
func (e NavEntry) Item() NavItem {
	return NavItem{Text: e.Text, AriaLabel: e.AriaLabel, Link: e.Link}
}

// Groups returns the group entries of the navigation bar in declaration order.
func (s *Site) Groups() []NavEntry {
	var groups []NavEntry
	for _, e := range s.ThemeConfig.Nav {
		if e.IsGroup() {
			groups = append(groups, e)
		}
	}
	return groups
}

// Clone returns a deep copy of the site.
func (s *Site) Clone() *Site {
	if s == nil {
		return nil
	}
	cp := *s
	if s.ThemeConfig.Nav != nil {
		cp.ThemeConfig.Nav = make([]NavEntry, len(s.ThemeConfig.Nav))
		for i, e := range s.ThemeConfig.Nav {
			cp.ThemeConfig.Nav[i] = e
			if e.Items != nil {
				cp.ThemeConfig.Nav[i].Items = append(make([]NavItem, 0, len(e.Items)), e.Items...)
			}
		}
	}
	if s.ThemeConfig.Sidebar != nil {
		cp.ThemeConfig.Sidebar = make(Sidebar, len(s.ThemeConfig.Sidebar))
		for prefix, spec := range s.ThemeConfig.Sidebar {
			if spec.Pages != nil {
				spec.Pages = append(make([]string, 0, len(spec.Pages)), spec.Pages...)
			}
			cp.ThemeConfig.Sidebar[prefix] = spec
		}
	}
	return &cp
}
