package site

import (
	"encoding/json"
	"fmt"
	"sort"

	"gopkg.in/yaml.v3"

	"git.home.luguber.info/inful/docnav/internal/foundation/normalization"
)

// SidebarMode selects how the sidebar below a route prefix is produced.
type SidebarMode string

const (
	// SidebarModeAuto asks the framework to derive the sidebar from the page structure.
	SidebarModeAuto SidebarMode = "auto"
	// SidebarModeExplicit lists the sidebar pages in order.
	SidebarModeExplicit SidebarMode = "explicit"
)

var sidebarModeTokens = normalization.NewNormalizer(map[string]SidebarMode{
	"auto": SidebarModeAuto,
}, "")

// SidebarSpec is the sidebar declaration for one route prefix. On the wire
// it is either the "auto" token or a list of page routes.
type SidebarSpec struct {
	Mode  SidebarMode
	Pages []string
}

// Auto returns the automatic sidebar declaration.
func Auto() SidebarSpec { return SidebarSpec{Mode: SidebarModeAuto} }

// Pages returns an explicit sidebar declaration.
func Pages(routes ...string) SidebarSpec {
	return SidebarSpec{Mode: SidebarModeExplicit, Pages: append([]string{}, routes...)}
}

// IsAuto reports whether the declaration uses automatic mode.
func (s SidebarSpec) IsAuto() bool { return s.Mode == SidebarModeAuto }

// Sidebar maps a route prefix to its sidebar declaration.
type Sidebar map[string]SidebarSpec

// HasAuto reports whether any prefix uses automatic mode.
func (s Sidebar) HasAuto() bool {
	for _, spec := range s {
		if spec.IsAuto() {
			return true
		}
	}
	return false
}

// SortedPrefixes returns the prefixes in match order: the most specific
// (longest) prefix first, ties broken lexically, "/" always last.
func SortedPrefixes(s Sidebar) []string {
	prefixes := make([]string, 0, len(s))
	for p := range s {
		prefixes = append(prefixes, p)
	}
	sort.Slice(prefixes, func(i, j int) bool {
		a, b := prefixes[i], prefixes[j]
		if a == "/" || b == "/" {
			return b == "/" && a != "/"
		}
		if len(a) != len(b) {
			return len(a) > len(b)
		}
		return a < b
	})
	return prefixes
}

func parseSidebarToken(raw string) (SidebarSpec, error) {
	mode, err := sidebarModeTokens.Parse(raw)
	if err != nil {
		return SidebarSpec{}, fmt.Errorf("sidebar: %w", err)
	}
	return SidebarSpec{Mode: mode}, nil
}

// MarshalJSON implements json.Marshaler.
func (s SidebarSpec) MarshalJSON() ([]byte, error) {
	if s.IsAuto() {
		return json.Marshal(string(SidebarModeAuto))
	}
	pages := s.Pages
	if pages == nil {
		pages = []string{}
	}
	return json.Marshal(pages)
}

// UnmarshalJSON implements json.Unmarshaler.
func (s *SidebarSpec) UnmarshalJSON(data []byte) error {
	var token string
	if err := json.Unmarshal(data, &token); err == nil {
		spec, perr := parseSidebarToken(token)
		if perr != nil {
			return perr
		}
		*s = spec
		return nil
	}
	var pages []string
	if err := json.Unmarshal(data, &pages); err != nil {
		return fmt.Errorf("sidebar: expected %q or a list of routes: %w", SidebarModeAuto, err)
	}
	*s = SidebarSpec{Mode: SidebarModeExplicit, Pages: pages}
	return nil
}

// MarshalYAML implements yaml.Marshaler.
func (s SidebarSpec) MarshalYAML() (any, error) {
	if s.IsAuto() {
		return string(SidebarModeAuto), nil
	}
	if s.Pages == nil {
		return []string{}, nil
	}
	return s.Pages, nil
}

// UnmarshalYAML implements yaml.Unmarshaler.
func (s *SidebarSpec) UnmarshalYAML(node *yaml.Node) error {
	switch node.Kind {
	case yaml.ScalarNode:
		spec, err := parseSidebarToken(node.Value)
		if err != nil {
			return fmt.Errorf("line %d: %w", node.Line, err)
		}
		*s = spec
		return nil
	case yaml.SequenceNode:
		pages := []string{}
		if err := node.Decode(&pages); err != nil {
			return err
		}
		*s = SidebarSpec{Mode: SidebarModeExplicit, Pages: pages}
		return nil
	default:
		return fmt.Errorf("line %d: sidebar: expected %q or a list of routes", node.Line, SidebarModeAuto)
	}
}
