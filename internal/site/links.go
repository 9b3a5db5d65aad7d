package site

import (
	"fmt"
	"net/url"
	"strings"
)

// LinkKind classifies a navigation link target.
type LinkKind int

const (
	// LinkInvalid is neither an absolute URL nor a site-relative path.
	LinkInvalid LinkKind = iota
	// LinkInternal is a site-relative route such as "/guide/".
	LinkInternal
	// LinkExternal is an absolute http(s) or mailto URL.
	LinkExternal
)

func (k LinkKind) String() string {
	switch k {
	case LinkInternal:
		return "internal"
	case LinkExternal:
		return "external"
	default:
		return "invalid"
	}
}

// ClassifyLink reports what kind of target link is.
func ClassifyLink(link string) LinkKind {
	if link == "" || strings.TrimSpace(link) != link || strings.ContainsAny(link, " \t\r\n") {
		return LinkInvalid
	}
	if strings.HasPrefix(link, "/") {
		if strings.HasPrefix(link, "//") {
			return LinkInvalid
		}
		if _, err := url.Parse(link); err != nil {
			return LinkInvalid
		}
		return LinkInternal
	}
	u, err := url.Parse(link)
	if err != nil {
		return LinkInvalid
	}
	switch strings.ToLower(u.Scheme) {
	case "http", "https":
		if u.Host == "" {
			return LinkInvalid
		}
		return LinkExternal
	case "mailto":
		if u.Opaque == "" {
			return LinkInvalid
		}
		return LinkExternal
	default:
		return LinkInvalid
	}
}

// LinkRef is a navigation link together with where it was declared.
type LinkRef struct {
	Path  string `json:"path"` // field path, e.g. themeConfig.nav[1].items[0].link
	Text  string `json:"text"`
	Link  string `json:"link"`
	Group string `json:"group,omitempty"` // label of the enclosing group, empty for top-level items
}

// Kind classifies the referenced link.
func (r LinkRef) Kind() LinkKind { return ClassifyLink(r.Link) }

// Links flattens every navigation link in declaration order.
func (s *Site) Links() []LinkRef {
	var refs []LinkRef
	for i, e := range s.ThemeConfig.Nav {
		if !e.IsGroup() {
			refs = append(refs, LinkRef{
				Path: fmt.Sprintf("themeConfig.nav[%d].link", i),
				Text: e.Text,
				Link: e.Link,
			})
			continue
		}
		for j, item := range e.Items {
			refs = append(refs, LinkRef{
				Path:  fmt.Sprintf("themeConfig.nav[%d].items[%d].link", i, j),
				Text:  item.Text,
				Link:  item.Link,
				Group: e.Text,
			})
		}
	}
	return refs
}

// RoutePath strips the query and fragment from a site-relative route.
func RoutePath(route string) string {
	if i := strings.IndexAny(route, "?#"); i >= 0 {
		return route[:i]
	}
	return route
}
