package render

import (
	"encoding/json"
	"io"
	"strings"

	"git.home.luguber.info/inful/docnav/internal/site"
)

// VuePress renders the `.vuepress/config.js` module.
type VuePress struct{}

func (VuePress) Name() string      { return "vuepress" }
func (VuePress) Extension() string { return ".js" }
func (VuePress) Filename() string  { return "config.js" }

// Render writes `module.exports = {...}`. Property names are identifiers,
// values are JSON literals, which are valid JavaScript.
func (VuePress) Render(w io.Writer, s *site.Site) error {
	root := &jsObject{}
	root.str("title", s.Title)
	root.str("description", s.Description)
	if s.Base != "" {
		root.str("base", s.Base)
	}

	theme := &jsObject{}
	nav := &jsArray{}
	for _, entry := range s.ThemeConfig.Nav {
		nav.add(navObject(entry))
	}
	theme.set("nav", nav)

	if len(s.ThemeConfig.Sidebar) > 0 {
		sidebar := &jsObject{}
		for _, prefix := range site.SortedPrefixes(s.ThemeConfig.Sidebar) {
			spec := s.ThemeConfig.Sidebar[prefix]
			if spec.IsAuto() {
				sidebar.set(quote(prefix), jsString(site.SidebarModeAuto))
				continue
			}
			pages := &jsArray{}
			for _, page := range spec.Pages {
				pages.add(jsString(page))
			}
			sidebar.set(quote(prefix), pages)
		}
		theme.set("sidebar", sidebar)
	}
	if s.ThemeConfig.Repo != "" {
		theme.str("repo", s.ThemeConfig.Repo)
	}
	if s.ThemeConfig.RepoLabel != "" {
		theme.str("repoLabel", s.ThemeConfig.RepoLabel)
	}
	if s.ThemeConfig.LastUpdated != "" {
		theme.str("lastUpdated", s.ThemeConfig.LastUpdated)
	}
	root.set("themeConfig", theme)

	var b strings.Builder
	b.WriteString("module.exports = ")
	root.write(&b, 0)
	b.WriteString("\n")
	_, err := io.WriteString(w, b.String())
	return err
}

func navObject(entry site.NavEntry) jsValue {
	// Leaf items stay on one line.
	obj := &jsObject{inline: !entry.IsGroup()}
	obj.str("text", entry.Text)
	if entry.AriaLabel != "" {
		obj.str("ariaLabel", entry.AriaLabel)
	}
	if !entry.IsGroup() {
		obj.str("link", entry.Link)
		return obj
	}
	items := &jsArray{}
	for _, item := range entry.Items {
		child := &jsObject{inline: true}
		child.str("text", item.Text)
		if item.AriaLabel != "" {
			child.str("ariaLabel", item.AriaLabel)
		}
		child.str("link", item.Link)
		items.add(child)
	}
	obj.set("items", items)
	return obj
}

type jsValue interface {
	write(b *strings.Builder, depth int)
}

type jsString string

func (s jsString) write(b *strings.Builder, _ int) {
	b.WriteString(quote(string(s)))
}

// quote returns s as a double-quoted literal.
func quote(s string) string {
	// json.Marshal of a string cannot fail.
	data, _ := json.Marshal(s)
	return string(data)
}

type jsField struct {
	key   string
	value jsValue
}

type jsObject struct {
	fields []jsField
	inline bool
}

func (o *jsObject) set(key string, v jsValue) {
	o.fields = append(o.fields, jsField{key: key, value: v})
}

func (o *jsObject) str(key, value string) { o.set(key, jsString(value)) }

func (o *jsObject) write(b *strings.Builder, depth int) {
	if len(o.fields) == 0 {
		b.WriteString("{}")
		return
	}
	if o.inline {
		b.WriteString("{ ")
		for i, f := range o.fields {
			if i > 0 {
				b.WriteString(", ")
			}
			b.WriteString(f.key)
			b.WriteString(": ")
			f.value.write(b, depth)
		}
		b.WriteString(" }")
		return
	}
	b.WriteString("{\n")
	for i, f := range o.fields {
		indent(b, depth+1)
		b.WriteString(f.key)
		b.WriteString(": ")
		f.value.write(b, depth+1)
		if i < len(o.fields)-1 {
			b.WriteString(",")
		}
		b.WriteString("\n")
	}
	indent(b, depth)
	b.WriteString("}")
}

type jsArray struct {
	items []jsValue
}

func (a *jsArray) add(v jsValue) { a.items = append(a.items, v) }

func (a *jsArray) write(b *strings.Builder, depth int) {
	if len(a.items) == 0 {
		b.WriteString("[]")
		return
	}
	b.WriteString("[\n")
	for i, item := range a.items {
		indent(b, depth+1)
		item.write(b, depth+1)
		if i < len(a.items)-1 {
			b.WriteString(",")
		}
		b.WriteString("\n")
	}
	indent(b, depth)
	b.WriteString("]")
}

func indent(b *strings.Builder, depth int) {
	b.WriteString(strings.Repeat("  ", depth))
}
