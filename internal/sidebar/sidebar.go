// Package sidebar builds sidebars from the Markdown files under a docs
// directory, the way documentation frameworks do for "auto" mode.
package sidebar

import (
	"fmt"
	"log/slog"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"

	"git.home.luguber.info/inful/docnav/internal/foundation/errors"
	"git.home.luguber.info/inful/docnav/internal/frontmatter"
	"git.home.luguber.info/inful/docnav/internal/logfields"
	"git.home.luguber.info/inful/docnav/internal/site"
)

// Page is one sidebar entry. Sections carry their pages in Children.
type Page struct {
	Route    string `json:"route" yaml:"route"`
	Title    string `json:"title" yaml:"title"`
	Weight   int    `json:"weight,omitempty" yaml:"weight,omitempty"`
	Children []Page `json:"children,omitempty" yaml:"children,omitempty"`

	index bool
}

// Routes flattens pages into routes in display order.
func Routes(pages []Page) []string {
	var routes []string
	for _, p := range pages {
		routes = append(routes, p.Route)
		routes = append(routes, Routes(p.Children)...)
	}
	return routes
}

// Generator reads page metadata from DocsDir.
type Generator struct {
	DocsDir string
}

// New creates a generator rooted at docsDir.
func New(docsDir string) *Generator {
	return &Generator{DocsDir: docsDir}
}

// Generate lists the pages under the directory matching prefix. Top-level
// files become pages and each subdirectory becomes a section whose children
// are the files it contains.
func (g *Generator) Generate(prefix string) ([]Page, error) {
	prefix = normalizePrefix(prefix)
	dir := g.dirFor(prefix)
	info, err := os.Stat(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.NotFoundError("sidebar directory does not exist").
				WithContext("prefix", prefix).
				WithContext("dir", dir).
				Build()
		}
		return nil, errors.WrapError(err, errors.CategoryFileSystem, "stat sidebar directory").
			WithContext("dir", dir).
			Build()
	}
	if !info.IsDir() {
		return nil, errors.FileSystemError("sidebar path is not a directory").WithContext("dir", dir).Build()
	}

	pages, err := g.readDir(dir, prefix, true)
	if err != nil {
		return nil, err
	}
	slog.Debug("Generated sidebar", logfields.Route(prefix), "pages", len(Routes(pages)))
	return pages, nil
}

func (g *Generator) readDir(dir, prefix string, withSections bool) ([]Page, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, errors.WrapError(err, errors.CategoryFileSystem, "read sidebar directory").
			WithContext("dir", dir).
			Build()
	}

	var pages []Page
	for _, entry := range entries {
		name := entry.Name()
		if strings.HasPrefix(name, ".") || strings.HasPrefix(name, "_") {
			continue
		}
		if entry.IsDir() {
			if !withSections {
				continue
			}
			section, ok, err := g.section(filepath.Join(dir, name), prefix+name+"/", name)
			if err != nil {
				return nil, err
			}
			if ok {
				pages = append(pages, section)
			}
			continue
		}
		if !isMarkdown(name) {
			continue
		}
		page, hidden, err := readPage(filepath.Join(dir, name), prefix)
		if err != nil {
			return nil, err
		}
		if !hidden {
			pages = append(pages, page)
		}
	}
	sortPages(pages)
	return pages, nil
}

// section builds the entry for a subdirectory. A directory without an index
// page or any visible children is left out.
func (g *Generator) section(dir, route, name string) (Page, bool, error) {
	children, err := g.readDir(dir, route, false)
	if err != nil {
		return Page{}, false, err
	}
	section := Page{Route: route, Title: titleFromName(name)}
	if len(children) > 0 && children[0].index {
		idx := children[0]
		section.Title = idx.Title
		section.Weight = idx.Weight
		children = children[1:]
	} else if len(children) == 0 {
		return Page{}, false, nil
	}
	section.Children = children
	return section, true, nil
}

func readPage(file, prefix string) (Page, bool, error) {
	content, err := os.ReadFile(file)
	if err != nil {
		return Page{}, false, errors.WrapError(err, errors.CategoryFileSystem, "read page").
			WithContext("file", file).
			Build()
	}

	name := filepath.Base(file)
	page := Page{index: isIndex(name)}
	if page.index {
		page.Route = prefix
	} else {
		page.Route = prefix + stem(name) + ".html"
	}

	meta, body, err := frontmatter.Parse(content)
	if err != nil {
		slog.Warn("Failed to parse front matter", logfields.Path(file), logfields.Error(err))
		body = content
	}
	if meta.Hidden() && !page.index {
		return Page{}, true, nil
	}
	page.Weight = meta.Weight
	page.Title = meta.Title
	if page.Title == "" {
		page.Title = firstHeading(body)
	}
	if page.Title == "" {
		if page.index {
			page.Title = indexTitle(prefix)
		} else {
			page.Title = titleFromName(name)
		}
	}
	return page, false, nil
}

func indexTitle(prefix string) string {
	base := path.Base(strings.TrimSuffix(prefix, "/"))
	if base == "/" || base == "." || base == "" {
		return "Home"
	}
	return titleFromName(base)
}

// sortPages puts the index page first, then orders by weight and title.
func sortPages(pages []Page) {
	sort.SliceStable(pages, func(i, j int) bool {
		a, b := pages[i], pages[j]
		if a.index != b.index {
			return a.index
		}
		if a.Weight != b.Weight {
			return a.Weight < b.Weight
		}
		return strings.ToLower(a.Title) < strings.ToLower(b.Title)
	})
}

// Resolve returns a copy of s with every auto sidebar replaced by the
// explicit list of generated routes.
func (g *Generator) Resolve(s *site.Site) (*site.Site, error) {
	out := s.Clone()
	for prefix, spec := range out.ThemeConfig.Sidebar {
		if !spec.IsAuto() {
			continue
		}
		pages, err := g.Generate(prefix)
		if err != nil {
			return nil, err
		}
		out.ThemeConfig.Sidebar[prefix] = site.Pages(Routes(pages)...)
	}
	return out, nil
}

// Tree generates the pages of every auto sidebar in s, keyed by prefix.
func (g *Generator) Tree(s *site.Site) (map[string][]Page, error) {
	tree := make(map[string][]Page)
	for prefix, spec := range s.ThemeConfig.Sidebar {
		if !spec.IsAuto() {
			continue
		}
		pages, err := g.Generate(prefix)
		if err != nil {
			return nil, fmt.Errorf("sidebar %s: %w", prefix, err)
		}
		tree[prefix] = pages
	}
	return tree, nil
}

// RouteExists reports whether a site-relative route maps to a page in
// DocsDir. Queries and fragments are ignored. File names match the same
// way Generate reads them, so every generated page route exists.
func (g *Generator) RouteExists(route string) bool {
	p := strings.TrimPrefix(site.RoutePath(route), "/")
	if p == "" || strings.HasSuffix(p, "/") {
		return g.hasIndex(p)
	}
	p = strings.TrimSuffix(p, ".html")
	dir, base := path.Split(p)
	page := func(name string) bool {
		return isMarkdown(name) && !isIndex(name) && stem(name) == base
	}
	return g.hasEntry(dir, page) || g.hasIndex(p+"/")
}

func (g *Generator) hasIndex(dir string) bool {
	return g.hasEntry(dir, isIndex)
}

// hasEntry reports whether the docs-relative directory holds a file whose
// name satisfies match.
func (g *Generator) hasEntry(dir string, match func(name string) bool) bool {
	entries, err := os.ReadDir(filepath.Join(g.DocsDir, filepath.FromSlash(dir)))
	if err != nil {
		return false
	}
	for _, entry := range entries {
		if !entry.IsDir() && match(entry.Name()) {
			return true
		}
	}
	return false
}

func (g *Generator) dirFor(prefix string) string {
	return filepath.Join(g.DocsDir, filepath.FromSlash(strings.Trim(prefix, "/")))
}

func isIndex(name string) bool {
	base := strings.ToLower(name)
	return base == "readme.md" || base == "index.md" || base == "readme.markdown" || base == "index.markdown"
}

// stem strips the file extension whatever its case.
func stem(name string) string {
	return strings.TrimSuffix(name, filepath.Ext(name))
}

func isMarkdown(name string) bool {
	ext := strings.ToLower(filepath.Ext(name))
	return ext == ".md" || ext == ".markdown"
}

func normalizePrefix(prefix string) string {
	if !strings.HasPrefix(prefix, "/") {
		prefix = "/" + prefix
	}
	if !strings.HasSuffix(prefix, "/") {
		prefix += "/"
	}
	return prefix
}
