package sidebar

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/docnav/internal/foundation/errors"
	"git.home.luguber.info/inful/docnav/internal/site"
)

func writeDocs(t *testing.T, files map[string]string) string {
	t.Helper()
	root := t.TempDir()
	for rel, content := range files {
		p := filepath.Join(root, filepath.FromSlash(rel))
		require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
		require.NoError(t, os.WriteFile(p, []byte(content), 0o644))
	}
	return root
}

func kernelDocs(t *testing.T) string {
	return writeDocs(t, map[string]string{
		"README.md":                   "# LiteOS-A Kernel Notes\n",
		"guide/README.md":             "---\ntitle: Getting Started\n---\nWelcome.\n",
		"guide/build-system.md":       "# Build System\n",
		"guide/debugging.md":          "---\nweight: 1\n---\n# Debugging with `shell`\n",
		"guide/draft.md":              "---\ndraft: true\n---\n# Unfinished\n",
		"guide/notes.txt":             "ignored",
		"kernel/README.md":            "# Kernel\n",
		"kernel/task_scheduling.md":   "Scheduler internals without a heading.\n",
		"kernel/memory/index.md":      "---\ntitle: Memory Management\nweight: 5\n---\n",
		"kernel/memory/page-alloc.md": "# Physical Pages\n",
		"kernel/memory/vm/deep.md":    "# Too Deep\n",
		"kernel/ipc/event.md":         "# Events\n",
		"kernel/empty/.keep":          "",
		"kernel/_partials/header.md":  "# Partial\n",
	})
}

var pageOpts = cmpopts.IgnoreUnexported(Page{})

func TestGenerate_FlatDirectory(t *testing.T) {
	g := New(kernelDocs(t))

	pages, err := g.Generate("/guide/")
	require.NoError(t, err)

	want := []Page{
		{Route: "/guide/", Title: "Getting Started"},
		{Route: "/guide/build-system.html", Title: "Build System"},
		{Route: "/guide/debugging.html", Title: "Debugging with shell", Weight: 1},
	}
	if diff := cmp.Diff(want, pages, pageOpts); diff != "" {
		t.Fatalf("pages mismatch (-want +got):\n%s", diff)
	}
}

func TestGenerate_Sections(t *testing.T) {
	g := New(kernelDocs(t))

	pages, err := g.Generate("kernel")
	require.NoError(t, err)

	want := []Page{
		{Route: "/kernel/", Title: "Kernel"},
		{Route: "/kernel/ipc/", Title: "Ipc", Children: []Page{
			{Route: "/kernel/ipc/event.html", Title: "Events"},
		}},
		{Route: "/kernel/task_scheduling.html", Title: "Task Scheduling"},
		{Route: "/kernel/memory/", Title: "Memory Management", Weight: 5, Children: []Page{
			{Route: "/kernel/memory/page-alloc.html", Title: "Physical Pages"},
		}},
	}
	if diff := cmp.Diff(want, pages, pageOpts); diff != "" {
		t.Fatalf("pages mismatch (-want +got):\n%s", diff)
	}
	require.Equal(t, []string{
		"/kernel/",
		"/kernel/ipc/",
		"/kernel/ipc/event.html",
		"/kernel/task_scheduling.html",
		"/kernel/memory/",
		"/kernel/memory/page-alloc.html",
	}, Routes(pages))
}

func TestGenerate_MissingDirectory(t *testing.T) {
	_, err := New(t.TempDir()).Generate("/nope/")
	require.Error(t, err)
	require.True(t, errors.HasCategory(err, errors.CategoryNotFound))
}

func TestGenerate_BadFrontMatterFallsBackToHeading(t *testing.T) {
	g := New(writeDocs(t, map[string]string{
		"a/page.md": "---\ntitle: [broken\n---\n# Heading Title\n",
	}))
	pages, err := g.Generate("/a/")
	require.NoError(t, err)
	require.Len(t, pages, 1)
	require.Equal(t, "Heading Title", pages[0].Title)
}

func TestResolve_ReplacesAutoOnly(t *testing.T) {
	g := New(kernelDocs(t))
	s := site.Example()
	s.ThemeConfig.Sidebar["/api/"] = site.Pages("/api/")

	resolved, err := g.Resolve(s)
	require.NoError(t, err)

	require.True(t, s.ThemeConfig.Sidebar["/guide/"].IsAuto(), "input must not change")
	require.Equal(t, site.Pages("/guide/", "/guide/build-system.html", "/guide/debugging.html"),
		resolved.ThemeConfig.Sidebar["/guide/"])
	require.Equal(t, site.Pages("/api/"), resolved.ThemeConfig.Sidebar["/api/"])
	require.False(t, resolved.ThemeConfig.Sidebar.HasAuto())
}

func TestTree(t *testing.T) {
	g := New(kernelDocs(t))
	tree, err := g.Tree(site.Example())
	require.NoError(t, err)
	require.Len(t, tree, 2)
	require.Equal(t, "/guide/", tree["/guide/"][0].Route)
}

func TestRouteExists(t *testing.T) {
	g := New(kernelDocs(t))
	tests := []struct {
		route string
		want  bool
	}{
		{"/", true},
		{"/guide/", true},
		{"/guide", true},
		{"/guide/build-system.html", true},
		{"/guide/build-system", true},
		{"/guide/build-system.html#targets", true},
		{"/kernel/memory/", true},
		{"/kernel/memory/page-alloc.html?x=1", true},
		{"/kernel/empty/", false},
		{"/guide/missing.html", false},
		{"/guide/notes.txt", false},
	}
	for _, tt := range tests {
		require.Equal(t, tt.want, g.RouteExists(tt.route), tt.route)
	}
}

func TestRouteExists_GeneratedRoutes(t *testing.T) {
	root := writeDocs(t, map[string]string{
		"guide/Readme.md":          "# Guide\n",
		"guide/Setup.MD":           "# Setup\n",
		"guide/notes.Markdown":     "# Notes\n",
		"guide/tools/INDEX.md":     "# Tools\n",
		"guide/tools/Debugger.md":  "# Debugger\n",
		"kernel/README.md":         "# Kernel\n",
		"kernel/sched/index.md":    "# Scheduling\n",
		"kernel/sched/Priority.md": "# Priority\n",
	})
	g := New(root)

	for _, prefix := range []string{"/guide/", "/kernel/"} {
		pages, err := g.Generate(prefix)
		require.NoError(t, err)
		for _, route := range Routes(pages) {
			require.True(t, g.RouteExists(route), "generated route %s", route)
		}
	}

	pages, err := g.Generate("/guide/")
	require.NoError(t, err)
	require.ElementsMatch(t, []string{
		"/guide/", "/guide/Setup.html", "/guide/notes.html",
		"/guide/tools/", "/guide/tools/Debugger.html",
	}, Routes(pages))

	require.False(t, g.RouteExists("/guide/Readme.html"))
	require.False(t, g.RouteExists("/guide/Setup.MD.html"))
}

func TestTitleFromName(t *testing.T) {
	require.Equal(t, "Task Scheduling", titleFromName("task_scheduling.md"))
	require.Equal(t, "Page Alloc", titleFromName("page-alloc.markdown"))
}
