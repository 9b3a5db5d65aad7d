package commands

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"git.home.luguber.info/inful/docnav/internal/config"
	"git.home.luguber.info/inful/docnav/internal/foundation/errors"
	"git.home.luguber.info/inful/docnav/internal/history"
	"git.home.luguber.info/inful/docnav/internal/site"
	"git.home.luguber.info/inful/docnav/internal/validate"
)

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	err := Execute(&CLI{}, args, &out)
	return out.String(), err
}

// project runs 'init --docs' in a temporary directory and returns the
// configuration path.
func project(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), config.DefaultPath)
	out, err := run(t, "-c", path, "init", "--docs")
	require.NoError(t, err)
	require.Contains(t, out, "Wrote "+path)
	return path
}

// writeConfig stores cfg at path in the same layout Init uses.
func writeConfig(t *testing.T, path string, cfg *config.Config) {
	t.Helper()
	data, err := yaml.Marshal(cfg)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path, data, 0o644))
}

func TestInit(t *testing.T) {
	path := project(t)
	dir := filepath.Dir(path)
	assert.FileExists(t, filepath.Join(dir, "docs", "kernel", "scheduling.md"))

	_, err := run(t, "-c", path, "init")
	require.Error(t, err)
	assert.True(t, errors.HasCategory(err, errors.CategoryConfig))

	_, err = run(t, "-c", path, "init", "--force")
	require.NoError(t, err)
}

func TestValidate(t *testing.T) {
	path := project(t)

	out, err := run(t, "-c", path, "validate", "--format", "json")
	require.NoError(t, err)
	var report validate.JSONOutput
	require.NoError(t, json.Unmarshal([]byte(out), &report))
	assert.True(t, report.Valid)
	assert.Equal(t, 12, report.EntriesTotal)
	assert.Empty(t, report.Issues)

	cfg := config.Example()
	cfg.Site.ThemeConfig.Nav[1].Link = "guide"
	writeConfig(t, path, cfg)

	out, err = run(t, "-c", path, "validate")
	require.Error(t, err)
	assert.True(t, errors.HasCategory(err, errors.CategoryValidation))
	assert.Contains(t, out, "themeConfig.nav[1].link")
	assert.Equal(t, 2, errors.NewCLIErrorAdapter(false, nil).ExitCodeFor(err))
}

func TestMissingConfig(t *testing.T) {
	_, err := run(t, "-c", filepath.Join(t.TempDir(), "absent.yaml"), "validate")
	require.Error(t, err)
	assert.True(t, errors.HasCategory(err, errors.CategoryNotFound))
	assert.Equal(t, 4, errors.NewCLIErrorAdapter(false, nil).ExitCodeFor(err))
}

func TestBuildSkipsThenForces(t *testing.T) {
	path := project(t)
	dir := filepath.Dir(path)

	out, err := run(t, "-c", path, "build", "--report", "json")
	require.NoError(t, err)
	var first struct {
		Status string   `json:"status"`
		Files  []string `json:"files"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &first))
	assert.Equal(t, "success", first.Status)
	assert.Equal(t, []string{filepath.Join(dir, "docs", ".vuepress", "config.js")}, first.Files)

	out, err = run(t, "-c", path, "build")
	require.NoError(t, err)
	assert.Contains(t, out, ": skipped (")

	out, err = run(t, "-c", path, "build", "--force", "-f", "json", "-o", filepath.Join(dir, "out"))
	require.NoError(t, err)
	assert.Contains(t, out, filepath.Join(dir, "out", "site.json"))

	out, err = run(t, "-c", path, "history", "--format", "json")
	require.NoError(t, err)
	var records []history.Record
	require.NoError(t, json.Unmarshal([]byte(out), &records))
	require.Len(t, records, 3)
	assert.Equal(t, "success", records[0].Outcome)
	assert.Equal(t, []string{"json"}, records[0].Formats)
	assert.Equal(t, "skipped", records[1].Outcome)

	out, err = run(t, "-c", path, "history", "-n", "1")
	require.NoError(t, err)
	assert.Contains(t, out, "OUTCOME")
	assert.Contains(t, out, records[0].BuildID[:8])
	assert.NotContains(t, out, records[1].BuildID[:8])
}

func TestBuildMetricsFile(t *testing.T) {
	path := project(t)
	metricsPath := filepath.Join(t.TempDir(), "docnav.prom")

	_, err := run(t, "-c", path, "build", "--metrics-file", metricsPath)
	require.NoError(t, err)

	data, err := os.ReadFile(metricsPath)
	require.NoError(t, err)
	assert.Contains(t, string(data), `docnav_build_outcomes_total{outcome="success"} 1`)
	assert.Contains(t, string(data), "docnav_nav_entries 12")
}

func TestBuildUnknownFormat(t *testing.T) {
	path := project(t)
	_, err := run(t, "-c", path, "build", "-f", "docusaurus")
	require.Error(t, err)
	assert.True(t, errors.HasCategory(err, errors.CategoryConfig))
}

func TestHistoryEmpty(t *testing.T) {
	path := project(t)
	out, err := run(t, "-c", path, "history")
	require.NoError(t, err)
	assert.Equal(t, "No builds recorded.\n", out)
}

func TestSidebar(t *testing.T) {
	path := project(t)

	out, err := run(t, "-c", path, "sidebar", "/kernel/")
	require.NoError(t, err)
	assert.Contains(t, out, "/kernel/\n")
	assert.Contains(t, out, "  Task Scheduling  /kernel/scheduling.html\n")

	out, err = run(t, "-c", path, "sidebar")
	require.NoError(t, err)
	assert.Contains(t, out, "/guide/\n")
	assert.Contains(t, out, "/kernel/\n")

	out, err = run(t, "-c", path, "sidebar", "--resolve", "--format", "json")
	require.NoError(t, err)
	resolved, err := site.Decode([]byte(out), site.FormatJSON)
	require.NoError(t, err)
	spec := resolved.ThemeConfig.Sidebar["/kernel/"]
	assert.False(t, spec.IsAuto())
	assert.Contains(t, spec.Pages, "/kernel/scheduling.html")

	_, err = run(t, "-c", path, "sidebar", "/missing/")
	require.Error(t, err)
	assert.True(t, errors.HasCategory(err, errors.CategoryNotFound))
}

func TestCheckLinks(t *testing.T) {
	path := project(t)

	out, err := run(t, "-c", path, "check-links")
	require.NoError(t, err)
	assert.Contains(t, out, "0 broken")

	cfg := config.Example()
	cfg.Site.ThemeConfig.Nav = append(cfg.Site.ThemeConfig.Nav, site.NavEntry{Text: "Missing", Link: "/missing/"})
	writeConfig(t, path, cfg)

	out, err = run(t, "-c", path, "check-links", "--all")
	require.Error(t, err)
	assert.True(t, errors.HasCategory(err, errors.CategoryLinkCheck))
	assert.Contains(t, out, "BROKEN  internal /missing/  themeConfig.nav[5].link")
	assert.Contains(t, out, "OK      internal /guide/")
	assert.Contains(t, out, "1 broken")

	out, err = run(t, "-c", path, "check-links", "--format", "json")
	require.Error(t, err)
	var report struct {
		Results []struct {
			Ref  map[string]any `json:"ref"`
			Kind string         `json:"kind"`
			OK   bool           `json:"ok"`
		} `json:"results"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &report))
	last := report.Results[len(report.Results)-1]
	assert.Equal(t, map[string]any{
		"path": "themeConfig.nav[5].link",
		"text": "Missing",
		"link": "/missing/",
	}, last.Ref)
	assert.False(t, last.OK)
}
