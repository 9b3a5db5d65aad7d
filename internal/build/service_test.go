package build

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/docnav/internal/config"
	"git.home.luguber.info/inful/docnav/internal/foundation/errors"
	"git.home.luguber.info/inful/docnav/internal/history"
	"git.home.luguber.info/inful/docnav/internal/metrics"
)

type outcomeRecorder struct {
	metrics.NoopRecorder
	mu       sync.Mutex
	outcomes []metrics.BuildOutcomeLabel
	stages   map[string]metrics.ResultLabel
}

func (r *outcomeRecorder) IncBuildOutcome(o metrics.BuildOutcomeLabel) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.outcomes = append(r.outcomes, o)
}

func (r *outcomeRecorder) IncStageResult(stage string, label metrics.ResultLabel) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.stages == nil {
		r.stages = map[string]metrics.ResultLabel{}
	}
	r.stages[stage] = label
}

// exampleProject writes the init configuration and starter docs into a
// temporary directory and returns the configuration path.
func exampleProject(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, config.DefaultPath)
	require.NoError(t, config.Init(path, false))
	_, err := config.InitDocs(filepath.Join(dir, config.DefaultDocsDir))
	require.NoError(t, err)
	return path
}

func memoryHistory(t *testing.T) *history.SQLiteStore {
	t.Helper()
	store, err := history.NewSQLiteStore(history.MemoryPath)
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestStatus_IsSuccess(t *testing.T) {
	tests := []struct {
		status   Status
		expected bool
	}{
		{StatusSuccess, true},
		{StatusWarning, true},
		{StatusSkipped, true},
		{StatusFailed, false},
		{StatusCanceled, false},
	}
	for _, tt := range tests {
		t.Run(string(tt.status), func(t *testing.T) {
			if got := tt.status.IsSuccess(); got != tt.expected {
				t.Errorf("IsSuccess() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestRun_WritesEveryFormat(t *testing.T) {
	path := exampleProject(t)
	rec := &outcomeRecorder{}
	store := memoryHistory(t)
	svc := NewBuildService(path).WithHistory(store).WithRecorder(rec)

	res, err := svc.Run(t.Context(), Request{Formats: []string{"vuepress", "hugo", "JSON", "yml"}})
	require.NoError(t, err)
	require.Equal(t, StatusSuccess, res.Status)
	require.NotEmpty(t, res.BuildID)
	require.NotEmpty(t, res.Snapshot)

	outDir := filepath.Join(filepath.Dir(path), config.DefaultOutputDir)
	require.Equal(t, []string{
		filepath.Join(outDir, "config.js"),
		filepath.Join(outDir, "hugo.yaml"),
		filepath.Join(outDir, "site.json"),
		filepath.Join(outDir, "site.yaml"),
	}, res.Files)

	js, err := os.ReadFile(res.Files[0])
	require.NoError(t, err)
	assert.Contains(t, string(js), `"/kernel/": "auto"`)

	hugo, err := os.ReadFile(res.Files[1])
	require.NoError(t, err)
	assert.Contains(t, string(hugo), "Task Scheduling")
	assert.Contains(t, string(hugo), "/kernel/scheduling.html")

	require.NotNil(t, res.Links)
	assert.Empty(t, res.Links.Broken())
	require.NotNil(t, res.Validation)
	assert.Equal(t, 12, res.Validation.EntriesTotal)

	latest, err := store.Latest(t.Context())
	require.NoError(t, err)
	require.NotNil(t, latest)
	assert.Equal(t, res.BuildID, latest.BuildID)
	assert.Equal(t, string(StatusSuccess), latest.Outcome)
	assert.Equal(t, res.Files, latest.Files)

	assert.Equal(t, []metrics.BuildOutcomeLabel{metrics.BuildOutcomeSuccess}, rec.outcomes)
	assert.Equal(t, metrics.ResultSuccess, rec.stages[StageSidebar])
	assert.Equal(t, metrics.ResultSuccess, rec.stages[StageHistory])
}

func TestRun_SkipsUnchangedInputs(t *testing.T) {
	path := exampleProject(t)
	svc := NewBuildService(path).WithHistory(memoryHistory(t))
	ctx := t.Context()

	first, err := svc.Run(ctx, Request{})
	require.NoError(t, err)
	require.False(t, first.Skipped)

	second, err := svc.Run(ctx, Request{})
	require.NoError(t, err)
	require.True(t, second.Skipped)
	require.Equal(t, StatusSkipped, second.Status)
	require.Equal(t, first.Snapshot, second.Snapshot)
	require.Equal(t, first.Files, second.Files)

	third, err := svc.Run(ctx, Request{})
	require.NoError(t, err)
	require.True(t, third.Skipped, "a skipped build is itself a valid baseline")

	forced, err := svc.Run(ctx, Request{Force: true})
	require.NoError(t, err)
	require.False(t, forced.Skipped)

	// A new page changes the expanded sidebar and therefore the snapshot.
	docs := filepath.Join(filepath.Dir(path), config.DefaultDocsDir)
	require.NoError(t, os.WriteFile(filepath.Join(docs, "kernel", "syscalls.md"), []byte("# System Calls\n"), 0o644))
	changed, err := svc.Run(ctx, Request{})
	require.NoError(t, err)
	require.False(t, changed.Skipped)
	require.NotEqual(t, first.Snapshot, changed.Snapshot)

	// Deleted output forces a rebuild.
	require.NoError(t, os.Remove(changed.Files[0]))
	rebuilt, err := svc.Run(ctx, Request{})
	require.NoError(t, err)
	require.False(t, rebuilt.Skipped)
	require.FileExists(t, rebuilt.Files[0])
}

func writeProject(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), config.DefaultPath)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

const explicitConfig = `version: "1.0"
site:
  title: Kernel Notes
  description: Annotated kernel source
  themeConfig:
    nav:
      - text: Home
        link: /
    sidebar:
      /guide/: ["/guide/", "/guide/intro.html"]
output:
  directory: out
  clean: true
  formats: [vuepress, json]
`

func TestRun_CleanRemovesStaleFormats(t *testing.T) {
	path := writeProject(t, explicitConfig)
	svc := NewBuildService(path).WithHistory(memoryHistory(t))

	first, err := svc.Run(t.Context(), Request{})
	require.NoError(t, err)
	require.Len(t, first.Files, 2)

	second, err := svc.Run(t.Context(), Request{Formats: []string{"vuepress"}})
	require.NoError(t, err)
	require.Len(t, second.Files, 1)
	require.FileExists(t, first.Files[0])
	require.NoFileExists(t, first.Files[1])
}

func TestRun_MissingDocsDirWarns(t *testing.T) {
	path := exampleProject(t)
	require.NoError(t, os.RemoveAll(filepath.Join(filepath.Dir(path), config.DefaultDocsDir)))

	res, err := NewBuildService(path).Run(t.Context(), Request{})
	require.NoError(t, err)
	require.Equal(t, StatusWarning, res.Status)
	require.Len(t, res.Files, 1)
	for _, r := range res.Links.Results {
		require.True(t, r.Skipped, r.Ref.Link)
	}

	_, err = NewBuildService(path).Run(t.Context(), Request{Formats: []string{"hugo"}})
	require.Error(t, err)
	require.True(t, errors.HasCategory(err, errors.CategoryRender))
}

func TestRun_InvalidSiteFails(t *testing.T) {
	path := writeProject(t, `version: "1.0"
site:
  title: Kernel Notes
  description: Annotated kernel source
  themeConfig:
    nav:
      - text: Broken
        link: "not a link"
`)
	store := memoryHistory(t)
	rec := &outcomeRecorder{}

	res, err := NewBuildService(path).WithHistory(store).WithRecorder(rec).Run(t.Context(), Request{})
	require.Error(t, err)
	require.True(t, errors.HasCategory(err, errors.CategoryValidation))
	require.Equal(t, StatusFailed, res.Status)
	require.Empty(t, res.Files)
	require.Equal(t, metrics.ResultFatal, rec.stages[StageValidate])
	require.Equal(t, []metrics.BuildOutcomeLabel{metrics.BuildOutcomeFailed}, rec.outcomes)

	latest, err := store.Latest(t.Context())
	require.NoError(t, err)
	require.NotNil(t, latest)
	require.Equal(t, string(StatusFailed), latest.Outcome)
	require.Positive(t, latest.Errors)
}

func TestRun_UnknownFormat(t *testing.T) {
	path := writeProject(t, explicitConfig)
	_, err := NewBuildService(path).Run(t.Context(), Request{Formats: []string{"docusaurus"}})
	require.Error(t, err)
	require.True(t, errors.HasCategory(err, errors.CategoryConfig))
}

func TestRun_MissingConfig(t *testing.T) {
	res, err := NewBuildService(filepath.Join(t.TempDir(), "missing.yaml")).Run(t.Context(), Request{})
	require.Error(t, err)
	require.Equal(t, StatusFailed, res.Status)
}

func TestRun_Canceled(t *testing.T) {
	path := writeProject(t, explicitConfig)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	res, err := NewBuildService(path).Run(ctx, Request{})
	require.ErrorIs(t, err, context.Canceled)
	require.Equal(t, StatusCanceled, res.Status)
}

func TestRun_OutputDirOverride(t *testing.T) {
	path := writeProject(t, explicitConfig)
	out := filepath.Join(t.TempDir(), "public")

	res, err := NewBuildService(path).Run(t.Context(), Request{OutputDir: out})
	require.NoError(t, err)
	require.FileExists(t, filepath.Join(out, "config.js"))
	require.FileExists(t, filepath.Join(out, "site.json"))
	require.Len(t, res.Files, 2)
}
