package watch

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func startWatcher(t *testing.T, debounce time.Duration) (fw *FileWatcher, configPath, docs string) {
	t.Helper()
	dir := t.TempDir()
	configPath = filepath.Join(dir, "docnav.yaml")
	docs = filepath.Join(dir, "docs")
	require.NoError(t, os.WriteFile(configPath, []byte("version: \"1.0\"\n"), 0o644))
	require.NoError(t, os.MkdirAll(filepath.Join(docs, "guide"), 0o750))
	require.NoError(t, os.MkdirAll(filepath.Join(docs, ".vuepress"), 0o750))

	fw, err := NewFileWatcher([]string{configPath}, docs, debounce)
	require.NoError(t, err)
	require.NoError(t, fw.Start(t.Context()))
	t.Cleanup(func() { _ = fw.Close() })
	return fw, configPath, docs
}

func expectTrigger(t *testing.T, fw *FileWatcher, want string) {
	t.Helper()
	select {
	case got := <-fw.Triggers():
		require.Equal(t, want, got)
	case <-time.After(5 * time.Second):
		t.Fatalf("no %s trigger", want)
	}
}

func expectQuiet(t *testing.T, fw *FileWatcher) {
	t.Helper()
	select {
	case got := <-fw.Triggers():
		t.Fatalf("unexpected trigger %s", got)
	case <-time.After(200 * time.Millisecond):
	}
}

func TestFileWatcher_ConfigChange(t *testing.T) {
	fw, configPath, _ := startWatcher(t, 20*time.Millisecond)
	require.NoError(t, os.WriteFile(configPath, []byte("version: \"1.0\"\n# edit\n"), 0o644))
	expectTrigger(t, fw, SourceConfig)
}

func TestFileWatcher_IgnoresUnrelatedFiles(t *testing.T) {
	fw, configPath, docs := startWatcher(t, 20*time.Millisecond)
	require.NoError(t, os.WriteFile(filepath.Join(filepath.Dir(configPath), "notes.txt"), []byte("x"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(docs, ".vuepress", "config.js"), []byte("x"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(docs, "guide", "diagram.png"), []byte("x"), 0o644))
	expectQuiet(t, fw)
}

func TestFileWatcher_DocsChanges(t *testing.T) {
	fw, _, docs := startWatcher(t, 20*time.Millisecond)

	require.NoError(t, os.WriteFile(filepath.Join(docs, "guide", "intro.md"), []byte("# Intro\n"), 0o644))
	expectTrigger(t, fw, SourceDocs)

	// New directories are watched as they appear.
	sub := filepath.Join(docs, "kernel")
	require.NoError(t, os.MkdirAll(sub, 0o750))
	expectTrigger(t, fw, SourceDocs)
	require.NoError(t, os.WriteFile(filepath.Join(sub, "ipc.md"), []byte("# IPC\n"), 0o644))
	expectTrigger(t, fw, SourceDocs)

	require.NoError(t, os.Remove(filepath.Join(docs, "guide", "intro.md")))
	expectTrigger(t, fw, SourceDocs)
}

func TestFileWatcher_Debounces(t *testing.T) {
	fw, configPath, docs := startWatcher(t, 300*time.Millisecond)
	for i := 0; i < 5; i++ {
		require.NoError(t, os.WriteFile(filepath.Join(docs, "guide", "a.md"), []byte{byte('a' + i)}, 0o644))
	}
	require.NoError(t, os.WriteFile(configPath, []byte("version: \"1.0\"\n"), 0o644))
	expectTrigger(t, fw, SourceConfig)
	expectQuiet(t, fw)
}

func TestFileWatcher_SetDocsDir(t *testing.T) {
	fw, configPath, docs := startWatcher(t, 20*time.Millisecond)
	moved := filepath.Join(filepath.Dir(configPath), "handbook")
	require.NoError(t, os.MkdirAll(moved, 0o750))
	expectQuiet(t, fw)

	require.NoError(t, fw.SetDocsDir(moved))
	require.NoError(t, os.WriteFile(filepath.Join(docs, "guide", "old.md"), []byte("x"), 0o644))
	expectQuiet(t, fw)

	require.NoError(t, os.WriteFile(filepath.Join(moved, "new.md"), []byte("x"), 0o644))
	expectTrigger(t, fw, SourceDocs)
}

func TestSkipName(t *testing.T) {
	require.True(t, skipName(".vuepress"))
	require.True(t, skipName("_drafts"))
	require.False(t, skipName("guide"))
}
