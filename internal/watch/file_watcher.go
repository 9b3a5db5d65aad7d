package watch

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"git.home.luguber.info/inful/docnav/internal/logfields"
)

// Trigger sources.
const (
	SourceStartup  = "startup"
	SourceConfig   = "config"
	SourceDocs     = "docs"
	SourceSchedule = "schedule"
)

// FileWatcher monitors the configuration files and the docs tree and emits
// debounced rebuild triggers.
type FileWatcher struct {
	watcher  *fsnotify.Watcher
	debounce time.Duration
	triggers chan string

	mu          sync.Mutex
	configFiles map[string]bool // absolute paths
	docsDir     string
	watched     map[string]bool
	timer       *time.Timer
	pending     string
	stopChan    chan struct{}
}

// NewFileWatcher creates a watcher for the given configuration files
// (their directories are watched) and docs directory.
func NewFileWatcher(configFiles []string, docsDir string, debounce time.Duration) (*FileWatcher, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create file watcher: %w", err)
	}
	fw := &FileWatcher{
		watcher:     watcher,
		debounce:    debounce,
		triggers:    make(chan string, 1),
		configFiles: make(map[string]bool),
		watched:     make(map[string]bool),
		stopChan:    make(chan struct{}),
	}
	for _, f := range configFiles {
		abs, err := filepath.Abs(f)
		if err != nil {
			_ = watcher.Close()
			return nil, fmt.Errorf("failed to resolve config path: %w", err)
		}
		fw.configFiles[abs] = true
	}
	if docsDir != "" {
		if fw.docsDir, err = filepath.Abs(docsDir); err != nil {
			_ = watcher.Close()
			return nil, fmt.Errorf("failed to resolve docs directory: %w", err)
		}
	}
	return fw, nil
}

// Triggers delivers the source of each debounced change. At most one
// trigger is buffered; further changes coalesce into it.
func (fw *FileWatcher) Triggers() <-chan string { return fw.triggers }

// Start adds the watches and begins processing events.
func (fw *FileWatcher) Start(ctx context.Context) error {
	fw.mu.Lock()
	defer fw.mu.Unlock()

	// Watching the directory is more reliable than the file itself:
	// editors and atomic writers replace files by rename.
	for f := range fw.configFiles {
		if err := fw.add(filepath.Dir(f)); err != nil {
			return fmt.Errorf("failed to watch config directory %s: %w", filepath.Dir(f), err)
		}
	}
	fw.addTree(fw.docsDir)

	slog.Info("Starting file watcher", slog.Int("directories", len(fw.watched)), logfields.Path(fw.docsDir))
	go fw.watchLoop(ctx)
	return nil
}

// SetDocsDir moves the docs tree watch to dir.
func (fw *FileWatcher) SetDocsDir(dir string) error {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return err
	}
	fw.mu.Lock()
	defer fw.mu.Unlock()
	if abs == fw.docsDir {
		return nil
	}
	for path := range fw.watched {
		if fw.isConfigDir(path) || !within(fw.docsDir, path) {
			continue
		}
		_ = fw.watcher.Remove(path)
		delete(fw.watched, path)
	}
	fw.docsDir = abs
	fw.addTree(abs)
	slog.Info("Docs directory changed", logfields.Path(abs))
	return nil
}

// Close stops the watcher.
func (fw *FileWatcher) Close() error {
	fw.mu.Lock()
	defer fw.mu.Unlock()
	select {
	case <-fw.stopChan:
		return nil
	default:
		close(fw.stopChan)
	}
	if fw.timer != nil {
		fw.timer.Stop()
	}
	return fw.watcher.Close()
}

func (fw *FileWatcher) add(dir string) error {
	if fw.watched[dir] {
		return nil
	}
	if err := fw.watcher.Add(dir); err != nil {
		return err
	}
	fw.watched[dir] = true
	return nil
}

// addTree watches root and every non-hidden directory below it.
func (fw *FileWatcher) addTree(root string) {
	if root == "" {
		return
	}
	if _, err := os.Stat(root); err != nil {
		slog.Warn("Docs directory not watched", logfields.Path(root), logfields.Error(err))
		return
	}
	_ = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil || !d.IsDir() {
			return nil
		}
		if path != root && skipName(d.Name()) {
			return filepath.SkipDir
		}
		if err := fw.add(path); err != nil {
			slog.Warn("Failed to watch directory", logfields.Path(path), logfields.Error(err))
		}
		return nil
	})
}

func (fw *FileWatcher) isConfigDir(dir string) bool {
	for f := range fw.configFiles {
		if filepath.Dir(f) == dir {
			return true
		}
	}
	return false
}

func (fw *FileWatcher) watchLoop(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-fw.stopChan:
			return
		case event, ok := <-fw.watcher.Events:
			if !ok {
				return
			}
			if source := fw.classify(event); source != "" {
				slog.Debug("Change detected", logfields.Path(event.Name), slog.String("op", event.Op.String()), slog.String("source", source))
				fw.schedule(source)
			}
		case err, ok := <-fw.watcher.Errors:
			if !ok {
				return
			}
			slog.Error("File watcher error", logfields.Error(err))
		}
	}
}

// classify maps an event to a trigger source, or "" when irrelevant.
func (fw *FileWatcher) classify(event fsnotify.Event) string {
	if event.Op == fsnotify.Chmod {
		return ""
	}
	path := filepath.Clean(event.Name)

	fw.mu.Lock()
	defer fw.mu.Unlock()

	if fw.configFiles[path] {
		if event.Op&fsnotify.Remove != 0 {
			slog.Warn("Config file removed", logfields.Path(path))
			return ""
		}
		return SourceConfig
	}
	if fw.docsDir == "" || !within(fw.docsDir, path) {
		return ""
	}
	rel, err := filepath.Rel(fw.docsDir, path)
	if err != nil {
		return ""
	}
	for _, part := range strings.Split(filepath.ToSlash(rel), "/") {
		if part != "." && skipName(part) {
			return ""
		}
	}

	if event.Op&fsnotify.Create != 0 {
		if info, err := os.Stat(path); err == nil && info.IsDir() {
			fw.addTree(path)
			return SourceDocs
		}
	}
	if event.Op&(fsnotify.Remove|fsnotify.Rename) != 0 && fw.watched[path] {
		delete(fw.watched, path)
		return SourceDocs
	}
	if path == fw.docsDir || isMarkdown(path) {
		return SourceDocs
	}
	return ""
}

// schedule (re)starts the debounce timer for source.
func (fw *FileWatcher) schedule(source string) {
	fw.mu.Lock()
	defer fw.mu.Unlock()

	// A config change outranks docs changes in the same window.
	if fw.pending != SourceConfig {
		fw.pending = source
	}
	if fw.timer != nil {
		fw.timer.Stop()
	}
	fw.timer = time.AfterFunc(fw.debounce, fw.fire)
}

func (fw *FileWatcher) fire() {
	fw.mu.Lock()
	source := fw.pending
	fw.pending = ""
	fw.mu.Unlock()
	if source == "" {
		return
	}
	select {
	case fw.triggers <- source:
	default:
		// A rebuild is already pending.
	}
}

func within(root, path string) bool {
	return path == root || strings.HasPrefix(path, root+string(filepath.Separator))
}

func skipName(name string) bool {
	return strings.HasPrefix(name, ".") || strings.HasPrefix(name, "_")
}

func isMarkdown(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	return ext == ".md" || ext == ".markdown"
}
