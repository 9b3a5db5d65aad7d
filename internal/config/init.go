package config

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/renameio/v2"
	"gopkg.in/yaml.v3"

	"git.home.luguber.info/inful/docnav/internal/foundation/errors"
	"git.home.luguber.info/inful/docnav/internal/frontmatter"
	"git.home.luguber.info/inful/docnav/internal/site"
)

const initHeader = `# docnav configuration
# Site navigation is declared under "site" and rendered into output.directory.
# Values may reference environment variables as ${VAR}.
`

// Example returns the configuration written by Init.
func Example() *Config {
	return &Config{
		Version: CurrentVersion,
		Site:    site.Example(),
		Docs:    DocsConfig{Dir: DefaultDocsDir, DetectRepo: true},
		Output:  OutputConfig{Directory: DefaultOutputDir, Formats: []string{"vuepress"}},
		LinkCheck: LinkCheckConfig{
			Enabled:      true,
			Timeout:      DefaultTimeout,
			RetryBackoff: RetryBackoffExponential,
		},
		History: HistoryConfig{Path: DefaultHistoryPath},
		Watch:   WatchConfig{Debounce: DefaultDebounce},
		Logging: LoggingConfig{Level: LogLevelInfo, Format: LogFormatText},
	}
}

// Init writes the example configuration to path. An existing file is only
// replaced when force is set.
func Init(path string, force bool) error {
	if _, err := os.Stat(path); err == nil && !force {
		return errors.ConfigError("configuration file already exists (use --force to overwrite)").
			WithContext("path", path).
			Build()
	}

	var buf bytes.Buffer
	buf.WriteString(initHeader)
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(Example()); err != nil {
		return errors.WrapError(err, errors.CategoryInternal, "encode example configuration").Build()
	}
	if err := enc.Close(); err != nil {
		return errors.WrapError(err, errors.CategoryInternal, "encode example configuration").Build()
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return errors.WrapError(err, errors.CategoryFileSystem, "create configuration directory").Build()
		}
	}
	if err := renameio.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		return errors.WrapError(err, errors.CategoryFileSystem, "write configuration").
			WithContext("path", path).
			Build()
	}
	return nil
}

type starterPage struct {
	path  string
	meta  frontmatter.Meta
	title string
	body  string
}

var starterPages = []starterPage{
	{path: "README.md", title: "LiteOS-A Kernel Notes", body: "Notes on the OpenHarmony LiteOS-A kernel, organized by subsystem."},
	{path: "guide/README.md", title: "Guide", body: "How the notes are organized and how to read the annotated source."},
	{path: "guide/getting-started.md", meta: frontmatter.Meta{Weight: 10}, title: "Getting Started", body: "Clone one of the annotated source mirrors and open kernel/base."},
	{path: "guide/building.md", meta: frontmatter.Meta{Weight: 20}, title: "Building the Kernel", body: "The kernel is built as part of an OpenHarmony small-system image."},
	{path: "kernel/README.md", title: "Kernel", body: "Subsystems under kernel/base."},
	{path: "kernel/scheduling.md", meta: frontmatter.Meta{Title: "Task Scheduling", Weight: 10}, title: "Task Scheduling", body: "Tasks, priorities and the scheduler in kernel/base/sched."},
	{path: "kernel/memory.md", meta: frontmatter.Meta{Title: "Memory Management", Weight: 20}, title: "Memory Management", body: "Heap and physical memory in kernel/base/mem."},
	{path: "kernel/virtual-memory.md", meta: frontmatter.Meta{Weight: 30}, title: "Virtual Memory", body: "Address spaces and page tables in kernel/base/vm."},
	{path: "kernel/ipc.md", meta: frontmatter.Meta{Title: "IPC", Weight: 40}, title: "IPC", body: "Events, mutexes, queues and semaphores in kernel/base/ipc."},
	{path: "kernel/multicore.md", meta: frontmatter.Meta{Weight: 50}, title: "Multicore", body: "SMP support in kernel/base/mp."},
}

// InitDocs writes starter pages for the example sidebars into dir. Existing
// files are kept. It returns the paths it created.
func InitDocs(dir string) ([]string, error) {
	var created []string
	for _, page := range starterPages {
		p := filepath.Join(dir, filepath.FromSlash(page.path))
		if _, err := os.Stat(p); err == nil {
			continue
		}
		content, err := frontmatter.Compose(page.meta, []byte(fmt.Sprintf("# %s\n\n%s\n", page.title, page.body)))
		if err != nil {
			return created, errors.WrapError(err, errors.CategoryInternal, "compose starter page").Build()
		}
		if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
			return created, errors.WrapError(err, errors.CategoryFileSystem, "create docs directory").Build()
		}
		if err := renameio.WriteFile(p, content, 0o644); err != nil {
			return created, errors.WrapError(err, errors.CategoryFileSystem, "write starter page").
				WithContext("path", p).
				Build()
		}
		created = append(created, p)
	}
	return created, nil
}
