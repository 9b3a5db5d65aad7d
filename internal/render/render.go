// Package render turns a site definition into the configuration files that
// documentation frameworks consume.
package render

import (
	"bytes"
	"fmt"
	"io"
	"path/filepath"
	"sort"
	"sync"

	"github.com/google/renameio/v2"

	"git.home.luguber.info/inful/docnav/internal/foundation/errors"
	"git.home.luguber.info/inful/docnav/internal/site"
)

// Renderer writes a site definition in one output format.
type Renderer interface {
	Name() string
	Extension() string
	Render(w io.Writer, s *site.Site) error
}

// Registry manages the available renderers by name.
type Registry struct {
	mu        sync.RWMutex
	renderers map[string]Renderer
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{renderers: make(map[string]Renderer)}
}

// Default returns a registry with every built-in renderer. pages resolves
// auto sidebars for formats that cannot express them natively and may be nil.
func Default(pages PageSource) *Registry {
	r := NewRegistry()
	for _, renderer := range []Renderer{VuePress{}, JSON{}, YAML{}, &Hugo{Pages: pages}} {
		if err := r.Register(renderer); err != nil {
			panic(err)
		}
	}
	return r
}

// Register adds a renderer. Names must be unique.
func (r *Registry) Register(renderer Renderer) error {
	if renderer == nil {
		return fmt.Errorf("cannot register nil renderer")
	}
	name := renderer.Name()
	if name == "" {
		return fmt.Errorf("renderer name is empty")
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.renderers[name]; exists {
		return fmt.Errorf("renderer %s already registered", name)
	}
	r.renderers[name] = renderer
	return nil
}

// Get retrieves a renderer by name.
func (r *Registry) Get(name string) (Renderer, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	renderer, ok := r.renderers[name]
	if !ok {
		return nil, errors.ConfigError(fmt.Sprintf("unknown output format %q", name)).
			WithContext("available", r.namesLocked()).
			Build()
	}
	return renderer, nil
}

// Names returns the registered renderer names in sorted order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.namesLocked()
}

func (r *Registry) namesLocked() []string {
	names := make([]string, 0, len(r.renderers))
	for name := range r.renderers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Filename returns the file name a renderer's output is written to.
func Filename(r Renderer) string {
	if named, ok := r.(interface{ Filename() string }); ok {
		return named.Filename()
	}
	return "site" + r.Extension()
}

// Bytes renders s into memory.
func Bytes(r Renderer, s *site.Site) ([]byte, error) {
	var buf bytes.Buffer
	if err := r.Render(&buf, s); err != nil {
		return nil, errors.WrapError(err, errors.CategoryRender, "render site").
			WithContext("format", r.Name()).
			Build()
	}
	return buf.Bytes(), nil
}

// WriteFile renders s and atomically replaces path with the result.
func WriteFile(path string, r Renderer, s *site.Site) error {
	data, err := Bytes(r, s)
	if err != nil {
		return err
	}
	if err := renameio.WriteFile(path, data, 0o644); err != nil {
		return errors.WrapError(err, errors.CategoryFileSystem, "write rendered output").
			WithContext("path", filepath.Clean(path)).
			WithContext("format", r.Name()).
			Build()
	}
	return nil
}
