// Package yaml provides a source registry backed by a user YAML file.
package yaml

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/fwojciec/docshelf"
	yamlv3 "gopkg.in/yaml.v3"
)

// Ensure Registry implements docshelf.SourceRegistry at compile time.
var _ docshelf.SourceRegistry = (*Registry)(nil)

// Registry merges the built-in source table with user overrides read from
// a YAML file. The file is re-read only when its modification time
// changes; a user entry replaces a built-in entry of the same name.
type Registry struct {
	path     string
	builtins []*docshelf.Source

	mu        sync.Mutex
	modTime   time.Time
	overrides []*docshelf.Source
}

// NewRegistry creates a Registry reading overrides from path. A missing
// file means no overrides.
func NewRegistry(path string) *Registry {
	return &Registry{path: path, builtins: docshelf.BuiltinSources()}
}

// file is the on-disk override format.
type file struct {
	Sources []*docshelf.Source `yaml:"sources"`
}

// Resolve returns the source registered under name, or an ad-hoc source
// when name is a raw URL.
func (r *Registry) Resolve(name string) (*docshelf.Source, error) {
	if docshelf.IsURL(name) {
		return docshelf.SourceFromURL(name)
	}

	sources, err := r.merged()
	if err != nil {
		return nil, err
	}
	for _, s := range sources {
		if s.Name == name {
			return s, nil
		}
	}
	return nil, docshelf.Errorf(docshelf.ENOTFOUND, "unknown source %q", name)
}

// List returns registered sources sorted by name, restricted to category
// when it is not empty.
func (r *Registry) List(category string) ([]*docshelf.Source, error) {
	sources, err := r.merged()
	if err != nil {
		return nil, err
	}
	if category == "" {
		return sources, nil
	}
	return slices.DeleteFunc(sources, func(s *docshelf.Source) bool {
		return !strings.EqualFold(s.Category, category)
	}), nil
}

// merged returns copies of the built-in and override entries, overrides
// winning by name, sorted by name.
func (r *Registry) merged() ([]*docshelf.Source, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.reloadLocked(); err != nil {
		return nil, err
	}

	byName := make(map[string]*docshelf.Source, len(r.builtins)+len(r.overrides))
	for _, s := range r.builtins {
		byName[s.Name] = s
	}
	for _, s := range r.overrides {
		byName[s.Name] = s
	}

	sources := make([]*docshelf.Source, 0, len(byName))
	for _, s := range byName {
		c := *s
		sources = append(sources, &c)
	}
	slices.SortFunc(sources, func(a, b *docshelf.Source) int {
		return strings.Compare(a.Name, b.Name)
	})
	return sources, nil
}

// reloadLocked re-reads the override file if its modification time
// changed. On a parse error the previous overrides stay in effect and the
// file is retried on the next call.
func (r *Registry) reloadLocked() error {
	if r.path == "" {
		return nil
	}

	fi, err := os.Stat(r.path)
	if errors.Is(err, fs.ErrNotExist) {
		r.overrides = nil
		r.modTime = time.Time{}
		return nil
	}
	if err != nil {
		return err
	}
	if fi.ModTime().Equal(r.modTime) {
		return nil
	}

	overrides, err := Parse(r.path)
	if err != nil {
		return err
	}

	r.overrides = overrides
	r.modTime = fi.ModTime()
	return nil
}

// Parse reads and validates an override file.
func Parse(path string) ([]*docshelf.Source, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var f file
	if err := yamlv3.Unmarshal(data, &f); err != nil {
		return nil, docshelf.Errorf(docshelf.EINVALID, "parse %s: %v", path, err)
	}

	seen := make(map[string]bool, len(f.Sources))
	for i, s := range f.Sources {
		if s == nil {
			return nil, docshelf.Errorf(docshelf.EINVALID, "parse %s: empty source entry at index %d", path, i)
		}
		if err := s.Validate(); err != nil {
			return nil, fmt.Errorf("parse %s: %w", path, err)
		}
		if seen[s.Name] {
			return nil, docshelf.Errorf(docshelf.EINVALID, "parse %s: duplicate source %q", path, s.Name)
		}
		seen[s.Name] = true
	}
	return f.Sources, nil
}
