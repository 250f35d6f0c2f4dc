package mock

import "github.com/fwojciec/docshelf"

var _ docshelf.SourceRegistry = (*SourceRegistry)(nil)

// SourceRegistry is a mock implementation of docshelf.SourceRegistry.
type SourceRegistry struct {
	ResolveFn func(name string) (*docshelf.Source, error)
	ListFn    func(category string) ([]*docshelf.Source, error)
}

func (r *SourceRegistry) Resolve(name string) (*docshelf.Source, error) {
	return r.ResolveFn(name)
}

func (r *SourceRegistry) List(category string) ([]*docshelf.Source, error) {
	return r.ListFn(category)
}
