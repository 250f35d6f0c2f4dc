package docshelf

import "context"

// EnsureOptions controls an ensure request.
type EnsureOptions struct {
	// Force refetches even when the cache is fresh.
	Force bool

	// Index makes the fetched files searchable. Ignored when no storage
	// or embedding provider is configured.
	Index bool
}

// EnsureResult reports what an ensure request did.
type EnsureResult struct {
	Source    string `json:"source"`
	Fetched   bool   `json:"fetched"`
	FileCount int    `json:"fileCount"`
	Indexed   bool   `json:"indexed"`

	// Shared is true when the work was coalesced with a concurrent request.
	Shared bool `json:"shared,omitempty"`
}

// SourceStatus is a registry entry together with its cache state.
type SourceStatus struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Category    string `json:"category"`
	Status      string `json:"status"`

	// Fetching reports a fetch or indexing run in progress.
	Fetching bool `json:"fetching,omitempty"`
}

// DocsService is the top-level entry point for making documentation
// available locally.
type DocsService interface {
	// Ensure makes sure source is fetched and, if requested, indexed.
	// An *IndexError means the files were fetched but are not searchable;
	// the result is returned alongside it. A *FetchError means nothing
	// was fetched.
	Ensure(ctx context.Context, source string, opts EnsureOptions) (*EnsureResult, error)

	// ListSources returns registered sources with their cache status.
	ListSources(ctx context.Context, category string) ([]*SourceStatus, error)
}
