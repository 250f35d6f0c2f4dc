package docshelf

import (
	"context"
	"fmt"
)

// Indexer replaces the stored chunks of a source with freshly embedded ones.
type Indexer interface {
	// Reindex deletes every stored chunk of source, then chunks, embeds and
	// stores files (paths relative to dir) batch by batch. A failed batch
	// aborts the rest; earlier batches stay committed and an *IndexError
	// is returned.
	Reindex(ctx context.Context, source, dir string, files []string) (*IndexResult, error)
}

// IndexResult summarizes a completed reindex.
type IndexResult struct {
	Files   int `json:"files"`
	Chunks  int `json:"chunks"`
	Batches int `json:"batches"`
	Deleted int `json:"deleted"`
}

// IndexError reports that a source was fetched but could not be made
// searchable. Batches before Batch were committed and remain in storage
// until the next full reindex replaces them.
type IndexError struct {
	Source string

	// Batch is the 0-based index of the failed batch, or -1 when the
	// failure happened before embedding started.
	Batch     int
	Batches   int
	Committed int

	Err error
}

func (e *IndexError) Error() string {
	if e.Batch < 0 {
		return fmt.Sprintf("index %s: %v", e.Source, e.Err)
	}
	return fmt.Sprintf("index %s: batch %d/%d failed (%d chunks committed): %v",
		e.Source, e.Batch+1, e.Batches, e.Committed, e.Err)
}

func (e *IndexError) Unwrap() error {
	return e.Err
}
