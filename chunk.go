package docshelf

import (
	"context"
	"time"
)

// Chunk represents a section of a document optimized for embedding and retrieval.
// The triple (Source, FilePath, ChunkIndex) is unique.
type Chunk struct {
	ID         string        `json:"id"`
	Source     string        `json:"source"`
	FilePath   string        `json:"filePath"`
	ChunkIndex int           `json:"chunkIndex"`
	Content    string        `json:"content"`
	Embedding  []float32     `json:"embedding,omitempty"`
	Metadata   ChunkMetadata `json:"metadata"`
	CreatedAt  time.Time     `json:"createdAt"`
}

// ChunkMetadata contains contextual information about a chunk.
type ChunkMetadata struct {
	// First markdown heading found in the chunk, if any.
	Heading string `json:"heading,omitempty"`

	TokenEstimate int `json:"tokenEstimate"`

	// Path of the file the chunk was cut from, relative to the source dir.
	OriginFilePath string `json:"originFilePath"`
}

// Validate returns an error if the chunk contains invalid fields.
func (c *Chunk) Validate() error {
	if c.Source == "" {
		return Errorf(EINVALID, "chunk source required")
	}
	if c.FilePath == "" {
		return Errorf(EINVALID, "chunk file path required")
	}
	if c.ChunkIndex < 0 {
		return Errorf(EINVALID, "chunk index must not be negative")
	}
	if c.Content == "" {
		return Errorf(EINVALID, "chunk content required")
	}
	return nil
}

// ChunkService represents the storage collaborator for embedded chunks.
type ChunkService interface {
	// CreateChunks persists chunks as one atomic unit: either all rows
	// commit or none do.
	// Returns ECONFLICT if a (source, file path, chunk index) already exists.
	CreateChunks(ctx context.Context, chunks []*Chunk) error

	// FindChunks retrieves chunks matching the filter, ordered by
	// file path and chunk index.
	FindChunks(ctx context.Context, filter ChunkFilter) ([]*Chunk, error)

	// DeleteChunksBySource removes every chunk of a source and returns
	// the number removed.
	DeleteChunksBySource(ctx context.Context, source string) (int, error)

	// CountChunksBySource returns chunk counts per source, sorted by source.
	CountChunksBySource(ctx context.Context) ([]SourceCount, error)
}

// ChunkFilter represents a filter for FindChunks.
type ChunkFilter struct {
	Source   *string `json:"source"`
	FilePath *string `json:"filePath"`

	Offset int `json:"offset"`
	Limit  int `json:"limit"`
}

// SourceCount is the number of stored chunks for a source.
type SourceCount struct {
	Source     string `json:"source"`
	ChunkCount int    `json:"chunkCount"`
}
