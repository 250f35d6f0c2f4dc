package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/fwojciec/docshelf"
	"github.com/google/uuid"
	"github.com/ncruces/go-sqlite3"
)

// Compile-time interface verification.
var _ docshelf.ChunkService = (*ChunkService)(nil)

// ChunkService implements docshelf.ChunkService using SQLite.
type ChunkService struct {
	db *DB
}

// NewChunkService creates a new ChunkService.
func NewChunkService(db *DB) *ChunkService {
	return &ChunkService{db: db}
}

const chunkColumns = "id, source, file_path, chunk_index, content, metadata, created_at"

// CreateChunks inserts all chunks in a single transaction. IDs and
// creation timestamps are assigned on success.
func (s *ChunkService) CreateChunks(ctx context.Context, chunks []*docshelf.Chunk) error {
	if len(chunks) == 0 {
		return nil
	}
	for _, c := range chunks {
		if err := c.Validate(); err != nil {
			return err
		}
	}

	tx, err := s.db.BeginTx(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO chunks (id, source, file_path, chunk_index, content, content_hash, embedding, metadata, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	now := time.Now().UTC().Truncate(time.Second)
	ids := make([]string, len(chunks))
	for i, c := range chunks {
		meta, err := json.Marshal(c.Metadata)
		if err != nil {
			return fmt.Errorf("failed to encode chunk metadata: %w", err)
		}
		ids[i] = uuid.New().String()
		if _, err := stmt.ExecContext(ctx, ids[i], c.Source, c.FilePath, c.ChunkIndex, c.Content,
			hashContent(c.Content), vectorArg(c.Embedding), string(meta), now.Format(time.RFC3339)); err != nil {
			if errors.Is(err, sqlite3.CONSTRAINT_UNIQUE) {
				return docshelf.Errorf(docshelf.ECONFLICT, "chunk %s/%s#%d already exists", c.Source, c.FilePath, c.ChunkIndex)
			}
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return err
	}

	for i, c := range chunks {
		c.ID = ids[i]
		c.CreatedAt = now
	}
	return nil
}

// FindChunks retrieves chunks matching the filter, ordered by source,
// file path and chunk index. Embeddings are not loaded.
func (s *ChunkService) FindChunks(ctx context.Context, filter docshelf.ChunkFilter) ([]*docshelf.Chunk, error) {
	var query strings.Builder
	var args []any

	query.WriteString("SELECT " + chunkColumns + " FROM chunks WHERE 1=1")

	if filter.Source != nil {
		query.WriteString(" AND source = ?")
		args = append(args, *filter.Source)
	}
	if filter.FilePath != nil {
		query.WriteString(" AND file_path = ?")
		args = append(args, *filter.FilePath)
	}

	query.WriteString(" ORDER BY source, file_path, chunk_index")
	appendPagination(&query, &args, filter.Limit, filter.Offset)

	rows, err := s.db.QueryContext(ctx, query.String(), args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var chunks []*docshelf.Chunk
	for rows.Next() {
		c, err := scanChunk(rows)
		if err != nil {
			return nil, err
		}
		chunks = append(chunks, c)
	}
	return chunks, rows.Err()
}

// DeleteChunksBySource removes every chunk of a source.
func (s *ChunkService) DeleteChunksBySource(ctx context.Context, source string) (int, error) {
	result, err := s.db.ExecContext(ctx, "DELETE FROM chunks WHERE source = ?", source)
	if err != nil {
		return 0, err
	}
	n, err := result.RowsAffected()
	if err != nil {
		return 0, err
	}
	return int(n), nil
}

// CountChunksBySource returns chunk counts per source, sorted by source.
func (s *ChunkService) CountChunksBySource(ctx context.Context) ([]docshelf.SourceCount, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT source, COUNT(*) FROM chunks GROUP BY source ORDER BY source")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := []docshelf.SourceCount{}
	for rows.Next() {
		var sc docshelf.SourceCount
		if err := rows.Scan(&sc.Source, &sc.ChunkCount); err != nil {
			return nil, err
		}
		counts = append(counts, sc)
	}
	return counts, rows.Err()
}

// scanner is implemented by *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

// scanChunk reads the chunkColumns of one row, followed by any extra
// destinations.
func scanChunk(row scanner, extra ...any) (*docshelf.Chunk, error) {
	var c docshelf.Chunk
	var meta, createdAt string

	dest := append([]any{&c.ID, &c.Source, &c.FilePath, &c.ChunkIndex, &c.Content, &meta, &createdAt}, extra...)
	if err := row.Scan(dest...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, docshelf.Errorf(docshelf.ENOTFOUND, "chunk not found")
		}
		return nil, err
	}

	if err := json.Unmarshal([]byte(meta), &c.Metadata); err != nil {
		return nil, fmt.Errorf("failed to parse chunk metadata: %w", err)
	}
	var err error
	if c.CreatedAt, err = parseRFC3339(createdAt, "created_at"); err != nil {
		return nil, err
	}
	return &c, nil
}
