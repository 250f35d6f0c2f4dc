// Package sqlite provides SQLite-based storage implementations for docshelf services.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/ncruces/go-sqlite3"
	"github.com/ncruces/go-sqlite3/driver"
	_ "github.com/ncruces/go-sqlite3/embed"
)

// DB represents a SQLite database connection.
type DB struct {
	db   *sql.DB
	path string
}

// NewDB creates a new DB instance with the given path.
// Use ":memory:" for an in-memory database.
func NewDB(path string) *DB {
	return &DB{path: path}
}

// Open opens the database connection and creates the schema if needed.
// Every connection gets the cosine_similarity SQL function.
func (db *DB) Open() error {
	conn, err := driver.Open(db.path, registerFunctions)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite only supports one writer at a time, so limit to one connection.
	// This also keeps a single in-memory database alive for ":memory:".
	conn.SetMaxOpenConns(1)

	if err := conn.Ping(); err != nil {
		conn.Close()
		return fmt.Errorf("failed to connect to database: %w", err)
	}

	// Wait 5 seconds before failing on lock contention.
	if _, err := conn.Exec("PRAGMA busy_timeout = 5000"); err != nil {
		conn.Close()
		return fmt.Errorf("failed to set busy timeout: %w", err)
	}

	// WAL mode is not supported for in-memory databases.
	if db.path != ":memory:" {
		if _, err := conn.Exec("PRAGMA journal_mode = WAL"); err != nil {
			conn.Close()
			return fmt.Errorf("failed to enable WAL mode: %w", err)
		}
	}

	db.db = conn

	if err := db.createSchema(); err != nil {
		conn.Close()
		return fmt.Errorf("failed to create schema: %w", err)
	}

	return nil
}

// Close closes the database connection.
func (db *DB) Close() error {
	if db.db != nil {
		return db.db.Close()
	}
	return nil
}

// BeginTx starts a transaction.
func (db *DB) BeginTx(ctx context.Context) (*sql.Tx, error) {
	return db.db.BeginTx(ctx, nil)
}

// QueryRowContext executes a query that returns a single row.
func (db *DB) QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row {
	return db.db.QueryRowContext(ctx, query, args...)
}

// QueryContext executes a query that returns rows.
func (db *DB) QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error) {
	return db.db.QueryContext(ctx, query, args...)
}

// ExecContext executes a statement that doesn't return rows.
func (db *DB) ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error) {
	return db.db.ExecContext(ctx, query, args...)
}

// createSchema creates the database tables if they don't exist.
func (db *DB) createSchema() error {
	schema := `
		CREATE TABLE IF NOT EXISTS chunks (
			id TEXT PRIMARY KEY,
			source TEXT NOT NULL,
			file_path TEXT NOT NULL,
			chunk_index INTEGER NOT NULL,
			content TEXT NOT NULL,
			content_hash TEXT NOT NULL DEFAULT '',
			embedding BLOB,
			metadata TEXT NOT NULL DEFAULT '{}',
			created_at TEXT NOT NULL,
			UNIQUE (source, file_path, chunk_index)
		);

		CREATE INDEX IF NOT EXISTS idx_chunks_source ON chunks(source);
		CREATE INDEX IF NOT EXISTS idx_chunks_file_path ON chunks(file_path);
	`

	_, err := db.db.Exec(schema)
	return err
}

// registerFunctions installs the SQL functions used by search queries.
func registerFunctions(c *sqlite3.Conn) error {
	flags := sqlite3.DETERMINISTIC | sqlite3.INNOCUOUS
	if err := c.CreateFunction("cosine_similarity", 2, flags, cosineSimilarityFunc); err != nil {
		return err
	}
	return c.CreateFunction("unicode_lower", 1, flags, unicodeLowerFunc)
}

// unicodeLowerFunc lowercases text with Unicode case mapping. The built-in
// lower() only folds ASCII.
func unicodeLowerFunc(ctx sqlite3.Context, arg ...sqlite3.Value) {
	if arg[0].Type() == sqlite3.NULL {
		ctx.ResultNull()
		return
	}
	ctx.ResultText(strings.ToLower(arg[0].Text()))
}

// cosineSimilarityFunc computes the cosine similarity of two encoded
// vectors. Missing, empty, malformed or mismatched vectors yield NULL.
func cosineSimilarityFunc(ctx sqlite3.Context, arg ...sqlite3.Value) {
	if arg[0].Type() == sqlite3.NULL || arg[1].Type() == sqlite3.NULL {
		ctx.ResultNull()
		return
	}
	a, errA := decodeVector(arg[0].RawBlob())
	b, errB := decodeVector(arg[1].RawBlob())
	if errA != nil || errB != nil || len(a) == 0 {
		ctx.ResultNull()
		return
	}
	sim, err := cosineSimilarity(a, b)
	if err != nil {
		ctx.ResultNull()
		return
	}
	ctx.ResultFloat(sim)
}
