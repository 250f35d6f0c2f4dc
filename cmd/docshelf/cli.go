package main

import (
	"context"
	"io"
	"log/slog"

	"github.com/fwojciec/docshelf"
	"github.com/fwojciec/docshelf/mcp"
)

// Dependencies holds all services and configuration for command execution.
type Dependencies struct {
	Ctx    context.Context
	Stdout io.Writer
	Stderr io.Writer
	Logger *slog.Logger

	Docs   docshelf.DocsService
	Search docshelf.SearchService
	Chunks docshelf.ChunkService
	Caps   mcp.Capabilities
}

// CLI defines the command-line interface structure for Kong.
type CLI struct {
	Dir       string `name:"dir" env:"DOCSHELF_DIR" default:"${dir}" help:"Directory holding fetched documentation"`
	DB        string `name:"db" env:"DOCSHELF_DB" default:"${db}" help:"SQLite database path, or 'none' to disable storage"`
	Sources   string `name:"sources" env:"DOCSHELF_SOURCES" default:"${sources}" help:"YAML file with additional sources"`
	FetchCmd  string `name:"fetch-cmd" env:"DOCSHELF_FETCH_CMD" default:"${fetchcmd}" help:"External command that downloads documentation"`
	Embedder  string `name:"embedder" env:"DOCSHELF_EMBEDDER" default:"auto" enum:"auto,openai,gemini,none" help:"Embedding provider (auto,openai,gemini,none)"`
	Tokenizer string `name:"tokenizer" env:"DOCSHELF_TOKENIZER" default:"heuristic" enum:"heuristic,gemini" help:"Token estimator used for chunking (heuristic,gemini)"`
	EmbedRPS  float64 `name:"embed-rps" env:"DOCSHELF_EMBED_RPS" default:"0" help:"Embedding requests per second, 0 for unlimited"`
	OpenAIKey string `name:"openai-key" env:"OPENAI_API_KEY" help:"OpenAI API key"`
	GeminiKey string `name:"gemini-key" env:"GEMINI_API_KEY" help:"Gemini API key"`
	LogLevel  string `name:"log-level" env:"DOCSHELF_LOG_LEVEL" default:"info" enum:"debug,info,warn,error" help:"Log level (debug,info,warn,error)"`

	Serve   ServeCmd   `cmd:"" help:"Serve documentation tools over MCP"`
	Ensure  EnsureCmd  `cmd:"" help:"Fetch and index a documentation source"`
	List    SourcesCmd `cmd:"" name:"sources" help:"List documentation sources and their status"`
	Search  SearchCmd  `cmd:"" help:"Semantic search over indexed documentation"`
	Grep    GrepCmd    `cmd:"" help:"Text search over indexed documentation"`
	Indexed IndexedCmd `cmd:"" help:"List indexed sources with chunk counts"`
}

// StorageEnabled reports whether a chunk store is configured.
func (c *CLI) StorageEnabled() bool {
	return c.DB != "" && c.DB != "none"
}

// ServeCmd is the "serve" subcommand.
type ServeCmd struct {
	HTTP string `name:"http" placeholder:"ADDR" help:"Serve streamable HTTP on ADDR instead of stdio"`
}

// EnsureCmd is the "ensure" subcommand.
type EnsureCmd struct {
	Source  string `arg:"" help:"Source name or documentation URL"`
	Force   bool   `short:"f" help:"Refetch even if the local copy is fresh"`
	NoIndex bool   `name:"no-index" help:"Fetch without indexing"`
}

// SourcesCmd is the "sources" subcommand.
type SourcesCmd struct {
	Category string `short:"c" help:"Only list sources in this category"`
}

// SearchCmd is the "search" subcommand.
type SearchCmd struct {
	Query         string  `arg:"" help:"Question or topic"`
	Source        string  `short:"s" help:"Restrict results to one source"`
	Limit         int     `short:"n" default:"10" help:"Maximum number of results"`
	MinSimilarity float64 `name:"min-similarity" default:"0" help:"Drop results below this similarity"`
}

// GrepCmd is the "grep" subcommand.
type GrepCmd struct {
	Pattern string `arg:"" help:"Text to find, case-insensitive"`
	Source  string `short:"s" help:"Restrict results to one source"`
	Limit   int    `short:"n" default:"10" help:"Maximum number of chunks"`
}

// IndexedCmd is the "indexed" subcommand.
type IndexedCmd struct{}
