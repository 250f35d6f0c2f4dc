package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/alecthomas/kong"
	"github.com/fwojciec/docshelf"
	"github.com/fwojciec/docshelf/exec"
	"github.com/fwojciec/docshelf/fs"
	"github.com/fwojciec/docshelf/gemini"
	"github.com/fwojciec/docshelf/lru"
	"github.com/fwojciec/docshelf/mcp"
	"github.com/fwojciec/docshelf/openai"
	"github.com/fwojciec/docshelf/pipeline"
	dslog "github.com/fwojciec/docshelf/slog"
	"github.com/fwojciec/docshelf/sqlite"
	"github.com/fwojciec/docshelf/yaml"
	"github.com/joho/godotenv"
	"google.golang.org/genai"
)

func main() {
	// A missing .env file is fine.
	_ = godotenv.Load()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	m := NewMain()
	if err := m.Run(ctx, os.Args[1:], os.Stdout, os.Stderr); err != nil {
		fmt.Fprintln(os.Stderr, err)
		stop()
		os.Exit(1)
	}
}

// Main represents the program.
type Main struct {
	// Home is the base directory for default paths. Set before calling Run().
	Home string

	// SQLite database used by SQLite service implementations.
	DB *sqlite.DB
}

// NewMain returns a new instance of Main with defaults.
func NewMain() *Main {
	return &Main{Home: defaultHome()}
}

// Close gracefully stops the program.
func (m *Main) Close() error {
	if m.DB != nil {
		return m.DB.Close()
	}
	return nil
}

// Run executes the CLI with the given arguments.
func (m *Main) Run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	deps := &Dependencies{
		Ctx:    ctx,
		Stdout: stdout,
		Stderr: stderr,
	}

	cli := &CLI{}
	parser, err := kong.New(cli,
		kong.Name("docshelf"),
		kong.Description("Fetch, index and search documentation locally."),
		kong.Writers(stdout, stderr),
		kong.Exit(func(int) {}),
		kong.Bind(deps),
		kong.Vars{
			"dir":      filepath.Join(m.Home, "docs"),
			"db":       filepath.Join(m.Home, "docshelf.db"),
			"sources":  filepath.Join(m.Home, "sources.yaml"),
			"fetchcmd": exec.DefaultCommand,
		},
	)
	if err != nil {
		return fmt.Errorf("failed to create parser: %w", err)
	}

	if len(args) == 0 {
		_, _ = parser.Parse([]string{"--help"})
		return fmt.Errorf("no command specified. Run 'docshelf --help' to see available commands")
	}

	if args[0] == "help" || args[0] == "--help" || args[0] == "-h" {
		_, _ = parser.Parse([]string{"--help"})
		return nil
	}

	kongCtx, err := parser.Parse(args)
	if err != nil {
		return err
	}

	deps.Logger = newLogger(stderr, cli.LogLevel)

	if err := m.wire(ctx, cli, deps); err != nil {
		return err
	}
	defer m.Close()

	return kongCtx.Run(deps)
}

// wire builds the services for the parsed configuration. Capabilities
// are decided here once; commands and tools only consult deps.Caps.
func (m *Main) wire(ctx context.Context, cli *CLI, deps *Dependencies) error {
	logger := deps.Logger

	embedder, err := newEmbedder(ctx, cli)
	if err != nil {
		return err
	}
	if embedder != nil {
		limited := pipeline.NewLimitedEmbedder(embedder, cli.EmbedRPS, 1)
		embedder = dslog.NewLoggingEmbedder(pipeline.NewRetryEmbedder(limited, logger), logger)
	}

	deps.Caps = mcp.Capabilities{
		Storage:  cli.StorageEnabled(),
		Semantic: embedder != nil,
	}

	cache := fs.NewCacheService(cli.Dir)
	coordinator := pipeline.NewCoordinator(cache, dslog.NewLoggingFetcher(exec.NewFetcher(cli.FetchCmd), logger))
	coordinator.Locker = fs.NewLocker(cli.Dir)

	service := &pipeline.Service{
		Sources:     yaml.NewRegistry(cli.Sources),
		Cache:       cache,
		Coordinator: coordinator,
		Logger:      logger,
	}
	deps.Docs = service

	if !deps.Caps.Storage {
		return nil
	}

	if err := os.MkdirAll(filepath.Dir(cli.DB), 0o755); err != nil {
		return fmt.Errorf("create database directory: %w", err)
	}
	m.DB = sqlite.NewDB(cli.DB)
	if err := m.DB.Open(); err != nil {
		fmt.Fprintf(deps.Stderr, "Hint: Set DOCSHELF_DB to use a different database path\n")
		return fmt.Errorf("failed to open database at %q: %w", cli.DB, err)
	}

	chunks := dslog.NewLoggingChunkService(sqlite.NewChunkService(m.DB), logger)
	deps.Chunks = chunks

	// Queries repeat far more often than document text, so only the
	// search path goes through the vector cache.
	var queryEmbedder docshelf.Embedder
	if embedder != nil {
		queryEmbedder = lru.NewCachedEmbedder(embedder, lru.DefaultSize)
	}
	deps.Search = dslog.NewLoggingSearchService(sqlite.NewSearchService(m.DB, queryEmbedder), logger)

	if deps.Caps.CanIndex() {
		indexer := pipeline.NewIndexer(chunks, embedder)
		indexer.Logger = logger
		estimator, err := newEstimator(cli.Tokenizer)
		if err != nil {
			return err
		}
		indexer.Chunker.Estimator = estimator
		service.Indexer = indexer
	}
	return nil
}

// newEmbedder returns the configured embedding provider, or nil when
// semantic search is unavailable.
func newEmbedder(ctx context.Context, cli *CLI) (docshelf.Embedder, error) {
	provider := cli.Embedder
	if provider == "auto" {
		switch {
		case cli.OpenAIKey != "":
			provider = "openai"
		case cli.GeminiKey != "":
			provider = "gemini"
		default:
			provider = "none"
		}
	}

	switch provider {
	case "openai":
		if cli.OpenAIKey == "" {
			return nil, errors.New("OPENAI_API_KEY not set. Get a key at https://platform.openai.com/api-keys")
		}
		return openai.NewEmbedder(cli.OpenAIKey, ""), nil
	case "gemini":
		if cli.GeminiKey == "" {
			return nil, errors.New("GEMINI_API_KEY not set. Get a key at https://aistudio.google.com/apikey")
		}
		client, err := genai.NewClient(ctx, &genai.ClientConfig{
			APIKey:  cli.GeminiKey,
			Backend: genai.BackendGeminiAPI,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to connect to Gemini API: %w", err)
		}
		return gemini.NewEmbedder(client, ""), nil
	default:
		return nil, nil
	}
}

func newEstimator(name string) (docshelf.TokenEstimator, error) {
	if name != "gemini" {
		return docshelf.HeuristicEstimator, nil
	}
	estimator, err := gemini.NewTokenEstimator("")
	if err != nil {
		return nil, fmt.Errorf("failed to create token estimator: %w", err)
	}
	return estimator, nil
}

func newLogger(w io.Writer, level string) *slog.Logger {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(strings.ToUpper(level))); err != nil {
		lvl = slog.LevelInfo
	}
	return slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{Level: lvl}))
}

func defaultHome() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".docshelf"
	}
	return filepath.Join(home, ".docshelf")
}
