// Package mcp exposes docshelf operations as Model Context Protocol tools.
package mcp

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/fwojciec/docshelf"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// Name and Version identify the server to MCP clients.
const (
	Name    = "docshelf"
	Version = "0.1.0"
)

// ShutdownTimeout bounds the graceful shutdown of the HTTP transport.
const ShutdownTimeout = 5 * time.Second

// Capabilities is the set of optional backends available to the server.
// It is computed once at startup and decides which tools are offered.
type Capabilities struct {
	// Storage is true when a chunk store is configured.
	Storage bool

	// Semantic is true when an embedding provider is configured.
	Semantic bool
}

// CanIndex reports whether fetched sources can be made searchable.
func (c Capabilities) CanIndex() bool {
	return c.Storage && c.Semantic
}

// Server serves docshelf tools over stdio or streamable HTTP.
type Server struct {
	Docs   docshelf.DocsService
	Search docshelf.SearchService
	Chunks docshelf.ChunkService
	Caps   Capabilities
	Logger *slog.Logger

	server *mcp.Server
	tools  []string
}

// NewServer creates a server and registers the tools its capabilities
// allow. Search and Chunks may be nil when the matching capability is off.
func NewServer(docs docshelf.DocsService, search docshelf.SearchService, chunks docshelf.ChunkService, caps Capabilities) (*Server, error) {
	if docs == nil {
		return nil, errors.New("docs service required")
	}
	if caps.Storage && chunks == nil {
		return nil, errors.New("chunk service required when storage is enabled")
	}
	if caps.CanIndex() && search == nil {
		return nil, errors.New("search service required when semantic search is enabled")
	}

	s := &Server{
		Docs:   docs,
		Search: search,
		Chunks: chunks,
		Caps:   caps,
		Logger: slog.New(slog.DiscardHandler),
		server: mcp.NewServer(&mcp.Implementation{Name: Name, Version: Version}, nil),
	}
	s.registerTools()
	return s, nil
}

// Tools returns the names of the registered tools in registration order.
func (s *Server) Tools() []string {
	return append([]string(nil), s.tools...)
}

// Run serves over stdio until ctx is cancelled or the client disconnects.
func (s *Server) Run(ctx context.Context) error {
	s.Logger.Info("serving on stdio", "tools", s.tools)
	return s.server.Run(ctx, &mcp.StdioTransport{})
}

// Handler returns an http.Handler for the streamable HTTP transport.
func (s *Server) Handler() http.Handler {
	return mcp.NewStreamableHTTPHandler(func(_ *http.Request) *mcp.Server {
		return s.server
	}, nil)
}

// RunHTTP serves over streamable HTTP on addr until ctx is cancelled.
func (s *Server) RunHTTP(ctx context.Context, addr string) error {
	httpServer := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), ShutdownTimeout)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			s.Logger.Warn("http shutdown", "err", err)
		}
	}()

	s.Logger.Info("serving on http", "addr", addr, "tools", s.tools)
	if err := httpServer.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
