package main

import (
	"fmt"

	"github.com/fwojciec/docshelf/mcp"
)

// Run executes the serve command.
func (c *ServeCmd) Run(deps *Dependencies) error {
	server, err := mcp.NewServer(deps.Docs, deps.Search, deps.Chunks, deps.Caps)
	if err != nil {
		return fmt.Errorf("failed to create server: %w", err)
	}
	server.Logger = deps.Logger

	if !deps.Caps.Semantic {
		deps.Logger.Warn("no embedding provider configured; search_docs is disabled and sources are not indexed")
	}
	if !deps.Caps.Storage {
		deps.Logger.Warn("storage disabled; only fetching tools are available")
	}

	if c.HTTP != "" {
		return server.RunHTTP(deps.Ctx, c.HTTP)
	}
	return server.Run(deps.Ctx)
}
