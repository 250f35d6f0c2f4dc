// Package docshelf provides an on-demand documentation knowledge base.
// It fetches named documentation sets through an external fetcher, splits
// them into overlapping token-bounded chunks, embeds the chunks into a
// vector store, and serves semantic and exact search over the result.
//
// This package contains domain types, interfaces and the pure chunking and
// batching algorithms, following Ben Johnson's Standard Package Layout.
// Implementations live in subdirectories named after their primary
// dependency (e.g., sqlite/, openai/, gemini/, yaml/).
package docshelf
