package mcp

import (
	"context"

	"github.com/l2ai/l2ai-search/internal/dictionary"
	"github.com/l2ai/l2ai-search/internal/domain"
	"github.com/l2ai/l2ai-search/internal/search"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// DefaultMaxResults caps search results when neither the server nor the
// caller sets a limit.
const DefaultMaxResults = 20

// KeyReconstructor rebuilds lexicon keys from a query.
type KeyReconstructor interface {
	Reconstruct(ctx context.Context, query string, sentence *string, punctuation bool) (string, error)
}

// Dictionary looks up entries and ranks senses.
type Dictionary interface {
	Lookup(ctx context.Context, query string, sentence *string) ([][]domain.DictionaryEntry, error)
	Infer(ctx context.Context, query string, sentence *string) ([]dictionary.Inference, error)
}

// Searcher runs content searches.
type Searcher interface {
	Search(ctx context.Context, query string) ([]search.Result, error)
}

// ContentReader fetches stored content documents.
type ContentReader interface {
	GetContent(ctx context.Context, id string) (*domain.ContentDocument, error)
}

// ServerConfig contains configuration for creating an MCP server
type ServerConfig struct {
	Name       string
	Version    string
	MaxResults int

	Keys       KeyReconstructor
	Dictionary Dictionary
	Searcher   Searcher
	Contents   ContentReader
}

// CreateServer creates and configures the MCP server. Tools are only
// registered for the services that are present.
func CreateServer(cfg ServerConfig) *mcp.Server {
	s := mcp.NewServer(&mcp.Implementation{
		Name:    cfg.Name,
		Version: cfg.Version,
	}, nil)

	if cfg.Keys != nil {
		RegisterKeyTool(s, cfg.Keys)
	}
	if cfg.Dictionary != nil {
		RegisterLookupTool(s, cfg.Dictionary)
		RegisterInferTool(s, cfg.Dictionary)
	}
	if cfg.Searcher != nil {
		RegisterSearchTool(s, cfg.Searcher, cfg.MaxResults)
	}
	if cfg.Contents != nil {
		RegisterContentTool(s, cfg.Contents)
	}

	return s
}

// errorResult wraps a message in a tool error result.
func errorResult(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			&mcp.TextContent{Text: text},
		},
		IsError: true,
	}
}

func textResult(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			&mcp.TextContent{Text: text},
		},
	}
}

// optional maps an empty argument to nil.
func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
