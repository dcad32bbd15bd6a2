package mcp

import (
	"context"
	"fmt"
	"strings"

	"github.com/l2ai/l2ai-search/internal/search"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// SearchArgument defines search parameters.
type SearchArgument struct {
	Query string `json:"query" jsonschema_description:"Korean word or phrase to find in the content corpus"`
	Limit int    `json:"limit,omitempty" jsonschema_description:"Maximum number of documents to return"`
}

// SearchHandler handles the search_content MCP tool.
type SearchHandler struct {
	searcher   Searcher
	maxResults int
}

// NewSearchHandler creates a new search handler. maxResults caps the number
// of documents returned.
func NewSearchHandler(searcher Searcher, maxResults int) *SearchHandler {
	if maxResults <= 0 {
		maxResults = DefaultMaxResults
	}
	return &SearchHandler{searcher: searcher, maxResults: maxResults}
}

// Handle executes the search and returns formatted results.
func (h *SearchHandler) Handle(ctx context.Context, req *mcp.CallToolRequest, args SearchArgument) (*mcp.CallToolResult, any, error) {
	if strings.TrimSpace(args.Query) == "" {
		return errorResult("Query cannot be empty"), nil, nil
	}
	if args.Limit < 0 {
		return errorResult("Limit cannot be negative"), nil, nil
	}

	results, err := h.searcher.Search(ctx, args.Query)
	if err != nil {
		return errorResult(fmt.Sprintf("Search failed: %s", err)), nil, nil
	}

	limit := h.maxResults
	if args.Limit > 0 {
		limit = min(args.Limit, limit)
	}

	return formatResults(results, args.Query, limit), nil, nil
}

// formatResults formats ranked documents with the sentences around each
// match.
func formatResults(results []search.Result, query string, limit int) *mcp.CallToolResult {
	if len(results) == 0 {
		return textResult(fmt.Sprintf("No results found for query: %s", query))
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "Found %d results for '%s':\n\n", len(results), query)

	shown := results[:min(limit, len(results))]
	for i, r := range shown {
		doc := r.Document
		fmt.Fprintf(&sb, "### %d. %s\n", i+1, doc.Title)
		fmt.Fprintf(&sb, "**ID**: %s\n", doc.ID)
		if doc.Level != "" {
			fmt.Fprintf(&sb, "**Level**: %s\n", doc.Level)
		}
		sb.WriteString("\n")

		for _, ex := range r.Excerpts() {
			runes := []rune(ex.Text)
			fmt.Fprintf(&sb, "> %s**%s**%s\n", string(runes[:ex.Start]), string(runes[ex.Start:ex.End]), string(runes[ex.End:]))
		}
		sb.WriteString("\n")
	}

	if len(results) > len(shown) {
		fmt.Fprintf(&sb, "... and %d more results\n", len(results)-len(shown))
	}

	return textResult(sb.String())
}

// GetToolDefinition returns the MCP tool definition.
func (h *SearchHandler) GetToolDefinition() *mcp.Tool {
	return &mcp.Tool{
		Name:        "search_content",
		Description: "Find learning content containing the morphemes of a Korean query, ranked by how much of the text matches",
	}
}

// RegisterSearchTool registers the search tool with an MCP server.
func RegisterSearchTool(server *mcp.Server, searcher Searcher, maxResults int) {
	handler := NewSearchHandler(searcher, maxResults)
	mcp.AddTool(server, handler.GetToolDefinition(), handler.Handle)
}
