package mcp

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/l2ai/l2ai-search/internal/store"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// ContentArgument defines read parameters.
type ContentArgument struct {
	ID string `json:"id" jsonschema_description:"Content document ID as returned by search_content"`
}

// ContentHandler handles the get_content MCP tool.
type ContentHandler struct {
	contents ContentReader
}

// NewContentHandler creates a new content handler.
func NewContentHandler(contents ContentReader) *ContentHandler {
	return &ContentHandler{contents: contents}
}

// Handle reads a content document and returns its text.
func (h *ContentHandler) Handle(ctx context.Context, req *mcp.CallToolRequest, args ContentArgument) (*mcp.CallToolResult, any, error) {
	id := strings.TrimSpace(args.ID)
	if id == "" {
		return errorResult("ID cannot be empty"), nil, nil
	}

	doc, err := h.contents.GetContent(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return errorResult(fmt.Sprintf("Content not found: %s", id)), nil, nil
		}
		return errorResult(fmt.Sprintf("Error reading content: %s", err)), nil, nil
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "**Title**: %s\n", doc.Title)
	fmt.Fprintf(&sb, "**ID**: %s\n", doc.ID)
	for _, f := range []struct{ name, value string }{
		{"Format", doc.Format},
		{"Method", doc.Method},
		{"Level", doc.Level},
		{"Length", doc.Length},
		{"Style", doc.Style},
	} {
		if f.value != "" {
			fmt.Fprintf(&sb, "**%s**: %s\n", f.name, f.value)
		}
	}
	fmt.Fprintf(&sb, "**Size**: %d characters\n\n", len([]rune(doc.Text)))
	sb.WriteString(doc.Text)

	return textResult(sb.String()), nil, nil
}

// GetToolDefinition returns the MCP tool definition.
func (h *ContentHandler) GetToolDefinition() *mcp.Tool {
	return &mcp.Tool{
		Name:        "get_content",
		Description: "Read the full text of a content document",
	}
}

// RegisterContentTool registers the content tool with an MCP server.
func RegisterContentTool(server *mcp.Server, contents ContentReader) {
	handler := NewContentHandler(contents)
	mcp.AddTool(server, handler.GetToolDefinition(), handler.Handle)
}
