package mcp

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/l2ai/l2ai-search/internal/dictionary"
	"github.com/l2ai/l2ai-search/internal/domain"
	"github.com/l2ai/l2ai-search/internal/querykey"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// KeyArgument defines query key parameters.
type KeyArgument struct {
	Query       string `json:"query" jsonschema_description:"Korean word or phrase"`
	Sentence    string `json:"sentence,omitempty" jsonschema_description:"Sentence containing the query, used to disambiguate the analysis"`
	Punctuation bool   `json:"punctuation,omitempty" jsonschema_description:"Keep sentence-final punctuation as keys"`
}

// LookupArgument defines dictionary lookup and inference parameters.
type LookupArgument struct {
	Query    string `json:"query" jsonschema_description:"Korean word or phrase"`
	Sentence string `json:"sentence,omitempty" jsonschema_description:"Sentence containing the query"`
}

// KeyHandler handles the reconstruct_query_key MCP tool.
type KeyHandler struct {
	keys KeyReconstructor
}

// NewKeyHandler creates a new key handler.
func NewKeyHandler(keys KeyReconstructor) *KeyHandler {
	return &KeyHandler{keys: keys}
}

// Handle reconstructs the lexicon keys of a query.
func (h *KeyHandler) Handle(ctx context.Context, req *mcp.CallToolRequest, args KeyArgument) (*mcp.CallToolResult, any, error) {
	if strings.TrimSpace(args.Query) == "" {
		return errorResult("Query cannot be empty"), nil, nil
	}

	key, err := h.keys.Reconstruct(ctx, args.Query, optional(args.Sentence), args.Punctuation)
	if err != nil {
		return queryError(err), nil, nil
	}
	return textResult(key), nil, nil
}

// GetToolDefinition returns the MCP tool definition.
func (h *KeyHandler) GetToolDefinition() *mcp.Tool {
	return &mcp.Tool{
		Name:        "reconstruct_query_key",
		Description: "Convert a Korean word or phrase into the dictionary headword forms it is looked up under",
	}
}

// RegisterKeyTool registers the key tool with an MCP server.
func RegisterKeyTool(server *mcp.Server, keys KeyReconstructor) {
	handler := NewKeyHandler(keys)
	mcp.AddTool(server, handler.GetToolDefinition(), handler.Handle)
}

// LookupHandler handles the lookup_dictionary MCP tool.
type LookupHandler struct {
	dictionary Dictionary
}

// NewLookupHandler creates a new lookup handler.
func NewLookupHandler(d Dictionary) *LookupHandler {
	return &LookupHandler{dictionary: d}
}

// Handle looks up the words of a query and returns grouped entries.
func (h *LookupHandler) Handle(ctx context.Context, req *mcp.CallToolRequest, args LookupArgument) (*mcp.CallToolResult, any, error) {
	if strings.TrimSpace(args.Query) == "" {
		return errorResult("Query cannot be empty"), nil, nil
	}

	groups, err := h.dictionary.Lookup(ctx, args.Query, optional(args.Sentence))
	if err != nil {
		return queryError(err), nil, nil
	}
	return formatGroups(groups, args.Query), nil, nil
}

// GetToolDefinition returns the MCP tool definition.
func (h *LookupHandler) GetToolDefinition() *mcp.Tool {
	return &mcp.Tool{
		Name:        "lookup_dictionary",
		Description: "Look up the dictionary entries for every word of a Korean query, grouped by headword",
	}
}

// RegisterLookupTool registers the lookup tool with an MCP server.
func RegisterLookupTool(server *mcp.Server, d Dictionary) {
	handler := NewLookupHandler(d)
	mcp.AddTool(server, handler.GetToolDefinition(), handler.Handle)
}

// InferHandler handles the infer_senses MCP tool.
type InferHandler struct {
	dictionary Dictionary
}

// NewInferHandler creates a new inference handler.
func NewInferHandler(d Dictionary) *InferHandler {
	return &InferHandler{dictionary: d}
}

// Handle ranks the senses of each word of a query in context.
func (h *InferHandler) Handle(ctx context.Context, req *mcp.CallToolRequest, args LookupArgument) (*mcp.CallToolResult, any, error) {
	if strings.TrimSpace(args.Query) == "" {
		return errorResult("Query cannot be empty"), nil, nil
	}

	inferences, err := h.dictionary.Infer(ctx, args.Query, optional(args.Sentence))
	if err != nil {
		return queryError(err), nil, nil
	}
	return formatInferences(inferences, args.Query), nil, nil
}

// GetToolDefinition returns the MCP tool definition.
func (h *InferHandler) GetToolDefinition() *mcp.Tool {
	return &mcp.Tool{
		Name:        "infer_senses",
		Description: "Rank the dictionary senses of each word of a Korean query by how well they fit the sentence",
	}
}

// RegisterInferTool registers the inference tool with an MCP server.
func RegisterInferTool(server *mcp.Server, d Dictionary) {
	handler := NewInferHandler(d)
	mcp.AddTool(server, handler.GetToolDefinition(), handler.Handle)
}

func queryError(err error) *mcp.CallToolResult {
	switch {
	case errors.Is(err, querykey.ErrQueryNotInContext):
		return errorResult("The query does not occur in the sentence")
	case errors.Is(err, dictionary.ErrRankCount):
		return errorResult(fmt.Sprintf("Sense ranking failed: %s", err))
	default:
		return errorResult(fmt.Sprintf("Lookup failed: %s", err))
	}
}

func formatGroups(groups [][]domain.DictionaryEntry, query string) *mcp.CallToolResult {
	if len(groups) == 0 {
		return textResult(fmt.Sprintf("No dictionary entries found for: %s", query))
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "Found %d headwords for '%s':\n\n", len(groups), query)

	for i, group := range groups {
		fmt.Fprintf(&sb, "### %d. %s\n", i+1, group[0].GroupKey())
		for _, entry := range group {
			fmt.Fprintf(&sb, "**%s**", entry.WrittenForm)
			if entry.PartOfSpeech != "" {
				fmt.Fprintf(&sb, " (%s)", entry.PartOfSpeech)
			}
			if entry.Grade != "" {
				fmt.Fprintf(&sb, " [%s]", entry.Grade)
			}
			sb.WriteString("\n")
			for j, sense := range entry.Senses {
				fmt.Fprintf(&sb, "%d. %s", j+1, sense.Definition)
				for _, eq := range sense.Equivalents {
					fmt.Fprintf(&sb, " | %s: %s", eq.Language, eq.Equivalent)
				}
				sb.WriteString("\n")
			}
		}
		sb.WriteString("\n")
	}

	return textResult(sb.String())
}

func formatInferences(inferences []dictionary.Inference, query string) *mcp.CallToolResult {
	if len(inferences) == 0 {
		return textResult(fmt.Sprintf("No senses to rank for: %s", query))
	}

	var sb strings.Builder
	for i, inf := range inferences {
		fmt.Fprintf(&sb, "### %d. %s", i+1, inf.WrittenForm)
		if inf.PartOfSpeech != "" {
			fmt.Fprintf(&sb, " (%s)", inf.PartOfSpeech)
		}
		sb.WriteString("\n")
		for _, s := range inf.Senses {
			fmt.Fprintf(&sb, "- %.4f %s\n", s.Rank, s.Definition)
		}
		sb.WriteString("\n")
	}

	return textResult(sb.String())
}
