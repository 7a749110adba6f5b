package agent

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
)

// SemanticSearchTool finds document chunks by meaning.
type SemanticSearchTool struct {
	tenantID  string
	retriever Retriever
}

// NewSemanticSearchTool creates a semantic search tool scoped to a tenant.
func NewSemanticSearchTool(tenantID string, retriever Retriever) *SemanticSearchTool {
	return &SemanticSearchTool{tenantID: tenantID, retriever: retriever}
}

func (t *SemanticSearchTool) Name() string { return "semantic_search" }

func (t *SemanticSearchTool) Description() string {
	return "Search documents by semantic meaning. Use this for natural language " +
		"questions about procedures, concepts, maintenance, troubleshooting, " +
		"or general technical information. Returns relevant document chunks " +
		"with content and source information."
}

func (t *SemanticSearchTool) Parameters() json.RawMessage {
	return json.RawMessage(`{
		"type": "object",
		"properties": {
			"query": {
				"type": "string",
				"description": "The natural language query to search for. Use this for conceptual questions like 'how to replace oil filter' or 'maintenance procedures for hydraulic system'."
			},
			"limit": {
				"type": "integer",
				"description": "Maximum number of results to return (1-10).",
				"default": 5
			}
		},
		"required": ["query"]
	}`)
}

// Invoke runs the search and formats the top hits with score and source.
func (t *SemanticSearchTool) Invoke(ctx context.Context, args json.RawMessage) string {
	var input struct {
		Query string `json:"query"`
		Limit int    `json:"limit"`
	}
	if err := json.Unmarshal(args, &input); err != nil {
		return fmt.Sprintf("Invalid arguments: %s", err)
	}

	hits, err := t.retriever.Search(ctx, t.tenantID, input.Query, clampLimit(input.Limit))
	if err != nil {
		return fmt.Sprintf("Search error: %s", err)
	}
	if len(hits) == 0 {
		return "No relevant documents found for this query."
	}

	parts := make([]string, 0, len(hits))
	for i, hit := range hits {
		parts = append(parts, fmt.Sprintf(
			"[Result %d] (Score: %.2f, %s)\n%s", i+1, hit.Score, sourceInfo(hit), hit.Content,
		))
	}
	return strings.Join(parts, "\n\n")
}
