package agent

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
)

// KeywordSearchTool finds chunks containing an exact technical identifier.
// Two tiers: a full-text payload match first; if that yields nothing, a
// semantic search over a wider candidate set re-filtered by case-insensitive
// substring. Exact match misses paraphrases, but running the cheap exact pass
// first keeps the common "code lookup" case fast.
type KeywordSearchTool struct {
	tenantID  string
	retriever Retriever
}

// NewKeywordSearchTool creates a keyword search tool scoped to a tenant.
func NewKeywordSearchTool(tenantID string, retriever Retriever) *KeywordSearchTool {
	return &KeywordSearchTool{tenantID: tenantID, retriever: retriever}
}

func (t *KeywordSearchTool) Name() string { return "keyword_search" }

func (t *KeywordSearchTool) Description() string {
	return "Search for exact keywords, error codes, part numbers, or model numbers. " +
		"Use this for specific technical identifiers like 'E-4021', 'CAT 320', " +
		"'7C-3095', or 'P0420'. Returns document chunks containing the exact " +
		"or similar terms."
}

func (t *KeywordSearchTool) Parameters() json.RawMessage {
	return json.RawMessage(`{
		"type": "object",
		"properties": {
			"keyword": {
				"type": "string",
				"description": "The exact keyword, error code, part number, or model number to search for. Examples: 'E-4021', 'CAT 320', '7C-3095', 'P0420'."
			},
			"fuzzy": {
				"type": "boolean",
				"description": "Whether to allow fuzzy matching for typos.",
				"default": true
			},
			"limit": {
				"type": "integer",
				"description": "Maximum number of results to return (1-10).",
				"default": 5
			}
		},
		"required": ["keyword"]
	}`)
}

// Invoke runs the exact tier, then the semantic re-filter tier.
func (t *KeywordSearchTool) Invoke(ctx context.Context, args json.RawMessage) string {
	var input struct {
		Keyword string `json:"keyword"`
		Fuzzy   bool   `json:"fuzzy"`
		Limit   int    `json:"limit"`
	}
	if err := json.Unmarshal(args, &input); err != nil {
		return fmt.Sprintf("Invalid arguments: %s", err)
	}
	limit := clampLimit(input.Limit)

	hits, err := t.retriever.MatchText(ctx, t.tenantID, "content", input.Keyword, limit)
	if err != nil {
		return fmt.Sprintf("Search error: %s", err)
	}

	if len(hits) > 0 {
		parts := make([]string, 0, len(hits))
		for i, hit := range hits {
			parts = append(parts, fmt.Sprintf(
				"[Result %d] (%s)\n%s", i+1, sourceInfo(hit), truncate(hit.Content, 500),
			))
		}
		return strings.Join(parts, "\n\n")
	}

	// Exact match failed: semantic search over a wider candidate set,
	// re-filtered client-side by case-insensitive substring.
	candidates, err := t.retriever.Search(ctx, t.tenantID, input.Keyword, limit*2)
	if err != nil {
		return fmt.Sprintf("Search error: %s", err)
	}

	pattern := regexp.MustCompile("(?i)" + regexp.QuoteMeta(input.Keyword))
	var parts []string
	for _, hit := range candidates {
		if len(parts) >= limit {
			break
		}
		if hit.Content == "" || !pattern.MatchString(hit.Content) {
			continue
		}
		highlighted := pattern.ReplaceAllString(truncate(hit.Content, 500), "**"+input.Keyword+"**")
		parts = append(parts, fmt.Sprintf(
			"[Result %d] (%s)\n%s", len(parts)+1, sourceInfo(hit), highlighted,
		))
	}

	if len(parts) == 0 {
		return fmt.Sprintf("No documents found containing '%s'.", input.Keyword)
	}
	return strings.Join(parts, "\n\n")
}
