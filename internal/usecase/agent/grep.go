package agent

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/fieldops-ai/fieldops/internal/domain"
)

// grepBatchSize chunks fetched per scroll page while scanning.
const grepBatchSize = 100

// grepContextWindow characters of context kept around the first match.
const grepContextWindow = 100

// GrepDocumentsTool scans tenant chunks with a caller-supplied regular
// expression. The index has no regex support, so the tool pages through the
// tenant's chunks in bounded batches and matches client-side, stopping as
// soon as enough hits are collected.
type GrepDocumentsTool struct {
	tenantID  string
	retriever Retriever
}

// NewGrepDocumentsTool creates a grep tool scoped to a tenant.
func NewGrepDocumentsTool(tenantID string, retriever Retriever) *GrepDocumentsTool {
	return &GrepDocumentsTool{tenantID: tenantID, retriever: retriever}
}

func (t *GrepDocumentsTool) Name() string { return "grep_documents" }

func (t *GrepDocumentsTool) Description() string {
	return "Search documents using regular expressions (regex). Use this for " +
		"pattern matching like serial numbers ('\\d{3}-\\d{4}'), " +
		"measurements ('\\d+\\s*(mm|cm|m|kg|lb)'), " +
		"or structured codes. Returns matching text with context."
}

func (t *GrepDocumentsTool) Parameters() json.RawMessage {
	return json.RawMessage(`{
		"type": "object",
		"properties": {
			"pattern": {
				"type": "string",
				"description": "A regular expression pattern to search for in documents. Use standard regex syntax. Examples: '\\d{3}-\\d{4}' for part numbers, 'ERROR.*\\d+' for error messages with codes, 'torque.*N[.\\s]?m' for torque specifications."
			},
			"case_insensitive": {
				"type": "boolean",
				"description": "Whether to ignore case when matching.",
				"default": true
			},
			"limit": {
				"type": "integer",
				"description": "Maximum number of results to return (1-10).",
				"default": 5
			}
		},
		"required": ["pattern"]
	}`)
}

// Invoke validates the pattern, then scans chunks until limit matches are
// found or the index is exhausted.
func (t *GrepDocumentsTool) Invoke(ctx context.Context, args json.RawMessage) string {
	input := struct {
		Pattern         string `json:"pattern"`
		CaseInsensitive *bool  `json:"case_insensitive"`
		Limit           int    `json:"limit"`
	}{}
	if err := json.Unmarshal(args, &input); err != nil {
		return fmt.Sprintf("Invalid arguments: %s", err)
	}
	limit := clampLimit(input.Limit)

	pattern := input.Pattern
	if input.CaseInsensitive == nil || *input.CaseInsensitive {
		pattern = "(?i)" + pattern
	}
	re, err := regexp.Compile(pattern)
	if err != nil {
		return fmt.Sprintf("Invalid regex pattern: %s", err)
	}

	var results []string
	offset := 0

	for len(results) < limit {
		hits, total, err := t.retriever.Scroll(ctx, t.tenantID, offset, grepBatchSize)
		if err != nil {
			return fmt.Sprintf("Search error: %s", err)
		}
		if len(hits) == 0 {
			break
		}

		for _, hit := range hits {
			if formatted, ok := grepChunk(re, hit, len(results)+1); ok {
				results = append(results, formatted)
				if len(results) >= limit {
					break
				}
			}
		}

		offset += len(hits)
		if offset >= total {
			break
		}
	}

	if len(results) == 0 {
		return fmt.Sprintf("No documents matched the pattern '%s'.", input.Pattern)
	}
	return strings.Join(results, "\n\n")
}

// grepChunk formats one chunk's match: a context window around the first
// match with every match inside it highlighted, plus the match count.
func grepChunk(re *regexp.Regexp, hit domain.SearchHit, resultNum int) (string, bool) {
	matches := re.FindAllStringIndex(hit.Content, -1)
	if len(matches) == 0 {
		return "", false
	}

	start := runeFloor(hit.Content, max(0, matches[0][0]-grepContextWindow))
	end := runeFloor(hit.Content, min(len(hit.Content), matches[0][1]+grepContextWindow))
	window := hit.Content[start:end]

	highlighted := re.ReplaceAllStringFunc(window, func(m string) string {
		return "**" + m + "**"
	})

	var source []string
	if hit.SectionTitle != "" {
		source = append(source, "Section: "+hit.SectionTitle)
	}
	if hit.PageNumber > 0 {
		source = append(source, fmt.Sprintf("Page: %d", hit.PageNumber))
	}
	source = append(source, fmt.Sprintf("%d match(es)", len(matches)))

	return fmt.Sprintf(
		"[Result %d] (%s)\n...%s...", resultNum, strings.Join(source, ", "), highlighted,
	), true
}

// runeFloor moves a byte offset back to the nearest rune boundary.
func runeFloor(s string, i int) int {
	for i > 0 && i < len(s) && !utf8.RuneStart(s[i]) {
		i--
	}
	return i
}
