package agent

import (
	"context"
	"encoding/json"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/fieldops-ai/fieldops/internal/domain"
)

// Tool is one retrieval capability the agent can call. Tools are immutable
// value objects bound to a tenant at construction, so the model cannot omit
// the scope. Invoke never fails: errors and empty results come back as
// explanatory text so the reasoning loop always gets a usable observation.
type Tool interface {
	Name() string
	Description() string
	Parameters() json.RawMessage
	Invoke(ctx context.Context, args json.RawMessage) string
}

// Tools builds the full tool set scoped to one tenant.
func Tools(tenantID string, retriever Retriever) []Tool {
	return []Tool{
		NewSemanticSearchTool(tenantID, retriever),
		NewKeywordSearchTool(tenantID, retriever),
		NewGrepDocumentsTool(tenantID, retriever),
		NewGetDocumentSectionTool(tenantID, retriever),
	}
}

const (
	defaultToolLimit = 5
	maxToolLimit     = 10
)

// clampLimit normalises a caller-supplied result limit into [1, 10].
func clampLimit(limit int) int {
	if limit <= 0 {
		return defaultToolLimit
	}
	if limit > maxToolLimit {
		return maxToolLimit
	}
	return limit
}

// sourceInfo renders the citation part of a result header.
func sourceInfo(hit domain.SearchHit) string {
	var parts []string
	if hit.SectionTitle != "" {
		parts = append(parts, "Section: "+hit.SectionTitle)
	}
	if hit.PageNumber > 0 {
		parts = append(parts, "Page: "+strconv.Itoa(hit.PageNumber))
	}
	if len(parts) == 0 {
		return "Unknown source"
	}
	return strings.Join(parts, ", ")
}

// truncate cuts s to at most n bytes without splitting a rune.
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n]
}
