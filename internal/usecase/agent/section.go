package agent

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/fieldops-ai/fieldops/internal/domain"
)

// sectionMatchLimit chunks fetched per title lookup; a section can span many
// chunks that must all be stitched back together.
const sectionMatchLimit = 20

// GetDocumentSectionTool reconstructs a named section or chapter. Title match
// first; if empty, a semantic search seeded with "section <title>" re-filtered
// by substring on the stored section title. Chunks of the same document are
// sorted by chunk index and concatenated so the section reads in original
// order.
type GetDocumentSectionTool struct {
	tenantID  string
	retriever Retriever
}

// NewGetDocumentSectionTool creates a section retrieval tool scoped to a tenant.
func NewGetDocumentSectionTool(tenantID string, retriever Retriever) *GetDocumentSectionTool {
	return &GetDocumentSectionTool{tenantID: tenantID, retriever: retriever}
}

func (t *GetDocumentSectionTool) Name() string { return "get_document_section" }

func (t *GetDocumentSectionTool) Description() string {
	return "Retrieve a specific section or chapter from documents. " +
		"Use this when you need content from 'Chapter 4.2' or " +
		"'Maintenance Schedule' or a specific named section. " +
		"Returns the full section content."
}

func (t *GetDocumentSectionTool) Parameters() json.RawMessage {
	return json.RawMessage(`{
		"type": "object",
		"properties": {
			"section_title": {
				"type": "string",
				"description": "The section or chapter title to retrieve. Examples: 'Chapter 4.2', 'Maintenance Schedule', 'Hydraulic System', 'Error Codes'."
			},
			"document_name": {
				"type": "string",
				"description": "Optional: specific document name to search in. Examples: 'CAT 320 Manual', 'Komatsu PC200'."
			}
		},
		"required": ["section_title"]
	}`)
}

// Invoke finds the section's chunks and reconstructs them per document.
func (t *GetDocumentSectionTool) Invoke(ctx context.Context, args json.RawMessage) string {
	var input struct {
		SectionTitle string `json:"section_title"`
		DocumentName string `json:"document_name"`
	}
	if err := json.Unmarshal(args, &input); err != nil {
		return fmt.Sprintf("Invalid arguments: %s", err)
	}

	hits, err := t.retriever.MatchText(ctx, t.tenantID, "section_title", input.SectionTitle, sectionMatchLimit)
	if err != nil {
		return fmt.Sprintf("Search error: %s", err)
	}

	if len(hits) == 0 {
		hits, err = t.semanticFallback(ctx, input.SectionTitle)
		if err != nil {
			return fmt.Sprintf("Search error: %s", err)
		}
		if len(hits) == 0 {
			return fmt.Sprintf(
				"Section '%s' not found. Try using semantic_search for related content.",
				input.SectionTitle,
			)
		}
	}

	if input.DocumentName != "" {
		hits = filterByDocument(hits, input.DocumentName)
		if len(hits) == 0 {
			return fmt.Sprintf(
				"Section '%s' not found in document '%s'.", input.SectionTitle, input.DocumentName,
			)
		}
	}

	return renderSections(hits)
}

// semanticFallback searches for "section <title>" and keeps hits whose
// stored section title contains the requested title.
func (t *GetDocumentSectionTool) semanticFallback(ctx context.Context, title string) ([]domain.SearchHit, error) {
	candidates, err := t.retriever.Search(ctx, t.tenantID, "section "+title, 10)
	if err != nil {
		return nil, err
	}

	lower := strings.ToLower(title)
	var filtered []domain.SearchHit
	for _, hit := range candidates {
		if hit.SectionTitle != "" && strings.Contains(strings.ToLower(hit.SectionTitle), lower) {
			filtered = append(filtered, hit)
		}
	}
	return filtered, nil
}

func filterByDocument(hits []domain.SearchHit, documentName string) []domain.SearchHit {
	lower := strings.ToLower(documentName)
	var filtered []domain.SearchHit
	for _, hit := range hits {
		if strings.Contains(strings.ToLower(hit.DocumentID), lower) {
			filtered = append(filtered, hit)
		}
	}
	return filtered
}

// renderSections groups chunks per document, in chunk order, under one
// "=== Section (Page N) ===" header each.
func renderSections(hits []domain.SearchHit) string {
	sort.Slice(hits, func(i, j int) bool {
		if hits[i].DocumentID != hits[j].DocumentID {
			return hits[i].DocumentID < hits[j].DocumentID
		}
		return hits[i].ChunkIndex < hits[j].ChunkIndex
	})

	var docOrder []string
	byDoc := make(map[string][]domain.SearchHit)
	for _, hit := range hits {
		if _, seen := byDoc[hit.DocumentID]; !seen {
			docOrder = append(docOrder, hit.DocumentID)
		}
		byDoc[hit.DocumentID] = append(byDoc[hit.DocumentID], hit)
	}

	var parts []string
	for _, docID := range docOrder {
		chunks := byDoc[docID]

		header := "=== " + chunks[0].SectionTitle
		if chunks[0].PageNumber > 0 {
			header += fmt.Sprintf(" (Page %d)", chunks[0].PageNumber)
		}
		header += " ==="
		parts = append(parts, header)

		contents := make([]string, len(chunks))
		for i, c := range chunks {
			contents[i] = c.Content
		}
		parts = append(parts, strings.Join(contents, "\n\n"))
	}

	return strings.Join(parts, "\n\n")
}
