package agent

import (
	"context"

	"github.com/fieldops-ai/fieldops/internal/domain"
	"github.com/fieldops-ai/fieldops/internal/usecase/llm"
)

// Retriever is the vector index surface the tools run on.
type Retriever interface {
	Search(ctx context.Context, tenantID, query string, limit int) ([]domain.SearchHit, error)
	MatchText(ctx context.Context, tenantID, field, text string, limit int) ([]domain.SearchHit, error)
	Scroll(ctx context.Context, tenantID string, offset, limit int) ([]domain.SearchHit, int, error)
}

// ProviderChain resolves a chat backend for a query.
type ProviderChain interface {
	Select() (llm.Selection, error)
}
