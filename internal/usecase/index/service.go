// Package index is the vector index service: it owns embedding of chunks and
// queries, tenant scoping, and the error boundary that lets callers tell
// "couldn't index" from "couldn't parse".
package index

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/fieldops-ai/fieldops/internal/domain"
	"github.com/fieldops-ai/fieldops/internal/repository/vector"
)

// Service implements vector index operations over a chunk repository and an
// embedding provider. Queries and documents embed through separate entry
// points so each side can carry its own instruction prefix.
type Service struct {
	repo       Repository
	queryEmbed domain.Embedder
	docEmbed   domain.BatchEmbedder
	dimensions int
	logger     *zap.Logger
}

// NewService creates a vector index service.
func NewService(repo Repository, queryEmbed domain.Embedder, docEmbed domain.BatchEmbedder, dimensions int, logger *zap.Logger) *Service {
	return &Service{
		repo:       repo,
		queryEmbed: queryEmbed,
		docEmbed:   docEmbed,
		dimensions: dimensions,
		logger:     logger,
	}
}

// EnsureReady creates the chunk index if missing. Called once at startup.
func (s *Service) EnsureReady(ctx context.Context) error {
	if err := s.repo.EnsureIndex(ctx, s.dimensions); err != nil {
		return fmt.Errorf("%w: %w", domain.ErrVectorIndex, err)
	}
	return nil
}

// Upsert embeds all chunk texts in one batched call and writes one point per
// chunk. Deterministic point keys make re-ingestion overwrite, not duplicate.
// Returns the number of points written.
func (s *Service) Upsert(ctx context.Context, tenantID, documentID string, chunks []domain.Chunk) (int, error) {
	if len(chunks) == 0 {
		return 0, nil
	}

	texts := make([]string, len(chunks))
	for i, c := range chunks {
		texts[i] = c.Content
	}

	batch, err := s.docEmbed.BatchEmbed(ctx, texts)
	if err != nil {
		return 0, fmt.Errorf("%w: embed %d chunks: %w", domain.ErrVectorIndex, len(chunks), err)
	}
	if usage := domain.UsageFromContext(ctx); usage != nil {
		usage.AddTokens(batch.TotalTokens)
	}

	records := make([]vector.Record, len(chunks))
	for i, c := range chunks {
		records[i] = vector.Record{
			DocumentID:   documentID,
			ChunkIndex:   c.Index,
			PageNumber:   c.PageNumber,
			SectionTitle: c.SectionTitle,
			Content:      c.Content,
			Vector:       batch.Embeddings[i],
		}
	}

	if err := s.repo.Upsert(ctx, tenantID, records); err != nil {
		return 0, fmt.Errorf("%w: %w", domain.ErrVectorIndex, err)
	}

	s.logger.Info("chunks indexed",
		zap.String("tenant_id", tenantID),
		zap.String("document_id", documentID),
		zap.Int("count", len(records)),
	)
	return len(records), nil
}

// Search embeds the query and returns the nearest tenant-scoped chunks,
// ordered by descending similarity.
func (s *Service) Search(ctx context.Context, tenantID, query string, limit int) ([]domain.SearchHit, error) {
	res, err := s.queryEmbed.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("%w: embed query: %w", domain.ErrVectorIndex, err)
	}
	if usage := domain.UsageFromContext(ctx); usage != nil {
		usage.AddTokens(res.TotalTokens)
	}

	hits, err := s.repo.SearchKNN(ctx, tenantID, res.Embedding, limit)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrVectorIndex, err)
	}
	return hits, nil
}

// MatchText runs a tenant-scoped full-text match on one payload field
// (content or section_title). No embedding round-trip.
func (s *Service) MatchText(ctx context.Context, tenantID, field, text string, limit int) ([]domain.SearchHit, error) {
	hits, err := s.repo.MatchText(ctx, tenantID, field, text, limit)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrVectorIndex, err)
	}
	return hits, nil
}

// Scroll reads one page of a tenant's chunks, plus the total count.
func (s *Service) Scroll(ctx context.Context, tenantID string, offset, limit int) ([]domain.SearchHit, int, error) {
	hits, total, err := s.repo.Scroll(ctx, tenantID, offset, limit)
	if err != nil {
		return nil, 0, fmt.Errorf("%w: %w", domain.ErrVectorIndex, err)
	}
	return hits, total, nil
}

// Count returns the number of chunks stored for a tenant.
func (s *Service) Count(ctx context.Context, tenantID string) (int, error) {
	n, err := s.repo.Count(ctx, tenantID)
	if err != nil {
		return 0, fmt.Errorf("%w: %w", domain.ErrVectorIndex, err)
	}
	return n, nil
}

// Delete removes all points of one document. Idempotent.
func (s *Service) Delete(ctx context.Context, tenantID, documentID string) error {
	if err := s.repo.DeleteDocument(ctx, tenantID, documentID); err != nil {
		return fmt.Errorf("%w: %w", domain.ErrVectorIndex, err)
	}
	s.logger.Info("document chunks deleted",
		zap.String("tenant_id", tenantID),
		zap.String("document_id", documentID),
	)
	return nil
}
