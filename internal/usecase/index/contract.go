package index

import (
	"context"

	"github.com/fieldops-ai/fieldops/internal/domain"
	"github.com/fieldops-ai/fieldops/internal/repository/vector"
)

// Repository defines the storage contract for chunk vectors.
type Repository interface {
	EnsureIndex(ctx context.Context, dimensions int) error
	Upsert(ctx context.Context, tenantID string, records []vector.Record) error
	SearchKNN(ctx context.Context, tenantID string, vec []float32, limit int) ([]domain.SearchHit, error)
	MatchText(ctx context.Context, tenantID, field, text string, limit int) ([]domain.SearchHit, error)
	Scroll(ctx context.Context, tenantID string, offset, limit int) ([]domain.SearchHit, int, error)
	DeleteDocument(ctx context.Context, tenantID, documentID string) error
	Count(ctx context.Context, tenantID string) (int, error)
}
