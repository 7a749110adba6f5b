package ingest

import (
	"context"

	"github.com/fieldops-ai/fieldops/internal/domain"
)

// Extractor turns raw file bytes into text with structural markers.
type Extractor interface {
	Extract(content []byte, filename string) (domain.ExtractionResult, error)
}

// Indexer persists and removes a document's chunks in the vector index.
type Indexer interface {
	Upsert(ctx context.Context, tenantID, documentID string, chunks []domain.Chunk) (int, error)
	Delete(ctx context.Context, tenantID, documentID string) error
}

// Storage holds the original uploaded files under
// {tenant_id}/{document_id}/{filename}.
type Storage interface {
	Upload(ctx context.Context, tenantID, documentID, filename string, content []byte, contentType string) (string, error)
	Download(ctx context.Context, tenantID, documentID, filename string) ([]byte, error)
	Delete(ctx context.Context, tenantID, documentID, filename string) error
}
