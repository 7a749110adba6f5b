// Package ingest runs the document ingestion pipeline: validation, original
// file storage, text extraction, chunking, and vector indexing.
package ingest

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/fieldops-ai/fieldops/internal/chunker"
	"github.com/fieldops-ai/fieldops/internal/domain"
	"github.com/fieldops-ai/fieldops/internal/metrics"
)

// Service orchestrates the ingestion pipeline for one deployment.
type Service struct {
	extractor    Extractor
	indexer      Indexer
	storage      Storage
	chunkSize    int
	chunkOverlap int
	logger       *zap.Logger
}

// NewService creates an ingestion service. Zero chunking parameters fall back
// to the defaults.
func NewService(extractor Extractor, indexer Indexer, storage Storage, chunkSize, chunkOverlap int, logger *zap.Logger) *Service {
	if chunkSize <= 0 {
		chunkSize = chunker.DefaultSize
	}
	if chunkOverlap < 0 {
		chunkOverlap = chunker.DefaultOverlap
	}
	return &Service{
		extractor:    extractor,
		indexer:      indexer,
		storage:      storage,
		chunkSize:    chunkSize,
		chunkOverlap: chunkOverlap,
		logger:       logger,
	}
}

// StoreOriginal uploads the original file bytes for later re-processing and
// returns the storage path.
func (s *Service) StoreOriginal(ctx context.Context, tenantID, documentID, filename string, content []byte) (string, error) {
	slugged := SlugifyFilename(filename)
	path, err := s.storage.Upload(ctx, tenantID, documentID, slugged, content, ContentTypeFor(filename))
	if err != nil {
		return "", fmt.Errorf("store original file: %w", err)
	}
	return path, nil
}

// ProcessDocument runs extraction, chunking, and indexing for one document.
// It never returns an error: every failure is reported inside the
// ProcessingResult so the caller can persist it as document status.
func (s *Service) ProcessDocument(
	ctx context.Context, tenantID, documentID string, content []byte, filename string,
) domain.ProcessingResult {
	fileType := fileExtension(filename)

	extraction, err := s.extractor.Extract(content, filename)
	if err != nil {
		s.logger.Error("extraction failed",
			zap.String("document_id", documentID), zap.Error(err))
		metrics.DocumentsProcessedTotal.WithLabelValues(fileType, "failed").Inc()
		return domain.ProcessingResult{Success: false, ErrorMessage: err.Error()}
	}

	if extraction.Text == "" {
		metrics.DocumentsProcessedTotal.WithLabelValues(fileType, "failed").Inc()
		return domain.ProcessingResult{
			Success:      false,
			ErrorMessage: "No text could be extracted from document",
		}
	}

	chunks := chunker.Split(extraction.Text, s.chunkSize, s.chunkOverlap)
	if len(chunks) == 0 {
		metrics.DocumentsProcessedTotal.WithLabelValues(fileType, "failed").Inc()
		return domain.ProcessingResult{
			Success:      false,
			ErrorMessage: "Document produced no text chunks",
		}
	}

	count, err := s.indexer.Upsert(ctx, tenantID, documentID, chunks)
	if err != nil {
		s.logger.Error("indexing failed",
			zap.String("document_id", documentID), zap.Error(err))
		metrics.DocumentsProcessedTotal.WithLabelValues(fileType, "failed").Inc()
		return domain.ProcessingResult{Success: false, ErrorMessage: err.Error()}
	}

	metrics.DocumentsProcessedTotal.WithLabelValues(fileType, "processed").Inc()
	metrics.DocumentChunksTotal.WithLabelValues(fileType).Add(float64(count))

	s.logger.Info("document processed",
		zap.String("tenant_id", tenantID),
		zap.String("document_id", documentID),
		zap.Int("pages", extraction.PageCount),
		zap.Int("chunks", count),
	)
	return domain.ProcessingResult{Success: true, ChunkCount: count}
}

// ReprocessDocument re-runs the full pipeline from the stored original file.
// Used after chunking parameters change, or to rebuild a wiped index.
func (s *Service) ReprocessDocument(
	ctx context.Context, tenantID, documentID, filename string,
) (domain.ProcessingResult, error) {
	content, err := s.storage.Download(ctx, tenantID, documentID, SlugifyFilename(filename))
	if err != nil {
		return domain.ProcessingResult{}, fmt.Errorf("download original file: %w", err)
	}
	return s.ProcessDocument(ctx, tenantID, documentID, content, filename), nil
}

// DeleteDocumentData removes a document's chunks from the vector index and
// its original file from storage. Index cleanup failures abort; a missing
// stored file does not.
func (s *Service) DeleteDocumentData(ctx context.Context, tenantID, documentID, filename string) error {
	if err := s.indexer.Delete(ctx, tenantID, documentID); err != nil {
		return fmt.Errorf("delete document data: %w", err)
	}

	if filename != "" {
		if err := s.storage.Delete(ctx, tenantID, documentID, SlugifyFilename(filename)); err != nil {
			s.logger.Warn("stored file cleanup failed",
				zap.String("document_id", documentID), zap.Error(err))
		}
	}
	return nil
}
