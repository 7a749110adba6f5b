// Package vector stores document chunks as Redis hashes under an FT index
// with an HNSW vector field. Point keys are deterministic
// ({document_id}_{chunk_index}) so re-ingesting a document overwrites its
// points instead of duplicating them.
package vector

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	"strconv"

	"github.com/fieldops-ai/fieldops/internal/db"
	"github.com/fieldops-ai/fieldops/internal/domain"
)

// Payload field names in the chunk hash and FT index schema.
const (
	FieldTenantID     = "tenant_id"
	FieldDocumentID   = "document_id"
	FieldChunkIndex   = "chunk_index"
	FieldPageNumber   = "page_number"
	FieldSectionTitle = "section_title"
	FieldContent      = "content"
	FieldVector       = "vector"
)

// scoreField is the similarity score alias FT.SEARCH derives from the
// vector field name. It must be RETURN-listed or the reply omits it.
const scoreField = "__" + FieldVector + "_score"

var payloadFields = []string{
	FieldTenantID, FieldDocumentID, FieldChunkIndex,
	FieldPageNumber, FieldSectionTitle, FieldContent,
}

var knnReturnFields = append(append([]string(nil), payloadFields...), scoreField)

// store is the consumer interface for chunk storage (ISP).
type store interface {
	HSetMulti(ctx context.Context, items []db.HashSetItem) error
	SearchKNN(ctx context.Context, q *db.KNNQuery) (*db.SearchResult, error)
	SearchText(ctx context.Context, q *db.TextQuery) (*db.SearchResult, error)
	SearchList(ctx context.Context, index, query string, offset, limit int, fields []string) (*db.SearchResult, error)
	SearchCount(ctx context.Context, index, query string) (int, error)
	DelMulti(ctx context.Context, keys []string) error
	CreateIndex(ctx context.Context, def *db.IndexDefinition) error
}

// Record is one embedded chunk ready for storage.
type Record struct {
	DocumentID   string
	ChunkIndex   int
	PageNumber   int
	SectionTitle string
	Content      string
	Vector       []float32
}

// Repo implements chunk persistence over db.Store.
type Repo struct {
	store store
}

// New creates a chunk repository.
func New(s store) *Repo {
	return &Repo{store: s}
}

// EnsureIndex creates the chunk FT index if it does not exist yet.
func (r *Repo) EnsureIndex(ctx context.Context, dimensions int) error {
	def := &db.IndexDefinition{
		Name:     IndexName(),
		Prefixes: []string{keyPrefix()},
		Fields: []db.IndexField{
			{Name: FieldTenantID, Type: db.IndexFieldTag},
			{Name: FieldDocumentID, Type: db.IndexFieldTag},
			{Name: FieldChunkIndex, Type: db.IndexFieldNumeric},
			{Name: FieldPageNumber, Type: db.IndexFieldNumeric},
			{Name: FieldSectionTitle, Type: db.IndexFieldText},
			{Name: FieldContent, Type: db.IndexFieldText},
			{
				Name:              FieldVector,
				Type:              db.IndexFieldVector,
				VectorAlgo:        db.VectorHNSW,
				VectorDim:         dimensions,
				VectorDistance:    db.DistanceCosine,
				VectorM:           16,
				VectorEFConstruct: 200,
			},
		},
	}

	if err := r.store.CreateIndex(ctx, def); err != nil {
		if errors.Is(err, db.ErrIndexExists) {
			return nil
		}
		return fmt.Errorf("create chunk index: %w", err)
	}
	return nil
}

// Upsert writes all records in one pipelined round-trip.
func (r *Repo) Upsert(ctx context.Context, tenantID string, records []Record) error {
	if len(records) == 0 {
		return nil
	}

	items := make([]db.HashSetItem, len(records))
	for i, rec := range records {
		items[i] = db.HashSetItem{
			Key: ChunkKey(rec.DocumentID, rec.ChunkIndex),
			Fields: map[string]string{
				FieldTenantID:     tenantID,
				FieldDocumentID:   rec.DocumentID,
				FieldChunkIndex:   strconv.Itoa(rec.ChunkIndex),
				FieldPageNumber:   strconv.Itoa(rec.PageNumber),
				FieldSectionTitle: rec.SectionTitle,
				FieldContent:      rec.Content,
				FieldVector:       encodeVector(rec.Vector),
			},
		}
	}

	if err := r.store.HSetMulti(ctx, items); err != nil {
		return fmt.Errorf("upsert %d chunks: %w", len(records), err)
	}
	return nil
}

// SearchKNN returns the nearest chunks for a query vector, tenant-scoped,
// ordered by descending similarity.
func (r *Repo) SearchKNN(ctx context.Context, tenantID string, vector []float32, limit int) ([]domain.SearchHit, error) {
	result, err := r.store.SearchKNN(ctx, &db.KNNQuery{
		IndexName:    IndexName(),
		Filter:       tenantFilter(tenantID),
		Vector:       vector,
		K:            limit,
		ReturnFields: knnReturnFields,
	})
	if err != nil {
		return nil, fmt.Errorf("knn search: %w", err)
	}
	return toHits(result), nil
}

// MatchText runs a full-text match on one TEXT field, tenant-scoped.
func (r *Repo) MatchText(ctx context.Context, tenantID, field, text string, limit int) ([]domain.SearchHit, error) {
	result, err := r.store.SearchText(ctx, &db.TextQuery{
		IndexName:    IndexName(),
		Field:        field,
		Query:        text,
		Filter:       tenantFilter(tenantID),
		TopK:         limit,
		ReturnFields: payloadFields,
	})
	if err != nil {
		return nil, fmt.Errorf("text match %s: %w", field, err)
	}
	return toHits(result), nil
}

// Scroll reads a page of the tenant's chunks without scoring. Returns the
// page and the total count of matching chunks.
func (r *Repo) Scroll(ctx context.Context, tenantID string, offset, limit int) ([]domain.SearchHit, int, error) {
	result, err := r.store.SearchList(
		ctx, IndexName(), tenantFilter(tenantID).Query(), offset, limit, payloadFields,
	)
	if err != nil {
		return nil, 0, fmt.Errorf("scroll offset %d: %w", offset, err)
	}
	return toHits(result), result.Total, nil
}

// Count returns the number of chunks stored for a tenant.
func (r *Repo) Count(ctx context.Context, tenantID string) (int, error) {
	n, err := r.store.SearchCount(ctx, IndexName(), tenantFilter(tenantID).Query())
	if err != nil {
		return 0, fmt.Errorf("count chunks: %w", err)
	}
	return n, nil
}

// DeleteDocument removes every chunk of one document. Idempotent: deleting
// an unknown document is a no-op.
func (r *Repo) DeleteDocument(ctx context.Context, tenantID, documentID string) error {
	filter := db.Filter{
		{Key: FieldTenantID, Value: tenantID},
		{Key: FieldDocumentID, Value: documentID},
	}

	// Page through matching keys. Deleting shrinks the result set, so always
	// read from offset 0.
	const batch = 200
	for {
		result, err := r.store.SearchList(ctx, IndexName(), filter.Query(), 0, batch, []string{FieldChunkIndex})
		if err != nil {
			return fmt.Errorf("find chunks for delete: %w", err)
		}
		if len(result.Entries) == 0 {
			return nil
		}

		keys := make([]string, len(result.Entries))
		for i, entry := range result.Entries {
			keys[i] = entry.Key
		}
		if err := r.store.DelMulti(ctx, keys); err != nil {
			return fmt.Errorf("delete %d chunks: %w", len(keys), err)
		}

		if len(result.Entries) >= result.Total {
			return nil
		}
	}
}

// ChunkKey builds the deterministic point key for a chunk.
func ChunkKey(documentID string, chunkIndex int) string {
	return fmt.Sprintf("%s%s_%d", keyPrefix(), documentID, chunkIndex)
}

// IndexName returns the FT index name for chunks.
func IndexName() string {
	return domain.KeyPrefix + "chunk:idx"
}

func keyPrefix() string {
	return domain.KeyPrefix + "chunk:"
}

func tenantFilter(tenantID string) db.Filter {
	return db.Filter{{Key: FieldTenantID, Value: tenantID}}
}

func toHits(result *db.SearchResult) []domain.SearchHit {
	if result == nil || len(result.Entries) == 0 {
		return nil
	}

	hits := make([]domain.SearchHit, 0, len(result.Entries))
	for _, entry := range result.Entries {
		chunkIndex, _ := strconv.Atoi(entry.Fields[FieldChunkIndex])
		pageNumber, _ := strconv.Atoi(entry.Fields[FieldPageNumber])
		hits = append(hits, domain.SearchHit{
			DocumentID:   entry.Fields[FieldDocumentID],
			ChunkIndex:   chunkIndex,
			PageNumber:   pageNumber,
			SectionTitle: entry.Fields[FieldSectionTitle],
			Content:      entry.Fields[FieldContent],
			Score:        entry.Score,
		})
	}
	return hits
}

// encodeVector serialises a vector as the FLOAT32 little-endian blob the FT
// index expects.
func encodeVector(v []float32) string {
	buf := make([]byte, len(v)*4)
	for i, f := range v {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(f))
	}
	return string(buf)
}
