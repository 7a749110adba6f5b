package index

import (
	"context"
	"errors"
	"testing"

	"go.uber.org/zap"

	"github.com/fieldops-ai/fieldops/internal/domain"
	"github.com/fieldops-ai/fieldops/internal/repository/vector"
)

// --- Mocks ---

type mockRepo struct {
	ensureDims    int
	ensureErr     error
	records       []vector.Record
	upsertTenant  string
	upsertErr     error
	knnVec        []float32
	knnLimit      int
	knnHits       []domain.SearchHit
	knnErr        error
	matchField    string
	matchText     string
	matchHits     []domain.SearchHit
	scrollHits    []domain.SearchHit
	scrollTotal   int
	deletedTenant string
	deletedDoc    string
	deleteErr     error
	count         int
	countTenant   string
	countErr      error
}

func (m *mockRepo) EnsureIndex(_ context.Context, dimensions int) error {
	m.ensureDims = dimensions
	return m.ensureErr
}

func (m *mockRepo) Upsert(_ context.Context, tenantID string, records []vector.Record) error {
	m.upsertTenant, m.records = tenantID, records
	return m.upsertErr
}

func (m *mockRepo) SearchKNN(_ context.Context, _ string, vec []float32, limit int) ([]domain.SearchHit, error) {
	m.knnVec, m.knnLimit = vec, limit
	return m.knnHits, m.knnErr
}

func (m *mockRepo) MatchText(_ context.Context, _, field, text string, _ int) ([]domain.SearchHit, error) {
	m.matchField, m.matchText = field, text
	return m.matchHits, nil
}

func (m *mockRepo) Scroll(_ context.Context, _ string, _, _ int) ([]domain.SearchHit, int, error) {
	return m.scrollHits, m.scrollTotal, nil
}

func (m *mockRepo) DeleteDocument(_ context.Context, tenantID, documentID string) error {
	m.deletedTenant, m.deletedDoc = tenantID, documentID
	return m.deleteErr
}

func (m *mockRepo) Count(_ context.Context, tenantID string) (int, error) {
	m.countTenant = tenantID
	return m.count, m.countErr
}

type mockEmbedder struct {
	embedding   []float32
	embedTokens int
	embedErr    error
	batchTexts  []string
	batchErr    error
	batchTokens int
}

func (m *mockEmbedder) Embed(_ context.Context, _ string) (domain.EmbeddingResult, error) {
	if m.embedErr != nil {
		return domain.EmbeddingResult{}, m.embedErr
	}
	return domain.EmbeddingResult{Embedding: m.embedding, TotalTokens: m.embedTokens}, nil
}

func (m *mockEmbedder) BatchEmbed(_ context.Context, texts []string) (domain.BatchEmbeddingResult, error) {
	m.batchTexts = texts
	if m.batchErr != nil {
		return domain.BatchEmbeddingResult{}, m.batchErr
	}
	embeddings := make([][]float32, len(texts))
	for i := range texts {
		embeddings[i] = []float32{float32(i), float32(i) + 0.5}
	}
	return domain.BatchEmbeddingResult{Embeddings: embeddings, TotalTokens: m.batchTokens}, nil
}

// newTestService wires the same embedder to both the query and document
// sides, matching how the service runs when no instructions are configured.
func newTestService(repo Repository, emb *mockEmbedder, dimensions int) *Service {
	return NewService(repo, emb, emb, dimensions, zap.NewNop())
}

// --- Tests ---

func TestEnsureReady(t *testing.T) {
	repo := &mockRepo{}
	svc := newTestService(repo, &mockEmbedder{}, 1536)

	if err := svc.EnsureReady(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if repo.ensureDims != 1536 {
		t.Errorf("dimensions = %d", repo.ensureDims)
	}

	repo.ensureErr = errors.New("redis down")
	if err := svc.EnsureReady(context.Background()); !errors.Is(err, domain.ErrVectorIndex) {
		t.Errorf("error = %v, want ErrVectorIndex", err)
	}
}

func TestUpsert(t *testing.T) {
	repo := &mockRepo{}
	emb := &mockEmbedder{batchTokens: 42}
	svc := newTestService(repo, emb, 2)

	chunks := []domain.Chunk{
		{Index: 0, Content: "first chunk", PageNumber: 1, SectionTitle: "Intro"},
		{Index: 1, Content: "second chunk", PageNumber: 2},
	}

	ctx, usage := domain.NewContextWithUsage(context.Background())
	count, err := svc.Upsert(ctx, "t1", "doc-1", chunks)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if count != 2 {
		t.Errorf("count = %d", count)
	}
	if len(emb.batchTexts) != 2 || emb.batchTexts[1] != "second chunk" {
		t.Errorf("batch texts = %v", emb.batchTexts)
	}
	if usage.TotalTokens != 42 || !usage.Used {
		t.Errorf("usage = %+v", usage)
	}

	if repo.upsertTenant != "t1" {
		t.Errorf("tenant = %q", repo.upsertTenant)
	}
	if len(repo.records) != 2 {
		t.Fatalf("records = %d", len(repo.records))
	}
	r := repo.records[0]
	if r.DocumentID != "doc-1" || r.ChunkIndex != 0 || r.PageNumber != 1 || r.SectionTitle != "Intro" {
		t.Errorf("record = %+v", r)
	}
	if len(r.Vector) != 2 || r.Vector[1] != 0.5 {
		t.Errorf("vector = %v", r.Vector)
	}
}

func TestUpsert_EmptyChunks(t *testing.T) {
	emb := &mockEmbedder{}
	svc := newTestService(&mockRepo{}, emb, 2)

	count, err := svc.Upsert(context.Background(), "t1", "doc-1", nil)
	if err != nil || count != 0 {
		t.Errorf("count, err = %d, %v", count, err)
	}
	if emb.batchTexts != nil {
		t.Error("embedder must not be called for empty input")
	}
}

func TestUpsert_EmbedError(t *testing.T) {
	emb := &mockEmbedder{batchErr: errors.New("quota exceeded")}
	svc := newTestService(&mockRepo{}, emb, 2)

	_, err := svc.Upsert(context.Background(), "t1", "doc-1", []domain.Chunk{{Content: "x"}})
	if !errors.Is(err, domain.ErrVectorIndex) {
		t.Errorf("error = %v, want ErrVectorIndex", err)
	}
}

func TestUpsert_RepoError(t *testing.T) {
	repo := &mockRepo{upsertErr: errors.New("write failed")}
	svc := newTestService(repo, &mockEmbedder{}, 2)

	_, err := svc.Upsert(context.Background(), "t1", "doc-1", []domain.Chunk{{Content: "x"}})
	if !errors.Is(err, domain.ErrVectorIndex) {
		t.Errorf("error = %v, want ErrVectorIndex", err)
	}
}

func TestSearch(t *testing.T) {
	want := []domain.SearchHit{{DocumentID: "doc-1", ChunkIndex: 4, Score: 0.9}}
	repo := &mockRepo{knnHits: want}
	emb := &mockEmbedder{embedding: []float32{0.1, 0.2}, embedTokens: 7}
	svc := newTestService(repo, emb, 2)

	ctx, usage := domain.NewContextWithUsage(context.Background())
	hits, err := svc.Search(ctx, "t1", "torque spec", 5)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(hits) != 1 || hits[0].ChunkIndex != 4 {
		t.Errorf("hits = %+v", hits)
	}
	if repo.knnLimit != 5 || len(repo.knnVec) != 2 {
		t.Errorf("knn call = limit %d, vec %v", repo.knnLimit, repo.knnVec)
	}
	if usage.TotalTokens != 7 {
		t.Errorf("usage tokens = %d", usage.TotalTokens)
	}
}

func TestSearch_EmbedError(t *testing.T) {
	emb := &mockEmbedder{embedErr: errors.New("provider down")}
	svc := newTestService(&mockRepo{}, emb, 2)

	_, err := svc.Search(context.Background(), "t1", "q", 5)
	if !errors.Is(err, domain.ErrVectorIndex) {
		t.Errorf("error = %v, want ErrVectorIndex", err)
	}
}

func TestMatchText(t *testing.T) {
	repo := &mockRepo{matchHits: []domain.SearchHit{{Content: "E-4021 fault"}}}
	svc := newTestService(repo, &mockEmbedder{}, 2)

	hits, err := svc.MatchText(context.Background(), "t1", "content", "E-4021", 10)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(hits) != 1 || repo.matchField != "content" || repo.matchText != "E-4021" {
		t.Errorf("hits=%v field=%q text=%q", hits, repo.matchField, repo.matchText)
	}
}

func TestScroll(t *testing.T) {
	repo := &mockRepo{scrollHits: []domain.SearchHit{{ChunkIndex: 1}}, scrollTotal: 17}
	svc := newTestService(repo, &mockEmbedder{}, 2)

	hits, total, err := svc.Scroll(context.Background(), "t1", 0, 100)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(hits) != 1 || total != 17 {
		t.Errorf("hits=%v total=%d", hits, total)
	}
}

func TestCount(t *testing.T) {
	repo := &mockRepo{count: 42}
	svc := newTestService(repo, &mockEmbedder{}, 2)

	n, err := svc.Count(context.Background(), "t1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if n != 42 || repo.countTenant != "t1" {
		t.Errorf("count=%d tenant=%q", n, repo.countTenant)
	}

	repo.countErr = errors.New("index gone")
	if _, err := svc.Count(context.Background(), "t1"); !errors.Is(err, domain.ErrVectorIndex) {
		t.Errorf("error = %v, want ErrVectorIndex", err)
	}
}

func TestDelete(t *testing.T) {
	repo := &mockRepo{}
	svc := newTestService(repo, &mockEmbedder{}, 2)

	if err := svc.Delete(context.Background(), "t1", "doc-9"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if repo.deletedTenant != "t1" || repo.deletedDoc != "doc-9" {
		t.Errorf("delete scope = %s/%s", repo.deletedTenant, repo.deletedDoc)
	}

	repo.deleteErr = errors.New("timeout")
	if err := svc.Delete(context.Background(), "t1", "doc-9"); !errors.Is(err, domain.ErrVectorIndex) {
		t.Errorf("error = %v, want ErrVectorIndex", err)
	}
}
