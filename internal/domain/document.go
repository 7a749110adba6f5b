package domain

// ExtractionResult is the output of text extraction from an uploaded file.
// Produced once per ingestion attempt; immutable.
type ExtractionResult struct {
	Text      string
	PageCount int
	Metadata  map[string]string // title, author, subject when available
}

// Chunk is a bounded slice of a document's extracted text, the unit of
// embedding and retrieval. Chunks are derived, not persisted independently.
type Chunk struct {
	Index        int
	Content      string
	PageNumber   int
	SectionTitle string
}

// ProcessingResult is the outcome of a full ingestion pipeline run.
type ProcessingResult struct {
	Success      bool
	ChunkCount   int
	ErrorMessage string
}

// ValidationResult is the outcome of pre-upload file validation.
type ValidationResult struct {
	IsValid      bool
	ErrorMessage string
}

// TierLimits are the caller-supplied quota limits applied during validation.
// A nil StorageLimitMB means unlimited storage.
type TierLimits struct {
	StorageLimitMB *int
	MaxFileSizeMB  int
	MaxPDFPages    int
}

// SearchHit is a single scored chunk returned by the vector index.
type SearchHit struct {
	DocumentID   string
	ChunkIndex   int
	PageNumber   int
	SectionTitle string
	Content      string
	Score        float64
}
