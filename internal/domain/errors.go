package domain

import "errors"

var (
	// ErrExtraction signals an unparseable or undecodable file. Terminal for the
	// ingestion attempt that raised it.
	ErrExtraction = errors.New("extraction failed")
	// ErrUnsupportedFileType signals a file extension outside the allow-list.
	ErrUnsupportedFileType = errors.New("unsupported file type")
	// ErrVectorIndex signals an embedding or vector-store failure, distinct from
	// extraction failures so callers can tell "couldn't index" from "couldn't parse".
	ErrVectorIndex = errors.New("vector index failure")
	// ErrEmbeddingProvider signals an embedding provider failure.
	ErrEmbeddingProvider = errors.New("embedding provider error")
	// ErrProviderExhausted signals that no LLM backend in the fallback chain is usable.
	ErrProviderExhausted = errors.New("no LLM provider available")
	// ErrStorage signals an object storage failure.
	ErrStorage = errors.New("storage failure")
)
