package rag

import "errors"

var (
	// ErrEmbeddingUnavailable indicates the embedding backend is unreachable
	// or returned a malformed response. It propagates out of Retriever and
	// Ingestor; it is NOT absorbed by Generator.
	ErrEmbeddingUnavailable = errors.New("embedding backend unavailable")

	// ErrIndexUnavailable indicates the vector index is unreachable,
	// misconfigured beyond auto-repair, or a query/upsert failed.
	ErrIndexUnavailable = errors.New("vector index unavailable")
)
