package rag

import (
	"context"

	"github.com/koopa0/guardian/internal/log"
)

// Retriever embeds a query and translates index hits into normalized
// ContextDocuments. It is the single place the default-filling policy for
// absent payload fields is applied.
//
// Retriever propagates embedding and index failures to its caller; the
// documented degradation policy (proceed with an empty document list) is the
// caller's responsibility, not silent swallowing here.
type Retriever struct {
	embedder Embedder
	index    Index
	logger   log.Logger
}

// NewRetriever creates a Retriever with the given embedder and index.
func NewRetriever(embedder Embedder, index Index, logger log.Logger) *Retriever {
	return &Retriever{
		embedder: embedder,
		index:    index,
		logger:   logger,
	}
}

// Search returns at most topK documents for the query, ordered by descending
// similarity score, with unique IDs.
func (r *Retriever) Search(ctx context.Context, query string, topK int) ([]ContextDocument, error) {
	vector, err := r.embedder.EmbedOne(ctx, query)
	if err != nil {
		return nil, err
	}

	hits, err := r.index.Query(ctx, vector, topK)
	if err != nil {
		return nil, err
	}

	docs := make([]ContextDocument, 0, len(hits))
	seen := make(map[uint64]struct{}, len(hits))
	for _, hit := range hits {
		if _, dup := seen[hit.ID]; dup {
			continue
		}
		seen[hit.ID] = struct{}{}
		docs = append(docs, documentFromPayload(hit.ID, hit.Score, hit.Payload))
	}

	r.logger.Debug("retrieved documents", "query_len", len(query), "top_k", topK, "count", len(docs))
	return docs, nil
}
