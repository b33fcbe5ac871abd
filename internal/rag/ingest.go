package rag

import (
	"context"
	"fmt"

	"github.com/koopa0/guardian/internal/log"
)

// Ingestor batch-embeds SourceRecords and upserts them into the index.
// Ingestion is administrative and out-of-band from normal chat turns.
type Ingestor struct {
	embedder Embedder
	index    Index
	logger   log.Logger
}

// NewIngestor creates an Ingestor with the given embedder and index.
func NewIngestor(embedder Embedder, index Index, logger log.Logger) *Ingestor {
	return &Ingestor{
		embedder: embedder,
		index:    index,
		logger:   logger,
	}
}

// Ingest embeds the full batch of record contents in one backend call and
// upserts the resulting points in one batch. Idempotent by record ID:
// re-ingesting overwrites prior payload and vector for each ID.
//
// There is no partial-ingestion retry; a failure aborts the whole call and
// is surfaced to the administrative caller.
func (in *Ingestor) Ingest(ctx context.Context, records []SourceRecord) error {
	if len(records) == 0 {
		return nil
	}

	texts := make([]string, len(records))
	for i, rec := range records {
		texts[i] = rec.Content
	}

	vectors, err := in.embedder.Embed(ctx, texts)
	if err != nil {
		return fmt.Errorf("embedding %d records: %w", len(records), err)
	}

	points := make([]Point, len(records))
	for i, rec := range records {
		payload := make(map[string]string, len(rec.Metadata)+2)
		for k, v := range rec.Metadata {
			payload[k] = v
		}
		payload["title"] = rec.Title
		payload["content"] = rec.Content

		points[i] = Point{
			ID:      rec.ID,
			Vector:  vectors[i],
			Payload: payload,
		}
	}

	if err := in.index.Upsert(ctx, points); err != nil {
		return fmt.Errorf("upserting %d records: %w", len(records), err)
	}

	in.logger.Info("ingested records", "count", len(records))
	return nil
}
