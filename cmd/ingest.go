package cmd

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	qdrantclient "github.com/qdrant/go-client/qdrant"
	"github.com/spf13/cobra"

	"github.com/koopa0/guardian/internal/config"
	"github.com/koopa0/guardian/internal/rag"
)

var ingestCmd = &cobra.Command{
	Use:   "ingest",
	Short: "Load the incident corpus into the vector index",
	Long: `Embed the built-in incident corpus and load it into Qdrant.

Creates the collection if it does not exist. An existing collection
with an incompatible vector dimension is recreated, which drops its
points. Re-running ingest is safe: points are upserted by ID.`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		return runIngest(cmd.Context())
	},
}

func init() {
	rootCmd.AddCommand(ingestCmd)
}

func runIngest(parent context.Context) error {
	logger := newLogger()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	ctx, cancel := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	conn, err := rag.DialQdrant(cfg.QdrantHost, cfg.QdrantPort)
	if err != nil {
		return fmt.Errorf("connecting to Qdrant: %w", err)
	}
	defer func() {
		if closeErr := conn.Close(); closeErr != nil {
			logger.Warn("closing Qdrant connection", "error", closeErr)
		}
	}()

	index := rag.NewQdrantIndex(
		qdrantclient.NewCollectionsClient(conn),
		qdrantclient.NewPointsClient(conn),
		cfg.QdrantCollection,
		rag.VectorDimension,
		logger,
	)
	embedder, err := rag.NewOllamaEmbedder(cfg.OllamaHost, cfg.EmbedModel, logger)
	if err != nil {
		return fmt.Errorf("creating embedder: %w", err)
	}

	if err := index.EnsureCollection(ctx); err != nil {
		return fmt.Errorf("preparing collection: %w", err)
	}
	if err := rag.NewIngestor(embedder, index, logger).Ingest(ctx, rag.IncidentCorpus); err != nil {
		return fmt.Errorf("ingesting corpus: %w", err)
	}

	logger.Info("corpus ingested",
		"collection", cfg.QdrantCollection,
		"records", len(rag.IncidentCorpus))
	return nil
}
