package cmd

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	ollama "github.com/ollama/ollama/api"
	qdrantclient "github.com/qdrant/go-client/qdrant"
	"github.com/spf13/cobra"

	"github.com/koopa0/guardian/api"
	"github.com/koopa0/guardian/db"
	"github.com/koopa0/guardian/internal/analytics"
	"github.com/koopa0/guardian/internal/config"
	"github.com/koopa0/guardian/internal/rag"
	"github.com/koopa0/guardian/internal/session"
)

// chatTimeout bounds one generation round-trip. Local models can be slow
// on first load, so this is generous.
const chatTimeout = 2 * time.Minute

var serveAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API server",
	Long: `Start the Guardian Assist HTTP API server.

The server connects to PostgreSQL (chat persistence), Qdrant (vector
index) and Ollama (embedding and generation). Database migrations run
automatically at startup.`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		return runServe(cmd.Context())
	},
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "listen address (host:port, overrides config)")
	rootCmd.AddCommand(serveCmd)
}

// runServe wires all dependencies and runs the HTTP server until SIGINT
// or SIGTERM.
func runServe(parent context.Context) error {
	logger := newLogger()
	logger.Info("starting Guardian Assist", "version", Version)

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	ctx, cancel := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// Storage.
	if err := db.Migrate(cfg.PostgresURL()); err != nil {
		return fmt.Errorf("running migrations: %w", err)
	}
	pool, err := pgxpool.New(ctx, cfg.PostgresConnectionString())
	if err != nil {
		return fmt.Errorf("connecting to PostgreSQL: %w", err)
	}
	defer pool.Close()
	if err := pool.Ping(ctx); err != nil {
		return fmt.Errorf("pinging PostgreSQL: %w", err)
	}

	// Vector index.
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

	// Embedding and generation backends.
	embedder, err := rag.NewOllamaEmbedder(cfg.OllamaHost, cfg.EmbedModel, logger)
	if err != nil {
		return fmt.Errorf("creating embedder: %w", err)
	}

	ollamaURL, err := url.Parse(cfg.OllamaHost)
	if err != nil {
		return fmt.Errorf("invalid Ollama host %q: %w", cfg.OllamaHost, err)
	}
	chatClient := ollama.NewClient(ollamaURL, &http.Client{Timeout: chatTimeout})

	// Chat pipeline.
	retriever := rag.NewRetriever(embedder, index, logger)
	generator := rag.NewGenerator(chatClient, cfg.ChatModel, logger)
	pipeline := rag.NewPipeline(retriever, generator, cfg.TopK, logger)
	ingestor := rag.NewIngestor(embedder, index, logger)

	store := session.NewStore(pool, logger)
	reporter := analytics.NewReporter(pool, logger)

	qdrantHealth := qdrantclient.NewQdrantClient(conn)
	health := api.NewHealthHandler(logger).
		AddProbe("postgres", pool.Ping).
		AddProbe("qdrant", func(ctx context.Context) error {
			_, err := qdrantHealth.HealthCheck(ctx, &qdrantclient.HealthCheckRequest{})
			return err
		}).
		AddProbe("ollama", chatClient.Heartbeat)

	server, err := api.NewServer(api.Config{
		Logger:   logger,
		Sessions: store,
		Pipeline: pipeline,
		Reporter: reporter,
		Admin:    &corpusAdmin{index: index, ingestor: ingestor},
		Ready:    health,
	})
	if err != nil {
		return fmt.Errorf("creating API server: %w", err)
	}

	addr := serveAddr
	if addr == "" {
		addr = cfg.ListenAddr
	}
	return server.Run(ctx, addr)
}

// corpusAdmin pairs the index and the ingestor behind the admin endpoint.
type corpusAdmin struct {
	index    rag.Index
	ingestor *rag.Ingestor
}

func (a *corpusAdmin) EnsureCollection(ctx context.Context) error {
	return a.index.EnsureCollection(ctx)
}

func (a *corpusAdmin) Ingest(ctx context.Context, records []rag.SourceRecord) error {
	return a.ingestor.Ingest(ctx, records)
}
