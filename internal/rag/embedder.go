package rag

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/ollama/ollama/api"

	"github.com/koopa0/guardian/internal/log"
)

// VectorDimension is the output dimension of the embedding model.
// nomic-embed-text produces 768-dimensional vectors. The Qdrant collection
// is created with this dimension; EnsureCollection recreates collections
// whose dimension does not match (e.g. leftover from a previous model).
const VectorDimension = 768

// embedTimeout bounds a single embedding round-trip.
const embedTimeout = 30 * time.Second

// Embedder converts text into fixed-dimension numeric vectors.
//
// Implementations must preserve input order: Embed returns exactly one
// vector per input text. Failures wrap ErrEmbeddingUnavailable.
type Embedder interface {
	// Embed embeds a batch of texts in one backend call.
	Embed(ctx context.Context, texts []string) ([][]float32, error)

	// EmbedOne embeds a single text (convenience for query embedding).
	EmbedOne(ctx context.Context, text string) ([]float32, error)

	// Dimension returns the fixed vector dimension this embedder produces.
	Dimension() int
}

// OllamaEmbedder implements Embedder using the Ollama embeddings API.
//
// OllamaEmbedder is safe for concurrent use; the underlying HTTP client
// handles its own connection pooling.
type OllamaEmbedder struct {
	client *api.Client
	model  string
	logger log.Logger
}

// NewOllamaEmbedder creates an embedder talking to the Ollama server at host
// (e.g. "http://localhost:11434") using the given embedding model.
func NewOllamaEmbedder(host, model string, logger log.Logger) (*OllamaEmbedder, error) {
	base, err := url.Parse(host)
	if err != nil {
		return nil, fmt.Errorf("invalid Ollama host %q: %w", host, err)
	}

	httpClient := &http.Client{Timeout: embedTimeout}

	return &OllamaEmbedder{
		client: api.NewClient(base, httpClient),
		model:  model,
		logger: logger,
	}, nil
}

// Embed embeds a batch of texts in a single backend call.
// Returns one vector per input text, preserving order.
func (e *OllamaEmbedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	resp, err := e.client.Embed(ctx, &api.EmbedRequest{
		Model: e.model,
		Input: texts,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: embedding %d texts with %s: %v",
			ErrEmbeddingUnavailable, len(texts), e.model, err)
	}

	if len(resp.Embeddings) != len(texts) {
		return nil, fmt.Errorf("%w: expected %d embeddings, got %d",
			ErrEmbeddingUnavailable, len(texts), len(resp.Embeddings))
	}

	for i, emb := range resp.Embeddings {
		if len(emb) != VectorDimension {
			return nil, fmt.Errorf("%w: embedding %d has dimension %d, expected %d",
				ErrEmbeddingUnavailable, i, len(emb), VectorDimension)
		}
	}

	e.logger.Debug("embedded texts", "count", len(texts), "model", e.model)
	return resp.Embeddings, nil
}

// EmbedOne embeds a single text.
func (e *OllamaEmbedder) EmbedOne(ctx context.Context, text string) ([]float32, error) {
	vectors, err := e.Embed(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vectors[0], nil
}

// Dimension returns the fixed vector dimension produced by this embedder.
func (*OllamaEmbedder) Dimension() int {
	return VectorDimension
}
