package rag

import (
	"context"
	"time"

	"github.com/koopa0/guardian/internal/log"
)

// Searcher is the retrieval surface consumed by Pipeline.
// *Retriever satisfies it.
type Searcher interface {
	Search(ctx context.Context, query string, topK int) ([]ContextDocument, error)
}

// AnswerGenerator is the generation surface consumed by Pipeline.
// *Generator satisfies it.
type AnswerGenerator interface {
	TryGenerate(ctx context.Context, query string, docs []ContextDocument) Answer
}

// Pipeline orchestrates one chat turn: retrieve, generate, instrument.
//
// Degradation policy: when retrieval fails, the turn proceeds with an empty
// document list rather than failing. Combined with Generator's never-fails
// contract, HandleTurn always produces an answer.
type Pipeline struct {
	retriever   Searcher
	generator   AnswerGenerator
	defaultTopK int
	logger      log.Logger
}

// NewPipeline creates a Pipeline. defaultTopK is used when HandleTurn is
// called with a non-positive topK.
func NewPipeline(retriever Searcher, generator AnswerGenerator, defaultTopK int, logger log.Logger) *Pipeline {
	return &Pipeline{
		retriever:   retriever,
		generator:   generator,
		defaultTopK: defaultTopK,
		logger:      logger,
	}
}

// HandleTurn runs the full pipeline for one user query.
//
// Within a turn, retrieval strictly precedes generation; the generated answer
// is a function of the retrieved context. All calls are synchronous
// round-trips with no internal parallelism.
func (p *Pipeline) HandleTurn(ctx context.Context, query string, topK int) *GeneratedAnswer {
	if topK <= 0 {
		topK = p.defaultTopK
	}

	start := time.Now()

	docs, err := p.retriever.Search(ctx, query, topK)
	if err != nil {
		// Documented degradation: proceed with no context rather than
		// failing the turn.
		p.logger.Error("retrieval failed, proceeding without context", "error", err)
		docs = nil
	}
	ragLatency := time.Since(start)

	llmStart := time.Now()
	answer := p.generator.TryGenerate(ctx, query, docs)
	llmLatency := time.Since(llmStart)

	sources := make([]Source, 0, len(docs))
	for _, doc := range docs {
		sources = append(sources, Source{Title: doc.Title, Score: doc.Score})
	}

	// Max score over documents ranked descending; 0.0 when none retrieved.
	var topScore float32
	if len(docs) > 0 {
		topScore = docs[0].Score
	}

	result := &GeneratedAnswer{
		Text:           answer.Text,
		Fallback:       answer.Fallback,
		Sources:        sources,
		RAGLatencyMS:   ragLatency.Milliseconds(),
		LLMLatencyMS:   llmLatency.Milliseconds(),
		TotalLatencyMS: time.Since(start).Milliseconds(),
		TopRAGScore:    topScore,
	}

	p.logger.Info("chat turn completed",
		"docs", len(docs),
		"fallback", answer.Fallback,
		"rag_ms", result.RAGLatencyMS,
		"llm_ms", result.LLMLatencyMS,
		"top_score", result.TopRAGScore)

	return result
}
