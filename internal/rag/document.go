package rag

// FieldNotAvailable is the sentinel rendered for absent document fields.
const FieldNotAvailable = "N/A"

// ContextDocument is one retrieved incident document, normalized for prompt
// assembly and fallback synthesis. Produced per query; never persisted.
type ContextDocument struct {
	// ID is the stable identifier of the source incident record.
	ID uint64 `json:"id"`

	// Score is the cosine similarity against the query vector, in [0,1].
	// Scores from a single query are mutually comparable and ranked
	// descending; they are not comparable across embedding models.
	Score float32 `json:"score"`

	Title      string `json:"title"`
	Category   string `json:"category"`
	Severity   string `json:"severity"`
	Content    string `json:"content"`
	Resolution string `json:"resolution"`
}

// SourceRecord is the unit of ingestion. Only Content contributes to the
// vector; Title and all Metadata key/value pairs are stored as index payload.
// Re-ingestion upserts by ID, overwriting prior payload and vector.
type SourceRecord struct {
	ID       uint64            `json:"id"`
	Title    string            `json:"title"`
	Content  string            `json:"content"`
	Metadata map[string]string `json:"metadata"`
}

// Source is one provenance entry of a generated answer.
type Source struct {
	Title string  `json:"title"`
	Score float32 `json:"score"`
}

// Answer is the result of one generation attempt.
// Fallback reports whether the text was synthesized by the template-based
// fallback path instead of the generation backend.
type Answer struct {
	Text     string
	Fallback bool
}

// GeneratedAnswer is the output of one chat turn, including the telemetry
// persisted downstream for analytics.
type GeneratedAnswer struct {
	Text     string   `json:"text"`
	Fallback bool     `json:"fallback"`
	Sources  []Source `json:"sources"`

	RAGLatencyMS   int64 `json:"rag_latency_ms"`
	LLMLatencyMS   int64 `json:"llm_latency_ms"`
	TotalLatencyMS int64 `json:"total_latency_ms"`

	// TopRAGScore is the highest score among retrieved documents, or 0.0
	// when none were retrieved. A genuine top score of 0.0 is therefore
	// indistinguishable from "no documents retrieved".
	TopRAGScore float32 `json:"top_rag_score"`
}

// normalizeField applies the default-filling policy for absent payload fields.
// Applied once, at the Retriever boundary, so consumers never re-check.
func normalizeField(v string) string {
	if v == "" {
		return FieldNotAvailable
	}
	return v
}

// documentFromPayload maps an index hit into a normalized ContextDocument.
// Content and Resolution deliberately default to the empty string rather than
// "N/A": an empty Content renders as blank in prompts, and an empty Resolution
// suppresses the fallback's "Recommended Resolution" section.
func documentFromPayload(id uint64, score float32, payload map[string]string) ContextDocument {
	return ContextDocument{
		ID:         id,
		Score:      score,
		Title:      normalizeField(payload["title"]),
		Category:   normalizeField(payload["category"]),
		Severity:   normalizeField(payload["severity"]),
		Content:    payload["content"],
		Resolution: payload["resolution"],
	}
}
