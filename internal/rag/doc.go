// Package rag implements Retrieval-Augmented Generation (RAG) for Guardian.
//
// The rag package turns a raw support question into an answer grounded in
// historical incident documents. It owns the full pipeline for one chat turn:
//
//	Query
//	  |
//	  +-- Retriever (embed query via Ollama, nearest-neighbor search via Qdrant)
//	  |
//	  v
//	[]ContextDocument (ranked by cosine similarity, descending)
//	  |
//	  +-- BuildPrompt (deterministic prompt assembly)
//	  |
//	  v
//	Generator (Ollama chat; any backend failure falls back to a
//	templated answer synthesized from the retrieved context)
//	  |
//	  v
//	GeneratedAnswer (text + sources + latency/score telemetry)
//
// # Key Components
//
// Embedder: converts text into fixed-dimension vectors (Ollama nomic-embed-text).
//
// Index: stores (id, vector, payload) points and answers top-k cosine queries
// (Qdrant). EnsureCollection self-heals collections created with a stale
// vector dimension.
//
// Retriever: embeds a query and normalizes index hits into ContextDocuments.
//
// Generator: composes the prompt and calls the generation backend; it never
// fails upward; backend errors produce a fallback answer instead.
//
// Ingestor: batch-embeds and upserts a corpus of SourceRecords (idempotent by ID).
//
// Pipeline: HandleTurn wires retrieval, generation, and telemetry for one turn.
//
// # Degradation Policy
//
// Retrieval failures propagate out of Retriever; Pipeline degrades to an empty
// document list and still produces an answer. Generation failures are absorbed
// inside Generator. A chat turn can fail to retrieve context but can never fail
// to produce an answer.
//
// # Thread Safety
//
// All components hold no per-turn mutable state and are safe for concurrent
// use; the underlying Ollama and Qdrant clients handle their own concurrency.
package rag
