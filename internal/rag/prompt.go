package rag

import (
	"fmt"
	"strings"
)

// Literal markers delimiting the retrieved context inside the prompt.
// Downstream evaluation of generated answers keys off these markers, so they
// are part of the behavioral contract, not cosmetic text.
const (
	ContextStartMarker = "=== Retrieved Context ==="
	ContextEndMarker   = "=== End Context ==="
)

// promptHeader states the assistant persona and how to use the context.
const promptHeader = `You are Guardian Assist, a technical support assistant that helps users resolve Guardian system incidents. You provide clear, concise solutions based on historical incident data.

Use the following retrieved context documents to answer the user's question. If the context is relevant, reference specific details. If none of the context is relevant, say so honestly and offer general guidance.`

// promptFooter is the closing instruction appended after the user question.
const promptFooter = `Provide a helpful, accurate response. Be concise but thorough. If referencing a specific error code or resolution, mention it explicitly.`

// BuildPrompt assembles the generation prompt from the query and the retrieved
// documents. Pure and deterministic: identical inputs produce byte-identical
// output. An empty document list renders an empty context section between the
// markers; BuildPrompt never fails.
func BuildPrompt(query string, docs []ContextDocument) string {
	blocks := make([]string, 0, len(docs))
	for i, doc := range docs {
		resolution := doc.Resolution
		if resolution == "" {
			resolution = FieldNotAvailable
		}
		blocks = append(blocks, fmt.Sprintf(
			"--- Document %d ---\nTitle: %s\nCategory: %s\nSeverity: %s\nContent: %s\nResolution: %s\n",
			i+1, doc.Title, doc.Category, doc.Severity, doc.Content, resolution))
	}
	contextText := strings.Join(blocks, "\n")

	var b strings.Builder
	b.WriteString(promptHeader)
	b.WriteString("\n\n")
	b.WriteString(ContextStartMarker)
	b.WriteString("\n")
	b.WriteString(contextText)
	b.WriteString("\n")
	b.WriteString(ContextEndMarker)
	b.WriteString("\n\n")
	b.WriteString("User Question: ")
	b.WriteString(query)
	b.WriteString("\n\n")
	b.WriteString(promptFooter)
	return b.String()
}
