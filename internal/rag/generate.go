package rag

import (
	"context"
	"strings"

	"github.com/ollama/ollama/api"

	"github.com/koopa0/guardian/internal/log"
)

// systemInstruction is the fixed system-role message sent with every
// generation request.
const systemInstruction = "You are Guardian Assist, a helpful technical support chatbot " +
	"for the Guardian incident-management system. You help users troubleshoot incidents " +
	"and find solutions based on historical data. Keep responses concise and actionable."

// ChatClient is the minimal surface of the Ollama chat API used by Generator.
// *api.Client satisfies it.
type ChatClient interface {
	Chat(ctx context.Context, req *api.ChatRequest, fn api.ChatResponseFunc) error
}

// Generator produces the answer text for one chat turn.
//
// Generator never fails upward: any generation-backend failure (timeout,
// connection error, malformed reply) is converted into a fallback answer
// synthesized from the retrieved context. This is a deliberate
// availability-over-fidelity tradeoff.
type Generator struct {
	chat   ChatClient
	model  string
	logger log.Logger
}

// NewGenerator creates a Generator using the given chat backend and model.
func NewGenerator(chat ChatClient, model string, logger log.Logger) *Generator {
	return &Generator{
		chat:   chat,
		model:  model,
		logger: logger,
	}
}

// TryGenerate builds the prompt from the query and documents and asks the
// generation backend for an answer. The returned Answer's Fallback field
// reports whether the template-based fallback path produced the text.
func (g *Generator) TryGenerate(ctx context.Context, query string, docs []ContextDocument) Answer {
	prompt := BuildPrompt(query, docs)

	stream := false
	req := &api.ChatRequest{
		Model: g.model,
		Messages: []api.Message{
			{Role: "system", Content: systemInstruction},
			{Role: "user", Content: prompt},
		},
		Stream: &stream,
	}

	var reply strings.Builder
	err := g.chat.Chat(ctx, req, func(resp api.ChatResponse) error {
		reply.WriteString(resp.Message.Content)
		return nil
	})
	if err != nil {
		g.logger.Warn("generation backend failed, using fallback", "model", g.model, "error", err)
		return Answer{Text: Fallback(query, docs), Fallback: true}
	}

	text := reply.String()
	if text == "" {
		// A successful call with no content is a malformed reply.
		g.logger.Warn("generation backend returned empty reply, using fallback", "model", g.model)
		return Answer{Text: Fallback(query, docs), Fallback: true}
	}

	return Answer{Text: text}
}
