// Package cmd provides CLI commands for Guardian Assist.
//
// Commands:
//   - serve: HTTP API server (chat, sessions, analytics, admin)
//   - ingest: load the incident corpus into the vector index
//   - version: show version information
//
// Signal handling and graceful shutdown are implemented via context
// cancellation.
package cmd

import (
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/koopa0/guardian/internal/log"
)

var rootCmd = &cobra.Command{
	Use:   "guardian",
	Short: "Guardian Assist - RAG support chatbot for incident management",
	Long: `Guardian Assist answers technical support questions by retrieving
similar historical incidents from a Qdrant vector index and generating
answers with a local Ollama model. When the generation backend is
unavailable it degrades to a template answer built from the retrieved
incidents, so users always get a response.

Run "guardian serve" to start the HTTP API server.`,
	SilenceUsage: true,
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

// newLogger builds the process logger. DEBUG=1 enables debug level,
// GUARDIAN_LOG_JSON=1 switches to JSON output for log collectors.
func newLogger() log.Logger {
	level := slog.LevelInfo
	if os.Getenv("DEBUG") != "" {
		level = slog.LevelDebug
	}
	return log.New(log.Config{
		Level: level,
		JSON:  os.Getenv("GUARDIAN_LOG_JSON") != "",
	})
}
