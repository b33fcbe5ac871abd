package config

import (
	"fmt"
	"log/slog"
	"slices"
	"strings"
)

// validSSLModes are the SSL modes accepted by PostgreSQL/pgx.
var validSSLModes = []string{"disable", "allow", "prefer", "require", "verify-ca", "verify-full"}

// Validate validates configuration values.
// Returns sentinel errors that can be checked with errors.Is().
func (c *Config) Validate() error {
	if c == nil {
		return ErrConfigNil
	}

	// 1. Ollama backend validation
	if c.OllamaHost == "" {
		return fmt.Errorf("%w: ollama_host cannot be empty", ErrInvalidOllamaHost)
	}
	if !strings.HasPrefix(c.OllamaHost, "http://") && !strings.HasPrefix(c.OllamaHost, "https://") {
		return fmt.Errorf("%w: ollama_host must start with http:// or https://, got %q",
			ErrInvalidOllamaHost, c.OllamaHost)
	}
	if c.EmbedModel == "" {
		return fmt.Errorf("%w: embed_model cannot be empty", ErrInvalidEmbedModel)
	}
	if c.ChatModel == "" {
		return fmt.Errorf("%w: chat_model cannot be empty", ErrInvalidChatModel)
	}

	// 2. Qdrant validation
	if c.QdrantHost == "" {
		return fmt.Errorf("%w: qdrant_host cannot be empty", ErrInvalidQdrantHost)
	}
	if c.QdrantPort < 1 || c.QdrantPort > 65535 {
		return fmt.Errorf("%w: must be between 1 and 65535, got %d", ErrInvalidQdrantPort, c.QdrantPort)
	}
	if c.QdrantCollection == "" {
		return fmt.Errorf("%w: qdrant_collection cannot be empty", ErrInvalidCollection)
	}

	// 3. Retrieval validation
	if c.TopK < 1 || c.TopK > MaxTopK {
		return fmt.Errorf("%w: must be between 1 and %d, got %d", ErrInvalidTopK, MaxTopK, c.TopK)
	}

	// 4. PostgreSQL validation
	if c.PostgresHost == "" {
		return fmt.Errorf("%w: host cannot be empty", ErrInvalidPostgresHost)
	}
	if c.PostgresPort < 1 || c.PostgresPort > 65535 {
		return fmt.Errorf("%w: must be between 1 and 65535, got %d", ErrInvalidPostgresPort, c.PostgresPort)
	}
	if c.PostgresDBName == "" {
		return fmt.Errorf("%w: database name cannot be empty", ErrInvalidPostgresDBName)
	}
	if c.PostgresPassword == "" {
		return fmt.Errorf("%w: postgres_password must be set", ErrInvalidPostgresPassword)
	}

	// Warn if using default dev password (but don't block - user might be in dev)
	if c.PostgresPassword == "guardian_dev_password" {
		slog.Warn("using default development password for PostgreSQL",
			"hint", "change postgres_password in config.yaml for production deployments")
	}

	if !slices.Contains(validSSLModes, c.PostgresSSLMode) {
		return fmt.Errorf("%w: must be one of %v, got %q",
			ErrInvalidPostgresSSLMode, validSSLModes, c.PostgresSSLMode)
	}

	return nil
}
