// Package config provides application configuration management with multi-source priority.
//
// Configuration sources (highest to lowest priority):
//  1. Environment variables (runtime override)
//  2. Config file (~/.guardian/config.yaml)
//  3. Default values (sensible defaults for quick start)
//
// Main configuration categories:
//   - Ollama: embedding and generation backend (host, models)
//   - Qdrant: vector index connection and collection
//   - Storage: PostgreSQL connection for chat persistence (see storage.go)
//
// Security: sensitive data (passwords) is never logged; see MarshalJSON.
// Validation: range checks in validation.go with clear sentinel errors.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/viper"
)

var (
	// ErrConfigNil indicates the configuration is nil.
	ErrConfigNil = errors.New("configuration is nil")

	// ErrInvalidOllamaHost indicates the Ollama host is invalid.
	ErrInvalidOllamaHost = errors.New("invalid Ollama host")

	// ErrInvalidEmbedModel indicates the embedding model is invalid.
	ErrInvalidEmbedModel = errors.New("invalid embedding model")

	// ErrInvalidChatModel indicates the chat model is invalid.
	ErrInvalidChatModel = errors.New("invalid chat model")

	// ErrInvalidQdrantHost indicates the Qdrant host is invalid.
	ErrInvalidQdrantHost = errors.New("invalid Qdrant host")

	// ErrInvalidQdrantPort indicates the Qdrant port is out of range.
	ErrInvalidQdrantPort = errors.New("invalid Qdrant port")

	// ErrInvalidCollection indicates the Qdrant collection name is invalid.
	ErrInvalidCollection = errors.New("invalid Qdrant collection name")

	// ErrInvalidTopK indicates the retrieval top_k value is out of range.
	ErrInvalidTopK = errors.New("invalid top_k")

	// ErrInvalidPostgresHost indicates the PostgreSQL host is invalid.
	ErrInvalidPostgresHost = errors.New("invalid PostgreSQL host")

	// ErrInvalidPostgresPort indicates the PostgreSQL port is out of range.
	ErrInvalidPostgresPort = errors.New("invalid PostgreSQL port")

	// ErrInvalidPostgresDBName indicates the PostgreSQL database name is invalid.
	ErrInvalidPostgresDBName = errors.New("invalid PostgreSQL database name")

	// ErrInvalidPostgresPassword indicates the PostgreSQL password is invalid.
	ErrInvalidPostgresPassword = errors.New("invalid PostgreSQL password")

	// ErrInvalidPostgresSSLMode indicates the PostgreSQL SSL mode is invalid.
	ErrInvalidPostgresSSLMode = errors.New("invalid PostgreSQL SSL mode")
)

const (
	// DefaultEmbedModel is the default Ollama embedding model.
	// nomic-embed-text outputs 768-dimensional vectors; the Qdrant
	// collection dimension follows it (see rag.VectorDimension).
	DefaultEmbedModel = "nomic-embed-text"

	// DefaultChatModel is the default Ollama generation model.
	DefaultChatModel = "llama3.2"

	// DefaultCollection is the default Qdrant collection name.
	DefaultCollection = "guardian_incidents"

	// DefaultTopK is the default number of documents retrieved per query.
	DefaultTopK = 3

	// MaxTopK is the upper bound accepted for top_k.
	MaxTopK = 10
)

// Config stores application configuration.
// SECURITY: sensitive fields are explicitly masked in MarshalJSON().
// When adding new sensitive fields (passwords, API keys), update MarshalJSON.
type Config struct {
	// Ollama backend configuration
	OllamaHost string `mapstructure:"ollama_host" json:"ollama_host"`
	EmbedModel string `mapstructure:"embed_model" json:"embed_model"`
	ChatModel  string `mapstructure:"chat_model" json:"chat_model"`

	// Qdrant vector index configuration
	QdrantHost       string `mapstructure:"qdrant_host" json:"qdrant_host"`
	QdrantPort       int    `mapstructure:"qdrant_port" json:"qdrant_port"`
	QdrantCollection string `mapstructure:"qdrant_collection" json:"qdrant_collection"`

	// Retrieval configuration
	TopK int `mapstructure:"top_k" json:"top_k"`

	// Storage configuration (see storage.go for URL/DSN helpers)
	PostgresHost     string `mapstructure:"postgres_host" json:"postgres_host"`
	PostgresPort     int    `mapstructure:"postgres_port" json:"postgres_port"`
	PostgresUser     string `mapstructure:"postgres_user" json:"postgres_user"`
	PostgresPassword string `mapstructure:"postgres_password" json:"postgres_password"` // SENSITIVE: masked in MarshalJSON
	PostgresDBName   string `mapstructure:"postgres_db_name" json:"postgres_db_name"`
	PostgresSSLMode  string `mapstructure:"postgres_ssl_mode" json:"postgres_ssl_mode"`

	// HTTP server configuration
	ListenAddr string `mapstructure:"listen_addr" json:"listen_addr"`
}

// Load loads configuration.
// Priority: Environment variables > Configuration file > Default values
func Load() (*Config, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("getting user home directory: %w", err)
	}

	configDir := filepath.Join(home, ".guardian")

	// Ensure directory exists (use 0750 permission for better security)
	if err := os.MkdirAll(configDir, 0o750); err != nil {
		return nil, fmt.Errorf("creating config directory: %w", err)
	}

	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(configDir)
	viper.AddConfigPath(".") // Also support current directory

	setDefaults()
	bindEnvVariables()

	// Read configuration file (if exists)
	if err := viper.ReadInConfig(); err != nil {
		// Configuration file not found is not an error, use default values
		var configNotFound viper.ConfigFileNotFoundError
		if !errors.As(err, &configNotFound) {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		slog.Debug("configuration file not found, using default values",
			"search_paths", []string{configDir, "."},
			"config_name", "config.yaml")
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("parsing configuration: %w", err)
	}

	// Parse DATABASE_URL if set (highest priority for PostgreSQL config)
	if err := cfg.parseDatabaseURL(); err != nil {
		return nil, fmt.Errorf("parsing DATABASE_URL: %w", err)
	}

	// Validate immediately (fail-fast)
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating configuration: %w", err)
	}

	return &cfg, nil
}

// setDefaults sets all default configuration values.
func setDefaults() {
	// Ollama defaults
	viper.SetDefault("ollama_host", "http://localhost:11434")
	viper.SetDefault("embed_model", DefaultEmbedModel)
	viper.SetDefault("chat_model", DefaultChatModel)

	// Qdrant defaults (gRPC port)
	viper.SetDefault("qdrant_host", "localhost")
	viper.SetDefault("qdrant_port", 6334)
	viper.SetDefault("qdrant_collection", DefaultCollection)

	// Retrieval defaults
	viper.SetDefault("top_k", DefaultTopK)

	// PostgreSQL defaults (matching docker-compose.yml)
	viper.SetDefault("postgres_host", "localhost")
	viper.SetDefault("postgres_port", 5432)
	viper.SetDefault("postgres_user", "guardian")
	viper.SetDefault("postgres_password", "guardian_dev_password")
	viper.SetDefault("postgres_db_name", "guardian")
	viper.SetDefault("postgres_ssl_mode", "disable")

	// HTTP server defaults
	viper.SetDefault("listen_addr", "127.0.0.1:8000")
}

// bindEnvVariables binds environment variable overrides explicitly.
func bindEnvVariables() {
	// Helper to panic on unexpected bind errors (hardcoded strings can't fail)
	mustBind := func(key, envVar string) {
		if err := viper.BindEnv(key, envVar); err != nil {
			panic(fmt.Sprintf("BUG: failed to bind %q to %q: %v", key, envVar, err))
		}
	}

	mustBind("ollama_host", "GUARDIAN_OLLAMA_HOST")
	mustBind("embed_model", "GUARDIAN_EMBED_MODEL")
	mustBind("chat_model", "GUARDIAN_CHAT_MODEL")
	mustBind("qdrant_host", "GUARDIAN_QDRANT_HOST")
	mustBind("qdrant_port", "GUARDIAN_QDRANT_PORT")
	mustBind("qdrant_collection", "GUARDIAN_QDRANT_COLLECTION")
	mustBind("listen_addr", "GUARDIAN_LISTEN_ADDR")

	// NOTE: DATABASE_URL is read directly in parseDatabaseURL, not via Viper
}

// maskedValue is the placeholder for masked sensitive data.
// Full-width blocks (U+2588) avoid substring matching against real secrets.
const maskedValue = "████████"

// maskSecret masks a secret string for safe logging.
// Secrets of 8 chars or fewer are fully masked to prevent substring attacks;
// longer secrets show the first and last 2 characters for debug utility.
func maskSecret(s string) string {
	if s == "" {
		return ""
	}
	if len(s) <= 8 {
		return maskedValue
	}
	return s[:2] + "<" + maskedValue + ">" + s[len(s)-2:]
}

// MarshalJSON implements json.Marshaler with explicit sensitive field masking.
func (c Config) MarshalJSON() ([]byte, error) {
	type alias Config
	a := alias(c)
	a.PostgresPassword = maskSecret(a.PostgresPassword)
	data, err := json.Marshal(a)
	if err != nil {
		return nil, fmt.Errorf("marshal config: %w", err)
	}
	return data, nil
}

// String implements Stringer to prevent accidental printing of secrets.
func (c Config) String() string {
	data, err := c.MarshalJSON()
	if err != nil {
		return fmt.Sprintf("Config{error: %v}", err)
	}
	return string(data)
}
