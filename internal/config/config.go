// Package config reads the game's environment. A .env file in the working directory
// is loaded first when present; real environment variables win over it.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"stolenpainting/internal/debug"
	"stolenpainting/internal/llm"
	"stolenpainting/internal/logging"
	"stolenpainting/internal/observability"
)

const DefaultChatTimeout = 30 * time.Second

type Config struct {
	OpenAIAPIKey  string
	Model         string
	ChatTimeout   time.Duration
	Debug         bool
	DebugLogPath  string
	CompletionsDB string
	Tracing       observability.Config
}

// Load reads .env (if any) and the environment.
func Load() (Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return Config{}, fmt.Errorf("failed to load .env: %w", err)
	}
	return FromEnv(os.Getenv)
}

// FromEnv builds a Config from a lookup function such as os.Getenv.
func FromEnv(getenv func(string) string) (Config, error) {
	cfg := Config{
		OpenAIAPIKey:  strings.TrimSpace(getenv("OPENAI_API_KEY")),
		Model:         orDefault(getenv("OPENAI_MODEL"), llm.DefaultModel),
		ChatTimeout:   DefaultChatTimeout,
		Debug:         isTrue(getenv("DEBUG")),
		DebugLogPath:  orDefault(getenv("DEBUG_LOG"), debug.DefaultPath),
		CompletionsDB: orDefault(getenv("COMPLETIONS_DB"), logging.DefaultPath),
	}

	if raw := strings.TrimSpace(getenv("CHAT_TIMEOUT")); raw != "" {
		d, err := time.ParseDuration(raw)
		if err != nil {
			return Config{}, fmt.Errorf("invalid CHAT_TIMEOUT %q: %w", raw, err)
		}
		if d <= 0 {
			return Config{}, fmt.Errorf("CHAT_TIMEOUT must be positive, got %s", d)
		}
		cfg.ChatTimeout = d
	}

	cfg.Tracing = observability.Config{
		ServiceName:    observability.ServiceName,
		ServiceVersion: observability.ServiceVersion,
		Environment:    orDefault(getenv("ENVIRONMENT"), "development"),
		Enabled:        getenv("OTEL_TRACES_ENABLED") == "true",
		LangfuseHost:   orDefault(getenv("LANGFUSE_HOST"), "https://cloud.langfuse.com"),
		PublicKey:      getenv("LANGFUSE_PUBLIC_KEY"),
		SecretKey:      getenv("LANGFUSE_SECRET_KEY"),
	}
	return cfg, nil
}

// HasAPIKey reports whether suspects can be talked to at all.
func (c Config) HasAPIKey() bool {
	return c.OpenAIAPIKey != ""
}

func isTrue(v string) bool {
	return v == "1" || strings.EqualFold(v, "true")
}

func orDefault(v, def string) string {
	if v = strings.TrimSpace(v); v != "" {
		return v
	}
	return def
}
