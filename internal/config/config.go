package config

import (
	"context"
	"errors"
	"fmt"

	"github.com/caarlos0/env/v11"
	"github.com/sandevgo/riskmon/pkg/log"
)

// Config is built once per process and passed down explicitly.
type Config struct {
	App       AppConfig
	HTTP      HTTPConfig
	Router    RouterConfig
	RAG       RAGConfig
	Memory    MemoryConfig
	Providers ProvidersConfig
	LLM       LLMConfig
	Embedding EmbeddingConfig
}

// Load parses the process environment.
func Load() (*Config, error) {
	c := &Config{}
	if err := env.Parse(c); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	return c, c.Validate()
}

// LoadFrom parses the given variables only. Used by tests and the env command.
func LoadFrom(vars map[string]string) (*Config, error) {
	c := &Config{}
	if err := env.ParseWithOptions(c, env.Options{Environment: vars}); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	return c, c.Validate()
}

func NewConfig(ctx context.Context) *Config {
	c, err := Load()
	if err != nil {
		log.FromCtx(ctx).Fatal().Err(err).Msg("failed to parse config")
	}
	return c
}

func (c *Config) Validate() error {
	var errs []error
	nonNegative := map[string]int{
		"RAG_MULTI_QUERY_COUNT":              c.RAG.MultiQueryCount,
		"RAG_TOP_K":                          c.RAG.TopK,
		"MEMORY_SHORT_MAX_TURNS":             c.Memory.ShortMaxTurns,
		"SHORT_MEMORY_RETENTION_DAYS":        c.Memory.ShortRetentionDays,
		"SHORT_MEMORY_MAX_TURNS_PER_SESSION": c.Memory.ShortMaxTurnsPerSession,
		"MEMORY_LONG_MAX_FACTS":              c.Memory.LongMaxFacts,
		"MEMORY_LONG_RETENTION_DAYS":         c.Memory.LongRetentionDays,
		"LOG_RETENTION_DAYS":                 c.App.LogRetentionDays,
	}
	for key, v := range nonNegative {
		if v < 0 {
			errs = append(errs, fmt.Errorf("%s must be >= 0, got %d", key, v))
		}
	}
	return errors.Join(errs...)
}
