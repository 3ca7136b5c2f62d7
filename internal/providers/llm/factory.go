package llm

import (
	"context"

	"github.com/sandevgo/riskmon/internal/config"
	"github.com/sandevgo/riskmon/internal/core"
	"github.com/sandevgo/riskmon/pkg/log"
)

// NewGenerator builds the configured provider. Remote providers are wrapped
// in Fallback; a provider that cannot be built resolves to the stub.
func NewGenerator(ctx context.Context, cfg config.LLMConfig, keys config.ProvidersConfig) core.Generator {
	logger := log.FromCtx(ctx)
	logger.Info().
		Str("provider", cfg.Provider).
		Str("model", cfg.Model).
		Msg("starting llm provider")

	opts := Options{
		Temperature: cfg.Temperature,
		MaxTokens:   cfg.MaxTokens,
		Timeout:     cfg.Timeout,
		MaxRetries:  cfg.MaxRetries,
	}

	apiKey := func(fallback string) string {
		if cfg.APIKey != "" {
			return cfg.APIKey
		}
		return fallback
	}

	var primary core.Generator
	switch cfg.Provider {
	case "", StubName:
		return NewStub(cfg.Model)
	case "openai":
		if key := apiKey(keys.OpenAIKey); key != "" {
			primary = NewOpenAI(firstNonEmpty(cfg.BaseURL, keys.OpenAIBaseURL), key, cfg.Model, opts)
		}
	case "anthropic":
		if key := apiKey(keys.AnthropicKey); key != "" {
			primary = NewAnthropic(key, cfg.Model, opts)
		}
	case "openrouter":
		if key := apiKey(keys.OpenRouterKey); key != "" {
			primary = NewOpenRouter(key, cfg.Model, opts)
		}
	case "ollama":
		primary = NewOllama(firstNonEmpty(cfg.BaseURL, keys.OllamaBaseURL), cfg.Model, opts)
	case "custom":
		if cfg.BaseURL != "" {
			primary = NewCustomOpenAI(cfg.BaseURL, cfg.APIKey, cfg.Model, opts)
		}
	default:
		logger.Warn().Str("provider", cfg.Provider).Msg("unknown llm provider, using stub")
		return NewStub(cfg.Model)
	}

	if primary == nil {
		logger.Warn().Str("provider", cfg.Provider).Msg("llm provider is not configured, using stub")
		return NewStub(cfg.Model)
	}
	return NewFallback(primary, cfg.Model)
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
