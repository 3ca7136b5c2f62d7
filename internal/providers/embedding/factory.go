package embedding

import (
	"context"

	"github.com/sandevgo/riskmon/internal/config"
	"github.com/sandevgo/riskmon/internal/core"
	"github.com/sandevgo/riskmon/pkg/log"
)

// NewEmbedder picks the configured provider. Remote providers missing their
// endpoint or key resolve to the stub.
func NewEmbedder(ctx context.Context, cfg config.EmbeddingConfig, keys config.ProvidersConfig) core.Embedder {
	logger := log.FromCtx(ctx)

	opts := Options{
		Timeout:    cfg.Timeout,
		MaxRetries: cfg.MaxRetries,
		MaxTokens:  cfg.MaxTokens,
	}

	switch cfg.Provider {
	case "", StubName:
		return NewStub(cfg.StubDim)
	case "local":
		if keys.OllamaBaseURL != "" {
			logger.Info().Str("model", cfg.LocalModel).Msg("using local embeddings")
			return NewOllama(keys.OllamaBaseURL, cfg.LocalModel, opts)
		}
	case "openai":
		if keys.OpenAIKey != "" {
			logger.Info().Str("model", cfg.OpenAIModel).Msg("using openai embeddings")
			return NewOpenAI(keys.OpenAIBaseURL, keys.OpenAIKey, cfg.OpenAIModel, opts)
		}
	default:
		logger.Warn().Str("provider", cfg.Provider).Msg("unknown embeddings provider, using stub")
		return NewStub(cfg.StubDim)
	}

	logger.Warn().Str("provider", cfg.Provider).Msg("embeddings provider is not configured, using stub")
	return NewStub(cfg.StubDim)
}
