package config

import "time"

// ProvidersConfig holds endpoints and credentials shared by LLM and embedding clients.
type ProvidersConfig struct {
	OpenAIKey     string `env:"OPENAI_API_KEY"`
	OpenAIBaseURL string `env:"OPENAI_BASE_URL" envDefault:"https://api.openai.com/v1"`
	OpenRouterKey string `env:"OPENROUTER_API_KEY"`
	AnthropicKey  string `env:"ANTHROPIC_API_KEY"`
	OllamaBaseURL string `env:"OLLAMA_BASE_URL" envDefault:"http://localhost:11434"`
}

type LLMConfig struct {
	Provider    string        `env:"LLM_PROVIDER" envDefault:"stub"`
	Model       string        `env:"LLM_MODEL" envDefault:"gpt-4o-mini"`
	BaseURL     string        `env:"LLM_BASE_URL"`
	APIKey      string        `env:"LLM_API_KEY"`
	Temperature float64       `env:"LLM_TEMPERATURE" envDefault:"0.2"`
	MaxTokens   int           `env:"LLM_MAX_TOKENS" envDefault:"800"`
	Timeout     time.Duration `env:"LLM_TIMEOUT" envDefault:"30s"`
	MaxRetries  int           `env:"LLM_MAX_RETRIES" envDefault:"1"`
}

type EmbeddingConfig struct {
	Provider    string        `env:"EMBEDDINGS_PROVIDER" envDefault:"stub"`
	StubDim     int           `env:"EMBEDDING_STUB_DIM" envDefault:"384"`
	LocalModel  string        `env:"LOCAL_EMBEDDING_MODEL" envDefault:"all-minilm"`
	OpenAIModel string        `env:"OPENAI_EMBEDDING_MODEL" envDefault:"text-embedding-ada-002"`
	Timeout     time.Duration `env:"EMBEDDING_TIMEOUT" envDefault:"5s"`
	MaxRetries  int           `env:"EMBEDDING_MAX_RETRIES" envDefault:"1"`
	MaxTokens   int           `env:"EMBEDDING_MAX_TOKENS" envDefault:"512"`
}
