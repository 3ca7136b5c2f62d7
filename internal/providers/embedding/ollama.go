package embedding

import (
	"context"
	"fmt"
	"strings"
)

// Ollama calls the local /api/embed endpoint.
type Ollama struct {
	httpClient
	model string
}

func NewOllama(baseURL, model string, opts Options) *Ollama {
	return &Ollama{
		httpClient: newHTTPClient(strings.TrimSuffix(baseURL, "/"), nil, opts),
		model:      model,
	}
}

func (o *Ollama) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	payload := map[string]any{
		"model": o.model,
		"input": o.prepare(texts),
	}

	var result struct {
		Embeddings [][]float32 `json:"embeddings"`
	}
	if err := o.post(ctx, "/api/embed", payload, &result); err != nil {
		return nil, fmt.Errorf("ollama embed: %w", err)
	}
	return result.Embeddings, nil
}
