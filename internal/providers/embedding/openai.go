package embedding

import (
	"context"
	"fmt"
	"sort"
	"strings"
)

type OpenAI struct {
	httpClient
	model string
}

func NewOpenAI(baseURL, apiKey, model string, opts Options) *OpenAI {
	if baseURL == "" {
		baseURL = "https://api.openai.com/v1"
	}
	return &OpenAI{
		httpClient: newHTTPClient(strings.TrimSuffix(baseURL, "/"), map[string]string{
			"Authorization": "Bearer " + apiKey,
		}, opts),
		model: model,
	}
}

func (o *OpenAI) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	payload := map[string]any{
		"model": o.model,
		"input": o.prepare(texts),
	}

	var result struct {
		Data []struct {
			Index     int       `json:"index"`
			Embedding []float32 `json:"embedding"`
		} `json:"data"`
	}
	if err := o.post(ctx, "/embeddings", payload, &result); err != nil {
		return nil, fmt.Errorf("openai embed: %w", err)
	}

	sort.SliceStable(result.Data, func(i, j int) bool {
		return result.Data[i].Index < result.Data[j].Index
	})
	out := make([][]float32, len(result.Data))
	for i, d := range result.Data {
		out[i] = d.Embedding
	}
	return out, nil
}
