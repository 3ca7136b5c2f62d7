package embedding

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sandevgo/riskmon/internal/config"
)

type mockEmbedder struct {
	EmbedFunc func(ctx context.Context, texts []string) ([][]float32, error)
}

func (m *mockEmbedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	return m.EmbedFunc(ctx, texts)
}

func TestStub_Embed(t *testing.T) {
	s := NewStub(0)
	vecs, err := s.Embed(context.Background(), []string{"", string(make([]byte, 250))})
	require.NoError(t, err)
	require.Len(t, vecs, 2)

	assert.Len(t, vecs[0], DefaultStubDim)
	assert.Zero(t, vecs[0][0])
	assert.InDelta(t, 2.5, vecs[1][0], 1e-6)
	assert.InDelta(t, 2.5, vecs[1][DefaultStubDim-1], 1e-6)
}

func TestOllama_Embed(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/embed", r.URL.Path)

		var body struct {
			Model string   `json:"model"`
			Input []string `json:"input"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "all-minilm", body.Model)
		assert.Equal(t, []string{"a", "b"}, body.Input)

		_, _ = w.Write([]byte(`{"embeddings":[[1,0],[0,1]]}`))
	}))
	defer srv.Close()

	vecs, err := NewOllama(srv.URL+"/", "all-minilm", Options{}).Embed(context.Background(), []string{"a", "b"})
	require.NoError(t, err)
	assert.Equal(t, [][]float32{{1, 0}, {0, 1}}, vecs)
}

func TestOpenAI_EmbedOrdersByIndex(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/embeddings", r.URL.Path)
		assert.Equal(t, "Bearer key", r.Header.Get("Authorization"))
		_, _ = w.Write([]byte(`{"data":[{"index":1,"embedding":[2]},{"index":0,"embedding":[1]}]}`))
	}))
	defer srv.Close()

	vecs, err := NewOpenAI(srv.URL+"/v1", "key", "m", Options{}).Embed(context.Background(), []string{"x", "y"})
	require.NoError(t, err)
	assert.Equal(t, [][]float32{{1}, {2}}, vecs)
}

func TestOpenAI_ClientError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusBadRequest)
	}))
	defer srv.Close()

	_, err := NewOpenAI(srv.URL, "key", "m", Options{MaxRetries: 2}).Embed(context.Background(), []string{"x"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "400")
}

func TestTry(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name   string
		embed  func(context.Context, []string) ([][]float32, error)
		wantOk bool
	}{
		{
			name:   "ok",
			embed:  func(_ context.Context, texts []string) ([][]float32, error) { return make([][]float32, len(texts)), nil },
			wantOk: true,
		},
		{
			name:  "error",
			embed: func(context.Context, []string) ([][]float32, error) { return nil, errors.New("down") },
		},
		{
			name:  "count mismatch",
			embed: func(context.Context, []string) ([][]float32, error) { return [][]float32{{1}}, nil },
		},
		{
			name:  "panic",
			embed: func(context.Context, []string) ([][]float32, error) { panic("bad") },
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := Try(ctx, &mockEmbedder{EmbedFunc: tt.embed}, []string{"a", "b"})
			assert.Equal(t, tt.wantOk, out.IsOk())
			if !tt.wantOk {
				assert.Error(t, out.Reason)
			}
		})
	}
}

func TestNewEmbedder(t *testing.T) {
	ctx := context.Background()

	assert.IsType(t, &Stub{}, NewEmbedder(ctx, config.EmbeddingConfig{Provider: "stub"}, config.ProvidersConfig{}))
	assert.IsType(t, &Stub{}, NewEmbedder(ctx, config.EmbeddingConfig{Provider: "openai"}, config.ProvidersConfig{}))
	assert.IsType(t, &Stub{}, NewEmbedder(ctx, config.EmbeddingConfig{Provider: "weird"}, config.ProvidersConfig{}))
	assert.IsType(t, &OpenAI{}, NewEmbedder(ctx, config.EmbeddingConfig{Provider: "openai"}, config.ProvidersConfig{OpenAIKey: "k"}))
	assert.IsType(t, &Ollama{}, NewEmbedder(ctx, config.EmbeddingConfig{Provider: "local"}, config.ProvidersConfig{OllamaBaseURL: "http://x"}))
}
