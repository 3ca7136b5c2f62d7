package embedding

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/sandevgo/riskmon/internal/core"
	"github.com/sandevgo/riskmon/pkg/retry"
	"github.com/sandevgo/riskmon/pkg/tokens"
)

type Options struct {
	Timeout    time.Duration
	MaxRetries int
	MaxTokens  int
}

type httpClient struct {
	client    *http.Client
	retrier   *retry.Retrier
	baseURL   string
	headers   map[string]string
	maxTokens int
}

func newHTTPClient(baseURL string, headers map[string]string, opts Options) httpClient {
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return httpClient{
		client:    &http.Client{Timeout: timeout},
		retrier:   retry.NewRetrier(retry.NewFastConfig(opts.MaxRetries)),
		baseURL:   baseURL,
		headers:   headers,
		maxTokens: opts.MaxTokens,
	}
}

// prepare truncates inputs to the model context window.
func (c *httpClient) prepare(texts []string) []string {
	if c.maxTokens <= 0 {
		return texts
	}
	out := make([]string, len(texts))
	for i, t := range texts {
		out[i] = tokens.Truncate(t, c.maxTokens)
	}
	return out
}

func (c *httpClient) post(ctx context.Context, path string, body, out any) error {
	data, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("marshal: %w", err)
	}

	return c.retrier.Do(ctx, func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(data))
		if err != nil {
			return retry.Permanent(fmt.Errorf("create request: %w", err))
		}
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("User-Agent", core.AppUserAgent)
		for k, v := range c.headers {
			req.Header.Set(k, v)
		}

		resp, err := c.client.Do(req)
		if err != nil {
			return fmt.Errorf("request: %w", err)
		}
		defer resp.Body.Close()

		raw, err := io.ReadAll(resp.Body)
		if err != nil {
			return fmt.Errorf("read body: %w", err)
		}
		if resp.StatusCode != http.StatusOK {
			if len(raw) > 256 {
				raw = raw[:256]
			}
			err := fmt.Errorf("http %d: %s", resp.StatusCode, raw)
			if resp.StatusCode >= 400 && resp.StatusCode < 500 && resp.StatusCode != http.StatusTooManyRequests {
				return retry.Permanent(err)
			}
			return err
		}

		if err := json.Unmarshal(raw, out); err != nil {
			return retry.Permanent(fmt.Errorf("decode: %w", err))
		}
		return nil
	})
}
