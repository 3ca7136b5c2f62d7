package llm

import "time"

type Options struct {
	Temperature float64
	MaxTokens   int
	Timeout     time.Duration
	MaxRetries  int
}
