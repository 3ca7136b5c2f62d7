// Package tokens counts, truncates and chunks text with the cl100k_base
// tokenizer. When the encoding cannot be loaded (offline hosts) it falls back
// to a four-characters-per-token estimate.
package tokens

import (
	"sync"
	"unicode/utf8"

	"github.com/pkoukk/tiktoken-go"
)

const encodingName = "cl100k_base"

var (
	tk     *tiktoken.Tiktoken
	tkOnce sync.Once
)

func encoder() *tiktoken.Tiktoken {
	tkOnce.Do(func() {
		enc, err := tiktoken.GetEncoding(encodingName)
		if err == nil {
			tk = enc
		}
	})
	return tk
}

// Count returns the number of tokens in text.
func Count(text string) int {
	if text == "" {
		return 0
	}
	if enc := encoder(); enc != nil {
		return len(enc.Encode(text, nil, nil))
	}
	return estimate(text)
}

func estimate(text string) int {
	return (utf8.RuneCountInString(text) + 3) / 4
}

// Truncate returns the longest prefix of text that fits in maxTokens.
func Truncate(text string, maxTokens int) string {
	if maxTokens <= 0 || text == "" {
		return ""
	}
	if enc := encoder(); enc != nil {
		ids := enc.Encode(text, nil, nil)
		if len(ids) <= maxTokens {
			return text
		}
		return enc.Decode(ids[:maxTokens])
	}

	runes := []rune(text)
	if limit := maxTokens * 4; len(runes) > limit {
		return string(runes[:limit])
	}
	return text
}

// slice splits text into pieces of at most maxTokens tokens.
func slice(text string, maxTokens int) []Chunk {
	var chunks []Chunk

	if enc := encoder(); enc != nil {
		ids := enc.Encode(text, nil, nil)
		for i := 0; i < len(ids); i += maxTokens {
			end := min(i+maxTokens, len(ids))
			chunks = append(chunks, Chunk{Text: enc.Decode(ids[i:end]), TokenSize: end - i})
		}
		return chunks
	}

	runes := []rune(text)
	step := maxTokens * 4
	for i := 0; i < len(runes); i += step {
		end := min(i+step, len(runes))
		piece := string(runes[i:end])
		chunks = append(chunks, Chunk{Text: piece, TokenSize: estimate(piece)})
	}
	return chunks
}
