package embedding

import (
	"context"
	"unicode/utf8"
)

const (
	StubName       = "stub"
	DefaultStubDim = 384
)

// Stub maps each text to a constant vector of len(text)/100. Vectors of
// equal-length texts are identical, which keeps offline runs deterministic.
type Stub struct {
	dim int
}

func NewStub(dim int) *Stub {
	if dim <= 0 {
		dim = DefaultStubDim
	}
	return &Stub{dim: dim}
}

func (s *Stub) Embed(_ context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, text := range texts {
		v := float32(utf8.RuneCountInString(text)) / 100
		vec := make([]float32, s.dim)
		for j := range vec {
			vec[j] = v
		}
		out[i] = vec
	}
	return out, nil
}
