package embedding

import (
	"context"
	"fmt"

	"github.com/sandevgo/riskmon/internal/core"
)

// Try embeds texts and reports any failure, including a provider panic or a
// response with the wrong number of vectors, as Failed.
func Try(ctx context.Context, e core.Embedder, texts []string) (out core.Outcome[[][]float32]) {
	defer func() {
		if r := recover(); r != nil {
			out = core.Failed[[][]float32](fmt.Errorf("embedder panic: %v", r))
		}
	}()

	vecs, err := e.Embed(ctx, texts)
	if err != nil {
		return core.Failed[[][]float32](err)
	}
	if len(vecs) != len(texts) {
		return core.Failed[[][]float32](fmt.Errorf("embedder returned %d vectors for %d texts", len(vecs), len(texts)))
	}
	return core.Ok(vecs)
}
