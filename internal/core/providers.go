package core

import "context"

// Generator produces an answer from an ordered list of messages.
type Generator interface {
	Generate(ctx context.Context, messages []Message) (Generation, error)
}

// Embedder turns texts into vectors, one per input, in order.
type Embedder interface {
	Embed(ctx context.Context, texts []string) ([][]float32, error)
}

// AuditWriter accepts audit rows. Writes never block or fail the caller.
type AuditWriter interface {
	Write(ctx context.Context, rec AuditRecord)
}
