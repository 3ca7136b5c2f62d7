package llm

import (
	"context"
	"fmt"

	"github.com/sandevgo/riskmon/internal/core"
	"github.com/sandevgo/riskmon/pkg/log"
)

// Fallback answers from the stub when the primary provider fails, so a
// request still gets deterministic text instead of an error.
type Fallback struct {
	primary core.Generator
	stub    *Stub
}

func NewFallback(primary core.Generator, model string) *Fallback {
	return &Fallback{
		primary: primary,
		stub:    NewStub(model),
	}
}

func (f *Fallback) Generate(ctx context.Context, messages []core.Message) (core.Generation, error) {
	out := f.GenerateOutcome(ctx, messages)
	return out.Value, nil
}

// GenerateOutcome reports a stub answer as Degraded with the primary error attached.
func (f *Fallback) GenerateOutcome(ctx context.Context, messages []core.Message) core.Outcome[core.Generation] {
	gen, err := safeGenerate(ctx, f.primary, messages)
	if err == nil {
		return core.Ok(gen)
	}

	log.FromCtx(ctx).Warn().Err(err).Msg("llm provider failed, using stub")

	stubGen, _ := f.stub.Generate(ctx, messages)
	return core.Degraded(stubGen, err)
}

// Try calls g and folds the result into an Outcome.
func Try(ctx context.Context, g core.Generator, messages []core.Message) core.Outcome[core.Generation] {
	if f, ok := g.(*Fallback); ok {
		return f.GenerateOutcome(ctx, messages)
	}
	gen, err := safeGenerate(ctx, g, messages)
	if err != nil {
		return core.Failed[core.Generation](err)
	}
	return core.Ok(gen)
}

// safeGenerate turns a provider panic into an error.
func safeGenerate(ctx context.Context, g core.Generator, messages []core.Message) (gen core.Generation, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("llm provider panic: %v", r)
		}
	}()
	return g.Generate(ctx, messages)
}
