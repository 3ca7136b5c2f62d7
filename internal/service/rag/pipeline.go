// Package rag retrieves citations from a directory of text documents.
package rag

import (
	"context"
	"fmt"
	"path"
	"strings"

	"github.com/sandevgo/riskmon/internal/config"
	"github.com/sandevgo/riskmon/internal/core"
	"github.com/sandevgo/riskmon/pkg/log"
)

const (
	Backend = "filesystem"

	FallbackNone      = ""
	FallbackFilename  = "filename"
	FallbackFirstFile = "first_file"
	FallbackSynthetic = "synthetic"
)

type Meta struct {
	Backend    string
	MultiQuery bool
	MultiCount int
	Hyde       bool
	Fallback   string
}

// Fields returns the audit representation of m.
func (m Meta) Fields() map[string]any {
	return map[string]any{
		"rag_backend":     m.Backend,
		"rag_multi_query": m.MultiQuery,
		"rag_multi_count": m.MultiCount,
		"rag_hyde":        m.Hyde,
		"rag_fallback":    m.Fallback,
	}
}

type Answer struct {
	Answer    string
	Citations []core.Citation
	Meta      Meta
}

type Pipeline struct {
	cfg          config.RAGConfig
	scanner      *Scanner
	reformulator *Reformulator
	cache        *corpusCache
}

func NewPipeline(docsPath string, cfg config.RAGConfig) *Pipeline {
	return &Pipeline{
		cfg:          cfg,
		scanner:      NewScanner(docsPath, cfg),
		reformulator: NewReformulator(cfg),
		cache:        newCorpusCache(cfg.CorpusTTL),
	}
}

func (p *Pipeline) Scanner() *Scanner {
	return p.scanner
}

// Invalidate drops the cached corpus so the next request rereads it.
func (p *Pipeline) Invalidate() {
	p.cache.Invalidate()
}

func (p *Pipeline) documents(ctx context.Context) ([]Document, error) {
	if docs, ok := p.cache.Get(); ok {
		return docs, nil
	}
	docs, err := p.scanner.Load(ctx)
	if err != nil {
		return docs, err
	}
	p.cache.Update(docs)
	return docs, nil
}

// AnswerWithCitations never returns an empty citation list for a non-empty
// question. k <= 0 uses the configured top k.
func (p *Pipeline) AnswerWithCitations(ctx context.Context, question string, k int) Answer {
	logger := log.FromCtx(ctx)
	if k <= 0 {
		k = p.cfg.TopK
	}

	variants := p.reformulator.Variants(question)
	meta := Meta{
		Backend:    Backend,
		MultiQuery: p.cfg.MultiQueryEnabled,
		MultiCount: len(variants),
		Hyde:       p.cfg.HydeEnabled,
		Fallback:   FallbackNone,
	}

	docs, err := p.documents(ctx)
	if err != nil {
		logger.Debug().Err(err).Str("root", p.scanner.Root()).Msg("corpus scan degraded")
	}

	passes := make([][]Scored, 0, len(variants))
	for _, v := range variants {
		passes = append(passes, p.scanner.Scan(docs, v))
	}
	citations := Merge(passes, k)

	if len(citations) == 0 {
		var c core.Citation
		c, meta.Fallback = p.fallback(docs, question)
		citations = []core.Citation{c}
	}

	logger.Debug().
		Int("variants", len(variants)).
		Int("documents", len(docs)).
		Int("citations", len(citations)).
		Str("fallback", meta.Fallback).
		Msg("rag retrieval finished")

	return Answer{
		Answer:    fmt.Sprintf("Retrieved %d citation(s) from the document corpus.", len(citations)),
		Citations: citations,
		Meta:      meta,
	}
}

func (p *Pipeline) fallback(docs []Document, question string) (core.Citation, string) {
	terms := Terms(question)
	for _, d := range docs {
		name := strings.ToLower(path.Base(d.Source))
		for _, t := range terms {
			if strings.Contains(name, t) {
				return d.citation(), FallbackFilename
			}
		}
	}

	if len(docs) > 0 {
		return docs[0].citation(), FallbackFirstFile
	}

	return core.Citation{
		Source:  core.SyntheticSource,
		Snippet: firstRunes("Hypothetical context for: "+strings.TrimSpace(question), p.cfg.SnippetChars),
	}, FallbackSynthetic
}
