package rag

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sandevgo/riskmon/internal/config"
	"github.com/sandevgo/riskmon/internal/core"
)

func testConfig() config.RAGConfig {
	return config.RAGConfig{
		MultiQueryCount: 3,
		TopK:            3,
		SnippetChars:    200,
		MaxFiles:        100,
		MaxFileBytes:    1 << 20,
	}
}

func writeCorpus(t *testing.T, files map[string]string) string {
	t.Helper()
	root := t.TempDir()
	for name, content := range files {
		p := filepath.Join(root, filepath.FromSlash(name))
		require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
		require.NoError(t, os.WriteFile(p, []byte(content), 0o644))
	}
	return root
}

func TestTerms(t *testing.T) {
	got := Terms(`What is the GDPR (data) retention policy? "GDPR" ok`)
	assert.Equal(t, []string{"gdpr", "data", "retention", "policy"}, got)
}

func TestReformulator_Variants(t *testing.T) {
	q := "What is the GDPR data retention policy?"

	t.Run("default keeps two", func(t *testing.T) {
		v := NewReformulator(testConfig()).Variants(q)
		require.Len(t, v, 2)
		assert.Equal(t, q, v[0])
		assert.Equal(t, "gdpr data retention policy", v[1])
	})

	t.Run("multi query", func(t *testing.T) {
		cfg := testConfig()
		cfg.MultiQueryEnabled = true
		cfg.MultiQueryCount = 4
		r := NewReformulator(cfg)

		v := r.Variants(q)
		assert.Len(t, v, 4)
		assert.Equal(t, v, r.Variants(q), "variants are deterministic")
	})

	t.Run("hyde appends one", func(t *testing.T) {
		cfg := testConfig()
		cfg.HydeEnabled = true
		v := NewReformulator(cfg).Variants(q)
		require.Len(t, v, 3)
		assert.Contains(t, v[2], "gdpr data retention policy")
	})

	t.Run("short question still yields two", func(t *testing.T) {
		v := NewReformulator(testConfig()).Variants("gdpr")
		assert.Len(t, v, 2)
		assert.Equal(t, "gdpr", v[0])
	})
}

func TestScanner_ScoresByDistinctTerms(t *testing.T) {
	root := writeCorpus(t, map[string]string{
		"a.txt":      "retention retention retention",
		"b.md":       "# Retention\n\nThe **policy** text.",
		"c.pdf":      "retention",
		"sub/d.txt":  "nothing relevant here",
		"sub/e.md":   "policy",
		"notes.json": "policy",
	})
	s := NewScanner(root, testConfig())

	docs, err := s.Load(context.Background())
	require.NoError(t, err)
	require.Len(t, docs, 4)
	assert.Equal(t, "a.txt", docs[0].Source)
	assert.Equal(t, "sub/d.txt", docs[2].Source)

	got := s.Scan(docs, "retention policy")
	require.Len(t, got, 3)
	assert.Equal(t, "a.txt", got[0].Citation.Source)
	assert.Equal(t, 1.0, got[0].Score, "repeats of one term count once")
	assert.Equal(t, "b.md", got[1].Citation.Source)
	assert.Equal(t, 2.0, got[1].Score)
	assert.Equal(t, 1.0, got[2].Score)
	assert.Contains(t, got[1].Citation.Snippet, "policy")
	assert.NotContains(t, got[1].Citation.Snippet, "#")
	assert.Nil(t, got[0].Citation.Page)
}

func TestPipeline_FullMatchOutranksRepeatedTerm(t *testing.T) {
	root := writeCorpus(t, map[string]string{
		"both.txt": "gdpr retention policy",
		"spam.txt": "retention retention retention retention",
	})

	ans := NewPipeline(root, testConfig()).AnswerWithCitations(context.Background(), "gdpr retention", 3)
	require.Len(t, ans.Citations, 2)
	assert.Equal(t, "both.txt", ans.Citations[0].Source)
	assert.Equal(t, "spam.txt", ans.Citations[1].Source)
}

func TestScanner_SnippetTruncatedAndFlattened(t *testing.T) {
	long := "line one\nline two " + strings.Repeat("x", 500)
	root := writeCorpus(t, map[string]string{"a.txt": long})
	docs, err := NewScanner(root, testConfig()).Load(context.Background())
	require.NoError(t, err)

	assert.Len(t, docs[0].Snippet, 200)
	assert.NotContains(t, docs[0].Snippet, "\n")
}

func TestScanner_MaxFiles(t *testing.T) {
	root := writeCorpus(t, map[string]string{"a.txt": "a", "b.txt": "b", "c.txt": "c"})
	cfg := testConfig()
	cfg.MaxFiles = 2

	docs, err := NewScanner(root, cfg).Load(context.Background())
	require.NoError(t, err)
	assert.Len(t, docs, 2)
}

func TestScanner_OverlapFallback(t *testing.T) {
	root := writeCorpus(t, map[string]string{"a.txt": "dataprotectionofficer"})
	s := NewScanner(root, testConfig())
	docs, err := s.Load(context.Background())
	require.NoError(t, err)

	// No term is a substring, but most bigrams are.
	got := s.Scan(docs, "protecting datum")
	require.Len(t, got, 1)
	assert.Less(t, got[0].Score, 1.0)
}

func TestMerge_SumsAndRanks(t *testing.T) {
	page := 2
	passes := [][]Scored{
		{
			{Citation: core.Citation{Source: "a"}, Score: 1},
			{Citation: core.Citation{Source: "b"}, Score: 2},
			{Citation: core.Citation{Source: "c"}, Score: 1},
		},
		{
			{Citation: core.Citation{Source: "a"}, Score: 2},
			{Citation: core.Citation{Source: "a", Page: &page}, Score: 1},
			{Citation: core.Citation{Source: "c"}, Score: 1},
		},
	}

	got := Merge(passes, 3)
	require.Len(t, got, 3)
	assert.Equal(t, "a", got[0].Source)
	assert.Nil(t, got[0].Page)
	// b and c tie at 2, first seen wins
	assert.Equal(t, "b", got[1].Source)
	assert.Equal(t, "c", got[2].Source)

	assert.Empty(t, Merge(nil, 3))
}

func TestPipeline_AnswerWithCitations(t *testing.T) {
	root := writeCorpus(t, map[string]string{
		"gdpr.txt":  "GDPR is a regulation about data protection and retention.",
		"other.txt": "Lunch menu.",
	})
	cfg := testConfig()
	cfg.MultiQueryEnabled = true
	cfg.MultiQueryCount = 4
	cfg.HydeEnabled = true

	ans := NewPipeline(root, cfg).AnswerWithCitations(context.Background(), "What is GDPR data retention policy?", 3)

	require.NotEmpty(t, ans.Citations)
	assert.Equal(t, "gdpr.txt", ans.Citations[0].Source)
	assert.Equal(t, FallbackNone, ans.Meta.Fallback)
	assert.True(t, ans.Meta.MultiQuery)
	assert.True(t, ans.Meta.Hyde)
	assert.GreaterOrEqual(t, ans.Meta.MultiCount, 2)
	assert.Equal(t, Backend, ans.Meta.Fields()["rag_backend"])
}

func TestPipeline_FallbackChain(t *testing.T) {
	ctx := context.Background()
	q := "completely unrelated xyz123"

	t.Run("filename", func(t *testing.T) {
		root := writeCorpus(t, map[string]string{"a.txt": "mmmm", "xyz123-notes.txt": "qqqq"})
		ans := NewPipeline(root, testConfig()).AnswerWithCitations(ctx, q, 3)
		require.Len(t, ans.Citations, 1)
		assert.Equal(t, "xyz123-notes.txt", ans.Citations[0].Source)
		assert.Equal(t, FallbackFilename, ans.Meta.Fallback)
	})

	t.Run("first file", func(t *testing.T) {
		root := writeCorpus(t, map[string]string{"b.txt": "mmmm", "a.txt": "qqqq"})
		ans := NewPipeline(root, testConfig()).AnswerWithCitations(ctx, q, 3)
		require.Len(t, ans.Citations, 1)
		assert.Equal(t, "a.txt", ans.Citations[0].Source)
		assert.Equal(t, FallbackFirstFile, ans.Meta.Fallback)
	})

	t.Run("synthetic", func(t *testing.T) {
		ans := NewPipeline(filepath.Join(t.TempDir(), "missing"), testConfig()).AnswerWithCitations(ctx, q, 3)
		require.Len(t, ans.Citations, 1)
		assert.Equal(t, core.SyntheticSource, ans.Citations[0].Source)
		assert.Contains(t, ans.Citations[0].Snippet, q)
		assert.Equal(t, FallbackSynthetic, ans.Meta.Fallback)
	})
}

func TestPipeline_CorpusCache(t *testing.T) {
	ctx := context.Background()
	root := writeCorpus(t, map[string]string{"retention.txt": "records retention is seven years"})

	cfg := testConfig()
	cfg.CorpusTTL = time.Hour
	p := NewPipeline(root, cfg)

	first := p.AnswerWithCitations(ctx, "retention", 3)
	require.Len(t, first.Citations, 1)

	require.NoError(t, os.WriteFile(filepath.Join(root, "retention-2.txt"), []byte("retention applies to backups"), 0o644))

	cached := p.AnswerWithCitations(ctx, "retention", 3)
	assert.Len(t, cached.Citations, 1)

	p.Invalidate()
	fresh := p.AnswerWithCitations(ctx, "retention", 3)
	assert.Len(t, fresh.Citations, 2)
}

func TestPipeline_NoCacheRescans(t *testing.T) {
	ctx := context.Background()
	root := writeCorpus(t, map[string]string{"retention.txt": "records retention is seven years"})

	cfg := testConfig()
	cfg.CorpusTTL = 0
	p := NewPipeline(root, cfg)

	first := p.AnswerWithCitations(ctx, "retention", 3)
	require.Len(t, first.Citations, 1)
	assert.Equal(t, FallbackNone, first.Meta.Fallback)

	require.NoError(t, os.WriteFile(filepath.Join(root, "retention-2.txt"), []byte("retention applies to backups"), 0o644))

	second := p.AnswerWithCitations(ctx, "retention", 3)
	assert.Len(t, second.Citations, 2)
}

func TestCorpusCache_Expiry(t *testing.T) {
	now := time.Unix(0, 0)
	c := newCorpusCache(time.Minute)
	c.now = func() time.Time { return now }

	_, ok := c.Get()
	assert.False(t, ok)

	c.Update([]Document{{Source: "a.txt"}})
	docs, ok := c.Get()
	require.True(t, ok)
	assert.Len(t, docs, 1)

	now = now.Add(time.Minute)
	_, ok = c.Get()
	assert.False(t, ok)

	disabled := newCorpusCache(0)
	disabled.Update([]Document{{Source: "a.txt"}})
	_, ok = disabled.Get()
	assert.False(t, ok)
}
