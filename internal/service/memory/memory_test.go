package memory

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sandevgo/riskmon/internal/config"
	"github.com/sandevgo/riskmon/internal/core"
	"github.com/sandevgo/riskmon/internal/storage/inmem"
)

type mockEmbedder struct {
	EmbedFunc func(ctx context.Context, texts []string) ([][]float32, error)
	calls     int
}

func (m *mockEmbedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	m.calls++
	return m.EmbedFunc(ctx, texts)
}

// keywordEmbedder maps texts onto two axes: mentions of "alpha" and "beta".
func keywordEmbedder() *mockEmbedder {
	return &mockEmbedder{
		EmbedFunc: func(_ context.Context, texts []string) ([][]float32, error) {
			out := make([][]float32, len(texts))
			for i, t := range texts {
				out[i] = []float32{
					float32(strings.Count(t, "alpha")),
					float32(strings.Count(t, "beta")),
				}
			}
			return out, nil
		},
	}
}

func failingEmbedder() *mockEmbedder {
	return &mockEmbedder{
		EmbedFunc: func(context.Context, []string) ([][]float32, error) {
			return nil, errors.New("embedder down")
		},
	}
}

// clock advances one second on every call.
type clock struct {
	t time.Time
}

func newClock() *clock {
	return &clock{t: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
}

func (c *clock) Now() time.Time {
	c.t = c.t.Add(time.Second)
	return c.t
}

func newShort(cfg config.MemoryConfig, c *clock) *ShortTerm {
	s := NewShortTerm(inmem.New(), cfg)
	s.now = c.Now
	return s
}

func newLong(cfg config.MemoryConfig, e core.Embedder, c *clock) *LongTerm {
	l := NewLongTerm(inmem.New(), e, cfg)
	l.now = c.Now
	return l
}

func TestShortTerm_TurnOrder(t *testing.T) {
	ctx := context.Background()
	s := newShort(config.MemoryConfig{}, newClock())

	for _, c := range []string{"one", "two", "three"} {
		require.NoError(t, s.AppendTurn(ctx, "u", "s", core.RoleUser, c))
	}
	require.NoError(t, s.AppendTurn(ctx, "u", "other", core.RoleUser, "elsewhere"))

	res := s.LoadTurns(ctx, "u", "s")
	require.Len(t, res.Turns, 3)
	assert.Equal(t, "one", res.Turns[0].Content)
	assert.Equal(t, "three", res.Turns[2].Content)
	assert.Zero(t, res.Pruned)
}

func TestShortTerm_CapPrunesOldest(t *testing.T) {
	ctx := context.Background()
	s := newShort(config.MemoryConfig{ShortMaxTurnsPerSession: 2}, newClock())

	for _, c := range []string{"a", "b", "c", "d"} {
		require.NoError(t, s.AppendTurn(ctx, "u", "s", core.RoleUser, c))
	}

	res := s.LoadTurns(ctx, "u", "s")
	assert.Equal(t, 2, res.Pruned)
	require.Len(t, res.Turns, 2)
	assert.Equal(t, "c", res.Turns[0].Content)
	assert.Equal(t, "d", res.Turns[1].Content)

	assert.Zero(t, s.LoadTurns(ctx, "u", "s").Pruned)
}

func TestShortTerm_RetentionPrunes(t *testing.T) {
	ctx := context.Background()
	c := newClock()
	s := newShort(config.MemoryConfig{ShortRetentionDays: 1}, c)

	require.NoError(t, s.AppendTurn(ctx, "u", "s", core.RoleUser, "old"))
	c.t = c.t.Add(48 * time.Hour)
	require.NoError(t, s.AppendTurn(ctx, "u", "s", core.RoleUser, "new"))

	res := s.LoadTurns(ctx, "u", "s")
	assert.Equal(t, 1, res.Pruned)
	require.Len(t, res.Turns, 1)
	assert.Equal(t, "new", res.Turns[0].Content)
}

func TestShortTerm_Summary(t *testing.T) {
	ctx := context.Background()
	s := newShort(config.MemoryConfig{ShortMaxTurns: 2}, newClock())

	assert.Empty(t, s.LoadSummary(ctx, "u", "s"))

	require.NoError(t, s.AppendTurn(ctx, "u", "s", core.RoleUser, "q1"))
	require.NoError(t, s.AppendTurn(ctx, "u", "s", core.RoleAssistant, "a1"))
	assert.False(t, s.UpdateSummaryIfNeeded(ctx, "u", "s"))

	require.NoError(t, s.AppendTurn(ctx, "u", "s", core.RoleUser, "q2"))
	assert.True(t, s.UpdateSummaryIfNeeded(ctx, "u", "s"))
	assert.Equal(t, "assistant: a1\nuser: q2", s.LoadSummary(ctx, "u", "s"))

	require.NoError(t, s.Clear(ctx, "u", "s"))
	require.NoError(t, s.Clear(ctx, "u", "s"))
	assert.Empty(t, s.LoadSummary(ctx, "u", "s"))
	assert.Empty(t, s.LoadTurns(ctx, "u", "s").Turns)
}

// tailOnlyRepo fails full-log reads so summaries must come from the tail query.
type tailOnlyRepo struct {
	*inmem.Store
	recentLimit int
}

func (r *tailOnlyRepo) ListTurns(context.Context, string, string) ([]core.Turn, error) {
	return nil, errors.New("full log read")
}

func (r *tailOnlyRepo) RecentTurns(ctx context.Context, userID, sessionID string, limit int) ([]core.Turn, error) {
	r.recentLimit = limit
	return r.Store.RecentTurns(ctx, userID, sessionID, limit)
}

func TestShortTerm_SummaryReadsTail(t *testing.T) {
	ctx := context.Background()
	repo := &tailOnlyRepo{Store: inmem.New()}
	s := NewShortTerm(repo, config.MemoryConfig{ShortMaxTurns: 2})
	s.now = newClock().Now

	for _, c := range []string{"q1", "a1", "q2"} {
		require.NoError(t, s.AppendTurn(ctx, "u", "s", core.RoleUser, c))
	}

	assert.True(t, s.UpdateSummaryIfNeeded(ctx, "u", "s"))
	assert.Equal(t, 2, repo.recentLimit)
	assert.Equal(t, "user: a1\nuser: q2", s.LoadSummary(ctx, "u", "s"))
}

func TestSummarize_KeepsTail(t *testing.T) {
	got := Summarize([]core.Turn{{Role: "user", Content: strings.Repeat("x", 600) + "END"}})
	assert.Len(t, got, summaryMaxChars)
	assert.True(t, strings.HasSuffix(got, "END"))
}

func TestShortTerm_SweepAndSessions(t *testing.T) {
	ctx := context.Background()
	c := newClock()
	s := newShort(config.MemoryConfig{ShortRetentionDays: 1}, c)

	require.NoError(t, s.AppendTurn(ctx, "u1", "s", core.RoleUser, "old"))
	require.NoError(t, s.AppendTurn(ctx, "u2", "s", core.RoleUser, "old"))
	c.t = c.t.Add(72 * time.Hour)
	require.NoError(t, s.AppendTurn(ctx, "u3", "s", core.RoleUser, "new"))

	n, err := s.Sweep(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	sessions, err := s.Sessions(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, sessions)
}

func TestLongTerm_IdempotentIngest(t *testing.T) {
	ctx := context.Background()
	l := newLong(config.MemoryConfig{}, keywordEmbedder(), newClock())

	first := l.IngestFact(ctx, "u", "alpha fact", nil)
	second := l.IngestFact(ctx, "u", "alpha fact", map[string]string{"k": "v"})

	assert.True(t, first.Stored)
	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, FactID("alpha fact"), first.ID)

	facts, err := l.Export(ctx, "u")
	require.NoError(t, err)
	require.Len(t, facts, 1)
	assert.Equal(t, "v", facts[0].Metadata["k"])
	assert.True(t, facts[0].EmbeddingPresent)
	assert.Equal(t, 2, facts[0].EmbeddingDim)
	assert.Equal(t, time.Date(2024, 1, 1, 0, 0, 1, 0, time.UTC), facts[0].CreatedAt.UTC())
}

func TestLongTerm_CapacityEviction(t *testing.T) {
	ctx := context.Background()
	l := newLong(config.MemoryConfig{LongMaxFacts: 2}, keywordEmbedder(), newClock())

	evicted := 0
	for _, text := range []string{"fact one", "fact two", "fact three"} {
		evicted += l.IngestFact(ctx, "u2", text, nil).Evicted
	}
	assert.Equal(t, 1, evicted)

	facts, err := l.Export(ctx, "u2")
	require.NoError(t, err)
	require.Len(t, facts, 2)
	assert.Equal(t, "fact two", facts[0].Text)
	assert.Equal(t, "fact three", facts[1].Text)
}

func TestLongTerm_RetrieveRanksBySimilarity(t *testing.T) {
	ctx := context.Background()
	l := newLong(config.MemoryConfig{}, keywordEmbedder(), newClock())

	l.IngestFact(ctx, "u", "beta beta", nil)
	l.IngestFact(ctx, "u", "alpha alpha", nil)
	l.IngestFact(ctx, "u", "alpha beta", nil)

	res := l.RetrieveFacts(ctx, "u", "alpha", 2)
	assert.False(t, res.Degraded)
	require.Len(t, res.Facts, 2)
	assert.Equal(t, "alpha alpha", res.Facts[0].Text)
	assert.Equal(t, "alpha beta", res.Facts[1].Text)

	assert.Empty(t, l.RetrieveFacts(ctx, "nobody", "alpha", 2).Facts)
}

func TestLongTerm_RetrieveDegradesToRecency(t *testing.T) {
	ctx := context.Background()
	c := newClock()
	repo := inmem.New()

	writer := NewLongTerm(repo, failingEmbedder(), config.MemoryConfig{})
	writer.now = c.Now
	for _, text := range []string{"first", "second", "third"} {
		assert.True(t, writer.IngestFact(ctx, "u", text, nil).Stored)
	}

	res := writer.RetrieveFacts(ctx, "u", "anything", 2)
	assert.True(t, res.Degraded)
	require.Len(t, res.Facts, 2)
	assert.Equal(t, "third", res.Facts[0].Text)
	assert.Equal(t, "second", res.Facts[1].Text)
}

func TestLongTerm_BackfillsMissingEmbeddings(t *testing.T) {
	ctx := context.Background()
	c := newClock()
	repo := inmem.New()

	offline := NewLongTerm(repo, failingEmbedder(), config.MemoryConfig{})
	offline.now = c.Now
	offline.IngestFact(ctx, "u", "alpha", nil)

	online := NewLongTerm(repo, keywordEmbedder(), config.MemoryConfig{})
	online.now = c.Now
	res := online.RetrieveFacts(ctx, "u", "alpha", 1)
	require.Len(t, res.Facts, 1)

	facts, err := online.Export(ctx, "u")
	require.NoError(t, err)
	assert.True(t, facts[0].EmbeddingPresent)
}

func TestLongTerm_RetentionAndSweep(t *testing.T) {
	ctx := context.Background()
	c := newClock()
	l := newLong(config.MemoryConfig{LongRetentionDays: 1}, keywordEmbedder(), c)

	l.IngestFact(ctx, "u", "old alpha", nil)
	l.IngestFact(ctx, "v", "old beta", nil)
	c.t = c.t.Add(48 * time.Hour)
	l.IngestFact(ctx, "u", "new alpha", nil)

	res := l.RetrieveFacts(ctx, "u", "alpha", 5)
	assert.Equal(t, 1, res.Pruned)
	require.Len(t, res.Facts, 1)
	assert.Equal(t, "new alpha", res.Facts[0].Text)

	n, err := l.Sweep(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	users, err := l.Users(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, users)
}

func TestLongTerm_ImportAndClear(t *testing.T) {
	ctx := context.Background()
	l := newLong(config.MemoryConfig{LongMaxFacts: 2}, keywordEmbedder(), newClock())

	res := l.Import(ctx, "u", []string{"a", " ", "b", "c"})
	assert.Equal(t, 3, res.Imported)
	assert.Equal(t, 1, res.Evicted)

	facts, err := l.Export(ctx, "u")
	require.NoError(t, err)
	require.Len(t, facts, 2)
	assert.Equal(t, "import", facts[0].Metadata["source"])

	require.NoError(t, l.Clear(ctx, "u"))
	facts, err = l.Export(ctx, "u")
	require.NoError(t, err)
	assert.Empty(t, facts)
}

func TestCosine(t *testing.T) {
	assert.InDelta(t, 1.0, Cosine([]float32{1, 2}, []float32{2, 4}), 1e-9)
	assert.InDelta(t, 0.0, Cosine([]float32{1, 0}, []float32{0, 1}), 1e-9)
	assert.Zero(t, Cosine([]float32{0, 0}, []float32{1, 1}))
	assert.Zero(t, Cosine([]float32{1}, []float32{1, 1}))
	assert.Zero(t, Cosine(nil, nil))
}
