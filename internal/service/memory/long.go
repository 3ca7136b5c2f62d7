package memory

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/sandevgo/riskmon/internal/config"
	"github.com/sandevgo/riskmon/internal/core"
	"github.com/sandevgo/riskmon/internal/providers/embedding"
	"github.com/sandevgo/riskmon/pkg/log"
)

type LongTerm struct {
	repo     core.FactRepository
	embedder core.Embedder
	cfg      config.MemoryConfig
	now      func() time.Time
}

func NewLongTerm(repo core.FactRepository, embedder core.Embedder, cfg config.MemoryConfig) *LongTerm {
	return &LongTerm{
		repo:     repo,
		embedder: embedder,
		cfg:      cfg,
		now:      time.Now,
	}
}

// IngestFact upserts text under its content hash and evicts the oldest facts
// beyond the configured capacity. A failed embedding stores the fact without
// a vector.
func (l *LongTerm) IngestFact(ctx context.Context, userID, text string, metadata map[string]string) core.IngestResult {
	logger := log.FromCtx(ctx)
	res := core.IngestResult{ID: FactID(text)}

	fact := core.Fact{
		ID:        res.ID,
		Text:      text,
		Metadata:  metadata,
		CreatedAt: l.now().UTC(),
	}
	if fact.Metadata == nil {
		fact.Metadata = map[string]string{}
	}

	if out := embedding.Try(ctx, l.embedder, []string{text}); out.IsOk() {
		fact.Embedding = out.Value[0]
	} else {
		logger.Warn().Err(out.Reason).Msg("fact embedding failed")
	}

	if _, err := l.repo.PutFact(ctx, userID, fact); err != nil {
		logger.Warn().Err(err).Msg("fact write failed")
		return res
	}
	res.Stored = true

	if limit := l.cfg.LongMaxFacts; limit > 0 {
		n, err := l.evict(ctx, userID, limit)
		if err != nil {
			logger.Warn().Err(err).Msg("fact eviction failed")
		}
		res.Evicted = n
	}
	return res
}

func (l *LongTerm) evict(ctx context.Context, userID string, limit int) (int, error) {
	facts, err := l.repo.ListFacts(ctx, userID)
	if err != nil {
		return 0, err
	}
	excess := len(facts) - limit
	if excess <= 0 {
		return 0, nil
	}

	ids := make([]string, excess)
	for i := range excess {
		ids[i] = facts[i].ID
	}
	return l.repo.DeleteFacts(ctx, userID, ids)
}

// RetrieveFacts ranks the user's facts by cosine similarity to query. When
// the query cannot be embedded it returns the most recent facts instead and
// marks the result degraded.
func (l *LongTerm) RetrieveFacts(ctx context.Context, userID, query string, topK int) core.FactsResult {
	logger := log.FromCtx(ctx)
	var res core.FactsResult

	if topK <= 0 {
		topK = l.cfg.LongTopK
	}

	if days := l.cfg.LongRetentionDays; days > 0 {
		n, err := l.repo.DeleteFactsBefore(ctx, userID, l.now().Add(-time.Duration(days)*24*time.Hour))
		if err != nil {
			logger.Warn().Err(err).Msg("long memory retention failed")
		}
		res.Pruned = n
	}

	facts, err := l.repo.ListFacts(ctx, userID)
	if err != nil {
		logger.Warn().Err(err).Msg("long memory read failed")
		return res
	}
	if len(facts) == 0 {
		return res
	}

	q := embedding.Try(ctx, l.embedder, []string{query})
	if !q.IsOk() {
		logger.Warn().Err(q.Reason).Msg("query embedding failed, falling back to recency")
		res.Facts = mostRecent(facts, topK)
		res.Degraded = true
		return res
	}
	qvec := q.Value[0]

	l.backfill(ctx, userID, facts)

	type scored struct {
		fact  core.Fact
		score float64
	}
	ranked := make([]scored, len(facts))
	for i, f := range facts {
		ranked[i] = scored{fact: f, score: Cosine(qvec, f.Embedding)}
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].score > ranked[j].score
	})

	if topK > 0 && len(ranked) > topK {
		ranked = ranked[:topK]
	}
	res.Facts = make([]core.Fact, len(ranked))
	for i, r := range ranked {
		res.Facts[i] = r.fact
	}
	return res
}

// backfill embeds facts stored without a vector and writes the vectors back.
// Facts that still have none score zero.
func (l *LongTerm) backfill(ctx context.Context, userID string, facts []core.Fact) {
	var (
		idx   []int
		texts []string
	)
	for i, f := range facts {
		if len(f.Embedding) == 0 {
			idx = append(idx, i)
			texts = append(texts, f.Text)
		}
	}
	if len(texts) == 0 {
		return
	}

	out := embedding.Try(ctx, l.embedder, texts)
	if !out.IsOk() {
		log.FromCtx(ctx).Debug().Err(out.Reason).Int("facts", len(texts)).Msg("fact backfill skipped")
		return
	}

	for n, i := range idx {
		facts[i].Embedding = out.Value[n]
		if _, err := l.repo.PutFact(ctx, userID, facts[i]); err != nil {
			log.FromCtx(ctx).Debug().Err(err).Str("fact_id", facts[i].ID).Msg("fact backfill write failed")
		}
	}
}

// mostRecent returns up to k facts, newest first.
func mostRecent(facts []core.Fact, k int) []core.Fact {
	if k <= 0 || k > len(facts) {
		k = len(facts)
	}
	out := make([]core.Fact, 0, k)
	for i := len(facts) - 1; i >= 0 && len(out) < k; i-- {
		out = append(out, facts[i])
	}
	return out
}

func (l *LongTerm) Clear(ctx context.Context, userID string) error {
	if err := l.repo.ClearFacts(ctx, userID); err != nil {
		return fmt.Errorf("clear facts: %w", err)
	}
	return nil
}

// Export lists the user's facts oldest first without raw vectors.
func (l *LongTerm) Export(ctx context.Context, userID string) ([]core.ExportedFact, error) {
	facts, err := l.repo.ListFacts(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list facts: %w", err)
	}

	out := make([]core.ExportedFact, len(facts))
	for i, f := range facts {
		out[i] = core.ExportedFact{
			ID:               f.ID,
			Text:             f.Text,
			CreatedAt:        f.CreatedAt,
			Metadata:         f.Metadata,
			EmbeddingPresent: len(f.Embedding) > 0,
			EmbeddingDim:     len(f.Embedding),
		}
	}
	return out, nil
}

// Import ingests each non-blank text. Blank entries are skipped.
func (l *LongTerm) Import(ctx context.Context, userID string, texts []string) core.ImportResult {
	var res core.ImportResult
	for _, t := range texts {
		t = strings.TrimSpace(t)
		if t == "" {
			continue
		}
		r := l.IngestFact(ctx, userID, t, map[string]string{"source": "import"})
		if r.Stored {
			res.Imported++
		}
		res.Evicted += r.Evicted
	}
	return res
}

func (l *LongTerm) Users(ctx context.Context) (int, error) {
	return l.repo.CountUsers(ctx)
}

func (l *LongTerm) Sweep(ctx context.Context) (int, error) {
	days := l.cfg.LongRetentionDays
	if days <= 0 {
		return 0, nil
	}
	return l.repo.SweepFacts(ctx, l.now().Add(-time.Duration(days)*24*time.Hour))
}
