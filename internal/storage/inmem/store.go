// Package inmem keeps conversation memory in process. State is lost on restart.
package inmem

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/sandevgo/riskmon/internal/core"
)

type sessionKey struct {
	user    string
	session string
}

type storedFact struct {
	fact core.Fact
	seq  uint64
}

// Store implements core.TurnRepository and core.FactRepository.
type Store struct {
	mu        sync.RWMutex
	turns     map[sessionKey][]core.Turn
	summaries map[sessionKey]core.Summary
	facts     map[string]map[string]storedFact
	nextTurn  int64
	nextSeq   uint64
}

func New() *Store {
	return &Store{
		turns:     make(map[sessionKey][]core.Turn),
		summaries: make(map[sessionKey]core.Summary),
		facts:     make(map[string]map[string]storedFact),
	}
}

func (s *Store) AppendTurn(_ context.Context, turn core.Turn) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextTurn++
	turn.ID = s.nextTurn
	k := sessionKey{turn.UserID, turn.SessionID}
	s.turns[k] = append(s.turns[k], turn)
	return nil
}

func (s *Store) ListTurns(_ context.Context, userID, sessionID string) ([]core.Turn, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	src := s.turns[sessionKey{userID, sessionID}]
	out := make([]core.Turn, len(src))
	copy(out, src)
	return out, nil
}

func (s *Store) RecentTurns(_ context.Context, userID, sessionID string, limit int) ([]core.Turn, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	src := s.turns[sessionKey{userID, sessionID}]
	if limit < len(src) {
		src = src[len(src)-limit:]
	}
	out := make([]core.Turn, len(src))
	copy(out, src)
	return out, nil
}

func (s *Store) CountTurns(_ context.Context, userID, sessionID string) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.turns[sessionKey{userID, sessionID}]), nil
}

func (s *Store) DeleteTurnsBefore(_ context.Context, userID, sessionID string, cutoff time.Time) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	k := sessionKey{userID, sessionID}
	kept, removed := filterTurns(s.turns[k], cutoff)
	s.setTurns(k, kept)
	return removed, nil
}

func (s *Store) TrimTurns(_ context.Context, userID, sessionID string, keep int) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	k := sessionKey{userID, sessionID}
	src := s.turns[k]
	if keep < 0 || len(src) <= keep {
		return 0, nil
	}
	removed := len(src) - keep
	kept := make([]core.Turn, keep)
	copy(kept, src[removed:])
	s.setTurns(k, kept)
	return removed, nil
}

func (s *Store) GetSummary(_ context.Context, userID, sessionID string) (core.Summary, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sum, ok := s.summaries[sessionKey{userID, sessionID}]
	if !ok {
		return core.Summary{UserID: userID, SessionID: sessionID}, false, nil
	}
	return sum, true, nil
}

func (s *Store) UpsertSummary(_ context.Context, summary core.Summary) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.summaries[sessionKey{summary.UserID, summary.SessionID}] = summary
	return nil
}

func (s *Store) ClearSession(_ context.Context, userID, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	k := sessionKey{userID, sessionID}
	delete(s.turns, k)
	delete(s.summaries, k)
	return nil
}

func (s *Store) CountSessions(_ context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.turns), nil
}

func (s *Store) SweepTurns(_ context.Context, cutoff time.Time) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	total := 0
	for k, turns := range s.turns {
		kept, removed := filterTurns(turns, cutoff)
		s.setTurns(k, kept)
		total += removed
	}
	return total, nil
}

// setTurns drops empty sessions so CountSessions stays accurate. Caller holds the lock.
func (s *Store) setTurns(k sessionKey, turns []core.Turn) {
	if len(turns) == 0 {
		delete(s.turns, k)
		return
	}
	s.turns[k] = turns
}

func filterTurns(turns []core.Turn, cutoff time.Time) ([]core.Turn, int) {
	kept := make([]core.Turn, 0, len(turns))
	for _, t := range turns {
		if !t.Timestamp.Before(cutoff) {
			kept = append(kept, t)
		}
	}
	return kept, len(turns) - len(kept)
}

func (s *Store) PutFact(_ context.Context, userID string, fact core.Fact) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	facts, ok := s.facts[userID]
	if !ok {
		facts = make(map[string]storedFact)
		s.facts[userID] = facts
	}

	if prev, exists := facts[fact.ID]; exists {
		fact.CreatedAt = prev.fact.CreatedAt
		facts[fact.ID] = storedFact{fact: cloneFact(fact), seq: prev.seq}
		return false, nil
	}

	s.nextSeq++
	facts[fact.ID] = storedFact{fact: cloneFact(fact), seq: s.nextSeq}
	return true, nil
}

func (s *Store) ListFacts(_ context.Context, userID string) ([]core.Fact, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stored := make([]storedFact, 0, len(s.facts[userID]))
	for _, f := range s.facts[userID] {
		stored = append(stored, f)
	}
	sort.Slice(stored, func(i, j int) bool {
		a, b := stored[i], stored[j]
		if !a.fact.CreatedAt.Equal(b.fact.CreatedAt) {
			return a.fact.CreatedAt.Before(b.fact.CreatedAt)
		}
		return a.seq < b.seq
	})

	out := make([]core.Fact, len(stored))
	for i, f := range stored {
		out[i] = cloneFact(f.fact)
	}
	return out, nil
}

func (s *Store) DeleteFacts(_ context.Context, userID string, ids []string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	facts := s.facts[userID]
	n := 0
	for _, id := range ids {
		if _, ok := facts[id]; ok {
			delete(facts, id)
			n++
		}
	}
	s.dropEmptyUser(userID)
	return n, nil
}

func (s *Store) DeleteFactsBefore(_ context.Context, userID string, cutoff time.Time) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	n := s.deleteBefore(userID, cutoff)
	s.dropEmptyUser(userID)
	return n, nil
}

func (s *Store) ClearFacts(_ context.Context, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.facts, userID)
	return nil
}

func (s *Store) CountUsers(_ context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.facts), nil
}

func (s *Store) SweepFacts(_ context.Context, cutoff time.Time) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	total := 0
	for userID := range s.facts {
		total += s.deleteBefore(userID, cutoff)
		s.dropEmptyUser(userID)
	}
	return total, nil
}

func (s *Store) deleteBefore(userID string, cutoff time.Time) int {
	n := 0
	for id, f := range s.facts[userID] {
		if f.fact.CreatedAt.Before(cutoff) {
			delete(s.facts[userID], id)
			n++
		}
	}
	return n
}

func (s *Store) dropEmptyUser(userID string) {
	if facts, ok := s.facts[userID]; ok && len(facts) == 0 {
		delete(s.facts, userID)
	}
}

func cloneFact(f core.Fact) core.Fact {
	if f.Metadata != nil {
		m := make(map[string]string, len(f.Metadata))
		for k, v := range f.Metadata {
			m[k] = v
		}
		f.Metadata = m
	}
	if f.Embedding != nil {
		f.Embedding = append([]float32(nil), f.Embedding...)
	}
	return f
}
