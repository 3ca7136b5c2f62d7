package core

import "time"

type Turn struct {
	ID        int64     `json:"-"`
	UserID    string    `json:"user_id"`
	SessionID string    `json:"session_id"`
	Role      string    `json:"role"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
}

type Summary struct {
	UserID    string    `json:"user_id"`
	SessionID string    `json:"session_id"`
	Summary   string    `json:"summary"`
	UpdatedAt time.Time `json:"updated_at"`
}

type Fact struct {
	ID        string            `json:"id"`
	Text      string            `json:"text"`
	Metadata  map[string]string `json:"metadata"`
	Embedding []float32         `json:"-"`
	CreatedAt time.Time         `json:"created_at"`
}

// TurnsResult carries surviving turns plus how many rows were pruned on the way.
type TurnsResult struct {
	Turns  []Turn
	Pruned int
}

type IngestResult struct {
	ID      string
	Stored  bool
	Evicted int
}

type FactsResult struct {
	Facts  []Fact
	Pruned int
	// Degraded is set when similarity ranking was replaced by recency.
	Degraded bool
}

type ImportResult struct {
	Imported int
	Evicted  int
}

// ExportedFact is the portable view of a fact, without the raw vector.
type ExportedFact struct {
	ID               string            `json:"id"`
	Text             string            `json:"text"`
	CreatedAt        time.Time         `json:"created_at"`
	Metadata         map[string]string `json:"metadata"`
	EmbeddingPresent bool              `json:"embedding_present"`
	EmbeddingDim     int               `json:"embedding_dim"`
}
