package rag

import (
	"sync"
	"time"
)

// corpusCache holds the last successful corpus load for ttl. Callers get
// their own slice; documents are never mutated after load.
type corpusCache struct {
	mu       sync.RWMutex
	ttl      time.Duration
	docs     []Document
	loadedAt time.Time
	valid    bool
	now      func() time.Time
}

func newCorpusCache(ttl time.Duration) *corpusCache {
	return &corpusCache{ttl: ttl, now: time.Now}
}

func (c *corpusCache) Get() ([]Document, bool) {
	if c.ttl <= 0 {
		return nil, false
	}

	c.mu.RLock()
	defer c.mu.RUnlock()

	if !c.valid || c.now().Sub(c.loadedAt) >= c.ttl {
		return nil, false
	}

	out := make([]Document, len(c.docs))
	copy(out, c.docs)
	return out, true
}

func (c *corpusCache) Update(docs []Document) {
	if c.ttl <= 0 {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	c.docs = make([]Document, len(docs))
	copy(c.docs, docs)
	c.loadedAt = c.now()
	c.valid = true
}

func (c *corpusCache) Invalidate() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.valid = false
	c.docs = nil
}
