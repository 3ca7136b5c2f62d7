package conversation

import (
	"sync/atomic"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	CounterShortReads     = "memory_short_reads"
	CounterShortWrites    = "memory_short_writes"
	CounterShortPruned    = "memory_short_pruned"
	CounterSummaryUpdated = "summary_updated"
	CounterLongReads      = "memory_long_reads"
	CounterLongWrites     = "memory_long_writes"
	CounterLongPruned     = "memory_long_pruned"
)

var counterNames = []string{
	CounterShortReads, CounterShortWrites, CounterShortPruned, CounterSummaryUpdated,
	CounterLongReads, CounterLongWrites, CounterLongPruned,
}

// Counters holds process lifetime memory totals. Each total is mirrored to
// the app_memory_ops_total Prometheus counter.
type Counters struct {
	totals map[string]*atomic.Int64
	vec    *prometheus.CounterVec
}

// NewCounters registers its collector with reg. A nil reg keeps the
// collector unregistered.
func NewCounters(reg prometheus.Registerer) *Counters {
	c := &Counters{
		totals: make(map[string]*atomic.Int64, len(counterNames)),
		vec: promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Name: "app_memory_ops_total",
			Help: "Conversation memory operations by counter name",
		}, []string{"counter"}),
	}
	for _, name := range counterNames {
		c.totals[name] = new(atomic.Int64)
	}
	return c
}

func (c *Counters) Add(name string, n int) {
	if c == nil || n <= 0 {
		return
	}
	t, ok := c.totals[name]
	if !ok {
		return
	}
	t.Add(int64(n))
	c.vec.WithLabelValues(name).Add(float64(n))
}

func (c *Counters) Get(name string) int64 {
	if c == nil {
		return 0
	}
	if t, ok := c.totals[name]; ok {
		return t.Load()
	}
	return 0
}

func (c *Counters) Snapshot() map[string]int64 {
	out := make(map[string]int64, len(counterNames))
	for _, name := range counterNames {
		out[name] = c.Get(name)
	}
	return out
}
