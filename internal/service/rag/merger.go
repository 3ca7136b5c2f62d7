package rag

import (
	"sort"

	"github.com/sandevgo/riskmon/internal/core"
)

type citationKey struct {
	source string
	page   int
	paged  bool
}

func keyOf(c core.Citation) citationKey {
	if c.Page == nil {
		return citationKey{source: c.Source}
	}
	return citationKey{source: c.Source, page: *c.Page, paged: true}
}

// Merge groups candidates from every pass by (source, page), sums their
// scores and returns the top k. Ties keep first-seen order.
func Merge(passes [][]Scored, k int) []core.Citation {
	var (
		order  []citationKey
		merged = make(map[citationKey]*Scored)
	)

	for _, pass := range passes {
		for _, sc := range pass {
			key := keyOf(sc.Citation)
			if m, ok := merged[key]; ok {
				m.Score += sc.Score
				continue
			}
			cp := sc
			merged[key] = &cp
			order = append(order, key)
		}
	}

	ranked := make([]Scored, 0, len(order))
	for _, key := range order {
		ranked = append(ranked, *merged[key])
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Score > ranked[j].Score
	})

	if k > 0 && len(ranked) > k {
		ranked = ranked[:k]
	}

	out := make([]core.Citation, len(ranked))
	for i, r := range ranked {
		out[i] = r.Citation
	}
	return out
}
