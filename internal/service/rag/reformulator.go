package rag

import (
	"strings"

	"github.com/sandevgo/riskmon/internal/config"
)

var fillerPrefixes = []string{
	"can you tell me", "could you tell me", "please explain", "tell me about",
	"what is", "what are", "what's", "how do we", "how do i", "how does", "how to",
	"explain", "describe", "define",
}

var synonyms = map[string]string{
	"gdpr":       "general data protection regulation",
	"pii":        "personal data",
	"ssn":        "social security number",
	"hipaa":      "health information privacy",
	"retention":  "storage period",
	"policy":     "guideline",
	"regulation": "law",
	"risk":       "exposure",
	"delete":     "erase",
	"breach":     "incident",
	"consent":    "permission",
	"audit":      "review",
}

// Reformulator expands a question into lexical variants. Output depends only
// on the question and the flags.
type Reformulator struct {
	multi bool
	count int
	hyde  bool
}

func NewReformulator(cfg config.RAGConfig) *Reformulator {
	return &Reformulator{
		multi: cfg.MultiQueryEnabled,
		count: cfg.MultiQueryCount,
		hyde:  cfg.HydeEnabled,
	}
}

// Variants returns the original question first, then at least one rewrite.
// With multi-query enabled it returns up to max(count, 2) variants, plus one
// hypothetical document when HyDE is on.
func (r *Reformulator) Variants(question string) []string {
	question = strings.TrimSpace(question)
	terms := Terms(question)
	keywords := strings.Join(terms, " ")

	limit := 2
	if r.multi && r.count > limit {
		limit = r.count
	}

	out := make([]string, 0, limit+1)
	seen := make(map[string]struct{}, limit+1)
	add := func(v string) {
		v = strings.TrimSpace(v)
		if v == "" || len(out) >= limit {
			return
		}
		key := strings.ToLower(v)
		if _, dup := seen[key]; dup {
			return
		}
		seen[key] = struct{}{}
		out = append(out, v)
	}

	add(question)
	add(keywords)

	if r.multi {
		add(stripFiller(question))
		if keywords != "" {
			add("what is " + keywords)
			add(keywords + " requirements")
		}
		add(expandSynonyms(terms))
	}

	// Short questions may collapse to a single variant.
	if len(out) < 2 {
		base := keywords
		if base == "" {
			base = question
		}
		add("what is " + base)
		add(base + " overview")
	}

	if r.hyde && len(terms) > 0 {
		out = append(out, hypothetical(terms))
	}
	return out
}

func stripFiller(q string) string {
	lower := strings.ToLower(q)
	for _, p := range fillerPrefixes {
		if strings.HasPrefix(lower, p+" ") {
			return strings.Trim(q[len(p):], " "+termTrim)
		}
	}
	return strings.Trim(q, termTrim)
}

func expandSynonyms(terms []string) string {
	var (
		parts    []string
		replaced bool
	)
	for _, t := range terms {
		if s, ok := synonyms[t]; ok {
			parts = append(parts, s)
			replaced = true
			continue
		}
		parts = append(parts, t)
	}
	if !replaced {
		return ""
	}
	return strings.Join(parts, " ")
}

// hypothetical builds a short passage that a relevant document might contain.
func hypothetical(terms []string) string {
	salient := terms
	if len(salient) > 6 {
		salient = salient[:6]
	}
	topic := strings.Join(salient, " ")
	return "This document describes " + topic + ". It covers the " + topic +
		" requirements, the controls in place and how compliance with " + salient[0] + " is verified."
}
