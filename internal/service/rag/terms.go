package rag

import (
	"strings"
	"unicode"
)

const termTrim = ".,:;!?()\"'"

var stopwords = map[string]struct{}{
	"the": {}, "and": {}, "for": {}, "are": {}, "but": {}, "not": {}, "you": {},
	"all": {}, "any": {}, "can": {}, "had": {}, "her": {}, "was": {}, "one": {},
	"our": {}, "out": {}, "has": {}, "his": {}, "how": {}, "its": {}, "may": {},
	"who": {}, "did": {}, "does": {}, "this": {}, "that": {}, "with": {}, "from": {},
	"what": {}, "when": {}, "where": {}, "which": {}, "why": {}, "will": {}, "would": {},
	"should": {}, "could": {}, "there": {}, "their": {}, "them": {}, "they": {},
	"about": {}, "into": {}, "have": {}, "been": {}, "being": {}, "were": {},
	"your": {}, "some": {}, "than": {}, "then": {}, "these": {}, "those": {},
	"also": {}, "just": {}, "like": {}, "please": {}, "tell": {}, "explain": {},
}

// Terms splits q on whitespace, trims punctuation and drops short words and
// stopwords. The result is lowercased, de-duplicated and in question order.
func Terms(q string) []string {
	fields := strings.Fields(q)
	out := make([]string, 0, len(fields))
	seen := make(map[string]struct{}, len(fields))

	for _, f := range fields {
		t := strings.ToLower(strings.Trim(f, termTrim))
		if len([]rune(t)) <= 2 {
			continue
		}
		if _, stop := stopwords[t]; stop {
			continue
		}
		if _, dup := seen[t]; dup {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, t)
	}
	return out
}

// alnum keeps lowercased letters and digits only.
func alnum(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range strings.ToLower(s) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
		}
	}
	return b.String()
}

func bigrams(s string) map[string]struct{} {
	r := []rune(s)
	out := make(map[string]struct{}, len(r))
	for i := 0; i+1 < len(r); i++ {
		out[string(r[i:i+2])] = struct{}{}
	}
	return out
}
