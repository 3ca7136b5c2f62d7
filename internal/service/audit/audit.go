// Package audit builds per-request audit rows and persists them off the
// request path.
package audit

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"time"

	"github.com/sandevgo/riskmon/internal/core"
)

// Hash returns the hex sha256 of s.
func Hash(s string) string {
	sum := sha256.Sum256([]byte(s))
	return hex.EncodeToString(sum[:])
}

// Flagged reports whether text contains any of the lowercased deny terms.
func Flagged(text string, denyTerms []string) bool {
	if len(denyTerms) == 0 {
		return false
	}
	lower := strings.ToLower(text)
	for _, t := range denyTerms {
		if t != "" && strings.Contains(lower, t) {
			return true
		}
	}
	return false
}

type Entry struct {
	RequestID  string
	UserID     string
	Endpoint   string
	Prompt     string
	Response   string
	Generation core.Generation
	Started    time.Time
	DenyTerms  []string
}

// NewRecord fills hashes, latency and the compliance flag from e.
func NewRecord(e Entry, now time.Time) core.AuditRecord {
	return core.AuditRecord{
		RequestID:        e.RequestID,
		Endpoint:         e.Endpoint,
		UserID:           e.UserID,
		CreatedAt:        now.UTC(),
		TokensPrompt:     e.Generation.TokensPrompt,
		TokensCompletion: e.Generation.TokensCompletion,
		CostUSD:          roundCost(e.Generation.CostUSD),
		LatencyMS:        now.Sub(e.Started).Milliseconds(),
		ComplianceFlag:   Flagged(e.Prompt, e.DenyTerms),
		PromptHash:       Hash(e.Prompt),
		ResponseHash:     Hash(e.Response),
	}
}

func roundCost(v float64) float64 {
	const scale = 1e6
	return float64(int64(v*scale+0.5)) / scale
}
