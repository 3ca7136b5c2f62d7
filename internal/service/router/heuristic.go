package router

import (
	"strings"
	"unicode"

	"github.com/sandevgo/riskmon/internal/core"
)

var (
	piiTerms = []string{
		"pii", "email", "ssn", "social security", "credit card", "card number",
		"iban", "ipv4", "ipv6", "passport", "phone number", "identifier",
	}
	remediationTerms = []string{"redact", "mask", "anonymiz", "remediat"}
	riskTerms        = []string{"risk", "severity", "score", "impact", "hazard", "danger"}
	policyTerms      = []string{"policy", "regulation", "regulatory", "compliance", "gdpr", "hipaa"}
)

// heuristic classifies q (lowercased) by term groups in fixed precedence.
// The second value is false when nothing matched.
func heuristic(q string) (core.Intent, bool) {
	switch {
	case containsAny(q, piiTerms):
		if containsAny(q, remediationTerms) {
			return core.IntentPIIRemediation, true
		}
		return core.IntentPIIDetect, true
	case containsAny(q, riskTerms):
		return core.IntentRiskScore, true
	case containsAny(q, policyTerms):
		return core.IntentPolicyNavigator, true
	default:
		return "", false
	}
}

func containsAny(q string, terms []string) bool {
	for _, t := range terms {
		if strings.Contains(q, t) {
			return true
		}
	}
	return false
}

func tokenize(q string) map[string]struct{} {
	fields := strings.FieldsFunc(q, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '_' && r != '-'
	})
	out := make(map[string]struct{}, len(fields))
	for _, f := range fields {
		out[f] = struct{}{}
	}
	return out
}
