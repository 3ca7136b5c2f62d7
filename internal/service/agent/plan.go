package agent

import (
	"encoding/json"
	"strings"
)

// Plan is the structured reply the architect prompt asks for.
type Plan struct {
	Summary           string   `json:"summary"`
	SuggestedSteps    []string `json:"suggested_steps"`
	SuggestedEnvFlags []string `json:"suggested_env_flags"`
	FeatureRequest    string   `json:"feature_request,omitempty"`
}

const summaryLineChars = 240

// ParsePlan decodes the first JSON object in text. When none decodes, the
// first non-empty line becomes the summary.
func ParsePlan(text string) Plan {
	var plan Plan

	for i := strings.IndexByte(text, '{'); i >= 0; {
		dec := json.NewDecoder(strings.NewReader(text[i:]))
		var candidate Plan
		if err := dec.Decode(&candidate); err == nil {
			plan = candidate
			break
		}
		next := strings.IndexByte(text[i+1:], '{')
		if next < 0 {
			break
		}
		i += next + 1
	}

	if strings.TrimSpace(plan.Summary) == "" {
		plan.Summary = firstLine(text)
	}
	plan.SuggestedSteps = compact(plan.SuggestedSteps)
	plan.SuggestedEnvFlags = compact(plan.SuggestedEnvFlags)
	return plan
}

func firstLine(text string) string {
	for _, line := range strings.Split(text, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			if r := []rune(line); len(r) > summaryLineChars {
				return string(r[:summaryLineChars])
			}
			return line
		}
	}
	return ""
}

func compact(items []string) []string {
	out := make([]string, 0, len(items))
	for _, s := range items {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}
