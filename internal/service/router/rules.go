package router

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/sandevgo/riskmon/internal/core"
)

type Rule struct {
	Intent      core.Intent
	KeywordsAny []string
	Priority    int
}

// Table is a normalized rule set: lowercased keywords, priority desc.
type Table struct {
	Rules         []Rule
	DefaultIntent core.Intent
}

func (t *Table) empty() bool {
	return t == nil || len(t.Rules) == 0
}

type rawTable struct {
	Rules         []rawRule `json:"rules" yaml:"rules"`
	DefaultIntent string    `json:"default_intent" yaml:"default_intent"`
}

type rawRule struct {
	Intent      string   `json:"intent" yaml:"intent"`
	KeywordsAny keywords `json:"keywords_any" yaml:"keywords_any"`
	Priority    any      `json:"priority" yaml:"priority"`
}

// keywords accepts either a single string or a list.
type keywords []string

func (k *keywords) UnmarshalJSON(data []byte) error {
	var one string
	if err := json.Unmarshal(data, &one); err == nil {
		*k = keywords{one}
		return nil
	}
	var many []string
	if err := json.Unmarshal(data, &many); err != nil {
		return err
	}
	*k = many
	return nil
}

func (k *keywords) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind == yaml.ScalarNode {
		*k = keywords{node.Value}
		return nil
	}
	var many []string
	if err := node.Decode(&many); err != nil {
		return err
	}
	*k = many
	return nil
}

// ParseJSON parses an inline rule table.
func ParseJSON(data []byte) (*Table, error) {
	var raw rawTable
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parse rules json: %w", err)
	}
	return raw.normalize(), nil
}

func ParseYAML(data []byte) (*Table, error) {
	var raw rawTable
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parse rules yaml: %w", err)
	}
	return raw.normalize(), nil
}

// LoadFile reads a .json, .yaml or .yml rule file.
func LoadFile(path string) (*Table, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read rules: %w", err)
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return ParseYAML(data)
	default:
		return ParseJSON(data)
	}
}

func (r rawTable) normalize() *Table {
	t := &Table{DefaultIntent: core.IntentQA}
	if d := core.Intent(strings.ToLower(strings.TrimSpace(r.DefaultIntent))); d.Valid() {
		t.DefaultIntent = d
	}

	for _, rr := range r.Rules {
		intent := core.IntentQA
		if rr.Intent != "" {
			intent = core.Intent(strings.ToLower(strings.TrimSpace(rr.Intent)))
		}
		if !intent.Valid() {
			continue
		}

		kws := make([]string, 0, len(rr.KeywordsAny))
		for _, kw := range rr.KeywordsAny {
			kw = strings.ToLower(strings.TrimSpace(kw))
			if kw != "" {
				kws = append(kws, kw)
			}
		}

		t.Rules = append(t.Rules, Rule{
			Intent:      intent,
			KeywordsAny: kws,
			Priority:    coercePriority(rr.Priority),
		})
	}

	sort.SliceStable(t.Rules, func(i, j int) bool {
		return t.Rules[i].Priority > t.Rules[j].Priority
	})
	return t
}

func coercePriority(v any) int {
	switch p := v.(type) {
	case int:
		return p
	case float64:
		return int(p)
	case string:
		n, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil {
			return 0
		}
		return n
	default:
		return 0
	}
}

// match returns the intent of the first rule whose keywords hit the question.
func (t *Table) match(q string, tokens map[string]struct{}) (core.Intent, bool) {
	if t.empty() {
		return "", false
	}
	for _, r := range t.Rules {
		for _, kw := range r.KeywordsAny {
			if hasKeyword(q, tokens, kw) {
				return r.Intent, true
			}
		}
	}
	return "", false
}

func hasKeyword(q string, tokens map[string]struct{}, kw string) bool {
	if strings.ContainsAny(kw, " \t") {
		return strings.Contains(q, kw)
	}
	_, ok := tokens[kw]
	return ok
}
