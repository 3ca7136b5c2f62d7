package conversation

import (
	"strings"

	"github.com/sandevgo/riskmon/internal/core"
)

const (
	DefaultSystemPrompt = "You are a compliance assistant for risk and privacy teams. " +
		"Answer concisely and only from the provided context when it is relevant. " +
		"Name the source document when you rely on it."

	maxContextBlocks = 3
	maxGrounding     = 3
	groundingChars   = 400
)

// ContextBlocks renders memory and retrieval context in prompt order:
// conversation, background facts, grounding.
func ContextBlocks(summary string, turns []core.Turn, contextTurns int, facts []core.Fact, citations []core.Citation) []string {
	var blocks []string

	prefix := summary
	if prefix == "" && len(turns) > 0 {
		recent := turns
		if contextTurns > 0 && len(recent) > contextTurns {
			recent = recent[len(recent)-contextTurns:]
		}
		lines := make([]string, len(recent))
		for i, t := range recent {
			lines[i] = t.Role + ": " + t.Content
		}
		prefix = strings.Join(lines, "\n")
	}
	if prefix != "" {
		blocks = append(blocks, "Conversation context:\n"+prefix)
	}

	if len(facts) > 0 {
		lines := make([]string, len(facts))
		for i, f := range facts {
			lines[i] = "- " + f.Text
		}
		blocks = append(blocks, "Relevant background facts:\n"+strings.Join(lines, "\n"))
	}

	var grounding []string
	for i, c := range citations {
		if i == maxGrounding {
			break
		}
		snippet := strings.TrimSpace(strings.ReplaceAll(c.Snippet, "\n", " "))
		if snippet == "" {
			continue
		}
		if r := []rune(snippet); len(r) > groundingChars {
			snippet = string(r[:groundingChars])
		}
		title := c.Source
		if title == "" {
			title = "doc"
		}
		grounding = append(grounding, "- "+title+": "+snippet)
	}
	if len(grounding) > 0 {
		blocks = append(blocks, "Grounding:\n"+strings.Join(grounding, "\n"))
	}
	return blocks
}

// BuildMessages assembles system prompts, context and the question.
func BuildMessages(system []string, blocks []string, question string) []core.Message {
	if len(system) == 0 {
		system = []string{DefaultSystemPrompt}
	}

	msgs := make([]core.Message, 0, len(system)+2)
	for _, s := range system {
		msgs = append(msgs, core.Message{Role: core.RoleSystem, Content: s})
	}
	if len(blocks) > maxContextBlocks {
		blocks = blocks[:maxContextBlocks]
	}
	if len(blocks) > 0 {
		msgs = append(msgs, core.Message{
			Role:    core.RoleSystem,
			Content: "Context (for grounding):\n" + strings.Join(blocks, "\n\n"),
		})
	}
	return append(msgs, core.Message{Role: core.RoleUser, Content: question})
}
