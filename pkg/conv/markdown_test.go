package conv

import (
	"strings"
	"testing"
)

func TestMarkdownToText(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		contains []string
		excludes []string
	}{
		{
			name:  "empty input",
			input: "",
		},
		{
			name:     "plain text",
			input:    "Hello world",
			contains: []string{"Hello world"},
		},
		{
			name:     "emphasis markers removed",
			input:    "**bold** and _soft_",
			contains: []string{"bold", "soft"},
			excludes: []string{"**", "<strong>"},
		},
		{
			name:     "heading text kept",
			input:    "# Retention\n\nAudit rows expire.",
			contains: []string{"Retention", "Audit rows expire."},
			excludes: []string{"#"},
		},
		{
			name:     "script tags sanitized",
			input:    "before <script>alert('xss')</script> after",
			contains: []string{"before", "after"},
			excludes: []string{"alert", "<script>"},
		},
		{
			name:     "newlines flattened",
			input:    "line one\n\nline two\n- item",
			contains: []string{"line one", "line two", "item"},
			excludes: []string{"\n"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := MarkdownToText([]byte(tt.input))
			if tt.input == "" && got != "" {
				t.Fatalf("MarkdownToText(%q) = %q, want empty", tt.input, got)
			}
			for _, want := range tt.contains {
				if !strings.Contains(got, want) {
					t.Errorf("MarkdownToText(%q) = %q, missing %q", tt.input, got, want)
				}
			}
			for _, bad := range tt.excludes {
				if strings.Contains(got, bad) {
					t.Errorf("MarkdownToText(%q) = %q, should not contain %q", tt.input, got, bad)
				}
			}
		})
	}
}

func TestFlatten(t *testing.T) {
	if got := Flatten("  a\tb \n\n c  "); got != "a b c" {
		t.Errorf("Flatten = %q", got)
	}
}
