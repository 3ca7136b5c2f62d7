package conv

import (
	"strings"

	"github.com/gomarkdown/markdown"
	"github.com/gomarkdown/markdown/html"
	"github.com/gomarkdown/markdown/parser"
	"github.com/inbucket/html2text"
	"github.com/microcosm-cc/bluemonday"
)

var (
	extensions = parser.CommonExtensions | parser.NoEmptyLineBeforeBlock
	htmlFlags  = html.CommonFlags
	textPolicy = bluemonday.UGCPolicy()
)

// MarkdownToText renders markdown and flattens the result into a single
// line of plain text suitable for citation snippets.
func MarkdownToText(md []byte) string {
	if len(md) == 0 {
		return ""
	}

	p := parser.NewWithExtensions(extensions)
	renderer := html.NewRenderer(html.RendererOptions{Flags: htmlFlags})
	unsafeHTML := markdown.Render(p.Parse(md), renderer)

	sanitized := textPolicy.SanitizeBytes(unsafeHTML)

	text, err := html2text.FromString(string(sanitized), html2text.Options{
		OmitLinks: true,
	})
	if err != nil {
		// Sanitized HTML without tags is still readable.
		text = bluemonday.StrictPolicy().Sanitize(string(sanitized))
	}

	return Flatten(text)
}

// Flatten collapses every run of whitespace into one space.
func Flatten(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
