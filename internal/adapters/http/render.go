package http

import (
	"bytes"
	"html"

	"github.com/yuin/goldmark"
)

// renderMarkdown converts interpretation text to HTML. Raw HTML in the source is
// omitted by goldmark's default renderer.
func renderMarkdown(md string) string {
	var buf bytes.Buffer
	if err := goldmark.Convert([]byte(md), &buf); err != nil {
		return "<p>" + html.EscapeString(md) + "</p>"
	}
	return buf.String()
}
