// Package richtext turns stored rich-text and markdown fields into HTML that is safe to
// render inside the console.
package richtext

import (
	"bytes"
	"fmt"

	"github.com/a-h/templ"
	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	goldmarkHTML "github.com/yuin/goldmark/renderer/html"
)

type Kind string

const (
	KindHTML     Kind = "richtext"
	KindMarkdown Kind = "markdown"
)

// Raw HTML in markdown is escaped by goldmark; the bluemonday pass covers stored HTML.
var (
	policy     = bluemonday.UGCPolicy()
	mdRenderer = goldmark.New(
		goldmark.WithExtensions(extension.GFM),
		goldmark.WithRendererOptions(
			goldmarkHTML.WithHardWraps(),
		),
	)
)

// Sanitize strips everything outside the user-generated-content allow list.
func Sanitize(html string) string {
	return policy.Sanitize(html)
}

// Markdown converts markdown to sanitized HTML.
func Markdown(md string) (string, error) {
	var buf bytes.Buffer
	if err := mdRenderer.Convert([]byte(md), &buf); err != nil {
		return "", fmt.Errorf("failed to render markdown: %w", err)
	}
	return policy.Sanitize(buf.String()), nil
}

// Render produces sanitized HTML for a field of the given kind. Unknown kinds are treated
// as HTML.
func Render(kind Kind, value string) (string, error) {
	if kind == KindMarkdown {
		return Markdown(value)
	}
	return Sanitize(value), nil
}

// Component wraps Render for templ; failures render as escaped text.
func Component(kind Kind, value string) templ.Component {
	html, err := Render(kind, value)
	if err != nil {
		return templ.Raw(templ.EscapeString(value))
	}
	return templ.Raw(html)
}
