// Package markdown renders post bodies to HTML and extracts link
// destinations for asset verification.
package markdown

import (
	"bytes"
	"fmt"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	gmparser "github.com/yuin/goldmark/parser"
	ghtml "github.com/yuin/goldmark/renderer/html"
)

// Converter wraps a configured goldmark instance.
//
// Blog content routinely embeds raw HTML (tables, asciinema players, embeds),
// so unsafe rendering is enabled. Inputs are trusted repository content, not
// user submissions.
type Converter struct {
	md goldmark.Markdown
}

// NewConverter builds the canonical converter used for all post bodies.
func NewConverter() *Converter {
	return &Converter{
		md: goldmark.New(
			goldmark.WithExtensions(
				extension.GFM,
				extension.Footnote,
				extension.Typographer,
			),
			goldmark.WithParserOptions(
				gmparser.WithAutoHeadingID(),
			),
			goldmark.WithRendererOptions(
				ghtml.WithUnsafe(),
			),
		),
	}
}

// Render converts a Markdown body (front matter already removed) to HTML.
func (c *Converter) Render(body []byte) ([]byte, error) {
	var buf bytes.Buffer
	if err := c.md.Convert(body, &buf); err != nil {
		return nil, fmt.Errorf("render markdown: %w", err)
	}
	return buf.Bytes(), nil
}
