// Package markdown renders markdown sources included by templates.
package markdown

import (
	"bytes"
	"fmt"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/renderer"
	"github.com/yuin/goldmark/renderer/html"
)

// Options tune the markdown converter.
type Options struct {
	// Unsafe passes raw HTML in the source through to the output.
	Unsafe bool
	// HeadingIDs generates id attributes for headings.
	HeadingIDs bool
}

// Renderer converts markdown to HTML with GitHub flavored extensions.
type Renderer struct {
	md goldmark.Markdown
}

// New creates a renderer.
func New(opts Options) *Renderer {
	var rendererOpts []goldmark.Option
	htmlOpts := []renderer.Option{}
	if opts.Unsafe {
		htmlOpts = append(htmlOpts, html.WithUnsafe())
	}
	parserOpts := []parser.Option{}
	if opts.HeadingIDs {
		parserOpts = append(parserOpts, parser.WithAutoHeadingID())
	}
	rendererOpts = append(rendererOpts,
		goldmark.WithExtensions(extension.GFM),
		goldmark.WithParserOptions(parserOpts...),
		goldmark.WithRendererOptions(htmlOpts...),
	)
	return &Renderer{md: goldmark.New(rendererOpts...)}
}

// Render converts source to HTML.
func (r *Renderer) Render(source []byte) ([]byte, error) {
	var buf bytes.Buffer
	if err := r.md.Convert(source, &buf); err != nil {
		return nil, fmt.Errorf("convert markdown: %w", err)
	}
	return buf.Bytes(), nil
}
