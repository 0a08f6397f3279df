// Package markdown converts markdown page bodies to HTML with goldmark.
package markdown

import (
	"bytes"
	"fmt"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/renderer"
	gmhtml "github.com/yuin/goldmark/renderer/html"
)

// Renderer turns markdown into HTML. Implementations must be pure.
type Renderer interface {
	Render(src string) (string, error)
}

// RenderFunc adapts a function to Renderer.
type RenderFunc func(src string) (string, error)

func (f RenderFunc) Render(src string) (string, error) { return f(src) }

// Options toggles goldmark features.
type Options struct {
	// HardWraps renders soft line breaks as <br>.
	HardWraps bool
	// Typographer converts quotes and dashes to their typographic forms.
	Typographer bool
}

// DefaultOptions matches the site conventions: GFM with smart punctuation.
func DefaultOptions() Options {
	return Options{Typographer: true}
}

// Goldmark renders GFM markdown. Raw HTML is passed through so tag output
// embedded in a page survives rendering.
type Goldmark struct {
	md goldmark.Markdown
}

// New creates a goldmark-backed renderer.
func New(opts Options) *Goldmark {
	exts := []goldmark.Extender{extension.GFM}
	if opts.Typographer {
		exts = append(exts, extension.Typographer)
	}
	rendererOpts := []renderer.Option{gmhtml.WithUnsafe()}
	if opts.HardWraps {
		rendererOpts = append(rendererOpts, gmhtml.WithHardWraps())
	}
	return &Goldmark{md: goldmark.New(
		goldmark.WithExtensions(exts...),
		goldmark.WithParserOptions(parser.WithAutoHeadingID()),
		goldmark.WithRendererOptions(rendererOpts...),
	)}
}

// Render converts src to HTML.
func (g *Goldmark) Render(src string) (string, error) {
	var buf bytes.Buffer
	if err := g.md.Convert([]byte(src), &buf); err != nil {
		return "", fmt.Errorf("markdown: %w", err)
	}
	return buf.String(), nil
}
