package markdown

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/renderer"
	"github.com/yuin/goldmark/renderer/html"
)

// ErrRenderFailed wraps any goldmark conversion failure.
var ErrRenderFailed = errors.New("render markdown")

// Options tune the markdown renderer.
type Options struct {
	// UnsafeHTML passes raw HTML in the source through to the output.
	UnsafeHTML bool
	HardWraps  bool
}

// Renderer converts markdown bodies to HTML.
type Renderer struct {
	md goldmark.Markdown
}

// NewRenderer returns a GitHub flavoured renderer with generated heading ids.
func NewRenderer(opts Options) *Renderer {
	var htmlOpts []renderer.Option
	if opts.UnsafeHTML {
		htmlOpts = append(htmlOpts, html.WithUnsafe())
	}
	if opts.HardWraps {
		htmlOpts = append(htmlOpts, html.WithHardWraps())
	}
	md := goldmark.New(
		goldmark.WithExtensions(extension.GFM, extension.Footnote),
		goldmark.WithParserOptions(parser.WithAutoHeadingID()),
		goldmark.WithRendererOptions(htmlOpts...),
	)
	return &Renderer{md: md}
}

// Render converts body to HTML.
func (r *Renderer) Render(body []byte) (string, error) {
	var buf bytes.Buffer
	if err := r.md.Convert(body, &buf); err != nil {
		return "", fmt.Errorf("%w: %w", ErrRenderFailed, err)
	}
	return buf.String(), nil
}
