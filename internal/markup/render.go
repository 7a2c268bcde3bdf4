// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package markup

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"go.uber.org/zap"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// MathRenderer turns a TeX expression into display text.
type MathRenderer interface {
	Render(expr string, display bool) (string, error)
}

// Renderer converts markdown into document trees.
type Renderer struct {
	md     goldmark.Markdown
	math   MathRenderer
	logger *zap.Logger
}

// Option configures a Renderer.
type Option func(*Renderer)

// WithLogger sets the logger used for render diagnostics.
func WithLogger(logger *zap.Logger) Option {
	return func(r *Renderer) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// NewRenderer creates a markdown renderer. math may be nil, in which case
// delimited math is kept as its source text.
func NewRenderer(math MathRenderer, opts ...Option) *Renderer {
	r := &Renderer{
		md:     goldmark.New(goldmark.WithExtensions(extension.GFM)),
		math:   math,
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Render converts markdown source into a document tree.
func (r *Renderer) Render(source string) (*Node, error) {
	protected, segments := protectMath(source)

	var buf bytes.Buffer
	if err := r.md.Convert([]byte(protected), &buf); err != nil {
		return nil, fmt.Errorf("convert markdown: %w", err)
	}

	body := &html.Node{Type: html.ElementNode, Data: "body", DataAtom: atom.Body}
	nodes, err := html.ParseFragment(&buf, body)
	if err != nil {
		return nil, fmt.Errorf("parse rendered html: %w", err)
	}

	conv := converter{renderer: r, segments: segments}
	doc := NewDocument(conv.convertAll(nodes, false)...)
	return doc, nil
}

// renderMath renders one delimited expression, keeping the source when the
// math renderer fails.
func (r *Renderer) renderMath(seg mathSegment) *Node {
	if r.math == nil {
		return NewMath(seg.Source, seg.Source, seg.Display)
	}
	out, err := r.math.Render(seg.Source, seg.Display)
	if err != nil {
		r.logger.Debug("math render failed",
			zap.String("expr", seg.Source),
			zap.Error(err))
		out = seg.Source
	}
	return NewMath(seg.Source, out, seg.Display)
}

// =============================================================================
// HTML CONVERSION
// =============================================================================

type converter struct {
	renderer *Renderer
	segments []mathSegment
}

func (c *converter) convertAll(nodes []*html.Node, inCode bool) []*Node {
	var out []*Node
	for _, n := range nodes {
		out = append(out, c.convert(n, inCode)...)
	}
	return out
}

func (c *converter) children(n *html.Node, inCode bool) []*Node {
	var out []*Node
	for child := n.FirstChild; child != nil; child = child.NextSibling {
		out = append(out, c.convert(child, inCode)...)
	}
	return out
}

func (c *converter) convert(n *html.Node, inCode bool) []*Node {
	switch n.Type {
	case html.TextNode:
		return c.convertText(n.Data, inCode)
	case html.ElementNode:
		code := inCode || n.DataAtom == atom.Code || n.DataAtom == atom.Pre
		var attrs []Attr
		for _, a := range n.Attr {
			attrs = append(attrs, Attr{Key: a.Key, Val: c.restoreRaw(a.Val)})
		}
		return []*Node{NewElement(n.Data, attrs, c.children(n, code)...)}
	default:
		// Comments such as goldmark's "raw HTML omitted" marker.
		return nil
	}
}

// restoreRaw puts the original delimited source back wherever a placeholder
// ended up outside a text node, such as a link destination.
func (c *converter) restoreRaw(val string) string {
	val = unescapePlaceholders(val)
	if !strings.ContainsRune(val, placeholderOpen) {
		return val
	}
	var b strings.Builder
	for _, piece := range splitPlaceholders(val) {
		switch {
		case piece.Index < 0:
			b.WriteString(piece.Text)
		case piece.Index < len(c.segments):
			b.WriteString(c.segments[piece.Index].Raw)
		}
	}
	return b.String()
}

func (c *converter) convertText(text string, inCode bool) []*Node {
	if !inCode && strings.TrimSpace(text) == "" && strings.Contains(text, "\n") {
		return nil
	}
	if !strings.ContainsRune(text, placeholderOpen) {
		return []*Node{NewText(text)}
	}

	var out []*Node
	var literal strings.Builder
	flush := func() {
		if literal.Len() > 0 {
			out = append(out, NewText(literal.String()))
			literal.Reset()
		}
	}

	for _, piece := range splitPlaceholders(text) {
		if piece.Index < 0 {
			literal.WriteString(piece.Text)
			continue
		}
		if piece.Index >= len(c.segments) {
			continue
		}
		seg := c.segments[piece.Index]
		if inCode {
			literal.WriteString(seg.Raw)
			continue
		}
		flush()
		out = append(out, c.renderer.renderMath(seg))
	}
	flush()
	return out
}
