// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package annotate rewrites rendered message trees so that bracketed math
// such as [x^2] is shown as a rendered math fragment.
//
// The pass runs after markdown rendering. Only text leaves are inspected;
// element structure and attributes are never changed, and leaves without a
// math span keep their identity.
package annotate

import (
	"errors"
	"strings"

	"go.uber.org/zap"

	"github.com/jeranaias/ragchat-tui/internal/bracket"
	"github.com/jeranaias/ragchat-tui/internal/markup"
)

// ErrRenderTargetMissing is returned when there is no tree to annotate.
// Callers treat it as a no-op.
var ErrRenderTargetMissing = errors.New("annotate: render target missing")

// MathRenderer renders a TeX expression for display.
type MathRenderer = markup.MathRenderer

// Annotator replaces bracketed math in text leaves with math fragments.
type Annotator struct {
	// Math renders expressions. A nil renderer keeps the source text.
	Math MathRenderer

	// SkipCode leaves code and pre subtrees alone.
	SkipCode bool

	// Logger receives render failures. Nil means no logging.
	Logger *zap.Logger
}

// Annotate returns a new tree in which every text leaf containing bracketed
// math has been split into text and math nodes. Subtrees that need no change
// are shared with the input, and the input is never modified.
func (a *Annotator) Annotate(root *markup.Node) (*markup.Node, error) {
	if root == nil {
		return nil, ErrRenderTargetMissing
	}
	out, _ := a.rewrite(root)
	return out, nil
}

// rewrite returns the replacement for n and whether anything changed.
func (a *Annotator) rewrite(n *markup.Node) (*markup.Node, bool) {
	if a.SkipCode && n.IsCode() {
		return n, false
	}
	if len(n.Children) == 0 {
		return n, false
	}

	var children []*markup.Node
	changed := false
	for i, child := range n.Children {
		var replacement []*markup.Node
		childChanged := false

		if child.Kind == markup.KindText {
			if nodes := a.annotateLeaf(child.Text); nodes != nil {
				replacement = nodes
				childChanged = true
			}
		} else {
			if rc, ok := a.rewrite(child); ok {
				replacement = []*markup.Node{rc}
				childChanged = true
			}
		}

		if childChanged && !changed {
			children = append(make([]*markup.Node, 0, len(n.Children)+len(replacement)), n.Children[:i]...)
			changed = true
		}
		if changed {
			if childChanged {
				children = append(children, replacement...)
			} else {
				children = append(children, child)
			}
		}
	}

	if !changed {
		return n, false
	}
	return n.WithChildren(children), true
}

// annotateLeaf returns the replacement nodes for a text leaf, or nil when the
// leaf holds no math span.
func (a *Annotator) annotateLeaf(text string) []*markup.Node {
	if !strings.Contains(text, "[") || !strings.Contains(text, "]") {
		return nil
	}
	spans := bracket.Scan(text)
	if !bracket.HasMath(spans) {
		return nil
	}
	return a.nodesFor(spans)
}

// AnnotateText splits text into text and math nodes. Text without bracketed
// math yields a single text node.
func (a *Annotator) AnnotateText(text string) []*markup.Node {
	if nodes := a.annotateLeaf(text); nodes != nil {
		return nodes
	}
	return []*markup.Node{markup.NewText(text)}
}

// nodesFor converts scanned spans into nodes, one per span. Literal spans
// keep their brackets.
func (a *Annotator) nodesFor(spans []bracket.Span) []*markup.Node {
	out := make([]*markup.Node, 0, len(spans))
	for _, span := range spans {
		if span.Kind == bracket.KindMath {
			out = append(out, a.renderSpan(span.Text))
			continue
		}
		out = append(out, markup.NewText(span.Raw()))
	}
	return out
}

func (a *Annotator) renderSpan(content string) *markup.Node {
	expr := strings.TrimSpace(content)
	if a.Math == nil {
		return markup.NewMath(expr, expr, false)
	}
	rendered, err := a.Math.Render(expr, false)
	if err != nil {
		if a.Logger != nil {
			a.Logger.Debug("bracket math render failed",
				zap.String("expr", expr),
				zap.Error(err))
		}
		rendered = expr
	}
	return markup.NewMath(expr, rendered, false)
}
