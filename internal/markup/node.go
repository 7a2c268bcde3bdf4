// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package markup

import (
	"strings"

	"github.com/google/go-cmp/cmp"
)

// =============================================================================
// NODE TYPES
// =============================================================================

// Kind identifies the type of a document node.
type Kind int

const (
	KindDocument Kind = iota
	KindElement
	KindText
	KindMath
)

// String returns the name of the kind.
func (k Kind) String() string {
	switch k {
	case KindDocument:
		return "document"
	case KindElement:
		return "element"
	case KindText:
		return "text"
	case KindMath:
		return "math"
	default:
		return "unknown"
	}
}

// Attr is a single element attribute.
type Attr struct {
	Key string
	Val string
}

// Node is one node of a rendered document.
//
// Trees are values: transforms build new nodes and share the subtrees they
// do not touch, so a *Node must never be modified once it is part of a tree.
type Node struct {
	Kind     Kind
	Tag      string // Element only
	Attrs    []Attr // Element only
	Text     string // Text content, or the source expression of a Math node
	Display  bool   // Math only: block rather than inline
	Rendered string // Math only: output of the math renderer
	Children []*Node
}

// NewDocument creates a document root.
func NewDocument(children ...*Node) *Node {
	return &Node{Kind: KindDocument, Children: children}
}

// NewElement creates an element node.
func NewElement(tag string, attrs []Attr, children ...*Node) *Node {
	return &Node{Kind: KindElement, Tag: tag, Attrs: attrs, Children: children}
}

// NewText creates a text leaf.
func NewText(text string) *Node {
	return &Node{Kind: KindText, Text: text}
}

// NewMath creates a rendered math fragment.
func NewMath(source, rendered string, display bool) *Node {
	return &Node{Kind: KindMath, Text: source, Rendered: rendered, Display: display}
}

// =============================================================================
// NODE METHODS
// =============================================================================

// WithChildren returns a shallow copy of n with a new child list.
func (n *Node) WithChildren(children []*Node) *Node {
	cp := *n
	cp.Children = children
	return &cp
}

// Attr returns the value of the named attribute.
func (n *Node) Attr(key string) (string, bool) {
	for _, a := range n.Attrs {
		if a.Key == key {
			return a.Val, true
		}
	}
	return "", false
}

// IsCode reports whether n is a code or pre element.
func (n *Node) IsCode() bool {
	return n.Kind == KindElement && (n.Tag == "code" || n.Tag == "pre")
}

// Walk visits n and its descendants depth-first. Returning false from fn
// skips the children of the visited node.
func Walk(n *Node, fn func(*Node) bool) {
	if n == nil {
		return
	}
	if !fn(n) {
		return
	}
	for _, c := range n.Children {
		Walk(c, fn)
	}
}

// TextContent concatenates the visible text of n. Math nodes contribute
// their rendered form.
func TextContent(n *Node) string {
	var sb strings.Builder
	Walk(n, func(node *Node) bool {
		switch node.Kind {
		case KindText:
			sb.WriteString(node.Text)
		case KindMath:
			sb.WriteString(node.Rendered)
		}
		return true
	})
	return sb.String()
}

// CountKind returns how many nodes of kind k are in the tree.
func CountKind(n *Node, k Kind) int {
	count := 0
	Walk(n, func(node *Node) bool {
		if node.Kind == k {
			count++
		}
		return true
	})
	return count
}

// Equal reports whether two trees are structurally identical.
func Equal(a, b *Node) bool {
	return cmp.Equal(a, b)
}

// Diff returns a human-readable difference between two trees, or "" when
// they are equal.
func Diff(a, b *Node) string {
	return cmp.Diff(a, b)
}
