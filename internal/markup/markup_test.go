// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package markup

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubMath wraps expressions in angle brackets and fails on "bad".
type stubMath struct{}

func (stubMath) Render(expr string, display bool) (string, error) {
	if expr == "bad" {
		return "", errors.New("cannot render")
	}
	if display {
		return "<<" + expr + ">>", nil
	}
	return "<" + expr + ">", nil
}

func TestRender_Paragraph(t *testing.T) {
	r := NewRenderer(stubMath{})
	doc, err := r.Render("Hello **world**")
	require.NoError(t, err)

	want := NewDocument(
		NewElement("p", nil,
			NewText("Hello "),
			NewElement("strong", nil, NewText("world")),
		),
	)
	if diff := cmp.Diff(want, doc); diff != "" {
		t.Errorf("tree mismatch (-want +got):\n%s", diff)
	}
}

func TestRender_BracketsStayText(t *testing.T) {
	r := NewRenderer(stubMath{})
	doc, err := r.Render("The value [x^2] grows")
	require.NoError(t, err)

	assert.Equal(t, "The value [x^2] grows", TextContent(doc))
	assert.Equal(t, 0, CountKind(doc, KindMath))
}

func TestRender_InlineMath(t *testing.T) {
	r := NewRenderer(stubMath{})
	doc, err := r.Render("Area $\\pi r^2$ here")
	require.NoError(t, err)

	want := NewDocument(
		NewElement("p", nil,
			NewText("Area "),
			NewMath("\\pi r^2", "<\\pi r^2>", false),
			NewText(" here"),
		),
	)
	if diff := cmp.Diff(want, doc); diff != "" {
		t.Errorf("tree mismatch (-want +got):\n%s", diff)
	}
}

func TestRender_DisplayMath(t *testing.T) {
	r := NewRenderer(stubMath{})
	doc, err := r.Render("$$\na_1 * b_2\n$$")
	require.NoError(t, err)

	want := NewDocument(
		NewElement("p", nil,
			NewMath("a_1 * b_2", "<<a_1 * b_2>>", true),
		),
	)
	if diff := cmp.Diff(want, doc); diff != "" {
		t.Errorf("tree mismatch (-want +got):\n%s", diff)
	}
}

func TestRender_DollarAmountsAreNotMath(t *testing.T) {
	r := NewRenderer(stubMath{})
	doc, err := r.Render("It costs $5 and $10")
	require.NoError(t, err)

	assert.Equal(t, 0, CountKind(doc, KindMath))
	assert.Equal(t, "It costs $5 and $10", TextContent(doc))
}

func TestRender_MathInsideCodeIsUntouched(t *testing.T) {
	r := NewRenderer(stubMath{})
	doc, err := r.Render("`$x$` and $y$\n\n```\n$a$\n```\n")
	require.NoError(t, err)

	assert.Equal(t, 1, CountKind(doc, KindMath))

	var codeTexts []string
	Walk(doc, func(n *Node) bool {
		if n.Kind == KindElement && n.Tag == "code" {
			codeTexts = append(codeTexts, TextContent(n))
			return false
		}
		return true
	})
	assert.Equal(t, []string{"$x$", "$a$\n"}, codeTexts)
}

func TestRender_MathFailureKeepsSource(t *testing.T) {
	r := NewRenderer(stubMath{})
	doc, err := r.Render("see $bad$")
	require.NoError(t, err)

	var math *Node
	Walk(doc, func(n *Node) bool {
		if n.Kind == KindMath {
			math = n
		}
		return true
	})
	require.NotNil(t, math)
	assert.Equal(t, "bad", math.Rendered)
}

func TestRender_MathInAttributesKeepsSource(t *testing.T) {
	r := NewRenderer(stubMath{})
	doc, err := r.Render(`[a](http://x/$y$ "t $z$")`)
	require.NoError(t, err)

	var link *Node
	Walk(doc, func(n *Node) bool {
		if n.Kind == KindElement && n.Tag == "a" {
			link = n
		}
		return true
	})
	require.NotNil(t, link)

	href, ok := link.Attr("href")
	require.True(t, ok)
	assert.NotContains(t, href, string(placeholderOpen))
	assert.NotContains(t, href, "%EE%80")
	assert.Contains(t, href, "y")

	title, ok := link.Attr("title")
	require.True(t, ok)
	assert.Equal(t, "t $z$", title)
}

func TestRender_NilMathRenderer(t *testing.T) {
	r := NewRenderer(nil)
	doc, err := r.Render("$x$")
	require.NoError(t, err)
	assert.Equal(t, "x", TextContent(doc))
}

func TestRender_RawHTMLOmitted(t *testing.T) {
	r := NewRenderer(nil)
	doc, err := r.Render("<b>hi</b>")
	require.NoError(t, err)

	assert.Equal(t, "hi", TextContent(doc))
	Walk(doc, func(n *Node) bool {
		assert.NotEqual(t, "b", n.Tag)
		return true
	})
}

func TestRender_CodeBlockKeepsLanguage(t *testing.T) {
	r := NewRenderer(nil)
	doc, err := r.Render("```go\nx := 1\n```")
	require.NoError(t, err)

	require.Len(t, doc.Children, 1)
	pre := doc.Children[0]
	assert.Equal(t, "pre", pre.Tag)
	require.Len(t, pre.Children, 1)
	code := pre.Children[0]
	class, ok := code.Attr("class")
	assert.True(t, ok)
	assert.Equal(t, "language-go", class)
	assert.True(t, code.IsCode())
	assert.Equal(t, "x := 1\n", TextContent(code))
}

func TestWalk_SkipChildren(t *testing.T) {
	doc := NewDocument(
		NewElement("p", nil, NewText("a")),
		NewElement("pre", nil, NewText("b")),
	)
	var seen []string
	Walk(doc, func(n *Node) bool {
		if n.Kind == KindText {
			seen = append(seen, n.Text)
		}
		return !n.IsCode()
	})
	assert.Equal(t, []string{"a"}, seen)
}

func TestEqualAndDiff(t *testing.T) {
	a := NewDocument(NewText("x"))
	b := NewDocument(NewText("x"))
	c := NewDocument(NewText("y"))

	assert.True(t, Equal(a, b))
	assert.False(t, Equal(a, c))
	assert.Empty(t, Diff(a, b))
	assert.NotEmpty(t, Diff(a, c))
}

func TestWithChildrenDoesNotMutate(t *testing.T) {
	orig := NewElement("p", []Attr{{Key: "id", Val: "1"}}, NewText("a"))
	cp := orig.WithChildren([]*Node{NewText("b")})

	assert.Equal(t, "a", orig.Children[0].Text)
	assert.Equal(t, "b", cp.Children[0].Text)
	assert.Equal(t, orig.Tag, cp.Tag)
}

func TestProtectMath_Numbering(t *testing.T) {
	out, segs := protectMath("$a$ text\n```\n$skip$\n```\n$$b$$")
	require.Len(t, segs, 2)
	assert.Equal(t, "a", segs[0].Source)
	assert.False(t, segs[0].Display)
	assert.Equal(t, "b", segs[1].Source)
	assert.True(t, segs[1].Display)
	assert.Contains(t, out, "$skip$")

	pieces := splitPlaceholders(out)
	indexes := []int{}
	for _, p := range pieces {
		if p.Index >= 0 {
			indexes = append(indexes, p.Index)
		}
	}
	assert.Equal(t, []int{0, 1}, indexes)
}

func TestKindString(t *testing.T) {
	assert.Equal(t, "document", KindDocument.String())
	assert.Equal(t, "math", KindMath.String())
	assert.Equal(t, "unknown", Kind(9).String())
}
