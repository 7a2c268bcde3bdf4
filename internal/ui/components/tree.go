// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"strconv"
	"strings"

	"github.com/muesli/reflow/indent"
	"github.com/muesli/reflow/wordwrap"

	"github.com/jeranaias/ragchat-tui/internal/markup"
	"github.com/jeranaias/ragchat-tui/internal/ui/styles"
)

// =============================================================================
// DOCUMENT TREE RENDERER
// =============================================================================

// TreeRenderer draws a rendered reply document as styled terminal text.
type TreeRenderer struct {
	theme *styles.Theme
	width int
}

// NewTreeRenderer creates a renderer wrapping at width cells.
func NewTreeRenderer(theme *styles.Theme, width int) TreeRenderer {
	if width < 10 {
		width = 10
	}
	return TreeRenderer{theme: theme, width: width}
}

// Render returns the document as terminal text.
func (r TreeRenderer) Render(root *markup.Node) string {
	if root == nil {
		return ""
	}
	return strings.TrimRight(r.blocks(root.Children, r.width), "\n")
}

var blockTags = map[string]bool{
	"p": true, "pre": true, "blockquote": true, "ul": true, "ol": true,
	"li": true, "hr": true, "table": true, "div": true, "section": true,
	"h1": true, "h2": true, "h3": true, "h4": true, "h5": true, "h6": true,
}

func isBlock(n *markup.Node) bool {
	switch n.Kind {
	case markup.KindElement:
		return blockTags[n.Tag]
	case markup.KindMath:
		return n.Display
	}
	return false
}

// blocks renders a child list, gathering runs of inline nodes into paragraphs.
func (r TreeRenderer) blocks(children []*markup.Node, width int) string {
	var out []string
	var run []*markup.Node

	flush := func() {
		if len(run) == 0 {
			return
		}
		text := strings.TrimSpace(r.inlines(run))
		if text != "" {
			out = append(out, wordwrap.String(text, width))
		}
		run = nil
	}

	for _, c := range children {
		if !isBlock(c) {
			run = append(run, c)
			continue
		}
		flush()
		if b := r.block(c, width); b != "" {
			out = append(out, b)
		}
	}
	flush()

	return strings.Join(out, "\n\n")
}

func (r TreeRenderer) block(n *markup.Node, width int) string {
	if n.Kind == markup.KindMath {
		return r.theme.MathBlock.Render(mathText(n))
	}

	switch n.Tag {
	case "p", "div", "section":
		return r.blocks(n.Children, width)

	case "h1", "h2", "h3", "h4", "h5", "h6":
		level, _ := strconv.Atoi(n.Tag[1:])
		text := strings.Repeat("#", level) + " " + strings.TrimSpace(r.inlines(n.Children))
		return r.theme.Heading.Render(wordwrap.String(text, width))

	case "pre":
		return r.codeBlock(n, width)

	case "blockquote":
		inner := r.blocks(n.Children, width-2)
		return r.theme.Quote.Render(inner)

	case "ul", "ol":
		return r.list(n, width)

	case "li":
		return r.blocks(n.Children, width)

	case "hr":
		return r.theme.Rule.Render(strings.Repeat("─", width))

	case "table":
		return r.table(n, width)
	}
	return r.blocks(n.Children, width)
}

func (r TreeRenderer) codeBlock(pre *markup.Node, width int) string {
	lang := ""
	for _, c := range pre.Children {
		if c.Kind == markup.KindElement && c.Tag == "code" {
			class, _ := c.Attr("class")
			lang = LanguageFromClass(class)
			break
		}
	}
	cb := NewCodeBlock(lang, markup.TextContent(pre))
	cb.MaxWidth = width
	return cb.Render(r.theme)
}

func (r TreeRenderer) list(n *markup.Node, width int) string {
	ordered := n.Tag == "ol"
	start := 1
	if v, ok := n.Attr("start"); ok {
		if s, err := strconv.Atoi(v); err == nil {
			start = s
		}
	}

	var items []string
	i := start
	for _, c := range n.Children {
		if c.Kind != markup.KindElement || c.Tag != "li" {
			continue
		}
		marker := "• "
		if ordered {
			marker = strconv.Itoa(i) + ". "
			i++
		}
		pad := len(marker)
		body := r.blocks(c.Children, width-pad)
		if body == "" {
			items = append(items, marker)
			continue
		}
		body = indent.String(body, uint(pad))
		items = append(items, marker+strings.TrimPrefix(body, strings.Repeat(" ", pad)))
	}
	return strings.Join(items, "\n")
}

func (r TreeRenderer) table(n *markup.Node, width int) string {
	var rows []string
	markup.Walk(n, func(m *markup.Node) bool {
		if m.Kind != markup.KindElement || m.Tag != "tr" {
			return true
		}
		var cells []string
		for _, c := range m.Children {
			if c.Kind == markup.KindElement && (c.Tag == "td" || c.Tag == "th") {
				cell := strings.TrimSpace(r.inlines(c.Children))
				if c.Tag == "th" {
					cell = r.theme.Strong.Render(cell)
				}
				cells = append(cells, cell)
			}
		}
		rows = append(rows, strings.Join(cells, r.theme.Rule.Render(" │ ")))
		return false
	})
	return wordwrap.String(strings.Join(rows, "\n"), width)
}

// =============================================================================
// INLINE CONTENT
// =============================================================================

func (r TreeRenderer) inlines(nodes []*markup.Node) string {
	var sb strings.Builder
	for _, n := range nodes {
		sb.WriteString(r.inline(n))
	}
	return sb.String()
}

func (r TreeRenderer) inline(n *markup.Node) string {
	switch n.Kind {
	case markup.KindText:
		return strings.ReplaceAll(n.Text, "\n", " ")
	case markup.KindMath:
		if n.Display {
			return "\n" + r.theme.MathBlock.Render(mathText(n)) + "\n"
		}
		return r.theme.Math.Render(mathText(n))
	case markup.KindDocument:
		return r.inlines(n.Children)
	}

	inner := r.inlines(n.Children)
	switch n.Tag {
	case "strong", "b":
		return r.theme.Strong.Render(inner)
	case "em", "i":
		return r.theme.Emphasis.Render(inner)
	case "del", "s":
		return r.theme.Strike.Render(inner)
	case "code":
		return r.theme.InlineCode.Render(markup.TextContent(n))
	case "br":
		return "\n"
	case "a":
		href, _ := n.Attr("href")
		if href == "" || href == markup.TextContent(n) {
			return r.theme.Link.Render(inner)
		}
		return r.theme.Link.Render(inner) + " (" + href + ")"
	case "img":
		alt, _ := n.Attr("alt")
		return "[image: " + alt + "]"
	}
	return inner
}

func mathText(n *markup.Node) string {
	if n.Rendered != "" {
		return n.Rendered
	}
	return n.Text
}
