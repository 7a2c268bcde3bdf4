// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package bracket finds [...] spans in text and decides which of them hold
// math expressions.
package bracket

import (
	"regexp"
	"strings"
)

// =============================================================================
// SPAN TYPES
// =============================================================================

// Kind classifies a span produced by Scan.
type Kind int

const (
	// KindText is plain text outside any bracket pair.
	KindText Kind = iota
	// KindLiteral is a bracketed span that reads as ordinary text.
	KindLiteral
	// KindMath is a bracketed span that looks like a math expression.
	KindMath
)

// String returns the name of the kind.
func (k Kind) String() string {
	switch k {
	case KindText:
		return "text"
	case KindLiteral:
		return "literal"
	case KindMath:
		return "math"
	default:
		return "unknown"
	}
}

// Span is one contiguous piece of a scanned string.
//
// For Literal and Math spans Text holds the content between the brackets and
// [Start, End) covers the brackets themselves. Offsets are byte offsets.
type Span struct {
	Text  string
	Kind  Kind
	Start int
	End   int
}

// Raw returns the span exactly as it appeared in the input.
func (s Span) Raw() string {
	if s.Kind == KindText {
		return s.Text
	}
	return "[" + s.Text + "]"
}

// =============================================================================
// CLASSIFICATION
// =============================================================================

// mathPattern matches content that reads as a LaTeX-ish expression: a
// structural character, a backslash command, or a letter followed by a
// subscript or superscript.
var mathPattern = regexp.MustCompile(`[\\{}^_]|\\[a-zA-Z]+|[a-zA-Z]_[a-zA-Z0-9]|[a-zA-Z]\^[a-zA-Z0-9]`)

// IsMathLike reports whether bracket content should be rendered as math.
// Empty content is never math.
func IsMathLike(content string) bool {
	if content == "" {
		return false
	}
	return mathPattern.MatchString(content)
}

// =============================================================================
// SCANNER
// =============================================================================

// Scan splits text into an ordered sequence of spans.
//
// Brackets do not nest: a '[' is closed by the first ']' after it. An
// unterminated '[' leaves the remainder of the string as plain text.
// Concatenating Raw() of every span yields the input.
func Scan(text string) []Span {
	var spans []Span
	textStart := 0
	pos := 0

	for pos < len(text) {
		open := strings.IndexByte(text[pos:], '[')
		if open < 0 {
			break
		}
		open += pos

		rel := strings.IndexByte(text[open+1:], ']')
		if rel < 0 {
			break
		}
		end := open + 1 + rel

		if open > textStart {
			spans = append(spans, Span{
				Text:  text[textStart:open],
				Kind:  KindText,
				Start: textStart,
				End:   open,
			})
		}

		inner := text[open+1 : end]
		kind := KindLiteral
		if IsMathLike(inner) {
			kind = KindMath
		}
		spans = append(spans, Span{
			Text:  inner,
			Kind:  kind,
			Start: open,
			End:   end + 1,
		})

		pos = end + 1
		textStart = pos
	}

	if textStart < len(text) {
		spans = append(spans, Span{
			Text:  text[textStart:],
			Kind:  KindText,
			Start: textStart,
			End:   len(text),
		})
	}

	return spans
}

// HasMath reports whether any span is a math span.
func HasMath(spans []Span) bool {
	for _, s := range spans {
		if s.Kind == KindMath {
			return true
		}
	}
	return false
}

// Reconstruct joins spans back into the original string.
func Reconstruct(spans []Span) string {
	var sb strings.Builder
	for _, s := range spans {
		sb.WriteString(s.Raw())
	}
	return sb.String()
}
