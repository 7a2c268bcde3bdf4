// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package markup

import (
	"net/url"
	"strconv"
	"strings"
)

// Math written with $...$ or $$...$$ delimiters is lifted out of the
// markdown before conversion and replaced with placeholders, so the markdown
// parser never sees (and never reinterprets) the TeX source.
const (
	placeholderOpen  = '\uE000'
	placeholderClose = '\uE001'
)

// mathSegment is a math expression removed from the source.
type mathSegment struct {
	Source  string // expression without delimiters
	Raw     string // original text including delimiters
	Display bool
}

// protectMath replaces math segments outside code with placeholders.
func protectMath(src string) (string, []mathSegment) {
	var (
		out      strings.Builder
		segments []mathSegment
		inFence  bool
		fence    string
	)

	lines := strings.SplitAfter(src, "\n")
	// Display math may span lines, so the inline pass runs on runs of
	// non-fenced lines rather than on single lines.
	var pending strings.Builder
	flush := func() {
		if pending.Len() == 0 {
			return
		}
		text, segs := protectInline(pending.String(), len(segments))
		out.WriteString(text)
		segments = append(segments, segs...)
		pending.Reset()
	}

	for _, line := range lines {
		marker := fenceMarker(line)
		switch {
		case inFence:
			out.WriteString(line)
			if marker != "" && strings.HasPrefix(marker, fence) && strings.TrimSpace(line) == marker {
				inFence = false
			}
		case marker != "":
			flush()
			inFence = true
			fence = marker
			out.WriteString(line)
		default:
			pending.WriteString(line)
		}
	}
	flush()

	return out.String(), segments
}

// fenceMarker returns the ``` or ~~~ run opening a fenced code line.
func fenceMarker(line string) string {
	trimmed := strings.TrimLeft(line, " ")
	if len(line)-len(trimmed) > 3 || len(trimmed) < 3 {
		return ""
	}
	ch := trimmed[0]
	if ch != '`' && ch != '~' {
		return ""
	}
	n := 0
	for n < len(trimmed) && trimmed[n] == ch {
		n++
	}
	if n < 3 {
		return ""
	}
	return trimmed[:n]
}

// protectInline handles inline code spans and both math delimiters within
// text that contains no fenced code. Placeholder numbering starts at base.
func protectInline(text string, base int) (string, []mathSegment) {
	var (
		out      strings.Builder
		segments []mathSegment
	)

	emit := func(seg mathSegment) {
		out.WriteRune(placeholderOpen)
		out.WriteString(strconv.Itoa(base + len(segments)))
		out.WriteRune(placeholderClose)
		segments = append(segments, seg)
	}

	i := 0
	for i < len(text) {
		c := text[i]
		switch {
		case c == '\\' && i+1 < len(text):
			out.WriteString(text[i : i+2])
			i += 2

		case c == '`':
			run := 0
			for i+run < len(text) && text[i+run] == '`' {
				run++
			}
			ticks := text[i : i+run]
			end := findCodeClose(text, i+run, ticks)
			if end < 0 {
				out.WriteString(ticks)
				i += run
				continue
			}
			out.WriteString(text[i : end+run])
			i = end + run

		case c == '$' && strings.HasPrefix(text[i:], "$$"):
			end := strings.Index(text[i+2:], "$$")
			if end < 0 || strings.TrimSpace(text[i+2:i+2+end]) == "" {
				out.WriteString("$$")
				i += 2
				continue
			}
			inner := text[i+2 : i+2+end]
			emit(mathSegment{
				Source:  strings.TrimSpace(inner),
				Raw:     text[i : i+4+end],
				Display: true,
			})
			i += 4 + end

		case c == '$':
			end := findInlineMathClose(text, i+1)
			if end < 0 {
				out.WriteByte('$')
				i++
				continue
			}
			emit(mathSegment{
				Source: text[i+1 : end],
				Raw:    text[i : end+1],
			})
			i = end + 1

		default:
			out.WriteByte(c)
			i++
		}
	}

	return out.String(), segments
}

// findCodeClose finds a backtick run of exactly len(ticks) at or after from.
func findCodeClose(text string, from int, ticks string) int {
	for from < len(text) {
		idx := strings.Index(text[from:], ticks)
		if idx < 0 {
			return -1
		}
		pos := from + idx
		end := pos + len(ticks)
		if end < len(text) && text[end] == '`' {
			for end < len(text) && text[end] == '`' {
				end++
			}
			from = end
			continue
		}
		return pos
	}
	return -1
}

// findInlineMathClose returns the index of the '$' closing an inline math
// span opened just before from, or -1. The content must be non-empty, must
// not start or end with a space, must stay on one line, and the closing '$'
// must not be followed by a digit, which keeps "$5 and $10" as text.
func findInlineMathClose(text string, from int) int {
	if from >= len(text) || text[from] == ' ' || text[from] == '$' || text[from] == '\n' {
		return -1
	}
	for j := from; j < len(text); j++ {
		switch text[j] {
		case '\n':
			return -1
		case '\\':
			j++
		case '$':
			if text[j-1] == ' ' {
				continue
			}
			if j+1 < len(text) && text[j+1] >= '0' && text[j+1] <= '9' {
				continue
			}
			return j
		}
	}
	return -1
}

// Link destinations are percent-encoded by the markdown renderer.
var placeholderEscapes = strings.NewReplacer(
	url.PathEscape(string(placeholderOpen)), string(placeholderOpen),
	url.PathEscape(string(placeholderClose)), string(placeholderClose),
)

// unescapePlaceholders undoes percent-encoding of the placeholder runes.
func unescapePlaceholders(s string) string {
	if !strings.Contains(s, "%") {
		return s
	}
	return placeholderEscapes.Replace(s)
}

// splitPlaceholders splits text into literal runs and placeholder indexes.
// A piece with index -1 is literal text.
func splitPlaceholders(text string) []placeholderPiece {
	var pieces []placeholderPiece
	for {
		open := strings.IndexRune(text, placeholderOpen)
		if open < 0 {
			break
		}
		rest := text[open+len(string(placeholderOpen)):]
		close := strings.IndexRune(rest, placeholderClose)
		if close < 0 {
			break
		}
		idx, err := strconv.Atoi(rest[:close])
		if err != nil {
			break
		}
		if open > 0 {
			pieces = append(pieces, placeholderPiece{Text: text[:open], Index: -1})
		}
		pieces = append(pieces, placeholderPiece{Index: idx})
		text = rest[close+len(string(placeholderClose)):]
	}
	if text != "" {
		pieces = append(pieces, placeholderPiece{Text: text, Index: -1})
	}
	return pieces
}

type placeholderPiece struct {
	Text  string
	Index int
}
