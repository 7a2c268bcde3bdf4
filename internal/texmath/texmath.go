// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package texmath renders a subset of LaTeX math notation as plain Unicode
// text suitable for a terminal.
//
// Supported constructs:
//   - Greek letters and common operators (\alpha, \times, \leq, \infty, ...)
//   - Superscripts and subscripts, using Unicode script characters when every
//     rune has one and falling back to ^(...) / _(...) otherwise
//   - \frac{a}{b} as a/b, parenthesised when an operand is compound
//   - \sqrt{x} and \sqrt[n]{x}
//   - \text{...} verbatim, \mathbb{R} style blackboard letters
//   - Grouping braces, which are dropped from the output
//
// Anything else passes through unchanged.
package texmath

import (
	"errors"
	"strings"
	"unicode"
)

// ErrUnbalanced is returned when an expression has mismatched braces.
var ErrUnbalanced = errors.New("texmath: unbalanced braces")

// Renderer renders expressions with Render. The zero value is ready to use.
type Renderer struct{}

// Render implements the math renderer used by the annotation pass.
func (Renderer) Render(expr string, display bool) (string, error) {
	return Render(expr, display)
}

// Render converts expr to Unicode text. In display mode a \\ line break is
// kept as a newline; inline it becomes a space.
func Render(expr string, display bool) (string, error) {
	if !balanced(expr) {
		return "", ErrUnbalanced
	}
	p := &parser{src: []rune(expr), display: display}
	out := p.parseSeq(false)
	return collapseSpaces(out), nil
}

// balanced reports whether every unescaped '{' has a matching '}'.
func balanced(expr string) bool {
	depth := 0
	escaped := false
	for _, r := range expr {
		if escaped {
			escaped = false
			continue
		}
		switch r {
		case '\\':
			escaped = true
		case '{':
			depth++
		case '}':
			depth--
			if depth < 0 {
				return false
			}
		}
	}
	return depth == 0
}

// =============================================================================
// PARSER
// =============================================================================

type parser struct {
	src     []rune
	pos     int
	display bool
}

func (p *parser) eof() bool { return p.pos >= len(p.src) }

func (p *parser) peek() rune {
	if p.eof() {
		return 0
	}
	return p.src[p.pos]
}

// parseSeq renders atoms until the end of input, or until the closing brace
// of the current group when inGroup is set.
func (p *parser) parseSeq(inGroup bool) string {
	var sb strings.Builder
	for !p.eof() {
		r := p.peek()
		switch {
		case r == '}' && inGroup:
			p.pos++
			return sb.String()
		case r == '^':
			p.pos++
			sb.WriteString(script(p.parseArg(), superscripts, "^"))
		case r == '_':
			p.pos++
			sb.WriteString(script(p.parseArg(), subscripts, "_"))
		default:
			sb.WriteString(p.parseAtom())
		}
	}
	return sb.String()
}

// parseArg reads a single argument: a braced group, a command, or one rune.
// Leading spaces are skipped the way TeX skips them before arguments.
func (p *parser) parseArg() string {
	for !p.eof() && unicode.IsSpace(p.peek()) {
		p.pos++
	}
	if p.eof() {
		return ""
	}
	return p.parseAtom()
}

func (p *parser) parseAtom() string {
	r := p.peek()
	switch r {
	case '{':
		p.pos++
		return p.parseSeq(true)
	case '\\':
		p.pos++
		return p.parseCommand()
	case '~':
		p.pos++
		return " "
	}
	p.pos++
	return string(r)
}

// readRawGroup returns the text of a braced group without interpreting it.
func (p *parser) readRawGroup() string {
	for !p.eof() && unicode.IsSpace(p.peek()) {
		p.pos++
	}
	if p.peek() != '{' {
		return p.parseArg()
	}
	p.pos++
	start := p.pos
	depth := 1
	for !p.eof() {
		switch p.src[p.pos] {
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				text := string(p.src[start:p.pos])
				p.pos++
				return text
			}
		}
		p.pos++
	}
	return string(p.src[start:])
}

// readOptional returns the content of a [...] optional argument, if present.
func (p *parser) readOptional() (string, bool) {
	if p.peek() != '[' {
		return "", false
	}
	end := -1
	for i := p.pos + 1; i < len(p.src); i++ {
		if p.src[i] == ']' {
			end = i
			break
		}
	}
	if end < 0 {
		return "", false
	}
	inner := string(p.src[p.pos+1 : end])
	p.pos = end + 1
	sub := &parser{src: []rune(inner), display: p.display}
	return sub.parseSeq(false), true
}

func (p *parser) parseCommand() string {
	if p.eof() {
		return "\\"
	}
	r := p.peek()
	if !isASCIILetter(r) {
		p.pos++
		switch r {
		case '\\':
			if p.display {
				return "\n"
			}
			return " "
		case ',', ';', ':', ' ':
			return " "
		case '!':
			return ""
		default:
			// \{ \} \% \$ \# and friends are literal characters.
			return string(r)
		}
	}

	start := p.pos
	for !p.eof() && isASCIILetter(p.peek()) {
		p.pos++
	}
	name := string(p.src[start:p.pos])

	switch name {
	case "frac", "dfrac", "tfrac":
		num := p.parseArg()
		den := p.parseArg()
		return wrapOperand(num) + "/" + wrapOperand(den)
	case "sqrt":
		index, hasIndex := p.readOptional()
		body := wrapOperand(p.parseArg())
		if !hasIndex {
			return "√" + body
		}
		switch strings.TrimSpace(index) {
		case "3":
			return "∛" + body
		case "4":
			return "∜" + body
		}
		return script(index, superscripts, "^") + "√" + body
	case "text", "textrm", "mbox", "operatorname":
		return p.readRawGroup()
	case "mathrm", "mathbf", "mathit", "mathsf", "boldsymbol":
		return p.parseArg()
	case "mathbb":
		arg := p.parseArg()
		if bb, ok := blackboard[arg]; ok {
			return bb
		}
		return arg
	case "left", "right", "big", "Big", "bigg", "Bigg":
		if p.peek() == '.' {
			p.pos++
		}
		return ""
	case "quad", "qquad":
		return " "
	}

	if sym, ok := symbols[name]; ok {
		return sym
	}
	if functions[name] {
		return name
	}
	return "\\" + name
}

// =============================================================================
// HELPERS
// =============================================================================

func isASCIILetter(r rune) bool {
	return (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z')
}

// script maps s through table, falling back to prefix notation when a rune
// has no script form.
func script(s string, table map[rune]rune, prefix string) string {
	if s == "" {
		return prefix
	}
	var sb strings.Builder
	for _, r := range s {
		mapped, ok := table[r]
		if !ok {
			return prefix + wrapOperand(s)
		}
		sb.WriteRune(mapped)
	}
	return sb.String()
}

// wrapOperand parenthesises compound operands.
func wrapOperand(s string) string {
	s = strings.TrimSpace(s)
	if len([]rune(s)) <= 1 {
		return s
	}
	for _, r := range s {
		if !unicode.IsLetter(r) && !unicode.IsNumber(r) && r != '.' {
			return "(" + s + ")"
		}
	}
	return s
}

func collapseSpaces(s string) string {
	var sb strings.Builder
	space := false
	lineStart := true
	for _, r := range s {
		if r == '\n' {
			sb.WriteRune(r)
			space = false
			lineStart = true
			continue
		}
		if unicode.IsSpace(r) {
			space = true
			continue
		}
		if space && !lineStart {
			sb.WriteByte(' ')
		}
		space = false
		lineStart = false
		sb.WriteRune(r)
	}
	return strings.TrimSpace(sb.String())
}
