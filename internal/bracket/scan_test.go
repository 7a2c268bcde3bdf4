// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package bracket

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScan_LiteralKeepsBrackets(t *testing.T) {
	input := "[abc])"
	spans := Scan(input)

	require.Len(t, spans, 2)
	assert.Equal(t, Span{Text: "abc", Kind: KindLiteral, Start: 0, End: 5}, spans[0])
	assert.Equal(t, Span{Text: ")", Kind: KindText, Start: 5, End: 6}, spans[1])
	assert.Equal(t, input, Reconstruct(spans))
}

func TestScan_Classification(t *testing.T) {
	tests := []struct {
		name  string
		input string
		kind  Kind
		text  string
	}{
		{"superscript", "[x^2]", KindMath, "x^2"},
		{"subscript", "[a_1]", KindMath, "a_1"},
		{"command", `[\alpha + \beta]`, KindMath, `\alpha + \beta`},
		{"braces", "[{n}]", KindMath, "{n}"},
		{"plain words", "[hello world]", KindLiteral, "hello world"},
		{"citation", "[1]", KindLiteral, "1"},
		{"empty", "[]", KindLiteral, ""},
		{"arithmetic only", "[1 + 2 = 3]", KindLiteral, "1 + 2 = 3"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			spans := Scan(tt.input)
			require.Len(t, spans, 1)
			assert.Equal(t, tt.kind, spans[0].Kind)
			assert.Equal(t, tt.text, spans[0].Text)
			assert.Equal(t, 0, spans[0].Start)
			assert.Equal(t, len(tt.input), spans[0].End)
		})
	}
}

func TestScan_UnterminatedBracket(t *testing.T) {
	spans := Scan("a [b c")

	require.Len(t, spans, 1)
	assert.Equal(t, KindText, spans[0].Kind)
	assert.Equal(t, "a [b c", spans[0].Text)
	assert.Equal(t, 0, spans[0].Start)
	assert.Equal(t, 6, spans[0].End)
}

func TestScan_UnterminatedAfterClosedSpan(t *testing.T) {
	spans := Scan("[x^2] then [open")

	require.Len(t, spans, 2)
	assert.Equal(t, KindMath, spans[0].Kind)
	assert.Equal(t, " then [open", spans[1].Text)
	assert.Equal(t, KindText, spans[1].Kind)
}

func TestScan_FirstCloseWins(t *testing.T) {
	spans := Scan("[a [b] c]")

	require.Len(t, spans, 2)
	assert.Equal(t, "a [b", spans[0].Text)
	assert.Equal(t, KindLiteral, spans[0].Kind)
	assert.Equal(t, " c]", spans[1].Text)
	assert.Equal(t, "[a [b] c]", Reconstruct(spans))
}

func TestScan_MixedOrderPreserved(t *testing.T) {
	input := "Area is [\\pi r^2] see [note] end"
	spans := Scan(input)

	kinds := make([]Kind, 0, len(spans))
	for _, s := range spans {
		kinds = append(kinds, s.Kind)
	}
	assert.Equal(t, []Kind{KindText, KindMath, KindText, KindLiteral, KindText}, kinds)
	assert.True(t, HasMath(spans))
	assert.Equal(t, input, Reconstruct(spans))

	for _, s := range spans {
		assert.Equal(t, s.Raw(), input[s.Start:s.End])
	}
}

func TestScan_NoBrackets(t *testing.T) {
	assert.Nil(t, Scan(""))

	spans := Scan("just text")
	require.Len(t, spans, 1)
	assert.Equal(t, KindText, spans[0].Kind)
	assert.False(t, HasMath(spans))
}

func TestScan_RoundTripsArbitraryInput(t *testing.T) {
	inputs := []string{
		"]]][[[",
		"[][][]",
		"x^2 outside [inside] and ] stray",
		"فارسی [متن] و [x_1]",
		"[unterminated [x^2]",
	}
	for _, in := range inputs {
		assert.Equal(t, in, Reconstruct(Scan(in)), "input %q", in)
	}
}

func TestIsMathLike(t *testing.T) {
	assert.False(t, IsMathLike(""))
	assert.False(t, IsMathLike("see above"))
	assert.True(t, IsMathLike(`\frac{1}{2}`))
	assert.True(t, IsMathLike("E = mc^2"))
}

func TestKindString(t *testing.T) {
	assert.Equal(t, "text", KindText.String())
	assert.Equal(t, "literal", KindLiteral.String())
	assert.Equal(t, "math", KindMath.String())
	assert.Equal(t, "unknown", Kind(42).String())
}
