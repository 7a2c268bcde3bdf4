// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package texmath

import (
	"errors"
	"testing"
)

func TestRender(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"superscript digit", "x^2", "x²"},
		{"superscript group", "x^{2n}", "x²ⁿ"},
		{"subscript", "a_1", "a₁"},
		{"subscript group", "a_{i+1}", "aᵢ₊₁"},
		{"fallback superscript", "e^{q}", "e^q"},
		{"fallback compound", "x_{\\alpha b}", "x_(α b)"},
		{"greek", "\\alpha + \\beta", "α + β"},
		{"frac simple", "\\frac{1}{2}", "1/2"},
		{"frac compound", "\\frac{a+b}{c}", "(a+b)/c"},
		{"sqrt", "\\sqrt{x}", "√x"},
		{"sqrt compound", "\\sqrt{x+1}", "√(x+1)"},
		{"cube root", "\\sqrt[3]{8}", "∛8"},
		{"text", "\\text{if } x > 0", "if x > 0"},
		{"blackboard", "x \\in \\mathbb{R}", "x ∈ ℝ"},
		{"function", "\\sin x", "sin x"},
		{"spaces collapsed", "  x   +   1 ", "x + 1"},
		{"dictated", "x^2 + 1", "x² + 1"},
		{"escaped braces", "\\{a\\}", "{a}"},
		{"left right", "\\left( x \\right)", "( x )"},
		{"unknown command", "\\foo", "\\foo"},
		{"empty", "", ""},
		{"sum", "\\sum_{i=1}^{n} i", "∑ᵢ₌₁ⁿ i"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Render(tt.in, false)
			if err != nil {
				t.Fatalf("Render(%q) error: %v", tt.in, err)
			}
			if got != tt.want {
				t.Errorf("Render(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestRender_Unbalanced(t *testing.T) {
	for _, in := range []string{"{x", "x}", "\\frac{1}{2", "}{"} {
		_, err := Render(in, false)
		if !errors.Is(err, ErrUnbalanced) {
			t.Errorf("Render(%q) error = %v, want ErrUnbalanced", in, err)
		}
	}
}

func TestRender_DisplayLineBreak(t *testing.T) {
	got, err := Render("a \\\\ b", true)
	if err != nil {
		t.Fatal(err)
	}
	if got != "a\nb" {
		t.Errorf("display = %q, want %q", got, "a\nb")
	}

	got, err = Render("a \\\\ b", false)
	if err != nil {
		t.Fatal(err)
	}
	if got != "a b" {
		t.Errorf("inline = %q, want %q", got, "a b")
	}
}

func TestRenderer_Method(t *testing.T) {
	var r Renderer
	got, err := r.Render("\\pi r^2", false)
	if err != nil {
		t.Fatal(err)
	}
	if got != "π r²" {
		t.Errorf("got %q", got)
	}
}
