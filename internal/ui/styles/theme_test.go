// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package styles

import (
	"strings"
	"testing"
)

func TestNewTheme_ExplicitModes(t *testing.T) {
	if !NewTheme("dark").IsDark {
		t.Error("dark theme should report IsDark")
	}
	if NewTheme("LIGHT").IsDark {
		t.Error("light theme should not report IsDark")
	}
}

func TestThemeStylesRender(t *testing.T) {
	theme := NewTheme("dark")

	for name, out := range map[string]string{
		"user":      theme.UserBubble.Render("hi"),
		"assistant": theme.AssistantBubble.Render("hi"),
		"math":      theme.Math.Render("x²"),
		"toast":     theme.ToastError.Render("boom"),
	} {
		if !strings.Contains(out, "hi") && !strings.Contains(out, "x²") && !strings.Contains(out, "boom") {
			t.Errorf("%s style lost its content: %q", name, out)
		}
	}
}

func TestBubbleWidth(t *testing.T) {
	theme := NewTheme("dark")

	theme.SetSize(100, 40)
	if got := theme.BubbleWidth(); got != 90 {
		t.Errorf("BubbleWidth() = %d, want 90", got)
	}

	theme.SetSize(10, 40)
	if got := theme.BubbleWidth(); got != 20 {
		t.Errorf("BubbleWidth() on a narrow terminal = %d, want 20", got)
	}
}

func TestRenderIndicators(t *testing.T) {
	if !strings.Contains(RenderError("failed"), StatusIndicators.Error) {
		t.Error("RenderError should include the error indicator")
	}
	if !strings.Contains(RenderInfo("note"), StatusIndicators.Info) {
		t.Error("RenderInfo should include the info indicator")
	}
}
