// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/jeranaias/ragchat-tui/internal/speech"
	"github.com/jeranaias/ragchat-tui/internal/ui/styles"
)

// =============================================================================
// STATUS BAR
// =============================================================================

// StatusBar is the bottom line of the chat screen: the microphone state on
// the left and key hints on the right.
type StatusBar struct {
	Width     int
	Phase     speech.Phase
	Supported bool
	Loading   bool

	theme *styles.Theme
}

// NewStatusBar creates a status bar.
func NewStatusBar(theme *styles.Theme) *StatusBar {
	return &StatusBar{theme: theme, Supported: true}
}

// SetWidth sets the status bar width.
func (s *StatusBar) SetWidth(width int) {
	s.Width = width
}

// MicLabel returns the microphone indicator text for a phase.
func MicLabel(phase speech.Phase, supported bool) string {
	if !supported {
		return "mic: unavailable"
	}
	switch phase {
	case speech.PhaseRequestingPermission:
		return "mic: waiting for permission"
	case speech.PhaseListening:
		return "mic: listening"
	case speech.PhaseError:
		return "mic: error"
	}
	return "mic: off"
}

func (s *StatusBar) micStyle() lipgloss.Style {
	switch s.Phase {
	case speech.PhaseRequestingPermission:
		return s.theme.MicPending
	case speech.PhaseListening:
		return s.theme.MicListening
	case speech.PhaseError:
		return s.theme.MicError
	}
	return s.theme.MicIdle
}

// View renders the status bar, dropping hints that do not fit.
func (s *StatusBar) View() string {
	width := s.Width
	if width < 20 {
		width = 20
	}
	inner := width - 2

	left := s.micStyle().Render(MicLabel(s.Phase, s.Supported))

	hints := []string{"enter send", "alt+enter newline", "ctrl+r mic", "ctrl+l logout", "ctrl+c quit"}
	if s.Loading {
		hints[0] = "enter (waiting)"
	}

	var right string
	for len(hints) > 0 {
		right = s.renderHints(hints)
		if lipgloss.Width(left)+lipgloss.Width(right)+1 <= inner {
			break
		}
		hints = hints[:len(hints)-1]
		right = ""
	}

	gap := inner - lipgloss.Width(left) - lipgloss.Width(right)
	if gap < 1 {
		gap = 1
	}
	return s.theme.StatusBar.Width(width).Render(left + strings.Repeat(" ", gap) + right)
}

func (s *StatusBar) renderHints(hints []string) string {
	parts := make([]string, 0, len(hints))
	for _, h := range hints {
		key, desc, _ := strings.Cut(h, " ")
		parts = append(parts, s.theme.ShortcutKey.Render(key)+" "+s.theme.ShortcutDesc.Render(desc))
	}
	return strings.Join(parts, "  ")
}
