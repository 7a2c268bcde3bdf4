// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/jeranaias/ragchat-tui/internal/ui/styles"
	"github.com/jeranaias/ragchat-tui/internal/util"
)

// =============================================================================
// HEADER
// =============================================================================

// Header is the single-line title bar of the chat screen.
type Header struct {
	Title  string
	Server string
	Width  int

	theme *styles.Theme
}

// NewHeader creates a header.
func NewHeader(theme *styles.Theme) *Header {
	return &Header{
		Title: "ragchat",
		theme: theme,
	}
}

// SetWidth sets the header width.
func (h *Header) SetWidth(width int) {
	h.Width = width
}

// SetServer sets the server shown on the right.
func (h *Header) SetServer(server string) {
	h.Server = server
}

// View renders the header. The server is truncated before the title is.
func (h *Header) View() string {
	width := h.Width
	if width < 20 {
		width = 20
	}
	inner := width - 2

	title := h.theme.HeaderTitle.Render(h.Title)
	titleWidth := lipgloss.Width(title)

	right := ""
	if room := inner - titleWidth - 2; room > 3 && h.Server != "" {
		right = h.theme.ShortcutDesc.Render(util.TruncateWidth(h.Server, room))
	}

	gap := inner - titleWidth - lipgloss.Width(right)
	if gap < 1 {
		gap = 1
	}
	return h.theme.Header.Width(width).Render(title + strings.Repeat(" ", gap) + right)
}
