// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/reflow/wordwrap"

	"github.com/jeranaias/ragchat-tui/internal/markup"
	"github.com/jeranaias/ragchat-tui/internal/model"
	"github.com/jeranaias/ragchat-tui/internal/ui/styles"
)

// =============================================================================
// MESSAGE BUBBLE
// =============================================================================

// MessageBubble renders one chat message. User messages show their literal
// text; replies show their rendered document when one is available.
type MessageBubble struct {
	Message *model.Message
	Tree    *markup.Node
	Width   int

	theme *styles.Theme
}

// NewMessageBubble creates a bubble for msg. tree may be nil.
func NewMessageBubble(msg *model.Message, tree *markup.Node, theme *styles.Theme) *MessageBubble {
	return &MessageBubble{
		Message: msg,
		Tree:    tree,
		Width:   80,
		theme:   theme,
	}
}

// SetWidth sets the bubble width.
func (b *MessageBubble) SetWidth(width int) {
	b.Width = width
}

// View renders the bubble with its role label.
func (b *MessageBubble) View() string {
	if b.Message == nil {
		return ""
	}

	contentWidth := b.Width - 10
	if contentWidth < 20 {
		contentWidth = 20
	}

	var body string
	style := b.theme.AssistantBubble
	align := lipgloss.Left

	switch {
	case b.Message.Role == model.RoleUser:
		style = b.theme.UserBubble
		align = lipgloss.Right
		body = wordwrap.String(b.Message.Content, contentWidth)
	case b.Message.IsError:
		style = b.theme.ErrorReply
		body = styles.StatusIndicators.Error + " " + wordwrap.String(b.Message.Content, contentWidth-4)
	case b.Tree != nil:
		body = NewTreeRenderer(b.theme, contentWidth).Render(b.Tree)
	default:
		body = wordwrap.String(b.Message.Content, contentWidth)
	}
	if strings.TrimSpace(body) == "" {
		body = "..."
	}

	label := b.theme.RoleLabel.Render(b.Message.Role.DisplayName() + "  " + b.Message.Timestamp.Format("15:04"))
	bubble := lipgloss.JoinVertical(align, label, style.Render(body))

	return lipgloss.NewStyle().Width(b.Width).Align(align).Render(bubble)
}
