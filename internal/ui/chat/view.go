// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/jeranaias/ragchat-tui/internal/model"
	"github.com/jeranaias/ragchat-tui/internal/ui/components"
)

const emptyHint = "Ask a question. Press ctrl+r to dictate, alt+enter for a new line."

// =============================================================================
// LAYOUT
// =============================================================================

func (m *Model) setSize(width, height int) {
	m.width = width
	m.height = height
	m.theme.SetSize(width, height)

	m.header.SetWidth(width)
	m.status.SetWidth(width)
	m.micPrompt.SetSize(width, height)
	m.compose.SetWidth(width)
	m.viewport.Width = width

	m.sess.SetWidth(m.compose.TextWidth())
	m.compose.SetLines(m.sess.DraftLines())
	m.refreshViewport()
}

// layout gives the viewport whatever height the fixed rows leave.
func (m *Model) layout() {
	if m.height == 0 {
		return
	}
	used := 1 + 1 // header, status bar
	used += m.compose.Lines() + 1
	if m.spinner.IsActive() {
		used++
	}
	if toasts := m.toastView(); toasts != "" {
		used += lipgloss.Height(toasts)
	}

	h := m.height - used
	if h < 1 {
		h = 1
	}
	atBottom := m.viewport.AtBottom()
	m.viewport.Height = h
	if atBottom {
		m.viewport.GotoBottom()
	}
}

// refreshViewport rebuilds the message list.
func (m *Model) refreshViewport() {
	msgs := m.sess.Messages()
	if len(msgs) == 0 {
		m.viewport.SetContent(m.theme.InputPlaceholder.Render(emptyHint))
		return
	}

	parts := make([]string, 0, len(msgs))
	for _, msg := range msgs {
		parts = append(parts, m.renderMessage(msg))
	}
	m.viewport.SetContent(strings.Join(parts, "\n\n"))
	m.viewport.GotoBottom()
}

func (m *Model) renderMessage(msg *model.Message) string {
	var b *components.MessageBubble
	if view, ok := m.sess.View(msg.ID); ok {
		b = components.NewMessageBubble(msg, view.Tree, m.theme)
	} else {
		b = components.NewMessageBubble(msg, nil, m.theme)
	}
	if m.width > 0 {
		b.SetWidth(m.width)
	}
	return b.View()
}

// =============================================================================
// VIEW
// =============================================================================

// View renders the chat screen.
func (m *Model) View() string {
	if m.micPrompt.IsVisible() {
		return m.micPrompt.View()
	}

	m.status.Phase = m.sess.CapturePhase()
	m.status.Loading = m.sess.Loading()
	m.compose.SetDisabled(!m.sess.CanSubmit())

	rows := []string{m.header.View(), m.viewport.View()}
	if toasts := m.toastView(); toasts != "" {
		rows = append(rows, toasts)
	}
	if m.spinner.IsActive() {
		rows = append(rows, m.spinner.View(m.theme))
	}
	rows = append(rows, m.compose.View(), m.status.View())

	return lipgloss.JoinVertical(lipgloss.Left, rows...)
}

func (m *Model) toastView() string {
	toasts := m.toasts.Toasts()
	if len(toasts) == 0 {
		return ""
	}
	stack := components.RenderToastStack(m.theme, toasts, m.width, 0, m.toasts.Now())
	if m.width > 0 {
		return lipgloss.PlaceHorizontal(m.width, lipgloss.Right, stack)
	}
	return stack
}
