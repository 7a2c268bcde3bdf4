// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/jeranaias/ragchat-tui/internal/ui/styles"
)

// =============================================================================
// MICROPHONE PERMISSION PROMPT
// =============================================================================

// MicAnswerMsg carries the user's answer to the microphone prompt.
type MicAnswerMsg struct {
	Allow bool
}

// MicPrompt asks whether voice input may use the microphone.
type MicPrompt struct {
	visible  bool
	selected int // 0=Allow, 1=Deny
	width    int
	height   int

	theme *styles.Theme
}

// Button options
const (
	ButtonAllow = 0
	ButtonDeny  = 1
	ButtonCount = 2
)

// NewMicPrompt creates a hidden prompt.
func NewMicPrompt(theme *styles.Theme) *MicPrompt {
	return &MicPrompt{theme: theme}
}

// Show displays the prompt with Allow selected.
func (p *MicPrompt) Show() {
	p.visible = true
	p.selected = ButtonAllow
}

// Hide hides the prompt without answering.
func (p *MicPrompt) Hide() {
	p.visible = false
}

// IsVisible returns whether the prompt is visible.
func (p *MicPrompt) IsVisible() bool {
	return p.visible
}

// SetSize updates the prompt dimensions.
func (p *MicPrompt) SetSize(width, height int) {
	p.width = width
	p.height = height
}

// Update handles key events. The bool reports whether the key was consumed.
func (p *MicPrompt) Update(msg tea.Msg) (tea.Cmd, bool) {
	if !p.visible {
		return nil, false
	}

	key, ok := msg.(tea.KeyMsg)
	if !ok {
		return nil, false
	}

	switch key.String() {
	case "left", "h", "right", "l", "tab", "shift+tab":
		p.selected = (p.selected + 1) % ButtonCount
		return nil, true
	case "enter", " ":
		return p.answer(p.selected == ButtonAllow), true
	case "y":
		return p.answer(true), true
	case "esc", "n":
		return p.answer(false), true
	}
	// Swallow everything else while the prompt is modal.
	return nil, true
}

func (p *MicPrompt) answer(allow bool) tea.Cmd {
	p.Hide()
	return func() tea.Msg {
		return MicAnswerMsg{Allow: allow}
	}
}

// View renders the prompt centered in the terminal.
func (p *MicPrompt) View() string {
	if !p.visible {
		return ""
	}

	var content strings.Builder
	content.WriteString(p.theme.PromptTitle.Render("Microphone access"))
	content.WriteString("\n\n")
	content.WriteString("ragchat wants to use your microphone for voice input.")
	content.WriteString("\n\n")
	content.WriteString(p.renderButtons())
	content.WriteString("\n\n")
	content.WriteString(p.theme.InputPlaceholder.Render("y=Allow  n=Deny  Tab=Switch"))

	boxWidth := 56
	if p.width > 0 && p.width-4 < boxWidth {
		boxWidth = p.width - 4
	}
	if boxWidth < 30 {
		boxWidth = 30
	}
	box := p.theme.PromptBox.Width(boxWidth).Render(content.String())

	if p.width > 0 && p.height > 0 {
		return lipgloss.Place(p.width, p.height, lipgloss.Center, lipgloss.Center, box)
	}
	return box
}

func (p *MicPrompt) renderButtons() string {
	labels := [ButtonCount]string{"Allow", "Deny"}
	parts := make([]string, 0, ButtonCount)
	for i, label := range labels {
		style := p.theme.Button
		if i == p.selected {
			style = p.theme.ButtonActive
		}
		parts = append(parts, style.Render(label))
	}
	return lipgloss.JoinHorizontal(lipgloss.Center, parts[0], "  ", parts[1])
}
