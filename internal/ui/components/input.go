// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textarea"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/jeranaias/ragchat-tui/internal/ui/styles"
)

// =============================================================================
// COMPOSE BOX
// =============================================================================

// ComposeBox is the multi-line message input. Its height is set by the
// caller from the draft geometry; Enter is left to the caller for submit.
type ComposeBox struct {
	input    textarea.Model
	width    int
	lines    int
	disabled bool
	theme    *styles.Theme
}

// NewComposeBox creates a one-line compose box.
func NewComposeBox(theme *styles.Theme) *ComposeBox {
	ta := textarea.New()
	ta.Placeholder = "Type your message..."
	ta.Prompt = "> "
	ta.ShowLineNumbers = false
	ta.CharLimit = 0
	ta.SetHeight(1)

	ta.KeyMap.InsertNewline = key.NewBinding(
		key.WithKeys("alt+enter", "ctrl+j"),
		key.WithHelp("alt+enter", "newline"),
	)

	ta.FocusedStyle.Prompt = theme.InputPrompt
	ta.FocusedStyle.Placeholder = theme.InputPlaceholder
	ta.FocusedStyle.CursorLine = ta.FocusedStyle.CursorLine.UnsetBackground()
	ta.BlurredStyle.Prompt = theme.InputDisabled
	ta.BlurredStyle.Placeholder = theme.InputPlaceholder
	ta.BlurredStyle.Text = theme.InputDisabled

	return &ComposeBox{
		input: ta,
		width: 80,
		lines: 1,
		theme: theme,
	}
}

// Focus focuses the input.
func (c *ComposeBox) Focus() tea.Cmd {
	return c.input.Focus()
}

// Blur removes focus from the input.
func (c *ComposeBox) Blur() {
	c.input.Blur()
}

// Focused returns whether the input is focused.
func (c *ComposeBox) Focused() bool {
	return c.input.Focused()
}

// Value returns the current text.
func (c *ComposeBox) Value() string {
	return c.input.Value()
}

// SetValue replaces the text and moves the cursor to the end.
func (c *ComposeBox) SetValue(v string) {
	if v == c.input.Value() {
		return
	}
	c.input.SetValue(v)
	c.input.CursorEnd()
}

// Reset clears the text.
func (c *ComposeBox) Reset() {
	c.input.Reset()
}

// SetWidth sets the outer width of the box.
func (c *ComposeBox) SetWidth(width int) {
	c.width = width
	inner := width - 2
	if inner < 10 {
		inner = 10
	}
	c.input.SetWidth(inner)
}

// TextWidth is the wrap width of the text area, used to measure the draft.
func (c *ComposeBox) TextWidth() int {
	w := c.input.Width() - len(c.input.Prompt)
	if w < 1 {
		w = 1
	}
	return w
}

// SetLines sets the visible height in lines.
func (c *ComposeBox) SetLines(lines int) {
	if lines < 1 {
		lines = 1
	}
	c.lines = lines
	c.input.SetHeight(lines)
}

// Lines returns the visible height in lines.
func (c *ComposeBox) Lines() int {
	return c.lines
}

// SetDisabled marks the box as unable to submit. Editing stays possible.
func (c *ComposeBox) SetDisabled(disabled bool) {
	c.disabled = disabled
}

// Update forwards a message to the text area.
func (c *ComposeBox) Update(msg tea.Msg) tea.Cmd {
	var cmd tea.Cmd
	c.input, cmd = c.input.Update(msg)
	return cmd
}

// View renders the box.
func (c *ComposeBox) View() string {
	style := c.theme.InputContainer.Width(c.width)
	if c.disabled {
		style = style.BorderForeground(styles.Amber)
	}
	return style.Render(c.input.View())
}
