// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package styles

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
)

// Theme holds all the styled components for the application.
// It detects the terminal's color capability and adjusts accordingly.
type Theme struct {
	// Terminal capabilities
	IsDark       bool
	HasTrueColor bool
	ColorProfile termenv.Profile

	// Layout dimensions
	Width  int
	Height int

	// ==========================================================================
	// HEADER / STATUS
	// ==========================================================================

	Header       lipgloss.Style
	HeaderTitle  lipgloss.Style
	StatusBar    lipgloss.Style
	ShortcutKey  lipgloss.Style
	ShortcutDesc lipgloss.Style

	// ==========================================================================
	// MESSAGES
	// ==========================================================================

	UserBubble      lipgloss.Style
	AssistantBubble lipgloss.Style
	ErrorReply      lipgloss.Style
	RoleLabel       lipgloss.Style

	// ==========================================================================
	// RENDERED REPLY CONTENT
	// ==========================================================================

	Heading    lipgloss.Style
	Strong     lipgloss.Style
	Emphasis   lipgloss.Style
	Strike     lipgloss.Style
	Link       lipgloss.Style
	InlineCode lipgloss.Style
	CodeBlock  lipgloss.Style
	Quote      lipgloss.Style
	Math       lipgloss.Style
	MathBlock  lipgloss.Style
	Rule       lipgloss.Style

	// ==========================================================================
	// INPUT
	// ==========================================================================

	InputContainer   lipgloss.Style
	InputPrompt      lipgloss.Style
	InputPlaceholder lipgloss.Style
	InputDisabled    lipgloss.Style

	// ==========================================================================
	// MICROPHONE
	// ==========================================================================

	MicIdle      lipgloss.Style
	MicPending   lipgloss.Style
	MicListening lipgloss.Style
	MicError     lipgloss.Style

	// ==========================================================================
	// SPINNER
	// ==========================================================================

	Spinner      lipgloss.Style
	ThinkingText lipgloss.Style

	// ==========================================================================
	// TOASTS / PROMPTS / LOGIN
	// ==========================================================================

	ToastError   lipgloss.Style
	ToastInfo    lipgloss.Style
	ToastBar     lipgloss.Style
	PromptBox    lipgloss.Style
	PromptTitle  lipgloss.Style
	Button       lipgloss.Style
	ButtonActive lipgloss.Style
	LoginBox     lipgloss.Style
	LoginTitle   lipgloss.Style
	LoginLabel   lipgloss.Style

	ErrorStyle lipgloss.Style
	InfoStyle  lipgloss.Style
}

// NewTheme creates a theme for mode "dark", "light" or "auto". Auto asks the
// terminal for its background.
func NewTheme(mode string) *Theme {
	colorProfile := termenv.ColorProfile()

	var isDark bool
	switch strings.ToLower(mode) {
	case "light":
		isDark = false
	case "dark":
		isDark = true
	default:
		isDark = termenv.HasDarkBackground()
	}
	lipgloss.SetHasDarkBackground(isDark)

	t := &Theme{
		IsDark:       isDark,
		HasTrueColor: colorProfile == termenv.TrueColor,
		ColorProfile: colorProfile,
	}
	t.initStyles()
	return t
}

// initStyles initializes all the lip gloss styles.
func (t *Theme) initStyles() {
	// Header / status
	t.Header = lipgloss.NewStyle().
		Bold(true).
		Foreground(Cyan).
		Background(SurfaceDim).
		Padding(0, 1)

	t.HeaderTitle = lipgloss.NewStyle().
		Bold(true).
		Foreground(Purple)

	t.StatusBar = lipgloss.NewStyle().
		Background(SurfaceDim).
		Foreground(TextSecondary).
		Padding(0, 1)

	t.ShortcutKey = lipgloss.NewStyle().
		Foreground(Cyan).
		Bold(true)

	t.ShortcutDesc = lipgloss.NewStyle().
		Foreground(TextMuted)

	// Message bubbles
	t.UserBubble = lipgloss.NewStyle().
		Foreground(UserBubbleFg).
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(UserBubbleBorder).
		Padding(0, 1).
		MarginLeft(4)

	t.AssistantBubble = lipgloss.NewStyle().
		Foreground(AssistantBubbleFg).
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(AssistantBubbleBorder).
		Padding(0, 1).
		MarginRight(4)

	t.ErrorReply = t.AssistantBubble.
		Foreground(ErrorReplyFg).
		BorderForeground(Rose)

	t.RoleLabel = lipgloss.NewStyle().
		Foreground(TextMuted).
		Italic(true)

	// Reply content
	t.Heading = lipgloss.NewStyle().Bold(true).Foreground(Purple)
	t.Strong = lipgloss.NewStyle().Bold(true)
	t.Emphasis = lipgloss.NewStyle().Italic(true)
	t.Strike = lipgloss.NewStyle().Strikethrough(true)
	t.Link = lipgloss.NewStyle().Foreground(Cyan).Underline(true)
	t.InlineCode = lipgloss.NewStyle().Foreground(Amber).Background(CodeBg)
	t.CodeBlock = lipgloss.NewStyle().
		Background(CodeBg).
		BorderStyle(lipgloss.NormalBorder()).
		BorderLeft(true).
		BorderForeground(Overlay).
		PaddingLeft(1)
	t.Quote = lipgloss.NewStyle().
		Foreground(TextSecondary).
		BorderStyle(lipgloss.NormalBorder()).
		BorderLeft(true).
		BorderForeground(Purple).
		PaddingLeft(1)
	t.Math = lipgloss.NewStyle().Foreground(Purple).Italic(true)
	t.MathBlock = t.Math.PaddingLeft(4)
	t.Rule = lipgloss.NewStyle().Foreground(Overlay)

	// Input
	t.InputContainer = lipgloss.NewStyle().
		BorderStyle(lipgloss.NormalBorder()).
		BorderTop(true).
		BorderForeground(Overlay).
		Padding(0, 1)

	t.InputPrompt = lipgloss.NewStyle().
		Foreground(Cyan).
		Bold(true)

	t.InputPlaceholder = lipgloss.NewStyle().
		Foreground(TextMuted).
		Italic(true)

	t.InputDisabled = lipgloss.NewStyle().
		Foreground(TextMuted)

	// Microphone
	t.MicIdle = lipgloss.NewStyle().Foreground(TextMuted)
	t.MicPending = lipgloss.NewStyle().Foreground(Amber).Bold(true)
	t.MicListening = lipgloss.NewStyle().Foreground(Rose).Bold(true)
	t.MicError = lipgloss.NewStyle().Foreground(Rose)

	// Spinner
	t.Spinner = lipgloss.NewStyle().Foreground(Purple)
	t.ThinkingText = lipgloss.NewStyle().Foreground(TextSecondary).Italic(true)

	// Toasts / prompts / login
	t.ToastError = lipgloss.NewStyle().
		Foreground(Rose).
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(Rose).
		Padding(0, 1)

	t.ToastInfo = t.ToastError.
		Foreground(Cyan).
		BorderForeground(Cyan)

	t.ToastBar = lipgloss.NewStyle().Foreground(TextMuted)

	t.PromptBox = lipgloss.NewStyle().
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(Amber).
		Padding(1, 2)

	t.PromptTitle = lipgloss.NewStyle().
		Bold(true).
		Foreground(Amber)

	t.Button = lipgloss.NewStyle().
		Foreground(TextSecondary).
		Padding(0, 2)

	t.ButtonActive = lipgloss.NewStyle().
		Foreground(SurfaceDim).
		Background(Cyan).
		Bold(true).
		Padding(0, 2)

	t.LoginBox = lipgloss.NewStyle().
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(Purple).
		Padding(1, 3)

	t.LoginTitle = lipgloss.NewStyle().
		Bold(true).
		Foreground(Purple).
		MarginBottom(1)

	t.LoginLabel = lipgloss.NewStyle().
		Foreground(TextSecondary)

	t.ErrorStyle = lipgloss.NewStyle().Foreground(Rose).Bold(true)
	t.InfoStyle = lipgloss.NewStyle().Foreground(Cyan).Bold(true)
}

// SetSize updates the theme dimensions for responsive layouts.
func (t *Theme) SetSize(width, height int) {
	t.Width = width
	t.Height = height
}

// BubbleWidth is the content width available to a message bubble.
func (t *Theme) BubbleWidth() int {
	w := t.Width - 10
	if w < 20 {
		w = 20
	}
	return w
}
