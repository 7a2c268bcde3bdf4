// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

/*
Package styles provides the visual styling system for the ragchat TUI.

All colors use Lip Gloss AdaptiveColor so they follow the terminal background.
The theme mode ("dark", "light", "auto") comes from ui.theme in the config;
auto asks the terminal through termenv.

# Colors (colors.go)

  - Purple: assistant messages and math fragments
  - Cyan: brand, user highlights, info
  - Rose: errors and the listening indicator
  - Amber: warnings and the pending permission prompt

# Theme (theme.go)

Theme groups every lipgloss.Style used by the screens: message bubbles,
rendered reply content (headings, code, math), the compose box, microphone
states, toasts, the permission prompt and the login form.

	theme := styles.NewTheme(cfg.UI.Theme)
	theme.SetSize(width, height)
	out := theme.UserBubble.Width(theme.BubbleWidth()).Render(text)
*/
package styles
