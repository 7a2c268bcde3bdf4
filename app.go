// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package main

import (
	tea "github.com/charmbracelet/bubbletea"

	"github.com/jeranaias/ragchat-tui/internal/session"
	"github.com/jeranaias/ragchat-tui/internal/ui/chat"
	"github.com/jeranaias/ragchat-tui/internal/ui/components"
	"github.com/jeranaias/ragchat-tui/internal/ui/login"
)

type screen int

const (
	screenLogin screen = iota
	screenChat
)

// =============================================================================
// APP MODEL
// =============================================================================

// app switches between the login and chat screens. The chat screen keeps its
// state across logins; the session is cleared on logout.
type app struct {
	screen screen
	login  *login.Model
	chat   *chat.Model
	sess   *session.ChatSession
}

func newApp(l *login.Model, c *chat.Model, sess *session.ChatSession) *app {
	return &app{
		screen: screenLogin,
		login:  l,
		chat:   c,
		sess:   sess,
	}
}

func (a *app) Init() tea.Cmd {
	return a.login.Init()
}

func (a *app) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg, components.ToastTickMsg:
		// Both screens track the size, and each toast tick names the
		// screen that scheduled it.
		_, lc := a.login.Update(msg)
		_, cc := a.chat.Update(msg)
		return a, tea.Batch(lc, cc)

	case login.LoggedInMsg:
		a.sess.SetToken(msg.Token)
		a.screen = screenChat
		return a, a.chat.Init()

	case chat.LogoutMsg:
		a.screen = screenLogin
		return a, a.login.Reset()

	case chat.SpeechMsg, chat.PermissionPromptMsg, chat.ConfigReloadedMsg:
		_, cmd := a.chat.Update(msg)
		return a, cmd
	}

	if a.screen == screenLogin {
		_, cmd := a.login.Update(msg)
		return a, cmd
	}
	_, cmd := a.chat.Update(msg)
	return a, cmd
}

func (a *app) View() string {
	if a.screen == screenLogin {
		return a.login.View()
	}
	return a.chat.View()
}
