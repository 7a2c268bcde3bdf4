// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package main

import (
	"context"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jeranaias/ragchat-tui/internal/backend"
	"github.com/jeranaias/ragchat-tui/internal/session"
	"github.com/jeranaias/ragchat-tui/internal/texmath"
	"github.com/jeranaias/ragchat-tui/internal/ui/chat"
	"github.com/jeranaias/ragchat-tui/internal/ui/components"
	"github.com/jeranaias/ragchat-tui/internal/ui/login"
	"github.com/jeranaias/ragchat-tui/internal/ui/styles"
)

type stubServer struct{}

func (stubServer) Login(ctx context.Context, username, password string) (backend.Token, error) {
	return backend.Token{AccessToken: "tok", TokenType: "bearer"}, nil
}

func (stubServer) Query(ctx context.Context, token, query string) (string, error) {
	return "ok", nil
}

func newTestApp(t *testing.T) *app {
	t.Helper()
	theme := styles.NewTheme("dark")
	sess := session.New(session.DefaultConfig(), session.Options{
		Backend: stubServer{},
		Math:    texmath.Renderer{},
	})
	t.Cleanup(sess.Close)

	a := newApp(
		login.New(theme, stubServer{}, nil),
		chat.New(theme, chat.Options{Session: sess}),
		sess,
	)
	a.Init()
	a.Update(tea.WindowSizeMsg{Width: 100, Height: 30})
	return a
}

func TestApp_LoginThenLogout(t *testing.T) {
	a := newTestApp(t)
	assert.Equal(t, screenLogin, a.screen)
	assert.Contains(t, a.View(), "Sign in")

	a.Update(login.LoggedInMsg{Token: "tok"})
	assert.Equal(t, screenChat, a.screen)
	assert.True(t, a.sess.LoggedIn())
	assert.Contains(t, a.View(), "ragchat")

	a.Update(chat.LogoutMsg{})
	assert.Equal(t, screenLogin, a.screen)
}

func TestApp_ToastTicksReachTheirOwner(t *testing.T) {
	a := newTestApp(t)
	a.chat.Toasts().AddInfo("hello")

	// The chat screen is hidden but its toast still counts down.
	_, cmd := a.Update(components.ToastTickMsg{Time: time.Now(), Owner: a.chat.Toasts()})
	require.NotNil(t, cmd)

	a.chat.Toasts().Clear()
	_, cmd = a.Update(components.ToastTickMsg{Time: time.Now(), Owner: a.chat.Toasts()})
	assert.Nil(t, cmd)
}
