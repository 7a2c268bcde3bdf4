// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package login provides the login screen of the ragchat TUI.
package login

import (
	"context"
	"errors"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"go.uber.org/zap"

	"github.com/jeranaias/ragchat-tui/internal/backend"
	"github.com/jeranaias/ragchat-tui/internal/ui/components"
	"github.com/jeranaias/ragchat-tui/internal/ui/styles"
)

// Toast texts shown when login fails.
const (
	MsgBadCredentials = "Wrong username or password."
	MsgServerError    = "Error connecting to the server. Please try again."
)

// Authenticator exchanges credentials for a token.
type Authenticator interface {
	Login(ctx context.Context, username, password string) (backend.Token, error)
}

// LoggedInMsg reports a successful login. The parent switches to chat.
type LoggedInMsg struct {
	Token string
}

type resultMsg struct {
	token backend.Token
	err   error
}

const (
	fieldUsername = iota
	fieldPassword
)

// =============================================================================
// LOGIN MODEL
// =============================================================================

// Model is the Bubble Tea model of the login screen.
type Model struct {
	theme  *styles.Theme
	auth   Authenticator
	logger *zap.Logger

	username textinput.Model
	password textinput.Model
	focus    int
	showPass bool
	busy     bool

	toasts       *components.ToastManager
	toastTicking bool

	width  int
	height int
}

// New creates the login screen.
func New(theme *styles.Theme, auth Authenticator, logger *zap.Logger) *Model {
	if logger == nil {
		logger = zap.NewNop()
	}

	user := textinput.New()
	user.Placeholder = "Enter your username"
	user.Prompt = ""
	user.CharLimit = 128
	user.Width = 32

	pass := textinput.New()
	pass.Placeholder = "Enter your password"
	pass.Prompt = ""
	pass.CharLimit = 128
	pass.Width = 32
	pass.EchoMode = textinput.EchoPassword
	pass.EchoCharacter = '*'

	return &Model{
		theme:    theme,
		auth:     auth,
		logger:   logger,
		username: user,
		password: pass,
		toasts:   components.NewToastManager(),
	}
}

// Init focuses the username field.
func (m *Model) Init() tea.Cmd {
	m.focus = fieldUsername
	m.password.Blur()
	return m.username.Focus()
}

// Reset clears the form, for example after a logout.
func (m *Model) Reset() tea.Cmd {
	m.username.Reset()
	m.password.Reset()
	m.busy = false
	m.showPass = false
	m.password.EchoMode = textinput.EchoPassword
	return m.Init()
}

// Busy reports whether a login request is in flight.
func (m *Model) Busy() bool {
	return m.busy
}

// =============================================================================
// UPDATE
// =============================================================================

// Update handles a message.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		return m, nil

	case resultMsg:
		return m, m.handleResult(msg)

	case components.ToastTickMsg:
		if msg.Owner != m.toasts {
			return m, nil
		}
		if m.toasts.Tick() {
			return m, m.toasts.TickCmd()
		}
		m.toastTicking = false
		return m, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c":
			return m, tea.Quit
		case "esc":
			m.toasts.DismissNewest()
			return m, nil
		case "ctrl+t":
			m.showPass = !m.showPass
			if m.showPass {
				m.password.EchoMode = textinput.EchoNormal
			} else {
				m.password.EchoMode = textinput.EchoPassword
			}
			return m, nil
		case "tab", "shift+tab", "up", "down":
			return m, m.switchField()
		case "enter":
			if m.focus == fieldUsername {
				return m, m.switchField()
			}
			return m, m.submit()
		}
	}

	var cmd tea.Cmd
	if m.focus == fieldUsername {
		m.username, cmd = m.username.Update(msg)
	} else {
		m.password, cmd = m.password.Update(msg)
	}
	return m, cmd
}

func (m *Model) switchField() tea.Cmd {
	if m.focus == fieldUsername {
		m.focus = fieldPassword
		m.username.Blur()
		return m.password.Focus()
	}
	m.focus = fieldUsername
	m.password.Blur()
	return m.username.Focus()
}

func (m *Model) submit() tea.Cmd {
	if m.busy {
		return nil
	}
	user := strings.TrimSpace(m.username.Value())
	pass := m.password.Value()
	if user == "" || pass == "" {
		return nil
	}

	m.busy = true
	auth := m.auth
	return func() tea.Msg {
		tok, err := auth.Login(context.Background(), user, pass)
		return resultMsg{token: tok, err: err}
	}
}

func (m *Model) handleResult(msg resultMsg) tea.Cmd {
	m.busy = false
	if msg.err == nil {
		m.password.Reset()
		token := msg.token.AccessToken
		return func() tea.Msg { return LoggedInMsg{Token: token} }
	}

	m.logger.Info("login failed", zap.Error(msg.err))
	text := MsgServerError
	var ce *backend.ClientError
	if errors.As(msg.err, &ce) && (ce.Type == backend.ErrTypeUnauthorized || ce.Type == backend.ErrTypeStatus) {
		text = MsgBadCredentials
	}

	m.toasts.AddError(text)
	if m.toastTicking {
		return nil
	}
	m.toastTicking = true
	return m.toasts.TickCmd()
}

// =============================================================================
// VIEW
// =============================================================================

// View renders the login form centered on screen.
func (m *Model) View() string {
	eye := "ctrl+t show"
	if m.showPass {
		eye = "ctrl+t hide"
	}

	button := m.theme.Button.Render("Log in")
	if m.busy {
		button = m.theme.InputDisabled.Render("Logging in...")
	} else if m.focus == fieldPassword {
		button = m.theme.ButtonActive.Render("Log in")
	}

	form := lipgloss.JoinVertical(lipgloss.Left,
		m.theme.LoginTitle.Render("Sign in"),
		m.theme.LoginLabel.Render("Username"),
		m.username.View(),
		"",
		m.theme.LoginLabel.Render("Password")+"  "+m.theme.ShortcutDesc.Render(eye),
		m.password.View(),
		"",
		button,
	)
	box := m.theme.LoginBox.Render(form)

	if toasts := m.toasts.Toasts(); len(toasts) > 0 {
		stack := components.RenderToastStack(m.theme, toasts, m.width, 0, m.toasts.Now())
		box = lipgloss.JoinVertical(lipgloss.Center, box, "", stack)
	}

	if m.width > 0 && m.height > 0 {
		return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, box)
	}
	return box
}
