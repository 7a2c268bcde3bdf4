// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"context"
	"time"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"

	"github.com/jeranaias/ragchat-tui/internal/session"
	"github.com/jeranaias/ragchat-tui/internal/speech"
	"github.com/jeranaias/ragchat-tui/internal/ui/components"
	"github.com/jeranaias/ragchat-tui/internal/ui/styles"
)

// DefaultAnnotateDelay is the pause between a reply appearing and its
// bracketed math being rendered.
const DefaultAnnotateDelay = 100 * time.Millisecond

// =============================================================================
// CHAT MODEL
// =============================================================================

// Options configures the chat screen.
type Options struct {
	Session *session.ChatSession

	// Permission is answered by the microphone prompt. Nil when access is
	// decided by configuration.
	Permission *speech.PromptPermission

	Server        string
	AnnotateDelay time.Duration
	Logger        *zap.Logger
}

// Model is the Bubble Tea model of the chat screen.
type Model struct {
	theme  *styles.Theme
	sess   *session.ChatSession
	perm   *speech.PromptPermission
	logger *zap.Logger
	keys   KeyMap

	annotateDelay time.Duration

	// Dimensions
	width  int
	height int

	// UI Components
	viewport  viewport.Model
	compose   *components.ComposeBox
	header    *components.Header
	status    *components.StatusBar
	micPrompt *components.MicPrompt
	toasts    *components.ToastManager
	spinner   components.Spinner

	toastTicking bool

	// In-flight query; inflight is 0 when none.
	seq         uint64
	inflight    uint64
	cancelQuery context.CancelFunc

	cancelPerm context.CancelFunc
}

// New creates the chat screen.
func New(theme *styles.Theme, opts Options) *Model {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	delay := opts.AnnotateDelay
	if delay <= 0 {
		delay = DefaultAnnotateDelay
	}

	m := &Model{
		theme:         theme,
		sess:          opts.Session,
		perm:          opts.Permission,
		logger:        logger,
		keys:          DefaultKeyMap(),
		annotateDelay: delay,
		viewport:      viewport.New(80, 20),
		compose:       components.NewComposeBox(theme),
		header:        components.NewHeader(theme),
		status:        components.NewStatusBar(theme),
		micPrompt:     components.NewMicPrompt(theme),
		toasts:        components.NewToastManager(),
		spinner:       components.NewSpinner(),
	}
	m.header.SetServer(opts.Server)
	m.status.Supported = m.sess.SpeechSupported()
	m.refreshViewport()
	return m
}

// Init focuses the compose box.
func (m *Model) Init() tea.Cmd {
	return m.compose.Focus()
}

// Toasts exposes the notification stack so the parent can raise toasts.
func (m *Model) Toasts() *components.ToastManager {
	return m.toasts
}

// Close cancels background work and stops capture.
func (m *Model) Close() {
	m.cancelBackground()
	m.sess.Close()
}

func (m *Model) cancelBackground() {
	if m.cancelQuery != nil {
		m.cancelQuery()
		m.cancelQuery = nil
	}
	if m.cancelPerm != nil {
		m.cancelPerm()
		m.cancelPerm = nil
	}
}
