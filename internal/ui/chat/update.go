// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"context"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"

	"github.com/jeranaias/ragchat-tui/internal/speech"
	"github.com/jeranaias/ragchat-tui/internal/ui/components"
)

// =============================================================================
// UPDATE
// =============================================================================

// Update handles a message.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.setSize(msg.Width, msg.Height)

	case tea.KeyMsg:
		cmds = append(cmds, m.handleKey(msg))

	case tea.MouseMsg:
		var cmd tea.Cmd
		m.viewport, cmd = m.viewport.Update(msg)
		cmds = append(cmds, cmd)

	case components.MicAnswerMsg:
		if m.perm != nil && !m.perm.Answer(msg.Allow) {
			m.logger.Debug("microphone answer with no pending request")
		}

	case PermissionPromptMsg:
		m.micPrompt.Show()

	case permissionOutcomeMsg:
		m.cancelPerm = nil
		m.micPrompt.Hide()
		cmds = append(cmds, m.applySpeech(m.sess.ResolvePermission(msg.Outcome)))

	case SpeechMsg:
		cmds = append(cmds, m.applySpeech(m.sess.HandleSpeech(msg.Event)))

	case replyMsg:
		cmds = append(cmds, m.handleReply(msg))

	case annotateMsg:
		if m.sess.AnnotatePending() > 0 {
			m.refreshViewport()
		}

	case ConfigReloadedMsg:
		cmds = append(cmds, m.handleConfigReloaded(msg))

	case components.ToastTickMsg:
		if msg.Owner != m.toasts {
			break
		}
		if m.toasts.Tick() {
			cmds = append(cmds, m.toasts.TickCmd())
		} else {
			m.toastTicking = false
		}

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		cmds = append(cmds, cmd)
	}

	m.layout()
	return m, tea.Batch(cmds...)
}

func (m *Model) handleKey(msg tea.KeyMsg) tea.Cmd {
	if key.Matches(msg, m.keys.Quit) {
		m.Close()
		return tea.Quit
	}

	// The microphone prompt is modal.
	if cmd, handled := m.micPrompt.Update(msg); handled {
		return cmd
	}

	switch {
	case key.Matches(msg, m.keys.Dismiss):
		m.toasts.DismissNewest()
		return nil

	case key.Matches(msg, m.keys.Logout):
		return m.logout()

	case key.Matches(msg, m.keys.Mic):
		return m.toggleMic()

	case key.Matches(msg, m.keys.Submit):
		return m.submit()

	case key.Matches(msg, m.keys.PageUp):
		m.viewport.HalfViewUp()
		return nil

	case key.Matches(msg, m.keys.PageDown):
		m.viewport.HalfViewDown()
		return nil
	}

	cmd := m.compose.Update(msg)
	m.syncDraft()
	return cmd
}

// syncDraft copies typed text into the session and resizes the compose box.
func (m *Model) syncDraft() {
	if m.compose.Value() != m.sess.Draft() {
		m.sess.SetDraft(m.compose.Value())
	}
	m.compose.SetLines(m.sess.DraftLines())
}

// =============================================================================
// SPEECH
// =============================================================================

func (m *Model) toggleMic() tea.Cmd {
	await, err := m.sess.ToggleCapture()
	if err != nil {
		return m.captureFailed(err)
	}
	if !await {
		return nil
	}

	ctx, cancel := context.WithCancel(context.Background())
	m.cancelPerm = cancel
	sess := m.sess
	return func() tea.Msg {
		return permissionOutcomeMsg{Outcome: sess.RequestPermission(ctx)}
	}
}

func (m *Model) applySpeech(u speech.Update) tea.Cmd {
	if u.Ignored {
		return nil
	}
	if u.HasTranscript {
		m.compose.SetValue(m.sess.Draft())
		m.compose.SetLines(m.sess.DraftLines())
	}
	if u.Err != nil {
		return m.captureFailed(u.Err)
	}
	return nil
}

func (m *Model) captureFailed(err error) tea.Cmd {
	text := err.Error()
	if ce, ok := speech.AsCaptureError(err); ok {
		text = ce.Message()
	}
	m.logger.Info("speech capture error", zap.Error(err))
	return m.addToast(components.ToastKindError, text)
}

// =============================================================================
// SUBMIT
// =============================================================================

func (m *Model) submit() tea.Cmd {
	m.syncDraft()
	query, ok := m.sess.BeginSubmit()
	if !ok {
		return nil
	}

	m.compose.Reset()
	m.compose.SetLines(m.sess.DraftLines())

	m.seq++
	seq := m.seq
	m.inflight = seq
	ctx, cancel := context.WithCancel(context.Background())
	m.cancelQuery = cancel

	m.refreshViewport()

	sess := m.sess
	exchange := func() tea.Msg {
		reply, err := sess.Exchange(ctx, query)
		return replyMsg{Seq: seq, Reply: reply, Err: err}
	}
	return tea.Batch(m.spinner.Start(), exchange)
}

func (m *Model) handleReply(msg replyMsg) tea.Cmd {
	if msg.Seq != m.inflight {
		m.logger.Debug("dropping stale reply", zap.Uint64("seq", msg.Seq))
		return nil
	}
	m.inflight = 0
	if m.cancelQuery != nil {
		m.cancelQuery()
		m.cancelQuery = nil
	}
	m.spinner.Stop()

	if m.sess.CompleteSubmit(msg.Reply, msg.Err) == nil {
		return nil
	}
	m.refreshViewport()

	return tea.Tick(m.annotateDelay, func(time.Time) tea.Msg {
		return annotateMsg{}
	})
}

// =============================================================================
// SESSION
// =============================================================================

func (m *Model) logout() tea.Cmd {
	m.cancelBackground()
	m.sess.Logout()
	m.inflight = 0
	m.spinner.Stop()
	m.compose.Reset()
	m.compose.SetLines(m.sess.DraftLines())
	m.micPrompt.Hide()
	if m.perm != nil {
		m.perm.Revoke()
	}
	m.toasts.Clear()
	m.refreshViewport()

	return func() tea.Msg { return LogoutMsg{} }
}

func (m *Model) handleConfigReloaded(msg ConfigReloadedMsg) tea.Cmd {
	if msg.Err != nil {
		return m.addToast(components.ToastKindError, "Configuration not reloaded: "+msg.Err.Error())
	}
	// The server and speech settings are bound at startup; only the
	// annotate delay applies live.
	if msg.Config != nil {
		if d := msg.Config.Annotate.Delay.Std(); d > 0 {
			m.annotateDelay = d
		}
	}
	return m.addToast(components.ToastKindInfo, "Configuration reloaded")
}

func (m *Model) addToast(kind components.ToastKind, text string) tea.Cmd {
	m.toasts.Add(kind, text)
	if m.toastTicking {
		return nil
	}
	m.toastTicking = true
	return m.toasts.TickCmd()
}
