// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"github.com/jeranaias/ragchat-tui/internal/config"
	"github.com/jeranaias/ragchat-tui/internal/speech"
)

// =============================================================================
// SPEECH MESSAGES
// =============================================================================

// SpeechMsg delivers a recognizer event. The program sends these from the
// recognizer's goroutine.
type SpeechMsg struct {
	Event speech.Event
}

// PermissionPromptMsg asks the chat screen to show the microphone prompt.
type PermissionPromptMsg struct{}

// permissionOutcomeMsg carries the result of a blocking permission request.
type permissionOutcomeMsg struct {
	Outcome speech.PermissionOutcome
}

// =============================================================================
// QUERY MESSAGES
// =============================================================================

// replyMsg carries the result of an exchange. Seq ties it to the submit
// that started it.
type replyMsg struct {
	Seq   uint64
	Reply string
	Err   error
}

// annotateMsg runs the deferred math pass over new replies.
type annotateMsg struct{}

// =============================================================================
// SESSION MESSAGES
// =============================================================================

// LogoutMsg reports that the user logged out. The parent returns to login.
type LogoutMsg struct{}

// ConfigReloadedMsg reports a configuration reload from disk.
type ConfigReloadedMsg struct {
	Config *config.Config
	Err    error
}
