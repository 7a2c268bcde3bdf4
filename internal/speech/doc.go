// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package speech turns a microphone stream into editable text.
//
// The Controller is a small state machine over three pieces of state: the
// phase shown to the user, the state the user asked for (desired), and the
// platform recognition session. Keeping desired separate from the session is
// what makes auto-restart work: when a recognizer ends on its own while the
// user still wants to listen, the controller starts a fresh session.
//
// Every session gets a new generation number and every event carries the
// generation of the session that produced it, so late events from a stopped
// session are dropped instead of corrupting the current one.
//
// # Lifecycle
//
//	await, err := ctrl.Toggle()           // Idle -> RequestingPermission
//	outcome := ctrl.RequestPermission(ctx) // blocks, no state change
//	update := ctrl.ResolvePermission(outcome)
//	...
//	update = ctrl.Handle(event)           // events routed back from the sink
//
// # Collaborators
//
//   - Recognizer: the speech-to-text engine. CommandRecognizer runs an
//     external process that writes JSON lines.
//   - Permission: microphone access. StaticPermission answers from config,
//     PromptPermission waits for the user.
package speech
