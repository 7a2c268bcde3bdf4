// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

/*
Package chat provides the chat screen of the ragchat TUI.

The screen is a thin Bubble Tea layer over session.ChatSession: keys and
recognizer events go into the session, and the view draws what the session
holds.

# Flow

Enter submits the draft. The exchange runs as a command and comes back as a
reply message tagged with a sequence number, so replies to a query started
before a logout are dropped. After a reply is shown a short timer runs the
bracket math pass and the reply is redrawn.

Ctrl+R toggles dictation. When microphone access must be asked for, the
blocking permission request runs as a command while the microphone prompt
is shown; the prompt's answer unblocks it. Recognizer events arrive as
SpeechMsg values sent by the program from the recognizer goroutine, and a
transcript replaces the draft.

Errors reach the user as toasts that expire after five seconds.
*/
package chat
