// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package session orchestrates one logged-in chat: the conversation, the
// compose buffer, speech capture and the reply pipeline.
//
// # Key Types
//
//   - ChatSession: the orchestrator, independent of any UI toolkit
//   - View: rendered (and later annotated) tree of an assistant reply
//   - Backend: the query collaborator, satisfied by *backend.Client
//
// # Submit Flow
//
//	query, ok := s.BeginSubmit()        // on the UI loop
//	reply, err := s.Exchange(ctx, query) // off the UI loop
//	msg := s.CompleteSubmit(reply, err)  // back on the UI loop
//	// after annotate.delay:
//	s.AnnotatePending()
//
// Dictation and submission are mutually exclusive: CanSubmit is false while
// capture is listening or waiting for microphone permission, and
// ToggleCapture is ignored while a query is in flight.
package session
