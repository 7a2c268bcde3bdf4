// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package model contains the data structures for conversations and messages.
//
// # Key Types
//
//   - Conversation: append-only, in-memory message history
//   - Message: single message with role, content and timestamp
//   - Role: user or assistant
//
// # Usage
//
//	conv := model.NewConversation()
//	conv.AddUserMessage("What is [x^2] at x = 3?")
//	conv.AddAssistantMessage("It is 9.")
package model
