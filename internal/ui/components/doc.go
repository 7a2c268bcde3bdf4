// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

/*
Package components provides the reusable UI pieces of the ragchat TUI.

Components are plain structs with View methods and, where they take input,
an Update method in the Bubble Tea style. They hold no chat state of their
own; the screens in ui/chat and ui/login own the session and feed the
components what to draw.

# Components

  - Header (header.go) and StatusBar (statusbar.go): title line and the
    microphone indicator with key hints.
  - ComposeBox (input.go): multi-line message input whose height follows
    the draft geometry.
  - MessageBubble (message.go): a chat message; replies are drawn from
    their rendered document by TreeRenderer (tree.go), with code blocks
    highlighted by Chroma (codeblock.go).
  - MicPrompt (permission.go): the modal microphone permission question.
  - ToastManager (toast.go): transient notifications with a countdown bar.
  - Spinner (spinner.go): the "Thinking" indicator.
*/
package components
