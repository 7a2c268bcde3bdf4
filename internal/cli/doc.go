// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package cli implements the ragchat command line.
//
// # Commands
//
//   - ragchat: full-screen chat client (login, dictation, rendered answers)
//   - ask: one question, answer printed with glamour on a terminal
//   - chat: line-mode conversation with input history
//   - config: show, get, set, reset and locate the configuration
//   - version: build information
//
// Global flags are --verbose, --config and --server. The line-mode commands
// take credentials from --user and --password-stdin, then from
// RAGCHAT_USER and RAGCHAT_PASSWORD, and finally prompt on the terminal.
//
// # Usage
//
//	root := cli.NewRootCommand(runTUI)
//	if err := root.Execute(); err != nil {
//	    cli.DisplayError(os.Stderr, err)
//	    os.Exit(cli.GetExitCode(err))
//	}
package cli
