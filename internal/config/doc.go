// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package config provides unified configuration loading and management for ragchat.
//
// Supports TOML, JSON and YAML configuration formats, with sensible defaults,
// environment variable overrides, validation and live reload.
//
// # Key Types
//
//   - Config: Main configuration structure with all settings
//   - SpeechConfig: dictation language, recognizer command, microphone access
//   - ComposeConfig, AnnotateConfig: input sizing and the bracket math pass
//   - Watcher: fsnotify-based reload of the global config
//
// # Configuration Precedence
//
// Configuration is loaded from (in order of precedence):
//   - Environment variables (RAGCHAT_*)
//   - ~/.ragchat/config.toml
//   - ~/.ragchat/config.json
//   - ~/.ragchat/config.yaml
//   - Built-in defaults
//
// # Usage
//
//	cfg, err := config.Load()
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	lang := cfg.Speech.Language
//	timeout := cfg.Server.Timeout.Std()
package config
