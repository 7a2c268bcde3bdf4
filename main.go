// ragchat - terminal chat client for a question-answering server.
//
// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later
package main

import (
	"fmt"
	"os"
	"sync"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"

	"github.com/jeranaias/ragchat-tui/internal/backend"
	"github.com/jeranaias/ragchat-tui/internal/cli"
	"github.com/jeranaias/ragchat-tui/internal/config"
	"github.com/jeranaias/ragchat-tui/internal/session"
	"github.com/jeranaias/ragchat-tui/internal/speech"
	"github.com/jeranaias/ragchat-tui/internal/texmath"
	"github.com/jeranaias/ragchat-tui/internal/ui/chat"
	"github.com/jeranaias/ragchat-tui/internal/ui/login"
	"github.com/jeranaias/ragchat-tui/internal/ui/styles"
)

// Version information (set at build time)
var (
	Version   = "0.1.0"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

// configDebounce coalesces bursts of writes to the config file.
const configDebounce = 250 * time.Millisecond

// Program reference for messages raised outside the update loop: recognizer
// events, permission prompts and config reloads.
var (
	programRef *tea.Program
	programMu  sync.Mutex
)

func init() {
	cli.Version = Version
	cli.GitCommit = GitCommit
	cli.BuildDate = BuildDate
}

func main() {
	root := cli.NewRootCommand(runTUI)
	if err := root.Execute(); err != nil {
		cli.DisplayError(os.Stderr, err)
		os.Exit(cli.GetExitCode(err))
	}
}

// send delivers msg to the running program. Messages raised before the
// program starts or after it exits are dropped.
func send(msg tea.Msg) {
	programMu.Lock()
	p := programRef
	programMu.Unlock()
	if p != nil {
		p.Send(msg)
	}
}

// =============================================================================
// TUI
// =============================================================================

func runTUI(env *cli.Env) error {
	if !cli.IsTTY() || !cli.IsStdoutTTY() {
		return &cli.TTYRequiredError{Operation: "run the chat screen"}
	}

	cfg := env.Config
	logger := env.Logger
	logger.Info("starting",
		zap.String("version", Version),
		zap.String("server", cfg.Server.URL))

	client := backend.NewClientWithConfig(&backend.ClientConfig{
		BaseURL: cfg.Server.URL,
		Timeout: cfg.Server.Timeout.Std(),
		Logger:  logger.Named("backend"),
	})

	opts := session.Options{
		Backend:    client,
		SpeechSink: func(ev speech.Event) { send(chat.SpeechMsg{Event: ev}) },
		Math:       texmath.Renderer{},
		Logger:     logger.Named("session"),
	}

	var recognizer *speech.CommandRecognizer
	if len(cfg.Speech.Command) > 0 {
		recognizer = speech.NewCommandRecognizer(cfg.Speech.Command, logger.Named("speech"))
		defer recognizer.Close()
		opts.Recognizer = recognizer
	}

	var prompt *speech.PromptPermission
	switch cfg.Speech.Microphone {
	case config.MicrophoneGranted:
		opts.Permission = speech.StaticPermission{Granted: true}
	case config.MicrophoneDenied:
		opts.Permission = speech.StaticPermission{Granted: false}
	default:
		prompt = speech.NewPromptPermission(func() { send(chat.PermissionPromptMsg{}) })
		opts.Permission = prompt
	}

	sess := session.New(session.ConfigFrom(cfg), opts)
	defer sess.Close()

	theme := styles.NewTheme(cfg.UI.Theme)
	app := newApp(
		login.New(theme, client, logger.Named("login")),
		chat.New(theme, chat.Options{
			Session:       sess,
			Permission:    prompt,
			Server:        cfg.Server.URL,
			AnnotateDelay: cfg.Annotate.Delay.Std(),
			Logger:        logger.Named("chat"),
		}),
		sess,
	)

	if env.Watch {
		w, err := config.NewWatcher(configDebounce, func(c *config.Config, err error) {
			send(chat.ConfigReloadedMsg{Config: c, Err: err})
		}, logger.Named("config"))
		if err != nil {
			logger.Warn("config watcher unavailable", zap.Error(err))
		} else if err := w.Watch(); err != nil {
			logger.Warn("config watcher unavailable", zap.Error(err))
			_ = w.Close()
		} else {
			defer w.Close()
		}
	}

	p := tea.NewProgram(app, tea.WithAltScreen(), tea.WithMouseCellMotion())
	programMu.Lock()
	programRef = p
	programMu.Unlock()
	defer func() {
		programMu.Lock()
		programRef = nil
		programMu.Unlock()
	}()

	if _, err := p.Run(); err != nil {
		logger.Error("program exited with error", zap.Error(err))
		return fmt.Errorf("error running ragchat: %w", err)
	}
	logger.Info("exiting")
	return nil
}
