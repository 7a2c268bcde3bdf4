// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"fmt"
	"io"
	"runtime"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/jeranaias/ragchat-tui/internal/config"
	"github.com/jeranaias/ragchat-tui/internal/logging"
)

// Version information, set by main from build flags.
var (
	Version   = "dev"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

// =============================================================================
// ENVIRONMENT
// =============================================================================

// Env is what every command runs with. It is built once per invocation by
// the root command before any subcommand runs.
type Env struct {
	Config  *config.Config
	Logger  *zap.Logger
	Verbose bool

	// Watch is false when the config was given with --config; the watcher
	// only follows the config directory.
	Watch bool
}

// TUIFunc runs the full-screen client.
type TUIFunc func(env *Env) error

type globals struct {
	verbose    bool
	configPath string
	server     string

	env *Env
}

// load resolves the configuration and builds the logger. The TUI owns the
// terminal, so only line-mode commands may log to stderr.
func (g *globals) load(cmd *cobra.Command) error {
	var cfg *config.Config
	watch := true
	if g.configPath != "" {
		loaded, err := config.LoadFromPath(g.configPath)
		if err != nil {
			return err
		}
		config.SetGlobal(loaded)
		cfg = loaded
		watch = false
	} else {
		cfg = config.Global()
	}

	if g.server != "" {
		cfg = cfg.Clone()
		cfg.Server.URL = g.server
	}

	stderr := g.verbose && cmd.Root() != cmd
	g.env = &Env{
		Config:  cfg,
		Logger:  logging.NewOrNop(cfg.Log, logging.Options{Verbose: g.verbose, Stderr: stderr}),
		Verbose: g.verbose,
		Watch:   watch,
	}
	return nil
}

// =============================================================================
// ROOT COMMAND
// =============================================================================

// NewRootCommand builds the ragchat command tree. Running ragchat without a
// subcommand starts the TUI through tui.
func NewRootCommand(tui TUIFunc) *cobra.Command {
	g := &globals{}

	root := &cobra.Command{
		Use:   "ragchat",
		Short: "Terminal client for a question-answering server",
		Long: `ragchat is a chat client for a retrieval question-answering server.

Log in, ask questions by typing or dictating, and read answers rendered as
markdown with bracketed math such as [x^2 + 1] shown as formulas.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return g.load(cmd)
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if g.env != nil && g.env.Logger != nil {
				_ = g.env.Logger.Sync()
			}
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return tui(g.env)
		},
	}

	root.PersistentFlags().BoolVarP(&g.verbose, "verbose", "v", false, "Enable debug logging")
	root.PersistentFlags().StringVarP(&g.configPath, "config", "c", "", "Config file (default: ~/.ragchat/config.toml)")
	root.PersistentFlags().StringVar(&g.server, "server", "", "Server URL (overrides server.url)")

	root.AddCommand(
		newAskCommand(g),
		newChatCommand(g),
		newConfigCommand(g),
		newVersionCommand(),
	)
	return root
}

// =============================================================================
// VERSION
// =============================================================================

func newVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			printVersion(cmd.OutOrStdout())
			return nil
		},
	}
}

func printVersion(w io.Writer) {
	fmt.Fprintf(w, "ragchat %s\n", Version)
	fmt.Fprintf(w, "  commit:  %s\n", GitCommit)
	fmt.Fprintf(w, "  built:   %s\n", BuildDate)
	fmt.Fprintf(w, "  go:      %s %s/%s\n", runtime.Version(), runtime.GOOS, runtime.GOARCH)
}
