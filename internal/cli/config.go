// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/jeranaias/ragchat-tui/internal/config"
)

// =============================================================================
// CONFIG COMMAND
// =============================================================================

func newConfigCommand(g *globals) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Show or change configuration",
		Long: `Show or change the ragchat configuration.

Keys use dot notation, for example server.url or speech.microphone.
Durations accept "2s", "300ms" or a bare number of milliseconds.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return showConfig(cmd.OutOrStdout(), g.env.Config)
		},
	}

	cmd.AddCommand(
		&cobra.Command{
			Use:   "show",
			Short: "Show the effective configuration",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				return showConfig(cmd.OutOrStdout(), g.env.Config)
			},
		},
		&cobra.Command{
			Use:   "get <key>",
			Short: "Print one value",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				v, err := g.env.Config.Get(normalizeKey(args[0]))
				if err != nil {
					return &UsageError{Reason: err.Error()}
				}
				fmt.Fprintln(cmd.OutOrStdout(), formatValue(v))
				return nil
			},
		},
		&cobra.Command{
			Use:   "set <key> <value>",
			Short: "Change one value and save the config file",
			Args:  cobra.ExactArgs(2),
			RunE: func(cmd *cobra.Command, args []string) error {
				return setConfig(cmd.OutOrStdout(), g, normalizeKey(args[0]), args[1])
			},
		},
		&cobra.Command{
			Use:   "reset",
			Short: "Write the default configuration",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				path, err := saveConfig(g, config.Default())
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s Configuration reset to defaults\n", SuccessStyle.Render("[OK]"))
				fmt.Fprintf(cmd.OutOrStdout(), "Config file: %s\n", path)
				return nil
			},
		},
		&cobra.Command{
			Use:   "path",
			Short: "Print the config file path",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				path, err := configFile(g)
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), path)
				if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
					fmt.Fprintf(cmd.ErrOrStderr(), "%s file does not exist yet\n", WarningStyle.Render("Note"))
				}
				return nil
			},
		},
	)
	return cmd
}

// normalizeKey accepts "speech.restart-burst" and "Speech.Restart_Burst" alike.
func normalizeKey(key string) string {
	return strings.ToLower(strings.ReplaceAll(strings.TrimSpace(key), "-", "_"))
}

func showConfig(w io.Writer, cfg *config.Config) error {
	fmt.Fprintln(w, TitleStyle.Render("ragchat configuration"))
	for _, key := range config.GetAllKeys() {
		v, err := cfg.Get(key)
		if err != nil {
			return err
		}
		fmt.Fprintf(w, "  %s %s\n", LabelStyle.Render(key), ValueStyle.Render(formatValue(v)))
	}
	return nil
}

func formatValue(v interface{}) string {
	switch val := v.(type) {
	case []string:
		if len(val) == 0 {
			return "(none)"
		}
		return strings.Join(val, " ")
	case string:
		if val == "" {
			return `""`
		}
		return val
	case fmt.Stringer:
		return val.String()
	default:
		return fmt.Sprint(v)
	}
}

// setConfig edits the file on disk rather than the effective config, so
// --server is never persisted.
func setConfig(w io.Writer, g *globals, key, value string) error {
	cfg, err := loadForEdit(g)
	if err != nil {
		return err
	}
	if err := cfg.Set(key, value); err != nil {
		return &UsageError{Reason: err.Error()}
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration value: %w", err)
	}
	if _, err := saveConfig(g, cfg); err != nil {
		return err
	}

	v, _ := cfg.Get(key)
	fmt.Fprintf(w, "%s %s = %s\n", SuccessStyle.Render("[OK]"), key, formatValue(v))
	return nil
}

func loadForEdit(g *globals) (*config.Config, error) {
	path, err := configFile(g)
	if err != nil {
		return nil, err
	}
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return config.Default(), nil
	}
	return config.LoadFromPath(path)
}

// configFile is the file config set and reset write to.
func configFile(g *globals) (string, error) {
	if g.configPath != "" {
		return g.configPath, nil
	}
	return config.ConfigPathTOML()
}

func saveConfig(g *globals, cfg *config.Config) (string, error) {
	path, err := configFile(g)
	if err != nil {
		return "", err
	}
	if g.configPath == "" {
		if err := config.EnsureConfigDir(); err != nil {
			return "", err
		}
		if err := config.Save(cfg); err != nil {
			return "", fmt.Errorf("failed to save config: %w", err)
		}
		return path, nil
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		err = config.SaveJSON(cfg, path)
	case ".yaml", ".yml":
		err = config.SaveYAML(cfg, path)
	default:
		err = config.SaveTOML(cfg, path)
	}
	if err != nil {
		return "", fmt.Errorf("failed to save config: %w", err)
	}
	return path, nil
}
