// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"bufio"
	"context"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/jeranaias/ragchat-tui/internal/backend"
	"github.com/jeranaias/ragchat-tui/internal/config"
)

// Environment variables read when the flags are not given.
const (
	EnvUser     = "RAGCHAT_USER"
	EnvPassword = "RAGCHAT_PASSWORD"
)

type credentials struct {
	username string
	password string
}

// loginFlags are shared by the line-mode commands.
type loginFlags struct {
	username      string
	passwordStdin bool
}

func (f *loginFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&f.username, "user", "u", "", "Username (default: $"+EnvUser+")")
	cmd.Flags().BoolVar(&f.passwordStdin, "password-stdin", false, "Read the password from the first line of stdin")
}

// resolve gathers credentials from flags, then the environment, then an
// interactive prompt.
func (f *loginFlags) resolve(in io.Reader, out io.Writer) (credentials, error) {
	r := bufio.NewReader(in)
	var c credentials

	c.username = strings.TrimSpace(f.username)
	if c.username == "" {
		c.username = strings.TrimSpace(os.Getenv(EnvUser))
	}
	if c.username == "" && IsTTY() {
		line, err := promptLine(out, r, "Username: ")
		if err != nil && err != io.EOF {
			return c, err
		}
		c.username = strings.TrimSpace(line)
	}
	if c.username == "" {
		return c, &UsageError{Reason: "no username: use --user or $" + EnvUser}
	}

	switch {
	case f.passwordStdin:
		line, err := r.ReadString('\n')
		if err != nil && (err != io.EOF || line == "") {
			return c, &UsageError{Reason: "no password on stdin"}
		}
		c.password = strings.TrimRight(line, "\r\n")
	case os.Getenv(EnvPassword) != "":
		c.password = os.Getenv(EnvPassword)
	default:
		pw, err := readPassword(out, "Password: ")
		if err != nil {
			return c, err
		}
		c.password = pw
	}
	if c.password == "" {
		return c, &UsageError{Reason: "empty password"}
	}
	return c, nil
}

// newClient builds a backend client from the server section.
func newClient(env *Env) *backend.Client {
	return backend.NewClientWithConfig(&backend.ClientConfig{
		BaseURL: env.Config.Server.URL,
		Timeout: env.Config.Server.Timeout.Std(),
		Logger:  env.Logger,
	})
}

// login exchanges credentials for an access token.
func login(ctx context.Context, client *backend.Client, c credentials) (string, error) {
	tok, err := client.Login(ctx, c.username, c.password)
	if err != nil {
		return "", &LoginError{Err: err}
	}
	return tok.AccessToken, nil
}

// serverOf returns the configured server URL for banners.
func serverOf(cfg *config.Config) string {
	return strings.TrimRight(cfg.Server.URL, "/")
}
