// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"errors"
	"fmt"
	"io"

	"github.com/jeranaias/ragchat-tui/internal/backend"
	"github.com/jeranaias/ragchat-tui/internal/config"
	"github.com/jeranaias/ragchat-tui/internal/ui/styles"
)

// =============================================================================
// EXIT CODES
// =============================================================================

const (
	ExitSuccess      = 0
	ExitError        = 1
	ExitUsageError   = 2
	ExitConfigError  = 3
	ExitAuthError    = 4
	ExitNetworkError = 5
)

// Messages shown for backend failures, matching the login screen.
const (
	msgBadCredentials = "wrong username or password"
	msgServerError    = "error connecting to the server, please try again"
)

// =============================================================================
// ERROR TYPES
// =============================================================================

// UsageError reports a bad invocation.
type UsageError struct {
	Reason string
}

func (e *UsageError) Error() string {
	return e.Reason
}

// LoginError wraps a failed login with the message shown to the user.
type LoginError struct {
	Err error
}

func (e *LoginError) Error() string {
	var ce *backend.ClientError
	if errors.As(e.Err, &ce) && (ce.Type == backend.ErrTypeUnauthorized || ce.Type == backend.ErrTypeStatus) {
		return "login failed: " + msgBadCredentials
	}
	return "login failed: " + msgServerError
}

func (e *LoginError) Unwrap() error {
	return e.Err
}

// =============================================================================
// DISPLAY
// =============================================================================

// DisplayError writes err to w in the CLI error style.
func DisplayError(w io.Writer, err error) {
	if err == nil {
		return
	}
	fmt.Fprintln(w, styles.RenderError(err.Error()))
}

// GetExitCode maps an error to a process exit code.
func GetExitCode(err error) int {
	if err == nil {
		return ExitSuccess
	}

	var usage *UsageError
	if errors.As(err, &usage) {
		return ExitUsageError
	}
	var tty *TTYRequiredError
	if errors.As(err, &tty) {
		return ExitUsageError
	}

	var verrs config.ValidateErrors
	var verr config.ValidationError
	if errors.As(err, &verrs) || errors.As(err, &verr) {
		return ExitConfigError
	}

	var ce *backend.ClientError
	if errors.As(err, &ce) {
		switch ce.Type {
		case backend.ErrTypeUnauthorized:
			return ExitAuthError
		case backend.ErrTypeConnection, backend.ErrTypeTimeout:
			return ExitNetworkError
		}
	}
	return ExitError
}
