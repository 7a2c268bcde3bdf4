// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jeranaias/ragchat-tui/internal/annotate"
	"github.com/jeranaias/ragchat-tui/internal/backend"
	"github.com/jeranaias/ragchat-tui/internal/config"
	"github.com/jeranaias/ragchat-tui/internal/texmath"
)

// =============================================================================
// HELPERS
// =============================================================================

func isolate(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("RAGCHAT_HOME", dir)
	for _, k := range []string{EnvUser, EnvPassword, "RAGCHAT_SERVER_URL", "RAGCHAT_MICROPHONE", "RAGCHAT_THEME"} {
		t.Setenv(k, "")
	}
	config.ResetGlobalForTesting()
	t.Cleanup(config.ResetGlobalForTesting)
	return dir
}

func noTUI(*Env) error { return errors.New("tui not expected") }

func run(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	root := NewRootCommand(noTUI)
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetIn(strings.NewReader(stdin))
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

// answerServer accepts alice/secret and answers every query with answer.
func answerServer(t *testing.T, answer string) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/token", func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		w.Header().Set("Content-Type", "application/json")
		if r.PostForm.Get("username") != "alice" || r.PostForm.Get("password") != "secret" {
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte(`{"detail":"Incorrect username or password"}`))
			return
		}
		_, _ = w.Write([]byte(`{"access_token":"tok-1","token_type":"bearer"}`))
	})
	mux.HandleFunc("/query", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer tok-1" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		var req struct {
			Query string `json:"query"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]string{"response": answer})
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

// =============================================================================
// ROOT
// =============================================================================

func TestRoot_RunsTUIWithEnv(t *testing.T) {
	isolate(t)

	var got *Env
	root := NewRootCommand(func(env *Env) error {
		got = env
		return nil
	})
	root.SetArgs([]string{"--server", "http://example.test:9000"})
	require.NoError(t, root.Execute())

	require.NotNil(t, got)
	assert.Equal(t, "http://example.test:9000", got.Config.Server.URL)
	assert.True(t, got.Watch)
	assert.NotNil(t, got.Logger)
}

func TestRoot_ConfigFlagDisablesWatch(t *testing.T) {
	dir := isolate(t)
	path := filepath.Join(dir, "custom.yaml")
	require.NoError(t, os.WriteFile(path, []byte("server:\n  url: http://yaml.test\n"), 0600))

	var got *Env
	root := NewRootCommand(func(env *Env) error {
		got = env
		return nil
	})
	root.SetArgs([]string{"--config", path})
	require.NoError(t, root.Execute())

	assert.Equal(t, "http://yaml.test", got.Config.Server.URL)
	assert.False(t, got.Watch)
}

func TestVersion(t *testing.T) {
	isolate(t)
	out, err := run(t, "", "version")
	require.NoError(t, err)
	assert.Contains(t, out, "ragchat "+Version)
	assert.Contains(t, out, "commit:")
}

// =============================================================================
// ASK
// =============================================================================

func TestAsk_PrintsAnnotatedAnswer(t *testing.T) {
	isolate(t)
	srv := answerServer(t, "The area is [\\pi r^2] and [see above].")

	out, err := run(t, "secret\n", "--server", srv.URL, "ask", "-u", "alice", "--password-stdin", "what", "is", "the", "area?")
	require.NoError(t, err)

	assert.Contains(t, out, "π")
	assert.Contains(t, out, "r²")
	assert.Contains(t, out, "[see above]")
	assert.NotContains(t, out, "\\pi")
}

func TestAsk_Raw(t *testing.T) {
	isolate(t)
	srv := answerServer(t, "[x^2]")

	t.Setenv(EnvUser, "alice")
	t.Setenv(EnvPassword, "secret")
	out, err := run(t, "", "--server", srv.URL, "ask", "--raw", "hi")
	require.NoError(t, err)
	assert.Equal(t, "[x^2]\n", out)
}

func TestAsk_BadCredentials(t *testing.T) {
	isolate(t)
	srv := answerServer(t, "unused")

	_, err := run(t, "wrong\n", "--server", srv.URL, "ask", "-u", "alice", "--password-stdin", "hi")
	require.Error(t, err)

	var le *LoginError
	require.ErrorAs(t, err, &le)
	assert.Contains(t, err.Error(), msgBadCredentials)
	assert.Equal(t, ExitAuthError, GetExitCode(err))
}

func TestAsk_ServerDown(t *testing.T) {
	isolate(t)
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	_, err := run(t, "secret\n", "--server", url, "ask", "-u", "alice", "--password-stdin", "hi")
	require.Error(t, err)
	assert.Contains(t, err.Error(), msgServerError)
	assert.Equal(t, ExitNetworkError, GetExitCode(err))
}

func TestAsk_MissingUsername(t *testing.T) {
	isolate(t)
	_, err := run(t, "", "ask", "hi")
	require.Error(t, err)
	assert.Equal(t, ExitUsageError, GetExitCode(err))
}

func TestAnnotateMarkdown(t *testing.T) {
	a := &annotate.Annotator{Math: texmath.Renderer{}}
	src := "Let [x_1 + y] hold.\n```\ncode [a^2]\n```\n"

	got := annotateMarkdown(src, a, false)
	assert.NotContains(t, got, "[x_1 + y]")
	assert.NotContains(t, got, "[a^2]")

	a.SkipCode = true
	got = annotateMarkdown(src, a, false)
	assert.NotContains(t, got, "[x_1 + y]")
	assert.Contains(t, got, "code [a^2]")
}

func TestAnnotateMarkdown_EscapesForRenderer(t *testing.T) {
	a := &annotate.Annotator{}
	got := annotateMarkdown("value [a_b * c]", a, true)
	assert.Equal(t, `value a\_b \* c`, got)
}

// =============================================================================
// CONFIG
// =============================================================================

func TestConfig_SetGetPath(t *testing.T) {
	dir := isolate(t)

	out, err := run(t, "", "config", "set", "speech.microphone", "denied")
	require.NoError(t, err)
	assert.Contains(t, out, "speech.microphone = denied")
	assert.FileExists(t, filepath.Join(dir, "config.toml"))

	config.ResetGlobalForTesting()
	out, err = run(t, "", "config", "get", "Speech.Microphone")
	require.NoError(t, err)
	assert.Equal(t, "denied\n", out)

	out, err = run(t, "", "config", "path")
	require.NoError(t, err)
	assert.Contains(t, out, filepath.Join(dir, "config.toml"))
}

func TestConfig_SetRejectsInvalid(t *testing.T) {
	isolate(t)

	_, err := run(t, "", "config", "set", "speech.microphone", "sometimes")
	require.Error(t, err)
	assert.Equal(t, ExitConfigError, GetExitCode(err))

	_, err = run(t, "", "config", "set", "no.such.key", "1")
	require.Error(t, err)
	assert.Equal(t, ExitUsageError, GetExitCode(err))
}

func TestConfig_Show(t *testing.T) {
	isolate(t)
	out, err := run(t, "", "config", "show")
	require.NoError(t, err)
	for _, key := range config.GetAllKeys() {
		assert.Contains(t, out, key)
	}
	assert.Contains(t, out, "(none)")
}

// =============================================================================
// ERRORS
// =============================================================================

func TestGetExitCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"nil", nil, ExitSuccess},
		{"usage", &UsageError{Reason: "x"}, ExitUsageError},
		{"tty", &TTYRequiredError{Operation: "chat"}, ExitUsageError},
		{"config", config.ValidateErrors{{Field: "ui.theme", Message: "bad"}}, ExitConfigError},
		{"unauthorized", &LoginError{Err: backend.ErrUnauthorized}, ExitAuthError},
		{"timeout", backend.ErrTimeout, ExitNetworkError},
		{"status", backend.ErrStatus, ExitError},
		{"other", errors.New("boom"), ExitError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, GetExitCode(tt.err))
		})
	}
}

func TestLoginError_Messages(t *testing.T) {
	assert.Contains(t, (&LoginError{Err: backend.ErrStatus}).Error(), msgBadCredentials)
	assert.Contains(t, (&LoginError{Err: backend.ErrInvalidResponse}).Error(), msgServerError)
	assert.ErrorIs(t, &LoginError{Err: backend.ErrTimeout}, backend.ErrTimeout)
}
