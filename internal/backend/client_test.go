// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package backend

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()

	mux.HandleFunc("/token", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		if err := r.ParseForm(); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		if r.PostForm.Get("username") != "ali" || r.PostForm.Get("password") != "secret" {
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte(`{"detail":"Incorrect username or password"}`))
			return
		}
		_, _ = w.Write([]byte(`{"access_token":"tok-123","token_type":"bearer"}`))
	})

	mux.HandleFunc("/query", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if r.Header.Get("Authorization") != "Bearer tok-123" {
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte(`{"detail":"Could not validate credentials"}`))
			return
		}
		var req struct {
			Query string `json:"query"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			w.WriteHeader(http.StatusUnprocessableEntity)
			_, _ = w.Write([]byte(`{"detail":[{"loc":["body","query"],"msg":"field required"}]}`))
			return
		}
		switch req.Query {
		case "boom":
			w.WriteHeader(http.StatusInternalServerError)
			_, _ = w.Write([]byte(`{"detail":"Error processing query"}`))
		case "garbage":
			_, _ = w.Write([]byte(`not json`))
		case "empty":
			_, _ = w.Write([]byte(`{}`))
		default:
			_ = json.NewEncoder(w).Encode(map[string]string{"response": "echo: " + req.Query})
		}
	})

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestLogin(t *testing.T) {
	srv := newTestServer(t)
	c := NewClientWithConfig(&ClientConfig{BaseURL: srv.URL + "/"})

	tok, err := c.Login(context.Background(), "ali", "secret")
	require.NoError(t, err)
	assert.Equal(t, "tok-123", tok.AccessToken)
	assert.Equal(t, "bearer", tok.TokenType)

	_, err = c.Login(context.Background(), "ali", "wrong")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnauthorized)
	var ce *ClientError
	require.True(t, errors.As(err, &ce))
	assert.Equal(t, http.StatusUnauthorized, ce.Status)
	assert.Equal(t, "Incorrect username or password", ce.Message)
}

func TestQuery(t *testing.T) {
	srv := newTestServer(t)
	c := NewClientWithConfig(&ClientConfig{BaseURL: srv.URL})

	answer, err := c.Query(context.Background(), "tok-123", "x^2 + 1")
	require.NoError(t, err)
	assert.Equal(t, "echo: x^2 + 1", answer)
}

func TestQuery_Errors(t *testing.T) {
	srv := newTestServer(t)
	c := NewClientWithConfig(&ClientConfig{BaseURL: srv.URL})
	ctx := context.Background()

	_, err := c.Query(ctx, "bad-token", "hi")
	assert.ErrorIs(t, err, ErrUnauthorized)
	assert.False(t, IsTransport(err))

	_, err = c.Query(ctx, "tok-123", "boom")
	assert.ErrorIs(t, err, ErrStatus)
	assert.Equal(t, "Error processing query", err.Error())
	assert.False(t, IsTransport(err))

	_, err = c.Query(ctx, "tok-123", "garbage")
	assert.ErrorIs(t, err, ErrInvalidResponse)

	_, err = c.Query(ctx, "tok-123", "empty")
	assert.ErrorIs(t, err, ErrInvalidResponse)
}

func TestQuery_ConnectionRefused(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	c := NewClientWithConfig(&ClientConfig{BaseURL: url})
	_, err := c.Query(context.Background(), "tok", "hi")
	assert.ErrorIs(t, err, ErrConnection)
	assert.True(t, IsTransport(err))
}

func TestQuery_Timeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	}))
	defer srv.Close()

	c := NewClientWithConfig(&ClientConfig{BaseURL: srv.URL, Timeout: 50 * time.Millisecond})
	_, err := c.Query(context.Background(), "tok", "slow")
	assert.ErrorIs(t, err, ErrTimeout)
	assert.True(t, IsTransport(err))
}

func TestDetailMessage(t *testing.T) {
	assert.Equal(t, "nope", detailMessage([]byte(`{"detail":"nope"}`)))
	assert.Equal(t, "query: field required; password: too short",
		detailMessage([]byte(`{"detail":[{"loc":["body","query"],"msg":"field required"},{"loc":["body","password"],"msg":"too short"}]}`)))
	assert.Equal(t, "", detailMessage([]byte(`{"other":1}`)))
	assert.Equal(t, "", detailMessage([]byte(`<html>`)))
}

func TestDefaults(t *testing.T) {
	c := NewClientWithConfig(nil)
	assert.Equal(t, "http://localhost:8000", c.BaseURL())

	c = NewClientWithConfig(&ClientConfig{})
	assert.Equal(t, "http://localhost:8000", c.BaseURL())
	assert.Equal(t, 60*time.Second, c.config.Timeout)
}
