// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package speech

import (
	"context"
	"errors"
	"sync"
)

// ErrPermissionDenied is returned when microphone access is refused.
var ErrPermissionDenied = errors.New("speech: microphone permission denied")

// Permission negotiates access to the microphone. Request returns nil when
// access is granted and ErrPermissionDenied when it is refused.
type Permission interface {
	Request(ctx context.Context) error
}

// =============================================================================
// STATIC PERMISSION
// =============================================================================

// StaticPermission answers every request the same way.
type StaticPermission struct {
	Granted bool
}

// Request implements Permission.
func (p StaticPermission) Request(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if p.Granted {
		return nil
	}
	return ErrPermissionDenied
}

// =============================================================================
// PROMPT PERMISSION
// =============================================================================

// PromptPermission asks the user. Request blocks until Answer is called or
// the context ends. A grant is remembered until Revoke; a denial is not, so
// the user is asked again on the next toggle.
type PromptPermission struct {
	mu      sync.Mutex
	pending chan bool
	granted bool
	notify  func()
}

// NewPromptPermission creates a prompt-backed permission. notify is called
// each time a request starts waiting for an answer, typically to show the
// prompt.
func NewPromptPermission(notify func()) *PromptPermission {
	return &PromptPermission{notify: notify}
}

// Request implements Permission.
func (p *PromptPermission) Request(ctx context.Context) error {
	p.mu.Lock()
	if p.granted {
		p.mu.Unlock()
		return nil
	}
	ch := make(chan bool, 1)
	p.pending = ch
	notify := p.notify
	p.mu.Unlock()

	if notify != nil {
		notify()
	}

	select {
	case allow := <-ch:
		if allow {
			return nil
		}
		return ErrPermissionDenied
	case <-ctx.Done():
		p.mu.Lock()
		if p.pending == ch {
			p.pending = nil
		}
		p.mu.Unlock()
		return ctx.Err()
	}
}

// Answer resolves the pending request. It reports false when nothing was
// waiting.
func (p *PromptPermission) Answer(allow bool) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.pending == nil {
		return false
	}
	p.pending <- allow
	p.pending = nil
	if allow {
		p.granted = true
	}
	return true
}

// Pending reports whether a request is waiting for an answer.
func (p *PromptPermission) Pending() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.pending != nil
}

// Revoke forgets a previous grant.
func (p *PromptPermission) Revoke() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.granted = false
}
