// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jeranaias/ragchat-tui/internal/ui/styles"
)

type fakeClock struct{ t time.Time }

func (c *fakeClock) now() time.Time          { return c.t }
func (c *fakeClock) advance(d time.Duration) { c.t = c.t.Add(d) }

func newClockedManager() (*ToastManager, *fakeClock) {
	clock := &fakeClock{t: time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)}
	m := NewToastManager()
	m.now = clock.now
	return m, clock
}

func TestToastManager_NewestFirst(t *testing.T) {
	m, _ := newClockedManager()
	assert.False(t, m.HasToasts())

	first := m.AddError("Wrong username or password")
	second := m.AddInfo("Logged out")

	toasts := m.Toasts()
	require.Len(t, toasts, 2)
	assert.Equal(t, second, toasts[0].ID)
	assert.Equal(t, first, toasts[1].ID)
	assert.Equal(t, DefaultToastDuration, toasts[0].Duration)
}

func TestToastManager_Bounded(t *testing.T) {
	m, _ := newClockedManager()
	for i := 0; i < maxToasts+3; i++ {
		m.AddError("e")
	}
	assert.Len(t, m.Toasts(), maxToasts)
}

func TestToastManager_Expiry(t *testing.T) {
	m, clock := newClockedManager()
	m.AddError("gone soon")

	clock.advance(DefaultToastDuration / 2)
	assert.True(t, m.Tick())
	assert.InDelta(t, 0.5, m.Toasts()[0].Remaining(clock.now()), 0.001)

	clock.advance(DefaultToastDuration / 2)
	assert.False(t, m.Tick())
	assert.False(t, m.HasToasts())
}

func TestToastManager_Dismiss(t *testing.T) {
	m, _ := newClockedManager()
	id := m.AddError("one")
	m.AddError("two")

	m.Dismiss(id)
	require.Len(t, m.Toasts(), 1)
	assert.Equal(t, "two", m.Toasts()[0].Message)

	assert.True(t, m.DismissNewest())
	assert.False(t, m.DismissNewest())
}

func TestToast_RemainingClamped(t *testing.T) {
	now := time.Now()
	toast := Toast{CreatedAt: now, Duration: time.Second}
	assert.Equal(t, 1.0, toast.Remaining(now.Add(-time.Second)))
	assert.Equal(t, 0.0, toast.Remaining(now.Add(2*time.Second)))
	assert.Equal(t, 0.0, Toast{}.Remaining(now))
}

func TestRenderToastStack(t *testing.T) {
	theme := styles.NewTheme("dark")
	m, clock := newClockedManager()
	m.AddError("Error connecting to the server. Please try again.")

	out := RenderToastStack(theme, m.Toasts(), 100, 20, clock.now())
	assert.Contains(t, out, styles.StatusIndicators.Error)
	assert.Contains(t, out, "Dismiss")
	assert.Equal(t, 20, strings.Count(out, "\n")+1)

	assert.Empty(t, RenderToastStack(theme, nil, 100, 20, clock.now()))
}

func TestToastManager_TickCmdNamesOwner(t *testing.T) {
	tm := NewToastManager()
	other := NewToastManager()

	msg, ok := tm.TickCmd()().(ToastTickMsg)
	require.True(t, ok)
	assert.Same(t, tm, msg.Owner)
	assert.NotSame(t, other, msg.Owner)
}
