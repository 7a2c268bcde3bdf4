// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/bubbles/progress"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/reflow/wordwrap"

	"github.com/jeranaias/ragchat-tui/internal/ui/styles"
)

// =============================================================================
// TOAST TYPES
// =============================================================================

// ToastKind selects the color and indicator of a toast.
type ToastKind int

const (
	ToastKindError ToastKind = iota
	ToastKindInfo
)

// DefaultToastDuration is how long a toast stays up unless dismissed.
const DefaultToastDuration = 5 * time.Second

// ToastTickInterval is the refresh rate of the countdown bar.
const ToastTickInterval = 100 * time.Millisecond

// maxToasts bounds the stack; the oldest toast is dropped first.
const maxToasts = 5

// Toast is a transient notification with a countdown bar.
type Toast struct {
	ID        int
	Message   string
	Kind      ToastKind
	CreatedAt time.Time
	Duration  time.Duration
}

// IsExpired reports whether the toast should be removed at now.
func (t Toast) IsExpired(now time.Time) bool {
	return now.Sub(t.CreatedAt) >= t.Duration
}

// Remaining returns the fraction of the toast's lifetime left, in [0, 1].
func (t Toast) Remaining(now time.Time) float64 {
	if t.Duration <= 0 {
		return 0
	}
	left := 1 - float64(now.Sub(t.CreatedAt))/float64(t.Duration)
	switch {
	case left < 0:
		return 0
	case left > 1:
		return 1
	}
	return left
}

// =============================================================================
// TOAST MANAGER
// =============================================================================

// ToastManager holds the visible toasts, newest first.
//
// It is safe for concurrent use so background commands can raise toasts.
type ToastManager struct {
	mu     sync.Mutex
	toasts []Toast
	nextID int
	now    func() time.Time
}

// NewToastManager creates an empty manager.
func NewToastManager() *ToastManager {
	return &ToastManager{now: time.Now}
}

// Add shows a toast and returns its ID.
func (m *ToastManager) Add(kind ToastKind, message string) int {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.nextID++
	t := Toast{
		ID:        m.nextID,
		Message:   message,
		Kind:      kind,
		CreatedAt: m.now(),
		Duration:  DefaultToastDuration,
	}
	m.toasts = append([]Toast{t}, m.toasts...)
	if len(m.toasts) > maxToasts {
		m.toasts = m.toasts[:maxToasts]
	}
	return t.ID
}

// AddError shows an error toast.
func (m *ToastManager) AddError(message string) int {
	return m.Add(ToastKindError, message)
}

// AddInfo shows an informational toast.
func (m *ToastManager) AddInfo(message string) int {
	return m.Add(ToastKindInfo, message)
}

// Dismiss removes the toast with the given ID.
func (m *ToastManager) Dismiss(id int) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for i, t := range m.toasts {
		if t.ID == id {
			m.toasts = append(m.toasts[:i], m.toasts[i+1:]...)
			return
		}
	}
}

// DismissNewest removes the most recent toast. It reports whether one was shown.
func (m *ToastManager) DismissNewest() bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	if len(m.toasts) == 0 {
		return false
	}
	m.toasts = m.toasts[1:]
	return true
}

// Tick drops expired toasts and reports whether any remain.
func (m *ToastManager) Tick() bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	kept := m.toasts[:0]
	for _, t := range m.toasts {
		if !t.IsExpired(now) {
			kept = append(kept, t)
		}
	}
	m.toasts = kept
	return len(m.toasts) > 0
}

// Toasts returns a copy of the visible toasts, newest first.
func (m *ToastManager) Toasts() []Toast {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]Toast, len(m.toasts))
	copy(out, m.toasts)
	return out
}

// HasToasts reports whether any toast is visible.
func (m *ToastManager) HasToasts() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.toasts) > 0
}

// Clear removes every toast.
func (m *ToastManager) Clear() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.toasts = nil
}

// Now returns the manager's clock reading.
func (m *ToastManager) Now() time.Time {
	return m.now()
}

// =============================================================================
// BUBBLE TEA INTEGRATION
// =============================================================================

// ToastTickMsg refreshes the countdown bars of the manager that scheduled it.
type ToastTickMsg struct {
	Time  time.Time
	Owner *ToastManager
}

// TickCmd schedules the next refresh for this manager.
func (tm *ToastManager) TickCmd() tea.Cmd {
	return tea.Tick(ToastTickInterval, func(t time.Time) tea.Msg {
		return ToastTickMsg{Time: t, Owner: tm}
	})
}

// =============================================================================
// RENDERING
// =============================================================================

// RenderToast renders a single toast at now.
func RenderToast(theme *styles.Theme, t Toast, width int, now time.Time) string {
	maxWidth := 50
	if width > 0 && width-8 < maxWidth {
		maxWidth = width - 8
	}
	if maxWidth < 24 {
		maxWidth = 24
	}

	box := theme.ToastError
	icon := styles.StatusIndicators.Error
	color := styles.Rose
	if t.Kind == ToastKindInfo {
		box = theme.ToastInfo
		icon = styles.StatusIndicators.Info
		color = styles.Cyan
	}

	inner := maxWidth - 4
	msg := wordwrap.String(icon+" "+t.Message, inner)

	bar := progress.New(
		progress.WithSolidFill(pickColor(theme, color)),
		progress.WithWidth(inner),
		progress.WithoutPercentage(),
	)

	var sb strings.Builder
	sb.WriteString(msg)
	sb.WriteString("\n")
	sb.WriteString(bar.ViewAs(t.Remaining(now)))
	sb.WriteString("\n")
	sb.WriteString(theme.ToastBar.Render("[Esc] Dismiss"))

	return box.Width(maxWidth).Render(sb.String())
}

// RenderToastStack renders the toasts stacked in the bottom-right corner.
func RenderToastStack(theme *styles.Theme, toasts []Toast, width, height int, now time.Time) string {
	if len(toasts) == 0 {
		return ""
	}

	rendered := make([]string, 0, len(toasts))
	for _, t := range toasts {
		rendered = append(rendered, RenderToast(theme, t, width, now))
	}
	stack := lipgloss.NewStyle().
		MarginRight(2).
		Render(lipgloss.JoinVertical(lipgloss.Right, rendered...))

	if width > 0 && height > 0 {
		return lipgloss.Place(width, height, lipgloss.Right, lipgloss.Bottom, stack)
	}
	return stack
}

func pickColor(theme *styles.Theme, c lipgloss.AdaptiveColor) string {
	if theme != nil && !theme.IsDark {
		return c.Light
	}
	return c.Dark
}
