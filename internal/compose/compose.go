// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package compose holds the draft message buffer and the geometry of the
// input box that displays it.
package compose

import (
	"strings"
	"sync"

	"github.com/mattn/go-runewidth"
)

// =============================================================================
// GEOMETRY
// =============================================================================

// Overflow is the scrolling behaviour of the input box.
type Overflow int

const (
	// OverflowHidden means the content fits and no scrollbar is shown.
	OverflowHidden Overflow = iota
	// OverflowScroll means the content is taller than the box.
	OverflowScroll
)

// String returns the CSS-style name of the overflow mode.
func (o Overflow) String() string {
	if o == OverflowScroll {
		return "auto"
	}
	return "hidden"
}

// Default geometry parameters.
const (
	DefaultLineHeight = 24
	DefaultMaxLines   = 3
)

// Geometry is the computed size of the input box.
type Geometry struct {
	HeightPx int
	Overflow Overflow
}

// ComputeGeometry sizes the input box for content of the given natural
// height. The box grows with its content up to maxLines lines and scrolls
// beyond that. It never shrinks below one line.
func ComputeGeometry(contentHeight, lineHeight, maxLines int) Geometry {
	if lineHeight <= 0 {
		lineHeight = DefaultLineHeight
	}
	if maxLines <= 0 {
		maxLines = DefaultMaxLines
	}
	limit := lineHeight * maxLines

	if contentHeight > limit {
		return Geometry{HeightPx: limit, Overflow: OverflowScroll}
	}
	if contentHeight < lineHeight {
		contentHeight = lineHeight
	}
	return Geometry{HeightPx: contentHeight, Overflow: OverflowHidden}
}

// MeasureLines returns the number of rows content occupies when wrapped at
// width display cells. Empty content occupies one row.
func MeasureLines(content string, width int) int {
	if width <= 0 {
		return strings.Count(content, "\n") + 1
	}
	rows := 0
	for _, line := range strings.Split(content, "\n") {
		w := runewidth.StringWidth(line)
		if w == 0 {
			rows++
			continue
		}
		rows += (w + width - 1) / width
	}
	return rows
}

// =============================================================================
// BUFFER
// =============================================================================

// Buffer is the draft text of the next message together with its geometry.
// Geometry is recomputed on every mutation.
type Buffer struct {
	mu         sync.RWMutex
	text       string
	width      int
	lineHeight int
	maxLines   int
	geometry   Geometry
}

// NewBuffer creates an empty buffer. width is the wrap width in cells used
// to measure content; lineHeight and maxLines feed ComputeGeometry.
func NewBuffer(width, lineHeight, maxLines int) *Buffer {
	if lineHeight <= 0 {
		lineHeight = DefaultLineHeight
	}
	if maxLines <= 0 {
		maxLines = DefaultMaxLines
	}
	b := &Buffer{width: width, lineHeight: lineHeight, maxLines: maxLines}
	b.recompute()
	return b
}

// Set replaces the buffer contents.
func (b *Buffer) Set(text string) Geometry {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.text = text
	b.recompute()
	return b.geometry
}

// Reset clears the buffer and returns it to the single-line minimum.
func (b *Buffer) Reset() Geometry {
	return b.Set("")
}

// SetWidth changes the wrap width, for example after a terminal resize.
func (b *Buffer) SetWidth(width int) Geometry {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.width = width
	b.recompute()
	return b.geometry
}

// Value returns the current text.
func (b *Buffer) Value() string {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.text
}

// Geometry returns the current geometry.
func (b *Buffer) Geometry() Geometry {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.geometry
}

// Lines returns the visible height of the box in lines.
func (b *Buffer) Lines() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.geometry.HeightPx / b.lineHeight
}

// IsBlank reports whether the buffer holds only whitespace.
func (b *Buffer) IsBlank() bool {
	return strings.TrimSpace(b.Value()) == ""
}

// recompute must be called with mu held.
func (b *Buffer) recompute() {
	contentHeight := MeasureLines(b.text, b.width) * b.lineHeight
	b.geometry = ComputeGeometry(contentHeight, b.lineHeight, b.maxLines)
}
