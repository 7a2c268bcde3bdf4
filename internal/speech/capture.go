// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package speech

import (
	"errors"
	"fmt"
	"strings"
)

// =============================================================================
// STATES
// =============================================================================

// Phase is the user-visible state of speech capture.
type Phase int

const (
	PhaseIdle Phase = iota
	PhaseRequestingPermission
	PhaseListening
	PhaseError
)

// String returns the name of the phase.
func (p Phase) String() string {
	switch p {
	case PhaseIdle:
		return "idle"
	case PhaseRequestingPermission:
		return "requesting-permission"
	case PhaseListening:
		return "listening"
	case PhaseError:
		return "error"
	default:
		return "unknown"
	}
}

// Desired is what the user asked for: capture on or off.
type Desired int

const (
	DesiredIdle Desired = iota
	DesiredListening
)

// SessionState tracks the platform recognition session.
type SessionState int

const (
	SessionStopped SessionState = iota
	SessionStarting
	SessionRunning
)

// =============================================================================
// ERRORS
// =============================================================================

// ErrorKind classifies capture failures.
type ErrorKind int

const (
	KindOther ErrorKind = iota
	KindPermissionDenied
	KindNoSpeechDetected
	KindUnsupported
)

// String returns the name of the kind.
func (k ErrorKind) String() string {
	switch k {
	case KindPermissionDenied:
		return "permission-denied"
	case KindNoSpeechDetected:
		return "no-speech"
	case KindUnsupported:
		return "unsupported"
	default:
		return "other"
	}
}

// ErrUnsupported is returned by recognizers that cannot run on this system.
var ErrUnsupported = errors.New("speech: recognition not supported")

// CaptureError is a classified speech capture failure. None are fatal.
type CaptureError struct {
	Kind  ErrorKind
	Code  string // platform error code, e.g. "no-speech"
	Cause error
}

// Error implements the error interface.
func (e *CaptureError) Error() string {
	var sb strings.Builder
	sb.WriteString("speech: ")
	sb.WriteString(e.Kind.String())
	if e.Code != "" && e.Code != e.Kind.String() {
		sb.WriteString(" (")
		sb.WriteString(e.Code)
		sb.WriteString(")")
	}
	if e.Cause != nil {
		sb.WriteString(": ")
		sb.WriteString(e.Cause.Error())
	}
	return sb.String()
}

// Unwrap returns the underlying cause.
func (e *CaptureError) Unwrap() error {
	return e.Cause
}

// Message returns the text shown to the user.
func (e *CaptureError) Message() string {
	switch e.Kind {
	case KindPermissionDenied:
		return "Microphone access was denied. Allow microphone access to use voice input."
	case KindNoSpeechDetected:
		return "No speech was detected. Please try again."
	case KindUnsupported:
		return "Voice input is not supported on this system."
	default:
		return "Speech recognition failed. Please try again."
	}
}

// Is lets errors.Is match CaptureErrors by kind.
func (e *CaptureError) Is(target error) bool {
	t, ok := target.(*CaptureError)
	if !ok {
		return false
	}
	return t.Kind == e.Kind && (t.Code == "" || t.Code == e.Code)
}

func newCaptureError(kind ErrorKind, code string, cause error) *CaptureError {
	return &CaptureError{Kind: kind, Code: code, Cause: cause}
}

// Classify maps a recognizer error code to a CaptureError.
func Classify(code string, cause error) *CaptureError {
	switch code {
	case "not-allowed", "service-not-allowed":
		return newCaptureError(KindPermissionDenied, code, cause)
	case "no-speech":
		return newCaptureError(KindNoSpeechDetected, code, cause)
	default:
		return newCaptureError(KindOther, code, cause)
	}
}

// AsCaptureError extracts a CaptureError from err.
func AsCaptureError(err error) (*CaptureError, bool) {
	var ce *CaptureError
	if errors.As(err, &ce) {
		return ce, true
	}
	return nil, false
}

// =============================================================================
// EVENTS
// =============================================================================

// EventType identifies a recognizer event.
type EventType int

const (
	EventStart EventType = iota
	EventResult
	EventError
	EventEnd
)

// String returns the name of the event type.
func (t EventType) String() string {
	switch t {
	case EventStart:
		return "start"
	case EventResult:
		return "result"
	case EventError:
		return "error"
	case EventEnd:
		return "end"
	default:
		return fmt.Sprintf("event(%d)", int(t))
	}
}

// Alternative is one recognition hypothesis.
type Alternative struct {
	Transcript string  `json:"transcript"`
	Confidence float64 `json:"confidence,omitempty"`
}

// Result is one recognized segment. Alternatives are ordered best first.
type Result struct {
	Final        bool          `json:"final"`
	Alternatives []Alternative `json:"alternatives"`
}

// Event is delivered by a Recognizer. Generation identifies the session that
// produced it; events from earlier sessions are ignored by the controller.
type Event struct {
	Type       EventType
	Generation uint64
	Results    []Result // EventResult: every result of the session so far
	Code       string   // EventError
	Err        error    // EventError
}

// Sink receives recognizer events. It must not block for long.
type Sink func(Event)

// Update describes the outcome of a controller operation.
type Update struct {
	Phase Phase

	// Transcript replaces the draft when HasTranscript is set.
	Transcript    string
	HasTranscript bool

	Err       *CaptureError
	Restarted bool

	// Ignored is set when the input was stale and nothing changed.
	Ignored bool
}

// JoinTranscript joins the best alternative of every result with spaces.
func JoinTranscript(results []Result) string {
	parts := make([]string, 0, len(results))
	for _, r := range results {
		if len(r.Alternatives) == 0 {
			continue
		}
		parts = append(parts, r.Alternatives[0].Transcript)
	}
	return strings.Join(parts, " ")
}
