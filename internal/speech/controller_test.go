// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package speech

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

// fakeRecognizer records Start/Stop calls and never emits events itself;
// tests feed events to the controller directly.
type fakeRecognizer struct {
	mu        sync.Mutex
	supported bool
	startErr  error
	starts    []uint64
	stops     []uint64
	lastOpts  Options
}

func (f *fakeRecognizer) Supported() bool { return f.supported }

func (f *fakeRecognizer) Start(ctx context.Context, gen uint64, opts Options, sink Sink) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.startErr != nil {
		return f.startErr
	}
	f.starts = append(f.starts, gen)
	f.lastOpts = opts
	return nil
}

func (f *fakeRecognizer) Stop(gen uint64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.stops = append(f.stops, gen)
	return nil
}

func newTestController(t *testing.T, rec *fakeRecognizer, perm Permission) *Controller {
	t.Helper()
	c := NewController(rec, perm, nil, Config{Language: "fa-IR", RestartBurst: 3, RestartInterval: time.Hour}, zap.NewNop())
	t.Cleanup(c.Close)
	return c
}

// startListening drives the controller from Idle to Listening.
func startListening(t *testing.T, c *Controller) uint64 {
	t.Helper()
	await, err := c.Toggle()
	require.NoError(t, err)
	require.True(t, await)
	require.Equal(t, PhaseRequestingPermission, c.Phase())

	u := c.ResolvePermission(c.RequestPermission(context.Background()))
	require.Nil(t, u.Err)
	require.Equal(t, PhaseListening, u.Phase)
	gen := c.Generation()
	c.Handle(Event{Type: EventStart, Generation: gen})
	return gen
}

func TestToggle_Unsupported(t *testing.T) {
	c := newTestController(t, &fakeRecognizer{supported: false}, nil)

	await, err := c.Toggle()
	assert.False(t, await)
	ce, ok := AsCaptureError(err)
	require.True(t, ok)
	assert.Equal(t, KindUnsupported, ce.Kind)
	assert.Equal(t, PhaseIdle, c.Phase())
	assert.Equal(t, DesiredIdle, c.Desired())
}

func TestToggle_StartsWithContinuousInterimSession(t *testing.T) {
	rec := &fakeRecognizer{supported: true}
	c := newTestController(t, rec, StaticPermission{Granted: true})

	gen := startListening(t, c)

	assert.Equal(t, uint64(1), gen)
	assert.Equal(t, []uint64{1}, rec.starts)
	assert.Equal(t, Options{Language: "fa-IR", Continuous: true, InterimResults: true}, rec.lastOpts)
	assert.Equal(t, SessionRunning, c.Session())
	assert.True(t, c.Capturing())
}

func TestToggle_PermissionDenied(t *testing.T) {
	rec := &fakeRecognizer{supported: true}
	c := newTestController(t, rec, StaticPermission{Granted: false})

	_, err := c.Toggle()
	require.NoError(t, err)
	u := c.ResolvePermission(c.RequestPermission(context.Background()))

	require.NotNil(t, u.Err)
	assert.Equal(t, KindPermissionDenied, u.Err.Kind)
	assert.ErrorIs(t, u.Err, ErrPermissionDenied)
	assert.Equal(t, PhaseError, u.Phase)
	assert.Empty(t, rec.starts)
	assert.False(t, c.Capturing())

	// Toggling from Error asks again.
	await, err := c.Toggle()
	require.NoError(t, err)
	assert.True(t, await)
	assert.Nil(t, c.LastError())
}

func TestToggle_StopWhileListening(t *testing.T) {
	rec := &fakeRecognizer{supported: true}
	c := newTestController(t, rec, StaticPermission{Granted: true})
	gen := startListening(t, c)

	await, err := c.Toggle()
	require.NoError(t, err)
	assert.False(t, await)
	assert.Equal(t, PhaseIdle, c.Phase())
	assert.Equal(t, DesiredIdle, c.Desired())
	assert.Equal(t, []uint64{gen}, rec.stops)

	// The end that follows a user stop belongs to a retired session.
	u := c.Handle(Event{Type: EventEnd, Generation: gen})
	assert.True(t, u.Ignored)
	assert.False(t, u.Restarted)
	assert.Equal(t, PhaseIdle, u.Phase)
	assert.Len(t, rec.starts, 1)
	assert.Equal(t, SessionStopped, c.Session())
}

func TestToggle_CancelDuringPermissionRequest(t *testing.T) {
	rec := &fakeRecognizer{supported: true}
	c := newTestController(t, rec, StaticPermission{Granted: true})

	_, err := c.Toggle()
	require.NoError(t, err)
	outcome := c.RequestPermission(context.Background())

	// Second toggle cancels before the outcome is applied.
	await, err := c.Toggle()
	require.NoError(t, err)
	assert.False(t, await)
	assert.Equal(t, PhaseIdle, c.Phase())

	u := c.ResolvePermission(outcome)
	assert.True(t, u.Ignored)
	assert.Equal(t, PhaseIdle, u.Phase)
	assert.Empty(t, rec.starts)
}

func TestToggle_CancelUnblocksPromptRequest(t *testing.T) {
	rec := &fakeRecognizer{supported: true}
	perm := NewPromptPermission(nil)
	c := newTestController(t, rec, perm)

	_, err := c.Toggle()
	require.NoError(t, err)

	done := make(chan PermissionOutcome, 1)
	go func() { done <- c.RequestPermission(context.Background()) }()

	require.Eventually(t, perm.Pending, time.Second, 5*time.Millisecond)
	_, err = c.Toggle()
	require.NoError(t, err)

	select {
	case o := <-done:
		assert.ErrorIs(t, o.Err, context.Canceled)
		assert.True(t, c.ResolvePermission(o).Ignored)
	case <-time.After(time.Second):
		t.Fatal("permission request was not cancelled")
	}
}

func TestHandle_ResultReplacesTranscript(t *testing.T) {
	c := newTestController(t, &fakeRecognizer{supported: true}, StaticPermission{Granted: true})
	gen := startListening(t, c)

	u := c.Handle(Event{Type: EventResult, Generation: gen, Results: []Result{
		{Alternatives: []Alternative{{Transcript: "x^2"}, {Transcript: "x squared"}}},
	}})
	assert.True(t, u.HasTranscript)
	assert.Equal(t, "x^2", u.Transcript)

	u = c.Handle(Event{Type: EventResult, Generation: gen, Results: []Result{
		{Final: true, Alternatives: []Alternative{{Transcript: "x^2"}}},
		{Alternatives: []Alternative{{Transcript: "+ 1"}}},
	}})
	assert.Equal(t, "x^2 + 1", u.Transcript)
	assert.Equal(t, "x^2 + 1", c.Transcript())
}

func TestHandle_AutoRestartOnEnd(t *testing.T) {
	rec := &fakeRecognizer{supported: true}
	c := newTestController(t, rec, StaticPermission{Granted: true})
	gen := startListening(t, c)

	u := c.Handle(Event{Type: EventEnd, Generation: gen})
	assert.True(t, u.Restarted)
	assert.Equal(t, PhaseListening, u.Phase)
	assert.Equal(t, gen+1, c.Generation())
	assert.Equal(t, []uint64{gen, gen + 1}, rec.starts)
	assert.Equal(t, SessionStarting, c.Session())
}

func TestHandle_StaleEventsDropped(t *testing.T) {
	rec := &fakeRecognizer{supported: true}
	c := newTestController(t, rec, StaticPermission{Granted: true})
	old := startListening(t, c)
	c.Handle(Event{Type: EventEnd, Generation: old}) // restart -> old+1

	u := c.Handle(Event{Type: EventResult, Generation: old, Results: []Result{
		{Alternatives: []Alternative{{Transcript: "late"}}},
	}})
	assert.True(t, u.Ignored)
	assert.False(t, u.HasTranscript)

	u = c.Handle(Event{Type: EventEnd, Generation: old})
	assert.True(t, u.Ignored)
	assert.Len(t, rec.starts, 2)
}

func TestHandle_OldSessionAfterStop(t *testing.T) {
	tests := []struct {
		name string
		// between runs after the user stops and before the old session's
		// events arrive.
		between   func(t *testing.T, c *Controller)
		wantPhase Phase
	}{
		{
			name:      "stopped",
			between:   func(t *testing.T, c *Controller) {},
			wantPhase: PhaseIdle,
		},
		{
			name: "toggled again",
			between: func(t *testing.T, c *Controller) {
				await, err := c.Toggle()
				require.NoError(t, err)
				require.True(t, await)
			},
			wantPhase: PhaseRequestingPermission,
		},
		{
			name: "toggled again then cancelled",
			between: func(t *testing.T, c *Controller) {
				_, err := c.Toggle()
				require.NoError(t, err)
				_, err = c.Toggle()
				require.NoError(t, err)
			},
			wantPhase: PhaseIdle,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := &fakeRecognizer{supported: true}
			c := newTestController(t, rec, StaticPermission{Granted: true})
			old := startListening(t, c)

			_, err := c.Toggle()
			require.NoError(t, err)
			tt.between(t, c)

			for _, ev := range []Event{
				{Type: EventResult, Generation: old, Results: []Result{{Alternatives: []Alternative{{Transcript: "late"}}}}},
				{Type: EventError, Generation: old, Code: "aborted"},
				{Type: EventEnd, Generation: old},
			} {
				u := c.Handle(ev)
				assert.True(t, u.Ignored, "%s from the stopped session", ev.Type)
				assert.False(t, u.Restarted)
			}
			assert.Equal(t, tt.wantPhase, c.Phase())
			assert.Equal(t, []uint64{old}, rec.starts)
			assert.Nil(t, c.LastError())
		})
	}
}

func TestToggle_DenialAfterQuickRestartIsApplied(t *testing.T) {
	rec := &fakeRecognizer{supported: true}
	c := newTestController(t, rec, StaticPermission{Granted: true})
	old := startListening(t, c)

	// Stop, then ask again before the stopped session has ended.
	_, err := c.Toggle()
	require.NoError(t, err)
	await, err := c.Toggle()
	require.NoError(t, err)
	require.True(t, await)

	u := c.Handle(Event{Type: EventEnd, Generation: old})
	assert.True(t, u.Ignored)
	assert.Equal(t, PhaseRequestingPermission, c.Phase())

	c.perm = StaticPermission{Granted: false}
	u = c.ResolvePermission(c.RequestPermission(context.Background()))
	assert.False(t, u.Ignored)
	require.NotNil(t, u.Err)
	assert.Equal(t, KindPermissionDenied, u.Err.Kind)
	assert.Equal(t, PhaseError, c.Phase())
	assert.False(t, c.Capturing())
	assert.Equal(t, []uint64{old}, rec.starts)
}

func TestNewController_ContinuesGenerations(t *testing.T) {
	rec := &fakeRecognizer{supported: true}
	first := newTestController(t, rec, StaticPermission{Granted: true})
	old := startListening(t, first)
	first.Close()

	second := NewController(rec, StaticPermission{Granted: true}, nil,
		Config{GenerationBase: first.Generation()}, zap.NewNop())
	t.Cleanup(second.Close)
	assert.True(t, second.Handle(Event{Type: EventEnd, Generation: old}).Ignored)

	gen := startListening(t, second)
	assert.Greater(t, gen, old)
	assert.True(t, second.Handle(Event{Type: EventResult, Generation: old}).Ignored)
	assert.Equal(t, []uint64{old, gen}, rec.starts)
}

func TestHandle_ErrorClassification(t *testing.T) {
	tests := []struct {
		code      string
		kind      ErrorKind
		phase     Phase
		capturing bool
	}{
		{"not-allowed", KindPermissionDenied, PhaseIdle, false},
		{"service-not-allowed", KindPermissionDenied, PhaseIdle, false},
		{"no-speech", KindNoSpeechDetected, PhaseListening, true},
		{"network", KindOther, PhaseListening, true},
		{"", KindOther, PhaseListening, true},
	}

	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			rec := &fakeRecognizer{supported: true}
			c := newTestController(t, rec, StaticPermission{Granted: true})
			gen := startListening(t, c)

			u := c.Handle(Event{Type: EventError, Generation: gen, Code: tt.code})
			require.NotNil(t, u.Err)
			assert.Equal(t, tt.kind, u.Err.Kind)
			assert.Equal(t, tt.phase, u.Phase)
			assert.Equal(t, tt.capturing, c.Capturing())
			assert.NotEmpty(t, u.Err.Message())
		})
	}
}

func TestHandle_PermissionErrorStopsWithoutRestart(t *testing.T) {
	rec := &fakeRecognizer{supported: true}
	c := newTestController(t, rec, StaticPermission{Granted: true})
	gen := startListening(t, c)

	c.Handle(Event{Type: EventError, Generation: gen, Code: "not-allowed"})
	assert.Equal(t, []uint64{gen}, rec.stops)

	u := c.Handle(Event{Type: EventEnd, Generation: gen})
	assert.False(t, u.Restarted)
	assert.Len(t, rec.starts, 1)
}

func TestHandle_ErrorAfterUserStopDropped(t *testing.T) {
	c := newTestController(t, &fakeRecognizer{supported: true}, StaticPermission{Granted: true})
	gen := startListening(t, c)
	_, err := c.Toggle()
	require.NoError(t, err)

	u := c.Handle(Event{Type: EventError, Generation: gen, Code: "aborted"})
	assert.True(t, u.Ignored)
	assert.Nil(t, c.LastError())
}

func TestHandle_RestartLimit(t *testing.T) {
	core, logs := observer.New(zapcore.WarnLevel)
	rec := &fakeRecognizer{supported: true}
	c := NewController(rec, StaticPermission{Granted: true}, nil,
		Config{RestartBurst: 2, RestartInterval: time.Hour}, zap.New(core))
	defer c.Close()
	gen := startListening(t, c)

	for i := 0; i < 2; i++ {
		u := c.Handle(Event{Type: EventEnd, Generation: gen})
		require.True(t, u.Restarted)
		gen = c.Generation()
	}

	u := c.Handle(Event{Type: EventEnd, Generation: gen})
	assert.False(t, u.Restarted)
	assert.Equal(t, PhaseError, u.Phase)
	require.NotNil(t, u.Err)
	assert.Equal(t, KindOther, u.Err.Kind)
	assert.Equal(t, 1, logs.FilterMessage("speech recognizer restarting too often, giving up").Len())

	// The error phase survives a later end for the same session.
	u = c.Handle(Event{Type: EventEnd, Generation: gen})
	assert.Equal(t, PhaseError, u.Phase)
}

func TestResolvePermission_StartFailure(t *testing.T) {
	rec := &fakeRecognizer{supported: true, startErr: errors.New("no audio device")}
	c := newTestController(t, rec, StaticPermission{Granted: true})

	_, err := c.Toggle()
	require.NoError(t, err)
	u := c.ResolvePermission(c.RequestPermission(context.Background()))

	require.NotNil(t, u.Err)
	assert.Equal(t, KindOther, u.Err.Kind)
	assert.Equal(t, PhaseError, u.Phase)
	assert.False(t, c.Capturing())
}

func TestClose(t *testing.T) {
	rec := &fakeRecognizer{supported: true}
	c := NewController(rec, StaticPermission{Granted: true}, nil, Config{}, nil)
	gen := startListening(t, c)

	c.Close()
	c.Close()

	assert.Equal(t, PhaseIdle, c.Phase())
	assert.Equal(t, []uint64{gen}, rec.stops)
	_, err := c.Toggle()
	assert.Error(t, err)
	assert.True(t, c.Handle(Event{Type: EventEnd, Generation: gen}).Ignored)
}

func TestJoinTranscript(t *testing.T) {
	assert.Equal(t, "", JoinTranscript(nil))
	assert.Equal(t, "a b", JoinTranscript([]Result{
		{Alternatives: []Alternative{{Transcript: "a"}}},
		{},
		{Alternatives: []Alternative{{Transcript: "b"}, {Transcript: "c"}}},
	}))
}

func TestCaptureError(t *testing.T) {
	err := Classify("no-speech", nil)
	assert.Equal(t, "speech: no-speech", err.Error())
	assert.ErrorIs(t, err, &CaptureError{Kind: KindNoSpeechDetected})
	assert.NotErrorIs(t, err, &CaptureError{Kind: KindOther})

	cause := errors.New("device busy")
	wrapped := Classify("audio-capture", cause)
	assert.Equal(t, "speech: other (audio-capture): device busy", wrapped.Error())
	assert.ErrorIs(t, wrapped, cause)
}
