// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package speech

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// =============================================================================
// CONFIGURATION
// =============================================================================

// Config holds controller settings.
type Config struct {
	// Language is the BCP 47 tag passed to the recognizer.
	Language string

	// RestartBurst and RestartInterval bound automatic restarts after the
	// recognizer ends on its own.
	RestartBurst    int
	RestartInterval time.Duration

	// GenerationBase is the last session id handed out by a previous
	// controller. Ids continue above it so that controller's late events
	// stay stale.
	GenerationBase uint64
}

// DefaultConfig returns the default controller settings.
func DefaultConfig() Config {
	return Config{
		Language:        "fa-IR",
		RestartBurst:    5,
		RestartInterval: 2 * time.Second,
	}
}

// PermissionOutcome is the result of a permission request. Ticket ties it to
// the toggle that asked, so answers to cancelled requests are ignored.
type PermissionOutcome struct {
	Ticket uint64
	Err    error
}

// Granted reports whether access was granted.
func (o PermissionOutcome) Granted() bool {
	return o.Err == nil
}

// =============================================================================
// CONTROLLER
// =============================================================================

// Controller drives continuous speech capture: permission negotiation,
// automatic restart when the recognizer ends while the user still wants to
// listen, and error classification.
//
// Every method is safe for concurrent use. Recognizer.Start must not deliver
// events synchronously.
type Controller struct {
	mu sync.Mutex

	rec    Recognizer
	perm   Permission
	sink   Sink
	cfg    Config
	logger *zap.Logger

	restarts *rate.Limiter

	phase      Phase
	desired    Desired
	session    SessionState
	generation uint64
	ticket     uint64
	lastErr    *CaptureError
	transcript string

	permCancel context.CancelFunc
	ctx        context.Context
	cancel     context.CancelFunc
	closed     bool
}

// NewController creates a controller. Recognizer events are delivered to
// sink, which is expected to route them back to Handle.
func NewController(rec Recognizer, perm Permission, sink Sink, cfg Config, logger *zap.Logger) *Controller {
	defaults := DefaultConfig()
	if cfg.Language == "" {
		cfg.Language = defaults.Language
	}
	if cfg.RestartBurst <= 0 {
		cfg.RestartBurst = defaults.RestartBurst
	}
	if cfg.RestartInterval <= 0 {
		cfg.RestartInterval = defaults.RestartInterval
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if perm == nil {
		perm = StaticPermission{Granted: true}
	}
	if sink == nil {
		sink = func(Event) {}
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &Controller{
		rec:        rec,
		perm:       perm,
		sink:       sink,
		cfg:        cfg,
		logger:     logger,
		restarts:   rate.NewLimiter(rate.Every(cfg.RestartInterval), cfg.RestartBurst),
		generation: cfg.GenerationBase,
		ctx:        ctx,
		cancel:     cancel,
	}
}

// Supported reports whether speech capture can run at all.
func (c *Controller) Supported() bool {
	return c.rec != nil && c.rec.Supported()
}

// Toggle flips capture on or off. When it returns awaitPermission the caller
// must run RequestPermission and pass the outcome to ResolvePermission.
func (c *Controller) Toggle() (awaitPermission bool, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed || !c.Supported() {
		return false, newCaptureError(KindUnsupported, "", ErrUnsupported)
	}

	switch c.phase {
	case PhaseListening:
		c.desired = DesiredIdle
		c.phase = PhaseIdle
		c.logger.Debug("speech capture stopped by user", zap.Uint64("generation", c.generation))
		c.retireLocked()
		return false, nil

	case PhaseRequestingPermission:
		c.desired = DesiredIdle
		c.phase = PhaseIdle
		c.ticket++
		if c.permCancel != nil {
			c.permCancel()
			c.permCancel = nil
		}
		c.logger.Debug("permission request cancelled")
		return false, nil

	default:
		c.desired = DesiredListening
		c.phase = PhaseRequestingPermission
		c.lastErr = nil
		c.ticket++
		return true, nil
	}
}

// RequestPermission asks the Permission collaborator for access. It blocks
// and changes no state, so it can run off the UI goroutine.
func (c *Controller) RequestPermission(ctx context.Context) PermissionOutcome {
	c.mu.Lock()
	ticket := c.ticket
	perm := c.perm
	if c.permCancel != nil {
		c.permCancel()
	}
	reqCtx, cancel := context.WithCancel(ctx)
	c.permCancel = cancel
	c.mu.Unlock()

	err := perm.Request(reqCtx)

	c.mu.Lock()
	if c.ticket == ticket && c.permCancel != nil {
		c.permCancel = nil
	}
	c.mu.Unlock()
	cancel()

	return PermissionOutcome{Ticket: ticket, Err: err}
}

// ResolvePermission applies a permission outcome. Outcomes for cancelled or
// superseded requests are ignored.
func (c *Controller) ResolvePermission(o PermissionOutcome) Update {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed || o.Ticket != c.ticket || c.desired != DesiredListening || c.phase != PhaseRequestingPermission {
		return Update{Phase: c.phase, Ignored: true}
	}

	if o.Err != nil {
		kind := KindOther
		code := ""
		if errors.Is(o.Err, ErrPermissionDenied) {
			kind = KindPermissionDenied
			code = "not-allowed"
		}
		c.lastErr = newCaptureError(kind, code, o.Err)
		c.phase = PhaseError
		c.desired = DesiredIdle
		c.logger.Info("microphone permission not granted", zap.Error(o.Err))
		return Update{Phase: c.phase, Err: c.lastErr}
	}

	return c.startLocked(false)
}

// Handle applies a recognizer event.
func (c *Controller) Handle(ev Event) Update {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed || ev.Generation != c.generation {
		c.logger.Debug("dropping stale speech event",
			zap.Stringer("type", ev.Type),
			zap.Uint64("event_generation", ev.Generation),
			zap.Uint64("generation", c.generation))
		return Update{Phase: c.phase, Ignored: true}
	}

	switch ev.Type {
	case EventStart:
		c.session = SessionRunning
		c.lastErr = nil
		return Update{Phase: c.phase}

	case EventResult:
		c.transcript = JoinTranscript(ev.Results)
		return Update{Phase: c.phase, Transcript: c.transcript, HasTranscript: true}

	case EventError:
		if c.desired == DesiredIdle {
			return Update{Phase: c.phase, Ignored: true}
		}
		cerr := Classify(ev.Code, ev.Err)
		c.lastErr = cerr
		c.logger.Info("speech recognition error",
			zap.String("code", ev.Code),
			zap.Stringer("kind", cerr.Kind))
		if cerr.Kind == KindPermissionDenied {
			c.desired = DesiredIdle
			c.phase = PhaseIdle
			c.retireLocked()
		}
		return Update{Phase: c.phase, Err: cerr}

	case EventEnd:
		c.session = SessionStopped
		// Only a running capture restarts. A new toggle waiting on
		// permission must not be started by the previous session's end.
		if c.desired == DesiredListening && c.phase == PhaseListening {
			if !c.restarts.Allow() {
				c.desired = DesiredIdle
				c.phase = PhaseError
				c.lastErr = newCaptureError(KindOther, "restart-limit", nil)
				c.logger.Warn("speech recognizer restarting too often, giving up")
				return Update{Phase: c.phase, Err: c.lastErr}
			}
			return c.startLocked(true)
		}
		if c.phase != PhaseError {
			c.phase = PhaseIdle
		}
		return Update{Phase: c.phase}
	}

	return Update{Phase: c.phase, Ignored: true}
}

// Close tears capture down. The controller cannot be used afterwards.
func (c *Controller) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.desired = DesiredIdle
	c.phase = PhaseIdle
	c.ticket++
	if c.permCancel != nil {
		c.permCancel()
		c.permCancel = nil
	}
	c.retireLocked()
	c.cancel()
	c.closed = true
}

// startLocked begins a new recognition session. mu must be held.
func (c *Controller) startLocked(restart bool) Update {
	c.generation++
	c.session = SessionStarting
	opts := Options{
		Language:       c.cfg.Language,
		Continuous:     true,
		InterimResults: true,
	}

	if err := c.rec.Start(c.ctx, c.generation, opts, c.sink); err != nil {
		kind := KindOther
		if errors.Is(err, ErrUnsupported) {
			kind = KindUnsupported
		}
		c.session = SessionStopped
		c.desired = DesiredIdle
		c.phase = PhaseError
		c.lastErr = newCaptureError(kind, "", err)
		c.logger.Warn("failed to start speech recognizer",
			zap.Bool("restart", restart),
			zap.Error(err))
		return Update{Phase: c.phase, Err: c.lastErr}
	}

	c.phase = PhaseListening
	if restart {
		c.logger.Debug("speech recognizer restarted", zap.Uint64("generation", c.generation))
	}
	return Update{Phase: c.phase, Restarted: restart}
}

// stopLocked stops the current platform session. Errors are only logged.
// mu must be held.
func (c *Controller) stopLocked() {
	if c.session == SessionStopped || c.rec == nil {
		return
	}
	if err := c.rec.Stop(c.generation); err != nil {
		c.logger.Warn("failed to stop speech recognizer", zap.Error(err))
	}
}

// retireLocked stops the current session and moves to a fresh generation
// with no session, so events still queued from the old one are dropped.
// mu must be held.
func (c *Controller) retireLocked() {
	c.stopLocked()
	c.generation++
	c.session = SessionStopped
}

// =============================================================================
// ACCESSORS
// =============================================================================

// Phase returns the current phase.
func (c *Controller) Phase() Phase {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.phase
}

// Desired returns the state the user asked for.
func (c *Controller) Desired() Desired {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.desired
}

// Session returns the platform session state.
func (c *Controller) Session() SessionState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.session
}

// Generation returns the most recent session id. Events carrying any other
// id are dropped.
func (c *Controller) Generation() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.generation
}

// LastError returns the most recent capture error, or nil.
func (c *Controller) LastError() *CaptureError {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastErr
}

// Transcript returns the latest joined transcript.
func (c *Controller) Transcript() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.transcript
}

// Capturing reports whether capture is active or about to be. Submitting a
// message is blocked while this is true.
func (c *Controller) Capturing() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.phase == PhaseListening || c.phase == PhaseRequestingPermission
}
