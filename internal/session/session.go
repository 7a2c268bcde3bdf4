// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package session

import (
	"context"
	"errors"
	"sync"

	"go.uber.org/zap"

	"github.com/jeranaias/ragchat-tui/internal/annotate"
	"github.com/jeranaias/ragchat-tui/internal/backend"
	"github.com/jeranaias/ragchat-tui/internal/compose"
	"github.com/jeranaias/ragchat-tui/internal/config"
	"github.com/jeranaias/ragchat-tui/internal/markup"
	"github.com/jeranaias/ragchat-tui/internal/model"
	"github.com/jeranaias/ragchat-tui/internal/speech"
)

// Fixed assistant replies used when a query fails.
const (
	// ErrorReplyStatus is shown when the backend answered with an error.
	ErrorReplyStatus = "Error receiving a response from the server."
	// ErrorReplyNetwork is shown when the backend could not be reached or
	// its answer could not be read.
	ErrorReplyNetwork = "Error communicating with the server."
)

// ErrNotLoggedIn is returned by Exchange without a credential.
var ErrNotLoggedIn = errors.New("session: not logged in")

// =============================================================================
// CONFIGURATION
// =============================================================================

// Backend answers queries on behalf of a logged-in user.
type Backend interface {
	Query(ctx context.Context, token, query string) (string, error)
}

// Config holds session settings.
type Config struct {
	Speech speech.Config

	// Compose box sizing. Width is the wrap width in cells.
	Width      int
	LineHeight int
	MaxLines   int

	// SkipCode leaves code blocks out of the bracket math pass.
	SkipCode bool
}

// DefaultConfig returns the default session configuration.
func DefaultConfig() Config {
	return Config{
		Speech:     speech.DefaultConfig(),
		Width:      80,
		LineHeight: compose.DefaultLineHeight,
		MaxLines:   compose.DefaultMaxLines,
	}
}

// ConfigFrom maps the application config onto session settings.
func ConfigFrom(cfg *config.Config) Config {
	out := DefaultConfig()
	out.Speech.Language = cfg.Speech.Language
	out.Speech.RestartBurst = cfg.Speech.RestartBurst
	out.Speech.RestartInterval = cfg.Speech.RestartInterval.Std()
	out.LineHeight = cfg.Compose.LineHeight
	out.MaxLines = cfg.Compose.MaxLines
	out.SkipCode = cfg.Annotate.SkipCode
	return out
}

// Options carries the collaborators of a session. Only Backend is required.
type Options struct {
	Backend    Backend
	Recognizer speech.Recognizer
	Permission speech.Permission
	// SpeechSink receives recognizer events; the owner routes them back to
	// HandleSpeech.
	SpeechSink speech.Sink
	Math       markup.MathRenderer
	Logger     *zap.Logger
}

// View is the derived display tree of an assistant message.
type View struct {
	Tree      *markup.Node
	Annotated bool
}

// =============================================================================
// CHAT SESSION
// =============================================================================

// ChatSession ties the conversation, the compose buffer, speech capture and
// the reply pipeline together. It knows nothing about the terminal; the UI
// drives it and renders its state.
type ChatSession struct {
	mu sync.Mutex

	cfg    Config
	opts   Options
	logger *zap.Logger

	conv     *model.Conversation
	draft    *compose.Buffer
	markdown *markup.Renderer
	annot    *annotate.Annotator
	views    map[string]*View

	// created on the first capture toggle
	capture *speech.Controller
	// last session id of the dropped controller
	lastGeneration uint64

	token   string
	loading bool
}

// New creates a session.
func New(cfg Config, opts Options) *ChatSession {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	return &ChatSession{
		cfg:      cfg,
		opts:     opts,
		logger:   logger,
		conv:     model.NewConversation(),
		draft:    compose.NewBuffer(cfg.Width, cfg.LineHeight, cfg.MaxLines),
		markdown: markup.NewRenderer(opts.Math, markup.WithLogger(logger)),
		annot: &annotate.Annotator{
			Math:     opts.Math,
			SkipCode: cfg.SkipCode,
			Logger:   logger,
		},
		views: make(map[string]*View),
	}
}

// =============================================================================
// CREDENTIAL
// =============================================================================

// SetToken stores the bearer credential obtained at login.
func (s *ChatSession) SetToken(token string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.token = token
}

// LoggedIn reports whether a credential is held.
func (s *ChatSession) LoggedIn() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.token != ""
}

// =============================================================================
// COMPOSE BUFFER
// =============================================================================

// SetDraft replaces the text being composed.
func (s *ChatSession) SetDraft(text string) compose.Geometry {
	return s.draft.Set(text)
}

// Draft returns the text being composed.
func (s *ChatSession) Draft() string {
	return s.draft.Value()
}

// Geometry returns the compose box geometry.
func (s *ChatSession) Geometry() compose.Geometry {
	return s.draft.Geometry()
}

// DraftLines returns the visible height of the compose box in lines.
func (s *ChatSession) DraftLines() int {
	return s.draft.Lines()
}

// SetWidth updates the compose wrap width.
func (s *ChatSession) SetWidth(width int) compose.Geometry {
	return s.draft.SetWidth(width)
}

// =============================================================================
// SPEECH CAPTURE
// =============================================================================

// SpeechSupported reports whether dictation is available at all.
func (s *ChatSession) SpeechSupported() bool {
	return s.opts.Recognizer != nil && s.opts.Recognizer.Supported()
}

// controller returns the capture controller, creating it on first use.
// mu must be held.
func (s *ChatSession) controller() *speech.Controller {
	if s.capture == nil {
		cfg := s.cfg.Speech
		cfg.GenerationBase = s.lastGeneration
		s.capture = speech.NewController(s.opts.Recognizer, s.opts.Permission, s.opts.SpeechSink, cfg, s.logger.Named("speech"))
	}
	return s.capture
}

// dropCapture tears the controller down and remembers where its session ids
// ended. mu must be held.
func (s *ChatSession) dropCapture() {
	if s.capture == nil {
		return
	}
	s.capture.Close()
	s.lastGeneration = s.capture.Generation()
	s.capture = nil
}

// ToggleCapture starts or stops dictation. It is ignored while a query is in
// flight. When awaitPermission is true the caller must run RequestPermission
// off the UI loop and hand the outcome to ResolvePermission.
func (s *ChatSession) ToggleCapture() (awaitPermission bool, err error) {
	s.mu.Lock()
	if s.loading {
		s.mu.Unlock()
		return false, nil
	}
	ctrl := s.controller()
	s.mu.Unlock()

	return ctrl.Toggle()
}

// RequestPermission blocks until microphone access is decided.
func (s *ChatSession) RequestPermission(ctx context.Context) speech.PermissionOutcome {
	s.mu.Lock()
	ctrl := s.controller()
	s.mu.Unlock()

	return ctrl.RequestPermission(ctx)
}

// ResolvePermission applies a permission outcome.
func (s *ChatSession) ResolvePermission(o speech.PermissionOutcome) speech.Update {
	s.mu.Lock()
	ctrl := s.capture
	s.mu.Unlock()

	if ctrl == nil {
		return speech.Update{Ignored: true}
	}
	return ctrl.ResolvePermission(o)
}

// HandleSpeech applies a recognizer event. A transcript replaces the draft
// outright, including any manual edits made since the last result.
func (s *ChatSession) HandleSpeech(ev speech.Event) speech.Update {
	s.mu.Lock()
	ctrl := s.capture
	s.mu.Unlock()

	if ctrl == nil {
		return speech.Update{Ignored: true}
	}

	u := ctrl.Handle(ev)
	if u.HasTranscript {
		s.draft.Set(u.Transcript)
	}
	return u
}

// CapturePhase returns the capture phase; Idle before the first toggle.
func (s *ChatSession) CapturePhase() speech.Phase {
	s.mu.Lock()
	ctrl := s.capture
	s.mu.Unlock()

	if ctrl == nil {
		return speech.PhaseIdle
	}
	return ctrl.Phase()
}

// CaptureError returns the last capture error, or nil.
func (s *ChatSession) CaptureError() *speech.CaptureError {
	s.mu.Lock()
	ctrl := s.capture
	s.mu.Unlock()

	if ctrl == nil {
		return nil
	}
	return ctrl.LastError()
}

// Capturing reports whether capture is active or awaiting permission.
func (s *ChatSession) Capturing() bool {
	s.mu.Lock()
	ctrl := s.capture
	s.mu.Unlock()

	return ctrl != nil && ctrl.Capturing()
}

// =============================================================================
// SUBMIT FLOW
// =============================================================================

// Loading reports whether a query is in flight.
func (s *ChatSession) Loading() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loading
}

// CanSubmit reports whether the draft may be sent now: it is not blank, no
// query is in flight and dictation is off.
func (s *ChatSession) CanSubmit() bool {
	s.mu.Lock()
	loading := s.loading
	s.mu.Unlock()

	return !loading && !s.draft.IsBlank() && !s.Capturing()
}

// BeginSubmit appends the draft as a user message, clears the draft and
// marks a query in flight. The draft is sent exactly as typed.
func (s *ChatSession) BeginSubmit() (query string, ok bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.loading || s.draft.IsBlank() || (s.capture != nil && s.capture.Capturing()) {
		return "", false
	}

	query = s.draft.Value()
	s.conv.AddUserMessage(query)
	s.draft.Reset()
	s.loading = true
	return query, true
}

// Exchange sends query to the backend with the session credential. It blocks
// and touches no session state besides reading the credential.
func (s *ChatSession) Exchange(ctx context.Context, query string) (string, error) {
	s.mu.Lock()
	token := s.token
	s.mu.Unlock()

	if token == "" {
		return "", ErrNotLoggedIn
	}
	return s.opts.Backend.Query(ctx, token, query)
}

// CompleteSubmit appends the assistant reply, or a fixed error reply when err
// is set, and clears the in-flight flag. The reply is rendered immediately;
// the bracket math pass runs later through AnnotatePending.
//
// A reply arriving after Logout is dropped and nil is returned.
func (s *ChatSession) CompleteSubmit(reply string, err error) *model.Message {
	if !s.Loading() {
		s.logger.Debug("dropping reply for a finished session")
		return nil
	}

	var msg *model.Message
	if err != nil {
		text := ErrorReplyStatus
		if replyIsNetworkFailure(err) {
			text = ErrorReplyNetwork
		}
		s.logger.Warn("query failed", zap.Error(err))
		msg = model.NewErrorReply(text)
	} else {
		msg = model.NewAssistantMessage(reply)
	}

	tree, rerr := s.markdown.Render(msg.Content)
	if rerr != nil {
		s.logger.Warn("markdown render failed; showing plain text", zap.Error(rerr))
		tree = markup.NewDocument(markup.NewText(msg.Content))
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.conv.Append(msg)
	s.views[msg.ID] = &View{Tree: tree}
	s.loading = false
	return msg
}

func replyIsNetworkFailure(err error) bool {
	if backend.IsTransport(err) || errors.Is(err, backend.ErrInvalidResponse) {
		return true
	}
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}

// =============================================================================
// VIEWS
// =============================================================================

// AnnotatePending runs the bracket math pass over every rendered assistant
// view that has not been annotated yet and returns how many were processed.
func (s *ChatSession) AnnotatePending() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	n := 0
	for id, v := range s.views {
		if v.Annotated {
			continue
		}
		tree, err := s.annot.Annotate(v.Tree)
		if err != nil {
			if errors.Is(err, annotate.ErrRenderTargetMissing) {
				s.logger.Debug("no tree to annotate", zap.String("message", id))
			}
			v.Annotated = true
			continue
		}
		s.views[id] = &View{Tree: tree, Annotated: true}
		n++
	}
	return n
}

// View returns the derived tree of an assistant message.
func (s *ChatSession) View(id string) (View, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	v, ok := s.views[id]
	if !ok {
		return View{}, false
	}
	return *v, true
}

// Messages returns the conversation in order.
func (s *ChatSession) Messages() []*model.Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.conv.Messages()
}

// =============================================================================
// TEARDOWN
// =============================================================================

// Logout stops capture and drops the credential, the conversation and the
// draft.
func (s *ChatSession) Logout() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.dropCapture()
	s.token = ""
	s.loading = false
	s.conv.Reset()
	s.views = make(map[string]*View)
	s.draft.Reset()
}

// Close stops capture. The session can still be read afterwards.
func (s *ChatSession) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.dropCapture()
}
