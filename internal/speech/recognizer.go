// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package speech

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"strings"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Options configure a recognition session.
type Options struct {
	Language       string
	Continuous     bool
	InterimResults bool
}

// Recognizer is a streaming speech-to-text engine.
//
// Start begins a session identified by gen and delivers its events to sink
// from another goroutine; the session always ends with an EventEnd. Stop is
// idempotent and asks the session to end.
type Recognizer interface {
	Supported() bool
	Start(ctx context.Context, gen uint64, opts Options, sink Sink) error
	Stop(gen uint64) error
}

// =============================================================================
// COMMAND RECOGNIZER
// =============================================================================

// LanguagePlaceholder in a command argument is replaced with the session
// language.
const LanguagePlaceholder = "{lang}"

// maxLineSize bounds a single JSON line from the recognizer process.
const maxLineSize = 1024 * 1024

// CommandRecognizer runs an external speech-to-text process per session and
// reads JSON lines from its standard output:
//
//	{"type":"start"}
//	{"type":"result","results":[{"final":true,"alternatives":[{"transcript":"hello","confidence":0.9}]}]}
//	{"type":"error","error":"no-speech"}
//
// The process exiting ends the session. Standard error is logged.
type CommandRecognizer struct {
	argv     []string
	logger   *zap.Logger
	lookPath func(string) (string, error)

	mu      sync.Mutex
	running map[uint64]*recognizerProcess
	wg      sync.WaitGroup
}

type recognizerProcess struct {
	cmd    *exec.Cmd
	cancel context.CancelFunc
}

// NewCommandRecognizer creates a recognizer that runs argv for each session.
func NewCommandRecognizer(argv []string, logger *zap.Logger) *CommandRecognizer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CommandRecognizer{
		argv:     append([]string(nil), argv...),
		logger:   logger,
		lookPath: exec.LookPath,
		running:  make(map[uint64]*recognizerProcess),
	}
}

// Supported reports whether a command is configured and can be found.
func (r *CommandRecognizer) Supported() bool {
	if len(r.argv) == 0 || strings.TrimSpace(r.argv[0]) == "" {
		return false
	}
	_, err := r.lookPath(r.argv[0])
	return err == nil
}

// Start launches the recognizer process for session gen.
func (r *CommandRecognizer) Start(ctx context.Context, gen uint64, opts Options, sink Sink) error {
	if !r.Supported() {
		return ErrUnsupported
	}

	args := make([]string, len(r.argv)-1)
	for i, a := range r.argv[1:] {
		args[i] = strings.ReplaceAll(a, LanguagePlaceholder, opts.Language)
	}

	pctx, cancel := context.WithCancel(ctx)
	cmd := exec.CommandContext(pctx, r.argv[0], args...)
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		cancel()
		return fmt.Errorf("recognizer stdout: %w", err)
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		cancel()
		return fmt.Errorf("recognizer stderr: %w", err)
	}
	if err := cmd.Start(); err != nil {
		cancel()
		return fmt.Errorf("start recognizer %s: %w", r.argv[0], err)
	}

	r.mu.Lock()
	r.running[gen] = &recognizerProcess{cmd: cmd, cancel: cancel}
	r.mu.Unlock()

	r.logger.Debug("recognizer started",
		zap.Uint64("generation", gen),
		zap.Int("pid", cmd.Process.Pid),
		zap.String("language", opts.Language))

	r.wg.Add(1)
	go r.run(pctx, gen, cmd, stdout, stderr, sink)
	return nil
}

// run pumps the process output until it exits, then emits EventEnd.
func (r *CommandRecognizer) run(ctx context.Context, gen uint64, cmd *exec.Cmd, stdout, stderr io.Reader, sink Sink) {
	defer r.wg.Done()

	var g errgroup.Group
	g.Go(func() error {
		return r.pumpEvents(gen, stdout, sink)
	})
	g.Go(func() error {
		return r.pumpStderr(gen, stderr)
	})
	if err := g.Wait(); err != nil {
		r.logger.Warn("recognizer output error", zap.Uint64("generation", gen), zap.Error(err))
	}

	if err := cmd.Wait(); err != nil && ctx.Err() == nil {
		r.logger.Warn("recognizer exited with error", zap.Uint64("generation", gen), zap.Error(err))
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			sink(Event{Type: EventError, Generation: gen, Code: "audio-capture", Err: err})
		}
	}

	r.mu.Lock()
	if p, ok := r.running[gen]; ok {
		p.cancel()
		delete(r.running, gen)
	}
	r.mu.Unlock()

	sink(Event{Type: EventEnd, Generation: gen})
}

type wireEvent struct {
	Type    string   `json:"type"`
	Results []Result `json:"results,omitempty"`
	Error   string   `json:"error,omitempty"`
	Message string   `json:"message,omitempty"`
}

func (r *CommandRecognizer) pumpEvents(gen uint64, stdout io.Reader, sink Sink) error {
	scanner := bufio.NewScanner(stdout)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineSize)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		var we wireEvent
		if err := json.Unmarshal([]byte(line), &we); err != nil {
			r.logger.Debug("ignoring malformed recognizer line", zap.String("line", line), zap.Error(err))
			continue
		}
		switch we.Type {
		case "start":
			sink(Event{Type: EventStart, Generation: gen})
		case "result":
			sink(Event{Type: EventResult, Generation: gen, Results: we.Results})
		case "error":
			var cause error
			if we.Message != "" {
				cause = errors.New(we.Message)
			}
			sink(Event{Type: EventError, Generation: gen, Code: we.Error, Err: cause})
		default:
			r.logger.Debug("ignoring recognizer event", zap.String("type", we.Type))
		}
	}
	return scanner.Err()
}

func (r *CommandRecognizer) pumpStderr(gen uint64, stderr io.Reader) error {
	scanner := bufio.NewScanner(stderr)
	for scanner.Scan() {
		r.logger.Debug("recognizer stderr",
			zap.Uint64("generation", gen),
			zap.String("line", scanner.Text()))
	}
	return scanner.Err()
}

// Stop ends session gen. Stopping an unknown or finished session is a no-op.
func (r *CommandRecognizer) Stop(gen uint64) error {
	r.mu.Lock()
	p, ok := r.running[gen]
	r.mu.Unlock()
	if !ok {
		return nil
	}
	p.cancel()
	return nil
}

// Close stops every session and waits for their goroutines to finish.
func (r *CommandRecognizer) Close() {
	r.mu.Lock()
	for _, p := range r.running {
		p.cancel()
	}
	r.mu.Unlock()
	r.wg.Wait()
}
