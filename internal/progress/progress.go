// SPDX-FileCopyrightText: 2026 specforge
// SPDX-License-Identifier: FSL-1.1-MIT

// Package progress reports the stages of a long-running generation as an
// ordered stream of events.
package progress

import (
	"context"
	"errors"
	"fmt"
	"sync"
)

// Stage names a step of the generation flow.
type Stage string

const (
	StageInitializing   Stage = "initializing"
	StageDirectoryReady Stage = "directory-ready"
	StageCodeGenerated  Stage = "code-generated"
	StageComplete       Stage = "complete"

	// StageError is terminal and reachable from any non-terminal stage.
	StageError Stage = "error"
)

// Stages lists the regular stages in the order they must be reached.
var Stages = []Stage{StageInitializing, StageDirectoryReady, StageCodeGenerated, StageComplete}

// IsTerminal reports whether no event may follow s.
func (s Stage) IsTerminal() bool {
	return s == StageComplete || s == StageError
}

var (
	// ErrOutOfOrder is returned when a stage is skipped or repeated.
	ErrOutOfOrder = errors.New("stage out of order")

	// ErrTerminal is returned once complete or error has been emitted.
	ErrTerminal = errors.New("reporter already finished")
)

// Event is one progress message.
type Event struct {
	Stage   Stage  `json:"stage"`
	Step    int    `json:"step"`
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

// Sink receives progress events.
type Sink interface {
	Emit(ctx context.Context, e Event) error
}

// SinkFunc adapts a function to Sink.
type SinkFunc func(ctx context.Context, e Event) error

func (f SinkFunc) Emit(ctx context.Context, e Event) error {
	return f(ctx, e)
}

// Reporter is the stage state machine. It is safe for concurrent use.
type Reporter struct {
	mu   sync.Mutex
	sink Sink
	next int
	last Stage
	done bool
}

// NewReporter creates a reporter that emits to sink.
func NewReporter(sink Sink) *Reporter {
	return &Reporter{sink: sink}
}

// Advance emits the next stage. A cancelled context stops emission.
func (r *Reporter) Advance(ctx context.Context, stage Stage, message, code string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.done {
		return ErrTerminal
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	if r.next >= len(Stages) || Stages[r.next] != stage {
		return fmt.Errorf("%w: got %s, want %s", ErrOutOfOrder, stage, r.expected())
	}

	e := Event{Stage: stage, Step: r.next + 1, Message: message, Code: code}
	if err := r.sink.Emit(ctx, e); err != nil {
		return fmt.Errorf("failed to emit %s: %w", stage, err)
	}

	r.next++
	r.last = stage
	r.done = stage.IsTerminal()
	return nil
}

// Fail emits the error stage and finishes the reporter. Nothing is emitted
// when the context is already cancelled.
func (r *Reporter) Fail(ctx context.Context, cause error) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.done {
		return ErrTerminal
	}
	r.done = true
	r.last = StageError
	if err := ctx.Err(); err != nil {
		return err
	}

	message := "Error: unknown failure"
	if cause != nil {
		message = "Error: " + cause.Error()
	}
	e := Event{Stage: StageError, Step: r.next + 1, Message: message}
	if err := r.sink.Emit(ctx, e); err != nil {
		return fmt.Errorf("failed to emit error: %w", err)
	}
	return nil
}

// Current returns the last emitted stage, or "" before the first one.
func (r *Reporter) Current() Stage {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.last
}

// Done reports whether a terminal stage was reached.
func (r *Reporter) Done() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.done
}

func (r *Reporter) expected() Stage {
	if r.next < len(Stages) {
		return Stages[r.next]
	}
	return ""
}
