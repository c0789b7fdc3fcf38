// SPDX-FileCopyrightText: 2026 specforge
// SPDX-License-Identifier: FSL-1.1-MIT

package progress

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func runAll(t *testing.T, r *Reporter) {
	t.Helper()
	ctx := context.Background()
	require.NoError(t, r.Advance(ctx, StageInitializing, "Initializing generation...", ""))
	require.NoError(t, r.Advance(ctx, StageDirectoryReady, "Directory created.", ""))
	require.NoError(t, r.Advance(ctx, StageCodeGenerated, "Code generated", "app.listen(3000)"))
	require.NoError(t, r.Advance(ctx, StageComplete, "Generation complete!", ""))
}

func TestReporter_FullRun(t *testing.T) {
	rec := &Recorder{}
	r := NewReporter(rec)
	runAll(t, r)

	assert.Equal(t, Stages, rec.Stages())
	events := rec.Events()
	for i, e := range events {
		assert.Equal(t, i+1, e.Step)
	}
	assert.Equal(t, "app.listen(3000)", events[2].Code)
	assert.True(t, r.Done())
	assert.Equal(t, StageComplete, r.Current())

	err := r.Advance(context.Background(), StageComplete, "again", "")
	assert.ErrorIs(t, err, ErrTerminal)
	assert.ErrorIs(t, r.Fail(context.Background(), errors.New("late")), ErrTerminal)
	assert.Len(t, rec.Events(), 4)
}

func TestReporter_OutOfOrder(t *testing.T) {
	rec := &Recorder{}
	r := NewReporter(rec)
	ctx := context.Background()

	assert.ErrorIs(t, r.Advance(ctx, StageDirectoryReady, "skip", ""), ErrOutOfOrder)
	require.NoError(t, r.Advance(ctx, StageInitializing, "init", ""))
	assert.ErrorIs(t, r.Advance(ctx, StageInitializing, "repeat", ""), ErrOutOfOrder)
	assert.ErrorIs(t, r.Advance(ctx, StageError, "not via advance", ""), ErrOutOfOrder)

	assert.Equal(t, []Stage{StageInitializing}, rec.Stages())
	assert.False(t, r.Done())
}

func TestReporter_Fail(t *testing.T) {
	rec := &Recorder{}
	r := NewReporter(rec)
	ctx := context.Background()

	require.NoError(t, r.Advance(ctx, StageInitializing, "init", ""))
	require.NoError(t, r.Fail(ctx, errors.New("disk full")))

	events := rec.Events()
	require.Len(t, events, 2)
	assert.Equal(t, StageError, events[1].Stage)
	assert.Equal(t, 2, events[1].Step)
	assert.Equal(t, "Error: disk full", events[1].Message)

	assert.ErrorIs(t, r.Advance(ctx, StageDirectoryReady, "dir", ""), ErrTerminal)
	assert.Len(t, rec.Events(), 2)
}

func TestReporter_FailWithoutCause(t *testing.T) {
	rec := &Recorder{}
	r := NewReporter(rec)

	require.NotPanics(t, func() {
		require.NoError(t, r.Fail(context.Background(), nil))
	})

	events := rec.Events()
	require.Len(t, events, 1)
	assert.Equal(t, StageError, events[0].Stage)
	assert.Equal(t, "Error: unknown failure", events[0].Message)
}

func TestReporter_Cancelled(t *testing.T) {
	rec := &Recorder{}
	r := NewReporter(rec)
	ctx, cancel := context.WithCancel(context.Background())

	require.NoError(t, r.Advance(ctx, StageInitializing, "init", ""))
	cancel()

	assert.ErrorIs(t, r.Advance(ctx, StageDirectoryReady, "dir", ""), context.Canceled)
	assert.ErrorIs(t, r.Fail(ctx, errors.New("gone")), context.Canceled)
	assert.Len(t, rec.Events(), 1)
	assert.True(t, r.Done())
}

func TestReporter_SinkError(t *testing.T) {
	failing := SinkFunc(func(context.Context, Event) error {
		return errors.New("broken pipe")
	})
	r := NewReporter(failing)

	err := r.Advance(context.Background(), StageInitializing, "init", "")
	assert.ErrorContains(t, err, "broken pipe")
	assert.Equal(t, Stage(""), r.Current())
}

func TestChannelSink(t *testing.T) {
	sink := NewChannelSink(len(Stages))
	r := NewReporter(sink)
	runAll(t, r)
	sink.Close()
	sink.Close()

	var got []Stage
	for e := range sink.Events() {
		got = append(got, e.Stage)
	}
	assert.Equal(t, Stages, got)
}

func TestChannelSink_BlockedEmitHonoursContext(t *testing.T) {
	sink := NewChannelSink(0)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := sink.Emit(ctx, Event{Stage: StageInitializing})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestStage_IsTerminal(t *testing.T) {
	assert.True(t, StageComplete.IsTerminal())
	assert.True(t, StageError.IsTerminal())
	assert.False(t, StageCodeGenerated.IsTerminal())
}
