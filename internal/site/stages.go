package site

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/anrosca/softice/internal/logfields"
	"github.com/anrosca/softice/internal/metrics"
)

// Stage is a discrete unit of work in the site build.
type Stage func(ctx context.Context, bs *BuildState) error

// StageErrorKind enumerates structured stage error categories.
type StageErrorKind string

const (
	StageErrorFatal    StageErrorKind = "fatal"    // Build must abort.
	StageErrorWarning  StageErrorKind = "warning"  // Non-fatal; record and continue.
	StageErrorCanceled StageErrorKind = "canceled" // Context cancellation.
)

// StageError is a structured error carrying category and underlying cause.
type StageError struct {
	Kind  StageErrorKind
	Stage string
	Err   error
}

func (e *StageError) Error() string { return fmt.Sprintf("%s stage %s: %v", e.Kind, e.Stage, e.Err) }
func (e *StageError) Unwrap() error { return e.Err }

func newFatalStageError(stage string, err error) *StageError {
	return &StageError{Kind: StageErrorFatal, Stage: stage, Err: err}
}
func newWarnStageError(stage string, err error) *StageError {
	return &StageError{Kind: StageErrorWarning, Stage: stage, Err: err}
}
func newCanceledStageError(stage string, err error) *StageError {
	return &StageError{Kind: StageErrorCanceled, Stage: stage, Err: err}
}

// namedStage pairs a stage with its report/metrics name.
type namedStage struct {
	name string
	fn   Stage
}

// runStages executes stages in order, recording timing and stopping on the
// first fatal error. Warnings are recorded and execution continues; no
// partial site can leak out because promotion is itself the last stage.
func runStages(ctx context.Context, bs *BuildState, stages []namedStage) error {
	for _, st := range stages {
		select {
		case <-ctx.Done():
			se := newCanceledStageError(st.name, ctx.Err())
			bs.Report.addError(st.name, se)
			return se
		default:
		}

		t0 := time.Now()
		err := st.fn(ctx, bs)
		dur := time.Since(t0)
		bs.Report.StageDurations[st.name] = dur
		bs.Recorder.ObserveStageDuration(st.name, dur)

		if err == nil {
			bs.Recorder.IncStageResult(st.name, metrics.ResultSuccess)
			slog.Debug("Stage completed", logfields.Stage(st.name), logfields.DurationMS(float64(dur.Milliseconds())))
			continue
		}

		var se *StageError
		if !errors.As(err, &se) {
			se = newFatalStageError(st.name, err)
		}
		bs.Report.addError(st.name, se)

		switch se.Kind {
		case StageErrorWarning:
			bs.Recorder.IncStageResult(st.name, metrics.ResultWarning)
			slog.Warn("Stage completed with warnings", logfields.Stage(st.name), logfields.Error(se.Err))
		case StageErrorCanceled:
			bs.Recorder.IncStageResult(st.name, metrics.ResultCanceled)
			return se
		default:
			bs.Recorder.IncStageResult(st.name, metrics.ResultFatal)
			slog.Error("Stage failed", logfields.Stage(st.name), logfields.Error(se.Err))
			return se
		}
	}
	return nil
}
