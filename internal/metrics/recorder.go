// Package metrics defines observability hooks for build and publish
// instrumentation.
package metrics

import "time"

// ResultLabel enumerates stage result categories for counters.
type ResultLabel string

const (
	ResultSuccess  ResultLabel = "success"
	ResultWarning  ResultLabel = "warning"
	ResultFatal    ResultLabel = "fatal"
	ResultCanceled ResultLabel = "canceled"
)

// Recorder defines observability hooks for build and stage metrics.
// Implementations may forward to Prometheus or elsewhere. All methods must
// be safe on the NoopRecorder so injection stays optional.
type Recorder interface {
	ObserveStageDuration(stage string, d time.Duration)
	ObserveBuildDuration(d time.Duration)
	IncStageResult(stage string, result ResultLabel)
	// IncBuildOutcome counts terminal build outcomes
	// (success|warning|failed|canceled|skipped).
	IncBuildOutcome(outcome string)
	// Publish hooks take a result label: success|noop|failed.
	ObservePublishDuration(d time.Duration, result string)
	IncPublishResult(result string)
	SetPagesRendered(n int)
}

// NoopRecorder is a Recorder that does nothing (default when metrics are not configured).
type NoopRecorder struct{}

func (NoopRecorder) ObserveStageDuration(string, time.Duration)   {}
func (NoopRecorder) ObserveBuildDuration(time.Duration)           {}
func (NoopRecorder) IncStageResult(string, ResultLabel)           {}
func (NoopRecorder) IncBuildOutcome(string)                       {}
func (NoopRecorder) ObservePublishDuration(time.Duration, string) {}
func (NoopRecorder) IncPublishResult(string)                      {}
func (NoopRecorder) SetPagesRendered(int)                         {}
