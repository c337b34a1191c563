package metrics

import (
	"testing"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
)

// TestNoopRecorderSafe ensures the noop implementation never panics.
func TestNoopRecorderSafe(t *testing.T) {
	var r Recorder = NoopRecorder{}
	r.ObserveStageDuration("render", time.Second)
	r.ObserveBuildDuration(time.Second)
	r.IncStageResult("render", ResultSuccess)
	r.IncBuildOutcome("success")
	r.ObservePublishDuration(time.Second, "success")
	r.IncPublishResult("failed")
	r.SetPagesRendered(10)
}

// TestPrometheusRecorderRegisters verifies metric registration and emission.
func TestPrometheusRecorderRegisters(t *testing.T) {
	reg := prom.NewRegistry()
	r := NewPrometheusRecorder(reg)

	r.ObserveStageDuration("render", 250*time.Millisecond)
	r.ObserveBuildDuration(time.Second)
	r.IncStageResult("render", ResultSuccess)
	r.IncStageResult("verify", ResultWarning)
	r.IncBuildOutcome("success")
	r.ObservePublishDuration(2*time.Second, "success")
	r.IncPublishResult("noop")
	r.SetPagesRendered(42)

	families, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather: %v", err)
	}
	names := map[string]bool{}
	for _, f := range families {
		names[f.GetName()] = true
	}
	for _, want := range []string{
		"softice_stage_duration_seconds",
		"softice_build_duration_seconds",
		"softice_stage_results_total",
		"softice_build_outcomes_total",
		"softice_publish_duration_seconds",
		"softice_publish_results_total",
		"softice_pages_rendered",
	} {
		if !names[want] {
			t.Fatalf("metric %s not registered (got %v)", want, names)
		}
	}
}

// TestPrometheusRecorderNilSafe verifies nil receivers do not panic.
func TestPrometheusRecorderNilSafe(t *testing.T) {
	var r *PrometheusRecorder
	r.ObserveStageDuration("render", time.Second)
	r.IncBuildOutcome("failed")
	r.SetPagesRendered(1)
}
