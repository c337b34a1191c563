package site

import (
	"time"
)

// Outcome is the terminal classification of one build.
type Outcome string

const (
	OutcomeSuccess  Outcome = "success"
	OutcomeWarning  Outcome = "warning"
	OutcomeFailed   Outcome = "failed"
	OutcomeCanceled Outcome = "canceled"
	OutcomeSkipped  Outcome = "skipped"
)

// BuildReport aggregates what one build did: timings, page counts and the
// errors/warnings each stage produced.
type BuildReport struct {
	BuildID        string
	StartedAt      time.Time
	Duration       time.Duration
	Outcome        Outcome
	Pages          int
	Posts          int
	Fingerprint    string
	StageDurations map[string]time.Duration
	Warnings       []string
	Errors         []*StageError
}

func newBuildReport(buildID string) *BuildReport {
	return &BuildReport{
		BuildID:        buildID,
		StartedAt:      time.Now(),
		StageDurations: map[string]time.Duration{},
	}
}

func (r *BuildReport) addError(stage string, se *StageError) {
	if se.Kind == StageErrorWarning {
		r.Warnings = append(r.Warnings, se.Error())
		return
	}
	r.Errors = append(r.Errors, se)
}

// finalizeSkipped closes out a build elided by fingerprint match.
func (r *BuildReport) finalizeSkipped() {
	r.Duration = time.Since(r.StartedAt)
	r.Outcome = OutcomeSkipped
}

// finalize classifies the build from accumulated stage errors.
func (r *BuildReport) finalize(err error) {
	r.Duration = time.Since(r.StartedAt)
	switch {
	case err == nil && len(r.Warnings) == 0:
		r.Outcome = OutcomeSuccess
	case err == nil:
		r.Outcome = OutcomeWarning
	default:
		r.Outcome = OutcomeFailed
		for _, se := range r.Errors {
			if se.Kind == StageErrorCanceled {
				r.Outcome = OutcomeCanceled
				break
			}
		}
	}
}
