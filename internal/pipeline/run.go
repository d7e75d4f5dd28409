package pipeline

import (
	"time"

	"github.com/DreamingRabbit/CP-Gen/internal/stage"
)

// StageResult is the recorded outcome of one stage.
type StageResult struct {
	ID       string
	Name     string
	Status   stage.Status
	Message  string
	Duration time.Duration
	// Err is set when the stage returned an infrastructure error.
	Err error
}

// Succeeded reports whether the stage finished successfully.
func (r StageResult) Succeeded() bool {
	return r.Status == stage.StatusSuccess
}

// Run is the state of a single invocation. It is created when the run id is
// allocated and mutated in place as stages finish.
type Run struct {
	ID      int
	TraceID string
	Dir     string
	// LogPath is the run's logbook file.
	LogPath string
	// Results holds the gated stages in execution order.
	Results []StageResult
	// Report is the outcome of the final stage. Its Status is empty when the
	// run was aborted before reaching it.
	Report     StageResult
	Aborted    bool
	StartedAt  time.Time
	FinishedAt time.Time
}

// Result looks up a stage outcome by ID, including the final stage.
func (r *Run) Result(id string) (StageResult, bool) {
	if r == nil {
		return StageResult{}, false
	}
	for _, res := range r.Results {
		if res.ID == id {
			return res, true
		}
	}
	if r.Report.ID == id && r.Report.Status != "" {
		return r.Report, true
	}
	return StageResult{}, false
}

// Counts tallies gated stage outcomes.
func (r *Run) Counts() (succeeded, skipped, failed int) {
	if r == nil {
		return 0, 0, 0
	}
	for _, res := range r.Results {
		switch res.Status {
		case stage.StatusSuccess:
			succeeded++
		case stage.StatusSkipped:
			skipped++
		case stage.StatusFailed:
			failed++
		}
	}
	return succeeded, skipped, failed
}

// Duration returns how long the run took.
func (r *Run) Duration() time.Duration {
	if r == nil || r.FinishedAt.IsZero() {
		return 0
	}
	return r.FinishedAt.Sub(r.StartedAt)
}
