// Package stage defines the contract every pipeline stage implements and the
// runtime dependencies handed to it.
package stage

import (
	"context"
	"fmt"

	"github.com/DreamingRabbit/CP-Gen/internal/artifact"
)

// Info describes a stage's identity and intent.
type Info struct {
	ID          string
	Name        string
	Description string
	// Fatal stages abort the whole run when they fail.
	Fatal bool
	// SkipMessage is reported when the stage is skipped because an upstream
	// stage did not succeed.
	SkipMessage string
}

// Validate ensures the info block is well-formed.
func (i Info) Validate() error {
	if i.ID == "" {
		return fmt.Errorf("stage: id is required")
	}
	if i.Name == "" {
		return fmt.Errorf("stage: name is required for %s", i.ID)
	}
	return nil
}

// Status enumerates stage outcomes.
type Status string

const (
	StatusSuccess Status = "success"
	StatusSkipped Status = "skipped"
	StatusFailed  Status = "failed"
)

// Result captures the outcome of a stage execution.
type Result struct {
	Status  Status
	Message string
}

// Succeeded reports whether the stage finished successfully.
func (r Result) Succeeded() bool {
	return r.Status == StatusSuccess
}

// Success builds a successful result.
func Success(format string, args ...any) Result {
	return Result{Status: StatusSuccess, Message: fmt.Sprintf(format, args...)}
}

// Failed builds a stage-local failure.
func Failed(format string, args ...any) Result {
	return Result{Status: StatusFailed, Message: fmt.Sprintf(format, args...)}
}

// Skipped builds a skipped result.
func Skipped(format string, args ...any) Result {
	return Result{Status: StatusSkipped, Message: fmt.Sprintf(format, args...)}
}

// Stage is implemented by every pipeline step. Stage-local problems are
// reported through Result; a returned error means the infrastructure around
// the stage broke (for example the run directory is not writable).
type Stage interface {
	Info() Info
	Inputs() []artifact.ArtifactRef
	Outputs() []artifact.ArtifactRef
	Run(ctx context.Context, sc *Context) (Result, error)
}
