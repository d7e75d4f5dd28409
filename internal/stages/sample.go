package stages

import (
	"context"

	"github.com/DreamingRabbit/CP-Gen/internal/artifact"
	"github.com/DreamingRabbit/CP-Gen/internal/problem"
	"github.com/DreamingRabbit/CP-Gen/internal/stage"
	"github.com/DreamingRabbit/CP-Gen/internal/toolchain"
)

// PersistSample writes the first sample pair to sample.in and sample.out.
type PersistSample struct {
	*stage.Base
}

// NewPersistSample constructs the sample persistence stage.
func NewPersistSample() *PersistSample {
	return &PersistSample{Base: newBase(stage.Info{
		ID:          IDPersistSample,
		Name:        "Persist Sample",
		Description: "Stores the first sample input and output.",
	}, []artifact.ArtifactRef{artifact.ProblemRecord}, []artifact.ArtifactRef{artifact.SampleInput, artifact.SampleOutput})}
}

// Run implements stage.Stage. The stage skips itself when the record has no
// sample or the statement never mentioned one.
func (s *PersistSample) Run(_ context.Context, sc *stage.Context) (stage.Result, error) {
	if err := sc.Require(IDPersistSample); err != nil {
		return stage.Result{Status: stage.StatusFailed}, err
	}
	sample, ok := sc.State.Problem.FirstSample()
	if !ok || !hasSampleSection(sc.State.Sections) {
		return stage.Skipped("No sample in the statement."), nil
	}
	if err := sc.Artifacts.WriteString(artifact.SampleInput, sample.Input); err != nil {
		return failed(IDPersistSample, err)
	}
	if err := sc.Artifacts.WriteString(artifact.SampleOutput, sample.Output); err != nil {
		return failed(IDPersistSample, err)
	}
	return stage.Success("Sample saved."), nil
}

func hasSampleSection(doc problem.Document) bool {
	_, in := doc.Lookup(problem.HeadingSampleInput)
	_, out := doc.Lookup(problem.HeadingSampleOutput)
	return in || out
}

// VerifySample runs the compiled solution on the sample input.
type VerifySample struct {
	*stage.Base
}

// NewVerifySample constructs the verification stage.
func NewVerifySample() *VerifySample {
	return &VerifySample{Base: newBase(stage.Info{
		ID:          IDVerifySample,
		Name:        "Verify Sample",
		Description: "Runs the solution on sample.in and compares with sample.out.",
	}, []artifact.ArtifactRef{artifact.SolutionBinary, artifact.SampleInput, artifact.SampleOutput}, nil)}
}

// Run implements stage.Stage. Comparison is exact after trimming both sides.
func (s *VerifySample) Run(ctx context.Context, sc *stage.Context) (stage.Result, error) {
	if err := sc.Require(IDVerifySample, stage.NeedToolchain); err != nil {
		return stage.Result{Status: stage.StatusFailed}, err
	}
	expected, err := sc.Artifacts.Read(artifact.SampleOutput)
	if err != nil {
		return failed(IDVerifySample, err)
	}
	out := sc.Toolchain.Run(ctx, sc.Artifacts.Path(artifact.SolutionBinary), sc.Artifacts.Path(artifact.SampleInput))
	actual := out.Output()
	if !out.OK() {
		sc.Logbook.Warn("solution run: %s", out.Summary())
	}
	if toolchain.Verify(actual, string(expected)) {
		return stage.Success("Sample test passed."), nil
	}
	sc.Logbook.Warn("sample mismatch: expected %q, got %q", string(expected), actual)
	return stage.Failed("Sample test failed."), nil
}
