package stages

import (
	"context"

	"github.com/DreamingRabbit/CP-Gen/internal/artifact"
	"github.com/DreamingRabbit/CP-Gen/internal/content"
	"github.com/DreamingRabbit/CP-Gen/internal/problem"
	"github.com/DreamingRabbit/CP-Gen/internal/stage"
)

// GenerateSolution asks the generator for a reference solution.
type GenerateSolution struct {
	*stage.Base
}

// NewGenerateSolution constructs the solution generation stage.
func NewGenerateSolution() *GenerateSolution {
	return &GenerateSolution{Base: newBase(stage.Info{
		ID:          IDGenerateSolution,
		Name:        "Generate Solution",
		Description: "Asks for a C++ reference solution and extracts its code block.",
	}, []artifact.ArtifactRef{artifact.ProblemRecord}, []artifact.ArtifactRef{artifact.SolutionSource})}
}

// Run implements stage.Stage. solution.cpp is only written when a non-empty
// cpp block was found.
func (s *GenerateSolution) Run(ctx context.Context, sc *stage.Context) (stage.Result, error) {
	if err := sc.Require(IDGenerateSolution, stage.NeedGenerator); err != nil {
		return stage.Result{Status: stage.StatusFailed}, err
	}
	raw, err := sc.Generator.Complete(ctx, content.SolutionPrompt(sc.State.Problem))
	if err != nil {
		return stage.Failed("Solution generation failed: %v", err), nil
	}
	code, ok := problem.ExtractFencedBlock(raw, content.CodeTag)
	if !ok || code == "" {
		sc.Logbook.Warn("solution response had no %s block (%d bytes)", content.CodeTag, len(raw))
		return stage.Failed("No %s code block in the solution response.", content.CodeTag), nil
	}
	if err := sc.Artifacts.WriteString(artifact.SolutionSource, code); err != nil {
		return failed(IDGenerateSolution, err)
	}
	sc.State.Solution = code
	sc.Log().Debug("solution extracted", "bytes", len(code), "response_bytes", len(raw))
	return stage.Success("Solution generated."), nil
}

// CompileSolution builds solution.cpp.
type CompileSolution struct {
	*stage.Base
}

// NewCompileSolution constructs the solution compile stage.
func NewCompileSolution() *CompileSolution {
	return &CompileSolution{Base: newBase(stage.Info{
		ID:          IDCompileSolution,
		Name:        "Compile Solution",
		Description: "Compiles solution.cpp into the solution binary.",
	}, []artifact.ArtifactRef{artifact.SolutionSource}, []artifact.ArtifactRef{artifact.SolutionBinary})}
}

// Run implements stage.Stage.
func (s *CompileSolution) Run(ctx context.Context, sc *stage.Context) (stage.Result, error) {
	if err := sc.Require(IDCompileSolution, stage.NeedToolchain); err != nil {
		return stage.Result{Status: stage.StatusFailed}, err
	}
	out := sc.Toolchain.Compile(ctx, sc.Artifacts.Path(artifact.SolutionSource), sc.Artifacts.Path(artifact.SolutionBinary))
	if !out.OK() {
		sc.Logbook.Error("compile solution.cpp: %s", out.Summary())
		if out.Diagnostics != "" {
			sc.Logbook.Error("diagnostics: %s", out.Diagnostics)
		}
		return stage.Failed("Compilation of solution.cpp failed."), nil
	}
	return stage.Success("Solution compiled."), nil
}
