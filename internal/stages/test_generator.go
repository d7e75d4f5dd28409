package stages

import (
	"context"
	"errors"
	"io/fs"
	"os"

	"github.com/DreamingRabbit/CP-Gen/internal/artifact"
	"github.com/DreamingRabbit/CP-Gen/internal/content"
	"github.com/DreamingRabbit/CP-Gen/internal/problem"
	"github.com/DreamingRabbit/CP-Gen/internal/stage"
)

// GenerateTestGenerator asks for a test-case generator modeled on the
// project's example generator.
type GenerateTestGenerator struct {
	*stage.Base
}

// NewGenerateTestGenerator constructs the generator-source stage.
func NewGenerateTestGenerator() *GenerateTestGenerator {
	return &GenerateTestGenerator{Base: newBase(stage.Info{
		ID:          IDGenerateTestGenerator,
		Name:        "Generate Test Generator",
		Description: "Asks for a C++ test-case generator following the example generator.",
	}, []artifact.ArtifactRef{artifact.ProblemRecord, artifact.SolutionSource}, []artifact.ArtifactRef{artifact.GeneratorSource})}
}

// Run implements stage.Stage. A missing example generator fails this stage
// only; the rest of the run carries on.
func (s *GenerateTestGenerator) Run(ctx context.Context, sc *stage.Context) (stage.Result, error) {
	if err := sc.Require(IDGenerateTestGenerator, stage.NeedGenerator, stage.NeedConfig); err != nil {
		return stage.Result{Status: stage.StatusFailed}, err
	}
	examplePath := sc.Config.ExampleGeneratorPath()
	example, err := os.ReadFile(examplePath)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return stage.Failed("Example generator %s not found.", examplePath), nil
		}
		return stage.Failed("Read example generator: %v", err), nil
	}
	raw, err := sc.Generator.Complete(ctx, content.GeneratorPrompt(sc.State.Problem, sc.State.Solution, string(example)))
	if err != nil {
		return stage.Failed("Test-case generator generation failed: %v", err), nil
	}
	code, ok := problem.ExtractFencedBlock(raw, content.CodeTag)
	if !ok || code == "" {
		sc.Logbook.Warn("generator response had no %s block (%d bytes)", content.CodeTag, len(raw))
		return stage.Failed("No %s code block in the test-case generator response.", content.CodeTag), nil
	}
	if err := sc.Artifacts.WriteString(artifact.GeneratorSource, code); err != nil {
		return failed(IDGenerateTestGenerator, err)
	}
	sc.State.GeneratorSource = code
	return stage.Success("Test-case generator source generated."), nil
}

// BuildTestGenerator compiles the generator and runs it from the run
// directory so its test_cases folder lands next to the other artifacts.
type BuildTestGenerator struct {
	*stage.Base
}

// NewBuildTestGenerator constructs the generator build stage.
func NewBuildTestGenerator() *BuildTestGenerator {
	return &BuildTestGenerator{Base: newBase(stage.Info{
		ID:          IDBuildTestGenerator,
		Name:        "Build Test Generator",
		Description: "Compiles and runs the test-case generator.",
		SkipMessage: "No test-case generator code to compile.",
	}, []artifact.ArtifactRef{artifact.GeneratorSource}, []artifact.ArtifactRef{artifact.GeneratorBinary})}
}

// Run implements stage.Stage. The generator's output is discarded.
func (s *BuildTestGenerator) Run(ctx context.Context, sc *stage.Context) (stage.Result, error) {
	if err := sc.Require(IDBuildTestGenerator, stage.NeedToolchain); err != nil {
		return stage.Result{Status: stage.StatusFailed}, err
	}
	bin := sc.Artifacts.Path(artifact.GeneratorBinary)
	compiled := sc.Toolchain.Compile(ctx, sc.Artifacts.Path(artifact.GeneratorSource), bin)
	if !compiled.OK() {
		sc.Logbook.Error("compile test_case_generator.cpp: %s", compiled.Summary())
		if compiled.Diagnostics != "" {
			sc.Logbook.Error("diagnostics: %s", compiled.Diagnostics)
		}
		return stage.Failed("Compilation of test-case generator failed."), nil
	}
	ran := sc.Toolchain.Exec(ctx, bin, sc.Artifacts.Dir())
	if !ran.OK() {
		sc.Logbook.Error("run test_case_generator: %s", ran.Summary())
		return stage.Failed("Test-case generator did not finish: %s.", ran.Kind), nil
	}
	if entries, err := os.ReadDir(sc.Artifacts.Path(artifact.TestCases)); err == nil {
		sc.Logbook.Info("test_cases holds %d entries", len(entries))
	}
	return stage.Success("Test-case generator ran successfully."), nil
}
