package pipeline

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/DreamingRabbit/CP-Gen/internal/artifact"
	"github.com/DreamingRabbit/CP-Gen/internal/config"
	"github.com/DreamingRabbit/CP-Gen/internal/content"
	"github.com/DreamingRabbit/CP-Gen/internal/ideas"
	"github.com/DreamingRabbit/CP-Gen/internal/logging"
	"github.com/DreamingRabbit/CP-Gen/internal/runid"
	"github.com/DreamingRabbit/CP-Gen/internal/stage"
	"github.com/DreamingRabbit/CP-Gen/internal/stages"
	"github.com/DreamingRabbit/CP-Gen/internal/toolchain"
)

const candiesStatement = `### Problem Statement
Two sisters split N candies so that the younger one gets fewer.

### Input Format
A single integer N.

### Output Format
Two integers a and b with a + b = N.

### Constraints
2 <= N <= 10^9

### Sample Input
` + "```" + `
5
` + "```" + `

### Sample Output
` + "```" + `
2 3
` + "```" + `

### Time Limit
1 second

### Memory Limit
256 MB
`

type fakeGenerator struct {
	mu        sync.Mutex
	responses map[content.Role]string
	errs      map[content.Role]error
	prompts   map[content.Role]content.Prompt
}

func newFakeGenerator() *fakeGenerator {
	return &fakeGenerator{
		responses: map[content.Role]string{
			content.RoleStatement: candiesStatement,
			content.RoleSolution:  "Here you go:\n```cpp\n#include <iostream>\nint main(){int n;std::cin>>n;std::cout<<n/2<<' '<<n-n/2;}\n```\n",
			content.RoleGenerator: "```cpp\n// writes test_cases/*.in\nint main(){}\n```",
			content.RoleReport:    "# Report\n\n## Problem Analysis\nEasy.\n",
		},
		errs:    map[content.Role]error{},
		prompts: map[content.Role]content.Prompt{},
	}
}

func (g *fakeGenerator) Complete(ctx context.Context, p content.Prompt) (string, error) {
	logging.FromContext(ctx, logging.Nop()).Debug("fake completion", "role", p.Role)
	g.mu.Lock()
	defer g.mu.Unlock()
	g.prompts[p.Role] = p
	if err := g.errs[p.Role]; err != nil {
		return "", err
	}
	return g.responses[p.Role], nil
}

func (g *fakeGenerator) called(role content.Role) (content.Prompt, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	p, ok := g.prompts[role]
	return p, ok
}

type fakeToolchain struct {
	failCompile map[string]bool
	runOutput   string
	runKind     toolchain.Kind
	execDirs    []string
}

func (f *fakeToolchain) Compile(_ context.Context, src, bin string) toolchain.Outcome {
	if f.failCompile[filepath.Base(src)] {
		return toolchain.Outcome{Kind: toolchain.KindCompileError, ExitCode: 1, Diagnostics: "error: boom"}
	}
	if _, err := os.Stat(src); err != nil {
		return toolchain.Outcome{Kind: toolchain.KindCompileError, ExitCode: -1, Err: err}
	}
	if err := os.WriteFile(bin, []byte("#!/bin/true\n"), 0o755); err != nil {
		return toolchain.Outcome{Kind: toolchain.KindCompileError, ExitCode: -1, Err: err}
	}
	return toolchain.Outcome{Kind: toolchain.KindOK}
}

func (f *fakeToolchain) Run(context.Context, string, string) toolchain.Outcome {
	kind := f.runKind
	if kind == "" {
		kind = toolchain.KindOK
	}
	return toolchain.Outcome{Kind: kind, Stdout: f.runOutput}
}

func (f *fakeToolchain) Exec(_ context.Context, _ string, dir string) toolchain.Outcome {
	f.execDirs = append(f.execDirs, dir)
	if err := os.MkdirAll(filepath.Join(dir, "test_cases"), 0o755); err != nil {
		return toolchain.Outcome{Kind: toolchain.KindRuntimeError, Err: err}
	}
	return toolchain.Outcome{Kind: toolchain.KindOK}
}

type recordingObserver struct {
	started  []string
	finished []StageResult
	runs     int
	lastErr  error
	total    int
}

func (o *recordingObserver) RunStarted(_ *Run, infos []stage.Info) { o.total = len(infos) }
func (o *recordingObserver) StageStarted(_, _ int, info stage.Info) {
	o.started = append(o.started, info.ID)
}
func (o *recordingObserver) StageFinished(_, _ int, res StageResult) {
	o.finished = append(o.finished, res)
}
func (o *recordingObserver) RunFinished(_ *Run, err error) {
	o.runs++
	o.lastErr = err
}

type harness struct {
	dir       string
	cfg       *config.Config
	generator *fakeGenerator
	toolchain *fakeToolchain
	ideas     ideas.Source
	observer  *recordingObserver
	seq       runid.Sequence
	def       Definition
	logger    *slog.Logger
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	dir := t.TempDir()
	example := filepath.Join(dir, "generator_example.cpp")
	if err := os.WriteFile(example, []byte("// example generator\nint main(){}\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	return &harness{
		dir: dir,
		cfg: &config.Config{
			ProjectDir: dir,
			StateDir:   filepath.Join(dir, config.ProjectDirName),
			Project: config.ProjectConfig{
				Version:          1,
				RunsDir:          dir,
				ExampleGenerator: example,
			},
		},
		generator: newFakeGenerator(),
		toolchain: &fakeToolchain{runOutput: "2 3", failCompile: map[string]bool{}},
		ideas:     ideas.Static{"two sisters split N candies"},
		observer:  &recordingObserver{},
		seq:       runid.NewMemorySequence(1),
	}
}

func (h *harness) controller(t *testing.T) *Controller {
	t.Helper()
	reg := stage.NewRegistry()
	stages.RegisterBuiltins(reg)
	ctrl, err := NewController(Options{
		Definition: h.def,
		Logger:     h.logger,
		Registry:   reg,
		Sequence:   h.seq,
		Config:     h.cfg,
		Generator:  h.generator,
		Toolchain:  h.toolchain,
		Ideas:      h.ideas,
		Observer:   h.observer,
		TraceID:    func() string { return "trace-1" },
	})
	if err != nil {
		t.Fatalf("NewController: %v", err)
	}
	return ctrl
}

func statusOf(t *testing.T, run *Run, id string) stage.Status {
	t.Helper()
	res, ok := run.Result(id)
	if !ok {
		t.Fatalf("no result for %s", id)
	}
	return res.Status
}

func readArtifact(t *testing.T, run *Run, ref artifact.ArtifactRef) string {
	t.Helper()
	data, err := os.ReadFile(ref.Path(run.Dir))
	if err != nil {
		t.Fatalf("read %s: %v", ref.ID, err)
	}
	return string(data)
}

func TestRunHappyPath(t *testing.T) {
	h := newHarness(t)
	run, err := h.controller(t).Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if run.ID != 1 || run.Dir != filepath.Join(h.dir, "1") || run.TraceID != "trace-1" {
		t.Fatalf("unexpected run header: %+v", run)
	}
	if len(run.Results) != 9 {
		t.Fatalf("results = %d, want 9", len(run.Results))
	}
	for _, res := range run.Results {
		if res.Status != stage.StatusSuccess {
			t.Fatalf("%s = %s (%s)", res.ID, res.Status, res.Message)
		}
	}
	if !run.Report.Succeeded() {
		t.Fatalf("report = %+v", run.Report)
	}
	verify, _ := run.Result(stages.IDVerifySample)
	if verify.Message != "Sample test passed." {
		t.Fatalf("verify message = %q", verify.Message)
	}
	if got := readArtifact(t, run, artifact.SampleInput); got != "5" {
		t.Fatalf("sample.in = %q", got)
	}
	if got := readArtifact(t, run, artifact.SampleOutput); got != "2 3" {
		t.Fatalf("sample.out = %q", got)
	}
	if got := readArtifact(t, run, artifact.Statement); got != candiesStatement {
		t.Fatalf("statement not persisted verbatim")
	}
	if got := readArtifact(t, run, artifact.SolutionSource); !strings.HasPrefix(got, "#include <iostream>") {
		t.Fatalf("solution.cpp = %q", got)
	}
	if got := readArtifact(t, run, artifact.ProblemRecord); !strings.Contains(got, `"samples": [`) || !strings.Contains(got, "\n    \"title\"") {
		t.Fatalf("problem record = %s", got)
	}
	if got := readArtifact(t, run, artifact.Report); got != h.generator.responses[content.RoleReport] {
		t.Fatalf("report not verbatim: %q", got)
	}
	if len(h.toolchain.execDirs) != 1 || h.toolchain.execDirs[0] != run.Dir {
		t.Fatalf("generator should run inside the run dir, got %v", h.toolchain.execDirs)
	}
	log := readArtifact(t, run, artifact.RunLog)
	if !strings.Contains(log, "[7/10] verify-sample success: Sample test passed.") {
		t.Fatalf("run log missing verify entry:\n%s", log)
	}
	if h.observer.total != 10 || len(h.observer.started) != 10 || len(h.observer.finished) != 10 || h.observer.runs != 1 {
		t.Fatalf("observer saw %+v", h.observer)
	}
}

func TestRunIDsIncreasePerInvocation(t *testing.T) {
	h := newHarness(t)
	h.seq = runid.NewFileSequence(filepath.Join(h.dir, "ID.txt"))
	ctrl := h.controller(t)
	for want := 1; want <= 2; want++ {
		run, err := ctrl.Run(context.Background())
		if err != nil {
			t.Fatalf("Run: %v", err)
		}
		if run.ID != want {
			t.Fatalf("run id = %d, want %d", run.ID, want)
		}
	}
}

func TestCompileFailureSkipsDownstreamButReports(t *testing.T) {
	h := newHarness(t)
	h.toolchain.failCompile["solution.cpp"] = true
	run, err := h.controller(t).Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	compile, _ := run.Result(stages.IDCompileSolution)
	if compile.Status != stage.StatusFailed || compile.Message != "Compilation of solution.cpp failed." {
		t.Fatalf("compile = %+v", compile)
	}
	for _, id := range []string{stages.IDVerifySample, stages.IDGenerateTestGenerator, stages.IDBuildTestGenerator} {
		if got := statusOf(t, run, id); got != stage.StatusSkipped {
			t.Fatalf("%s = %s, want skipped", id, got)
		}
	}
	build, _ := run.Result(stages.IDBuildTestGenerator)
	if build.Message != "No test-case generator code to compile." {
		t.Fatalf("build skip message = %q", build.Message)
	}
	if _, ok := h.generator.called(content.RoleGenerator); ok {
		t.Fatalf("generator source must not be requested after a failed compile")
	}
	if !run.Report.Succeeded() {
		t.Fatalf("report must still run: %+v", run.Report)
	}
	prompt, _ := h.generator.called(content.RoleReport)
	if !strings.Contains(prompt.User, "#include <iostream>") {
		t.Fatalf("report should see the uncompiled solution source")
	}
}

func TestNoIdeaAbortsRun(t *testing.T) {
	h := newHarness(t)
	h.ideas = ideas.Static{}
	run, err := h.controller(t).Run(context.Background())
	if !errors.Is(err, ErrAborted) || !errors.Is(h.observer.lastErr, ErrAborted) {
		t.Fatalf("err = %v, want ErrAborted", err)
	}
	if !run.Aborted || len(run.Results) != 1 {
		t.Fatalf("run = %+v", run)
	}
	if run.Report.Status != "" {
		t.Fatalf("report must not run after an abort")
	}
	if _, ok := h.generator.called(content.RoleStatement); ok {
		t.Fatalf("no generation after an abort")
	}
	if _, err := os.Stat(artifact.Report.Path(run.Dir)); !os.IsNotExist(err) {
		t.Fatalf("report.md must not exist")
	}
}

func TestMissingExampleGeneratorFailsOnlyThatStage(t *testing.T) {
	h := newHarness(t)
	h.cfg.Project.ExampleGenerator = filepath.Join(h.dir, "absent.cpp")
	run, err := h.controller(t).Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	gen, _ := run.Result(stages.IDGenerateTestGenerator)
	if gen.Status != stage.StatusFailed || !strings.Contains(gen.Message, "absent.cpp") {
		t.Fatalf("generate-test-generator = %+v", gen)
	}
	if got := statusOf(t, run, stages.IDBuildTestGenerator); got != stage.StatusSkipped {
		t.Fatalf("build = %s", got)
	}
	if got := statusOf(t, run, stages.IDVerifySample); got != stage.StatusSuccess {
		t.Fatalf("verify = %s", got)
	}
	if !run.Report.Succeeded() {
		t.Fatalf("report = %+v", run.Report)
	}
}

func TestSampleMismatchStillBuildsGenerator(t *testing.T) {
	h := newHarness(t)
	h.toolchain.runOutput = "2 3 "
	h.toolchain.runKind = toolchain.KindOK
	run, err := h.controller(t).Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if got := statusOf(t, run, stages.IDVerifySample); got != stage.StatusSuccess {
		t.Fatalf("trailing whitespace is trimmed, verify = %s", got)
	}

	h = newHarness(t)
	h.toolchain.runOutput = "3 2"
	run, err = h.controller(t).Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	verify, _ := run.Result(stages.IDVerifySample)
	if verify.Status != stage.StatusFailed || verify.Message != "Sample test failed." {
		t.Fatalf("verify = %+v", verify)
	}
	if got := statusOf(t, run, stages.IDBuildTestGenerator); got != stage.StatusSuccess {
		t.Fatalf("build = %s", got)
	}
}

func TestRuntimeErrorCountsAsEmptyOutput(t *testing.T) {
	h := newHarness(t)
	h.toolchain.runKind = toolchain.KindTimeout
	run, err := h.controller(t).Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if got := statusOf(t, run, stages.IDVerifySample); got != stage.StatusFailed {
		t.Fatalf("verify = %s, want failed", got)
	}
}

func TestMissingCodeBlockFailsSolution(t *testing.T) {
	h := newHarness(t)
	h.generator.responses[content.RoleSolution] = "I cannot solve this."
	run, err := h.controller(t).Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if got := statusOf(t, run, stages.IDGenerateSolution); got != stage.StatusFailed {
		t.Fatalf("generate-solution = %s", got)
	}
	if _, err := os.Stat(artifact.SolutionSource.Path(run.Dir)); !os.IsNotExist(err) {
		t.Fatalf("solution.cpp must not be written for an empty extraction")
	}
	if got := statusOf(t, run, stages.IDCompileSolution); got != stage.StatusSkipped {
		t.Fatalf("compile = %s", got)
	}
	prompt, _ := h.generator.called(content.RoleReport)
	if !strings.HasSuffix(prompt.User, "Standard Solution:\n\n\n\n") {
		t.Fatalf("report should receive an empty solution")
	}
}

func TestStatementWithoutSamplesSkipsPersistence(t *testing.T) {
	h := newHarness(t)
	h.generator.responses[content.RoleStatement] = "### Problem Statement\nJust a story.\n"
	run, err := h.controller(t).Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if got := statusOf(t, run, stages.IDParseStatement); got != stage.StatusSuccess {
		t.Fatalf("parse = %s", got)
	}
	if got := statusOf(t, run, stages.IDPersistSample); got != stage.StatusSkipped {
		t.Fatalf("persist = %s", got)
	}
	if got := statusOf(t, run, stages.IDVerifySample); got != stage.StatusSkipped {
		t.Fatalf("verify = %s", got)
	}
	if got := statusOf(t, run, stages.IDCompileSolution); got != stage.StatusSuccess {
		t.Fatalf("compile = %s", got)
	}
}

func TestNewControllerValidatesWiring(t *testing.T) {
	if _, err := NewController(Options{}); err == nil {
		t.Fatalf("expected registry error")
	}
	h := newHarness(t)
	_, err := NewController(Options{Registry: stage.NewRegistry(), Sequence: h.seq, Config: h.cfg})
	if err == nil || !strings.Contains(err.Error(), "unknown id select-idea") {
		t.Fatalf("err = %v", err)
	}
}

func TestRunRecordsArtifactInventory(t *testing.T) {
	h := newHarness(t)
	run, err := h.controller(t).Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if run.LogPath != artifact.RunLog.Path(run.Dir) {
		t.Fatalf("log path = %q", run.LogPath)
	}
	log := readArtifact(t, run, artifact.RunLog)
	if !strings.Contains(log, "artifacts ready: statement, problem-record, sample-input, sample-output") {
		t.Fatalf("run log missing inventory:\n%s", log)
	}
	if strings.Contains(log, "declared input") {
		t.Fatalf("happy path should not warn about inputs:\n%s", log)
	}
}

func TestMissingInputIsNotedBeforeStageRuns(t *testing.T) {
	h := newHarness(t)
	h.def = Definition{ID: "solution-only", Stages: []StageRef{{ID: stages.IDGenerateSolution}}}
	run, err := h.controller(t).Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	log := readArtifact(t, run, artifact.RunLog)
	if !strings.Contains(log, "generate-solution: declared input problem-record is not ready") {
		t.Fatalf("run log missing input warning:\n%s", log)
	}
	if !strings.Contains(log, "artifacts not produced:") {
		t.Fatalf("run log missing inventory gaps:\n%s", log)
	}
}

func TestStagesSeeRunLoggerThroughContext(t *testing.T) {
	h := newHarness(t)
	var sb strings.Builder
	h.logger = slog.New(logging.NewHandler(&sb, "cpgen", true))
	if _, err := h.controller(t).Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}
	out := sb.String()
	for _, want := range []string{"fake completion", "stage=generate-statement", "stage=generate-report", "trace=trace-1"} {
		if !strings.Contains(out, want) {
			t.Fatalf("log missing %q:\n%s", want, out)
		}
	}
}
