package toolchain

import (
	"context"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
	"time"

	"github.com/DreamingRabbit/CP-Gen/internal/config"
)

// fakeCompiler "compiles" a shell script by copying it to the output path.
// Sources containing COMPILE_ERROR fail with a diagnostic on stderr.
const fakeCompiler = `#!/bin/sh
src=""
out=""
while [ $# -gt 0 ]; do
  case "$1" in
    -o) out="$2"; shift 2 ;;
    *) src="$1"; shift ;;
  esac
done
if grep -q COMPILE_ERROR "$src"; then
  echo "$src:1:1: error: expected ';'" >&2
  exit 1
fi
cp "$src" "$out" && chmod +x "$out"
`

func newTestToolchain(t *testing.T) (*Toolchain, string) {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("shell scripts stand in for binaries")
	}
	dir := t.TempDir()
	compiler := writeFile(t, dir, "fake-g++", fakeCompiler, 0o755)
	tc := New(config.ToolchainConfig{
		Compiler:         compiler,
		Flags:            []string{"-O2", "-std=c++17"},
		CompileTimeout:   5 * time.Second,
		RunTimeout:       5 * time.Second,
		GeneratorTimeout: 5 * time.Second,
	}, nil)
	return tc, dir
}

func writeFile(t *testing.T, dir, name, body string, mode os.FileMode) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(body), mode); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}

func TestCompileAndRunSample(t *testing.T) {
	tc, dir := newTestToolchain(t)
	src := writeFile(t, dir, "solution.cpp", "#!/bin/sh\nread n\necho \"  2 $((n - 2))  \"\n", 0o644)
	bin := filepath.Join(dir, "solution")

	compiled := tc.Compile(context.Background(), src, bin)
	if !compiled.OK() {
		t.Fatalf("compile failed: %+v", compiled)
	}
	input := writeFile(t, dir, "sample.in", "5\n", 0o644)
	run := tc.Run(context.Background(), bin, input)
	if run.Kind != KindOK {
		t.Fatalf("run kind = %s (%v)", run.Kind, run.Err)
	}
	if run.Output() != "2 3" {
		t.Fatalf("output = %q, want %q", run.Output(), "2 3")
	}
	if !Verify(run.Output(), "2 3\n") {
		t.Fatalf("expected sample to verify")
	}
}

func TestCompileFailureKeepsDiagnostics(t *testing.T) {
	tc, dir := newTestToolchain(t)
	src := writeFile(t, dir, "solution.cpp", "int main() { COMPILE_ERROR }\n", 0o644)
	bin := filepath.Join(dir, "solution")

	out := tc.Compile(context.Background(), src, bin)
	if out.OK() || out.Kind != KindCompileError {
		t.Fatalf("kind = %s, want compile-error", out.Kind)
	}
	if out.ExitCode != 1 {
		t.Fatalf("exit code = %d, want 1", out.ExitCode)
	}
	if !strings.Contains(out.Diagnostics, "expected ';'") {
		t.Fatalf("diagnostics = %q", out.Diagnostics)
	}
	if _, err := os.Stat(bin); !os.IsNotExist(err) {
		t.Fatalf("binary should not exist after failed compile")
	}
}

func TestCompileMissingSource(t *testing.T) {
	tc, dir := newTestToolchain(t)
	out := tc.Compile(context.Background(), filepath.Join(dir, "missing.cpp"), filepath.Join(dir, "bin"))
	if out.Kind != KindCompileError || out.Err == nil {
		t.Fatalf("unexpected outcome %+v", out)
	}
}

func TestRunFailuresCollapseToEmptyOutput(t *testing.T) {
	tc, dir := newTestToolchain(t)
	input := writeFile(t, dir, "sample.in", "1\n", 0o644)
	cases := map[string]struct {
		script string
		kind   Kind
	}{
		"non-zero exit": {script: "#!/bin/sh\necho partial\nexit 3\n", kind: KindRuntimeError},
		"crash":         {script: "#!/bin/sh\necho partial\nkill -SEGV $$\n", kind: KindRuntimeError},
	}
	for name, tt := range cases {
		t.Run(name, func(t *testing.T) {
			bin := writeFile(t, dir, strings.ReplaceAll(name, " ", "-"), tt.script, 0o755)
			out := tc.Run(context.Background(), bin, input)
			if out.Kind != tt.kind {
				t.Fatalf("kind = %s, want %s", out.Kind, tt.kind)
			}
			if out.Output() != "" {
				t.Fatalf("Output() = %q, want empty", out.Output())
			}
		})
	}
}

func TestRunMissingBinaryAndInput(t *testing.T) {
	tc, dir := newTestToolchain(t)
	input := writeFile(t, dir, "sample.in", "1\n", 0o644)
	if out := tc.Run(context.Background(), filepath.Join(dir, "nope"), input); out.Kind != KindRuntimeError {
		t.Fatalf("missing binary kind = %s", out.Kind)
	}
	bin := writeFile(t, dir, "ok", "#!/bin/sh\necho hi\n", 0o755)
	if out := tc.Run(context.Background(), bin, filepath.Join(dir, "missing.in")); out.Kind != KindRuntimeError || out.Output() != "" {
		t.Fatalf("missing input outcome = %+v", out)
	}
}

func TestRunTimeout(t *testing.T) {
	tc, dir := newTestToolchain(t)
	tc.cfg.RunTimeout = 100 * time.Millisecond
	input := writeFile(t, dir, "sample.in", "1\n", 0o644)
	bin := writeFile(t, dir, "spin", "#!/bin/sh\nexec sleep 10\n", 0o755)

	started := time.Now()
	out := tc.Run(context.Background(), bin, input)
	if out.Kind != KindTimeout {
		t.Fatalf("kind = %s, want timeout", out.Kind)
	}
	if out.Output() != "" {
		t.Fatalf("timeout must collapse to empty output")
	}
	if elapsed := time.Since(started); elapsed > 5*time.Second {
		t.Fatalf("run took %s, timeout not enforced", elapsed)
	}
}

func TestExecRunsInDirectory(t *testing.T) {
	tc, dir := newTestToolchain(t)
	runDir := t.TempDir()
	bin := writeFile(t, dir, "gen", "#!/bin/sh\nmkdir -p test_cases\necho 7 > test_cases/1.in\necho noisy\n", 0o755)

	out := tc.Exec(context.Background(), bin, runDir)
	if !out.OK() {
		t.Fatalf("exec failed: %+v", out)
	}
	if out.Stdout != "" {
		t.Fatalf("exec should discard stdout, got %q", out.Stdout)
	}
	data, err := os.ReadFile(filepath.Join(runDir, "test_cases", "1.in"))
	if err != nil {
		t.Fatalf("generator output missing: %v", err)
	}
	if strings.TrimSpace(string(data)) != "7" {
		t.Fatalf("test case = %q", data)
	}
}

func TestVerify(t *testing.T) {
	tests := []struct {
		actual, expected string
		want             bool
	}{
		{"2 3", "2 3", true},
		{"2 3\n", "  2 3  ", true},
		{"2  3", "2 3", false},
		{"2 3 ", "2 3\t\n", true},
		{"", "", true},
		{"", "0", false},
		{"1.0", "1", false},
	}
	for _, tt := range tests {
		if got := Verify(tt.actual, tt.expected); got != tt.want {
			t.Errorf("Verify(%q, %q) = %v, want %v", tt.actual, tt.expected, got, tt.want)
		}
	}
}

func TestOutcomeSummary(t *testing.T) {
	out := Outcome{Kind: KindCompileError, ExitCode: 1, Diagnostics: "a.cpp:1: error: x\nmore"}
	if got, want := out.Summary(), "compile-error: exit 1: a.cpp:1: error: x"; got != want {
		t.Fatalf("Summary = %q, want %q", got, want)
	}
}
