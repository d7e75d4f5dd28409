// Package artifact defines the files a run produces. Each artifact has a
// stable identifier, kind, and a resolver that maps it to a path inside the
// run directory.

package artifact

import (
	"errors"
	"fmt"
	"path/filepath"
)

// Kind captures the storage shape of an artifact.
type Kind string

const (
	// KindText is a raw UTF-8 text file written verbatim.
	KindText Kind = "text"
	// KindJSON is a JSON document.
	KindJSON Kind = "json"
	// KindBinary is an executable produced by the toolchain.
	KindBinary Kind = "binary"
	// KindDirectory represents a directory that must exist.
	KindDirectory Kind = "directory"
)

// ErrEmptyBody is returned when writing blank content to an artifact that
// must not be empty.
var ErrEmptyBody = errors.New("artifact: empty body")

// PathResolver returns the fully-qualified path to an artifact inside runDir.
type PathResolver func(runDir string) string

// ArtifactRef declares a stable identifier and metadata for an artifact.
type ArtifactRef struct {
	ID          string
	Name        string
	Description string
	Kind        Kind
	// NonEmpty artifacts are only persisted when they carry content.
	NonEmpty bool
	path     PathResolver
}

// Path resolves the artifact path for the provided run directory.
func (r ArtifactRef) Path(runDir string) string {
	if runDir == "" || r.path == nil {
		return ""
	}
	return filepath.Clean(r.path(runDir))
}

// Validate ensures the reference is well-formed.
func (r ArtifactRef) Validate() error {
	if r.ID == "" {
		return fmt.Errorf("artifact: id is required")
	}
	if r.Kind == "" {
		return fmt.Errorf("artifact: kind is required for %s", r.ID)
	}
	if r.path == nil {
		return fmt.Errorf("artifact: path resolver missing for %s", r.ID)
	}
	return nil
}

// State captures the readiness of an artifact on disk.
type State string

const (
	StateMissing State = "missing"
	StateReady   State = "ready"
	StateInvalid State = "invalid"
	StateError   State = "error"
)

// CheckResult captures Store.Check results.
type CheckResult struct {
	Ref   ArtifactRef
	Path  string
	State State
	Size  int64
	Err   error
}

// helper to register global references; ids must be unique
func register(ref ArtifactRef) ArtifactRef {
	if refs == nil {
		refs = map[string]ArtifactRef{}
	}
	if _, dup := refs[ref.ID]; dup {
		panic("artifact: duplicate id " + ref.ID)
	}
	refs[ref.ID] = ref
	ordered = append(ordered, ref)
	return ref
}

var (
	refs    map[string]ArtifactRef
	ordered []ArtifactRef
)

// All returns every registered reference in declaration order.
func All() []ArtifactRef {
	return append([]ArtifactRef(nil), ordered...)
}

func newRef(kind Kind, id, name, desc, file string) ArtifactRef {
	return ArtifactRef{
		ID:          id,
		Name:        name,
		Description: desc,
		Kind:        kind,
		path:        func(runDir string) string { return filepath.Join(runDir, file) },
	}
}

func nonEmpty(ref ArtifactRef) ArtifactRef {
	ref.NonEmpty = true
	return ref
}

// Canonical artifact references for a run directory.
var (
	Statement     = register(newRef(KindText, "statement", "Problem Statement", "Raw generated statement text", "generated_problem_statement.txt"))
	ProblemRecord = register(newRef(KindJSON, "problem-record", "Structured Problem", "Parsed problem record", "problem_structured.json"))
	SampleInput   = register(newRef(KindText, "sample-input", "Sample Input", "First sample input", "sample.in"))
	SampleOutput  = register(newRef(KindText, "sample-output", "Sample Output", "First sample expected output", "sample.out"))

	SolutionSource = register(nonEmpty(newRef(KindText, "solution-source", "Solution Source", "Reference C++ solution", "solution.cpp")))
	SolutionBinary = register(newRef(KindBinary, "solution-binary", "Solution Binary", "Compiled reference solution", "solution"))

	GeneratorSource = register(nonEmpty(newRef(KindText, "generator-source", "Generator Source", "Test-case generator C++ source", "test_case_generator.cpp")))
	GeneratorBinary = register(newRef(KindBinary, "generator-binary", "Generator Binary", "Compiled test-case generator", "test_case_generator"))
	TestCases       = register(newRef(KindDirectory, "test-cases", "Test Cases", "Files written by the test-case generator", "test_cases"))

	Report = register(newRef(KindText, "report", "Report", "Markdown analysis report", "report.md"))
	RunLog = register(newRef(KindText, "run-log", "Run Log", "Per-stage logbook for the run", "run.log"))
)
