package toolchain

import (
	"fmt"
	"strings"
	"time"
)

// Kind classifies how a compile or execution step ended.
type Kind string

const (
	KindOK           Kind = "ok"
	KindCompileError Kind = "compile-error"
	KindRuntimeError Kind = "runtime-error"
	KindTimeout      Kind = "timeout"
)

// Outcome is the result of a single toolchain invocation.
type Outcome struct {
	Kind Kind
	// Stdout is the trimmed standard output. Empty for compile steps and
	// for Exec, which discards output.
	Stdout string
	// Diagnostics is the captured standard error.
	Diagnostics string
	ExitCode    int
	Duration    time.Duration
	Err         error
}

// OK reports whether the step succeeded.
func (o Outcome) OK() bool {
	return o.Kind == KindOK
}

// Output returns the captured stdout, or "" for every non-ok outcome so a
// crash, a timeout and a silent program are indistinguishable.
func (o Outcome) Output() string {
	if !o.OK() {
		return ""
	}
	return o.Stdout
}

// Summary is a one-line description suitable for logs and stage messages.
func (o Outcome) Summary() string {
	switch o.Kind {
	case KindOK:
		return fmt.Sprintf("ok in %s", o.Duration.Round(time.Millisecond))
	case KindTimeout:
		return fmt.Sprintf("timed out after %s", o.Duration.Round(time.Millisecond))
	}
	parts := []string{string(o.Kind)}
	if o.ExitCode > 0 {
		parts = append(parts, fmt.Sprintf("exit %d", o.ExitCode))
	}
	if o.Err != nil && o.ExitCode <= 0 {
		parts = append(parts, o.Err.Error())
	}
	if line := firstLine(o.Diagnostics); line != "" {
		parts = append(parts, line)
	}
	return strings.Join(parts, ": ")
}

// Verify reports whether actual matches expected after trimming surrounding
// whitespace from both. No other normalization is applied.
func Verify(actual, expected string) bool {
	return strings.TrimSpace(actual) == strings.TrimSpace(expected)
}

func firstLine(s string) string {
	s = strings.TrimSpace(s)
	if idx := strings.IndexByte(s, '\n'); idx >= 0 {
		s = s[:idx]
	}
	return strings.TrimSpace(s)
}
