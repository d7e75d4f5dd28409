// Package toolchain compiles generated C++ sources and runs the resulting
// binaries under a timeout.
package toolchain

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/DreamingRabbit/CP-Gen/internal/config"
	"github.com/DreamingRabbit/CP-Gen/internal/logging"
)

// Runner compiles and executes programs.
type Runner interface {
	Compile(ctx context.Context, src, bin string) Outcome
	Run(ctx context.Context, bin, inputPath string) Outcome
	Exec(ctx context.Context, bin, dir string) Outcome
}

// waitDelay bounds how long we wait for orphaned children holding our pipes
// after the main process was killed.
const waitDelay = 2 * time.Second

// Toolchain shells out to the configured compiler.
type Toolchain struct {
	cfg    config.ToolchainConfig
	logger *slog.Logger
}

// New returns a toolchain using cfg. A nil logger discards output.
func New(cfg config.ToolchainConfig, logger *slog.Logger) *Toolchain {
	if logger == nil {
		logger = logging.Nop()
	}
	return &Toolchain{cfg: cfg, logger: logging.Sub(logger, "toolchain")}
}

// Compile builds src into bin: <compiler> <flags...> src -o bin.
func (t *Toolchain) Compile(ctx context.Context, src, bin string) Outcome {
	if _, err := os.Stat(src); err != nil {
		return Outcome{Kind: KindCompileError, ExitCode: -1, Err: fmt.Errorf("toolchain: source %s: %w", src, err)}
	}
	args := append(append([]string{}, t.cfg.Flags...), src, "-o", bin)
	res := t.execute(ctx, t.cfg.CompileTimeout, invocation{
		name: t.cfg.Compiler,
		args: args,
	})
	out := res.outcome(KindCompileError)
	out.Stdout = ""
	logging.FromContext(ctx, t.logger).Debug("compile", "src", src, "bin", bin, "kind", out.Kind, "duration", out.Duration)
	return out
}

// Run executes bin with stdin redirected from inputPath and captures its
// trimmed stdout.
func (t *Toolchain) Run(ctx context.Context, bin, inputPath string) Outcome {
	path, err := filepath.Abs(bin)
	if err != nil {
		return Outcome{Kind: KindRuntimeError, ExitCode: -1, Err: fmt.Errorf("toolchain: resolve %s: %w", bin, err)}
	}
	input, err := os.Open(inputPath)
	if err != nil {
		return Outcome{Kind: KindRuntimeError, ExitCode: -1, Err: fmt.Errorf("toolchain: open input: %w", err)}
	}
	defer input.Close()
	res := t.execute(ctx, t.cfg.RunTimeout, invocation{
		name:  path,
		stdin: input,
	})
	out := res.outcome(KindRuntimeError)
	logging.FromContext(ctx, t.logger).Debug("run", "bin", path, "input", inputPath, "kind", out.Kind, "duration", out.Duration)
	return out
}

// Exec runs bin from dir with no stdin, discarding its output. Generated
// test-case generators write their files relative to dir.
func (t *Toolchain) Exec(ctx context.Context, bin, dir string) Outcome {
	path, err := filepath.Abs(bin)
	if err != nil {
		return Outcome{Kind: KindRuntimeError, ExitCode: -1, Err: fmt.Errorf("toolchain: resolve %s: %w", bin, err)}
	}
	res := t.execute(ctx, t.cfg.GeneratorTimeout, invocation{
		name:          path,
		dir:           dir,
		discardStdout: true,
	})
	out := res.outcome(KindRuntimeError)
	out.Stdout = ""
	logging.FromContext(ctx, t.logger).Debug("exec", "bin", path, "dir", dir, "kind", out.Kind, "duration", out.Duration)
	return out
}

type invocation struct {
	name          string
	args          []string
	dir           string
	stdin         io.Reader
	discardStdout bool
}

type result struct {
	stdout   string
	stderr   string
	exitCode int
	duration time.Duration
	timedOut bool
	err      error
}

func (t *Toolchain) execute(ctx context.Context, timeout time.Duration, inv invocation) result {
	if timeout <= 0 {
		timeout = time.Minute
	}
	execCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	cmd := exec.CommandContext(execCtx, inv.name, inv.args...)
	cmd.Dir = inv.dir
	cmd.WaitDelay = waitDelay
	if inv.stdin != nil {
		cmd.Stdin = inv.stdin
	}
	var stdout, stderr bytes.Buffer
	if inv.discardStdout {
		cmd.Stdout = io.Discard
	} else {
		cmd.Stdout = &stdout
	}
	cmd.Stderr = &stderr

	started := time.Now()
	err := cmd.Run()
	res := result{
		stdout:   strings.TrimSpace(stdout.String()),
		stderr:   stderr.String(),
		exitCode: -1,
		duration: time.Since(started),
	}
	if cmd.ProcessState != nil {
		res.exitCode = cmd.ProcessState.ExitCode()
	}
	if err != nil {
		if errors.Is(execCtx.Err(), context.DeadlineExceeded) {
			res.timedOut = true
		}
		res.err = err
	}
	return res
}

func (r result) outcome(failure Kind) Outcome {
	out := Outcome{
		Kind:        KindOK,
		Stdout:      r.stdout,
		Diagnostics: r.stderr,
		ExitCode:    r.exitCode,
		Duration:    r.duration,
		Err:         r.err,
	}
	switch {
	case r.timedOut:
		out.Kind = KindTimeout
	case r.err != nil:
		out.Kind = failure
	}
	return out
}
