package stage

import (
	"fmt"
	"log/slog"

	"github.com/DreamingRabbit/CP-Gen/internal/artifact"
	"github.com/DreamingRabbit/CP-Gen/internal/config"
	"github.com/DreamingRabbit/CP-Gen/internal/content"
	"github.com/DreamingRabbit/CP-Gen/internal/ideas"
	"github.com/DreamingRabbit/CP-Gen/internal/logbook"
	"github.com/DreamingRabbit/CP-Gen/internal/logging"
	"github.com/DreamingRabbit/CP-Gen/internal/problem"
	"github.com/DreamingRabbit/CP-Gen/internal/toolchain"
)

// State holds the in-memory values stages hand to each other during a run.
type State struct {
	Idea      string
	Statement string
	Problem   problem.Problem
	// Sections is the tokenized statement Problem was built from.
	Sections problem.Document
	// Parsed is set once the statement was parsed into Problem.
	Parsed          bool
	Solution        string
	GeneratorSource string
}

// Context carries shared runtime dependencies into every stage.
type Context struct {
	RunID     int
	TraceID   string
	Config    *config.Config
	Artifacts *artifact.Store
	Generator content.Generator
	Toolchain toolchain.Runner
	Ideas     ideas.Source
	Logbook   *logbook.Logbook
	Logger    *slog.Logger
	State     *State
}

// Log returns the stage logger, never nil.
func (c *Context) Log() *slog.Logger {
	if c == nil || c.Logger == nil {
		return logging.Nop()
	}
	return c.Logger
}

// Require ensures the dependencies a stage needs are present.
func (c *Context) Require(stageID string, needs ...Need) error {
	if c == nil {
		return fmt.Errorf("%s: context is nil", stageID)
	}
	if c.Artifacts == nil {
		return fmt.Errorf("%s: artifact store is required", stageID)
	}
	if c.State == nil {
		return fmt.Errorf("%s: run state is required", stageID)
	}
	for _, need := range needs {
		var missing bool
		switch need {
		case NeedConfig:
			missing = c.Config == nil
		case NeedGenerator:
			missing = c.Generator == nil
		case NeedToolchain:
			missing = c.Toolchain == nil
		case NeedIdeas:
			missing = c.Ideas == nil
		}
		if missing {
			return fmt.Errorf("%s: %s is required", stageID, need)
		}
	}
	return nil
}

// Need names an optional dependency of Context.
type Need string

const (
	NeedConfig    Need = "config"
	NeedGenerator Need = "generator"
	NeedToolchain Need = "toolchain"
	NeedIdeas     Need = "idea source"
)
