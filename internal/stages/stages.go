package stages

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/DreamingRabbit/CP-Gen/internal/artifact"
	"github.com/DreamingRabbit/CP-Gen/internal/stage"
)

// Stage identifiers.
const (
	IDSelectIdea            = "select-idea"
	IDGenerateStatement     = "generate-statement"
	IDParseStatement        = "parse-statement"
	IDPersistSample         = "persist-sample"
	IDGenerateSolution      = "generate-solution"
	IDCompileSolution       = "compile-solution"
	IDVerifySample          = "verify-sample"
	IDGenerateTestGenerator = "generate-test-generator"
	IDBuildTestGenerator    = "build-test-generator"
	IDGenerateReport        = "generate-report"
)

// RegisterBuiltins installs all of the built-in stage factories into the
// provided registry.
func RegisterBuiltins(reg *stage.Registry) {
	if reg == nil {
		return
	}
	factories := map[string]func() stage.Stage{
		IDSelectIdea:            func() stage.Stage { return NewSelectIdea() },
		IDGenerateStatement:     func() stage.Stage { return NewGenerateStatement() },
		IDParseStatement:        func() stage.Stage { return NewParseStatement() },
		IDPersistSample:         func() stage.Stage { return NewPersistSample() },
		IDGenerateSolution:      func() stage.Stage { return NewGenerateSolution() },
		IDCompileSolution:       func() stage.Stage { return NewCompileSolution() },
		IDVerifySample:          func() stage.Stage { return NewVerifySample() },
		IDGenerateTestGenerator: func() stage.Stage { return NewGenerateTestGenerator() },
		IDBuildTestGenerator:    func() stage.Stage { return NewBuildTestGenerator() },
		IDGenerateReport:        func() stage.Stage { return NewGenerateReport() },
	}
	for id, build := range factories {
		build := build
		reg.MustRegister(id, func() (stage.Stage, error) { return build(), nil })
	}
}

func newBase(info stage.Info, inputs, outputs []artifact.ArtifactRef) *stage.Base {
	base := stage.NewBase(info)
	base.SetInputs(inputs...)
	base.SetOutputs(outputs...)
	return &base
}

func failed(stageID string, err error) (stage.Result, error) {
	return stage.Result{Status: stage.StatusFailed, Message: err.Error()}, fmt.Errorf("%s: %w", stageID, err)
}

func abbreviate(s string, max int) string {
	s = strings.Join(strings.Fields(s), " ")
	if utf8.RuneCountInString(s) <= max {
		return s
	}
	runes := []rune(s)
	return string(runes[:max-1]) + "…"
}
