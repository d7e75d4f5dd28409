package stages

import (
	"context"
	"strings"

	"github.com/DreamingRabbit/CP-Gen/internal/artifact"
	"github.com/DreamingRabbit/CP-Gen/internal/content"
	"github.com/DreamingRabbit/CP-Gen/internal/problem"
	"github.com/DreamingRabbit/CP-Gen/internal/stage"
)

// GenerateStatement asks the generator for a full statement.
type GenerateStatement struct {
	*stage.Base
}

// NewGenerateStatement constructs the statement generation stage.
func NewGenerateStatement() *GenerateStatement {
	return &GenerateStatement{Base: newBase(stage.Info{
		ID:          IDGenerateStatement,
		Name:        "Generate Statement",
		Description: "Expands the idea into a sectioned problem statement.",
	}, nil, []artifact.ArtifactRef{artifact.Statement})}
}

// Run implements stage.Stage. The returned text is persisted as-is, even when
// it lacks some sections.
func (s *GenerateStatement) Run(ctx context.Context, sc *stage.Context) (stage.Result, error) {
	if err := sc.Require(IDGenerateStatement, stage.NeedGenerator); err != nil {
		return stage.Result{Status: stage.StatusFailed}, err
	}
	text, err := sc.Generator.Complete(ctx, content.StatementPrompt(sc.State.Idea))
	if err != nil {
		return stage.Failed("Statement generation failed: %v", err), nil
	}
	if err := sc.Artifacts.WriteString(artifact.Statement, text); err != nil {
		return failed(IDGenerateStatement, err)
	}
	sc.State.Statement = text
	return stage.Success("Statement generated (%d bytes).", len(text)), nil
}

// ParseStatement converts the statement into the structured record.
type ParseStatement struct {
	*stage.Base
}

// NewParseStatement constructs the parsing stage.
func NewParseStatement() *ParseStatement {
	return &ParseStatement{Base: newBase(stage.Info{
		ID:          IDParseStatement,
		Name:        "Parse Statement",
		Description: "Splits the statement into sections and stores the structured record.",
	}, []artifact.ArtifactRef{artifact.Statement}, []artifact.ArtifactRef{artifact.ProblemRecord})}
}

// Run implements stage.Stage. Parsing never fails; absent sections are noted
// in the logbook and left empty.
func (s *ParseStatement) Run(_ context.Context, sc *stage.Context) (stage.Result, error) {
	if err := sc.Require(IDParseStatement); err != nil {
		return stage.Result{Status: stage.StatusFailed}, err
	}
	doc := problem.Tokenize(sc.State.Statement)
	p := problem.Parse(sc.State.Statement)
	record, err := p.MarshalIndent()
	if err != nil {
		return failed(IDParseStatement, err)
	}
	if err := sc.Artifacts.Write(artifact.ProblemRecord, record); err != nil {
		return failed(IDParseStatement, err)
	}
	sc.State.Problem = p
	sc.State.Sections = doc
	sc.State.Parsed = true

	found := make([]string, 0, len(problem.Headings()))
	for _, h := range doc.Order() {
		found = append(found, string(h))
	}
	sc.Log().Debug("statement parsed", "sections", len(found), "samples", len(p.Samples))
	if len(found) > 0 {
		sc.Logbook.Info("statement sections: %s", strings.Join(found, ", "))
	}

	missing := doc.Missing()
	if len(missing) == 0 {
		return stage.Success("Parsed all %d sections.", len(problem.Headings())), nil
	}
	names := make([]string, 0, len(missing))
	for _, h := range missing {
		names = append(names, string(h))
	}
	sc.Logbook.Warn("statement is missing sections: %s", strings.Join(names, ", "))
	return stage.Success("Parsed statement; missing %s.", strings.Join(names, ", ")), nil
}
