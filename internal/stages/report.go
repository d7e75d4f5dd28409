package stages

import (
	"context"

	"github.com/DreamingRabbit/CP-Gen/internal/artifact"
	"github.com/DreamingRabbit/CP-Gen/internal/content"
	"github.com/DreamingRabbit/CP-Gen/internal/stage"
)

// GenerateReport writes the markdown analysis. It runs after every other
// stage regardless of their outcome, with whatever problem and solution
// exist at that point.
type GenerateReport struct {
	*stage.Base
}

// NewGenerateReport constructs the report stage.
func NewGenerateReport() *GenerateReport {
	return &GenerateReport{Base: newBase(stage.Info{
		ID:          IDGenerateReport,
		Name:        "Generate Report",
		Description: "Asks for a markdown analysis of the problem and solution.",
	}, nil, []artifact.ArtifactRef{artifact.Report})}
}

// Run implements stage.Stage.
func (s *GenerateReport) Run(ctx context.Context, sc *stage.Context) (stage.Result, error) {
	if err := sc.Require(IDGenerateReport, stage.NeedGenerator); err != nil {
		return stage.Result{Status: stage.StatusFailed}, err
	}
	report, err := sc.Generator.Complete(ctx, content.ReportPrompt(sc.State.Problem, sc.State.Solution))
	if err != nil {
		return stage.Failed("Report generation failed: %v", err), nil
	}
	if err := sc.Artifacts.WriteString(artifact.Report, report); err != nil {
		return failed(IDGenerateReport, err)
	}
	return stage.Success("Report generated at %s", sc.Artifacts.Path(artifact.Report)), nil
}
