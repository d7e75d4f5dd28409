package stages

import (
	"context"

	"github.com/DreamingRabbit/CP-Gen/internal/stage"
)

// SelectIdea picks the seed idea for the run.
type SelectIdea struct {
	*stage.Base
}

// NewSelectIdea constructs the idea selection stage.
func NewSelectIdea() *SelectIdea {
	return &SelectIdea{Base: newBase(stage.Info{
		ID:          IDSelectIdea,
		Name:        "Select Idea",
		Description: "Picks a random idea from the idea file.",
		Fatal:       true,
	}, nil, nil)}
}

// Run implements stage.Stage.
func (s *SelectIdea) Run(_ context.Context, sc *stage.Context) (stage.Result, error) {
	if err := sc.Require(IDSelectIdea, stage.NeedIdeas); err != nil {
		return stage.Result{Status: stage.StatusFailed}, err
	}
	idea, err := sc.Ideas.Pick()
	if err != nil {
		return stage.Failed("No idea available: %v", err), nil
	}
	sc.State.Idea = idea
	sc.Logbook.Info("idea: %s", idea)
	return stage.Success("Selected idea: %s", abbreviate(idea, 60)), nil
}
