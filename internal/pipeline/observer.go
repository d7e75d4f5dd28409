package pipeline

import "github.com/DreamingRabbit/CP-Gen/internal/stage"

// Observer receives progress events. Calls happen on the goroutine running
// the pipeline, in order.
type Observer interface {
	RunStarted(run *Run, stages []stage.Info)
	StageStarted(index, total int, info stage.Info)
	StageFinished(index, total int, result StageResult)
	RunFinished(run *Run, err error)
}

// Observers fans events out to several observers.
type Observers []Observer

func (o Observers) RunStarted(run *Run, stages []stage.Info) {
	for _, obs := range o {
		if obs != nil {
			obs.RunStarted(run, stages)
		}
	}
}

func (o Observers) StageStarted(index, total int, info stage.Info) {
	for _, obs := range o {
		if obs != nil {
			obs.StageStarted(index, total, info)
		}
	}
}

func (o Observers) StageFinished(index, total int, result StageResult) {
	for _, obs := range o {
		if obs != nil {
			obs.StageFinished(index, total, result)
		}
	}
}

func (o Observers) RunFinished(run *Run, err error) {
	for _, obs := range o {
		if obs != nil {
			obs.RunFinished(run, err)
		}
	}
}
