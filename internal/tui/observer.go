package tui

import (
	"context"
	"io"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/DreamingRabbit/CP-Gen/internal/pipeline"
	"github.com/DreamingRabbit/CP-Gen/internal/stage"
)

// Sender is the part of *tea.Program the observer needs.
type Sender interface {
	Send(msg tea.Msg)
}

// Observer forwards pipeline events to a bubbletea program.
type Observer struct {
	sender Sender
}

// NewObserver builds an observer sending to s.
func NewObserver(s Sender) *Observer {
	return &Observer{sender: s}
}

// RunStarted implements pipeline.Observer.
func (o *Observer) RunStarted(run *pipeline.Run, infos []stage.Info) {
	o.sender.Send(runStartedMsg{runID: run.ID, dir: run.Dir, stages: append([]stage.Info{}, infos...)})
}

// StageStarted implements pipeline.Observer.
func (o *Observer) StageStarted(index, _ int, info stage.Info) {
	o.sender.Send(stageStartedMsg{index: index, id: info.ID})
}

// StageFinished implements pipeline.Observer.
func (o *Observer) StageFinished(index, _ int, res pipeline.StageResult) {
	o.sender.Send(stageFinishedMsg{index: index, result: res})
}

// RunFinished implements pipeline.Observer.
func (o *Observer) RunFinished(run *pipeline.Run, err error) {
	msg := runFinishedMsg{err: err}
	if run != nil {
		msg.runID = run.ID
		msg.aborted = run.Aborted
		msg.succeeded, msg.skipped, msg.failed = run.Counts()
	}
	o.sender.Send(msg)
}

// Run drives fn under an interactive progress display written to out. fn
// receives the observer to wire into the pipeline and a context that is
// cancelled when the operator quits. Run returns fn's error.
func Run(ctx context.Context, out io.Writer, fn func(context.Context, pipeline.Observer) error) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	program := tea.NewProgram(NewModel(cancel), tea.WithOutput(out))
	errCh := make(chan error, 1)
	go func() {
		err := fn(ctx, NewObserver(program))
		program.Send(doneMsg{err: err})
		errCh <- err
	}()
	if _, err := program.Run(); err != nil {
		cancel()
		<-errCh
		return err
	}
	return <-errCh
}
