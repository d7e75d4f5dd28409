package tui

import (
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/DreamingRabbit/CP-Gen/internal/pipeline"
	"github.com/DreamingRabbit/CP-Gen/internal/stage"
)

// Printer reports progress as plain lines. It is used with --plain and
// whenever stdout is not a terminal.
type Printer struct {
	mu sync.Mutex
	w  io.Writer
	// Verbose also prints a line when each stage starts.
	Verbose bool
}

// NewPrinter writes progress lines to w.
func NewPrinter(w io.Writer) *Printer {
	return &Printer{w: w}
}

func (p *Printer) printf(format string, args ...any) {
	p.mu.Lock()
	defer p.mu.Unlock()
	fmt.Fprintf(p.w, format+"\n", args...)
}

// RunStarted implements pipeline.Observer.
func (p *Printer) RunStarted(run *pipeline.Run, infos []stage.Info) {
	p.printf("🚀 Run %d started in %s (%d stages)", run.ID, run.Dir, len(infos))
}

// StageStarted implements pipeline.Observer.
func (p *Printer) StageStarted(index, total int, info stage.Info) {
	if p.Verbose {
		p.printf("   [%d/%d] %s…", index, total, info.Name)
	}
}

// StageFinished implements pipeline.Observer.
func (p *Printer) StageFinished(index, total int, res pipeline.StageResult) {
	p.printf("%s [%d/%d] %s: %s", Marker(res.Status), index, total, res.Name, res.Message)
}

// RunFinished implements pipeline.Observer.
func (p *Printer) RunFinished(run *pipeline.Run, err error) {
	switch {
	case errors.Is(err, pipeline.ErrAborted):
		p.printf("🛑 Run %d aborted: %v", run.ID, err)
	case err != nil:
		p.printf("🛑 Run failed: %v", err)
	default:
		succeeded, skipped, failed := run.Counts()
		p.printf("🎉 Pipeline complete. Problem ID: %d (%d succeeded, %d skipped, %d failed)", run.ID, succeeded, skipped, failed)
	}
}
