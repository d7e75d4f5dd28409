// Package tui renders pipeline progress: a bubbletea program for terminals
// and a line printer for everything else.
//
// The pipeline runs on its own goroutine and reports through Observer, which
// turns every event into a message for the program. The model only ever reads
// copies, never the live *pipeline.Run.
package tui

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/DreamingRabbit/CP-Gen/internal/pipeline"
	"github.com/DreamingRabbit/CP-Gen/internal/stage"
)

type row struct {
	id      string
	name    string
	status  stage.Status
	message string
	running bool
}

type runStartedMsg struct {
	runID  int
	dir    string
	stages []stage.Info
}

type stageStartedMsg struct {
	index int
	id    string
}

type stageFinishedMsg struct {
	index  int
	result pipeline.StageResult
}

type runFinishedMsg struct {
	runID     int
	aborted   bool
	succeeded int
	skipped   int
	failed    int
	err       error
}

// doneMsg is sent once the pipeline goroutine has returned.
type doneMsg struct {
	err error
}

// Model is the bubbletea model for a single run.
type Model struct {
	rows     []row
	runID    int
	runDir   string
	spinner  spinner.Model
	progress progress.Model
	finished bool
	summary  string
	err      error
	quitting bool
	cancel   context.CancelFunc
}

// NewModel builds the model. cancel is invoked when the operator quits
// before the run is over; it may be nil.
func NewModel(cancel context.CancelFunc) Model {
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = labelStyleRunning
	return Model{
		spinner:  sp,
		progress: progress.New(progress.WithDefaultGradient(), progress.WithWidth(40)),
		cancel:   cancel,
	}
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	return m.spinner.Tick
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "q":
			m.quitting = true
			if m.cancel != nil {
				m.cancel()
			}
			return m, tea.Quit
		}
	case tea.WindowSizeMsg:
		m.progress.Width = min(max(msg.Width-4, 10), 60)
	case spinner.TickMsg:
		if m.finished {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	case runStartedMsg:
		m.runID = msg.runID
		m.runDir = msg.dir
		m.rows = make([]row, len(msg.stages))
		for i, info := range msg.stages {
			m.rows[i] = row{id: info.ID, name: info.Name}
		}
	case stageStartedMsg:
		if r := m.row(msg.index, msg.id); r != nil {
			r.running = true
		}
	case stageFinishedMsg:
		if r := m.row(msg.index, msg.result.ID); r != nil {
			r.running = false
			r.status = msg.result.Status
			r.message = msg.result.Message
		}
	case runFinishedMsg:
		m.finished = true
		m.err = msg.err
		switch {
		case msg.aborted || errors.Is(msg.err, pipeline.ErrAborted):
			m.summary = fmt.Sprintf("🛑 Run %d aborted.", msg.runID)
		case msg.err != nil:
			m.summary = fmt.Sprintf("🛑 Run failed: %v", msg.err)
		default:
			m.summary = fmt.Sprintf("🎉 Pipeline complete. Problem ID: %d (%d succeeded, %d skipped, %d failed)",
				msg.runID, msg.succeeded, msg.skipped, msg.failed)
		}
	case doneMsg:
		m.finished = true
		if m.err == nil {
			m.err = msg.err
		}
		if m.summary == "" && msg.err != nil {
			m.summary = fmt.Sprintf("🛑 Run failed: %v", msg.err)
		}
		return m, tea.Quit
	}
	return m, nil
}

// row finds the row for a stage. index is 1-based and normally matches; the
// id lookup covers definitions whose order differs from the event order.
func (m *Model) row(index int, id string) *row {
	if index >= 1 && index <= len(m.rows) && m.rows[index-1].id == id {
		return &m.rows[index-1]
	}
	for i := range m.rows {
		if m.rows[i].id == id {
			return &m.rows[i]
		}
	}
	return nil
}

func (m Model) completed() int {
	n := 0
	for _, r := range m.rows {
		if r.status != "" {
			n++
		}
	}
	return n
}

// View implements tea.Model.
func (m Model) View() string {
	if len(m.rows) == 0 {
		if m.summary != "" {
			return m.summary + "\n"
		}
		return m.spinner.View() + " Preparing run…\n"
	}
	title := titleStyle.Render(fmt.Sprintf("cpgen · run %d", m.runID))
	lines := make([]string, 0, len(m.rows))
	for _, r := range m.rows {
		lines = append(lines, m.renderRow(r))
	}
	var b strings.Builder
	b.WriteString(title + "\n")
	b.WriteString(detailTextStyle.Render(m.runDir) + "\n")
	b.WriteString(boxStyle.Render(strings.Join(lines, "\n")) + "\n")
	percent := float64(m.completed()) / float64(len(m.rows))
	b.WriteString(m.progress.ViewAs(percent) + "\n")
	switch {
	case m.summary != "":
		b.WriteString(m.summary + "\n")
	case m.quitting:
		b.WriteString(footerStyle.Render("cancelling…") + "\n")
	default:
		b.WriteString(footerStyle.Render("q to cancel") + "\n")
	}
	return b.String()
}

func (m Model) renderRow(r row) string {
	switch {
	case r.running:
		return fmt.Sprintf("%s %s %s", m.spinner.View(), r.name, labelStyleRunning.Render("Running"))
	case r.status == "":
		return fmt.Sprintf("%s %s", Marker(r.status), labelStylePending.Render(r.name))
	}
	line := fmt.Sprintf("%s %s %s", Marker(r.status), r.name, labelStyleForStatus(r.status).Render(friendlyLabel(string(r.status))))
	if r.message != "" {
		line += " " + detailTextStyle.Render(r.message)
	}
	return line
}
