package tui

import (
	"bytes"
	"errors"
	"fmt"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/google/go-cmp/cmp"

	"github.com/DreamingRabbit/CP-Gen/internal/pipeline"
	"github.com/DreamingRabbit/CP-Gen/internal/stage"
)

var testInfos = []stage.Info{
	{ID: "select-idea", Name: "Select Idea"},
	{ID: "compile-solution", Name: "Compile Solution"},
	{ID: "generate-report", Name: "Generate Report"},
}

type recordingSender struct {
	msgs []tea.Msg
}

func (r *recordingSender) Send(msg tea.Msg) {
	r.msgs = append(r.msgs, msg)
}

func feed(t *testing.T, m Model, msgs ...tea.Msg) (Model, tea.Cmd) {
	t.Helper()
	var cmd tea.Cmd
	for _, msg := range msgs {
		var next tea.Model
		next, cmd = m.Update(msg)
		var ok bool
		m, ok = next.(Model)
		if !ok {
			t.Fatalf("update returned %T", next)
		}
	}
	return m, cmd
}

func TestModelTracksStages(t *testing.T) {
	m, _ := feed(t, NewModel(nil),
		runStartedMsg{runID: 12, dir: "/runs/12", stages: testInfos},
		stageStartedMsg{index: 1, id: "select-idea"},
		stageFinishedMsg{index: 1, result: pipeline.StageResult{ID: "select-idea", Status: stage.StatusSuccess, Message: "Selected idea: candies"}},
		stageStartedMsg{index: 2, id: "compile-solution"},
	)
	if got := m.completed(); got != 1 {
		t.Fatalf("completed = %d", got)
	}
	if !m.rows[1].running || m.rows[0].running {
		t.Fatalf("rows = %+v", m.rows)
	}
	view := m.View()
	for _, want := range []string{"cpgen · run 12", "/runs/12", "✅ Select Idea", "Selected idea: candies", "Compile Solution", "Running", "q to cancel"} {
		if !strings.Contains(view, want) {
			t.Fatalf("view missing %q:\n%s", want, view)
		}
	}

	m, cmd := feed(t, m,
		stageFinishedMsg{index: 2, result: pipeline.StageResult{ID: "compile-solution", Status: stage.StatusFailed, Message: "Compilation of solution.cpp failed."}},
		stageFinishedMsg{index: 3, result: pipeline.StageResult{ID: "generate-report", Status: stage.StatusSuccess, Message: "Report generated at /runs/12/report.md"}},
		runFinishedMsg{runID: 12, succeeded: 1, failed: 1},
	)
	if cmd != nil {
		t.Fatalf("run finished should not quit before the pipeline returns")
	}
	view = m.View()
	for _, want := range []string{"❌ Compile Solution", "Failed", "🎉 Pipeline complete. Problem ID: 12"} {
		if !strings.Contains(view, want) {
			t.Fatalf("view missing %q:\n%s", want, view)
		}
	}

	m, cmd = feed(t, m, doneMsg{})
	if cmd == nil {
		t.Fatalf("done should quit")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Fatalf("expected quit message")
	}
	if m.err != nil {
		t.Fatalf("err = %v", m.err)
	}
}

func TestModelAbortAndSetupFailure(t *testing.T) {
	abortErr := fmt.Errorf("%w: run 3: select-idea: No idea available", pipeline.ErrAborted)
	m, _ := feed(t, NewModel(nil),
		runStartedMsg{runID: 3, stages: testInfos},
		runFinishedMsg{runID: 3, aborted: true, err: abortErr},
		doneMsg{err: abortErr},
	)
	if !errors.Is(m.err, pipeline.ErrAborted) || !strings.Contains(m.View(), "Run 3 aborted") {
		t.Fatalf("view:\n%s", m.View())
	}

	setupErr := errors.New("allocate run id: disk full")
	m, _ = feed(t, NewModel(nil), doneMsg{err: setupErr})
	if !errors.Is(m.err, setupErr) || !strings.Contains(m.View(), "disk full") {
		t.Fatalf("view:\n%s", m.View())
	}
}

func TestModelQuitCancels(t *testing.T) {
	cancelled := false
	m, cmd := feed(t, NewModel(func() { cancelled = true }),
		runStartedMsg{runID: 1, stages: testInfos},
		tea.KeyMsg{Type: tea.KeyCtrlC},
	)
	if !cancelled || !m.quitting || cmd == nil {
		t.Fatalf("cancelled=%v quitting=%v", cancelled, m.quitting)
	}
	if !strings.Contains(m.View(), "cancelling") {
		t.Fatalf("view:\n%s", m.View())
	}
}

func TestModelIgnoresUnknownStage(t *testing.T) {
	m, _ := feed(t, NewModel(nil),
		runStartedMsg{runID: 1, stages: testInfos},
		stageFinishedMsg{index: 9, result: pipeline.StageResult{ID: "nope", Status: stage.StatusFailed}},
		stageFinishedMsg{index: 1, result: pipeline.StageResult{ID: "generate-report", Status: stage.StatusSuccess}},
	)
	if m.rows[2].status != stage.StatusSuccess || m.completed() != 1 {
		t.Fatalf("rows = %+v", m.rows)
	}
}

func TestObserverForwardsCopies(t *testing.T) {
	sender := &recordingSender{}
	obs := NewObserver(sender)
	run := &pipeline.Run{ID: 5, Dir: "/runs/5"}
	infos := append([]stage.Info{}, testInfos...)

	obs.RunStarted(run, infos)
	obs.StageStarted(1, 3, infos[0])
	res := pipeline.StageResult{ID: "select-idea", Status: stage.StatusSuccess}
	run.Results = append(run.Results, res)
	obs.StageFinished(1, 3, res)
	obs.RunFinished(run, nil)
	infos[0].Name = "mutated"

	want := []tea.Msg{
		runStartedMsg{runID: 5, dir: "/runs/5", stages: testInfos},
		stageStartedMsg{index: 1, id: "select-idea"},
		stageFinishedMsg{index: 1, result: res},
		runFinishedMsg{runID: 5, succeeded: 1},
	}
	opts := cmp.AllowUnexported(runStartedMsg{}, stageStartedMsg{}, stageFinishedMsg{}, runFinishedMsg{})
	if diff := cmp.Diff(want, sender.msgs, opts); diff != "" {
		t.Fatalf("messages (-want +got):\n%s", diff)
	}
}

func TestPrinter(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf)
	run := &pipeline.Run{ID: 8, Dir: "runs/8"}
	p.RunStarted(run, testInfos)
	p.StageStarted(1, 3, testInfos[0])
	p.StageFinished(1, 3, pipeline.StageResult{Name: "Select Idea", Status: stage.StatusSuccess, Message: "Selected idea: x"})
	p.StageFinished(2, 3, pipeline.StageResult{Name: "Compile Solution", Status: stage.StatusSkipped, Message: "Skipped: generate-solution did not succeed."})
	run.Results = []pipeline.StageResult{{Status: stage.StatusSuccess}, {Status: stage.StatusSkipped}}
	p.RunFinished(run, nil)

	want := strings.Join([]string{
		"🚀 Run 8 started in runs/8 (3 stages)",
		"✅ [1/3] Select Idea: Selected idea: x",
		"⚠️ [2/3] Compile Solution: Skipped: generate-solution did not succeed.",
		"🎉 Pipeline complete. Problem ID: 8 (1 succeeded, 1 skipped, 0 failed)",
		"",
	}, "\n")
	if diff := cmp.Diff(want, buf.String()); diff != "" {
		t.Fatalf("output (-want +got):\n%s", diff)
	}

	buf.Reset()
	p.Verbose = true
	p.StageStarted(2, 3, testInfos[1])
	p.RunFinished(run, fmt.Errorf("%w: boom", pipeline.ErrAborted))
	if got := buf.String(); !strings.Contains(got, "[2/3] Compile Solution…") || !strings.Contains(got, "🛑 Run 8 aborted") {
		t.Fatalf("output = %q", got)
	}
}

func TestFriendlyLabel(t *testing.T) {
	for in, want := range map[string]string{"success": "Success", "compile-error": "Compile Error", "": ""} {
		if got := friendlyLabel(in); got != want {
			t.Fatalf("friendlyLabel(%q) = %q", in, got)
		}
	}
}
