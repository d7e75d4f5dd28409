package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/DreamingRabbit/CP-Gen/internal/artifact"
	"github.com/DreamingRabbit/CP-Gen/internal/config"
	"github.com/DreamingRabbit/CP-Gen/internal/content"
	"github.com/DreamingRabbit/CP-Gen/internal/ideas"
	"github.com/DreamingRabbit/CP-Gen/internal/logbook"
	"github.com/DreamingRabbit/CP-Gen/internal/logging"
	"github.com/DreamingRabbit/CP-Gen/internal/runid"
	"github.com/DreamingRabbit/CP-Gen/internal/stage"
	"github.com/DreamingRabbit/CP-Gen/internal/toolchain"
)

// ErrAborted wraps the error returned when a fatal stage failed.
var ErrAborted = errors.New("pipeline: run aborted")

// Options wires a Controller.
type Options struct {
	Definition Definition
	Registry   *stage.Registry
	Sequence   runid.Sequence
	Config     *config.Config
	Generator  content.Generator
	Toolchain  toolchain.Runner
	Ideas      ideas.Source
	Logger     *slog.Logger
	Observer   Observer
	// TraceID overrides run trace id generation (tests).
	TraceID func() string
}

type node struct {
	stage stage.Stage
	deps  []string
}

// Controller executes the stage graph once per Run call.
type Controller struct {
	opts  Options
	order []node
	final stage.Stage
}

// NewController resolves every stage of the definition up front so wiring
// mistakes surface before a run id is consumed.
func NewController(opts Options) (*Controller, error) {
	if opts.Registry == nil {
		return nil, fmt.Errorf("pipeline: stage registry is required")
	}
	if opts.Sequence == nil {
		return nil, fmt.Errorf("pipeline: run id sequence is required")
	}
	if opts.Config == nil {
		return nil, fmt.Errorf("pipeline: config is required")
	}
	if opts.Logger == nil {
		opts.Logger = logging.Nop()
	}
	if opts.TraceID == nil {
		opts.TraceID = uuid.NewString
	}
	if opts.Definition.ID == "" {
		opts.Definition = DefaultDefinition()
	}
	ids, err := opts.Definition.Order()
	if err != nil {
		return nil, err
	}
	c := &Controller{opts: opts}
	for _, id := range ids {
		st, err := opts.Registry.Resolve(id)
		if err != nil {
			return nil, fmt.Errorf("pipeline %s: %w", opts.Definition.ID, err)
		}
		c.order = append(c.order, node{stage: st, deps: opts.Definition.Dependencies(id)})
	}
	if opts.Definition.Final != "" {
		st, err := opts.Registry.Resolve(opts.Definition.Final)
		if err != nil {
			return nil, fmt.Errorf("pipeline %s: %w", opts.Definition.ID, err)
		}
		c.final = st
	}
	return c, nil
}

// Stages returns the stage infos in execution order, final stage last.
func (c *Controller) Stages() []stage.Info {
	infos := make([]stage.Info, 0, len(c.order)+1)
	for _, n := range c.order {
		infos = append(infos, n.stage.Info())
	}
	if c.final != nil {
		infos = append(infos, c.final.Info())
	}
	return infos
}

// Run executes one full pipeline run. The run id is allocated exactly once,
// before any stage runs. A non-nil error means the run could not be set up
// or a fatal stage failed; every other stage failure is recorded in the
// returned Run.
func (c *Controller) Run(ctx context.Context) (*Run, error) {
	id, err := c.opts.Sequence.Next()
	if err != nil {
		return nil, fmt.Errorf("pipeline: allocate run id: %w", err)
	}
	run := &Run{
		ID:        id,
		TraceID:   c.opts.TraceID(),
		Dir:       c.opts.Config.RunDir(id),
		StartedAt: time.Now(),
	}
	store := artifact.NewStore(run.Dir)
	if err := store.Ensure(); err != nil {
		return run, fmt.Errorf("pipeline: run %d: %w", id, err)
	}
	book, err := logbook.New(store.Path(artifact.RunLog))
	if err != nil {
		return run, fmt.Errorf("pipeline: run %d: %w", id, err)
	}
	run.LogPath = book.Path()
	logger := logging.Sub(c.opts.Logger, "pipeline").With("run", id, "trace", run.TraceID)
	sc := &stage.Context{
		RunID:     id,
		TraceID:   run.TraceID,
		Config:    c.opts.Config,
		Artifacts: store,
		Generator: c.opts.Generator,
		Toolchain: c.opts.Toolchain,
		Ideas:     c.opts.Ideas,
		Logbook:   book,
		Logger:    logger,
		State:     &stage.State{},
	}
	observer := c.observer()
	infos := c.Stages()
	total := len(infos)

	logger.Info("run started", "dir", run.Dir)
	book.Info("run %d started (trace %s)", id, run.TraceID)
	observer.RunStarted(run, infos)

	statuses := map[string]stage.Status{}
	for idx, n := range c.order {
		info := n.stage.Info()
		observer.StageStarted(idx+1, total, info)
		var res StageResult
		if blocker := firstUnsuccessful(n.deps, statuses); blocker != "" {
			res = skippedResult(info, blocker)
		} else {
			res = c.execute(ctx, n.stage, sc)
		}
		statuses[info.ID] = res.Status
		run.Results = append(run.Results, res)
		record(book, logger, idx+1, total, res)
		observer.StageFinished(idx+1, total, res)

		if info.Fatal && res.Status == stage.StatusFailed {
			run.Aborted = true
			run.FinishedAt = time.Now()
			abortErr := fmt.Errorf("%w: run %d: %s: %s", ErrAborted, id, info.ID, res.Message)
			book.Error("run %d aborted", id)
			logger.Error("run aborted", "stage", info.ID, "message", res.Message)
			observer.RunFinished(run, abortErr)
			return run, abortErr
		}
	}

	if c.final != nil {
		info := c.final.Info()
		observer.StageStarted(total, total, info)
		run.Report = c.execute(ctx, c.final, sc)
		record(book, logger, total, total, run.Report)
		observer.StageFinished(total, total, run.Report)
	}

	run.FinishedAt = time.Now()
	recordInventory(book, store)
	succeeded, skipped, failed := run.Counts()
	book.Info("run %d finished: %d succeeded, %d skipped, %d failed", id, succeeded, skipped, failed)
	logger.Info("run finished", "succeeded", succeeded, "skipped", skipped, "failed", failed, "duration", run.Duration().Round(time.Millisecond))
	observer.RunFinished(run, nil)
	return run, nil
}

func (c *Controller) execute(ctx context.Context, st stage.Stage, sc *stage.Context) StageResult {
	info := st.Info()
	for _, ref := range stage.MissingInputs(st, sc.Artifacts) {
		sc.Logbook.Warn("%s: declared input %s is not ready", info.ID, ref.ID)
	}
	ctx = logging.IntoContext(ctx, sc.Log().With("stage", info.ID))
	started := time.Now()
	result, err := st.Run(ctx, sc)
	res := StageResult{
		ID:       info.ID,
		Name:     info.Name,
		Status:   result.Status,
		Message:  result.Message,
		Duration: time.Since(started),
		Err:      err,
	}
	if err != nil {
		res.Status = stage.StatusFailed
		if res.Message == "" {
			res.Message = err.Error()
		}
	}
	if res.Status == "" {
		res.Status = stage.StatusFailed
		res.Message = strings.TrimSpace(res.Message + " (stage returned no status)")
	}
	if res.Status == stage.StatusSuccess {
		for _, ref := range stage.MissingOutputs(st, sc.Artifacts) {
			sc.Logbook.Warn("%s: declared output %s is not ready", info.ID, ref.ID)
		}
	}
	return res
}

func (c *Controller) observer() Observer {
	if c.opts.Observer == nil {
		return Observers(nil)
	}
	return c.opts.Observer
}

func firstUnsuccessful(deps []string, statuses map[string]stage.Status) string {
	for _, dep := range deps {
		if statuses[dep] != stage.StatusSuccess {
			return dep
		}
	}
	return ""
}

func skippedResult(info stage.Info, blocker string) StageResult {
	msg := info.SkipMessage
	if msg == "" {
		msg = fmt.Sprintf("Skipped: %s did not succeed.", blocker)
	}
	return StageResult{ID: info.ID, Name: info.Name, Status: stage.StatusSkipped, Message: msg}
}

func record(book *logbook.Logbook, logger *slog.Logger, index, total int, res StageResult) {
	line := fmt.Sprintf("[%d/%d] %s %s: %s", index, total, res.ID, res.Status, res.Message)
	switch res.Status {
	case stage.StatusSuccess:
		book.Info("%s", line)
		logger.Info("stage finished", "stage", res.ID, "status", res.Status, "duration", res.Duration.Round(time.Millisecond))
	case stage.StatusSkipped:
		book.Warn("%s", line)
		logger.Warn("stage skipped", "stage", res.ID, "message", res.Message)
	default:
		book.Error("%s", line)
		logger.Error("stage failed", "stage", res.ID, "message", res.Message, "err", res.Err)
	}
}

// recordInventory notes which artifacts the run left behind.
func recordInventory(book *logbook.Logbook, store *artifact.Store) {
	var ready, other []string
	for _, res := range store.Inventory() {
		if res.Ref.ID == artifact.RunLog.ID {
			continue
		}
		if res.State == artifact.StateReady {
			ready = append(ready, res.Ref.ID)
		} else {
			other = append(other, fmt.Sprintf("%s (%s)", res.Ref.ID, res.State))
		}
	}
	book.Info("artifacts ready: %s", joinOrNone(ready))
	if len(other) > 0 {
		book.Info("artifacts not produced: %s", strings.Join(other, ", "))
	}
}

func joinOrNone(ids []string) string {
	if len(ids) == 0 {
		return "none"
	}
	return strings.Join(ids, ", ")
}
