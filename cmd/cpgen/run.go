package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"

	"github.com/charmbracelet/glamour"
	"github.com/spf13/cobra"

	"github.com/DreamingRabbit/CP-Gen/internal/artifact"
	"github.com/DreamingRabbit/CP-Gen/internal/config"
	"github.com/DreamingRabbit/CP-Gen/internal/content"
	"github.com/DreamingRabbit/CP-Gen/internal/ideas"
	"github.com/DreamingRabbit/CP-Gen/internal/logbook"
	"github.com/DreamingRabbit/CP-Gen/internal/logging"
	"github.com/DreamingRabbit/CP-Gen/internal/pipeline"
	"github.com/DreamingRabbit/CP-Gen/internal/runid"
	"github.com/DreamingRabbit/CP-Gen/internal/stage"
	"github.com/DreamingRabbit/CP-Gen/internal/stages"
	"github.com/DreamingRabbit/CP-Gen/internal/tui"
)

func projectDir(opts *options) (string, error) {
	dir := opts.project
	if dir == "" {
		cwd, err := os.Getwd()
		if err != nil {
			return "", fmt.Errorf("get working directory: %w", err)
		}
		dir = cwd
	}
	return filepath.Abs(dir)
}

func loadDefinition(opts *options) (pipeline.Definition, error) {
	if opts.pipeline == "" {
		return pipeline.DefaultDefinition(), nil
	}
	return pipeline.LoadDefinitionFile(opts.pipeline)
}

func runPipeline(cmd *cobra.Command, opts *options, d deps) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()
	out := cmd.OutOrStdout()

	dir, err := projectDir(opts)
	if err != nil {
		return err
	}
	if err := config.InitProjectDir(dir); err != nil {
		return fmt.Errorf("initialize %s: %w", config.ProjectDirName, err)
	}
	cfg, err := config.NewConfig(ctx, dir)
	if err != nil {
		return err
	}
	logger, err := logging.New(cfg.LogsDir(), opts.verbose)
	if err != nil {
		return err
	}
	defer logger.Close()

	def, err := loadDefinition(opts)
	if err != nil {
		return err
	}
	gen, err := d.newGenerator(ctx, cfg.Generator(), cfg.APIKey, logging.Sub(logger.Logger, "content"))
	if err != nil {
		if errors.Is(err, content.ErrMissingAPIKey) {
			return fmt.Errorf("%w: set CPGEN_API_KEY", err)
		}
		return err
	}
	var source ideas.Source = ideas.NewFile(cfg.IdeasPath(), nil)
	if opts.idea != "" {
		source = ideas.Static{opts.idea}
	}
	reg := stage.NewRegistry()
	stages.RegisterBuiltins(reg)

	build := func(obs pipeline.Observer) (*pipeline.Controller, error) {
		return pipeline.NewController(pipeline.Options{
			Definition: def,
			Registry:   reg,
			Sequence:   runid.NewFileSequence(cfg.CounterPath()),
			Config:     cfg,
			Generator:  gen,
			Toolchain:  d.newToolchain(cfg.Toolchain(), logging.Sub(logger.Logger, "toolchain")),
			Ideas:      source,
			Logger:     logger.Logger,
			Observer:   obs,
		})
	}

	var run *pipeline.Run
	execute := func(ctx context.Context, obs pipeline.Observer) error {
		ctrl, err := build(obs)
		if err != nil {
			return err
		}
		run, err = ctrl.Run(ctx)
		return err
	}
	if opts.plain || !isTerminal(out) {
		printer := tui.NewPrinter(out)
		printer.Verbose = opts.verbose
		err = execute(ctx, printer)
	} else {
		err = tui.Run(ctx, out, execute)
	}
	if run != nil && run.LogPath != "" {
		printRunLog(out, run)
	}
	if err != nil {
		return err
	}

	reportPath := artifact.Report.Path(run.Dir)
	if !run.Report.Succeeded() {
		fmt.Fprintf(out, "Report not generated: %s\n", run.Report.Message)
		return nil
	}
	fmt.Fprintf(out, "📄 Report generated at %s\n", reportPath)
	if opts.showReport {
		return renderReport(out, reportPath)
	}
	return nil
}

// recentEntries is how much of run.log is echoed after a failed run.
const recentEntries = 5

func printRunLog(w io.Writer, run *pipeline.Run) {
	fmt.Fprintf(w, "📝 Run log: %s\n", run.LogPath)
	if _, _, failed := run.Counts(); failed == 0 && !run.Aborted {
		return
	}
	book, err := logbook.New(run.LogPath)
	if err != nil {
		return
	}
	lines, total := book.Tail(recentEntries)
	if len(lines) == 0 {
		return
	}
	fmt.Fprintf(w, "Last %d of %d run.log entries:\n", len(lines), total)
	for _, line := range lines {
		fmt.Fprintf(w, "  %s\n", line)
	}
}

func renderReport(w io.Writer, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read report: %w", err)
	}
	renderer, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(100),
	)
	if err != nil {
		return fmt.Errorf("report renderer: %w", err)
	}
	rendered, err := renderer.Render(string(data))
	if err != nil {
		return fmt.Errorf("render report: %w", err)
	}
	_, err = io.WriteString(w, rendered)
	return err
}

// isTerminal reports whether w is a character device.
func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	info, err := f.Stat()
	if err != nil {
		return false
	}
	return info.Mode()&os.ModeCharDevice != 0
}
