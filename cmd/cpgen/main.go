// cmd/cpgen/main.go
//
// Entry point for the cpgen CLI. Running `cpgen` with no subcommand performs
// one full generation run in the current project directory:
//
//	idea -> statement -> structured record -> solution -> sample check
//	     -> test-case generator -> report
//
// Every artifact lands in <runs_dir>/<id>/.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/DreamingRabbit/CP-Gen/internal/config"
	"github.com/DreamingRabbit/CP-Gen/internal/content"
	"github.com/DreamingRabbit/CP-Gen/internal/toolchain"
)

type options struct {
	project    string
	pipeline   string
	idea       string
	plain      bool
	verbose    bool
	showReport bool
}

// deps are the outward-facing pieces tests replace.
type deps struct {
	newGenerator func(ctx context.Context, cfg config.GeneratorConfig, apiKey string, logger *slog.Logger) (content.Generator, error)
	newToolchain func(cfg config.ToolchainConfig, logger *slog.Logger) toolchain.Runner
}

func defaultDeps() deps {
	return deps{
		newGenerator: content.New,
		newToolchain: func(cfg config.ToolchainConfig, logger *slog.Logger) toolchain.Runner {
			return toolchain.New(cfg, logger)
		},
	}
}

func newRootCmd(d deps) *cobra.Command {
	opts := &options{}
	root := &cobra.Command{
		Use:   "cpgen",
		Short: "Generate a competitive-programming problem package",
		Long: `cpgen turns a one-line idea into a problem package: a full statement, a
structured JSON record, a verified C++ reference solution, a test-case
generator and an analysis report.

Ideas are read from the JSONL file configured in .cpgen/config.yaml
(one {"problem_text": "..."} object per line). The API key is read from
CPGEN_API_KEY.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runPipeline(cmd, opts, d)
		},
	}
	root.PersistentFlags().StringVarP(&opts.project, "project", "p", "", "Project directory (default: current)")
	root.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "Enable debug logging in .cpgen/logs/cpgen.log")
	root.PersistentFlags().StringVar(&opts.pipeline, "pipeline", "", "Stage graph YAML replacing the built-in pipeline")
	root.Flags().StringVar(&opts.idea, "idea", "", "Use this idea instead of picking one from the idea file")
	root.Flags().BoolVar(&opts.plain, "plain", false, "Print plain progress lines instead of the interactive view")
	root.Flags().BoolVar(&opts.showReport, "show-report", false, "Render report.md in the terminal when the run ends")

	root.AddCommand(newInitCmd(opts))
	root.AddCommand(newParseCmd())
	root.AddCommand(newStagesCmd(opts))
	return root
}

func main() {
	if err := newRootCmd(defaultDeps()).Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
