package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/DreamingRabbit/CP-Gen/internal/config"
)

func newInitCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Create .cpgen/config.yaml in the project directory",
		Long: `Create the .cpgen directory with a commented default config.yaml.
An existing config file is left untouched.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			dir, err := projectDir(opts)
			if err != nil {
				return err
			}
			if err := config.InitProjectDir(dir); err != nil {
				return err
			}
			cfg, err := config.NewConfig(cmd.Context(), dir)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Config:            %s\n", cfg.ProjectConfigPath())
			fmt.Fprintf(out, "Ideas:             %s\n", cfg.IdeasPath())
			fmt.Fprintf(out, "Example generator: %s\n", cfg.ExampleGeneratorPath())
			fmt.Fprintf(out, "Runs:              %s\n", cfg.RunsDir())
			fmt.Fprintf(out, "Provider:          %s (%s)\n", cfg.Generator().Provider, cfg.Generator().Model)
			return nil
		},
	}
}
