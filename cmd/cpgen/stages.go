package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/DreamingRabbit/CP-Gen/internal/stage"
	"github.com/DreamingRabbit/CP-Gen/internal/stages"
)

func newStagesCmd(opts *options) *cobra.Command {
	var dot bool
	cmd := &cobra.Command{
		Use:   "stages",
		Short: "List the pipeline stages in execution order",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			def, err := loadDefinition(opts)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if dot {
				return def.WriteDOT(out)
			}
			order, err := def.Order()
			if err != nil {
				return err
			}
			reg := stage.NewRegistry()
			stages.RegisterBuiltins(reg)
			ids := order
			if def.Final != "" {
				ids = append(ids, def.Final)
			}
			for i, id := range ids {
				st, err := reg.Resolve(id)
				if err != nil {
					return err
				}
				info := st.Info()
				line := fmt.Sprintf("%2d. %-24s %s", i+1, info.ID, info.Description)
				switch {
				case id == def.Final:
					line += " [always runs]"
				case len(def.Dependencies(id)) > 0:
					line += " [after " + strings.Join(def.Dependencies(id), ", ") + "]"
				}
				if info.Fatal {
					line += " [fatal]"
				}
				fmt.Fprintln(out, line)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&dot, "dot", false, "Print the stage graph in Graphviz DOT format")
	return cmd
}
