package main

import (
	"fmt"
	"os"

	"github.com/google/go-cmp/cmp"
	"github.com/spf13/cobra"

	"github.com/DreamingRabbit/CP-Gen/internal/problem"
)

func newParseCmd() *cobra.Command {
	var asJSON, roundTrip bool
	cmd := &cobra.Command{
		Use:   "parse <statement-file>",
		Short: "Parse a statement and print it back in canonical form",
		Long: `Parse a problem statement and print the reconstructed statement with
the eight sections in canonical order.

  --json       print the structured record instead
  --roundtrip  check that the reconstructed statement parses to the same record`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if asJSON && roundTrip {
				return fmt.Errorf("--json and --roundtrip are mutually exclusive")
			}
			data, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("read statement: %w", err)
			}
			p := problem.Parse(string(data))
			out := cmd.OutOrStdout()
			switch {
			case asJSON:
				record, err := p.MarshalIndent()
				if err != nil {
					return err
				}
				_, err = fmt.Fprintln(out, string(record))
				return err
			case roundTrip:
				again := problem.Parse(problem.Serialize(p))
				// The title is the first line of the text, which the
				// reconstruction does not preserve.
				again.Title = p.Title
				if diff := cmp.Diff(p, again); diff != "" {
					return fmt.Errorf("round trip changed the record (-parsed +reparsed):\n%s", diff)
				}
				_, err := fmt.Fprintln(out, "round trip ok")
				return err
			default:
				_, err := fmt.Fprintln(out, problem.Serialize(p))
				return err
			}
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the structured JSON record")
	cmd.Flags().BoolVar(&roundTrip, "roundtrip", false, "Verify the serialize/parse round trip")
	return cmd
}
