package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/jbweber/vaultvm/api/v1alpha1"
	"github.com/jbweber/vaultvm/internal/loader"
	"github.com/jbweber/vaultvm/internal/output"
	"github.com/jbweber/vaultvm/internal/status"
)

var getFormat string

var getCmd = &cobra.Command{
	Use:   "get <record.yaml>...",
	Short: "Show saved run records",
	Long: `Show run records written by "vaultvm run --record".

A single record is shown in detail with one row per step. Several records
are listed one per row.

Output formats:
  -o table  Human-readable table (default)
  -o yaml   Full YAML resource definition
  -o json   Full JSON resource definition`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := output.ValidateFormat(getFormat); err != nil {
			return err
		}

		setups := make([]*v1alpha1.Setup, 0, len(args))
		for _, path := range args {
			s, err := loader.LoadFromFile(path)
			if err != nil {
				return fmt.Errorf("failed to load record %s: %w", path, err)
			}
			setups = append(setups, s)
		}

		if err := printSetups(cmd, setups, output.Format(getFormat)); err != nil {
			return err
		}
		recordNotes(cmd.ErrOrStderr(), setups)
		return nil
	},
}

// recordNotes warns about records of runs that never finished or did not
// end Ready.
func recordNotes(w io.Writer, setups []*v1alpha1.Setup) {
	for _, s := range setups {
		phase := s.GetPhase()
		switch {
		case !status.IsTerminal(phase):
			fmt.Fprintf(w, "Warning: %s: run did not finish (phase %s)\n", s.Name, phase)
		case status.IsConditionFalse(s, v1alpha1.ConditionReady):
			cond := status.GetCondition(s, v1alpha1.ConditionReady)
			fmt.Fprintf(w, "Warning: %s: not ready (%s): %s\n", s.Name, cond.Reason, cond.Message)
		}
	}
}

func init() {
	getCmd.Flags().StringVarP(&getFormat, "output", "o", "table", "Output format (table, yaml, json)")
}
