package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/jbweber/vaultvm/api/v1alpha1"
	"github.com/jbweber/vaultvm/internal/loader"
)

var forceInit bool

var initCmd = &cobra.Command{
	Use:   "init [path]",
	Short: "Write the default setup file",
	Long: `Write the built-in setup as YAML so it can be edited and passed to
"vaultvm run -c". The path defaults to setup.yaml.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path := "setup.yaml"
		if len(args) == 1 {
			path = args[0]
		}

		if err := writeDefaultSetup(path, forceInit); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "✓ Default setup written to %s\n", path)
		return nil
	},
}

func init() {
	initCmd.Flags().BoolVar(&forceInit, "force", false, "Overwrite an existing file")
}

// writeDefaultSetup writes the defaults without run identity or status.
func writeDefaultSetup(path string, force bool) error {
	if !force {
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("%s already exists (use --force to overwrite)", path)
		}
	}

	s := loader.Default()
	s.UID = ""
	s.Generation = 0
	s.CreationTimestamp = v1alpha1.Time{}
	s.Status = v1alpha1.SetupStatus{}

	return loader.SaveToFile(s, path)
}
