package main

import (
	"fmt"
	"io"
	"log"
	"os"

	"github.com/spf13/cobra"

	"github.com/jbweber/vaultvm/internal/config"
)

var (
	version = "dev"
	commit  = "unknown"
)

// Global flags
var (
	verbose  bool
	noColor  bool
	envFiles []string
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "vaultvm",
	Short: "vaultvm - provision a remote computer with a vault and browser-use",
	Long: `vaultvm creates a remote Linux computer, clones a vault repository into it
and installs the browser-use automation toolkit.

Run without arguments to provision an Orgo computer with the built-in
defaults. Credentials are read from the environment or a .env file:

  ORGO_API_KEY       required for the orgo provider
  ORGO_API_URL       optional, defaults to https://www.orgo.ai/api
  ANTHROPIC_API_KEY  optional, written into the computer for browser-use`,
	Version:       fmt.Sprintf("%s (commit: %s)", version, commit),
	Args:          cobra.NoArgs,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if !verbose {
			log.SetOutput(io.Discard)
		}
		return config.LoadDotEnv(envFiles...)
	},
	RunE: runSetup,
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Log every command sent to the computer")
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "Disable colored output")
	rootCmd.PersistentFlags().StringSliceVar(&envFiles, "env-file", nil, "Load environment variables from these files (default .env)")

	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(initCmd)
	rootCmd.AddCommand(getCmd)
	rootCmd.AddCommand(destroyCmd)
	rootCmd.AddCommand(imagesCmd)
}
