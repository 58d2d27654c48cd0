package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/jbweber/vaultvm/api/v1alpha1"
	"github.com/jbweber/vaultvm/internal/config"
	"github.com/jbweber/vaultvm/internal/loader"
	"github.com/jbweber/vaultvm/internal/output"
	"github.com/jbweber/vaultvm/internal/provision"
)

// Run flags
var (
	configPath   string
	recordPath   string
	outputFormat string
	sshKey       bool
	destroyAfter bool
)

// destroyTimeout bounds --destroy, which runs even after an interrupt.
const destroyTimeout = 2 * time.Minute

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Provision a computer",
	Long: `Create a computer and run every setup step inside it.

Without -c the built-in defaults are used. Failed steps are reported as
warnings and the run continues; the command only fails when the computer
cannot be created or the run is interrupted.

The computer is left running unless --destroy is given.

Examples:
  vaultvm run
  vaultvm run -c setup.yaml --record run.yaml
  vaultvm run -c setup.yaml --ssh-key -o yaml`,
	Args: cobra.NoArgs,
	RunE: runSetup,
}

func init() {
	runCmd.Flags().StringVarP(&configPath, "config", "c", "", "Setup file (default: built-in defaults)")
	runCmd.Flags().StringVar(&recordPath, "record", "", "Write the run record to this file")
	runCmd.Flags().StringVarP(&outputFormat, "output", "o", "", "Print the run record when done (table, yaml, json)")
	runCmd.Flags().BoolVar(&sshKey, "ssh-key", false, "Generate an SSH key in the computer for private repositories")
	runCmd.Flags().BoolVar(&destroyAfter, "destroy", false, "Destroy the computer when the run ends")
}

func runSetup(cmd *cobra.Command, args []string) error {
	if outputFormat != "" {
		if err := output.ValidateFormat(outputFormat); err != nil {
			return err
		}
	}

	s, err := prepareSetup(configPath)
	if err != nil {
		return err
	}

	env, err := config.FromEnv()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	backend, closeBackend, err := newBackend(ctx, s, env)
	if err != nil {
		return err
	}
	defer closeBackend()

	p := provision.New(backend, output.NewConsole(cmd.OutOrStdout(), noColor))
	p.AnthropicAPIKey = env.AnthropicAPIKey
	p.Secrets = env.Secrets()
	p.DestroyAfter = destroyAfter

	runErr := p.Run(ctx, s)

	if recordPath != "" {
		if err := loader.SaveToFile(s, recordPath); err != nil {
			fmt.Fprintf(os.Stderr, "Warning: failed to write run record: %v\n", err)
		} else {
			fmt.Fprintf(cmd.OutOrStdout(), "✓ Run record written to %s\n", recordPath)
		}
	}

	if destroyAfter && s.Status.ComputerID != "" {
		dctx, cancel := context.WithTimeout(context.Background(), destroyTimeout)
		defer cancel()
		if err := p.Destroy(dctx, s.Status.ComputerID); err != nil {
			fmt.Fprintf(os.Stderr, "Warning: %v\n", err)
		}
	}

	if runErr != nil {
		return runErr
	}

	if outputFormat != "" {
		return printSetups(cmd, []*v1alpha1.Setup{s}, output.Format(outputFormat))
	}
	return nil
}

// prepareSetup loads the setup at path, or the built-in defaults, and
// readies it for a new run.
func prepareSetup(path string) (*v1alpha1.Setup, error) {
	s := loader.Default()
	if path != "" {
		var err error
		if s, err = loader.LoadFromFile(path); err != nil {
			return nil, fmt.Errorf("failed to load setup: %w", err)
		}
	}

	if sshKey {
		s.Spec.Git.SSHKey = true
	}

	// A record from an earlier run can be used as input; its status is
	// discarded.
	s.Status = v1alpha1.SetupStatus{Phase: v1alpha1.SetupPhasePending}
	s.Stamp()
	return s, nil
}

func printSetups(cmd *cobra.Command, setups []*v1alpha1.Setup, format output.Format) error {
	formatter, err := output.NewFormatter(output.Options{Format: format})
	if err != nil {
		return err
	}

	var result string
	if len(setups) == 1 {
		result, err = formatter.FormatSetup(setups[0])
	} else {
		result, err = formatter.FormatSetupList(setups)
	}
	if err != nil {
		return fmt.Errorf("failed to format output: %w", err)
	}

	fmt.Fprint(cmd.OutOrStdout(), result)
	return nil
}
