package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/jbweber/vaultvm/internal/config"
	"github.com/jbweber/vaultvm/internal/output"
	"github.com/jbweber/vaultvm/internal/provision"
)

var destroyConfigPath string

var destroyCmd = &cobra.Command{
	Use:   "destroy <computer-id>",
	Short: "Destroy a computer",
	Long: `Destroy a computer created by "vaultvm run".

The provider is taken from the setup file given with -c, or the orgo
provider when none is given. For libvirt computers the id is the domain
name; the domain and its volumes are removed.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := prepareSetup(destroyConfigPath)
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

		return destroyComputer(ctx, backend, cmd.OutOrStdout(), args[0])
	},
}

func init() {
	destroyCmd.Flags().StringVarP(&destroyConfigPath, "config", "c", "", "Setup file selecting the provider")
}

func destroyComputer(ctx context.Context, backend provision.Backend, w io.Writer, id string) error {
	fmt.Fprintf(w, "Destroying computer: %s\n", id)
	p := provision.New(backend, output.NewConsole(w, noColor))
	return p.Destroy(ctx, id)
}
