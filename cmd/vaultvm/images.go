package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/jbweber/vaultvm/api/v1alpha1"
	"github.com/jbweber/vaultvm/internal/storage"
)

var imagesConfigPath string

var imagesCmd = &cobra.Command{
	Use:   "images",
	Short: "List base images available to the libvirt provider",
	Long: `List the volumes in the libvirt image pool. spec.computer.libvirt.image
must name one of them.

The socket and pool are taken from the setup file given with -c, or the
defaults when none is given.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		socket, pool := "", v1alpha1.DefaultImagePool
		if imagesConfigPath != "" {
			s, err := prepareSetup(imagesConfigPath)
			if err != nil {
				return err
			}
			if lv := s.Spec.Computer.Libvirt; lv != nil {
				socket, pool = lv.Socket, lv.ImagePool
			}
		}

		ctx := context.Background()
		client, err := connectLibvirt(ctx, socket)
		if err != nil {
			return err
		}
		defer closeLibvirt(client)

		images, err := storage.NewManager(client.Libvirt()).ListVolumes(ctx, pool)
		if err != nil {
			return fmt.Errorf("failed to list images: %w", err)
		}

		out := cmd.OutOrStdout()
		if len(images) == 0 {
			fmt.Fprintf(out, "No images found in %s pool\n", pool)
			return nil
		}

		fmt.Fprintf(out, "%-30s %10s  %s\n", "NAME", "SIZE", "PATH")
		fmt.Fprintln(out, strings.Repeat("-", 80))
		for _, img := range images {
			fmt.Fprintf(out, "%-30s %8.1fGB  %s\n", img.Name, img.CapacityGB(), img.Path)
		}
		fmt.Fprintf(out, "\nTotal: %d image(s)\n", len(images))
		return nil
	},
}

func init() {
	imagesCmd.Flags().StringVarP(&imagesConfigPath, "config", "c", "", "Setup file selecting the libvirt socket and pool")
}
