package main

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/jbweber/vaultvm/api/v1alpha1"
	"github.com/jbweber/vaultvm/internal/config"
	"github.com/jbweber/vaultvm/internal/libvirt"
	"github.com/jbweber/vaultvm/internal/orgo"
	"github.com/jbweber/vaultvm/internal/provision"
)

// newBackend returns the backend selected by the setup's provider and a
// function that releases it.
func newBackend(ctx context.Context, s *v1alpha1.Setup, env *config.Env) (provision.Backend, func(), error) {
	switch s.Spec.Computer.Provider {
	case v1alpha1.ProviderOrgo, "":
		if err := env.RequireOrgo(); err != nil {
			return nil, nil, err
		}
		client := orgo.NewClient(env.OrgoAPIURL, env.OrgoAPIKey, orgo.WithUserAgent("vaultvm/"+version))
		return orgo.NewBackend(client), func() {}, nil

	case v1alpha1.ProviderLibvirt:
		lv := s.Spec.Computer.Libvirt
		if lv == nil {
			return nil, nil, fmt.Errorf("provider libvirt requires spec.computer.libvirt")
		}
		client, err := connectLibvirt(ctx, lv.Socket)
		if err != nil {
			return nil, nil, err
		}
		b := libvirt.NewBackend(client)
		b.SetupUID = s.UID
		return b, func() { closeLibvirt(client) }, nil

	default:
		return nil, nil, fmt.Errorf("unknown provider: %s", s.Spec.Computer.Provider)
	}
}

func connectLibvirt(ctx context.Context, socket string) (*libvirt.Client, error) {
	client, err := libvirt.ConnectWithContext(ctx, socket, libvirt.DefaultConnectTimeout)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to libvirt: %w", err)
	}
	if err := client.Ping(); err != nil {
		closeLibvirt(client)
		return nil, err
	}
	log.Printf("Connected to libvirt at %s", client.Socket())
	return client, nil
}

func closeLibvirt(client *libvirt.Client) {
	if err := client.Close(); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: failed to close libvirt connection: %v\n", err)
	}
}
