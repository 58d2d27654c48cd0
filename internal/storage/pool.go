package storage

import (
	"context"
	"fmt"
	"strings"

	"github.com/digitalocean/go-libvirt"
	libvirtxml "libvirt.org/go/libvirtxml"
)

// EnsurePool makes sure a directory pool exists and is running.
// An existing inactive pool is started; a missing one is created at path.
func (m *Manager) EnsurePool(ctx context.Context, name, path string) error {
	pool, err := m.client.StoragePoolLookupByName(name)
	if err != nil {
		return m.CreateDirPool(ctx, name, path)
	}

	state, _, _, _, err := m.client.StoragePoolGetInfo(pool)
	if err != nil {
		return fmt.Errorf("failed to get pool info: %w", err)
	}
	if libvirt.StoragePoolState(state) == libvirt.StoragePoolRunning {
		return nil
	}
	if err := m.client.StoragePoolCreate(pool, 0); err != nil {
		return fmt.Errorf("failed to start pool %s: %w", name, err)
	}
	return nil
}

// CreateDirPool defines, builds, starts and autostarts a directory pool.
func (m *Manager) CreateDirPool(ctx context.Context, name, path string) error {
	if path == "" {
		return fmt.Errorf("pool path is required")
	}

	poolXML, err := generateDirPoolXML(name, path)
	if err != nil {
		return fmt.Errorf("failed to generate pool XML: %w", err)
	}

	pool, err := m.client.StoragePoolDefineXML(poolXML, 0)
	if err != nil {
		return fmt.Errorf("failed to define pool: %w", err)
	}

	if err := m.client.StoragePoolBuild(pool, 0); err != nil {
		_ = m.client.StoragePoolUndefine(pool)
		return fmt.Errorf("failed to build pool: %w", err)
	}

	if err := m.client.StoragePoolCreate(pool, 0); err != nil {
		_ = m.client.StoragePoolUndefine(pool)
		return fmt.Errorf("failed to start pool: %w", err)
	}

	if err := m.client.StoragePoolSetAutostart(pool, 1); err != nil {
		return fmt.Errorf("pool created but failed to set autostart: %w", err)
	}
	return nil
}

func generateDirPoolXML(name, path string) (string, error) {
	pool := &libvirtxml.StoragePool{
		Type: "dir",
		Name: name,
		Target: &libvirtxml.StoragePoolTarget{
			Path: path,
			Permissions: &libvirtxml.StoragePoolTargetPermissions{
				Mode: "0755",
			},
		},
	}

	xmlBytes, err := pool.Marshal()
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(xmlBytes)), nil
}
