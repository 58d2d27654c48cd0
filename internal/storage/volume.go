package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	libvirtxml "libvirt.org/go/libvirtxml"
)

// CreateVolume creates a volume in poolName.
func (m *Manager) CreateVolume(ctx context.Context, poolName string, spec VolumeSpec) error {
	if err := spec.Validate(); err != nil {
		return fmt.Errorf("invalid volume spec: %w", err)
	}

	pool, err := m.client.StoragePoolLookupByName(poolName)
	if err != nil {
		return fmt.Errorf("pool not found: %w", err)
	}

	var backingPath string
	if spec.BackingVolume != "" {
		backingPool := spec.BackingPool
		if backingPool == "" {
			backingPool = poolName
		}
		backingPath, err = m.GetVolumePath(ctx, backingPool, spec.BackingVolume)
		if err != nil {
			return fmt.Errorf("failed to resolve backing volume %s/%s: %w", backingPool, spec.BackingVolume, err)
		}
	}

	volumeXML, err := generateVolumeXML(spec, backingPath)
	if err != nil {
		return fmt.Errorf("failed to generate volume XML: %w", err)
	}

	if _, err := m.client.StorageVolCreateXML(pool, volumeXML, 0); err != nil {
		return fmt.Errorf("failed to create volume: %w", err)
	}
	return nil
}

// DeleteVolumesWithPrefix deletes every volume in poolName whose name starts
// with prefix. It keeps going past failures and returns the names it
// deleted along with the joined errors.
func (m *Manager) DeleteVolumesWithPrefix(ctx context.Context, poolName, prefix string) ([]string, error) {
	if prefix == "" {
		return nil, fmt.Errorf("refusing to delete with an empty prefix")
	}

	pool, err := m.client.StoragePoolLookupByName(poolName)
	if err != nil {
		return nil, fmt.Errorf("pool not found: %w", err)
	}

	vols, _, err := m.client.StoragePoolListAllVolumes(pool, 1, 0)
	if err != nil {
		return nil, fmt.Errorf("failed to list volumes: %w", err)
	}

	var deleted []string
	var errs []error
	for _, vol := range vols {
		if !strings.HasPrefix(vol.Name, prefix) {
			continue
		}
		if err := m.client.StorageVolDelete(vol, 0); err != nil {
			errs = append(errs, fmt.Errorf("failed to delete volume %s: %w", vol.Name, err))
			continue
		}
		deleted = append(deleted, vol.Name)
	}
	sort.Strings(deleted)
	return deleted, errors.Join(errs...)
}

// ListVolumes lists volumes in poolName sorted by name. Volumes whose
// details cannot be read are skipped.
func (m *Manager) ListVolumes(ctx context.Context, poolName string) ([]VolumeInfo, error) {
	pool, err := m.client.StoragePoolLookupByName(poolName)
	if err != nil {
		return nil, fmt.Errorf("pool not found: %w", err)
	}

	vols, _, err := m.client.StoragePoolListAllVolumes(pool, 1, 0)
	if err != nil {
		return nil, fmt.Errorf("failed to list volumes: %w", err)
	}

	var infos []VolumeInfo
	for _, vol := range vols {
		path, err := m.client.StorageVolGetPath(vol)
		if err != nil {
			continue
		}
		_, capacity, allocation, err := m.client.StorageVolGetInfo(vol)
		if err != nil {
			continue
		}
		infos = append(infos, VolumeInfo{
			Name:       vol.Name,
			Path:       path,
			Pool:       poolName,
			Capacity:   capacity,
			Allocation: allocation,
		})
	}
	sort.Slice(infos, func(i, j int) bool { return infos[i].Name < infos[j].Name })
	return infos, nil
}

// GetVolumePath returns the filesystem path of a volume.
func (m *Manager) GetVolumePath(ctx context.Context, poolName, volumeName string) (string, error) {
	pool, err := m.client.StoragePoolLookupByName(poolName)
	if err != nil {
		return "", fmt.Errorf("pool not found: %w", err)
	}

	vol, err := m.client.StorageVolLookupByName(pool, volumeName)
	if err != nil {
		return "", fmt.Errorf("volume not found: %w", err)
	}

	path, err := m.client.StorageVolGetPath(vol)
	if err != nil {
		return "", fmt.Errorf("failed to get volume path: %w", err)
	}
	return path, nil
}

// WriteVolumeData uploads data into an existing volume.
func (m *Manager) WriteVolumeData(ctx context.Context, poolName, volumeName string, data []byte) error {
	pool, err := m.client.StoragePoolLookupByName(poolName)
	if err != nil {
		return fmt.Errorf("pool not found: %w", err)
	}

	vol, err := m.client.StorageVolLookupByName(pool, volumeName)
	if err != nil {
		return fmt.Errorf("volume not found: %w", err)
	}

	if err := m.client.StorageVolUpload(vol, bytes.NewReader(data), 0, uint64(len(data)), 0); err != nil {
		return fmt.Errorf("failed to upload data to volume: %w", err)
	}
	return nil
}

// VolumeExists reports whether a volume exists. A missing pool is an error.
func (m *Manager) VolumeExists(ctx context.Context, poolName, volumeName string) (bool, error) {
	pool, err := m.client.StoragePoolLookupByName(poolName)
	if err != nil {
		return false, fmt.Errorf("pool not found: %w", err)
	}
	if _, err := m.client.StorageVolLookupByName(pool, volumeName); err != nil {
		return false, nil
	}
	return true, nil
}

func generateVolumeXML(spec VolumeSpec, backingPath string) (string, error) {
	vol := &libvirtxml.StorageVolume{
		Type: "file",
		Name: spec.Name,
		Capacity: &libvirtxml.StorageVolumeSize{
			Value: spec.Capacity,
			Unit:  "B",
		},
		Target: &libvirtxml.StorageVolumeTarget{
			Format: &libvirtxml.StorageVolumeTargetFormat{
				Type: string(spec.Format),
			},
			Permissions: &libvirtxml.StorageVolumeTargetPermissions{
				Mode: "0644",
			},
		},
	}

	if backingPath != "" {
		vol.BackingStore = &libvirtxml.StorageVolumeBackingStore{
			Path: backingPath,
			Format: &libvirtxml.StorageVolumeTargetFormat{
				Type: string(VolumeFormatQCOW2),
			},
		}
	}

	xmlBytes, err := vol.Marshal()
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(xmlBytes)), nil
}
