package storage

import "fmt"

// VolumeFormat is the on-disk format of a volume.
type VolumeFormat string

const (
	VolumeFormatQCOW2 VolumeFormat = "qcow2"
	VolumeFormatRaw   VolumeFormat = "raw"
)

// GiB is the number of bytes in a gibibyte.
const GiB uint64 = 1024 * 1024 * 1024

// VolumeSpec describes a volume to create.
type VolumeSpec struct {
	Name     string
	Format   VolumeFormat
	Capacity uint64 // bytes

	// BackingVolume makes the volume a qcow2 overlay of another volume.
	BackingVolume string
	// BackingPool holds BackingVolume. Empty means the same pool.
	BackingPool string
}

// Validate checks the spec before any libvirt call is made.
func (v *VolumeSpec) Validate() error {
	if v.Name == "" {
		return fmt.Errorf("volume name is required")
	}
	switch v.Format {
	case VolumeFormatQCOW2, VolumeFormatRaw:
	case "":
		return fmt.Errorf("volume format is required")
	default:
		return fmt.Errorf("invalid volume format: %s (must be qcow2 or raw)", v.Format)
	}
	if v.Capacity == 0 {
		return fmt.Errorf("volume capacity must be greater than 0")
	}
	if v.BackingVolume != "" && v.Format != VolumeFormatQCOW2 {
		return fmt.Errorf("backing volumes are only supported for qcow2 format")
	}
	if v.BackingVolume == "" && v.BackingPool != "" {
		return fmt.Errorf("backing pool set without a backing volume")
	}
	return nil
}

// VolumeInfo describes an existing volume.
type VolumeInfo struct {
	Name       string
	Path       string
	Pool       string
	Capacity   uint64
	Allocation uint64
}

// CapacityGB returns the capacity in GiB.
func (v *VolumeInfo) CapacityGB() float64 {
	return float64(v.Capacity) / float64(GiB)
}

// Default pool locations.
const (
	DefaultImagesPath = "/var/lib/libvirt/images/vaultvm/images"
	DefaultVMsPath    = "/var/lib/libvirt/images/vaultvm/vms"
)
