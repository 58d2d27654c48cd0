package libvirt

import (
	"fmt"

	"libvirt.org/go/libvirtxml"

	"github.com/jbweber/vaultvm/api/v1alpha1"
	"github.com/jbweber/vaultvm/internal/naming"
)

// DomainDescription marks domains created by vaultvm in `virsh list --title`.
const DomainDescription = "vaultvm computer"

// GenerateDomainXML renders the domain for a computer. The boot disk and
// seed ISO are referenced as volumes in the computer's storage pool, and a VNC
// display is attached for screenshots.
func GenerateDomainXML(spec v1alpha1.ComputerSpec, uuid string) (string, error) {
	lv := spec.Libvirt
	if lv == nil {
		return "", fmt.Errorf("computer %s has no libvirt configuration", spec.Name)
	}
	if spec.RAMGiB <= 0 || spec.CPUs <= 0 {
		return "", fmt.Errorf("computer %s needs positive RAM and CPU counts", spec.Name)
	}

	mac, err := naming.MACFromIP(lv.IP)
	if err != nil {
		return "", fmt.Errorf("failed to calculate MAC address for %s: %w", lv.IP, err)
	}
	tap, err := naming.InterfaceNameFromIP(lv.IP)
	if err != nil {
		return "", fmt.Errorf("failed to calculate interface name for %s: %w", lv.IP, err)
	}

	port0 := uint(0)
	pciIndex := uint(0)

	domain := &libvirtxml.Domain{
		Type:        "kvm",
		Name:        spec.Name,
		UUID:        uuid,
		Title:       spec.Name,
		Description: DomainDescription,
		Memory: &libvirtxml.DomainMemory{
			Value: uint(spec.RAMGiB),
			Unit:  "GiB",
		},
		VCPU: &libvirtxml.DomainVCPU{
			Placement: "static",
			Value:     uint(spec.CPUs),
		},
		OS: &libvirtxml.DomainOS{
			Firmware: "efi",
			Type: &libvirtxml.DomainOSType{
				Arch: "x86_64",
				Type: "hvm",
			},
		},
		Features: &libvirtxml.DomainFeatureList{
			ACPI: &libvirtxml.DomainFeature{},
			APIC: &libvirtxml.DomainFeatureAPIC{},
		},
		CPU: &libvirtxml.DomainCPU{
			Mode: "host-model",
		},
		Clock: &libvirtxml.DomainClock{
			Offset: "utc",
		},
		OnPoweroff: "destroy",
		OnReboot:   "restart",
		OnCrash:    "restart",
		Devices: &libvirtxml.DomainDeviceList{
			Controllers: []libvirtxml.DomainController{
				{Type: "pci", Index: &pciIndex, Model: "pcie-root"},
			},
			Disks: []libvirtxml.DomainDisk{
				{
					Device: "disk",
					Driver: &libvirtxml.DomainDiskDriver{Name: "qemu", Type: "qcow2", Cache: "none"},
					Source: &libvirtxml.DomainDiskSource{
						Volume: &libvirtxml.DomainDiskSourceVolume{
							Pool:   lv.StoragePool,
							Volume: naming.VolumeNameBoot(spec.Name),
						},
					},
					Target: &libvirtxml.DomainDiskTarget{Dev: "vda", Bus: "virtio"},
					Boot:   &libvirtxml.DomainDeviceBoot{Order: 1},
				},
				{
					Device: "cdrom",
					Driver: &libvirtxml.DomainDiskDriver{Name: "qemu", Type: "raw"},
					Source: &libvirtxml.DomainDiskSource{
						Volume: &libvirtxml.DomainDiskSourceVolume{
							Pool:   lv.StoragePool,
							Volume: naming.VolumeNameCloudInit(spec.Name),
						},
					},
					Target:   &libvirtxml.DomainDiskTarget{Dev: "sda", Bus: "sata"},
					ReadOnly: &libvirtxml.DomainDiskReadOnly{},
				},
			},
			Interfaces: []libvirtxml.DomainInterface{
				{
					MAC: &libvirtxml.DomainInterfaceMAC{Address: mac},
					Source: &libvirtxml.DomainInterfaceSource{
						Bridge: &libvirtxml.DomainInterfaceSourceBridge{Bridge: lv.Bridge},
					},
					Model:  &libvirtxml.DomainInterfaceModel{Type: "virtio"},
					Target: &libvirtxml.DomainInterfaceTarget{Dev: tap},
				},
			},
			Graphics: []libvirtxml.DomainGraphic{
				{
					VNC: &libvirtxml.DomainGraphicVNC{
						AutoPort: "yes",
						Listen:   "127.0.0.1",
					},
				},
			},
			Videos: []libvirtxml.DomainVideo{
				{Model: libvirtxml.DomainVideoModel{Type: "virtio", Heads: 1, Primary: "yes"}},
			},
			Serials: []libvirtxml.DomainSerial{
				{
					Source: &libvirtxml.DomainChardevSource{Pty: &libvirtxml.DomainChardevSourcePty{}},
					Target: &libvirtxml.DomainSerialTarget{Port: &port0},
				},
			},
			Consoles: []libvirtxml.DomainConsole{
				{
					Source: &libvirtxml.DomainChardevSource{Pty: &libvirtxml.DomainChardevSourcePty{}},
					Target: &libvirtxml.DomainConsoleTarget{Type: "serial", Port: &port0},
				},
			},
			RNGs: []libvirtxml.DomainRNG{
				{
					Model: "virtio",
					Backend: &libvirtxml.DomainRNGBackend{
						Random: &libvirtxml.DomainRNGBackendRandom{Device: "/dev/urandom"},
					},
				},
			},
		},
	}

	xml, err := domain.Marshal()
	if err != nil {
		return "", fmt.Errorf("failed to marshal domain XML: %w", err)
	}
	return xml, nil
}
