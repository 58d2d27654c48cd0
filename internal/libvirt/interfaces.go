package libvirt

import (
	"context"
	"io"
	"time"

	"github.com/digitalocean/go-libvirt"

	"github.com/jbweber/vaultvm/internal/shell"
	"github.com/jbweber/vaultvm/internal/storage"
)

// domainClient is the subset of *libvirt.Libvirt the backend uses.
type domainClient interface {
	DomainLookupByName(Name string) (libvirt.Domain, error)
	DomainDefineXML(XML string) (libvirt.Domain, error)
	DomainSetAutostart(Dom libvirt.Domain, Autostart int32) error
	DomainCreate(Dom libvirt.Domain) error
	DomainGetState(Dom libvirt.Domain, Flags uint32) (int32, int32, error)
	DomainDestroy(Dom libvirt.Domain) error
	DomainUndefineFlags(Dom libvirt.Domain, Flags libvirt.DomainUndefineFlagsValues) error
	DomainScreenshot(Dom libvirt.Domain, inStream io.Writer, Screen uint32, Flags uint32) (libvirt.OptString, error)

	// metadata.Client
	DomainSetMetadata(Dom libvirt.Domain, Type int32, Metadata libvirt.OptString, Key libvirt.OptString, Uri libvirt.OptString, Flags libvirt.DomainModificationImpact) error
	DomainGetMetadata(Dom libvirt.Domain, Type int32, Uri libvirt.OptString, Flags libvirt.DomainModificationImpact) (string, error)
}

// storageManager is satisfied by *storage.Manager.
type storageManager interface {
	EnsureDefaultPools(ctx context.Context, imagesPool, vmsPool string) error
	VolumeExists(ctx context.Context, poolName, volumeName string) (bool, error)
	CreateVolume(ctx context.Context, poolName string, spec storage.VolumeSpec) error
	WriteVolumeData(ctx context.Context, poolName, volumeName string, data []byte) error
	DeleteVolumesWithPrefix(ctx context.Context, poolName, prefix string) ([]string, error)
}

// commandRunner is satisfied by *sshexec.Runner.
type commandRunner interface {
	Run(ctx context.Context, command string) (shell.Result, error)
	AwaitServer(ctx context.Context, interval, timeout time.Duration) error
}
