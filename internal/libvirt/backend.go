package libvirt

import (
	"bytes"
	"context"
	"fmt"
	"log"
	"time"

	"github.com/digitalocean/go-libvirt"
	"github.com/google/uuid"
	"golang.org/x/crypto/ssh"

	"github.com/jbweber/vaultvm/api/v1alpha1"
	"github.com/jbweber/vaultvm/internal/cloudinit"
	"github.com/jbweber/vaultvm/internal/metadata"
	"github.com/jbweber/vaultvm/internal/naming"
	"github.com/jbweber/vaultvm/internal/shell"
	"github.com/jbweber/vaultvm/internal/sshexec"
	"github.com/jbweber/vaultvm/internal/storage"
)

// Domain states (VIR_DOMAIN_*).
const (
	domainStateRunning = 1
	domainStatePaused  = 3
)

const (
	// DefaultSSHTimeout bounds waiting for the guest's SSH server after start.
	DefaultSSHTimeout = 5 * time.Minute

	sshPollInterval = 5 * time.Second
)

// Backend creates computers as local libvirt domains and reaches them over SSH.
type Backend struct {
	lv domainClient
	sm storageManager

	// SSHTimeout overrides DefaultSSHTimeout when non-zero.
	SSHTimeout time.Duration
	// SetupUID is recorded in the domain metadata.
	SetupUID string

	newKey    func(comment string) (*sshexec.KeyPair, error)
	newRunner func(host, user string, signer ssh.Signer) commandRunner
}

// NewBackend returns a Backend on an open connection.
func NewBackend(c *Client) *Backend {
	l := c.Libvirt()
	return newBackendWithDeps(l, storage.NewManager(l))
}

func newBackendWithDeps(lv domainClient, sm storageManager) *Backend {
	return &Backend{
		lv:     lv,
		sm:     sm,
		newKey: sshexec.GenerateKeyPair,
		newRunner: func(host, user string, signer ssh.Signer) commandRunner {
			return sshexec.NewRunner(host, user, signer)
		},
	}
}

// Create builds and boots a domain for spec and waits until it accepts SSH.
// Anything created before a failure is removed again.
func (b *Backend) Create(ctx context.Context, spec v1alpha1.ComputerSpec) (_ shell.Computer, createErr error) {
	lv := spec.Libvirt
	if lv == nil {
		return nil, fmt.Errorf("provider libvirt requires a libvirt block")
	}
	host, err := naming.HostIP(lv.IP)
	if err != nil {
		return nil, err
	}
	mac, err := naming.MACFromIP(lv.IP)
	if err != nil {
		return nil, err
	}

	log.Printf("Ensuring storage pools %s and %s...", lv.ImagePool, lv.StoragePool)
	if err := b.sm.EnsureDefaultPools(ctx, lv.ImagePool, lv.StoragePool); err != nil {
		return nil, err
	}

	if _, err := b.lv.DomainLookupByName(spec.Name); err == nil {
		return nil, fmt.Errorf("computer '%s' already exists", spec.Name)
	}

	ok, err := b.sm.VolumeExists(ctx, lv.ImagePool, lv.Image)
	if err != nil {
		return nil, fmt.Errorf("failed to check base image: %w", err)
	}
	if !ok {
		return nil, fmt.Errorf("base image %s not found in pool %s", lv.Image, lv.ImagePool)
	}

	keys, err := b.newKey("vaultvm@" + spec.Name)
	if err != nil {
		return nil, err
	}

	var (
		domain        libvirt.Domain
		domainDefined bool
	)
	defer func() {
		if createErr != nil {
			b.cleanup(spec, domain, domainDefined)
		}
	}()

	log.Printf("Creating boot volume (%dGB) backed by %s...", lv.DiskGB, lv.Image)
	if err := b.sm.CreateVolume(ctx, lv.StoragePool, storage.VolumeSpec{
		Name:          naming.VolumeNameBoot(spec.Name),
		Format:        storage.VolumeFormatQCOW2,
		Capacity:      uint64(lv.DiskGB) * storage.GiB,
		BackingVolume: lv.Image,
		BackingPool:   lv.ImagePool,
	}); err != nil {
		return nil, fmt.Errorf("failed to create boot volume: %w", err)
	}

	log.Printf("Generating cloud-init seed...")
	domainUUID := uuid.New().String()
	iso, err := cloudinit.GenerateISO(&cloudinit.Seed{
		InstanceID:     domainUUID,
		Hostname:       naming.Hostname(spec.Name),
		User:           lv.User,
		AuthorizedKeys: []string{keys.AuthorizedKey},
		MACAddress:     mac,
		Address:        lv.IP,
		Gateway:        lv.Gateway,
		DNSServers:     lv.DNSServers,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to generate cloud-init ISO: %w", err)
	}

	seedVolume := naming.VolumeNameCloudInit(spec.Name)
	if err := b.sm.CreateVolume(ctx, lv.StoragePool, storage.VolumeSpec{
		Name:     seedVolume,
		Format:   storage.VolumeFormatRaw,
		Capacity: uint64(len(iso)),
	}); err != nil {
		return nil, fmt.Errorf("failed to create cloud-init volume: %w", err)
	}
	if err := b.sm.WriteVolumeData(ctx, lv.StoragePool, seedVolume, iso); err != nil {
		return nil, fmt.Errorf("failed to write cloud-init ISO: %w", err)
	}

	domainXML, err := GenerateDomainXML(spec, domainUUID)
	if err != nil {
		return nil, err
	}

	log.Printf("Defining domain %s...", spec.Name)
	domain, err = b.lv.DomainDefineXML(domainXML)
	if err != nil {
		return nil, fmt.Errorf("failed to define domain: %w", err)
	}
	domainDefined = true

	if err := metadata.Store(b.lv, domain, &metadata.Record{
		SetupUID: b.SetupUID,
		Created:  v1alpha1.Now(),
		Computer: spec,
	}); err != nil {
		return nil, err
	}

	if err := b.lv.DomainSetAutostart(domain, 1); err != nil {
		return nil, fmt.Errorf("failed to set autostart: %w", err)
	}

	log.Printf("Starting domain %s...", spec.Name)
	if err := b.lv.DomainCreate(domain); err != nil {
		return nil, fmt.Errorf("failed to start domain: %w", err)
	}

	runner := b.newRunner(host.String(), lv.User, keys.Signer)
	timeout := b.SSHTimeout
	if timeout == 0 {
		timeout = DefaultSSHTimeout
	}
	log.Printf("Waiting up to %v for SSH on %s...", timeout, host)
	if err := runner.AwaitServer(ctx, sshPollInterval, timeout); err != nil {
		return nil, err
	}

	return &computer{
		name:   spec.Name,
		url:    fmt.Sprintf("ssh://%s@%s", lv.User, host),
		domain: domain,
		lv:     b.lv,
		runner: runner,
	}, nil
}

// Destroy force-stops and undefines the named domain, then deletes its
// volumes. Domains without a vaultvm record are refused.
func (b *Backend) Destroy(ctx context.Context, name string) error {
	domain, err := b.lv.DomainLookupByName(name)
	if err != nil {
		return fmt.Errorf("computer '%s' not found: %w", name, err)
	}

	if !metadata.Exists(b.lv, domain) {
		return fmt.Errorf("refusing to destroy '%s', it was not created by vaultvm", name)
	}
	rec, err := metadata.Load(b.lv, domain)
	if err != nil {
		return fmt.Errorf("failed to read vaultvm record of '%s': %w", name, err)
	}

	b.stop(domain)

	log.Printf("Undefining domain %s...", name)
	if err := b.lv.DomainUndefineFlags(domain, libvirt.DomainUndefineNvram); err != nil {
		return fmt.Errorf("failed to undefine domain: %w", err)
	}

	pool := v1alpha1.DefaultStoragePool
	if rec.Computer.Libvirt != nil && rec.Computer.Libvirt.StoragePool != "" {
		pool = rec.Computer.Libvirt.StoragePool
	}
	deleted, err := b.sm.DeleteVolumesWithPrefix(ctx, pool, naming.VolumePrefix(name))
	if err != nil {
		log.Printf("Warning: some volumes of %s were not deleted: %v", name, err)
	}
	log.Printf("Computer '%s' destroyed (%d volumes deleted)", name, len(deleted))
	return nil
}

func (b *Backend) stop(domain libvirt.Domain) {
	state, _, err := b.lv.DomainGetState(domain, 0)
	if err != nil {
		log.Printf("Warning: failed to get domain state: %v", err)
		return
	}
	if state != domainStateRunning && state != domainStatePaused {
		return
	}
	log.Printf("Force stopping domain %s...", domain.Name)
	if err := b.lv.DomainDestroy(domain); err != nil {
		log.Printf("Warning: force stop failed: %v", err)
	}
}

// cleanup removes what a failed Create left behind. It only logs.
func (b *Backend) cleanup(spec v1alpha1.ComputerSpec, domain libvirt.Domain, domainDefined bool) {
	log.Printf("Cleaning up after failed create of '%s'...", spec.Name)

	if domainDefined {
		b.stop(domain)
		if err := b.lv.DomainUndefineFlags(domain, libvirt.DomainUndefineNvram); err != nil {
			log.Printf("Warning: failed to undefine domain: %v", err)
		}
	}

	// The create context may already be cancelled.
	deleted, err := b.sm.DeleteVolumesWithPrefix(context.Background(), spec.Libvirt.StoragePool, naming.VolumePrefix(spec.Name))
	if err != nil {
		log.Printf("Warning: failed to delete volumes: %v", err)
	}
	log.Printf("Cleanup complete (%d volumes deleted)", len(deleted))
}

// computer is a shell.Computer for a running domain.
type computer struct {
	name   string
	url    string
	domain libvirt.Domain
	lv     domainClient
	runner commandRunner
}

func (c *computer) ID() string  { return c.name }
func (c *computer) URL() string { return c.url }

func (c *computer) Bash(ctx context.Context, command string) (shell.Result, error) {
	return c.runner.Run(ctx, command)
}

func (c *computer) Screenshot(ctx context.Context) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	mime, err := c.lv.DomainScreenshot(c.domain, &buf, 0, 0)
	if err != nil {
		return nil, fmt.Errorf("failed to take screenshot: %w", err)
	}
	var mimeType string
	if len(mime) > 0 {
		mimeType = mime[0]
	}
	return toPNG(mimeType, buf.Bytes())
}
