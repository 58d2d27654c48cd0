package libvirt

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/digitalocean/go-libvirt"

	"github.com/jbweber/vaultvm/internal/shell"
	"github.com/jbweber/vaultvm/internal/storage"
)

// mockDomainClient tracks domains by name.
type mockDomainClient struct {
	mu sync.Mutex

	domains  map[string]*mockDomain
	metadata map[string]string

	defineErr error
	startErr  error

	screenshotMime string
	screenshotData []byte

	calls []string
}

type mockDomain struct {
	xml       string
	state     int32
	autostart bool
}

func newMockDomainClient() *mockDomainClient {
	return &mockDomainClient{
		domains:  make(map[string]*mockDomain),
		metadata: make(map[string]string),
	}
}

func (m *mockDomainClient) record(format string, args ...any) {
	m.calls = append(m.calls, fmt.Sprintf(format, args...))
}

func (m *mockDomainClient) DomainLookupByName(name string) (libvirt.Domain, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.domains[name]; !ok {
		return libvirt.Domain{}, fmt.Errorf("domain not found: %s", name)
	}
	return libvirt.Domain{Name: name}, nil
}

func (m *mockDomainClient) DomainDefineXML(xml string) (libvirt.Domain, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.record("define")
	if m.defineErr != nil {
		return libvirt.Domain{}, m.defineErr
	}
	start := strings.Index(xml, "<name>") + len("<name>")
	end := strings.Index(xml, "</name>")
	name := xml[start:end]
	m.domains[name] = &mockDomain{xml: xml, state: 5}
	return libvirt.Domain{Name: name}, nil
}

func (m *mockDomainClient) DomainSetAutostart(dom libvirt.Domain, autostart int32) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.record("autostart %s", dom.Name)
	d, ok := m.domains[dom.Name]
	if !ok {
		return errors.New("no domain")
	}
	d.autostart = autostart == 1
	return nil
}

func (m *mockDomainClient) DomainCreate(dom libvirt.Domain) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.record("start %s", dom.Name)
	if m.startErr != nil {
		return m.startErr
	}
	m.domains[dom.Name].state = domainStateRunning
	return nil
}

func (m *mockDomainClient) DomainGetState(dom libvirt.Domain, flags uint32) (int32, int32, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	d, ok := m.domains[dom.Name]
	if !ok {
		return 0, 0, errors.New("no domain")
	}
	return d.state, 0, nil
}

func (m *mockDomainClient) DomainDestroy(dom libvirt.Domain) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.record("destroy %s", dom.Name)
	m.domains[dom.Name].state = 5
	return nil
}

func (m *mockDomainClient) DomainUndefineFlags(dom libvirt.Domain, flags libvirt.DomainUndefineFlagsValues) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.record("undefine %s nvram=%v", dom.Name, flags&libvirt.DomainUndefineNvram != 0)
	delete(m.domains, dom.Name)
	delete(m.metadata, dom.Name)
	return nil
}

func (m *mockDomainClient) DomainScreenshot(dom libvirt.Domain, w io.Writer, screen uint32, flags uint32) (libvirt.OptString, error) {
	if _, err := w.Write(m.screenshotData); err != nil {
		return nil, err
	}
	return libvirt.OptString{m.screenshotMime}, nil
}

func (m *mockDomainClient) DomainSetMetadata(dom libvirt.Domain, typ int32, md libvirt.OptString, key libvirt.OptString, uri libvirt.OptString, flags libvirt.DomainModificationImpact) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.record("metadata %s", dom.Name)
	m.metadata[dom.Name] = md[0]
	return nil
}

func (m *mockDomainClient) DomainGetMetadata(dom libvirt.Domain, typ int32, uri libvirt.OptString, flags libvirt.DomainModificationImpact) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	md, ok := m.metadata[dom.Name]
	if !ok {
		return "", errors.New("metadata not found")
	}
	return md, nil
}

// mockStorageManager keeps volumes per pool.
type mockStorageManager struct {
	volumes map[string]map[string][]byte

	createErrFor map[string]error
	poolsEnsured []string
}

func newMockStorageManager() *mockStorageManager {
	return &mockStorageManager{
		volumes:      map[string]map[string][]byte{"vaultvm-images": {"debian-12.qcow2": nil}},
		createErrFor: make(map[string]error),
	}
}

func (m *mockStorageManager) EnsureDefaultPools(ctx context.Context, imagesPool, vmsPool string) error {
	m.poolsEnsured = append(m.poolsEnsured, imagesPool, vmsPool)
	for _, p := range []string{imagesPool, vmsPool} {
		if m.volumes[p] == nil {
			m.volumes[p] = make(map[string][]byte)
		}
	}
	return nil
}

func (m *mockStorageManager) VolumeExists(ctx context.Context, pool, name string) (bool, error) {
	vols, ok := m.volumes[pool]
	if !ok {
		return false, fmt.Errorf("pool not found: %s", pool)
	}
	_, ok = vols[name]
	return ok, nil
}

func (m *mockStorageManager) CreateVolume(ctx context.Context, pool string, spec storage.VolumeSpec) error {
	if err := m.createErrFor[spec.Name]; err != nil {
		return err
	}
	if err := spec.Validate(); err != nil {
		return err
	}
	m.volumes[pool][spec.Name] = nil
	return nil
}

func (m *mockStorageManager) WriteVolumeData(ctx context.Context, pool, name string, data []byte) error {
	if _, ok := m.volumes[pool][name]; !ok {
		return errors.New("volume not found")
	}
	m.volumes[pool][name] = data
	return nil
}

func (m *mockStorageManager) DeleteVolumesWithPrefix(ctx context.Context, pool, prefix string) ([]string, error) {
	var deleted []string
	for name := range m.volumes[pool] {
		if strings.HasPrefix(name, prefix) {
			delete(m.volumes[pool], name)
			deleted = append(deleted, name)
		}
	}
	sort.Strings(deleted)
	return deleted, nil
}

func (m *mockStorageManager) volumeNames(pool string) []string {
	var names []string
	for name := range m.volumes[pool] {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// mockRunner is a commandRunner with function fields.
type mockRunner struct {
	host string
	user string

	RunFunc   func(ctx context.Context, command string) (shell.Result, error)
	AwaitFunc func(ctx context.Context, interval, timeout time.Duration) error

	commands []string
}

func (r *mockRunner) Run(ctx context.Context, command string) (shell.Result, error) {
	r.commands = append(r.commands, command)
	if r.RunFunc != nil {
		return r.RunFunc(ctx, command)
	}
	return shell.Result{}, nil
}

func (r *mockRunner) AwaitServer(ctx context.Context, interval, timeout time.Duration) error {
	if r.AwaitFunc != nil {
		return r.AwaitFunc(ctx, interval, timeout)
	}
	return nil
}
