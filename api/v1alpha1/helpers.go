package v1alpha1

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

const (
	// GroupName is the API group for vaultvm resources.
	GroupName = "vaultvm.cofront.xyz"

	// Version is the API version.
	Version = "v1alpha1"

	// SetupKind is the kind string for Setup resources.
	SetupKind = "Setup"
)

// Defaults applied to omitted fields.
const (
	DefaultProject       = "samantha-vault"
	DefaultComputerName  = "samantha-vault-vm"
	DefaultRAMGiB        = 4
	DefaultCPUs          = 2
	DefaultOS            = "linux"
	DefaultBootWait      = 15 * time.Second
	DefaultGitUserName   = "Samantha AI"
	DefaultGitUserEmail  = "samantha@example.com"
	DefaultGitBranch     = "main"
	DefaultVaultRepoURL  = "https://github.com/Prakshal-Jain/example-vault.git"
	DefaultVaultPath     = "~/vault"
	DefaultVenv          = "~/browser-use-env"
	DefaultPollInterval  = 10 * time.Second
	DefaultMaxAttempts   = 60
	DefaultStatusEvery   = 6
	DefaultExampleScript = "/root/browser-use-example.py"
	DefaultScreenshot    = "vault-setup.png"

	DefaultImagePool   = "vaultvm-images"
	DefaultStoragePool = "vaultvm-vms"
	DefaultDiskGB      = 40
	DefaultLoginUser   = "vaultvm"
)

// DefaultPackages are pip-installed into the browser-use venv.
var DefaultPackages = []string{"browser-use", "playwright"}

// NewSetup creates a Setup with TypeMeta, ObjectMeta and every default filled in.
// The result is the configuration used when no setup file is given.
func NewSetup(name string) *Setup {
	s := &Setup{
		TypeMeta: TypeMeta{
			APIVersion: GroupName + "/" + Version,
			Kind:       SetupKind,
		},
		ObjectMeta: ObjectMeta{
			Name: name,
		},
	}
	s.Default()
	s.Stamp()
	return s
}

// SetDefaultAPIVersion ensures the Setup has the correct apiVersion and kind.
func SetDefaultAPIVersion(s *Setup) {
	if s.APIVersion == "" {
		s.APIVersion = GroupName + "/" + Version
	}
	if s.Kind == "" {
		s.Kind = SetupKind
	}
}

// Stamp assigns a fresh UID and creation timestamp for a new run.
func (s *Setup) Stamp() {
	s.UID = uuid.New().String()
	s.CreationTimestamp = Now()
	if s.Generation == 0 {
		s.Generation = 1
	}
}

// Default fills omitted spec fields with their defaults.
func (s *Setup) Default() {
	c := &s.Spec.Computer
	if c.Provider == "" {
		c.Provider = ProviderOrgo
	}
	if c.Project == "" {
		c.Project = DefaultProject
	}
	if c.Name == "" {
		c.Name = DefaultComputerName
	}
	if c.RAMGiB == 0 {
		c.RAMGiB = DefaultRAMGiB
	}
	if c.CPUs == 0 {
		c.CPUs = DefaultCPUs
	}
	if c.OS == "" {
		c.OS = DefaultOS
	}
	if c.BootWait.Duration == 0 {
		c.BootWait = NewDuration(DefaultBootWait)
	}
	if lv := c.Libvirt; lv != nil {
		if lv.ImagePool == "" {
			lv.ImagePool = DefaultImagePool
		}
		if lv.StoragePool == "" {
			lv.StoragePool = DefaultStoragePool
		}
		if lv.DiskGB == 0 {
			lv.DiskGB = DefaultDiskGB
		}
		if lv.User == "" {
			lv.User = DefaultLoginUser
		}
	}

	g := &s.Spec.Git
	if g.UserName == "" {
		g.UserName = DefaultGitUserName
	}
	if g.UserEmail == "" {
		g.UserEmail = DefaultGitUserEmail
	}
	if g.DefaultBranch == "" {
		g.DefaultBranch = DefaultGitBranch
	}

	v := &s.Spec.Vault
	if v.RepoURL == "" {
		v.RepoURL = DefaultVaultRepoURL
	}
	if v.Path == "" {
		v.Path = DefaultVaultPath
	}

	b := &s.Spec.BrowserUse
	if b.Venv == "" {
		b.Venv = DefaultVenv
	}
	if len(b.Packages) == 0 {
		b.Packages = append([]string(nil), DefaultPackages...)
	}
	if b.PollInterval.Duration == 0 {
		b.PollInterval = NewDuration(DefaultPollInterval)
	}
	if b.MaxAttempts == 0 {
		b.MaxAttempts = DefaultMaxAttempts
	}
	if b.StatusEvery == 0 {
		b.StatusEvery = DefaultStatusEvery
	}
	if b.ExampleScript == "" {
		b.ExampleScript = DefaultExampleScript
	}

	if s.Spec.Screenshot.Path == "" {
		s.Spec.Screenshot.Path = DefaultScreenshot
	}

	if s.Status.Phase == "" {
		s.Status.Phase = SetupPhasePending
	}
}

// Normalize sanitizes user input to consistent formats.
func (s *Setup) Normalize() {
	s.Name = strings.ToLower(strings.TrimSpace(s.Name))
	s.Spec.Computer.Name = strings.TrimSpace(s.Spec.Computer.Name)
	s.Spec.Computer.Provider = Provider(strings.ToLower(string(s.Spec.Computer.Provider)))
	s.Spec.Vault.RepoURL = strings.TrimSpace(s.Spec.Vault.RepoURL)
}

// InstallRequirements reports whether vault requirements should be installed.
func (s *Setup) InstallRequirements() bool {
	return boolOr(s.Spec.Vault.InstallRequirements, true)
}

// WriteExample reports whether the browser-use example should be written.
func (s *Setup) WriteExample() bool {
	return boolOr(s.Spec.BrowserUse.Example, true)
}

// ScreenshotEnabled reports whether a screenshot should be captured.
func (s *Setup) ScreenshotEnabled() bool {
	return boolOr(s.Spec.Screenshot.Enabled, true)
}

// SetPhase sets the setup phase in status.
func (s *Setup) SetPhase(phase SetupPhase) {
	s.Status.Phase = phase
}

// GetPhase returns the current setup phase.
func (s *Setup) GetPhase() SetupPhase {
	return s.Status.Phase
}

// SetComputer records the created computer's identity.
func (s *Setup) SetComputer(id, url string) {
	s.Status.ComputerID = id
	s.Status.ComputerURL = url
}

// FailedSteps returns the names of steps that failed.
func (s *Setup) FailedSteps() []string {
	var failed []string
	for _, step := range s.Status.Steps {
		if step.Status == StepStatusFailed {
			failed = append(failed, step.Name)
		}
	}
	return failed
}

func boolOr(b *bool, def bool) bool {
	if b == nil {
		return def
	}
	return *b
}
