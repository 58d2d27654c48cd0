package v1alpha1

// Setup describes one provisioning run: a remote computer created through a
// provider, and the toolchain installed inside it.
//
// Spec is the desired configuration. Status is filled in while the run
// progresses and doubles as the run record.
//
// +kubebuilder:object:root=true
// +kubebuilder:printcolumn:name="Phase",type=string,JSONPath=`.status.phase`
// +kubebuilder:printcolumn:name="Computer",type=string,JSONPath=`.status.computerID`
type Setup struct {
	TypeMeta `json:",inline" yaml:",inline"`

	// +optional
	ObjectMeta `json:"metadata,omitempty" yaml:"metadata,omitempty"`

	// Spec defines what to provision.
	Spec SetupSpec `json:"spec" yaml:"spec"`

	// Status records what happened.
	// +optional
	Status SetupStatus `json:"status,omitempty" yaml:"status,omitempty"`
}

// SetupSpec defines the desired state of a Setup.
type SetupSpec struct {
	// Computer is the remote VM to create.
	Computer ComputerSpec `json:"computer" yaml:"computer"`

	// Git configures the git identity inside the VM.
	Git GitSpec `json:"git" yaml:"git"`

	// Vault is the configuration repository cloned into the VM.
	Vault VaultSpec `json:"vault" yaml:"vault"`

	// BrowserUse configures the browser-automation toolkit install.
	BrowserUse BrowserUseSpec `json:"browserUse" yaml:"browserUse"`

	// Screenshot configures the final screenshot of the VM display.
	Screenshot ScreenshotSpec `json:"screenshot" yaml:"screenshot"`
}

// Provider names a backend that can create computers.
type Provider string

const (
	// ProviderOrgo creates computers through the Orgo HTTP API.
	ProviderOrgo Provider = "orgo"
	// ProviderLibvirt creates computers on a local libvirt daemon.
	ProviderLibvirt Provider = "libvirt"
)

// ComputerSpec defines the remote computer.
type ComputerSpec struct {
	// Provider selects the backend. Defaults to "orgo".
	// +kubebuilder:validation:Enum=orgo;libvirt
	// +optional
	Provider Provider `json:"provider,omitempty" yaml:"provider,omitempty"`

	// Project groups computers at the provider.
	Project string `json:"project" yaml:"project"`

	// Name is the computer name.
	Name string `json:"name" yaml:"name"`

	// RAMGiB is the memory size in GiB.
	// +kubebuilder:validation:Minimum=1
	RAMGiB int `json:"ramGiB" yaml:"ramGiB"`

	// CPUs is the number of virtual CPUs.
	// +kubebuilder:validation:Minimum=1
	CPUs int `json:"cpus" yaml:"cpus"`

	// OS is the guest operating system family.
	// +optional
	OS string `json:"os,omitempty" yaml:"os,omitempty"`

	// BootWait is how long to wait after creation before issuing commands.
	// +optional
	BootWait Duration `json:"bootWait,omitempty" yaml:"bootWait,omitempty"`

	// Libvirt configures the libvirt backend. Required when Provider is libvirt.
	// +optional
	Libvirt *LibvirtSpec `json:"libvirt,omitempty" yaml:"libvirt,omitempty"`
}

// LibvirtSpec configures a computer on a local libvirt daemon.
type LibvirtSpec struct {
	// Socket is the libvirt unix socket. Defaults to the system socket.
	// +optional
	Socket string `json:"socket,omitempty" yaml:"socket,omitempty"`

	// Image is the base image volume the boot disk is backed by.
	Image string `json:"image" yaml:"image"`

	// ImagePool is the pool holding Image. Defaults to "vaultvm-images".
	// +optional
	ImagePool string `json:"imagePool,omitempty" yaml:"imagePool,omitempty"`

	// StoragePool is the pool for the computer's volumes. Defaults to "vaultvm-vms".
	// +optional
	StoragePool string `json:"storagePool,omitempty" yaml:"storagePool,omitempty"`

	// DiskGB is the boot disk size. Defaults to 40.
	// +optional
	DiskGB int `json:"diskGB,omitempty" yaml:"diskGB,omitempty"`

	// Bridge is the host bridge the NIC attaches to.
	Bridge string `json:"bridge" yaml:"bridge"`

	// IP is the static address with prefix, e.g. "10.20.30.40/24".
	IP string `json:"ip" yaml:"ip"`

	// Gateway is the default gateway.
	Gateway string `json:"gateway" yaml:"gateway"`

	// DNSServers are the resolvers configured in the guest.
	// +optional
	DNSServers []string `json:"dnsServers,omitempty" yaml:"dnsServers,omitempty"`

	// User is the login user created by cloud-init. Defaults to "vaultvm".
	// +optional
	User string `json:"user,omitempty" yaml:"user,omitempty"`
}

// GitSpec configures git inside the computer.
type GitSpec struct {
	UserName      string `json:"userName" yaml:"userName"`
	UserEmail     string `json:"userEmail" yaml:"userEmail"`
	DefaultBranch string `json:"defaultBranch,omitempty" yaml:"defaultBranch,omitempty"`

	// SSHKey generates an ed25519 key in the computer and prints the public
	// half so it can be registered with the git host.
	// +optional
	SSHKey bool `json:"sshKey,omitempty" yaml:"sshKey,omitempty"`
}

// VaultSpec defines the repository to clone.
type VaultSpec struct {
	// RepoURL is cloned with git; HTTPS repositories must be public.
	RepoURL string `json:"repoURL" yaml:"repoURL"`

	// Path is where the repository lands inside the computer.
	// +optional
	Path string `json:"path,omitempty" yaml:"path,omitempty"`

	// InstallRequirements pip-installs requirements.txt when the repository
	// has one. Defaults to true.
	// +optional
	InstallRequirements *bool `json:"installRequirements,omitempty" yaml:"installRequirements,omitempty"`
}

// BrowserUseSpec configures the browser-use install.
type BrowserUseSpec struct {
	// Venv is the virtual environment directory.
	// +optional
	Venv string `json:"venv,omitempty" yaml:"venv,omitempty"`

	// Packages are pip-installed into Venv.
	// +optional
	Packages []string `json:"packages,omitempty" yaml:"packages,omitempty"`

	// PollInterval is the sleep between install completion checks.
	// +optional
	PollInterval Duration `json:"pollInterval,omitempty" yaml:"pollInterval,omitempty"`

	// MaxAttempts bounds the number of completion checks.
	// +optional
	MaxAttempts int `json:"maxAttempts,omitempty" yaml:"maxAttempts,omitempty"`

	// StatusEvery prints a progress line every N attempts.
	// +optional
	StatusEvery int `json:"statusEvery,omitempty" yaml:"statusEvery,omitempty"`

	// Example writes an example agent script after a successful install.
	// Defaults to true.
	// +optional
	Example *bool `json:"example,omitempty" yaml:"example,omitempty"`

	// ExampleScript is where the example is written inside the computer.
	// +optional
	ExampleScript string `json:"exampleScript,omitempty" yaml:"exampleScript,omitempty"`
}

// ScreenshotSpec configures the final screenshot.
type ScreenshotSpec struct {
	// Enabled defaults to true.
	// +optional
	Enabled *bool `json:"enabled,omitempty" yaml:"enabled,omitempty"`

	// Path is the local file the PNG is written to.
	// +optional
	Path string `json:"path,omitempty" yaml:"path,omitempty"`
}

// SetupPhase is a simple, high-level summary of where the run is.
type SetupPhase string

const (
	// SetupPhasePending means the run has not started.
	SetupPhasePending SetupPhase = "Pending"
	// SetupPhaseProvisioning means the computer is being created.
	SetupPhaseProvisioning SetupPhase = "Provisioning"
	// SetupPhaseConfiguring means commands are running inside the computer.
	SetupPhaseConfiguring SetupPhase = "Configuring"
	// SetupPhaseCompleted means every step succeeded.
	SetupPhaseCompleted SetupPhase = "Completed"
	// SetupPhaseDegraded means the run finished but some steps failed.
	SetupPhaseDegraded SetupPhase = "Degraded"
	// SetupPhaseFailed means the computer could not be created or the run
	// was aborted.
	SetupPhaseFailed SetupPhase = "Failed"
)

// StepStatus is the outcome of one provisioning step.
type StepStatus string

const (
	StepStatusPlanned StepStatus = "planned"
	StepStatusSuccess StepStatus = "success"
	StepStatusFailed  StepStatus = "failed"
	StepStatusSkipped StepStatus = "skipped"
)

// StepResult records one provisioning step.
type StepResult struct {
	Name     string     `json:"name" yaml:"name"`
	Status   StepStatus `json:"status" yaml:"status"`
	Duration Duration   `json:"duration" yaml:"duration"`
	Message  string     `json:"message,omitempty" yaml:"message,omitempty"`
}

// SetupStatus defines the observed state of a Setup.
type SetupStatus struct {
	// +optional
	Phase SetupPhase `json:"phase,omitempty" yaml:"phase,omitempty"`

	// ComputerID is the provider's identifier for the created computer.
	// +optional
	ComputerID string `json:"computerID,omitempty" yaml:"computerID,omitempty"`

	// ComputerURL is where the computer can be viewed.
	// +optional
	ComputerURL string `json:"computerURL,omitempty" yaml:"computerURL,omitempty"`

	// PublicKey is the SSH public key generated inside the computer.
	// +optional
	PublicKey string `json:"publicKey,omitempty" yaml:"publicKey,omitempty"`

	// +optional
	StartTime Time `json:"startTime,omitempty" yaml:"startTime,omitempty"`

	// +optional
	CompletionTime Time `json:"completionTime,omitempty" yaml:"completionTime,omitempty"`

	// Steps are recorded in execution order.
	// +optional
	Steps []StepResult `json:"steps,omitempty" yaml:"steps,omitempty"`

	// +optional
	Conditions []Condition `json:"conditions,omitempty" yaml:"conditions,omitempty"`
}

// Condition types.
const (
	// ConditionReady is True once the run finished with every step succeeding.
	ConditionReady = "Ready"
)
