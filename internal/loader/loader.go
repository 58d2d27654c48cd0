// Package loader reads and writes Setup resources as YAML files.
package loader

import (
	"fmt"
	"net"
	"os"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/jbweber/vaultvm/api/v1alpha1"
)

// DefaultName is the name of the built-in Setup.
const DefaultName = "vault-setup"

var (
	nameRegexp   = regexp.MustCompile(`^[a-z0-9]([-a-z0-9]*[a-z0-9])?$`)
	branchRegexp = regexp.MustCompile(`^[A-Za-z0-9._/-]*$`)
)

// quotedUnsafe are the characters that end or expand a double-quoted
// shell word.
const quotedUnsafe = "\"$`\\\n"

// Default returns the built-in Setup used when no file is given.
func Default() *v1alpha1.Setup {
	return v1alpha1.NewSetup(DefaultName)
}

// LoadFromFile loads a Setup resource from a YAML file.
// The file must be in the vaultvm.cofront.xyz/v1alpha1 format.
func LoadFromFile(path string) (*v1alpha1.Setup, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read file %s: %w", path, err)
	}

	return LoadFromYAML(data)
}

// LoadFromYAML loads a Setup resource from YAML bytes. Omitted fields are
// defaulted and the result is validated.
func LoadFromYAML(data []byte) (*v1alpha1.Setup, error) {
	var s v1alpha1.Setup
	if err := yaml.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("failed to unmarshal YAML: %w", err)
	}

	if s.APIVersion == "" {
		return nil, fmt.Errorf("missing required field: apiVersion")
	}
	if s.Kind == "" {
		return nil, fmt.Errorf("missing required field: kind")
	}

	expectedAPIVersion := v1alpha1.GroupName + "/" + v1alpha1.Version
	if s.APIVersion != expectedAPIVersion {
		return nil, fmt.Errorf("unsupported apiVersion: %s (expected: %s)", s.APIVersion, expectedAPIVersion)
	}
	if s.Kind != v1alpha1.SetupKind {
		return nil, fmt.Errorf("unsupported kind: %s (expected: %s)", s.Kind, v1alpha1.SetupKind)
	}

	s.Default()
	s.Normalize()

	if err := validateSpec(&s); err != nil {
		return nil, fmt.Errorf("validation failed: %w", err)
	}

	return &s, nil
}

// SaveToFile writes a Setup resource, status included, to a YAML file.
func SaveToFile(s *v1alpha1.Setup, path string) error {
	v1alpha1.SetDefaultAPIVersion(s)

	data, err := yaml.Marshal(s)
	if err != nil {
		return fmt.Errorf("failed to marshal setup to YAML: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write file %s: %w", path, err)
	}

	return nil
}

// validateSpec validates the Setup for required fields and consistency.
func validateSpec(s *v1alpha1.Setup) error {
	if s.Name == "" {
		return fmt.Errorf("metadata.name is required")
	}
	if len(s.Name) > 63 || !nameRegexp.MatchString(s.Name) {
		return fmt.Errorf("metadata.name %q must be lowercase letters, digits and dashes", s.Name)
	}

	c := s.Spec.Computer
	switch c.Provider {
	case v1alpha1.ProviderOrgo, v1alpha1.ProviderLibvirt:
	default:
		return fmt.Errorf("spec.computer.provider %q is not supported (orgo, libvirt)", c.Provider)
	}
	if c.Name == "" {
		return fmt.Errorf("spec.computer.name is required")
	}
	if strings.ContainsAny(c.Name, quotedUnsafe) {
		return fmt.Errorf("spec.computer.name %q must not contain quotes, $, backticks, backslashes or newlines", c.Name)
	}
	if c.RAMGiB <= 0 {
		return fmt.Errorf("spec.computer.ramGiB must be greater than 0")
	}
	if c.CPUs <= 0 {
		return fmt.Errorf("spec.computer.cpus must be greater than 0")
	}
	if c.BootWait.Duration < 0 {
		return fmt.Errorf("spec.computer.bootWait must not be negative")
	}

	if c.Provider == v1alpha1.ProviderLibvirt {
		if err := validateLibvirt(c.Libvirt); err != nil {
			return err
		}
	}

	if err := validateGit(s.Spec.Git); err != nil {
		return err
	}

	if s.Spec.Vault.RepoURL == "" {
		return fmt.Errorf("spec.vault.repoURL is required")
	}

	b := s.Spec.BrowserUse
	if b.PollInterval.Duration <= 0 {
		return fmt.Errorf("spec.browserUse.pollInterval must be greater than 0")
	}
	if b.MaxAttempts <= 0 {
		return fmt.Errorf("spec.browserUse.maxAttempts must be greater than 0")
	}
	if b.StatusEvery <= 0 {
		return fmt.Errorf("spec.browserUse.statusEvery must be greater than 0")
	}

	return nil
}

func validateGit(g v1alpha1.GitSpec) error {
	if strings.ContainsAny(g.UserName, quotedUnsafe) {
		return fmt.Errorf("spec.git.userName %q must not contain quotes, $, backticks, backslashes or newlines", g.UserName)
	}
	if strings.ContainsAny(g.UserEmail, quotedUnsafe) {
		return fmt.Errorf("spec.git.userEmail %q must not contain quotes, $, backticks, backslashes or newlines", g.UserEmail)
	}
	if !branchRegexp.MatchString(g.DefaultBranch) {
		return fmt.Errorf("spec.git.defaultBranch %q is not a valid branch name", g.DefaultBranch)
	}
	return nil
}

func validateLibvirt(lv *v1alpha1.LibvirtSpec) error {
	if lv == nil {
		return fmt.Errorf("spec.computer.libvirt is required when provider is libvirt")
	}
	if lv.Image == "" {
		return fmt.Errorf("spec.computer.libvirt.image is required")
	}
	if lv.Bridge == "" {
		return fmt.Errorf("spec.computer.libvirt.bridge is required")
	}
	if lv.Gateway == "" {
		return fmt.Errorf("spec.computer.libvirt.gateway is required")
	}
	ip, _, err := net.ParseCIDR(lv.IP)
	if err != nil || ip.To4() == nil {
		return fmt.Errorf("spec.computer.libvirt.ip %q must be an IPv4 address in CIDR notation", lv.IP)
	}
	if net.ParseIP(lv.Gateway) == nil {
		return fmt.Errorf("spec.computer.libvirt.gateway %q is not an IP address", lv.Gateway)
	}
	if lv.DiskGB <= 0 {
		return fmt.Errorf("spec.computer.libvirt.diskGB must be greater than 0")
	}
	return nil
}
