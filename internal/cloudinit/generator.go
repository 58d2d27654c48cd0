// Package cloudinit builds the NoCloud seed that prepares a libvirt
// computer for remote commands: a sudo-capable login user reachable with an
// SSH key, and a static address.
//
// See https://cloudinit.readthedocs.io/en/latest/reference/datasources/nocloud.html
package cloudinit

import (
	"fmt"

	"gopkg.in/yaml.v3"
)

// SudoNoPassword grants passwordless sudo, which the setup commands need.
const SudoNoPassword = "ALL=(ALL) NOPASSWD:ALL"

// Seed is everything the seed files are generated from.
type Seed struct {
	// InstanceID changes whenever cloud-init should treat a boot as first boot.
	InstanceID string
	Hostname   string

	// User is the login user the remote commands run as.
	User           string
	AuthorizedKeys []string

	// MACAddress matches the NIC the static address is applied to.
	MACAddress string
	// Address is the static IPv4 address with prefix.
	Address    string
	Gateway    string
	DNSServers []string

	// Packages are installed on first boot.
	Packages []string
}

func (s *Seed) validate() error {
	if s == nil {
		return fmt.Errorf("seed cannot be nil")
	}
	if s.Hostname == "" {
		return fmt.Errorf("hostname is required")
	}
	if s.User == "" {
		return fmt.Errorf("login user is required")
	}
	if len(s.AuthorizedKeys) == 0 {
		return fmt.Errorf("at least one authorized key is required")
	}
	return nil
}

// UserData is the cloud-config document.
//
// See https://cloudinit.readthedocs.io/en/latest/explanation/format.html#cloud-config-data
type UserData struct {
	Hostname        string   `yaml:"hostname"`
	Users           []User   `yaml:"users"`
	SSHPasswordAuth bool     `yaml:"ssh_pwauth"`
	PackageUpdate   bool     `yaml:"package_update,omitempty"`
	Packages        []string `yaml:"packages,omitempty"`
	Output          *Output  `yaml:"output,omitempty"`
}

// User is one entry of the users list.
type User struct {
	Name              string   `yaml:"name"`
	Sudo              string   `yaml:"sudo"`
	Shell             string   `yaml:"shell"`
	LockPasswd        bool     `yaml:"lock_passwd"`
	SSHAuthorizedKeys []string `yaml:"ssh_authorized_keys"`
}

// Output configures cloud-init output logging.
type Output struct {
	All string `yaml:"all"`
}

// MetaData is the NoCloud meta-data document.
type MetaData struct {
	InstanceID    string `yaml:"instance-id"`
	LocalHostname string `yaml:"local-hostname"`
}

// NetworkConfig is a netplan v2 document.
//
// See https://cloudinit.readthedocs.io/en/latest/reference/network-config-format-v2.html
type NetworkConfig struct {
	Version   int                       `yaml:"version"`
	Ethernets map[string]EthernetConfig `yaml:"ethernets"`
}

// EthernetConfig configures one NIC.
type EthernetConfig struct {
	Match       MatchConfig   `yaml:"match"`
	SetName     string        `yaml:"set-name,omitempty"`
	Addresses   []string      `yaml:"addresses"`
	Routes      []RouteConfig `yaml:"routes,omitempty"`
	Nameservers *Nameservers  `yaml:"nameservers,omitempty"`
}

// MatchConfig matches a NIC by MAC address.
type MatchConfig struct {
	MACAddress string `yaml:"macaddress"`
}

// RouteConfig is a static route.
type RouteConfig struct {
	To  string `yaml:"to"`
	Via string `yaml:"via"`
}

// Nameservers lists DNS resolvers.
type Nameservers struct {
	Addresses []string `yaml:"addresses"`
}

// GenerateUserData returns user-data including the "#cloud-config" header.
func GenerateUserData(seed *Seed) (string, error) {
	if err := seed.validate(); err != nil {
		return "", err
	}

	ud := UserData{
		Hostname: seed.Hostname,
		Users: []User{{
			Name:              seed.User,
			Sudo:              SudoNoPassword,
			Shell:             "/bin/bash",
			LockPasswd:        true,
			SSHAuthorizedKeys: seed.AuthorizedKeys,
		}},
		SSHPasswordAuth: false,
		Packages:        seed.Packages,
		PackageUpdate:   len(seed.Packages) > 0,
		Output: &Output{
			All: "| tee -a /var/log/cloud-init-output.log",
		},
	}

	data, err := yaml.Marshal(&ud)
	if err != nil {
		return "", fmt.Errorf("failed to marshal user-data to YAML: %w", err)
	}
	return "#cloud-config\n" + string(data), nil
}

// GenerateMetaData returns meta-data. The instance-id falls back to the hostname.
func GenerateMetaData(seed *Seed) (string, error) {
	if err := seed.validate(); err != nil {
		return "", err
	}

	id := seed.InstanceID
	if id == "" {
		id = seed.Hostname
	}
	data, err := yaml.Marshal(&MetaData{InstanceID: id, LocalHostname: seed.Hostname})
	if err != nil {
		return "", fmt.Errorf("failed to marshal meta-data to YAML: %w", err)
	}
	return string(data), nil
}

// GenerateNetworkConfig returns the netplan config for the seed's static
// address. The NIC is renamed to eth0 so guest tooling sees a stable name.
func GenerateNetworkConfig(seed *Seed) (string, error) {
	if err := seed.validate(); err != nil {
		return "", err
	}
	if seed.MACAddress == "" || seed.Address == "" {
		return "", fmt.Errorf("MAC address and address are required for network-config")
	}

	eth := EthernetConfig{
		Match:     MatchConfig{MACAddress: seed.MACAddress},
		SetName:   "eth0",
		Addresses: []string{seed.Address},
	}
	if seed.Gateway != "" {
		eth.Routes = []RouteConfig{{To: "0.0.0.0/0", Via: seed.Gateway}}
	}
	if len(seed.DNSServers) > 0 {
		eth.Nameservers = &Nameservers{Addresses: seed.DNSServers}
	}

	nc := NetworkConfig{
		Version:   2,
		Ethernets: map[string]EthernetConfig{"eth0": eth},
	}
	data, err := yaml.Marshal(&nc)
	if err != nil {
		return "", fmt.Errorf("failed to marshal network-config to YAML: %w", err)
	}
	return string(data), nil
}
