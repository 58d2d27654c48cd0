// Package naming derives libvirt resource names and addresses for a
// computer from its name and static IP.
package naming

import (
	"fmt"
	"net"
	"regexp"
	"strings"
)

// HostnameMaxLen is the longest label a hostname may have.
const HostnameMaxLen = 63

var invalidHostChars = regexp.MustCompile(`[^a-z0-9-]+`)

// HostIP returns the bare IPv4 address from "10.1.2.3" or "10.1.2.3/24".
func HostIP(ip string) (net.IP, error) {
	addr := ip
	if strings.Contains(ip, "/") {
		parsed, _, err := net.ParseCIDR(ip)
		if err != nil {
			return nil, fmt.Errorf("invalid IP/CIDR: %w", err)
		}
		addr = parsed.String()
	}

	parsed := net.ParseIP(addr)
	if parsed == nil {
		return nil, fmt.Errorf("invalid IP address: %s", addr)
	}
	v4 := parsed.To4()
	if v4 == nil {
		return nil, fmt.Errorf("not an IPv4 address: %s", addr)
	}
	return v4, nil
}

// MACFromIP derives a stable MAC from an IPv4 address under the QEMU
// 52:54 prefix.
//
// Example: 10.55.22.22 → 52:54:0a:37:16:16
func MACFromIP(ip string) (string, error) {
	v4, err := HostIP(ip)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("52:54:%02x:%02x:%02x:%02x", v4[0], v4[1], v4[2], v4[3]), nil
}

// InterfaceNameFromIP derives the host tap device name from an IPv4 address.
//
// Example: 10.55.22.22 → vv0a371616
func InterfaceNameFromIP(ip string) (string, error) {
	v4, err := HostIP(ip)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("vv%02x%02x%02x%02x", v4[0], v4[1], v4[2], v4[3]), nil
}

// Hostname turns a computer name into a valid hostname label.
func Hostname(name string) string {
	h := invalidHostChars.ReplaceAllString(strings.ToLower(name), "-")
	h = strings.Trim(h, "-")
	if len(h) > HostnameMaxLen {
		h = strings.TrimRight(h[:HostnameMaxLen], "-")
	}
	if h == "" {
		return "vaultvm"
	}
	return h
}

// VolumePrefix is shared by every volume that belongs to a computer.
func VolumePrefix(name string) string {
	return name + "_"
}

// VolumeNameBoot returns the boot disk volume name.
// Format: {name}_boot.qcow2
func VolumeNameBoot(name string) string {
	return VolumePrefix(name) + "boot.qcow2"
}

// VolumeNameCloudInit returns the NoCloud seed volume name.
// Format: {name}_cidata.iso
func VolumeNameCloudInit(name string) string {
	return VolumePrefix(name) + "cidata.iso"
}
