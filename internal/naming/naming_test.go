package naming

import (
	"strings"
	"testing"
)

func TestMACFromIP(t *testing.T) {
	tests := []struct {
		name    string
		ip      string
		want    string
		wantErr bool
	}{
		{name: "basic IP", ip: "10.20.30.40", want: "52:54:0a:14:1e:28"},
		{name: "IP with CIDR", ip: "10.250.250.10/24", want: "52:54:0a:fa:fa:0a"},
		{name: "zero octets", ip: "10.0.0.1", want: "52:54:0a:00:00:01"},
		{name: "invalid IP", ip: "not-an-ip", wantErr: true},
		{name: "IPv6 address", ip: "2001:db8::1", wantErr: true},
		{name: "invalid CIDR", ip: "10.1.2.3/99", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := MACFromIP(tt.ip)
			if (err != nil) != tt.wantErr {
				t.Errorf("MACFromIP() error = %v, wantErr %v", err, tt.wantErr)
				return
			}
			if !tt.wantErr && got != tt.want {
				t.Errorf("MACFromIP() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestInterfaceNameFromIP(t *testing.T) {
	tests := []struct {
		name    string
		ip      string
		want    string
		wantErr bool
	}{
		{name: "basic IP", ip: "10.55.22.22", want: "vv0a371616"},
		{name: "IP with CIDR", ip: "192.168.1.5/24", want: "vvc0a80105"},
		{name: "invalid", ip: "10.1.2", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := InterfaceNameFromIP(tt.ip)
			if (err != nil) != tt.wantErr {
				t.Errorf("InterfaceNameFromIP() error = %v, wantErr %v", err, tt.wantErr)
				return
			}
			if tt.wantErr {
				return
			}
			if got != tt.want {
				t.Errorf("InterfaceNameFromIP() = %v, want %v", got, tt.want)
			}
			if len(got) > 15 {
				t.Errorf("interface name %q exceeds 15 chars", got)
			}
		})
	}
}

func TestHostIP(t *testing.T) {
	got, err := HostIP("10.20.30.40/24")
	if err != nil {
		t.Fatalf("HostIP() error = %v", err)
	}
	if got.String() != "10.20.30.40" {
		t.Errorf("HostIP() = %s", got)
	}
}

func TestHostname(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{in: "samantha-vault-vm", want: "samantha-vault-vm"},
		{in: "Samantha Vault_VM", want: "samantha-vault-vm"},
		{in: "--edge--", want: "edge"},
		{in: "!!!", want: "vaultvm"},
		{in: strings.Repeat("a", 70), want: strings.Repeat("a", 63)},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			if got := Hostname(tt.in); got != tt.want {
				t.Errorf("Hostname(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestVolumeNames(t *testing.T) {
	if got := VolumeNameBoot("vault"); got != "vault_boot.qcow2" {
		t.Errorf("VolumeNameBoot() = %s", got)
	}
	if got := VolumeNameCloudInit("vault"); got != "vault_cidata.iso" {
		t.Errorf("VolumeNameCloudInit() = %s", got)
	}
	for _, v := range []string{VolumeNameBoot("vault"), VolumeNameCloudInit("vault")} {
		if !strings.HasPrefix(v, VolumePrefix("vault")) {
			t.Errorf("%s lacks prefix %s", v, VolumePrefix("vault"))
		}
	}
}
