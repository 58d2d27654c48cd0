// Package metadata records which computer spec a libvirt domain was created
// from, inside the domain's own XML metadata. A domain without this record
// was not created by vaultvm and is never touched by destroy.
package metadata

import (
	"encoding/xml"
	"fmt"

	"github.com/digitalocean/go-libvirt"
	"gopkg.in/yaml.v3"

	"github.com/jbweber/vaultvm/api/v1alpha1"
)

const (
	// Namespace is the XML namespace of the metadata element.
	Namespace = "http://vaultvm.cofront.xyz/v1alpha1"

	// Key is the element prefix libvirt uses for the namespace.
	Key = "vaultvm"
)

// Client is the subset of go-libvirt used for domain metadata.
type Client interface {
	DomainSetMetadata(Dom libvirt.Domain, Type int32, Metadata libvirt.OptString, Key libvirt.OptString, Uri libvirt.OptString, Flags libvirt.DomainModificationImpact) error
	DomainGetMetadata(Dom libvirt.Domain, Type int32, Uri libvirt.OptString, Flags libvirt.DomainModificationImpact) (string, error)
}

// Record is what is stored on the domain.
type Record struct {
	// SetupUID ties the domain to the run that created it.
	SetupUID string                `yaml:"setupUID,omitempty"`
	Created  v1alpha1.Time         `yaml:"created,omitempty"`
	Computer v1alpha1.ComputerSpec `yaml:"computer"`
}

// element wraps the record YAML so it stays readable in `virsh dumpxml`.
type element struct {
	XMLName xml.Name `xml:"computer"`
	Xmlns   string   `xml:"xmlns,attr"`
	YAML    string   `xml:",chardata"`
}

// Store writes rec onto the domain's persistent config, replacing any
// previous record.
func Store(c Client, dom libvirt.Domain, rec *Record) error {
	data, err := yaml.Marshal(rec)
	if err != nil {
		return fmt.Errorf("failed to marshal computer record to YAML: %w", err)
	}

	xmlData, err := xml.Marshal(element{Xmlns: Namespace, YAML: string(data)})
	if err != nil {
		return fmt.Errorf("failed to marshal metadata to XML: %w", err)
	}

	err = c.DomainSetMetadata(
		dom,
		int32(libvirt.DomainMetadataElement),
		libvirt.OptString{string(xmlData)},
		libvirt.OptString{Key},
		libvirt.OptString{Namespace},
		libvirt.DomainAffectConfig,
	)
	if err != nil {
		return fmt.Errorf("failed to set libvirt domain metadata: %w", err)
	}
	return nil
}

// Load reads the record from the domain.
func Load(c Client, dom libvirt.Domain) (*Record, error) {
	raw, err := c.DomainGetMetadata(
		dom,
		int32(libvirt.DomainMetadataElement),
		libvirt.OptString{Namespace},
		libvirt.DomainAffectConfig,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to get libvirt domain metadata: %w", err)
	}

	var el element
	if err := xml.Unmarshal([]byte(raw), &el); err != nil {
		return nil, fmt.Errorf("failed to unmarshal metadata XML: %w", err)
	}

	var rec Record
	if err := yaml.Unmarshal([]byte(el.YAML), &rec); err != nil {
		return nil, fmt.Errorf("failed to unmarshal computer record: %w", err)
	}
	if rec.Computer.Name == "" {
		return nil, fmt.Errorf("computer record has no name")
	}
	return &rec, nil
}

// Exists reports whether the domain carries a record.
func Exists(c Client, dom libvirt.Domain) bool {
	_, err := c.DomainGetMetadata(
		dom,
		int32(libvirt.DomainMetadataElement),
		libvirt.OptString{Namespace},
		libvirt.DomainAffectConfig,
	)
	return err == nil
}
