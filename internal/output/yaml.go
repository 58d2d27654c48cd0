package output

import (
	"bytes"
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/jbweber/vaultvm/api/v1alpha1"
)

// YAMLFormatter formats records as YAML.
type YAMLFormatter struct{}

// FormatSetup formats a single Setup as YAML.
func (f *YAMLFormatter) FormatSetup(s *v1alpha1.Setup) (string, error) {
	v1alpha1.SetDefaultAPIVersion(s)

	data, err := yaml.Marshal(s)
	if err != nil {
		return "", fmt.Errorf("failed to marshal setup to YAML: %w", err)
	}

	return string(data), nil
}

// FormatSetupList formats records as a YAML stream, one document each.
func (f *YAMLFormatter) FormatSetupList(setups []*v1alpha1.Setup) (string, error) {
	var buf bytes.Buffer

	for i, s := range setups {
		v1alpha1.SetDefaultAPIVersion(s)

		data, err := yaml.Marshal(s)
		if err != nil {
			return "", fmt.Errorf("failed to marshal setup %s to YAML: %w", s.Name, err)
		}

		if i > 0 {
			buf.WriteString("---\n")
		}
		buf.Write(data)
	}

	return buf.String(), nil
}
