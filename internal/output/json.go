package output

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/jbweber/vaultvm/api/v1alpha1"
)

// JSONFormatter formats records as JSON.
type JSONFormatter struct{}

// FormatSetup formats a single Setup as JSON.
func (f *JSONFormatter) FormatSetup(s *v1alpha1.Setup) (string, error) {
	v1alpha1.SetDefaultAPIVersion(s)

	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to marshal setup to JSON: %w", err)
	}

	return string(data) + "\n", nil
}

// FormatSetupList formats records as a Kubernetes-style list object:
//
//	{
//	  "apiVersion": "vaultvm.cofront.xyz/v1alpha1",
//	  "kind": "SetupList",
//	  "items": [...]
//	}
func (f *JSONFormatter) FormatSetupList(setups []*v1alpha1.Setup) (string, error) {
	for _, s := range setups {
		v1alpha1.SetDefaultAPIVersion(s)
	}
	if setups == nil {
		setups = []*v1alpha1.Setup{}
	}

	wrapper := map[string]interface{}{
		"apiVersion": v1alpha1.GroupName + "/" + v1alpha1.Version,
		"kind":       v1alpha1.SetupKind + "List",
		"items":      setups,
	}

	var buf bytes.Buffer
	encoder := json.NewEncoder(&buf)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(wrapper); err != nil {
		return "", fmt.Errorf("failed to marshal setup list to JSON: %w", err)
	}

	return buf.String(), nil
}
