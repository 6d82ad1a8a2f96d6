package schema

import (
	"fmt"
	"os"
)

// LoadDescriptorSetFile reads a serialized FileDescriptorSet from path and
// builds a registry from it (see LoadDescriptorSet).
func LoadDescriptorSetFile(path, enumName string) (*Registry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading descriptor set: %w", err)
	}
	return LoadDescriptorSet(data, enumName)
}
