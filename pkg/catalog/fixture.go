package catalog

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// LoadFixture reads a YAML catalog snapshot into a Memory catalog
func LoadFixture(filePath string) (*Memory, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to read catalog fixture: %w", err)
	}
	return ParseFixture(data)
}

// ParseFixture parses a YAML catalog snapshot
func ParseFixture(data []byte) (*Memory, error) {
	var m Memory
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("failed to parse catalog fixture: %w", err)
	}
	return &m, nil
}
