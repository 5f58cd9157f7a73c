package registry

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Manifest is a file-based registry document, useful for air-gapped runs and
// fixtures. Alternatives maps a package name to its registered substitute.
type Manifest struct {
	Packages     []PackageInfo     `yaml:"packages"`
	Alternatives map[string]string `yaml:"alternatives,omitempty"`
}

// LoadManifest reads a YAML manifest and returns it as an in-memory provider.
func LoadManifest(path string) (*InMemory, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("registry: read manifest %s: %w", path, err)
	}

	var m Manifest
	if err := yaml.Unmarshal(raw, &m); err != nil {
		return nil, fmt.Errorf("registry: parse manifest %s: %w", path, err)
	}

	mem := NewInMemory()
	for _, info := range m.Packages {
		if info.Name == "" {
			return nil, fmt.Errorf("registry: manifest %s: package with empty name", path)
		}
		mem.Register(info)
	}
	for name, alt := range m.Alternatives {
		mem.RegisterAlternative(name, alt)
	}
	return mem, nil
}
