package registry

import (
	"context"
	"fmt"
	"sync"
)

// InMemory is a Provider backed by a map. It is the provider used in tests
// and by manifest-file registries.
type InMemory struct {
	mu           sync.RWMutex
	packages     map[string]PackageInfo
	alternatives map[string]string
}

func NewInMemory() *InMemory {
	return &InMemory{
		packages:     make(map[string]PackageInfo),
		alternatives: make(map[string]string),
	}
}

// Register adds or replaces a package. The map key is the package name as
// declared, including any "@version" qualifier.
func (m *InMemory) Register(info PackageInfo) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.packages[info.Name] = info
}

// RegisterAlternative advertises alt as a substitute for name.
func (m *InMemory) RegisterAlternative(name, alt string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.alternatives[name] = alt
}

func (m *InMemory) GetPackageInfo(ctx context.Context, name string) (PackageInfo, error) {
	if err := ctx.Err(); err != nil {
		return PackageInfo{}, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	info, ok := m.packages[name]
	if !ok {
		return PackageInfo{}, fmt.Errorf("registry: %q: %w", name, ErrNotFound)
	}
	return info, nil
}

// Alternative implements AlternativeSource.
func (m *InMemory) Alternative(name string) (string, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	alt, ok := m.alternatives[name]
	return alt, ok
}
