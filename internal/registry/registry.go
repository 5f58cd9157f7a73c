// Package registry defines the package metadata source the resolver consumes.
package registry

import (
	"context"
	"errors"

	"github.com/bayleafwalker/quire/internal/graph"
)

// ErrNotFound reports that a package is unknown to the provider.
var ErrNotFound = errors.New("package not found")

// PackageInfo is the metadata a provider declares for one package.
type PackageInfo struct {
	Name         string               `json:"name" yaml:"name"`
	Version      string               `json:"version" yaml:"version"`
	Dependencies []graph.Dependency   `json:"dependencies,omitempty" yaml:"dependencies,omitempty"`
	Conflicts    []string             `json:"conflicts,omitempty" yaml:"conflicts,omitempty"`
	License      graph.License        `json:"license" yaml:"license"`
	Platforms    []string             `json:"platforms,omitempty" yaml:"platforms,omitempty"`
	Origin       string               `json:"origin,omitempty" yaml:"origin,omitempty"`
	Security     graph.SecurityStatus `json:"security,omitempty" yaml:"security,omitempty"`
}

// Provider looks up package metadata by name.
//
// Lookups may be I/O-bound; implementations must honor ctx. A missing package
// is reported by an error wrapping ErrNotFound.
type Provider interface {
	GetPackageInfo(ctx context.Context, name string) (PackageInfo, error)
}

// AlternativeSource is an optional capability of a Provider: it advertises a
// substitute package with broader platform support for a given package name.
type AlternativeSource interface {
	Alternative(name string) (string, bool)
}

// Node converts provider metadata into a graph node.
func (p PackageInfo) Node() *graph.PackageNode {
	sec := p.Security
	if sec == "" {
		sec = graph.SecurityUnknown
	}
	return &graph.PackageNode{
		Name:          p.Name,
		Version:       p.Version,
		Dependencies:  p.Dependencies,
		ConflictsWith: p.Conflicts,
		Origin:        p.Origin,
		Security:      sec,
		License:       p.License,
		Platforms:     p.Platforms,
	}
}
