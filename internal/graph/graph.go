// Package graph models the dependency graph a single resolution run operates on.
//
// A graph holds at most one node per canonical package name. Nodes are created
// by the graph builder and mutated only by the resolution planner; detectors
// treat the graph as read-only.
package graph

import (
	"sort"
	"strings"
)

// SecurityStatus is the advisory state attached to a package by its source.
type SecurityStatus string

const (
	SecuritySafe       SecurityStatus = "safe"
	SecurityWarning    SecurityStatus = "warning"
	SecurityVulnerable SecurityStatus = "vulnerable"
	SecurityUnknown    SecurityStatus = "unknown"
)

// LicenseKind is the coarse license class used by the license conflict policy.
type LicenseKind string

const (
	LicensePermissive  LicenseKind = "permissive"
	LicenseCopyleft    LicenseKind = "copyleft"
	LicenseProprietary LicenseKind = "proprietary"
	LicenseUnknown     LicenseKind = "unknown"
)

// License describes a package license.
type License struct {
	Kind                LicenseKind `json:"kind" yaml:"kind"`
	DistributionAllowed bool        `json:"distributionAllowed" yaml:"distributionAllowed"`
}

// Dependency is one declared dependency of a package.
//
// Constraint is a semver constraint string; empty means "any version".
type Dependency struct {
	Name       string `json:"name" yaml:"name"`
	Constraint string `json:"constraint,omitempty" yaml:"constraint,omitempty"`
	Optional   bool   `json:"optional,omitempty" yaml:"optional,omitempty"`
}

// PackageNode is a single package in the graph, keyed by Name.
//
// Name may carry an "@version" qualifier (e.g. "lib@2.0.0") when a specific
// version was requested or declared; BaseName strips the qualifier.
type PackageNode struct {
	Name          string
	Version       string
	Dependencies  []Dependency
	ConflictsWith []string
	Origin        string
	Security      SecurityStatus
	License       License
	Platforms     []string
}

// EdgeKind classifies a dependency edge.
type EdgeKind string

const (
	EdgeRequired EdgeKind = "required"
	EdgeOptional EdgeKind = "optional"
)

// DependencyEdge is a directed "requires" relationship. Immutable after build
// except for retargeting when the planner merges or substitutes nodes.
type DependencyEdge struct {
	From string
	To   string
	Kind EdgeKind
}

// DependencyGraph is the mutable state of one resolution run.
type DependencyGraph struct {
	Nodes map[string]*PackageNode
	Edges []DependencyEdge
}

func New() *DependencyGraph {
	return &DependencyGraph{Nodes: make(map[string]*PackageNode)}
}

// BaseName strips an "@version" qualifier from a package name.
func BaseName(name string) string {
	if i := strings.Index(name, "@"); i >= 0 {
		return name[:i]
	}
	return name
}

// AddNode inserts n if no node with the same name exists yet and reports
// whether the insert happened.
func (g *DependencyGraph) AddNode(n *PackageNode) bool {
	if _, ok := g.Nodes[n.Name]; ok {
		return false
	}
	g.Nodes[n.Name] = n
	return true
}

func (g *DependencyGraph) Node(name string) (*PackageNode, bool) {
	n, ok := g.Nodes[name]
	return n, ok
}

func (g *DependencyGraph) AddEdge(from, to string, kind EdgeKind) {
	g.Edges = append(g.Edges, DependencyEdge{From: from, To: to, Kind: kind})
}

// Remove deletes the named node together with its outgoing edges. Incoming
// edges are kept; callers retarget them first when the removal is a merge or
// a substitution.
func (g *DependencyGraph) Remove(name string) {
	delete(g.Nodes, name)
	edges := g.Edges[:0]
	for _, e := range g.Edges {
		if e.From == name {
			continue
		}
		edges = append(edges, e)
	}
	g.Edges = edges
}

// Retarget repoints every edge ending at old to point at new instead.
// Self-edges produced by the rewrite are dropped.
func (g *DependencyGraph) Retarget(old, new string) {
	edges := g.Edges[:0]
	for _, e := range g.Edges {
		if e.To == old {
			e.To = new
		}
		if e.From == e.To {
			continue
		}
		edges = append(edges, e)
	}
	g.Edges = edges
}

// Rename changes a node's key, rewriting edges on both ends.
func (g *DependencyGraph) Rename(old, new string) {
	n, ok := g.Nodes[old]
	if !ok || old == new {
		return
	}
	delete(g.Nodes, old)
	n.Name = new
	g.Nodes[new] = n
	for i := range g.Edges {
		if g.Edges[i].From == old {
			g.Edges[i].From = new
		}
		if g.Edges[i].To == old {
			g.Edges[i].To = new
		}
	}
}

// SortedNames returns all node names in lexical order. Every
// determinism-sensitive step iterates the graph through this.
func (g *DependencyGraph) SortedNames() []string {
	names := make([]string, 0, len(g.Nodes))
	for name := range g.Nodes {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Dependents returns the names of nodes with a required edge into name,
// in lexical order.
func (g *DependencyGraph) Dependents(name string) []string {
	seen := make(map[string]bool)
	for _, e := range g.Edges {
		if e.To == name && e.Kind == EdgeRequired {
			seen[e.From] = true
		}
	}
	out := make([]string, 0, len(seen))
	for from := range seen {
		out = append(out, from)
	}
	sort.Strings(out)
	return out
}
