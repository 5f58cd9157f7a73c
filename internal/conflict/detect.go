package conflict

import (
	"fmt"
	"sort"
	"strings"

	"github.com/bayleafwalker/quire/internal/graph"
	"github.com/bayleafwalker/quire/internal/semver"
)

// Detector runs the four conflict policies over a graph. Detection is
// read-only; the same detector can be run repeatedly as the planner mutates
// the graph between passes.
type Detector struct {
	// TargetPlatforms is the caller's required platform set. The planner
	// narrows it when applying a narrow-platforms strategy.
	TargetPlatforms []string
	// Roots marks the requested packages; a root is always "required" for
	// direct conflict severity.
	Roots map[string]bool
	// ExtraConstraints carries per-base-name constraints that do not live on
	// any node: requested version constraints and lock record pins.
	ExtraConstraints map[string][]string
	// Alternatives reports a registered substitute for a package, or false.
	// May be nil.
	Alternatives func(name string) (string, bool)
}

// Detect runs the policies in a fixed order (version, direct, license,
// platform) so the report list is deterministic for a given graph.
func (d *Detector) Detect(g *graph.DependencyGraph) []Report {
	var reports []Report
	reports = append(reports, d.detectVersion(g)...)
	reports = append(reports, d.detectDirect(g)...)
	reports = append(reports, d.detectLicense(g)...)
	reports = append(reports, d.detectPlatform(g)...)
	return reports
}

// detectVersion groups nodes by base name. More than one distinct version for
// a base name is a conflict; severity depends on whether a single version can
// satisfy every consumer constraint.
func (d *Detector) detectVersion(g *graph.DependencyGraph) []Report {
	groups := make(map[string][]string)
	for _, name := range g.SortedNames() {
		base := graph.BaseName(name)
		groups[base] = append(groups[base], name)
	}

	bases := make([]string, 0, len(groups))
	for base, members := range groups {
		if len(members) > 1 {
			bases = append(bases, base)
		}
	}
	sort.Strings(bases)

	var reports []Report
	for _, base := range bases {
		members := groups[base]

		var constraints []semver.Constraint
		parseable := true
		for _, raw := range d.constraintsOn(g, base) {
			c, err := semver.ParseConstraint(raw)
			if err != nil {
				parseable = false
				continue
			}
			constraints = append(constraints, c)
		}

		var versions []semver.Version
		for _, member := range members {
			node := g.Nodes[member]
			v, err := semver.ParseVersion(node.Version)
			if err != nil {
				parseable = false
				continue
			}
			versions = append(versions, v)
		}

		report := Report{
			Type:     TypeVersion,
			Packages: append([]string(nil), members...),
		}
		report.ID = reportID(TypeVersion, []string{base})

		if best, ok := semver.MaxSatisfyingAll(constraints, versions); ok && parseable {
			pin := Strategy{Kind: StrategyPinVersion, Package: base, Version: best.String()}
			report.Severity = SeverityAdvisory
			report.Candidates = []Strategy{pin}
			report.Recommended = &pin
			report.Detail = fmt.Sprintf("%s appears as %d versions; %s satisfies all consumers", base, len(members), best)
		} else {
			report.Severity = SeverityBlocking
			report.Detail = fmt.Sprintf("no single version of %s satisfies all consumers", base)
			if highest, ok := semver.Max(versions); ok {
				pin := Strategy{
					Kind:    StrategyPinVersion,
					Package: base,
					Version: highest.String(),
					Note:    "accept a downgrade warning for incompatible consumers",
				}
				report.Candidates = []Strategy{pin, {Kind: StrategyDefer, Package: base}}
				report.Recommended = &pin
			} else {
				report.Candidates = []Strategy{{Kind: StrategyDefer, Package: base}}
			}
		}
		reports = append(reports, report)
	}
	return reports
}

// constraintsOn collects every declared constraint on a base name: consumer
// dependency declarations plus any extra constraints (requests, lock pins).
func (d *Detector) constraintsOn(g *graph.DependencyGraph, base string) []string {
	var out []string
	for _, name := range g.SortedNames() {
		for _, dep := range g.Nodes[name].Dependencies {
			if graph.BaseName(dep.Name) != base || dep.Constraint == "" {
				continue
			}
			out = append(out, dep.Constraint)
		}
	}
	out = append(out, d.ExtraConstraints[base]...)
	return out
}

// detectDirect reports every pair of nodes where one declares the other in
// its conflict set. An explicit conflict declaration overrides automated
// reasoning, so no strategy is recommended.
func (d *Detector) detectDirect(g *graph.DependencyGraph) []Report {
	seen := make(map[string]bool)
	var reports []Report
	for _, name := range g.SortedNames() {
		node := g.Nodes[name]
		for _, declared := range node.ConflictsWith {
			for _, other := range g.SortedNames() {
				if other == name || graph.BaseName(other) != graph.BaseName(declared) {
					continue
				}
				id := reportID(TypeDirect, []string{name, other})
				if seen[id] {
					continue
				}
				seen[id] = true

				severity := SeverityBreaking
				if d.isRequired(g, name) || d.isRequired(g, other) {
					severity = SeverityBlocking
				}
				reports = append(reports, Report{
					ID:       id,
					Type:     TypeDirect,
					Severity: severity,
					Packages: sortedPair(name, other),
					Detail:   fmt.Sprintf("%s explicitly conflicts with %s", name, other),
				})
			}
		}
	}
	SortReports(reports)
	return reports
}

func (d *Detector) isRequired(g *graph.DependencyGraph, name string) bool {
	if d.Roots[name] || d.Roots[graph.BaseName(name)] {
		return true
	}
	for _, e := range g.Edges {
		if e.To == name && e.Kind == graph.EdgeRequired {
			return true
		}
	}
	return false
}

// licenseIncompatible is the static license compatibility matrix. Copyleft
// material alongside proprietary-only material needs legal review.
var licenseIncompatible = map[graph.LicenseKind]map[graph.LicenseKind]bool{
	graph.LicenseCopyleft:    {graph.LicenseProprietary: true},
	graph.LicenseProprietary: {graph.LicenseCopyleft: true},
}

// detectLicense emits a Warning for every incompatible license pairing. It
// never auto-resolves; the recommendation is always manual legal review.
func (d *Detector) detectLicense(g *graph.DependencyGraph) []Report {
	names := g.SortedNames()
	var reports []Report
	for i, a := range names {
		for _, b := range names[i+1:] {
			la, lb := g.Nodes[a].License, g.Nodes[b].License
			incompatible := licenseIncompatible[la.Kind][lb.Kind] ||
				(la.Kind == graph.LicenseCopyleft && !lb.DistributionAllowed && lb.Kind != graph.LicenseUnknown) ||
				(lb.Kind == graph.LicenseCopyleft && !la.DistributionAllowed && la.Kind != graph.LicenseUnknown)
			if !incompatible {
				continue
			}
			review := Strategy{Kind: StrategyManualReview, Package: a, Note: "license compatibility requires legal review"}
			reports = append(reports, Report{
				ID:          reportID(TypeLicense, []string{a, b}),
				Type:        TypeLicense,
				Severity:    SeverityWarning,
				Packages:    sortedPair(a, b),
				Candidates:  []Strategy{review},
				Recommended: &review,
				Detail:      fmt.Sprintf("%s (%s) and %s (%s) have incompatible licenses", a, la.Kind, b, lb.Kind),
			})
		}
	}
	return reports
}

// detectPlatform checks every node's declared platform support against the
// caller's target set. A node declaring no platforms supports all of them.
func (d *Detector) detectPlatform(g *graph.DependencyGraph) []Report {
	if len(d.TargetPlatforms) == 0 {
		return nil
	}
	var reports []Report
	for _, name := range g.SortedNames() {
		node := g.Nodes[name]
		if len(node.Platforms) == 0 {
			continue
		}
		supported := make(map[string]bool, len(node.Platforms))
		for _, p := range node.Platforms {
			supported[p] = true
		}
		var missing, covered []string
		for _, target := range d.TargetPlatforms {
			if supported[target] {
				covered = append(covered, target)
			} else {
				missing = append(missing, target)
			}
		}
		if len(missing) == 0 {
			continue
		}

		report := Report{
			ID:       reportID(TypePlatform, []string{name}),
			Type:     TypePlatform,
			Severity: SeverityBreaking,
			Packages: []string{name},
			Detail:   fmt.Sprintf("%s does not support target platforms [%s]", name, strings.Join(missing, ", ")),
		}
		if d.Alternatives != nil {
			if alt, ok := d.Alternatives(graph.BaseName(name)); ok {
				sub := Strategy{Kind: StrategySubstitute, Package: name, Replacement: alt}
				report.Candidates = append(report.Candidates, sub)
				report.Recommended = &sub
			}
		}
		if len(covered) > 0 {
			narrow := Strategy{Kind: StrategyNarrowPlatforms, Package: name, Platforms: covered}
			report.Candidates = append(report.Candidates, narrow)
			if report.Recommended == nil {
				report.Recommended = &narrow
			}
		}
		if len(report.Candidates) == 0 {
			report.Candidates = []Strategy{{Kind: StrategyDefer, Package: name}}
		}
		reports = append(reports, report)
	}
	return reports
}

func sortedPair(a, b string) []string {
	if a < b {
		return []string{a, b}
	}
	return []string{b, a}
}
