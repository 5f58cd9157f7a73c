// Package conflict classifies incompatibilities among packages in a
// dependency graph and proposes resolution strategies for them.
package conflict

import (
	"fmt"
	"sort"
	"strings"
)

// Type is the class of a detected conflict.
type Type string

const (
	TypeVersion  Type = "version"
	TypeDirect   Type = "direct"
	TypeLicense  Type = "license"
	TypePlatform Type = "platform"
)

// Severity orders conflicts for the planner. Higher is more urgent.
type Severity int

const (
	SeverityAdvisory Severity = iota + 1
	SeverityWarning
	SeverityBreaking
	SeverityBlocking
)

func (s Severity) String() string {
	switch s {
	case SeverityAdvisory:
		return "advisory"
	case SeverityWarning:
		return "warning"
	case SeverityBreaking:
		return "breaking"
	case SeverityBlocking:
		return "blocking"
	default:
		return fmt.Sprintf("severity(%d)", int(s))
	}
}

// Actionable reports whether a conflict of this severity gates resolution.
// Advisory and Warning conflicts are carried for visibility only.
func (s Severity) Actionable() bool {
	return s >= SeverityBreaking
}

// StrategyKind is a resolution mutation the planner knows how to apply.
type StrategyKind string

const (
	StrategyPinVersion      StrategyKind = "pin-version"
	StrategySubstitute      StrategyKind = "substitute"
	StrategyNarrowPlatforms StrategyKind = "narrow-platforms"
	StrategyManualReview    StrategyKind = "manual-review"
	StrategyDefer           StrategyKind = "defer"
)

// Strategy is one candidate resolution for a conflict.
type Strategy struct {
	Kind StrategyKind
	// Package is the base package name the mutation applies to.
	Package string
	// Version is the version to pin, for StrategyPinVersion.
	Version string
	// Replacement is the substitute package name, for StrategySubstitute.
	Replacement string
	// Platforms is the narrowed target set, for StrategyNarrowPlatforms.
	Platforms []string
	Note      string
}

func (s Strategy) String() string {
	switch s.Kind {
	case StrategyPinVersion:
		return fmt.Sprintf("pin %s to %s", s.Package, s.Version)
	case StrategySubstitute:
		return fmt.Sprintf("substitute %s with %s", s.Package, s.Replacement)
	case StrategyNarrowPlatforms:
		return fmt.Sprintf("narrow target platforms to [%s]", strings.Join(s.Platforms, ", "))
	case StrategyManualReview:
		return fmt.Sprintf("flag %s for manual review", s.Package)
	default:
		return "defer to caller"
	}
}

// Report is one detected conflict. IDs are derived from the conflict type and
// the sorted member packages, so identical graphs always yield identical ids;
// the planner relies on this for its deterministic tie-break.
type Report struct {
	ID         string
	Type       Type
	Severity   Severity
	Packages   []string
	Candidates []Strategy
	// Recommended is nil when the conflict requires caller choice.
	Recommended *Strategy
	Detail      string
}

func reportID(t Type, packages []string) string {
	sorted := append([]string(nil), packages...)
	sort.Strings(sorted)
	return string(t) + ":" + strings.Join(sorted, "+")
}

// SortReports orders reports by severity descending, then by id ascending.
func SortReports(reports []Report) {
	sort.SliceStable(reports, func(i, j int) bool {
		if reports[i].Severity != reports[j].Severity {
			return reports[i].Severity > reports[j].Severity
		}
		return reports[i].ID < reports[j].ID
	})
}
