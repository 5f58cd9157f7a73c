package resolver

import (
	"go.uber.org/multierr"

	"github.com/bayleafwalker/quire/internal/conflict"
	"github.com/bayleafwalker/quire/internal/graph"
)

// PackageSpec is one requested package: a name plus an optional semver
// constraint.
type PackageSpec struct {
	Name       string
	Constraint string
}

// Step records one applied resolution strategy.
type Step struct {
	ConflictID string
	Strategy   conflict.Strategy
}

// Plan is the ordered sequence of mutations the planner applied, plus the
// package list the mutated graph settled on. Immutable once the run ends.
type Plan struct {
	Steps         []Step
	FinalPackages []string
}

// Result is the terminal artifact of a resolution run.
//
// Conflict-class failures (unresolvable conflicts, residual cycles) are
// reported here with Resolved=false and a nil error from Resolve; only
// metadata provider failures and cancellation surface as hard errors.
type Result struct {
	RunID         string
	Requested     []PackageSpec
	Graph         *graph.DependencyGraph
	Conflicts     []conflict.Report
	Plan          Plan
	FinalPackages []string
	Resolved      bool
	Errs          []error
}

// Err combines the structured errors carried by the result, or nil.
func (r *Result) Err() error {
	return multierr.Combine(r.Errs...)
}
