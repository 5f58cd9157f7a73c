package resolver

import (
	"fmt"
	"strings"

	"github.com/bayleafwalker/quire/internal/conflict"
	"github.com/bayleafwalker/quire/internal/graph"
)

// PackageNotFoundError aborts a run: without metadata for a package no
// meaningful resolution is possible.
type PackageNotFoundError struct {
	Name string
	Err  error
}

func (e *PackageNotFoundError) Error() string {
	return fmt.Sprintf("package %q not found", e.Name)
}

func (e *PackageNotFoundError) Unwrap() error {
	return e.Err
}

// UnresolvableConflictError reports that blocking or breaking conflicts
// remain after the planner either hit its iteration ceiling or met a
// conflict that requires caller choice.
type UnresolvableConflictError struct {
	Iterations int
	Remaining  []conflict.Report
}

func (e *UnresolvableConflictError) Error() string {
	ids := make([]string, 0, len(e.Remaining))
	for _, r := range e.Remaining {
		ids = append(ids, r.ID)
	}
	return fmt.Sprintf("unresolvable after %d iterations: %d conflicts remain (%s)",
		e.Iterations, len(e.Remaining), strings.Join(ids, ", "))
}

// CircularDependencyError reports residual cycles in the resolved graph.
// An acyclic result is a hard invariant, so any cycle fails the run.
type CircularDependencyError struct {
	Cycles []graph.Cycle
}

func (e *CircularDependencyError) Error() string {
	chains := make([]string, 0, len(e.Cycles))
	for _, c := range e.Cycles {
		chains = append(chains, strings.Join(c, " -> "))
	}
	return fmt.Sprintf("circular dependencies detected: %s", strings.Join(chains, "; "))
}
