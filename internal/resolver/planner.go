package resolver

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"go.uber.org/zap"

	"github.com/bayleafwalker/quire/internal/conflict"
	"github.com/bayleafwalker/quire/internal/graph"
	"github.com/bayleafwalker/quire/internal/registry"
)

// plan drives the fixed-point loop: detect, apply the single
// highest-priority applicable strategy, re-detect, repeat. One mutation per
// pass, because resolving one conflict can introduce another.
//
// Advisory conflicts never gate success, but advisory pins are still applied
// so duplicate versions collapse into a single package.
func (r *run) plan(ctx context.Context, g *graph.DependencyGraph, det *conflict.Detector) ([]conflict.Report, Plan, error) {
	var all []conflict.Report
	firstSeen := make(map[string]bool)
	record := func(reports []conflict.Report) {
		for _, rep := range reports {
			if firstSeen[rep.ID] {
				continue
			}
			firstSeen[rep.ID] = true
			all = append(all, rep)
			conflictsDetectedTotal.WithLabelValues(string(rep.Type)).Inc()
		}
	}

	var plan Plan
	iterations := 0
	defer func() {
		resolutionIterations.Observe(float64(iterations))
	}()

	for iterations < r.engine.opts.MaxIterations {
		iterations++
		reports := det.Detect(g)
		record(reports)
		conflict.SortReports(reports)

		actionable := filterActionable(reports)
		next, ok := nextMutation(reports, actionable)
		if !ok {
			if len(actionable) > 0 {
				// The top actionable conflict offers no automatic strategy;
				// more iterations cannot change that.
				return all, plan, &UnresolvableConflictError{Iterations: iterations, Remaining: actionable}
			}
			// Fixed point: nothing left to apply.
			return all, plan, nil
		}

		if err := r.apply(ctx, g, det, next); err != nil {
			return all, plan, err
		}
		plan.Steps = append(plan.Steps, Step{ConflictID: next.ID, Strategy: *next.Recommended})
		r.log.Info("conflict resolved",
			zap.String("conflict", next.ID),
			zap.String("severity", next.Severity.String()),
			zap.String("strategy", next.Recommended.String()))
	}

	// Ceiling reached; a final detection decides whether the run failed.
	reports := det.Detect(g)
	record(reports)
	conflict.SortReports(reports)
	if actionable := filterActionable(reports); len(actionable) > 0 {
		return all, plan, &UnresolvableConflictError{Iterations: iterations, Remaining: actionable}
	}
	return all, plan, nil
}

func filterActionable(reports []conflict.Report) []conflict.Report {
	var out []conflict.Report
	for _, rep := range reports {
		if rep.Severity.Actionable() {
			out = append(out, rep)
		}
	}
	return out
}

// nextMutation picks the conflict whose recommended strategy the planner
// applies this pass. Actionable conflicts come first; if the most urgent one
// cannot be acted on, the planner must not skip past it. With no actionable
// conflicts left, pending advisory mutations (version pins) are drained.
func nextMutation(reports, actionable []conflict.Report) (conflict.Report, bool) {
	if len(actionable) > 0 {
		top := actionable[0]
		if isMutation(top.Recommended) {
			return top, true
		}
		return conflict.Report{}, false
	}
	for _, rep := range reports {
		if isMutation(rep.Recommended) {
			return rep, true
		}
	}
	return conflict.Report{}, false
}

func isMutation(s *conflict.Strategy) bool {
	if s == nil {
		return false
	}
	switch s.Kind {
	case conflict.StrategyPinVersion, conflict.StrategySubstitute, conflict.StrategyNarrowPlatforms:
		return true
	default:
		return false
	}
}

func (r *run) apply(ctx context.Context, g *graph.DependencyGraph, det *conflict.Detector, rep conflict.Report) error {
	s := rep.Recommended
	switch s.Kind {
	case conflict.StrategyPinVersion:
		pinVersion(g, det, s.Package, s.Version)
		return nil
	case conflict.StrategySubstitute:
		return r.substitute(ctx, g, det, s.Package, s.Replacement)
	case conflict.StrategyNarrowPlatforms:
		det.TargetPlatforms = append([]string(nil), s.Platforms...)
		return nil
	default:
		return fmt.Errorf("planner: strategy %q is not applicable", s.Kind)
	}
}

// pinVersion collapses every node of a base package into the single member
// carrying the pinned version, rekeyed under the base name.
func pinVersion(g *graph.DependencyGraph, det *conflict.Detector, base, version string) {
	var members []string
	for _, name := range g.SortedNames() {
		if graph.BaseName(name) == base {
			members = append(members, name)
		}
	}
	if len(members) == 0 {
		return
	}

	keep := members[0]
	for _, m := range members {
		if n, ok := g.Node(m); ok && n.Version == version {
			keep = m
			break
		}
	}

	for _, m := range members {
		if m == keep {
			continue
		}
		g.Retarget(m, keep)
		g.Remove(m)
		if det.Roots[m] {
			delete(det.Roots, m)
			det.Roots[base] = true
		}
	}
	g.Rename(keep, base)
	if det.Roots[keep] {
		delete(det.Roots, keep)
		det.Roots[base] = true
	}
	if n, ok := g.Node(base); ok {
		n.Version = version
	}
}

// substitute swaps a node for its registered alternative and pulls in the
// alternative's transitive dependencies.
func (r *run) substitute(ctx context.Context, g *graph.DependencyGraph, det *conflict.Detector, old, replacement string) error {
	g.Retarget(old, replacement)
	g.Remove(old)
	if det.Roots[old] {
		delete(det.Roots, old)
		det.Roots[replacement] = true
	}
	if err := r.expand(ctx, g, []string{replacement}); err != nil {
		if errors.Is(err, registry.ErrNotFound) {
			return fmt.Errorf("planner: substitute %s: %w", old, err)
		}
		return err
	}
	sortEdges(g)
	return nil
}

// sortEdges renormalizes edge order after a structural mutation.
func sortEdges(g *graph.DependencyGraph) {
	sort.Slice(g.Edges, func(i, j int) bool {
		if g.Edges[i].From != g.Edges[j].From {
			return g.Edges[i].From < g.Edges[j].From
		}
		return g.Edges[i].To < g.Edges[j].To
	})
}
