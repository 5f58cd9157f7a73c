package resolver

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/bayleafwalker/quire/internal/conflict"
	"github.com/bayleafwalker/quire/internal/graph"
	"github.com/bayleafwalker/quire/internal/registry"
)

// Engine is the default Resolver. It holds no per-run state: every Resolve
// call owns an isolated graph, detector and metadata cache, so concurrent
// runs never share mutable state.
type Engine struct {
	provider     registry.Provider
	alternatives func(name string) (string, bool)
	opts         Options
	log          *zap.Logger
}

// New builds an Engine around the given metadata provider. If the provider
// also implements registry.AlternativeSource, registered substitutes are
// offered for platform conflicts.
func New(provider registry.Provider, opts Options, log *zap.Logger) *Engine {
	if log == nil {
		log = zap.NewNop()
	}
	e := &Engine{
		provider: provider,
		opts:     opts.withDefaults(),
		log:      log,
	}
	if alt, ok := provider.(registry.AlternativeSource); ok {
		e.alternatives = alt.Alternative
	}
	return e
}

// run carries the state owned by a single Resolve invocation.
type run struct {
	engine *Engine
	log    *zap.Logger

	mu   sync.Mutex
	memo map[string]registry.PackageInfo
}

func (e *Engine) Resolve(ctx context.Context, requested []PackageSpec) (Result, error) {
	runID := uuid.NewString()
	log := e.log.With(zap.String("runId", runID))
	start := time.Now()
	resolutionsTotal.Inc()
	defer func() {
		resolutionDuration.Observe(time.Since(start).Seconds())
	}()

	res := Result{
		RunID:     runID,
		Requested: append([]PackageSpec(nil), requested...),
	}

	r := &run{
		engine: e,
		log:    log,
		memo:   make(map[string]registry.PackageInfo),
	}

	log.Info("resolution started",
		zap.Int("requested", len(requested)),
		zap.Strings("targetPlatforms", e.opts.TargetPlatforms))

	g := graph.New()
	seeds := make([]string, 0, len(requested))
	for _, spec := range requested {
		seeds = append(seeds, spec.Name)
	}
	if err := r.expand(ctx, g, seeds); err != nil {
		reason := failureProvider
		switch {
		case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
			reason = failureCanceled
			// A cancelled run must not leak a partially-built graph.
			res.Graph = nil
		case errors.Is(err, registry.ErrNotFound):
			reason = failureNotFound
			res.Graph = g
			res.Errs = append(res.Errs, err)
		default:
			res.Graph = g
		}
		resolutionFailuresTotal.WithLabelValues(reason).Inc()
		log.Warn("graph build failed", zap.Error(err))
		return res, err
	}
	res.Graph = g

	det := &conflict.Detector{
		TargetPlatforms:  append([]string(nil), e.opts.TargetPlatforms...),
		Roots:            rootSet(requested),
		ExtraConstraints: extraConstraints(requested, e.opts.Pins),
		Alternatives:     e.alternatives,
	}

	seen, plan, planErr := r.plan(ctx, g, det)
	res.Conflicts = seen
	res.Plan = plan
	if planErr != nil {
		var unresolvable *UnresolvableConflictError
		if !errors.As(planErr, &unresolvable) {
			// Provider failure or cancellation during a substitution.
			resolutionFailuresTotal.WithLabelValues(failureProvider).Inc()
			log.Warn("planning failed", zap.Error(planErr))
			return res, planErr
		}
		res.Errs = append(res.Errs, planErr)
		resolutionFailuresTotal.WithLabelValues(failureUnresolvable).Inc()
	}

	if cycles := g.FindCycles(); len(cycles) > 0 {
		res.Errs = append(res.Errs, &CircularDependencyError{Cycles: cycles})
		resolutionFailuresTotal.WithLabelValues(failureCycle).Inc()
	}

	assemble(&res, g)
	log.Info("resolution finished",
		zap.Bool("resolved", res.Resolved),
		zap.Int("conflicts", len(res.Conflicts)),
		zap.Int("steps", len(res.Plan.Steps)),
		zap.Duration("took", time.Since(start)))
	return res, nil
}

// assemble packages the final state for the caller. On failure the partial
// graph and all conflicts seen stay on the result for diagnostics.
func assemble(res *Result, g *graph.DependencyGraph) {
	res.Resolved = len(res.Errs) == 0
	if !res.Resolved {
		return
	}
	res.FinalPackages = g.SortedNames()
	res.Plan.FinalPackages = res.FinalPackages
}

func rootSet(requested []PackageSpec) map[string]bool {
	roots := make(map[string]bool, len(requested))
	for _, spec := range requested {
		roots[spec.Name] = true
	}
	return roots
}

// extraConstraints folds requested version constraints and lock record pins
// into per-base-name constraint lists for the version conflict policy.
func extraConstraints(requested []PackageSpec, pins map[string]string) map[string][]string {
	out := make(map[string][]string)
	for _, spec := range requested {
		if spec.Constraint == "" {
			continue
		}
		base := graph.BaseName(spec.Name)
		out[base] = append(out[base], spec.Constraint)
	}
	for name, version := range pins {
		base := graph.BaseName(name)
		out[base] = append(out[base], "="+version)
	}
	return out
}
