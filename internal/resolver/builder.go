package resolver

import (
	"context"
	"errors"
	"sort"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/bayleafwalker/quire/internal/graph"
	"github.com/bayleafwalker/quire/internal/registry"
)

// fetch looks up package metadata, memoized for the lifetime of the run so a
// diamond dependency hits the provider exactly once.
func (r *run) fetch(ctx context.Context, name string) (registry.PackageInfo, error) {
	r.mu.Lock()
	info, ok := r.memo[name]
	r.mu.Unlock()
	if ok {
		return info, nil
	}

	info, err := r.engine.provider.GetPackageInfo(ctx, name)
	if err != nil {
		return registry.PackageInfo{}, err
	}

	r.mu.Lock()
	r.memo[name] = info
	r.mu.Unlock()
	return info, nil
}

// fetchAll resolves a whole frontier with bounded parallelism. Any provider
// miss fails the batch with a PackageNotFoundError.
func (r *run) fetchAll(ctx context.Context, names []string) (map[string]registry.PackageInfo, error) {
	out := make(map[string]registry.PackageInfo, len(names))
	var mu sync.Mutex

	eg, ctx := errgroup.WithContext(ctx)
	eg.SetLimit(r.engine.opts.MaxInFlight)
	for _, name := range names {
		name := name
		eg.Go(func() error {
			info, err := r.fetch(ctx, name)
			if err != nil {
				if errors.Is(err, registry.ErrNotFound) {
					return &PackageNotFoundError{Name: name, Err: err}
				}
				return err
			}
			mu.Lock()
			out[name] = info
			mu.Unlock()
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

// expand grows the graph breadth-first from the given seed names until the
// transitive closure is present. Frontier results are merged in name order so
// the graph never depends on fetch completion order.
func (r *run) expand(ctx context.Context, g *graph.DependencyGraph, seeds []string) error {
	pending := make(map[string]bool)
	var frontier []string
	enqueue := func(name string) {
		if pending[name] {
			return
		}
		if _, ok := g.Node(name); ok {
			return
		}
		pending[name] = true
		frontier = append(frontier, name)
	}
	for _, seed := range seeds {
		enqueue(seed)
	}

	for len(frontier) > 0 {
		sort.Strings(frontier)
		batch := frontier
		frontier = nil

		infos, err := r.fetchAll(ctx, batch)
		if err != nil {
			return err
		}

		for _, name := range batch {
			delete(pending, name)
			info := infos[name]
			node := info.Node()
			// The graph key is the name the package was requested under,
			// which may carry a version qualifier the provider omits.
			node.Name = name
			if !g.AddNode(node) {
				continue
			}
			r.log.Debug("package discovered",
				zap.String("package", name),
				zap.String("version", node.Version),
				zap.Int("dependencies", len(node.Dependencies)))
			for _, dep := range node.Dependencies {
				kind := graph.EdgeRequired
				if dep.Optional {
					kind = graph.EdgeOptional
				}
				g.AddEdge(name, dep.Name, kind)
				enqueue(dep.Name)
			}
		}
	}
	return nil
}
