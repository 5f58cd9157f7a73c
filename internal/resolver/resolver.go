package resolver

import "context"

// Resolver computes a conflict-free installation plan for a set of requested
// packages.
type Resolver interface {
	Resolve(ctx context.Context, requested []PackageSpec) (Result, error)
}

// Options tune a resolution Engine. The zero value is usable.
type Options struct {
	// TargetPlatforms is the platform set the final package list must cover.
	// Empty disables platform conflict detection.
	TargetPlatforms []string
	// Pins are name -> version constraints from a prior lock record.
	Pins map[string]string
	// MaxIterations bounds the planner's fixed-point loop. Default 10.
	MaxIterations int
	// MaxInFlight bounds concurrent metadata lookups. Default 8.
	MaxInFlight int
}

const (
	defaultMaxIterations = 10
	defaultMaxInFlight   = 8
)

func (o Options) withDefaults() Options {
	if o.MaxIterations <= 0 {
		o.MaxIterations = defaultMaxIterations
	}
	if o.MaxInFlight <= 0 {
		o.MaxInFlight = defaultMaxInFlight
	}
	return o
}
