package graph

import "sort"

// Cycle is a dependency loop, listed as the nodes along the loop with the
// starting node repeated at the end (e.g. [A B A]).
type Cycle []string

// FindCycles walks the graph depth-first and returns every residual cycle.
//
// Traversal order is normalized (nodes and adjacency sorted by name) so the
// reported cycles are identical across runs over the same graph. Edges whose
// target node has been removed by the planner are skipped.
func (g *DependencyGraph) FindCycles() []Cycle {
	adj := make(map[string][]string, len(g.Nodes))
	for _, e := range g.Edges {
		if _, ok := g.Nodes[e.To]; !ok {
			continue
		}
		if _, ok := g.Nodes[e.From]; !ok {
			continue
		}
		adj[e.From] = append(adj[e.From], e.To)
	}
	for from := range adj {
		sort.Strings(adj[from])
	}

	const (
		white = iota // unvisited
		grey         // on the recursion stack
		black        // fully explored
	)
	color := make(map[string]int, len(g.Nodes))
	var stack []string
	var cycles []Cycle

	var visit func(name string)
	visit = func(name string) {
		color[name] = grey
		stack = append(stack, name)
		for _, next := range adj[name] {
			switch color[next] {
			case white:
				visit(next)
			case grey:
				// The cycle is the stack slice from next back to itself.
				start := 0
				for i, s := range stack {
					if s == next {
						start = i
						break
					}
				}
				cycle := make(Cycle, 0, len(stack)-start+1)
				cycle = append(cycle, stack[start:]...)
				cycle = append(cycle, next)
				cycles = append(cycles, cycle)
			}
		}
		stack = stack[:len(stack)-1]
		color[name] = black
	}

	for _, name := range g.SortedNames() {
		if color[name] == white {
			visit(name)
		}
	}
	return cycles
}
