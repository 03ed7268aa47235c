package depgraph

import (
	"fmt"
	"sort"
	"sync"
)

// Graph tracks, per service ID, the ordered set of service IDs it
// depends on. Dependencies may reference IDs that are not (yet) in the
// graph; those edges are traversed as leaves until the dependency
// registers itself.
type Graph struct {
	mu   sync.RWMutex
	deps map[string][]string
}

// New creates an empty dependency graph.
func New() *Graph {
	return &Graph{deps: make(map[string][]string)}
}

// SetDependencies records the dependency list for id, replacing any
// previous list. deps are not validated for existence.
func (g *Graph) SetDependencies(id string, deps []string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.deps[id] = append([]string(nil), deps...)
}

// Clear removes id and its outgoing edges from the graph. Edges from
// other nodes pointing at id are kept; they simply become unsatisfied.
func (g *Graph) Clear(id string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	delete(g.deps, id)
}

// Dependencies returns the declared dependency list for id.
func (g *Graph) Dependencies(id string) []string {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return append([]string(nil), g.deps[id]...)
}

// Satisfied reports whether every declared dependency of id is a key
// of registered. A service with no dependencies is trivially satisfied.
func (g *Graph) Satisfied(id string, registered map[string]struct{}) bool {
	g.mu.RLock()
	defer g.mu.RUnlock()

	for _, dep := range g.deps[id] {
		if _, ok := registered[dep]; !ok {
			return false
		}
	}
	return true
}

// Dependents returns the IDs that declare id as a dependency, sorted.
func (g *Graph) Dependents(id string) []string {
	g.mu.RLock()
	defer g.mu.RUnlock()

	var out []string
	for node, deps := range g.deps {
		for _, dep := range deps {
			if dep == id {
				out = append(out, node)
				break
			}
		}
	}
	sort.Strings(out)
	return out
}

// HasCycle reports whether the graph contains a dependency cycle.
// Edges to IDs that are not nodes of the graph cannot close a cycle
// and are ignored.
func (g *Graph) HasCycle() bool {
	g.mu.RLock()
	defer g.mu.RUnlock()

	const (
		unvisited = 0
		inStack   = 1
		done      = 2
	)
	state := make(map[string]int, len(g.deps))

	var visit func(id string) bool
	visit = func(id string) bool {
		state[id] = inStack
		for _, dep := range g.deps[id] {
			if _, known := g.deps[dep]; !known {
				continue
			}
			switch state[dep] {
			case inStack:
				return true
			case unvisited:
				if visit(dep) {
					return true
				}
			}
		}
		state[id] = done
		return false
	}

	for id := range g.deps {
		if state[id] == unvisited && visit(id) {
			return true
		}
	}
	return false
}

// ResolutionOrder returns a topological ordering of the graph's IDs in
// which every ID appears after all of its dependencies. The traversal
// is an iterative depth-first post-order collection; it terminates
// even when the graph is cyclic, but the order is then meaningless —
// callers check HasCycle first.
func (g *Graph) ResolutionOrder() []string {
	g.mu.RLock()
	defer g.mu.RUnlock()

	roots := make([]string, 0, len(g.deps))
	for id := range g.deps {
		roots = append(roots, id)
	}
	sort.Strings(roots)

	visited := make(map[string]bool, len(g.deps))
	order := make([]string, 0, len(g.deps))

	type frame struct {
		id   string
		next int
	}

	for _, root := range roots {
		if visited[root] {
			continue
		}
		visited[root] = true
		stack := []frame{{id: root}}

		for len(stack) > 0 {
			top := &stack[len(stack)-1]
			deps := g.deps[top.id]

			advanced := false
			for top.next < len(deps) {
				dep := deps[top.next]
				top.next++
				if _, known := g.deps[dep]; !known || visited[dep] {
					continue
				}
				visited[dep] = true
				stack = append(stack, frame{id: dep})
				advanced = true
				break
			}
			if advanced {
				continue
			}

			order = append(order, top.id)
			stack = stack[:len(stack)-1]
		}
	}
	return order
}

// Levels groups the graph's IDs into dependency levels using Kahn's
// algorithm: every ID in level n depends only on IDs in levels < n, so
// IDs within one level can be started in parallel. Returns an error if
// the graph contains a cycle.
func (g *Graph) Levels() ([][]string, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()

	inDegree := make(map[string]int, len(g.deps))
	dependents := make(map[string][]string)

	for id := range g.deps {
		inDegree[id] = 0
	}
	for id, deps := range g.deps {
		for _, dep := range deps {
			if _, known := g.deps[dep]; !known {
				continue
			}
			inDegree[id]++
			dependents[dep] = append(dependents[dep], id)
		}
	}

	var queue []string
	for id, deg := range inDegree {
		if deg == 0 {
			queue = append(queue, id)
		}
	}
	sort.Strings(queue)

	var levels [][]string
	visited := 0

	for len(queue) > 0 {
		levels = append(levels, queue)
		visited += len(queue)

		var next []string
		for _, id := range queue {
			for _, dep := range dependents[id] {
				inDegree[dep]--
				if inDegree[dep] == 0 {
					next = append(next, dep)
				}
			}
		}
		sort.Strings(next)
		queue = next
	}

	if visited != len(g.deps) {
		return nil, fmt.Errorf("depgraph: cycle detected, processed %d of %d nodes", visited, len(g.deps))
	}
	return levels, nil
}
