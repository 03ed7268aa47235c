package depgraph

import (
	"testing"
)

func indexOf(order []string, id string) int {
	for i, v := range order {
		if v == id {
			return i
		}
	}
	return -1
}

func setOf(ids ...string) map[string]struct{} {
	m := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		m[id] = struct{}{}
	}
	return m
}

func TestSatisfiedNoDeps(t *testing.T) {
	g := New()
	g.SetDependencies("a", nil)

	if !g.Satisfied("a", setOf("a")) {
		t.Error("a service with no dependencies must be trivially satisfied")
	}
}

func TestSatisfied(t *testing.T) {
	g := New()
	g.SetDependencies("s2", []string{"s1"})

	if !g.Satisfied("s2", setOf("s1", "s2")) {
		t.Error("expected s2 to be satisfied when s1 is registered")
	}
	if g.Satisfied("s2", setOf("s2")) {
		t.Error("expected s2 to be unsatisfied without s1")
	}
}

func TestClear(t *testing.T) {
	g := New()
	g.SetDependencies("a", []string{"b"})
	g.Clear("a")

	if deps := g.Dependencies("a"); len(deps) != 0 {
		t.Errorf("expected no dependencies after Clear, got %v", deps)
	}
}

func TestHasCycle(t *testing.T) {
	g := New()
	g.SetDependencies("a", []string{"b"})
	g.SetDependencies("b", []string{"c"})
	g.SetDependencies("c", []string{"a"})

	if !g.HasCycle() {
		t.Error("expected cycle a->b->c->a to be detected")
	}
}

func TestHasCycleAcyclic(t *testing.T) {
	g := New()
	g.SetDependencies("a", []string{"b"})
	g.SetDependencies("b", []string{"c"})
	g.SetDependencies("c", nil)

	if g.HasCycle() {
		t.Error("acyclic graph reported a cycle")
	}
}

func TestHasCycleSelfLoop(t *testing.T) {
	g := New()
	g.SetDependencies("a", []string{"a"})

	if !g.HasCycle() {
		t.Error("expected self-dependency to count as a cycle")
	}
}

func TestHasCycleIgnoresUnknownDeps(t *testing.T) {
	g := New()
	g.SetDependencies("a", []string{"ghost"})

	if g.HasCycle() {
		t.Error("edge to an unregistered id cannot form a cycle")
	}
}

func TestResolutionOrder(t *testing.T) {
	g := New()
	g.SetDependencies("api", []string{"db", "cache"})
	g.SetDependencies("cache", []string{"db"})
	g.SetDependencies("db", nil)
	g.SetDependencies("worker", []string{"api"})

	order := g.ResolutionOrder()
	if len(order) != 4 {
		t.Fatalf("expected 4 ids, got %v", order)
	}

	for id, deps := range map[string][]string{
		"api":    {"db", "cache"},
		"cache":  {"db"},
		"worker": {"api"},
	} {
		for _, dep := range deps {
			if indexOf(order, dep) > indexOf(order, id) {
				t.Errorf("%s must come after %s in %v", id, dep, order)
			}
		}
	}
}

func TestResolutionOrderExample(t *testing.T) {
	g := New()
	g.SetDependencies("S1", nil)
	g.SetDependencies("S2", []string{"S1"})

	order := g.ResolutionOrder()
	if len(order) != 2 || order[0] != "S1" || order[1] != "S2" {
		t.Fatalf("expected [S1 S2], got %v", order)
	}

	g.Clear("S1")
	if g.Satisfied("S2", setOf("S2")) {
		t.Error("S2 must be unsatisfied after S1 is removed")
	}
}

func TestResolutionOrderTerminatesOnCycle(t *testing.T) {
	g := New()
	g.SetDependencies("a", []string{"b"})
	g.SetDependencies("b", []string{"a"})

	order := g.ResolutionOrder()
	if len(order) != 2 {
		t.Errorf("expected both ids to be emitted even with a cycle, got %v", order)
	}
}

func TestDependents(t *testing.T) {
	g := New()
	g.SetDependencies("api", []string{"db"})
	g.SetDependencies("worker", []string{"db"})
	g.SetDependencies("db", nil)

	got := g.Dependents("db")
	if len(got) != 2 || got[0] != "api" || got[1] != "worker" {
		t.Errorf("expected [api worker], got %v", got)
	}
	if deps := g.Dependents("api"); len(deps) != 0 {
		t.Errorf("expected no dependents for api, got %v", deps)
	}
}

func TestLevels(t *testing.T) {
	g := New()
	g.SetDependencies("db", nil)
	g.SetDependencies("cache", nil)
	g.SetDependencies("api", []string{"db", "cache"})

	levels, err := g.Levels()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(levels) != 2 {
		t.Fatalf("expected 2 levels, got %v", levels)
	}
	if len(levels[0]) != 2 {
		t.Errorf("expected db and cache in level 0, got %v", levels[0])
	}
	if len(levels[1]) != 1 || levels[1][0] != "api" {
		t.Errorf("expected api in level 1, got %v", levels[1])
	}
}

func TestLevelsCycle(t *testing.T) {
	g := New()
	g.SetDependencies("a", []string{"b"})
	g.SetDependencies("b", []string{"a"})

	if _, err := g.Levels(); err == nil {
		t.Error("expected error for cyclic graph")
	}
}

func TestSetDependenciesCopies(t *testing.T) {
	g := New()
	deps := []string{"x"}
	g.SetDependencies("a", deps)
	deps[0] = "mutated"

	if got := g.Dependencies("a"); got[0] != "x" {
		t.Errorf("graph must copy the dependency slice, got %v", got)
	}
}
