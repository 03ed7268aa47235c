// Package depgraph tracks dependency relationships between supervised
// service IDs: cycle detection, topological resolution order, and
// reverse (dependent) lookups.
//
// The graph tolerates forward references — a service may declare a
// dependency that has not registered yet; such edges are ignored by
// the ordering algorithms until the dependency appears.
package depgraph
