// Package registry implements the top-level service supervisor of
// svckit: a single-process, in-memory registry that tracks long-lived
// background services, resolves their dependency ordering, polls their
// health, and escalates recovery until a failing service is either
// restored or evicted.
//
// # Lifecycle
//
//	reg := registry.New(registry.DefaultConfig())
//	reg.Register(service.Description{ID: "translator", Instance: engine})
//	reg.StartMonitoring()
//	defer reg.StopMonitoring()
//
// Failure handling runs unattended: probe failures and recovery
// outcomes surface as events on the registry's bus and as health
// queries, never as errors thrown from the background subsystems.
package registry
