// Package service defines the shared contracts between a supervised
// service and the svckit supervision core.
//
// A service is identified by a stable string ID and represented by an
// opaque handle. The handle may implement any subset of the optional
// lifecycle interfaces (Starter, Stopper, Restarter, Reconnector,
// Resetter, Initializer, HealthChecker, Executor); the registry,
// health monitor, and recovery coordinator probe for each capability
// with a type assertion and degrade gracefully when one is missing.
//
// # Interfaces
//
//   - HealthChecker: self-reported health (handles without it are
//     assumed healthy)
//   - Restarter / Starter / Stopper / Initializer: restart remedies
//   - Reconnector / Resetter: escalated recovery remedies
//   - Executor: generic command pass-through
package service
