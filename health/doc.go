// Package health implements the pull-based health monitor of the
// svckit supervision core.
//
// Each tracked service moves through the states
// starting -> healthy <-> degraded/unhealthy until it is untracked.
// Probes are sequential and bounded by a per-probe timeout; a probe
// that panics, errors, or hangs yields an unhealthy record instead of
// crashing the monitor.
package health
