// Package recovery implements the recovery coordinator of the svckit
// supervision core.
//
// A failing service is recovered through an escalating sequence of
// strategies (restart, then reconnect, then reinitialize), bounded by
// a maximum attempt count. Each strategy degrades gracefully when the
// handle exposes only part of the lifecycle contract, and success is
// verified through the handle's own health check before the attempt
// counter is reset.
package recovery
