// Package resilience provides the circuit breaker guarding command
// dispatch to supervised services.
//
// The registry keeps one breaker per service: repeated command
// failures open the breaker so callers fail fast while the health
// monitor and recovery coordinator work on the service, and a cooldown
// lets traffic probe through again once it may have recovered.
package resilience
