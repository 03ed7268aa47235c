// Package eventbus provides the in-process pub/sub fabric used by the
// svckit supervision core for registry notifications (registration,
// health failures, recovery outcomes).
//
// Listeners run synchronously on the publisher's goroutine. Panics in
// a listener are caught and logged so a misbehaving observer cannot
// break the publisher or starve other listeners.
package eventbus
