// Package process executes OS subprocesses with graceful termination.
//
// Run handles one-shot commands: it captures stdout and stderr, runs
// the command in its own process group, and on context cancellation
// sends SIGTERM to the group before escalating to SIGKILL after the
// grace period.
//
// Service wraps a long-running process as a supervisable handle with
// Start, Stop, Restart, CheckHealth, and Execute, so a registry can
// monitor, recover, and command external processes alongside
// in-process services. Health probes and admin commands run through
// Run: an optional health check command decides health while the
// process is alive, and Execute invokes admin subcommands of the
// service binary.
package process
