package process

import (
	"strings"
	"time"
)

// Result captures the outcome of a one-shot command: full output
// streams, the exit code, and wall-clock runtime. Health probes and
// admin commands judge success by Succeeded and surface Stderr in
// health records.
type Result struct {
	Stdout []byte
	Stderr []byte
	// ExitCode is -1 when the process was killed by a signal.
	ExitCode int
	Duration time.Duration
}

// Succeeded reports whether the command exited cleanly.
func (r *Result) Succeeded() bool { return r.ExitCode == 0 }

// Text returns stdout as trimmed text.
func (r *Result) Text() string {
	return strings.TrimSpace(string(r.Stdout))
}

// ErrorText returns stderr as trimmed text.
func (r *Result) ErrorText() string {
	return strings.TrimSpace(string(r.Stderr))
}
