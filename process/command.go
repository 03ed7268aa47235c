package process

import (
	"io"
	"time"
)

// Command describes a subprocess: the long-running one a Service
// supervises, or a one-shot invocation handed to Run.
type Command struct {
	// Binary is the executable path or name (resolved via PATH).
	Binary string
	// Args are the command-line arguments.
	Args []string
	// Dir is the working directory. Empty means the current directory.
	Dir string
	// Env holds extra key=value variables layered over os.Environ.
	Env []string
	// Stdin provides input to one-shot commands. Ignored by Service.
	Stdin io.Reader
	// GracePeriod is how long SIGTERM gets before SIGKILL. Defaults
	// to 5 seconds.
	GracePeriod time.Duration
}
