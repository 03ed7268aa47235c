package process

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"syscall"
	"time"
)

const defaultGracePeriod = 5 * time.Second

// Run executes a one-shot command and waits for it to finish. The
// command gets its own process group; canceling ctx sends SIGTERM to
// the whole group and escalates to SIGKILL once the grace period
// expires. Output is captured in full, so Run suits short probes and
// admin commands; long-running processes belong in Service.
func Run(ctx context.Context, cmd Command) (*Result, error) {
	if cmd.Binary == "" {
		return nil, fmt.Errorf("process: binary is required")
	}
	grace := cmd.GracePeriod
	if grace == 0 {
		grace = defaultGracePeriod
	}

	c := exec.CommandContext(ctx, cmd.Binary, cmd.Args...) //nolint:gosec // running caller-supplied commands is the point
	c.Dir = cmd.Dir
	c.Env = mergeEnv(cmd.Env)
	c.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
	if cmd.Stdin != nil {
		c.Stdin = cmd.Stdin
	}

	var stdout, stderr bytes.Buffer
	c.Stdout = &stdout
	c.Stderr = &stderr

	// Cancellation signals the group rather than SIGKILLing the
	// leader only; WaitDelay escalates after the grace period.
	c.Cancel = func() error {
		if c.Process == nil {
			return nil
		}
		return syscall.Kill(-c.Process.Pid, syscall.SIGTERM)
	}
	c.WaitDelay = grace

	started := time.Now()
	runErr := c.Run()

	res := &Result{
		Stdout:   stdout.Bytes(),
		Stderr:   stderr.Bytes(),
		ExitCode: c.ProcessState.ExitCode(),
		Duration: time.Since(started),
	}
	if runErr != nil {
		if ctx.Err() != nil {
			return res, fmt.Errorf("process: terminated by context: %w", ctx.Err())
		}
		return res, fmt.Errorf("process: exit code %d: %w", res.ExitCode, runErr)
	}
	return res, nil
}

// mergeEnv layers extra variables over the inherited environment. An
// empty extra slice keeps plain parent inheritance.
func mergeEnv(extra []string) []string {
	if len(extra) == 0 {
		return nil
	}
	return append(os.Environ(), extra...)
}
