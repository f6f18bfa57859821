// Package subprocess runs external commands as scoped resources: the
// command either finishes within its context or is torn down, so a
// hung speech command or audio player can never outlive a request.
package subprocess

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"time"

	"github.com/charmbracelet/log"
)

// Errors callers can match on to classify a failed run.
var (
	// ErrNotFound means the binary could not be located or spawned.
	ErrNotFound = errors.New("command not found")

	// ErrTimedOut means the context deadline expired and the process
	// was killed.
	ErrTimedOut = errors.New("command timed out")
)

// waitDelay is how long a process gets to exit after its context is
// cancelled before it is killed outright.
const waitDelay = 3 * time.Second

// Runner executes commands with a default timeout. The zero value is
// not usable; construct with NewRunner.
type Runner struct {
	defaultTimeout time.Duration
}

// NewRunner creates a runner. A non-positive timeout falls back to 30s.
func NewRunner(timeout time.Duration) *Runner {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Runner{defaultTimeout: timeout}
}

// Run executes the command, discarding stdout. See Output.
func (r *Runner) Run(ctx context.Context, name string, args ...string) error {
	_, err := r.Output(ctx, name, args...)
	return err
}

// Output executes the command and returns its stdout. Arguments are
// passed verbatim as separate argv elements; nothing is ever handed to
// a shell, so caller-supplied text cannot inject a second command.
//
// The command runs under ctx (bounded by the default timeout when ctx
// has no deadline). On expiry the child is interrupted, then killed
// after a short grace period, and ErrTimedOut is returned.
func (r *Runner) Output(ctx context.Context, name string, args ...string) ([]byte, error) {
	return r.run(ctx, nil, name, args...)
}

// RunWithStdin is Run with the given reader wired to the child's
// stdin. Stdin is attached before the process starts, so the child can
// never race ahead of its input.
func (r *Runner) RunWithStdin(ctx context.Context, stdin io.Reader, name string, args ...string) error {
	_, err := r.run(ctx, stdin, name, args...)
	return err
}

func (r *Runner) run(ctx context.Context, stdin io.Reader, name string, args ...string) ([]byte, error) {
	if _, err := exec.LookPath(name); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrNotFound, name, err)
	}

	if _, hasDeadline := ctx.Deadline(); !hasDeadline {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.defaultTimeout)
		defer cancel()
	}

	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Stdin = stdin
	cmd.WaitDelay = waitDelay

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	start := time.Now()
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrNotFound, name, err)
	}

	err := cmd.Wait()
	log.Debug("Subprocess finished", "command", name, "duration", time.Since(start), "err", err)

	if ctx.Err() == context.DeadlineExceeded {
		return nil, fmt.Errorf("%w: %s after %s", ErrTimedOut, name, time.Since(start).Round(time.Millisecond))
	}
	if ctx.Err() != nil {
		return nil, fmt.Errorf("%s cancelled: %w", name, ctx.Err())
	}
	if err != nil {
		if msg := stderr.String(); msg != "" {
			return nil, fmt.Errorf("%s failed: %w: %s", name, err, msg)
		}
		return nil, fmt.Errorf("%s failed: %w", name, err)
	}

	return stdout.Bytes(), nil
}
