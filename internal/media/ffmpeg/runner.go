package ffmpeg

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strconv"
	"strings"

	"golang.org/x/sys/unix"
)

// Command describes one child process invocation.
type Command struct {
	Binary string
	Args   []string
	// Dir is the working directory; empty inherits the caller's.
	Dir string
}

func (c Command) String() string {
	return strings.TrimSpace(c.Binary + " " + strings.Join(c.Args, " "))
}

// Result captures the output of a finished process.
type Result struct {
	Stdout   []byte
	Stderr   []byte
	ExitCode int
}

// Runner executes external tools. Implementations must return an *ExitError
// when the process exits non-zero, with Result still populated.
type Runner interface {
	Run(ctx context.Context, cmd Command) (Result, error)
}

// ExitError reports a non-zero exit status.
type ExitError struct {
	Binary string
	Code   int
	Stderr string
}

func (e *ExitError) Error() string {
	if e.Stderr == "" {
		return fmt.Sprintf("%s exited with status %d", e.Binary, e.Code)
	}
	return fmt.Sprintf("%s exited with status %d: %s", e.Binary, e.Code, e.Stderr)
}

// ExecRunner runs commands with os/exec. A non-zero Nice is applied to each
// child before it executes, through nice(1) when it is on PATH. Without it
// the child is reniced right after it starts, which misses any threads the
// tool spawned in between.
type ExecRunner struct {
	Nice int
}

func (r ExecRunner) command(ctx context.Context, cmd Command) (*exec.Cmd, bool) {
	if r.Nice != 0 {
		if nice, err := exec.LookPath("nice"); err == nil {
			args := append([]string{"-n", strconv.Itoa(r.Nice), cmd.Binary}, cmd.Args...)
			return exec.CommandContext(ctx, nice, args...), true
		}
	}
	return exec.CommandContext(ctx, cmd.Binary, cmd.Args...), false
}

// Run starts cmd, waits for it, and returns its captured output.
func (r ExecRunner) Run(ctx context.Context, cmd Command) (Result, error) {
	if strings.TrimSpace(cmd.Binary) == "" {
		return Result{}, errors.New("run: empty binary")
	}
	c, niced := r.command(ctx, cmd)
	c.Dir = cmd.Dir
	var stdout, stderr bytes.Buffer
	c.Stdout = &stdout
	c.Stderr = &stderr

	if err := c.Start(); err != nil {
		return Result{}, fmt.Errorf("start %s: %w", cmd.Binary, err)
	}
	if r.Nice != 0 && !niced {
		// Best effort: an unprivileged user may not lower niceness.
		_ = unix.Setpriority(unix.PRIO_PROCESS, c.Process.Pid, r.Nice)
	}
	waitErr := c.Wait()

	res := Result{Stdout: stdout.Bytes(), Stderr: stderr.Bytes()}
	if waitErr == nil {
		return res, nil
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		res.ExitCode = -1
		return res, fmt.Errorf("%s: %w", cmd.Binary, ctxErr)
	}
	var exitErr *exec.ExitError
	if errors.As(waitErr, &exitErr) {
		res.ExitCode = exitErr.ExitCode()
		return res, &ExitError{Binary: cmd.Binary, Code: res.ExitCode, Stderr: Tail(res.Stderr, 4)}
	}
	return res, fmt.Errorf("wait %s: %w", cmd.Binary, waitErr)
}

// Tail returns the last n non-empty lines of output, joined by " | ".
// Carriage-return progress updates count as separate lines.
func Tail(output []byte, n int) string {
	lines := splitLines(string(output))
	kept := make([]string, 0, n)
	for i := len(lines) - 1; i >= 0 && len(kept) < n; i-- {
		if line := strings.TrimSpace(lines[i]); line != "" {
			kept = append(kept, line)
		}
	}
	for i, j := 0, len(kept)-1; i < j; i, j = i+1, j-1 {
		kept[i], kept[j] = kept[j], kept[i]
	}
	return strings.Join(kept, " | ")
}

func splitLines(s string) []string {
	return strings.FieldsFunc(s, func(r rune) bool { return r == '\n' || r == '\r' })
}
