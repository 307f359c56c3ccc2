package buildpipeline

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"time"
)

// RunResult is the captured outcome of running the built program.
type RunResult struct {
	Stdout   string
	Stderr   string
	ExitCode int
}

// RunError reports a program that exited with a non-zero code.
type RunError struct {
	Path     string
	ExitCode int
}

func (e *RunError) Error() string {
	return fmt.Sprintf("%s exited with code %d", e.Path, e.ExitCode)
}

// runProgram executes path and captures its output. A non-zero exit is not
// an error here; only a failure to start or a timeout is.
func runProgram(ctx context.Context, timeout time.Duration, path string, args []string) (*RunResult, error) {
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}
	// #nosec G204 -- path is the executable this build just linked
	cmd := exec.CommandContext(ctx, path, args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	cmd.WaitDelay = waitDelay // children may keep the pipes open

	err := cmd.Run()
	res := &RunResult{Stdout: stdout.String(), Stderr: stderr.String()}
	var exitErr *exec.ExitError
	switch {
	case err == nil:
	case ctx.Err() != nil:
		return res, fmt.Errorf("run %s: %w", path, ctx.Err())
	case errors.As(err, &exitErr):
		res.ExitCode = exitErr.ExitCode()
	default:
		return nil, fmt.Errorf("run %s: %w", path, err)
	}
	return res, nil
}

// reportRun prints the captured output between markers followed by the exit
// code in hex and decimal.
func reportRun(w io.Writer, res *RunResult) {
	fmt.Fprintln(w, "==== BEGIN OUTPUT ====")
	fmt.Fprint(w, res.Stdout)
	if res.Stderr != "" {
		fmt.Fprint(w, res.Stderr)
	}
	if n := len(res.Stdout); n > 0 && res.Stdout[n-1] != '\n' {
		fmt.Fprintln(w)
	}
	fmt.Fprintln(w, "==== END OUTPUT ====")
	fmt.Fprintf(w, "exit code: 0x%X (%d)\n", res.ExitCode, res.ExitCode)
}
