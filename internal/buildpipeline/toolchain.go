package buildpipeline

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"strings"
	"time"

	"bu/internal/diag"
	"bu/internal/trace"
)

// DefaultTimeout bounds every external process unless configured otherwise.
const DefaultTimeout = 60 * time.Second

const waitDelay = time.Second

// commandRunner runs external tools with a per-process deadline and
// captures their stderr.
type commandRunner struct {
	timeout       time.Duration // 0 disables the deadline
	printCommands bool
	echo          io.Writer // receives printed commands
	tracer        trace.Tracer
	parent        uint64
}

// output runs name and returns its stdout. A failure is a
// *diag.ToolchainError carrying the captured stderr.
func (r *commandRunner) output(ctx context.Context, name string, args ...string) ([]byte, error) {
	if r.printCommands && r.echo != nil {
		if _, err := fmt.Fprintf(r.echo, "%s %s\n", name, strings.Join(args, " ")); err != nil {
			return nil, fmt.Errorf("failed to print command: %w", err)
		}
	}
	trace.Point(r.tracer, trace.ScopePass, "exec", name+" "+strings.Join(args, " "), r.parent)

	ctx, cancel := r.deadline(ctx)
	defer cancel()

	// #nosec G204 -- tool names come from configuration, arguments from the pipeline
	cmd := exec.CommandContext(ctx, name, args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	cmd.WaitDelay = waitDelay // children may keep the pipes open
	if err := cmd.Run(); err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			err = fmt.Errorf("timed out after %s: %w", r.timeout, ctx.Err())
		}
		return stdout.Bytes(), &diag.ToolchainError{Tool: name, Args: args, Stderr: stderr.String(), Err: err}
	}
	return stdout.Bytes(), nil
}

func (r *commandRunner) run(ctx context.Context, name string, args ...string) error {
	_, err := r.output(ctx, name, args...)
	return err
}

func (r *commandRunner) deadline(ctx context.Context) (context.Context, context.CancelFunc) {
	if r.timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, r.timeout)
}

// lookTool resolves a tool on PATH.
func lookTool(name string) (string, error) {
	p, err := exec.LookPath(name)
	if err != nil {
		return "", &diag.ToolchainError{
			Tool: name,
			Err:  fmt.Errorf("not found; install with: sudo apt-get update && sudo apt-get install -y clang llvm lld: %w", err),
		}
	}
	return p, nil
}

// hostTriple asks clang for the default target triple. It returns "" when
// clang is unavailable.
func (r *commandRunner) hostTriple(ctx context.Context, clang string) string {
	out, err := r.output(ctx, clang, "-dumpmachine")
	if err != nil {
		return ""
	}
	return strings.TrimSpace(string(out))
}
