package diag

import (
	"fmt"
	"strings"
)

// ToolchainError is a failed invocation of an external tool.
type ToolchainError struct {
	Tool   string
	Args   []string
	Stderr string
	Err    error
}

func (e *ToolchainError) Error() string {
	msg := strings.TrimSpace(e.Stderr)
	if msg == "" && e.Err != nil {
		msg = e.Err.Error()
	}
	return fmt.Sprintf("%s failed: %s", e.Tool, msg)
}

func (e *ToolchainError) Unwrap() error { return e.Err }

// Command renders the invocation the way a shell would show it.
func (e *ToolchainError) Command() string {
	return strings.Join(append([]string{e.Tool}, e.Args...), " ")
}
