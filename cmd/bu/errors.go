package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"bu/internal/diag"
)

const (
	exitFailure  = 1
	exitInternal = 2
)

var errorPrefix = color.New(color.FgRed, color.Bold)

// reportError prints err as one diagnostic line and returns the process
// exit code. Internal errors also dump the module that was being built.
func reportError(w io.Writer, err error) int {
	fmt.Fprintf(w, "%s %s\n", errorPrefix.Sprint("error:"), err)

	var te *diag.ToolchainError
	if errors.As(err, &te) && len(te.Args) > 0 {
		fmt.Fprintf(w, "  command: %s\n", te.Command())
	}
	if ie, ok := diag.AsInternal(err); ok {
		if ie.Dump != "" {
			fmt.Fprintf(w, "; module at failure\n%s\n", strings.TrimRight(ie.Dump, "\n"))
		}
		return exitInternal
	}
	return exitFailure
}

func setupColor(cmd *cobra.Command) error {
	mode, err := cmd.Root().PersistentFlags().GetString("color")
	if err != nil {
		return err
	}
	switch mode {
	case "on":
		color.NoColor = false
	case "off":
		color.NoColor = true
	case "auto":
		color.NoColor = !isTerminal(os.Stderr)
	default:
		return fmt.Errorf("invalid --color value %q (expected auto|on|off)", mode)
	}
	return nil
}
