package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"bu/internal/ast"
	"bu/internal/buildpipeline"
	"bu/internal/project"
)

var buildCmd = &cobra.Command{
	Use:   "build [flags] <program.tast> [-- args...]",
	Short: "Build a native executable from a typed program",
	Long: `Build lowers a type-checked program (a .tast file produced by the front end)
to LLVM IR, verifies and canonicalizes it, and compiles and links it with clang.
Settings from bu.toml apply unless overridden by flags.`,
	Args: cobra.MinimumNArgs(1),
	RunE: buildExecution,
}

func init() {
	addBuildFlags(buildCmd.Flags())
}

func addBuildFlags(fs *pflag.FlagSet) {
	fs.Bool("debug", false, "dump the unoptimized module and per-phase timings")
	fs.Bool("run", false, "run the executable after linking")
	fs.String("out-dir", "out", "directory for the object file and executable")
	fs.Bool("emit-llvm", false, "keep the emitted .ll files")
	fs.Bool("keep-tmp", false, "keep the temporary build directory")
	fs.Bool("print-commands", false, "print external tool invocations")
	fs.String("ui", "auto", "progress UI (auto|on|off)")
	fs.Duration("timeout", buildpipeline.DefaultTimeout, "deadline per external process (0 disables)")
}

// buildSettings are the effective options after merging bu.toml and flags.
type buildSettings struct {
	debug, run, emitLLVM, keepTmp, printCommands bool

	outDir    string
	timeout   time.Duration // 0 disables
	ui        uiMode
	toolchain buildpipeline.Toolchain
}

func buildExecution(cmd *cobra.Command, args []string) error {
	input := args[0]
	var runArgs []string
	if dash := cmd.ArgsLenAtDash(); dash >= 0 {
		if dash != 1 {
			return fmt.Errorf("expected exactly one program before --")
		}
		runArgs = args[dash:]
	} else if len(args) > 1 {
		return fmt.Errorf("unexpected arguments %v; pass program arguments after --", args[1:])
	}

	manifest, _, err := project.Load(".")
	if err != nil {
		return err
	}
	settings, err := resolveBuildSettings(cmd.Flags(), manifest)
	if err != nil {
		return err
	}

	prog, err := ast.ReadFile(input)
	if err != nil {
		return err
	}
	if prog.Path == "" {
		prog.Path = input
	}

	cleanup, err := setupTracing(cmd)
	if err != nil {
		return err
	}
	defer cleanup()
	stopProfiling, err := setupProfiling(cmd)
	if err != nil {
		return err
	}
	defer stopProfiling()

	timeout := settings.timeout
	if timeout == 0 {
		timeout = -1
	}
	req := &buildpipeline.BuildRequest{
		Program:       prog,
		OutDir:        settings.outDir,
		Debug:         settings.debug,
		EmitLLVM:      settings.emitLLVM,
		KeepTmp:       settings.keepTmp,
		PrintCommands: settings.printCommands,
		Run:           settings.run,
		RunArgs:       runArgs,
		Timeout:       timeout,
		Toolchain:     settings.toolchain,
		Stdout:        cmd.OutOrStdout(),
		DebugOut:      cmd.ErrOrStderr(),
	}

	var res buildpipeline.BuildResult
	if shouldUseTUI(settings.ui, settings.debug || settings.printCommands) {
		res, err = runBuildWithUI(cmd.Context(), prog.Path, req, cmd.OutOrStdout())
	} else {
		res, err = buildpipeline.Build(cmd.Context(), req)
	}
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "built %s\n", res.ExePath)
	if res.IRPath != "" {
		fmt.Fprintf(out, "llvm ir: %s\n", res.IRPath)
	}
	return nil
}

// resolveBuildSettings applies manifest values first and explicitly set
// flags on top.
func resolveBuildSettings(flags *pflag.FlagSet, manifest *project.Manifest) (buildSettings, error) {
	var s buildSettings
	var err error
	boolFlag := func(name string) bool {
		if err != nil {
			return false
		}
		var v bool
		v, err = flags.GetBool(name)
		return v
	}
	s.debug = boolFlag("debug")
	s.run = boolFlag("run")
	s.emitLLVM = boolFlag("emit-llvm")
	s.keepTmp = boolFlag("keep-tmp")
	s.printCommands = boolFlag("print-commands")
	if err != nil {
		return s, err
	}
	if s.outDir, err = flags.GetString("out-dir"); err != nil {
		return s, err
	}
	if s.timeout, err = flags.GetDuration("timeout"); err != nil {
		return s, err
	}
	uiValue, err := flags.GetString("ui")
	if err != nil {
		return s, err
	}
	if s.ui, err = readUIMode(uiValue); err != nil {
		return s, err
	}
	if s.timeout < 0 {
		return s, fmt.Errorf("invalid --timeout %s", s.timeout)
	}

	if manifest == nil {
		return s, nil
	}
	if dir, ok := manifest.OutDir(); ok && !flags.Changed("out-dir") {
		s.outDir = dir
	}
	if d, ok, err := manifest.Timeout(); err != nil {
		return s, err
	} else if ok && !flags.Changed("timeout") {
		s.timeout = d
	}
	if keep, ok := manifest.KeepTmp(); ok && !flags.Changed("keep-tmp") {
		s.keepTmp = keep
	}
	tc := manifest.Config.Toolchain
	s.toolchain = buildpipeline.Toolchain{Clang: tc.Clang, Opt: tc.Opt, Llc: tc.Llc, Linker: tc.Linker}
	return s, nil
}
