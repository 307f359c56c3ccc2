// Package buildpipeline turns a typed program into a native executable:
// lower, verify, canonicalize, emit an object, link and optionally run it.
package buildpipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/llir/llvm/ir"

	"bu/internal/ast"
	"bu/internal/backend/llvm"
	"bu/internal/diag"
	"bu/internal/layout"
	"bu/internal/observ"
	"bu/internal/trace"
)

// CanonicalPasses is the fixed opt pipeline applied before code generation.
const CanonicalPasses = "mem2reg,instcombine,reassociate,gvn"

// BuildRequest configures one build.
type BuildRequest struct {
	Program *ast.Program

	OutDir        string // default "out"
	Debug         bool   // dump the unoptimized module and phase timings
	EmitLLVM      bool   // keep the .ll files
	KeepTmp       bool
	PrintCommands bool
	Run           bool
	RunArgs       []string
	Timeout       time.Duration // per external process; negative disables
	Toolchain     Toolchain
	Target        *layout.Target // nil asks clang for the host triple

	Stdout   io.Writer // command echo, run output framing; default os.Stdout
	DebugOut io.Writer // default os.Stderr
	Progress ProgressSink
	Tracer   trace.Tracer
}

// BuildResult captures build artefacts and timings.
type BuildResult struct {
	ObjectPath string
	ExePath    string
	TmpDir     string
	IRPath     string // canonicalized module, when kept
	Module     *ir.Module
	Timings    Timings
	Phases     *observ.Timer
	Run        *RunResult
}

type build struct {
	req    *BuildRequest
	res    *BuildResult
	file   string
	tc     Toolchain
	runner *commandRunner
	timer  *observ.Timer
	span   *trace.Span
}

// Build runs the whole pipeline. Internal errors come back as
// *diag.InternalError with the module dump attached, tool failures as
// *diag.ToolchainError and a non-zero program exit as *RunError.
func Build(ctx context.Context, req *BuildRequest) (BuildResult, error) {
	var result BuildResult
	if req == nil || req.Program == nil {
		return result, fmt.Errorf("missing build request")
	}
	if ctx == nil {
		ctx = context.Background()
	}
	reqCopy := *req
	req = &reqCopy
	if req.OutDir == "" {
		req.OutDir = "out"
	}
	if req.Stdout == nil {
		req.Stdout = os.Stdout
	}
	if req.DebugOut == nil {
		req.DebugOut = os.Stderr
	}
	if req.Tracer == nil {
		req.Tracer = trace.FromContext(ctx)
	}
	timeout := req.Timeout
	switch {
	case timeout == 0:
		timeout = DefaultTimeout
	case timeout < 0:
		timeout = 0
	}

	b := &build{
		req:   req,
		res:   &result,
		file:  sourceName(req.Program),
		tc:    req.Toolchain.withDefaults(),
		timer: observ.NewTimer(),
	}
	b.span = trace.Begin(req.Tracer, trace.ScopeDriver, "build", trace.CurrentSpan(ctx))
	defer b.span.End("")
	b.runner = &commandRunner{
		timeout:       timeout,
		printCommands: req.PrintCommands,
		echo:          req.Stdout,
		tracer:        req.Tracer,
		parent:        b.span.ID(),
	}
	result.Phases = b.timer
	emitQueued(req.Progress, b.file)

	err := b.execute(ctx)
	if req.Debug {
		fmt.Fprint(req.DebugOut, b.timer.Summary())
	}
	return result, err
}

func (b *build) execute(ctx context.Context) error {
	target := b.target(ctx)

	mod, err := b.lower(target)
	if err != nil {
		return err
	}
	if err := b.verify(mod); err != nil {
		return err
	}
	if b.req.Debug {
		fmt.Fprintf(b.req.DebugOut, "; unoptimized module\n%s\n", mod)
	}

	obj, exe := artifactPaths(b.req.OutDir, b.file)
	b.res.ObjectPath, b.res.ExePath = obj, exe
	base := strings.TrimSuffix(filepath.Base(obj), ".o")
	b.res.TmpDir = filepath.Join(b.req.OutDir, ".tmp", base)
	if err := os.MkdirAll(b.res.TmpDir, 0o750); err != nil {
		return fmt.Errorf("failed to create tmp dir: %w", err)
	}
	keepTmp := b.req.KeepTmp || b.req.EmitLLVM

	rawPath := filepath.Join(b.res.TmpDir, base+".ll")
	if err := os.WriteFile(rawPath, []byte(mod.String()), 0o600); err != nil {
		return fmt.Errorf("failed to write LLVM IR: %w", err)
	}
	irPath, err := b.optimize(ctx, rawPath)
	if err != nil {
		return err
	}
	if keepTmp {
		b.res.IRPath = irPath
	}
	if err := b.object(ctx, irPath, obj, target.Triple); err != nil {
		return err
	}
	if err := b.link(ctx, obj, exe); err != nil {
		return err
	}
	if !keepTmp {
		if err := os.RemoveAll(b.res.TmpDir); err != nil {
			return fmt.Errorf("failed to clean tmp dir: %w", err)
		}
		b.res.TmpDir = ""
	}

	if !b.req.Run {
		emitStage(b.req.Progress, b.file, StageRun, StatusSkipped, nil, 0)
		return nil
	}
	return b.run(ctx, exe)
}

// stage wraps one phase with its timer entry, trace span, progress events
// and stage timing.
func (b *build) stage(stage Stage, fn func(span *trace.Span) (string, error)) error {
	idx := b.timer.Begin(string(stage))
	span := trace.Begin(b.req.Tracer, trace.ScopePass, string(stage), b.span.ID())
	emitStage(b.req.Progress, b.file, stage, StatusWorking, nil, 0)
	start := time.Now()

	note, err := fn(span)
	elapsed := time.Since(start)
	b.timer.End(idx, note)
	b.res.Timings.Set(stage, elapsed)
	if err != nil {
		span.End(err.Error())
		emitStage(b.req.Progress, b.file, stage, StatusError, err, elapsed)
		return err
	}
	span.End(note)
	status := StatusDone
	if strings.HasPrefix(note, "skipped") {
		status = StatusSkipped
	}
	emitStage(b.req.Progress, b.file, stage, status, nil, elapsed)
	return nil
}

func (b *build) target(ctx context.Context) layout.Target {
	if b.req.Target != nil {
		return *b.req.Target
	}
	if triple := b.runner.hostTriple(ctx, b.tc.Clang); triple != "" {
		return layout.TargetFor(triple)
	}
	return layout.HostTarget()
}

func (b *build) lower(target layout.Target) (*ir.Module, error) {
	var mod *ir.Module
	err := b.stage(StageLower, func(span *trace.Span) (string, error) {
		sess := llvm.NewSession(llvm.Options{
			Target:      target,
			Tracer:      b.req.Tracer,
			TraceParent: span.ID(),
		})
		err := sess.Generate(b.req.Program)
		mod = sess.Module()
		b.res.Module = mod
		if err == nil && b.req.Debug {
			fmt.Fprint(b.req.DebugOut, sess.Layouts().Describe())
		}
		return target.Triple, err
	})
	return mod, err
}

func (b *build) verify(mod *ir.Module) error {
	return b.stage(StageVerify, func(*trace.Span) (string, error) {
		if err := llvm.Verify(mod); err != nil {
			return "", &diag.InternalError{
				Phase: diag.PhaseVerify,
				Msg:   "module verification failed:\n" + err.Error(),
				Dump:  llvm.Dump(mod),
			}
		}
		return "", nil
	})
}

// optimize runs the canonical pass pipeline and returns the path of the
// module to compile. Without opt the unoptimized module is used as is.
func (b *build) optimize(ctx context.Context, rawPath string) (string, error) {
	out := rawPath
	err := b.stage(StageOptimize, func(span *trace.Span) (string, error) {
		optPath, err := lookTool(b.tc.Opt)
		if err != nil {
			trace.Point(b.req.Tracer, trace.ScopePass, "opt-missing", b.tc.Opt+" not found", span.ID())
			return "skipped: " + b.tc.Opt + " not found", nil
		}
		dst := strings.TrimSuffix(rawPath, ".ll") + ".opt.ll"
		if err := b.runner.run(ctx, optPath, "-passes="+CanonicalPasses, "-S", rawPath, "-o", dst); err != nil {
			return "", err
		}
		out = dst
		return CanonicalPasses, nil
	})
	return out, err
}

// object compiles the module with clang and falls back to llc.
func (b *build) object(ctx context.Context, irPath, objPath, triple string) error {
	return b.stage(StageObject, func(span *trace.Span) (string, error) {
		if err := os.MkdirAll(filepath.Dir(objPath), 0o750); err != nil {
			return "", fmt.Errorf("failed to create output dir: %w", err)
		}
		clangErr := b.runner.run(ctx, b.tc.Clang, "-c", "-x", "ir", irPath, "-o", objPath)
		if clangErr == nil {
			return b.tc.Clang, nil
		}
		llcPath, err := lookTool(b.tc.Llc)
		if err != nil {
			return "", clangErr
		}
		trace.Point(b.req.Tracer, trace.ScopePass, "llc-fallback", clangErr.Error(), span.ID())
		args := []string{"-filetype=obj", irPath, "-o", objPath}
		if triple != "" {
			args = append([]string{"-mtriple=" + triple}, args...)
		}
		if err := b.runner.run(ctx, llcPath, args...); err != nil {
			return "", errors.Join(clangErr, err)
		}
		if b.req.PrintCommands {
			fmt.Fprintf(b.req.Stdout, "note: %s IR compile failed; fell back to %s\n", b.tc.Clang, b.tc.Llc)
		}
		return b.tc.Llc, nil
	})
}

// link drives the system linker through clang, or through the C compiler
// driver when clang is not installed.
func (b *build) link(ctx context.Context, objPath, exePath string) error {
	return b.stage(StageLink, func(span *trace.Span) (string, error) {
		driver := b.tc.Clang
		if _, err := lookTool(driver); err != nil {
			if _, ccErr := lookTool(b.tc.Linker); ccErr != nil {
				return "", err
			}
			trace.Point(b.req.Tracer, trace.ScopePass, "linker-fallback", b.tc.Clang+" not found", span.ID())
			driver = b.tc.Linker
		}
		return driver, b.runner.run(ctx, driver, objPath, "-o", exePath)
	})
}

func (b *build) run(ctx context.Context, exePath string) error {
	return b.stage(StageRun, func(*trace.Span) (string, error) {
		res, err := runProgram(ctx, b.runner.timeout, exePath, b.req.RunArgs)
		b.res.Run = res
		if res != nil {
			reportRun(b.req.Stdout, res)
		}
		if err != nil {
			return "", err
		}
		if res.ExitCode != 0 {
			return "", &RunError{Path: exePath, ExitCode: res.ExitCode}
		}
		return "", nil
	})
}

// sourceName is the file name artefacts are derived from.
func sourceName(p *ast.Program) string {
	if p.Path == "" {
		return "main.bu"
	}
	return p.Path
}

// artifactPaths returns the object and executable paths for a source file:
// its base name with the extension replaced, inside outDir.
func artifactPaths(outDir, source string) (obj, exe string) {
	base := filepath.Base(source)
	base = strings.TrimSuffix(base, filepath.Ext(base))
	obj = filepath.Join(outDir, base+".o")
	exe = strings.TrimSuffix(obj, ".o") + exeSuffix(runtime.GOOS)
	return obj, exe
}

func exeSuffix(goos string) string {
	if goos == "windows" {
		return ".exe"
	}
	return ""
}
