package buildpipeline

import "time"

// Stage describes a high-level pipeline phase.
type Stage string

const (
	// StageLower covers layout and signature registration and body lowering.
	StageLower Stage = "lower"
	// StageVerify is the structural module check.
	StageVerify Stage = "verify"
	// StageOptimize is the canonicalization run of opt.
	StageOptimize Stage = "optimize"
	// StageObject is object file emission.
	StageObject Stage = "object"
	// StageLink is the link stage.
	StageLink Stage = "link"
	// StageRun is the run stage.
	StageRun Stage = "run"
)

// Stages lists every stage in pipeline order.
var Stages = []Stage{StageLower, StageVerify, StageOptimize, StageObject, StageLink, StageRun}

// Status captures progress state within a stage.
type Status string

const (
	// StatusQueued indicates the task is waiting to start.
	StatusQueued Status = "queued"
	// StatusWorking indicates the task is currently working.
	StatusWorking Status = "working"
	// StatusDone indicates the task is done.
	StatusDone Status = "done"
	// StatusSkipped indicates the stage did not apply to this build.
	StatusSkipped Status = "skipped"
	// StatusError indicates the task encountered an error.
	StatusError Status = "error"
)

// Event reports progress of one stage for a program.
type Event struct {
	File    string
	Stage   Stage
	Status  Status
	Err     error
	Elapsed time.Duration
}

// ProgressSink consumes progress events.
type ProgressSink interface {
	OnEvent(Event)
}

// Toolchain names the external programs. Empty fields use the defaults.
type Toolchain struct {
	Clang  string
	Opt    string
	Llc    string
	Linker string // C compiler driver used to link when Clang is not installed
}

func (tc Toolchain) withDefaults() Toolchain {
	if tc.Clang == "" {
		tc.Clang = "clang"
	}
	if tc.Opt == "" {
		tc.Opt = "opt"
	}
	if tc.Llc == "" {
		tc.Llc = "llc"
	}
	if tc.Linker == "" {
		tc.Linker = "cc"
	}
	return tc
}

// Timings holds stage durations.
type Timings struct {
	stages map[Stage]time.Duration
}

// Set stores a duration for the given stage.
func (t *Timings) Set(stage Stage, dur time.Duration) {
	if t == nil {
		return
	}
	if t.stages == nil {
		t.stages = make(map[Stage]time.Duration)
	}
	t.stages[stage] = dur
}

// Has reports whether a duration for stage is recorded.
func (t Timings) Has(stage Stage) bool {
	_, ok := t.stages[stage]
	return ok
}

// Duration returns the recorded duration for stage.
func (t Timings) Duration(stage Stage) time.Duration {
	return t.stages[stage]
}

// Sum returns the sum of durations across the provided stages.
func (t Timings) Sum(stages ...Stage) time.Duration {
	var total time.Duration
	for _, stage := range stages {
		total += t.stages[stage]
	}
	return total
}
