// Package trace provides the tracing subsystem of the bu compiler.
//
// Tracing records the boundaries of the build phases (layout and signature
// registration, lowering, verification, canonicalization, object emission,
// linking and running) so slow toolchain steps can be told apart from slow
// lowering.
//
// # Usage
//
//	bu build --trace=- --trace-level=phase prog.tast
//
// # Levels
//
//   - LevelOff: No tracing
//   - LevelError: Only failures
//   - LevelPhase: Driver and pass boundaries
//   - LevelDetail: Per-function lowering
//   - LevelDebug: Everything
//
// # Context Propagation
//
//	ctx = trace.WithTracer(ctx, tracer)
//	t := trace.FromContext(ctx)
//
//	span := trace.Begin(t, trace.ScopePass, "lower", parentID)
//	defer span.End("")
package trace
