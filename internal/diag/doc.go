// Package diag defines the error model of the code generator.
//
// # Internal errors
//
// The code generator consumes a program the type checker already accepted, so
// every failed lookup, unexpected type or append into a terminated block is a
// compiler bug rather than a user error. These are raised with Bail, which
// panics with an *InternalError. The lowering session recovers exactly once at
// its boundary with Recover, attaches the partially built module as Dump and
// returns the error. Panics that do not originate from Bail, such as a nil
// dereference or a failed safecast conversion, are wrapped with their stack so
// they surface the same way. Nothing else recovers.
//
// # Toolchain errors
//
// Failures of the external tools (optimizer, code generator, linker) are user
// facing and carry the tool's captured stderr in a *ToolchainError.
package diag
