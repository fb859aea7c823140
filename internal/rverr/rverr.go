// Package rverr defines the sentinel error values for every error kind
// in the translation and execution pipeline (§7), modeled on wazero's
// internal/wasmruntime sentinel-error package: callers match kinds with
// errors.Is, and call sites wrap a sentinel with %w to add context.
package rverr

import "errors"

var (
	// ElfParseError is raised by ELF loading (§4.2). Fatal: aborts
	// translation.
	ElfParseError = errors.New("elf parse error")

	// SegmentOverlapError is raised when two PT_LOAD segments overlap in
	// virtual range. Fatal.
	SegmentOverlapError = errors.New("segment overlap")

	// ProgramOutOfBoundsError is raised when a segment's file or virtual
	// range is inconsistent with the file or address space. Fatal.
	ProgramOutOfBoundsError = errors.New("program out of bounds")

	// XlenMismatchError is raised when the build's XLEN does not match
	// the ELF's class. Fatal.
	XlenMismatchError = errors.New("xlen mismatch")

	// DecodeError is raised when the decoder chain cannot decode an
	// instruction at a PC reachable from the CFG walk. Recovered
	// locally: the owning block becomes a trap block and the CFG walk
	// continues (§7).
	DecodeError = errors.New("decode error")

	// CompilerInvocationError is raised when the host C compiler or
	// linker exits non-zero. Surfaced with captured stderr; partial
	// artifacts are left in place.
	CompilerInvocationError = errors.New("compiler invocation failed")

	// DlopenError is raised when the Runner fails to load the generated
	// shared library.
	DlopenError = errors.New("dlopen failed")

	// ExecutionError is raised when the guest reaches a trap or an
	// unexpected dispatch; it carries the exit code via ExitCode().
	ExecutionError = errors.New("guest execution error")

	// TracerSetupError is raised when a tracer kind mismatch or buffer
	// wiring failure is detected at Runner load time.
	TracerSetupError = errors.New("tracer setup failed")
)

// ExecError wraps ExecutionError with the guest's reported exit code.
type ExecError struct {
	ExitCode uint8
}

func (e *ExecError) Error() string {
	return ExecutionError.Error()
}

func (e *ExecError) Unwrap() error { return ExecutionError }
