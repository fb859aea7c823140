package rtstate

import "github.com/rvjit/rvjit/internal/isa"

// NumGPRs is the I-extension register file size; RVE's reduced 16-GPR
// file is a documented but unimplemented Open Question (see DESIGN.md).
const NumGPRs = 32

// NumCSRs is the fixed CSR address space size (§3.6).
const NumCSRs = 4096

// State is the Go-side mirror of the generated RvState struct for the
// no-tracer, no-suspend, RV64 case (§3.6). Go code never operates on
// guest memory through this struct directly — the Runner crosses the
// FFI boundary through the exported rv_* accessors — so State exists
// to let layout_test.go cross-check Compute's arithmetic against the
// compiler's own struct layout, and to give DiffRunner a typed view
// when decoding a raw state snapshot copied out of the shared library
// for comparison (§4.8). Go's compiler naturally pads ReservationAddr's
// trailing uint8 trio up to Brk's 8-byte alignment when X is uint64,
// matching Compute's fixed "align to 8" rule; the X=uint32 (RV32)
// instantiation does not bit-match Compute's offsets since Go aligns a
// uint32 field to 4 bytes, not the spec's fixed 8 — harmless, since the
// real RV32 layout lives only in generated C/asm, never in this struct.
type State[X isa.Xlen] struct {
	Regs             [NumGPRs]X
	PC               X
	Instret          uint64
	ReservationAddr  X
	ReservationValid uint8
	HasExited        uint8
	ExitCode         uint8
	Brk              X
	StartBrk         X
	Memory           uintptr
	Csrs             [NumCSRs]X
}
