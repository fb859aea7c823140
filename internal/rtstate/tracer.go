package rtstate

// TracerHeader names a tracer header variant the emitter treats as an
// opaque, pre-written C header keyed by kind (§4.8). The Go-side
// structs below are typed views a Runner uses to interpret the tracer
// region of a state snapshot for variants that actually hand data back
// across the FFI boundary (Preflight, Stats, Diff, BufferedDiff);
// Spike-compat and Debug only write to stderr and have no struct to
// mirror, and Dynamic is a function-pointer table resolved at load
// time rather than a data struct.
type TracerHeader string

const (
	TracerHeaderPreflight    TracerHeader = "tracer_preflight.h"
	TracerHeaderStats        TracerHeader = "tracer_stats.h"
	TracerHeaderDiff         TracerHeader = "tracer_diff.h"
	TracerHeaderBufferedDiff TracerHeader = "tracer_buffered_diff.h"
	TracerHeaderSpike        TracerHeader = "tracer_spike.h"
	TracerHeaderDebug        TracerHeader = "tracer_debug.h"
	TracerHeaderDynamic      TracerHeader = "tracer_dynamic.h"
)

// PreflightTracer appends {pc, data} pairs to externally provided ring
// buffers (§4.8). RingPC/RingData are host pointers the caller owns;
// the tracer only advances Head.
type PreflightTracer struct {
	RingPC   uintptr
	RingData uintptr
	Capacity uint32
	Head     uint32
}

// StatsTracer tallies retirement counts (§4.8).
type StatsTracer struct {
	TotalInstructions uint64
	PerOpcode         [1 << 10]uint64 // indexed by OpId, sized generously
	PerRegisterReads  [32]uint64
	PerRegisterWrites [32]uint64
	// AddressBitmapPtr, when non-zero, points at a host-owned bitmap of
	// touched guest addresses; optional per §4.8.
	AddressBitmapPtr uintptr
}

// DiffEntry is the most recently retired instruction's observable
// state, the comparison unit for both Diff and BufferedDiff (§4.8).
type DiffEntry struct {
	PC       uint64
	Opcode   uint32
	Rd       uint8
	_        [3]byte
	RdValue  uint64
	MemAddr  uint64
	MemValue uint64
	MemWidth uint8
	MemWrite bool
}

// DiffTracer holds a single DiffEntry, overwritten every retirement.
type DiffTracer struct {
	Last DiffEntry
}

// BufferedDiffTracer holds a fixed-size ring of DiffEntry for
// block-level comparison against a reference implementation (§4.8).
const BufferedDiffCapacity = 256

type BufferedDiffTracer struct {
	Entries [BufferedDiffCapacity]DiffEntry
	Head    uint32
	Count   uint32
}
