package runner

import (
	"fmt"
	"unsafe"

	"github.com/rvjit/rvjit/internal/elfimage"
	"github.com/rvjit/rvjit/internal/rtstate"
	"github.com/rvjit/rvjit/internal/rvmem"
)

// hostState is the raw RvState backing buffer allocated on the Go
// heap. Its size and alignment are cross-checked against the dlopen'd
// library's own rv_state_size/rv_state_align at Load time (property 1,
// §8), since the two sides must agree on layout without sharing a
// compiled header.
type hostState struct {
	buf    []byte
	layout rtstate.Layout
}

// newHostState allocates a zeroed buffer sized/aligned per layout,
// over-allocating by align-1 bytes so a sub-slice can be aligned
// manually (Go's GC does not guarantee slice alignment beyond the
// element type's natural alignment).
func newHostState(layout rtstate.Layout, align uintptr) *hostState {
	raw := make([]byte, layout.TotalSize+int(align))
	base := uintptrOf(raw)
	aligned := (base + align - 1) &^ (align - 1)
	off := int(aligned - base)
	return &hostState{buf: raw[off : off+layout.TotalSize], layout: layout}
}

func (s *hostState) ptr() uintptr { return uintptrOf(s.buf) }

// newFixedHostState maps the RvState buffer at exactly addr, for
// fixed-address mode: generated code casts RV_FIXED_STATE_ADDR to a
// pointer at compile time, so the buffer must exist at that address
// before the first rv_execute_from call (§6.1 "fixed_addresses").
func newFixedHostState(layout rtstate.Layout, addr uintptr) (*hostState, error) {
	buf, err := rvmem.MapFixedRaw(addr, layout.TotalSize)
	if err != nil {
		return nil, err
	}
	return &hostState{buf: buf, layout: layout}, nil
}

func (s *hostState) unmap() error {
	return rvmem.UnmapRaw(s.buf)
}

func uintptrOf(b []byte) uintptr {
	if len(b) == 0 {
		return 0
	}
	return uintptr(unsafe.Pointer(&b[0]))
}

// setMemoryPointer writes mem's base address into the RvState.memory
// field. Generated code never calls back into Go to ask for this
// pointer, so the host must place it itself before the first
// rv_execute_from (§3.6).
func (s *hostState) setMemoryPointer(mem *rvmem.GuardedMemory) {
	*(*uintptr)(unsafe.Pointer(&s.buf[s.layout.MemoryOffset])) = mem.BaseAddr()
}

// layoutFor derives the same rtstate.Layout a generated library used,
// from the translation options and ELF image that produced it. The
// translator and the Runner must compute this identically since
// neither side persists the layout alongside the .so (§3.6).
func layoutFor(img *elfimage.Image, suspendEnabled bool) rtstate.Layout {
	xlenBytes := 8
	if img.Xlen == elfimage.Xlen32 {
		xlenBytes = 4
	}
	return rtstate.Compute(xlenBytes, rtstate.NumGPRs, suspendEnabled, 0, 0)
}

// checkLayoutAgreement verifies the host-computed layout matches what
// the shared library itself reports, failing closed rather than
// silently misinterpreting state (property 1, §8).
func checkLayoutAgreement(lib *Library, layout rtstate.Layout, align uintptr) error {
	if got := lib.StateSize(); got != uintptr(layout.TotalSize) {
		return fmt.Errorf("runner: state size mismatch: library reports %d, host computed %d", got, layout.TotalSize)
	}
	if got := lib.StateAlign(); got != align {
		return fmt.Errorf("runner: state align mismatch: library reports %d, host computed %d", got, align)
	}
	return nil
}
