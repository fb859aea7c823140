package runner

import (
	"fmt"

	"github.com/rvjit/rvjit/internal/config"
	"github.com/rvjit/rvjit/internal/elfimage"
	"github.com/rvjit/rvjit/internal/rverr"
	"github.com/rvjit/rvjit/internal/rvmem"
)

// FixedAddrRunner drives a library compiled with config.FixedAddresses
// set: state and memory are mapped at exactly the addresses baked into
// the generated code, rather than passed as rv_execute_from arguments
// (§4.5, §6.1). The caller is responsible for picking addresses that
// do not collide with the Go runtime's own heap and stack mappings;
// rvjit does not scan /proc/self/maps on the caller's behalf.
type FixedAddrRunner struct {
	lib   *Library
	mem   *rvmem.GuardedMemory
	state *hostState
	fa    config.FixedAddresses
}

// NewFixedAddrRunner dlopens path and maps memory and state at the
// addresses recorded in opts.FixedAddresses(), failing if opts was not
// built with WithFixedAddresses.
func NewFixedAddrRunner(path string, opts *config.CompileOptions, img *elfimage.Image) (*FixedAddrRunner, error) {
	fa := opts.FixedAddresses()
	if fa == nil {
		return nil, fmt.Errorf("runner: NewFixedAddrRunner requires config.WithFixedAddresses: %w", rverr.TracerSetupError)
	}

	lib, err := Open(path)
	if err != nil {
		return nil, err
	}

	layout := layoutFor(img, opts.InstretMode() == config.InstretSuspend)
	align := lib.StateAlign()
	if err := checkLayoutAgreement(lib, layout, align); err != nil {
		_ = lib.Close()
		return nil, fmt.Errorf("%v: %w", err, rverr.TracerSetupError)
	}

	mem, err := rvmem.NewAt(uintptr(fa.MemoryAddr), rvmem.DefaultSize)
	if err != nil {
		_ = lib.Close()
		return nil, err
	}

	state, err := newFixedHostState(layout, uintptr(fa.StateAddr))
	if err != nil {
		_ = mem.Close()
		_ = lib.Close()
		return nil, err
	}

	for _, seg := range img.Segments {
		mem.CopyFrom(int(seg.Vaddr), seg.Data)
	}

	r := &FixedAddrRunner{lib: lib, mem: mem, state: state, fa: *fa}
	r.state.setMemoryPointer(mem)
	return r, nil
}

// Close unmaps state and memory and closes the library handle.
func (r *FixedAddrRunner) Close() error {
	stateErr := r.state.unmap()
	memErr := r.mem.Close()
	libErr := r.lib.Close()
	switch {
	case stateErr != nil:
		return stateErr
	case memErr != nil:
		return memErr
	default:
		return libErr
	}
}

// Run resets state and executes from the library's entry point. Under
// fixed-address mode rv_execute_from still takes (state, pc) as
// logical inputs from the Runner's point of view; only the *generated
// code's own internal references* to state/memory drop their pointer
// parameters (§4.5) — the host-facing rv_execute_from signature is
// unaffected, since it is part of the stable ABI (§6.3).
func (r *FixedAddrRunner) Run() (RunResult, error) {
	r.lib.fns.stateReset(r.state.ptr())
	r.state.setMemoryPointer(r.mem)
	return executeOn(r.lib, r.state, uint64(r.lib.EntryPoint()))
}

// Resume continues execution from the guest's current PC without
// resetting state, for cooperative suspension (§4.8).
func (r *FixedAddrRunner) Resume() (RunResult, error) {
	return executeOn(r.lib, r.state, r.lib.fns.getPC(r.state.ptr()))
}
