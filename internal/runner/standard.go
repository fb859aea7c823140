package runner

import (
	"encoding/binary"
	"fmt"
	"time"

	"github.com/rvjit/rvjit/internal/config"
	"github.com/rvjit/rvjit/internal/elfimage"
	"github.com/rvjit/rvjit/internal/rverr"
	"github.com/rvjit/rvjit/internal/rvmem"
)

// RunResult is the summary of one guest execution (§4.9 "Runner::run
// loads segments... and returns {exit_code, instret, time, mips}").
type RunResult struct {
	ExitCode  uint8
	Instret   uint64
	Time      time.Duration
	Suspended bool
}

// Mips reports millions of instructions retired per second, 0 if
// Time is zero.
func (r RunResult) Mips() float64 {
	if r.Time <= 0 {
		return 0
	}
	return float64(r.Instret) / r.Time.Seconds() / 1e6
}

// StandardRunner drives one generated library against freshly
// allocated guarded memory and a freshly allocated RvState, the
// non-fixed-address, non-diffing execution mode (§4.9).
type StandardRunner struct {
	lib   *Library
	mem   *rvmem.GuardedMemory
	state *hostState
	opts  *config.CompileOptions
	img   *elfimage.Image
}

// NewStandardRunner dlopens path, allocates a guarded memory region
// and RvState buffer sized from opts/img, loads the ELF's PT_LOAD
// segments, and cross-checks the library's reported layout against
// the host's own computation before returning.
func NewStandardRunner(path string, opts *config.CompileOptions, img *elfimage.Image) (*StandardRunner, error) {
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

	mem, err := rvmem.WithDefaultSize()
	if err != nil {
		_ = lib.Close()
		return nil, err
	}

	for _, seg := range img.Segments {
		mem.CopyFrom(int(seg.Vaddr), seg.Data)
	}

	r := &StandardRunner{
		lib:   lib,
		mem:   mem,
		state: newHostState(layout, align),
		opts:  opts,
		img:   img,
	}
	r.state.setMemoryPointer(mem)
	return r, nil
}

// Close releases the guarded memory region and the dlopen handle.
func (r *StandardRunner) Close() error {
	memErr := r.mem.Close()
	libErr := r.lib.Close()
	if memErr != nil {
		return memErr
	}
	return libErr
}

// Run resets state, invokes rv_execute_from(entry_point), and polls
// has_exited until the guest exits or a single rv_execute_from call
// returns without exiting (suspension, §4.9). Suspension is reported
// via RunResult.Suspended with error == nil, per §7's "Suspension
// (return code 2) is represented as an ordinary (RunResult, error)
// return."
func (r *StandardRunner) Run() (RunResult, error) {
	return r.RunFrom(uint64(r.lib.EntryPoint()))
}

// RunFrom behaves like Run but starts at an explicit PC, used to
// resume a previously suspended run after the caller adjusts
// target_instret (§4.8).
func (r *StandardRunner) RunFrom(pc uint64) (RunResult, error) {
	r.Reset()
	return r.execute(pc)
}

// Resume calls rv_execute_from again without resetting state, the
// cooperative-suspension continuation path (§4.8 "the host can inspect
// state, move target_instret, and call rv_execute_from(state,
// state->pc) again to resume").
func (r *StandardRunner) Resume() (RunResult, error) {
	return r.execute(r.lib.fns.getPC(r.state.ptr()))
}

// Reset zeroes register/PC/instret/exit state and re-installs the
// memory pointer, without invoking rv_execute_from. Exposed
// separately from Run so callers that need to set target_instret
// before the first instruction retires (DiffRunner's lockstep driver)
// have a seam between reset and execution.
func (r *StandardRunner) Reset() {
	r.lib.fns.stateReset(r.state.ptr())
	r.state.setMemoryPointer(r.mem)
}

// SetPC writes state->pc directly via the rv_set_pc accessor.
func (r *StandardRunner) SetPC(pc uint64) {
	r.lib.fns.setPC(r.state.ptr(), pc)
}

func (r *StandardRunner) execute(pc uint64) (RunResult, error) {
	return executeOn(r.lib, r.state, pc)
}

// executeOn calls rv_execute_from and translates its return code into
// a RunResult per §6.3 ("0 continue, 1 exited, 2 suspended") and §7's
// rule that suspension is not an error. It is shared between
// StandardRunner and FixedAddrRunner since both bind the same ABI.
func executeOn(lib *Library, state *hostState, pc uint64) (RunResult, error) {
	start := time.Now()
	code := lib.fns.executeFrom(state.ptr(), pc)
	elapsed := time.Since(start)

	instret := lib.fns.getInstret(state.ptr())
	res := RunResult{Instret: instret, Time: elapsed}

	switch code {
	case 1:
		res.ExitCode = lib.fns.getExitCode(state.ptr())
		if res.ExitCode != 0 {
			return res, fmt.Errorf("runner: guest exited with code %d: %w", res.ExitCode, &rverr.ExecError{ExitCode: res.ExitCode})
		}
		return res, nil
	case 2:
		res.Suspended = true
		return res, nil
	default:
		return res, fmt.Errorf("runner: rv_execute_from returned unexpected code %d: %w", code, rverr.ExecutionError)
	}
}

// Instret reports the guest's current retired-instruction count.
func (r *StandardRunner) Instret() uint64 { return r.lib.fns.getInstret(r.state.ptr()) }

// PC reports the guest's current program counter.
func (r *StandardRunner) PC() uint64 { return r.lib.fns.getPC(r.state.ptr()) }

// SetTargetInstret writes target_instret directly into the RvState
// buffer: the §6.3 ABI table exposes no rv_set_target_instret
// accessor, so cooperative suspension and cancellation (§4.8, §4.9
// "Cancellation") go through the known layout offset instead, the
// same way DiffRunner decodes raw state snapshots. Returns false if
// the build was not configured with suspend-capable instret mode, in
// which case TargetInstretOffset is -1 and there is no field to write.
func (r *StandardRunner) SetTargetInstret(target uint64) bool {
	off := r.state.layout.TargetInstretOffset
	if off < 0 {
		return false
	}
	binary.LittleEndian.PutUint64(r.state.buf[off:off+8], target)
	return true
}

// Cancel requests cooperative cancellation by driving target_instret
// below the current instret count; the guest observes this at its
// next suspend-mode check point (§4.9 "Cancellation").
func (r *StandardRunner) Cancel() {
	r.SetTargetInstret(0)
}
