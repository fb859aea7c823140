// Package runner binds a generated shared library's ABI (§6.3) via
// purego's dlopen/dlsym bridge rather than cgo, so the host runner
// stays a pure-Go binary — the same motivation wazero gives for
// avoiding cgo throughout internal/platform and internal/sys.
package runner

import (
	"fmt"

	"github.com/ebitengine/purego"

	"github.com/rvjit/rvjit/internal/rverr"
)

// abiFuncs is the set of dlsym-resolved entry points every generated
// library exports (§6.3).
type abiFuncs struct {
	executeFrom func(state uintptr, pc uint64) int32
	stateSize   func() uintptr
	stateAlign  func() uintptr
	stateReset  func(state uintptr)
	getInstret  func(state uintptr) uint64
	getExitCode func(state uintptr) uint8
	hasExited   func(state uintptr) int32
	getPC       func(state uintptr) uint64
	setPC       func(state uintptr, pc uint64)
	getMemory   func(state uintptr) uintptr
	getMemSize  func(state uintptr) uintptr
	entryPoint  func() uint32
}

// Library is a dlopen'd translation artifact: the handle plus its
// bound ABI function pointers.
type Library struct {
	handle uintptr
	path   string
	fns    abiFuncs
}

// Open dlopens the shared library at path and resolves every §6.3 ABI
// symbol, failing with rverr.DlopenError if the handle or any required
// symbol cannot be resolved.
func Open(path string) (*Library, error) {
	handle, err := purego.Dlopen(path, purego.RTLD_NOW|purego.RTLD_GLOBAL)
	if err != nil {
		return nil, fmt.Errorf("runner: dlopen %s: %v: %w", path, err, rverr.DlopenError)
	}
	lib := &Library{handle: handle, path: path}

	reg := func(fnPtr interface{}, name string) error {
		sym, err := purego.Dlsym(handle, name)
		if err != nil {
			return fmt.Errorf("runner: resolve %s in %s: %v: %w", name, path, err, rverr.DlopenError)
		}
		purego.RegisterFunc(fnPtr, sym)
		return nil
	}

	type binding struct {
		fnPtr interface{}
		name  string
	}
	bindings := []binding{
		{&lib.fns.executeFrom, "rv_execute_from"},
		{&lib.fns.stateSize, "rv_state_size"},
		{&lib.fns.stateAlign, "rv_state_align"},
		{&lib.fns.stateReset, "rv_state_reset"},
		{&lib.fns.getInstret, "rv_get_instret"},
		{&lib.fns.getExitCode, "rv_get_exit_code"},
		{&lib.fns.hasExited, "rv_has_exited"},
		{&lib.fns.getPC, "rv_get_pc"},
		{&lib.fns.setPC, "rv_set_pc"},
		{&lib.fns.getMemory, "rv_get_memory"},
		{&lib.fns.getMemSize, "rv_get_memory_size"},
		{&lib.fns.entryPoint, "rv_get_entry_point"},
	}
	for _, b := range bindings {
		if err := reg(b.fnPtr, b.name); err != nil {
			return nil, err
		}
	}
	return lib, nil
}

// Close releases the dlopen handle. Subsequent calls through Library
// are undefined after Close returns.
func (l *Library) Close() error {
	return purego.Dlclose(l.handle)
}

// StateSize and StateAlign report the generated RvState layout so a
// caller can allocate a correctly sized and aligned backing buffer
// (property 1, layout agreement, §8).
func (l *Library) StateSize() uintptr  { return l.fns.stateSize() }
func (l *Library) StateAlign() uintptr { return l.fns.stateAlign() }

// EntryPoint returns the translated program's ELF entry address.
func (l *Library) EntryPoint() uint32 { return l.fns.entryPoint() }
