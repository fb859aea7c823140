package cbackend

import (
	"fmt"
	"strings"

	"github.com/rvjit/rvjit/internal/config"
	"github.com/rvjit/rvjit/internal/emit"
)

// cParamList and cArgList are the shared signature renderers used by
// both block function definitions and the dispatch table's function
// pointer type / cold-entry call, so every block function and its
// table slot agree on a single ABI (§4.5).
func cParamList(sig emit.Signature) string {
	var parts []string
	for _, p := range sig.Params {
		switch p.Kind {
		case emit.ParamState:
			parts = append(parts, "RvState* restrict state")
		case emit.ParamMemory:
			parts = append(parts, "uint8_t* restrict memory")
		case emit.ParamInstret:
			parts = append(parts, "uint64_t instret")
		case emit.ParamTracerVar:
			parts = append(parts, fmt.Sprintf("uint64_t tracer_v%d", len(parts)))
		case emit.ParamHotReg:
			parts = append(parts, fmt.Sprintf("uint64_t hr_%d", p.Reg))
		}
	}
	return strings.Join(parts, ", ")
}

func cArgList(sig emit.Signature) string {
	var names []string
	for _, p := range sig.Params {
		switch p.Kind {
		case emit.ParamState:
			names = append(names, "state")
		case emit.ParamMemory:
			names = append(names, "memory")
		case emit.ParamInstret:
			names = append(names, "instret")
		case emit.ParamTracerVar:
			names = append(names, fmt.Sprintf("tracer_v%d", len(names)))
		case emit.ParamHotReg:
			names = append(names, fmt.Sprintf("hr_%d", p.Reg))
		}
	}
	return strings.Join(names, ", ")
}

// cColdEntryArgs renders the argument expressions a cold entry (the
// dispatch table, rv_execute_from) passes: hot regs are (re)loaded
// from state rather than threaded from a caller's locals.
func cColdEntryArgs(sig emit.Signature) string {
	var names []string
	for _, p := range sig.Params {
		switch p.Kind {
		case emit.ParamState:
			names = append(names, "state")
		case emit.ParamMemory:
			names = append(names, "memory")
		case emit.ParamInstret:
			names = append(names, "state->instret")
		case emit.ParamTracerVar:
			names = append(names, "0")
		case emit.ParamHotReg:
			names = append(names, fmt.Sprintf("RV_R(%d)", p.Reg))
		}
	}
	return strings.Join(names, ", ")
}

// cStateLocals renders the local state/memory pointer declarations a
// function body needs when fixed_addresses is configured, since in
// that mode state and memory are never passed as parameters (§4.5
// "fixed-address mode"). Returns "" otherwise, where state and memory
// are ordinary parameters instead.
func cStateLocals(opts *config.CompileOptions) string {
	fa := opts.FixedAddresses()
	if fa == nil {
		return ""
	}
	return fmt.Sprintf(
		"  RvState* restrict state = (RvState*)0x%xULL;\n  uint8_t* restrict memory = (uint8_t*)0x%xULL;\n",
		fa.StateAddr, fa.MemoryAddr,
	)
}
