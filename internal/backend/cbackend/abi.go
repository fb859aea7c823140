package cbackend

import (
	"fmt"
	"strings"

	"github.com/rvjit/rvjit/internal/config"
	"github.com/rvjit/rvjit/internal/rtstate"
)

// GenerateABI renders the dlsym-resolvable accessor functions and
// constants every generated library exports alongside rv_execute_from
// (§6.3). These are the stable host-facing ABI a Runner binds to via
// purego, independent of which backend produced the rest of the
// library.
func GenerateABI(baseName string, opts *config.CompileOptions, layout rtstate.Layout, entryPoint uint32) string {
	var out strings.Builder
	out.WriteString("#include <stddef.h>\n#include <stdbool.h>\n")
	fmt.Fprintf(&out, "#include \"%s.h\"\n\n", baseName)

	fmt.Fprintf(&out, "size_t rv_state_size(void) { return %d; }\n", layout.TotalSize)
	out.WriteString("size_t rv_state_align(void) { return 8; }\n\n")

	out.WriteString("void rv_state_reset(RvState* state) {\n")
	fmt.Fprintf(&out, "  for (int i = 0; i < %d; i++) state->regs[i] = 0;\n", layout.NumRegs)
	out.WriteString("  state->pc = 0;\n  state->instret = 0;\n")
	out.WriteString("  state->reservation_valid = 0;\n  state->has_exited = 0;\n  state->exit_code = 0;\n")
	out.WriteString("}\n\n")

	out.WriteString("uint64_t rv_get_instret(const RvState* state) { return state->instret; }\n")
	out.WriteString("uint8_t rv_get_exit_code(const RvState* state) { return state->exit_code; }\n")
	out.WriteString("bool rv_has_exited(const RvState* state) { return state->has_exited != 0; }\n")
	out.WriteString("uint64_t rv_get_pc(const RvState* state) { return state->pc; }\n")
	out.WriteString("void rv_set_pc(RvState* state, uint64_t pc) { state->pc = pc; }\n")
	out.WriteString("uint8_t* rv_get_memory(const RvState* state) { return state->memory; }\n")
	fmt.Fprintf(&out, "size_t rv_get_memory_size(const RvState* state) { (void)state; return %d; }\n", defaultMemorySize)
	fmt.Fprintf(&out, "uint32_t rv_get_entry_point(void) { return 0x%xu; }\n\n", entryPoint)

	tracer := opts.Tracer()
	instretMode := opts.InstretMode()
	fmt.Fprintf(&out, "const uint32_t RV_TRACER_KIND = %d;\n", uint32(tracer.Kind))
	exportFns := 0
	if opts.ExportFunctions() {
		exportFns = 1
	}
	fmt.Fprintf(&out, "const uint32_t RV_EXPORT_FUNCTIONS = %d;\n", exportFns)
	fmt.Fprintf(&out, "const uint32_t RV_INSTRET_MODE = %d;\n", uint32(instretMode))

	if fa := opts.FixedAddresses(); fa != nil {
		fmt.Fprintf(&out, "const uint64_t RV_FIXED_STATE_ADDR = 0x%xULL;\n", fa.StateAddr)
		fmt.Fprintf(&out, "const uint64_t RV_FIXED_MEMORY_ADDR = 0x%xULL;\n", fa.MemoryAddr)
	}
	return out.String()
}

// defaultMemorySize mirrors internal/rvmem.DefaultSize; kept as a
// local constant since cbackend must not import rvmem purely to avoid
// mmap'ing guarded memory inside the generator process.
const defaultMemorySize = 1 << 32
