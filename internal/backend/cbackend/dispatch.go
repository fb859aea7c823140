package cbackend

import (
	"fmt"
	"strings"

	"github.com/rvjit/rvjit/internal/config"
	"github.com/rvjit/rvjit/internal/emit"
)

// GenerateDispatch renders <base>_dispatch.c: the dispatch table,
// rv_trap, rv_dispatch_index, and rv_execute_from (§4.5, §6.3).
func GenerateDispatch(baseName string, opts *config.CompileOptions, sig emit.Signature, d emit.DispatchTable) string {
	var out strings.Builder
	fmt.Fprintf(&out, "#include \"%s.h\"\n#include \"%s_blocks.h\"\n\n", baseName, baseName)

	params := cParamList(sig)
	fmt.Fprintf(&out, "typedef void (*rv_block_fn)(%s);\n\n", params)

	fmt.Fprintf(&out, "RV_PRESERVE_NONE void rv_trap(%s) {\n", params)
	out.WriteString(cStateLocals(opts))
	out.WriteString("  state->has_exited = 1;\n  state->exit_code = 1;\n  return;\n}\n\n")

	fmt.Fprintf(&out, "static const uint64_t rv_dispatch_text_start = 0x%xULL;\n", d.TextStart)
	fmt.Fprintf(&out, "static const uint64_t rv_dispatch_count = %dULL;\n\n", len(d.BlockOf))

	out.WriteString("rv_block_fn dispatch_table[] = {\n")
	for i, start := range d.BlockOf {
		if d.Valid[i] {
			fmt.Fprintf(&out, "  (rv_block_fn)B_%x,\n", start)
		} else {
			out.WriteString("  (rv_block_fn)rv_trap,\n")
		}
	}
	out.WriteString("};\n\n")

	out.WriteString("static inline uint64_t rv_dispatch_index(uint64_t pc) {\n")
	out.WriteString("  if (pc < rv_dispatch_text_start) return rv_dispatch_count - 1;\n")
	out.WriteString("  uint64_t idx = (pc - rv_dispatch_text_start) / 2;\n")
	out.WriteString("  if (idx >= rv_dispatch_count) return rv_dispatch_count - 1;\n")
	out.WriteString("  return idx;\n")
	out.WriteString("}\n\n")

	if opts.FixedAddresses() != nil {
		// The host ABI keeps the (state, pc) signature; the state
		// argument is ignored in favor of the fixed address.
		out.WriteString("int rv_execute_from(RvState* rv_state_arg, uint64_t pc) {\n")
		out.WriteString(cStateLocals(opts))
		out.WriteString("  (void)rv_state_arg;\n")
	} else {
		out.WriteString("int rv_execute_from(RvState* state, uint64_t pc) {\n")
		out.WriteString("  uint8_t* memory = state->memory;\n")
	}
	out.WriteString("  state->pc = pc;\n")
	fmt.Fprintf(&out, "  dispatch_table[rv_dispatch_index(pc)](%s);\n", cColdEntryArgs(sig))
	out.WriteString("  if (state->has_exited) return 1;\n")
	out.WriteString("  return 2; /* suspended */\n")
	out.WriteString("}\n")

	return out.String()
}
