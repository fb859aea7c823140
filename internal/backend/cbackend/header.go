package cbackend

import (
	"fmt"
	"strings"

	"github.com/rvjit/rvjit/internal/config"
	"github.com/rvjit/rvjit/internal/rtstate"
)

// GenerateHeader renders <base>.h: the RvState struct, its contractual
// static_assert/offsetof checks, and the compiler-attribute macros
// every block function uses (§3.6, §4.6).
func GenerateHeader(baseName string, opts *config.CompileOptions, layout rtstate.Layout, htif *HtifConfig) string {
	var out strings.Builder
	fmt.Fprintf(&out, "#ifndef %s_H\n#define %s_H\n\n", strings.ToUpper(baseName), strings.ToUpper(baseName))
	out.WriteString("#include <stdint.h>\n#include <stdbool.h>\n\n")

	out.WriteString("#if defined(__clang__)\n")
	out.WriteString("#define RV_PRESERVE_NONE __attribute__((preserve_none))\n")
	out.WriteString("#define RV_MUSTTAIL __attribute__((musttail))\n")
	out.WriteString("#else\n")
	out.WriteString("#define RV_PRESERVE_NONE\n")
	out.WriteString("#define RV_MUSTTAIL\n")
	out.WriteString("#endif\n\n")

	regType := "uint64_t"
	if layout.XlenBytes == 4 {
		regType = "uint32_t"
	}
	fmt.Fprintf(&out, "typedef %s RvReg;\n\n", regType)

	out.WriteString("typedef struct {\n")
	fmt.Fprintf(&out, "  RvReg regs[%d];\n", layout.NumRegs)
	out.WriteString("  RvReg pc;\n")
	out.WriteString("  uint64_t instret;\n")
	if layout.SuspendEnabled {
		out.WriteString("  uint64_t target_instret;\n")
	}
	out.WriteString("  RvReg reservation_addr;\n")
	out.WriteString("  uint8_t reservation_valid;\n")
	out.WriteString("  uint8_t has_exited;\n")
	out.WriteString("  uint8_t exit_code;\n")
	out.WriteString("  RvReg brk;\n")
	out.WriteString("  RvReg start_brk;\n")
	out.WriteString("  uint8_t* memory;\n")
	if layout.TracerSize > 0 {
		out.WriteString("  RvTracer tracer;\n")
	}
	fmt.Fprintf(&out, "  RvReg csrs[%d];\n", rtstate.NumCSRs)
	out.WriteString("} RvState;\n\n")

	assert := func(field string, off int) {
		fmt.Fprintf(&out, "_Static_assert(offsetof(RvState, %s) == %d, \"%s offset mismatch\");\n", field, off, field)
	}
	out.WriteString("#include <stddef.h>\n")
	assert("regs", layout.RegsOffset)
	assert("pc", layout.PCOffset)
	assert("instret", layout.InstretOffset)
	if layout.SuspendEnabled {
		assert("target_instret", layout.TargetInstretOffset)
	}
	assert("reservation_addr", layout.ReservationAddrOffset)
	assert("reservation_valid", layout.ReservationValidOffset)
	assert("has_exited", layout.HasExitedOffset)
	assert("exit_code", layout.ExitCodeOffset)
	assert("brk", layout.BrkOffset)
	assert("start_brk", layout.StartBrkOffset)
	assert("memory", layout.MemoryOffset)
	assert("csrs", layout.CsrsOffset)
	fmt.Fprintf(&out, "_Static_assert(sizeof(RvState) == %d, \"RvState size mismatch\");\n\n", layout.TotalSize)

	out.WriteString("#define RV_R(n) (state->regs[(n)])\n\n")

	if htif != nil {
		fmt.Fprintf(&out, "#define RV_HTIF_TOHOST 0x%xULL\n", htif.TohostAddr)
		fmt.Fprintf(&out, "#define RV_HTIF_FROMHOST 0x%xULL\n", htif.FromhostAddr)
		out.WriteString("void rv_htif_tohost(RvState* state, uint8_t* memory, uint64_t value);\n\n")
	}
	out.WriteString(GenerateAccessors(opts, htif != nil))

	out.WriteString("\n#endif\n")
	return out.String()
}
