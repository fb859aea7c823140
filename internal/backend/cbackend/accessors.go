package cbackend

import (
	"fmt"
	"strings"

	"github.com/rvjit/rvjit/internal/config"
)

// GenerateAccessors renders the rd_mem_*/wr_mem_* guest-memory
// accessors, the CSR file accessors, and the bit-counting helpers
// every lowered block calls (§3.7, §4.5). They are emitted as static
// inline functions in <base>.h so each partition translation unit gets
// its own copy rather than requiring a separate linked object.
func GenerateAccessors(opts *config.CompileOptions, htif bool) string {
	var out strings.Builder

	out.WriteString("static inline uint64_t rv_clz64(uint64_t v) { return v == 0 ? 64 : (uint64_t)__builtin_clzll(v); }\n")
	out.WriteString("static inline uint64_t rv_ctz64(uint64_t v) { return v == 0 ? 64 : (uint64_t)__builtin_ctzll(v); }\n\n")

	out.WriteString("static inline RvReg rv_csr_read(RvState* state, uint32_t csr) { return state->csrs[csr & 0xfffu]; }\n")
	out.WriteString("static inline void rv_csr_write(RvState* state, uint32_t csr, RvReg val) { state->csrs[csr & 0xfffu] = val; }\n\n")

	out.WriteString(generateArithHelpers())

	mode := opts.AddressMode()
	for _, w := range []struct {
		ctype string
		width int
	}{{"uint8_t", 1}, {"int8_t", 1}, {"uint16_t", 2}, {"int16_t", 2}, {"uint32_t", 4}, {"int32_t", 4}, {"uint64_t", 8}, {"int64_t", 8}} {
		fmt.Fprintf(&out, "static inline %s rd_mem_%s(RvState* state, uint8_t* memory, uint64_t addr) {\n", w.ctype, memSuffixFor(w.ctype))
		out.WriteString(translateAddr(mode, w.width, true))
		fmt.Fprintf(&out, "  %s v; __builtin_memcpy(&v, memory + off, sizeof(v)); return v;\n}\n", w.ctype)
	}
	out.WriteString("\n")

	for _, w := range []struct {
		ctype string
		width int
	}{{"uint8_t", 1}, {"uint16_t", 2}, {"uint32_t", 4}, {"uint64_t", 8}} {
		fmt.Fprintf(&out, "static inline void wr_mem_%s(RvState* state, uint8_t* memory, uint64_t addr, %s val) {\n", memSuffixFor(w.ctype), w.ctype)
		if htif && w.width == 8 {
			out.WriteString("  if (addr == RV_HTIF_TOHOST) { rv_htif_tohost(state, memory, val); return; }\n")
		}
		out.WriteString(translateAddr(mode, w.width, false))
		out.WriteString("  __builtin_memcpy(memory + off, &val, sizeof(val));\n}\n")
	}
	return out.String()
}

// generateArithHelpers renders the M-extension and Zbb helper
// functions lowerBinary's expr.go calls by name (rv_div, rv_mulh, ...):
// wide multiply via __int128, and the RISC-V divide-by-zero/overflow
// semantics that differ from C's (no trap, fixed sentinel results).
func generateArithHelpers() string {
	return `static inline int64_t rv_mulh(int64_t a, int64_t b) {
  return (int64_t)(((__int128)a * (__int128)b) >> 64);
}
static inline int64_t rv_mulhsu(int64_t a, uint64_t b) {
  return (int64_t)(((__int128)a * (unsigned __int128)b) >> 64);
}
static inline uint64_t rv_mulhu(uint64_t a, uint64_t b) {
  return (uint64_t)(((unsigned __int128)a * (unsigned __int128)b) >> 64);
}
static inline int64_t rv_div(int64_t a, int64_t b) {
  if (b == 0) return -1;
  if (a == INT64_MIN && b == -1) return a;
  return a / b;
}
static inline uint64_t rv_divu(uint64_t a, uint64_t b) {
  if (b == 0) return UINT64_MAX;
  return a / b;
}
static inline int64_t rv_rem(int64_t a, int64_t b) {
  if (b == 0) return a;
  if (a == INT64_MIN && b == -1) return 0;
  return a % b;
}
static inline uint64_t rv_remu(uint64_t a, uint64_t b) {
  if (b == 0) return a;
  return a % b;
}
static inline int64_t rv_max(int64_t a, int64_t b) { return a > b ? a : b; }
static inline int64_t rv_min(int64_t a, int64_t b) { return a < b ? a : b; }
static inline uint64_t rv_maxu(uint64_t a, uint64_t b) { return a > b ? a : b; }
static inline uint64_t rv_minu(uint64_t a, uint64_t b) { return a < b ? a : b; }
static inline uint64_t rv_pack(uint64_t a, uint64_t b) {
  return (uint64_t)(uint32_t)a | ((uint64_t)(uint32_t)b << 32);
}

`
}

func memSuffixFor(ctype string) string {
	switch ctype {
	case "uint8_t":
		return "u8"
	case "int8_t":
		return "i8"
	case "uint16_t":
		return "u16"
	case "int16_t":
		return "i16"
	case "uint32_t":
		return "u32"
	case "int32_t":
		return "i32"
	case "int64_t":
		return "i64"
	default:
		return "u64"
	}
}

// translateAddr emits the address-translation prologue shared by every
// accessor, mirroring internal/rvmem.Translate's three address_mode
// strategies (§3.7): unchecked trusts the guard-page mapping, wrap
// masks into the region, bounds traps out-of-range accesses instead of
// silently wrapping them.
func translateAddr(mode config.AddressMode, width int, isRead bool) string {
	switch mode {
	case config.AddressWrap:
		return fmt.Sprintf("  uint64_t off = addr & (uint64_t)(%dULL - 1);\n", defaultMemorySize)
	case config.AddressBounds:
		var out strings.Builder
		fmt.Fprintf(&out, "  if (addr + %dULL > %dULL) {\n", width, defaultMemorySize)
		out.WriteString("    state->has_exited = 1;\n    state->exit_code = 1;\n")
		if isRead {
			out.WriteString("    return 0;\n")
		} else {
			out.WriteString("    return;\n")
		}
		out.WriteString("  }\n")
		fmt.Fprintf(&out, "  uint64_t off = addr & (uint64_t)(%dULL - 1);\n", defaultMemorySize)
		return out.String()
	default:
		return "  uint64_t off = addr;\n"
	}
}
