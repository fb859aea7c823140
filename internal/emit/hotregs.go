// Package emit holds the logic shared by every backend before any
// backend-specific text is produced: hot-register selection, block
// function signature assembly, and dispatch-table layout (§4.5).
package emit

import "github.com/rvjit/rvjit/internal/isa"

// SlotBudget is the number of guest GPRs a backend can pin into host
// registers inside block functions (§4.5).
type SlotBudget struct {
	CBackendAmd64  int
	CBackendArm64  int
	X86Asm         int
	Arm64Asm       int
}

// DefaultSlotBudget matches the counts named in §4.5: "C: 11 on
// x86-64, 24 on aarch64 with preserve_none; x86 asm: 8; arm64 asm: 23".
var DefaultSlotBudget = SlotBudget{
	CBackendAmd64: 11,
	CBackendArm64: 24,
	X86Asm:        8,
	Arm64Asm:      23,
}

// preferredOrder is the candidate list the heuristic starts from:
// {ra, sp, gp, a0..a7} by RISC-V ABI register number (x1, x2, x3,
// x10..x17).
var preferredOrder = []isa.Reg{1, 2, 3, 10, 11, 12, 13, 14, 15, 16, 17}

// SelectHotRegs starts from {ra, sp, gp, a0..a7}, truncates to the
// backend's slot budget, and leaves room for reservedSlots consumed by
// non-hot-reg parameters (instret counter, tracer-passed vars) that
// occupy argument-register budget ahead of the hot regs.
func SelectHotRegs(slots, reservedSlots int) []isa.Reg {
	budget := slots - reservedSlots
	if budget <= 0 {
		return nil
	}
	if budget > len(preferredOrder) {
		budget = len(preferredOrder)
	}
	out := make([]isa.Reg, budget)
	copy(out, preferredOrder[:budget])
	return out
}
