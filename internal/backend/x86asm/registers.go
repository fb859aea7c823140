// Package x86asm renders a program's lifted blocks as one linear
// System V AMD64 assembly text stream (§4.7), rather than a function
// per block. Register naming mirrors wazero's amd64 assembler
// (internal/asm/amd64/consts.go REG_*) translated from "machine code
// byte encodings" to "assembly mnemonic operands".
package x86asm

// Fixed GPR pinning (§4.7 "Register pinning"): two registers dedicated
// to state/memory, three scratch temporaries, the rest available for
// hot guest registers.
const (
	RegState = "rbx"
	RegMem   = "r15"

	RegTemp0 = "rax"
	RegTemp1 = "rcx"
	RegTemp2 = "rdx"
)

// hotRegPool lists host GPRs available to pin hot guest registers,
// in preference order, after state/memory/temporaries are reserved.
var hotRegPool = []string{"r14", "r13", "r12", "r11", "r10", "r9", "r8", "rsi", "rdi"}

// HotRegAssignment maps a guest register number to its pinned host
// GPR for the lifetime of asm_run.
type HotRegAssignment struct {
	Order []int            // guest register numbers, in pinning order
	Host  map[int]string    // guest register number -> host GPR name
}

// AssignHotRegs pins up to len(hotRegPool) guest registers (by number,
// already ranked by internal/emit.SelectHotRegs) to host GPRs.
func AssignHotRegs(guestRegs []int) HotRegAssignment {
	a := HotRegAssignment{Host: map[int]string{}}
	n := len(guestRegs)
	if n > len(hotRegPool) {
		n = len(hotRegPool)
	}
	for i := 0; i < n; i++ {
		a.Order = append(a.Order, guestRegs[i])
		a.Host[guestRegs[i]] = hotRegPool[i]
	}
	return a
}
