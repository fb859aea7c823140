// Package arm64asm renders a program's lifted blocks as one linear
// AArch64 assembly text stream (§4.7), the AArch64 counterpart to
// internal/backend/x86asm. Register naming mirrors wazero's arm64
// assembler (internal/asm/arm64/consts.go REG_*) translated from
// "machine code byte encodings" to "assembly mnemonic operands".
package arm64asm

// Fixed GPR pinning (§4.7 "Register pinning"): two registers dedicated
// to state/memory, three scratch temporaries, the remaining general
// registers available for hot guest registers — AArch64 has more GPRs
// than x86-64 so more hot registers are pinned here than on x86.
const (
	RegState = "x20"
	RegMem   = "x21"

	RegTemp0 = "x9"
	RegTemp1 = "x10"
	RegTemp2 = "x11"
)

var hotRegPool = []string{
	"x19", "x22", "x23", "x24", "x25", "x26", "x27", "x28",
	"x12", "x13", "x14", "x15",
}

// HotRegAssignment maps a guest register number to its pinned host
// GPR for the lifetime of asm_run.
type HotRegAssignment struct {
	Order []int
	Host  map[int]string
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
