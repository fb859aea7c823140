package cfg

import "github.com/rvjit/rvjit/internal/isa"

// constCap bounds how many candidate constants a single register may
// carry before the lattice widens it to Unknown (§4.3 step 4).
const constCap = 16

// regValue is one lattice element: either Unknown (top) or a small set
// of possible constant values a register may hold at a given program
// point.
type regValue struct {
	unknown bool
	consts  []uint64
}

func unknownValue() regValue { return regValue{unknown: true} }

func constValue(v uint64) regValue { return regValue{consts: []uint64{v}} }

func (r regValue) single() (uint64, bool) {
	if r.unknown || len(r.consts) != 1 {
		return 0, false
	}
	return r.consts[0], true
}

// join merges two lattice values reaching the same program point from
// different predecessors (§4.3 step 4: "joined at merges").
func join(a, b regValue) regValue {
	if a.unknown || b.unknown {
		return unknownValue()
	}
	seen := make(map[uint64]bool, len(a.consts)+len(b.consts))
	var out []uint64
	for _, v := range a.consts {
		if !seen[v] {
			seen[v] = true
			out = append(out, v)
		}
	}
	for _, v := range b.consts {
		if !seen[v] {
			seen[v] = true
			out = append(out, v)
		}
	}
	if len(out) > constCap {
		return unknownValue()
	}
	return regValue{consts: out}
}

// regFile tracks the abstract value of every general-purpose register,
// flow-sensitive within a single block walk.
type regFile [32]regValue

func newRegFile() regFile {
	var f regFile
	for i := range f {
		f[i] = unknownValue()
	}
	// x0 is hardwired to zero and never becomes Unknown.
	f[0] = constValue(0)
	return f
}

func (f regFile) clone() regFile { return f }

func (f *regFile) set(r isa.Reg, v regValue) {
	if r == 0 {
		return
	}
	f[r] = v
}

func (f regFile) get(r isa.Reg) regValue {
	return f[r]
}

// step updates the lattice for one decoded instruction, implementing
// the narrow constant-propagation rules named in §4.3: lui/auipc plant
// constants, addi on a constant yields a constant, everything else
// with an unknown operand yields Unknown.
func (f *regFile) step(in isa.DecodedInstr, info isa.OpInfo, pc uint64) {
	switch info.Mnemonic {
	case "lui":
		f.set(in.Args.Rd, constValue(uint64(in.Args.Imm)))
	case "auipc":
		f.set(in.Args.Rd, constValue(pc+uint64(in.Args.Imm)))
	case "addi", "c.addi", "c.addi16sp", "c.li", "c.lui":
		base := f.get(in.Args.Rs1)
		if v, ok := base.single(); ok {
			f.set(in.Args.Rd, constValue(v+uint64(in.Args.Imm)))
			return
		}
		f.set(in.Args.Rd, unknownValue())
	default:
		if in.Args.Kind == isa.ArgsR || in.Args.Kind == isa.ArgsI ||
			in.Args.Kind == isa.ArgsU || in.Args.Kind == isa.ArgsJ {
			f.set(in.Args.Rd, unknownValue())
		}
	}
}
