package isa

import (
	"fmt"

	"github.com/rvjit/rvjit/internal/ir"
)

// Base extension opcode indices, packed into OpId via NewOpId(ExtIDBase, idx).
const (
	opLUI uint8 = iota
	opAUIPC
	opJAL
	opJALR
	opBEQ
	opBNE
	opBLT
	opBGE
	opBLTU
	opBGEU
	opLB
	opLH
	opLW
	opLBU
	opLHU
	opLD
	opLWU
	opSB
	opSH
	opSW
	opSD
	opADDI
	opSLTI
	opSLTIU
	opXORI
	opORI
	opANDI
	opSLLI
	opSRLI
	opSRAI
	opADD
	opSUB
	opSLL
	opSLT
	opSLTU
	opXOR
	opSRL
	opSRA
	opOR
	opAND
	opADDIW
	opSLLIW
	opSRLIW
	opSRAIW
	opADDW
	opSUBW
	opSLLW
	opSRLW
	opSRAW
	opFENCE
	opECALL
	opEBREAK
)

// baseOpInfo names every index above.
var baseOpInfo = map[uint8]OpInfo{
	opLUI: {"lui", "I"}, opAUIPC: {"auipc", "I"}, opJAL: {"jal", "I"}, opJALR: {"jalr", "I"},
	opBEQ: {"beq", "I"}, opBNE: {"bne", "I"}, opBLT: {"blt", "I"}, opBGE: {"bge", "I"},
	opBLTU: {"bltu", "I"}, opBGEU: {"bgeu", "I"},
	opLB: {"lb", "I"}, opLH: {"lh", "I"}, opLW: {"lw", "I"}, opLBU: {"lbu", "I"}, opLHU: {"lhu", "I"},
	opLD: {"ld", "I"}, opLWU: {"lwu", "I"},
	opSB: {"sb", "I"}, opSH: {"sh", "I"}, opSW: {"sw", "I"}, opSD: {"sd", "I"},
	opADDI: {"addi", "I"}, opSLTI: {"slti", "I"}, opSLTIU: {"sltiu", "I"}, opXORI: {"xori", "I"},
	opORI: {"ori", "I"}, opANDI: {"andi", "I"}, opSLLI: {"slli", "I"}, opSRLI: {"srli", "I"}, opSRAI: {"srai", "I"},
	opADD: {"add", "I"}, opSUB: {"sub", "I"}, opSLL: {"sll", "I"}, opSLT: {"slt", "I"}, opSLTU: {"sltu", "I"},
	opXOR: {"xor", "I"}, opSRL: {"srl", "I"}, opSRA: {"sra", "I"}, opOR: {"or", "I"}, opAND: {"and", "I"},
	opADDIW: {"addiw", "I"}, opSLLIW: {"slliw", "I"}, opSRLIW: {"srliw", "I"}, opSRAIW: {"sraiw", "I"},
	opADDW: {"addw", "I"}, opSUBW: {"subw", "I"}, opSLLW: {"sllw", "I"}, opSRLW: {"srlw", "I"}, opSRAW: {"sraw", "I"},
	opFENCE: {"fence", "I"}, opECALL: {"ecall", "I"}, opEBREAK: {"ebreak", "I"},
}

// Base opcode field (bits 6:2) values, per riscv-spec-v2.2 table 19.1.
const (
	baseOpLoad    = 0x00
	baseOpMiscMem = 0x03
	baseOpOpImm   = 0x04
	baseOpAUIPC   = 0x05
	baseOpOpImm32 = 0x06
	baseOpStore   = 0x08
	baseOpAMO     = 0x0b
	baseOpOp      = 0x0c
	baseOpLUI     = 0x0d
	baseOpOp32    = 0x0e
	baseOpBranch  = 0x18
	baseOpJALR    = 0x19
	baseOpJAL     = 0x1b
	baseOpSystem  = 0x1c
)

// BaseI implements the RV32I/RV64I extension, parameterized over XLEN.
// W-suffixed ops (RV64 only) decode and lift under either XLEN; neither
// this type nor the cfg/lift callers reject them on an RV32 build.
type BaseI[X Xlen] struct {
	// Override, when non-nil, replaces the default ecall/ebreak lift
	// (used to install the Baremetal vs Linux syscall lowering strategy,
	// §4.1).
	SyscallLift func(in DecodedInstr) ir.InstrIR
}

func (BaseI[X]) Name() string  { return "I" }
func (BaseI[X]) ExtID() uint8  { return ExtIDBase }

func (BaseI[X]) Decode16(uint16, uint64) (DecodedInstr, bool) { return DecodedInstr{}, false }

func (b BaseI[X]) Decode32(word uint32, pc uint64) (DecodedInstr, bool) {
	rd := Reg(word >> 7 & 0x1f)
	rs1 := Reg(word >> 15 & 0x1f)
	rs2 := Reg(word >> 20 & 0x1f)
	funct3 := word >> 12 & 0x7
	funct7 := word >> 25 & 0x7f
	opcode := word >> 2 & 0x1f

	mk := func(idx uint8, args Args) (DecodedInstr, bool) {
		return DecodedInstr{OpId: NewOpId(ExtIDBase, idx), PC: pc, Size: 4, Raw: word, Args: args}, true
	}

	switch opcode {
	case baseOpLUI:
		return mk(opLUI, Args{Kind: ArgsU, Rd: rd, Imm: int64(int32(word & 0xfffff000))})
	case baseOpAUIPC:
		return mk(opAUIPC, Args{Kind: ArgsU, Rd: rd, Imm: int64(int32(word & 0xfffff000))})
	case baseOpJAL:
		imm := (word>>11&0x100000 | word&0xff000 | word>>9&0x800 | word>>20&0x7fe)
		return mk(opJAL, Args{Kind: ArgsJ, Rd: rd, Imm: signExtend(int64(imm), 21)})
	case baseOpJALR:
		if funct3 != 0 {
			return DecodedInstr{}, false
		}
		imm := signExtend(int64(word)>>20, 12)
		return mk(opJALR, Args{Kind: ArgsI, Rd: rd, Rs1: rs1, Imm: imm})
	case baseOpBranch:
		imm := word>>19&0x1000 | word<<4&0x800 | word>>20&0x7e0 | word>>7&0x1e
		idx, ok := map[uint32]uint8{0: opBEQ, 1: opBNE, 4: opBLT, 5: opBGE, 6: opBLTU, 7: opBGEU}[funct3]
		if !ok {
			return DecodedInstr{}, false
		}
		return mk(idx, Args{Kind: ArgsB, Rs1: rs1, Rs2: rs2, Imm: signExtend(int64(imm), 13)})
	case baseOpLoad:
		idx, ok := map[uint32]uint8{0: opLB, 1: opLH, 2: opLW, 3: opLD, 4: opLBU, 5: opLHU, 6: opLWU}[funct3]
		if !ok {
			return DecodedInstr{}, false
		}
		imm := signExtend(int64(word)>>20, 12)
		return mk(idx, Args{Kind: ArgsI, Rd: rd, Rs1: rs1, Imm: imm})
	case baseOpStore:
		idx, ok := map[uint32]uint8{0: opSB, 1: opSH, 2: opSW, 3: opSD}[funct3]
		if !ok {
			return DecodedInstr{}, false
		}
		imm := int64(word)>>25<<5 | int64(word>>7&0x1f)
		return mk(idx, Args{Kind: ArgsS, Rs1: rs1, Rs2: rs2, Imm: signExtend(imm, 12)})
	case baseOpOpImm:
		imm := signExtend(int64(word)>>20, 12)
		switch funct3 {
		case 0:
			return mk(opADDI, Args{Kind: ArgsI, Rd: rd, Rs1: rs1, Imm: imm})
		case 2:
			return mk(opSLTI, Args{Kind: ArgsI, Rd: rd, Rs1: rs1, Imm: imm})
		case 3:
			return mk(opSLTIU, Args{Kind: ArgsI, Rd: rd, Rs1: rs1, Imm: imm})
		case 4:
			return mk(opXORI, Args{Kind: ArgsI, Rd: rd, Rs1: rs1, Imm: imm})
		case 6:
			return mk(opORI, Args{Kind: ArgsI, Rd: rd, Rs1: rs1, Imm: imm})
		case 7:
			return mk(opANDI, Args{Kind: ArgsI, Rd: rd, Rs1: rs1, Imm: imm})
		case 1:
			return mk(opSLLI, Args{Kind: ArgsI, Rd: rd, Rs1: rs1, Imm: int64(word >> 20 & 0x3f)})
		case 5:
			shamt := int64(word >> 20 & 0x3f)
			if funct7>>1 == 0x10 {
				return mk(opSRAI, Args{Kind: ArgsI, Rd: rd, Rs1: rs1, Imm: shamt})
			}
			return mk(opSRLI, Args{Kind: ArgsI, Rd: rd, Rs1: rs1, Imm: shamt})
		}
	case baseOpOpImm32:
		imm := signExtend(int64(word)>>20, 12)
		switch funct3 {
		case 0:
			return mk(opADDIW, Args{Kind: ArgsI, Rd: rd, Rs1: rs1, Imm: imm})
		case 1:
			return mk(opSLLIW, Args{Kind: ArgsI, Rd: rd, Rs1: rs1, Imm: int64(word >> 20 & 0x1f)})
		case 5:
			shamt := int64(word >> 20 & 0x1f)
			if funct7>>1 == 0x10 {
				return mk(opSRAIW, Args{Kind: ArgsI, Rd: rd, Rs1: rs1, Imm: shamt})
			}
			return mk(opSRLIW, Args{Kind: ArgsI, Rd: rd, Rs1: rs1, Imm: shamt})
		}
	case baseOpOp:
		if funct7 == 0x01 {
			return DecodedInstr{}, false // M extension; let that extension claim it
		}
		idx, ok := map[[2]uint32]uint8{
			{0, 0x00}: opADD, {0, 0x20}: opSUB, {1, 0x00}: opSLL, {2, 0x00}: opSLT, {3, 0x00}: opSLTU,
			{4, 0x00}: opXOR, {5, 0x00}: opSRL, {5, 0x20}: opSRA, {6, 0x00}: opOR, {7, 0x00}: opAND,
		}[[2]uint32{funct3, funct7}]
		if !ok {
			return DecodedInstr{}, false
		}
		return mk(idx, Args{Kind: ArgsR, Rd: rd, Rs1: rs1, Rs2: rs2})
	case baseOpOp32:
		if funct7 == 0x01 {
			return DecodedInstr{}, false // MULW/DIVW/REMW family
		}
		idx, ok := map[[2]uint32]uint8{
			{0, 0x00}: opADDW, {0, 0x20}: opSUBW, {1, 0x00}: opSLLW, {5, 0x00}: opSRLW, {5, 0x20}: opSRAW,
		}[[2]uint32{funct3, funct7}]
		if !ok {
			return DecodedInstr{}, false
		}
		return mk(idx, Args{Kind: ArgsR, Rd: rd, Rs1: rs1, Rs2: rs2})
	case baseOpMiscMem:
		return mk(opFENCE, Args{Kind: ArgsNone})
	case baseOpSystem:
		if funct3 != 0 {
			return DecodedInstr{}, false // zicsr claims funct3 != 0
		}
		switch word >> 20 {
		case 0:
			return mk(opECALL, Args{Kind: ArgsNone})
		case 1:
			return mk(opEBREAK, Args{Kind: ArgsNone})
		}
	}
	return DecodedInstr{}, false
}

func signExtend(v int64, bits int) int64 {
	shift := 64 - bits
	return v << shift >> shift
}

func (BaseI[X]) OpInfo(id OpId) (OpInfo, bool) {
	info, ok := baseOpInfo[id.Index()]
	return info, ok
}

func (b BaseI[X]) Disasm(in DecodedInstr) string {
	info, _ := b.OpInfo(in.OpId)
	return fmt.Sprintf("%s x%d, x%d, %d", info.Mnemonic, in.Args.Rd, in.Args.Rs1, in.Args.Imm)
}

// Lift converts a decoded base-extension instruction to IR (§4.1).
func (b BaseI[X]) Lift(in DecodedInstr) ir.InstrIR {
	out := ir.InstrIR{PC: in.PC, Size: in.Size, Raw: in.Raw, OpId: in.OpId}
	fall := in.PC + uint64(in.Size)

	readReg := func(r Reg) ir.Expr { return ir.ExprRead{Space: ir.SpaceReg, Key: uint32(r)} }
	writeReg := func(r Reg, v ir.Expr) ir.Stmt {
		return ir.StmtWrite{Target: ir.WriteTarget{Kind: ir.WriteReg, Reg: r}, Value: v}
	}
	xlen := uint8(XlenOf[X]())

	switch in.OpId.Index() {
	case opLUI:
		out.Statements = []ir.Stmt{writeReg(in.Args.Rd, ir.ExprImm{Value: in.Args.Imm, Width: 64})}
	case opAUIPC:
		out.Statements = []ir.Stmt{writeReg(in.Args.Rd, ir.ExprBinary{
			Op: ir.BinAdd, Left: ir.ExprPcConst{PC: in.PC}, Right: ir.ExprImm{Value: in.Args.Imm, Width: 64},
		})}
	case opJAL, opJALR:
		var addr ir.Expr
		if in.OpId.Index() == opJAL {
			addr = ir.ExprImm{Value: int64(in.PC) + in.Args.Imm, Width: 64}
		} else {
			addr = ir.ExprBinary{
				Op: ir.BinAnd,
				Left: ir.ExprBinary{Op: ir.BinAdd, Left: readReg(in.Args.Rs1), Right: ir.ExprImm{Value: in.Args.Imm, Width: 64}},
				Right: ir.ExprImm{Value: ^int64(1), Width: 64},
			}
		}
		out.Statements = []ir.Stmt{writeReg(in.Args.Rd, ir.ExprImm{Value: int64(fall), Width: 64})}
		if in.OpId.Index() == opJAL {
			out.Terminator = &ir.Terminator{Kind: ir.TermJump, Target: uint64(int64(in.PC) + in.Args.Imm)}
		} else {
			out.Terminator = &ir.Terminator{Kind: ir.TermJumpDyn, Addr: addr}
		}
	case opBEQ, opBNE, opBLT, opBGE, opBLTU, opBGEU:
		op := map[uint8]ir.BinaryOp{opBEQ: ir.BinEq, opBNE: ir.BinNe, opBLT: ir.BinLt, opBGE: ir.BinGe, opBLTU: ir.BinLtU, opBGEU: ir.BinGeU}[in.OpId.Index()]
		cond := ir.ExprBinary{Op: op, Left: readReg(in.Args.Rs1), Right: readReg(in.Args.Rs2)}
		out.Terminator = &ir.Terminator{
			Kind: ir.TermBranch, Cond: cond,
			Target: uint64(int64(in.PC) + in.Args.Imm), Fall: fall, HasFall: true,
		}
	case opLB, opLH, opLW, opLBU, opLHU, opLD, opLWU:
		width, signed := loadShape(in.OpId.Index())
		addr := readReg(in.Args.Rs1)
		out.Statements = []ir.Stmt{writeReg(in.Args.Rd, ir.ExprRead{
			Space: ir.SpaceMem, Base: addr, Offset: in.Args.Imm, Width: width, Signed: signed,
		})}
	case opSB, opSH, opSW, opSD:
		width := storeWidth(in.OpId.Index())
		addr := readReg(in.Args.Rs1)
		out.Statements = []ir.Stmt{ir.StmtWrite{
			Target: ir.WriteTarget{Kind: ir.WriteMem, Base: addr, Offset: in.Args.Imm, Width: width},
			Value:  readReg(in.Args.Rs2),
		}}
	case opADDI, opSLTI, opSLTIU, opXORI, opORI, opANDI, opSLLI, opSRLI, opSRAI:
		op := immALUOp(in.OpId.Index())
		out.Statements = []ir.Stmt{writeReg(in.Args.Rd, ir.ExprBinary{Op: op, Left: readReg(in.Args.Rs1), Right: ir.ExprImm{Value: in.Args.Imm, Width: 64}, Width: xlen})}
	case opADD, opSUB, opSLL, opSLT, opSLTU, opXOR, opSRL, opSRA, opOR, opAND:
		op := regALUOp(in.OpId.Index())
		out.Statements = []ir.Stmt{writeReg(in.Args.Rd, ir.ExprBinary{Op: op, Left: readReg(in.Args.Rs1), Right: readReg(in.Args.Rs2), Width: xlen})}
	case opADDIW, opSLLIW, opSRLIW, opSRAIW:
		op := immALUOp32(in.OpId.Index())
		left := narrow32ForW(in.OpId.Index(), opSRLIW, opSRAIW, readReg(in.Args.Rs1))
		val := ir.ExprBinary{Op: op, Left: left, Right: ir.ExprImm{Value: in.Args.Imm, Width: 32}, Width: 32}
		out.Statements = []ir.Stmt{writeReg(in.Args.Rd, ir.ExprUnary{Op: ir.UnarySext32, Operand: val})}
	case opADDW, opSUBW, opSLLW, opSRLW, opSRAW:
		op := regALUOp32(in.OpId.Index())
		left := narrow32ForW(in.OpId.Index(), opSRLW, opSRAW, readReg(in.Args.Rs1))
		val := ir.ExprBinary{Op: op, Left: left, Right: readReg(in.Args.Rs2), Width: 32}
		out.Statements = []ir.Stmt{writeReg(in.Args.Rd, ir.ExprUnary{Op: ir.UnarySext32, Operand: val})}
	case opFENCE:
		// Lowered to a no-op: generated code emits in program order, so
		// there is nothing to reorder against (§4.1).
	case opECALL, opEBREAK:
		if b.SyscallLift != nil {
			return b.SyscallLift(in)
		}
		out.Terminator = &ir.Terminator{Kind: ir.TermExit, Code: readReg(10)} // a0
	}
	if out.Terminator == nil && in.OpId.Index() != opJAL && in.OpId.Index() != opJALR &&
		!isBranch(in.OpId.Index()) && in.OpId.Index() != opECALL && in.OpId.Index() != opEBREAK {
		out.Terminator = &ir.Terminator{Kind: ir.TermFall, Fall: fall}
	}
	return out
}

// narrow32ForW narrows rs1 to its low 32 bits before a *W right-shift,
// since SRLW/SRAW (and their immediate forms) must shift the low 32
// bits alone rather than the full 64-bit register (§4.1 M extension
// note): logical shift needs a zero-extending narrow, arithmetic shift
// a sign-extending one, so the shift itself never pulls stale high
// bits down into the result. ADDW/SUBW/SLLW need no narrowing since
// their low 32 result bits are independent of rs1's upper bits.
func narrow32ForW(idx, logicalShiftIdx, arithShiftIdx uint8, rs1 ir.Expr) ir.Expr {
	switch idx {
	case logicalShiftIdx:
		return ir.ExprUnary{Op: ir.UnaryZext32, Operand: rs1}
	case arithShiftIdx:
		return ir.ExprUnary{Op: ir.UnarySext32, Operand: rs1}
	default:
		return rs1
	}
}

func isBranch(idx uint8) bool {
	switch idx {
	case opBEQ, opBNE, opBLT, opBGE, opBLTU, opBGEU:
		return true
	}
	return false
}

func loadShape(idx uint8) (width uint8, signed bool) {
	switch idx {
	case opLB:
		return 8, true
	case opLH:
		return 16, true
	case opLW:
		return 32, true
	case opLBU:
		return 8, false
	case opLHU:
		return 16, false
	case opLD:
		return 64, true
	case opLWU:
		return 32, false
	}
	return 64, true
}

func storeWidth(idx uint8) uint8 {
	switch idx {
	case opSB:
		return 8
	case opSH:
		return 16
	case opSW:
		return 32
	case opSD:
		return 64
	}
	return 64
}

func immALUOp(idx uint8) ir.BinaryOp {
	switch idx {
	case opADDI:
		return ir.BinAdd
	case opSLTI:
		return ir.BinLt
	case opSLTIU:
		return ir.BinLtU
	case opXORI:
		return ir.BinXor
	case opORI:
		return ir.BinOr
	case opANDI:
		return ir.BinAnd
	case opSLLI:
		return ir.BinShl
	case opSRLI:
		return ir.BinShrL
	case opSRAI:
		return ir.BinShrA
	}
	return ir.BinAdd
}

func regALUOp(idx uint8) ir.BinaryOp {
	switch idx {
	case opADD:
		return ir.BinAdd
	case opSUB:
		return ir.BinSub
	case opSLL:
		return ir.BinShl
	case opSLT:
		return ir.BinLt
	case opSLTU:
		return ir.BinLtU
	case opXOR:
		return ir.BinXor
	case opSRL:
		return ir.BinShrL
	case opSRA:
		return ir.BinShrA
	case opOR:
		return ir.BinOr
	case opAND:
		return ir.BinAnd
	}
	return ir.BinAdd
}

func immALUOp32(idx uint8) ir.BinaryOp {
	switch idx {
	case opADDIW:
		return ir.BinAdd
	case opSLLIW:
		return ir.BinShl
	case opSRLIW:
		return ir.BinShrL
	case opSRAIW:
		return ir.BinShrA
	}
	return ir.BinAdd
}

func regALUOp32(idx uint8) ir.BinaryOp {
	switch idx {
	case opADDW:
		return ir.BinAdd
	case opSUBW:
		return ir.BinSub
	case opSLLW:
		return ir.BinShl
	case opSRLW:
		return ir.BinShrL
	case opSRAW:
		return ir.BinShrA
	}
	return ir.BinAdd
}
