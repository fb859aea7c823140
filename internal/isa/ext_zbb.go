package isa

import (
	"fmt"

	"github.com/rvjit/rvjit/internal/ir"
)

const (
	opCLZ uint8 = iota
	opCTZ
	opCPOP
	opANDN
	opORN
	opXNOR
	opMAX
	opMAXU
	opMIN
	opMINU
	opSEXTB
	opSEXTH
	opZEXTH
)

var zbbOpInfo = map[uint8]OpInfo{
	opCLZ: {"clz", "Zbb"}, opCTZ: {"ctz", "Zbb"}, opCPOP: {"cpop", "Zbb"},
	opANDN: {"andn", "Zbb"}, opORN: {"orn", "Zbb"}, opXNOR: {"xnor", "Zbb"},
	opMAX: {"max", "Zbb"}, opMAXU: {"maxu", "Zbb"}, opMIN: {"min", "Zbb"}, opMINU: {"minu", "Zbb"},
	opSEXTB: {"sext.b", "Zbb"}, opSEXTH: {"sext.h", "Zbb"}, opZEXTH: {"zext.h", "Zbb"},
}

// Zbb implements the basic bit-manipulation extension.
type Zbb[X Xlen] struct{}

func (Zbb[X]) Name() string { return "Zbb" }
func (Zbb[X]) ExtID() uint8 { return ExtIDZbb }

func (Zbb[X]) Decode16(uint16, uint64) (DecodedInstr, bool) { return DecodedInstr{}, false }

func (Zbb[X]) Decode32(word uint32, pc uint64) (DecodedInstr, bool) {
	opcode := word >> 2 & 0x1f
	funct3 := word >> 12 & 0x7
	funct7 := word >> 25 & 0x7f
	rd := Reg(word >> 7 & 0x1f)
	rs1 := Reg(word >> 15 & 0x1f)
	rs2 := Reg(word >> 20 & 0x1f)

	mkR := func(idx uint8) (DecodedInstr, bool) {
		return DecodedInstr{OpId: NewOpId(ExtIDZbb, idx), PC: pc, Size: 4, Raw: word, Args: Args{Kind: ArgsR, Rd: rd, Rs1: rs1, Rs2: rs2}}, true
	}
	mkI := func(idx uint8) (DecodedInstr, bool) {
		return DecodedInstr{OpId: NewOpId(ExtIDZbb, idx), PC: pc, Size: 4, Raw: word, Args: Args{Kind: ArgsI, Rd: rd, Rs1: rs1}}, true
	}

	switch opcode {
	case baseOpOp:
		switch {
		case funct7 == 0x20 && funct3 == 7:
			return mkR(opANDN)
		case funct7 == 0x20 && funct3 == 6:
			return mkR(opORN)
		case funct7 == 0x20 && funct3 == 4:
			return mkR(opXNOR)
		case funct7 == 0x05 && funct3 == 6:
			return mkR(opMAX)
		case funct7 == 0x05 && funct3 == 7:
			return mkR(opMAXU)
		case funct7 == 0x05 && funct3 == 4:
			return mkR(opMIN)
		case funct7 == 0x05 && funct3 == 5:
			return mkR(opMINU)
		}
	case baseOpOpImm:
		if funct3 == 1 && word>>20 == 0x600 {
			return mkI(opCLZ)
		}
		if funct3 == 1 && word>>20 == 0x601 {
			return mkI(opCTZ)
		}
		if funct3 == 1 && word>>20 == 0x602 {
			return mkI(opCPOP)
		}
		if funct3 == 1 && word>>20 == 0x604 {
			return mkI(opSEXTB)
		}
		if funct3 == 1 && word>>20 == 0x605 {
			return mkI(opSEXTH)
		}
		if funct3 == 4 && word>>20 == 0x080 {
			return mkI(opZEXTH)
		}
	}
	return DecodedInstr{}, false
}

func (Zbb[X]) OpInfo(id OpId) (OpInfo, bool) { info, ok := zbbOpInfo[id.Index()]; return info, ok }

func (z Zbb[X]) Disasm(in DecodedInstr) string {
	info, _ := z.OpInfo(in.OpId)
	return fmt.Sprintf("%s x%d, x%d", info.Mnemonic, in.Args.Rd, in.Args.Rs1)
}

func (Zbb[X]) Lift(in DecodedInstr) ir.InstrIR {
	readReg := func(r Reg) ir.Expr { return ir.ExprRead{Space: ir.SpaceReg, Key: uint32(r)} }
	writeReg := func(r Reg, v ir.Expr) ir.Stmt {
		return ir.StmtWrite{Target: ir.WriteTarget{Kind: ir.WriteReg, Reg: r}, Value: v}
	}
	idx := in.OpId.Index()
	var val ir.Expr
	switch idx {
	case opCLZ:
		val = ir.ExprUnary{Op: ir.UnaryClz, Operand: readReg(in.Args.Rs1)}
	case opCTZ:
		val = ir.ExprUnary{Op: ir.UnaryCtz, Operand: readReg(in.Args.Rs1)}
	case opCPOP:
		val = ir.ExprUnary{Op: ir.UnaryCpop, Operand: readReg(in.Args.Rs1)}
	case opSEXTB:
		val = ir.ExprUnary{Op: ir.UnarySextB, Operand: readReg(in.Args.Rs1)}
	case opSEXTH:
		val = ir.ExprUnary{Op: ir.UnarySextH, Operand: readReg(in.Args.Rs1)}
	case opZEXTH:
		val = ir.ExprUnary{Op: ir.UnaryZextH, Operand: readReg(in.Args.Rs1)}
	case opANDN:
		val = ir.ExprBinary{Op: ir.BinAndn, Left: readReg(in.Args.Rs1), Right: readReg(in.Args.Rs2)}
	case opORN:
		val = ir.ExprBinary{Op: ir.BinOrn, Left: readReg(in.Args.Rs1), Right: readReg(in.Args.Rs2)}
	case opXNOR:
		val = ir.ExprBinary{Op: ir.BinXnor, Left: readReg(in.Args.Rs1), Right: readReg(in.Args.Rs2)}
	case opMAX:
		val = ir.ExprBinary{Op: ir.BinMax, Left: readReg(in.Args.Rs1), Right: readReg(in.Args.Rs2)}
	case opMAXU:
		val = ir.ExprBinary{Op: ir.BinMaxU, Left: readReg(in.Args.Rs1), Right: readReg(in.Args.Rs2)}
	case opMIN:
		val = ir.ExprBinary{Op: ir.BinMin, Left: readReg(in.Args.Rs1), Right: readReg(in.Args.Rs2)}
	case opMINU:
		val = ir.ExprBinary{Op: ir.BinMinU, Left: readReg(in.Args.Rs1), Right: readReg(in.Args.Rs2)}
	}
	fall := in.PC + uint64(in.Size)
	return ir.InstrIR{
		PC: in.PC, Size: in.Size, Raw: in.Raw, OpId: in.OpId,
		Statements: []ir.Stmt{writeReg(in.Args.Rd, val)},
		Terminator: &ir.Terminator{Kind: ir.TermFall, Fall: fall},
	}
}
