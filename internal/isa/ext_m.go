package isa

import (
	"fmt"

	"github.com/rvjit/rvjit/internal/ir"
)

const (
	opMUL uint8 = iota
	opMULH
	opMULHSU
	opMULHU
	opDIV
	opDIVU
	opREM
	opREMU
	opMULW
	opDIVW
	opDIVUW
	opREMW
	opREMUW
)

var mOpInfo = map[uint8]OpInfo{
	opMUL: {"mul", "M"}, opMULH: {"mulh", "M"}, opMULHSU: {"mulhsu", "M"}, opMULHU: {"mulhu", "M"},
	opDIV: {"div", "M"}, opDIVU: {"divu", "M"}, opREM: {"rem", "M"}, opREMU: {"remu", "M"},
	opMULW: {"mulw", "M"}, opDIVW: {"divw", "M"}, opDIVUW: {"divuw", "M"}, opREMW: {"remw", "M"}, opREMUW: {"remuw", "M"},
}

// M implements the mul/div extension. Division-by-zero and signed
// overflow follow RISC-V semantics exactly (§4.1): these are expressed
// as dedicated BinaryOp variants so every backend lowers the special
// cases identically rather than relying on host division trapping.
type M[X Xlen] struct{}

func (M[X]) Name() string { return "M" }
func (M[X]) ExtID() uint8 { return ExtIDM }

func (M[X]) Decode16(uint16, uint64) (DecodedInstr, bool) { return DecodedInstr{}, false }

func (M[X]) Decode32(word uint32, pc uint64) (DecodedInstr, bool) {
	opcode := word >> 2 & 0x1f
	funct3 := word >> 12 & 0x7
	funct7 := word >> 25 & 0x7f
	if funct7 != 0x01 {
		return DecodedInstr{}, false
	}
	rd := Reg(word >> 7 & 0x1f)
	rs1 := Reg(word >> 15 & 0x1f)
	rs2 := Reg(word >> 20 & 0x1f)
	args := Args{Kind: ArgsR, Rd: rd, Rs1: rs1, Rs2: rs2}
	mk := func(idx uint8) (DecodedInstr, bool) {
		return DecodedInstr{OpId: NewOpId(ExtIDM, idx), PC: pc, Size: 4, Raw: word, Args: args}, true
	}
	switch opcode {
	case baseOpOp:
		idx, ok := map[uint32]uint8{0: opMUL, 1: opMULH, 2: opMULHSU, 3: opMULHU, 4: opDIV, 5: opDIVU, 6: opREM, 7: opREMU}[funct3]
		if !ok {
			return DecodedInstr{}, false
		}
		return mk(idx)
	case baseOpOp32:
		idx, ok := map[uint32]uint8{0: opMULW, 4: opDIVW, 5: opDIVUW, 6: opREMW, 7: opREMUW}[funct3]
		if !ok {
			return DecodedInstr{}, false
		}
		return mk(idx)
	}
	return DecodedInstr{}, false
}

func (M[X]) OpInfo(id OpId) (OpInfo, bool) { info, ok := mOpInfo[id.Index()]; return info, ok }

func (m M[X]) Disasm(in DecodedInstr) string {
	info, _ := m.OpInfo(in.OpId)
	return fmt.Sprintf("%s x%d, x%d, x%d", info.Mnemonic, in.Args.Rd, in.Args.Rs1, in.Args.Rs2)
}

func (M[X]) Lift(in DecodedInstr) ir.InstrIR {
	readReg := func(r Reg) ir.Expr { return ir.ExprRead{Space: ir.SpaceReg, Key: uint32(r)} }
	writeReg := func(r Reg, v ir.Expr) ir.Stmt {
		return ir.StmtWrite{Target: ir.WriteTarget{Kind: ir.WriteReg, Reg: r}, Value: v}
	}
	op := map[uint8]ir.BinaryOp{
		opMUL: ir.BinMul, opMULH: ir.BinMulH, opMULHSU: ir.BinMulHSU, opMULHU: ir.BinMulHU,
		opDIV: ir.BinDiv, opDIVU: ir.BinDivU, opREM: ir.BinRem, opREMU: ir.BinRemU,
		opMULW: ir.BinMul, opDIVW: ir.BinDiv, opDIVUW: ir.BinDivU, opREMW: ir.BinRem, opREMUW: ir.BinRemU,
	}[in.OpId.Index()]
	left, right := ir.Expr(readReg(in.Args.Rs1)), ir.Expr(readReg(in.Args.Rs2))
	// The W division forms operate on the low 32 bits of each operand.
	switch in.OpId.Index() {
	case opDIVW, opREMW:
		left = ir.ExprUnary{Op: ir.UnarySext32, Operand: left}
		right = ir.ExprUnary{Op: ir.UnarySext32, Operand: right}
	case opDIVUW, opREMUW:
		left = ir.ExprUnary{Op: ir.UnaryZext32, Operand: left}
		right = ir.ExprUnary{Op: ir.UnaryZext32, Operand: right}
	}
	val := ir.Expr(ir.ExprBinary{Op: op, Left: left, Right: right})
	switch in.OpId.Index() {
	case opMULW, opDIVW, opDIVUW, opREMW, opREMUW:
		val = ir.ExprUnary{Op: ir.UnarySext32, Operand: val}
	}
	fall := in.PC + uint64(in.Size)
	return ir.InstrIR{
		PC: in.PC, Size: in.Size, Raw: in.Raw, OpId: in.OpId,
		Statements: []ir.Stmt{writeReg(in.Args.Rd, val)},
		Terminator: &ir.Terminator{Kind: ir.TermFall, Fall: fall},
	}
}
