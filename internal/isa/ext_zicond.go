package isa

import (
	"fmt"

	"github.com/rvjit/rvjit/internal/ir"
)

const (
	opCZEROEQZ uint8 = iota
	opCZERONEZ
)

var zicondOpInfo = map[uint8]OpInfo{
	opCZEROEQZ: {"czero.eqz", "Zicond"},
	opCZERONEZ: {"czero.nez", "Zicond"},
}

// Zicond implements the conditional-zeroing extension.
type Zicond[X Xlen] struct{}

func (Zicond[X]) Name() string { return "Zicond" }
func (Zicond[X]) ExtID() uint8 { return ExtIDZicond }

func (Zicond[X]) Decode16(uint16, uint64) (DecodedInstr, bool) { return DecodedInstr{}, false }

func (Zicond[X]) Decode32(word uint32, pc uint64) (DecodedInstr, bool) {
	if word>>2&0x1f != baseOpOp {
		return DecodedInstr{}, false
	}
	if word>>25&0x7f != 0x07 {
		return DecodedInstr{}, false
	}
	funct3 := word >> 12 & 0x7
	idx, ok := map[uint32]uint8{5: opCZEROEQZ, 7: opCZERONEZ}[funct3]
	if !ok {
		return DecodedInstr{}, false
	}
	return DecodedInstr{
		OpId: NewOpId(ExtIDZicond, idx), PC: pc, Size: 4, Raw: word,
		Args: Args{Kind: ArgsR, Rd: Reg(word >> 7 & 0x1f), Rs1: Reg(word >> 15 & 0x1f), Rs2: Reg(word >> 20 & 0x1f)},
	}, true
}

func (Zicond[X]) OpInfo(id OpId) (OpInfo, bool) { info, ok := zicondOpInfo[id.Index()]; return info, ok }

func (z Zicond[X]) Disasm(in DecodedInstr) string {
	info, _ := z.OpInfo(in.OpId)
	return fmt.Sprintf("%s x%d, x%d, x%d", info.Mnemonic, in.Args.Rd, in.Args.Rs1, in.Args.Rs2)
}

func (Zicond[X]) Lift(in DecodedInstr) ir.InstrIR {
	readReg := func(r Reg) ir.Expr { return ir.ExprRead{Space: ir.SpaceReg, Key: uint32(r)} }
	writeReg := func(r Reg, v ir.Expr) ir.Stmt {
		return ir.StmtWrite{Target: ir.WriteTarget{Kind: ir.WriteReg, Reg: r}, Value: v}
	}
	op := map[uint8]ir.BinaryOp{opCZEROEQZ: ir.BinCzeroEqz, opCZERONEZ: ir.BinCzeroNez}[in.OpId.Index()]
	val := ir.ExprBinary{Op: op, Left: readReg(in.Args.Rs1), Right: readReg(in.Args.Rs2)}
	fall := in.PC + uint64(in.Size)
	return ir.InstrIR{
		PC: in.PC, Size: in.Size, Raw: in.Raw, OpId: in.OpId,
		Statements: []ir.Stmt{writeReg(in.Args.Rd, val)},
		Terminator: &ir.Terminator{Kind: ir.TermFall, Fall: fall},
	}
}
