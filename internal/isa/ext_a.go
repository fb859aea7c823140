package isa

import (
	"fmt"

	"github.com/rvjit/rvjit/internal/ir"
)

const (
	opLRW uint8 = iota
	opSCW
	opAMOSWAPW
	opAMOADDW
	opAMOXORW
	opAMOANDW
	opAMOORW
	opAMOMINW
	opAMOMAXW
	opAMOMINUW
	opAMOMAXUW
	opLRD
	opSCD
	opAMOSWAPD
	opAMOADDD
	opAMOXORD
	opAMOANDD
	opAMOORD
	opAMOMIND
	opAMOMAXD
	opAMOMINUD
	opAMOMAXUD
)

var aOpInfo = func() map[uint8]OpInfo {
	names := []string{
		"lr.w", "sc.w", "amoswap.w", "amoadd.w", "amoxor.w", "amoand.w", "amoor.w", "amomin.w", "amomax.w", "amominu.w", "amomaxu.w",
		"lr.d", "sc.d", "amoswap.d", "amoadd.d", "amoxor.d", "amoand.d", "amoor.d", "amomin.d", "amomax.d", "amominu.d", "amomaxu.d",
	}
	m := map[uint8]OpInfo{}
	for i, n := range names {
		m[uint8(i)] = OpInfo{Mnemonic: n, Extension: "A"}
	}
	return m
}()

// A implements the atomic extension. Lowered to a read-modify-write
// sequence without real atomicity, valid under the single-threaded
// guest assumption (§4.1). LR/SC drive the ResAddr/ResValid state cells.
type A[X Xlen] struct{}

func (A[X]) Name() string { return "A" }
func (A[X]) ExtID() uint8 { return ExtIDA }

func (A[X]) Decode16(uint16, uint64) (DecodedInstr, bool) { return DecodedInstr{}, false }

func (A[X]) Decode32(word uint32, pc uint64) (DecodedInstr, bool) {
	if word>>2&0x1f != baseOpAMO {
		return DecodedInstr{}, false
	}
	funct3 := word >> 12 & 0x7 // 2 = .w, 3 = .d
	funct5 := word >> 27 & 0x1f
	rd := Reg(word >> 7 & 0x1f)
	rs1 := Reg(word >> 15 & 0x1f)
	rs2 := Reg(word >> 20 & 0x1f)
	var base uint8
	switch funct3 {
	case 2:
		base = 0
	case 3:
		base = 11
	default:
		return DecodedInstr{}, false
	}
	idx, ok := map[uint32]uint8{
		0x02: 0, 0x03: 1, 0x01: 2, 0x00: 3, 0x04: 4, 0x0c: 5, 0x08: 6, 0x10: 7, 0x14: 8, 0x18: 9, 0x1c: 10,
	}[funct5]
	if !ok {
		return DecodedInstr{}, false
	}
	return DecodedInstr{
		OpId: NewOpId(ExtIDA, base+idx), PC: pc, Size: 4, Raw: word,
		Args: Args{Kind: ArgsR, Rd: rd, Rs1: rs1, Rs2: rs2},
	}, true
}

func (A[X]) OpInfo(id OpId) (OpInfo, bool) { info, ok := aOpInfo[id.Index()]; return info, ok }

func (a A[X]) Disasm(in DecodedInstr) string {
	info, _ := a.OpInfo(in.OpId)
	return fmt.Sprintf("%s x%d, x%d, (x%d)", info.Mnemonic, in.Args.Rd, in.Args.Rs2, in.Args.Rs1)
}

func (A[X]) Lift(in DecodedInstr) ir.InstrIR {
	idx := in.OpId.Index()
	width := uint8(32)
	if idx >= opLRD {
		width = 64
	}
	readReg := func(r Reg) ir.Expr { return ir.ExprRead{Space: ir.SpaceReg, Key: uint32(r)} }
	writeReg := func(r Reg, v ir.Expr) ir.Stmt {
		return ir.StmtWrite{Target: ir.WriteTarget{Kind: ir.WriteReg, Reg: r}, Value: v}
	}
	addr := readReg(in.Args.Rs1)
	var stmts []ir.Stmt

	switch idx {
	case opLRW, opLRD:
		stmts = []ir.Stmt{
			writeReg(in.Args.Rd, ir.ExprRead{Space: ir.SpaceMem, Base: addr, Width: width, Signed: true}),
			ir.StmtWrite{Target: ir.WriteTarget{Kind: ir.WriteResAddr}, Value: addr},
			ir.StmtWrite{Target: ir.WriteTarget{Kind: ir.WriteResValid}, Value: ir.ExprImm{Value: 1, Width: 8}},
		}
	case opSCW, opSCD:
		resValid := ir.ExprRead{Space: ir.SpaceTemp, Key: 0xfffe} // backend: ResValid cell
		resAddr := ir.ExprRead{Space: ir.SpaceTemp, Key: 0xfffd}  // backend: ResAddr cell
		ok := ir.ExprBinary{Op: ir.BinAnd, Left: resValid, Right: ir.ExprBinary{Op: ir.BinEq, Left: resAddr, Right: addr}}
		stmts = []ir.Stmt{
			ir.StmtIf{
				Cond: ok,
				Then: []ir.Stmt{
					ir.StmtWrite{Target: ir.WriteTarget{Kind: ir.WriteMem, Base: addr, Width: width}, Value: readReg(in.Args.Rs2)},
					writeReg(in.Args.Rd, ir.ExprImm{Value: 0, Width: 64}),
				},
				Else: []ir.Stmt{writeReg(in.Args.Rd, ir.ExprImm{Value: 1, Width: 64})},
			},
			ir.StmtWrite{Target: ir.WriteTarget{Kind: ir.WriteResValid}, Value: ir.ExprImm{Value: 0, Width: 8}},
		}
	case opAMOSWAPW, opAMOSWAPD:
		old := ir.ExprRead{Space: ir.SpaceMem, Base: addr, Width: width, Signed: true}
		stmts = []ir.Stmt{
			writeReg(in.Args.Rd, old),
			ir.StmtWrite{Target: ir.WriteTarget{Kind: ir.WriteMem, Base: addr, Width: width}, Value: readReg(in.Args.Rs2)},
		}
	default:
		op := amoOp(idx)
		old := ir.ExprRead{Space: ir.SpaceMem, Base: addr, Width: width, Signed: true}
		newVal := ir.ExprBinary{Op: op, Left: old, Right: readReg(in.Args.Rs2)}
		stmts = []ir.Stmt{
			writeReg(in.Args.Rd, old),
			ir.StmtWrite{Target: ir.WriteTarget{Kind: ir.WriteMem, Base: addr, Width: width}, Value: newVal},
		}
	}
	fall := in.PC + uint64(in.Size)
	return ir.InstrIR{
		PC: in.PC, Size: in.Size, Raw: in.Raw, OpId: in.OpId, Statements: stmts,
		Terminator: &ir.Terminator{Kind: ir.TermFall, Fall: fall},
	}
}

func amoOp(idx uint8) ir.BinaryOp {
	switch idx % 11 {
	case 2:
		return ir.BinAdd // amoswap is handled by its own case in Lift (stores rhs)
	case 3:
		return ir.BinAdd
	case 4:
		return ir.BinXor
	case 5:
		return ir.BinAnd
	case 6:
		return ir.BinOr
	case 7:
		return ir.BinMin
	case 8:
		return ir.BinMax
	case 9:
		return ir.BinMinU
	case 10:
		return ir.BinMaxU
	}
	return ir.BinAdd
}
