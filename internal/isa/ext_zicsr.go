package isa

import (
	"fmt"

	"github.com/rvjit/rvjit/internal/ir"
)

const (
	opCSRRW uint8 = iota
	opCSRRS
	opCSRRC
	opCSRRWI
	opCSRRSI
	opCSRRCI
)

var zicsrOpInfo = map[uint8]OpInfo{
	opCSRRW: {"csrrw", "Zicsr"}, opCSRRS: {"csrrs", "Zicsr"}, opCSRRC: {"csrrc", "Zicsr"},
	opCSRRWI: {"csrrwi", "Zicsr"}, opCSRRSI: {"csrrsi", "Zicsr"}, opCSRRCI: {"csrrci", "Zicsr"},
}

// Zicsr implements the control-and-status-register extension. CSR reads
// for cycle/instret are special-cased by the emitter (§4.6) rather than
// here: lifting always produces a plain ir.SpaceCsr read/write and the
// C/asm backends decide whether that resolves to the live instret
// counter or the RvState csrs array.
type Zicsr[X Xlen] struct{}

func (Zicsr[X]) Name() string { return "Zicsr" }
func (Zicsr[X]) ExtID() uint8 { return ExtIDZicsr }

func (Zicsr[X]) Decode16(uint16, uint64) (DecodedInstr, bool) { return DecodedInstr{}, false }

func (Zicsr[X]) Decode32(word uint32, pc uint64) (DecodedInstr, bool) {
	if word>>2&0x1f != baseOpSystem {
		return DecodedInstr{}, false
	}
	funct3 := word >> 12 & 0x7
	if funct3 == 0 {
		return DecodedInstr{}, false // ecall/ebreak, owned by base extension
	}
	rd := Reg(word >> 7 & 0x1f)
	rs1 := Reg(word >> 15 & 0x1f)
	csr := uint16(word >> 20)
	idx, ok := map[uint32]uint8{1: opCSRRW, 2: opCSRRS, 3: opCSRRC, 5: opCSRRWI, 6: opCSRRSI, 7: opCSRRCI}[funct3]
	if !ok {
		return DecodedInstr{}, false
	}
	args := Args{Kind: ArgsCsr, Rd: rd, Rs1: rs1, Csr: csr}
	if idx >= opCSRRWI {
		args = Args{Kind: ArgsCsrI, Rd: rd, Imm: int64(rs1), Csr: csr}
	}
	return DecodedInstr{OpId: NewOpId(ExtIDZicsr, idx), PC: pc, Size: 4, Raw: word, Args: args}, true
}

func (Zicsr[X]) OpInfo(id OpId) (OpInfo, bool) { info, ok := zicsrOpInfo[id.Index()]; return info, ok }

func (z Zicsr[X]) Disasm(in DecodedInstr) string {
	info, _ := z.OpInfo(in.OpId)
	return fmt.Sprintf("%s x%d, %#x, x%d", info.Mnemonic, in.Args.Rd, in.Args.Csr, in.Args.Rs1)
}

func (Zicsr[X]) Lift(in DecodedInstr) ir.InstrIR {
	readReg := func(r Reg) ir.Expr { return ir.ExprRead{Space: ir.SpaceReg, Key: uint32(r)} }
	writeReg := func(r Reg, v ir.Expr) ir.Stmt {
		return ir.StmtWrite{Target: ir.WriteTarget{Kind: ir.WriteReg, Reg: r}, Value: v}
	}
	readCsr := ir.ExprRead{Space: ir.SpaceCsr, Key: uint32(in.Args.Csr)}

	var source ir.Expr
	if in.Args.Kind == ArgsCsrI {
		source = ir.ExprImm{Value: in.Args.Imm, Width: 64}
	} else {
		source = readReg(in.Args.Rs1)
	}

	var newVal ir.Expr
	switch in.OpId.Index() {
	case opCSRRW, opCSRRWI:
		newVal = source
	case opCSRRS, opCSRRSI:
		newVal = ir.ExprBinary{Op: ir.BinOr, Left: readCsr, Right: source}
	case opCSRRC, opCSRRCI:
		newVal = ir.ExprBinary{Op: ir.BinAnd, Left: readCsr, Right: ir.ExprUnary{Op: ir.UnaryNot, Operand: source}}
	}

	stmts := []ir.Stmt{}
	if in.Args.Rd != 0 {
		stmts = append(stmts, writeReg(in.Args.Rd, readCsr))
	}
	// csrrs/csrrc with rs1==x0 (or csrrsi/csrrci with imm==0) read-only;
	// skip the write entirely (the CSR spec's "no side effect" case).
	skip := (in.OpId.Index() == opCSRRS || in.OpId.Index() == opCSRRC) && in.Args.Rs1 == 0 ||
		(in.OpId.Index() == opCSRRSI || in.OpId.Index() == opCSRRCI) && in.Args.Imm == 0
	if !skip {
		stmts = append(stmts, ir.StmtWrite{Target: ir.WriteTarget{Kind: ir.WriteCsr, Csr: in.Args.Csr}, Value: newVal})
	}
	fall := in.PC + uint64(in.Size)
	return ir.InstrIR{
		PC: in.PC, Size: in.Size, Raw: in.Raw, OpId: in.OpId, Statements: stmts,
		Terminator: &ir.Terminator{Kind: ir.TermFall, Fall: fall},
	}
}
