package isa

import (
	"fmt"

	"github.com/rvjit/rvjit/internal/ir"
)

// C implements the compressed (16-bit) instruction extension. Lifting
// delegates to the equivalent uncompressed form by constructing the same
// Args shape the base extension would have produced, but the decoded
// Size stays 2 so PC arithmetic in the caller remains correct (§4.1).
//
// The lifted IR embeds the base extension's lowering by re-deriving the
// expression tree directly here (rather than round-tripping through
// BaseI.Lift) since BaseI expects a 4-byte Raw/Args shape for disasm;
// the op tables here are separate from ext_i.go's helpers.
type C[X Xlen] struct{}

func (C[X]) Name() string { return "C" }
func (C[X]) ExtID() uint8 { return ExtIDC }

func (C[X]) Decode32(uint32, uint64) (DecodedInstr, bool) { return DecodedInstr{}, false }

// Compressed op indices, independent from the base extension's so the
// registry never confuses a C-form with an I-form OpId.
const (
	cADDI4SPN uint8 = iota
	cLW
	cLD
	cSW
	cSD
	cADDI
	cJAL
	cLI
	cADDI16SP
	cLUI
	cSRLI
	cSRAI
	cANDI
	cSUB
	cXOR
	cOR
	cAND
	cSUBW
	cADDW
	cJ
	cBEQZ
	cBNEZ
	cSLLI
	cLWSP
	cLDSP
	cJR
	cMV
	cEBREAK
	cJALR
	cADD
	cSWSP
	cSDSP
)

var cOpInfo = func() map[uint8]OpInfo {
	names := map[uint8]string{
		cADDI4SPN: "c.addi4spn", cLW: "c.lw", cLD: "c.ld", cSW: "c.sw", cSD: "c.sd", cADDI: "c.addi",
		cJAL: "c.jal", cLI: "c.li", cADDI16SP: "c.addi16sp", cLUI: "c.lui", cSRLI: "c.srli", cSRAI: "c.srai",
		cANDI: "c.andi", cSUB: "c.sub", cXOR: "c.xor", cOR: "c.or", cAND: "c.and", cSUBW: "c.subw", cADDW: "c.addw",
		cJ: "c.j", cBEQZ: "c.beqz", cBNEZ: "c.bnez", cSLLI: "c.slli", cLWSP: "c.lwsp", cLDSP: "c.ldsp",
		cJR: "c.jr", cMV: "c.mv", cEBREAK: "c.ebreak", cJALR: "c.jalr", cADD: "c.add", cSWSP: "c.swsp", cSDSP: "c.sdsp",
	}
	m := map[uint8]OpInfo{}
	for k, v := range names {
		m[k] = OpInfo{Mnemonic: v, Extension: "C"}
	}
	return m
}()

// cReg maps the compact 3-bit register encoding (x8..x15) used by
// quadrant-0/1 "CL/CS"-format instructions.
func cReg(bits uint16) Reg { return Reg(8 + bits&0x7) }

func (c C[X]) Decode16(word uint16, pc uint64) (DecodedInstr, bool) {
	quadrant := word & 0x3
	funct3 := word >> 13 & 0x7
	mk := func(idx uint8, args Args) (DecodedInstr, bool) {
		return DecodedInstr{OpId: NewOpId(ExtIDC, idx), PC: pc, Size: 2, Raw: uint32(word), Args: args}, true
	}

	switch quadrant {
	case 0:
		rd := cReg(word >> 2)
		rs1 := cReg(word >> 7)
		switch funct3 {
		case 0: // c.addi4spn
			imm := (word>>7&0x30 | word>>1&0x3c0 | word>>4&0x4 | word>>2&0x8)
			if imm == 0 {
				return DecodedInstr{}, false // reserved
			}
			return mk(cADDI4SPN, Args{Kind: ArgsI, Rd: rd, Rs1: 2, Imm: int64(imm)})
		case 2: // c.lw
			imm := (word<<1&0x40 | word>>7&0x38 | word>>4&0x4)
			return mk(cLW, Args{Kind: ArgsI, Rd: rd, Rs1: rs1, Imm: int64(imm)})
		case 3: // c.ld
			imm := (word<<1&0xc0 | word>>7&0x38)
			return mk(cLD, Args{Kind: ArgsI, Rd: rd, Rs1: rs1, Imm: int64(imm)})
		case 6: // c.sw
			imm := (word<<1&0x40 | word>>7&0x38 | word>>4&0x4)
			return mk(cSW, Args{Kind: ArgsS, Rs1: rs1, Rs2: rd, Imm: int64(imm)})
		case 7: // c.sd
			imm := (word<<1&0xc0 | word>>7&0x38)
			return mk(cSD, Args{Kind: ArgsS, Rs1: rs1, Rs2: rd, Imm: int64(imm)})
		}
	case 1:
		rd := Reg(word >> 7 & 0x1f)
		switch funct3 {
		case 0: // c.addi (incl. c.nop when rd==0, imm==0)
			imm := signExtend(int64(word>>7&0x20|word>>2&0x1f), 6)
			return mk(cADDI, Args{Kind: ArgsI, Rd: rd, Rs1: rd, Imm: imm})
		case 1: // c.jal (RV32 only; present unconditionally, CFG may reject on RV64 build)
			imm := word>>1&0x800 | word<<2&0x400 | word>>1&0x300 | word<<1&0x80 | word>>1&0x40 |
				word<<3&0x20 | word>>7&0x10 | word>>2&0xe
			return mk(cJAL, Args{Kind: ArgsJ, Rd: 1, Imm: signExtend(int64(imm), 12)})
		case 2: // c.li
			imm := signExtend(int64(word>>7&0x20|word>>2&0x1f), 6)
			return mk(cLI, Args{Kind: ArgsI, Rd: rd, Imm: imm})
		case 3:
			if rd == 2 { // c.addi16sp
				imm := word>>3&0x200 | word>>2&0x10 | word<<1&0x40 | word<<4&0x180 | word<<3&0x20
				return mk(cADDI16SP, Args{Kind: ArgsI, Rd: 2, Rs1: 2, Imm: signExtend(int64(imm), 10)})
			} // c.lui
			imm := word<<5&0x20000 | word<<10&0x1f000
			if imm == 0 {
				return DecodedInstr{}, false // reserved
			}
			return mk(cLUI, Args{Kind: ArgsU, Rd: rd, Imm: signExtend(int64(imm), 18)})
		case 4:
			rdp := cReg(word >> 7)
			sub := word >> 10 & 0x3
			switch sub {
			case 0: // c.srli
				shamt := word>>7&0x20 | word>>2&0x1f
				return mk(cSRLI, Args{Kind: ArgsI, Rd: rdp, Rs1: rdp, Imm: int64(shamt)})
			case 1: // c.srai
				shamt := word>>7&0x20 | word>>2&0x1f
				return mk(cSRAI, Args{Kind: ArgsI, Rd: rdp, Rs1: rdp, Imm: int64(shamt)})
			case 2: // c.andi
				imm := signExtend(int64(word>>7&0x20|word>>2&0x1f), 6)
				return mk(cANDI, Args{Kind: ArgsI, Rd: rdp, Rs1: rdp, Imm: imm})
			case 3:
				rs2p := cReg(word >> 2)
				idx := map[uint16]uint8{0: cSUB, 1: cXOR, 2: cOR, 3: cAND}[word>>5&0x3]
				if word>>12&1 == 1 {
					idx = map[uint16]uint8{0: cSUBW, 1: cADDW}[word>>5&0x3]
				}
				return mk(idx, Args{Kind: ArgsR, Rd: rdp, Rs1: rdp, Rs2: rs2p})
			}
		case 5: // c.j
			imm := word>>1&0x800 | word<<2&0x400 | word>>1&0x300 | word<<1&0x80 | word>>1&0x40 |
				word<<3&0x20 | word>>7&0x10 | word>>2&0xe
			return mk(cJ, Args{Kind: ArgsJ, Imm: signExtend(int64(imm), 12)})
		case 6, 7: // c.beqz / c.bnez
			rs1 := cReg(word >> 7)
			imm := word>>4&0x100 | word>>7&0x18 | word<<1&0xc0 | word>>2&0x6 | word>>10&0x20
			idx := uint8(cBEQZ)
			if funct3 == 7 {
				idx = cBNEZ
			}
			return mk(idx, Args{Kind: ArgsB, Rs1: rs1, Imm: signExtend(int64(imm), 9)})
		}
	case 2:
		rd := Reg(word >> 7 & 0x1f)
		switch funct3 {
		case 0: // c.slli
			shamt := word>>7&0x20 | word>>2&0x1f
			return mk(cSLLI, Args{Kind: ArgsI, Rd: rd, Rs1: rd, Imm: int64(shamt)})
		case 2: // c.lwsp
			imm := word>>7&0xc0 | word>>2&0x1c | word<<4&0x20
			return mk(cLWSP, Args{Kind: ArgsI, Rd: rd, Rs1: 2, Imm: int64(imm)})
		case 3: // c.ldsp
			imm := word>>7&0x1c0 | word>>2&0x18 | word<<4&0x20
			return mk(cLDSP, Args{Kind: ArgsI, Rd: rd, Rs1: 2, Imm: int64(imm)})
		case 4:
			rs2 := Reg(word >> 2 & 0x1f)
			bit12 := word >> 12 & 1
			switch {
			case bit12 == 0 && rs2 == 0 && rd != 0: // c.jr
				return mk(cJR, Args{Kind: ArgsI, Rs1: rd})
			case bit12 == 0 && rs2 != 0: // c.mv
				return mk(cMV, Args{Kind: ArgsR, Rd: rd, Rs1: 0, Rs2: rs2})
			case bit12 == 1 && rd == 0 && rs2 == 0: // c.ebreak
				return mk(cEBREAK, Args{Kind: ArgsNone})
			case bit12 == 1 && rs2 == 0 && rd != 0: // c.jalr
				return mk(cJALR, Args{Kind: ArgsI, Rd: 1, Rs1: rd})
			case bit12 == 1 && rs2 != 0: // c.add
				return mk(cADD, Args{Kind: ArgsR, Rd: rd, Rs1: rd, Rs2: rs2})
			}
		case 6: // c.swsp
			imm := word>>7&0xc0 | word>>1&0x3c
			return mk(cSWSP, Args{Kind: ArgsS, Rs1: 2, Rs2: rd, Imm: int64(imm)})
		case 7: // c.sdsp
			imm := word>>7&0x1c0 | word>>1&0x38
			return mk(cSDSP, Args{Kind: ArgsS, Rs1: 2, Rs2: rd, Imm: int64(imm)})
		}
	}
	return DecodedInstr{}, false
}

func (C[X]) OpInfo(id OpId) (OpInfo, bool) { info, ok := cOpInfo[id.Index()]; return info, ok }

func (c C[X]) Disasm(in DecodedInstr) string {
	info, _ := c.OpInfo(in.OpId)
	return fmt.Sprintf("%s x%d, x%d, %d", info.Mnemonic, in.Args.Rd, in.Args.Rs1, in.Args.Imm)
}

func (c C[X]) Lift(in DecodedInstr) ir.InstrIR {
	readReg := func(r Reg) ir.Expr { return ir.ExprRead{Space: ir.SpaceReg, Key: uint32(r)} }
	writeReg := func(r Reg, v ir.Expr) ir.Stmt {
		return ir.StmtWrite{Target: ir.WriteTarget{Kind: ir.WriteReg, Reg: r}, Value: v}
	}
	fall := in.PC + uint64(in.Size)
	idx := in.OpId.Index()
	out := ir.InstrIR{PC: in.PC, Size: in.Size, Raw: in.Raw, OpId: in.OpId}
	xlen := uint8(XlenOf[X]())

	switch idx {
	case cADDI4SPN, cADDI, cADDI16SP, cANDI:
		op := ir.BinAdd
		if idx == cANDI {
			op = ir.BinAnd
		}
		out.Statements = []ir.Stmt{writeReg(in.Args.Rd, ir.ExprBinary{Op: op, Left: readReg(in.Args.Rs1), Right: ir.ExprImm{Value: in.Args.Imm, Width: 64}})}
	case cLI:
		out.Statements = []ir.Stmt{writeReg(in.Args.Rd, ir.ExprImm{Value: in.Args.Imm, Width: 64})}
	case cLUI:
		out.Statements = []ir.Stmt{writeReg(in.Args.Rd, ir.ExprImm{Value: in.Args.Imm, Width: 64})}
	case cSRLI, cSRAI, cSLLI:
		op := map[uint8]ir.BinaryOp{cSRLI: ir.BinShrL, cSRAI: ir.BinShrA, cSLLI: ir.BinShl}[idx]
		out.Statements = []ir.Stmt{writeReg(in.Args.Rd, ir.ExprBinary{Op: op, Left: readReg(in.Args.Rs1), Right: ir.ExprImm{Value: in.Args.Imm, Width: 64}, Width: xlen})}
	case cSUB, cXOR, cOR, cAND, cMV, cADD:
		op := map[uint8]ir.BinaryOp{cSUB: ir.BinSub, cXOR: ir.BinXor, cOR: ir.BinOr, cAND: ir.BinAnd, cMV: ir.BinAdd, cADD: ir.BinAdd}[idx]
		out.Statements = []ir.Stmt{writeReg(in.Args.Rd, ir.ExprBinary{Op: op, Left: readReg(in.Args.Rs1), Right: readReg(in.Args.Rs2)})}
	case cSUBW, cADDW:
		op := map[uint8]ir.BinaryOp{cSUBW: ir.BinSub, cADDW: ir.BinAdd}[idx]
		val := ir.ExprBinary{Op: op, Left: readReg(in.Args.Rs1), Right: readReg(in.Args.Rs2)}
		out.Statements = []ir.Stmt{writeReg(in.Args.Rd, ir.ExprUnary{Op: ir.UnarySext32, Operand: val})}
	case cLW, cLD, cLWSP, cLDSP:
		width := uint8(32)
		if idx == cLD || idx == cLDSP {
			width = 64
		}
		out.Statements = []ir.Stmt{writeReg(in.Args.Rd, ir.ExprRead{Space: ir.SpaceMem, Base: readReg(in.Args.Rs1), Offset: in.Args.Imm, Width: width, Signed: true})}
	case cSW, cSD, cSWSP, cSDSP:
		width := uint8(32)
		if idx == cSD || idx == cSDSP {
			width = 64
		}
		out.Statements = []ir.Stmt{ir.StmtWrite{Target: ir.WriteTarget{Kind: ir.WriteMem, Base: readReg(in.Args.Rs1), Offset: in.Args.Imm, Width: width}, Value: readReg(in.Args.Rs2)}}
	case cEBREAK:
		out.Terminator = &ir.Terminator{Kind: ir.TermExit, Code: readReg(10)}
		return out
	case cJ, cJAL:
		if idx == cJAL {
			out.Statements = []ir.Stmt{writeReg(1, ir.ExprImm{Value: int64(fall), Width: 64})}
		}
		out.Terminator = &ir.Terminator{Kind: ir.TermJump, Target: uint64(int64(in.PC) + in.Args.Imm)}
		return out
	case cJR, cJALR:
		addr := readReg(in.Args.Rs1)
		if idx == cJALR {
			out.Statements = []ir.Stmt{writeReg(1, ir.ExprImm{Value: int64(fall), Width: 64})}
		}
		out.Terminator = &ir.Terminator{Kind: ir.TermJumpDyn, Addr: addr}
		return out
	case cBEQZ, cBNEZ:
		cond := map[uint8]ir.BinaryOp{cBEQZ: ir.BinEq, cBNEZ: ir.BinNe}[idx]
		out.Terminator = &ir.Terminator{
			Kind: ir.TermBranch,
			Cond: ir.ExprBinary{Op: cond, Left: readReg(in.Args.Rs1), Right: ir.ExprImm{Value: 0, Width: 64}},
			Target: uint64(int64(in.PC) + in.Args.Imm), Fall: fall, HasFall: true,
		}
		return out
	}
	out.Terminator = &ir.Terminator{Kind: ir.TermFall, Fall: fall}
	return out
}
