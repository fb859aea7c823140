package isa

import (
	"fmt"

	"github.com/rvjit/rvjit/internal/ir"
)

// ZbaStub and ZbsStub register their OpId tables and op_info entries so
// the registry's decode completeness can be exercised end-to-end, but
// Lift produces no statements, only a TermTrap terminator (a known
// opcode with an unimplemented lowering, distinct from "no extension
// claims this encoding"), so the generated code traps when it reaches
// one. A full bit-manipulation lowering is out of scope
// for this translation core; these extensions are registered so adding
// the lowering later is additive, not a registry redesign.
type ZbaStub[X Xlen] struct{}

func (ZbaStub[X]) Name() string                                   { return "Zba" }
func (ZbaStub[X]) ExtID() uint8                                   { return ExtIDZba }
func (ZbaStub[X]) Decode16(uint16, uint64) (DecodedInstr, bool)   { return DecodedInstr{}, false }
func (ZbaStub[X]) Decode32(word uint32, pc uint64) (DecodedInstr, bool) {
	if word>>2&0x1f != baseOpOp || word>>25&0x7f != 0x10 {
		return DecodedInstr{}, false
	}
	return DecodedInstr{OpId: NewOpId(ExtIDZba, 0), PC: pc, Size: 4, Raw: word}, true
}
func (ZbaStub[X]) OpInfo(id OpId) (OpInfo, bool) {
	if id.Index() == 0 {
		return OpInfo{Mnemonic: "sh#add (unimplemented)", Extension: "Zba"}, true
	}
	return OpInfo{}, false
}
func (ZbaStub[X]) Disasm(in DecodedInstr) string { return fmt.Sprintf(".word %#08x // Zba unimplemented", in.Raw) }
func (ZbaStub[X]) Lift(in DecodedInstr) ir.InstrIR {
	return ir.InstrIR{
		PC: in.PC, Size: in.Size, Raw: in.Raw, OpId: in.OpId,
		Terminator: &ir.Terminator{Kind: ir.TermTrap, Message: "Zba lowering not implemented"},
	}
}

type ZbsStub[X Xlen] struct{}

func (ZbsStub[X]) Name() string                                 { return "Zbs" }
func (ZbsStub[X]) ExtID() uint8                                 { return ExtIDZbs }
func (ZbsStub[X]) Decode16(uint16, uint64) (DecodedInstr, bool) { return DecodedInstr{}, false }
func (ZbsStub[X]) Decode32(word uint32, pc uint64) (DecodedInstr, bool) {
	if word>>2&0x1f != baseOpOpImm || word>>26 != 0x12 {
		return DecodedInstr{}, false
	}
	return DecodedInstr{OpId: NewOpId(ExtIDZbs, 0), PC: pc, Size: 4, Raw: word}, true
}
func (ZbsStub[X]) OpInfo(id OpId) (OpInfo, bool) {
	if id.Index() == 0 {
		return OpInfo{Mnemonic: "bclr/bext/binv/bset (unimplemented)", Extension: "Zbs"}, true
	}
	return OpInfo{}, false
}
func (ZbsStub[X]) Disasm(in DecodedInstr) string { return fmt.Sprintf(".word %#08x // Zbs unimplemented", in.Raw) }
func (ZbsStub[X]) Lift(in DecodedInstr) ir.InstrIR {
	return ir.InstrIR{
		PC: in.PC, Size: in.Size, Raw: in.Raw, OpId: in.OpId,
		Terminator: &ir.Terminator{Kind: ir.TermTrap, Message: "Zbs lowering not implemented"},
	}
}
