package isa

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/rvjit/rvjit/internal/ir"
)

func srlInstr(rd, rs1, rs2 Reg) DecodedInstr {
	return DecodedInstr{OpId: NewOpId(ExtIDBase, opSRL), PC: 0x1000, Size: 4, Args: Args{Kind: ArgsR, Rd: rd, Rs1: rs1, Rs2: rs2}}
}

func TestBaseIShiftMasksToXlenWidth(t *testing.T) {
	in := srlInstr(1, 2, 3)

	lifted64 := BaseI[uint64]{}.Lift(in)
	bin64 := lifted64.Statements[0].(ir.StmtWrite).Value.(ir.ExprBinary)
	require.Equal(t, uint8(64), bin64.Width)

	lifted32 := BaseI[uint32]{}.Lift(in)
	bin32 := lifted32.Statements[0].(ir.StmtWrite).Value.(ir.ExprBinary)
	require.Equal(t, uint8(32), bin32.Width)
}

func TestBaseISRLWNarrowsOperandBeforeShift(t *testing.T) {
	in := DecodedInstr{OpId: NewOpId(ExtIDBase, opSRLW), PC: 0x1000, Size: 4, Args: Args{Kind: ArgsR, Rd: 1, Rs1: 2, Rs2: 3}}

	lifted := BaseI[uint64]{}.Lift(in)
	sext := lifted.Statements[0].(ir.StmtWrite).Value.(ir.ExprUnary)
	require.Equal(t, ir.UnarySext32, sext.Op)

	bin := sext.Operand.(ir.ExprBinary)
	require.Equal(t, ir.BinShrL, bin.Op)
	require.Equal(t, uint8(32), bin.Width)

	narrowed := bin.Left.(ir.ExprUnary)
	require.Equal(t, ir.UnaryZext32, narrowed.Op)
}

func TestBaseISRAWNarrowsOperandBeforeShift(t *testing.T) {
	in := DecodedInstr{OpId: NewOpId(ExtIDBase, opSRAW), PC: 0x1000, Size: 4, Args: Args{Kind: ArgsR, Rd: 1, Rs1: 2, Rs2: 3}}

	lifted := BaseI[uint64]{}.Lift(in)
	sext := lifted.Statements[0].(ir.StmtWrite).Value.(ir.ExprUnary)
	bin := sext.Operand.(ir.ExprBinary)
	require.Equal(t, ir.BinShrA, bin.Op)
	require.Equal(t, uint8(32), bin.Width)

	narrowed := bin.Left.(ir.ExprUnary)
	require.Equal(t, ir.UnarySext32, narrowed.Op)
}

func TestBaseISLLWDoesNotNarrowOperand(t *testing.T) {
	in := DecodedInstr{OpId: NewOpId(ExtIDBase, opSLLW), PC: 0x1000, Size: 4, Args: Args{Kind: ArgsR, Rd: 1, Rs1: 2, Rs2: 3}}

	lifted := BaseI[uint64]{}.Lift(in)
	sext := lifted.Statements[0].(ir.StmtWrite).Value.(ir.ExprUnary)
	bin := sext.Operand.(ir.ExprBinary)
	require.Equal(t, ir.BinShl, bin.Op)
	require.Equal(t, uint8(32), bin.Width)

	_, isRead := bin.Left.(ir.ExprRead)
	require.True(t, isRead, "SLLW's rs1 operand needs no pre-narrowing")
}

func TestCExtensionShiftMasksToXlenWidth(t *testing.T) {
	in := DecodedInstr{OpId: NewOpId(ExtIDC, cSRAI), PC: 0x1000, Size: 2, Args: Args{Kind: ArgsI, Rd: 1, Rs1: 1, Imm: 5}}

	lifted32 := C[uint32]{}.Lift(in)
	bin32 := lifted32.Statements[0].(ir.StmtWrite).Value.(ir.ExprBinary)
	require.Equal(t, uint8(32), bin32.Width)

	lifted64 := C[uint64]{}.Lift(in)
	bin64 := lifted64.Statements[0].(ir.StmtWrite).Value.(ir.ExprBinary)
	require.Equal(t, uint8(64), bin64.Width)
}
