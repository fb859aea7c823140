package isa

import (
	"testing"

	"github.com/rvjit/rvjit/internal/ir"
	"github.com/stretchr/testify/require"
)

func newRV64Decoder() *CompositeDecoder {
	return NewCompositeDecoder(
		BaseI[uint64]{}, M[uint64]{}, A[uint64]{}, C[uint64]{},
		Zicsr[uint64]{}, Zicond[uint64]{}, Zbb[uint64]{},
	)
}

func le32(w uint32) []byte {
	return []byte{byte(w), byte(w >> 8), byte(w >> 16), byte(w >> 24)}
}

func TestDecodeAddi(t *testing.T) {
	d := newRV64Decoder()
	// addi x1, x0, 42
	word := uint32(42)<<20 | 0<<15 | 0<<12 | 1<<7 | baseOpOpImm<<2 | 0x3
	in, err := d.DecodeAt(le32(word), 0x1000)
	require.NoError(t, err)
	require.Equal(t, uint8(4), in.Size)
	require.Equal(t, NewOpId(ExtIDBase, opADDI), in.OpId)
	require.Equal(t, int64(42), in.Args.Imm)

	lifted, err := d.Lift(in)
	require.NoError(t, err)
	require.Len(t, lifted.Statements, 1)
	w, ok := lifted.Statements[0].(ir.StmtWrite)
	require.True(t, ok)
	require.Equal(t, ir.WriteReg, w.Target.Kind)
	require.Equal(t, Reg(1), w.Target.Reg)
}

func TestDecodeCompressedLi(t *testing.T) {
	d := newRV64Decoder()
	// c.li x5, 7: quadrant=01, funct3=010, rd=00101, imm[4:0]=00111, imm[5]=0
	word := uint16(0b010_0_00101_00111_01)
	in, err := d.DecodeAt([]byte{byte(word), byte(word >> 8)}, 0x2000)
	require.NoError(t, err)
	require.Equal(t, uint8(2), in.Size)
	require.Equal(t, NewOpId(ExtIDC, cLI), in.OpId)
	require.Equal(t, int64(7), in.Args.Imm)
}

func TestDecodeUnknownWordFails(t *testing.T) {
	d := newRV64Decoder()
	_, err := d.DecodeAt(le32(0), 0)
	require.Error(t, err)
}

func TestFirstExtensionWins(t *testing.T) {
	// Two extensions that both claim ext id 0, index 0: registry must
	// resolve Lift/OpInfo/Disasm to whichever was registered first.
	first := BaseI[uint64]{}
	d := NewCompositeDecoder(first, BaseI[uint64]{})
	info, ok := d.OpInfo(NewOpId(ExtIDBase, opADD))
	require.True(t, ok)
	require.Equal(t, "add", info.Mnemonic)
}
