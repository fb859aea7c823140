package cfg

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/rvjit/rvjit/internal/isa"
)

// memText is a simple byte-addressable TextReader backed by a flat
// buffer starting at base, for exercising Build without an ELF file.
type memText struct {
	base uint64
	buf  []byte
}

func (m memText) ReadAt(vaddr uint64, n int) ([]byte, bool) {
	if vaddr < m.base || vaddr+uint64(n) > m.base+uint64(len(m.buf)) {
		return nil, false
	}
	off := vaddr - m.base
	return m.buf[off : off+uint64(n)], true
}

func encR(opcode, funct3, funct7 uint32, rd, rs1, rs2 isa.Reg) uint32 {
	return funct7<<25 | uint32(rs2)<<20 | uint32(rs1)<<15 | funct3<<12 | uint32(rd)<<7 | opcode
}

func encI(opcode, funct3 uint32, rd, rs1 isa.Reg, imm int64) uint32 {
	return uint32(imm&0xfff)<<20 | uint32(rs1)<<15 | funct3<<12 | uint32(rd)<<7 | opcode
}

func encB(opcode, funct3 uint32, rs1, rs2 isa.Reg, imm int64) uint32 {
	u := uint32(imm)
	return (u>>12&1)<<31 | (u>>5&0x3f)<<25 | uint32(rs2)<<20 | uint32(rs1)<<15 |
		funct3<<12 | (u>>1&0xf)<<8 | (u>>11&1)<<7 | opcode
}

func encJ(opcode uint32, rd isa.Reg, imm int64) uint32 {
	u := uint32(imm)
	return (u>>20&1)<<31 | (u>>1&0x3ff)<<21 | (u>>11&1)<<20 | (u>>12&0xff)<<12 | uint32(rd)<<7 | opcode
}

func le(w uint32) []byte {
	return []byte{byte(w), byte(w >> 8), byte(w >> 16), byte(w >> 24)}
}

func newDecoder() *isa.CompositeDecoder {
	return isa.NewCompositeDecoder(isa.BaseI[uint64]{}, isa.M[uint64]{}, isa.C[uint64]{})
}

// program:
//
//	0x1000: addi x1, x0, 1
//	0x1004: beq  x1, x0, 0x1010     (taken target, fallthrough 0x1008)
//	0x1008: addi x2, x0, 2
//	0x100c: jal  x0, 0x1000         (back edge)
//	0x1010: ecall
func buildProgram(t *testing.T) memText {
	t.Helper()
	buf := make([]byte, 0, 0x14)
	buf = append(buf, le(encI(0x13, 0, 1, 0, 1))...)          // addi x1,x0,1
	buf = append(buf, le(encB(0x63, 0, 1, 0, 0x0c))...)       // beq x1,x0,+0xc -> 0x1010
	buf = append(buf, le(encI(0x13, 0, 2, 0, 2))...)          // addi x2,x0,2
	buf = append(buf, le(encJ(0x6f, 0, -0x0c))...)             // jal x0,-0xc -> 0x1000
	buf = append(buf, le(encI(0x73, 0, 0, 0, 0))...)          // ecall
	return memText{base: 0x1000, buf: buf}
}

func TestBuildDiscoversBranchAndFallthrough(t *testing.T) {
	mt := buildProgram(t)
	dec := newDecoder()

	table, err := Build(mt, dec, []uint64{0x1000}, Options{EnableSuperblock: false})
	require.NoError(t, err)

	require.True(t, table.Leaders[0x1000])
	require.True(t, table.Leaders[0x1008])
	require.True(t, table.Leaders[0x1010])

	b := table.Blocks[0x1000]
	require.Equal(t, uint64(0x1000), b.Start)
	require.Equal(t, uint64(0x1008), b.End)
}

func TestBlockTableResolveFollowsAbsorption(t *testing.T) {
	table := &BlockTable{
		Blocks:     map[uint64]Block{0x100: {Start: 0x100, End: 0x110}},
		AbsorbedTo: map[uint64]uint64{0x108: 0x100},
	}
	got, ok := table.Resolve(0x108)
	require.True(t, ok)
	require.Equal(t, uint64(0x100), got)

	_, ok = table.Resolve(0x200)
	require.False(t, ok)
}

func TestLatticeJoinWidensOnTooManyConstants(t *testing.T) {
	a := constValue(1)
	for i := uint64(2); i <= constCap; i++ {
		a = join(a, constValue(i))
	}
	require.False(t, a.unknown)
	a = join(a, constValue(constCap+1))
	require.True(t, a.unknown)
}

func TestLatticeJoinWithUnknownIsUnknown(t *testing.T) {
	got := join(constValue(5), unknownValue())
	require.True(t, got.unknown)
}
