package lift

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/rvjit/rvjit/internal/cfg"
	"github.com/rvjit/rvjit/internal/ir"
	"github.com/rvjit/rvjit/internal/isa"
)

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

func le(w uint32) []byte {
	return []byte{byte(w), byte(w >> 8), byte(w >> 16), byte(w >> 24)}
}

func TestLiftProducesBlockIRPerBlock(t *testing.T) {
	// addi x1, x0, 5 ; ecall
	addi := uint32(5)<<20 | 0<<15 | 0<<12 | 1<<7 | 0x13
	ecall := uint32(0x73)
	mt := memText{base: 0x1000, buf: append(le(addi), le(ecall)...)}

	dec := isa.NewCompositeDecoder(isa.BaseI[uint64]{}, isa.M[uint64]{}, isa.C[uint64]{})
	table, err := cfg.Build(mt, dec, []uint64{0x1000}, cfg.Options{})
	require.NoError(t, err)

	prog, err := Lift(mt, dec, table, nil)
	require.NoError(t, err)

	blk, ok := prog.Blocks[0x1000]
	require.True(t, ok)
	require.Len(t, blk.Instructions, 2)
	require.Equal(t, uint64(0x1000), blk.Instructions[0].PC)
	require.Equal(t, uint64(0x1004), blk.Instructions[1].PC)

	_, ok = prog.ByPC[0x1000]
	require.True(t, ok)

	last := blk.LastTerminator()
	require.Equal(t, ir.TermExit, last.Kind)
}
