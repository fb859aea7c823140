package emit

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/rvjit/rvjit/internal/cfg"
	"github.com/rvjit/rvjit/internal/config"
	"github.com/rvjit/rvjit/internal/isa"
)

func TestSelectHotRegsTruncatesToBudget(t *testing.T) {
	regs := SelectHotRegs(DefaultSlotBudget.X86Asm, 0)
	require.Len(t, regs, DefaultSlotBudget.X86Asm)
	require.Equal(t, isa.Reg(1), regs[0]) // ra first
}

func TestSelectHotRegsReservesSlots(t *testing.T) {
	regs := SelectHotRegs(DefaultSlotBudget.X86Asm, 2)
	require.Len(t, regs, DefaultSlotBudget.X86Asm-2)
}

func TestSelectHotRegsNeverNegative(t *testing.T) {
	regs := SelectHotRegs(1, 5)
	require.Nil(t, regs)
}

func TestBuildSignatureOmitsStateUnderFixedAddresses(t *testing.T) {
	opts := config.NewCompileOptions().WithFixedAddresses(0x1000, 0x2000)
	sig := BuildSignature(opts, SelectHotRegs(4, 0), nil)
	for _, p := range sig.Params {
		require.NotEqual(t, ParamState, p.Kind)
		require.NotEqual(t, ParamMemory, p.Kind)
	}
}

func TestBuildSignatureAddsInstretParam(t *testing.T) {
	opts := config.NewCompileOptions().WithInstretMode(config.InstretCount)
	sig := BuildSignature(opts, nil, nil)
	require.Equal(t, ParamState, sig.Params[0].Kind)
	require.Equal(t, ParamMemory, sig.Params[1].Kind)
	require.Equal(t, ParamInstret, sig.Params[2].Kind)
}

func TestDispatchTableResolvesAbsorbedBlock(t *testing.T) {
	table := &cfg.BlockTable{
		Blocks:     map[uint64]cfg.Block{0x1000: {Start: 0x1000, End: 0x1010}},
		AbsorbedTo: map[uint64]uint64{0x1008: 0x1000},
		TextStart:  0x1000,
		PCEnd:      0x1010,
	}
	d := BuildDispatchTable(table)

	got, ok := d.Lookup(0x1008)
	require.True(t, ok)
	require.Equal(t, uint64(0x1000), got)

	_, ok = d.Lookup(0x2000)
	require.False(t, ok)
}
