package cbackend

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rvjit/rvjit/internal/cfg"
	"github.com/rvjit/rvjit/internal/config"
	"github.com/rvjit/rvjit/internal/emit"
	"github.com/rvjit/rvjit/internal/hostcc"
	"github.com/rvjit/rvjit/internal/ir"
	"github.com/rvjit/rvjit/internal/isa"
	"github.com/rvjit/rvjit/internal/rtstate"
)

func simpleBlock() *ir.BlockIR {
	return &ir.BlockIR{
		StartPC: 0x1000,
		EndPC:   0x1008,
		Instructions: []ir.InstrIR{
			{
				PC:   0x1000,
				Size: 4,
				Statements: []ir.Stmt{
					ir.StmtWrite{
						Target: ir.WriteTarget{Kind: ir.WriteReg, Reg: isa.Reg(10)},
						Value:  ir.ExprBinary{Op: ir.BinAdd, Left: ir.ExprRead{Space: ir.SpaceReg, Key: 10}, Right: ir.ExprImm{Value: 1, Width: 64}},
					},
				},
			},
			{
				PC:         0x1004,
				Size:       4,
				Terminator: &ir.Terminator{Kind: ir.TermJump, Target: 0x2000},
			},
		},
	}
}

func blockTableFor(blk *ir.BlockIR) *cfg.BlockTable {
	return &cfg.BlockTable{
		Blocks:     map[uint64]cfg.Block{blk.StartPC: {Start: blk.StartPC, End: blk.EndPC}},
		Leaders:    map[uint64]bool{blk.StartPC: true},
		AbsorbedTo: map[uint64]uint64{},
		TextStart:  blk.StartPC,
		PCEnd:      blk.EndPC,
	}
}

func TestGenerateBlockEmitsRegisterWriteAndTailJump(t *testing.T) {
	opts := config.NewCompileOptions()
	sig := emit.BuildSignature(opts, nil, nil)
	table := blockTableFor(simpleBlock())
	dispatch := emit.BuildDispatchTable(table)

	out := GenerateBlock(opts, sig, dispatch, simpleBlock())

	assert.Contains(t, out, "B_1000")
	assert.Contains(t, out, "RV_R(10)")
	assert.Contains(t, out, "dispatch_table")
}

func TestGenerateHeaderEmitsLayoutAsserts(t *testing.T) {
	opts := config.NewCompileOptions()
	layout := rtstate.Compute(8, rtstate.NumGPRs, false, 0, 0)

	out := GenerateHeader("prog", opts, layout, nil)

	assert.Contains(t, out, "_Static_assert")
	assert.Contains(t, out, "} RvState;")
	assert.Contains(t, out, "RV_R(n)")
	assert.Contains(t, out, "rd_mem_u8")
	assert.Contains(t, out, "wr_mem_u64")
	assert.Contains(t, out, "rv_csr_read")
	assert.NotContains(t, out, "RV_HTIF_TOHOST")
}

func TestGenerateHeaderDeclaresHtifHookWhenEnabled(t *testing.T) {
	opts := config.NewCompileOptions()
	layout := rtstate.Compute(8, rtstate.NumGPRs, false, 0, 0)
	htif := &HtifConfig{TohostAddr: 0x80001000, FromhostAddr: 0x80001008}

	out := GenerateHeader("prog", opts, layout, htif)

	assert.Contains(t, out, "RV_HTIF_TOHOST 0x80001000ULL")
	assert.Contains(t, out, "void rv_htif_tohost(RvState* state, uint8_t* memory, uint64_t value);")
	assert.Contains(t, out, "if (addr == RV_HTIF_TOHOST)")
}

func TestGenerateAccessorsBoundsModeTrapsOutOfRangeAccess(t *testing.T) {
	opts := config.NewCompileOptions().WithAddressMode(config.AddressBounds)
	out := GenerateAccessors(opts, false)

	assert.Contains(t, out, "state->has_exited = 1;")
	assert.Contains(t, out, "addr + 8ULL >")
	assert.Contains(t, out, "rv_div")
	assert.Contains(t, out, "rv_mulhu")
	assert.Contains(t, out, "rv_pack")
}

func shiftBlock(op ir.BinaryOp, width uint8) *ir.BlockIR {
	return &ir.BlockIR{
		StartPC: 0x1000,
		EndPC:   0x1004,
		Instructions: []ir.InstrIR{
			{
				PC:   0x1000,
				Size: 4,
				Statements: []ir.Stmt{
					ir.StmtWrite{
						Target: ir.WriteTarget{Kind: ir.WriteReg, Reg: isa.Reg(10)},
						Value: ir.ExprBinary{
							Op: op, Width: width,
							Left:  ir.ExprRead{Space: ir.SpaceReg, Key: 11},
							Right: ir.ExprRead{Space: ir.SpaceReg, Key: 12},
						},
					},
				},
				Terminator: &ir.Terminator{Kind: ir.TermFall, Fall: 0x1004},
			},
		},
	}
}

func TestGenerateBlockMasksShiftAmountToOperandWidth(t *testing.T) {
	opts := config.NewCompileOptions()
	sig := emit.BuildSignature(opts, nil, nil)
	blk := shiftBlock(ir.BinShrL, 32)
	table := blockTableFor(blk)
	dispatch := emit.BuildDispatchTable(table)

	out := GenerateBlock(opts, sig, dispatch, blk)

	assert.Contains(t, out, "& 31")
	assert.NotContains(t, out, "& 63")
}

func TestGenerateBlockDefaultsShiftMaskTo63ForFullWidth(t *testing.T) {
	opts := config.NewCompileOptions()
	sig := emit.BuildSignature(opts, nil, nil)
	blk := shiftBlock(ir.BinShl, 64)
	table := blockTableFor(blk)
	dispatch := emit.BuildDispatchTable(table)

	out := GenerateBlock(opts, sig, dispatch, blk)

	assert.Contains(t, out, "& 63")
}

func TestGenerateDispatchBuildsTableAndTrap(t *testing.T) {
	opts := config.NewCompileOptions()
	sig := emit.BuildSignature(opts, nil, nil)
	table := blockTableFor(simpleBlock())
	dispatch := emit.BuildDispatchTable(table)

	out := GenerateDispatch("prog", opts, sig, dispatch)

	assert.Contains(t, out, "dispatch_table")
	assert.Contains(t, out, "rv_trap")
	assert.Contains(t, out, "rv_execute_from")
	assert.Contains(t, out, "B_1000")
}

func TestGenerateDispatchUsesFixedAddressesUnderFixedAddressMode(t *testing.T) {
	opts := config.NewCompileOptions().WithFixedAddresses(0x10000, 0x20000000)
	sig := emit.BuildSignature(opts, nil, nil)
	table := blockTableFor(simpleBlock())
	dispatch := emit.BuildDispatchTable(table)

	out := GenerateDispatch("prog", opts, sig, dispatch)

	assert.Contains(t, out, "rv_execute_from(RvState* rv_state_arg, uint64_t pc)")
	assert.Contains(t, out, "0x10000ULL")
	assert.Contains(t, out, "0x20000000ULL")
	assert.NotContains(t, out, "state->memory")
}

func TestGenerateBlockDeclaresFixedAddressLocals(t *testing.T) {
	opts := config.NewCompileOptions().WithFixedAddresses(0x10000, 0x20000000)
	sig := emit.BuildSignature(opts, nil, nil)
	table := blockTableFor(simpleBlock())
	dispatch := emit.BuildDispatchTable(table)

	out := GenerateBlock(opts, sig, dispatch, simpleBlock())

	assert.Contains(t, out, "(RvState*)0x10000ULL")
	assert.NotContains(t, out, "RvState* restrict state,")
}

func TestGenerateMakefileHasNoPerFileJobsFlag(t *testing.T) {
	tc := hostcc.Toolchain{CC: "clang-17"}
	out := GenerateMakefile("prog", tc, 4, []string{"syscalls.o"})

	assert.NotContains(t, out, "-j4")
	assert.NotContains(t, out, "-j%d")
	assert.Contains(t, out, "syscalls.o")
	assert.Contains(t, out, "lld-17")
}

func TestGenerateMakefileLinksDispatchAndAbiObjects(t *testing.T) {
	tc := hostcc.Toolchain{CC: "clang-17"}
	out := GenerateMakefile("prog", tc, 4, nil)

	assert.Contains(t, out, "prog_dispatch.o")
	assert.Contains(t, out, "abi.o")
}

func TestGenerateSyscallsEmitsTable(t *testing.T) {
	out := GenerateSyscalls("prog")
	assert.Contains(t, out, "rv_syscall")
	assert.Contains(t, out, "case 93")
	assert.Contains(t, out, "-ENOSYS")
	assert.Contains(t, out, `#include "prog.h"`)
}

func TestGenerateHtifHandlesExitAndWrite(t *testing.T) {
	out := GenerateHtif("prog", HtifConfig{TohostAddr: DefaultTohostAddr, FromhostAddr: DefaultTohostAddr + 8})
	assert.Contains(t, out, "rv_htif_tohost")
	assert.Contains(t, out, "has_exited")
	assert.Contains(t, out, "RV_HTIF_FROMHOST")
	assert.Contains(t, out, `#include "prog.h"`)
	assert.False(t, strings.Contains(out, "fprintf"))
}

func TestGenerateHtifVerboseLogsTohostWrites(t *testing.T) {
	out := GenerateHtif("prog", HtifConfig{TohostAddr: DefaultTohostAddr, FromhostAddr: DefaultTohostAddr + 8, Verbose: true})
	assert.Contains(t, out, "fprintf")
}

func TestGenerateABIExportsStateAccessors(t *testing.T) {
	opts := config.NewCompileOptions()
	layout := rtstate.Compute(8, rtstate.NumGPRs, false, 0, 0)

	out := GenerateABI("prog", opts, layout, 0x1000)

	assert.Contains(t, out, "rv_state_size")
	assert.Contains(t, out, "rv_has_exited")
	assert.Contains(t, out, "rv_get_entry_point")
	assert.Contains(t, out, "RV_TRACER_KIND")
	assert.Contains(t, out, `#include "prog.h"`)
	assert.NotContains(t, out, "RV_FIXED_STATE_ADDR")
}

func TestGenerateABIExportsFixedAddressConstantsWhenConfigured(t *testing.T) {
	opts := config.NewCompileOptions().WithFixedAddresses(0x10000, 0x20000000)
	layout := rtstate.Compute(8, rtstate.NumGPRs, false, 0, 0)

	out := GenerateABI("prog", opts, layout, 0x1000)

	assert.Contains(t, out, "RV_FIXED_STATE_ADDR = 0x10000ULL")
	assert.Contains(t, out, "RV_FIXED_MEMORY_ADDR = 0x20000000ULL")
}

func TestPartitionSplitsEvenlyAcrossJobs(t *testing.T) {
	starts := []uint64{0x1000, 0x1008, 0x1010, 0x1018, 0x1020}
	parts := Partition(starts, 2)

	require.Len(t, parts, 2)
	total := 0
	for _, p := range parts {
		total += len(p)
	}
	assert.Equal(t, len(starts), total)
}
