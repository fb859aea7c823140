package x86asm

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/rvjit/rvjit/internal/cfg"
	"github.com/rvjit/rvjit/internal/ir"
	"github.com/rvjit/rvjit/internal/lift"
	"github.com/rvjit/rvjit/internal/rtstate"
)

func simpleProgram() *lift.Program {
	blk := &ir.BlockIR{
		StartPC: 0x1000,
		EndPC:   0x1008,
		Instructions: []ir.InstrIR{
			{
				PC: 0x1000,
				Statements: []ir.Stmt{
					ir.StmtWrite{
						Target: ir.WriteTarget{Kind: ir.WriteReg, Reg: 10},
						Value:  ir.ExprBinary{Op: ir.BinAdd, Left: ir.ExprRead{Space: ir.SpaceReg, Key: 10}, Right: ir.ExprImm{Value: 1, Width: 64}},
					},
				},
			},
			{
				PC:         0x1004,
				Terminator: &ir.Terminator{Kind: ir.TermExit, Code: ir.ExprImm{Value: 0, Width: 8}},
			},
		},
	}
	table := &cfg.BlockTable{
		Blocks:     map[uint64]cfg.Block{0x1000: {Start: 0x1000, End: 0x1008}},
		Leaders:    map[uint64]bool{0x1000: true},
		AbsorbedTo: map[uint64]uint64{},
		TextStart:  0x1000,
		PCEnd:      0x1008,
	}
	return &lift.Program{
		Blocks: map[uint64]*ir.BlockIR{0x1000: blk},
		ByPC:   map[uint64]*ir.InstrIR{0x1000: &blk.Instructions[0], 0x1004: &blk.Instructions[1]},
		Table:  table,
	}
}

func TestGenerateProgramEmitsLabelsAndEpilogue(t *testing.T) {
	layout := rtstate.Compute(8, rtstate.NumGPRs, false, 0, 0)
	out := GenerateProgram("prog", simpleProgram(), []int{10}, layout)

	assert.Contains(t, out, "asm_pc_1000:")
	assert.Contains(t, out, "asm_run:")
	assert.Contains(t, out, "asm_exit:")
	assert.Contains(t, out, "asm_trap:")
	assert.Contains(t, out, "jump_table:")
	assert.Contains(t, out, "rv_execute_from:")
}

func TestGenerateProgramPinsHotRegisterToHostGPR(t *testing.T) {
	layout := rtstate.Compute(8, rtstate.NumGPRs, false, 0, 0)
	out := GenerateProgram("prog", simpleProgram(), []int{10}, layout)

	host := hotRegPool[0]
	assert.Contains(t, out, "%"+host)
}

func TestGenerateJumpTableUsesLongEntries(t *testing.T) {
	out := generateJumpTable(simpleProgram().Table)
	assert.Contains(t, out, ".long")
	assert.NotContains(t, out, ".quad")
}

func TestAssignHotRegsTruncatesToPoolSize(t *testing.T) {
	guestRegs := make([]int, len(hotRegPool)+5)
	for i := range guestRegs {
		guestRegs[i] = i + 1
	}
	a := AssignHotRegs(guestRegs)
	assert.Len(t, a.Order, len(hotRegPool))
}
