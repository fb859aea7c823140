package arm64asm

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/rvjit/rvjit/internal/cfg"
	"github.com/rvjit/rvjit/internal/ir"
	"github.com/rvjit/rvjit/internal/lift"
	"github.com/rvjit/rvjit/internal/rtstate"
)

func shiftProgram(op ir.BinaryOp, width uint8) *lift.Program {
	blk := &ir.BlockIR{
		StartPC: 0x1000,
		EndPC:   0x1008,
		Instructions: []ir.InstrIR{
			{
				PC: 0x1000,
				Statements: []ir.Stmt{
					ir.StmtWrite{
						Target: ir.WriteTarget{Kind: ir.WriteReg, Reg: 10},
						Value: ir.ExprBinary{
							Op: op, Width: width,
							Left:  ir.ExprRead{Space: ir.SpaceReg, Key: 11},
							Right: ir.ExprRead{Space: ir.SpaceReg, Key: 12},
						},
					},
				},
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
	return &lift.Program{Blocks: map[uint64]*ir.BlockIR{0x1000: blk}, Table: table}
}

func TestLoadBinaryMasksShiftToOperandWidth(t *testing.T) {
	layout := rtstate.Compute(8, rtstate.NumGPRs, false, 0, 0)
	out := GenerateProgram("prog", shiftProgram(ir.BinShrL, 32), nil, layout)

	assert.Contains(t, out, ", #31")
	assert.NotContains(t, out, ", #63")
}

func TestLoadBinaryMasksShiftTo63ForFullWidth(t *testing.T) {
	layout := rtstate.Compute(8, rtstate.NumGPRs, false, 0, 0)
	out := GenerateProgram("prog", shiftProgram(ir.BinShl, 64), nil, layout)

	assert.Contains(t, out, ", #63")
}

func TestLowerUnaryZext32EmitsWRegisterMove(t *testing.T) {
	g := &progGen{}
	g.lowerUnary(ir.UnaryZext32, "x10")

	assert.Contains(t, g.lines[0], "mov w10, w10")
}
