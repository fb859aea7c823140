package cbackend

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rvjit/rvjit/internal/config"
	"github.com/rvjit/rvjit/internal/elfimage"
	"github.com/rvjit/rvjit/internal/ir"
	"github.com/rvjit/rvjit/internal/lift"
)

func TestGenerateProducesFullArtifactSet(t *testing.T) {
	opts := config.NewCompileOptions()
	img := &elfimage.Image{Xlen: elfimage.Xlen64, Entry: 0x1000}
	blk := simpleBlock()
	table := blockTableFor(blk)
	prog := &lift.Program{Blocks: map[uint64]*ir.BlockIR{blk.StartPC: blk}, Table: table}

	set, err := Generate("prog", opts, img, prog)
	require.NoError(t, err)

	assert.Contains(t, set.Files, "prog.h")
	assert.Contains(t, set.Files, "prog_blocks.h")
	assert.Contains(t, set.Files, "prog_dispatch.c")
	assert.Contains(t, set.Files, "abi.c")
	assert.Contains(t, set.Files, "memory.c")
	assert.Contains(t, set.Files, "syscalls.c")
	assert.Contains(t, set.Files, "Makefile")
	assert.Contains(t, set.Files, "prog_part1.c")
}

func TestGenerateEmitsHtifFileAndObjectWhenEnabled(t *testing.T) {
	opts := config.NewCompileOptions().WithHtif(true, false)
	img := &elfimage.Image{Xlen: elfimage.Xlen64, Entry: 0x1000}
	blk := simpleBlock()
	table := blockTableFor(blk)
	prog := &lift.Program{Blocks: map[uint64]*ir.BlockIR{blk.StartPC: blk}, Table: table}

	set, err := Generate("prog", opts, img, prog)
	require.NoError(t, err)

	assert.Contains(t, set.Files, "htif.c")
	assert.Contains(t, set.Files["prog.h"], "RV_HTIF_TOHOST")
	assert.Contains(t, set.Files["Makefile"], "htif.o")
}
