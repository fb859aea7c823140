package x86asm

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rvjit/rvjit/internal/config"
	"github.com/rvjit/rvjit/internal/elfimage"
)

func TestGenerateProducesAsmAndSharedCFiles(t *testing.T) {
	opts := config.NewCompileOptions()
	img := &elfimage.Image{Xlen: elfimage.Xlen64, Entry: 0x1000}

	set, err := Generate("prog", opts, img, simpleProgram())
	require.NoError(t, err)

	assert.Contains(t, set.Files, "prog.S")
	assert.Contains(t, set.Files, "prog.h")
	assert.Contains(t, set.Files, "abi.c")
	assert.Contains(t, set.Files, "memory.c")
	assert.Contains(t, set.Files, "syscalls.c")
	assert.Contains(t, set.Files, "Makefile")
	assert.Contains(t, set.Files["Makefile"], "prog.o: prog.S")
}
