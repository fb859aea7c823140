package rvjit

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/rvjit/rvjit/internal/config"
	"github.com/rvjit/rvjit/internal/elfimage"
)

func TestBuildDecoderDecodesRV64AddImmediate(t *testing.T) {
	dec := buildDecoder(elfimage.Xlen64, config.NewCompileOptions())
	// addi x1, x0, 5
	word := []byte{0x93, 0x00, 0x50, 0x00}
	in, err := dec.DecodeAt(word, 0x1000)
	require.NoError(t, err)
	require.Equal(t, uint8(1), uint8(in.Args.Rd))
}

func TestBuildDecoderDecodesRV32CompressedNop(t *testing.T) {
	dec := buildDecoder(elfimage.Xlen32, config.NewCompileOptions())
	// c.nop: 0x0001
	word := []byte{0x01, 0x00}
	_, err := dec.DecodeAt(word, 0x1000)
	require.NoError(t, err)
}

func TestBuildDecoderInstallsBaremetalSyscallLiftWhenRequested(t *testing.T) {
	opts := config.NewCompileOptions().WithSyscallMode(config.SyscallBaremetal)
	dec := buildDecoder(elfimage.Xlen64, opts)

	ecall := []byte{0x73, 0x00, 0x00, 0x00}
	in, err := dec.DecodeAt(ecall, 0x2000)
	require.NoError(t, err)

	lifted, err := dec.Lift(in)
	require.NoError(t, err)
	require.NotNil(t, lifted.Terminator)
	require.Nil(t, lifted.Statements)
}
