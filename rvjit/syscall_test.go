package rvjit

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/rvjit/rvjit/internal/config"
	"github.com/rvjit/rvjit/internal/ir"
	"github.com/rvjit/rvjit/internal/isa"
)

func TestSyscallLiftNilForBaremetal(t *testing.T) {
	require.Nil(t, syscallLift[uint64](config.SyscallBaremetal, isa.BaseI[uint64]{}))
}

func TestSyscallLiftEcallCallsRvSyscallAndExitsWithA0(t *testing.T) {
	lift := syscallLift[uint64](config.SyscallLinux, isa.BaseI[uint64]{})
	require.NotNil(t, lift)

	ecall, ok := isa.BaseI[uint64]{}.Decode32(0x00000073, 0x1000)
	require.True(t, ok)

	out := lift(ecall)
	require.Len(t, out.Statements, 1)
	write, ok := out.Statements[0].(ir.StmtWrite)
	require.True(t, ok)
	require.Equal(t, ir.WriteReg, write.Target.Kind)
	require.Equal(t, isa.Reg(10), write.Target.Reg)

	call, ok := write.Value.(ir.ExprExternCall)
	require.True(t, ok)
	require.Equal(t, "rv_syscall", call.FnName)
	require.Len(t, call.Args, 7)

	require.Equal(t, ir.TermExit, out.Terminator.Kind)
}

func TestSyscallLiftEbreakTraps(t *testing.T) {
	lift := syscallLift[uint64](config.SyscallLinux, isa.BaseI[uint64]{})

	ebreak, ok := isa.BaseI[uint64]{}.Decode32(0x00100073, 0x1000)
	require.True(t, ok)

	out := lift(ebreak)
	require.Equal(t, ir.TermTrap, out.Terminator.Kind)
	require.Empty(t, out.Statements)
}
