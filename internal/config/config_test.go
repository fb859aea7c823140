package config

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCompileOptionsDefaults(t *testing.T) {
	c := NewCompileOptions()
	require.Equal(t, BackendC, c.Backend())
	require.Equal(t, AddressBounds, c.AddressMode())
	require.Equal(t, SyscallLinux, c.SyscallMode())
	require.True(t, c.EnableSuperblock())
	require.Equal(t, AnalysisFullCfg, c.ResolvedAnalysisMode())
}

func TestCompileOptionsResolvedAnalysisModeForAsmBackends(t *testing.T) {
	c := NewCompileOptions().WithBackend(BackendX86Asm)
	require.Equal(t, AnalysisBasic, c.ResolvedAnalysisMode())

	c = c.WithAnalysisMode(AnalysisFullCfg)
	require.Equal(t, AnalysisFullCfg, c.ResolvedAnalysisMode())
}

func TestCompileOptionsWithersDoNotMutateReceiver(t *testing.T) {
	base := NewCompileOptions()
	derived := base.WithBackend(BackendARM64Asm).WithEnableSuperblock(false)

	require.Equal(t, BackendC, base.Backend())
	require.True(t, base.EnableSuperblock())

	require.Equal(t, BackendARM64Asm, derived.Backend())
	require.False(t, derived.EnableSuperblock())
}

func TestCompileOptionsPerfModeForcesInstretOff(t *testing.T) {
	c := NewCompileOptions().WithInstretMode(InstretPerInstruction).WithPerfMode(true)
	require.Equal(t, InstretOff, c.InstretMode())
	require.True(t, c.PerfMode())
}

func TestCompileOptionsFixedAddressesIsDeepCloned(t *testing.T) {
	base := NewCompileOptions().WithFixedAddresses(0x80000000, 0x90000000)
	derived := base.WithJobs(4)

	derived.FixedAddresses().StateAddr = 0xdead
	require.Equal(t, uint64(0x80000000), base.FixedAddresses().StateAddr)
}

func TestCompileOptionsWithJobsCoercesStrings(t *testing.T) {
	c := NewCompileOptions().WithJobs("8")
	require.Equal(t, 8, c.Jobs())

	c = NewCompileOptions().WithJobs("not-a-number")
	require.Equal(t, 0, c.Jobs())

	c = NewCompileOptions().WithJobs(-3)
	require.Equal(t, 0, c.Jobs())
}
