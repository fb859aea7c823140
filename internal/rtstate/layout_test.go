package rtstate

import (
	"testing"
	"unsafe"

	"github.com/stretchr/testify/require"
)

// TestComputeAgreesWithGoStructLayout is the layout-agreement property:
// Compute's arithmetic must match the real field offsets of the RV64,
// no-tracer, no-suspend State instantiation bit-exactly, since
// generated code and the host runner are required to agree (§3.6).
func TestComputeAgreesWithGoStructLayout(t *testing.T) {
	var s State[uint64]
	l := Compute(8, NumGPRs, false, 0, 0)

	require.Equal(t, int(unsafe.Offsetof(s.Regs)), l.RegsOffset)
	require.Equal(t, int(unsafe.Offsetof(s.PC)), l.PCOffset)
	require.Equal(t, int(unsafe.Offsetof(s.Instret)), l.InstretOffset)
	require.Equal(t, int(unsafe.Offsetof(s.ReservationAddr)), l.ReservationAddrOffset)
	require.Equal(t, int(unsafe.Offsetof(s.ReservationValid)), l.ReservationValidOffset)
	require.Equal(t, int(unsafe.Offsetof(s.HasExited)), l.HasExitedOffset)
	require.Equal(t, int(unsafe.Offsetof(s.ExitCode)), l.ExitCodeOffset)
	require.Equal(t, int(unsafe.Offsetof(s.Brk)), l.BrkOffset)
	require.Equal(t, int(unsafe.Offsetof(s.StartBrk)), l.StartBrkOffset)
	require.Equal(t, int(unsafe.Offsetof(s.Memory)), l.MemoryOffset)
	require.Equal(t, int(unsafe.Offsetof(s.Csrs)), l.CsrsOffset)
	require.Equal(t, int(unsafe.Sizeof(s)), l.TotalSize)
}

func TestComputeSuspendInsertsTargetInstretImmediatelyAfterInstret(t *testing.T) {
	withoutSuspend := Compute(8, NumGPRs, false, 0, 0)
	require.Equal(t, -1, withoutSuspend.TargetInstretOffset)

	withSuspend := Compute(8, NumGPRs, true, 0, 0)
	require.Equal(t, withSuspend.InstretOffset+8, withSuspend.TargetInstretOffset)
	require.Greater(t, withSuspend.ReservationAddrOffset, withSuspend.TargetInstretOffset)
}

func TestComputeTracerSizeShiftsCsrsToTail(t *testing.T) {
	base := Compute(8, NumGPRs, false, 0, 0)
	withTracer := Compute(8, NumGPRs, false, 64, 8)

	require.Equal(t, base.TracerOffset+64, withTracer.CsrsOffset)
	require.Equal(t, base.CsrsOffset, base.TracerOffset)
}

func TestComputeRV32UsesFourByteRegs(t *testing.T) {
	l := Compute(4, NumGPRs, false, 0, 0)
	require.Equal(t, 4*NumGPRs, l.PCOffset)
}
