// Package rtstate computes the RvState field layout shared between
// generated code and the host Runner (§3.6). The layout is contractual:
// both sides must compute identical offsets from identical rules, so
// the arithmetic lives in exactly one place and is exercised by both
// the C/asm header generators and the Go-side layout-agreement test.
package rtstate

// Layout is the fully resolved field-offset table for one RvState
// instantiation, parameterized by XLEN, register count, and whether
// suspension (and therefore target_instret) is present (§3.6).
type Layout struct {
	XlenBytes      int
	NumRegs        int
	SuspendEnabled bool
	TracerSize     int
	TracerAlign    int

	RegsOffset             int
	PCOffset               int
	InstretOffset          int
	TargetInstretOffset    int // -1 when SuspendEnabled is false
	ReservationAddrOffset  int
	ReservationValidOffset int
	HasExitedOffset        int
	ExitCodeOffset         int
	BrkOffset              int
	StartBrkOffset         int
	MemoryOffset           int
	TracerOffset           int
	CsrsOffset             int
	TotalSize              int
}

func alignUp(off, align int) int {
	if align <= 1 {
		return off
	}
	return (off + align - 1) &^ (align - 1)
}

// Compute derives every RvState field offset per the field order named
// in §3.6. xlenBytes is 4 or 8; numRegs is 32 for the I-extension
// register file or 16 under RVE.
func Compute(xlenBytes, numRegs int, suspendEnabled bool, tracerSize, tracerAlign int) Layout {
	l := Layout{
		XlenBytes:      xlenBytes,
		NumRegs:        numRegs,
		SuspendEnabled: suspendEnabled,
		TracerSize:     tracerSize,
		TracerAlign:    tracerAlign,
	}

	off := 0
	l.RegsOffset = off
	off += xlenBytes * numRegs

	l.PCOffset = off
	off += xlenBytes

	off = alignUp(off, 8)
	l.InstretOffset = off
	off += 8

	if suspendEnabled {
		l.TargetInstretOffset = off
		off += 8
	} else {
		l.TargetInstretOffset = -1
	}

	l.ReservationAddrOffset = off
	off += xlenBytes

	l.ReservationValidOffset = off
	off += 1
	l.HasExitedOffset = off
	off += 1
	l.ExitCodeOffset = off
	off += 1

	off = alignUp(off, 8)

	l.BrkOffset = off
	off += xlenBytes
	l.StartBrkOffset = off
	off += xlenBytes

	off = alignUp(off, 8)
	l.MemoryOffset = off
	off += 8 // pointer

	if tracerAlign > 0 {
		off = alignUp(off, tracerAlign)
	}
	l.TracerOffset = off
	off += tracerSize

	off = alignUp(off, xlenBytes)
	l.CsrsOffset = off
	off += xlenBytes * 4096

	l.TotalSize = off
	return l
}
