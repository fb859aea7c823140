package rvjit

import (
	"github.com/rvjit/rvjit/internal/config"
	"github.com/rvjit/rvjit/internal/elfimage"
	"github.com/rvjit/rvjit/internal/isa"
)

// buildDecoder assembles the extension chain for xlen, installing the
// syscall lowering strategy opts selects onto the base extension's
// ecall/ebreak override hook (§4.1, §6.5). Ordering follows the
// registry's documented rule that the first Some wins: the base
// extension first, then M, A and C (C only decodes 16-bit words, which
// the others never claim), Zicsr/Zicond/Zbb after the arithmetic core
// they extend, the unimplemented bit-manip stubs last so a real
// extension never loses an encoding to them.
func buildDecoder(xlen elfimage.Xlen, opts *config.CompileOptions) *isa.CompositeDecoder {
	if xlen == elfimage.Xlen32 {
		base := isa.BaseI[uint32]{SyscallLift: syscallLift(opts.SyscallMode(), isa.BaseI[uint32]{})}
		return isa.NewCompositeDecoder(
			base,
			isa.M[uint32]{},
			isa.A[uint32]{},
			isa.C[uint32]{},
			isa.Zicsr[uint32]{},
			isa.Zicond[uint32]{},
			isa.Zbb[uint32]{},
			isa.ZbaStub[uint32]{},
			isa.ZbsStub[uint32]{},
		)
	}
	base := isa.BaseI[uint64]{SyscallLift: syscallLift(opts.SyscallMode(), isa.BaseI[uint64]{})}
	return isa.NewCompositeDecoder(
		base,
		isa.M[uint64]{},
		isa.A[uint64]{},
		isa.C[uint64]{},
		isa.Zicsr[uint64]{},
		isa.Zicond[uint64]{},
		isa.Zbb[uint64]{},
		isa.ZbaStub[uint64]{},
		isa.ZbsStub[uint64]{},
	)
}
