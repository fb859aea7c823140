package rvjit

import (
	"github.com/rvjit/rvjit/internal/config"
	"github.com/rvjit/rvjit/internal/ir"
	"github.com/rvjit/rvjit/internal/isa"
)

// syscallLift returns the BaseI.SyscallLift override matching mode, or
// nil for SyscallBaremetal (letting BaseI fall back to its built-in
// "ecall/ebreak exits with a0" default, the convention riscv-tests and
// riscv-arch-test programs rely on).
//
// Linux mode lowers ecall to a single rv_syscall host call and then
// unconditionally exits with a0's result. This mirrors the baremetal
// default's shape rather than falling through to a next instruction,
// because cfg.classifyTerminator already treats every ecall as a
// block-ending termStop with no successors (§4.3) -- a continuing,
// multi-syscall Linux program would need the CFG walk to resume past
// ecall, which it does not. That scope is deliberately narrow: single-
// syscall-then-exit programs, the shape riscv-tests' syscall-based exit
// sequences and most arch-test harnesses use.
func syscallLift[X isa.Xlen](mode config.SyscallMode, base isa.BaseI[X]) func(in isa.DecodedInstr) ir.InstrIR {
	if mode != config.SyscallLinux {
		return nil
	}
	return func(in isa.DecodedInstr) ir.InstrIR {
		readReg := func(r isa.Reg) ir.Expr { return ir.ExprRead{Space: ir.SpaceReg, Key: uint32(r)} }

		info, _ := base.OpInfo(in.OpId)
		if info.Mnemonic != "ecall" {
			return ir.InstrIR{
				PC: in.PC, Size: in.Size, Raw: in.Raw, OpId: in.OpId,
				Terminator: &ir.Terminator{Kind: ir.TermTrap, Message: "ebreak"},
			}
		}

		call := ir.ExprExternCall{
			FnName: "rv_syscall",
			Args: []ir.Expr{
				readReg(17), // a7: syscall number
				readReg(10), readReg(11), readReg(12), // a0..a2
				readReg(13), readReg(14), readReg(15), // a3..a5
			},
			RetWidth: 64,
		}
		writeA0 := ir.StmtWrite{
			Target: ir.WriteTarget{Kind: ir.WriteReg, Reg: 10},
			Value:  call,
		}
		return ir.InstrIR{
			PC: in.PC, Size: in.Size, Raw: in.Raw, OpId: in.OpId,
			Statements: []ir.Stmt{writeA0},
			Terminator: &ir.Terminator{Kind: ir.TermExit, Code: readReg(10)},
		}
	}
}
