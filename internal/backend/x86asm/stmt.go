package x86asm

import (
	"github.com/rvjit/rvjit/internal/ir"
)

func memStoreMnemonic(width uint8) string {
	switch width {
	case 8:
		return "movb"
	case 16:
		return "movw"
	case 32:
		return "movl"
	default:
		return "movq"
	}
}

func (g *progGen) lowerStmt(s ir.Stmt) {
	switch v := s.(type) {
	case ir.StmtWrite:
		g.lowerWrite(v)
	case ir.StmtIf:
		g.lowerIf(v)
	case ir.StmtExternCall:
		g.comment("extern call %s unsupported in linear backend, trapping", v.FnName)
		g.emit("jmp asm_trap")
	}
}

func (g *progGen) lowerWrite(w ir.StmtWrite) {
	switch w.Target.Kind {
	case ir.WriteReg:
		if w.Target.Reg == 0 {
			return // x0 is hardwired zero
		}
		g.loadToTemp(w.Value, RegTemp0)
		g.emit("movq %%%s, %s", RegTemp0, g.regOperand(int(w.Target.Reg)))
	case ir.WriteMem:
		g.loadToTemp(w.Value, RegTemp0)
		addr := RegTemp1
		if w.Target.Base != nil {
			g.loadToTemp(w.Target.Base, addr)
		} else {
			g.emit("xorq %%%s, %%%s", addr, addr)
		}
		op := memStoreMnemonic(w.Target.Width)
		g.emit("%s %s, %d(%%%s,%%%s)", op, subregFor(op, RegTemp0), w.Target.Offset, RegMem, addr)
	case ir.WritePC:
		g.loadToTemp(w.Value, RegTemp0)
		g.emit("movq %%%s, %d(%%%s)", RegTemp0, g.layout.PCOffset, RegState)
	case ir.WriteExited:
		g.loadToTemp(w.Value, RegTemp0)
		g.emit("movb %%al, %d(%%%s)", g.layout.HasExitedOffset, RegState)
	case ir.WriteExitCode:
		g.loadToTemp(w.Value, RegTemp0)
		g.emit("movb %%al, %d(%%%s)", g.layout.ExitCodeOffset, RegState)
	case ir.WriteTemp:
		g.loadToTemp(w.Value, RegTemp0)
		g.emit("movq %%%s, %%t%d", RegTemp0, w.Target.Temp)
	case ir.WriteResAddr:
		g.loadToTemp(w.Value, RegTemp0)
		g.emit("movq %%%s, %d(%%%s)", RegTemp0, g.layout.ReservationAddrOffset, RegState)
		g.emit("movb $1, %d(%%%s)", g.layout.ReservationValidOffset, RegState)
	case ir.WriteResValid:
		g.loadToTemp(w.Value, RegTemp0)
		g.emit("movb %%al, %d(%%%s)", g.layout.ReservationValidOffset, RegState)
	case ir.WriteCsr:
		g.comment("csr %d write unsupported in linear backend, trapping", w.Target.Csr)
		g.emit("jmp asm_trap")
	}
}

// subregFor narrows rax to the matching sub-register width for a
// truncating store, since x86 store mnemonics select width by operand
// register name rather than by a suffix on a 64-bit register.
func subregFor(mnemonic, reg64 string) string {
	if reg64 != "rax" {
		return "%" + reg64
	}
	switch mnemonic {
	case "movb":
		return "%al"
	case "movw":
		return "%ax"
	case "movl":
		return "%eax"
	default:
		return "%rax"
	}
}

func (g *progGen) lowerIf(s ir.StmtIf) {
	g.loadToTemp(s.Cond, RegTemp2)
	g.emit("testq %%%s, %%%s", RegTemp2, RegTemp2)
	elseLbl := g.freshLabel("if_else")
	endLbl := g.freshLabel("if_end")
	g.emit("jz %s", elseLbl)
	for _, st := range s.Then {
		g.lowerStmt(st)
	}
	g.emit("jmp %s", endLbl)
	g.label(elseLbl)
	for _, st := range s.Else {
		g.lowerStmt(st)
	}
	g.label(endLbl)
}

// lowerTerminator appends the control-transfer sequence ending a
// block's worth of instructions in the linear stream (§4.7).
func (g *progGen) lowerTerminator(t ir.Terminator, valid map[uint64]bool) {
	switch t.Kind {
	case ir.TermFall:
		g.jumpTo(t.Fall, valid)
	case ir.TermJump:
		g.jumpTo(t.Target, valid)
	case ir.TermJumpDyn:
		g.loadToTemp(t.Addr, RegTemp0)
		g.emit("callq rv_dispatch_index_x86")
		g.emit("jmpq *jump_table(,%%%s,8)", RegTemp0)
	case ir.TermBranch:
		g.loadToTemp(t.Cond, RegTemp2)
		g.emit("testq %%%s, %%%s", RegTemp2, RegTemp2)
		elseLbl := g.freshLabel("br_else")
		g.emit("jz %s", elseLbl)
		g.jumpTo(t.Target, valid)
		g.label(elseLbl)
		g.jumpTo(t.Fall, valid)
	case ir.TermExit:
		g.loadToTemp(t.Code, RegTemp0)
		g.emit("movb %%al, %d(%%%s)", g.layout.ExitCodeOffset, RegState)
		g.emit("movb $1, %d(%%%s)", g.layout.HasExitedOffset, RegState)
		g.emit("jmp asm_exit")
	case ir.TermTrap:
		g.emit("jmp asm_trap")
	}
}

// jumpTo prefers a direct jmp to the target's label when it's a known
// valid instruction address, falling back to the jump table the same
// way dynamic control transfer does.
func (g *progGen) jumpTo(target uint64, valid map[uint64]bool) {
	if valid[target] {
		g.emit("jmp asm_pc_%x", target)
		return
	}
	g.emit("movq $%d, %%%s", target, RegTemp0)
	g.emit("callq rv_dispatch_index_x86")
	g.emit("jmpq *jump_table(,%%%s,8)", RegTemp0)
}
