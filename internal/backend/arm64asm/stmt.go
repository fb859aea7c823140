package arm64asm

import (
	"github.com/rvjit/rvjit/internal/ir"
)

func memStoreMnemonic(width uint8) string {
	switch width {
	case 8:
		return "strb"
	case 16:
		return "strh"
	default:
		return "str"
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
		g.emit("b asm_trap")
	}
}

func (g *progGen) lowerWrite(w ir.StmtWrite) {
	switch w.Target.Kind {
	case ir.WriteReg:
		if w.Target.Reg == 0 {
			return // x0 is hardwired zero
		}
		g.loadToTemp(w.Value, RegTemp0)
		if host, ok := g.regOperand(int(w.Target.Reg)); ok {
			g.emit("mov %s, %s", host, RegTemp0)
			return
		}
		g.emit("str %s, [%s, #%d]", RegTemp0, RegState, g.layout.RegsOffset+int(w.Target.Reg)*g.layout.XlenBytes)
	case ir.WriteMem:
		g.loadToTemp(w.Value, RegTemp0)
		addr := RegTemp1
		if w.Target.Base != nil {
			g.loadToTemp(w.Target.Base, addr)
		} else {
			g.emit("mov %s, #0", addr)
		}
		g.emit("add %s, %s, %s", addr, RegMem, addr)
		g.emit("%s %s, [%s, #%d]", memStoreMnemonic(w.Target.Width), RegTemp0, addr, w.Target.Offset)
	case ir.WritePC:
		g.loadToTemp(w.Value, RegTemp0)
		g.emit("str %s, [%s, #%d]", RegTemp0, RegState, g.layout.PCOffset)
	case ir.WriteExited:
		g.loadToTemp(w.Value, RegTemp0)
		g.emit("strb %s, [%s, #%d]", RegTemp0, RegState, g.layout.HasExitedOffset)
	case ir.WriteExitCode:
		g.loadToTemp(w.Value, RegTemp0)
		g.emit("strb %s, [%s, #%d]", RegTemp0, RegState, g.layout.ExitCodeOffset)
	case ir.WriteTemp:
		g.loadToTemp(w.Value, RegTemp0)
		g.emit("mov t%d, %s", w.Target.Temp, RegTemp0)
	case ir.WriteResAddr:
		g.loadToTemp(w.Value, RegTemp0)
		g.emit("str %s, [%s, #%d]", RegTemp0, RegState, g.layout.ReservationAddrOffset)
		g.emit("mov %s, #1", RegTemp1)
		g.emit("strb %s, [%s, #%d]", RegTemp1, RegState, g.layout.ReservationValidOffset)
	case ir.WriteResValid:
		g.loadToTemp(w.Value, RegTemp0)
		g.emit("strb %s, [%s, #%d]", RegTemp0, RegState, g.layout.ReservationValidOffset)
	case ir.WriteCsr:
		g.comment("csr %d write unsupported in linear backend, trapping", w.Target.Csr)
		g.emit("b asm_trap")
	}
}

func (g *progGen) lowerIf(s ir.StmtIf) {
	g.loadToTemp(s.Cond, RegTemp2)
	elseLbl := g.freshLabel("if_else")
	endLbl := g.freshLabel("if_end")
	g.emit("cbz %s, %s", RegTemp2, elseLbl)
	for _, st := range s.Then {
		g.lowerStmt(st)
	}
	g.emit("b %s", endLbl)
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
		g.emit("bl rv_dispatch_index_arm64")
		g.emit("adrp %s, jump_table", RegTemp1)
		g.emit("add %s, %s, :lo12:jump_table", RegTemp1, RegTemp1)
		g.emit("ldr %s, [%s, %s, lsl #3]", RegTemp0, RegTemp1, RegTemp0)
		g.emit("br %s", RegTemp0)
	case ir.TermBranch:
		g.loadToTemp(t.Cond, RegTemp2)
		elseLbl := g.freshLabel("br_else")
		g.emit("cbz %s, %s", RegTemp2, elseLbl)
		g.jumpTo(t.Target, valid)
		g.label(elseLbl)
		g.jumpTo(t.Fall, valid)
	case ir.TermExit:
		g.loadToTemp(t.Code, RegTemp0)
		g.emit("strb %s, [%s, #%d]", RegTemp0, RegState, g.layout.ExitCodeOffset)
		g.emit("mov %s, #1", RegTemp1)
		g.emit("strb %s, [%s, #%d]", RegTemp1, RegState, g.layout.HasExitedOffset)
		g.emit("b asm_exit")
	case ir.TermTrap:
		g.emit("b asm_trap")
	}
}

// jumpTo prefers a direct b to the target's label when it's a known
// valid instruction address, falling back to the jump table the same
// way dynamic control transfer does.
func (g *progGen) jumpTo(target uint64, valid map[uint64]bool) {
	if valid[target] {
		g.emit("b asm_pc_%x", target)
		return
	}
	g.emit("mov %s, #%d", RegTemp0, target)
	g.emit("bl rv_dispatch_index_arm64")
	g.emit("adrp %s, jump_table", RegTemp1)
	g.emit("add %s, %s, :lo12:jump_table", RegTemp1, RegTemp1)
	g.emit("ldr %s, [%s, %s, lsl #3]", RegTemp0, RegTemp1, RegTemp0)
	g.emit("br %s", RegTemp0)
}
