package cbackend

import (
	"github.com/rvjit/rvjit/internal/ir"
)

// lowerStmt appends zero or more C statement lines for s.
func (g *blockGen) lowerStmt(s ir.Stmt) {
	switch v := s.(type) {
	case ir.StmtWrite:
		g.lowerWrite(v)
	case ir.StmtIf:
		g.lowerIf(v)
	case ir.StmtExternCall:
		args := "state, memory"
		for _, a := range v.Args {
			args += ", " + g.lowerExpr(a)
		}
		g.emit("%s(%s);", v.FnName, args)
	}
}

func (g *blockGen) lowerWrite(w ir.StmtWrite) {
	val := g.lowerExpr(w.Value)
	switch w.Target.Kind {
	case ir.WriteReg:
		if w.Target.Reg == 0 {
			g.emit("(void)(%s); /* x0 is hardwired zero */", val)
			return
		}
		g.emit("RV_R(%d) = (%s);", w.Target.Reg, val)
	case ir.WriteMem:
		fn := "wr_mem_" + memSuffix(w.Target.Width, false)
		addr := "0"
		if w.Target.Base != nil {
			addr = g.lowerExpr(w.Target.Base)
		}
		g.emit("%s(state, memory, (%s) + %dLL, %s);", fn, addr, w.Target.Offset, val)
	case ir.WritePC:
		g.emit("state->pc = (%s);", val)
	case ir.WriteExited:
		g.emit("state->has_exited = (uint8_t)(%s);", val)
	case ir.WriteExitCode:
		g.emit("state->exit_code = (uint8_t)(%s);", val)
	case ir.WriteTemp:
		g.emit("uint64_t t%d = (%s);", w.Target.Temp, val)
	case ir.WriteResAddr:
		g.emit("state->reservation_addr = (%s); state->reservation_valid = 1;", val)
	case ir.WriteResValid:
		g.emit("state->reservation_valid = (uint8_t)(%s);", val)
	case ir.WriteCsr:
		g.emit("rv_csr_write(state, %d, %s);", w.Target.Csr, val)
	}
}

func (g *blockGen) lowerIf(s ir.StmtIf) {
	g.emit("if (%s) {", g.lowerExpr(s.Cond))
	g.indent++
	for _, st := range s.Then {
		g.lowerStmt(st)
	}
	g.indent--
	if len(s.Else) > 0 {
		g.emit("} else {")
		g.indent++
		for _, st := range s.Else {
			g.lowerStmt(st)
		}
		g.indent--
	}
	g.emit("}")
}

// lowerTerminator appends the tail-call/return sequence ending a block
// function (§4.6: "Intra-image control transitions are emitted as
// musttail tail calls").
func (g *blockGen) lowerTerminator(t ir.Terminator) {
	switch t.Kind {
	case ir.TermFall:
		g.emitTailCallOrDispatch(t.Fall)
	case ir.TermJump:
		g.emitTailCallOrDispatch(t.Target)
	case ir.TermJumpDyn:
		g.emit("return RV_MUSTTAIL dispatch_table[rv_dispatch_index((%s))](%s);", g.lowerExpr(t.Addr), g.argList())
	case ir.TermBranch:
		g.emit("if (%s) {", g.lowerExpr(t.Cond))
		g.indent++
		g.emitTailCallOrDispatch(t.Target)
		g.indent--
		g.emit("} else {")
		g.indent++
		g.emitTailCallOrDispatch(t.Fall)
		g.indent--
		g.emit("}")
	case ir.TermExit:
		g.emit("state->exit_code = (uint8_t)(%s);", g.lowerExpr(t.Code))
		g.emit("state->has_exited = 1;")
		g.emit("return;")
	case ir.TermTrap:
		g.emit("state->has_exited = 1;")
		g.emit("state->exit_code = 1;")
		if t.Message != "" {
			g.emit("/* trap: %s */", t.Message)
		}
		g.emit("return;")
	}
}

// emitTailCallOrDispatch tail-calls target's block function directly
// when it is a known block start, or falls back to a dispatch-table
// call when target is only reachable as an absorbed/interior PC or an
// address outside any known block (§4.5 "Dispatch table").
func (g *blockGen) emitTailCallOrDispatch(target uint64) {
	if resolved, ok := g.dispatch.Lookup(target); ok {
		g.emit("return RV_MUSTTAIL B_%x(%s);", resolved, g.argList())
		return
	}
	g.emit("return RV_MUSTTAIL dispatch_table[rv_dispatch_index(0x%xULL)](%s);", target, g.argList())
}
