package x86asm

import (
	"fmt"

	"github.com/rvjit/rvjit/internal/ir"
	"github.com/rvjit/rvjit/internal/rtstate"
)

// progGen renders one program's worth of lifted blocks into a single
// linear instruction stream (§4.7 "Linear assembly").
type progGen struct {
	hot    HotRegAssignment
	layout rtstate.Layout
	lines  []string
	nTemp  int
}

func (g *progGen) emit(format string, args ...interface{}) {
	g.lines = append(g.lines, fmt.Sprintf("  "+format, args...))
}

func (g *progGen) label(name string) {
	g.lines = append(g.lines, name+":")
}

func (g *progGen) comment(format string, args ...interface{}) {
	g.lines = append(g.lines, "  # "+fmt.Sprintf(format, args...))
}

// regOperand returns the host operand for guest register n: a pinned
// host GPR if hot, otherwise the in-memory state->regs[n] slot.
func (g *progGen) regOperand(n int) string {
	if host, ok := g.hot.Host[n]; ok {
		return "%" + host
	}
	return fmt.Sprintf("%d(%%%s)", g.layout.RegsOffset+n*g.layout.XlenBytes, RegState)
}

// loadToTemp emits code moving e's value into temp and returns temp's
// operand name. Only the subset of ir.Expr actually reachable from
// lifted arithmetic/memory ops is lowered directly; anything else
// falls through to a trap comment (§4.7 "Unsupported ops").
func (g *progGen) loadToTemp(e ir.Expr, temp string) {
	switch v := e.(type) {
	case ir.ExprImm:
		g.emit("movq $%d, %%%s", v.Value, temp)
	case ir.ExprPcConst:
		g.emit("movq $%d, %%%s", v.PC, temp)
	case ir.ExprRead:
		g.loadRead(v, temp)
	case ir.ExprUnary:
		g.loadToTemp(v.Operand, temp)
		g.lowerUnary(v.Op, temp)
	case ir.ExprBinary:
		g.loadBinary(v, temp)
	case ir.ExprTernary:
		g.loadTernary(v, temp)
	default:
		g.comment("unsupported expr %T, trapping", e)
		g.emit("jmp asm_trap")
	}
}

func (g *progGen) loadRead(v ir.ExprRead, temp string) {
	switch v.Space {
	case ir.SpaceReg:
		g.emit("movq %s, %%%s", g.regOperand(int(v.Key)), temp)
	case ir.SpacePC:
		g.emit("movq %d(%%%s), %%%s", g.layout.PCOffset, RegState, temp)
	case ir.SpaceInstret:
		g.emit("movq %d(%%%s), %%%s", g.layout.InstretOffset, RegState, temp)
	case ir.SpaceTemp:
		g.emit("movq %%t%d, %%%s", v.Key, temp)
	case ir.SpaceMem:
		addr := RegTemp1
		if v.Base != nil {
			g.loadToTemp(v.Base, addr)
		} else {
			g.emit("xorq %%%s, %%%s", addr, addr)
		}
		width, signed := v.Width, v.Signed
		op := memLoadMnemonic(width, signed)
		g.emit("%s %d(%%%s,%%%s), %%%s", op, v.Offset, RegMem, addr, temp)
	}
}

func memLoadMnemonic(width uint8, signed bool) string {
	switch width {
	case 8:
		if signed {
			return "movsbq"
		}
		return "movzbq"
	case 16:
		if signed {
			return "movswq"
		}
		return "movzwq"
	case 32:
		if signed {
			return "movslq"
		}
		return "movl"
	default:
		return "movq"
	}
}

func (g *progGen) lowerUnary(op ir.UnaryOp, temp string) {
	switch op {
	case ir.UnaryNeg:
		g.emit("negq %%%s", temp)
	case ir.UnaryNot:
		g.emit("notq %%%s", temp)
	case ir.UnarySextB:
		g.emit("movsbq %%%s, %%%s", loByte(temp), temp)
	case ir.UnarySextH:
		g.emit("movswq %%%s, %%%s", temp, temp)
	case ir.UnarySext32:
		g.emit("movslq %%%s, %%%s", temp, temp)
	case ir.UnaryZext32:
		g.emit("movl %%%s, %%%s", lo32(temp), lo32(temp))
	case ir.UnaryZextH:
		g.emit("movzwq %%%s, %%%s", temp, temp)
	case ir.UnaryClz:
		g.emit("lzcntq %%%s, %%%s", temp, temp)
	case ir.UnaryCtz:
		g.emit("tzcntq %%%s, %%%s", temp, temp)
	case ir.UnaryCpop:
		g.emit("popcntq %%%s, %%%s", temp, temp)
	default:
		g.comment("unsupported unary op %d, trapping", op)
		g.emit("jmp asm_trap")
	}
}

func loByte(reg string) string {
	switch reg {
	case "rax":
		return "al"
	case "rcx":
		return "cl"
	case "rdx":
		return "dl"
	default:
		return reg
	}
}

// lo32 returns the 32-bit sub-register name for a 64-bit GPR, e.g.
// "rax" -> "eax", "r10" -> "r10d". A `movl` into it zero-extends the
// full 64-bit register, giving UnaryZext32 its narrowing semantics.
func lo32(reg string) string {
	switch reg {
	case "rax":
		return "eax"
	case "rcx":
		return "ecx"
	case "rdx":
		return "edx"
	case "rbx":
		return "ebx"
	case "rsi":
		return "esi"
	case "rdi":
		return "edi"
	case "rbp":
		return "ebp"
	case "rsp":
		return "esp"
	default:
		return reg + "d"
	}
}

// shiftMask returns the shift-amount mask for an operand of the given
// bit width (31 for a 32-bit shift, 63 otherwise), matching RISC-V's
// XLEN-sized shamt field rather than x86's implicit 64-bit CL masking.
func shiftMask(width uint8) int {
	if width == 32 {
		return 31
	}
	return 63
}

func (g *progGen) loadBinary(v ir.ExprBinary, temp string) {
	scratch := RegTemp2
	if temp == scratch {
		scratch = RegTemp1
	}
	g.loadToTemp(v.Left, temp)
	g.loadToTemp(v.Right, scratch)
	switch v.Op {
	case ir.BinAdd:
		g.emit("addq %%%s, %%%s", scratch, temp)
	case ir.BinSub:
		g.emit("subq %%%s, %%%s", scratch, temp)
	case ir.BinAnd:
		g.emit("andq %%%s, %%%s", scratch, temp)
	case ir.BinOr:
		g.emit("orq %%%s, %%%s", scratch, temp)
	case ir.BinXor:
		g.emit("xorq %%%s, %%%s", scratch, temp)
	case ir.BinShl:
		g.emit("movq %%%s, %%rcx", scratch)
		g.emit("andb $%d, %%cl", shiftMask(v.Width))
		g.emit("shlq %%cl, %%%s", temp)
	case ir.BinShrL:
		g.emit("movq %%%s, %%rcx", scratch)
		g.emit("andb $%d, %%cl", shiftMask(v.Width))
		g.emit("shrq %%cl, %%%s", temp)
	case ir.BinShrA:
		g.emit("movq %%%s, %%rcx", scratch)
		g.emit("andb $%d, %%cl", shiftMask(v.Width))
		g.emit("sarq %%cl, %%%s", temp)
	case ir.BinMul:
		g.emit("imulq %%%s, %%%s", scratch, temp)
	case ir.BinEq, ir.BinNe, ir.BinLt, ir.BinLtU, ir.BinGe, ir.BinGeU:
		g.emit("cmpq %%%s, %%%s", scratch, temp)
		g.emit("%s %%al", setccFor(v.Op))
		g.emit("movzbq %%al, %%%s", temp)
	default:
		g.comment("unsupported binary op %d, trapping", v.Op)
		g.emit("jmp asm_trap")
	}
}

func setccFor(op ir.BinaryOp) string {
	switch op {
	case ir.BinEq:
		return "sete"
	case ir.BinNe:
		return "setne"
	case ir.BinLt:
		return "setl"
	case ir.BinLtU:
		return "setb"
	case ir.BinGe:
		return "setge"
	case ir.BinGeU:
		return "setae"
	default:
		return "sete"
	}
}

func (g *progGen) loadTernary(v ir.ExprTernary, temp string) {
	g.loadToTemp(v.Cond, RegTemp2)
	g.emit("testq %%%s, %%%s", RegTemp2, RegTemp2)
	elseLbl := g.freshLabel("sel_else")
	endLbl := g.freshLabel("sel_end")
	if v.Sel == ir.SelEqZero {
		g.emit("jnz %s", elseLbl)
	} else {
		g.emit("jz %s", elseLbl)
	}
	g.loadToTemp(v.Then, temp)
	g.emit("jmp %s", endLbl)
	g.label(elseLbl)
	g.loadToTemp(v.Else, temp)
	g.label(endLbl)
}

func (g *progGen) freshLabel(prefix string) string {
	g.nTemp++
	return fmt.Sprintf(".L%s_%d", prefix, g.nTemp)
}
