package arm64asm

import (
	"fmt"
	"strings"

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
	g.lines = append(g.lines, "  // "+fmt.Sprintf(format, args...))
}

// regOperand returns the host operand for guest register n: a pinned
// host GPR if hot, otherwise a placeholder resolved by offsetTemp at
// the call site since arm64 load/store instructions need an explicit
// offset immediate, not a bare operand string.
func (g *progGen) regOperand(n int) (host string, pinned bool) {
	if h, ok := g.hot.Host[n]; ok {
		return h, true
	}
	return "", false
}

func (g *progGen) loadToTemp(e ir.Expr, temp string) {
	switch v := e.(type) {
	case ir.ExprImm:
		g.emit("mov %s, #%d", temp, v.Value)
	case ir.ExprPcConst:
		g.emit("mov %s, #%d", temp, v.PC)
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
		g.emit("b asm_trap")
	}
}

func (g *progGen) loadRead(v ir.ExprRead, temp string) {
	switch v.Space {
	case ir.SpaceReg:
		if host, ok := g.regOperand(int(v.Key)); ok {
			g.emit("mov %s, %s", temp, host)
			return
		}
		g.emit("ldr %s, [%s, #%d]", temp, RegState, g.layout.RegsOffset+int(v.Key)*g.layout.XlenBytes)
	case ir.SpacePC:
		g.emit("ldr %s, [%s, #%d]", temp, RegState, g.layout.PCOffset)
	case ir.SpaceInstret:
		g.emit("ldr %s, [%s, #%d]", temp, RegState, g.layout.InstretOffset)
	case ir.SpaceTemp:
		g.emit("mov %s, t%d", temp, v.Key)
	case ir.SpaceMem:
		addr := RegTemp1
		if temp == addr {
			addr = RegTemp2
		}
		if v.Base != nil {
			g.loadToTemp(v.Base, addr)
		} else {
			g.emit("mov %s, #0", addr)
		}
		op := memLoadMnemonic(v.Width, v.Signed)
		g.emit("add %s, %s, %s", addr, RegMem, addr)
		g.emit("%s %s, [%s, #%d]", op, temp, addr, v.Offset)
	}
}

func memLoadMnemonic(width uint8, signed bool) string {
	switch width {
	case 8:
		if signed {
			return "ldrsb"
		}
		return "ldrb"
	case 16:
		if signed {
			return "ldrsh"
		}
		return "ldrh"
	case 32:
		if signed {
			return "ldrsw"
		}
		return "ldr"
	default:
		return "ldr"
	}
}

// wReg returns the 32-bit W-register name aliasing the given X
// register (e.g. "x10" -> "w10"); writing it zeroes the upper 32 bits.
func wReg(xReg string) string {
	return "w" + strings.TrimPrefix(xReg, "x")
}

func (g *progGen) lowerUnary(op ir.UnaryOp, temp string) {
	switch op {
	case ir.UnaryNeg:
		g.emit("neg %s, %s", temp, temp)
	case ir.UnaryNot:
		g.emit("mvn %s, %s", temp, temp)
	case ir.UnarySextB:
		g.emit("sxtb %s, %s", temp, temp)
	case ir.UnarySextH:
		g.emit("sxth %s, %s", temp, temp)
	case ir.UnarySext32:
		g.emit("sxtw %s, %s", temp, temp)
	case ir.UnaryZext32:
		g.emit("mov %s, %s", wReg(temp), wReg(temp))
	case ir.UnaryZextH:
		g.emit("uxth %s, %s", temp, temp)
	case ir.UnaryClz:
		g.emit("clz %s, %s", temp, temp)
	case ir.UnaryCtz:
		g.emit("rbit %s, %s", temp, temp)
		g.emit("clz %s, %s", temp, temp)
	case ir.UnaryCpop:
		g.comment("cpop has no direct scalar arm64 instruction, trapping")
		g.emit("b asm_trap")
	default:
		g.comment("unsupported unary op %d, trapping", op)
		g.emit("b asm_trap")
	}
}

// shiftMask returns the shift-amount mask for an operand of the given
// bit width (31 for a 32-bit shift, 63 otherwise), matching RISC-V's
// XLEN-sized shamt field instead of arm64's implicit 64-bit masking.
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
		g.emit("add %s, %s, %s", temp, temp, scratch)
	case ir.BinSub:
		g.emit("sub %s, %s, %s", temp, temp, scratch)
	case ir.BinAnd:
		g.emit("and %s, %s, %s", temp, temp, scratch)
	case ir.BinOr:
		g.emit("orr %s, %s, %s", temp, temp, scratch)
	case ir.BinXor:
		g.emit("eor %s, %s, %s", temp, temp, scratch)
	case ir.BinShl:
		g.emit("and %s, %s, #%d", scratch, scratch, shiftMask(v.Width))
		g.emit("lsl %s, %s, %s", temp, temp, scratch)
	case ir.BinShrL:
		g.emit("and %s, %s, #%d", scratch, scratch, shiftMask(v.Width))
		g.emit("lsr %s, %s, %s", temp, temp, scratch)
	case ir.BinShrA:
		g.emit("and %s, %s, #%d", scratch, scratch, shiftMask(v.Width))
		g.emit("asr %s, %s, %s", temp, temp, scratch)
	case ir.BinMul:
		g.emit("mul %s, %s, %s", temp, temp, scratch)
	case ir.BinEq, ir.BinNe, ir.BinLt, ir.BinLtU, ir.BinGe, ir.BinGeU:
		g.emit("cmp %s, %s", temp, scratch)
		g.emit("cset %s, %s", temp, condFor(v.Op))
	default:
		g.comment("unsupported binary op %d, trapping", v.Op)
		g.emit("b asm_trap")
	}
}

func condFor(op ir.BinaryOp) string {
	switch op {
	case ir.BinEq:
		return "eq"
	case ir.BinNe:
		return "ne"
	case ir.BinLt:
		return "lt"
	case ir.BinLtU:
		return "lo"
	case ir.BinGe:
		return "ge"
	case ir.BinGeU:
		return "hs"
	default:
		return "eq"
	}
}

func (g *progGen) loadTernary(v ir.ExprTernary, temp string) {
	g.loadToTemp(v.Cond, RegTemp2)
	elseLbl := g.freshLabel("sel_else")
	endLbl := g.freshLabel("sel_end")
	if v.Sel == ir.SelEqZero {
		g.emit("cbnz %s, %s", RegTemp2, elseLbl)
	} else {
		g.emit("cbz %s, %s", RegTemp2, elseLbl)
	}
	g.loadToTemp(v.Then, temp)
	g.emit("b %s", endLbl)
	g.label(elseLbl)
	g.loadToTemp(v.Else, temp)
	g.label(endLbl)
}

func (g *progGen) freshLabel(prefix string) string {
	g.nTemp++
	return fmt.Sprintf(".L%s_%d", prefix, g.nTemp)
}
