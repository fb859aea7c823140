// Package cbackend lowers the IR to C source implementing the
// preserve_none/musttail block-per-function strategy of §4.6.
package cbackend

import (
	"fmt"

	"github.com/rvjit/rvjit/internal/ir"
)

// widthCType returns the C integer type for a given bit width.
func widthCType(width uint8, signed bool) string {
	u := "uint"
	if signed {
		u = "int"
	}
	switch width {
	case 8:
		return u + "8_t"
	case 16:
		return u + "16_t"
	case 32:
		return u + "32_t"
	default:
		return u + "64_t"
	}
}

// lowerExpr renders e as a C expression.
func (g *blockGen) lowerExpr(e ir.Expr) string {
	switch v := e.(type) {
	case ir.ExprImm:
		if v.Value < 0 {
			return fmt.Sprintf("((%s)%dLL)", widthCType(v.Width, true), v.Value)
		}
		return fmt.Sprintf("((%s)%dULL)", widthCType(v.Width, false), v.Value)
	case ir.ExprPcConst:
		return fmt.Sprintf("0x%xULL", v.PC)
	case ir.ExprVar:
		return v.Name
	case ir.ExprRead:
		return g.lowerRead(v)
	case ir.ExprUnary:
		return g.lowerUnary(v)
	case ir.ExprBinary:
		return g.lowerBinary(v)
	case ir.ExprTernary:
		return g.lowerTernary(v)
	case ir.ExprExternCall:
		return g.lowerExternCall(v)
	default:
		return "/* unsupported expr */ 0"
	}
}

func (g *blockGen) lowerRead(v ir.ExprRead) string {
	switch v.Space {
	case ir.SpaceReg:
		return fmt.Sprintf("RV_R(%d)", v.Key)
	case ir.SpacePC:
		return "state->pc"
	case ir.SpaceInstret:
		return "state->instret"
	case ir.SpaceCsr:
		return fmt.Sprintf("rv_csr_read(state, %d)", v.Key)
	case ir.SpaceTemp:
		return fmt.Sprintf("t%d", v.Key)
	case ir.SpaceMem:
		fn := "rd_mem_" + memSuffix(v.Width, v.Signed)
		addr := "0"
		if v.Base != nil {
			addr = g.lowerExpr(v.Base)
		}
		return fmt.Sprintf("%s(state, memory, (%s) + %dLL)", fn, addr, v.Offset)
	default:
		return "0"
	}
}

func memSuffix(width uint8, signed bool) string {
	t := widthCType(width, signed)
	switch t {
	case "uint8_t":
		return "u8"
	case "int8_t":
		return "i8"
	case "uint16_t":
		return "u16"
	case "int16_t":
		return "i16"
	case "uint32_t":
		return "u32"
	case "int32_t":
		return "i32"
	case "int64_t":
		return "i64"
	default:
		return "u64"
	}
}

func (g *blockGen) lowerUnary(v ir.ExprUnary) string {
	x := g.lowerExpr(v.Operand)
	switch v.Op {
	case ir.UnaryNeg:
		return fmt.Sprintf("(-(int64_t)(%s))", x)
	case ir.UnaryNot:
		return fmt.Sprintf("(~(%s))", x)
	case ir.UnaryClz:
		return fmt.Sprintf("rv_clz64(%s)", x)
	case ir.UnaryCtz:
		return fmt.Sprintf("rv_ctz64(%s)", x)
	case ir.UnaryCpop:
		return fmt.Sprintf("((uint64_t)__builtin_popcountll(%s))", x)
	case ir.UnarySextB:
		return fmt.Sprintf("((int64_t)(int8_t)(%s))", x)
	case ir.UnarySextH:
		return fmt.Sprintf("((int64_t)(int16_t)(%s))", x)
	case ir.UnarySext32:
		return fmt.Sprintf("((int64_t)(int32_t)(%s))", x)
	case ir.UnaryZext32:
		return fmt.Sprintf("((uint64_t)(uint32_t)(%s))", x)
	case ir.UnaryZextH:
		return fmt.Sprintf("((uint64_t)(uint16_t)(%s))", x)
	default:
		return x
	}
}

// shiftMask returns the shift-amount mask for an operand of the given
// bit width (31 for a 32-bit shift, 63 otherwise), matching RISC-V's
// XLEN-sized shamt field instead of always assuming 64-bit registers.
func shiftMask(width uint8) int {
	if width == 32 {
		return 31
	}
	return 63
}

func (g *blockGen) lowerBinary(v ir.ExprBinary) string {
	l, r := g.lowerExpr(v.Left), g.lowerExpr(v.Right)
	switch v.Op {
	case ir.BinAdd:
		return fmt.Sprintf("((%s) + (%s))", l, r)
	case ir.BinSub:
		return fmt.Sprintf("((%s) - (%s))", l, r)
	case ir.BinAnd:
		return fmt.Sprintf("((%s) & (%s))", l, r)
	case ir.BinOr:
		return fmt.Sprintf("((%s) | (%s))", l, r)
	case ir.BinXor:
		return fmt.Sprintf("((%s) ^ (%s))", l, r)
	case ir.BinShl:
		return fmt.Sprintf("((%s) << ((%s) & %d))", l, r, shiftMask(v.Width))
	case ir.BinShrL:
		return fmt.Sprintf("((uint64_t)(%s) >> ((%s) & %d))", l, r, shiftMask(v.Width))
	case ir.BinShrA:
		return fmt.Sprintf("((int64_t)(%s) >> ((%s) & %d))", l, r, shiftMask(v.Width))
	case ir.BinMul:
		return fmt.Sprintf("((uint64_t)(%s) * (uint64_t)(%s))", l, r)
	case ir.BinMulH:
		return fmt.Sprintf("rv_mulh(%s, %s)", l, r)
	case ir.BinMulHSU:
		return fmt.Sprintf("rv_mulhsu(%s, %s)", l, r)
	case ir.BinMulHU:
		return fmt.Sprintf("rv_mulhu(%s, %s)", l, r)
	case ir.BinDiv:
		return fmt.Sprintf("rv_div(%s, %s)", l, r)
	case ir.BinDivU:
		return fmt.Sprintf("rv_divu(%s, %s)", l, r)
	case ir.BinRem:
		return fmt.Sprintf("rv_rem(%s, %s)", l, r)
	case ir.BinRemU:
		return fmt.Sprintf("rv_remu(%s, %s)", l, r)
	case ir.BinEq:
		return fmt.Sprintf("((%s) == (%s))", l, r)
	case ir.BinNe:
		return fmt.Sprintf("((%s) != (%s))", l, r)
	case ir.BinLt:
		return fmt.Sprintf("((int64_t)(%s) < (int64_t)(%s))", l, r)
	case ir.BinLtU:
		return fmt.Sprintf("((uint64_t)(%s) < (uint64_t)(%s))", l, r)
	case ir.BinGe:
		return fmt.Sprintf("((int64_t)(%s) >= (int64_t)(%s))", l, r)
	case ir.BinGeU:
		return fmt.Sprintf("((uint64_t)(%s) >= (uint64_t)(%s))", l, r)
	case ir.BinMax:
		return fmt.Sprintf("rv_max(%s, %s)", l, r)
	case ir.BinMin:
		return fmt.Sprintf("rv_min(%s, %s)", l, r)
	case ir.BinMaxU:
		return fmt.Sprintf("rv_maxu(%s, %s)", l, r)
	case ir.BinMinU:
		return fmt.Sprintf("rv_minu(%s, %s)", l, r)
	case ir.BinPack:
		return fmt.Sprintf("rv_pack(%s, %s)", l, r)
	case ir.BinAndn:
		return fmt.Sprintf("((%s) & ~(%s))", l, r)
	case ir.BinOrn:
		return fmt.Sprintf("((%s) | ~(%s))", l, r)
	case ir.BinXnor:
		return fmt.Sprintf("(~((%s) ^ (%s)))", l, r)
	case ir.BinCzeroEqz:
		return fmt.Sprintf("(((%s) == 0) ? 0 : (%s))", r, l)
	case ir.BinCzeroNez:
		return fmt.Sprintf("(((%s) != 0) ? 0 : (%s))", r, l)
	default:
		return fmt.Sprintf("/* unsupported binop */ ((%s), (%s))", l, r)
	}
}

func (g *blockGen) lowerTernary(v ir.ExprTernary) string {
	cond := g.lowerExpr(v.Cond)
	then, els := g.lowerExpr(v.Then), g.lowerExpr(v.Else)
	switch v.Sel {
	case ir.SelEqZero:
		return fmt.Sprintf("(((%s) == 0) ? (%s) : (%s))", cond, then, els)
	default:
		return fmt.Sprintf("(((%s) != 0) ? (%s) : (%s))", cond, then, els)
	}
}

func (g *blockGen) lowerExternCall(v ir.ExprExternCall) string {
	args := "state, memory"
	for _, a := range v.Args {
		args += ", " + g.lowerExpr(a)
	}
	return fmt.Sprintf("%s(%s)", v.FnName, args)
}
