package cbackend

import (
	"fmt"
	"strings"

	"github.com/rvjit/rvjit/internal/config"
	"github.com/rvjit/rvjit/internal/emit"
	"github.com/rvjit/rvjit/internal/ir"
)

// blockGen renders one BlockIR into a single preserve_none C function
// (§4.6).
type blockGen struct {
	opts     *config.CompileOptions
	sig      emit.Signature
	dispatch emit.DispatchTable

	buf    strings.Builder
	indent int
}

func (g *blockGen) emit(format string, args ...interface{}) {
	g.buf.WriteString(strings.Repeat("  ", g.indent+1))
	fmt.Fprintf(&g.buf, format, args...)
	g.buf.WriteByte('\n')
}

// argList renders the parameter names a tail call must forward,
// matching the shared Signature built by internal/emit (§4.5).
func (g *blockGen) argList() string { return cArgList(g.sig) }

func (g *blockGen) paramList() string { return cParamList(g.sig) }

// GenerateBlock renders blk as a complete C function definition.
func GenerateBlock(opts *config.CompileOptions, sig emit.Signature, dispatch emit.DispatchTable, blk *ir.BlockIR) string {
	g := &blockGen{opts: opts, sig: sig, dispatch: dispatch}

	var out strings.Builder
	fmt.Fprintf(&out, "RV_PRESERVE_NONE void B_%x(%s) {\n", blk.StartPC, g.paramList())
	out.WriteString(cStateLocals(opts))

	for _, instr := range blk.Instructions {
		if instr.SourceLine != nil && opts.LineInfo() {
			fmt.Fprintf(&out, "#line %d \"%s\"\n", instr.SourceLine.Line, instr.SourceLine.File)
		}
		fmt.Fprintf(&out, "  /* pc=0x%x */\n", instr.PC)
		for _, stmt := range instr.Statements {
			g.lowerStmt(stmt)
		}
		if opts.InstretMode() == config.InstretPerInstruction {
			g.emit("RV_INSTRET_ADD(1);")
		}
		out.WriteString(g.buf.String())
		g.buf.Reset()

		if instr.Terminator != nil {
			if opts.InstretMode() == config.InstretCount && instr.Terminator.Kind != ir.TermFall {
				g.emit("RV_INSTRET_ADD(%d);", len(blk.Instructions))
			}
			g.lowerTerminator(*instr.Terminator)
			out.WriteString(g.buf.String())
			g.buf.Reset()
		}
	}
	out.WriteString("}\n")
	return out.String()
}
