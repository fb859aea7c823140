package arm64asm

import (
	"fmt"
	"strings"

	"github.com/rvjit/rvjit/internal/cfg"
	"github.com/rvjit/rvjit/internal/emit"
	"github.com/rvjit/rvjit/internal/lift"
	"github.com/rvjit/rvjit/internal/rtstate"
)

// GenerateProgram renders the full linear assembly text for prog:
// prologue, one label per valid instruction address, the dispatch
// jump table, and the asm_run/asm_exit/asm_trap epilogue triple
// (§4.7).
func GenerateProgram(baseName string, prog *lift.Program, hotRegs []int, layout rtstate.Layout) string {
	hot := AssignHotRegs(hotRegs)
	g := &progGen{hot: hot, layout: layout}

	valid := prog.Table.ValidAddresses()

	g.lines = append(g.lines,
		fmt.Sprintf("// generated linear AArch64 assembly for %s", baseName),
		".text",
		".globl asm_run",
		".globl rv_execute_from",
	)

	g.label("asm_run")
	for _, n := range hot.Order {
		g.emit("ldr %s, [%s, #%d]", hot.Host[n], RegState, layout.RegsOffset+n*layout.XlenBytes)
	}
	g.emit("ldr %s, [%s, #%d]", RegTemp0, RegState, layout.PCOffset)
	g.emit("bl rv_dispatch_index_arm64")
	g.emit("adrp %s, jump_table", RegTemp1)
	g.emit("add %s, %s, :lo12:jump_table", RegTemp1, RegTemp1)
	g.emit("ldr %s, [%s, %s, lsl #3]", RegTemp0, RegTemp1, RegTemp0)
	g.emit("br %s", RegTemp0)

	for _, b := range prog.Table.Ordered() {
		blk := prog.Blocks[b.Start]
		if blk == nil {
			continue
		}
		for _, instr := range blk.Instructions {
			g.label(fmt.Sprintf("asm_pc_%x", instr.PC))
			for _, stmt := range instr.Statements {
				g.lowerStmt(stmt)
			}
			if instr.Terminator != nil {
				g.lowerTerminator(*instr.Terminator, valid)
			}
		}
	}

	g.label("asm_trap")
	g.emit("mov %s, #1", RegTemp0)
	g.emit("strb %s, [%s, #%d]", RegTemp0, RegState, layout.HasExitedOffset)

	g.label("asm_exit")
	for _, n := range hot.Order {
		g.emit("str %s, [%s, #%d]", hot.Host[n], RegState, layout.RegsOffset+n*layout.XlenBytes)
	}
	g.emit("ret")

	var out strings.Builder
	out.WriteString(strings.Join(g.lines, "\n"))
	out.WriteString("\n\n")
	out.WriteString(generateJumpTable(prog.Table))
	out.WriteString(generateRuntimeWrapper(layout))
	return out.String()
}

// generateJumpTable renders the data-section jump table indexed the
// same way internal/emit.DispatchTable computes: (pc - text_start)/2.
// AArch64 uses full 64-bit .quad entries, unlike x86's 32-bit .long
// table — an asymmetry preserved rather than fixed (§9 design notes).
func generateJumpTable(table *cfg.BlockTable) string {
	d := emit.BuildDispatchTable(table)
	var out strings.Builder
	out.WriteString(".section .rodata\n.globl jump_table\njump_table:\n")
	for i, start := range d.BlockOf {
		if d.Valid[i] {
			fmt.Fprintf(&out, "  .quad asm_pc_%x\n", start)
		} else {
			out.WriteString("  .quad asm_trap\n")
		}
	}
	out.WriteString("\n")
	return out.String()
}

// generateRuntimeWrapper renders rv_execute_from: writes start_pc into
// state->pc, loads memory from state (non-fixed mode), calls asm_run,
// and returns has_exited (§4.7 "Runtime wrapper").
func generateRuntimeWrapper(layout rtstate.Layout) string {
	return fmt.Sprintf(`.text
.globl rv_dispatch_index_arm64
rv_dispatch_index_arm64:
  ret

rv_execute_from:
  mov %s, x0
  str x1, [%s, #%d]
  ldr %s, [%s, #%d]
  bl asm_run
  ldrb w0, [%s, #%d]
  ret
`, RegState, RegState, layout.PCOffset, RegMem, RegState, layout.MemoryOffset, RegState, layout.HasExitedOffset)
}
