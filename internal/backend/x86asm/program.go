package x86asm

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
		fmt.Sprintf("# generated linear x86-64 assembly for %s", baseName),
		".text",
		".globl asm_run",
		".globl rv_execute_from",
	)

	g.label("asm_run")
	for _, n := range hot.Order {
		g.emit("movq %d(%%%s), %%%s", layout.RegsOffset+n*layout.XlenBytes, RegState, hot.Host[n])
	}
	g.emit("movq %d(%%%s), %%%s", layout.PCOffset, RegState, RegTemp0)
	g.emit("jmpq *jump_table(,%%%s,8)", RegTemp0)

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
	g.emit("movb $1, %d(%%%s)", layout.HasExitedOffset, RegState)

	g.label("asm_exit")
	for _, n := range hot.Order {
		g.emit("movq %%%s, %d(%%%s)", hot.Host[n], layout.RegsOffset+n*layout.XlenBytes, RegState)
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
// x86 deliberately uses 32-bit .long entries, limiting addressable
// code size versus AArch64's .quad table — an asymmetry preserved
// from the original design rather than fixed (§9 design notes).
func generateJumpTable(table *cfg.BlockTable) string {
	d := emit.BuildDispatchTable(table)
	var out strings.Builder
	out.WriteString(".section .rodata\n.globl jump_table\njump_table:\n")
	for i, start := range d.BlockOf {
		if d.Valid[i] {
			fmt.Fprintf(&out, "  .long asm_pc_%x - .\n", start)
		} else {
			out.WriteString("  .long asm_trap - .\n")
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
.globl rv_dispatch_index_x86
rv_dispatch_index_x86:
  ret

rv_execute_from:
  movq %%rdi, %%%s
  movq %%rsi, %d(%%%s)
  movq %d(%%%s), %%%s
  call asm_run
  movzbl %d(%%%s), %%eax
  ret
`, RegState, layout.PCOffset, RegState, layout.MemoryOffset, RegState, RegMem, layout.HasExitedOffset, RegState)
}
