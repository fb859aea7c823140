// Package lift folds a discovered cfg.BlockTable into the pure-data IR
// every backend lowers from (§4.4).
package lift

import (
	"fmt"

	"github.com/rvjit/rvjit/internal/cfg"
	"github.com/rvjit/rvjit/internal/elfimage"
	"github.com/rvjit/rvjit/internal/ir"
	"github.com/rvjit/rvjit/internal/isa"
	"github.com/rvjit/rvjit/internal/rverr"
)

// Program is the lifted form of an entire translation unit: every
// block keyed by its start PC, plus a flat PC-to-instruction index kept
// for debugging and line-table attachment (§4.4).
type Program struct {
	Blocks  map[uint64]*ir.BlockIR
	ByPC    map[uint64]*ir.InstrIR
	Table   *cfg.BlockTable
}

// LineResolver attaches optional source-line info to a lifted
// instruction (§4.2); implemented by *elfimage.LineTable.
type LineResolver interface {
	Lookup(pc uint64) (elfimage.SourceLoc, bool)
}

// Lift walks table's blocks in ascending start-PC order, decoding and
// lifting every instruction via dec, producing a Program (§4.4).
func Lift(text cfg.TextReader, dec *isa.CompositeDecoder, table *cfg.BlockTable, lines LineResolver) (*Program, error) {
	p := &Program{
		Blocks: make(map[uint64]*ir.BlockIR, len(table.Blocks)),
		ByPC:   map[uint64]*ir.InstrIR{},
		Table:  table,
	}

	for _, b := range table.Ordered() {
		blk := &ir.BlockIR{StartPC: b.Start, EndPC: b.End}
		pc := b.Start
		for pc < b.End {
			word, ok := text.ReadAt(pc, 4)
			if !ok {
				word, ok = text.ReadAt(pc, 2)
			}
			if !ok {
				return nil, fmt.Errorf("lift: pc %#x: %w", pc, rverr.DecodeError)
			}
			in, err := dec.DecodeAt(word, pc)
			if err != nil {
				return nil, fmt.Errorf("lift: %w: %s", rverr.DecodeError, err)
			}
			instr, err := dec.Lift(in)
			if err != nil {
				return nil, fmt.Errorf("lift: %w: %s", rverr.DecodeError, err)
			}
			// Extension lifters give every straight-line instruction a
			// TermFall; only the block's last instruction keeps one.
			if pc+uint64(in.Size) < b.End && instr.Terminator != nil && instr.Terminator.Kind == ir.TermFall {
				instr.Terminator = nil
			}
			if lines != nil {
				if loc, ok := lines.Lookup(pc); ok {
					instr.SourceLine = &ir.SourceLine{File: loc.File, Line: loc.Line, Function: loc.Function}
				}
			}
			blk.Instructions = append(blk.Instructions, instr)
			p.ByPC[pc] = &blk.Instructions[len(blk.Instructions)-1]
			pc += uint64(in.Size)
		}
		p.Blocks[b.Start] = blk
	}
	return p, nil
}
