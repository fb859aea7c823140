package emit

import "github.com/rvjit/rvjit/internal/cfg"

// TrapIndex marks a dispatch-table slot as invalid (§4.5: "or the trap
// handler for invalid PCs").
const TrapIndex = ^uint32(0)

// DispatchTable is the array-by-index mapping every even half-word PC
// in [text_start, pc_end) to the block owning it, indexed by
// (pc - text_start) / 2 (§4.5).
type DispatchTable struct {
	TextStart uint64
	// BlockOf[i] is the start PC of the block function that owns
	// text_start + 2*i; a slot no block claims holds 0 and has
	// Valid[i] == false.
	BlockOf []uint64
	Valid   []bool
}

// BuildDispatchTable lays out table per §4.5, resolving every absorbed
// block's former start through table.Resolve so interior indices land
// on the containing merged block.
func BuildDispatchTable(table *cfg.BlockTable) DispatchTable {
	if len(table.Blocks) == 0 {
		return DispatchTable{TextStart: table.TextStart}
	}
	n := int((table.PCEnd - table.TextStart + 1) / 2)
	d := DispatchTable{
		TextStart: table.TextStart,
		BlockOf:   make([]uint64, n),
		Valid:     make([]bool, n),
	}
	for start, b := range table.Blocks {
		for pc := start; pc < b.End; pc += 2 {
			idx := (pc - table.TextStart) / 2
			d.BlockOf[idx] = start
			d.Valid[idx] = true
		}
	}
	for absorbed, merged := range table.AbsorbedTo {
		idx := (absorbed - table.TextStart) / 2
		if int(idx) < len(d.BlockOf) {
			d.BlockOf[idx] = merged
			d.Valid[idx] = true
		}
	}
	return d
}

// Lookup resolves the block-function start PC dispatching to pc, or
// (0, false) if pc is not a valid dispatch target.
func (d DispatchTable) Lookup(pc uint64) (uint64, bool) {
	if pc < d.TextStart {
		return 0, false
	}
	idx := (pc - d.TextStart) / 2
	if int(idx) >= len(d.BlockOf) || !d.Valid[idx] {
		return 0, false
	}
	return d.BlockOf[idx], true
}
