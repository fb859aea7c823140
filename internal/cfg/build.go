package cfg

import (
	"fmt"

	"github.com/rvjit/rvjit/internal/isa"
)

// TextReader is the minimal byte source the CFG walk decodes from.
// elfimage.Image satisfies this.
type TextReader interface {
	ReadAt(vaddr uint64, n int) ([]byte, bool)
}

// Options gates the optional passes of CFG construction (§4.3).
type Options struct {
	// EnableSuperblock turns on absorption/superblock formation. On by
	// default; disabled for differential testing where every original
	// block entry must remain independently dispatchable.
	EnableSuperblock bool
}

// Build discovers the block structure reachable from entryPCs by the
// worklist algorithm of §4.3.
func Build(text TextReader, dec *isa.CompositeDecoder, entryPCs []uint64, opts Options) (*BlockTable, error) {
	t := &BlockTable{
		Blocks:     map[uint64]Block{},
		Leaders:    map[uint64]bool{},
		AbsorbedTo: map[uint64]uint64{},
	}

	var worklist []uint64
	worklist = append(worklist, entryPCs...)

	for len(worklist) > 0 {
		pc := worklist[0]
		worklist = worklist[1:]
		if t.Leaders[pc] {
			continue
		}
		block, next, err := walkBlock(text, dec, pc, t)
		if err != nil {
			return nil, err
		}
		t.Leaders[pc] = true
		t.Blocks[pc] = block
		worklist = append(worklist, next...)
	}

	splitOverlaps(t)

	if len(t.Blocks) > 0 {
		min, max := minMaxStart(t)
		t.TextStart = min
		t.PCEnd = max
	}

	if opts.EnableSuperblock {
		absorb(t)
	}
	return t, nil
}

// walkBlock decodes forward from pc (which Build then marks a leader)
// until a terminator,
// updating the register-value lattice as it goes (§4.3 steps 3-8). It
// returns the discovered block and the PCs that must be enqueued next.
func walkBlock(text TextReader, dec *isa.CompositeDecoder, pc uint64, t *BlockTable) (Block, []uint64, error) {
	start := pc
	regs := newRegFile()
	var next []uint64

	for {
		word, ok := text.ReadAt(pc, 4)
		if !ok {
			word, ok = text.ReadAt(pc, 2)
		}
		if !ok {
			return Block{}, nil, fmt.Errorf("cfg: pc %#x: out of bounds while walking block at %#x", pc, start)
		}
		in, err := dec.DecodeAt(word, pc)
		if err != nil {
			// A decode failure ends the block as a trap; the walk does
			// not propagate further from here (§7: recovered locally).
			return Block{Start: start, End: pc}, next, nil
		}

		info, _ := dec.OpInfo(in.OpId)
		regs.step(in, info, pc)

		nextPC := pc + uint64(in.Size)

		term, kind := classifyTerminator(in, info, pc, nextPC, regs)
		switch kind {
		case termNone:
			// Straight-line; continue unless a later leader already
			// claims this PC as an interior leader (handled by the
			// caller re-checking t.Leaders on dequeue).
			if t.Leaders[nextPC] && nextPC != start {
				return Block{Start: start, End: nextPC}, []uint64{nextPC}, nil
			}
			pc = nextPC
			continue
		case termBranch:
			next = append(next, term.target, term.fall)
			return Block{Start: start, End: nextPC}, next, nil
		case termJump:
			next = append(next, term.target)
			return Block{Start: start, End: nextPC}, next, nil
		case termJumpDyn:
			next = append(next, term.candidates...)
			return Block{Start: start, End: nextPC}, next, nil
		case termStop:
			return Block{Start: start, End: nextPC}, next, nil
		}
	}
}

func minMaxStart(t *BlockTable) (uint64, uint64) {
	first := true
	var lo, hi uint64
	for start, b := range t.Blocks {
		if first {
			lo, hi = start, b.End
			first = false
			continue
		}
		if start < lo {
			lo = start
		}
		if b.End > hi {
			hi = b.End
		}
	}
	return lo, hi
}
