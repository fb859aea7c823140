package cfg

// splitOverlaps shrinks every discovered block whose interior contains
// another leader's PC down to end at that leader (§3.5: "for a straight
// block cut by discovering a later leader in its interior, the PC of
// that interior leader"; §3.5 invariant: "blocks do not overlap").
func splitOverlaps(t *BlockTable) {
	leaders := make([]uint64, 0, len(t.Leaders))
	for l := range t.Leaders {
		leaders = append(leaders, l)
	}
	sortU64(leaders)

	for start, b := range t.Blocks {
		cut := b.End
		for _, l := range leaders {
			if l > start && l < cut {
				cut = l
			}
		}
		if cut != b.End {
			t.Blocks[start] = Block{Start: b.Start, End: cut}
		}
	}
}

// absorb implements §4.3's optional superblock formation: a block A
// that falls through to exactly one successor B with no other
// predecessors and no intervening leader is merged into A, and B's
// former start is redirected via AbsorbedTo.
func absorb(t *BlockTable) {
	predCount := make(map[uint64]int)
	fallsTo := make(map[uint64]uint64) // A.Start -> B.Start, A falls through to B

	for start := range t.Blocks {
		succs := fallthroughSuccessor(t, start)
		if succs != 0 {
			fallsTo[start] = succs
			predCount[succs]++
		}
	}

	for {
		changed := false
		for a, b := range fallsTo {
			ablk, aok := t.Blocks[a]
			bblk, bok := t.Blocks[b]
			if !aok || !bok || predCount[b] != 1 || a == b {
				continue
			}
			t.Blocks[a] = Block{Start: ablk.Start, End: bblk.End}
			delete(t.Blocks, b)
			t.AbsorbedTo[b] = a
			delete(fallsTo, a)
			if next, ok := fallsTo[b]; ok {
				fallsTo[a] = next // a now owns b's outgoing fallthrough edge
			}
			delete(fallsTo, b)
			changed = true
			break // restart: map iteration order is unstable across rewrites
		}
		if !changed {
			break
		}
	}
}

// fallthroughSuccessor returns the PC a block falls through to (a
// TermFall/TermBranch's Fall, when the block does not end in an
// unconditional jump/dyn-jump/trap/exit), or 0 if none.
//
// The block table alone does not retain per-block terminator kind once
// walked, so this reconstructs it from adjacency: a block falls
// through to exactly the block immediately following it in PC order
// when nothing else also reaches that successor directly as a jump
// target. Conservative: only blocks contiguous in PC space (b.End ==
// next.Start) are considered fallthrough candidates.
func fallthroughSuccessor(t *BlockTable, start uint64) uint64 {
	b := t.Blocks[start]
	if next, ok := t.Blocks[b.End]; ok {
		return next.Start
	}
	return 0
}

func sortU64(xs []uint64) {
	for i := 1; i < len(xs); i++ {
		for j := i; j > 0 && xs[j] < xs[j-1]; j-- {
			xs[j], xs[j-1] = xs[j-1], xs[j]
		}
	}
}
