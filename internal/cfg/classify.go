package cfg

import "github.com/rvjit/rvjit/internal/isa"

type terminatorKind uint8

const (
	termNone terminatorKind = iota
	termBranch
	termJump
	termJumpDyn
	termStop
)

type classified struct {
	target     uint64
	fall       uint64
	candidates []uint64
}

var branchMnemonics = map[string]bool{
	"beq": true, "bne": true, "blt": true, "bge": true, "bltu": true, "bgeu": true,
	"c.beqz": true, "c.bnez": true,
}

var jumpMnemonics = map[string]bool{
	"jal": true, "c.j": true, "c.jal": true,
}

var jumpDynMnemonics = map[string]bool{
	"jalr": true, "c.jr": true, "c.jalr": true,
}

var stopMnemonics = map[string]bool{
	"ecall": true, "ebreak": true, "c.ebreak": true,
}

// classifyTerminator implements §4.3 steps 5-8, deciding whether pc
// ends the current block and, if so, which PCs to enqueue next.
func classifyTerminator(in isa.DecodedInstr, info isa.OpInfo, pc, nextPC uint64, regs regFile) (classified, terminatorKind) {
	switch {
	case branchMnemonics[info.Mnemonic]:
		return classified{target: uint64(int64(pc) + in.Args.Imm), fall: nextPC}, termBranch
	case jumpMnemonics[info.Mnemonic]:
		return classified{target: uint64(int64(pc) + in.Args.Imm)}, termJump
	case jumpDynMnemonics[info.Mnemonic]:
		c := classified{}
		if base, ok := regs.get(in.Args.Rs1).single(); ok {
			c.candidates = append(c.candidates, uint64(int64(base)+in.Args.Imm))
		}
		return c, termJumpDyn
	case stopMnemonics[info.Mnemonic]:
		return classified{}, termStop
	default:
		return classified{}, termNone
	}
}
