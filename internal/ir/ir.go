// Package ir defines the typed, pure-data intermediate representation
// lifted from decoded RISC-V instructions (§3.4). Lowering to any backend
// is a fold over this data; nothing here executes.
package ir

import "github.com/rvjit/rvjit/internal/isa"

// Space discriminates the address space an Expr Read (or WriteTarget
// implicitly) refers to.
type Space uint8

const (
	SpaceReg Space = iota
	SpaceMem
	SpaceCsr
	SpacePC
	SpaceInstret
	SpaceTemp
)

// UnaryOp enumerates the unary operators Expr.Unary carries.
type UnaryOp uint8

const (
	UnaryNeg UnaryOp = iota
	UnaryNot
	UnaryClz
	UnaryCtz
	UnaryCpop
	UnarySextB
	UnarySextH
	UnarySext32
	UnaryZext32
	UnaryZextH
)

// BinaryOp enumerates the binary operators Expr.Binary carries.
type BinaryOp uint8

const (
	BinAdd BinaryOp = iota
	BinSub
	BinAnd
	BinOr
	BinXor
	BinShl
	BinShrL
	BinShrA
	BinMul
	BinMulH
	BinMulHSU
	BinMulHU
	BinDiv
	BinDivU
	BinRem
	BinRemU
	BinEq
	BinNe
	BinLt
	BinLtU
	BinGe
	BinGeU
	BinMax
	BinMin
	BinMaxU
	BinMinU
	BinPack
	BinAndn
	BinOrn
	BinXnor
	BinCzeroEqz
	BinCzeroNez
)

// Select is the predicate kind a Ternary carries, mirroring RISC-V branch
// condition shapes so lowering can emit a native compare-and-select.
type Select uint8

const (
	SelNeZero Select = iota
	SelEqZero
)

// Expr is a pure-value expression tree.
type Expr interface{ isExpr() }

type (
	ExprImm struct {
		Value int64
		Width uint8 // bits: 8,16,32,64
	}
	ExprRead struct {
		Space  Space
		Key    uint32 // register number, CSR number, or temp slot
		Base   Expr   // dynamic address expression, meaningful for SpaceMem
		Offset int64  // byte offset added to Base, meaningful for SpaceMem
		Width  uint8
		Signed bool
	}
	ExprPcConst struct{ PC uint64 }
	ExprVar     struct{ Name string }
	ExprUnary   struct {
		Op      UnaryOp
		Operand Expr
	}
	ExprBinary struct {
		Op          BinaryOp
		Left, Right Expr
		// Width is the operand width in bits (32 or 64) the shift
		// operators mask their shift amount against; zero means 64.
		// Ignored by every non-shift operator.
		Width uint8
	}
	ExprTernary struct {
		Sel              Select
		Cond, Then, Else Expr
	}
	ExprExternCall struct {
		FnName    string
		Args      []Expr
		RetWidth  uint8
	}
)

func (ExprImm) isExpr()        {}
func (ExprRead) isExpr()       {}
func (ExprPcConst) isExpr()    {}
func (ExprVar) isExpr()        {}
func (ExprUnary) isExpr()      {}
func (ExprBinary) isExpr()     {}
func (ExprTernary) isExpr()    {}
func (ExprExternCall) isExpr() {}

// WriteTargetKind discriminates the variant held by a Write statement's
// target.
type WriteTargetKind uint8

const (
	WriteReg WriteTargetKind = iota
	WriteMem
	WritePC
	WriteExited
	WriteExitCode
	WriteTemp
	WriteResAddr
	WriteResValid
	WriteCsr
)

// WriteTarget names the destination of a Write statement (§3.4).
type WriteTarget struct {
	Kind   WriteTargetKind
	Reg    isa.Reg
	Base   Expr // for WriteMem: base address expression
	Offset int64
	Width  uint8
	Temp   uint32
	Csr    uint16
}

// Stmt is a side-effecting statement within a block's instruction body.
type Stmt interface{ isStmt() }

type (
	StmtWrite struct {
		Target WriteTarget
		Value  Expr
	}
	StmtIf struct {
		Cond       Expr
		Then, Else []Stmt
	}
	StmtExternCall struct {
		FnName string
		Args   []Expr
	}
)

func (StmtWrite) isStmt()      {}
func (StmtIf) isStmt()         {}
func (StmtExternCall) isStmt() {}

// BranchHint is an optional static prediction carried on Branch/JumpDyn
// terminators, derived from the CFG's abstract register-value lattice.
type BranchHint uint8

const (
	HintNone BranchHint = iota
	HintLikelyTaken
	HintLikelyNotTaken
)

// TerminatorKind discriminates the variant held by a Terminator.
type TerminatorKind uint8

const (
	TermFall TerminatorKind = iota
	TermJump
	TermJumpDyn
	TermBranch
	TermExit
	TermTrap
)

// Terminator ends a block (§3.4). Exactly one of the kind-specific fields
// is meaningful, selected by Kind.
type Terminator struct {
	Kind TerminatorKind

	Target     uint64 // TermJump, TermBranch (taken target)
	Fall       uint64 // TermBranch, TermFall: fall-through PC (0 = none)
	HasFall    bool
	Cond       Expr // TermBranch
	Addr       Expr // TermJumpDyn
	Hint       BranchHint
	Code       Expr   // TermExit
	Message    string // TermTrap
}

// InstrIR is one lifted instruction: its statements plus, for the last
// instruction of a block, its terminator.
type InstrIR struct {
	PC           uint64
	Size         uint8
	Raw          uint32
	OpId         isa.OpId
	Statements   []Stmt
	Terminator   *Terminator // non-nil only for the block's last instruction
	SourceLine   *SourceLine // optional debug-line attachment (§4.2)
}

// SourceLine is attached to an InstrIR when line_info is enabled.
type SourceLine struct {
	File     string
	Line     int
	Function string
}

// BlockIR is a maximal straight-line run of lifted instructions (§3.5).
type BlockIR struct {
	StartPC      uint64
	EndPC        uint64 // one past the last instruction
	Instructions []InstrIR
}

// LastTerminator returns the terminator of the block's final
// instruction, or the zero Terminator (TermFall) if the block is empty
// or its final instruction carries no terminator.
func (b *BlockIR) LastTerminator() Terminator {
	if len(b.Instructions) == 0 {
		return Terminator{Kind: TermFall}
	}
	last := b.Instructions[len(b.Instructions)-1]
	if last.Terminator == nil {
		return Terminator{Kind: TermFall}
	}
	return *last.Terminator
}
