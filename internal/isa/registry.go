package isa

import (
	"fmt"

	"github.com/rvjit/rvjit/internal/ir"
)

// Extension is the capability set an instruction-set extension
// implements (§4.1). Decode16/Decode32 default to "no match" (nil,
// false) for extensions that only cover one instruction width.
type Extension interface {
	Name() string
	ExtID() uint8
	Decode16(word uint16, pc uint64) (DecodedInstr, bool)
	Decode32(word uint32, pc uint64) (DecodedInstr, bool)
	Lift(in DecodedInstr) ir.InstrIR
	Disasm(in DecodedInstr) string
	OpInfo(id OpId) (OpInfo, bool)
}

// InstructionOverride lets the caller replace the default Lift for
// specific OpIds, used for syscall lowering strategy selection (§4.1).
type InstructionOverride func(in DecodedInstr) (ir.InstrIR, bool)

// CompositeDecoder holds an ordered list of extensions and resolves a
// byte sequence by trying each in turn. First Some wins; ordering
// matters when extensions define overlapping encodings.
type CompositeDecoder struct {
	exts      []Extension
	overrides map[OpId]InstructionOverride
}

// NewCompositeDecoder builds a decoder chain over exts, evaluated in the
// given order.
func NewCompositeDecoder(exts ...Extension) *CompositeDecoder {
	return &CompositeDecoder{exts: exts, overrides: map[OpId]InstructionOverride{}}
}

// AddOverride installs an InstructionOverride for a specific OpId.
func (c *CompositeDecoder) AddOverride(id OpId, fn InstructionOverride) {
	c.overrides[id] = fn
}

// DecodeAt decodes the instruction at pc from the little-endian bytes of
// mem (which must have at least 4 bytes remaining unless the
// instruction is 2-byte compressed, in which case 2 suffice).
func (c *CompositeDecoder) DecodeAt(mem []byte, pc uint64) (DecodedInstr, error) {
	if len(mem) < 2 {
		return DecodedInstr{}, fmt.Errorf("decode %#x: need at least 2 bytes, got %d", pc, len(mem))
	}
	low16 := uint16(mem[0]) | uint16(mem[1])<<8
	if low16&0b11 != 0b11 {
		for _, e := range c.exts {
			if d, ok := e.Decode16(low16, pc); ok {
				return d, nil
			}
		}
		return DecodedInstr{}, fmt.Errorf("decode %#x: no extension matched 16-bit word %#04x", pc, low16)
	}
	if len(mem) < 4 {
		return DecodedInstr{}, fmt.Errorf("decode %#x: need 4 bytes for 32-bit word, got %d", pc, len(mem))
	}
	word32 := uint32(mem[0]) | uint32(mem[1])<<8 | uint32(mem[2])<<16 | uint32(mem[3])<<24
	for _, e := range c.exts {
		if d, ok := e.Decode32(word32, pc); ok {
			return d, nil
		}
	}
	return DecodedInstr{}, fmt.Errorf("decode %#x: no extension matched 32-bit word %#08x", pc, word32)
}

// Lift resolves the extension that owns in.OpId and delegates, applying
// any installed InstructionOverride first.
func (c *CompositeDecoder) Lift(in DecodedInstr) (ir.InstrIR, error) {
	if ov, ok := c.overrides[in.OpId]; ok {
		if lifted, ok := ov(in); ok {
			return lifted, nil
		}
	}
	for _, e := range c.exts {
		if e.ExtID() == in.OpId.ExtID() {
			return e.Lift(in), nil
		}
	}
	return ir.InstrIR{}, fmt.Errorf("lift %#x: no extension registered for ext id %d", in.PC, in.OpId.ExtID())
}

// Disasm mirrors Lift's resolution for producing a textual mnemonic.
func (c *CompositeDecoder) Disasm(in DecodedInstr) string {
	for _, e := range c.exts {
		if e.ExtID() == in.OpId.ExtID() {
			return e.Disasm(in)
		}
	}
	return fmt.Sprintf(".word %#08x", in.Raw)
}

// OpInfo resolves op metadata through the owning extension.
func (c *CompositeDecoder) OpInfo(id OpId) (OpInfo, bool) {
	for _, e := range c.exts {
		if e.ExtID() == id.ExtID() {
			return e.OpInfo(id)
		}
	}
	return OpInfo{}, false
}
