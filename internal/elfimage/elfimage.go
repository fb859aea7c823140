// Package elfimage loads and validates statically linked RISC-V ELF
// executables (§4.2).
package elfimage

import (
	"bytes"
	"debug/elf"
	"fmt"
	"io"

	"github.com/rs/zerolog"

	"github.com/rvjit/rvjit/internal/rverr"
)

// MaxSegments caps the number of PT_LOAD segments a single image may
// carry (§4.2).
const MaxSegments = 16

// Xlen identifies the guest register width derived from the ELF class.
type Xlen int

const (
	Xlen32 Xlen = 32
	Xlen64 Xlen = 64
)

// Segment is one validated PT_LOAD program header. Data holds exactly
// Filesz bytes; the BSS range [Filesz, Memsz) is not stored and must be
// zero-filled by the loader when copying into guest memory (§4.2).
type Segment struct {
	Vaddr    uint64
	Filesz   uint64
	Memsz    uint64
	Flags    elf.ProgFlag
	Data     []byte
}

// Symbol is a resolved ELF symbol.
type Symbol struct {
	Name  string
	Value uint64
	Size  uint64
	Info  elf.SymType
}

// Image is a parsed, validated ELF executable ready for CFG analysis.
type Image struct {
	Xlen       Xlen
	Entry      uint64
	Segments   []Segment
	Symbols    []Symbol
	Lines      *LineTable // nil unless requested and addr2line succeeded

	path string
}

// Load parses and validates path, producing an Image (§4.2).
func Load(path string, log zerolog.Logger) (*Image, error) {
	f, err := elf.Open(path)
	if err != nil {
		return nil, fmt.Errorf("elfimage: open %q: %w", path, rverr.ElfParseError)
	}
	defer f.Close()

	if f.Machine != elf.EM_RISCV {
		return nil, fmt.Errorf("elfimage: %q: machine %s is not EM_RISCV: %w", path, f.Machine, rverr.ElfParseError)
	}
	if f.ByteOrder != nil && f.Data != elf.ELFDATA2LSB {
		return nil, fmt.Errorf("elfimage: %q: not little-endian: %w", path, rverr.ElfParseError)
	}

	var xlen Xlen
	switch f.Class {
	case elf.ELFCLASS32:
		xlen = Xlen32
	case elf.ELFCLASS64:
		xlen = Xlen64
	default:
		return nil, fmt.Errorf("elfimage: %q: unsupported ELF class %s: %w", path, f.Class, rverr.ElfParseError)
	}

	img := &Image{Xlen: xlen, Entry: f.Entry, path: path}

	var loaded []*elf.Prog
	for _, p := range f.Progs {
		if p.Type != elf.PT_LOAD || p.Memsz == 0 {
			continue
		}
		loaded = append(loaded, p)
	}
	if len(loaded) > MaxSegments {
		return nil, fmt.Errorf("elfimage: %q: %d PT_LOAD segments exceeds cap of %d: %w", path, len(loaded), MaxSegments, rverr.ElfParseError)
	}

	fileSize, err := fileLen(path)
	if err != nil {
		return nil, err
	}

	for i, p := range loaded {
		ph := p.ProgHeader
		if ph.Off+ph.Filesz > fileSize {
			return nil, fmt.Errorf("elfimage: %q: segment %d: offset+filesz exceeds file length: %w", path, i, rverr.ProgramOutOfBoundsError)
		}
		end := ph.Vaddr + ph.Memsz
		if end < ph.Vaddr {
			return nil, fmt.Errorf("elfimage: %q: segment %d: vaddr+memsz overflows address space: %w", path, i, rverr.ProgramOutOfBoundsError)
		}
		for j := 0; j < i; j++ {
			other := img.Segments[j]
			oEnd := other.Vaddr + other.Memsz
			if ph.Vaddr < oEnd && other.Vaddr < end {
				return nil, fmt.Errorf("elfimage: %q: segment %d overlaps segment %d: %w", path, i, j, rverr.SegmentOverlapError)
			}
		}
		data := make([]byte, ph.Filesz)
		if _, err := io.ReadFull(p.Open(), data); err != nil {
			return nil, fmt.Errorf("elfimage: %q: segment %d: read: %w", path, i, err)
		}
		img.Segments = append(img.Segments, Segment{
			Vaddr: ph.Vaddr, Filesz: ph.Filesz, Memsz: ph.Memsz, Flags: ph.Flags, Data: data,
		})
	}

	symtab, err := f.Symbols()
	if err != nil && !bytes.Contains([]byte(err.Error()), []byte("no symbol")) {
		log.Warn().Err(err).Str("path", path).Msg("reading symbol table")
	}
	for _, s := range symtab {
		img.Symbols = append(img.Symbols, Symbol{Name: s.Name, Value: s.Value, Size: s.Size, Info: elf.SymType(s.Info & 0xf)})
	}

	log.Debug().Str("path", path).Int("xlen", int(xlen)).Uint64("entry", f.Entry).
		Int("segments", len(img.Segments)).Int("symbols", len(img.Symbols)).Msg("loaded ELF image")
	return img, nil
}

// LookupSymbol returns any symbol matching name.
func (img *Image) LookupSymbol(name string) (Symbol, bool) {
	for _, s := range img.Symbols {
		if s.Name == name {
			return s, true
		}
	}
	return Symbol{}, false
}

// LookupFunction returns name only if it resolves to an STT_FUNC symbol.
func (img *Image) LookupFunction(name string) (Symbol, bool) {
	s, ok := img.LookupSymbol(name)
	if !ok || s.Info != elf.STT_FUNC {
		return Symbol{}, false
	}
	return s, true
}

// FunctionSymbols returns every STT_FUNC symbol, used to seed the CFG
// worklist when export_functions is enabled (§4.3).
func (img *Image) FunctionSymbols() []Symbol {
	var out []Symbol
	for _, s := range img.Symbols {
		if s.Info == elf.STT_FUNC && s.Value != 0 {
			out = append(out, s)
		}
	}
	return out
}

// ReadAt returns the n bytes of program text starting at vaddr, or false
// if any byte of [vaddr, vaddr+n) falls outside a loaded PT_LOAD segment.
// This is the byte source the CFG walk decodes from (§4.3); it never
// synthesizes BSS zeroes since control flow cannot live there.
func (img *Image) ReadAt(vaddr uint64, n int) ([]byte, bool) {
	for _, seg := range img.Segments {
		if vaddr < seg.Vaddr || vaddr+uint64(n) > seg.Vaddr+seg.Filesz {
			continue
		}
		off := vaddr - seg.Vaddr
		return seg.Data[off : off+uint64(n)], true
	}
	return nil, false
}
