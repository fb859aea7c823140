package elfimage

import (
	"debug/elf"
	"encoding/binary"
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/rvjit/rvjit/internal/rverr"
)

// buildMinimalRV64 writes a syntactically valid little-endian ELF64
// EM_RISCV executable with a single PT_LOAD segment covering code,
// returning its path under t.TempDir().
func buildMinimalRV64(t *testing.T, code []byte, corrupt func(b []byte)) string {
	t.Helper()
	const (
		ehsize  = 64
		phsize  = 56
		loadVA  = 0x10000
		entry   = loadVA
	)
	var phOff uint64 = ehsize
	var dataOff uint64 = phOff + phsize

	buf := make([]byte, dataOff+uint64(len(code)))

	// e_ident
	copy(buf[0:4], []byte{0x7f, 'E', 'L', 'F'})
	buf[4] = 2 // ELFCLASS64
	buf[5] = 1 // ELFDATA2LSB
	buf[6] = 1 // EV_CURRENT

	le := binary.LittleEndian
	le.PutUint16(buf[16:], uint16(elf.ET_EXEC))
	le.PutUint16(buf[18:], uint16(elf.EM_RISCV))
	le.PutUint32(buf[20:], 1) // e_version
	le.PutUint64(buf[24:], entry)
	le.PutUint64(buf[32:], phOff) // e_phoff
	le.PutUint64(buf[40:], 0)     // e_shoff
	le.PutUint32(buf[48:], 0)     // e_flags
	le.PutUint16(buf[52:], ehsize)
	le.PutUint16(buf[54:], phsize)
	le.PutUint16(buf[56:], 1) // e_phnum
	le.PutUint16(buf[58:], 0) // e_shentsize
	le.PutUint16(buf[60:], 0) // e_shnum
	le.PutUint16(buf[62:], 0) // e_shstrndx

	// program header (Elf64_Phdr)
	ph := buf[phOff:]
	le.PutUint32(ph[0:], uint32(elf.PT_LOAD))
	le.PutUint32(ph[4:], uint32(elf.PF_X|elf.PF_R))
	le.PutUint64(ph[8:], dataOff)         // p_offset
	le.PutUint64(ph[16:], loadVA)         // p_vaddr
	le.PutUint64(ph[24:], loadVA)         // p_paddr
	le.PutUint64(ph[32:], uint64(len(code))) // p_filesz
	le.PutUint64(ph[40:], uint64(len(code))) // p_memsz
	le.PutUint64(ph[48:], 0x1000)         // p_align

	copy(buf[dataOff:], code)

	if corrupt != nil {
		corrupt(buf)
	}

	path := filepath.Join(t.TempDir(), "a.out")
	require.NoError(t, os.WriteFile(path, buf, 0o644))
	return path
}

func TestLoadAcceptsMinimalRV64(t *testing.T) {
	// addi x1, x0, 42 as raw code bytes, just needs to be present.
	code := []byte{0x93, 0x00, 0xa0, 0x02}
	path := buildMinimalRV64(t, code, nil)

	img, err := Load(path, zerolog.Nop())
	require.NoError(t, err)
	require.Equal(t, Xlen64, img.Xlen)
	require.Equal(t, uint64(0x10000), img.Entry)
	require.Len(t, img.Segments, 1)
	require.Equal(t, code, img.Segments[0].Data)
}

func TestLoadRejectsWrongMachine(t *testing.T) {
	code := []byte{0x93, 0x00, 0xa0, 0x02}
	path := buildMinimalRV64(t, code, func(b []byte) {
		binary.LittleEndian.PutUint16(b[18:], uint16(elf.EM_X86_64))
	})

	_, err := Load(path, zerolog.Nop())
	require.ErrorIs(t, err, rverr.ElfParseError)
}

func TestLoadRejectsTruncatedFile(t *testing.T) {
	code := []byte{0x93, 0x00, 0xa0, 0x02}
	path := buildMinimalRV64(t, code, nil)

	orig, err := os.ReadFile(path)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path, orig[:len(orig)-2], 0o644))

	_, err = Load(path, zerolog.Nop())
	require.ErrorIs(t, err, rverr.ProgramOutOfBoundsError)
}

func TestLookupFunctionRequiresSTTFunc(t *testing.T) {
	img := &Image{Symbols: []Symbol{
		{Name: "data_blob", Value: 0x2000, Info: elf.STT_OBJECT},
		{Name: "main", Value: 0x1000, Info: elf.STT_FUNC},
	}}

	_, ok := img.LookupFunction("data_blob")
	require.False(t, ok)

	sym, ok := img.LookupFunction("main")
	require.True(t, ok)
	require.Equal(t, uint64(0x1000), sym.Value)
}

func TestFunctionSymbolsSkipsZeroValue(t *testing.T) {
	img := &Image{Symbols: []Symbol{
		{Name: "undef", Value: 0, Info: elf.STT_FUNC},
		{Name: "real", Value: 0x4000, Info: elf.STT_FUNC},
	}}

	out := img.FunctionSymbols()
	require.Len(t, out, 1)
	require.Equal(t, "real", out[0].Name)
}
