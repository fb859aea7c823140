package cbackend

import (
	"fmt"
	"strings"

	"github.com/rvjit/rvjit/internal/elfimage"
)

// EmbedMode selects how segment bytes are embedded into memory.c
// (§4.6 "Partitioning"): hex initializers are portable; #embed avoids
// the compiler choking on enormous initializer lists for large
// segments, at the cost of requiring C23.
type EmbedMode uint8

const (
	EmbedHex EmbedMode = iota
	EmbedC23
)

// GenerateMemory renders memory.c: per-segment data arrays plus
// rv_init_memory, and — for EmbedC23 — the sibling segment_N.bin files
// to place alongside it. No rv_free_memory function is emitted, and
// guardSize is not used.
func GenerateMemory(img *elfimage.Image, mode EmbedMode, guardSize int) (memoryC string, bins map[string][]byte) {
	bins = map[string][]byte{}
	var out strings.Builder
	out.WriteString("#include <stdint.h>\n#include <string.h>\n#include <stddef.h>\n\n")

	for i, seg := range img.Segments {
		switch mode {
		case EmbedC23:
			name := fmt.Sprintf("segment_%d.bin", i)
			bins[name] = seg.Data
			fmt.Fprintf(&out, "static const uint8_t rv_seg%d_data[] = {\n#embed \"%s\"\n};\n", i, name)
		default:
			fmt.Fprintf(&out, "static const uint8_t rv_seg%d_data[] = {\n", i)
			for j, b := range seg.Data {
				if j%20 == 0 {
					out.WriteString("  ")
				}
				fmt.Fprintf(&out, "0x%02x,", b)
				if j%20 == 19 {
					out.WriteByte('\n')
				}
			}
			out.WriteString("\n};\n")
		}
	}

	out.WriteString("\nvoid rv_init_memory(uint8_t* memory) {\n")
	for i, seg := range img.Segments {
		fmt.Fprintf(&out, "  memcpy(memory + 0x%xULL, rv_seg%d_data, %dULL);\n", seg.Vaddr, i, seg.Filesz)
		if seg.Memsz > seg.Filesz {
			fmt.Fprintf(&out, "  memset(memory + 0x%xULL, 0, %dULL);\n", seg.Vaddr+seg.Filesz, seg.Memsz-seg.Filesz)
		}
	}
	out.WriteString("}\n")
	return out.String(), bins
}
