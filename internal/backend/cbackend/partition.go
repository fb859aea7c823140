package cbackend

import (
	"fmt"
	"runtime"
	"strings"

	"github.com/rvjit/rvjit/internal/cfg"
	"github.com/rvjit/rvjit/internal/config"
	"github.com/rvjit/rvjit/internal/emit"
	"github.com/rvjit/rvjit/internal/ir"
)

// Partition splits a program's blocks into jobs roughly even-sized
// groups, the unit each <base>_partN.c file compiles independently
// (§4.6 "Partitioning").
func Partition(blockStarts []uint64, jobs int) [][]uint64 {
	if jobs <= 0 {
		jobs = runtime.NumCPU()
	}
	if jobs > len(blockStarts) {
		jobs = len(blockStarts)
	}
	if jobs <= 0 {
		return nil
	}
	parts := make([][]uint64, jobs)
	for i, start := range blockStarts {
		parts[i%jobs] = append(parts[i%jobs], start)
	}
	return parts
}

// GeneratePartition renders one <base>_partN.c file containing the
// block functions for the given starts.
func GeneratePartition(baseName string, opts *config.CompileOptions, sig emit.Signature, dispatch emit.DispatchTable, blocks map[uint64]*ir.BlockIR, starts []uint64) string {
	var out strings.Builder
	fmt.Fprintf(&out, "#include \"%s.h\"\n#include \"%s_blocks.h\"\n\n", baseName, baseName)
	for _, start := range starts {
		out.WriteString(GenerateBlock(opts, sig, dispatch, blocks[start]))
		out.WriteByte('\n')
	}
	return out.String()
}

// GenerateBlocksHeader renders <base>_blocks.h: forward declarations
// for every block function, so partitions can reference each other's
// tail-call targets (§4.6).
func GenerateBlocksHeader(baseName string, sig emit.Signature, table *cfg.BlockTable) string {
	var out strings.Builder
	fmt.Fprintf(&out, "#ifndef %s_BLOCKS_H\n#define %s_BLOCKS_H\n\n#include \"%s.h\"\n\n", strings.ToUpper(baseName), strings.ToUpper(baseName), baseName)
	params := cParamList(sig)
	for _, b := range table.Ordered() {
		fmt.Fprintf(&out, "RV_PRESERVE_NONE void B_%x(%s);\n", b.Start, params)
	}
	out.WriteString("\n#endif\n")
	return out.String()
}
