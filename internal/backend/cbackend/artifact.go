package cbackend

import (
	"fmt"
	"runtime"

	"github.com/rvjit/rvjit/internal/config"
	"github.com/rvjit/rvjit/internal/elfimage"
	"github.com/rvjit/rvjit/internal/emit"
	"github.com/rvjit/rvjit/internal/hostcc"
	"github.com/rvjit/rvjit/internal/lift"
	"github.com/rvjit/rvjit/internal/rtstate"
)

// ArtifactSet is the full set of generated files for one translation
// run, keyed by filename, ready to be written under an output
// directory (§6.2).
type ArtifactSet struct {
	Files map[string]string
	Bins  map[string][]byte
}

// Generate renders the complete C backend artifact directory for prog
// under opts (§6.2, §4.6).
func Generate(baseName string, opts *config.CompileOptions, img *elfimage.Image, prog *lift.Program) (*ArtifactSet, error) {
	jobs := opts.Jobs()
	if jobs <= 0 {
		jobs = runtime.NumCPU()
	}

	hotRegs := emit.SelectHotRegs(DefaultSlotBudget(opts), 0)
	var tracerVars []string // populated per tracer config; none of the builtin tracers need extra passed vars yet
	sig := emit.BuildSignature(opts, hotRegs, tracerVars)
	dispatch := emit.BuildDispatchTable(prog.Table)

	xlenBytes := 8
	if img.Xlen == elfimage.Xlen32 {
		xlenBytes = 4
	}
	layout := rtstate.Compute(xlenBytes, rtstate.NumGPRs, opts.InstretMode() == config.InstretSuspend, 0, 0)

	htif := ResolveHtif(img, opts)

	set := &ArtifactSet{Files: map[string]string{}, Bins: map[string][]byte{}}
	set.Files[baseName+".h"] = GenerateHeader(baseName, opts, layout, htif)
	set.Files[baseName+"_blocks.h"] = GenerateBlocksHeader(baseName, sig, prog.Table)
	set.Files[baseName+"_dispatch.c"] = GenerateDispatch(baseName, opts, sig, dispatch)
	set.Files["abi.c"] = GenerateABI(baseName, opts, layout, uint32(img.Entry))

	memoryC, bins := GenerateMemory(img, EmbedHex, 0)
	set.Files["memory.c"] = memoryC
	for name, data := range bins {
		set.Bins[name] = data
	}

	if opts.SyscallMode() == config.SyscallLinux {
		set.Files["syscalls.c"] = GenerateSyscalls(baseName)
	}
	if htif != nil {
		set.Files["htif.c"] = GenerateHtif(baseName, *htif)
	}

	blockStarts := make([]uint64, 0, len(prog.Blocks))
	for start := range prog.Blocks {
		blockStarts = append(blockStarts, start)
	}
	parts := Partition(blockStarts, jobs)
	for i, starts := range parts {
		name := fmt.Sprintf("%s_part%d.c", baseName, i+1)
		set.Files[name] = GeneratePartition(baseName, opts, sig, dispatch, prog.Blocks, starts)
	}

	tc := hostcc.Toolchain{CC: ccOrDefault(opts)}
	set.Files["Makefile"] = GenerateMakefile(baseName, tc, jobs, extraObjs(opts, htif))

	return set, nil
}

func ccOrDefault(opts *config.CompileOptions) string {
	cc, _ := opts.Compiler()
	if cc == "" {
		return "cc"
	}
	return cc
}

func extraObjs(opts *config.CompileOptions, htif *HtifConfig) []string {
	var objs []string
	if opts.SyscallMode() == config.SyscallLinux {
		objs = append(objs, "syscalls.o")
	}
	if htif != nil {
		objs = append(objs, "htif.o")
	}
	return objs
}

// DefaultSlotBudget resolves the hot-register slot count for the C
// backend on the host's architecture (§4.5).
func DefaultSlotBudget(opts *config.CompileOptions) int {
	if runtime.GOARCH == "arm64" {
		return emit.DefaultSlotBudget.CBackendArm64
	}
	return emit.DefaultSlotBudget.CBackendAmd64
}
