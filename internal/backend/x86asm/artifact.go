package x86asm

import (
	"fmt"
	"strings"

	"github.com/rvjit/rvjit/internal/backend/cbackend"
	"github.com/rvjit/rvjit/internal/config"
	"github.com/rvjit/rvjit/internal/elfimage"
	"github.com/rvjit/rvjit/internal/emit"
	"github.com/rvjit/rvjit/internal/hostcc"
	"github.com/rvjit/rvjit/internal/lift"
	"github.com/rvjit/rvjit/internal/rtstate"
)

// ArtifactSet is the full set of generated files for one translation
// run targeting the x86-64 assembly backend (§6.2 "For asm backends").
type ArtifactSet struct {
	Files map[string]string
	Bins  map[string][]byte
}

// Generate renders <base>.S plus the shared C-side state layout,
// memory, syscall, HTIF and ABI helper files reused verbatim from the
// C backend generators (the RvState struct and host ABI are backend-
// agnostic), and a Makefile assembling and linking them together.
func Generate(baseName string, opts *config.CompileOptions, img *elfimage.Image, prog *lift.Program) (*ArtifactSet, error) {
	hotRegs := emit.SelectHotRegs(emit.DefaultSlotBudget.X86Asm, 0)
	guestRegs := make([]int, len(hotRegs))
	for i, r := range hotRegs {
		guestRegs[i] = int(r)
	}

	xlenBytes := 8
	if img.Xlen == elfimage.Xlen32 {
		xlenBytes = 4
	}
	layout := rtstate.Compute(xlenBytes, rtstate.NumGPRs, opts.InstretMode() == config.InstretSuspend, 0, 0)

	htif := cbackend.ResolveHtif(img, opts)

	set := &ArtifactSet{Files: map[string]string{}, Bins: map[string][]byte{}}
	set.Files[baseName+".S"] = GenerateProgram(baseName, prog, guestRegs, layout)
	set.Files[baseName+".h"] = cbackend.GenerateHeader(baseName, opts, layout, htif)
	set.Files["abi.c"] = cbackend.GenerateABI(baseName, opts, layout, uint32(img.Entry))

	memoryC, bins := cbackend.GenerateMemory(img, cbackend.EmbedHex, 0)
	set.Files["memory.c"] = memoryC
	for name, data := range bins {
		set.Bins[name] = data
	}

	if opts.SyscallMode() == config.SyscallLinux {
		set.Files["syscalls.c"] = cbackend.GenerateSyscalls(baseName)
	}
	if htif != nil {
		set.Files["htif.c"] = cbackend.GenerateHtif(baseName, *htif)
	}

	cc, _ := opts.Compiler()
	if cc == "" {
		cc = "cc"
	}
	set.Files["Makefile"] = generateMakefile(baseName, hostcc.Toolchain{CC: cc}, opts, htif != nil)
	return set, nil
}

func generateMakefile(baseName string, tc hostcc.Toolchain, opts *config.CompileOptions, htif bool) string {
	var out strings.Builder
	fmt.Fprintf(&out, "CC := %s\n", tc.CC)
	fmt.Fprintf(&out, "LIB := lib%s.so\n", baseName)
	extra := ""
	if opts.SyscallMode() == config.SyscallLinux {
		extra += " syscalls.o"
	}
	if htif {
		extra += " htif.o"
	}
	fmt.Fprintf(&out, "OBJS := %s.o abi.o memory.o%s\n", baseName, extra)
	fmt.Fprintf(&out, "CFLAGS := -O2 -fPIC -shared -fuse-ld=%s\n\n", tc.LLDName())

	out.WriteString(".PHONY: all clean\n")
	out.WriteString("all: $(LIB)\n\n")
	out.WriteString("$(LIB): $(OBJS)\n")
	out.WriteString("\t$(CC) $(CFLAGS) -o $@ $(OBJS)\n\n")
	fmt.Fprintf(&out, "%s.o: %s.S\n", baseName, baseName)
	out.WriteString("\t$(CC) -c -o $@ $<\n\n")
	out.WriteString("%.o: %.c\n")
	out.WriteString("\t$(CC) -c -O2 -fPIC -o $@ $<\n\n")
	out.WriteString("clean:\n\trm -f $(OBJS) $(LIB)\n")
	return out.String()
}
