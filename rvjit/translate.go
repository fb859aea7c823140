// Package rvjit is the public entry point tying ELF loading, CFG
// discovery, IR lifting, backend code generation and host compilation
// into one static translation pipeline (§6), and the Runner
// construction that loads the result back in for execution (§4.8,
// §4.9).
package rvjit

import (
	"fmt"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/rs/zerolog"

	"github.com/rvjit/rvjit/internal/backend/arm64asm"
	"github.com/rvjit/rvjit/internal/backend/cbackend"
	"github.com/rvjit/rvjit/internal/backend/x86asm"
	"github.com/rvjit/rvjit/internal/cfg"
	"github.com/rvjit/rvjit/internal/config"
	"github.com/rvjit/rvjit/internal/elfimage"
	"github.com/rvjit/rvjit/internal/hostcc"
	"github.com/rvjit/rvjit/internal/lift"
)

// Result is the outcome of a successful Translate call.
type Result struct {
	// Dir is the directory the generated artifact set was written to.
	Dir string
	// LibraryPath is the compiled shared library's path, ready for
	// runner.Open (or runner.NewStandardRunner et al.).
	LibraryPath string
	// Image is the parsed ELF the translation was built from, reused
	// by a Runner to load PT_LOAD segments into guest memory.
	Image *elfimage.Image
}

// Translate loads elfPath, discovers the control-flow graph reachable
// from its entry point, lifts it to IR, renders it through the backend
// opts.Backend() selects, writes the resulting artifact set under
// outDir, and invokes the host compiler to produce a loadable shared
// library (§6.1-§6.3).
func Translate(elfPath, outDir string, opts *config.CompileOptions, log zerolog.Logger) (*Result, error) {
	img, err := elfimage.Load(elfPath, log)
	if err != nil {
		return nil, err
	}

	dec := buildDecoder(img.Xlen, opts)

	table, err := cfg.Build(img, dec, []uint64{img.Entry}, cfg.Options{
		EnableSuperblock: opts.EnableSuperblock(),
	})
	if err != nil {
		return nil, err
	}

	var lines lift.LineResolver
	if img.Lines != nil {
		lines = img.Lines
	}
	prog, err := lift.Lift(img, dec, table, lines)
	if err != nil {
		return nil, err
	}

	baseName := strings.TrimSuffix(filepath.Base(elfPath), filepath.Ext(elfPath))

	files, bins, err := generate(baseName, opts, img, prog)
	if err != nil {
		return nil, err
	}

	if err := writeArtifacts(outDir, files, bins); err != nil {
		return nil, err
	}

	cc, linker := opts.Compiler()
	if cc == "" {
		cc = "cc"
	}
	tc := hostcc.Toolchain{CC: cc, Linker: linker}
	jobs := opts.Jobs()
	if jobs <= 0 {
		jobs = runtime.NumCPU()
	}
	if err := tc.Make(outDir, log, "", jobs); err != nil {
		return nil, err
	}

	return &Result{
		Dir:         outDir,
		LibraryPath: filepath.Join(outDir, fmt.Sprintf("lib%s.so", baseName)),
		Image:       img,
	}, nil
}

// generate dispatches to the backend opts.Backend() selects. All three
// share the identical Generate(baseName, opts, img, prog) signature
// (§6.2); only the concrete ArtifactSet type differs; their Files/Bins
// fields are read back into plain maps here so the rest of the package
// does not need a backend-specific type switch.
func generate(baseName string, opts *config.CompileOptions, img *elfimage.Image, prog *lift.Program) (map[string]string, map[string][]byte, error) {
	switch opts.Backend() {
	case config.BackendX86Asm:
		set, err := x86asm.Generate(baseName, opts, img, prog)
		if err != nil {
			return nil, nil, err
		}
		return set.Files, set.Bins, nil
	case config.BackendARM64Asm:
		set, err := arm64asm.Generate(baseName, opts, img, prog)
		if err != nil {
			return nil, nil, err
		}
		return set.Files, set.Bins, nil
	default:
		set, err := cbackend.Generate(baseName, opts, img, prog)
		if err != nil {
			return nil, nil, err
		}
		return set.Files, set.Bins, nil
	}
}
