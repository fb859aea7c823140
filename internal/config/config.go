// Package config defines CompileOptions, the translator's input
// configuration surface (§6.1), following the clone-and-return
// functional-options style of wazero's RuntimeConfig.
package config

import (
	"fmt"

	"github.com/spf13/cast"
)

// Backend selects the generated-code target (§6.1).
type Backend uint8

const (
	BackendC Backend = iota
	BackendX86Asm
	BackendARM64Asm
)

func (b Backend) String() string {
	switch b {
	case BackendC:
		return "c"
	case BackendX86Asm:
		return "x86asm"
	case BackendARM64Asm:
		return "arm64asm"
	default:
		return fmt.Sprintf("Backend(%d)", b)
	}
}

// AnalysisMode selects how much of the CFG the translator explores
// before lifting (§6.1).
type AnalysisMode uint8

const (
	AnalysisAuto AnalysisMode = iota
	AnalysisFullCfg
	AnalysisBasic
)

// AddressMode selects the guest-address translation strategy (§3.7).
type AddressMode uint8

const (
	AddressUnchecked AddressMode = iota
	AddressWrap
	AddressBounds
)

// InstretMode selects how instruction-retirement counting and
// suspension are emitted (§4.6 "Instret suspension").
type InstretMode uint8

const (
	InstretOff InstretMode = iota
	InstretCount
	InstretSuspend
	InstretPerInstruction
)

// SyscallMode selects the ecall lowering strategy (§6.5).
type SyscallMode uint8

const (
	SyscallBaremetal SyscallMode = iota
	SyscallLinux
)

// TracerKind selects the tracer state family embedded in RvState
// (§3.8). Values are chosen to match RV_TRACER_KIND emitted into
// generated artifacts.
type TracerKind uint32

const (
	TracerNone TracerKind = iota
	TracerPreflight
	TracerStats
	TracerFfi
	TracerDynamic
	TracerDebug
	TracerDiff
	TracerBufferedDiff
	TracerSpike
	TracerCustom
)

// FixedAddresses pins state and memory to absolute addresses, removing
// their pointer arguments from block function signatures (§4.5).
type FixedAddresses struct {
	StateAddr  uint64
	MemoryAddr uint64
}

// TracerConfig carries the tracer selection plus, for TracerCustom, the
// caller-supplied header and extra block-function parameters.
type TracerConfig struct {
	Kind          TracerKind
	CustomHeader  string
	CustomPassed  []string
}

// CompileOptions is the full input configuration for one translation
// run (§6.1). Use NewCompileOptions and the With* builder methods;
// the zero value is not a valid configuration.
type CompileOptions struct {
	backend         Backend
	analysisMode    AnalysisMode
	addressMode     AddressMode
	instretMode     InstretMode
	syscallMode     SyscallMode
	htif            bool
	htifVerbose     bool
	exportFunctions bool
	lineInfo        bool
	tracer          TracerConfig
	compiler        string
	linker          string
	fixedAddresses  *FixedAddresses
	enableSuperblock bool
	perfMode        bool
	jobs            int
}

// defaultOptions mirrors wazero's engineLessConfig pattern: a single
// base value every constructor clones from so adding a field can never
// silently leave a builder with a zero default.
var defaultOptions = &CompileOptions{
	backend:          BackendC,
	analysisMode:     AnalysisAuto,
	addressMode:      AddressBounds,
	instretMode:      InstretOff,
	syscallMode:      SyscallLinux,
	exportFunctions:  false,
	lineInfo:         false,
	tracer:           TracerConfig{Kind: TracerNone},
	compiler:         "cc",
	linker:           "",
	enableSuperblock: true,
	perfMode:         false,
	jobs:             0,
}

// NewCompileOptions returns a CompileOptions with the translator's
// documented defaults: C backend, Bounds addressing, Linux syscalls,
// superblock formation on.
func NewCompileOptions() *CompileOptions {
	return defaultOptions.clone()
}

func (c *CompileOptions) clone() *CompileOptions {
	cp := *c
	if c.fixedAddresses != nil {
		fa := *c.fixedAddresses
		cp.fixedAddresses = &fa
	}
	return &cp
}

func (c *CompileOptions) WithBackend(b Backend) *CompileOptions {
	ret := c.clone()
	ret.backend = b
	return ret
}

func (c *CompileOptions) WithAnalysisMode(m AnalysisMode) *CompileOptions {
	ret := c.clone()
	ret.analysisMode = m
	return ret
}

func (c *CompileOptions) WithAddressMode(m AddressMode) *CompileOptions {
	ret := c.clone()
	ret.addressMode = m
	return ret
}

func (c *CompileOptions) WithInstretMode(m InstretMode) *CompileOptions {
	ret := c.clone()
	ret.instretMode = m
	return ret
}

func (c *CompileOptions) WithSyscallMode(m SyscallMode) *CompileOptions {
	ret := c.clone()
	ret.syscallMode = m
	return ret
}

func (c *CompileOptions) WithHtif(enabled, verbose bool) *CompileOptions {
	ret := c.clone()
	ret.htif = enabled
	ret.htifVerbose = verbose
	return ret
}

func (c *CompileOptions) WithExportFunctions(enabled bool) *CompileOptions {
	ret := c.clone()
	ret.exportFunctions = enabled
	return ret
}

func (c *CompileOptions) WithLineInfo(enabled bool) *CompileOptions {
	ret := c.clone()
	ret.lineInfo = enabled
	return ret
}

func (c *CompileOptions) WithTracer(t TracerConfig) *CompileOptions {
	ret := c.clone()
	ret.tracer = t
	return ret
}

func (c *CompileOptions) WithCompiler(cc, linker string) *CompileOptions {
	ret := c.clone()
	ret.compiler = cc
	ret.linker = linker
	return ret
}

func (c *CompileOptions) WithFixedAddresses(stateAddr, memoryAddr uint64) *CompileOptions {
	ret := c.clone()
	ret.fixedAddresses = &FixedAddresses{StateAddr: stateAddr, MemoryAddr: memoryAddr}
	return ret
}

func (c *CompileOptions) WithEnableSuperblock(enabled bool) *CompileOptions {
	ret := c.clone()
	ret.enableSuperblock = enabled
	return ret
}

// WithPerfMode forces InstretMode to Off, matching §6.1's "perf_mode
// (forces instret_mode = Off)".
func (c *CompileOptions) WithPerfMode(enabled bool) *CompileOptions {
	ret := c.clone()
	ret.perfMode = enabled
	if enabled {
		ret.instretMode = InstretOff
	}
	return ret
}

// WithJobs sets the partition/worker count for codegen fan-out (§4.6).
// jobs may be any value cast accepts as an int (string flags included);
// 0 or a cast failure means auto (runtime.NumCPU).
func (c *CompileOptions) WithJobs(jobs interface{}) *CompileOptions {
	ret := c.clone()
	n, err := cast.ToIntE(jobs)
	if err != nil || n < 0 {
		n = 0
	}
	ret.jobs = n
	return ret
}

func (c *CompileOptions) Backend() Backend                 { return c.backend }
func (c *CompileOptions) AnalysisMode() AnalysisMode        { return c.analysisMode }
func (c *CompileOptions) AddressMode() AddressMode          { return c.addressMode }
func (c *CompileOptions) InstretMode() InstretMode          { return c.instretMode }
func (c *CompileOptions) SyscallMode() SyscallMode          { return c.syscallMode }
func (c *CompileOptions) Htif() (enabled, verbose bool)     { return c.htif, c.htifVerbose }
func (c *CompileOptions) ExportFunctions() bool             { return c.exportFunctions }
func (c *CompileOptions) LineInfo() bool                    { return c.lineInfo }
func (c *CompileOptions) Tracer() TracerConfig              { return c.tracer }
func (c *CompileOptions) Compiler() (cc, linker string)     { return c.compiler, c.linker }
func (c *CompileOptions) FixedAddresses() *FixedAddresses   { return c.fixedAddresses }
func (c *CompileOptions) EnableSuperblock() bool            { return c.enableSuperblock }
func (c *CompileOptions) PerfMode() bool                    { return c.perfMode }
func (c *CompileOptions) Jobs() int                         { return c.jobs }

// ResolvedAnalysisMode applies the documented auto-selection rule:
// FullCfg for the C backend, Basic for the asm backends (§6.1).
func (c *CompileOptions) ResolvedAnalysisMode() AnalysisMode {
	if c.analysisMode != AnalysisAuto {
		return c.analysisMode
	}
	if c.backend == BackendC {
		return AnalysisFullCfg
	}
	return AnalysisBasic
}
