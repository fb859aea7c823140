package emit

import (
	"github.com/rvjit/rvjit/internal/config"
	"github.com/rvjit/rvjit/internal/isa"
)

// Param is one argument slot of a generated block function.
type Param struct {
	Kind ParamKind
	Reg  isa.Reg // meaningful only when Kind == ParamHotReg
}

type ParamKind uint8

const (
	ParamState ParamKind = iota
	ParamMemory
	ParamInstret
	ParamTracerVar
	ParamHotReg
)

// Signature is the parameter list every block function shares, built
// once per translation unit and reused by every block (§4.5).
type Signature struct {
	Params  []Param
	HotRegs []isa.Reg
}

// BuildSignature assembles the shared block-function signature from
// the resolved options: state/memory pointers are omitted entirely
// under fixed-address mode, an instret parameter is added when
// counting is enabled, and tracer-passed vars are threaded per the
// tracer config (§4.5).
func BuildSignature(opts *config.CompileOptions, hotRegs []isa.Reg, tracerVars []string) Signature {
	var params []Param
	if opts.FixedAddresses() == nil {
		params = append(params, Param{Kind: ParamState}, Param{Kind: ParamMemory})
	}
	if opts.InstretMode() != config.InstretOff {
		params = append(params, Param{Kind: ParamInstret})
	}
	for range tracerVars {
		params = append(params, Param{Kind: ParamTracerVar})
	}
	for _, r := range hotRegs {
		params = append(params, Param{Kind: ParamHotReg, Reg: r})
	}
	return Signature{Params: params, HotRegs: hotRegs}
}
