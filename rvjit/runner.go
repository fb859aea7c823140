package rvjit

import (
	"github.com/rvjit/rvjit/internal/config"
	"github.com/rvjit/rvjit/internal/runner"
)

// NewRunner opens the compiled library the Translate call produced and
// returns the runner variant opts selects: a FixedAddrRunner when opts
// carries config.WithFixedAddresses, a StandardRunner otherwise (§4.8,
// §4.9, §6.1).
func (r *Result) NewRunner(opts *config.CompileOptions) (Runner, error) {
	if opts.FixedAddresses() != nil {
		return runner.NewFixedAddrRunner(r.LibraryPath, opts, r.Image)
	}
	return runner.NewStandardRunner(r.LibraryPath, opts, r.Image)
}

// Runner is the common surface StandardRunner and FixedAddrRunner both
// implement, letting a caller drive either without a type switch.
type Runner interface {
	Run() (runner.RunResult, error)
	Resume() (runner.RunResult, error)
	Close() error
}
