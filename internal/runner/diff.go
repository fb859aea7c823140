package runner

import (
	"fmt"

	"github.com/rvjit/rvjit/internal/config"
	"github.com/rvjit/rvjit/internal/elfimage"
	"github.com/rvjit/rvjit/internal/rverr"
)

// Divergence describes the first point at which two runners under
// lockstep comparison disagreed (§7 property 5, "running b1 and b2
// under lockstep instruction-by-instruction comparison... produces
// zero divergences").
type Divergence struct {
	Step     uint64
	PCa, PCb uint64
}

// DiffRunner drives two libraries built for different backends in
// per-instruction lockstep, comparing PC after every retired
// instruction (§4.9 "DiffRunner<X, NUM_REGS> — state includes a diff
// tracer and a suspender"). The tracer's own buffer content is a
// backend-internal detail the core never inspects (§1 Non-goals, "the
// specific content of any particular tracer... beyond the trait each
// must implement"); comparison here works entirely off the stable
// rv_get_pc/rv_get_instret ABI instead.
type DiffRunner struct {
	a, b *StandardRunner
}

// NewDiffRunner opens both libraries with instret mode forced to
// per-instruction suspension, the only mode granular enough for
// instruction-by-instruction comparison.
func NewDiffRunner(pathA, pathB string, opts *config.CompileOptions, img *elfimage.Image) (*DiffRunner, error) {
	stepOpts := opts.WithInstretMode(config.InstretPerInstruction)

	a, err := NewStandardRunner(pathA, stepOpts, img)
	if err != nil {
		return nil, fmt.Errorf("runner: diff runner A: %w", err)
	}
	b, err := NewStandardRunner(pathB, stepOpts, img)
	if err != nil {
		_ = a.Close()
		return nil, fmt.Errorf("runner: diff runner B: %w", err)
	}
	return &DiffRunner{a: a, b: b}, nil
}

// Close closes both underlying runners.
func (d *DiffRunner) Close() error {
	aErr := d.a.Close()
	bErr := d.b.Close()
	if aErr != nil {
		return aErr
	}
	return bErr
}

// Run steps both runners one instruction at a time up to maxSteps,
// returning the first Divergence encountered, or nil if both runners
// agree on PC at every step and both exit with the same code.
func (d *DiffRunner) Run(maxSteps uint64) (*Divergence, error) {
	d.a.Reset()
	d.a.SetPC(uint64(d.a.lib.EntryPoint()))
	if ok := d.a.SetTargetInstret(1); !ok {
		return nil, fmt.Errorf("runner: diff runner requires suspend-capable instret mode: %w", rverr.TracerSetupError)
	}
	d.b.Reset()
	d.b.SetPC(uint64(d.b.lib.EntryPoint()))
	d.b.SetTargetInstret(1)

	resA, errA := d.a.Resume()
	resB, errB := d.b.Resume()

	for step := uint64(0); step < maxSteps; step++ {
		pcA, pcB := d.a.PC(), d.b.PC()
		if pcA != pcB {
			return &Divergence{Step: step, PCa: pcA, PCb: pcB}, nil
		}

		aDone := errA != nil || !resA.Suspended
		bDone := errB != nil || !resB.Suspended
		if aDone || bDone {
			if aDone != bDone {
				return &Divergence{Step: step, PCa: pcA, PCb: pcB}, nil
			}
			return nil, firstNonNil(errA, errB)
		}

		d.a.SetTargetInstret(d.a.Instret() + 1)
		d.b.SetTargetInstret(d.b.Instret() + 1)
		resA, errA = d.a.Resume()
		resB, errB = d.b.Resume()
	}
	return nil, nil
}

func firstNonNil(errs ...error) error {
	for _, e := range errs {
		if e != nil {
			return e
		}
	}
	return nil
}

// BufferedDiffRunner behaves like DiffRunner but compares PCs in
// batches of blockSize instructions rather than after every single
// step, mirroring BufferedDiff's ring-buffer block-level granularity
// (§4.8 "ring buffer of the above for block-level comparison") while
// still only relying on the stable ABI, not tracer buffer internals.
type BufferedDiffRunner struct {
	DiffRunner
	blockSize uint64
}

// NewBufferedDiffRunner is NewDiffRunner plus a batch size.
func NewBufferedDiffRunner(pathA, pathB string, opts *config.CompileOptions, img *elfimage.Image, blockSize uint64) (*BufferedDiffRunner, error) {
	d, err := NewDiffRunner(pathA, pathB, opts, img)
	if err != nil {
		return nil, err
	}
	if blockSize == 0 {
		blockSize = 1
	}
	return &BufferedDiffRunner{DiffRunner: *d, blockSize: blockSize}, nil
}

// Run steps both runners blockSize instructions at a time, checking
// divergence only at batch boundaries.
func (d *BufferedDiffRunner) Run(maxBlocks uint64) (*Divergence, error) {
	d.a.Reset()
	d.a.SetPC(uint64(d.a.lib.EntryPoint()))
	if ok := d.a.SetTargetInstret(d.blockSize); !ok {
		return nil, fmt.Errorf("runner: diff runner requires suspend-capable instret mode: %w", rverr.TracerSetupError)
	}
	d.b.Reset()
	d.b.SetPC(uint64(d.b.lib.EntryPoint()))
	d.b.SetTargetInstret(d.blockSize)

	resA, errA := d.a.Resume()
	resB, errB := d.b.Resume()

	for block := uint64(0); block < maxBlocks; block++ {
		pcA, pcB := d.a.PC(), d.b.PC()
		if pcA != pcB {
			return &Divergence{Step: block * d.blockSize, PCa: pcA, PCb: pcB}, nil
		}

		aDone := errA != nil || !resA.Suspended
		bDone := errB != nil || !resB.Suspended
		if aDone || bDone {
			if aDone != bDone {
				return &Divergence{Step: block * d.blockSize, PCa: pcA, PCb: pcB}, nil
			}
			return nil, firstNonNil(errA, errB)
		}

		d.a.SetTargetInstret(d.a.Instret() + d.blockSize)
		d.b.SetTargetInstret(d.b.Instret() + d.blockSize)
		resA, errA = d.a.Resume()
		resB, errB = d.b.Resume()
	}
	return nil, nil
}
